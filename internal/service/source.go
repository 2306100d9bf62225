package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kubev2v/inventory-advisor/internal/events"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/rvtools"
	"github.com/kubev2v/inventory-advisor/internal/store"
	"github.com/kubev2v/inventory-advisor/internal/store/model"
	"github.com/kubev2v/inventory-advisor/pkg/metrics"
	"go.uber.org/zap"
)

// ingestTimeout bounds the database write of a single workbook. Large
// estates take a while and must not be cut short by the request context.
const ingestTimeout = 15 * time.Minute

// EventPublisher receives source lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, kind events.Kind, payload any) error
}

type SourceService struct {
	store     store.Store
	holder    *inventory.Holder
	publisher EventPublisher
}

type SourceServiceOption func(*SourceService)

func WithEventPublisher(p EventPublisher) SourceServiceOption {
	return func(s *SourceService) {
		s.publisher = p
	}
}

func NewSourceService(store store.Store, holder *inventory.Holder, opts ...SourceServiceOption) *SourceService {
	s := &SourceService{store: store, holder: holder}
	for _, o := range opts {
		o(s)
	}
	return s
}

// IngestResult describes the outcome of ingesting one workbook.
type IngestResult struct {
	Source model.Source
	// Unchanged is true when the workbook matched the stored checksum and
	// nothing was written.
	Unchanged bool
	Epoch     uint64
}

func (s *SourceService) ListSources(ctx context.Context, filter *SourceFilter) (model.SourceList, error) {
	storeFilter := store.NewSourceQueryFilter()
	if filter != nil && len(filter.Names) > 0 {
		storeFilter = storeFilter.ByName(filter.Names...)
	}

	return s.store.Source().List(ctx, storeFilter, store.NewSourceQueryOptions().WithSortOrder(store.SortByName))
}

func (s *SourceService) GetSource(ctx context.Context, name string) (*model.Source, error) {
	source, err := s.store.Source().Get(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrSourceNotFound(name)
		}
		return nil, err
	}

	return source, nil
}

// UploadWorkbook ingests an uploaded RVTools workbook and reloads the served
// snapshot. The source is named after the file name without extension.
func (s *SourceService) UploadWorkbook(ctx context.Context, fileName string, reader io.Reader) (IngestResult, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to read uploaded file content: %w", err)
	}

	if len(content) == 0 {
		return IngestResult{}, NewErrFileCorrupted("empty file uploaded")
	}

	zap.S().Named("source_service").Infow("received RVTools data", "file", fileName, "size [bytes]", len(content))

	if !rvtools.IsExcelFile(content) {
		return IngestResult{}, NewErrExcelFileNotValid()
	}

	result, err := s.ingest(ctx, fileName, content)
	if err != nil {
		return IngestResult{}, err
	}
	if result.Unchanged {
		result.Epoch = s.holder.Current().Epoch()
		return result, nil
	}

	snap, err := s.holder.Reload(ctx)
	if err != nil {
		return IngestResult{}, err
	}
	result.Epoch = snap.Epoch()

	s.publishIngested(ctx, result)
	s.publishReloaded(ctx, snap)

	return result, nil
}

// IngestDir ingests every workbook of dir and reloads once at the end.
// Workbooks that cannot be parsed are logged and skipped.
func (s *SourceService) IngestDir(ctx context.Context, dir string) ([]IngestResult, error) {
	books, err := rvtools.ScanDir(dir)
	if err != nil {
		return nil, err
	}

	results := make([]IngestResult, 0, len(books))
	changed := false
	for _, b := range books {
		content, err := os.ReadFile(b.Path)
		if err != nil {
			zap.S().Named("source_service").Warnw("failed to read workbook", "path", b.Path, "error", err)
			continue
		}

		result, err := s.ingest(ctx, b.Path, content)
		if err != nil {
			var corrupted *ErrFileCorrupted
			if errors.As(err, &corrupted) {
				zap.S().Named("source_service").Warnw("skipping workbook", "path", b.Path, "error", err)
				continue
			}
			return results, err
		}
		changed = changed || !result.Unchanged
		results = append(results, result)
	}

	epoch := s.holder.Current().Epoch()
	if changed || epoch == 0 {
		snap, err := s.holder.Reload(ctx)
		if err != nil {
			return results, err
		}
		epoch = snap.Epoch()
		defer s.publishReloaded(ctx, snap)
	}
	for i := range results {
		results[i].Epoch = epoch
		if !results[i].Unchanged {
			s.publishIngested(ctx, results[i])
		}
	}

	return results, nil
}

func (s *SourceService) DeleteSource(ctx context.Context, name string) error {
	txCtx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = store.Rollback(txCtx)
	}()

	if err := s.store.Source().Delete(txCtx, name); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return NewErrSourceNotFound(name)
		}
		return err
	}
	if _, err := store.Commit(txCtx); err != nil {
		return err
	}

	metrics.DeleteSourceRowsMetric(name)
	zap.S().Named("source_service").Infow("source deleted", "source", name)

	snap, err := s.holder.Reload(ctx)
	if err != nil {
		return err
	}

	s.publish(ctx, events.SourceDeletedKind, events.SourceEvent{Name: name, Epoch: snap.Epoch()})
	s.publishReloaded(ctx, snap)
	return nil
}

// Reload rebuilds the served snapshot from the store.
func (s *SourceService) Reload(ctx context.Context) (uint64, error) {
	snap, err := s.holder.Reload(ctx)
	if err != nil {
		return 0, err
	}
	s.publishReloaded(ctx, snap)
	return snap.Epoch(), nil
}

func (s *SourceService) ingest(ctx context.Context, fileName string, content []byte) (IngestResult, error) {
	name := rvtools.SourceName(fileName)
	checksum := rvtools.Checksum(content)

	existing, err := s.store.Source().Get(ctx, name)
	switch {
	case err == nil:
		if existing.Checksum == checksum {
			zap.S().Named("source_service").Infow("workbook unchanged", "source", name)
			return IngestResult{Source: *existing, Unchanged: true}, nil
		}
	case !errors.Is(err, store.ErrRecordNotFound):
		return IngestResult{}, err
	}

	data, err := rvtools.Parse(ctx, name, content)
	if err != nil {
		if errors.Is(err, rvtools.ErrNotWorkbook) || errors.Is(err, rvtools.ErrNoKnownSheets) {
			return IngestResult{}, NewErrRVToolsFileCorrupted(err.Error())
		}
		return IngestResult{}, fmt.Errorf("error parsing RVTools file: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ingestTimeout)
	defer cancel()

	writeCtx, err = s.store.NewTransactionContext(writeCtx)
	if err != nil {
		return IngestResult{}, err
	}
	defer func() {
		_, _ = store.Rollback(writeCtx)
	}()

	// a concurrent upload of the same workbook may have landed while parsing
	if current, err := s.store.Source().Get(writeCtx, name); err == nil && current.Checksum == checksum {
		return IngestResult{Source: *current, Unchanged: true}, nil
	}

	saved, err := s.store.Inventory().Replace(writeCtx, *model.NewSource(name, fileName, checksum), data)
	if err != nil {
		return IngestResult{}, err
	}
	if _, err := store.Commit(writeCtx); err != nil {
		return IngestResult{}, err
	}

	metrics.UpdateSourceRowsMetric(name, saved.RowCount)
	zap.S().Named("source_service").Infow("workbook ingested", "source", name, "rows", saved.RowCount, "tables", len(saved.Tables))

	return IngestResult{Source: *saved}, nil
}

func (s *SourceService) publishIngested(ctx context.Context, r IngestResult) {
	s.publish(ctx, events.SourceIngestedKind, events.SourceEvent{
		Name:     r.Source.Name,
		FileName: r.Source.FileName,
		Checksum: r.Source.Checksum,
		Rows:     r.Source.RowCount,
		Epoch:    r.Epoch,
	})
}

func (s *SourceService) publishReloaded(ctx context.Context, snap *inventory.Snapshot) {
	s.publish(ctx, events.SnapshotReloadedKind, events.ReloadEvent{Epoch: snap.Epoch(), Sources: len(snap.Sources())})
}

// publish never fails the operation that triggered it.
func (s *SourceService) publish(ctx context.Context, kind events.Kind, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, kind, payload); err != nil {
		zap.S().Named("source_service").Warnw("failed to publish event", "kind", kind, "error", err)
	}
}

type SourceFilterFunc func(s *SourceFilter)

type SourceFilter struct {
	Names []string
}

func NewSourceFilter(filters ...SourceFilterFunc) *SourceFilter {
	s := &SourceFilter{}
	for _, f := range filters {
		f(s)
	}
	return s
}

func (s *SourceFilter) WithOption(o SourceFilterFunc) *SourceFilter {
	o(s)
	return s
}

func WithSourceNames(names ...string) SourceFilterFunc {
	return func(s *SourceFilter) {
		s.Names = append(s.Names, names...)
	}
}
