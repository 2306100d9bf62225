package inventory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kubev2v/inventory-advisor/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Loader reads every ingested source from wherever it is persisted.
type Loader interface {
	Load(ctx context.Context) ([]SourceData, error)
}

type LoaderFunc func(ctx context.Context) ([]SourceData, error)

func (f LoaderFunc) Load(ctx context.Context) ([]SourceData, error) { return f(ctx) }

// Holder owns the snapshot currently served. Readers call Current once per
// request and work on that value; Reload swaps the pointer only after the
// replacement is fully built.
type Holder struct {
	loader  Loader
	current atomic.Pointer[Snapshot]
	group   singleflight.Group
	mu      sync.Mutex
	epoch   uint64
}

func NewHolder(loader Loader) *Holder {
	h := &Holder{loader: loader}
	h.current.Store(EmptySnapshot())
	return h
}

// Current never returns nil.
func (h *Holder) Current() *Snapshot {
	return h.current.Load()
}

// Reload rebuilds the snapshot. Concurrent callers share the in-flight
// reload instead of starting their own.
func (h *Holder) Reload(ctx context.Context) (*Snapshot, error) {
	v, err, shared := h.group.Do("reload", func() (any, error) {
		return h.reload(ctx)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		zap.S().Named("inventory").Debugw("joined in-flight reload", "epoch", v.(*Snapshot).Epoch())
	}
	return v.(*Snapshot), nil
}

func (h *Holder) reload(ctx context.Context) (*Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := time.Now()
	sources, err := h.loader.Load(ctx)
	if err != nil {
		metrics.IncreaseSnapshotReloadsMetric("failed")
		zap.S().Named("inventory").Errorw("failed to load sources", "error", err)
		return nil, err
	}

	h.epoch++
	snap := NewSnapshot(h.epoch, sources)
	h.current.Store(snap)

	metrics.IncreaseSnapshotReloadsMetric("success")
	metrics.UpdateSnapshotEpochMetric(snap.Epoch())
	zap.S().Named("inventory").Infow("snapshot reloaded",
		"epoch", snap.Epoch(),
		"sources", len(sources),
		"vms", len(snap.VMs()),
		"hosts", len(snap.Hosts()),
		"duration", time.Since(start))

	return snap, nil
}
