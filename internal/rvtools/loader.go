package rvtools

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

const defaultParallelism = 4

// Workbook is one file found in a workbook directory.
type Workbook struct {
	Path   string
	Source string
}

// ScanDir lists the workbooks of dir sorted by source name.
func ScanDir(dir string) ([]Workbook, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read workbook directory %s", dir)
	}
	var out []Workbook
	for _, e := range entries {
		if e.IsDir() || !IsWorkbookName(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		out = append(out, Workbook{Path: path, Source: SourceName(path)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source < out[j].Source })
	return out, nil
}

// DirLoader parses every workbook of a directory on each load. It backs the
// command line analysis, where nothing is persisted.
type DirLoader struct {
	dir         string
	parallelism int
}

var _ inventory.Loader = (*DirLoader)(nil)

func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir, parallelism: defaultParallelism}
}

// Load skips workbooks that cannot be parsed and fails only when the
// directory itself cannot be read.
func (l *DirLoader) Load(ctx context.Context) ([]inventory.SourceData, error) {
	books, err := ScanDir(l.dir)
	if err != nil {
		return nil, err
	}

	results := make([]*inventory.SourceData, len(books))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallelism)
	for i, b := range books {
		g.Go(func() error {
			content, err := os.ReadFile(b.Path)
			if err != nil {
				zap.S().Named("rvtools").Warnw("failed to read workbook", "path", b.Path, "error", err)
				return nil
			}
			src, err := Parse(gctx, b.Source, content)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				zap.S().Named("rvtools").Warnw("skipping workbook", "path", b.Path, "error", err)
				return nil
			}
			results[i] = &src
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]inventory.SourceData, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}
