package service

import (
	"context"
	"strings"
	"time"

	"github.com/kubev2v/inventory-advisor/internal/advisory"
	"github.com/kubev2v/inventory-advisor/internal/analytics"
	"github.com/kubev2v/inventory-advisor/internal/dr"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/findings/checks"
	"github.com/kubev2v/inventory-advisor/internal/hierarchy"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/ranking"
	"github.com/kubev2v/inventory-advisor/pkg/cache"
	"github.com/kubev2v/inventory-advisor/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	analysisCacheKey = "analysis"
	// Age based checks depend on the clock, so an analysis is recomputed at
	// least this often even when the snapshot does not change.
	DefaultAnalysisTTL = time.Hour
)

// Analysis is the full evaluation of one snapshot. Every view served for a
// request is derived from the same Analysis value.
type Analysis struct {
	Snapshot *inventory.Snapshot
	Tree     *hierarchy.Tree
	// Findings are ranked and deduplicated.
	Findings []findings.Finding
	DR       dr.Analysis
	Now      time.Time

	rates           analytics.Rates
	snapshotOldDays int
}

type AnalysisService struct {
	holder     *inventory.Holder
	catalog    *findings.Catalog
	drEngine   *dr.Engine
	advisor    *advisory.Service
	thresholds findings.Thresholds
	rates      analytics.Rates
	clock      func() time.Time
	ttl        time.Duration
	cache      *cache.Cache[*Analysis]
}

type AnalysisOption func(*AnalysisService)

func WithClock(clock func() time.Time) AnalysisOption {
	return func(s *AnalysisService) {
		s.clock = clock
	}
}

func WithRates(rates analytics.Rates) AnalysisOption {
	return func(s *AnalysisService) {
		s.rates = rates
	}
}

func WithDREngine(engine *dr.Engine) AnalysisOption {
	return func(s *AnalysisService) {
		s.drEngine = engine
	}
}

func WithAdvisory(advisor *advisory.Service) AnalysisOption {
	return func(s *AnalysisService) {
		s.advisor = advisor
	}
}

func WithAnalysisTTL(ttl time.Duration) AnalysisOption {
	return func(s *AnalysisService) {
		s.ttl = ttl
	}
}

func NewAnalysisService(holder *inventory.Holder, thresholds findings.Thresholds, opts ...AnalysisOption) *AnalysisService {
	s := &AnalysisService{
		holder:     holder,
		catalog:    checks.NewDefaultCatalog(thresholds),
		drEngine:   dr.NewEngine(),
		advisor:    advisory.NewService(nil),
		thresholds: thresholds,
		rates:      analytics.DefaultRates(),
		clock:      time.Now,
		ttl:        DefaultAnalysisTTL,
	}
	for _, o := range opts {
		o(s)
	}
	s.cache = cache.New[*Analysis](cache.WithTTL(s.ttl), cache.WithClock(s.clock))
	return s
}

// Analyze evaluates the snapshot currently served. Results are cached per
// snapshot epoch.
func (s *AnalysisService) Analyze(ctx context.Context) (*Analysis, error) {
	snap := s.holder.Current()
	return s.cache.GetOrLoad(analysisCacheKey, snap.Epoch(), func() (*Analysis, error) {
		return s.analyze(ctx, snap)
	})
}

func (s *AnalysisService) analyze(ctx context.Context, snap *inventory.Snapshot) (*Analysis, error) {
	start := time.Now()
	a := &Analysis{
		Snapshot: snap,
		Tree:     hierarchy.Build(snap),
		Now:      s.clock(),

		rates:           s.rates,
		snapshotOldDays: s.thresholds.SnapshotOldDays,
	}
	if err := a.Tree.Validate(); err != nil {
		zap.S().Named("analysis_service").Warnw("hierarchy rollups are inconsistent", "epoch", snap.Epoch(), "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw := s.catalog.Run(findings.Input{Snapshot: snap, Tree: a.Tree, Now: a.Now})
		a.Findings = ranking.Rank(raw, snap)
		return gctx.Err()
	})
	g.Go(func() error {
		a.DR = s.drEngine.Analyze(snap, a.Tree)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	counts := make(map[[2]string]int)
	for _, f := range a.Findings {
		counts[[2]string{string(f.Type), string(f.Severity)}]++
	}
	metrics.UpdateFindingsCountMetric(counts)

	zap.S().Named("analysis_service").Infow("snapshot analyzed",
		"epoch", snap.Epoch(),
		"findings", len(a.Findings),
		"dr_pairs", a.DR.Summary.TotalReplicatedVMs,
		"duration", time.Since(start))

	return a, nil
}

// Filter returns the ranked findings matching filter with their summary.
func (a *Analysis) Filter(filter ranking.Filter) ([]findings.Finding, ranking.Summary) {
	out := filter.Apply(a.Findings)
	return out, ranking.Summarize(out)
}

// Epoch is the epoch of the analyzed snapshot.
func (a *Analysis) Epoch() uint64 {
	return a.Snapshot.Epoch()
}

func (a *Analysis) Capacity() analytics.Capacity {
	return analytics.ComputeCapacity(a.Snapshot, a.Tree)
}

func (a *Analysis) Efficiency() analytics.Efficiency {
	return analytics.ComputeEfficiency(a.Snapshot, a.Now, a.snapshotOldDays)
}

func (a *Analysis) Cost() analytics.Cost {
	return analytics.ComputeCost(a.Snapshot, a.Findings, a.rates)
}

func (a *Analysis) Stats() analytics.Stats {
	return analytics.ComputeStats(a.Snapshot, a.Now, a.snapshotOldDays)
}

func (a *Analysis) OSDistribution() []analytics.OSShare {
	return analytics.ComputeOSDistribution(a.Snapshot)
}

func (a *Analysis) DiskWaste() analytics.DiskWaste {
	return analytics.ComputeDiskWaste(a.Snapshot)
}

func (a *Analysis) Reservations() []analytics.Reservation {
	return analytics.ComputeReservations(a.Snapshot)
}

// AdviseFinding returns advisory text for the finding referenced as
// TYPE:target, for example "EOL_OS:web01".
func (s *AnalysisService) AdviseFinding(ctx context.Context, a *Analysis, ref string) (advisory.Advice, error) {
	typ, target, ok := strings.Cut(ref, ":")
	if !ok || typ == "" || target == "" {
		return advisory.Advice{}, NewErrInvalidQuery("finding reference must be TYPE:target")
	}

	for _, f := range a.Findings {
		if strings.EqualFold(string(f.Type), typ) && f.Target == target {
			return s.advisor.ForFinding(ctx, f), nil
		}
	}
	return advisory.Advice{}, NewErrFindingNotFound(ref)
}

// AdviseMessage returns remediation text for a free-text health message.
func (s *AnalysisService) AdviseMessage(ctx context.Context, message string) advisory.Advice {
	return s.advisor.Remediation(ctx, message)
}

// Current is the snapshot served right now, analyzed or not.
func (s *AnalysisService) Current() *inventory.Snapshot {
	return s.holder.Current()
}
