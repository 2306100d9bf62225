package report

import (
	"github.com/kubev2v/inventory-advisor/internal/analytics"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/hierarchy"
	"github.com/kubev2v/inventory-advisor/internal/ranking"
	"github.com/kubev2v/inventory-advisor/internal/service/report/types"
)

type StandardInventoryProcessor struct{}

func NewStandardInventoryProcessor() *StandardInventoryProcessor {
	return &StandardInventoryProcessor{}
}

func (p *StandardInventoryProcessor) ProcessInventory(in types.AnalysisInput) (*types.ReportData, error) {
	snap := in.Snapshot
	tree := in.Tree
	if tree == nil {
		tree = hierarchy.Build(snap)
	}

	ranked := in.Findings

	data := &types.ReportData{
		Timestamps: types.NewReportTimestamps(in.Now),
		Epoch:      snap.Epoch(),
		Sources:    snap.Sources(),
		Capacity:   analytics.ComputeCapacity(snap, tree),
		Efficiency: analytics.ComputeEfficiency(snap, in.Now, in.SnapshotOldDays),
		Cost:       analytics.ComputeCost(snap, ranked, in.Rates),
		OS:         analytics.ComputeOSDistribution(snap),
		DiskWaste:  analytics.ComputeDiskWaste(snap),
		Findings:   ranked,
		Summary:    ranking.Summarize(ranked),
		DR:         in.DR,
	}

	data.Executive = p.processExecutiveMetrics(analytics.ComputeStats(snap, in.Now, in.SnapshotOldDays), tree, data.Summary)

	return data, nil
}

func (p *StandardInventoryProcessor) processExecutiveMetrics(stats analytics.Stats, tree *hierarchy.Tree, summary ranking.Summary) types.ExecutiveMetrics {
	m := types.ExecutiveMetrics{
		TotalVMs:         stats.Total.VMs,
		PoweredOn:        stats.Total.PoweredOn,
		PoweredOff:       stats.Total.PoweredOff,
		Templates:        stats.Total.Templates,
		TotalVCPU:        stats.Total.TotalCPU,
		TotalMemoryGB:    stats.Total.TotalMemoryGB,
		TotalDiskGB:      stats.Total.TotalDiskGB,
		Snapshots:        stats.Total.Snapshots,
		OldSnapshots:     stats.Total.OldSnapshots,
		CriticalFindings: summary.BySeverity[findings.SeverityCritical],
		HighFindings:     summary.BySeverity[findings.SeverityHigh],
	}

	for _, src := range tree.Sources {
		m.TotalDatacenters += len(src.Datacenters)
		for _, dc := range src.Datacenters {
			m.TotalClusters += len(dc.Clusters)
			for _, c := range dc.Clusters {
				m.TotalHosts += len(c.Hosts)
			}
		}
	}

	return m
}
