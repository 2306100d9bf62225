package types

import (
	"time"

	"github.com/kubev2v/inventory-advisor/internal/analytics"
	"github.com/kubev2v/inventory-advisor/internal/dr"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/hierarchy"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/ranking"
)

type ReportRenderer interface {
	Render(data *ReportData) ([]byte, error)
	SupportedFormat() ReportFormat
	ContentType() string
}

type InventoryProcessor interface {
	ProcessInventory(in AnalysisInput) (*ReportData, error)
}

type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatHTML ReportFormat = "html"
	ReportFormatPDF  ReportFormat = "pdf"
)

func (f ReportFormat) Extension() string {
	return "." + string(f)
}

type ReportOptions struct {
	Format ReportFormat
	// MaxFindings caps the findings table. Zero keeps all of them.
	MaxFindings int
}

// AnalysisInput is one analysis of a single snapshot, already ranked.
type AnalysisInput struct {
	Snapshot        *inventory.Snapshot
	Tree            *hierarchy.Tree
	Findings        []findings.Finding
	DR              dr.Analysis
	Rates           analytics.Rates
	Now             time.Time
	SnapshotOldDays int
}

type ReportData struct {
	Options    ReportOptions
	Timestamps ReportTimestamps
	Epoch      uint64
	Sources    []inventory.SourceInfo
	Executive  ExecutiveMetrics
	Capacity   analytics.Capacity
	Efficiency analytics.Efficiency
	Cost       analytics.Cost
	OS         []analytics.OSShare
	DiskWaste  analytics.DiskWaste
	Findings   []findings.Finding
	Summary    ranking.Summary
	DR         dr.Analysis
}

// Empty is true when nothing was ingested yet.
func (d *ReportData) Empty() bool {
	return len(d.Sources) == 0
}

type ExecutiveMetrics struct {
	TotalVMs         int
	PoweredOn        int
	PoweredOff       int
	Templates        int
	TotalHosts       int
	TotalClusters    int
	TotalDatacenters int
	TotalVCPU        int
	TotalMemoryGB    float64
	TotalDiskGB      float64
	Snapshots        int
	OldSnapshots     int
	CriticalFindings int
	HighFindings     int
}

type ReportTimestamps struct {
	Generated     string
	GeneratedTime string
}

func NewReportTimestamps(now time.Time) ReportTimestamps {
	return ReportTimestamps{
		Generated:     now.Format("January 2, 2006"),
		GeneratedTime: now.Format("15:04:05 MST"),
	}
}
