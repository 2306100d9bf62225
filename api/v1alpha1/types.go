package v1alpha1

import (
	"time"

	"github.com/google/uuid"
	"github.com/kubev2v/inventory-advisor/internal/advisory"
	"github.com/kubev2v/inventory-advisor/internal/analytics"
	"github.com/kubev2v/inventory-advisor/internal/dr"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/hierarchy"
	"github.com/kubev2v/inventory-advisor/internal/ranking"
)

// Error is the body of every non 2xx reply.
type Error struct {
	Message   string  `json:"message"`
	RequestID *string `json:"request_id,omitempty"`
}

type Info struct {
	GitCommit   string `json:"git_commit"`
	VersionName string `json:"version_name"`
}

type Health struct {
	Status   string    `json:"status"`
	Epoch    uint64    `json:"epoch"`
	Sources  int       `json:"sources"`
	LoadedAt time.Time `json:"loaded_at"`
}

type SourceTable struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

type Source struct {
	Id         uuid.UUID     `json:"id"`
	Name       string        `json:"name"`
	FileName   string        `json:"file_name"`
	Checksum   string        `json:"checksum"`
	Rows       int           `json:"rows"`
	Tables     []SourceTable `json:"tables"`
	IngestedAt time.Time     `json:"ingested_at"`
}

type SourceList []Source

type IngestResult struct {
	Source    Source `json:"source"`
	Unchanged bool   `json:"unchanged"`
	Epoch     uint64 `json:"epoch"`
}

type Reload struct {
	Epoch uint64 `json:"epoch"`
}

type FindingList struct {
	Epoch    uint64             `json:"epoch"`
	Summary  ranking.Summary    `json:"summary"`
	Findings []findings.Finding `json:"findings"`
}

type Hierarchy struct {
	Epoch uint64          `json:"epoch"`
	Tree  *hierarchy.Tree `json:"tree"`
}

type DisasterRecovery struct {
	Epoch uint64 `json:"epoch"`
	dr.Analysis
}

type Advice struct {
	Epoch uint64 `json:"epoch"`
	advisory.Advice
}

// Analytics wraps one of the derived views of the served snapshot.
type Analytics[T any] struct {
	Epoch uint64 `json:"epoch"`
	Data  T      `json:"data"`
}

type (
	CapacityReply     = Analytics[analytics.Capacity]
	EfficiencyReply   = Analytics[analytics.Efficiency]
	CostReply         = Analytics[analytics.Cost]
	StatsReply        = Analytics[analytics.Stats]
	OSReply           = Analytics[[]analytics.OSShare]
	DiskWasteReply    = Analytics[analytics.DiskWaste]
	ReservationsReply = Analytics[[]analytics.Reservation]
)

// Request forms, validated by internal/handlers/validator.

type SourceUpload struct {
	FileName string `validate:"required,workbook,max=255"`
}

type SourceRef struct {
	Name string `validate:"required,source_name,max=255"`
}

type FindingsQuery struct {
	Source   string   `validate:"omitempty,source_name,max=255"`
	Severity string   `validate:"omitempty,severity"`
	Types    []string `validate:"dive,finding_type"`
	Limit    int      `validate:"gte=0"`
}

type ReportQuery struct {
	Format      string `validate:"required,report_format"`
	MaxFindings int    `validate:"gte=0"`
}
