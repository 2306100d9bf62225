package findings

import (
	"time"

	"github.com/kubev2v/inventory-advisor/internal/hierarchy"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Rank orders severities, CRITICAL first. Unknown values sort last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Severities lists every severity in rank order.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
}

func ParseSeverity(s string) (Severity, bool) {
	sev := Severity(s)
	return sev, sev.Rank() < 4
}

type Type string

const (
	TypeCPUUnderutilized       Type = "CPU_UNDERUTILIZED"
	TypePoweredOffDisk         Type = "POWERED_OFF_DISK"
	TypeConsolidateSnapshots   Type = "CONSOLIDATE_SNAPSHOTS"
	TypeOldSnapshot            Type = "OLD_SNAPSHOT"
	TypeEOLOS                  Type = "EOL_OS"
	TypeOldHWVersion           Type = "OLD_HW_VERSION"
	TypeVMTools                Type = "VM_TOOLS"
	TypeCPULimit               Type = "CPU_LIMIT"
	TypeRAMLimit               Type = "RAM_LIMIT"
	TypeNUMAAlignment          Type = "NUMA_ALIGNMENT"
	TypeLegacyNIC              Type = "LEGACY_NIC"
	TypeMemoryBalloon          Type = "MEMORY_BALLOON"
	TypeMemorySwap             Type = "MEMORY_SWAP"
	TypeHostCPUOvercommit      Type = "HOST_CPU_OVERCOMMIT"
	TypeDatastoreLowSpace      Type = "DATASTORE_LOW_SPACE"
	TypeDatastoreOvercommit    Type = "DATASTORE_OVERCOMMIT"
	TypeZombieResource         Type = "ZOMBIE_RESOURCE"
	TypeFloppyConnected        Type = "FLOPPY_CONNECTED"
	TypeStorageOverprovisioned Type = "STORAGE_OVERPROVISIONED"
	TypeZombieDisk             Type = "ZOMBIE_DISK"
	TypeAppOptimization        Type = "APP_OPTIMIZATION"
	TypeESXiOutdated           Type = "ESXI_OUTDATED"
	TypeBIOSOutdated           Type = "BIOS_OUTDATED"
	TypeRVHealth               Type = "RV_HEALTH"
)

type ResourceType string

const (
	ResourceVCPU        ResourceType = "vCPU"
	ResourceDiskGB      ResourceType = "DISK_GB"
	ResourcePerformance ResourceType = "Performance"
	ResourceSecurity    ResourceType = "Security"
	ResourceStorage     ResourceType = "Storage"
	ResourceCapacity    ResourceType = "Capacity"
	ResourceHealth      ResourceType = "Health"
)

// TargetKind tells which inventory entity Finding.Target names.
type TargetKind string

const (
	TargetVM        TargetKind = "vm"
	TargetHost      TargetKind = "host"
	TargetDatastore TargetKind = "datastore"
	// TargetDisk is an orphaned disk file, named by its datastore path.
	TargetDisk TargetKind = "disk"
)

type Finding struct {
	Target      string       `json:"target"`
	TargetKind  TargetKind   `json:"target_kind"`
	Type        Type         `json:"type"`
	Severity    Severity     `json:"severity"`
	Reason      string       `json:"reason"`
	Current     string       `json:"current_value"`
	Recommended string       `json:"recommended_value"`
	Savings     float64      `json:"potential_savings"`
	Resource    ResourceType `json:"resource_type"`
	Host        string       `json:"host"`
	Cluster     string       `json:"cluster"`
	Datacenter  string       `json:"datacenter"`
	Source      string       `json:"source"`
}

// Input is everything a check may read. The snapshot is immutable and the
// tree was built from it, so a check never sees two different epochs.
type Input struct {
	Snapshot *inventory.Snapshot
	Tree     *hierarchy.Tree
	// Now is the evaluation clock for age based checks.
	Now time.Time
	// OnSkip, when set, is told about every table or record a check skips.
	OnSkip func(check string, err error)
}

// Skip reports a skipped table or record. It never fails the check.
func (in Input) Skip(check string, err error) {
	if in.OnSkip != nil {
		in.OnSkip(check, err)
	}
}

// Require returns the table when it carries every field, reporting a skip
// otherwise. A missing table and a missing column are both skips.
func (in Input) Require(check string, name inventory.TableName, fields ...inventory.Field) (*inventory.Table, bool) {
	t := in.Snapshot.Table(name)
	if t.Empty() {
		if !in.Snapshot.HasTable(name) {
			in.Skip(check, inventory.NewErrMissingTable(name))
		}
		return t, false
	}
	if !t.Has(fields...) {
		in.Skip(check, inventory.NewErrMissingColumn(name, fields...))
		return t, false
	}
	return t, true
}

// Check is one entry of the catalog.
type Check interface {
	// Name identifies the check; it must be unique within a Catalog.
	Name() string
	// Tables lists the inventory tables the check reads.
	Tables() []inventory.TableName
	// Run evaluates the check. It must not fail: missing data yields no findings.
	Run(in Input) []Finding
}
