package checks

import (
	"fmt"
	"time"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

var (
	_ findings.Check = (*ConsolidateSnapshots)(nil)
	_ findings.Check = (*OldSnapshot)(nil)
)

// ConsolidateSnapshots reports VMs whose snapshots together outweigh a
// share of their disk capacity.
type ConsolidateSnapshots struct {
	ratio float64
}

type ConsolidateSnapshotsOption func(*ConsolidateSnapshots)

// WithSnapshotDiskRatio sets the snapshot-to-disk ratio above which a VM is reported.
func WithSnapshotDiskRatio(r float64) ConsolidateSnapshotsOption {
	return func(c *ConsolidateSnapshots) {
		if r > 0 {
			c.ratio = r
		}
	}
}

func NewConsolidateSnapshots(opts ...ConsolidateSnapshotsOption) *ConsolidateSnapshots {
	c := ConsolidateSnapshots{ratio: findings.DefaultThresholds().SnapshotHeavyDiskRatio}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *ConsolidateSnapshots) Name() string { return string(findings.TypeConsolidateSnapshots) }

func (c *ConsolidateSnapshots) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVSnapshot, inventory.TableVInfo}
}

func (c *ConsolidateSnapshots) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVSnapshot, inventory.FieldVM, inventory.FieldSize)
	if !ok {
		return nil
	}

	type usage struct {
		mib   float64
		count int
	}
	perVM := make(map[inventory.Key]*usage)
	for _, row := range table.Rows() {
		vm, ok := rowVM(in, c.Name(), row)
		if !ok {
			continue
		}
		size, ok := number(in, c.Name(), row, inventory.FieldSize)
		if !ok {
			continue
		}
		u, exists := perVM[vm.Key()]
		if !exists {
			u = &usage{}
			perVM[vm.Key()] = u
		}
		u.mib += size
		u.count++
	}

	var out []findings.Finding
	for _, vm := range in.Snapshot.VMs() {
		u, ok := perVM[vm.Key()]
		if !ok || u.mib <= 0 || u.mib <= vm.DiskMiB*c.ratio {
			continue
		}
		snapGB := gb(u.mib)
		f := forVM(vm, findings.TypeConsolidateSnapshots, findings.SeverityHigh, findings.ResourceDiskGB)
		f.Reason = fmt.Sprintf("%s GB of snapshots (%d snapshots) exceeds %.0f%% of the disk size.", formatFloat(snapGB), u.count, c.ratio*100)
		f.Current = formatFloat(snapGB) + " GB"
		f.Recommended = "0 GB"
		f.Savings = snapGB
		out = append(out, f)
	}
	return out
}

// OldSnapshot reports every snapshot older than the configured age.
type OldSnapshot struct {
	maxAge time.Duration
}

type OldSnapshotOption func(*OldSnapshot)

// WithSnapshotOldDays sets the snapshot age, in days, that is reported.
func WithSnapshotOldDays(days int) OldSnapshotOption {
	return func(c *OldSnapshot) {
		if days > 0 {
			c.maxAge = time.Duration(days) * 24 * time.Hour
		}
	}
}

func NewOldSnapshot(opts ...OldSnapshotOption) *OldSnapshot {
	c := OldSnapshot{maxAge: time.Duration(findings.DefaultThresholds().SnapshotOldDays) * 24 * time.Hour}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *OldSnapshot) Name() string { return string(findings.TypeOldSnapshot) }

func (c *OldSnapshot) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVSnapshot}
}

func (c *OldSnapshot) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVSnapshot, inventory.FieldVM, inventory.FieldDate)
	if !ok {
		return nil
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.Add(-c.maxAge)
	days := int(c.maxAge.Hours() / 24)

	var out []findings.Finding
	for _, row := range table.Rows() {
		vm, ok := rowVM(in, c.Name(), row)
		if !ok {
			continue
		}
		taken, ok := row.Date(inventory.FieldDate)
		if !ok {
			raw, _ := row.Value(inventory.FieldDate)
			in.Skip(c.Name(), inventory.NewErrValueCoercion(inventory.TableVSnapshot, inventory.FieldDate, raw))
			continue
		}
		if !taken.Before(cutoff) {
			continue
		}

		f := forVM(vm, findings.TypeOldSnapshot, findings.SeverityHigh, findings.ResourcePerformance)
		name := row.String(inventory.FieldName)
		if name == "" {
			name = "snapshot"
		}
		f.Reason = fmt.Sprintf("%s is older than %d days (%s).", name, days, taken.Format("2006-01-02"))
		f.Current = taken.Format("2006-01-02")
		f.Recommended = "Delete/Consolidate"
		out = append(out, f)
	}
	return out
}
