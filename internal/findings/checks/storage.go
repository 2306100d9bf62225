package checks

import (
	"fmt"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/pkg/normalize"
)

var (
	_ findings.Check = (*DatastoreLowSpace)(nil)
	_ findings.Check = (*DatastoreOvercommit)(nil)
	_ findings.Check = (*StorageOverprovisioned)(nil)
)

var datastoreTables = []inventory.TableName{inventory.TableVDatastore}

func forDatastore(row inventory.Row, t findings.Type, sev findings.Severity) findings.Finding {
	return findings.Finding{
		Target:     row.String(inventory.FieldName),
		TargetKind: findings.TargetDatastore,
		Type:       t,
		Severity:   sev,
		Resource:   findings.ResourceStorage,
		Cluster:    row.String(inventory.FieldClusterName),
		Source:     row.Source(),
	}
}

// DatastoreLowSpace reports datastores whose free share falls under one of
// three tiers.
type DatastoreLowSpace struct {
	warn, high, critical float64
}

type DatastoreLowSpaceOption func(*DatastoreLowSpace)

// WithFreeSpaceTiers sets the free percentage tiers. They are ignored unless
// warn > high > critical > 0.
func WithFreeSpaceTiers(warn, high, critical float64) DatastoreLowSpaceOption {
	return func(c *DatastoreLowSpace) {
		if critical > 0 && high > critical && warn > high && warn <= 100 {
			c.warn, c.high, c.critical = warn, high, critical
		}
	}
}

func NewDatastoreLowSpace(opts ...DatastoreLowSpaceOption) *DatastoreLowSpace {
	d := findings.DefaultThresholds()
	c := DatastoreLowSpace{warn: d.DatastoreFreeWarnPct, high: d.DatastoreFreeHighPct, critical: d.DatastoreFreeCriticalPct}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *DatastoreLowSpace) Name() string                  { return string(findings.TypeDatastoreLowSpace) }
func (c *DatastoreLowSpace) Tables() []inventory.TableName { return datastoreTables }

func (c *DatastoreLowSpace) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVDatastore, inventory.FieldName, inventory.FieldCapacity, inventory.FieldFree)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		if row.String(inventory.FieldName) == "" {
			continue
		}
		capacity, ok := number(in, c.Name(), row, inventory.FieldCapacity)
		if !ok || capacity <= 0 {
			continue
		}
		free, ok := number(in, c.Name(), row, inventory.FieldFree)
		if !ok {
			continue
		}

		freePct := normalize.Percent(free, capacity)
		var sev findings.Severity
		switch {
		case freePct < c.critical:
			sev = findings.SeverityCritical
		case freePct < c.high:
			sev = findings.SeverityHigh
		case freePct < c.warn:
			sev = findings.SeverityMedium
		default:
			continue
		}

		f := forDatastore(row, findings.TypeDatastoreLowSpace, sev)
		f.Reason = fmt.Sprintf("Datastore has %.1f%% free (%s of %s GB).", freePct, formatFloat(gb(free)), formatFloat(gb(capacity)))
		f.Current = fmt.Sprintf("%.1f%%", freePct)
		f.Recommended = fmt.Sprintf(">%s%%", formatFloat(c.high))
		out = append(out, f)
	}
	return out
}

// DatastoreOvercommit reports datastores with more provisioned than
// physical capacity, tiered by the overcommit percentage.
type DatastoreOvercommit struct {
	high, critical float64
}

type DatastoreOvercommitOption func(*DatastoreOvercommit)

// WithOvercommitTiers sets the overcommit percentages for HIGH and CRITICAL.
func WithOvercommitTiers(high, critical float64) DatastoreOvercommitOption {
	return func(c *DatastoreOvercommit) {
		if high > 0 && critical > high {
			c.high, c.critical = high, critical
		}
	}
}

func NewDatastoreOvercommit(opts ...DatastoreOvercommitOption) *DatastoreOvercommit {
	d := findings.DefaultThresholds()
	c := DatastoreOvercommit{high: d.DatastoreOvercommitHighPct, critical: d.DatastoreOvercommitCriticalPct}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *DatastoreOvercommit) Name() string                  { return string(findings.TypeDatastoreOvercommit) }
func (c *DatastoreOvercommit) Tables() []inventory.TableName { return datastoreTables }

func (c *DatastoreOvercommit) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVDatastore, inventory.FieldName, inventory.FieldCapacity, inventory.FieldProvisioned)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		if row.String(inventory.FieldName) == "" {
			continue
		}
		capacity, ok := number(in, c.Name(), row, inventory.FieldCapacity)
		if !ok || capacity <= 0 {
			continue
		}
		provisioned, ok := number(in, c.Name(), row, inventory.FieldProvisioned)
		if !ok || provisioned <= capacity {
			continue
		}

		overPct := normalize.Percent(provisioned-capacity, capacity)
		sev := findings.SeverityMedium
		switch {
		case overPct > c.critical:
			sev = findings.SeverityCritical
		case overPct > c.high:
			sev = findings.SeverityHigh
		}

		f := forDatastore(row, findings.TypeDatastoreOvercommit, sev)
		f.Reason = fmt.Sprintf("Provisioned (%.0f GB) exceeds capacity (%.0f GB) by %.0f%%.", provisioned/1024, capacity/1024, overPct)
		f.Current = fmt.Sprintf("%.0f GB provisioned", provisioned/1024)
		f.Recommended = fmt.Sprintf("<%.0f GB", capacity/1024)
		out = append(out, f)
	}
	return out
}

// StorageOverprovisioned reports VMs whose provisioned storage is many
// times what their guest partitions consume.
type StorageOverprovisioned struct {
	ratio float64
	minGB float64
}

type StorageOverprovisionedOption func(*StorageOverprovisioned)

// WithOverprovisionRatio sets the provisioned:consumed ratio to exceed.
func WithOverprovisionRatio(r float64) StorageOverprovisionedOption {
	return func(c *StorageOverprovisioned) {
		if r > 1 {
			c.ratio = r
		}
	}
}

// WithOverprovisionMinGB sets the provisioned size a VM must exceed.
func WithOverprovisionMinGB(gb float64) StorageOverprovisionedOption {
	return func(c *StorageOverprovisioned) {
		if gb >= 0 {
			c.minGB = gb
		}
	}
}

func NewStorageOverprovisioned(opts ...StorageOverprovisionedOption) *StorageOverprovisioned {
	d := findings.DefaultThresholds()
	c := StorageOverprovisioned{ratio: d.StorageOverprovisionRatio, minGB: d.StorageOverprovisionMinGB}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *StorageOverprovisioned) Name() string { return string(findings.TypeStorageOverprovisioned) }

func (c *StorageOverprovisioned) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVPartition, inventory.TableVInfo}
}

func (c *StorageOverprovisioned) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVPartition, inventory.FieldVM, inventory.FieldConsumed)
	if !ok {
		return nil
	}

	consumed := make(map[inventory.Key]float64)
	for _, row := range table.Rows() {
		vm, ok := rowVM(in, c.Name(), row)
		if !ok {
			continue
		}
		mib, ok := number(in, c.Name(), row, inventory.FieldConsumed)
		if !ok {
			continue
		}
		consumed[vm.Key()] += mib
	}

	minMiB := c.minGB * 1024
	var out []findings.Finding
	for _, vm := range in.Snapshot.VMs() {
		used := consumed[vm.Key()]
		if used <= 0 || vm.ProvisionedMiB <= 0 {
			continue
		}
		ratio := vm.ProvisionedMiB / used
		if ratio <= c.ratio || vm.ProvisionedMiB <= minMiB {
			continue
		}
		waste := gb(vm.ProvisionedMiB - used)
		f := forVM(vm, findings.TypeStorageOverprovisioned, findings.SeverityLow, findings.ResourceDiskGB)
		f.Reason = fmt.Sprintf("Provisioned/used ratio is %.1fx. About %s GB may be wasted.", ratio, formatFloat(waste))
		f.Current = fmt.Sprintf("%.0f GB provisioned", vm.ProvisionedMiB/1024)
		f.Recommended = fmt.Sprintf("%.0f GB used", used/1024)
		f.Savings = waste
		out = append(out, f)
	}
	return out
}
