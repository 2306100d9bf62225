package checks

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/hierarchy"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/pkg/vsphere"
)

var (
	_ findings.Check = (*HostCPUOvercommit)(nil)
	_ findings.Check = (*ESXiOutdated)(nil)
	_ findings.Check = (*BIOSOutdated)(nil)
)

var hostTables = []inventory.TableName{inventory.TableVHost}

type overcommitTier struct {
	warn, critical float64
}

// HostCPUOvercommit compares the vCPUs placed on each host with its physical
// cores. AMD cores tolerate a higher ratio than Intel cores.
type HostCPUOvercommit struct {
	tiers map[vsphere.CPUVendor]overcommitTier
}

type HostCPUOvercommitOption func(*HostCPUOvercommit)

// WithVendorOvercommit sets the warn and critical vCPU:pCore ratios for a
// vendor. The pair is ignored unless 0 < warn < critical.
func WithVendorOvercommit(vendor vsphere.CPUVendor, warn, critical float64) HostCPUOvercommitOption {
	return func(c *HostCPUOvercommit) {
		if warn > 0 && critical > warn {
			c.tiers[vendor] = overcommitTier{warn: warn, critical: critical}
		}
	}
}

func NewHostCPUOvercommit(opts ...HostCPUOvercommitOption) *HostCPUOvercommit {
	d := findings.DefaultThresholds()
	c := HostCPUOvercommit{tiers: map[vsphere.CPUVendor]overcommitTier{
		vsphere.CPUVendorIntel: {warn: d.IntelOvercommitWarn, critical: d.IntelOvercommitCritical},
		vsphere.CPUVendorAMD:   {warn: d.AMDOvercommitWarn, critical: d.AMDOvercommitCritical},
	}}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *HostCPUOvercommit) Name() string { return string(findings.TypeHostCPUOvercommit) }

func (c *HostCPUOvercommit) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVHost, inventory.TableVInfo}
}

func (c *HostCPUOvercommit) Run(in findings.Input) []findings.Finding {
	if _, ok := in.Require(c.Name(), inventory.TableVHost, inventory.FieldHost); !ok {
		return nil
	}
	tree := in.Tree
	if tree == nil {
		tree = hierarchy.Build(in.Snapshot)
	}

	var out []findings.Finding
	for _, h := range in.Snapshot.Hosts() {
		node, ok := tree.Host(h.Key())
		if !ok {
			continue
		}
		cores := h.PhysicalCores()
		if cores <= 0 || node.TotalVCPU <= 0 {
			continue
		}

		vendor := vsphere.DetectCPUVendor(h.CPUModel)
		tier := c.tiers[vendor]
		ratio := float64(node.TotalVCPU) / float64(cores)

		var sev findings.Severity
		var limit float64
		switch {
		case ratio > tier.critical:
			sev, limit = findings.SeverityCritical, tier.critical
		case ratio > tier.warn:
			sev, limit = findings.SeverityHigh, tier.warn
		default:
			continue
		}

		f := forHost(h, findings.TypeHostCPUOvercommit, sev, findings.ResourceCapacity)
		f.Reason = fmt.Sprintf("vCPU:pCore ratio %.1f:1 exceeds %s:1 (%s, %d pCore, %d vCPU).",
			ratio, formatFloat(limit), vendor, cores, node.TotalVCPU)
		f.Current = fmt.Sprintf("%.1f:1", ratio)
		f.Recommended = fmt.Sprintf("<%s:1", formatFloat(tier.warn))
		out = append(out, f)
	}
	return out
}

// ESXiOutdated reports hosts running a hypervisor major version below the minimum.
type ESXiOutdated struct {
	minMajor int
}

type ESXiOutdatedOption func(*ESXiOutdated)

func WithESXiMinMajor(major int) ESXiOutdatedOption {
	return func(c *ESXiOutdated) {
		if major > 0 {
			c.minMajor = major
		}
	}
}

func NewESXiOutdated(opts ...ESXiOutdatedOption) *ESXiOutdated {
	c := ESXiOutdated{minMajor: findings.DefaultThresholds().ESXiMinMajor}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *ESXiOutdated) Name() string                  { return string(findings.TypeESXiOutdated) }
func (c *ESXiOutdated) Tables() []inventory.TableName { return hostTables }

func (c *ESXiOutdated) Run(in findings.Input) []findings.Finding {
	if _, ok := in.Require(c.Name(), inventory.TableVHost, inventory.FieldHost, inventory.FieldESXVersion); !ok {
		return nil
	}

	var out []findings.Finding
	for _, h := range in.Snapshot.Hosts() {
		if h.ESXVersion == "" {
			continue
		}
		v, ok := vsphere.ParseESXiVersion(h.ESXVersion)
		if !ok {
			in.Skip(c.Name(), inventory.NewErrValueCoercion(inventory.TableVHost, inventory.FieldESXVersion, h.ESXVersion))
			continue
		}
		if v.Major >= c.minMajor {
			continue
		}
		f := forHost(h, findings.TypeESXiOutdated, findings.SeverityHigh, findings.ResourceSecurity)
		f.Reason = fmt.Sprintf("Host runs an outdated ESXi release (%s).", h.ESXVersion)
		f.Current = v.String()
		f.Recommended = fmt.Sprintf("ESXi %d.0 or later", c.minMajor)
		out = append(out, f)
	}
	return out
}

var yearRegex = regexp.MustCompile(`(19|20)\d{2}`)

// BIOSOutdated reports hosts whose firmware predates the minimum year.
type BIOSOutdated struct {
	minYear int
}

type BIOSOutdatedOption func(*BIOSOutdated)

func WithBIOSMinYear(year int) BIOSOutdatedOption {
	return func(c *BIOSOutdated) {
		if year > 0 {
			c.minYear = year
		}
	}
}

func NewBIOSOutdated(opts ...BIOSOutdatedOption) *BIOSOutdated {
	c := BIOSOutdated{minYear: findings.DefaultThresholds().BIOSMinYear}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *BIOSOutdated) Name() string                  { return string(findings.TypeBIOSOutdated) }
func (c *BIOSOutdated) Tables() []inventory.TableName { return hostTables }

func (c *BIOSOutdated) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVHost, inventory.FieldHost, inventory.FieldBIOSDate)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		h, ok := in.Snapshot.Host(row.HostKey())
		if !ok {
			continue
		}
		raw := row.String(inventory.FieldBIOSDate)
		if raw == "" {
			continue
		}
		year, ok := biosYear(row, raw)
		if !ok {
			in.Skip(c.Name(), inventory.NewErrValueCoercion(inventory.TableVHost, inventory.FieldBIOSDate, raw))
			continue
		}
		if year >= c.minYear {
			continue
		}
		f := forHost(h, findings.TypeBIOSOutdated, findings.SeverityMedium, findings.ResourceSecurity)
		f.Reason = fmt.Sprintf("BIOS dated %s predates %d. Firmware fixes may be missing.", raw, c.minYear)
		f.Current = strconv.Itoa(year)
		f.Recommended = "Latest vendor firmware"
		out = append(out, f)
	}
	return out
}

// biosYear prefers a parsed date and falls back to the first plausible year
// in the text.
func biosYear(row inventory.Row, raw string) (int, bool) {
	if d, ok := row.Date(inventory.FieldBIOSDate); ok {
		return d.Year(), true
	}
	m := yearRegex.FindString(raw)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	return y, err == nil
}
