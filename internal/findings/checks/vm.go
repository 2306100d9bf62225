package checks

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/pkg/vsphere"
)

var (
	_ findings.Check = (*PoweredOffDisk)(nil)
	_ findings.Check = (*EOLOS)(nil)
	_ findings.Check = (*OldHWVersion)(nil)
	_ findings.Check = (*NUMAAlignment)(nil)
	_ findings.Check = (*AppOptimization)(nil)
)

var vinfoTables = []inventory.TableName{inventory.TableVInfo}

// PoweredOffDisk reports powered-off VMs still holding significant disk.
type PoweredOffDisk struct {
	minGB float64
}

type PoweredOffDiskOption func(*PoweredOffDisk)

// WithPoweredOffDiskMinGB sets the disk size a powered-off VM must exceed.
func WithPoweredOffDiskMinGB(gb float64) PoweredOffDiskOption {
	return func(c *PoweredOffDisk) {
		if gb >= 0 {
			c.minGB = gb
		}
	}
}

func NewPoweredOffDisk(opts ...PoweredOffDiskOption) *PoweredOffDisk {
	c := PoweredOffDisk{minGB: findings.DefaultThresholds().PoweredOffDiskMinGB}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *PoweredOffDisk) Name() string                  { return string(findings.TypePoweredOffDisk) }
func (c *PoweredOffDisk) Tables() []inventory.TableName { return vinfoTables }

func (c *PoweredOffDisk) Run(in findings.Input) []findings.Finding {
	if _, ok := in.Require(c.Name(), inventory.TableVInfo, inventory.FieldVM, inventory.FieldPowerState, inventory.FieldDisk); !ok {
		return nil
	}

	var out []findings.Finding
	for _, vm := range in.Snapshot.VMs() {
		if vm.PowerState != inventory.PowerStateOff {
			continue
		}
		diskGB := vm.DiskGB()
		if diskGB <= c.minGB {
			continue
		}
		f := forVM(vm, findings.TypePoweredOffDisk, findings.SeverityMedium, findings.ResourceDiskGB)
		f.Reason = fmt.Sprintf("Powered-off VM holds %s GB of disk. It can be deleted or archived.", formatFloat(diskGB))
		f.Current = formatFloat(diskGB) + " GB"
		f.Recommended = "0 GB (delete/archive)"
		f.Savings = round2(diskGB)
		out = append(out, f)
	}
	return out
}

// EOLOS reports guests running an end-of-life operating system.
type EOLOS struct{}

func NewEOLOS() *EOLOS { return &EOLOS{} }

func (c *EOLOS) Name() string                  { return string(findings.TypeEOLOS) }
func (c *EOLOS) Tables() []inventory.TableName { return vinfoTables }

func (c *EOLOS) Run(in findings.Input) []findings.Finding {
	if _, ok := in.Require(c.Name(), inventory.TableVInfo, inventory.FieldVM, inventory.FieldOS); !ok {
		return nil
	}

	var out []findings.Finding
	for _, vm := range in.Snapshot.VMs() {
		sig, ok := vsphere.MatchEOL(vm.OS)
		if !ok {
			continue
		}
		f := forVM(vm, findings.TypeEOLOS, findings.SeverityHigh, findings.ResourceSecurity)
		f.Reason = fmt.Sprintf("End-of-life operating system (%s): %s", sig.Name, vm.OS)
		f.Current = "EOL"
		f.Recommended = "Upgrade OS"
		out = append(out, f)
	}
	return out
}

// OldHWVersion reports VMs whose virtual hardware is older than what their
// host's hypervisor supports.
type OldHWVersion struct{}

func NewOldHWVersion() *OldHWVersion { return &OldHWVersion{} }

func (c *OldHWVersion) Name() string { return string(findings.TypeOldHWVersion) }

func (c *OldHWVersion) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVInfo, inventory.TableVHost}
}

func (c *OldHWVersion) Run(in findings.Input) []findings.Finding {
	if _, ok := in.Require(c.Name(), inventory.TableVInfo, inventory.FieldVM, inventory.FieldHWVersion); !ok {
		return nil
	}

	var out []findings.Finding
	for _, vm := range in.Snapshot.VMs() {
		if strings.TrimSpace(vm.HWVersion) == "" {
			continue
		}
		current, ok := vsphere.ParseHardwareVersion(vm.HWVersion)
		if !ok || current <= 0 {
			in.Skip(c.Name(), inventory.NewErrValueCoercion(inventory.TableVInfo, inventory.FieldHWVersion, vm.HWVersion))
			continue
		}

		maxHW := vsphere.DefaultMaxHardwareVersion
		esxi := "unknown"
		if host, found := in.Snapshot.Host(vm.HostKey()); found {
			maxHW = vsphere.MaxHardwareVersion(host.ESXVersion)
			if v, ok := vsphere.ParseESXiVersion(host.ESXVersion); ok {
				esxi = v.String()
			}
		}
		if current >= maxHW {
			continue
		}

		f := forVM(vm, findings.TypeOldHWVersion, findings.SeverityLow, findings.ResourcePerformance)
		f.Reason = fmt.Sprintf("Virtual hardware v%d can be upgraded to v%d (ESXi %s).", current, maxHW, esxi)
		f.Current = vsphere.HardwareVersionLabel(current)
		f.Recommended = vsphere.HardwareVersionLabel(maxHW)
		out = append(out, f)
	}
	return out
}

// NUMAAlignment reports VMs with an odd vCPU count above one.
type NUMAAlignment struct{}

func NewNUMAAlignment() *NUMAAlignment { return &NUMAAlignment{} }

func (c *NUMAAlignment) Name() string                  { return string(findings.TypeNUMAAlignment) }
func (c *NUMAAlignment) Tables() []inventory.TableName { return vinfoTables }

func (c *NUMAAlignment) Run(in findings.Input) []findings.Finding {
	if _, ok := in.Require(c.Name(), inventory.TableVInfo, inventory.FieldVM, inventory.FieldCPUs); !ok {
		return nil
	}

	var out []findings.Finding
	for _, vm := range in.Snapshot.VMs() {
		if vm.CPUs <= 1 || vm.CPUs%2 == 0 {
			continue
		}
		f := forVM(vm, findings.TypeNUMAAlignment, findings.SeverityLow, findings.ResourcePerformance)
		f.Reason = fmt.Sprintf("Odd vCPU count (%d) may hurt NUMA placement.", vm.CPUs)
		f.Current = fmt.Sprintf("%d vCPU", vm.CPUs)
		f.Recommended = fmt.Sprintf("%d vCPU", vm.CPUs+1)
		out = append(out, f)
	}
	return out
}

// appProfile is a workload recognised by VM name that needs few vCPUs.
type appProfile struct {
	pattern *regexp.Regexp
	maxVCPU int
	reason  string
}

// AppOptimization caps vCPU counts for workloads recognised by name.
type AppOptimization struct {
	redisMax int
	dcMax    int
}

type AppOptimizationOption func(*AppOptimization)

// WithRedisMaxVCPU sets the vCPU ceiling for Redis VMs.
func WithRedisMaxVCPU(n int) AppOptimizationOption {
	return func(c *AppOptimization) {
		if n > 0 {
			c.redisMax = n
		}
	}
}

// WithDomainControllerMaxVCPU sets the vCPU ceiling for domain controllers.
func WithDomainControllerMaxVCPU(n int) AppOptimizationOption {
	return func(c *AppOptimization) {
		if n > 0 {
			c.dcMax = n
		}
	}
}

func NewAppOptimization(opts ...AppOptimizationOption) *AppOptimization {
	d := findings.DefaultThresholds()
	c := AppOptimization{redisMax: d.RedisMaxVCPU, dcMax: d.DomainControllerMaxVCPU}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *AppOptimization) Name() string                  { return string(findings.TypeAppOptimization) }
func (c *AppOptimization) Tables() []inventory.TableName { return vinfoTables }

func (c *AppOptimization) profiles() []appProfile {
	return []appProfile{
		{
			pattern: regexp.MustCompile(`(?i)redis`),
			maxVCPU: c.redisMax,
			reason:  fmt.Sprintf("Redis is single-threaded; more than %d vCPU is usually wasted.", c.redisMax),
		},
		{
			pattern: regexp.MustCompile(`(?i)(-dc-|dc\d+|domain)`),
			maxVCPU: c.dcMax,
			reason:  "Domain controllers are lightweight; the vCPU allocation is high.",
		},
	}
}

func (c *AppOptimization) Run(in findings.Input) []findings.Finding {
	if _, ok := in.Require(c.Name(), inventory.TableVInfo, inventory.FieldVM, inventory.FieldCPUs); !ok {
		return nil
	}

	profiles := c.profiles()
	var out []findings.Finding
	for _, vm := range in.Snapshot.VMs() {
		for _, p := range profiles {
			if vm.CPUs <= p.maxVCPU || !p.pattern.MatchString(vm.Name) {
				continue
			}
			f := forVM(vm, findings.TypeAppOptimization, findings.SeverityMedium, findings.ResourceVCPU)
			f.Reason = p.reason
			f.Current = fmt.Sprintf("%d vCPU", vm.CPUs)
			f.Recommended = fmt.Sprintf("%d vCPU", p.maxVCPU)
			f.Savings = float64(vm.CPUs - p.maxVCPU)
			out = append(out, f)
		}
	}
	return out
}
