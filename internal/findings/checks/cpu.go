package checks

import (
	"fmt"
	"math"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/pkg/normalize"
	"github.com/kubev2v/inventory-advisor/pkg/vsphere"
)

// Compile-time assertion that CPUUnderutilized implements the Check interface.
var _ findings.Check = (*CPUUnderutilized)(nil)

// CPUUnderutilized recommends a smaller vCPU count for powered-on VMs whose
// reported CPU demand is a small share of what they are allocated.
type CPUUnderutilized struct {
	minVCPUCheck     int
	minVCPURecommend int
	maxUsagePct      float64
	minReduction     float64
}

// CPUUnderutilizedOption is a functional option for configuring a CPUUnderutilized check.
type CPUUnderutilizedOption func(*CPUUnderutilized)

// WithMinVCPUCheck sets the vCPU count a VM must exceed to be considered.
// Non-positive values are ignored.
func WithMinVCPUCheck(n int) CPUUnderutilizedOption {
	return func(c *CPUUnderutilized) {
		if n > 0 {
			c.minVCPUCheck = n
		}
	}
}

// WithMinVCPURecommend sets the smallest vCPU count a recommendation is made for.
func WithMinVCPURecommend(n int) CPUUnderutilizedOption {
	return func(c *CPUUnderutilized) {
		if n > 0 {
			c.minVCPURecommend = n
		}
	}
}

// WithMaxUsagePct sets the usage percentage under which a VM is underutilized.
func WithMaxUsagePct(pct float64) CPUUnderutilizedOption {
	return func(c *CPUUnderutilized) {
		if pct > 0 && pct <= 100 {
			c.maxUsagePct = pct
		}
	}
}

// WithMinReductionFraction bounds how far a recommendation may shrink a VM,
// as a fraction of its current vCPU count.
func WithMinReductionFraction(f float64) CPUUnderutilizedOption {
	return func(c *CPUUnderutilized) {
		if f > 0 && f < 1 {
			c.minReduction = f
		}
	}
}

func NewCPUUnderutilized(opts ...CPUUnderutilizedOption) *CPUUnderutilized {
	d := findings.DefaultThresholds()
	c := CPUUnderutilized{
		minVCPUCheck:     d.MinVCPUCheck,
		minVCPURecommend: d.MinVCPURecommend,
		maxUsagePct:      d.CPUUnderutilMaxUsagePct,
		minReduction:     d.MinReductionFraction,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

func (c *CPUUnderutilized) Name() string { return string(findings.TypeCPUUnderutilized) }

func (c *CPUUnderutilized) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVCPU, inventory.TableVInfo, inventory.TableVHost}
}

func (c *CPUUnderutilized) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVCPU, inventory.FieldVM, inventory.FieldOverallMHz)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		vm, ok := rowVM(in, c.Name(), row)
		if !ok || !vm.PoweredOn() {
			continue
		}

		cpus := row.Int(inventory.FieldCPUs)
		if cpus <= 0 {
			cpus = vm.CPUs
		}
		if cpus <= c.minVCPUCheck || cpus < c.minVCPURecommend {
			continue
		}

		usageMHz, ok := number(in, c.Name(), row, inventory.FieldOverallMHz)
		if !ok {
			continue
		}
		maxMHz, ok := number(in, c.Name(), row, inventory.FieldMaxMHz)
		if !ok {
			continue
		}

		speed := vsphere.DefaultCoreSpeedMHz
		vendor := vsphere.CPUVendorIntel
		if host, found := in.Snapshot.Host(vm.HostKey()); found {
			if host.SpeedMHz > 0 {
				speed = host.SpeedMHz
			}
			vendor = vsphere.DetectCPUVendor(host.CPUModel)
		}
		effectiveSpeed := speed * vendor.EfficiencyFactor()

		capacity := maxMHz
		if capacity <= 0 {
			capacity = float64(cpus) * effectiveSpeed
		}
		usagePct := normalize.Percent(usageMHz, capacity)
		if usagePct >= c.maxUsagePct {
			continue
		}

		recommended := c.recommend(cpus, usageMHz, effectiveSpeed)
		if recommended >= cpus {
			continue
		}

		f := forVM(vm, findings.TypeCPUUnderutilized, findings.SeverityLow, findings.ResourceVCPU)
		f.Reason = fmt.Sprintf("CPU usage is low (%.0f%% of %.0f MHz, %s). Conservative recommendation: %d -> %d vCPU.",
			usagePct, capacity, vendor, cpus, recommended)
		f.Current = fmt.Sprintf("%d vCPU", cpus)
		f.Recommended = fmt.Sprintf("%d vCPU", recommended)
		f.Savings = float64(cpus - recommended)
		out = append(out, f)
	}
	return out
}

// recommend never goes below 2 vCPU nor below the reduction floor, and keeps
// one vCPU of headroom over measured demand.
func (c *CPUUnderutilized) recommend(cpus int, usageMHz, effectiveSpeed float64) int {
	byUsage := 2
	if effectiveSpeed > 0 {
		byUsage = max(2, int(math.Ceil(usageMHz/effectiveSpeed))+1)
	}
	floor := max(2, int(math.Floor(float64(cpus)*c.minReduction)))
	return max(byUsage, floor)
}
