package analytics

import (
	"sort"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

const topExpensiveVMs = 10

// Rates are monthly prices in USD.
type Rates struct {
	VCPU   float64 `json:"vcpu" envconfig:"VCPU" default:"10"`
	RAMGB  float64 `json:"ram_gb" envconfig:"RAM_GB" default:"5"`
	DiskGB float64 `json:"disk_gb" envconfig:"DISK_GB" default:"0.1"`
}

func DefaultRates() Rates {
	return Rates{VCPU: 10, RAMGB: 5, DiskGB: 0.1}
}

func (r Rates) vm(vm inventory.VM) (cpu, ram, disk float64) {
	return float64(vm.CPUs) * r.VCPU, vm.MemoryGB() * r.RAMGB, vm.DiskGB() * r.DiskGB
}

type VMCost struct {
	VM         string               `json:"vm"`
	PowerState inventory.PowerState `json:"power_state"`
	CPUs       int                  `json:"cpus"`
	MemoryGB   float64              `json:"memory_gb"`
	Monthly    float64              `json:"total_cost"`
	Source     string               `json:"source"`
}

type Cost struct {
	TotalMonthly       float64  `json:"total_monthly_cost"`
	CPUCost            float64  `json:"cpu_cost"`
	RAMCost            float64  `json:"ram_cost"`
	DiskCost           float64  `json:"disk_cost"`
	WastedOnPoweredOff float64  `json:"wasted_on_powered_off"`
	RecoverableMonthly float64  `json:"recoverable_monthly"`
	TopExpensiveVMs    []VMCost `json:"top_expensive_vms"`
	Rates              Rates    `json:"rates"`
}

// ComputeCost prices every VM's allocation. RecoverableMonthly prices the
// vCPU and disk savings of the given findings.
func ComputeCost(snap *inventory.Snapshot, ranked []findings.Finding, rates Rates) Cost {
	c := Cost{Rates: rates, TopExpensiveVMs: []VMCost{}}

	var costs []VMCost
	for _, vm := range snap.VMs() {
		cpu, ram, disk := rates.vm(vm)
		total := cpu + ram + disk
		c.CPUCost += cpu
		c.RAMCost += ram
		c.DiskCost += disk
		c.TotalMonthly += total
		if vm.PowerState == inventory.PowerStateOff {
			c.WastedOnPoweredOff += total
		}
		costs = append(costs, VMCost{
			VM:         vm.Name,
			PowerState: vm.PowerState,
			CPUs:       vm.CPUs,
			MemoryGB:   round2(vm.MemoryGB()),
			Monthly:    round2(total),
			Source:     vm.Source,
		})
	}

	for _, f := range ranked {
		switch f.Resource {
		case findings.ResourceVCPU:
			c.RecoverableMonthly += f.Savings * rates.VCPU
		case findings.ResourceDiskGB:
			c.RecoverableMonthly += f.Savings * rates.DiskGB
		}
	}

	sort.SliceStable(costs, func(i, j int) bool { return costs[i].Monthly > costs[j].Monthly })
	if len(costs) > topExpensiveVMs {
		costs = costs[:topExpensiveVMs]
	}
	c.TopExpensiveVMs = append(c.TopExpensiveVMs, costs...)

	c.TotalMonthly = round2(c.TotalMonthly)
	c.CPUCost = round2(c.CPUCost)
	c.RAMCost = round2(c.RAMCost)
	c.DiskCost = round2(c.DiskCost)
	c.WastedOnPoweredOff = round2(c.WastedOnPoweredOff)
	c.RecoverableMonthly = round2(c.RecoverableMonthly)
	return c
}
