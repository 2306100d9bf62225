package hierarchy

import (
	"errors"
	"fmt"
	"math"

	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

const (
	// StandaloneCluster groups hosts that carry no cluster label.
	StandaloneCluster = "Standalone Hosts"
	UnknownDatacenter = "Unknown Datacenter"
	UnknownHost       = "Unknown Host"
)

// Rollup holds the counters every level of the tree carries. VM counters are
// incremented while folding VMs in; physical capacity is summed from hosts.
// Usage percentages are plain means of member host percentages, not weighted
// by host size.
type Rollup struct {
	Hosts          int     `json:"hosts"`
	TotalVMs       int     `json:"total_vms"`
	PoweredOn      int     `json:"powered_on"`
	TotalVCPU      int     `json:"total_vcpu"`
	TotalRAMGB     float64 `json:"total_ram_gb"`
	PhysicalCores  int     `json:"physical_cores"`
	PhysicalRAMGB  float64 `json:"physical_ram_gb"`
	CPUUsagePct    float64 `json:"cpu_usage_pct"`
	MemoryUsagePct float64 `json:"memory_usage_pct"`
	VCPURatio      float64 `json:"vcpu_ratio"`
	VRAMRatio      float64 `json:"vram_ratio"`
}

func (r *Rollup) addVM(vm inventory.VM) {
	r.TotalVMs++
	if vm.PoweredOn() {
		r.PoweredOn++
	}
	r.TotalVCPU += vm.CPUs
	r.TotalRAMGB += vm.MemoryGB()
}

func (r *Rollup) ratios() {
	r.VCPURatio = 0
	if r.PhysicalCores > 0 {
		r.VCPURatio = round2(float64(r.TotalVCPU) / float64(r.PhysicalCores))
	}
	r.VRAMRatio = 0
	if r.PhysicalRAMGB > 0 {
		r.VRAMRatio = round2(r.TotalRAMGB / r.PhysicalRAMGB)
	}
}

type VMRef struct {
	Name       string               `json:"name"`
	PowerState inventory.PowerState `json:"power_state"`
	CPUs       int                  `json:"cpus"`
	MemoryGB   float64              `json:"memory_gb"`
	OS         string               `json:"os"`
}

type Host struct {
	Name string `json:"name"`
	// Synthetic hosts stand in for host names VMs reference but vHost lacks.
	Synthetic      bool    `json:"synthetic,omitempty"`
	CPUModel       string  `json:"cpu_model"`
	ESXVersion     string  `json:"esx_version"`
	ReportedVCPUs  int     `json:"reported_vcpus"`
	ReportedVRAMGB float64 `json:"reported_vram_gb"`
	Rollup
	VMs []VMRef `json:"vms"`
}

type Cluster struct {
	Name string `json:"name"`
	Rollup
	Hosts []*Host `json:"hosts"`
}

type Datacenter struct {
	Name string `json:"name"`
	Rollup
	Clusters []*Cluster `json:"clusters"`
}

type Source struct {
	Name string `json:"name"`
	Rollup
	Datacenters []*Datacenter `json:"datacenters"`
}

// Tree is the datacenter > cluster > host > VM view of one snapshot, grouped
// by ingested source.
type Tree struct {
	Sources []*Source `json:"sources"`
	Totals  Rollup    `json:"totals"`

	hosts   *inventory.Index[*Host]
	vmCount int
}

// Host returns the node for a host. Synthetic hosts are included.
func (t *Tree) Host(key inventory.Key) (*Host, bool) {
	if t.hosts == nil {
		return nil, false
	}
	return t.hosts.Get(key)
}

// HostsInDatacenter returns every real host whose datacenter label matches,
// across all sources.
func (t *Tree) HostsInDatacenter(name string) []*Host {
	var out []*Host
	for _, src := range t.Sources {
		for _, dc := range src.Datacenters {
			if dc.Name != name {
				continue
			}
			for _, cl := range dc.Clusters {
				for _, h := range cl.Hosts {
					if !h.Synthetic {
						out = append(out, h)
					}
				}
			}
		}
	}
	return out
}

// Validate checks that every level's counters equal the sum over its
// children and that each VM was placed exactly once.
func (t *Tree) Validate() error {
	var errs []error
	placed := 0
	var totals Rollup

	for _, src := range t.Sources {
		var srcSum Rollup
		for _, dc := range src.Datacenters {
			var dcSum Rollup
			for _, cl := range dc.Clusters {
				var clSum Rollup
				for _, h := range cl.Hosts {
					if h.TotalVMs != len(h.VMs) {
						errs = append(errs, fmt.Errorf("host %s/%s: total_vms %d != %d placed", src.Name, h.Name, h.TotalVMs, len(h.VMs)))
					}
					placed += len(h.VMs)
					sumInto(&clSum, h.Rollup)
				}
				errs = append(errs, compare(fmt.Sprintf("cluster %s/%s/%s", src.Name, dc.Name, cl.Name), cl.Rollup, clSum)...)
				sumInto(&dcSum, cl.Rollup)
			}
			errs = append(errs, compare(fmt.Sprintf("datacenter %s/%s", src.Name, dc.Name), dc.Rollup, dcSum)...)
			sumInto(&srcSum, dc.Rollup)
		}
		errs = append(errs, compare("source "+src.Name, src.Rollup, srcSum)...)
		sumInto(&totals, src.Rollup)
	}
	errs = append(errs, compare("totals", t.Totals, totals)...)

	if placed != t.vmCount {
		errs = append(errs, fmt.Errorf("%d vms placed, %d expected", placed, t.vmCount))
	}
	return errors.Join(errs...)
}

func sumInto(dst *Rollup, r Rollup) {
	dst.Hosts += r.Hosts
	dst.TotalVMs += r.TotalVMs
	dst.PoweredOn += r.PoweredOn
	dst.TotalVCPU += r.TotalVCPU
	dst.TotalRAMGB += r.TotalRAMGB
	dst.PhysicalCores += r.PhysicalCores
	dst.PhysicalRAMGB += r.PhysicalRAMGB
}

func compare(what string, got, want Rollup) []error {
	var errs []error
	check := func(field string, a, b float64) {
		if math.Abs(a-b) > 0.01 {
			errs = append(errs, fmt.Errorf("%s: %s %v != sum of children %v", what, field, a, b))
		}
	}
	check("hosts", float64(got.Hosts), float64(want.Hosts))
	check("total_vms", float64(got.TotalVMs), float64(want.TotalVMs))
	check("powered_on", float64(got.PoweredOn), float64(want.PoweredOn))
	check("total_vcpu", float64(got.TotalVCPU), float64(want.TotalVCPU))
	check("total_ram_gb", got.TotalRAMGB, want.TotalRAMGB)
	check("physical_cores", float64(got.PhysicalCores), float64(want.PhysicalCores))
	check("physical_ram_gb", got.PhysicalRAMGB, want.PhysicalRAMGB)
	return errs
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
