package analytics

import (
	"math"
	"sort"

	"github.com/kubev2v/inventory-advisor/internal/hierarchy"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

const topPressuredHosts = 10

// HostPressure is the allocation on one host as a share of its physical
// capacity. Pressure is the larger of the two shares.
type HostPressure struct {
	Host           string  `json:"host"`
	Cluster        string  `json:"cluster"`
	Datacenter     string  `json:"datacenter"`
	Source         string  `json:"source"`
	CPUUsagePct    float64 `json:"cpu_usage_pct"`
	RAMUsagePct    float64 `json:"ram_usage_pct"`
	PressurePct    float64 `json:"pressure_pct"`
	VCPUAllocated  int     `json:"vcpu_allocated"`
	PhysicalCores  int     `json:"physical_cores"`
	RAMAllocatedGB float64 `json:"ram_allocated_gb"`
	PhysicalRAMGB  float64 `json:"physical_ram_gb"`
}

type Capacity struct {
	Hosts               int            `json:"hosts"`
	TotalVCPU           int            `json:"total_vcpu"`
	TotalPhysicalCores  int            `json:"total_physical_cores"`
	TotalAllocatedRAMGB float64        `json:"total_allocated_ram_gb"`
	TotalPhysicalRAMGB  float64        `json:"total_physical_ram_gb"`
	CPUOvercommit       float64        `json:"cpu_overcommit"`
	MemoryOvercommit    float64        `json:"mem_overcommit"`
	HostPressure        []HostPressure `json:"host_pressure"`
}

// ComputeCapacity reads allocation from the hierarchy so the numbers match
// the per-host rollups, and lists the ten most pressured hosts.
func ComputeCapacity(snap *inventory.Snapshot, tree *hierarchy.Tree) Capacity {
	if tree == nil {
		tree = hierarchy.Build(snap)
	}

	c := Capacity{
		Hosts:               tree.Totals.Hosts,
		TotalVCPU:           tree.Totals.TotalVCPU,
		TotalPhysicalCores:  tree.Totals.PhysicalCores,
		TotalAllocatedRAMGB: round2(tree.Totals.TotalRAMGB),
		TotalPhysicalRAMGB:  round2(tree.Totals.PhysicalRAMGB),
		HostPressure:        []HostPressure{},
	}
	if c.TotalPhysicalCores > 0 {
		c.CPUOvercommit = round2(float64(c.TotalVCPU) / float64(c.TotalPhysicalCores))
	}
	if c.TotalPhysicalRAMGB > 0 {
		c.MemoryOvercommit = round2(c.TotalAllocatedRAMGB / c.TotalPhysicalRAMGB)
	}

	for _, h := range snap.Hosts() {
		node, ok := tree.Host(h.Key())
		if !ok || node.PhysicalCores <= 0 {
			continue
		}
		p := HostPressure{
			Host:           h.Name,
			Cluster:        h.Cluster,
			Datacenter:     h.Datacenter,
			Source:         h.Source,
			VCPUAllocated:  node.TotalVCPU,
			PhysicalCores:  node.PhysicalCores,
			RAMAllocatedGB: round2(node.TotalRAMGB),
			PhysicalRAMGB:  round2(node.PhysicalRAMGB),
			CPUUsagePct:    round1(float64(node.TotalVCPU) / float64(node.PhysicalCores) * 100),
		}
		if node.PhysicalRAMGB > 0 {
			p.RAMUsagePct = round1(node.TotalRAMGB / node.PhysicalRAMGB * 100)
		}
		p.PressurePct = math.Max(p.CPUUsagePct, p.RAMUsagePct)
		c.HostPressure = append(c.HostPressure, p)
	}

	sort.SliceStable(c.HostPressure, func(i, j int) bool {
		return c.HostPressure[i].PressurePct > c.HostPressure[j].PressurePct
	})
	if len(c.HostPressure) > topPressuredHosts {
		c.HostPressure = c.HostPressure[:topPressuredHosts]
	}
	return c
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

func round2(f float64) float64 { return math.Round(f*100) / 100 }
