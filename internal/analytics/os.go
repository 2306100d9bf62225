package analytics

import (
	"sort"

	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/pkg/vsphere"
)

const unknownOS = "Unknown"

type OSShare struct {
	OS          string  `json:"os"`
	VMCount     int     `json:"vm_count"`
	TotalCPUs   int     `json:"total_cpus"`
	TotalMemory float64 `json:"total_memory_mib"`
	EOL         bool    `json:"eol"`
}

// ComputeOSDistribution groups VMs by configured guest OS, most common first.
func ComputeOSDistribution(snap *inventory.Snapshot) []OSShare {
	index := make(map[string]int)
	out := []OSShare{}
	for _, vm := range snap.VMs() {
		label := vm.OS
		if label == "" {
			label = unknownOS
		}
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			_, eol := vsphere.MatchEOL(vm.OS)
			out = append(out, OSShare{OS: label, EOL: eol})
		}
		out[i].VMCount++
		out[i].TotalCPUs += vm.CPUs
		out[i].TotalMemory += vm.MemoryMiB
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].VMCount != out[j].VMCount {
			return out[i].VMCount > out[j].VMCount
		}
		return out[i].OS < out[j].OS
	})
	return out
}
