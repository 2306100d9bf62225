package analytics

import (
	"time"

	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

type SourceStats struct {
	Name          string  `json:"name"`
	VMs           int     `json:"vms"`
	PoweredOn     int     `json:"powered_on"`
	PoweredOff    int     `json:"powered_off"`
	Templates     int     `json:"templates"`
	TotalMemoryGB float64 `json:"total_memory_gb"`
	TotalCPU      int     `json:"total_cpu"`
	TotalDiskGB   float64 `json:"total_disk_gb"`
	Snapshots     int     `json:"snapshots"`
	OldSnapshots  int     `json:"old_snapshots"`
}

func (s *SourceStats) add(o SourceStats) {
	s.VMs += o.VMs
	s.PoweredOn += o.PoweredOn
	s.PoweredOff += o.PoweredOff
	s.Templates += o.Templates
	s.TotalMemoryGB = round2(s.TotalMemoryGB + o.TotalMemoryGB)
	s.TotalCPU += o.TotalCPU
	s.TotalDiskGB = round2(s.TotalDiskGB + o.TotalDiskGB)
	s.Snapshots += o.Snapshots
	s.OldSnapshots += o.OldSnapshots
}

type Stats struct {
	Sources []SourceStats `json:"sources"`
	Total   SourceStats   `json:"total"`
}

// ComputeStats counts VMs and snapshots per source. A snapshot is old when
// it was taken more than oldDays before now.
func ComputeStats(snap *inventory.Snapshot, now time.Time, oldDays int) Stats {
	bySource := make(map[string]*SourceStats)
	var order []string
	get := func(name string) *SourceStats {
		s, ok := bySource[name]
		if !ok {
			s = &SourceStats{Name: name}
			bySource[name] = s
			order = append(order, name)
		}
		return s
	}
	for _, info := range snap.Sources() {
		get(info.Name)
	}

	for _, vm := range snap.VMs() {
		s := get(vm.Source)
		s.VMs++
		switch vm.PowerState {
		case inventory.PowerStateOn:
			s.PoweredOn++
		case inventory.PowerStateOff:
			s.PoweredOff++
		}
		if vm.Template {
			s.Templates++
		}
		s.TotalMemoryGB += vm.MemoryGB()
		s.TotalCPU += vm.CPUs
		s.TotalDiskGB += vm.DiskGB()
	}

	cutoff := now.AddDate(0, 0, -oldDays)
	for _, row := range snap.Table(inventory.TableVSnapshot).Rows() {
		s := get(row.Source())
		s.Snapshots++
		if taken, ok := row.Date(inventory.FieldDate); ok && taken.Before(cutoff) {
			s.OldSnapshots++
		}
	}

	out := Stats{Sources: make([]SourceStats, 0, len(order)), Total: SourceStats{Name: "total"}}
	for _, name := range order {
		s := bySource[name]
		s.TotalMemoryGB = round2(s.TotalMemoryGB)
		s.TotalDiskGB = round2(s.TotalDiskGB)
		out.Sources = append(out.Sources, *s)
		out.Total.add(*s)
	}
	return out
}
