package analytics

import (
	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

type WasteType string

const (
	// WasteThickPoweredOff is a thick disk above 10 GB on a powered-off VM.
	WasteThickPoweredOff WasteType = "THICK_POWERED_OFF"
	// WasteThickLarge is any thick disk above 100 GB.
	WasteThickLarge WasteType = "THICK_LARGE"
)

const (
	thickPoweredOffMinMiB = 10 * 1024
	thickLargeMinMiB      = 100 * 1024
	poweredOffWasteShare  = 0.7
	thinConversionShare   = 0.3
)

type WastedDisk struct {
	VM               string    `json:"vm"`
	Disk             string    `json:"disk_name"`
	Type             WasteType `json:"waste_type"`
	CapacityGB       float64   `json:"capacity_gb"`
	EstimatedWasteGB float64   `json:"estimated_waste_gb"`
	Source           string    `json:"source"`
}

type DiskWaste struct {
	TotalWastedGB float64      `json:"total_wasted_gb"`
	DiskCount     int          `json:"disk_count"`
	Disks         []WastedDisk `json:"disks"`
}

// ComputeDiskWaste estimates reclaimable space on thick provisioned disks.
// A disk may be listed under both waste types. Disks whose thin flag is
// absent are not treated as thick.
func ComputeDiskWaste(snap *inventory.Snapshot) DiskWaste {
	w := DiskWaste{Disks: []WastedDisk{}}
	disks := snap.Table(inventory.TableVDisk)
	if !disks.Has(inventory.FieldVM, inventory.FieldCapacity, inventory.FieldThin) {
		return w
	}

	rows := disks.Rows()
	var large []WastedDisk
	for _, row := range rows {
		if _, ok := row.Value(inventory.FieldThin); !ok || row.Bool(inventory.FieldThin) {
			continue
		}
		capacity := row.Float(inventory.FieldCapacity)
		vm, known := snap.VM(row.VMKey())
		d := WastedDisk{
			VM:         row.String(inventory.FieldVM),
			Disk:       row.String(inventory.FieldDiskLabel),
			CapacityGB: round2(capacity / 1024),
			Source:     row.Source(),
		}
		if known && vm.PowerState == inventory.PowerStateOff && capacity > thickPoweredOffMinMiB {
			off := d
			off.Type = WasteThickPoweredOff
			off.EstimatedWasteGB = round2(d.CapacityGB * poweredOffWasteShare)
			w.Disks = append(w.Disks, off)
		}
		if capacity > thickLargeMinMiB {
			d.Type = WasteThickLarge
			d.EstimatedWasteGB = round2(d.CapacityGB * thinConversionShare)
			large = append(large, d)
		}
	}
	w.Disks = append(w.Disks, large...)

	var total float64
	for _, d := range w.Disks {
		total += d.EstimatedWasteGB
	}
	w.TotalWastedGB = round2(total)
	w.DiskCount = len(w.Disks)
	return w
}
