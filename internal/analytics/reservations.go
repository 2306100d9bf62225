package analytics

import (
	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

type Reservation struct {
	VM          string               `json:"vm"`
	Source      string               `json:"source"`
	PowerState  inventory.PowerState `json:"power_state"`
	Cluster     string               `json:"cluster"`
	Host        string               `json:"host"`
	CPUReserved float64              `json:"cpu_reserved_mhz,omitempty"`
	CPULimit    string               `json:"cpu_limit,omitempty"`
	MemReserved float64              `json:"mem_reserved_mb,omitempty"`
	MemLimit    string               `json:"mem_limit,omitempty"`
	UnknownVM   bool                 `json:"unknown_vm,omitempty"`
}

// ComputeReservations lists VMs with a CPU or memory reservation, in the
// order they first appear in vCPU then vMemory.
func ComputeReservations(snap *inventory.Snapshot) []Reservation {
	index := make(map[inventory.Key]int)
	out := []Reservation{}

	collect := func(name inventory.TableName, set func(*Reservation, float64, string)) {
		t := snap.Table(name)
		if !t.Has(inventory.FieldVM, inventory.FieldReservation) {
			return
		}
		for _, row := range t.Rows() {
			reserved := row.Float(inventory.FieldReservation)
			if reserved <= 0 {
				continue
			}
			key := row.VMKey()
			i, ok := index[key]
			if !ok {
				i = len(out)
				index[key] = i
				out = append(out, newReservation(snap, key))
			}
			limit := row.String(inventory.FieldLimit)
			if limit == "" {
				limit = "Unlimited"
			}
			set(&out[i], reserved, limit)
		}
	}

	collect(inventory.TableVCPU, func(r *Reservation, v float64, limit string) {
		r.CPUReserved, r.CPULimit = v, limit
	})
	collect(inventory.TableVMemory, func(r *Reservation, v float64, limit string) {
		r.MemReserved, r.MemLimit = v, limit
	})
	return out
}

func newReservation(snap *inventory.Snapshot, key inventory.Key) Reservation {
	r := Reservation{VM: key.Name, Source: key.Source}
	vm, ok := snap.VM(key)
	if !ok {
		r.UnknownVM = true
		return r
	}
	r.PowerState, r.Cluster, r.Host = vm.PowerState, vm.Cluster, vm.Host
	return r
}
