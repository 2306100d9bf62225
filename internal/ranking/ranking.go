// Package ranking turns the raw catalog output into the ordered list that
// is shown to users.
package ranking

import (
	"sort"
	"strings"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

// alwaysShow lists the compliance and health types that are kept even when
// they carry no measurable savings.
var alwaysShow = map[findings.Type]struct{}{
	findings.TypeEOLOS:                  {},
	findings.TypeOldHWVersion:           {},
	findings.TypeVMTools:                {},
	findings.TypeOldSnapshot:            {},
	findings.TypeLegacyNIC:              {},
	findings.TypeConsolidateSnapshots:   {},
	findings.TypeCPULimit:               {},
	findings.TypeRAMLimit:               {},
	findings.TypeZombieResource:         {},
	findings.TypeNUMAAlignment:          {},
	findings.TypeMemoryBalloon:          {},
	findings.TypeMemorySwap:             {},
	findings.TypeHostCPUOvercommit:      {},
	findings.TypeDatastoreLowSpace:      {},
	findings.TypeDatastoreOvercommit:    {},
	findings.TypeFloppyConnected:        {},
	findings.TypeStorageOverprovisioned: {},
	findings.TypeZombieDisk:             {},
	findings.TypeESXiOutdated:           {},
	findings.TypeBIOSOutdated:           {},
	findings.TypeRVHealth:               {},
}

// AlwaysShow reports whether findings of type t survive ranking without savings.
func AlwaysShow(t findings.Type) bool {
	_, ok := alwaysShow[t]
	return ok
}

// VMLookup resolves the VM a finding targets. *inventory.Snapshot implements it.
type VMLookup interface {
	VM(key inventory.Key) (inventory.VM, bool)
}

// dedupeKey identifies one finding about one entity. Equal names in other
// sources, datacenters or entity kinds are different entities.
type dedupeKey struct {
	source     string
	datacenter string
	kind       findings.TargetKind
	target     string
	typ        findings.Type
}

// Rank filters, deduplicates, orders and completes findings:
//   - findings without savings are dropped unless their type is always shown
//   - only the first finding per entity and type is kept
//   - the rest are sorted by severity, then by savings, descending; ties keep
//     their catalog order
//   - empty placement fields are filled from the target VM
//
// The input slice is not modified.
func Rank(in []findings.Finding, vms VMLookup) []findings.Finding {
	out := make([]findings.Finding, 0, len(in))
	seen := make(map[dedupeKey]struct{}, len(in))
	for _, f := range in {
		if f.Savings <= 0 && !AlwaysShow(f.Type) {
			continue
		}
		k := dedupeKey{
			source:     f.Source,
			datacenter: f.Datacenter,
			kind:       f.TargetKind,
			target:     f.Target,
			typ:        f.Type,
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, f)
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Severity.Rank(), out[j].Severity.Rank()
		if ri != rj {
			return ri < rj
		}
		return out[i].Savings > out[j].Savings
	})

	if vms != nil {
		for i := range out {
			fillContext(&out[i], vms)
		}
	}
	return out
}

func missing(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "-"
}

func fillContext(f *findings.Finding, vms VMLookup) {
	if !missing(f.Host) && !missing(f.Cluster) && !missing(f.Datacenter) {
		return
	}
	switch f.TargetKind {
	case findings.TargetVM, "":
	default:
		return
	}
	key := inventory.Key{Source: f.Source, Name: f.Target}
	if !missing(f.Datacenter) {
		key.Datacenter = f.Datacenter
	}
	vm, ok := vms.VM(key)
	if !ok {
		return
	}
	if missing(f.Host) {
		f.Host = vm.Host
	}
	if missing(f.Cluster) {
		f.Cluster = vm.Cluster
	}
	if missing(f.Datacenter) {
		f.Datacenter = vm.Datacenter
	}
	if f.Source == "" {
		f.Source = vm.Source
	}
}
