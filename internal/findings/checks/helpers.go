package checks

import (
	"math"
	"strconv"
	"strings"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/pkg/normalize"
)

// forVM builds a finding targeting a VM, with its placement as context.
func forVM(vm inventory.VM, t findings.Type, sev findings.Severity, res findings.ResourceType) findings.Finding {
	return findings.Finding{
		Target:     vm.Name,
		TargetKind: findings.TargetVM,
		Type:       t,
		Severity:   sev,
		Resource:   res,
		Host:       vm.Host,
		Cluster:    vm.Cluster,
		Datacenter: vm.Datacenter,
		Source:     vm.Source,
	}
}

func forHost(h inventory.Host, t findings.Type, sev findings.Severity, res findings.ResourceType) findings.Finding {
	return findings.Finding{
		Target:     h.Name,
		TargetKind: findings.TargetHost,
		Type:       t,
		Severity:   sev,
		Resource:   res,
		Host:       h.Name,
		Cluster:    h.Cluster,
		Datacenter: h.Datacenter,
		Source:     h.Source,
	}
}

// rowVM resolves the VM a detail row belongs to. Rows for VMs missing from
// vInfo are skipped so no finding dangles.
func rowVM(in findings.Input, check string, row inventory.Row) (inventory.VM, bool) {
	key := row.VMKey()
	if key.Name == "" {
		return inventory.VM{}, false
	}
	vm, ok := in.Snapshot.VM(key)
	if !ok {
		in.Skip(check, inventory.NewErrUnknownVM(row.Table(), key))
	}
	return vm, ok
}

// number reads a numeric field. Absent and blank values read as zero; a
// value that is present but unparsable is reported and the record skipped.
func number(in findings.Input, check string, row inventory.Row, f inventory.Field) (float64, bool) {
	v, ok := row.Value(f)
	if !ok {
		return 0, true
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return 0, true
	}
	n := normalize.Numeric(v, math.NaN())
	if math.IsNaN(n) {
		in.Skip(check, inventory.NewErrValueCoercion(row.Table(), f, v))
		return 0, false
	}
	return n, true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func gb(mib float64) float64 {
	return round2(mib / 1024)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(round2(f), 'f', -1, 64)
}
