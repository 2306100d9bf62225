package checks

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

var (
	_ findings.Check = (*VMTools)(nil)
	_ findings.Check = (*LegacyNIC)(nil)
	_ findings.Check = (*ZombieResource)(nil)
	_ findings.Check = (*FloppyConnected)(nil)
	_ findings.Check = (*ResourceLimit)(nil)
	_ findings.Check = (*MemoryPressure)(nil)
)

var (
	toolsOKRegex   = regexp.MustCompile(`(?i)toolsOk|guestToolsRunning`)
	legacyNICRegex = regexp.MustCompile(`(?i)e1000|vlance|flexible`)
)

// VMTools reports powered-on VMs whose guest tools are not healthy.
type VMTools struct{}

func NewVMTools() *VMTools { return &VMTools{} }

func (c *VMTools) Name() string { return string(findings.TypeVMTools) }

func (c *VMTools) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVTools, inventory.TableVInfo}
}

func (c *VMTools) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVTools, inventory.FieldVM, inventory.FieldToolsStatus)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		status := row.String(inventory.FieldToolsStatus)
		if toolsOKRegex.MatchString(status) {
			continue
		}
		vm, ok := rowVM(in, c.Name(), row)
		if !ok || !vm.PoweredOn() {
			continue
		}
		if status == "" {
			status = "unknown"
		}
		f := forVM(vm, findings.TypeVMTools, findings.SeverityHigh, findings.ResourceHealth)
		f.Reason = fmt.Sprintf("VMware Tools on a powered-on VM: %s", status)
		f.Current = status
		f.Recommended = "Running"
		out = append(out, f)
	}
	return out
}

// LegacyNIC reports emulated network adapters of older types.
type LegacyNIC struct{}

func NewLegacyNIC() *LegacyNIC { return &LegacyNIC{} }

func (c *LegacyNIC) Name() string { return string(findings.TypeLegacyNIC) }

func (c *LegacyNIC) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVNetwork}
}

func (c *LegacyNIC) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVNetwork, inventory.FieldVM, inventory.FieldAdapter)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		adapter := row.String(inventory.FieldAdapter)
		if !legacyNICRegex.MatchString(adapter) {
			continue
		}
		vm, ok := rowVM(in, c.Name(), row)
		if !ok {
			continue
		}
		f := forVM(vm, findings.TypeLegacyNIC, findings.SeverityLow, findings.ResourcePerformance)
		f.Reason = fmt.Sprintf("Legacy network adapter (%s) costs extra CPU.", adapter)
		f.Current = adapter
		f.Recommended = "VMXNET3"
		out = append(out, f)
	}
	return out
}

// connectedDevice is the shared logic of the CD-ROM and floppy checks.
func connectedDevice(in findings.Input, check string, name inventory.TableName, emit func(inventory.VM, inventory.Row) findings.Finding) []findings.Finding {
	table, ok := in.Require(check, name, inventory.FieldVM, inventory.FieldConnected)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		if !row.Bool(inventory.FieldConnected) {
			continue
		}
		vm, ok := rowVM(in, check, row)
		if !ok {
			continue
		}
		out = append(out, emit(vm, row))
	}
	return out
}

// ZombieResource reports connected CD-ROM devices.
type ZombieResource struct{}

func NewZombieResource() *ZombieResource { return &ZombieResource{} }

func (c *ZombieResource) Name() string { return string(findings.TypeZombieResource) }

func (c *ZombieResource) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVCD}
}

func (c *ZombieResource) Run(in findings.Input) []findings.Finding {
	return connectedDevice(in, c.Name(), inventory.TableVCD, func(vm inventory.VM, row inventory.Row) findings.Finding {
		iso := row.String(inventory.FieldISOPath)
		if iso == "" {
			iso = "unknown ISO"
		}
		f := forVM(vm, findings.TypeZombieResource, findings.SeverityMedium, findings.ResourceHealth)
		f.Reason = "CD-ROM connected: " + iso
		f.Current = "Connected"
		f.Recommended = "Disconnected"
		return f
	})
}

// FloppyConnected reports connected floppy drives.
type FloppyConnected struct{}

func NewFloppyConnected() *FloppyConnected { return &FloppyConnected{} }

func (c *FloppyConnected) Name() string { return string(findings.TypeFloppyConnected) }

func (c *FloppyConnected) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVFloppy}
}

func (c *FloppyConnected) Run(in findings.Input) []findings.Finding {
	return connectedDevice(in, c.Name(), inventory.TableVFloppy, func(vm inventory.VM, _ inventory.Row) findings.Finding {
		f := forVM(vm, findings.TypeFloppyConnected, findings.SeverityLow, findings.ResourceSecurity)
		f.Reason = "Floppy drive connected. It is a security risk and may block migration."
		f.Current = "Connected"
		f.Recommended = "Disconnected"
		return f
	})
}

// ResourceLimit reports a configured CPU or memory limit. One instance per
// table: vCPU yields CPU_LIMIT, vMemory yields RAM_LIMIT.
type ResourceLimit struct {
	kind  findings.Type
	table inventory.TableName
	unit  string
}

func NewCPULimit() *ResourceLimit {
	return &ResourceLimit{kind: findings.TypeCPULimit, table: inventory.TableVCPU, unit: "MHz"}
}

func NewRAMLimit() *ResourceLimit {
	return &ResourceLimit{kind: findings.TypeRAMLimit, table: inventory.TableVMemory, unit: "MB"}
}

func (c *ResourceLimit) Name() string                  { return string(c.kind) }
func (c *ResourceLimit) Tables() []inventory.TableName { return []inventory.TableName{c.table} }

func (c *ResourceLimit) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), c.table, inventory.FieldVM, inventory.FieldLimit)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		limit := strings.TrimSpace(row.String(inventory.FieldLimit))
		if unlimited(limit) {
			continue
		}
		vm, ok := rowVM(in, c.Name(), row)
		if !ok {
			continue
		}
		f := forVM(vm, c.kind, findings.SeverityHigh, findings.ResourcePerformance)
		if c.kind == findings.TypeCPULimit {
			f.Reason = fmt.Sprintf("CPU limit set (%s %s). It may throttle the VM.", limit, c.unit)
		} else {
			f.Reason = fmt.Sprintf("Memory limit set (%s %s). It may cause swapping.", limit, c.unit)
		}
		f.Current = limit + " " + c.unit
		f.Recommended = "Unlimited"
		out = append(out, f)
	}
	return out
}

func unlimited(limit string) bool {
	if limit == "" || strings.EqualFold(limit, "unlimited") {
		return true
	}
	f, err := strconv.ParseFloat(limit, 64)
	return err == nil && f < 0
}

// MemoryPressure reports ballooned or swapped memory on powered-on VMs. One
// instance per counter.
type MemoryPressure struct {
	kind  findings.Type
	field inventory.Field
	label string
}

func NewMemoryBalloon() *MemoryPressure {
	return &MemoryPressure{kind: findings.TypeMemoryBalloon, field: inventory.FieldBallooned, label: "ballooning"}
}

func NewMemorySwap() *MemoryPressure {
	return &MemoryPressure{kind: findings.TypeMemorySwap, field: inventory.FieldSwapped, label: "swapping"}
}

func (c *MemoryPressure) Name() string { return string(c.kind) }

func (c *MemoryPressure) Tables() []inventory.TableName {
	return []inventory.TableName{inventory.TableVMemory, inventory.TableVInfo}
}

func (c *MemoryPressure) Run(in findings.Input) []findings.Finding {
	table, ok := in.Require(c.Name(), inventory.TableVMemory, inventory.FieldVM, c.field)
	if !ok {
		return nil
	}

	var out []findings.Finding
	for _, row := range table.Rows() {
		mb, ok := number(in, c.Name(), row, c.field)
		if !ok || mb <= 0 {
			continue
		}
		vm, ok := rowVM(in, c.Name(), row)
		if !ok || !vm.PoweredOn() {
			continue
		}
		f := forVM(vm, c.kind, findings.SeverityCritical, findings.ResourcePerformance)
		f.Reason = fmt.Sprintf("Memory %s active (%.0f MB). The host is under memory pressure.", c.label, mb)
		f.Current = fmt.Sprintf("%.0f MB", mb)
		f.Recommended = "0 MB"
		out = append(out, f)
	}
	return out
}
