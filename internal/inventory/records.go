package inventory

import (
	"strings"
	"time"
)

type PowerState string

const (
	PowerStateOn        PowerState = "poweredOn"
	PowerStateOff       PowerState = "poweredOff"
	PowerStateSuspended PowerState = "suspended"
)

// ParsePowerState accepts the RVTools spellings; anything unknown is
// reported as powered off so it never passes a powered-on gate.
func ParsePowerState(s string) PowerState {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "poweredon", "on":
		return PowerStateOn
	case "suspended":
		return PowerStateSuspended
	default:
		return PowerStateOff
	}
}

// Key identifies a VM or host. Names are unique only within one source
// and datacenter; an empty Datacenter matches any datacenter on lookup.
type Key struct {
	Source     string
	Datacenter string
	Name       string
}

// VM is a normalized vInfo row.
type VM struct {
	Name           string     `json:"name"`
	PowerState     PowerState `json:"power_state"`
	CPUs           int        `json:"cpus"`
	MemoryMiB      float64    `json:"memory_mib"`
	DiskMiB        float64    `json:"disk_mib"`
	ProvisionedMiB float64    `json:"provisioned_mib"`
	InUseMiB       float64    `json:"in_use_mib"`
	Host           string     `json:"host"`
	Cluster        string     `json:"cluster"`
	Datacenter     string     `json:"datacenter"`
	OS             string     `json:"os"`
	HWVersion      string     `json:"hw_version"`
	Template       bool       `json:"template"`
	Source         string     `json:"source"`
}

func (k Key) String() string {
	if k.Datacenter == "" {
		return k.Source + "/" + k.Name
	}
	return k.Source + "/" + k.Datacenter + "/" + k.Name
}

func (v VM) Key() Key { return Key{Source: v.Source, Datacenter: v.Datacenter, Name: v.Name} }

func (v VM) PoweredOn() bool { return v.PowerState == PowerStateOn }

func (v VM) MemoryGB() float64 { return v.MemoryMiB / 1024 }

func (v VM) DiskGB() float64 { return v.DiskMiB / 1024 }

// Host is a normalized vHost row. Reported vCPU/vRAM are the platform's own
// aggregates and are kept separate from any bottom-up sum.
type Host struct {
	Name            string    `json:"name"`
	Datacenter      string    `json:"datacenter"`
	Cluster         string    `json:"cluster"`
	Sockets         int       `json:"sockets"`
	CoresPerSocket  int       `json:"cores_per_socket"`
	ReportedCores   int       `json:"reported_cores"`
	MemoryMiB       float64   `json:"memory_mib"`
	CPUModel        string    `json:"cpu_model"`
	ESXVersion      string    `json:"esx_version"`
	SpeedMHz        float64   `json:"speed_mhz"`
	CPUUsagePct     float64   `json:"cpu_usage_pct"`
	MemoryUsagePct  float64   `json:"memory_usage_pct"`
	ReportedVCPUs   int       `json:"reported_vcpus"`
	ReportedVRAMMiB float64   `json:"reported_vram_mib"`
	BIOSDate        time.Time `json:"bios_date,omitempty"`
	Vendor          string    `json:"vendor"`
	Model           string    `json:"model"`
	Source          string    `json:"source"`
}

func (h Host) Key() Key { return Key{Source: h.Source, Datacenter: h.Datacenter, Name: h.Name} }

// HostKey is the key of the host a VM runs on.
func (v VM) HostKey() Key { return Key{Source: v.Source, Datacenter: v.Datacenter, Name: v.Host} }

// PhysicalCores prefers the directly reported core count and derives it
// from sockets only when that is absent.
func (h Host) PhysicalCores() int {
	if h.ReportedCores > 0 {
		return h.ReportedCores
	}
	return h.Sockets * h.CoresPerSocket
}

func (h Host) MemoryGB() float64 { return h.MemoryMiB / 1024 }

func vmFromRow(r Row) VM {
	return VM{
		Name:           r.String(FieldVM),
		PowerState:     ParsePowerState(r.String(FieldPowerState)),
		CPUs:           r.Int(FieldCPUs),
		MemoryMiB:      r.Float(FieldMemory),
		DiskMiB:        r.Float(FieldDisk),
		ProvisionedMiB: r.Float(FieldProvisioned),
		InUseMiB:       r.Float(FieldInUse),
		Host:           r.String(FieldHost),
		Cluster:        r.String(FieldCluster),
		Datacenter:     r.String(FieldDatacenter),
		OS:             r.String(FieldOS),
		HWVersion:      r.String(FieldHWVersion),
		Template:       r.Bool(FieldTemplate),
		Source:         r.Source(),
	}
}

func hostFromRow(r Row) Host {
	bios, _ := r.Date(FieldBIOSDate)
	return Host{
		Name:            r.String(FieldHost),
		Datacenter:      r.String(FieldDatacenter),
		Cluster:         r.String(FieldCluster),
		Sockets:         r.Int(FieldSockets),
		CoresPerSocket:  r.Int(FieldCoresPerSocket),
		ReportedCores:   r.Int(FieldCores),
		MemoryMiB:       r.Float(FieldMemory),
		CPUModel:        r.String(FieldCPUModel),
		ESXVersion:      r.String(FieldESXVersion),
		SpeedMHz:        r.Float(FieldSpeed),
		CPUUsagePct:     r.Float(FieldCPUUsage),
		MemoryUsagePct:  r.Float(FieldMemoryUsage),
		ReportedVCPUs:   r.Int(FieldVCPUs),
		ReportedVRAMMiB: r.Float(FieldVRAM),
		BIOSDate:        bios,
		Vendor:          r.String(FieldVendor),
		Model:           r.String(FieldModel),
		Source:          r.Source(),
	}
}
