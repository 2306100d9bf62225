package vsphere

import "strings"

type CPUVendor string

const (
	CPUVendorIntel CPUVendor = "Intel"
	CPUVendorAMD   CPUVendor = "AMD"
)

// DefaultCoreSpeedMHz is used when a host does not report its clock speed.
const DefaultCoreSpeedMHz = 2000.0

// DetectCPUVendor classifies a host CPU model string. Anything that is not
// recognisably AMD is treated as Intel.
func DetectCPUVendor(model string) CPUVendor {
	m := strings.ToUpper(model)
	if strings.Contains(m, "AMD") || strings.Contains(m, "EPYC") {
		return CPUVendorAMD
	}
	return CPUVendorIntel
}

// EfficiencyFactor is the relative per-core throughput used when turning
// MHz demand into a vCPU count.
func (v CPUVendor) EfficiencyFactor() float64 {
	if v == CPUVendorAMD {
		return 1.15
	}
	return 1.0
}
