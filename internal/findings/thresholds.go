package findings

import (
	"github.com/go-playground/validator/v10"
)

// Thresholds are the named limits the catalog checks against. Fields carry
// envconfig names so they can be overridden from the environment.
type Thresholds struct {
	// CPU_UNDERUTILIZED
	MinVCPUCheck            int     `envconfig:"MIN_VCPU_CHECK" validate:"gte=1" json:"min_vcpu_check"`
	MinVCPURecommend        int     `envconfig:"MIN_VCPU_RECOMMEND" validate:"gte=1" json:"min_vcpu_recommend"`
	CPUUnderutilMaxUsagePct float64 `envconfig:"CPU_UNDERUTIL_MAX_USAGE_PCT" validate:"gt=0,lte=100" json:"cpu_underutil_max_usage_pct"`
	MinReductionFraction    float64 `envconfig:"MIN_REDUCTION_FRACTION" validate:"gt=0,lt=1" json:"min_reduction_fraction"`

	PoweredOffDiskMinGB    float64 `envconfig:"POWERED_OFF_DISK_MIN_GB" validate:"gte=0" json:"powered_off_disk_min_gb"`
	SnapshotHeavyDiskRatio float64 `envconfig:"SNAPSHOT_HEAVY_DISK_RATIO" validate:"gt=0" json:"snapshot_heavy_disk_ratio"`
	SnapshotOldDays        int     `envconfig:"SNAPSHOT_OLD_DAYS" validate:"gte=1" json:"snapshot_old_days"`

	DatastoreFreeWarnPct     float64 `envconfig:"DATASTORE_FREE_WARN_PCT" validate:"gt=0,lte=100" json:"datastore_free_warn_pct"`
	DatastoreFreeHighPct     float64 `envconfig:"DATASTORE_FREE_HIGH_PCT" validate:"gt=0,ltfield=DatastoreFreeWarnPct" json:"datastore_free_high_pct"`
	DatastoreFreeCriticalPct float64 `envconfig:"DATASTORE_FREE_CRITICAL_PCT" validate:"gt=0,ltfield=DatastoreFreeHighPct" json:"datastore_free_critical_pct"`

	DatastoreOvercommitHighPct     float64 `envconfig:"DATASTORE_OVERCOMMIT_HIGH_PCT" validate:"gt=0" json:"datastore_overcommit_high_pct"`
	DatastoreOvercommitCriticalPct float64 `envconfig:"DATASTORE_OVERCOMMIT_CRITICAL_PCT" validate:"gtfield=DatastoreOvercommitHighPct" json:"datastore_overcommit_critical_pct"`

	StorageOverprovisionRatio float64 `envconfig:"STORAGE_OVERPROVISION_RATIO" validate:"gt=1" json:"storage_overprovision_ratio"`
	StorageOverprovisionMinGB float64 `envconfig:"STORAGE_OVERPROVISION_MIN_GB" validate:"gte=0" json:"storage_overprovision_min_gb"`

	IntelOvercommitWarn     float64 `envconfig:"INTEL_OVERCOMMIT_WARN" validate:"gt=0" json:"intel_overcommit_warn"`
	IntelOvercommitCritical float64 `envconfig:"INTEL_OVERCOMMIT_CRITICAL" validate:"gtfield=IntelOvercommitWarn" json:"intel_overcommit_critical"`
	AMDOvercommitWarn       float64 `envconfig:"AMD_OVERCOMMIT_WARN" validate:"gt=0" json:"amd_overcommit_warn"`
	AMDOvercommitCritical   float64 `envconfig:"AMD_OVERCOMMIT_CRITICAL" validate:"gtfield=AMDOvercommitWarn" json:"amd_overcommit_critical"`

	RedisMaxVCPU            int `envconfig:"REDIS_MAX_VCPU" validate:"gte=1" json:"redis_max_vcpu"`
	DomainControllerMaxVCPU int `envconfig:"DOMAIN_CONTROLLER_MAX_VCPU" validate:"gte=1" json:"domain_controller_max_vcpu"`

	ESXiMinMajor int `envconfig:"ESXI_MIN_MAJOR" validate:"gte=1" json:"esxi_min_major"`
	BIOSMinYear  int `envconfig:"BIOS_MIN_YEAR" validate:"gte=1990" json:"bios_min_year"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		MinVCPUCheck:            2,
		MinVCPURecommend:        4,
		CPUUnderutilMaxUsagePct: 15,
		MinReductionFraction:    0.5,

		PoweredOffDiskMinGB:    5,
		SnapshotHeavyDiskRatio: 0.5,
		SnapshotOldDays:        7,

		DatastoreFreeWarnPct:     20,
		DatastoreFreeHighPct:     15,
		DatastoreFreeCriticalPct: 10,

		DatastoreOvercommitHighPct:     20,
		DatastoreOvercommitCriticalPct: 50,

		StorageOverprovisionRatio: 3,
		StorageOverprovisionMinGB: 100,

		IntelOvercommitWarn:     6,
		IntelOvercommitCritical: 8,
		AMDOvercommitWarn:       8,
		AMDOvercommitCritical:   10,

		RedisMaxVCPU:            2,
		DomainControllerMaxVCPU: 4,

		ESXiMinMajor: 7,
		BIOSMinYear:  2021,
	}
}

func (t Thresholds) Validate() error {
	return validator.New().Struct(t)
}
