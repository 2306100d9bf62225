package checks

import (
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/pkg/vsphere"
)

// NewDefaultCatalog registers the full check set, configured from th.
func NewDefaultCatalog(th findings.Thresholds) *findings.Catalog {
	c := findings.NewCatalog()
	c.Register(
		NewPoweredOffDisk(WithPoweredOffDiskMinGB(th.PoweredOffDiskMinGB)),
		NewCPUUnderutilized(
			WithMinVCPUCheck(th.MinVCPUCheck),
			WithMinVCPURecommend(th.MinVCPURecommend),
			WithMaxUsagePct(th.CPUUnderutilMaxUsagePct),
			WithMinReductionFraction(th.MinReductionFraction),
		),
		NewConsolidateSnapshots(WithSnapshotDiskRatio(th.SnapshotHeavyDiskRatio)),
		NewOldSnapshot(WithSnapshotOldDays(th.SnapshotOldDays)),
		NewAppOptimization(
			WithRedisMaxVCPU(th.RedisMaxVCPU),
			WithDomainControllerMaxVCPU(th.DomainControllerMaxVCPU),
		),
		NewVMTools(),
		NewZombieResource(),
		NewNUMAAlignment(),
		NewLegacyNIC(),
		NewEOLOS(),
		NewCPULimit(),
		NewRAMLimit(),
		NewOldHWVersion(),
		NewMemoryBalloon(),
		NewMemorySwap(),
		NewHostCPUOvercommit(
			WithVendorOvercommit(vsphere.CPUVendorIntel, th.IntelOvercommitWarn, th.IntelOvercommitCritical),
			WithVendorOvercommit(vsphere.CPUVendorAMD, th.AMDOvercommitWarn, th.AMDOvercommitCritical),
		),
		NewDatastoreLowSpace(WithFreeSpaceTiers(th.DatastoreFreeWarnPct, th.DatastoreFreeHighPct, th.DatastoreFreeCriticalPct)),
		NewDatastoreOvercommit(WithOvercommitTiers(th.DatastoreOvercommitHighPct, th.DatastoreOvercommitCriticalPct)),
		NewFloppyConnected(),
		NewStorageOverprovisioned(
			WithOverprovisionRatio(th.StorageOverprovisionRatio),
			WithOverprovisionMinGB(th.StorageOverprovisionMinGB),
		),
		NewZombieDisk(),
		NewESXiOutdated(WithESXiMinMajor(th.ESXiMinMajor)),
		NewBIOSOutdated(WithBIOSMinYear(th.BIOSMinYear)),
		NewRVHealth(),
	)
	return c
}
