package hierarchy_test

import (
	"testing"

	"github.com/kubev2v/inventory-advisor/internal/hierarchy"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot() *inventory.Snapshot {
	return inventory.NewSnapshot(1, []inventory.SourceData{{
		Name: "prod",
		Tables: map[inventory.TableName]inventory.RawTable{
			inventory.TableVHost: {
				Columns: []string{"Host", "Datacenter", "Cluster", "# CPU", "Cores per CPU", "# Cores", "# Memory", "CPU usage %", "Memory usage %"},
				Rows: []inventory.Record{
					{"Host": "esx01", "Datacenter": "dc-a", "Cluster": "c1", "# Cores": 16, "# Memory": 131072, "CPU usage %": 20, "Memory usage %": 40},
					{"Host": "esx02", "Datacenter": "dc-a", "Cluster": "c1", "# CPU": 2, "Cores per CPU": 8, "# Memory": 131072, "CPU usage %": 60, "Memory usage %": 80},
					{"Host": "esx03", "Datacenter": "dc-a", "Cluster": "", "# Cores": 8, "# Memory": 65536, "CPU usage %": 10, "Memory usage %": 10},
					{"Host": "esx04", "Datacenter": "dc-b", "Cluster": "c2", "# Cores": 32, "# Memory": 262144},
				},
			},
			inventory.TableVInfo: {
				Columns: []string{"VM", "Powerstate", "CPUs", "Memory", "Host", "Cluster", "Datacenter"},
				Rows: []inventory.Record{
					{"VM": "web01", "Powerstate": "poweredOn", "CPUs": 4, "Memory": 8192, "Host": "esx01", "Cluster": "c1", "Datacenter": "dc-a"},
					{"VM": "web02", "Powerstate": "poweredOn", "CPUs": 4, "Memory": 8192, "Host": "esx01", "Cluster": "c1", "Datacenter": "dc-a"},
					{"VM": "db01", "Powerstate": "poweredOff", "CPUs": 8, "Memory": 32768, "Host": "esx02", "Cluster": "c1", "Datacenter": "dc-a"},
					{"VM": "lonely", "Powerstate": "poweredOn", "CPUs": 2, "Memory": 2048, "Host": "esx03", "Datacenter": "dc-a"},
					{"VM": "ghost", "Powerstate": "poweredOn", "CPUs": 1, "Memory": 1024, "Host": "esx99", "Datacenter": "dc-c"},
				},
			},
		},
	}})
}

func TestBuildPlacesEveryHostAndVM(t *testing.T) {
	tree := hierarchy.Build(snapshot())
	require.NoError(t, tree.Validate())

	require.Len(t, tree.Sources, 1)
	src := tree.Sources[0]
	require.Len(t, src.Datacenters, 3)

	dcA := src.Datacenters[0]
	assert.Equal(t, "dc-a", dcA.Name)
	require.Len(t, dcA.Clusters, 2)
	assert.Equal(t, "c1", dcA.Clusters[0].Name)
	assert.Equal(t, hierarchy.StandaloneCluster, dcA.Clusters[1].Name)

	// host without VMs still appears
	dcB := src.Datacenters[1]
	require.Len(t, dcB.Clusters, 1)
	require.Len(t, dcB.Clusters[0].Hosts, 1)
	assert.Equal(t, "esx04", dcB.Clusters[0].Hosts[0].Name)
	assert.Equal(t, 0, dcB.Clusters[0].Hosts[0].TotalVMs)

	// VM on an unknown host goes to a synthetic standalone host
	dcC := src.Datacenters[2]
	require.Len(t, dcC.Clusters, 1)
	assert.Equal(t, hierarchy.StandaloneCluster, dcC.Clusters[0].Name)
	ghostHost := dcC.Clusters[0].Hosts[0]
	assert.True(t, ghostHost.Synthetic)
	assert.Equal(t, "esx99", ghostHost.Name)
	assert.Equal(t, 1, ghostHost.TotalVMs)
	assert.Equal(t, 0, ghostHost.PhysicalCores)

	assert.Equal(t, 5, tree.Totals.TotalVMs)
	assert.Equal(t, 4, tree.Totals.Hosts)
}

func TestClusterRollups(t *testing.T) {
	tree := hierarchy.Build(snapshot())
	c1 := tree.Sources[0].Datacenters[0].Clusters[0]

	sum := 0
	for _, h := range c1.Hosts {
		sum += h.TotalVMs
	}
	assert.Equal(t, sum, c1.TotalVMs)
	assert.Equal(t, 3, c1.TotalVMs)
	assert.Equal(t, 2, c1.PoweredOn)
	assert.Equal(t, 16, c1.TotalVCPU)
	assert.InDelta(t, 48.0, c1.TotalRAMGB, 0.001)

	// esx02 derives cores from sockets
	assert.Equal(t, 32, c1.PhysicalCores)
	assert.InDelta(t, 256.0, c1.PhysicalRAMGB, 0.001)

	// unweighted mean of host usage
	assert.Equal(t, 40.0, c1.CPUUsagePct)
	assert.Equal(t, 60.0, c1.MemoryUsagePct)

	assert.Equal(t, 0.5, c1.VCPURatio)
	assert.Equal(t, 0.19, c1.VRAMRatio)
}

func TestZeroDenominatorRatios(t *testing.T) {
	tree := hierarchy.Build(snapshot())
	dcC := tree.Sources[0].Datacenters[2]

	assert.Equal(t, 1, dcC.TotalVCPU)
	assert.Equal(t, 0.0, dcC.VCPURatio)
	assert.Equal(t, 0.0, dcC.VRAMRatio)
	assert.Equal(t, 0.0, dcC.CPUUsagePct)
}

func TestHostLookup(t *testing.T) {
	tree := hierarchy.Build(snapshot())

	h, ok := tree.Host(inventory.Key{Source: "prod", Name: "esx01"})
	require.True(t, ok)
	assert.Equal(t, 8, h.TotalVCPU)
	assert.Equal(t, 0.5, h.VCPURatio)

	_, ok = tree.Host(inventory.Key{Source: "other", Name: "esx01"})
	assert.False(t, ok)

	hosts := tree.HostsInDatacenter("dc-a")
	assert.Len(t, hosts, 3)
	assert.Empty(t, tree.HostsInDatacenter("dc-c"))
}

func TestBuildSameNamesAcrossDatacenters(t *testing.T) {
	snap := inventory.NewSnapshot(1, []inventory.SourceData{{
		Name: "vc",
		Tables: map[inventory.TableName]inventory.RawTable{
			inventory.TableVHost: {
				Columns: []string{"Host", "Datacenter", "Cluster", "# Cores", "# Memory"},
				Rows: []inventory.Record{
					{"Host": "esx01", "Datacenter": "dc-a", "Cluster": "c-a", "# Cores": 16, "# Memory": 131072},
					{"Host": "esx01", "Datacenter": "dc-b", "Cluster": "c-b", "# Cores": 8, "# Memory": 65536},
				},
			},
			inventory.TableVInfo: {
				Columns: []string{"VM", "Powerstate", "CPUs", "Memory", "Host", "Datacenter"},
				Rows: []inventory.Record{
					{"VM": "app", "Powerstate": "poweredOn", "CPUs": 4, "Memory": 8192, "Host": "esx01", "Datacenter": "dc-a"},
					{"VM": "app", "Powerstate": "poweredOff", "CPUs": 2, "Memory": 4096, "Host": "esx01", "Datacenter": "dc-b"},
					{"VM": "stray1", "Powerstate": "poweredOn", "CPUs": 1, "Memory": 1024, "Host": "", "Datacenter": "dc-a"},
					{"VM": "stray2", "Powerstate": "poweredOn", "CPUs": 1, "Memory": 1024, "Host": "", "Datacenter": "dc-b"},
				},
			},
		},
	}})

	tree := hierarchy.Build(snap)
	require.NoError(t, tree.Validate())
	assert.Equal(t, 4, tree.Totals.TotalVMs)
	assert.Equal(t, 2, tree.Totals.Hosts)

	require.Len(t, tree.Sources[0].Datacenters, 2)
	for _, dc := range tree.Sources[0].Datacenters {
		assert.Equal(t, 2, dc.TotalVMs, dc.Name)
		require.Len(t, dc.Clusters, 2, dc.Name)
		unknown := dc.Clusters[1]
		assert.Equal(t, hierarchy.StandaloneCluster, unknown.Name)
		require.Len(t, unknown.Hosts, 1)
		assert.Equal(t, hierarchy.UnknownHost, unknown.Hosts[0].Name)
		assert.Equal(t, 1, unknown.Hosts[0].TotalVMs)
	}

	a, ok := tree.Host(inventory.Key{Source: "vc", Datacenter: "dc-a", Name: "esx01"})
	require.True(t, ok)
	assert.Equal(t, 4, a.TotalVCPU)
	b, ok := tree.Host(inventory.Key{Source: "vc", Datacenter: "dc-b", Name: "esx01"})
	require.True(t, ok)
	assert.Equal(t, 2, b.TotalVCPU)
	assert.Equal(t, 8, b.PhysicalCores)
}

func TestValidateDetectsBrokenRollup(t *testing.T) {
	tree := hierarchy.Build(snapshot())
	tree.Sources[0].Datacenters[0].Clusters[0].TotalVMs++

	assert.Error(t, tree.Validate())
}

func TestBuildEmptySnapshot(t *testing.T) {
	tree := hierarchy.Build(inventory.EmptySnapshot())
	assert.Empty(t, tree.Sources)
	assert.NoError(t, tree.Validate())
}
