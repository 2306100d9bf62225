package hierarchy

import (
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"go.uber.org/zap"
)

// Builder assembles a Tree in two passes: hosts seed the structure so hosts
// without VMs still appear, then VMs are folded in and counters incremented
// along their path.
type Builder struct {
	tree *Tree

	sources     map[string]*Source
	datacenters map[[2]string]*Datacenter
	clusters    map[[3]string]*Cluster
	path        map[*Host]hostPath
	synthetic   map[inventory.Key]*Host

	usage map[any]*usageMean
}

type hostPath struct {
	source     *Source
	datacenter *Datacenter
	cluster    *Cluster
}

type usageMean struct {
	cpu, mem float64
	n        int
}

func NewBuilder() *Builder {
	return &Builder{
		tree:        &Tree{hosts: inventory.NewIndex[*Host]()},
		sources:     make(map[string]*Source),
		datacenters: make(map[[2]string]*Datacenter),
		clusters:    make(map[[3]string]*Cluster),
		path:        make(map[*Host]hostPath),
		synthetic:   make(map[inventory.Key]*Host),
		usage:       make(map[any]*usageMean),
	}
}

// Build is a shortcut for NewBuilder().Build(snap).
func Build(snap *inventory.Snapshot) *Tree {
	return NewBuilder().Build(snap)
}

func (b *Builder) Build(snap *inventory.Snapshot) *Tree {
	for _, h := range snap.Hosts() {
		b.seedHost(h)
	}
	for _, vm := range snap.VMs() {
		b.foldVM(vm)
	}
	b.finish()

	if err := b.tree.Validate(); err != nil {
		zap.S().Named("hierarchy").Warnw("hierarchy rollups inconsistent", "epoch", snap.Epoch(), "error", err)
	}
	return b.tree
}

func (b *Builder) seedHost(h inventory.Host) *Host {
	node := &Host{
		Name:           h.Name,
		CPUModel:       h.CPUModel,
		ESXVersion:     h.ESXVersion,
		ReportedVCPUs:  h.ReportedVCPUs,
		ReportedVRAMGB: h.ReportedVRAMMiB / 1024,
	}
	node.Hosts = 1
	node.PhysicalCores = h.PhysicalCores()
	node.PhysicalRAMGB = h.MemoryGB()
	node.CPUUsagePct = h.CPUUsagePct
	node.MemoryUsagePct = h.MemoryUsagePct

	p := b.place(h.Source, h.Datacenter, h.Cluster)
	p.cluster.Hosts = append(p.cluster.Hosts, node)
	for _, r := range p.rollups() {
		r.Hosts++
		r.PhysicalCores += node.PhysicalCores
		r.PhysicalRAMGB += node.PhysicalRAMGB
	}
	b.tree.Totals.Hosts++
	b.tree.Totals.PhysicalCores += node.PhysicalCores
	b.tree.Totals.PhysicalRAMGB += node.PhysicalRAMGB

	for _, owner := range []any{p.cluster, p.datacenter, p.source, b.tree} {
		m, ok := b.usage[owner]
		if !ok {
			m = &usageMean{}
			b.usage[owner] = m
		}
		m.cpu += h.CPUUsagePct
		m.mem += h.MemoryUsagePct
		m.n++
	}

	b.path[node] = p
	b.tree.hosts.Add(h.Key(), node)
	return node
}

func (b *Builder) foldVM(vm inventory.VM) {
	node, ok := b.tree.hosts.Get(vm.HostKey())
	if !ok {
		node = b.syntheticHost(vm)
	}

	node.VMs = append(node.VMs, VMRef{
		Name:       vm.Name,
		PowerState: vm.PowerState,
		CPUs:       vm.CPUs,
		MemoryGB:   vm.MemoryGB(),
		OS:         vm.OS,
	})
	node.addVM(vm)
	for _, r := range b.path[node].rollups() {
		r.addVM(vm)
	}
	b.tree.Totals.addVM(vm)
	b.tree.vmCount++
}

// syntheticHost places a VM whose host is not in vHost. It lives under the
// standalone cluster of the VM's own datacenter and contributes no capacity.
func (b *Builder) syntheticHost(vm inventory.VM) *Host {
	name := vm.Host
	if name == "" {
		name = UnknownHost
	}
	key := inventory.Key{Source: vm.Source, Datacenter: vm.Datacenter, Name: name}
	if node, ok := b.synthetic[key]; ok {
		return node
	}

	node := &Host{Name: name, Synthetic: true}
	p := b.place(vm.Source, vm.Datacenter, "")
	p.cluster.Hosts = append(p.cluster.Hosts, node)
	b.path[node] = p
	b.synthetic[key] = node
	b.tree.hosts.Add(key, node)
	return node
}

func (b *Builder) place(source, datacenter, cluster string) hostPath {
	if datacenter == "" || datacenter == "-" {
		datacenter = UnknownDatacenter
	}
	if cluster == "" || cluster == "-" {
		cluster = StandaloneCluster
	}

	src, ok := b.sources[source]
	if !ok {
		src = &Source{Name: source}
		b.sources[source] = src
		b.tree.Sources = append(b.tree.Sources, src)
	}

	dcKey := [2]string{source, datacenter}
	dc, ok := b.datacenters[dcKey]
	if !ok {
		dc = &Datacenter{Name: datacenter}
		b.datacenters[dcKey] = dc
		src.Datacenters = append(src.Datacenters, dc)
	}

	clKey := [3]string{source, datacenter, cluster}
	cl, ok := b.clusters[clKey]
	if !ok {
		cl = &Cluster{Name: cluster}
		b.clusters[clKey] = cl
		dc.Clusters = append(dc.Clusters, cl)
	}

	return hostPath{source: src, datacenter: dc, cluster: cl}
}

func (p hostPath) rollups() []*Rollup {
	return []*Rollup{&p.cluster.Rollup, &p.datacenter.Rollup, &p.source.Rollup}
}

// finish computes usage means and ratios once all counters are final.
func (b *Builder) finish() {
	apply := func(owner any, r *Rollup) {
		if m, ok := b.usage[owner]; ok && m.n > 0 {
			r.CPUUsagePct = round2(m.cpu / float64(m.n))
			r.MemoryUsagePct = round2(m.mem / float64(m.n))
		}
		r.ratios()
	}

	for _, src := range b.tree.Sources {
		for _, dc := range src.Datacenters {
			for _, cl := range dc.Clusters {
				for _, h := range cl.Hosts {
					h.ratios()
				}
				apply(cl, &cl.Rollup)
			}
			apply(dc, &dc.Rollup)
		}
		apply(src, &src.Rollup)
	}
	apply(b.tree, &b.tree.Totals)
}
