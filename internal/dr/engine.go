package dr

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kubev2v/inventory-advisor/internal/hierarchy"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
)

const (
	DefaultMaxPairs          = 100
	DefaultMaxUnmatched      = 50
	DefaultTopUnprotected    = 20
	DefaultFeasibleReadiness = 80.0
)

// Engine runs the replica matching and site rating over one snapshot. It is
// stateless and safe for concurrent use.
type Engine struct {
	patterns       []string
	maxPairs       int
	maxUnmatched   int
	topUnprotected int
	feasible       float64
}

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithReplicaPatterns replaces the replica name markers. Order matters:
// only the first contained marker is stripped.
func WithReplicaPatterns(patterns ...string) Option {
	return func(e *Engine) {
		if len(patterns) > 0 {
			e.patterns = make([]string, 0, len(patterns))
			for _, p := range patterns {
				e.patterns = append(e.patterns, strings.ToLower(p))
			}
		}
	}
}

// WithOutputCaps bounds the pair and unmatched replica lists. Non-positive
// values keep the defaults.
func WithOutputCaps(pairs, unmatched int) Option {
	return func(e *Engine) {
		if pairs > 0 {
			e.maxPairs = pairs
		}
		if unmatched > 0 {
			e.maxUnmatched = unmatched
		}
	}
}

// WithTopUnprotected sets how many unprotected VMs are listed.
func WithTopUnprotected(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topUnprotected = n
		}
	}
}

// WithFeasibleReadiness sets the readiness score a site needs for failover.
func WithFeasibleReadiness(score float64) Option {
	return func(e *Engine) {
		if score > 0 && score <= 100 {
			e.feasible = score
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		patterns:       DefaultReplicaPatterns,
		maxPairs:       DefaultMaxPairs,
		maxUnmatched:   DefaultMaxUnmatched,
		topUnprotected: DefaultTopUnprotected,
		feasible:       DefaultFeasibleReadiness,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze pairs replicas with production VMs and rates every recovery
// site. tree must be built from snap; when nil it is built here.
func (e *Engine) Analyze(snap *inventory.Snapshot, tree *hierarchy.Tree) Analysis {
	if tree == nil {
		tree = hierarchy.Build(snap)
	}

	var production, candidates []inventory.VM
	for _, vm := range snap.VMs() {
		switch vm.PowerState {
		case inventory.PowerStateOn:
			production = append(production, vm)
		case inventory.PowerStateOff:
			candidates = append(candidates, vm)
		}
	}

	pairs, unmatched, collisions := e.match(production, candidates)
	flows := buildFlows(pairs)
	sites := e.rateSites(pairs, tree)
	protected := protectedSet(pairs)
	unprotected, unprotectedCount := e.rankUnprotected(production, protected)

	a := Analysis{
		Summary: Summary{
			TotalProductionVMs:  len(production),
			TotalReplicatedVMs:  len(pairs),
			ProtectedVMs:        len(protected),
			UnprotectedVMCount:  unprotectedCount,
			UnmatchedReplicas:   len(unmatched),
			DCFlowCount:         len(flows),
			DRSiteCount:         len(sites),
			AmbiguousMatchCount: len(collisions),
		},
		Flows:       flows,
		Sites:       sites,
		Pairs:       capped(pairs, e.maxPairs),
		Unmatched:   capped(unmatched, e.maxUnmatched),
		Unprotected: unprotected,
		Collisions:  collisions,
	}
	if len(production) > 0 {
		a.Summary.ReplicationCoverage = round1(float64(len(protected)) / float64(len(production)) * 100)
	}
	for _, s := range sites {
		if s.FailoverFeasible {
			a.Summary.FeasibleDRSiteCount++
		}
	}
	return a
}

func capped[T any](in []T, n int) []T {
	if len(in) > n {
		in = in[:n]
	}
	if in == nil {
		return []T{}
	}
	return in
}

// match implements the base-name lookup with an exact-name fallback. The
// first production VM seen for a base name wins; later ones are reported as
// collisions and can only be reached through the exact-name fallback. A
// production VM takes at most one replica: candidates arriving after it is
// paired are listed as unmatched with the VM that claimed their counterpart.
func (e *Engine) match(production, candidates []inventory.VM) ([]ReplicaPair, []UnmatchedReplica, []Collision) {
	log := zap.S().Named("dr")

	byBase := make(map[string]inventory.VM, len(production))
	var collisions []Collision
	for _, vm := range production {
		base := BaseName(vm.Name, e.patterns)
		if chosen, taken := byBase[base]; taken {
			err := inventory.NewErrAmbiguousMatch(base, chosen.Name, vm.Name)
			log.Debugw("production base name collision", "error", err)
			collisions = append(collisions, Collision{BaseName: base, Chosen: chosen.Name, Dropped: vm.Name})
			continue
		}
		byBase[base] = vm
	}

	paired := make(map[inventory.Key]string, len(production))
	var pairs []ReplicaPair
	var unmatched []UnmatchedReplica
	for _, replica := range candidates {
		var claimedBy string

		if prod, ok := byBase[BaseName(replica.Name, e.patterns)]; ok && prod.Datacenter != replica.Datacenter {
			if _, taken := paired[prod.Key()]; !taken {
				paired[prod.Key()] = replica.Name
				pairs = append(pairs, newPair(prod, replica))
				continue
			}
			claimedBy = paired[prod.Key()]
		}
		prod, ok, taken := exactMatch(production, replica, paired)
		if ok {
			paired[prod.Key()] = replica.Name
			pairs = append(pairs, newPair(prod, replica))
			continue
		}
		if claimedBy == "" {
			claimedBy = taken
		}

		if claimedBy != "" || HasReplicaPattern(replica.Name, e.patterns) {
			if claimedBy != "" {
				log.Debugw("production vm already paired", "replica", replica.Name, "paired_with", claimedBy)
			}
			unmatched = append(unmatched, UnmatchedReplica{
				VM:         replica.Name,
				Datacenter: replica.Datacenter,
				Cluster:    replica.Cluster,
				VCPU:       replica.CPUs,
				MemoryGB:   round2(replica.MemoryGB()),
				DiskGB:     round2(replica.DiskGB()),
				Source:     replica.Source,
				ClaimedBy:  claimedBy,
			})
		}
	}
	return pairs, unmatched, collisions
}

// exactMatch returns the first unpaired production VM with the replica's
// name in another datacenter. When only paired ones exist, the replica that
// claimed the first of them is returned instead.
func exactMatch(production []inventory.VM, replica inventory.VM, paired map[inventory.Key]string) (inventory.VM, bool, string) {
	var claimedBy string
	for _, prod := range production {
		if !strings.EqualFold(prod.Name, replica.Name) || prod.Datacenter == replica.Datacenter {
			continue
		}
		if other, taken := paired[prod.Key()]; taken {
			if claimedBy == "" {
				claimedBy = other
			}
			continue
		}
		return prod, true, ""
	}
	return inventory.VM{}, false, claimedBy
}

func newPair(prod, replica inventory.VM) ReplicaPair {
	return ReplicaPair{
		ProductionVM:      prod.Name,
		ProductionDC:      prod.Datacenter,
		ProductionCluster: prod.Cluster,
		ProductionHost:    prod.Host,
		ReplicaVM:         replica.Name,
		ReplicaDC:         replica.Datacenter,
		ReplicaCluster:    replica.Cluster,
		ReplicaHost:       replica.Host,
		VCPU:              prod.CPUs,
		MemoryGB:          round2(prod.MemoryGB()),
		DiskGB:            round2(prod.DiskGB()),
		OS:                prod.OS,
		Source:            prod.Source,
		ReplicaSource:     replica.Source,
	}
}

// buildFlows sums pairs per (source, target) datacenter, in first-seen order.
func buildFlows(pairs []ReplicaPair) []Flow {
	type flowKey struct{ from, to string }
	index := make(map[flowKey]int)
	flows := []Flow{}
	for _, p := range pairs {
		k := flowKey{from: p.ProductionDC, to: p.ReplicaDC}
		i, ok := index[k]
		if !ok {
			i = len(flows)
			index[k] = i
			flows = append(flows, Flow{SourceDC: p.ProductionDC, TargetDC: p.ReplicaDC})
		}
		f := &flows[i]
		f.VMCount++
		f.TotalVCPU += p.VCPU
		f.TotalMemoryGB = round2(f.TotalMemoryGB + p.MemoryGB)
		f.TotalDiskGB = round2(f.TotalDiskGB + p.DiskGB)
	}
	return flows
}

// rateSites computes readiness for every datacenter that receives replicas,
// sorted by name.
func (e *Engine) rateSites(pairs []ReplicaPair, tree *hierarchy.Tree) []Site {
	bySite := make(map[string]*Site)
	var names []string
	for _, p := range pairs {
		s, ok := bySite[p.ReplicaDC]
		if !ok {
			s = &Site{Datacenter: p.ReplicaDC}
			bySite[p.ReplicaDC] = s
			names = append(names, p.ReplicaDC)
		}
		s.ReplicatedVMCount++
		s.RequiredVCPU += p.VCPU
		s.RequiredMemoryGB += p.MemoryGB
		s.RequiredDiskGB += p.DiskGB
	}
	sort.Strings(names)

	sites := make([]Site, 0, len(names))
	for _, name := range names {
		s := bySite[name]
		s.RequiredMemoryGB = round2(s.RequiredMemoryGB)
		s.RequiredDiskGB = round2(s.RequiredDiskGB)
		e.rate(s, tree.HostsInDatacenter(treeDatacenter(name)))
		sites = append(sites, *s)
	}
	return sites
}

// treeDatacenter maps a VM datacenter label to the node name the hierarchy
// uses for it.
func treeDatacenter(name string) string {
	if n := strings.TrimSpace(name); n != "" && n != "-" {
		return n
	}
	return hierarchy.UnknownDatacenter
}

func (e *Engine) rate(s *Site, hosts []*hierarchy.Host) {
	if len(hosts) == 0 {
		s.NoHostData = true
		s.ReadinessScore = 100
		s.FailoverFeasible = true
		return
	}

	var cpuUsage, memUsage, memoryGB float64
	for _, h := range hosts {
		s.TotalCores += h.PhysicalCores
		memoryGB += h.PhysicalRAMGB
		cpuUsage += h.CPUUsagePct
		memUsage += h.MemoryUsagePct
	}
	s.HostCount = len(hosts)
	s.TotalMemoryGB = round2(memoryGB)
	s.CPUUsagePct = round1(cpuUsage / float64(len(hosts)))
	s.MemoryUsagePct = round1(memUsage / float64(len(hosts)))

	var cpuRatio, memRatio float64
	if s.TotalCores > 0 {
		cpuRatio = float64(s.RequiredVCPU) / float64(s.TotalCores) * 100
	}
	if s.TotalMemoryGB > 0 {
		memRatio = s.RequiredMemoryGB / s.TotalMemoryGB * 100
	}
	s.CPUCapacityRatio = round1(cpuRatio)
	s.MemCapacityRatio = round1(memRatio)

	cpuReady := readiness(100-s.CPUUsagePct, cpuRatio)
	memReady := readiness(100-s.MemoryUsagePct, memRatio)
	s.ReadinessScore = round1((cpuReady + memReady) / 2)
	s.FailoverFeasible = s.ReadinessScore >= e.feasible
}

// readiness is the available share over the required share, capped at 100.
// Nothing required means fully ready.
func readiness(availablePct, ratio float64) float64 {
	if ratio <= 0 {
		return 100
	}
	return math.Min(100, availablePct/ratio*100)
}

func protectedSet(pairs []ReplicaPair) map[inventory.Key]struct{} {
	protected := make(map[inventory.Key]struct{}, len(pairs))
	for _, p := range pairs {
		protected[inventory.Key{Source: p.Source, Datacenter: p.ProductionDC, Name: p.ProductionVM}] = struct{}{}
	}
	return protected
}

// rankUnprotected lists production VMs without a replica, largest first,
// and returns the uncapped count.
func (e *Engine) rankUnprotected(production []inventory.VM, protected map[inventory.Key]struct{}) ([]UnprotectedVM, int) {
	out := []UnprotectedVM{}
	for _, vm := range production {
		if _, ok := protected[vm.Key()]; ok {
			continue
		}
		out = append(out, UnprotectedVM{
			VM:         vm.Name,
			Datacenter: vm.Datacenter,
			Cluster:    vm.Cluster,
			VCPU:       vm.CPUs,
			MemoryGB:   round2(vm.MemoryGB()),
			DiskGB:     round2(vm.DiskGB()),
			OS:         vm.OS,
			Source:     vm.Source,
			Score:      round2(float64(vm.CPUs)*2 + vm.MemoryMiB/1024 + vm.DiskMiB/1024),
		})
	}
	total := len(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return capped(out, e.topUnprotected), total
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }

func round2(f float64) float64 { return math.Round(f*100) / 100 }
