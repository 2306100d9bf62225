package inventory

import (
	"sort"
	"time"
)

// SourceData is every table ingested from one environment.
type SourceData struct {
	Name   string
	Tables map[TableName]RawTable
}

// SourceInfo summarizes one source inside a snapshot.
type SourceInfo struct {
	Name   string            `json:"name"`
	Tables map[TableName]int `json:"tables"`
}

// Snapshot is a frozen, fully merged view of all ingested sources. It is
// never mutated after NewSnapshot returns, so it can be shared freely
// between concurrent requests.
type Snapshot struct {
	epoch    uint64
	loadedAt time.Time
	sources  []SourceInfo
	tables   map[TableName]*Table

	vms       []VM
	hosts     []Host
	vmIndex   *Index[int]
	hostIndex *Index[int]
}

// EmptySnapshot is the snapshot served before the first load completes.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(0, nil)
}

// NewSnapshot concatenates the tables of every source, stamping each row
// with its source name, and builds the typed VM and host views.
func NewSnapshot(epoch uint64, sources []SourceData) *Snapshot {
	s := &Snapshot{
		epoch:     epoch,
		loadedAt:  time.Now().UTC(),
		tables:    make(map[TableName]*Table),
		vmIndex:   NewIndex[int](),
		hostIndex: NewIndex[int](),
	}

	columns := make(map[TableName][]string)
	seen := make(map[TableName]map[string]struct{})
	records := make(map[TableName][]Record)

	for _, src := range sources {
		info := SourceInfo{Name: src.Name, Tables: make(map[TableName]int)}
		for _, name := range sortedTableNames(src.Tables) {
			raw := src.Tables[name]
			if _, ok := seen[name]; !ok {
				seen[name] = make(map[string]struct{})
			}
			cols := make([]string, 0, len(raw.Columns)+1)
			cols = append(cols, raw.Columns...)
			cols = append(cols, SourceColumn)
			for _, c := range cols {
				if _, ok := seen[name][c]; ok {
					continue
				}
				seen[name][c] = struct{}{}
				columns[name] = append(columns[name], c)
			}
			for _, rec := range raw.Rows {
				stamped := make(Record, len(rec)+1)
				for k, v := range rec {
					stamped[k] = v
				}
				stamped[SourceColumn] = src.Name
				records[name] = append(records[name], stamped)
			}
			info.Tables[name] = len(raw.Rows)
		}
		s.sources = append(s.sources, info)
	}

	for name, cols := range columns {
		s.tables[name] = newTable(name, cols, records[name])
	}

	s.indexVMs()
	s.indexHosts()
	return s
}

func sortedTableNames(tables map[TableName]RawTable) []TableName {
	names := make([]TableName, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// indexVMs keeps one VM per source, datacenter and name. The same name in
// two datacenters of one source is two VMs.
func (s *Snapshot) indexVMs() {
	for _, row := range s.Table(TableVInfo).Rows() {
		vm := vmFromRow(row)
		if vm.Name == "" {
			continue
		}
		if s.vmIndex.Add(vm.Key(), len(s.vms)) {
			s.vms = append(s.vms, vm)
		}
	}
}

func (s *Snapshot) indexHosts() {
	for _, row := range s.Table(TableVHost).Rows() {
		h := hostFromRow(row)
		if h.Name == "" {
			continue
		}
		if s.hostIndex.Add(h.Key(), len(s.hosts)) {
			s.hosts = append(s.hosts, h)
		}
	}
}

// Epoch increases by one on every successful reload.
func (s *Snapshot) Epoch() uint64 { return s.epoch }

func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

func (s *Snapshot) Sources() []SourceInfo { return s.sources }

// Table returns the named table, or an empty one when nothing was ingested
// for it. It never returns nil.
func (s *Snapshot) Table(name TableName) *Table {
	if t, ok := s.tables[name]; ok {
		return t
	}
	return emptyTable(name)
}

// HasTable reports whether at least one source delivered the table.
func (s *Snapshot) HasTable(name TableName) bool {
	_, ok := s.tables[name]
	return ok
}

func (s *Snapshot) VMs() []VM { return s.vms }

func (s *Snapshot) Hosts() []Host { return s.hosts }

// VM looks a virtual machine up by key. A key without datacenter or
// source resolves to the first matching VM, see Index.
func (s *Snapshot) VM(key Key) (VM, bool) {
	if i, ok := s.vmIndex.Get(key); ok {
		return s.vms[i], true
	}
	return VM{}, false
}

func (s *Snapshot) Host(key Key) (Host, bool) {
	if i, ok := s.hostIndex.Get(key); ok {
		return s.hosts[i], true
	}
	return Host{}, false
}
