package dr

// ReplicaPair links a powered-on production VM to the powered-off replica
// inferred for it. Resource sizes are the production VM's.
type ReplicaPair struct {
	ProductionVM      string  `json:"production_vm"`
	ProductionDC      string  `json:"production_dc"`
	ProductionCluster string  `json:"production_cluster"`
	ProductionHost    string  `json:"production_host"`
	ReplicaVM         string  `json:"replica_vm"`
	ReplicaDC         string  `json:"replica_dc"`
	ReplicaCluster    string  `json:"replica_cluster"`
	ReplicaHost       string  `json:"replica_host"`
	VCPU              int     `json:"vcpu"`
	MemoryGB          float64 `json:"memory_gb"`
	DiskGB            float64 `json:"disk_gb"`
	OS                string  `json:"os"`
	Source            string  `json:"source"`
	ReplicaSource     string  `json:"replica_source"`
}

// UnmatchedReplica is a powered-off VM named like a replica for which no
// production counterpart exists, or whose counterpart already has a replica.
type UnmatchedReplica struct {
	VM         string  `json:"vm"`
	Datacenter string  `json:"datacenter"`
	Cluster    string  `json:"cluster"`
	VCPU       int     `json:"vcpu"`
	MemoryGB   float64 `json:"memory_gb"`
	DiskGB     float64 `json:"disk_gb"`
	Source     string  `json:"source"`
	// ClaimedBy names the replica already paired with the counterpart.
	ClaimedBy string `json:"claimed_by,omitempty"`
}

// Flow aggregates the pairs replicating from one datacenter to another.
type Flow struct {
	SourceDC      string  `json:"source_dc"`
	TargetDC      string  `json:"target_dc"`
	VMCount       int     `json:"vm_count"`
	TotalVCPU     int     `json:"total_vcpu"`
	TotalMemoryGB float64 `json:"total_memory_gb"`
	TotalDiskGB   float64 `json:"total_disk_gb"`
}

// Site rates one recovery datacenter. Capacity ratios are required
// resources as a percentage of physical ones; readiness compares them with
// the headroom left by current utilization.
type Site struct {
	Datacenter        string  `json:"datacenter"`
	HostCount         int     `json:"host_count"`
	TotalCores        int     `json:"total_cores"`
	TotalMemoryGB     float64 `json:"total_memory_gb"`
	CPUUsagePct       float64 `json:"current_cpu_usage_pct"`
	MemoryUsagePct    float64 `json:"current_mem_usage_pct"`
	ReplicatedVMCount int     `json:"replicated_vm_count"`
	RequiredVCPU      int     `json:"required_vcpu"`
	RequiredMemoryGB  float64 `json:"required_memory_gb"`
	RequiredDiskGB    float64 `json:"required_disk_gb"`
	CPUCapacityRatio  float64 `json:"cpu_capacity_ratio"`
	MemCapacityRatio  float64 `json:"mem_capacity_ratio"`
	ReadinessScore    float64 `json:"readiness_score"`
	FailoverFeasible  bool    `json:"failover_feasible"`
	// NoHostData is set when no host of the datacenter was ingested.
	NoHostData bool `json:"no_host_data,omitempty"`
}

// UnprotectedVM is a production VM without any inferred replica.
type UnprotectedVM struct {
	VM         string  `json:"vm"`
	Datacenter string  `json:"datacenter"`
	Cluster    string  `json:"cluster"`
	VCPU       int     `json:"vcpu"`
	MemoryGB   float64 `json:"memory_gb"`
	DiskGB     float64 `json:"disk_gb"`
	OS         string  `json:"os"`
	Source     string  `json:"source"`
	Score      float64 `json:"resource_score"`
}

// Collision records production VMs that lost a base-name tie.
type Collision struct {
	BaseName string `json:"base_name"`
	Chosen   string `json:"chosen"`
	Dropped  string `json:"dropped"`
}

type Summary struct {
	TotalProductionVMs  int     `json:"total_production_vms"`
	TotalReplicatedVMs  int     `json:"total_replicated_vms"`
	ProtectedVMs        int     `json:"protected_vms"`
	ReplicationCoverage float64 `json:"replication_coverage_pct"`
	UnprotectedVMCount  int     `json:"unprotected_vm_count"`
	UnmatchedReplicas   int     `json:"unmatched_replica_count"`
	DCFlowCount         int     `json:"dc_flow_count"`
	DRSiteCount         int     `json:"dr_site_count"`
	FeasibleDRSiteCount int     `json:"feasible_dr_site_count"`
	AmbiguousMatchCount int     `json:"ambiguous_match_count"`
}

// Analysis is the result of one DR run. Pairs and Unmatched are capped;
// Summary always carries the uncapped totals.
type Analysis struct {
	Summary     Summary            `json:"summary"`
	Flows       []Flow             `json:"dc_flows"`
	Sites       []Site             `json:"dr_sites"`
	Pairs       []ReplicaPair      `json:"matched_pairs"`
	Unmatched   []UnmatchedReplica `json:"unmatched_replicas"`
	Unprotected []UnprotectedVM    `json:"unprotected_critical"`
	Collisions  []Collision        `json:"collisions,omitempty"`
}
