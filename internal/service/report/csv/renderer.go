package csv

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/kubev2v/inventory-advisor/internal/analytics"
	"github.com/kubev2v/inventory-advisor/internal/dr"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/service/report/types"
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatCSV
}

func (r *Renderer) ContentType() string {
	return "text/csv; charset=utf-8"
}

func (r *Renderer) Render(data *types.ReportData) ([]byte, error) {
	if data.Empty() {
		return r.generateEmptyReport(data)
	}

	var csvRows [][]string

	csvRows = append(csvRows, []string{"RVTOOLS INVENTORY ADVISORY REPORT"})
	csvRows = append(csvRows, []string{fmt.Sprintf("Generated: %s at %s",
		data.Timestamps.Generated, data.Timestamps.GeneratedTime)})
	csvRows = append(csvRows, []string{""})

	csvRows = r.addExecutiveSummary(csvRows, data.Executive)
	csvRows = r.addSources(csvRows, data)
	csvRows = r.addEfficiency(csvRows, data.Efficiency)
	csvRows = r.addCost(csvRows, data.Cost)
	csvRows = r.addCapacity(csvRows, data.Capacity)
	csvRows = r.addOperatingSystemDistribution(csvRows, data.OS, data.Executive.TotalVMs)
	csvRows = r.addFindings(csvRows, data.Findings)
	csvRows = r.addDisasterRecovery(csvRows, data.DR)
	csvRows = r.addDiskWaste(csvRows, data.DiskWaste)

	return r.convertRowsToCSV(csvRows)
}

func (r *Renderer) generateEmptyReport(data *types.ReportData) ([]byte, error) {
	csvRows := [][]string{
		{"RVTOOLS INVENTORY ADVISORY REPORT"},
		{fmt.Sprintf("Generated: %s at %s", data.Timestamps.Generated, data.Timestamps.GeneratedTime)},
		{""},
		{"NOTICE"},
		{""},
		{"No inventory data available."},
		{"Please upload RVTools workbooks to populate the inventory."},
	}

	return r.convertRowsToCSV(csvRows)
}

func (r *Renderer) addExecutiveSummary(csvRows [][]string, metrics types.ExecutiveMetrics) [][]string {
	csvRows = append(csvRows, []string{"EXECUTIVE SUMMARY"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Metric", "Value", "Details"})

	csvRows = append(csvRows, []string{
		"Total Virtual Machines",
		fmt.Sprintf("%d", metrics.TotalVMs),
		fmt.Sprintf("%d powered on, %d powered off, %d templates", metrics.PoweredOn, metrics.PoweredOff, metrics.Templates)})
	csvRows = append(csvRows, []string{
		"ESXi Hosts",
		fmt.Sprintf("%d", metrics.TotalHosts),
		fmt.Sprintf("%d clusters in %d datacenters", metrics.TotalClusters, metrics.TotalDatacenters)})
	csvRows = append(csvRows, []string{
		"Allocated vCPUs",
		fmt.Sprintf("%d", metrics.TotalVCPU),
		""})
	csvRows = append(csvRows, []string{
		"Allocated Memory (GB)",
		fmt.Sprintf("%.1f", metrics.TotalMemoryGB),
		""})
	csvRows = append(csvRows, []string{
		"Provisioned Disk (GB)",
		fmt.Sprintf("%.1f", metrics.TotalDiskGB),
		""})
	csvRows = append(csvRows, []string{
		"Snapshots",
		fmt.Sprintf("%d", metrics.Snapshots),
		fmt.Sprintf("%d older than the retention threshold", metrics.OldSnapshots)})
	csvRows = append(csvRows, []string{
		"Critical / High Findings",
		fmt.Sprintf("%d / %d", metrics.CriticalFindings, metrics.HighFindings),
		""})
	csvRows = append(csvRows, []string{""})

	return csvRows
}

func (r *Renderer) addSources(csvRows [][]string, data *types.ReportData) [][]string {
	csvRows = append(csvRows, []string{"INGESTED SOURCES"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Source", "Tables", "Rows"})

	for _, src := range data.Sources {
		rows := 0
		for _, n := range src.Tables {
			rows += n
		}
		csvRows = append(csvRows, []string{src.Name, fmt.Sprintf("%d", len(src.Tables)), fmt.Sprintf("%d", rows)})
	}
	csvRows = append(csvRows, []string{""})

	return csvRows
}

func (r *Renderer) addEfficiency(csvRows [][]string, e analytics.Efficiency) [][]string {
	csvRows = append(csvRows, []string{"EFFICIENCY SCORE"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Overall", fmt.Sprintf("%d/100", e.Score), string(e.Grade)})
	csvRows = append(csvRows, []string{"Component", "Score", "Measured"})

	components := []struct {
		name string
		c    analytics.ScoreComponent
		unit string
	}{
		{"Powered-on ratio", e.PowerOn, "%"},
		{"Snapshot hygiene", e.Snapshots, "% VMs with old snapshots"},
		{"Thin provisioning", e.ThinDisks, "% thin disks"},
		{"Reservations", e.Reservation, "% VMs with reservations"},
		{"VM density", e.Density, "VMs per host"},
	}
	for _, c := range components {
		csvRows = append(csvRows, []string{
			c.name,
			fmt.Sprintf("%d/%d", c.c.Score, c.c.Max),
			fmt.Sprintf("%.1f %s", c.c.Value, c.unit)})
	}
	csvRows = append(csvRows, []string{""})

	return csvRows
}

func (r *Renderer) addCost(csvRows [][]string, c analytics.Cost) [][]string {
	csvRows = append(csvRows, []string{"MONTHLY COST ESTIMATE (USD)"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Item", "Amount"})
	csvRows = append(csvRows, []string{"Total", fmt.Sprintf("%.2f", c.TotalMonthly)})
	csvRows = append(csvRows, []string{"CPU", fmt.Sprintf("%.2f", c.CPUCost)})
	csvRows = append(csvRows, []string{"Memory", fmt.Sprintf("%.2f", c.RAMCost)})
	csvRows = append(csvRows, []string{"Disk", fmt.Sprintf("%.2f", c.DiskCost)})
	csvRows = append(csvRows, []string{"Allocated to powered-off VMs", fmt.Sprintf("%.2f", c.WastedOnPoweredOff)})
	csvRows = append(csvRows, []string{"Recoverable from findings", fmt.Sprintf("%.2f", c.RecoverableMonthly)})
	csvRows = append(csvRows, []string{""})

	if len(c.TopExpensiveVMs) > 0 {
		csvRows = append(csvRows, []string{"VM", "Source", "Power State", "vCPUs", "Memory (GB)", "Monthly Cost"})
		for _, vm := range c.TopExpensiveVMs {
			csvRows = append(csvRows, []string{
				vm.VM,
				vm.Source,
				string(vm.PowerState),
				fmt.Sprintf("%d", vm.CPUs),
				fmt.Sprintf("%.1f", vm.MemoryGB),
				fmt.Sprintf("%.2f", vm.Monthly)})
		}
		csvRows = append(csvRows, []string{""})
	}

	return csvRows
}

func (r *Renderer) addCapacity(csvRows [][]string, c analytics.Capacity) [][]string {
	csvRows = append(csvRows, []string{"CAPACITY PLANNING"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Resource", "Allocated", "Physical", "Overcommit"})
	csvRows = append(csvRows, []string{
		"CPU",
		fmt.Sprintf("%d vCPU", c.TotalVCPU),
		fmt.Sprintf("%d cores", c.TotalPhysicalCores),
		fmt.Sprintf("%.2f", c.CPUOvercommit)})
	csvRows = append(csvRows, []string{
		"Memory",
		fmt.Sprintf("%.1f GB", c.TotalAllocatedRAMGB),
		fmt.Sprintf("%.1f GB", c.TotalPhysicalRAMGB),
		fmt.Sprintf("%.2f", c.MemoryOvercommit)})
	csvRows = append(csvRows, []string{""})

	if len(c.HostPressure) > 0 {
		csvRows = append(csvRows, []string{"Host", "Cluster", "Source", "CPU Allocation %", "RAM Allocation %", "Pressure %"})
		for _, h := range c.HostPressure {
			csvRows = append(csvRows, []string{
				h.Host,
				h.Cluster,
				h.Source,
				fmt.Sprintf("%.1f", h.CPUUsagePct),
				fmt.Sprintf("%.1f", h.RAMUsagePct),
				fmt.Sprintf("%.1f", h.PressurePct)})
		}
		csvRows = append(csvRows, []string{""})
	}

	return csvRows
}

func (r *Renderer) addOperatingSystemDistribution(csvRows [][]string, shares []analytics.OSShare, totalVMs int) [][]string {
	csvRows = append(csvRows, []string{"OPERATING SYSTEM DISTRIBUTION"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Operating System", "VM Count", "Percentage", "End of Life"})

	for _, os := range shares {
		percentage := 0.0
		if totalVMs > 0 {
			percentage = float64(os.VMCount) / float64(totalVMs) * 100
		}
		eol := "No"
		if os.EOL {
			eol = "Yes"
		}
		csvRows = append(csvRows, []string{
			os.OS,
			fmt.Sprintf("%d", os.VMCount),
			fmt.Sprintf("%.1f%%", percentage),
			eol})
	}
	csvRows = append(csvRows, []string{""})

	return csvRows
}

func (r *Renderer) addFindings(csvRows [][]string, ranked []findings.Finding) [][]string {
	csvRows = append(csvRows, []string{"FINDINGS"})
	csvRows = append(csvRows, []string{""})

	if len(ranked) == 0 {
		csvRows = append(csvRows, []string{"No findings for the current inventory."})
		csvRows = append(csvRows, []string{""})
		return csvRows
	}

	csvRows = append(csvRows, []string{
		"Severity", "Type", "Target", "Reason", "Current", "Recommended",
		"Savings", "Resource", "Host", "Cluster", "Datacenter", "Source"})
	for _, f := range ranked {
		csvRows = append(csvRows, []string{
			string(f.Severity),
			string(f.Type),
			f.Target,
			f.Reason,
			f.Current,
			f.Recommended,
			fmt.Sprintf("%g", f.Savings),
			string(f.Resource),
			f.Host,
			f.Cluster,
			f.Datacenter,
			f.Source})
	}
	csvRows = append(csvRows, []string{""})

	return csvRows
}

func (r *Renderer) addDisasterRecovery(csvRows [][]string, a dr.Analysis) [][]string {
	csvRows = append(csvRows, []string{"DISASTER RECOVERY"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Metric", "Value"})
	csvRows = append(csvRows, []string{"Production VMs", fmt.Sprintf("%d", a.Summary.TotalProductionVMs)})
	csvRows = append(csvRows, []string{"Protected VMs", fmt.Sprintf("%d", a.Summary.ProtectedVMs)})
	csvRows = append(csvRows, []string{"Replication Coverage", fmt.Sprintf("%.1f%%", a.Summary.ReplicationCoverage)})
	csvRows = append(csvRows, []string{"Unmatched Replicas", fmt.Sprintf("%d", a.Summary.UnmatchedReplicas)})
	csvRows = append(csvRows, []string{"DR Sites (feasible)", fmt.Sprintf("%d (%d)", a.Summary.DRSiteCount, a.Summary.FeasibleDRSiteCount)})
	csvRows = append(csvRows, []string{""})

	if len(a.Sites) > 0 {
		csvRows = append(csvRows, []string{"DR Site", "Hosts", "Replicated VMs", "CPU Ratio %", "Memory Ratio %", "Readiness", "Feasible"})
		for _, s := range a.Sites {
			csvRows = append(csvRows, []string{
				s.Datacenter,
				fmt.Sprintf("%d", s.HostCount),
				fmt.Sprintf("%d", s.ReplicatedVMCount),
				fmt.Sprintf("%.1f", s.CPUCapacityRatio),
				fmt.Sprintf("%.1f", s.MemCapacityRatio),
				fmt.Sprintf("%.1f", s.ReadinessScore),
				yesNo(s.FailoverFeasible)})
		}
		csvRows = append(csvRows, []string{""})
	}

	if len(a.Pairs) > 0 {
		csvRows = append(csvRows, []string{"Production VM", "Production DC", "Replica VM", "Replica DC", "vCPU", "Memory (GB)", "Disk (GB)"})
		for _, p := range a.Pairs {
			csvRows = append(csvRows, []string{
				p.ProductionVM,
				p.ProductionDC,
				p.ReplicaVM,
				p.ReplicaDC,
				fmt.Sprintf("%d", p.VCPU),
				fmt.Sprintf("%.1f", p.MemoryGB),
				fmt.Sprintf("%.1f", p.DiskGB)})
		}
		csvRows = append(csvRows, []string{""})
	}

	if len(a.Unprotected) > 0 {
		csvRows = append(csvRows, []string{"Unprotected VM", "Datacenter", "Cluster", "vCPU", "Memory (GB)", "Disk (GB)", "Score"})
		for _, u := range a.Unprotected {
			csvRows = append(csvRows, []string{
				u.VM,
				u.Datacenter,
				u.Cluster,
				fmt.Sprintf("%d", u.VCPU),
				fmt.Sprintf("%.1f", u.MemoryGB),
				fmt.Sprintf("%.1f", u.DiskGB),
				fmt.Sprintf("%.1f", u.Score)})
		}
		csvRows = append(csvRows, []string{""})
	}

	return csvRows
}

func (r *Renderer) addDiskWaste(csvRows [][]string, w analytics.DiskWaste) [][]string {
	csvRows = append(csvRows, []string{"THICK PROVISIONED DISK WASTE"})
	csvRows = append(csvRows, []string{""})
	csvRows = append(csvRows, []string{"Total Estimated Waste (GB)", fmt.Sprintf("%.1f", w.TotalWastedGB)})

	if len(w.Disks) > 0 {
		csvRows = append(csvRows, []string{"VM", "Disk", "Type", "Capacity (GB)", "Estimated Waste (GB)", "Source"})
		for _, d := range w.Disks {
			csvRows = append(csvRows, []string{
				d.VM,
				d.Disk,
				string(d.Type),
				fmt.Sprintf("%.1f", d.CapacityGB),
				fmt.Sprintf("%.1f", d.EstimatedWasteGB),
				d.Source})
		}
	}
	csvRows = append(csvRows, []string{""})

	return csvRows
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (r *Renderer) convertRowsToCSV(csvRows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	for _, row := range csvRows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV writer: %w", err)
	}

	return buf.Bytes(), nil
}
