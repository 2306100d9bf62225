package html

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/kubev2v/inventory-advisor/internal/analytics"
	"github.com/kubev2v/inventory-advisor/internal/dr"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/service/report/types"
)

// maxChartSlices bounds the OS doughnut; the table below it lists everything.
const maxChartSlices = 8

type Renderer struct {
	tmpl      *template.Template
	emptyTmpl *template.Template
}

type sourceRow struct {
	Name   string
	Tables int
	Rows   int
}

type componentRow struct {
	Name     string
	Score    int
	Max      int
	Measured string
}

type osRow struct {
	analytics.OSShare
	Percentage float64
}

type reportTemplateData struct {
	CSS           template.CSS
	GeneratedDate string
	GeneratedTime string
	Epoch         uint64

	Executive  types.ExecutiveMetrics
	Sources    []sourceRow
	Efficiency analytics.Efficiency
	Components []componentRow
	Cost       analytics.Cost
	Capacity   analytics.Capacity
	OS         []osRow
	DiskWaste  analytics.DiskWaste
	Findings   []findings.Finding
	Summary    []severityCount
	DR         dr.Analysis

	PowerLabels []string
	PowerValues []int
	OSLabels    []string
	OSValues    []int
	SevLabels   []string
	SevValues   []int
}

type severityCount struct {
	Severity findings.Severity
	Count    int
}

type emptyReportTemplateData struct {
	CSS           template.CSS
	GeneratedDate string
	GeneratedTime string
}

func NewRenderer() *Renderer {
	funcs := template.FuncMap{
		"severityClass": severityClass,
		"yesNo": func(b bool) string {
			if b {
				return "Yes"
			}
			return "No"
		},
	}
	return &Renderer{
		tmpl:      template.Must(template.New("report").Funcs(funcs).Parse(htmlReportTemplate)),
		emptyTmpl: template.Must(template.New("empty").Parse(emptyReportTemplate)),
	}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatHTML
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

func (r *Renderer) Render(data *types.ReportData) ([]byte, error) {
	if data.Empty() {
		return r.execute(r.emptyTmpl, emptyReportTemplateData{
			CSS:           template.CSS(reportCSS),
			GeneratedDate: data.Timestamps.Generated,
			GeneratedTime: data.Timestamps.GeneratedTime,
		})
	}

	td := reportTemplateData{
		CSS:           template.CSS(reportCSS),
		GeneratedDate: data.Timestamps.Generated,
		GeneratedTime: data.Timestamps.GeneratedTime,
		Epoch:         data.Epoch,
		Executive:     data.Executive,
		Efficiency:    data.Efficiency,
		Components:    r.components(data.Efficiency),
		Cost:          data.Cost,
		Capacity:      data.Capacity,
		DiskWaste:     data.DiskWaste,
		Findings:      data.Findings,
		DR:            data.DR,
		PowerLabels:   []string{"Powered On", "Powered Off", "Templates"},
		PowerValues:   []int{data.Executive.PoweredOn, data.Executive.PoweredOff, data.Executive.Templates},
	}

	for _, src := range data.Sources {
		row := sourceRow{Name: src.Name, Tables: len(src.Tables)}
		for _, n := range src.Tables {
			row.Rows += n
		}
		td.Sources = append(td.Sources, row)
	}

	for i, share := range data.OS {
		pct := 0.0
		if data.Executive.TotalVMs > 0 {
			pct = float64(share.VMCount) / float64(data.Executive.TotalVMs) * 100
		}
		td.OS = append(td.OS, osRow{OSShare: share, Percentage: pct})
		if i < maxChartSlices {
			td.OSLabels = append(td.OSLabels, share.OS)
			td.OSValues = append(td.OSValues, share.VMCount)
		}
	}

	for _, sev := range findings.Severities() {
		n := data.Summary.BySeverity[sev]
		td.Summary = append(td.Summary, severityCount{Severity: sev, Count: n})
		td.SevLabels = append(td.SevLabels, string(sev))
		td.SevValues = append(td.SevValues, n)
	}

	return r.execute(r.tmpl, td)
}

func (r *Renderer) components(e analytics.Efficiency) []componentRow {
	return []componentRow{
		{"Powered-on ratio", e.PowerOn.Score, e.PowerOn.Max, fmt.Sprintf("%.1f%%", e.PowerOn.Value)},
		{"Snapshot hygiene", e.Snapshots.Score, e.Snapshots.Max, fmt.Sprintf("%.1f%% VMs with old snapshots", e.Snapshots.Value)},
		{"Thin provisioning", e.ThinDisks.Score, e.ThinDisks.Max, fmt.Sprintf("%.1f%% thin disks", e.ThinDisks.Value)},
		{"Reservations", e.Reservation.Score, e.Reservation.Max, fmt.Sprintf("%.1f%% VMs with reservations", e.Reservation.Value)},
		{"VM density", e.Density.Score, e.Density.Max, fmt.Sprintf("%.1f VMs per host", e.Density.Value)},
	}
}

func (r *Renderer) execute(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute HTML template: %w", err)
	}
	return buf.Bytes(), nil
}

func severityClass(s findings.Severity) string {
	switch s {
	case findings.SeverityCritical:
		return "sev-critical"
	case findings.SeverityHigh:
		return "sev-high"
	case findings.SeverityMedium:
		return "sev-medium"
	default:
		return "sev-low"
	}
}

const reportCSS = `
        body { font-family: Arial, sans-serif; margin: 20px; background: #f5f5f5; }
        .container { max-width: 1200px; margin: 0 auto; background: white; padding: 30px; border-radius: 10px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        .header { text-align: center; margin-bottom: 40px; }
        .header h1 { color: #2c3e50; margin-bottom: 10px; font-size: 2.2em; }
        .header p { color: #7f8c8d; }
        .summary-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 20px; margin: 30px 0; }
        .summary-card { background: #3498db; color: white; padding: 20px; border-radius: 8px; text-align: center; }
        .summary-card h4 { margin: 0 0 10px 0; font-size: 14px; }
        .summary-card .number { font-size: 30px; font-weight: bold; }
        .chart-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(340px, 1fr)); gap: 30px; margin: 30px 0; }
        .chart-container { padding: 20px; border-radius: 8px; border: 1px solid #ddd; }
        .chart-container h3 { text-align: center; color: #2c3e50; }
        .chart-wrapper { position: relative; height: 280px; }
        .section { margin: 40px 0; }
        .section h2 { color: #2c3e50; border-left: 4px solid #3498db; padding-left: 15px; }
        table { width: 100%; border-collapse: collapse; margin: 20px 0; }
        th, td { padding: 10px 12px; text-align: left; border-bottom: 1px solid #ddd; font-size: 14px; }
        th { background: #2c3e50; color: white; }
        tr:nth-child(even) { background-color: #f8f9fa; }
        .sev-critical { background-color: #c0392b; color: white; }
        .sev-high { background-color: #e67e22; color: white; }
        .sev-medium { background-color: #f1c40f; }
        .sev-low { background-color: #27ae60; color: white; }
        .grade { font-size: 1.4em; font-weight: bold; }
        .notice { background: #fff3cd; border-left: 4px solid #f39c12; padding: 20px; border-radius: 0 8px 8px 0; }
        .footer { text-align: center; margin-top: 40px; color: #7f8c8d; border-top: 1px solid #eee; padding-top: 20px; }
        @media print { body { background: white; } .container { box-shadow: none; } .chart-container { break-inside: avoid; } }`

const htmlReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Inventory Advisory Report</title>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/Chart.js/3.9.1/chart.min.js"></script>
    <style>{{.CSS}}</style>
</head>
<body>
<div class="container">
    <div class="header">
        <h1>Inventory Advisory Report</h1>
        <p>Generated: {{.GeneratedDate}} at {{.GeneratedTime}} (snapshot epoch {{.Epoch}})</p>
    </div>

    <div class="summary-grid">
        <div class="summary-card"><h4>Virtual Machines</h4><div class="number">{{.Executive.TotalVMs}}</div></div>
        <div class="summary-card" style="background: #8e44ad;"><h4>ESXi Hosts</h4><div class="number">{{.Executive.TotalHosts}}</div></div>
        <div class="summary-card" style="background: #27ae60;"><h4>Clusters</h4><div class="number">{{.Executive.TotalClusters}}</div></div>
        <div class="summary-card" style="background: #c0392b;"><h4>Critical Findings</h4><div class="number">{{.Executive.CriticalFindings}}</div></div>
        <div class="summary-card" style="background: #e67e22;"><h4>High Findings</h4><div class="number">{{.Executive.HighFindings}}</div></div>
    </div>

    <div class="chart-grid">
        <div class="chart-container"><h3>Power States</h3><div class="chart-wrapper"><canvas id="powerChart"></canvas></div></div>
        <div class="chart-container"><h3>Operating Systems</h3><div class="chart-wrapper"><canvas id="osChart"></canvas></div></div>
        <div class="chart-container"><h3>Findings by Severity</h3><div class="chart-wrapper"><canvas id="severityChart"></canvas></div></div>
    </div>

    <div class="section">
        <h2>Ingested Sources</h2>
        <table>
            <thead><tr><th>Source</th><th>Tables</th><th>Rows</th></tr></thead>
            <tbody>
            {{range .Sources}}<tr><td><strong>{{.Name}}</strong></td><td>{{.Tables}}</td><td>{{.Rows}}</td></tr>
            {{end}}
            </tbody>
        </table>
    </div>

    <div class="section">
        <h2>Efficiency Score</h2>
        <p><span class="grade">{{.Efficiency.Score}}/100</span> {{.Efficiency.Grade}}</p>
        <table>
            <thead><tr><th>Component</th><th>Score</th><th>Measured</th></tr></thead>
            <tbody>
            {{range .Components}}<tr><td>{{.Name}}</td><td>{{.Score}}/{{.Max}}</td><td>{{.Measured}}</td></tr>
            {{end}}
            </tbody>
        </table>
    </div>

    <div class="section">
        <h2>Monthly Cost Estimate</h2>
        <table>
            <thead><tr><th>Item</th><th>Amount (USD)</th></tr></thead>
            <tbody>
                <tr><td><strong>Total</strong></td><td>{{printf "%.2f" .Cost.TotalMonthly}}</td></tr>
                <tr><td>CPU</td><td>{{printf "%.2f" .Cost.CPUCost}}</td></tr>
                <tr><td>Memory</td><td>{{printf "%.2f" .Cost.RAMCost}}</td></tr>
                <tr><td>Disk</td><td>{{printf "%.2f" .Cost.DiskCost}}</td></tr>
                <tr><td>Allocated to powered-off VMs</td><td>{{printf "%.2f" .Cost.WastedOnPoweredOff}}</td></tr>
                <tr><td>Recoverable from findings</td><td>{{printf "%.2f" .Cost.RecoverableMonthly}}</td></tr>
            </tbody>
        </table>
        {{if .Cost.TopExpensiveVMs}}
        <table>
            <thead><tr><th>VM</th><th>Source</th><th>Power State</th><th>vCPUs</th><th>Memory (GB)</th><th>Monthly</th></tr></thead>
            <tbody>
            {{range .Cost.TopExpensiveVMs}}<tr><td>{{.VM}}</td><td>{{.Source}}</td><td>{{.PowerState}}</td><td>{{.CPUs}}</td><td>{{printf "%.1f" .MemoryGB}}</td><td>{{printf "%.2f" .Monthly}}</td></tr>
            {{end}}
            </tbody>
        </table>
        {{end}}
    </div>

    <div class="section">
        <h2>Capacity Planning</h2>
        <table>
            <thead><tr><th>Resource</th><th>Allocated</th><th>Physical</th><th>Overcommit</th></tr></thead>
            <tbody>
                <tr><td>CPU</td><td>{{.Capacity.TotalVCPU}} vCPU</td><td>{{.Capacity.TotalPhysicalCores}} cores</td><td>{{printf "%.2f" .Capacity.CPUOvercommit}}</td></tr>
                <tr><td>Memory</td><td>{{printf "%.1f" .Capacity.TotalAllocatedRAMGB}} GB</td><td>{{printf "%.1f" .Capacity.TotalPhysicalRAMGB}} GB</td><td>{{printf "%.2f" .Capacity.MemoryOvercommit}}</td></tr>
            </tbody>
        </table>
        {{if .Capacity.HostPressure}}
        <table>
            <thead><tr><th>Host</th><th>Cluster</th><th>Source</th><th>CPU %</th><th>RAM %</th><th>Pressure %</th></tr></thead>
            <tbody>
            {{range .Capacity.HostPressure}}<tr><td>{{.Host}}</td><td>{{.Cluster}}</td><td>{{.Source}}</td><td>{{printf "%.1f" .CPUUsagePct}}</td><td>{{printf "%.1f" .RAMUsagePct}}</td><td>{{printf "%.1f" .PressurePct}}</td></tr>
            {{end}}
            </tbody>
        </table>
        {{end}}
    </div>

    <div class="section">
        <h2>Operating System Distribution</h2>
        <table>
            <thead><tr><th>Operating System</th><th>VM Count</th><th>Percentage</th><th>End of Life</th></tr></thead>
            <tbody>
            {{range .OS}}<tr><td><strong>{{.OS}}</strong></td><td>{{.VMCount}}</td><td>{{printf "%.1f" .Percentage}}%</td><td>{{yesNo .EOL}}</td></tr>
            {{else}}<tr><td colspan="4">No operating system data available</td></tr>
            {{end}}
            </tbody>
        </table>
    </div>

    <div class="section">
        <h2>Findings</h2>
        <table>
            <thead><tr><th>Severity</th><th>Count</th></tr></thead>
            <tbody>
            {{range .Summary}}<tr><td class="{{severityClass .Severity}}">{{.Severity}}</td><td>{{.Count}}</td></tr>
            {{end}}
            </tbody>
        </table>
        <table>
            <thead><tr><th>Severity</th><th>Type</th><th>Target</th><th>Reason</th><th>Current</th><th>Recommended</th><th>Savings</th><th>Cluster</th><th>Source</th></tr></thead>
            <tbody>
            {{range .Findings}}<tr><td class="{{severityClass .Severity}}">{{.Severity}}</td><td>{{.Type}}</td><td>{{.Target}}</td><td>{{.Reason}}</td><td>{{.Current}}</td><td>{{.Recommended}}</td><td>{{.Savings}} {{.Resource}}</td><td>{{.Cluster}}</td><td>{{.Source}}</td></tr>
            {{else}}<tr><td colspan="9">No findings for the current inventory.</td></tr>
            {{end}}
            </tbody>
        </table>
    </div>

    {{with .DR}}
    <div class="section">
        <h2>Disaster Recovery</h2>
        <p>{{.Summary.ProtectedVMs}} of {{.Summary.TotalProductionVMs}} production VMs protected ({{printf "%.1f" .Summary.ReplicationCoverage}}%), {{.Summary.UnmatchedReplicas}} unmatched replicas.</p>
        {{if .Sites}}
        <table>
            <thead><tr><th>DR Site</th><th>Hosts</th><th>Replicated VMs</th><th>CPU Ratio %</th><th>Memory Ratio %</th><th>Readiness</th><th>Feasible</th></tr></thead>
            <tbody>
            {{range .Sites}}<tr><td>{{.Datacenter}}</td><td>{{.HostCount}}</td><td>{{.ReplicatedVMCount}}</td><td>{{printf "%.1f" .CPUCapacityRatio}}</td><td>{{printf "%.1f" .MemCapacityRatio}}</td><td>{{printf "%.1f" .ReadinessScore}}</td><td>{{yesNo .FailoverFeasible}}</td></tr>
            {{end}}
            </tbody>
        </table>
        {{end}}
        {{if .Unprotected}}
        <h3>Unprotected VMs</h3>
        <table>
            <thead><tr><th>VM</th><th>Datacenter</th><th>Cluster</th><th>vCPU</th><th>Memory (GB)</th><th>Score</th></tr></thead>
            <tbody>
            {{range .Unprotected}}<tr><td>{{.VM}}</td><td>{{.Datacenter}}</td><td>{{.Cluster}}</td><td>{{.VCPU}}</td><td>{{printf "%.1f" .MemoryGB}}</td><td>{{printf "%.1f" .Score}}</td></tr>
            {{end}}
            </tbody>
        </table>
        {{end}}
    </div>
    {{end}}

    {{if .DiskWaste.Disks}}
    <div class="section">
        <h2>Thick Provisioned Disk Waste</h2>
        <p>Estimated waste: {{printf "%.1f" .DiskWaste.TotalWastedGB}} GB across {{.DiskWaste.DiskCount}} disks.</p>
        <table>
            <thead><tr><th>VM</th><th>Disk</th><th>Type</th><th>Capacity (GB)</th><th>Waste (GB)</th></tr></thead>
            <tbody>
            {{range .DiskWaste.Disks}}<tr><td>{{.VM}}</td><td>{{.Disk}}</td><td>{{.Type}}</td><td>{{printf "%.1f" .CapacityGB}}</td><td>{{printf "%.1f" .EstimatedWasteGB}}</td></tr>
            {{end}}
            </tbody>
        </table>
    </div>
    {{end}}

    <div class="footer">
        <p>Inventory Advisory Report</p>
    </div>
</div>
<script>
    const palette = ['#3498db', '#e74c3c', '#27ae60', '#f39c12', '#8e44ad', '#16a085', '#d35400', '#7f8c8d'];
    function doughnut(id, labels, values) {
        new Chart(document.getElementById(id), {
            type: 'doughnut',
            data: { labels: labels, datasets: [{ data: values, backgroundColor: palette }] },
            options: { responsive: true, maintainAspectRatio: false }
        });
    }
    doughnut('powerChart', {{.PowerLabels}}, {{.PowerValues}});
    doughnut('osChart', {{.OSLabels}}, {{.OSValues}});
    new Chart(document.getElementById('severityChart'), {
        type: 'bar',
        data: { labels: {{.SevLabels}}, datasets: [{ label: 'Findings', data: {{.SevValues}}, backgroundColor: ['#c0392b', '#e67e22', '#f1c40f', '#27ae60'] }] },
        options: { responsive: true, maintainAspectRatio: false, plugins: { legend: { display: false } } }
    });
</script>
</body>
</html>`

const emptyReportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Inventory Advisory Report</title>
    <style>{{.CSS}}</style>
</head>
<body>
<div class="container">
    <div class="header">
        <h1>Inventory Advisory Report</h1>
        <p>Generated: {{.GeneratedDate}} at {{.GeneratedTime}}</p>
    </div>
    <div class="notice">
        <h3>No inventory data available</h3>
        <p>Upload RVTools workbooks to populate the inventory, then generate the report again.</p>
    </div>
</div>
</body>
</html>`
