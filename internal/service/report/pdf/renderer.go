package pdf

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/service/report/types"
)

var (
	colorPrimary     = [3]int{30, 58, 95}
	colorAccent      = [3]int{46, 204, 113}
	colorWarning     = [3]int{230, 126, 34}
	colorDanger      = [3]int{192, 57, 43}
	colorTextDark    = [3]int{44, 62, 80}
	colorTextMuted   = [3]int{127, 140, 141}
	colorBackground  = [3]int{248, 249, 250}
	colorTableHeader = [3]int{30, 58, 95}
	colorTableAlt    = [3]int{241, 245, 249}
	colorGridLine    = [3]int{220, 220, 220}
)

const (
	reportTitle = "INVENTORY ADVISORY REPORT"
	// content width of an A4 page with 20mm margins
	contentWidth = 170.0
	// rows below this Y start a new page and repeat the table header
	tableBreakY = 260.0
)

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) SupportedFormat() types.ReportFormat {
	return types.ReportFormatPDF
}

func (r *Renderer) ContentType() string {
	return "application/pdf"
}

type document struct {
	pdf  *fpdf.Fpdf
	tr   func(string) string
	data *types.ReportData
}

type table struct {
	title   string
	headers []string
	widths  []float64
	rows    [][]string
	// optional color for the first cell of a row
	lead func(row int) *[3]int
}

func (r *Renderer) Render(data *types.ReportData) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.SetTitle("Inventory Advisory Report", true)

	d := &document{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), data: data}

	d.writeCoverPage()

	if data.Empty() {
		pdf.AddPage()
		d.addPageHeader("No Inventory Data")
		d.paragraph("No inventory data available. Upload RVTools workbooks to populate the inventory, then generate the report again.")
	} else {
		pdf.AddPage()
		d.addPageHeader("Executive Summary")
		d.writeExecutiveSummary()
		d.writeSources()

		pdf.AddPage()
		d.addPageHeader("Efficiency and Cost")
		d.writeEfficiency()
		d.writeCost()

		pdf.AddPage()
		d.addPageHeader("Capacity")
		d.writeCapacity()
		d.writeOperatingSystems()

		pdf.AddPage()
		d.addPageHeader("Findings")
		d.writeFindings()

		pdf.AddPage()
		d.addPageHeader("Disaster Recovery")
		d.writeDisasterRecovery()

		if len(data.DiskWaste.Disks) > 0 {
			pdf.AddPage()
			d.addPageHeader("Disk Waste")
			d.writeDiskWaste()
		}
	}

	d.addPageNumbers()

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("PDF generation error: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output error: %w", err)
	}

	return buf.Bytes(), nil
}

func (d *document) setText(c [3]int) {
	d.pdf.SetTextColor(c[0], c[1], c[2])
}

func (d *document) setFill(c [3]int) {
	d.pdf.SetFillColor(c[0], c[1], c[2])
}

func (d *document) writeCoverPage() {
	pdf := d.pdf
	pdf.AddPage()

	pageWidth, pageHeight := pdf.GetPageSize()

	d.setFill(colorPrimary)
	pdf.Rect(0, 0, pageWidth, 8, "F")

	pdf.SetY(60)
	pdf.SetFont("Arial", "B", 28)
	d.setText(colorTextDark)
	pdf.CellFormat(0, 12, "Inventory Advisory Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 12)
	d.setText(colorTextMuted)
	pdf.CellFormat(0, 8, "VMware estate analysis from RVTools exports", "", 1, "C", false, 0, "")

	pdf.SetY(110)
	boxX := 40.0
	boxWidth := pageWidth - 80
	d.setFill(colorBackground)
	pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
	pdf.RoundedRect(boxX, pdf.GetY(), boxWidth, 50, 3, "1234", "FD")

	pdf.SetY(pdf.GetY() + 10)
	pdf.SetFont("Arial", "B", 11)
	d.setText(colorTextMuted)
	pdf.CellFormat(0, 7, "SOURCES", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 16)
	d.setText(colorTextDark)
	pdf.CellFormat(0, 10, fmt.Sprintf("%d ingested", len(d.data.Sources)), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	d.setText(colorTextMuted)
	pdf.CellFormat(0, 7, fmt.Sprintf("%d virtual machines", d.data.Executive.TotalVMs), "", 1, "C", false, 0, "")

	pdf.SetY(pageHeight - 50)
	pdf.SetFont("Arial", "", 10)
	d.setText(colorTextMuted)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s at %s", d.data.Timestamps.Generated, d.data.Timestamps.GeneratedTime), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Snapshot epoch: %d", d.data.Epoch), "", 1, "C", false, 0, "")

	d.setFill(colorPrimary)
	pdf.Rect(0, pageHeight-8, pageWidth, 8, "F")
}

func (d *document) addPageHeader(section string) {
	pdf := d.pdf
	pageWidth, _ := pdf.GetPageSize()

	pdf.SetDrawColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetLineWidth(0.5)
	pdf.Line(20, 15, pageWidth-20, 15)

	pdf.SetY(18)
	pdf.SetFont("Arial", "B", 9)
	d.setText(colorPrimary)
	pdf.CellFormat(0, 5, reportTitle, "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	d.setText(colorTextMuted)
	pdf.CellFormat(0, 5, d.data.Timestamps.Generated, "", 1, "R", false, 0, "")

	pdf.SetY(30)
	pdf.SetFont("Arial", "B", 18)
	d.setText(colorTextDark)
	pdf.CellFormat(0, 10, section, "", 1, "L", false, 0, "")

	pdf.Ln(5)
}

func (d *document) subtitle(text string) {
	d.pdf.SetFont("Arial", "B", 12)
	d.setText(colorTextDark)
	d.pdf.CellFormat(0, 8, d.tr(text), "", 1, "L", false, 0, "")
	d.pdf.Ln(2)
}

func (d *document) paragraph(text string) {
	d.pdf.SetFont("Arial", "", 10)
	d.setText(colorTextDark)
	d.pdf.MultiCell(0, 6, d.tr(text), "", "L", false)
	d.pdf.Ln(4)
}

func (d *document) writeTableHeader(t table) {
	pdf := d.pdf
	d.setFill(colorTableHeader)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Arial", "B", 8)
	for i, h := range t.headers {
		pdf.CellFormat(t.widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 8)
}

func (d *document) writeTable(t table) {
	pdf := d.pdf
	if t.title != "" {
		d.subtitle(t.title)
	}
	d.writeTableHeader(t)

	fill := false
	for i, row := range t.rows {
		if pdf.GetY() > tableBreakY {
			pdf.AddPage()
			pdf.SetY(25)
			d.writeTableHeader(t)
		}
		if fill {
			d.setFill(colorTableAlt)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		for j, cell := range row {
			d.setText(colorTextDark)
			if j == 0 && t.lead != nil {
				if c := t.lead(i); c != nil {
					d.setText(*c)
				}
			}
			align := "L"
			if j > 0 {
				align = "C"
			}
			pdf.CellFormat(t.widths[j], 6, truncate(d.tr(cell), t.widths[j]), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}
	pdf.Ln(8)
}

// truncate keeps a cell inside its column at the 8pt table font.
func truncate(s string, width float64) string {
	limit := int(width / 1.6)
	if limit < 4 || len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}

func (d *document) writeExecutiveSummary() {
	pdf := d.pdf
	m := d.data.Executive

	cards := []struct {
		label string
		value string
		color [3]int
	}{
		{"VMs", fmt.Sprintf("%d", m.TotalVMs), colorPrimary},
		{"Hosts", fmt.Sprintf("%d", m.TotalHosts), colorPrimary},
		{"Critical", fmt.Sprintf("%d", m.CriticalFindings), colorDanger},
		{"High", fmt.Sprintf("%d", m.HighFindings), colorWarning},
	}

	cardWidth := (contentWidth - 15) / float64(len(cards))
	y := pdf.GetY()
	for i, c := range cards {
		x := 20 + float64(i)*(cardWidth+5)
		d.setFill(colorBackground)
		pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
		pdf.RoundedRect(x, y, cardWidth, 22, 2, "1234", "FD")

		pdf.SetXY(x, y+3)
		pdf.SetFont("Arial", "B", 16)
		d.setText(c.color)
		pdf.CellFormat(cardWidth, 9, c.value, "", 2, "C", false, 0, "")
		pdf.SetFont("Arial", "", 8)
		d.setText(colorTextMuted)
		pdf.CellFormat(cardWidth, 5, c.label, "", 0, "C", false, 0, "")
	}
	pdf.SetXY(20, y+30)

	d.writeTable(table{
		headers: []string{"Metric", "Value"},
		widths:  []float64{100, 70},
		rows: [][]string{
			{"Powered on / off / templates", fmt.Sprintf("%d / %d / %d", m.PoweredOn, m.PoweredOff, m.Templates)},
			{"Clusters / datacenters", fmt.Sprintf("%d / %d", m.TotalClusters, m.TotalDatacenters)},
			{"Allocated vCPUs", fmt.Sprintf("%d", m.TotalVCPU)},
			{"Allocated memory (GB)", fmt.Sprintf("%.1f", m.TotalMemoryGB)},
			{"Provisioned disk (GB)", fmt.Sprintf("%.1f", m.TotalDiskGB)},
			{"Snapshots (old)", fmt.Sprintf("%d (%d)", m.Snapshots, m.OldSnapshots)},
		},
	})
}

func (d *document) writeSources() {
	t := table{
		title:   "Ingested Sources",
		headers: []string{"Source", "Tables", "Rows"},
		widths:  []float64{90, 40, 40},
	}
	for _, src := range d.data.Sources {
		rows := 0
		for _, n := range src.Tables {
			rows += n
		}
		t.rows = append(t.rows, []string{src.Name, fmt.Sprintf("%d", len(src.Tables)), fmt.Sprintf("%d", rows)})
	}
	d.writeTable(t)
}

func (d *document) writeEfficiency() {
	e := d.data.Efficiency
	d.paragraph(fmt.Sprintf("Efficiency score: %d/100 (%s)", e.Score, e.Grade))
	d.writeTable(table{
		headers: []string{"Component", "Score", "Measured"},
		widths:  []float64{70, 30, 70},
		rows: [][]string{
			{"Powered-on ratio", fmt.Sprintf("%d/%d", e.PowerOn.Score, e.PowerOn.Max), fmt.Sprintf("%.1f%%", e.PowerOn.Value)},
			{"Snapshot hygiene", fmt.Sprintf("%d/%d", e.Snapshots.Score, e.Snapshots.Max), fmt.Sprintf("%.1f%% with old snapshots", e.Snapshots.Value)},
			{"Thin provisioning", fmt.Sprintf("%d/%d", e.ThinDisks.Score, e.ThinDisks.Max), fmt.Sprintf("%.1f%% thin", e.ThinDisks.Value)},
			{"Reservations", fmt.Sprintf("%d/%d", e.Reservation.Score, e.Reservation.Max), fmt.Sprintf("%.1f%% reserved", e.Reservation.Value)},
			{"VM density", fmt.Sprintf("%d/%d", e.Density.Score, e.Density.Max), fmt.Sprintf("%.1f VMs per host", e.Density.Value)},
		},
	})
}

func (d *document) writeCost() {
	c := d.data.Cost
	d.writeTable(table{
		title:   "Monthly Cost Estimate (USD)",
		headers: []string{"Item", "Amount"},
		widths:  []float64{100, 70},
		rows: [][]string{
			{"Total", fmt.Sprintf("%.2f", c.TotalMonthly)},
			{"CPU", fmt.Sprintf("%.2f", c.CPUCost)},
			{"Memory", fmt.Sprintf("%.2f", c.RAMCost)},
			{"Disk", fmt.Sprintf("%.2f", c.DiskCost)},
			{"Allocated to powered-off VMs", fmt.Sprintf("%.2f", c.WastedOnPoweredOff)},
			{"Recoverable from findings", fmt.Sprintf("%.2f", c.RecoverableMonthly)},
		},
	})

	if len(c.TopExpensiveVMs) == 0 {
		return
	}
	t := table{
		title:   "Most Expensive VMs",
		headers: []string{"VM", "Source", "vCPUs", "Memory (GB)", "Monthly"},
		widths:  []float64{60, 40, 20, 25, 25},
	}
	for _, vm := range c.TopExpensiveVMs {
		t.rows = append(t.rows, []string{vm.VM, vm.Source, fmt.Sprintf("%d", vm.CPUs), fmt.Sprintf("%.1f", vm.MemoryGB), fmt.Sprintf("%.2f", vm.Monthly)})
	}
	d.writeTable(t)
}

func (d *document) writeCapacity() {
	c := d.data.Capacity
	d.writeTable(table{
		headers: []string{"Resource", "Allocated", "Physical", "Overcommit"},
		widths:  []float64{40, 45, 45, 40},
		rows: [][]string{
			{"CPU", fmt.Sprintf("%d vCPU", c.TotalVCPU), fmt.Sprintf("%d cores", c.TotalPhysicalCores), fmt.Sprintf("%.2f", c.CPUOvercommit)},
			{"Memory", fmt.Sprintf("%.1f GB", c.TotalAllocatedRAMGB), fmt.Sprintf("%.1f GB", c.TotalPhysicalRAMGB), fmt.Sprintf("%.2f", c.MemoryOvercommit)},
		},
	})

	if len(c.HostPressure) == 0 {
		return
	}
	t := table{
		title:   "Host Pressure",
		headers: []string{"Host", "Cluster", "CPU %", "RAM %", "Pressure %"},
		widths:  []float64{55, 45, 20, 20, 30},
	}
	for _, h := range c.HostPressure {
		t.rows = append(t.rows, []string{h.Host, h.Cluster,
			fmt.Sprintf("%.1f", h.CPUUsagePct), fmt.Sprintf("%.1f", h.RAMUsagePct), fmt.Sprintf("%.1f", h.PressurePct)})
	}
	d.writeTable(t)
}

func (d *document) writeOperatingSystems() {
	if len(d.data.OS) == 0 {
		return
	}
	t := table{
		title:   "Operating System Distribution",
		headers: []string{"Operating System", "VMs", "vCPUs", "EOL"},
		widths:  []float64{100, 25, 25, 20},
	}
	for _, os := range d.data.OS {
		eol := "No"
		if os.EOL {
			eol = "Yes"
		}
		t.rows = append(t.rows, []string{os.OS, fmt.Sprintf("%d", os.VMCount), fmt.Sprintf("%d", os.TotalCPUs), eol})
	}
	d.writeTable(t)
}

func (d *document) writeFindings() {
	ranked := d.data.Findings
	if len(ranked) == 0 {
		d.paragraph("No findings for the current inventory.")
		return
	}

	summary := table{
		headers: []string{"Severity", "Findings"},
		widths:  []float64{85, 85},
	}
	sevs := findings.Severities()
	for _, sev := range sevs {
		summary.rows = append(summary.rows, []string{string(sev), fmt.Sprintf("%d", d.data.Summary.BySeverity[sev])})
	}
	summary.lead = func(row int) *[3]int { return severityColor(sevs[row]) }
	d.writeTable(summary)

	t := table{
		title:   "Ranked Findings",
		headers: []string{"Severity", "Type", "Target", "Recommended", "Savings"},
		widths:  []float64{20, 42, 48, 40, 20},
		lead:    func(row int) *[3]int { return severityColor(ranked[row].Severity) },
	}
	for _, f := range ranked {
		t.rows = append(t.rows, []string{string(f.Severity), string(f.Type), f.Target, f.Recommended, fmt.Sprintf("%g", f.Savings)})
	}
	d.writeTable(t)
}

func severityColor(s findings.Severity) *[3]int {
	switch s {
	case findings.SeverityCritical:
		return &colorDanger
	case findings.SeverityHigh:
		return &colorWarning
	case findings.SeverityLow:
		return &colorAccent
	default:
		return nil
	}
}

func (d *document) writeDisasterRecovery() {
	a := d.data.DR
	d.paragraph(fmt.Sprintf("%d of %d production VMs are protected (%.1f%% coverage). %d replicas could not be matched. %d of %d DR sites can absorb a failover.",
		a.Summary.ProtectedVMs, a.Summary.TotalProductionVMs, a.Summary.ReplicationCoverage,
		a.Summary.UnmatchedReplicas, a.Summary.FeasibleDRSiteCount, a.Summary.DRSiteCount))

	if len(a.Sites) > 0 {
		t := table{
			title:   "DR Sites",
			headers: []string{"Site", "Hosts", "Replicas", "CPU %", "RAM %", "Readiness"},
			widths:  []float64{50, 20, 20, 25, 25, 30},
			lead: func(row int) *[3]int {
				if a.Sites[row].FailoverFeasible {
					return &colorAccent
				}
				return &colorDanger
			},
		}
		for _, s := range a.Sites {
			t.rows = append(t.rows, []string{s.Datacenter, fmt.Sprintf("%d", s.HostCount), fmt.Sprintf("%d", s.ReplicatedVMCount),
				fmt.Sprintf("%.1f", s.CPUCapacityRatio), fmt.Sprintf("%.1f", s.MemCapacityRatio), fmt.Sprintf("%.1f", s.ReadinessScore)})
		}
		d.writeTable(t)
	}

	if len(a.Pairs) > 0 {
		t := table{
			title:   "Replica Pairs",
			headers: []string{"Production", "DC", "Replica", "DC", "vCPU"},
			widths:  []float64{50, 25, 50, 25, 20},
		}
		for _, p := range a.Pairs {
			t.rows = append(t.rows, []string{p.ProductionVM, p.ProductionDC, p.ReplicaVM, p.ReplicaDC, fmt.Sprintf("%d", p.VCPU)})
		}
		d.writeTable(t)
	}

	if len(a.Unprotected) > 0 {
		t := table{
			title:   "Largest Unprotected VMs",
			headers: []string{"VM", "Datacenter", "vCPU", "Memory (GB)", "Score"},
			widths:  []float64{55, 45, 20, 25, 25},
		}
		for _, u := range a.Unprotected {
			t.rows = append(t.rows, []string{u.VM, u.Datacenter, fmt.Sprintf("%d", u.VCPU), fmt.Sprintf("%.1f", u.MemoryGB), fmt.Sprintf("%.1f", u.Score)})
		}
		d.writeTable(t)
	}
}

func (d *document) writeDiskWaste() {
	w := d.data.DiskWaste
	d.paragraph(fmt.Sprintf("Estimated waste: %.1f GB across %d thick provisioned disks.", w.TotalWastedGB, w.DiskCount))
	t := table{
		headers: []string{"VM", "Disk", "Type", "Capacity GB", "Waste GB"},
		widths:  []float64{45, 35, 40, 25, 25},
	}
	for _, disk := range w.Disks {
		t.rows = append(t.rows, []string{disk.VM, disk.Disk, string(disk.Type), fmt.Sprintf("%.1f", disk.CapacityGB), fmt.Sprintf("%.1f", disk.EstimatedWasteGB)})
	}
	d.writeTable(t)
}

func (d *document) addPageNumbers() {
	pdf := d.pdf
	pdf.SetAutoPageBreak(false, 0)

	totalPages := pdf.PageCount()
	for i := 2; i <= totalPages; i++ {
		pdf.SetPage(i)
		pageWidth, pageHeight := pdf.GetPageSize()

		pdf.SetY(pageHeight - 15)
		pdf.SetFont("Arial", "", 8)
		d.setText(colorTextMuted)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d of %d", i-1, totalPages-1), "", 0, "C", false, 0, "")

		pdf.SetDrawColor(colorGridLine[0], colorGridLine[1], colorGridLine[2])
		pdf.SetLineWidth(0.3)
		pdf.Line(20, pageHeight-20, pageWidth-20, pageHeight-20)
	}
}
