package service

import (
	"context"
	"fmt"

	"github.com/kubev2v/inventory-advisor/internal/service/report"
	"github.com/kubev2v/inventory-advisor/internal/service/report/csv"
	"github.com/kubev2v/inventory-advisor/internal/service/report/html"
	"github.com/kubev2v/inventory-advisor/internal/service/report/pdf"
	"github.com/kubev2v/inventory-advisor/internal/service/report/types"
)

type ReportFormat = types.ReportFormat
type ReportOptions = types.ReportOptions

const (
	ReportFormatCSV  = types.ReportFormatCSV
	ReportFormatHTML = types.ReportFormatHTML
	ReportFormatPDF  = types.ReportFormatPDF
)

// Report is a rendered document ready to be written out.
type Report struct {
	Content     []byte
	ContentType string
	FileName    string
}

type ReportService struct {
	analysis  *AnalysisService
	processor types.InventoryProcessor
	renderers map[types.ReportFormat]types.ReportRenderer
}

func NewReportService(analysis *AnalysisService) *ReportService {
	service := &ReportService{
		analysis:  analysis,
		processor: report.NewStandardInventoryProcessor(),
		renderers: make(map[types.ReportFormat]types.ReportRenderer),
	}

	for _, r := range []types.ReportRenderer{csv.NewRenderer(), html.NewRenderer(), pdf.NewRenderer()} {
		service.renderers[r.SupportedFormat()] = r
	}

	return service
}

// GenerateReport renders the analysis of the snapshot currently served.
func (r *ReportService) GenerateReport(ctx context.Context, options types.ReportOptions) (*Report, error) {
	renderer, exists := r.renderers[options.Format]
	if !exists {
		return nil, NewErrUnsupportedFormat(string(options.Format))
	}

	a, err := r.analysis.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	return r.render(renderer, a, options)
}

func (r *ReportService) render(renderer types.ReportRenderer, a *Analysis, options types.ReportOptions) (*Report, error) {
	reportData, err := r.processor.ProcessInventory(types.AnalysisInput{
		Snapshot:        a.Snapshot,
		Tree:            a.Tree,
		Findings:        a.Findings,
		DR:              a.DR,
		Rates:           a.rates,
		Now:             a.Now,
		SnapshotOldDays: a.snapshotOldDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process inventory: %w", err)
	}

	reportData.Options = options
	// the summary and cost keep counting every finding
	if options.MaxFindings > 0 && len(reportData.Findings) > options.MaxFindings {
		reportData.Findings = reportData.Findings[:options.MaxFindings]
	}

	content, err := renderer.Render(reportData)
	if err != nil {
		return nil, err
	}

	return &Report{
		Content:     content,
		ContentType: renderer.ContentType(),
		FileName:    fmt.Sprintf("inventory-report-%s%s", a.Now.Format("20060102-150405"), options.Format.Extension()),
	}, nil
}
