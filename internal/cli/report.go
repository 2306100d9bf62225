package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kubev2v/inventory-advisor/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
)

var legalReportFormats = []string{
	string(service.ReportFormatCSV),
	string(service.ReportFormatHTML),
	string(service.ReportFormatPDF),
}

type ReportOptions struct {
	Format      string
	OutputDir   string
	MaxFindings int
}

func DefaultReportOptions() *ReportOptions {
	return &ReportOptions{
		Format:    string(service.ReportFormatPDF),
		OutputDir: ".",
	}
}

func NewCmdReport() *cobra.Command {
	o := DefaultReportOptions()
	cmd := &cobra.Command{
		Use:     "report DIR",
		Short:   "Render a report for every RVTools workbook of a directory.",
		Example: "report ./exports --format html --output-dir /tmp",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *ReportOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.Format, "format", "f", o.Format, fmt.Sprintf("Report format. One of: (%s).", strings.Join(legalReportFormats, ", ")))
	fs.StringVar(&o.OutputDir, "output-dir", o.OutputDir, "Directory the report is written to")
	fs.IntVar(&o.MaxFindings, "max-findings", o.MaxFindings, "Maximum number of findings listed, 0 for all")
}

func (o *ReportOptions) Validate(args []string) error {
	o.Format = strings.ToLower(o.Format)
	if !funk.ContainsString(legalReportFormats, o.Format) {
		return fmt.Errorf("report format must be one of %s", strings.Join(legalReportFormats, ", "))
	}
	if o.MaxFindings < 0 {
		return fmt.Errorf("max-findings must not be negative")
	}
	return nil
}

func (o *ReportOptions) Run(ctx context.Context, args []string) error {
	analysis, err := analyzeDir(ctx, args[0])
	if err != nil {
		return err
	}

	report, err := service.NewReportService(analysis).GenerateReport(ctx, service.ReportOptions{
		Format:      service.ReportFormat(o.Format),
		MaxFindings: o.MaxFindings,
	})
	if err != nil {
		return fmt.Errorf("generating report: %w", err)
	}

	path := filepath.Join(o.OutputDir, report.FileName)
	if err := os.WriteFile(path, report.Content, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	fmt.Printf("Report written to %s\n", path)
	return nil
}
