package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kubev2v/inventory-advisor/internal/config"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/inventory"
	"github.com/kubev2v/inventory-advisor/internal/ranking"
	"github.com/kubev2v/inventory-advisor/internal/rvtools"
	"github.com/kubev2v/inventory-advisor/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// AnalyzeOptions analyzes a workbook directory without a server.
type AnalyzeOptions struct {
	FindingFlags

	Output string
}

// AnalyzeResult is what analyze prints in structured form.
type AnalyzeResult struct {
	Sources  []string           `json:"sources"`
	Summary  ranking.Summary    `json:"summary"`
	Findings []findings.Finding `json:"findings"`
}

func DefaultAnalyzeOptions() *AnalyzeOptions {
	return &AnalyzeOptions{}
}

func NewCmdAnalyze() *cobra.Command {
	o := DefaultAnalyzeOptions()
	cmd := &cobra.Command{
		Use:     "analyze DIR",
		Short:   "Analyze every RVTools workbook of a directory.",
		Example: "analyze ./exports --severity HIGH\nanalyze ./exports -o json",
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

func (o *AnalyzeOptions) Bind(fs *pflag.FlagSet) {
	o.FindingFlags.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *AnalyzeOptions) Validate(args []string) error {
	if err := o.FindingFlags.Validate(); err != nil {
		return err
	}
	return validateOutput(o.Output)
}

func (o *AnalyzeOptions) Run(ctx context.Context, args []string) error {
	analysis, err := analyzeDir(ctx, args[0])
	if err != nil {
		return err
	}

	a, err := analysis.Analyze(ctx)
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", args[0], err)
	}

	found, summary := a.Filter(o.FindingFlags.Filter())
	result := AnalyzeResult{Summary: summary, Findings: found}
	for _, s := range a.Snapshot.Sources() {
		result.Sources = append(result.Sources, s.Name)
	}

	if printed, err := printStructured(result, o.Output); printed {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Sources: %s\n", strings.Join(result.Sources, ", "))
	for _, sev := range findings.Severities() {
		fmt.Fprintf(w, "%s: %d\n", sev, summary.BySeverity[sev])
	}
	fmt.Fprintln(w)
	printFindingsTable(w, found...)
	return nil
}

// analyzeDir builds an analysis service over the workbooks of dir. Nothing
// is persisted; the configuration only contributes thresholds and rates.
func analyzeDir(ctx context.Context, dir string) (*service.AnalysisService, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("reading workbook directory: %w", err)
	}

	cfg, err := config.New()
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	holder := inventory.NewHolder(rvtools.NewDirLoader(dir))
	snap, err := holder.Reload(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading workbooks: %w", err)
	}
	if len(snap.Sources()) == 0 {
		return nil, fmt.Errorf("no readable workbook in %s", dir)
	}

	return service.NewAnalysisService(holder, *cfg.Thresholds, service.WithRates(*cfg.Rates)), nil
}
