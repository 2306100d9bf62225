package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	api "github.com/kubev2v/inventory-advisor/api/v1alpha1"
	"github.com/kubev2v/inventory-advisor/internal/findings"
	"github.com/kubev2v/inventory-advisor/internal/ranking"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
)

type GetOptions struct {
	GlobalOptions
	FindingFlags

	Output string
}

func DefaultGetOptions() *GetOptions {
	return &GetOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdGet() *cobra.Command {
	o := DefaultGetOptions()
	cmd := &cobra.Command{
		Use:     "get (TYPE | TYPE/NAME)",
		Short:   "Display one or many resources of a running server.",
		Example: "get sources\nget source/prod\nget findings --severity CRITICAL -o yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
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

func (o *GetOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	o.FindingFlags.Bind(fs)

	fs.StringVarP(&o.Output, "output", "o", o.Output, fmt.Sprintf("Output format. One of: (%s).", strings.Join(legalOutputTypes, ", ")))
}

func (o *GetOptions) Complete(cmd *cobra.Command, args []string) error {
	return o.GlobalOptions.Complete(cmd, args)
}

func (o *GetOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	kind, name, err := parseAndValidateKindName(args[0])
	if err != nil {
		return err
	}
	if kind == FindingKind && name != "" {
		return fmt.Errorf("findings are listed, not read by name")
	}
	if err := o.FindingFlags.Validate(); err != nil {
		return err
	}
	return validateOutput(o.Output)
}

func (o *GetOptions) Run(ctx context.Context, args []string) error {
	c := o.Client()

	kind, name, err := parseAndValidateKindName(args[0])
	if err != nil {
		return err
	}

	var response any
	switch {
	case kind == SourceKind && name != "":
		response, err = c.GetSource(ctx, name)
	case kind == SourceKind:
		response, err = c.ListSources(ctx)
	case kind == FindingKind:
		response, err = c.ListFindings(ctx, o.FindingFlags.Query())
	default:
		return fmt.Errorf("unsupported resource kind: %s", kind)
	}
	if err != nil {
		if name != "" {
			return fmt.Errorf("reading %s/%s: %w", kind, name, err)
		}
		return fmt.Errorf("listing %s: %w", plural(kind), err)
	}

	if printed, err := printStructured(response, o.Output); printed {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 1, '\t', 0)
	defer w.Flush()
	switch r := response.(type) {
	case *api.Source:
		printSourcesTable(w, *r)
	case api.SourceList:
		printSourcesTable(w, r...)
	case *api.FindingList:
		printFindingsTable(w, r.Findings...)
	}
	return nil
}

// FindingFlags are the findings filters shared by get and analyze.
type FindingFlags struct {
	Source   string
	Severity string
	Types    []string
	Limit    int
}

func (f *FindingFlags) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.Source, "source", f.Source, "Only findings of this source")
	fs.StringVar(&f.Severity, "severity", f.Severity, "Only findings of this severity (CRITICAL, HIGH, MEDIUM, LOW)")
	fs.StringSliceVar(&f.Types, "type", f.Types, "Only findings of these types")
	fs.IntVar(&f.Limit, "limit", f.Limit, "Maximum number of findings, 0 for all")
}

func (f *FindingFlags) Validate() error {
	if f.Severity != "" {
		if _, ok := findings.ParseSeverity(strings.ToUpper(f.Severity)); !ok {
			return fmt.Errorf("invalid severity %q", f.Severity)
		}
	}
	if f.Limit < 0 {
		return fmt.Errorf("limit must not be negative")
	}
	return nil
}

// Filter is the local counterpart of Query.
func (f *FindingFlags) Filter() ranking.Filter {
	return ranking.Filter{
		Source:   f.Source,
		Severity: findings.Severity(strings.ToUpper(f.Severity)),
		Types: funk.Map(f.Types, func(t string) findings.Type {
			return findings.Type(strings.ToUpper(strings.TrimSpace(t)))
		}).([]findings.Type),
		Limit: f.Limit,
	}
}

func (f *FindingFlags) Query() url.Values {
	q := url.Values{}
	if f.Source != "" {
		q.Set("source", f.Source)
	}
	if f.Severity != "" {
		q.Set("severity", strings.ToUpper(f.Severity))
	}
	for _, t := range f.Types {
		q.Add("type", t)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func printSourcesTable(w io.Writer, sources ...api.Source) {
	fmt.Fprintln(w, "NAME\tFILE\tROWS\tINGESTED")
	for _, s := range sources {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Name, s.FileName, s.Rows, s.IngestedAt.Format("2006-01-02 15:04:05"))
	}
}

func printFindingsTable(w io.Writer, list ...findings.Finding) {
	fmt.Fprintln(w, "SEVERITY\tTYPE\tTARGET\tSOURCE\tREASON")
	for _, f := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", f.Severity, f.Type, f.Target, f.Source, f.Reason)
	}
}
