package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/kubev2v/inventory-advisor/internal/rvtools"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thoas/go-funk"
)

type UploadOptions struct {
	GlobalOptions
}

func DefaultUploadOptions() *UploadOptions {
	return &UploadOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdUpload() *cobra.Command {
	o := DefaultUploadOptions()
	cmd := &cobra.Command{
		Use:          "upload FILE...",
		Short:        "Upload RVTools workbooks to a running server",
		Example:      "upload /path/to/prod.xlsx /path/to/dr.xlsx",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *UploadOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
}

func (o *UploadOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	invalid := funk.FilterString(args, func(path string) bool { return !rvtools.IsWorkbookName(path) })
	if len(invalid) > 0 {
		return fmt.Errorf("not an excel workbook: %s", strings.Join(invalid, ", "))
	}
	return nil
}

// Run uploads the files one by one and stops at the first failure.
func (o *UploadOptions) Run(ctx context.Context, args []string) error {
	c := o.Client()
	for _, path := range args {
		result, err := c.UploadWorkbook(ctx, path)
		if err != nil {
			return fmt.Errorf("uploading %s: %w", path, err)
		}
		if result.Unchanged {
			fmt.Printf("%s: source %q unchanged\n", path, result.Source.Name)
			continue
		}
		fmt.Printf("%s: source %q ingested with %d rows (epoch %d)\n", path, result.Source.Name, result.Source.Rows, result.Epoch)
	}
	return nil
}
