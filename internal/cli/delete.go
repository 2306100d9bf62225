package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type DeleteOptions struct {
	GlobalOptions
}

func DefaultDeleteOptions() *DeleteOptions {
	return &DeleteOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdDelete() *cobra.Command {
	o := DefaultDeleteOptions()
	cmd := &cobra.Command{
		Use:   "delete TYPE/NAME",
		Short: "Delete a resource of a running server.",
		Args:  cobra.ExactArgs(1),
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

func (o *DeleteOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
}

func (o *DeleteOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}

	kind, name, err := parseAndValidateKindName(args[0])
	if err != nil {
		return err
	}
	if kind != SourceKind {
		return fmt.Errorf("only sources can be deleted")
	}
	if name == "" {
		return fmt.Errorf("a source name is required")
	}
	return nil
}

func (o *DeleteOptions) Run(ctx context.Context, args []string) error {
	_, name, err := parseAndValidateKindName(args[0])
	if err != nil {
		return err
	}

	if err := o.Client().DeleteSource(ctx, name); err != nil {
		return fmt.Errorf("deleting source/%s: %w", name, err)
	}
	fmt.Printf("Deleted source/%s\n", name)
	return nil
}
