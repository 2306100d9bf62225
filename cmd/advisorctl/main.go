package main

import (
	"os"

	"github.com/kubev2v/inventory-advisor/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	command := NewAdvisorCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewAdvisorCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "advisorctl [flags] [options]",
		Short: "advisorctl analyzes RVTools exports and controls the inventory advisor service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdAnalyze())
	cmd.AddCommand(cli.NewCmdReport())
	cmd.AddCommand(cli.NewCmdUpload())
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdDelete())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
