// Package commands implements the lanremote-log CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lanremote-log",
		Short:         "lanremote protocol capture analyzer",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(viewCmd(), exportCmd(), filterCmd(), statsCmd())
	return root
}
