package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates new command instance
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Args:  cobra.NoArgs,
		Short: "Print the version number of rrsigcheck",
		Run:   printVersion,
	}
}

func printVersion(c *cobra.Command, _ []string) {
	fmt.Fprintln(c.OutOrStdout(), "rrsigcheck")
	fmt.Fprintf(c.OutOrStdout(), "Version: %s\n", version)
	fmt.Fprintf(c.OutOrStdout(), "Build time: %s\n", buildTime)
}
