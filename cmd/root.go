// Package cmd implements the winbridge command line interface.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "winbridge",
	Short: "MCP server for Windows administration",
	Long: "winbridge exposes Windows administration capabilities as MCP tools:\n" +
		"filesystem browsing, process management, system information, registry\n" +
		"reads, service control, network diagnostics and performance counters.\n\n" +
		"Run 'winbridge start' to serve the tools over stdio or HTTP.",
	SilenceUsage: true,
}

// Execute runs the root command. It is the program's entry point.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
