// Pductl is a control utility for rack PDUs with the Intellinet-style web
// interface.
//
// It talks to the device's embedded web server over HTTP basic auth, and to
// its UDP sideband for the mains voltage reading. Devices can be addressed
// directly by IP or by a name from the local device registry.
//
// Usage:
//
//	pductl [command] [flags]
//
// Running without arguments launches the interactive dashboard.
// See 'pductl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ipdu/pductl/internal/logging"
	"github.com/ipdu/pductl/internal/version"
)

func main() {
	if err := logging.InitializeFromEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pductl",
	Short: "PDU Control Utility",
	Long: `A standalone utility for monitoring and switching rack PDUs.

Provides device discovery, a live dashboard, outlet switching, and direct
configuration commands for PDUs with the Intellinet-style web interface.

If no command is specified, the interactive dashboard will launch.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: run dashboard when no subcommand provided
		return runDashboard(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pductl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
