// Package cli implements the CLI adapter for previewgate.
// This package provides Cobra commands that delegate to the app layer.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/bnema/previewgate/internal/app"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// loadConfig is replaced in tests.
var loadConfig = app.LoadConfig

// NewRootCmd creates the root command for the previewgate CLI.
func NewRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "previewgate",
		Short: "previewgate - edge router for live app previews",
		Long: `previewgate sits in front of the platform and routes every request:
main-domain traffic to the static assets, the core API or the AI gateway,
and per-app preview subdomains to a live development sandbox, falling back
to the permanently deployed instance.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(newServeCmd(&configPath))
	rootCmd.AddCommand(newClassifyCmd(&configPath))
	rootCmd.AddCommand(newSandboxCmd(&configPath))
	rootCmd.AddCommand(newConfigCmd(&configPath))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			if short {
				cmd.Println(Version)
				return
			}
			cmd.Printf("previewgate %s\n", Version)
			cmd.Printf("Commit: %s\n", Commit)
			cmd.Printf("Build Date: %s\n", BuildDate)
		},
	}
	cmd.Flags().BoolVarP(&short, "short", "s", false, "Show only version number")

	return cmd
}

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(version, commit, date string) {
	Version = version
	Commit = commit
	BuildDate = date
}
