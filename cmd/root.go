// Package cmd implements the gateway's command-line entry point.
package cmd

import (
	"os"

	"mcp-gateway/internal/config"

	"github.com/spf13/cobra"
)

// Exit codes for the gateway process (spec.md §6).
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a fatal startup error.
	ExitCodeError = 1
)

// configPathFlag is --config-path/-c: a diagnostic switch, not a value.
// When set it prints the ordered config-file search paths and exits;
// it never changes where a subsequent normal run loads config.yaml from
// (spec.md §6 "otherwise the process proceeds to normal startup" — passing
// this flag always takes the print-and-exit branch, it never falls
// through).
var configPathFlag bool

// rootCmd is the gateway's single command: no subcommands, just flags,
// mirroring the flat CLI surface spec.md §6 describes.
var rootCmd = &cobra.Command{
	Use:   "mcp-gateway",
	Short: "Aggregate multiple MCP servers behind a single MCP endpoint",
	Long: `mcp-gateway connects to a set of upstream MCP servers and presents
them to a single downstream MCP client as one aggregated server: tool,
resource, and prompt listings are namespaced and merged, and a handful of
meta-tools let the downstream introspect and call through to any
configured upstream.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	RunE:          runRoot,
}

// SetVersion sets the version cobra reports for --version.
func SetVersion(v string) { rootCmd.Version = v }

// Execute is the CLI process entry point, called from main.main.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-gateway version %s\n" .Version}}`)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	if configPathFlag {
		candidates := config.SearchPaths("")
		cmd.Print(config.FormatSearchPaths(candidates))
		return nil
	}
	return runServe(cmd)
}

func init() {
	rootCmd.Flags().BoolVarP(&configPathFlag, "config-path", "c", false, "print the ordered config file search paths and exit")
}
