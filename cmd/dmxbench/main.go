package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dmxbench",
		Short: "Load-testing and diagnostics toolkit for DMX gateways",
		Long: `dmxbench exercises a DMX gateway over its three surfaces:

  • Modbus TCP (holding registers as DMX channels, control coils)
  • WebSocket command channel
  • REST/JSON API

Subcommands cover concurrent stress runs with latency percentiles,
visible color animations, a protocol smoke check, and an in-process
gateway simulator for development.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", ".", "Directory containing dmxbench.json")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(
		stressCmd(),
		animateCmd(),
		checkCmd(),
		simulateCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		os.Exit(1)
	}
}

// success prints a green check line.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// fail prints a red cross line.
func fail(format string, args ...any) {
	fmt.Printf("\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}

// newLogger builds the operational logger honoring --verbose.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
