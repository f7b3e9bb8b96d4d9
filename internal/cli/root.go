// Package cli defines Cobra command definitions for the cutover CLI.
// This file contains the root command, version flag, and logging setup.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/berth-dev/cutover/internal/tui"
)

var (
	verbose bool
	debug   bool
	version = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "cutover",
	Short: "Practise cloud-migration planning against simulated stakeholders",
	Long: `Cutover drops you into a cloud-migration planning meeting. You explain
how you would move a legacy module between providers while a product
manager, a DevOps engineer and a CTO push back. After the final review
you get a score, the gaps in your reasoning and concrete recommendations.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(cmd.ErrOrStderr()))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Without a subcommand, play if a human is watching.
		if !tui.IsTTY() {
			return cmd.Help()
		}
		return runPlay(cmd, args)
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger builds the diagnostic logger. Warnings only by default;
// --verbose adds progress, --debug adds collaborator detail.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case debug:
		level = slog.LevelDebug
	case verbose:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log session progress to stderr")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log collaborator calls and prompts to stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(cleanCmd)
}
