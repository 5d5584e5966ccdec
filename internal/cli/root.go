// Package cli provides the command-line interface for moodon.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/moodon/internal/config"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose    bool
	baseURL    string
	storeKind  string
	ephemeral  bool
	printStats bool

	// Global config and wired components
	cfg       config.Config
	logger    *slog.Logger
	closeLogs func() error
	app       *App
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "moodon",
	Short: "MOOD ON interior recommendation chat client",
	Long: `moodon is a terminal client for the MOOD ON recommendation service.

Chat with the recommendation assistant, manage chat sessions, keep a
favorites board and your style preferences. Messages sent while offline or
interrupted are kept locally and reconciled with the server on the next run.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip wiring for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		// Load config, flags override env
		cfg = config.Load()
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		if storeKind != "" {
			cfg.Store = storeKind
		}
		if ephemeral {
			cfg.Store = config.StoreMemory
		}

		stderrLevel := slog.LevelWarn
		if verbose {
			stderrLevel = slog.LevelDebug
		}
		logger, closeLogs = config.SetupLogger(cfg.LogFile, cfg.LogLevel, stderrLevel)
		slog.SetDefault(logger)

		var err error
		app, err = NewApp(context.Background(), cfg, logger)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil {
			if printStats {
				printClientStats(app.Metrics.Snapshot())
			}
			if err := app.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
		}
		if closeLogs != nil {
			_ = closeLogs()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (default $MOODON_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "local state backend: file, surreal or memory (default $MOODON_STORE)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep local state in memory only")
	rootCmd.PersistentFlags().BoolVar(&printStats, "stats", false, "print request statistics on exit")

	// Add subcommands
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(passwordCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(favoritesCmd)
	rootCmd.AddCommand(prefsCmd)
}
