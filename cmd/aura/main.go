// Package main is the entry point for the aura CLI: an offline surface
// over the learning content pipeline and the draft editor.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the aura CLI.
var rootCmd = &cobra.Command{
	Use:   "aura",
	Short: "Learning content pipeline for turning raw notes into publishable drafts",
	Long: `aura runs raw learning content through a critique and drafting pipeline:
a reviewer diagnoses argument problems, a coach turns them into questions
for the author, a strategist plans platform-specific structure, and an
editor composes a draft that never fabricates evidence.

Use "run" to process a content file end to end, "respond" to answer the
coach's questions, and "edit" to open a saved draft in the terminal editor.`,
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "SQLite database path (default: DB_PATH env or ./aura.db)")
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded .env file")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
