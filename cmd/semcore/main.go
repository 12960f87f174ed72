// Package main implements the semcore CLI: ingest repositories into the
// semantic store, query the resulting graph, and walk its block-level
// version history.
//
// # File Index
//
//   - main.go    - entry point, rootCmd, global flags, init()
//   - ingest.go  - ingestCmd (C6)
//   - query.go   - searchCmd, depsCmd, couplingCmd, patternsCmd (C5)
//   - branch.go  - commitCmd, branchCmd, diffCmd (C4)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"semcore/internal/config"
	"semcore/internal/logging"
	"semcore/internal/store"
)

var (
	configPath string
	dbPath     string
	verbose    bool

	cfg *config.Config
	st  *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "semcore",
	Short: "Semantic code engine: parse, store and query a codebase as a block graph",
	Long: `semcore parses a repository into a language-agnostic block model,
commits it to a queryable graph store, and tracks block-level revision
history across re-ingests.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			loaded.Logging.Enabled = true
			loaded.Logging.Level = "debug"
		}
		cfg = loaded

		ws, _ := os.Getwd()
		if err := logging.Initialize(ws, logging.Options{
			Enabled:    cfg.Logging.Enabled,
			Level:      cfg.Logging.Level,
			JSONFormat: cfg.Logging.JSONFormat,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "warning: logging init: %v\n", err)
		}

		path := dbPath
		if path == "" {
			path = cfg.Database.URL
		}
		s, err := store.Open(path)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		st = s
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if st != nil {
			return st.Close()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (optional)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite3 path or DSN (overrides config/DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level file logging")

	rootCmd.AddCommand(ingestCmd, watchCmd)
	rootCmd.AddCommand(searchCmd, depsCmd, couplingCmd, patternsCmd)
	rootCmd.AddCommand(commitCmd, branchCmd, diffCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
