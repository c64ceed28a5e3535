// Package main provides the cg CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/matsen/clustergraph/internal/config"
	"github.com/matsen/clustergraph/internal/logging"
	"github.com/matsen/clustergraph/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	logLevel    string
	projectDir  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cg",
	Short: "Cluster-level citation graph builder",
	Long: `cg fuses a paper citation graph, t-SNE cluster assignments, and expert
threat scores into a graph whose nodes are clusters and whose edges summarize
citation traffic between them.

Inputs and thresholds come from clustergraph.yml, found by walking up from the
current directory. Without one, defaults apply in the current directory.
All commands output JSON by default; use --human for readable output.
Logs go to stderr.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", "", "Project directory (default: search upward from the working directory)")
	rootCmd.Version = Version
}

// mustFindProject returns the project root. An explicit --dir is used as is;
// otherwise the nearest clustergraph.yml wins, falling back to the working directory.
func mustFindProject() string {
	if projectDir != "" {
		abs, err := config.FindProject(projectDir)
		if err == nil {
			return abs
		}
		return projectDir
	}

	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	root, err := config.FindProject(cwd)
	if errors.Is(err, config.ErrNoProject) {
		return cwd
	}
	if err != nil {
		exitWithError(ExitConfigError, "finding project: %v", err)
	}
	return root
}

// mustLoadConfig loads and resolves configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg.Resolve(root)
}

// mustNewLogger builds the stderr logger, exits on error.
func mustNewLogger() *logging.Logger {
	log, err := logging.New("dev", logLevel)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return log
}

// mustOpenDatabase opens the SQLite cache, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(root string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(root))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}
