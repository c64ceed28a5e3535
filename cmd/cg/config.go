package main

import (
	"maps"
	"slices"

	"github.com/matsen/clustergraph/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create project configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration with paths resolved",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show where configuration and state are read from",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a clustergraph.yml with default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

// PathsResponse is the response for config path.
type PathsResponse struct {
	Root       string `json:"root"`
	Config     string `json:"config"`
	HasConfig  bool   `json:"has_config"`
	Global     string `json:"global_config"`
	Cache      string `json:"cache_db"`
	Checkpoint string `json:"checkpoint"`
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	cfg := mustLoadConfig(root)

	if humanOutput {
		outputHuman("points:               %s\n", cfg.Inputs.Points)
		outputHuman("papers:               %s\n", cfg.Inputs.Papers)
		outputHuman("citations:            %s\n", cfg.Inputs.Citations)
		outputHuman("scores:               %s\n", cfg.Inputs.Scores)
		outputHuman("names:                %s\n", cfg.Inputs.Names)
		outputHuman("output:               %s\n", cfg.Output)
		outputHuman("threshold:            %g\n", cfg.Threshold)
		outputHuman("min_distinct_targets: %d\n", cfg.MinDistinctTargets)
		outputHuman("max_weight:           %g\n", cfg.MaxWeight)
		outputHuman("label_width:          %d\n", cfg.LabelWidth)
		outputHuman("strict:               %t\n", cfg.Strict)
		outputHuman("query:                %s\n", cfg.Query)
		outputHuman("fetch_concurrency:    %d\n", cfg.FetchConcurrency)
		for _, cat := range slices.Sorted(maps.Keys(cfg.Palette)) {
			outputHuman("palette.%s: %s\n", cat, cfg.Palette[cat])
		}
		return nil
	}
	return outputJSON(cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	resp := PathsResponse{
		Root:       root,
		Config:     config.ConfigPath(root),
		HasConfig:  config.IsProject(root),
		Global:     config.GlobalConfigPath(),
		Cache:      config.DBPath(root),
		Checkpoint: config.CheckpointPath(root),
	}

	if humanOutput {
		outputHuman("root:       %s\n", resp.Root)
		outputHuman("config:     %s (present: %t)\n", resp.Config, resp.HasConfig)
		outputHuman("global:     %s\n", resp.Global)
		outputHuman("cache:      %s\n", resp.Cache)
		outputHuman("checkpoint: %s\n", resp.Checkpoint)
		return nil
	}
	return outputJSON(resp)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	if config.IsProject(root) {
		exitWithError(ExitConfigError, "%s already exists", config.ConfigPath(root))
	}
	if err := config.Default().Save(root); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Wrote %s\n", config.ConfigPath(root))
		return nil
	}
	return outputJSON(StatusResponse{Status: "created", Path: config.ConfigPath(root)})
}
