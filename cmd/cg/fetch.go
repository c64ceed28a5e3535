package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/matsen/clustergraph/internal/config"
	"github.com/matsen/clustergraph/internal/harvest"
	"github.com/matsen/clustergraph/internal/s2"
	"github.com/spf13/cobra"
)

var (
	fetchQuery       string
	fetchConcurrency int
)

func init() {
	// Load .env file if present (for S2_API_KEY)
	_ = godotenv.Load()

	fetchCmd.Flags().StringVarP(&fetchQuery, "query", "q", "", "Search query (default: query from config)")
	fetchCmd.Flags().IntVar(&fetchConcurrency, "concurrency", 0, "Reference lists fetched at once (default: fetch_concurrency from config)")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Harvest the paper corpus from Semantic Scholar",
	Long: `Search Semantic Scholar in bulk for the configured query, then fetch the
reference list of every paper found. Writes the papers and citations inputs.

Reference lists are checkpointed in .clustergraph/citations.jsonl; rerunning
after an interruption only fetches papers not yet checkpointed.

The API key is read from S2_API_KEY (a .env file is honored) or s2_api_key in
~/.config/cg/config.yml.`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

// FetchResult is the response for the fetch command.
type FetchResult struct {
	Status    string          `json:"status"`
	Query     string          `json:"query"`
	Papers    string          `json:"papers_path"`
	Citations string          `json:"citations_path"`
	Summary   harvest.Summary `json:"summary"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	cfg := mustLoadConfig(root)
	log := mustNewLogger()
	defer log.Sync()

	query := fetchQuery
	if query == "" {
		query = cfg.Query
	}
	concurrency := fetchConcurrency
	if concurrency <= 0 {
		concurrency = cfg.FetchConcurrency
	}

	var opts []s2.ClientOption
	if key := config.GetS2APIKey(); key != "" {
		opts = append(opts, s2.WithAPIKey(key))
	} else {
		log.Warn("no Semantic Scholar API key configured; requests will be heavily rate limited")
	}

	if err := os.MkdirAll(config.StatePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating state directory: %v", err)
	}

	h := &harvest.Harvester{
		Source:         s2.NewClient(opts...),
		PapersPath:     cfg.Inputs.Papers,
		CitationsPath:  cfg.Inputs.Citations,
		CheckpointPath: config.CheckpointPath(root),
		Concurrency:    concurrency,
		Logger:         log,
	}
	sum, err := h.Run(cmd.Context(), query)
	if err != nil {
		exitWithErr(err)
	}

	if humanOutput {
		outputHuman("Fetched %d papers for %q\n", sum.Papers, query)
		outputHuman("Reference lists: %d fetched, %d from checkpoint, %d not found\n", sum.Fetched, sum.Skipped, sum.NotFound)
		outputHuman("Wrote %s and %s (%d references)\n", cfg.Inputs.Papers, cfg.Inputs.Citations, sum.References)
		return nil
	}
	return outputJSON(FetchResult{
		Status:    "fetched",
		Query:     query,
		Papers:    cfg.Inputs.Papers,
		Citations: cfg.Inputs.Citations,
		Summary:   sum,
	})
}
