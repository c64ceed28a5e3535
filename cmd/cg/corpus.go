package main

import (
	"github.com/matsen/clustergraph/internal/corpus"
	"github.com/spf13/cobra"
)

var topLimit int

func init() {
	corpusTopCmd.Flags().IntVarP(&topLimit, "limit", "n", 20, "Number of papers to list")
	corpusCmd.AddCommand(corpusRebuildCmd, corpusStatsCmd, corpusTopCmd)
	rootCmd.AddCommand(corpusCmd)
}

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the paper corpus through a SQLite cache",
	Long: `Query the paper corpus. The cache lives in .clustergraph/cache/corpus.db
and is rebuilt from the papers and citations inputs with 'cg corpus rebuild'.`,
}

var corpusRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query cache from the corpus files",
	Args:  cobra.NoArgs,
	RunE:  runCorpusRebuild,
}

var corpusStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus counts",
	Args:  cobra.NoArgs,
	RunE:  runCorpusStats,
}

var corpusTopCmd = &cobra.Command{
	Use:   "top",
	Short: "List the papers most cited within the corpus",
	Args:  cobra.NoArgs,
	RunE:  runCorpusTop,
}

// RebuildResult is the response for the corpus rebuild command.
type RebuildResult struct {
	Status string            `json:"status"`
	Papers int               `json:"papers"`
	Report corpus.LoadReport `json:"report"`
}

func runCorpusRebuild(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	cfg := mustLoadConfig(root)
	log := mustNewLogger()
	defer log.Sync()

	store, report, err := corpus.Load(cfg.Inputs.Papers, cfg.Inputs.Citations, corpus.Options{Strict: cfg.Strict})
	if err != nil {
		exitWithErr(err)
	}

	db := mustOpenDatabase(root)
	defer db.Close()

	n, err := db.RebuildFromStore(store)
	if err != nil {
		exitWithError(ExitDataError, "rebuilding corpus cache: %v", err)
	}
	log.Debug("corpus cache rebuilt", "papers", n, "citations", report.Citations)

	if humanOutput {
		outputHuman("Rebuilt corpus cache with %d papers and %d citations\n", n, report.Citations)
		return nil
	}
	return outputJSON(RebuildResult{Status: "rebuilt", Papers: n, Report: report})
}

func runCorpusStats(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	db := mustOpenDatabase(root)
	defer db.Close()

	stats, err := db.Stats()
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		outputHuman("Papers:              %d\n", stats.Papers)
		outputHuman("Citations:           %d (%d influential)\n", stats.Citations, stats.Influential)
		outputHuman("Citing papers:       %d\n", stats.CitingPapers)
		outputHuman("Cited papers:        %d\n", stats.CitedPapers)
		outputHuman("Isolated papers:     %d\n", stats.IsolatedPaper)
		return nil
	}
	return outputJSON(stats)
}

func runCorpusTop(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	db := mustOpenDatabase(root)
	defer db.Close()

	top, err := db.TopCited(topLimit)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	if humanOutput {
		if len(top) == 0 {
			outputHuman("No in-corpus citations. Run 'cg corpus rebuild' first.\n")
			return nil
		}
		for i, p := range top {
			outputHuman("%3d. %-4d %s\n", i+1, p.InCorpus, truncateString(p.Title, TopTitleMaxLen))
		}
		return nil
	}
	return outputJSON(top)
}
