package main

import (
	"context"

	"github.com/matsen/clustergraph/internal/pipeline"
	"github.com/matsen/clustergraph/internal/render"
	"github.com/spf13/cobra"
)

var buildGraphOut string

func init() {
	buildCmd.Flags().StringVar(&buildGraphOut, "graph-out", "", "Also write the assembled graph as JSON to this path")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Assemble the cluster graph and report what each stage kept",
	Long: `Load the five inputs, project citations onto clusters, apply the retention
policy and the expert scores, and report node and edge counts.

Nothing is drawn; use 'cg render' for an image.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

// BuildResult is the response for the build command.
type BuildResult struct {
	Status    string          `json:"status"`
	Report    pipeline.Report `json:"report"`
	Edges     int             `json:"edges"`
	Retained  int             `json:"retained_edges"`
	GraphPath string          `json:"graph_path,omitempty"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := mustFindProject()
	cfg := mustLoadConfig(root)
	log := mustNewLogger()
	defer log.Sync()

	in, opts := pipeline.FromConfig(cfg)
	opts.Logger = log

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := pipeline.Run(ctx, in, opts)
	if err != nil {
		exitWithErr(err)
	}

	if buildGraphOut != "" {
		if err := render.ToFile(ctx, render.JSON{}, res.Graph, buildGraphOut); err != nil {
			exitWithErr(err)
		}
	}

	result := BuildResult{
		Status:    "built",
		Report:    res.Report,
		Edges:     len(res.Graph.Edges),
		Retained:  res.Graph.RetainedEdges(),
		GraphPath: buildGraphOut,
	}
	if humanOutput {
		r := res.Report
		outputHuman("Papers: %d (%d dropped), in-corpus citations: %d\n",
			r.Corpus.Papers, r.Corpus.DroppedPapers, r.Corpus.Citations)
		outputHuman("Projected citations: %d across %d cluster pairs (%d retained)\n",
			r.Triples, r.Pairs, r.RetainedPairs)
		outputHuman("Expert chunks: %d, scored clusters: %d\n", r.Expert.Chunks, r.ScoredCluster)
		if r.Expert.Dropped > 0 {
			outputHuman("  dropped %d expert rows from row %d: %s\n", r.Expert.Dropped, r.Expert.StoppedAt, r.Expert.Reason)
		}
		outputHuman("Graph: %d nodes, %d edges (%d retained)\n", r.Nodes, result.Edges, result.Retained)
		if buildGraphOut != "" {
			outputHuman("Wrote %s\n", buildGraphOut)
		}
		return nil
	}
	return outputJSON(result)
}
