// Package pipeline runs the full fusion: load the five inputs, project the
// citation graph onto clusters, aggregate, score, and assemble the attributed
// cluster graph.
package pipeline

import (
	"context"
	"fmt"

	"github.com/matsen/clustergraph/internal/cluster"
	"github.com/matsen/clustergraph/internal/config"
	"github.com/matsen/clustergraph/internal/corpus"
	"github.com/matsen/clustergraph/internal/expert"
	"github.com/matsen/clustergraph/internal/graph"
	"github.com/matsen/clustergraph/internal/linkage"
	"github.com/matsen/clustergraph/internal/logging"
	"github.com/matsen/clustergraph/internal/retention"
	"github.com/matsen/clustergraph/internal/style"
	"golang.org/x/sync/errgroup"
)

// Inputs are the paths of the five input tables.
type Inputs struct {
	Points    string
	Papers    string
	Citations string
	Scores    string
	Names     string
}

// Options controls a Run.
type Options struct {
	Strict     bool
	LabelWidth int
	Deriver    style.Deriver
	Logger     *logging.Logger
}

// DefaultOptions returns lenient options with the standard deriver.
func DefaultOptions() Options {
	return Options{
		LabelWidth: graph.DefaultLabelWidth,
		Deriver:    style.DefaultDeriver(),
	}
}

// FromConfig maps a resolved project configuration onto pipeline inputs and options.
func FromConfig(cfg *config.Config) (Inputs, Options) {
	in := Inputs{
		Points:    cfg.Inputs.Points,
		Papers:    cfg.Inputs.Papers,
		Citations: cfg.Inputs.Citations,
		Scores:    cfg.Inputs.Scores,
		Names:     cfg.Inputs.Names,
	}

	palette := style.DefaultPalette()
	if len(cfg.Palette) > 0 {
		palette = style.NewPalette(cfg.Palette)
	}
	opts := Options{
		Strict:     cfg.Strict,
		LabelWidth: cfg.LabelWidth,
		Deriver: style.Deriver{
			Policy:    retention.Policy{MinDistinctTargets: cfg.MinDistinctTargets},
			Palette:   palette,
			Threshold: cfg.Threshold,
			MaxWeight: cfg.MaxWeight,
			WeightCap: style.DefaultWeightCap,
		},
	}
	return in, opts
}

// Report summarizes every stage of a Run.
type Report struct {
	Corpus        corpus.LoadReport `json:"corpus"`
	Points        int               `json:"points"`
	Triples       int               `json:"triples"`
	Pairs         int               `json:"pairs"`
	RetainedPairs int               `json:"retained_pairs"`
	Nodes         int               `json:"nodes"`
	Expert        expert.Report     `json:"expert"`
	ScoredCluster int               `json:"scored_clusters"`
	NamedClusters int               `json:"named_clusters"`
}

// Result is the assembled graph and its report.
type Result struct {
	Graph  *graph.ClusterGraph
	Report Report
}

// Run executes the pipeline. The inputs are independent and load concurrently;
// the first load error is returned. Nothing is written to disk.
func Run(ctx context.Context, in Inputs, opts Options) (*Result, error) {
	log := opts.Logger
	if log == nil {
		log = logging.NewNop()
	}
	var report Report

	var (
		store  *corpus.Store
		points *cluster.Points
		rows   []expert.Row
		names  graph.Names
	)
	var g errgroup.Group
	g.Go(func() error {
		var err error
		store, report.Corpus, err = corpus.Load(in.Papers, in.Citations, corpus.Options{Strict: opts.Strict})
		return err
	})
	g.Go(func() error {
		var err error
		points, err = cluster.LoadPoints(in.Points)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = expert.LoadRows(in.Scores)
		return err
	})
	g.Go(func() error {
		var err error
		names, err = graph.LoadNames(in.Names, opts.LabelWidth)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report.Points = points.Len()
	report.NamedClusters = names.Len()
	log.Info("inputs loaded",
		"papers", report.Corpus.Papers,
		"citations", report.Corpus.Citations,
		"external_citations", report.Corpus.ExternalCitation,
		"points", report.Points,
		"expert_rows", len(rows),
		"names", report.NamedClusters)
	if n := report.Corpus.DroppedPapers + report.Corpus.DroppedCitations; n > 0 {
		log.Warn("malformed corpus records dropped",
			"papers", report.Corpus.DroppedPapers,
			"citations", report.Corpus.DroppedCitations)
	}

	table, expReport, err := expert.Build(rows, expert.Options{Strict: opts.Strict})
	report.Expert = expReport
	if err != nil {
		return nil, fmt.Errorf("building score table: %w", err)
	}
	report.ScoredCluster = len(table.Clusters())
	if expReport.Dropped > 0 {
		log.Warn("expert rows dropped",
			"rows", expReport.Dropped,
			"from_row", expReport.StoppedAt,
			"reason", expReport.Reason)
	}

	triples := linkage.Project(store, points)
	buckets := linkage.Aggregate(triples)
	report.Triples = len(triples)
	report.Pairs = buckets.Len()
	report.RetainedPairs = len(opts.Deriver.Policy.Retained(buckets))
	log.Info("citations projected",
		"triples", report.Triples,
		"pairs", report.Pairs,
		"retained", report.RetainedPairs)

	cg, err := graph.Assemble(buckets, table, names, opts.Deriver)
	if err != nil {
		return nil, fmt.Errorf("assembling graph: %w", err)
	}
	report.Nodes = len(cg.Nodes)
	log.Info("graph assembled", "nodes", len(cg.Nodes), "edges", len(cg.Edges))

	return &Result{Graph: cg, Report: report}, nil
}
