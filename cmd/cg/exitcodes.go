package main

import (
	"errors"
	"os"

	"github.com/matsen/clustergraph/internal/cluster"
	"github.com/matsen/clustergraph/internal/config"
	"github.com/matsen/clustergraph/internal/corpus"
	"github.com/matsen/clustergraph/internal/expert"
	"github.com/matsen/clustergraph/internal/render"
	"github.com/matsen/clustergraph/internal/s2"
	"github.com/matsen/clustergraph/internal/style"
)

const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (invalid config, unmapped threat category)
	ExitDataError   = 3 // Data error (missing or malformed input)
	ExitRenderError = 4 // Rendering backend failed or format unsupported
	ExitS2APIError  = 5 // Semantic Scholar API error (auth, rate limit, network)
)

// exitCodeFor classifies a pipeline, render, or fetch error.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, style.ErrUnmappedCategory), errors.Is(err, config.ErrInvalid):
		return ExitConfigError
	case errors.Is(err, corpus.ErrMalformedRecord),
		errors.Is(err, expert.ErrShortChunk),
		errors.Is(err, expert.ErrMalformedRow),
		errors.Is(err, cluster.ErrMissingColumn),
		errors.Is(err, os.ErrNotExist):
		return ExitDataError
	case errors.Is(err, render.ErrBackend), errors.Is(err, render.ErrUnsupported):
		return ExitRenderError
	case errors.Is(err, s2.ErrAuthError),
		errors.Is(err, s2.ErrRateLimited),
		errors.Is(err, s2.ErrNetworkError),
		errors.Is(err, s2.ErrInvalidResponse),
		errors.Is(err, s2.ErrNotFound):
		return ExitS2APIError
	}
	var apiErr *s2.APIError
	if errors.As(err, &apiErr) {
		return ExitS2APIError
	}
	return ExitError
}
