// Package client issues the unified analyzer HTTP call: a GET with
// either a url= or file= query parameter, a per-call deadline, and a
// bounded retry policy for transport failures only.
package client

import (
	"context"
	"time"

	"github.com/menta2k/visionmux/pkg/types"
)

// AnalyzerClient is the swappable transport used to reach one analyzer,
// generalizing the one-interface/many-implementations shape so tests can
// substitute a fake transport without touching the orchestrator.
type AnalyzerClient interface {
	AnalyzeURL(ctx context.Context, analyzer types.Analyzer, url string) (types.AnalysisResult, error)
	AnalyzeFile(ctx context.Context, analyzer types.Analyzer, path string) (types.AnalysisResult, error)
	Probe(ctx context.Context, analyzer types.Analyzer) (time.Duration, error)
}
