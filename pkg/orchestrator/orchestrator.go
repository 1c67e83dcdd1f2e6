// Package orchestrator fans one image out to every configured analyzer
// under a shared deadline, then feeds the combined results through the
// clustering and voting engines.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/visionmux/internal/config"
	"github.com/menta2k/visionmux/internal/imaging"
	"github.com/menta2k/visionmux/pkg/client"
	"github.com/menta2k/visionmux/pkg/clustering"
	"github.com/menta2k/visionmux/pkg/types"
	"github.com/menta2k/visionmux/pkg/voting"
)

// Source is the image an analysis run operates on. When URL is set the
// analyzers receive it, and FilePath, if also set, is used only to measure
// dimensions; otherwise the analyzers receive FilePath.
type Source struct {
	URL      string
	FilePath string
}

// Run is everything one image's analysis produced.
type Run struct {
	Dims      *types.Dimensions
	Results   map[types.AnalyzerID]types.AnalysisResult
	Statuses  []types.ServiceStatus
	Clustered types.ClusteringOutput
	Voted     voting.Output
}

// Orchestrator owns the analyzer roster and the shared transport used to
// reach every one of them.
type Orchestrator struct {
	analyzers []types.Analyzer
	transport client.AnalyzerClient
	call      config.CallConfig
	logger    *zap.Logger
}

// New builds an Orchestrator. analyzers fixes the iteration order used
// throughout the pipeline (configuration order), matching the clustering
// and voting engines' determinism requirement.
func New(analyzers []types.Analyzer, transport client.AnalyzerClient, call config.CallConfig, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{analyzers: analyzers, transport: transport, call: call, logger: logger}
}

// Analyze measures the image once, calls every analyzer concurrently
// under the configured global deadline, and runs clustering and voting
// over the combined results. A failing or slow analyzer never cancels
// its siblings: each fan-out goroutine always returns nil to the
// errgroup, and its failure is recorded in Results/Statuses instead.
func (o *Orchestrator) Analyze(ctx context.Context, src Source) Run {
	ctx, cancel := context.WithTimeout(ctx, o.call.GlobalDeadline())
	defer cancel()

	var dims *types.Dimensions
	if src.FilePath != "" {
		measured, err := imaging.Measure(src.FilePath)
		if err != nil {
			o.logger.Warn("dimension measurement failed", zap.Error(err))
		} else {
			dims = measured
		}
	}

	results := make(map[types.AnalyzerID]types.AnalysisResult, len(o.analyzers))
	statuses := make([]types.ServiceStatus, len(o.analyzers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, a := range o.analyzers {
		i, a := i, a
		g.Go(func() error {
			start := time.Now()
			var (
				result types.AnalysisResult
				err    error
			)
			if src.URL != "" {
				result, err = o.transport.AnalyzeURL(gctx, a, src.URL)
			} else {
				result, err = o.transport.AnalyzeFile(gctx, a, src.FilePath)
			}
			elapsed := time.Since(start)
			if err != nil {
				o.logger.Debug("analyzer returned an error",
					zap.String("analyzer", string(a.ID)),
					zap.Error(err))
			}

			mu.Lock()
			results[a.ID] = result
			statuses[i] = types.ServiceStatus{
				ServiceID:        a.ID,
				Status:           statusFor(result),
				ProcessingTimeMS: elapsed.Milliseconds(),
				PredictionCount:  len(result.Predictions),
				ErrorMessage:     result.ErrorMessage,
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	clustered := clustering.Cluster(o.analyzers, results, dims, o.logger)
	voted := voting.Vote(o.analyzers, results, clustered)

	return Run{Dims: dims, Results: results, Statuses: statuses, Clustered: clustered, Voted: voted}
}

func statusFor(result types.AnalysisResult) types.ServiceStatusKind {
	if result.OK {
		return types.StatusSuccess
	}
	switch result.ErrorKind {
	case types.ErrorKindTimeout:
		return types.StatusTimeout
	case types.ErrorKindOffline:
		return types.StatusOffline
	default:
		return types.StatusError
	}
}
