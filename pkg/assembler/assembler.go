// Package assembler merges one analysis run's pieces — voting output,
// captions, per-service results, and image metadata — into the single
// document /analyze returns.
package assembler

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/visionmux/pkg/captions"
	"github.com/menta2k/visionmux/pkg/orchestrator"
	"github.com/menta2k/visionmux/pkg/types"
)

// Assemble builds the full Response document for one completed run.
// start is when the request began, used to compute AnalysisTimeSeconds.
func Assemble(ctx context.Context, run orchestrator.Run, aggregator *captions.Aggregator, analyzers []types.Analyzer, img types.ImageData, imageURL, imageFile string, start time.Time) types.Response {
	results := make(map[types.AnalyzerID]types.CompactResult, len(run.Results))
	for id, r := range run.Results {
		results[id] = types.CompactResult{
			OK:          r.OK,
			Status:      string(statusLabel(r)),
			Predictions: r.Predictions,
			Metadata:    r.Metadata,
		}
	}

	var captionList []types.Caption
	if aggregator != nil {
		captionList = aggregator.Aggregate(ctx, analyzers, run.Results, imageURL, imageFile)
	}

	summary := healthSummary(run.Statuses)

	resp := types.Response{
		Success:              summary == nil,
		ImageID:              uuid.NewString(),
		AnalysisTimeSeconds:  time.Since(start).Seconds(),
		ImageData:            img,
		Votes:                types.Votes{Consensus: run.Voted.Consensus},
		Special:              run.Voted.Special,
		Captions:             captionList,
		Results:              results,
		ServiceHealthSummary: summary,
	}

	return resp
}

func statusLabel(r types.AnalysisResult) types.ServiceStatusKind {
	if r.OK {
		return types.StatusSuccess
	}
	switch r.ErrorKind {
	case types.ErrorKindTimeout:
		return types.StatusTimeout
	case types.ErrorKindOffline:
		return types.StatusOffline
	default:
		return types.StatusError
	}
}

// healthSummary reports the degraded set for one request, or nil when
// every analyzer succeeded.
func healthSummary(statuses []types.ServiceStatus) *types.ServiceHealthSummary {
	var degraded []types.AnalyzerID
	for _, s := range statuses {
		if s.Status != types.StatusSuccess {
			degraded = append(degraded, s.ServiceID)
		}
	}
	if len(degraded) == 0 {
		return nil
	}
	sort.Slice(degraded, func(i, j int) bool { return degraded[i] < degraded[j] })
	return &types.ServiceHealthSummary{
		DegradedServices: degraded,
		FailedCount:      len(degraded),
		TotalServices:    len(statuses),
	}
}
