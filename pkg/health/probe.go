// Package health probes each analyzer's health endpoint and summarizes
// the degraded/offline set, independent of the per-request fan-out.
package health

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/visionmux/pkg/client"
	"github.com/menta2k/visionmux/pkg/types"
)

// Prober checks every configured analyzer's health endpoint.
type Prober struct {
	transport client.AnalyzerClient
	logger    *zap.Logger
}

// New builds a Prober over the given analyzer transport.
func New(transport client.AnalyzerClient, logger *zap.Logger) *Prober {
	return &Prober{transport: transport, logger: logger}
}

// ProbeAll queries every analyzer concurrently and returns its health
// status keyed by analyzer id, plus the aggregate status.
func (p *Prober) ProbeAll(ctx context.Context, analyzers []types.Analyzer) (map[types.AnalyzerID]types.AnalyzerHealth, types.OverallHealthStatus) {
	results := make(map[types.AnalyzerID]types.AnalyzerHealth, len(analyzers))
	resultCh := make(chan struct {
		id     types.AnalyzerID
		health types.AnalyzerHealth
	}, len(analyzers))

	for _, a := range analyzers {
		go func(a types.Analyzer) {
			resultCh <- struct {
				id     types.AnalyzerID
				health types.AnalyzerHealth
			}{a.ID, p.probeOne(ctx, a)}
		}(a)
	}

	for range analyzers {
		r := <-resultCh
		results[r.id] = r.health
	}

	healthy := 0
	for _, h := range results {
		if h.Status == types.AnalyzerHealthy {
			healthy++
		}
	}

	return results, aggregateStatus(healthy, len(analyzers))
}

func (p *Prober) probeOne(ctx context.Context, a types.Analyzer) types.AnalyzerHealth {
	now := time.Now().UTC().Format(time.RFC3339)
	elapsed, err := p.transport.Probe(ctx, a)
	if err != nil {
		p.logger.Warn("analyzer health probe failed",
			zap.String("analyzer", string(a.ID)),
			zap.Error(err))
		status := types.AnalyzerOffline
		if ctx.Err() != nil {
			status = types.AnalyzerError
		}
		return types.AnalyzerHealth{Name: a.Name, Status: status, ResponseTimeMS: elapsed.Milliseconds(), LastCheck: now}
	}
	return types.AnalyzerHealth{Name: a.Name, Status: types.AnalyzerHealthy, ResponseTimeMS: elapsed.Milliseconds(), LastCheck: now}
}

// aggregateStatus derives the overall /health status from the healthy
// fraction: none configured counts as healthy (nothing to degrade),
// all healthy is healthy, none healthy is critical, otherwise degraded.
func aggregateStatus(healthy, total int) types.OverallHealthStatus {
	switch {
	case total == 0:
		return types.HealthHealthy
	case healthy == total:
		return types.HealthHealthy
	case healthy == 0:
		return types.HealthCritical
	default:
		return types.HealthDegraded
	}
}

// ServicesStatus maps the per-analyzer health into the
// GET /services/health response shape.
func ServicesStatus(results map[types.AnalyzerID]types.AnalyzerHealth, overall types.OverallHealthStatus) types.ServicesHealthResponse {
	out := make(map[string]types.AnalyzerHealth, len(results))
	for id, h := range results {
		out[string(id)] = h
	}
	return types.ServicesHealthResponse{Services: out, Status: overall}
}

// Summary builds the GET /health response from a services health probe.
func Summary(results map[types.AnalyzerID]types.AnalyzerHealth, overall types.OverallHealthStatus) types.HealthResponse {
	healthy := 0
	for _, h := range results {
		if h.Status == types.AnalyzerHealthy {
			healthy++
		}
	}
	return types.HealthResponse{
		Status:          overall,
		HealthyServices: fmt.Sprintf("%d/%d", healthy, len(results)),
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	}
}
