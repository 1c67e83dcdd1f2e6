package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/visionmux/pkg/types"
)

type fakeTransport struct {
	offline map[types.AnalyzerID]bool
}

func (f *fakeTransport) AnalyzeURL(ctx context.Context, a types.Analyzer, url string) (types.AnalysisResult, error) {
	return types.AnalysisResult{OK: true}, nil
}

func (f *fakeTransport) AnalyzeFile(ctx context.Context, a types.Analyzer, path string) (types.AnalysisResult, error) {
	return types.AnalysisResult{OK: true}, nil
}

func (f *fakeTransport) Probe(ctx context.Context, a types.Analyzer) (time.Duration, error) {
	if f.offline[a.ID] {
		return 0, errors.New("connection refused")
	}
	return time.Millisecond, nil
}

func TestProbeAllAllHealthy(t *testing.T) {
	p := New(&fakeTransport{}, zap.NewNop())
	analyzers := []types.Analyzer{{ID: "yolo"}, {ID: "blip"}}

	results, overall := p.ProbeAll(context.Background(), analyzers)

	if overall != types.HealthHealthy {
		t.Fatalf("expected healthy overall status, got %s", overall)
	}
	for _, a := range analyzers {
		if results[a.ID].Status != types.AnalyzerHealthy {
			t.Fatalf("expected %s to be healthy", a.ID)
		}
	}
}

func TestProbeAllPartialFailureIsDegraded(t *testing.T) {
	p := New(&fakeTransport{offline: map[types.AnalyzerID]bool{"blip": true}}, zap.NewNop())
	analyzers := []types.Analyzer{{ID: "yolo"}, {ID: "blip"}}

	_, overall := p.ProbeAll(context.Background(), analyzers)

	if overall != types.HealthDegraded {
		t.Fatalf("expected degraded overall status, got %s", overall)
	}
}

func TestProbeAllAllOfflineIsCritical(t *testing.T) {
	p := New(&fakeTransport{offline: map[types.AnalyzerID]bool{"yolo": true, "blip": true}}, zap.NewNop())
	analyzers := []types.Analyzer{{ID: "yolo"}, {ID: "blip"}}

	_, overall := p.ProbeAll(context.Background(), analyzers)

	if overall != types.HealthCritical {
		t.Fatalf("expected critical overall status, got %s", overall)
	}
}

func TestAggregateStatusNoAnalyzersIsHealthy(t *testing.T) {
	if got := aggregateStatus(0, 0); got != types.HealthHealthy {
		t.Fatalf("expected an empty roster to report healthy, got %s", got)
	}
}
