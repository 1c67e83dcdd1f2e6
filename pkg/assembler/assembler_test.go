package assembler

import (
	"context"
	"testing"
	"time"

	"github.com/menta2k/visionmux/pkg/orchestrator"
	"github.com/menta2k/visionmux/pkg/types"
)

func TestAssembleAllSuccessHasNoHealthSummary(t *testing.T) {
	run := orchestrator.Run{
		Results: map[types.AnalyzerID]types.AnalysisResult{
			"yolo": {OK: true},
		},
		Statuses: []types.ServiceStatus{
			{ServiceID: "yolo", Status: types.StatusSuccess},
		},
	}

	resp := Assemble(context.Background(), run, nil, nil, types.ImageData{}, "", "", time.Now())

	if resp.ServiceHealthSummary != nil {
		t.Fatalf("expected no health summary when every analyzer succeeded, got %+v", resp.ServiceHealthSummary)
	}
	if !resp.Success {
		t.Fatalf("expected Success to be true")
	}
	if resp.ImageID == "" {
		t.Fatalf("expected a generated image ID")
	}
}

func TestAssembleDegradedAnalyzerProducesSortedHealthSummary(t *testing.T) {
	run := orchestrator.Run{
		Results: map[types.AnalyzerID]types.AnalysisResult{
			"yolo":  {OK: true},
			"clip":  {OK: false, ErrorKind: types.ErrorKindTimeout},
			"blip":  {OK: false, ErrorKind: types.ErrorKindOffline},
		},
		Statuses: []types.ServiceStatus{
			{ServiceID: "yolo", Status: types.StatusSuccess},
			{ServiceID: "clip", Status: types.StatusTimeout},
			{ServiceID: "blip", Status: types.StatusOffline},
		},
	}

	resp := Assemble(context.Background(), run, nil, nil, types.ImageData{}, "", "", time.Now())

	if resp.ServiceHealthSummary == nil {
		t.Fatalf("expected a health summary when analyzers degraded")
	}
	if resp.ServiceHealthSummary.FailedCount != 2 || resp.ServiceHealthSummary.TotalServices != 3 {
		t.Fatalf("unexpected summary counts: %+v", resp.ServiceHealthSummary)
	}
	if resp.Success {
		t.Fatalf("expected Success to be false when any analyzer degraded")
	}
	degraded := resp.ServiceHealthSummary.DegradedServices
	if len(degraded) != 2 || degraded[0] != "blip" || degraded[1] != "clip" {
		t.Fatalf("expected degraded services sorted lexically, got %v", degraded)
	}
}

func TestAssembleWithoutAggregatorLeavesCaptionsNil(t *testing.T) {
	run := orchestrator.Run{Results: map[types.AnalyzerID]types.AnalysisResult{}}
	resp := Assemble(context.Background(), run, nil, nil, types.ImageData{}, "", "", time.Now())
	if resp.Captions != nil {
		t.Fatalf("expected nil captions when no aggregator is wired, got %v", resp.Captions)
	}
}

func TestStatusLabelMapsErrorKinds(t *testing.T) {
	cases := []struct {
		result types.AnalysisResult
		want   types.ServiceStatusKind
	}{
		{types.AnalysisResult{OK: true}, types.StatusSuccess},
		{types.AnalysisResult{OK: false, ErrorKind: types.ErrorKindTimeout}, types.StatusTimeout},
		{types.AnalysisResult{OK: false, ErrorKind: types.ErrorKindOffline}, types.StatusOffline},
		{types.AnalysisResult{OK: false, ErrorKind: types.ErrorKindProtocol}, types.StatusError},
	}
	for _, c := range cases {
		if got := statusLabel(c.result); got != c.want {
			t.Fatalf("statusLabel(%+v) = %v, want %v", c.result, got, c.want)
		}
	}
}
