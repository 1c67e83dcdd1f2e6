package client

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/menta2k/visionmux/internal/config"
	"github.com/menta2k/visionmux/pkg/types"
)

func testAnalyzer(t *testing.T, srv *httptest.Server) types.Analyzer {
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("failed to parse test server port: %v", err)
	}
	return types.Analyzer{ID: "fixture", Host: u.Hostname(), Port: port, Endpoint: "/analyze"}
}

func TestAnalyzeURLParsesSuccessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"service": "fixture",
			"status":  "success",
			"predictions": []map[string]interface{}{
				{"type": "object_detection", "label": "cat", "confidence": 0.9},
			},
			"metadata": map[string]interface{}{"processing_time_seconds": 0.1},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(config.CallConfig{AnalyzerTimeout: time.Second, MaxRetries: 0, RetryBackoff: time.Millisecond}, zap.NewNop())
	result, err := c.AnalyzeURL(context.Background(), testAnalyzer(t, srv), "http://example.com/cat.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK || len(result.Predictions) != 1 {
		t.Fatalf("expected one successful prediction, got %+v", result)
	}
}

func TestAnalyzeURLServiceErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(map[string]interface{}{
			"service": "fixture",
			"status":  "error",
			"error":   map[string]string{"code": "bad_input", "message": "could not decode image"},
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(config.CallConfig{AnalyzerTimeout: time.Second, MaxRetries: 3, RetryBackoff: time.Millisecond}, zap.NewNop())
	result, err := c.AnalyzeURL(context.Background(), testAnalyzer(t, srv), "http://example.com/cat.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.OK {
		t.Fatalf("expected a service-error result to report OK=false")
	}
	if calls != 1 {
		t.Fatalf("expected a status=='error' response not to be retried, got %d calls", calls)
	}
}

func TestAnalyzeURLNon200StatusIsPermanent(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"service": "fixture", "status": "success"})
	}))
	defer srv.Close()

	c := NewHTTPClient(config.CallConfig{AnalyzerTimeout: time.Second, MaxRetries: 0, RetryBackoff: time.Millisecond}, zap.NewNop())
	_, err := c.AnalyzeURL(context.Background(), testAnalyzer(t, srv), "http://example.com/cat.jpg")
	if err == nil {
		t.Fatalf("expected a non-200 response to be a permanent error, not silently swallowed")
	}
	if calls != 1 {
		t.Fatalf("expected a non-200 status to be permanent (no retry) per the analyzer contract, got %d calls", calls)
	}
}

func TestClassifyTransportErrorDialFailureIsOffline(t *testing.T) {
	err := &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}
	if got := classifyTransportError(err); got != types.ErrorKindOffline {
		t.Fatalf("expected a dial failure to classify as offline, got %v", got)
	}
}

func TestClassifyTransportErrorDNSFailureIsOffline(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "nonexistent.example"}
	if got := classifyTransportError(err); got != types.ErrorKindOffline {
		t.Fatalf("expected a DNS failure to classify as offline, got %v", got)
	}
}

func TestClassifyTransportErrorReadResetIsTimeout(t *testing.T) {
	err := &net.OpError{Op: "read", Err: syscall.ECONNRESET}
	if got := classifyTransportError(err); got != types.ErrorKindTimeout {
		t.Fatalf("expected a mid-response read reset to classify as timeout, not offline, got %v", got)
	}
}

func TestClassifyTransportErrorDeadlineExceededIsTimeout(t *testing.T) {
	if got := classifyTransportError(context.DeadlineExceeded); got != types.ErrorKindTimeout {
		t.Fatalf("expected context.DeadlineExceeded to classify as timeout, got %v", got)
	}
}

func TestFilterKnownPredictionsDropsUnknownType(t *testing.T) {
	preds := []types.Prediction{
		{Type: types.PredictionObjectDetection},
		{Type: types.PredictionType("made_up")},
	}
	kept := filterKnownPredictions(preds, zap.NewNop(), "fixture")
	if len(kept) != 1 {
		t.Fatalf("expected unknown prediction types to be dropped, got %d", len(kept))
	}
}
