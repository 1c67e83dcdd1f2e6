package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/menta2k/visionmux/internal/config"
	"github.com/menta2k/visionmux/pkg/types"
)

// HTTPClient is the production AnalyzerClient: one shared *http.Client
// (connection pool reused across analyzers), a bounded retry policy for
// transport-level failures, and read-only variant-path resolution.
type HTTPClient struct {
	httpClient   *http.Client
	logger       *zap.Logger
	maxRetries   int
	retryBackoff time.Duration
}

// NewHTTPClient builds an HTTPClient from the shared call-tuning config.
func NewHTTPClient(call config.CallConfig, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		httpClient:   &http.Client{Timeout: call.AnalyzerTimeout},
		logger:       logger,
		maxRetries:   call.MaxRetries,
		retryBackoff: call.RetryBackoff,
	}
}

// wireResponse is the analyzer response contract of spec §6.
type wireResponse struct {
	Service     string               `json:"service"`
	Status      string               `json:"status"`
	Predictions []types.Prediction   `json:"predictions"`
	Metadata    types.ResultMetadata `json:"metadata"`
	Error       *wireError           `json:"error,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// AnalyzeURL issues GET <endpoint>?url=<u>.
func (c *HTTPClient) AnalyzeURL(ctx context.Context, analyzer types.Analyzer, imageURL string) (types.AnalysisResult, error) {
	return c.call(ctx, analyzer, "url", imageURL)
}

// AnalyzeFile issues GET <endpoint>?file=<p>, first resolving a sibling
// variant path for the analyzer's optimal size when one exists.
func (c *HTTPClient) AnalyzeFile(ctx context.Context, analyzer types.Analyzer, path string) (types.AnalysisResult, error) {
	resolved := resolveVariantPath(path, analyzer.OptimalSize)
	return c.call(ctx, analyzer, "file", resolved)
}

// resolveVariantPath probes <dir>/variants/<size>/<basename>.jpg; absence
// is not an error, the original path is returned unchanged.
func resolveVariantPath(path, optimalSize string) string {
	if optimalSize == "" || optimalSize == "original" {
		return path
	}
	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	candidate := filepath.Join(dir, "variants", optimalSize, base+".jpg")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return path
}

func (c *HTTPClient) call(ctx context.Context, analyzer types.Analyzer, param, value string) (types.AnalysisResult, error) {
	endpointURL := fmt.Sprintf("http://%s:%d%s?%s=%s", analyzer.Host, analyzer.Port, analyzer.Endpoint, param, url.QueryEscape(value))

	var result types.AnalysisResult
	// backoff.Retry returns the error wrapped by backoff.Permanent, not the
	// wrapper, so permanent failures are remembered here for classification.
	permanentFailure := false
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
		if err != nil {
			permanentFailure = true
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("analyzer call failed",
				zap.String("analyzer", string(analyzer.ID)),
				zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			permanentFailure = true
			return backoff.Permanent(fmt.Errorf("analyzer %s returned status %d", analyzer.ID, resp.StatusCode))
		}

		var wire wireResponse
		if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
			permanentFailure = true
			return backoff.Permanent(fmt.Errorf("malformed response from %s: %w", analyzer.ID, err))
		}

		if wire.Status != "success" {
			msg := "analyzer reported an error"
			if wire.Error != nil && wire.Error.Message != "" {
				msg = wire.Error.Message
			}
			result = types.AnalysisResult{OK: false, ErrorKind: types.ErrorKindService, ErrorMessage: msg}
			return nil
		}

		result = types.AnalysisResult{
			OK:          true,
			Predictions: filterKnownPredictions(wire.Predictions, c.logger, analyzer.ID),
			Metadata:    wire.Metadata,
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryBackoff), uint64(c.maxRetries)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		kind := classifyTransportError(err)
		if permanentFailure {
			kind = types.ErrorKindProtocol
		}
		c.logger.Warn("analyzer call exhausted retries",
			zap.String("analyzer", string(analyzer.ID)),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return types.AnalysisResult{OK: false, ErrorKind: kind, ErrorMessage: err.Error()}, err
	}
	return result, nil
}

// classifyTransportError separates dial-time failures (connection
// refused, DNS lookup failure) from deadline/read-reset failures, per
// the offline-vs-timeout split spec'd for the roster's health status.
func classifyTransportError(err error) types.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ErrorKindTimeout
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return types.ErrorKindProtocol
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return types.ErrorKindOffline
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return types.ErrorKindOffline
		}
		return types.ErrorKindTimeout
	}

	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, io.ErrUnexpectedEOF) {
		return types.ErrorKindTimeout
	}

	return types.ErrorKindOffline
}

func filterKnownPredictions(preds []types.Prediction, logger *zap.Logger, analyzer types.AnalyzerID) []types.Prediction {
	kept := make([]types.Prediction, 0, len(preds))
	for _, p := range preds {
		if !p.Type.IsKnown() {
			logger.Warn("dropping prediction with unknown type",
				zap.String("analyzer", string(analyzer)),
				zap.String("type", string(p.Type)))
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// Probe issues a bare GET against the analyzer's fixed health suffix and
// reports round-trip time. A single failed probe is simply "not healthy"
// — no retry.
func (c *HTTPClient) Probe(ctx context.Context, analyzer types.Analyzer) (time.Duration, error) {
	healthURL := fmt.Sprintf("http://%s:%d/health", analyzer.Host, analyzer.Port)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return elapsed, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return elapsed, fmt.Errorf("analyzer %s health endpoint returned status %d", analyzer.ID, resp.StatusCode)
	}
	return elapsed, nil
}
