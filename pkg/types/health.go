package types

// OverallHealthStatus is the aggregate status reported by GET /health.
type OverallHealthStatus string

const (
	HealthHealthy  OverallHealthStatus = "healthy"
	HealthDegraded OverallHealthStatus = "degraded"
	HealthCritical OverallHealthStatus = "critical"
	HealthError    OverallHealthStatus = "error"
)

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status          OverallHealthStatus `json:"status"`
	HealthyServices string              `json:"healthy_services"`
	Timestamp       string              `json:"timestamp"`
}

// AnalyzerHealthStatus is the per-analyzer status reported by
// GET /services/health.
type AnalyzerHealthStatus string

const (
	AnalyzerHealthy AnalyzerHealthStatus = "healthy"
	AnalyzerOffline AnalyzerHealthStatus = "offline"
	AnalyzerError   AnalyzerHealthStatus = "error"
)

// AnalyzerHealth is one roster entry's probe result.
type AnalyzerHealth struct {
	Name           string               `json:"name"`
	Status         AnalyzerHealthStatus `json:"status"`
	ResponseTimeMS int64                `json:"response_time_ms"`
	LastCheck      string               `json:"last_check"`
}

// ServicesHealthResponse is the GET /services/health payload.
type ServicesHealthResponse struct {
	Services map[string]AnalyzerHealth `json:"services"`
	Status   OverallHealthStatus       `json:"status"`
}
