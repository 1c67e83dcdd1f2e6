package types

// ErrorKind classifies why an analyzer call did not succeed.
type ErrorKind string

const (
	ErrorKindNone     ErrorKind = ""
	ErrorKindOffline  ErrorKind = "offline"
	ErrorKindTimeout  ErrorKind = "timeout"
	ErrorKindProtocol ErrorKind = "protocol"
	ErrorKindService  ErrorKind = "service"
)

// ResultMetadata carries the analyzer-reported processing time and,
// optionally, the resolution the analyzer actually processed the image
// at — present only when it differs from the original and needed for
// bbox rescaling.
type ResultMetadata struct {
	ProcessingTimeSeconds float64 `json:"processing_time_seconds"`
	ProcessingWidth       int     `json:"processing_width,omitempty"`
	ProcessingHeight      int     `json:"processing_height,omitempty"`
}

// HasProcessingDims reports whether the analyzer reported the resolution
// it actually processed the image at.
func (m ResultMetadata) HasProcessingDims() bool {
	return m.ProcessingWidth > 0 && m.ProcessingHeight > 0
}

// AnalysisResult is one analyzer's outcome for one image.
//
// Invariant: OK == false implies Predictions is empty.
type AnalysisResult struct {
	OK           bool           `json:"ok"`
	Predictions  []Prediction   `json:"predictions"`
	Metadata     ResultMetadata `json:"metadata"`
	ErrorKind    ErrorKind      `json:"error_kind,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
}

// CompactResult is the per-service result shape retained in the final
// response's results{} block.
type CompactResult struct {
	OK         bool           `json:"ok"`
	Status     string         `json:"status"`
	Predictions []Prediction  `json:"predictions"`
	Metadata   ResultMetadata `json:"metadata"`
}

// ServiceStatusKind is the status reported for one analyzer in a request.
type ServiceStatusKind string

const (
	StatusSuccess ServiceStatusKind = "success"
	StatusTimeout ServiceStatusKind = "timeout"
	StatusOffline ServiceStatusKind = "offline"
	StatusError   ServiceStatusKind = "error"
)

// ServiceStatus summarizes one analyzer's participation in one request.
type ServiceStatus struct {
	ServiceID        AnalyzerID        `json:"service_id"`
	Status           ServiceStatusKind `json:"status"`
	ProcessingTimeMS int64             `json:"processing_time_ms"`
	PredictionCount  int               `json:"prediction_count"`
	ErrorMessage     string            `json:"error_message,omitempty"`
}
