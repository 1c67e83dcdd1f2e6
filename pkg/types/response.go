package types

// ProcessingMethod records how the analyzed image reached local disk.
type ProcessingMethod string

const (
	ProcessingFileUpload            ProcessingMethod = "file_upload"
	ProcessingExternalURLDownloaded  ProcessingMethod = "external_url_downloaded"
	ProcessingDirectFileAccess      ProcessingMethod = "direct_file_access"
)

// ImageData describes the image a request was run against.
type ImageData struct {
	Dimensions       *Dimensions      `json:"dimensions"`
	ProcessingMethod ProcessingMethod `json:"processing_method"`
	ImageURL         string           `json:"image_url,omitempty"`
	FilePath         string           `json:"file_path,omitempty"`
	OriginalURL      string           `json:"original_url,omitempty"`
}

// Votes wraps the ranked consensus list.
type Votes struct {
	Consensus []ConsensusItem `json:"consensus"`
}

// ServiceHealthSummary reports which analyzers degraded one request.
type ServiceHealthSummary struct {
	DegradedServices []AnalyzerID `json:"degraded_services"`
	FailedCount      int          `json:"failed_count"`
	TotalServices    int          `json:"total_services"`
}

// Response is the single JSON document returned by /analyze.
type Response struct {
	Success              bool                    `json:"success"`
	ImageID              string                  `json:"image_id"`
	AnalysisTimeSeconds  float64                 `json:"analysis_time_seconds"`
	ImageData            ImageData               `json:"image_data"`
	Votes                Votes                   `json:"votes"`
	Special              SpecialDetections       `json:"special"`
	Captions             []Caption               `json:"captions"`
	Results              map[AnalyzerID]CompactResult `json:"results"`
	ServiceHealthSummary *ServiceHealthSummary   `json:"service_health_summary,omitempty"`
}

// ErrorResponse is returned on pipeline failure (HTTP 500) or ingress
// rejection (HTTP 400).
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
