package types

// EvidenceType categorizes the kind of signal a VoteDetection backs.
type EvidenceType string

const (
	EvidenceSpatial        EvidenceType = "spatial"
	EvidenceSemantic       EvidenceType = "semantic"
	EvidenceSpecialized    EvidenceType = "specialized"
	EvidenceClassification EvidenceType = "classification"
	EvidenceOther          EvidenceType = "other"
)

// ServiceSpatialClustering is the sentinel service name the clustering
// engine's fold-in detections carry. Sentinels never count toward
// VotingServices or TotalVotes.
const ServiceSpatialClustering AnalyzerID = "spatial_clustering"

// VoteDetection is one emoji vote, whether extracted directly from a
// prediction, from a caption's emoji_mappings, or folded in from the
// clustering engine as a spatial sentinel.
type VoteDetection struct {
	Service         AnalyzerID
	Emoji           string
	EvidenceType    EvidenceType
	Confidence      float64
	Label           string
	Word            string
	Source          string
	Shiny           bool
	SpecializedKind string
	HasPose         bool
	SpatialData     *Instance
}

// IsSentinel reports whether this vote was folded in from the clustering
// engine rather than contributed directly by an analyzer.
func (d VoteDetection) IsSentinel() bool {
	return d.Service == ServiceSpatialClustering
}

// SpatialEvidence summarizes spatial-category support for one emoji.
type SpatialEvidence struct {
	ServiceCount      int     `json:"service_count"`
	MaxDetectionCount int     `json:"max_detection_count"`
	AvgConfidence     float64 `json:"avg_confidence"`
	TotalInstances    int     `json:"total_instances"`
}

// SemanticEvidence summarizes semantic-category (caption) support.
type SemanticEvidence struct {
	ServiceCount int      `json:"service_count"`
	Words        []string `json:"words"`
	Sources      []string `json:"sources"`
}

// ClassificationEvidence is reserved: no analyzer in the current roster
// belongs to this category, but the evidence shape stays wired so that
// adding one only requires roster configuration.
type ClassificationEvidence struct {
	ServiceCount int      `json:"service_count"`
	Sources      []string `json:"sources"`
}

// Evidence is the full evidence summary computed for one emoji group.
type Evidence struct {
	Spatial        *SpatialEvidence               `json:"spatial,omitempty"`
	Semantic       *SemanticEvidence              `json:"semantic,omitempty"`
	Classification *ClassificationEvidence         `json:"classification,omitempty"`
	Specialized    map[string][]VoteDetection       `json:"specialized,omitempty"`
}

// EmojiGroup is every detection and vote gathered for one emoji, with its
// computed evidence summary. Built by the voting engine before curation.
type EmojiGroup struct {
	Emoji          string
	Detections     []VoteDetection
	VotingServices []AnalyzerID
	TotalVotes     int
	Evidence       Evidence
	Shiny          bool
	Weight         float64
	FinalScore     float64
	Validation     []string
}

// ConsensusItem is the final ranked entry emitted for one emoji.
type ConsensusItem struct {
	Emoji            string     `json:"emoji"`
	Votes            int        `json:"votes"`
	EvidenceWeight   float64    `json:"evidence_weight"`
	FinalScore       float64    `json:"final_score"`
	InstancesSummary []Instance `json:"instances_summary,omitempty"`
	Services         []AnalyzerID `json:"services"`
	BoundingBoxes    []BBox     `json:"bounding_boxes,omitempty"`
	Validation       []string   `json:"validation,omitempty"`
	Shiny            bool       `json:"shiny,omitempty"`
}

// SpecialDetection is one out-of-competition sidecar report.
type SpecialDetection struct {
	Detected   bool    `json:"detected"`
	Emoji      string  `json:"emoji,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Content    string  `json:"content,omitempty"`
	Pose       string  `json:"pose,omitempty"`
}

// SpecialDetections bundles the three sidecar reports.
type SpecialDetections struct {
	Text SpecialDetection `json:"text"`
	Face SpecialDetection `json:"face"`
	NSFW SpecialDetection `json:"nsfw"`
}
