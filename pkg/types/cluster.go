package types

// Detection is the unit the clustering engine consumes: one bbox-bearing
// prediction, rescaled into the shared image coordinate space.
type Detection struct {
	ServiceID    AnalyzerID     `json:"service_id"`
	Label        string         `json:"label"`
	Emoji        string         `json:"emoji"`
	Type         PredictionType `json:"type"`
	Confidence   float64        `json:"confidence"`
	BBoxScaled   BBox           `json:"bbox_scaled"`
	OriginalBBox BBox           `json:"original_bbox"`
}

// InstanceMember records one analyzer's contribution to an Instance.
type InstanceMember struct {
	Service    AnalyzerID `json:"service"`
	Confidence float64    `json:"confidence"`
}

// Instance is one ranked cluster of Detections inferred to describe the
// same physical object, emitted by the bounding-box engine.
//
// Invariants: len(Detections) >= 1; MergedBBox contains every member's
// bbox.
type Instance struct {
	ClusterID      string           `json:"cluster_id"`
	Emoji          string           `json:"emoji"`
	Label          string           `json:"label"`
	MergedBBox     BBox             `json:"merged_bbox"`
	DetectionCount int              `json:"detection_count"`
	AvgConfidence  float64          `json:"avg_confidence"`
	Detections     []InstanceMember `json:"detections"`
}

// GroupedEmoji is the bounding-box engine's per-key output: every
// Detection extracted for that key, and the Instances they clustered
// into after cleaning.
type GroupedEmoji struct {
	Label      string         `json:"label"`
	Emoji      string         `json:"emoji"`
	Type       PredictionType `json:"type"`
	Detections []Detection    `json:"detections"`
	Instances  []Instance     `json:"instances"`
}

// ClusteringOutput is the full result of running the bounding-box engine
// over one image's analyzer results.
type ClusteringOutput struct {
	Groups        map[string]GroupedEmoji `json:"groups"`
	AllDetections []Detection             `json:"all_detections"`
}
