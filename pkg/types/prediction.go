package types

// PredictionType is the tag discriminating the eight prediction variants
// an analyzer may return. Validation at the analyzer-client boundary
// rejects any tag outside this set.
type PredictionType string

const (
	PredictionObjectDetection    PredictionType = "object_detection"
	PredictionClassification     PredictionType = "classification"
	PredictionCaption            PredictionType = "caption"
	PredictionColorAnalysis      PredictionType = "color_analysis"
	PredictionFaceDetection      PredictionType = "face_detection"
	PredictionContentModeration  PredictionType = "content_moderation"
	PredictionTextExtraction     PredictionType = "text_extraction"
	PredictionMetadataExtraction PredictionType = "metadata_extraction"
)

// knownPredictionTypes backs IsKnown; kept as a set literal rather than a
// switch so adding a ninth variant is a one-line change.
var knownPredictionTypes = map[PredictionType]bool{
	PredictionObjectDetection:    true,
	PredictionClassification:    true,
	PredictionCaption:            true,
	PredictionColorAnalysis:      true,
	PredictionFaceDetection:      true,
	PredictionContentModeration:  true,
	PredictionTextExtraction:     true,
	PredictionMetadataExtraction: true,
}

// IsKnown reports whether t is one of the eight variants this system
// understands.
func (t PredictionType) IsKnown() bool {
	return knownPredictionTypes[t]
}

// BBox is an integer pixel rectangle in some analyzer's working
// coordinate space (before rescaling) or the shared image coordinate
// space (after rescaling).
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Area returns the bbox's pixel area.
func (b BBox) Area() int {
	return b.Width * b.Height
}

// Union returns the axis-aligned bounding box covering both b and o.
func (b BBox) Union(o BBox) BBox {
	x0 := min(b.X, o.X)
	y0 := min(b.Y, o.Y)
	x1 := max(b.X+b.Width, o.X+o.Width)
	y1 := max(b.Y+b.Height, o.Y+o.Height)
	return BBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Contains reports whether b fully covers o.
func (b BBox) Contains(o BBox) bool {
	return o.X >= b.X && o.Y >= b.Y &&
		o.X+o.Width <= b.X+b.Width &&
		o.Y+o.Height <= b.Y+b.Height
}

// IoU computes the intersection-over-union of two bboxes.
func (b BBox) IoU(o BBox) float64 {
	ix0, iy0 := max(b.X, o.X), max(b.Y, o.Y)
	ix1, iy1 := min(b.X+b.Width, o.X+o.Width), min(b.Y+b.Height, o.Y+o.Height)
	iw, ih := ix1-ix0, iy1-iy0
	if iw <= 0 || ih <= 0 {
		return 0
	}
	intersection := float64(iw * ih)
	union := float64(b.Area() + o.Area() - iw*ih)
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// EmojiMapping is one word→emoji entry attached to a caption prediction.
type EmojiMapping struct {
	Word  string `json:"word"`
	Emoji string `json:"emoji"`
	Shiny bool   `json:"shiny,omitempty"`
}

// Prediction is the sum-typed record an analyzer returns, one per
// detected object/label/caption/etc. Shared fields live at the top
// level; per-variant payloads live in Properties.
type Prediction struct {
	Type          PredictionType         `json:"type"`
	Label         string                 `json:"label,omitempty"`
	Emoji         string                 `json:"emoji,omitempty"`
	Confidence    float64                `json:"confidence"`
	BBox          *BBox                  `json:"bbox,omitempty"`
	Text          string                 `json:"text,omitempty"`
	Value         string                 `json:"value,omitempty"`
	EmojiMappings []EmojiMapping         `json:"emoji_mappings,omitempty"`
	Properties    map[string]interface{} `json:"properties,omitempty"`
}

// HasBBox reports whether this prediction carries a bounding box.
func (p Prediction) HasBBox() bool {
	return p.BBox != nil
}

// PropertyBool reads a boolean property, defaulting to false when absent
// or not a bool.
func (p Prediction) PropertyBool(key string) bool {
	if p.Properties == nil {
		return false
	}
	v, ok := p.Properties[key].(bool)
	return ok && v
}

// PropertyString reads a string property, defaulting to "" when absent.
func (p Prediction) PropertyString(key string) string {
	if p.Properties == nil {
		return ""
	}
	v, _ := p.Properties[key].(string)
	return v
}
