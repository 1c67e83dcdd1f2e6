// Package voting implements the emoji consensus engine: per-emoji
// detection extraction (including the clustering engine's spatial
// sentinels), evidence-weighted scoring, cross-emoji curation, ranking,
// and special-detection extraction.
package voting

// Emoji constants are built from Unicode code points, never from
// source-text literals, since raw-byte emoji comparisons have a history
// of surfacing mis-encoded constants.
const (
	EmojiPerson = "\U0001F9D1" // 🧑 person
	EmojiFace   = "\U0001F464" // 👤 bust in silhouette
	EmojiNSFW   = "\U0001F51E" // 🔞 no one under eighteen
)

// defaultConfidence backs votes that have no analyzer-reported
// confidence (caption mappings, and direct-emoji predictions that
// omitted one).
const defaultConfidence = 0.75
