// Package clustering implements the bounding-box engine: it rescales
// detections into a shared coordinate space, clusters them across
// services by IoU, deduplicates within-service, filters low-confidence
// singletons, and emits ranked instances per emoji.
//
// Cluster is a pure function of its inputs — no I/O, no shared mutable
// state — so it can run directly inside the request goroutine and be
// exercised from tests without a fixture server.
package clustering

import (
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/menta2k/visionmux/pkg/types"
)

// anchorIoUThreshold is the strict lower bound (exclusive) two detections'
// IoU must clear, measured against the cluster anchor only, to join a
// cluster.
const anchorIoUThreshold = 0.30

// singletonConfidenceFloor is the "shout" threshold: a cluster left with
// one member after dedup survives only if that member clears this
// confidence.
const singletonConfidenceFloor = 0.85

// Cluster runs the full bounding-box pipeline over one image's analyzer
// results and image dimensions. analyzers fixes the iteration order
// (configuration order) so tie resolution is reproducible regardless of
// completion order in the map.
func Cluster(analyzers []types.Analyzer, results map[types.AnalyzerID]types.AnalysisResult, dims *types.Dimensions, logger *zap.Logger) types.ClusteringOutput {
	detections := extract(analyzers, results, dims)
	byKey := make(map[string][]types.Detection)
	keyMeta := make(map[string]struct {
		label string
		emoji string
		typ   types.PredictionType
	})

	for _, d := range detections {
		key := groupKey(d)
		byKey[key] = append(byKey[key], d)
		if _, ok := keyMeta[key]; !ok {
			keyMeta[key] = struct {
				label string
				emoji string
				typ   types.PredictionType
			}{label: d.Label, emoji: d.Emoji, typ: d.Type}
		}
	}

	groups := make(map[string]types.GroupedEmoji, len(byKey))
	var allDetections []types.Detection

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		keyDetections := byKey[key]
		meta := keyMeta[key]
		rawClusters := clusterByAnchor(keyDetections)
		cleaned := make([][]types.Detection, 0, len(rawClusters))
		for _, c := range rawClusters {
			deduped := dedupSameService(c, logger)
			if len(deduped) == 1 && deduped[0].Confidence < singletonConfidenceFloor {
				continue
			}
			cleaned = append(cleaned, deduped)
		}

		scored := scoreAndSort(cleaned)
		instances := make([]types.Instance, 0, len(scored))
		for i, c := range scored {
			instances = append(instances, buildInstance(meta.label, meta.emoji, i+1, c))
			allDetections = append(allDetections, c...)
		}

		groups[key] = types.GroupedEmoji{
			Label:      meta.label,
			Emoji:      meta.emoji,
			Type:       meta.typ,
			Detections: keyDetections,
			Instances:  instances,
		}
	}

	return types.ClusteringOutput{Groups: groups, AllDetections: allDetections}
}

// extract collects every bbox-bearing prediction across all analyzers
// into a Detection, rescaling coordinates into the shared image space.
func extract(analyzers []types.Analyzer, results map[types.AnalyzerID]types.AnalysisResult, dims *types.Dimensions) []types.Detection {
	var out []types.Detection
	for _, a := range analyzers {
		serviceID := a.ID
		res, ok := results[serviceID]
		if !ok || !res.OK {
			continue
		}
		for _, p := range res.Predictions {
			if !p.HasBBox() {
				continue
			}
			original := *p.BBox
			out = append(out, types.Detection{
				ServiceID:    serviceID,
				Label:        p.Label,
				Emoji:        p.Emoji,
				Type:         p.Type,
				Confidence:   p.Confidence,
				OriginalBBox: original,
				BBoxScaled:   rescale(original, res.Metadata, dims),
			})
		}
	}
	return out
}

// rescale transforms a bbox into the original image's coordinate space.
// It is the identity unless the analyzer reported its own processing
// dimensions and the original dimensions are known.
func rescale(b types.BBox, meta types.ResultMetadata, dims *types.Dimensions) types.BBox {
	if dims == nil || !meta.HasProcessingDims() {
		return b
	}
	scaleX := float64(dims.Width) / float64(meta.ProcessingWidth)
	scaleY := float64(dims.Height) / float64(meta.ProcessingHeight)
	return types.BBox{
		X:      int(math.Round(float64(b.X) * scaleX)),
		Y:      int(math.Round(float64(b.Y) * scaleY)),
		Width:  int(math.Round(float64(b.Width) * scaleX)),
		Height: int(math.Round(float64(b.Height) * scaleY)),
	}
}

// groupKey normalizes the grouping key for one detection: "face" for
// face detections, otherwise the NFC-normalized emoji string so that
// variation-selector and ZWJ-sequence differences don't split groups.
func groupKey(d types.Detection) string {
	if d.Type == types.PredictionFaceDetection {
		return "face"
	}
	return norm.NFC.String(d.Emoji)
}

// clusterByAnchor implements initial-anchor clustering: walk detections
// in input order; each unused detection starts a new cluster anchored at
// itself; later unused detections join iff their IoU against the anchor
// (never against any other member) exceeds the threshold. This
// deliberately avoids transitive chaining.
func clusterByAnchor(detections []types.Detection) [][]types.Detection {
	used := make([]bool, len(detections))
	var clusters [][]types.Detection

	for i := range detections {
		if used[i] {
			continue
		}
		anchor := detections[i]
		used[i] = true
		cluster := []types.Detection{anchor}

		for j := i + 1; j < len(detections); j++ {
			if used[j] {
				continue
			}
			if anchor.BBoxScaled.IoU(detections[j].BBoxScaled) > anchorIoUThreshold {
				cluster = append(cluster, detections[j])
				used[j] = true
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}

// dedupSameService keeps only the highest-confidence detection per
// service within a cluster.
func dedupSameService(cluster []types.Detection, logger *zap.Logger) []types.Detection {
	bestByService := make(map[types.AnalyzerID]types.Detection)
	order := make([]types.AnalyzerID, 0, len(cluster))

	for _, d := range cluster {
		existing, ok := bestByService[d.ServiceID]
		if !ok {
			bestByService[d.ServiceID] = d
			order = append(order, d.ServiceID)
			continue
		}
		logger.Warn("dropping duplicate same-service detection in cluster",
			zap.String("service", string(d.ServiceID)),
			zap.String("emoji", d.Emoji))
		if d.Confidence > existing.Confidence {
			bestByService[d.ServiceID] = d
		}
	}

	deduped := make([]types.Detection, 0, len(order))
	for _, id := range order {
		deduped = append(deduped, bestByService[id])
	}
	return deduped
}

// scoreAndSort orders surviving clusters by
// score = 2*|cluster| + 3*avg_confidence + 1*log10(max(1, avg_area)),
// descending.
func scoreAndSort(clusters [][]types.Detection) [][]types.Detection {
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusterScore(clusters[i]) > clusterScore(clusters[j])
	})
	return clusters
}

func clusterScore(cluster []types.Detection) float64 {
	n := float64(len(cluster))
	var sumConf, sumArea float64
	for _, d := range cluster {
		sumConf += d.Confidence
		sumArea += float64(d.BBoxScaled.Area())
	}
	avgConf := sumConf / n
	avgArea := sumArea / n
	return 2*n + 3*avgConf + math.Log10(math.Max(1, avgArea))
}

func buildInstance(label, emoji string, rank int, cluster []types.Detection) types.Instance {
	merged := cluster[0].BBoxScaled
	var sumConf float64
	members := make([]types.InstanceMember, 0, len(cluster))
	for _, d := range cluster {
		merged = merged.Union(d.BBoxScaled)
		sumConf += d.Confidence
		members = append(members, types.InstanceMember{Service: d.ServiceID, Confidence: d.Confidence})
	}

	return types.Instance{
		ClusterID:      clusterID(label, rank),
		Emoji:          emoji,
		Label:          label,
		MergedBBox:     merged,
		DetectionCount: len(cluster),
		AvgConfidence:  round3(sumConf / float64(len(cluster))),
		Detections:     members,
	}
}

func clusterID(label string, rank int) string {
	if label == "" {
		label = "object"
	}
	return label + "_" + strconv.Itoa(rank)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
