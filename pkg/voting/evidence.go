package voting

import (
	"sort"

	"github.com/menta2k/visionmux/pkg/types"
)

// group builds one EmojiGroup per distinct emoji in the detection
// stream, with its evidence summary and pre-curation weight/score.
func group(detections []types.VoteDetection) map[string]*types.EmojiGroup {
	byEmoji := make(map[string][]types.VoteDetection)
	for _, d := range detections {
		byEmoji[d.Emoji] = append(byEmoji[d.Emoji], d)
	}

	groups := make(map[string]*types.EmojiGroup, len(byEmoji))
	for emoji, ds := range byEmoji {
		g := &types.EmojiGroup{Emoji: emoji, Detections: ds}
		g.VotingServices = votingServices(ds)
		g.TotalVotes = len(g.VotingServices)
		g.Evidence = buildEvidence(ds)
		g.Shiny = anyShiny(ds)
		weight, score := evidenceWeight(g)
		g.Weight = weight
		g.FinalScore = score
		groups[emoji] = g
	}
	return groups
}

func votingServices(ds []types.VoteDetection) []types.AnalyzerID {
	seen := make(map[types.AnalyzerID]bool)
	var services []types.AnalyzerID
	for _, d := range ds {
		if d.IsSentinel() || seen[d.Service] {
			continue
		}
		seen[d.Service] = true
		services = append(services, d.Service)
	}
	sort.Slice(services, func(i, j int) bool { return services[i] < services[j] })
	return services
}

func anyShiny(ds []types.VoteDetection) bool {
	for _, d := range ds {
		if d.Shiny {
			return true
		}
	}
	return false
}

func buildEvidence(ds []types.VoteDetection) types.Evidence {
	var spatial []types.VoteDetection
	var semantic []types.VoteDetection
	var classification []types.VoteDetection
	specialized := make(map[string][]types.VoteDetection)

	for _, d := range ds {
		switch d.EvidenceType {
		case types.EvidenceSpatial:
			spatial = append(spatial, d)
		case types.EvidenceSemantic:
			semantic = append(semantic, d)
		case types.EvidenceClassification:
			classification = append(classification, d)
		case types.EvidenceSpecialized:
			specialized[d.SpecializedKind] = append(specialized[d.SpecializedKind], d)
		}
	}

	ev := types.Evidence{}
	if len(spatial) > 0 {
		ev.Spatial = buildSpatialEvidence(spatial)
	}
	if len(semantic) > 0 {
		ev.Semantic = buildSemanticEvidence(semantic)
	}
	if len(classification) > 0 {
		ev.Classification = buildClassificationEvidence(classification)
	}
	if len(specialized) > 0 {
		ev.Specialized = specialized
	}
	return ev
}

func buildSpatialEvidence(ds []types.VoteDetection) *types.SpatialEvidence {
	seen := make(map[types.AnalyzerID]bool)
	maxCount := 0
	totalInstances := 0
	var sumConf float64

	for _, d := range ds {
		if !d.IsSentinel() {
			seen[d.Service] = true
		}
		sumConf += d.Confidence
		if d.SpatialData != nil {
			totalInstances++
			if d.SpatialData.DetectionCount > maxCount {
				maxCount = d.SpatialData.DetectionCount
			}
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	return &types.SpatialEvidence{
		ServiceCount:      len(seen),
		MaxDetectionCount: maxCount,
		AvgConfidence:     sumConf / float64(len(ds)),
		TotalInstances:    totalInstances,
	}
}

func buildSemanticEvidence(ds []types.VoteDetection) *types.SemanticEvidence {
	seen := make(map[types.AnalyzerID]bool)
	var words, sources []string
	for _, d := range ds {
		seen[d.Service] = true
		if d.Word != "" {
			words = append(words, d.Word)
		}
		if d.Source != "" {
			sources = append(sources, d.Source)
		}
	}
	return &types.SemanticEvidence{ServiceCount: len(seen), Words: words, Sources: sources}
}

func buildClassificationEvidence(ds []types.VoteDetection) *types.ClassificationEvidence {
	seen := make(map[types.AnalyzerID]bool)
	var sources []string
	for _, d := range ds {
		seen[d.Service] = true
		if d.Source != "" {
			sources = append(sources, d.Source)
		}
	}
	return &types.ClassificationEvidence{ServiceCount: len(seen), Sources: sources}
}

// evidenceWeight computes the pre-curation weight and final score for one
// group: weight = total_votes + spatial_consensus_bonus +
// content_consensus_bonus; final_score = total_votes + weight.
func evidenceWeight(g *types.EmojiGroup) (weight, score float64) {
	spatialBonus := 0
	if g.Evidence.Spatial != nil {
		spatialBonus = max(0, g.Evidence.Spatial.MaxDetectionCount-1)
	}

	semanticCount := 0
	if g.Evidence.Semantic != nil {
		semanticCount = g.Evidence.Semantic.ServiceCount
	}
	classificationCount := 0
	if g.Evidence.Classification != nil {
		classificationCount = g.Evidence.Classification.ServiceCount
	}
	contentBonus := 0
	if sum := semanticCount + classificationCount - 1; sum >= 2 {
		contentBonus = sum
	}

	weight = float64(g.TotalVotes + spatialBonus + contentBonus)
	score = float64(g.TotalVotes) + weight
	return weight, score
}
