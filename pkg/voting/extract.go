package voting

import (
	"golang.org/x/text/unicode/norm"

	"github.com/menta2k/visionmux/pkg/types"
)

// extractDetections builds the per-emoji detection stream: one
// VoteDetection per caption emoji_mapping or direct emoji prediction,
// then folds in the clustering engine's spatial sentinels. analyzers
// fixes iteration order so extraction is reproducible across runs.
func extractDetections(analyzers []types.Analyzer, results map[types.AnalyzerID]types.AnalysisResult, clustered types.ClusteringOutput) []types.VoteDetection {
	var out []types.VoteDetection

	byID := make(map[types.AnalyzerID]types.Analyzer, len(analyzers))
	for _, a := range analyzers {
		byID[a.ID] = a
	}

	for _, a := range analyzers {
		res, ok := results[a.ID]
		if !ok || !res.OK {
			continue
		}
		seenDirect := make(map[string]bool)

		for _, p := range res.Predictions {
			if len(p.EmojiMappings) > 0 {
				seenMapping := make(map[string]bool)
				for _, m := range p.EmojiMappings {
					key := norm.NFC.String(m.Emoji)
					if key == "" || seenMapping[key] {
						continue
					}
					seenMapping[key] = true
					out = append(out, types.VoteDetection{
						Service:      a.ID,
						Emoji:        key,
						EvidenceType: types.EvidenceSemantic,
						Confidence:   defaultConfidence,
						Word:         m.Word,
						Source:       "caption_mapping",
						Shiny:        m.Shiny,
					})
				}
				continue
			}

			if p.Emoji == "" || p.Type == types.PredictionColorAnalysis {
				continue
			}
			key := norm.NFC.String(p.Emoji)
			if seenDirect[key] {
				continue
			}
			seenDirect[key] = true

			confidence := p.Confidence
			if confidence == 0 {
				confidence = defaultConfidence
			}

			out = append(out, types.VoteDetection{
				Service:         a.ID,
				Emoji:           key,
				EvidenceType:    evidenceTypeFor(a.Category),
				Confidence:      confidence,
				Label:           p.Label,
				SpecializedKind: specializedKind(a, p),
				HasPose:         p.PropertyString("pose") != "",
			})
		}
	}

	out = append(out, foldInClusteringSentinels(clustered)...)
	return out
}

// foldInClusteringSentinels emits one sentinel VoteDetection per
// surviving instance, tagged with the spatial_clustering service so it
// never counts toward a group's voting services.
func foldInClusteringSentinels(clustered types.ClusteringOutput) []types.VoteDetection {
	var sentinels []types.VoteDetection
	for _, group := range clustered.Groups {
		if group.Emoji == "" {
			continue
		}
		key := norm.NFC.String(group.Emoji)
		for i := range group.Instances {
			instance := group.Instances[i]
			sentinels = append(sentinels, types.VoteDetection{
				Service:      types.ServiceSpatialClustering,
				Emoji:        key,
				EvidenceType: types.EvidenceSpatial,
				Confidence:   instance.AvgConfidence,
				Label:        instance.Label,
				SpatialData:  &instance,
			})
		}
	}
	return sentinels
}

func evidenceTypeFor(category types.Category) types.EvidenceType {
	switch category {
	case types.CategorySpatial:
		return types.EvidenceSpatial
	case types.CategorySemantic:
		return types.EvidenceSemantic
	case types.CategorySpecialized:
		return types.EvidenceSpecialized
	default:
		return types.EvidenceOther
	}
}

// specializedKind labels which specialized service type a detection came
// from (face/nsfw/ocr/...), used to key evidence.specialized.
func specializedKind(a types.Analyzer, p types.Prediction) string {
	if a.Category != types.CategorySpecialized {
		return ""
	}
	switch p.Type {
	case types.PredictionFaceDetection:
		return "face"
	case types.PredictionContentModeration:
		return "nsfw"
	case types.PredictionTextExtraction:
		return "ocr"
	default:
		return string(a.ID)
	}
}
