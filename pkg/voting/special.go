package voting

import "github.com/menta2k/visionmux/pkg/types"

// extractSpecial produces the three out-of-competition sidecars,
// independent of voting.
func extractSpecial(analyzers []types.Analyzer, results map[types.AnalyzerID]types.AnalysisResult) types.SpecialDetections {
	special := types.SpecialDetections{}

	for _, a := range analyzers {
		res, ok := results[a.ID]
		if !ok || !res.OK {
			continue
		}
		for _, p := range res.Predictions {
			switch {
			case p.Type == types.PredictionTextExtraction && p.PropertyBool("has_text") && !special.Text.Detected:
				special.Text = types.SpecialDetection{Detected: true, Emoji: p.Emoji, Confidence: p.Confidence, Content: p.Text}
			case p.Type == types.PredictionFaceDetection && p.Emoji == EmojiFace && !special.Face.Detected:
				special.Face = types.SpecialDetection{Detected: true, Emoji: p.Emoji, Confidence: p.Confidence, Pose: p.PropertyString("pose")}
			case p.Type == types.PredictionContentModeration && p.Emoji == EmojiNSFW && !special.NSFW.Detected:
				special.NSFW = types.SpecialDetection{Detected: true, Emoji: p.Emoji, Confidence: p.Confidence}
			}
		}
	}

	return special
}
