package voting

import (
	"testing"

	"github.com/menta2k/visionmux/pkg/types"
)

func analyzer(id types.AnalyzerID, cat types.Category) types.Analyzer {
	return types.Analyzer{ID: id, Category: cat}
}

func TestVoteRequiresMinimumTwoVotes(t *testing.T) {
	analyzers := []types.Analyzer{analyzer("yolo", types.CategorySpatial)}
	results := map[types.AnalyzerID]types.AnalysisResult{
		"yolo": {OK: true, Predictions: []types.Prediction{
			{Type: types.PredictionObjectDetection, Emoji: "\U0001F408", Confidence: 0.9},
		}},
	}

	out := Vote(analyzers, results, types.ClusteringOutput{})

	if len(out.Consensus) != 0 {
		t.Fatalf("expected no consensus entries below the vote floor, got %d", len(out.Consensus))
	}
}

func TestVoteIncludesEmojiWithTwoDistinctServices(t *testing.T) {
	analyzers := []types.Analyzer{
		analyzer("yolo", types.CategorySpatial),
		analyzer("blip", types.CategorySemantic),
	}
	results := map[types.AnalyzerID]types.AnalysisResult{
		"yolo": {OK: true, Predictions: []types.Prediction{
			{Type: types.PredictionObjectDetection, Emoji: "\U0001F408", Confidence: 0.9},
		}},
		"blip": {OK: true, Predictions: []types.Prediction{
			{Type: types.PredictionCaption, Text: "a cat on a mat", EmojiMappings: []types.EmojiMapping{
				{Word: "cat", Emoji: "\U0001F408"},
			}},
		}},
	}

	out := Vote(analyzers, results, types.ClusteringOutput{})

	if len(out.Consensus) != 1 {
		t.Fatalf("expected exactly one consensus entry, got %d", len(out.Consensus))
	}
	if out.Consensus[0].Votes != 2 {
		t.Fatalf("expected 2 votes, got %d", out.Consensus[0].Votes)
	}
}

func TestVoteSentinelsDoNotCountAsVotingServices(t *testing.T) {
	analyzers := []types.Analyzer{analyzer("yolo", types.CategorySpatial)}
	results := map[types.AnalyzerID]types.AnalysisResult{
		"yolo": {OK: true, Predictions: []types.Prediction{
			{Type: types.PredictionObjectDetection, Emoji: "\U0001F408", Confidence: 0.9},
		}},
	}
	clustered := types.ClusteringOutput{Groups: map[string]types.GroupedEmoji{
		"\U0001F408": {Emoji: "\U0001F408", Instances: []types.Instance{
			{ClusterID: "cat_1", AvgConfidence: 0.9, DetectionCount: 1},
		}},
	}}

	out := Vote(analyzers, results, clustered)

	if len(out.Consensus) != 0 {
		t.Fatalf("a single real service plus a spatial sentinel must not clear the vote floor, got %d entries", len(out.Consensus))
	}
}

func TestCurateFaceConfirmedBoostsPersonWeightAndScore(t *testing.T) {
	analyzers := []types.Analyzer{
		analyzer("yolo", types.CategorySpatial),
		analyzer("clip", types.CategorySpatial),
		analyzer("detectron2", types.CategorySpatial),
		analyzer("face", types.CategorySpecialized),
	}
	results := map[types.AnalyzerID]types.AnalysisResult{
		"yolo":       {OK: true, Predictions: []types.Prediction{{Type: types.PredictionObjectDetection, Emoji: EmojiPerson, Confidence: 0.9}}},
		"clip":       {OK: true, Predictions: []types.Prediction{{Type: types.PredictionObjectDetection, Emoji: EmojiPerson, Confidence: 0.9}}},
		"detectron2": {OK: true, Predictions: []types.Prediction{{Type: types.PredictionObjectDetection, Emoji: EmojiPerson, Confidence: 0.9}}},
		"face":       {OK: true, Predictions: []types.Prediction{{Type: types.PredictionFaceDetection, Emoji: EmojiFace, Confidence: 0.9}}},
	}

	withoutFace := Vote(analyzers[:3], map[types.AnalyzerID]types.AnalysisResult{
		"yolo": results["yolo"], "clip": results["clip"], "detectron2": results["detectron2"],
	}, types.ClusteringOutput{})
	withFace := Vote(analyzers, results, types.ClusteringOutput{})

	personWithout := findConsensus(withoutFace.Consensus, EmojiPerson)
	personWith := findConsensus(withFace.Consensus, EmojiPerson)
	if personWithout == nil || personWith == nil {
		t.Fatalf("expected a person consensus entry in both runs")
	}
	if personWith.EvidenceWeight <= personWithout.EvidenceWeight {
		t.Fatalf("expected face_confirmed to raise person's weight: without=%v with=%v", personWithout.EvidenceWeight, personWith.EvidenceWeight)
	}
	if !contains(personWith.Validation, "face_confirmed") {
		t.Fatalf("expected face_confirmed validation tag, got %v", personWith.Validation)
	}
}

func TestCurateNSFWWithoutHumansIsPenalized(t *testing.T) {
	analyzers := []types.Analyzer{
		analyzer("nsfw", types.CategorySpecialized),
		analyzer("clip", types.CategorySpatial),
	}
	results := map[types.AnalyzerID]types.AnalysisResult{
		"nsfw": {OK: true, Predictions: []types.Prediction{{Type: types.PredictionContentModeration, Emoji: EmojiNSFW, Confidence: 0.8}}},
		"clip": {OK: true, Predictions: []types.Prediction{{Type: types.PredictionObjectDetection, Emoji: EmojiNSFW, Confidence: 0.8}}},
	}

	out := Vote(analyzers, results, types.ClusteringOutput{})
	item := findConsensus(out.Consensus, EmojiNSFW)
	if item == nil {
		t.Fatalf("expected an NSFW consensus entry")
	}
	if !contains(item.Validation, "suspicious_no_humans") {
		t.Fatalf("expected suspicious_no_humans validation tag, got %v", item.Validation)
	}
	if item.EvidenceWeight < 0 {
		t.Fatalf("expected weight to be clamped at 0, got %v", item.EvidenceWeight)
	}
}

func findConsensus(items []types.ConsensusItem, emoji string) *types.ConsensusItem {
	for i := range items {
		if items[i].Emoji == emoji {
			return &items[i]
		}
	}
	return nil
}

func contains(items []string, v string) bool {
	for _, s := range items {
		if s == v {
			return true
		}
	}
	return false
}
