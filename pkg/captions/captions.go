// Package captions aggregates caption-bearing predictions, optionally
// scoring each against the image via the similarity analyzer.
package captions

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/menta2k/visionmux/internal/config"
	"github.com/menta2k/visionmux/pkg/types"
)

// stopwords are excluded from the meaningful-word count.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "on": true, "in": true,
	"at": true, "with": true, "and": true, "or": true, "is": true, "are": true,
	"to": true, "for": true, "it": true, "this": true, "that": true, "its": true,
}

// Scorer calls the similarity analyzer; a fixture or the real HTTP
// implementation can satisfy it.
type Scorer interface {
	Score(ctx context.Context, imageURL, imageFile, caption string) (float64, error)
}

// Aggregator picks the first caption from each caption-producing
// analyzer and optionally scores it.
type Aggregator struct {
	scorer Scorer
	logger *zap.Logger
}

// New builds an Aggregator. scorer may be nil, in which case captions are
// emitted with a nil ClipSimilarity.
func New(scorer Scorer, logger *zap.Logger) *Aggregator {
	return &Aggregator{scorer: scorer, logger: logger}
}

// Aggregate builds one Caption per caption-producing analyzer with ok
// results, in roster order, and sorts the output per the tie-break rule.
func (a *Aggregator) Aggregate(ctx context.Context, analyzers []types.Analyzer, results map[types.AnalyzerID]types.AnalysisResult, imageURL, imageFile string) []types.Caption {
	var out []types.Caption

	for _, analyzer := range analyzers {
		if analyzer.Category != types.CategorySemantic {
			continue
		}
		res, ok := results[analyzer.ID]
		if !ok || !res.OK {
			continue
		}
		text := firstCaption(res.Predictions)
		if text == "" {
			continue
		}

		caption := types.Caption{Service: analyzer.ID, Original: text, Words: meaningfulWordCount(text)}
		if a.scorer != nil {
			score, err := a.scorer.Score(ctx, imageURL, imageFile, text)
			if err != nil {
				a.logger.Warn("similarity scoring failed",
					zap.String("analyzer", string(analyzer.ID)),
					zap.Error(err))
			} else {
				caption.ClipSimilarity = &score
			}
		}
		out = append(out, caption)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessCaption(out[i], out[j])
	})
	return out
}

// lessCaption orders captions higher similarity first, then fewer
// meaningful words; captions with no similarity score sort last.
func lessCaption(a, b types.Caption) bool {
	if (a.ClipSimilarity == nil) != (b.ClipSimilarity == nil) {
		return a.ClipSimilarity != nil
	}
	if a.ClipSimilarity != nil && *a.ClipSimilarity != *b.ClipSimilarity {
		return *a.ClipSimilarity > *b.ClipSimilarity
	}
	return a.Words < b.Words
}

func firstCaption(predictions []types.Prediction) string {
	for _, p := range predictions {
		if p.Type == types.PredictionCaption && p.Text != "" {
			return p.Text
		}
	}
	return ""
}

func meaningfulWordCount(caption string) int {
	count := 0
	for _, word := range strings.Fields(caption) {
		cleaned := strings.ToLower(strings.Trim(word, ".,!?;:\"'"))
		if cleaned == "" || stopwords[cleaned] {
			continue
		}
		count++
	}
	return count
}

// HTTPScorer calls the similarity analyzer's /v3/score endpoint.
type HTTPScorer struct {
	cfg config.SimilarityConfig
}

// NewHTTPScorer builds a Scorer from the similarity analyzer config.
func NewHTTPScorer(cfg config.SimilarityConfig) *HTTPScorer {
	return &HTTPScorer{cfg: cfg}
}

// Score is implemented in similarity.go; declared here to keep the
// Scorer contract next to its caller.
var _ Scorer = (*HTTPScorer)(nil)
