package voting

import (
	"github.com/menta2k/visionmux/pkg/types"
)

// Output bundles everything the voting engine produces for one request.
type Output struct {
	Consensus []types.ConsensusItem
	Special   types.SpecialDetections
}

// Vote runs the full voting pipeline: detection extraction (including
// the clustering engine's sentinels), grouping and evidence, curation,
// and ranking. It never re-clusters — clustered is consumed as already
// computed, per the single-source-of-truth contract with the
// bounding-box engine.
func Vote(analyzers []types.Analyzer, results map[types.AnalyzerID]types.AnalysisResult, clustered types.ClusteringOutput) Output {
	detections := extractDetections(analyzers, results, clustered)
	groups := group(detections)
	curate(groups)
	consensus := rank(groups)
	special := extractSpecial(analyzers, results)

	return Output{Consensus: consensus, Special: special}
}
