package voting

import (
	"math"
	"sort"

	"github.com/menta2k/visionmux/pkg/types"
)

// minVotes is the inclusion floor: an emoji with fewer distinct voting
// services than this never reaches the consensus list.
const minVotes = 2

// rank filters groups to those meeting the vote floor, sorts them by
// (votes desc, weight desc), and emits each as a ConsensusItem.
func rank(groups map[string]*types.EmojiGroup) []types.ConsensusItem {
	var included []*types.EmojiGroup
	for _, g := range groups {
		if g.TotalVotes >= minVotes {
			included = append(included, g)
		}
	}

	sort.SliceStable(included, func(i, j int) bool {
		a, b := included[i], included[j]
		if a.TotalVotes != b.TotalVotes {
			return a.TotalVotes > b.TotalVotes
		}
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		return a.Emoji < b.Emoji
	})

	items := make([]types.ConsensusItem, 0, len(included))
	for _, g := range included {
		items = append(items, buildConsensusItem(g))
	}
	return items
}

func buildConsensusItem(g *types.EmojiGroup) types.ConsensusItem {
	item := types.ConsensusItem{
		Emoji:          g.Emoji,
		Votes:          g.TotalVotes,
		EvidenceWeight: round2(g.Weight),
		FinalScore:     round2(g.FinalScore),
		Services:       g.VotingServices,
		Shiny:          g.Shiny,
	}
	if len(g.Validation) > 0 {
		item.Validation = g.Validation
	}
	if g.Evidence.Spatial != nil {
		item.InstancesSummary, item.BoundingBoxes = spatialSummary(g.Detections)
	}
	return item
}

func spatialSummary(ds []types.VoteDetection) ([]types.Instance, []types.BBox) {
	seen := make(map[string]bool)
	var instances []types.Instance
	var boxes []types.BBox
	for _, d := range ds {
		if d.SpatialData == nil || seen[d.SpatialData.ClusterID] {
			continue
		}
		seen[d.SpatialData.ClusterID] = true
		instances = append(instances, *d.SpatialData)
		boxes = append(boxes, d.SpatialData.MergedBBox)
	}
	return instances, boxes
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
