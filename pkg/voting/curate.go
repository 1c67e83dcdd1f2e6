package voting

import "github.com/menta2k/visionmux/pkg/types"

// curate applies the cross-emoji adjustments after every group's
// evidence weight is computed but before ranking.
func curate(groups map[string]*types.EmojiGroup) {
	person, hasPerson := groups[EmojiPerson]
	_, hasFace := groups[EmojiFace]

	if hasPerson && hasFace {
		person.Weight += 1
		person.FinalScore += 1
		person.Validation = append(person.Validation, "face_confirmed")
	}

	if hasPerson && anyPoseIndicator(groups) {
		person.Weight += 1
		person.Validation = append(person.Validation, "pose_confirmed")
	}

	if nsfw, ok := groups[EmojiNSFW]; ok {
		if hasPerson {
			nsfw.Weight += 1
			nsfw.Validation = append(nsfw.Validation, "human_context_confirmed")
		} else {
			nsfw.Weight -= 1
			nsfw.Validation = append(nsfw.Validation, "suspicious_no_humans")
		}
		if nsfw.Weight < 0 {
			nsfw.Weight = 0
		}
		if nsfw.FinalScore < 0 {
			nsfw.FinalScore = 0
		}
	}
}

// anyPoseIndicator reports whether any group carries a pose indicator in
// its specialized evidence.
func anyPoseIndicator(groups map[string]*types.EmojiGroup) bool {
	for _, g := range groups {
		for _, d := range g.Detections {
			if d.HasPose && d.EvidenceType == types.EvidenceSpecialized {
				return true
			}
		}
	}
	return false
}
