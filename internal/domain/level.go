package domain

// CandidateLevel is the inferred difficulty tier for a candidate.
type CandidateLevel string

const (
	LevelJunior CandidateLevel = "junior"
	LevelMid    CandidateLevel = "mid"
	LevelSenior CandidateLevel = "senior"
)

// Reply-length thresholds for level classification. These are fixed product
// policy; do not tune them without revising the interview behavior.
const (
	seniorReplyLength = 200
	juniorReplyLength = 50
)

// ClassifyLevel infers a candidate level from the latest reply. Long replies
// classify senior, short replies junior, and mid-length replies leave the
// current level unchanged. Each message simply overwrites the previous value,
// so a short reply after a long one downgrades the level.
func ClassifyLevel(current CandidateLevel, message string) CandidateLevel {
	switch {
	case len(message) > seniorReplyLength:
		return LevelSenior
	case len(message) < juniorReplyLength:
		return LevelJunior
	default:
		return current
	}
}
