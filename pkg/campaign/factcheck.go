package campaign

// FactCheck is a player's phase-3 response to the opponent's poll.
type FactCheck string

const (
	FactCheckNone   FactCheck = ""
	FactCheckTrust  FactCheck = "trust"
	FactCheckDoubt  FactCheck = "doubt"
	FactCheckAccuse FactCheck = "accuse"
)

// Challenge thresholds. A challenge succeeds when the poll misses the true
// value by at least the threshold, and the same amount is the penalty.
const (
	DoubtThreshold  = 0.025
	AccuseThreshold = 0.05
)

// thresholdEpsilon absorbs float error when a miss lands exactly on a
// threshold (0.625 - 0.6 is not exactly 0.025).
const thresholdEpsilon = 1e-9

// Valid reports whether k is one of trust, doubt or accuse.
func (k FactCheck) Valid() bool {
	return k == FactCheckTrust || k == FactCheckDoubt || k == FactCheckAccuse
}

// Threshold returns the miss needed for the challenge to succeed, which is
// also its penalty. Trust and none have no threshold.
func (k FactCheck) Threshold() float64 {
	switch k {
	case FactCheckDoubt:
		return DoubtThreshold
	case FactCheckAccuse:
		return AccuseThreshold
	}
	return 0
}

// ChallengeSucceeds reports whether a doubt or accuse against pollPercent
// holds up against truePercent.
func ChallengeSucceeds(kind FactCheck, truePercent, pollPercent float64) bool {
	threshold := kind.Threshold()
	if threshold == 0 {
		return false
	}
	diff := pollPercent - truePercent
	if diff < 0 {
		diff = -diff
	}
	return diff >= threshold-thresholdEpsilon
}

// ResolveFactCheck returns the change to red public opinion caused by
// acting challenging its opponent's poll. On success the acting color gains
// the penalty and the challenged color loses it; on failure the reverse.
// Trust and none resolve to 0.
func ResolveFactCheck(kind FactCheck, truePercent, pollPercent float64, acting Color) float64 {
	penalty := kind.Threshold()
	if penalty == 0 || !acting.Valid() {
		return 0
	}
	gain := penalty
	if !ChallengeSucceeds(kind, truePercent, pollPercent) {
		gain = -penalty
	}
	if acting == Blue {
		return -gain
	}
	return gain
}
