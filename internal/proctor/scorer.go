package proctor

import "strings"

// Violation tags reported by the monitor. Scoring matches them by substring,
// so the literals must not change.
const (
	TagTabSwitch      = "Tab switch detected"
	TagFullscreenExit = "Exited fullscreen"
	TagRightClick     = "Right click attempt"
)

// TerminationThreshold is the cumulative score at which a session is terminated.
const TerminationThreshold = 5

// Weight returns the severity of a single violation tag.
func Weight(tag string) int {
	switch {
	case strings.Contains(tag, "Tab"):
		return 2
	case strings.Contains(tag, "fullscreen"):
		return 3
	default:
		return 1
	}
}

// Score sums the weights of every violation. Repeats are counted.
func Score(violations []string) int {
	total := 0
	for _, v := range violations {
		total += Weight(v)
	}
	return total
}

// ShouldTerminate applies the termination policy to a violation log.
func ShouldTerminate(violations []string) bool {
	return Score(violations) >= TerminationThreshold
}

// Tally is a running Score so that the policy can be checked after every
// violation without rescanning the log.
type Tally struct {
	score int
	count int
}

// Add accounts for one more violation and returns the new score and decision.
func (t *Tally) Add(tag string) (score int, terminate bool) {
	t.score += Weight(tag)
	t.count++
	return t.score, t.score >= TerminationThreshold
}

// Score is the cumulative weight so far.
func (t *Tally) Score() int { return t.score }

// Count is the number of violations seen so far.
func (t *Tally) Count() int { return t.count }
