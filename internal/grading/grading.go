// Package grading scores multiple-choice answers against an answer key.
package grading

// Score counts the positions whose answer equals the key. Answers are keyed
// by question position; unanswered positions never match and keys outside
// the key's range are ignored.
func Score(key []int, answers map[int]int) int {
	score := 0
	for i, correct := range key {
		if ans, ok := answers[i]; ok && ans == correct {
			score++
		}
	}
	return score
}

// Percentage is score/total on a 0-100 scale; an empty exam scores 0.
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}
