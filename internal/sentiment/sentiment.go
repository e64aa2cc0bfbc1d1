// Package sentiment classifies short social texts with a keyword baseline.
package sentiment

import "strings"

// Label is the coarse polarity of a text.
type Label string

const (
	Positive Label = "positive"
	Negative Label = "negative"
	Neutral  Label = "neutral"
)

// threshold separates neutral from polar scores (exclusive).
const threshold = 0.3

// Result is the outcome of Classify. Score is in [-1, 1].
type Result struct {
	Label Label   `json:"label"`
	Score float64 `json:"score"`
}

var positiveKeywords = []string{
	"love", "great", "amazing", "excellent", "good", "awesome", "best",
	"fantastic", "wonderful", "perfect", "beautiful", "thanks", "thank you",
	"happy", "excited",
}

var negativeKeywords = []string{
	"hate", "bad", "worst", "terrible", "awful", "horrible", "disappointed",
	"angry", "frustrated", "poor", "sad", "upset", "disgusting",
}

// Classify scores text by counting keywords it contains. Each keyword counts
// at most once and matches as a substring of the lowercased text.
func Classify(text string) Result {
	lower := strings.ToLower(text)
	p := countContained(lower, positiveKeywords)
	n := countContained(lower, negativeKeywords)
	if p == 0 && n == 0 {
		return Result{Label: Neutral, Score: 0}
	}

	score := float64(p-n) / float64(p+n)
	switch {
	case score > threshold:
		return Result{Label: Positive, Score: score}
	case score < -threshold:
		return Result{Label: Negative, Score: score}
	default:
		return Result{Label: Neutral, Score: score}
	}
}

func countContained(text string, keywords []string) int {
	count := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			count++
		}
	}
	return count
}
