// Package scoring turns a qualifying comment into lead attributes.
package scoring

import (
	"math"
	"strings"
)

// interestKeywords mark a comment as a buying signal.
var interestKeywords = []string{
	"interested", "price", "cost", "buy", "purchase", "more info", "details",
}

// highPriorityScore is the sentiment score above which a lead is high priority.
const highPriorityScore = 0.7

// UnknownName is used when the author has neither a display name nor a username.
const UnknownName = "Unknown"

// Priority of a lead.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// HasInterest reports whether text contains any interest keyword, ignoring case.
func HasInterest(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range interestKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Score maps a sentiment score in [-1, 1] to a lead score in [0, 100].
func Score(sentimentScore float64) int {
	s := int(math.Round((sentimentScore + 1) * 50))
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// PriorityFor returns high for strongly positive comments and medium otherwise.
func PriorityFor(sentimentScore float64) Priority {
	if sentimentScore > highPriorityScore {
		return PriorityHigh
	}
	return PriorityMedium
}

// DisplayName picks the author's name, then username, then UnknownName.
func DisplayName(name, username string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	if u := strings.TrimSpace(username); u != "" {
		return u
	}
	return UnknownName
}

// ProfileURL builds the public profile link for an author on platform.
func ProfileURL(platform, authorID string) string {
	if platform == "" || authorID == "" {
		return ""
	}
	return "https://" + platform + ".com/" + authorID
}
