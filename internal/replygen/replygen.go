// Package replygen produces reply text for public comments, either through
// an LLM or through fixed sentiment-keyed templates.
package replygen

import (
	"context"
	"fmt"
	"strings"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
)

// ReplyContext carries what the generator may use besides the comment text.
type ReplyContext struct {
	Sentiment string
}

// Generator writes a reply to a comment.
type Generator interface {
	Generate(ctx context.Context, commentText string, ai tenancy.AIConfig, rc ReplyContext) (string, error)
}

// GenerationError wraps a failed generation as a retryable upstream error.
// Errors that already carry the generation code are returned unchanged.
func GenerationError(err error) error {
	if apperr.GetCode(err) == apperr.CodeGeneration {
		return err
	}
	return apperr.Upstream(apperr.CodeGeneration, "reply generation failed", err).AsRetryable()
}

// Fallback answers with fixed texts chosen by sentiment.
type Fallback struct {
	supportEmail string
}

// NewFallback creates a Fallback that points unhappy customers at supportEmail.
func NewFallback(supportEmail string) *Fallback {
	return &Fallback{supportEmail: supportEmail}
}

func (f *Fallback) Generate(_ context.Context, _ string, _ tenancy.AIConfig, rc ReplyContext) (string, error) {
	switch rc.Sentiment {
	case "positive":
		return "Thank you for your positive feedback! We're thrilled to hear that. If you need anything else, feel free to reach out!", nil
	case "negative":
		return fmt.Sprintf("We're sorry to hear about your experience. Our team would love to help resolve this. Please DM us or email us at %s so we can assist you better.", f.supportEmail), nil
	default:
		return fmt.Sprintf("Thank you for reaching out! We're here to help. If you have any questions, feel free to DM us or email us at %s.", f.supportEmail), nil
	}
}

// Selector routes each tenant to its configured generator. Tenants without a
// usable live provider get the fallback.
type Selector struct {
	live     Generator
	hasKey   bool
	fallback *Fallback
}

// NewSelector creates a Selector. live may be nil; hasDefaultKey tells whether
// live can serve tenants that did not bring their own API key.
func NewSelector(live Generator, hasDefaultKey bool, fallback *Fallback) *Selector {
	return &Selector{live: live, hasKey: hasDefaultKey, fallback: fallback}
}

func (s *Selector) Generate(ctx context.Context, commentText string, ai tenancy.AIConfig, rc ReplyContext) (string, error) {
	if !s.useLive(ai) {
		return s.fallback.Generate(ctx, commentText, ai, rc)
	}

	text, err := s.live.Generate(ctx, commentText, ai, rc)
	if err != nil {
		return "", GenerationError(err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", GenerationError(fmt.Errorf("empty reply"))
	}
	return text, nil
}

func (s *Selector) useLive(ai tenancy.AIConfig) bool {
	if s.live == nil || ai.Provider == tenancy.AIProviderFallback {
		return false
	}
	return s.hasKey || strings.TrimSpace(ai.APIKey) != ""
}

var _ Generator = (*Selector)(nil)
