package replygen

import (
	"context"
	"errors"
	"strings"
	"testing"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/apperr"
)

type fakeLive struct {
	text  string
	err   error
	calls int
}

func (f *fakeLive) Generate(context.Context, string, tenancy.AIConfig, ReplyContext) (string, error) {
	f.calls++
	return f.text, f.err
}

func TestFallbackTexts(t *testing.T) {
	f := NewFallback("help@acme.test")
	ctx := context.Background()

	pos, _ := f.Generate(ctx, "", tenancy.AIConfig{}, ReplyContext{Sentiment: "positive"})
	if pos != "Thank you for your positive feedback! We're thrilled to hear that. If you need anything else, feel free to reach out!" {
		t.Fatalf("unexpected positive reply %q", pos)
	}

	neg, _ := f.Generate(ctx, "", tenancy.AIConfig{}, ReplyContext{Sentiment: "negative"})
	if !strings.HasPrefix(neg, "We're sorry to hear about your experience.") || !strings.Contains(neg, "help@acme.test") {
		t.Fatalf("unexpected negative reply %q", neg)
	}

	neu, _ := f.Generate(ctx, "", tenancy.AIConfig{}, ReplyContext{})
	if neu != "Thank you for reaching out! We're here to help. If you have any questions, feel free to DM us or email us at help@acme.test." {
		t.Fatalf("unexpected neutral reply %q", neu)
	}
}

func TestSelectorUsesFallbackWithoutKey(t *testing.T) {
	live := &fakeLive{text: "live"}
	s := NewSelector(live, false, NewFallback("s@x.test"))

	text, err := s.Generate(context.Background(), "hi", tenancy.AIConfig{}, ReplyContext{Sentiment: "positive"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if live.calls != 0 || !strings.HasPrefix(text, "Thank you for your positive feedback") {
		t.Fatalf("expected fallback reply, got %q (live calls %d)", text, live.calls)
	}
}

func TestSelectorUsesLiveWithTenantKey(t *testing.T) {
	live := &fakeLive{text: "  Glad you like it!  "}
	s := NewSelector(live, false, NewFallback("s@x.test"))

	text, err := s.Generate(context.Background(), "hi", tenancy.AIConfig{APIKey: "k"}, ReplyContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Glad you like it!" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestSelectorHonorsFallbackProvider(t *testing.T) {
	live := &fakeLive{text: "live"}
	s := NewSelector(live, true, NewFallback("s@x.test"))

	_, _ = s.Generate(context.Background(), "hi", tenancy.AIConfig{Provider: tenancy.AIProviderFallback}, ReplyContext{})
	if live.calls != 0 {
		t.Fatal("fallback provider must not call the live generator")
	}
}

func TestSelectorWrapsLiveFailure(t *testing.T) {
	s := NewSelector(&fakeLive{err: errors.New("quota")}, true, NewFallback("s@x.test"))

	_, err := s.Generate(context.Background(), "hi", tenancy.AIConfig{}, ReplyContext{})
	if !apperr.Is(err, apperr.KindUpstream) || apperr.GetCode(err) != apperr.CodeGeneration {
		t.Fatalf("expected generation error, got %v", err)
	}
	if !apperr.IsRetryable(err) {
		t.Fatal("generation errors are retryable")
	}
}

func TestBuildPromptIncludesCommentAndSentiment(t *testing.T) {
	p := buildPrompt("what is the price?", ReplyContext{Sentiment: "neutral"})
	if !strings.Contains(p, `A customer commented: "what is the price?"`) || !strings.Contains(p, "sentiment is neutral") {
		t.Fatalf("unexpected prompt %q", p)
	}
}
