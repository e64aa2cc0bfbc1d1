package replygen

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"engagement_backend/internal/tenancy"
	"engagement_backend/platform/config"

	"google.golang.org/genai"
)

const (
	defaultTemperature float32 = 0.7
	maxReplyTokens     int32   = 150
)

const promptTemplate = `You are a helpful customer service representative. A customer commented: "%s". Generate a friendly, professional, and helpful reply. Keep it concise (max 2-3 sentences).`

// GeminiGenerator writes replies with the Gemini API. Clients are cached per API key.
type GeminiGenerator struct {
	defaultKey   string
	defaultModel string

	mu      sync.Mutex
	clients map[string]*genai.Client
}

// NewGeminiGenerator creates a generator. The configured key is used for
// tenants that did not supply their own.
func NewGeminiGenerator(cfg config.ReplyConfig) *GeminiGenerator {
	return &GeminiGenerator{
		defaultKey:   strings.TrimSpace(cfg.GetGeminiAPIKey()),
		defaultModel: cfg.GetGeminiModel(),
		clients:      make(map[string]*genai.Client),
	}
}

// HasDefaultKey reports whether a deployment-wide API key is configured.
func (g *GeminiGenerator) HasDefaultKey() bool {
	return g.defaultKey != ""
}

func (g *GeminiGenerator) Generate(ctx context.Context, commentText string, ai tenancy.AIConfig, rc ReplyContext) (string, error) {
	apiKey := strings.TrimSpace(ai.APIKey)
	if apiKey == "" {
		apiKey = g.defaultKey
	}
	if apiKey == "" {
		return "", fmt.Errorf("gemini api key is not configured")
	}

	client, err := g.client(ctx, apiKey)
	if err != nil {
		return "", err
	}

	model := ai.Model
	if model == "" {
		model = g.defaultModel
	}
	temperature := defaultTemperature
	if ai.Temperature != nil {
		temperature = *ai.Temperature
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(buildPrompt(commentText, rc)), &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxReplyTokens,
	})
	if err != nil {
		return "", err
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil && len(result.Candidates[0].Content.Parts) > 0 {
		return strings.TrimSpace(result.Candidates[0].Content.Parts[0].Text), nil
	}
	return "", fmt.Errorf("gemini returned no candidates")
}

func (g *GeminiGenerator) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[apiKey]; ok {
		return c, nil
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.clients[apiKey] = c
	return c, nil
}

func buildPrompt(commentText string, rc ReplyContext) string {
	prompt := fmt.Sprintf(promptTemplate, commentText)
	if rc.Sentiment != "" {
		prompt += fmt.Sprintf(" The comment's sentiment is %s.", rc.Sentiment)
	}
	return prompt
}

var _ Generator = (*GeminiGenerator)(nil)
