// Package advisor asks a language model for a non-binding submit/skip
// recommendation. Every failure yields no recommendation.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"jobgate-engine/internal/domain"

	openai "github.com/sashabaranov/go-openai"
)

type Config struct {
	APIKey    string
	BaseURL   string // OpenAI-compatible endpoint, including /v1
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

type Advice struct {
	Recommendation domain.Recommendation `json:"recommendation"`
	Rationale      string                `json:"rationale"`
	RedFlags       []string              `json:"red_flags"`
	Confidence     float64               `json:"confidence"`
}

// Summary is what the model sees: the posting and the answers filled in.
type Summary struct {
	Job     domain.JobPosting
	Answers map[string]string
}

type Advisor struct {
	client *openai.Client
	cfg    Config
}

func New(cfg Config) *Advisor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Advisor{client: openai.NewClientWithConfig(oc), cfg: cfg}
}

const systemPrompt = `You review job applications right before a human submits them.
Given the posting and the answers filled into the form, decide whether the
candidate should submit. Respond with a single JSON object:
{"recommendation": "RECOMMEND_SUBMIT" | "RECOMMEND_SKIP",
 "rationale": "<one or two sentences>",
 "red_flags": ["..."],
 "confidence": 0.0-1.0}`

const maxSummaryChars = 4000

// Evaluate returns nil when the model is unreachable, times out, or
// answers with something unparseable.
func (a *Advisor) Evaluate(ctx context.Context, s Summary) *Advice {
	if a == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.cfg.Model,
		MaxTokens:   a.cfg.MaxTokens,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildSummary(s)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		log.Printf("[advisor] unavailable model=%s err=%v", a.cfg.Model, err)
		return nil
	}
	if len(resp.Choices) == 0 {
		log.Printf("[advisor] empty response model=%s", a.cfg.Model)
		return nil
	}
	adv, err := ParseAdvice(resp.Choices[0].Message.Content)
	if err != nil {
		log.Printf("[advisor] unparseable response: %v", err)
		return nil
	}
	return adv
}

// BuildSummary renders a bounded plain-text summary. Answers are sorted so
// the prompt is stable.
func BuildSummary(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\nCompany: %s\nLocation: %s\nATS: %s\nURL: %s\n",
		s.Job.Title, s.Job.Company, s.Job.Location, s.Job.ATSType, s.Job.URL)
	if s.Job.FitReason != "" {
		fmt.Fprintf(&b, "Fit: %.2f (%s)\n", s.Job.Score, s.Job.FitReason)
	}

	keys := make([]string, 0, len(s.Answers))
	for k := range s.Answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 0 {
		b.WriteString("\nAnswers:\n")
	}
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, s.Answers[k])
	}

	out := b.String()
	if len(out) > maxSummaryChars {
		out = out[:maxSummaryChars] + "\n[truncated]"
	}
	return out
}

// ParseAdvice accepts the model's JSON, optionally wrapped in a code fence.
func ParseAdvice(content string) (*Advice, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}

	var raw struct {
		Recommendation string   `json:"recommendation"`
		Rationale      string   `json:"rationale"`
		RedFlags       []string `json:"red_flags"`
		Confidence     float64  `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("decode advice: %w", err)
	}

	rec := strings.ToUpper(strings.TrimSpace(raw.Recommendation))
	if !strings.HasPrefix(rec, "RECOMMEND_") {
		rec = "RECOMMEND_" + rec
	}
	r, err := domain.ParseRecommendation(rec)
	if err != nil {
		return nil, err
	}
	return &Advice{
		Recommendation: r,
		Rationale:      strings.TrimSpace(raw.Rationale),
		RedFlags:       raw.RedFlags,
		Confidence:     raw.Confidence,
	}, nil
}
