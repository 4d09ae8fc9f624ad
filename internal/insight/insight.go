// Package insight generates AI-written commentary on an analysis report:
// visibility insights, keyword opportunities, and marketing copy review.
// Generation is optional; when no API key is configured the workflow still
// completes with the insight steps marked as not configured.
package insight

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/sightline-ai/visibility-engine/internal/model"
	"github.com/sightline-ai/visibility-engine/internal/platform/errs"
)

// Kind selects which commentary a generation request produces.
type Kind string

const (
	KindInsights  Kind = "insights"
	KindKeywords  Kind = "keywords"
	KindMarketing Kind = "marketing"
)

// Result is the outcome of one generation request. Generated is false when
// the generator is not configured; the workflow records that without failing.
type Result struct {
	Kind      Kind   `json:"kind"`
	Generated bool   `json:"generated"`
	Text      string `json:"text,omitempty"`
	Note      string `json:"note,omitempty"`
}

// Generator produces commentary for one report.
type Generator interface {
	Generate(ctx context.Context, kind Kind, report *model.Report) (Result, error)
}

// Disabled is the no-op generator used when no API key is configured.
type Disabled struct{}

func (Disabled) Generate(_ context.Context, kind Kind, _ *model.Report) (Result, error) {
	return Result{Kind: kind, Note: "generator not configured"}, nil
}

const (
	generationTemperature = 0.7
	generationMaxTokens   = 900
)

// OpenAI generates commentary through the chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

func NewOpenAI(apiKey, model string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (g *OpenAI) Generate(ctx context.Context, kind Kind, report *model.Report) (Result, error) {
	prompt, err := BuildPrompt(kind, report)
	if err != nil {
		return Result{}, err
	}

	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(generationTemperature),
		MaxTokens:   openai.Int(generationMaxTokens),
	})
	if err != nil {
		return Result{}, &errs.AppError{
			Kind:    errs.Unreachable,
			Message: fmt.Sprintf("insight generation failed for %s", kind),
			Cause:   err,
		}
	}
	if len(completion.Choices) == 0 {
		return Result{}, &errs.AppError{
			Kind:    errs.ParsingFailed,
			Message: "insight generation returned no choices",
		}
	}

	return Result{
		Kind:      kind,
		Generated: true,
		Text:      strings.TrimSpace(completion.Choices[0].Message.Content),
	}, nil
}

// BuildPrompt renders the task prompt for one commentary kind from the
// overview report. Exported so prompt content stays testable without an API
// round trip.
func BuildPrompt(kind Kind, report *model.Report) (string, error) {
	summary := reportSummary(report)

	switch kind {
	case KindInsights:
		return "You are an AI-visibility consultant. Based on the site analysis below, " +
			"write 4-6 concrete insights about how visible this site is to AI assistants " +
			"and search systems, and what limits that visibility today.\n\n" + summary, nil
	case KindKeywords:
		return "You are an SEO strategist. Based on the site analysis below, suggest " +
			"8-12 keywords and phrases this site should target, grouped by intent, " +
			"building on the terms it already ranks its content around.\n\n" + summary, nil
	case KindMarketing:
		return "You are a marketing copy editor. Based on the site analysis below, " +
			"critique the page's title and description as marketing copy and propose " +
			"two improved variants of each.\n\n" + summary, nil
	default:
		return "", &errs.AppError{
			Kind:    errs.InvalidInput,
			Message: fmt.Sprintf("unknown insight kind %q", kind),
		}
	}
}

func reportSummary(r *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "URL: %s\n", r.URL)
	fmt.Fprintf(&b, "Title: %s\n", r.Metadata.Title.Value)
	fmt.Fprintf(&b, "Description: %s\n", r.Metadata.Description.Value)
	fmt.Fprintf(&b, "Word count: %d\n", r.Content.WordCount)
	fmt.Fprintf(&b, "Scores: overall %d, technical %d, on-page %d, content %d, structured data %d, AI readiness %d\n",
		r.Scores.Overall, r.Scores.Technical, r.Scores.OnPage,
		r.Scores.Content, r.Scores.StructuredData, r.Scores.AIReadiness)

	if kws := topTerms(r.Content.KeywordsFrequency, 10); len(kws) > 0 {
		fmt.Fprintf(&b, "Top keywords: %s\n", strings.Join(kws, ", "))
	}
	if r.AIIndexing.LLMSTxt.Present {
		b.WriteString("llms.txt: present\n")
	} else {
		b.WriteString("llms.txt: missing\n")
	}
	if blocked := blockedBotNames(r.AIIndexing.RobotsTxt); len(blocked) > 0 {
		fmt.Fprintf(&b, "AI crawlers blocked: %s\n", strings.Join(blocked, ", "))
	}
	if n := len(r.Issues); n > 0 {
		fmt.Fprintf(&b, "Issues detected: %d\n", n)
	}

	return b.String()
}

func topTerms(kws []model.Keyword, n int) []string {
	terms := make([]string, 0, n)
	for _, kw := range kws {
		terms = append(terms, kw.Keyword)
		if len(terms) == n {
			break
		}
	}
	return terms
}

func blockedBotNames(r model.RobotsTxt) []string {
	var blocked []string
	for bot, status := range r.AIBotsStatus {
		if status == "blocked" || status == "blocked_by_wildcard" {
			blocked = append(blocked, bot)
		}
	}
	sort.Strings(blocked)
	return blocked
}
