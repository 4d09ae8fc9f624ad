package score

import (
	"testing"

	"github.com/sightline-ai/visibility-engine/internal/model"
	"github.com/sightline-ai/visibility-engine/internal/signals"
)

func allPresent() model.AIIndexing {
	status := make(map[string]string, len(signals.AIBots))
	for _, bot := range signals.AIBots {
		status[bot.Name] = signals.StatusAllowedByDefault
	}
	return model.AIIndexing{
		RobotsTxt:  model.RobotsTxt{Present: true, AIBotsStatus: status},
		LLMSTxt:    model.LLMSTxt{Present: true},
		SitemapXML: model.SitemapXML{Present: true},
	}
}

func richContent() model.Content {
	return model.Content{WordCount: 800}
}

func TestCompute_CleanPageScoresFull(t *testing.T) {
	scores, issues, recs := NewDefault().Compute(nil, richContent(), allPresent())

	if scores.Overall != 100 {
		t.Errorf("overall = %d, want 100", scores.Overall)
	}
	if len(issues) != 0 || len(recs) != 0 {
		t.Errorf("clean page produced issues %v recs %v", issues, recs)
	}
}

func TestCompute_SeverityDeductions(t *testing.T) {
	issues := []model.Issue{
		{Severity: model.SeverityHigh, Category: model.CategoryOnPage, Code: "H1_MISSING"},
		{Severity: model.SeverityMedium, Category: model.CategoryOnPage, Code: "META_DESC_MISSING"},
		{Severity: model.SeverityLow, Category: model.CategoryOnPage, Code: "MISSING_ALT"},
	}
	scores, _, _ := NewDefault().Compute(issues, richContent(), allPresent())

	if scores.OnPage != 100-15-8-3 {
		t.Errorf("on_page = %d, want 74", scores.OnPage)
	}
	if scores.Technical != 100 {
		t.Errorf("technical = %d, want 100 (untouched category)", scores.Technical)
	}
}

func TestCompute_WordCountPenalties(t *testing.T) {
	tests := []struct {
		name  string
		words int
		want  int
	}{
		{"thin", 150, 80},
		{"short", 400, 90},
		{"enough", 600, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scores, _, _ := NewDefault().Compute(nil, model.Content{WordCount: tt.words}, allPresent())
			if scores.Content != tt.want {
				t.Errorf("content = %d, want %d", scores.Content, tt.want)
			}
		})
	}
}

func TestCompute_AIReadinessPenalties(t *testing.T) {
	ai := allPresent()
	ai.LLMSTxt.Present = false
	ai.RobotsTxt.AIBotsStatus["GPTBot"] = signals.StatusBlocked
	ai.RobotsTxt.AIBotsStatus["ClaudeBot"] = signals.StatusBlockedByWildcard

	scores, issues, _ := NewDefault().Compute(nil, richContent(), ai)

	if want := 100 - 20 - 2*5; scores.AIReadiness != want {
		t.Errorf("ai_readiness = %d, want %d", scores.AIReadiness, want)
	}

	var codes []string
	for _, i := range issues {
		codes = append(codes, i.Code)
	}
	for _, want := range []string{"NO_LLMS_TXT", "AI_BOTS_BLOCKED"} {
		found := false
		for _, c := range codes {
			if c == want {
				found = true
			}
		}
		if !found {
			t.Errorf("expected issue %s in %v", want, codes)
		}
	}
}

func TestCompute_MissingSitemap(t *testing.T) {
	ai := allPresent()
	ai.SitemapXML.Present = false

	scores, issues, _ := NewDefault().Compute(nil, richContent(), ai)

	if scores.Technical != 92 {
		t.Errorf("technical = %d, want 92", scores.Technical)
	}
	if len(issues) != 1 || issues[0].Code != "NO_SITEMAP" {
		t.Errorf("issues = %v, want NO_SITEMAP", issues)
	}
}

func TestCompute_ScoresNeverNegative(t *testing.T) {
	var issues []model.Issue
	for range 20 {
		issues = append(issues, model.Issue{
			Severity: model.SeverityHigh,
			Category: model.CategoryTechnical,
		})
	}
	scores, _, _ := NewDefault().Compute(issues, model.Content{WordCount: 10}, model.AIIndexing{
		RobotsTxt: model.RobotsTxt{AIBotsStatus: map[string]string{}},
	})

	for name, v := range map[string]int{
		"overall":         scores.Overall,
		"technical":       scores.Technical,
		"on_page":         scores.OnPage,
		"content":         scores.Content,
		"structured_data": scores.StructuredData,
		"ai_readiness":    scores.AIReadiness,
	} {
		if v < 0 || v > 100 {
			t.Errorf("%s = %d, outside [0,100]", name, v)
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	issues := []model.Issue{
		{Severity: model.SeverityHigh, Category: model.CategoryOnPage},
		{Severity: model.SeverityLow, Category: model.CategoryContent},
	}
	ai := allPresent()
	ai.RobotsTxt.AIBotsStatus["GPTBot"] = signals.StatusBlocked

	first, _, _ := NewDefault().Compute(issues, richContent(), ai)
	for range 10 {
		again, _, _ := NewDefault().Compute(issues, richContent(), ai)
		if again != first {
			t.Fatalf("scores not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestBlockedBots_SortedAndFiltered(t *testing.T) {
	r := model.RobotsTxt{AIBotsStatus: map[string]string{
		"GPTBot":        signals.StatusBlocked,
		"ClaudeBot":     signals.StatusBlockedByWildcard,
		"PerplexityBot": signals.StatusAllowed,
		"CCBot":         signals.StatusPartiallyBlocked,
	}}

	got := BlockedBots(r)
	want := []string{"ClaudeBot", "GPTBot"}
	if len(got) != len(want) {
		t.Fatalf("blocked = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("blocked[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSortRecommendations(t *testing.T) {
	recs := []model.Recommendation{
		{Priority: 3, Action: "c"},
		{Priority: 1, Action: "a"},
		{Priority: 2, Action: "b"},
		{Priority: 1, Action: "a2"},
	}
	SortRecommendations(recs)

	wantOrder := []string{"a", "a2", "b", "c"}
	for i, w := range wantOrder {
		if recs[i].Action != w {
			t.Errorf("recs[%d] = %q, want %q", i, recs[i].Action, w)
		}
	}
}
