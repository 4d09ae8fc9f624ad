// Package score turns detected issues and crawl signals into the five
// category scores and the overall score. Scoring is pure arithmetic over its
// inputs so identical analysis input always yields identical scores.
package score

import (
	"fmt"
	"math"
	"sort"

	"github.com/sightline-ai/visibility-engine/internal/model"
	"github.com/sightline-ai/visibility-engine/internal/signals"
)

// Weights holds every deduction the scorer applies. All values are points
// subtracted from a category that starts at 100.
type Weights struct {
	// Per-issue deductions by severity.
	High   int
	Medium int
	Low    int

	// Content-length penalties.
	ThinContent      int // fewer than 300 words
	ShortContent     int // fewer than 500 words
	ThinThreshold    int
	ShortThreshold   int

	// AI-readiness penalties.
	MissingLLMS int
	BlockedBot  int // per blocked crawler

	// Technical penalty for a missing sitemap.
	MissingSitemap int
}

// DefaultWeights is the standard scoring profile.
var DefaultWeights = Weights{
	High:           15,
	Medium:         8,
	Low:            3,
	ThinContent:    20,
	ShortContent:   10,
	ThinThreshold:  300,
	ShortThreshold: 500,
	MissingLLMS:    20,
	BlockedBot:     5,
	MissingSitemap: 8,
}

// Scorer computes scores under a fixed weight profile.
type Scorer struct {
	w Weights
}

func New(w Weights) *Scorer {
	return &Scorer{w: w}
}

func NewDefault() *Scorer {
	return New(DefaultWeights)
}

// Compute scores the page. It returns the scores, the signal-level issues it
// generated (missing llms.txt, missing sitemap, blocked AI bots), and the
// recommendations for those issues. Signal issues are weighted through their
// dedicated penalties rather than the per-severity deductions, so each
// finding is counted exactly once.
func (s *Scorer) Compute(issues []model.Issue, content model.Content, ai model.AIIndexing) (model.Scores, []model.Issue, []model.Recommendation) {
	deductions := map[string]int{
		model.CategoryTechnical:      0,
		model.CategoryOnPage:         0,
		model.CategoryContent:        0,
		model.CategoryStructuredData: 0,
		model.CategoryAIReadiness:    0,
	}

	for _, issue := range issues {
		switch issue.Severity {
		case model.SeverityHigh:
			deductions[issue.Category] += s.w.High
		case model.SeverityMedium:
			deductions[issue.Category] += s.w.Medium
		case model.SeverityLow:
			deductions[issue.Category] += s.w.Low
		}
	}

	switch {
	case content.WordCount < s.w.ThinThreshold:
		deductions[model.CategoryContent] += s.w.ThinContent
	case content.WordCount < s.w.ShortThreshold:
		deductions[model.CategoryContent] += s.w.ShortContent
	}

	var signalIssues []model.Issue
	var recs []model.Recommendation

	if !ai.LLMSTxt.Present {
		deductions[model.CategoryAIReadiness] += s.w.MissingLLMS
		signalIssues = append(signalIssues, model.Issue{
			Severity: model.SeverityMedium,
			Category: model.CategoryAIReadiness,
			Code:     "NO_LLMS_TXT",
			Message:  "No llms.txt file found",
		})
		recs = append(recs, model.Recommendation{
			Priority: 2,
			Category: model.CategoryAIReadiness,
			Action:   "Publish an llms.txt file so AI systems can discover curated site content",
		})
	}

	if !ai.SitemapXML.Present {
		deductions[model.CategoryTechnical] += s.w.MissingSitemap
		signalIssues = append(signalIssues, model.Issue{
			Severity: model.SeverityMedium,
			Category: model.CategoryTechnical,
			Code:     "NO_SITEMAP",
			Message:  "No sitemap.xml file found",
		})
		recs = append(recs, model.Recommendation{
			Priority: 2,
			Category: model.CategoryTechnical,
			Action:   "Publish a sitemap.xml so crawlers can enumerate site pages",
		})
	}

	if blocked := BlockedBots(ai.RobotsTxt); len(blocked) > 0 {
		deductions[model.CategoryAIReadiness] += s.w.BlockedBot * len(blocked)
		signalIssues = append(signalIssues, model.Issue{
			Severity: model.SeverityLow,
			Category: model.CategoryAIReadiness,
			Code:     "AI_BOTS_BLOCKED",
			Message:  fmt.Sprintf("%d AI crawler(s) blocked by robots.txt", len(blocked)),
		})
		recs = append(recs, model.Recommendation{
			Priority: 3,
			Category: model.CategoryAIReadiness,
			Action:   "Review robots.txt rules for AI crawlers that should be able to read the site",
		})
	}

	scores := model.Scores{
		Technical:      clamp(100 - deductions[model.CategoryTechnical]),
		OnPage:         clamp(100 - deductions[model.CategoryOnPage]),
		Content:        clamp(100 - deductions[model.CategoryContent]),
		StructuredData: clamp(100 - deductions[model.CategoryStructuredData]),
		AIReadiness:    clamp(100 - deductions[model.CategoryAIReadiness]),
	}
	scores.Overall = clamp(int(math.Round(
		float64(scores.Technical+scores.OnPage+scores.Content+scores.StructuredData+scores.AIReadiness) / 5,
	)))

	return scores, signalIssues, recs
}

// BlockedBots returns the names of AI bots the robots.txt shuts out entirely,
// whether by a bot-specific rule or a wildcard rule.
func BlockedBots(r model.RobotsTxt) []string {
	var blocked []string
	for bot, status := range r.AIBotsStatus {
		if status == signals.StatusBlocked || status == signals.StatusBlockedByWildcard {
			blocked = append(blocked, bot)
		}
	}
	sort.Strings(blocked)
	return blocked
}

// SortRecommendations orders recommendations by ascending priority, keeping
// the original order within a priority band.
func SortRecommendations(recs []model.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority < recs[j].Priority
	})
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
