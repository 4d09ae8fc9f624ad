// Package signals evaluates the crawler-facing control files of an origin:
// robots.txt, llms.txt, and sitemap.xml. Its central job is classifying how
// each known AI crawler is treated by the site's robots.txt.
package signals

import (
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/sightline-ai/visibility-engine/internal/model"
)

// Per-bot robots.txt classifications.
const (
	StatusBlocked           = "blocked"
	StatusAllowed           = "allowed"
	StatusPartiallyBlocked  = "partially_blocked"
	StatusBlockedByWildcard = "blocked_by_wildcard"
	StatusAllowedByDefault  = "allowed_by_default"
)

const llmsPreviewLimit = 300

// EvaluateAIIndexing builds the full AI-discoverability picture from the
// three control files. A nil body means the resource could not be fetched.
func EvaluateAIIndexing(robotsBody, llmsBody []byte, sitemapPresent bool) model.AIIndexing {
	return model.AIIndexing{
		RobotsTxt:  ClassifyRobots(robotsBody),
		LLMSTxt:    EvaluateLLMS(llmsBody),
		SitemapXML: model.SitemapXML{Present: sitemapPresent},
	}
}

// ClassifyRobots parses robots.txt and assigns each known AI bot one of the
// five statuses. A missing file leaves every bot allowed_by_default.
func ClassifyRobots(body []byte) model.RobotsTxt {
	result := model.RobotsTxt{
		Present:      body != nil,
		AIBotsStatus: make(map[string]string, len(AIBots)),
	}

	if body == nil {
		for _, bot := range AIBots {
			result.AIBotsStatus[bot.Name] = StatusAllowedByDefault
		}
		return result
	}

	result.SitemapsDeclared = sitemapLines(body)

	data, err := robotstxt.FromBytes(body)
	if err != nil {
		// Unparseable robots.txt is treated as permissive, matching how
		// crawlers behave when they cannot interpret the file.
		for _, bot := range AIBots {
			result.AIBotsStatus[bot.Name] = StatusAllowedByDefault
		}
		return result
	}

	groups := parseGroups(body)
	for _, bot := range AIBots {
		result.AIBotsStatus[bot.Name] = classifyBot(data, groups, bot.Name)
	}
	return result
}

// EvaluateLLMS reports llms.txt presence with a truncated content preview.
func EvaluateLLMS(body []byte) model.LLMSTxt {
	if body == nil {
		return model.LLMSTxt{}
	}

	preview := strings.TrimSpace(string(body))
	if runes := []rune(preview); len(runes) > llmsPreviewLimit {
		preview = string(runes[:llmsPreviewLimit])
	}
	return model.LLMSTxt{Present: true, ContentPreview: preview}
}

// group is one user-agent record from robots.txt, kept so the classifier can
// tell a bot-specific record apart from wildcard coverage. Path permission
// checks themselves go through the robotstxt matcher.
type group struct {
	agents    []string
	allows    []string
	disallows []string
}

func classifyBot(data *robotstxt.RobotsData, groups []group, bot string) string {
	rootAllowed := data.FindGroup(bot).Test("/")

	g := matchGroup(groups, bot)
	if g == nil {
		if !rootAllowed {
			return StatusBlockedByWildcard
		}
		return StatusAllowedByDefault
	}

	if !rootAllowed {
		return StatusBlocked
	}
	for _, d := range g.disallows {
		if d != "" {
			return StatusPartiallyBlocked
		}
	}
	return StatusAllowed
}

// matchGroup finds the bot-specific record whose agent token is the longest
// prefix of the bot name, mirroring how FindGroup selects a group. Wildcard
// records never match here.
func matchGroup(groups []group, bot string) *group {
	lower := strings.ToLower(bot)
	var best *group
	bestLen := 0
	for i := range groups {
		for _, agent := range groups[i].agents {
			if agent == "*" {
				continue
			}
			if strings.HasPrefix(lower, agent) && len(agent) > bestLen {
				best = &groups[i]
				bestLen = len(agent)
			}
		}
	}
	return best
}

// parseGroups does a line scan of robots.txt to recover the record structure.
// Consecutive User-agent lines share one record; a rule line closes the
// agent list so a later User-agent line starts a new record.
func parseGroups(body []byte) []group {
	var (
		groups  []group
		curr    *group
		inRules bool
	)

	for _, line := range strings.Split(string(body), "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		field = strings.ToLower(strings.TrimSpace(field))
		value = strings.TrimSpace(value)

		switch field {
		case "user-agent":
			if curr == nil || inRules {
				groups = append(groups, group{})
				curr = &groups[len(groups)-1]
				inRules = false
			}
			curr.agents = append(curr.agents, strings.ToLower(value))
		case "disallow":
			if curr != nil {
				curr.disallows = append(curr.disallows, value)
				inRules = true
			}
		case "allow":
			if curr != nil {
				curr.allows = append(curr.allows, value)
				inRules = true
			}
		}
	}
	return groups
}

func sitemapLines(body []byte) []string {
	var sitemaps []string
	for _, line := range strings.Split(string(body), "\n") {
		field, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(field), "sitemap") {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			sitemaps = append(sitemaps, value)
		}
	}
	return sitemaps
}
