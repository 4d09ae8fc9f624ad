// Package analyze derives structured SEO findings from a fetched HTML page.
// All sub-analyses share a single DOM parse; a failure in one section is
// recorded as an empty result for that section, never a fatal error.
package analyze

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sightline-ai/visibility-engine/internal/model"
)

// Recommended length bounds for head tags.
const (
	titleMinLength    = 30
	titleMaxLength    = 60
	metaDescMinLength = 70
	metaDescMaxLength = 160
)

const (
	maxHeadingValues  = 10
	maxHeadingLength  = 100
	maxTagValueLength = 200
)

// Analyzer inspects a parsed HTML document. Issues and recommendations
// accumulate as sections are analyzed.
type Analyzer struct {
	doc     *goquery.Document
	baseURL *url.URL

	issues          []model.Issue
	recommendations []model.Recommendation
}

// New parses the HTML body once and returns an Analyzer rooted at baseURL.
func New(body, base string) (*Analyzer, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("analyze: invalid base URL %q: %w", base, err)
	}

	node, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("analyze: parse HTML: %w", err)
	}

	return &Analyzer{
		doc:     goquery.NewDocumentFromNode(node),
		baseURL: baseURL,
	}, nil
}

// Issues returns everything flagged so far, in detection order.
func (a *Analyzer) Issues() []model.Issue {
	return a.issues
}

// Recommendations returns the accumulated recommendations.
func (a *Analyzer) Recommendations() []model.Recommendation {
	return a.recommendations
}

func (a *Analyzer) addIssue(severity, category, code, message string, element ...string) {
	issue := model.Issue{Severity: severity, Category: category, Code: code, Message: message}
	if len(element) > 0 {
		issue.Element = element[0]
	}
	a.issues = append(a.issues, issue)
}

func (a *Analyzer) recommend(priority int, category, action string) {
	a.recommendations = append(a.recommendations, model.Recommendation{
		Priority: priority,
		Category: category,
		Action:   action,
	})
}

// Metadata analyzes head-level tags: title, description, canonical, robots
// meta, viewport, language, and the legacy keywords tag.
func (a *Analyzer) Metadata() model.Metadata {
	md := model.Metadata{
		Title:       a.analyzeTitle(),
		Description: a.analyzeDescription(),
	}

	md.Canonical, _ = a.doc.Find(`link[rel="canonical"]`).First().Attr("href")
	if md.Canonical == "" {
		a.addIssue(model.SeverityMedium, model.CategoryTechnical, "CANONICAL_MISSING",
			"No canonical URL specified")
		a.recommend(3, model.CategoryTechnical,
			"Add a canonical URL to prevent duplicate content issues")
	}

	md.RobotsMeta, _ = a.doc.Find(`meta[name="robots"]`).First().Attr("content")

	md.Viewport, _ = a.doc.Find(`meta[name="viewport"]`).First().Attr("content")
	if md.Viewport == "" {
		a.addIssue(model.SeverityHigh, model.CategoryTechnical, "VIEWPORT_MISSING",
			"No viewport meta tag (page may not be mobile-friendly)")
		a.recommend(1, model.CategoryTechnical,
			"Add viewport meta tag for mobile responsiveness")
	}

	md.Language, _ = a.doc.Find("html").First().Attr("lang")
	if md.Language == "" {
		a.addIssue(model.SeverityLow, model.CategoryOnPage, "LANG_MISSING",
			"HTML lang attribute not specified")
	}

	md.KeywordsTag, _ = a.doc.Find(`meta[name="keywords"]`).First().Attr("content")

	return md
}

func (a *Analyzer) analyzeTitle() model.MetaTag {
	title := strings.TrimSpace(a.doc.Find("title").First().Text())
	tag := model.MetaTag{Value: title, Length: len(title)}

	switch {
	case title == "":
		a.addIssue(model.SeverityHigh, model.CategoryOnPage, "TITLE_MISSING",
			"Page is missing a title tag")
		a.recommend(1, model.CategoryOnPage,
			"Add a descriptive title tag (50-60 characters)")
	case len(title) < titleMinLength:
		a.addIssue(model.SeverityMedium, model.CategoryOnPage, "TITLE_TOO_SHORT",
			fmt.Sprintf("Title is only %d characters (recommended: 50-60)", len(title)),
			"<title>"+title+"</title>")
		a.recommend(2, model.CategoryOnPage,
			"Expand title tag to 50-60 characters with primary keyword")
	case len(title) > titleMaxLength:
		a.addIssue(model.SeverityLow, model.CategoryOnPage, "TITLE_TOO_LONG",
			fmt.Sprintf("Title is %d characters (may be truncated)", len(title)),
			"<title>"+title+"</title>")
	}

	return tag
}

func (a *Analyzer) analyzeDescription() model.MetaTag {
	desc, _ := a.doc.Find(`meta[name="description"]`).First().Attr("content")
	desc = strings.TrimSpace(desc)
	tag := model.MetaTag{Value: desc, Length: len(desc)}

	switch {
	case desc == "":
		a.addIssue(model.SeverityHigh, model.CategoryOnPage, "META_DESC_MISSING",
			"Page is missing a meta description")
		a.recommend(1, model.CategoryOnPage,
			"Add a compelling meta description (150-160 characters)")
	case len(desc) < metaDescMinLength:
		a.addIssue(model.SeverityMedium, model.CategoryOnPage, "META_DESC_TOO_SHORT",
			fmt.Sprintf("Meta description is only %d characters", len(desc)))
	case len(desc) > metaDescMaxLength:
		a.addIssue(model.SeverityLow, model.CategoryOnPage, "META_DESC_TOO_LONG",
			fmt.Sprintf("Meta description is %d characters (may be truncated)", len(desc)))
	}

	return tag
}

// Headings analyzes the h1-h6 structure and validates the hierarchy.
func (a *Analyzer) Headings() model.Headings {
	levels := make(map[string]model.HeadingLevel, 6)
	var order []int

	for i := 1; i <= 6; i++ {
		tag := fmt.Sprintf("h%d", i)
		var values []string
		a.doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			if len(values) < maxHeadingValues {
				text := strings.TrimSpace(s.Text())
				if len(text) > maxHeadingLength {
					text = text[:maxHeadingLength]
				}
				values = append(values, text)
			}
		})
		levels[tag] = model.HeadingLevel{
			Count:  a.doc.Find(tag).Length(),
			Values: values,
		}
	}

	a.doc.Find("h1,h2,h3,h4,h5,h6").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if len(name) == 2 && name[0] == 'h' {
			order = append(order, int(name[1]-'0'))
		}
	})

	h1Count := levels["h1"].Count
	switch {
	case h1Count == 0:
		a.addIssue(model.SeverityHigh, model.CategoryOnPage, "H1_MISSING",
			"Page is missing an H1 tag")
		a.recommend(1, model.CategoryOnPage, "Add a single H1 tag with primary keyword")
	case h1Count > 1:
		a.addIssue(model.SeverityMedium, model.CategoryOnPage, "MULTIPLE_H1",
			fmt.Sprintf("Page has %d H1 tags (should have exactly 1)", h1Count))
		a.recommend(2, model.CategoryOnPage, "Consolidate to a single H1 tag")
	}

	valid := hierarchyValid(order)
	if !valid {
		a.addIssue(model.SeverityLow, model.CategoryOnPage, "HEADING_HIERARCHY",
			"Heading hierarchy is not properly structured (skipped levels)")
	}

	return model.Headings{Levels: levels, HierarchyValid: valid}
}

// hierarchyValid reports whether no heading jumps more than one level deeper
// than its predecessor in document order.
func hierarchyValid(order []int) bool {
	for i := 1; i < len(order); i++ {
		if order[i] > order[i-1]+1 {
			return false
		}
	}
	return true
}

// Images checks alt-text coverage and lazy loading.
func (a *Analyzer) Images() model.Images {
	var result model.Images

	a.doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		result.Total++

		src, ok := s.Attr("src")
		if !ok {
			src, _ = s.Attr("data-src")
		}

		if alt, ok := s.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			result.MissingAlt++
			if len(result.MissingAltURLs) < 10 {
				if src == "" {
					src = "unknown"
				}
				if len(src) > maxHeadingLength {
					src = src[:maxHeadingLength]
				}
				result.MissingAltURLs = append(result.MissingAltURLs, src)
			}
		}

		if loading, _ := s.Attr("loading"); loading == "lazy" {
			result.LazyLoadedCount++
		}
	})

	if result.MissingAlt > 0 {
		a.addIssue(model.SeverityMedium, model.CategoryOnPage, "MISSING_ALT",
			fmt.Sprintf("%d images are missing alt text", result.MissingAlt),
			strings.Join(result.MissingAltURLs[:min(3, len(result.MissingAltURLs))], ", "))
		a.recommend(2, model.CategoryOnPage,
			fmt.Sprintf("Add descriptive alt text to %d images", result.MissingAlt))
	}

	return result
}

// Links splits anchors into internal and external by comparing hosts, and
// counts rel=nofollow on external links. Anchors, javascript:, and mailto:
// hrefs are skipped.
func (a *Analyzer) Links() model.Links {
	var result model.Links

	a.doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" ||
			strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") {
			return
		}

		parsed, err := url.Parse(href)
		if err != nil {
			return
		}
		resolved := a.baseURL.ResolveReference(parsed)

		if strings.EqualFold(resolved.Host, a.baseURL.Host) {
			result.InternalCount++
			return
		}

		result.ExternalCount++
		if rel, _ := s.Attr("rel"); strings.Contains(rel, "nofollow") {
			result.NofollowCount++
		}
	})

	if result.InternalCount == 0 {
		a.addIssue(model.SeverityMedium, model.CategoryOnPage, "NO_INTERNAL_LINKS",
			"Page has no internal links")
		a.recommend(3, model.CategoryOnPage, "Add internal links to related content")
	}

	return result
}

// StructuredData detects JSON-LD blocks, microdata, RDFa, Open Graph, and
// Twitter Card markup. Malformed JSON-LD is recorded as invalid, not fatal.
func (a *Analyzer) StructuredData() model.StructuredData {
	result := model.StructuredData{
		JSONLD:      []model.JSONLDBlock{},
		OpenGraph:   map[string]string{},
		TwitterCard: map[string]string{},
	}

	a.doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		result.JSONLD = append(result.JSONLD, parseJSONLD(s.Text()))
	})
	if len(result.JSONLD) == 0 {
		a.addIssue(model.SeverityMedium, model.CategoryStructuredData, "NO_SCHEMA",
			"No JSON-LD structured data found")
		a.recommend(3, model.CategoryStructuredData,
			"Add Schema.org JSON-LD markup (Organization, Article, FAQ, etc.)")
	}

	result.Microdata = a.doc.Find("[itemscope]").Length() > 0
	result.RDFa = a.doc.Find("[typeof]").Length() > 0

	a.doc.Find(`meta[property^="og:"]`).Each(func(_ int, s *goquery.Selection) {
		prop, _ := s.Attr("property")
		content, _ := s.Attr("content")
		if len(content) > maxTagValueLength {
			content = content[:maxTagValueLength]
		}
		result.OpenGraph[strings.TrimPrefix(prop, "og:")] = content
	})
	switch {
	case len(result.OpenGraph) == 0:
		a.addIssue(model.SeverityMedium, model.CategoryStructuredData, "NO_OG",
			"No Open Graph tags found")
		a.recommend(3, model.CategoryStructuredData,
			"Add Open Graph tags for better social sharing")
	default:
		if _, ok := result.OpenGraph["image"]; !ok {
			a.addIssue(model.SeverityLow, model.CategoryStructuredData, "OG_NO_IMAGE",
				"Open Graph image tag is missing")
		}
	}

	a.doc.Find(`meta[name^="twitter:"]`).Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		content, _ := s.Attr("content")
		if len(content) > maxTagValueLength {
			content = content[:maxTagValueLength]
		}
		result.TwitterCard[strings.TrimPrefix(name, "twitter:")] = content
	})
	if len(result.TwitterCard) == 0 {
		a.addIssue(model.SeverityLow, model.CategoryStructuredData, "NO_TWITTER_CARD",
			"No Twitter Card tags found")
	}

	return result
}

func parseJSONLD(raw string) model.JSONLDBlock {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return model.JSONLDBlock{Type: "Invalid JSON", Valid: false}
	}

	switch t := data["@type"].(type) {
	case string:
		return model.JSONLDBlock{Type: t, Valid: true}
	case []any:
		parts := make([]string, 0, len(t))
		for _, v := range t {
			if s, ok := v.(string); ok {
				parts = append(parts, s)
			}
		}
		return model.JSONLDBlock{Type: strings.Join(parts, ", "), Valid: true}
	default:
		return model.JSONLDBlock{Type: "Unknown", Valid: true}
	}
}

// Text extracts the readable body text, preferring the main content region
// and dropping navigation, script, and style noise.
func (a *Analyzer) Text() string {
	root := a.doc.Selection.Clone()
	root.Find("script,style,nav,header,footer,aside").Remove()

	for _, sel := range []string{"main", "article", "#content", ".content", "body"} {
		if region := root.Find(sel); region.Length() > 0 {
			return collapseWhitespace(region.First().Text())
		}
	}
	return collapseWhitespace(root.Text())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
