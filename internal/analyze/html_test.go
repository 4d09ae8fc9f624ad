package analyze

import (
	"strings"
	"testing"

	"github.com/sightline-ai/visibility-engine/internal/model"
)

const fullPage = `<!DOCTYPE html>
<html lang="en">
<head>
<title>A Reasonably Long Page Title For Testing Purposes</title>
<meta name="description" content="A description that is comfortably inside the recommended band of seventy to one hundred and sixty characters for meta descriptions.">
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="canonical" href="https://example.com/page">
<meta property="og:title" content="OG Title">
<meta property="og:image" content="https://example.com/img.png">
<meta name="twitter:card" content="summary">
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Organization"}</script>
</head>
<body>
<h1>Main Heading</h1>
<h2>Section</h2>
<h3>Subsection</h3>
<img src="/a.png" alt="described">
<img src="/b.png">
<img src="/c.png" alt="" loading="lazy">
<a href="/internal">in</a>
<a href="https://other.example.org/x" rel="nofollow">out</a>
<a href="#anchor">skip</a>
<a href="mailto:x@example.com">skip</a>
<main><p>Hello world content here.</p></main>
</body>
</html>`

func mustAnalyzer(t *testing.T, body string) *Analyzer {
	t.Helper()
	a, err := New(body, "https://example.com/page")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func hasIssue(issues []model.Issue, code string) bool {
	for _, i := range issues {
		if i.Code == code {
			return true
		}
	}
	return false
}

func TestMetadata_CompletePage(t *testing.T) {
	a := mustAnalyzer(t, fullPage)
	md := a.Metadata()

	if md.Title.Value != "A Reasonably Long Page Title For Testing Purposes" {
		t.Errorf("title = %q", md.Title.Value)
	}
	if md.Title.Length != len(md.Title.Value) {
		t.Errorf("title length = %d", md.Title.Length)
	}
	if md.Canonical != "https://example.com/page" {
		t.Errorf("canonical = %q", md.Canonical)
	}
	if md.Language != "en" {
		t.Errorf("language = %q", md.Language)
	}
	if md.Viewport == "" {
		t.Error("viewport should be present")
	}

	for _, code := range []string{"TITLE_MISSING", "META_DESC_MISSING", "CANONICAL_MISSING", "VIEWPORT_MISSING"} {
		if hasIssue(a.Issues(), code) {
			t.Errorf("unexpected issue %s", code)
		}
	}
}

func TestMetadata_MissingEverything(t *testing.T) {
	a := mustAnalyzer(t, `<html><head></head><body></body></html>`)
	a.Metadata()

	for _, code := range []string{"TITLE_MISSING", "META_DESC_MISSING", "CANONICAL_MISSING", "VIEWPORT_MISSING", "LANG_MISSING"} {
		if !hasIssue(a.Issues(), code) {
			t.Errorf("expected issue %s", code)
		}
	}
}

func TestMetadata_TitleLengths(t *testing.T) {
	tests := []struct {
		name string
		html string
		code string
	}{
		{
			name: "short title",
			html: `<html><head><title>Short</title></head></html>`,
			code: "TITLE_TOO_SHORT",
		},
		{
			name: "long title",
			html: `<html><head><title>` + strings.Repeat("very long title ", 10) + `</title></head></html>`,
			code: "TITLE_TOO_LONG",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := mustAnalyzer(t, tt.html)
			a.Metadata()
			if !hasIssue(a.Issues(), tt.code) {
				t.Errorf("expected issue %s", tt.code)
			}
		})
	}
}

func TestHeadings(t *testing.T) {
	a := mustAnalyzer(t, fullPage)
	h := a.Headings()

	if h.Levels["h1"].Count != 1 {
		t.Errorf("h1 count = %d, want 1", h.Levels["h1"].Count)
	}
	if h.Levels["h1"].Values[0] != "Main Heading" {
		t.Errorf("h1 value = %q", h.Levels["h1"].Values[0])
	}
	if !h.HierarchyValid {
		t.Error("hierarchy should be valid")
	}
	if hasIssue(a.Issues(), "H1_MISSING") {
		t.Error("unexpected H1_MISSING")
	}
}

func TestHeadings_MissingH1(t *testing.T) {
	a := mustAnalyzer(t, `<html><body><h2>Only</h2></body></html>`)
	a.Headings()

	if !hasIssue(a.Issues(), "H1_MISSING") {
		t.Error("expected H1_MISSING")
	}
	var found model.Issue
	for _, i := range a.Issues() {
		if i.Code == "H1_MISSING" {
			found = i
		}
	}
	if found.Severity != model.SeverityHigh {
		t.Errorf("H1_MISSING severity = %q, want high", found.Severity)
	}
	if found.Category != model.CategoryOnPage {
		t.Errorf("H1_MISSING category = %q, want on_page", found.Category)
	}
}

func TestHeadings_MultipleH1(t *testing.T) {
	a := mustAnalyzer(t, `<html><body><h1>One</h1><h1>Two</h1></body></html>`)
	h := a.Headings()

	if h.Levels["h1"].Count != 2 {
		t.Errorf("h1 count = %d, want 2", h.Levels["h1"].Count)
	}
	if !hasIssue(a.Issues(), "MULTIPLE_H1") {
		t.Error("expected MULTIPLE_H1")
	}
}

func TestHeadings_SkippedLevel(t *testing.T) {
	a := mustAnalyzer(t, `<html><body><h1>Top</h1><h4>Jumped</h4></body></html>`)
	h := a.Headings()

	if h.HierarchyValid {
		t.Error("hierarchy should be invalid when a level is skipped")
	}
	if !hasIssue(a.Issues(), "HEADING_HIERARCHY") {
		t.Error("expected HEADING_HIERARCHY")
	}
}

func TestImages(t *testing.T) {
	a := mustAnalyzer(t, fullPage)
	img := a.Images()

	if img.Total != 3 {
		t.Errorf("total = %d, want 3", img.Total)
	}
	if img.MissingAlt != 2 {
		t.Errorf("missing alt = %d, want 2", img.MissingAlt)
	}
	if img.LazyLoadedCount != 1 {
		t.Errorf("lazy = %d, want 1", img.LazyLoadedCount)
	}
	if !hasIssue(a.Issues(), "MISSING_ALT") {
		t.Error("expected MISSING_ALT")
	}
}

func TestLinks(t *testing.T) {
	a := mustAnalyzer(t, fullPage)
	links := a.Links()

	if links.InternalCount != 1 {
		t.Errorf("internal = %d, want 1", links.InternalCount)
	}
	if links.ExternalCount != 1 {
		t.Errorf("external = %d, want 1", links.ExternalCount)
	}
	if links.NofollowCount != 1 {
		t.Errorf("nofollow = %d, want 1", links.NofollowCount)
	}
}

func TestLinks_NoneInternal(t *testing.T) {
	a := mustAnalyzer(t, `<html><body><a href="https://other.example.org">x</a></body></html>`)
	a.Links()

	if !hasIssue(a.Issues(), "NO_INTERNAL_LINKS") {
		t.Error("expected NO_INTERNAL_LINKS")
	}
}

func TestStructuredData(t *testing.T) {
	a := mustAnalyzer(t, fullPage)
	sd := a.StructuredData()

	if len(sd.JSONLD) != 1 || sd.JSONLD[0].Type != "Organization" || !sd.JSONLD[0].Valid {
		t.Errorf("json-ld = %+v", sd.JSONLD)
	}
	if sd.OpenGraph["title"] != "OG Title" {
		t.Errorf("og:title = %q", sd.OpenGraph["title"])
	}
	if sd.TwitterCard["card"] != "summary" {
		t.Errorf("twitter:card = %q", sd.TwitterCard["card"])
	}
	if hasIssue(a.Issues(), "NO_SCHEMA") || hasIssue(a.Issues(), "NO_OG") {
		t.Error("unexpected structured data issues")
	}
}

func TestStructuredData_InvalidJSONLD(t *testing.T) {
	a := mustAnalyzer(t, `<html><head><script type="application/ld+json">{not json</script></head></html>`)
	sd := a.StructuredData()

	if len(sd.JSONLD) != 1 {
		t.Fatalf("json-ld blocks = %d, want 1", len(sd.JSONLD))
	}
	if sd.JSONLD[0].Valid {
		t.Error("malformed block should be recorded as invalid")
	}
}

func TestStructuredData_AllMissing(t *testing.T) {
	a := mustAnalyzer(t, `<html><body><p>plain</p></body></html>`)
	a.StructuredData()

	for _, code := range []string{"NO_SCHEMA", "NO_OG", "NO_TWITTER_CARD"} {
		if !hasIssue(a.Issues(), code) {
			t.Errorf("expected issue %s", code)
		}
	}
}

func TestText_PrefersMainContent(t *testing.T) {
	a := mustAnalyzer(t, `<html><body>
	<nav>Navigation junk</nav>
	<main><p>Real   content    here.</p></main>
	<footer>Footer junk</footer>
	<script>var x = 1;</script>
	</body></html>`)

	text := a.Text()
	if text != "Real content here." {
		t.Errorf("text = %q", text)
	}
}

func TestText_FallsBackToBody(t *testing.T) {
	a := mustAnalyzer(t, `<html><body><p>Body text only.</p><style>.x{}</style></body></html>`)
	if got := a.Text(); got != "Body text only." {
		t.Errorf("text = %q", got)
	}
}
