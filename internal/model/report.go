package model

import "time"

// Severity levels for issues.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Score categories. Every issue maps to exactly one of these.
const (
	CategoryTechnical      = "technical"
	CategoryOnPage         = "on_page"
	CategoryContent        = "content"
	CategoryStructuredData = "structured_data"
	CategoryAIReadiness    = "ai_readiness"
)

// Issue represents a single problem detected during analysis. The Code field
// is a stable identifier that external consumers key UI behavior off of.
type Issue struct {
	Severity string `json:"severity"`
	Category string `json:"category"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Element  string `json:"element,omitempty"`
}

// Recommendation is an actionable improvement derived from one or more
// issues. Priority 1 is the most urgent.
type Recommendation struct {
	Priority int    `json:"priority"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// MetaTag holds the value and length of a single meta tag.
type MetaTag struct {
	Value  string `json:"value"`
	Length int    `json:"length"`
}

// Metadata aggregates the head-level tags relevant to search engines.
type Metadata struct {
	Title       MetaTag `json:"title"`
	Description MetaTag `json:"description"`
	Canonical   string  `json:"canonical"`
	RobotsMeta  string  `json:"robots_meta"`
	Viewport    string  `json:"viewport"`
	Language    string  `json:"language"`
	KeywordsTag string  `json:"keywords_meta"`
}

// HeadingLevel summarizes the headings found at one level (h1..h6).
type HeadingLevel struct {
	Count  int      `json:"count"`
	Values []string `json:"values"`
}

// Headings holds the per-level breakdown plus a hierarchy check.
type Headings struct {
	Levels         map[string]HeadingLevel `json:"levels"`
	HierarchyValid bool                    `json:"hierarchy_valid"`
}

// Images summarizes image optimization state.
type Images struct {
	Total           int      `json:"total"`
	MissingAlt      int      `json:"missing_alt"`
	MissingAltURLs  []string `json:"missing_alt_urls,omitempty"`
	LazyLoadedCount int      `json:"lazy_loading_count"`
}

// Links splits anchors into internal and external by host.
type Links struct {
	InternalCount int `json:"internal_count"`
	ExternalCount int `json:"external_count"`
	NofollowCount int `json:"nofollow_count"`
}

// Keyword is a frequency-ranked term with its density on the page.
type Keyword struct {
	Keyword string  `json:"keyword"`
	Count   int     `json:"count"`
	Density float64 `json:"density_percent"`
	Score   float64 `json:"tfidf_score,omitempty"`
}

// Phrase is a recurring n-gram.
type Phrase struct {
	Phrase string `json:"phrase"`
	Count  int    `json:"count"`
}

// Readability collects the standard readability metrics.
type Readability struct {
	FleschReadingEase    float64 `json:"flesch_reading_ease"`
	FleschKincaidGrade   float64 `json:"flesch_kincaid_grade"`
	GunningFog           float64 `json:"gunning_fog"`
	SMOGIndex            float64 `json:"smog_index"`
	AutomatedReadability float64 `json:"automated_readability_index"`
	ReadingTimeMinutes   float64 `json:"reading_time_minutes"`
}

// Content holds text statistics and keyword rankings.
type Content struct {
	WordCount         int         `json:"word_count"`
	Readability       Readability `json:"readability"`
	KeywordsWeighted  []Keyword   `json:"keywords_tfidf"`
	KeywordsFrequency []Keyword   `json:"keywords_frequency"`
	TopBigrams        []Phrase    `json:"top_bigrams"`
	TopTrigrams       []Phrase    `json:"top_trigrams"`
}

// JSONLDBlock describes one JSON-LD script block found on the page.
type JSONLDBlock struct {
	Type  string `json:"type"`
	Valid bool   `json:"valid"`
}

// StructuredData reports schema and social markup presence.
type StructuredData struct {
	JSONLD      []JSONLDBlock     `json:"json_ld"`
	Microdata   bool              `json:"microdata"`
	RDFa        bool              `json:"rdfa"`
	OpenGraph   map[string]string `json:"open_graph"`
	TwitterCard map[string]string `json:"twitter_card"`
}

// Technical captures transport-level findings from the main page response.
type Technical struct {
	HTTPS                 bool   `json:"https"`
	ResponseTimeMs        int64  `json:"response_time_ms"`
	ContentType           string `json:"content_type"`
	Server                string `json:"server"`
	XFrameOptions         string `json:"x_frame_options"`
	ContentSecurityPolicy bool   `json:"content_security_policy"`
}

// RobotsTxt reports robots.txt findings for the origin.
type RobotsTxt struct {
	Present          bool              `json:"present"`
	AIBotsStatus     map[string]string `json:"ai_bots_status"`
	SitemapsDeclared []string          `json:"sitemaps_declared"`
}

// LLMSTxt reports llms.txt presence with a short content preview.
type LLMSTxt struct {
	Present        bool   `json:"present"`
	ContentPreview string `json:"content_preview,omitempty"`
}

// SitemapXML reports sitemap.xml presence.
type SitemapXML struct {
	Present bool `json:"present"`
}

// AIIndexing groups the AI-crawler discoverability signals.
type AIIndexing struct {
	RobotsTxt  RobotsTxt  `json:"robots_txt"`
	LLMSTxt    LLMSTxt    `json:"llms_txt"`
	SitemapXML SitemapXML `json:"sitemap_xml"`
}

// Scores holds the five category scores and the overall score, all in [0,100].
type Scores struct {
	Overall        int `json:"overall"`
	Technical      int `json:"technical"`
	OnPage         int `json:"on_page"`
	Content        int `json:"content"`
	StructuredData int `json:"structured_data"`
	AIReadiness    int `json:"ai_readiness"`
}

// Report is the complete result of analyzing one URL. Immutable once built.
type Report struct {
	URL             string           `json:"url"`
	Timestamp       time.Time        `json:"timestamp"`
	CrawlTimeMs     int64            `json:"crawl_time_ms"`
	Scores          Scores           `json:"scores"`
	Metadata        Metadata         `json:"metadata"`
	Headings        Headings         `json:"headings"`
	Images          Images           `json:"images"`
	Links           Links            `json:"links"`
	Content         Content          `json:"content"`
	StructuredData  StructuredData   `json:"structured_data"`
	Technical       Technical        `json:"technical"`
	AIIndexing      AIIndexing       `json:"ai_indexing"`
	Issues          []Issue          `json:"issues"`
	Recommendations []Recommendation `json:"recommendations"`
}

// ErrorResponse is the JSON shape returned on failure.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
