package analyze

// stopWords are excluded from keyword rankings.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "had": true,
	"her": true, "was": true, "one": true, "our": true, "out": true,
	"has": true, "have": true, "been": true, "were": true, "will": true,
	"with": true, "this": true, "that": true, "from": true, "they": true,
	"what": true, "which": true, "their": true, "there": true, "would": true,
	"could": true, "should": true, "about": true, "into": true, "more": true,
	"some": true, "than": true, "them": true, "then": true, "these": true,
	"when": true, "where": true, "your": true, "just": true, "also": true,
	"only": true, "other": true, "such": true, "like": true, "very": true,
	"even": true, "most": true, "make": true, "made": true, "each": true,
	"does": true, "how": true, "its": true, "may": true, "use": true,
	"any": true, "being": true, "both": true, "find": true, "here": true,
	"many": true, "through": true, "using": true, "well": true, "back": true,
	"much": true, "before": true, "must": true, "right": true, "still": true,
	"own": true, "same": true, "see": true, "now": true, "way": true,
	"come": true, "since": true, "another": true, "over": true,
}
