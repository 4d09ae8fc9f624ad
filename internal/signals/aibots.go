package signals

// BotInfo identifies one AI crawler tracked by the robots.txt classifier.
type BotInfo struct {
	Name     string
	Operator string
	Purpose  string
}

// AIBots lists the crawlers whose robots.txt treatment determines how visible
// a site is to AI systems. Names match the user-agent tokens the operators
// publish.
var AIBots = []BotInfo{
	{Name: "GPTBot", Operator: "OpenAI", Purpose: "model training"},
	{Name: "OAI-SearchBot", Operator: "OpenAI", Purpose: "search indexing"},
	{Name: "ChatGPT-User", Operator: "OpenAI", Purpose: "user-initiated browsing"},
	{Name: "ClaudeBot", Operator: "Anthropic", Purpose: "model training"},
	{Name: "Claude-Web", Operator: "Anthropic", Purpose: "user-initiated browsing"},
	{Name: "anthropic-ai", Operator: "Anthropic", Purpose: "model training"},
	{Name: "Google-Extended", Operator: "Google", Purpose: "Gemini training"},
	{Name: "GoogleOther", Operator: "Google", Purpose: "research and development"},
	{Name: "PerplexityBot", Operator: "Perplexity", Purpose: "search indexing"},
	{Name: "Bytespider", Operator: "ByteDance", Purpose: "model training"},
	{Name: "CCBot", Operator: "Common Crawl", Purpose: "open web corpus"},
	{Name: "Amazonbot", Operator: "Amazon", Purpose: "Alexa answers"},
	{Name: "Applebot-Extended", Operator: "Apple", Purpose: "foundation model training"},
	{Name: "cohere-ai", Operator: "Cohere", Purpose: "model training"},
	{Name: "Diffbot", Operator: "Diffbot", Purpose: "structured extraction"},
	{Name: "FacebookBot", Operator: "Meta", Purpose: "link previews and training"},
	{Name: "Meta-ExternalAgent", Operator: "Meta", Purpose: "model training"},
	{Name: "omgili", Operator: "Webz.io", Purpose: "data feeds"},
	{Name: "Timpibot", Operator: "Timpi", Purpose: "decentralized search"},
}
