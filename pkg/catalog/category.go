package catalog

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category names.
const (
	CategoryAI             = "AI & Machine Learning"
	CategoryDeveloperKits  = "Developer Kits"
	CategoryInfrastructure = "Servers & Infrastructure"
	CategorySearch         = "Search & Data Retrieval"
	CategoryAutomation     = "Automation & Productivity"
	CategoryWeb            = "Web & Internet Tools"
	CategoryCommunication  = "Communication"
	CategoryFiles          = "File & Data Management"
	CategoryOthers         = "Others"
)

type categoryKeywords struct {
	name     string
	keywords []string
}

// keywordTable is ordered; on equal scores the earlier category wins.
//
//nolint:gochecknoglobals // Read-only lookup table.
var keywordTable = []categoryKeywords{
	{CategoryAI, []string{
		"ai", "ml", "machine learning", "neural", "model", "gpt", "llm", "openai", "anthropic",
		"claude", "chatgpt", "embedding", "vector", "rag", "semantic", "nlp", "natural language",
		"tensorflow", "pytorch", "huggingface", "langchain", "ollama", "inference", "training",
	}},
	{CategoryDeveloperKits, []string{
		"sdk", "api", "framework", "library", "toolkit", "dev", "development", "boilerplate",
		"template", "starter", "scaffold", "cli", "tool", "utility", "helper", "package",
	}},
	{CategoryInfrastructure, []string{
		"server", "backend", "infrastructure", "cloud", "aws", "azure", "gcp", "docker",
		"kubernetes", "k8s", "deployment", "hosting", "vercel", "netlify", "heroku",
		"database", "postgres", "mysql", "mongodb", "redis", "supabase", "firebase",
	}},
	{CategorySearch, []string{
		"search", "query", "find", "lookup", "retrieve", "fetch", "scrape", "crawl",
		"index", "elasticsearch", "algolia", "data", "information", "knowledge", "wiki",
	}},
	{CategoryAutomation, []string{
		"automation", "workflow", "task", "schedule", "cron", "productivity", "efficiency",
		"organize", "manage", "todo", "note", "reminder", "calendar", "time", "tracking",
	}},
	{CategoryWeb, []string{
		"web", "browser", "http", "url", "website", "html", "css", "javascript", "frontend",
		"react", "vue", "angular", "next", "scraping", "selenium", "puppeteer", "playwright",
	}},
	{CategoryCommunication, []string{
		"chat", "message", "email", "notification", "slack", "discord", "telegram", "whatsapp",
		"sms", "communication", "social", "twitter", "linkedin", "facebook", "reddit",
	}},
	{CategoryFiles, []string{
		"file", "filesystem", "storage", "upload", "download", "sync", "backup", "archive",
		"compress", "zip", "pdf", "document", "spreadsheet", "csv", "json", "xml", "yaml",
		"s3", "drive", "dropbox", "onedrive",
	}},
}

// KnownCategories returns the category names in display order, Others last.
func KnownCategories() []string {
	names := make([]string, 0, len(keywordTable)+1)
	for _, c := range keywordTable {
		names = append(names, c.name)
	}
	return append(names, CategoryOthers)
}

// Categorize scores each category by how many of its keywords occur as
// substrings of the combined text and returns the best, or CategoryOthers
// when none match.
func Categorize(name, description string, topics []string) string {
	text := strings.ToLower(strings.Join(append([]string{name, description}, topics...), " "))

	best, bestScore := CategoryOthers, 0
	for _, c := range keywordTable {
		score := 0
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = c.name, score
		}
	}
	return best
}

//nolint:gochecknoglobals // Compiled patterns are immutable.
var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	aiWordPattern     = regexp.MustCompile(`\bAi\b`)
)

// CategorySlug turns a category name into its URL path segment.
func CategorySlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, "&", "and")
	return whitespacePattern.ReplaceAllString(slug, "-")
}

// DisplayName reverses CategorySlug as far as it can: hyphens become spaces,
// "and" becomes "&", words are title-cased and "ai" is upper-cased.
func DisplayName(slug string) string {
	words := strings.Split(strings.ToLower(slug), "-")
	for i, w := range words {
		if w == "and" {
			words[i] = "&"
		}
	}
	title := cases.Title(language.English).String(strings.Join(words, " "))
	return aiWordPattern.ReplaceAllString(title, "AI")
}

// siteCategories maps well-known site names to the category of tools that
// are suggested to visitors of that site.
//
//nolint:gochecknoglobals // Read-only lookup table.
var siteCategories = map[string]string{
	"GitHub":         CategoryDeveloperKits,
	"Stack Overflow": CategoryDeveloperKits,
	"Medium":         CategoryWeb,
	"Dev.to":         CategoryDeveloperKits,
	"Twitter":        CategoryCommunication,
	"LinkedIn":       CategoryCommunication,
	"Reddit":         CategoryCommunication,
	"Hacker News":    CategoryWeb,
	"Product Hunt":   CategoryWeb,
	"OpenAI":         CategoryAI,
	"Anthropic":      CategoryAI,
	"Google":         CategoryAI,
	"Hugging Face":   CategoryAI,
	"Kaggle":         CategoryFiles,
	"Jupyter":        CategoryDeveloperKits,
	"Google Colab":   CategoryDeveloperKits,
	"localhost":      CategoryAI,
}

// SiteCategory picks the category suggested for a site name. Exact names
// come from a fixed table; anything else falls through keyword checks and
// finally CategoryAI.
func SiteCategory(site string) string {
	if c, ok := siteCategories[site]; ok {
		return c
	}
	switch {
	case containsAny(site, "github", "gitlab", "dev"):
		return CategoryDeveloperKits
	case containsAny(site, "ai", "llm", "claude", "gpt"):
		return CategoryAI
	case containsAny(site, "search", "data"):
		return CategorySearch
	default:
		return CategoryAI
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
