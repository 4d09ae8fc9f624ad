package analyze

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/sightline-ai/visibility-engine/internal/model"
)

const (
	topKeywords = 15
	topPhrases  = 10
	// Average adult reading speed in words per minute.
	readingWPM = 200
)

var (
	wordPattern     = regexp.MustCompile(`[a-z]{3,}`)
	sentencePattern = regexp.MustCompile(`[.!?]+`)
)

// Content computes word statistics, readability metrics, and keyword
// rankings for the extracted page text.
func Content(text string) model.Content {
	words := extractWords(text)

	return model.Content{
		WordCount:         len(words),
		Readability:       readability(text, len(words)),
		KeywordsWeighted:  keywordsWeighted(text, words),
		KeywordsFrequency: keywordsByFrequency(words, topKeywords),
		TopBigrams:        phrases(words, 2, topPhrases),
		TopTrigrams:       phrases(words, 3, topPhrases),
	}
}

// extractWords lowercases the text and keeps alphabetic tokens of three or
// more characters.
func extractWords(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// keywordsByFrequency ranks non-stop-word terms by occurrence count with
// density relative to the filtered word total.
func keywordsByFrequency(words []string, n int) []model.Keyword {
	filtered := make([]string, 0, len(words))
	for _, w := range words {
		if !stopWords[w] {
			filtered = append(filtered, w)
		}
	}

	freq := make(map[string]int, len(filtered))
	for _, w := range filtered {
		freq[w]++
	}

	total := len(filtered)
	if total == 0 {
		total = 1
	}

	ranked := rankCounts(freq)
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	keywords := make([]model.Keyword, 0, len(ranked))
	for _, entry := range ranked {
		keywords = append(keywords, model.Keyword{
			Keyword: entry.key,
			Count:   entry.count,
			Density: round2(float64(entry.count) / float64(total) * 100),
		})
	}
	return keywords
}

// keywordsWeighted ranks terms by a TF-IDF score computed over the page's own
// sentences. Pages with fewer than two usable sentences fall back to plain
// frequency ranking; the weighted ranking is an enrichment, never a failure.
func keywordsWeighted(text string, words []string) []model.Keyword {
	sentences := usableSentences(text)
	if len(sentences) < 2 {
		return keywordsByFrequency(words, topKeywords)
	}

	df := make(map[string]int)
	tfs := make([]map[string]int, 0, len(sentences))
	for _, s := range sentences {
		tf := make(map[string]int)
		for _, w := range extractWords(s) {
			if stopWords[w] {
				continue
			}
			tf[w]++
		}
		for w := range tf {
			df[w]++
		}
		tfs = append(tfs, tf)
	}

	n := float64(len(sentences))
	scores := make(map[string]float64, len(df))
	counts := make(map[string]int, len(df))
	for _, tf := range tfs {
		for w, c := range tf {
			idf := math.Log((1+n)/(1+float64(df[w]))) + 1
			scores[w] += float64(c) * idf
			counts[w] += c
		}
	}

	type scored struct {
		word  string
		score float64
	}
	ranked := make([]scored, 0, len(scores))
	for w, s := range scores {
		ranked = append(ranked, scored{w, s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].word < ranked[j].word
	})
	if len(ranked) > topKeywords {
		ranked = ranked[:topKeywords]
	}

	keywords := make([]model.Keyword, 0, len(ranked))
	for _, entry := range ranked {
		keywords = append(keywords, model.Keyword{
			Keyword: entry.word,
			Count:   counts[entry.word],
			Score:   round3(entry.score),
		})
	}
	return keywords
}

func usableSentences(text string) []string {
	var sentences []string
	for _, s := range sentencePattern.Split(text, -1) {
		if s = strings.TrimSpace(s); len(s) > 20 {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// phrases extracts recurring n-grams; single occurrences are noise and are
// dropped.
func phrases(words []string, n, k int) []model.Phrase {
	if len(words) < n {
		return nil
	}

	freq := make(map[string]int)
	for i := 0; i+n <= len(words); i++ {
		freq[strings.Join(words[i:i+n], " ")]++
	}

	ranked := rankCounts(freq)
	var result []model.Phrase
	for _, entry := range ranked {
		if entry.count < 2 {
			continue
		}
		result = append(result, model.Phrase{Phrase: entry.key, Count: entry.count})
		if len(result) == k {
			break
		}
	}
	return result
}

type countEntry struct {
	key   string
	count int
}

// rankCounts orders map entries by descending count, breaking ties
// alphabetically so rankings stay deterministic.
func rankCounts(freq map[string]int) []countEntry {
	entries := make([]countEntry, 0, len(freq))
	for k, v := range freq {
		entries = append(entries, countEntry{k, v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	return entries
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
