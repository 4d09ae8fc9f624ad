package analyze

import (
	"math"
	"strings"
	"unicode"

	"github.com/sightline-ai/visibility-engine/internal/model"
)

// readability computes the standard published readability formulas from
// sentence, word, syllable, and character counts.
//
//	Flesch Reading Ease      206.835 - 1.015(W/S) - 84.6(Y/W)
//	Flesch-Kincaid Grade     0.39(W/S) + 11.8(Y/W) - 15.59
//	Gunning Fog              0.4[(W/S) + 100(C/W)]
//	SMOG Index               1.0430*sqrt(P * 30/S) + 3.1291
//	ARI                      4.71(L/W) + 0.5(W/S) - 21.43
//
// where W=words, S=sentences, Y=syllables, C=complex words (3+ syllables),
// P=polysyllabic words, L=letters and digits.
func readability(text string, wordCount int) model.Readability {
	if strings.TrimSpace(text) == "" {
		return model.Readability{}
	}

	tokens := strings.Fields(text)
	words := float64(len(tokens))
	if words == 0 {
		return model.Readability{}
	}

	sentences := float64(countSentences(text))

	var syllables, complexWords, chars float64
	for _, tok := range tokens {
		s := countSyllables(tok)
		syllables += float64(s)
		if s >= 3 {
			complexWords++
		}
		for _, r := range tok {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				chars++
			}
		}
	}

	wps := words / sentences
	spw := syllables / words

	return model.Readability{
		FleschReadingEase:    round1(206.835 - 1.015*wps - 84.6*spw),
		FleschKincaidGrade:   round1(0.39*wps + 11.8*spw - 15.59),
		GunningFog:           round1(0.4 * (wps + 100*complexWords/words)),
		SMOGIndex:            round1(1.0430*math.Sqrt(complexWords*30/sentences) + 3.1291),
		AutomatedReadability: round1(4.71*chars/words + 0.5*wps - 21.43),
		ReadingTimeMinutes:   round1(float64(wordCount) / readingWPM),
	}
}

func countSentences(text string) int {
	n := len(sentencePattern.FindAllString(text, -1))
	if n == 0 {
		return 1
	}
	return n
}

// countSyllables estimates syllables by counting vowel groups, discounting a
// trailing silent "e". Every word has at least one syllable.
func countSyllables(word string) int {
	word = strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if word == "" {
		return 1
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}

	if count < 1 {
		return 1
	}
	return count
}

func isVowel(r rune) bool {
	switch r {
	case 'a', 'e', 'i', 'o', 'u', 'y':
		return true
	}
	return false
}
