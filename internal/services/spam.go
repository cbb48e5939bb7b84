package services

import (
	"regexp"
	"strings"
	"unicode"

	"comment-digest/internal/config"
	"comment-digest/internal/models"

	"golang.org/x/text/unicode/norm"
)

var (
	linkPattern = regexp.MustCompile(`(?i)(\bhttps?://\S+|\bwww\.\S+|\b[a-z0-9-]+\.(com|net|org|io|ly|gg|me|tv|xyz)/\S*)`)

	selfPromoPhrases = []string{
		"check out my channel",
		"check my channel",
		"subscribe to my channel",
		"sub to my channel",
		"visit my channel",
		"check out my video",
		"check out my new video",
		"sub4sub",
		"sub for sub",
		"follow me on",
		"dm me on",
		"message me on whatsapp",
	}

	lowEffortPhrases = map[string]struct{}{
		"first":         {},
		"first comment": {},
		"lol":           {},
		"lmao":          {},
		"nice":          {},
		"cool":          {},
		"wow":           {},
		"great video":   {},
		"nice video":    {},
		"good video":    {},
		"love it":       {},
		"love this":     {},
		"awesome":       {},
		"amazing":       {},
		"thanks":        {},
		"thank you":     {},
		"same":          {},
		"who is here":   {},
		"early":         {},
		"hi":            {},
		"hello":         {},
	}
)

// SpamFilter removes low-effort, templated and link-spam comments before any
// comment is sent for categorization. It is pure and safe for concurrent use.
type SpamFilter struct {
	ngramSize      int
	ngramThreshold int
	minWords       int
}

// NewSpamFilter creates a spam filter from configuration
func NewSpamFilter(cfg *config.SpamFilterConfig) *SpamFilter {
	f := &SpamFilter{
		ngramSize:      cfg.NGramSize,
		ngramThreshold: cfg.NGramThreshold,
		minWords:       config.DefaultMinWords,
	}
	if cfg.MinWords != nil {
		f.minWords = *cfg.MinWords
	}
	if f.ngramSize < 1 {
		f.ngramSize = config.DefaultNGramSize
	}
	if f.ngramThreshold < 2 {
		f.ngramThreshold = config.DefaultNGramThreshold
	}
	if f.minWords < 0 {
		f.minWords = 0
	}
	return f
}

type normalizedComment struct {
	text  string
	words []string
}

// Filter returns the comments that pass every rule, in their original order
func (f *SpamFilter) Filter(comments []models.Comment) []models.Comment {
	normalized := make([]normalizedComment, len(comments))
	for i, c := range comments {
		text := NormalizeText(c.Text)
		normalized[i] = normalizedComment{text: text, words: strings.Fields(text)}
	}

	spamNGrams := f.repeatedNGrams(normalized)

	kept := make([]models.Comment, 0, len(comments))
	for i, c := range comments {
		if f.rejected(c.Text, normalized[i], spamNGrams) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// repeatedNGrams returns the n-grams that occur in at least ngramThreshold
// distinct comments
func (f *SpamFilter) repeatedNGrams(normalized []normalizedComment) map[string]struct{} {
	counts := make(map[string]int)
	for _, n := range normalized {
		for gram := range f.ngrams(n.words) {
			counts[gram]++
		}
	}

	spam := make(map[string]struct{})
	for gram, count := range counts {
		if count >= f.ngramThreshold {
			spam[gram] = struct{}{}
		}
	}
	return spam
}

// ngrams returns the distinct contiguous n-grams of words. Sequences shorter
// than ngramSize yield none.
func (f *SpamFilter) ngrams(words []string) map[string]struct{} {
	if len(words) < f.ngramSize {
		return nil
	}
	grams := make(map[string]struct{}, len(words)-f.ngramSize+1)
	for i := 0; i+f.ngramSize <= len(words); i++ {
		grams[strings.Join(words[i:i+f.ngramSize], " ")] = struct{}{}
	}
	return grams
}

func (f *SpamFilter) rejected(raw string, n normalizedComment, spamNGrams map[string]struct{}) bool {
	if n.text == "" {
		return true
	}
	if !hasAlphanumeric(n.text) {
		return true
	}
	if _, lowEffort := lowEffortPhrases[n.text]; lowEffort {
		return true
	}
	if linkPattern.MatchString(raw) || containsSelfPromo(n.text) {
		return true
	}
	for gram := range f.ngrams(n.words) {
		if _, spam := spamNGrams[gram]; spam {
			return true
		}
	}
	return len(n.words) < f.minWords
}

// NormalizeText lowercases text, strips everything that is not a word
// character or whitespace, and collapses runs of whitespace
func NormalizeText(text string) string {
	text = strings.ToLower(norm.NFKC.String(text))

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if isWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func hasAlphanumeric(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func containsSelfPromo(normalized string) bool {
	padded := " " + normalized + " "
	for _, phrase := range selfPromoPhrases {
		if strings.Contains(padded, " "+phrase+" ") {
			return true
		}
	}
	return false
}
