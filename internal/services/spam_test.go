package services

import (
	"strings"
	"testing"

	"comment-digest/internal/config"
	"comment-digest/internal/models"

	"github.com/stretchr/testify/assert"
)

func defaultSpamFilter() *SpamFilter {
	return NewSpamFilter(&config.Default().SpamFilter)
}

func TestNormalizeText(t *testing.T) {
	cases := map[string]string{
		"Hello,   World!!":      "hello world",
		"  Don't\tstop\n\nme ": "dont stop me",
		"ＦＩＲＳＴ":                "first",
		"!!! ???":               "",
		"snake_case stays":      "snake_case stays",
		"Café au lait":          "café au lait",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, NormalizeText(input), "input %q", input)
	}
}

func TestSpamFilter_KeepsSubstantiveCommentsInOrder(t *testing.T) {
	comments := substantiveComments(5)

	kept := defaultSpamFilter().Filter(comments)

	assert.Equal(t, commentIDs(comments), commentIDs(kept))
}

func TestSpamFilter_RejectsLowEffortPhraseRegardlessOfPadding(t *testing.T) {
	comments := []models.Comment{
		{ID: "a", Text: "first"},
		{ID: "b", Text: "   FIRST!!   "},
		{ID: "c", Text: "\n\tFirst \n"},
		substantiveComment(1),
	}

	kept := NewSpamFilter(&config.SpamFilterConfig{MinWords: config.Int(0), NGramSize: 5, NGramThreshold: 2}).Filter(comments)

	assert.Equal(t, []string{"id-1"}, commentIDs(kept))
}

func TestSpamFilter_RejectsShortComments(t *testing.T) {
	comments := []models.Comment{
		{ID: "short", Text: "This is a fine comment but it is far too short to count."},
		substantiveComment(1),
	}

	kept := defaultSpamFilter().Filter(comments)

	assert.Equal(t, []string{"id-1"}, commentIDs(kept))
}

func TestSpamFilter_RejectsLinksAndSelfPromotion(t *testing.T) {
	comments := []models.Comment{
		{ID: "url", Text: substantiveText(1) + " https://spam.example/win"},
		{ID: "www", Text: substantiveText(2) + " www.freestuff.net"},
		{ID: "domain", Text: substantiveText(3) + " grab it at bit.ly/abc123"},
		{ID: "promo", Text: substantiveText(4) + " Check out my channel for more!"},
		{ID: "sub4sub", Text: substantiveText(5) + " sub4sub anyone"},
		substantiveComment(6),
	}

	kept := defaultSpamFilter().Filter(comments)

	assert.Equal(t, []string{"id-6"}, commentIDs(kept))
}

func TestSpamFilter_RejectsContentWithoutAlphanumerics(t *testing.T) {
	comments := []models.Comment{
		{ID: "empty", Text: ""},
		{ID: "punct", Text: "!!! ??? ..."},
		{ID: "underscores", Text: "___ __ _"},
		{ID: "emoji", Text: "🔥🔥🔥 😂😂"},
	}

	kept := NewSpamFilter(&config.SpamFilterConfig{MinWords: config.Int(0)}).Filter(comments)

	assert.Empty(t, kept)
}

func TestSpamFilter_RejectsEveryCommentSharingATemplate(t *testing.T) {
	template := "buy cheap followers at great prices today"
	comments := []models.Comment{
		{ID: "t1", Text: substantiveText(1) + " " + template},
		substantiveComment(2),
		{ID: "t2", Text: template + " " + substantiveText(3)},
		{ID: "t3", Text: substantiveText(4) + " BUY cheap, followers at great prices! " + substantiveText(5)},
	}

	kept := defaultSpamFilter().Filter(comments)

	assert.Equal(t, []string{"id-2"}, commentIDs(kept))
}

func TestSpamFilter_NGramThresholdCountsDistinctComments(t *testing.T) {
	shared := "the exact same five words"
	comments := []models.Comment{
		{ID: "a", Text: substantiveText(1) + " " + shared + " " + shared},
		{ID: "b", Text: substantiveText(2) + " " + shared},
	}

	kept := NewSpamFilter(&config.SpamFilterConfig{NGramSize: 5, NGramThreshold: 3, MinWords: config.Int(25)}).Filter(comments)
	assert.Len(t, kept, 2, "a repeated n-gram inside one comment counts once")

	kept = NewSpamFilter(&config.SpamFilterConfig{NGramSize: 5, NGramThreshold: 2, MinWords: config.Int(25)}).Filter(comments)
	assert.Empty(t, kept)
}

func TestSpamFilter_ShortCommentsSkipNGramCheck(t *testing.T) {
	comments := []models.Comment{
		{ID: "a", Text: "really enjoyed the ending"},
		{ID: "b", Text: "Really enjoyed the ending!"},
	}

	kept := NewSpamFilter(&config.SpamFilterConfig{NGramSize: 5, NGramThreshold: 2, MinWords: config.Int(0)}).Filter(comments)

	assert.Equal(t, []string{"a", "b"}, commentIDs(kept))
}

func TestSpamFilter_OutputIsSubsequenceOfInput(t *testing.T) {
	var comments []models.Comment
	for i := 1; i <= 40; i++ {
		switch i % 4 {
		case 0:
			comments = append(comments, models.Comment{ID: "spam-" + strings.Repeat("x", i), Text: "lol"})
		default:
			comments = append(comments, substantiveComment(i))
		}
	}

	kept := defaultSpamFilter().Filter(comments)

	j := 0
	for _, c := range comments {
		if j < len(kept) && kept[j].ID == c.ID {
			j++
		}
	}
	assert.Equal(t, len(kept), j, "kept comments must appear in input order")
	assert.Len(t, kept, 30)
}

func TestNewSpamFilter_MinWordsFallsBackOnlyWhenUnset(t *testing.T) {
	short := []models.Comment{{ID: "short", Text: "the pacing in the second half felt rushed"}}

	assert.Empty(t, NewSpamFilter(&config.SpamFilterConfig{}).Filter(short))
	assert.Len(t, NewSpamFilter(&config.SpamFilterConfig{MinWords: config.Int(0)}).Filter(short), 1)
}
