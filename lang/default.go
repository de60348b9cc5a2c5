package lang

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
)

// English is the default Tokenizer/Stemmer/StopList bundle: a
// Unicode-letter/digit word splitter, the Snowball (Porter2) English
// stemmer, and a fixed common-word stop list. The original engine
// loads its stop list from a per-language file
// (original_source/src/search/stoplist.c); this stands in with a
// hardcoded set covering the words spec.md's worked examples exercise.
type English struct{}

var _ Tokenizer = English{}
var _ Stemmer = English{}
var _ StopList = English{}

// Tokenize splits text on runs of non-letter, non-digit runes. It does
// not fold case or strip possessives; callers lowercase as needed.
func (English) Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// Stem reduces word to its Snowball English stem. Stop words are
// stemmed too (stemStopWords=true) since the feedback selector decides
// stop-ness by dictionary lookup, not by the stemmer's own heuristic.
func (English) Stem(word string) string {
	return english.Stem(strings.ToLower(word), true)
}

// commonStopWords is a fixed list of high-frequency English words, per
// spec.md §3's TermType.Stop concept.
var commonStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "if": {}, "in": {}, "into": {}, "is": {},
	"it": {}, "no": {}, "not": {}, "of": {}, "on": {}, "or": {}, "over": {},
	"such": {}, "that": {}, "the": {}, "their": {}, "then": {}, "there": {},
	"these": {}, "they": {}, "this": {}, "to": {}, "was": {}, "will": {},
	"with": {},
}

// IsStop reports whether term is a stop word, ignoring case.
func (English) IsStop(term string) bool {
	_, ok := commonStopWords[strings.ToLower(term)]
	return ok
}
