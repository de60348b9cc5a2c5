// Package lang declares the linguistic collaborators spec.md §1 places
// outside this core's scope (tokenizer, stemmer, stop list) and ships
// one concrete English implementation so the feedback selector and the
// index have something real to run against.
package lang

// Tokenizer splits free text into a sequence of word tokens, in source
// order. It does not stem or case-fold; that is Stemmer's job.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Stemmer reduces a single lowercased word to its linguistic stem
// (e.g. "jumped" -> "jump"). Implementations are expected to be pure
// functions of (language, word).
type Stemmer interface {
	Stem(word string) string
}

// StopList reports whether a term is a high-frequency stop word that
// the term dictionary indexes without position data (spec.md §3,
// TermType.Stop).
type StopList interface {
	IsStop(term string) bool
}

// The name->ID maps below are what a Search-intent index open uses to
// convert the names stored in index.inf back into IDs (spec.md §4.2);
// an unknown name is fatal for the open.

var languageIDs = map[string]uint32{
	"en": 1, "fr": 2, "de": 3, "es": 4, "it": 5, "nl": 6, "pt": 7,
	"sv": 8, "no": 9, "da": 10, "fi": 11, "ru": 12, "ja": 13, "zh": 14,
	"ko": 15, "th": 16,
}

var tokenizerIDs = map[string]uint32{
	"default": 1,
	"unigram": 2,
}

var stemmerIDs = map[string]uint32{
	"none":        0,
	"snowball-en": 1,
	"plural":      2,
}

// LanguageID maps an ISO 639-1 language code to its numeric ID.
func LanguageID(code string) (uint32, bool) {
	id, ok := languageIDs[code]
	return id, ok
}

// TokenizerID maps a tokenizer name to its numeric ID.
func TokenizerID(name string) (uint32, bool) {
	id, ok := tokenizerIDs[name]
	return id, ok
}

// StemmerID maps a stemmer name to its numeric ID.
func StemmerID(name string) (uint32, bool) {
	id, ok := stemmerIDs[name]
	return id, ok
}
