// Package feedback implements relevance-feedback term selection
// (spec.md §4.5): it turns a block of positive/negative natural-
// language text into a weighted expansion of an already-parsed query,
// against an open index's term dictionary.
package feedback

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring"

	"github.com/gostorm/fts/index"
	"github.com/gostorm/fts/lang"
)

// DocumentRange restricts the executor's term-weight merge to a
// [Min, Max] document-ID band (spec.md §4.5, "optional document-ID
// range"). A zero value means no restriction.
type DocumentRange struct {
	Min, Max index.DocumentID
}

// WeightVector is the executor's term-weight merge primitive (spec.md
// §4.5 step 8), an external collaborator spec.md §1 places out of this
// core's scope. AddTermWeight merges term's postings into the caller's
// in-progress weight vector at the given weight, honoring rng.
type WeightVector interface {
	AddTermWeight(term string, weight float64, rng DocumentRange) error
}

// WeightedTerm is one selected feedback term at its final merge
// weight, in selection order — the unit both a live run and a cache
// hit replay against a WeightVector.
type WeightedTerm struct {
	Term   string
	Weight float64
}

// CachedResult is what the executor-cache stores/returns for a
// feedback cache key (spec.md §4.5, "Cache interaction"): the selected
// terms (so a hit can be replayed against a fresh WeightVector without
// re-running the algorithm) and the report snippet produced by the
// original run.
type CachedResult struct {
	Terms   []WeightedTerm
	Snippet string
}

// Cache is the executor-cache facade feedback consults before running
// (spec.md §4.5, "Cache interaction"). Implementations key on the
// string composed by CacheKey.
type Cache interface {
	Get(key string) (CachedResult, bool)
	Put(key string, result CachedResult)
}

// CacheKey composes the feedback cache key from the positive/negative
// text concatenation (spec.md §4.5, "composes a cache key from the
// concatenation of positive and negative texts").
func CacheKey(positiveText, negativeText string) string {
	return positiveText + "\x00" + negativeText
}

// Config carries the parser-modifier-sourced tunables spec.md §4.5
// steps 4/5/7 read (spec.md §6's feedback_* modifiers); it is usually
// built from a parsed Modifiers value.
type Config struct {
	MinTermCount          int     // feedback_minimum_term_count, default 10
	MaxPercentage         float64 // feedback_maximum_term_percentage, default 25
	MaxCoverageThreshold  float64 // feedback_maximum_term_coverage_threshold, default 8
	DefaultTermWeight     float64 // term_weight, default 1.0
	DefaultFeedbackWeight float64 // feedback_term_weight, default 0.1
	CacheEnabled          bool
}

// DefaultConfig returns spec.md §6's documented modifier defaults.
func DefaultConfig() Config {
	return Config{
		MinTermCount:          10,
		MaxPercentage:         25,
		MaxCoverageThreshold:  8,
		DefaultTermWeight:     1.0,
		DefaultFeedbackWeight: 0.1,
	}
}

// Request is one feedback invocation's input (spec.md §4.5, "Input").
type Request struct {
	PositiveText string
	NegativeText string

	// FieldBitmap restricts dictionary lookups to these fields; nil or
	// empty means unrestricted.
	FieldBitmap *roaring.Bitmap

	DocumentRange DocumentRange

	// ParserSearchTermCount is the term count of the query this
	// feedback call is expanding (spec.md §4.5 step 7's
	// parser_search_term_count).
	ParserSearchTermCount int

	Config Config

	Tokenizer lang.Tokenizer
	Stemmer   lang.Stemmer
	// StopList is consulted in addition to the dictionary's own
	// TermType: a term the dictionary marks regular but StopList says
	// is a stop word is still dropped at weight 0. Optional.
	StopList lang.StopList
}

// Report is the textual trace appended to the search report (spec.md
// §4.5 step 9).
type Report struct {
	Lines        []string
	TotalTerms   int
	UniqueTerms  int
	UsedTerms    int
	FinalWeight  float64
	FromCache    bool
	CacheSnippet string
}

func (r *Report) add(format string, args ...interface{}) {
	r.Lines = append(r.Lines, fmt.Sprintf(format, args...))
}

// Snippet renders the lines accumulated during a live run, for storage
// in the cache on a miss.
func (r *Report) Snippet() string { return strings.Join(r.Lines, "\n") }

type candidate struct {
	term     string
	docCount uint32
	weight   float64
}

// Select runs spec.md §4.5's full algorithm (trie, dictionary lookup,
// sort, coverage filter, weight clamp, merge) or replays a cache hit,
// merging the result into vec.
func Select(terms *index.TermDictionary, docCount uint32, vec WeightVector, cache Cache, req Request) (*Report, error) {
	report := &Report{}

	var key string
	if req.Config.CacheEnabled && cache != nil {
		key = CacheKey(req.PositiveText, req.NegativeText)
		if hit, ok := cache.Get(key); ok {
			if err := replay(vec, hit.Terms); err != nil {
				return nil, err
			}
			report.FromCache = true
			report.CacheSnippet = hit.Snippet
			report.Lines = append(report.Lines, hit.Snippet)
			return report, nil
		}
	}

	if req.PositiveText == "" && req.NegativeText == "" {
		return nil, ErrInvalidFeedbackText
	}
	if req.Tokenizer == nil {
		return nil, ErrCreateTokenizerFailed
	}
	if req.DocumentRange.Max != 0 && req.DocumentRange.Min > req.DocumentRange.Max {
		return nil, ErrInvalidDocumentID
	}

	if docCount == 0 {
		docCount = 1
	}

	positive := buildTrie(req.PositiveText, req.Tokenizer, req.Stemmer)
	negative := buildTrie(req.NegativeText, req.Tokenizer, req.Stemmer)

	used, err := runSide(terms, docCount, req, positive, false, report)
	if err != nil {
		return nil, err
	}
	usedNeg, err := runSide(terms, docCount, req, negative, true, report)
	if err != nil {
		return nil, err
	}
	used = append(used, usedNeg...)

	for _, wt := range used {
		if err := vec.AddTermWeight(wt.term, wt.weight, req.DocumentRange); err != nil {
			if errors.Is(err, index.ErrTermNotFound) || errors.Is(err, index.ErrTermDoesNotOccur) {
				continue
			}
			return nil, err
		}
	}

	report.add("feedback terms: %s", formatTerms(used))
	report.add("total=%d unique=%d used=%d", report.TotalTerms, report.UniqueTerms, report.UsedTerms)

	if req.Config.CacheEnabled && cache != nil {
		cache.Put(key, CachedResult{Terms: toWeighted(used), Snippet: report.Snippet()})
	}
	return report, nil
}

func replay(vec WeightVector, terms []WeightedTerm) error {
	for _, t := range terms {
		if err := vec.AddTermWeight(t.Term, t.Weight, DocumentRange{}); err != nil {
			if errors.Is(err, index.ErrTermNotFound) || errors.Is(err, index.ErrTermDoesNotOccur) {
				continue
			}
			return err
		}
	}
	return nil
}

func toWeighted(cs []scoredTerm) []WeightedTerm {
	out := make([]WeightedTerm, len(cs))
	for i, c := range cs {
		out[i] = WeightedTerm{Term: c.term, Weight: c.weight}
	}
	return out
}

func formatTerms(cs []scoredTerm) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.term + "=" + strconv.FormatFloat(c.weight, 'f', 4, 64)
	}
	return strings.Join(parts, ",")
}

type scoredTerm struct {
	term   string
	weight float64
}

// buildTrie implements spec.md §4.5 step 1: tokenize text and insert
// both the original-case form (when fully upper-case) and the
// lowercased stemmed form into a term -> in-feedback-count map,
// skipping purely-numeric tokens. A map stands in for the source's
// prefix trie; nothing in the retrieved pack offers a small in-memory
// term-count trie more idiomatic than Go's builtin map for this size.
func buildTrie(text string, tok lang.Tokenizer, stem lang.Stemmer) map[string]int {
	counts := make(map[string]int)
	if text == "" || tok == nil {
		return counts
	}
	for _, word := range tok.Tokenize(text) {
		if isAllDigits(word) {
			continue
		}
		if isAllUpper(word) {
			counts[word]++
		}
		lowered := strings.ToLower(word)
		if stem != nil {
			lowered = stem.Stem(lowered)
		}
		counts[lowered]++
	}
	return counts
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

// runSide implements spec.md §4.5 steps 2-8 for one side (positive or
// negative) of the feedback text, appending its trace to report and
// returning the used candidates at their final clamped, signed weight.
func runSide(terms *index.TermDictionary, docCount uint32, req Request, trie map[string]int, negative bool, report *Report) ([]scoredTerm, error) {
	if len(trie) == 0 {
		return nil, nil
	}
	report.TotalTerms += sumCounts(trie)
	report.UniqueTerms += len(trie)

	candidates := make([]candidate, 0, len(trie))
	for term, count := range trie {
		entry, err := terms.Lookup(term, req.FieldBitmap)
		if err != nil {
			if errors.Is(err, index.ErrTermNotFound) || errors.Is(err, index.ErrTermDoesNotOccur) {
				continue
			}
			return nil, err
		}
		if entry.Type != index.TermTypeRegular {
			continue
		}
		if req.StopList != nil && req.StopList.IsStop(term) {
			continue
		}
		weight := idf(entry.TermCount, entry.DocumentCount, docCount) * float64(count)
		candidates = append(candidates, candidate{term: term, docCount: entry.DocumentCount, weight: weight})
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].weight > candidates[j].weight })

	cfg := req.Config
	maxTerms := int(math.Ceil(math.Max(float64(len(trie))*cfg.MaxPercentage/100, float64(cfg.MinTermCount))))

	var used []candidate
	for _, c := range candidates {
		if len(used) >= maxTerms {
			break
		}
		coverage := float64(c.docCount) / float64(docCount) * 100
		if coverage > cfg.MaxCoverageThreshold {
			continue
		}
		used = append(used, c)
	}

	if len(used) == 0 {
		report.add("feedback: no terms used (all stop, missing, or over coverage)")
		return nil, nil
	}

	w := float64(req.ParserSearchTermCount) / (math.Log(float64(len(used))) + 1)
	if w > cfg.DefaultTermWeight {
		w = cfg.DefaultTermWeight
	}
	if w < cfg.DefaultFeedbackWeight {
		w = cfg.DefaultFeedbackWeight
	}
	if negative {
		w = -w
	}

	report.UsedTerms += len(used)
	out := make([]scoredTerm, len(used))
	for i, c := range used {
		out[i] = scoredTerm{term: c.term, weight: w}
	}
	return out, nil
}

func sumCounts(trie map[string]int) int {
	total := 0
	for _, c := range trie {
		total += c
	}
	return total
}

// idf is the engine's IDF factor (spec.md §4.5 step 2): the classic
// smoothed inverse-document-frequency, unspecified exactly by spec.md
// beyond "a function of tc, dc, N" (SPEC_FULL.md §E).
func idf(tc, dc, n uint32) float64 {
	if dc == 0 {
		return 0
	}
	return math.Log(float64(n)/float64(dc)) + 1
}
