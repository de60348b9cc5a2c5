package feedback

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gostorm/fts/index"
	"github.com/gostorm/fts/lang"
)

type fakeVector struct {
	merged map[string]float64
}

func newFakeVector() *fakeVector { return &fakeVector{merged: make(map[string]float64)} }

func (v *fakeVector) AddTermWeight(term string, weight float64, rng DocumentRange) error {
	v.merged[term] = weight
	return nil
}

type fakeCache struct {
	store map[string]CachedResult
}

func newFakeCache() *fakeCache { return &fakeCache{store: make(map[string]CachedResult)} }

func (c *fakeCache) Get(key string) (CachedResult, bool) {
	v, ok := c.store[key]
	return v, ok
}

func (c *fakeCache) Put(key string, result CachedResult) { c.store[key] = result }

func openTestIndex(t *testing.T) *index.Index {
	t.Helper()
	dir := t.TempDir()
	idx, err := index.Open(index.FilePaths{IndexDir: dir, Name: "feedbacktest"}, index.IntentCreate)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func mustAdd(t *testing.T, terms *index.TermDictionary, term string, typ index.TermType, tc, dc uint32) {
	t.Helper()
	require.NoError(t, terms.Add(term, index.TermEntry{Type: typ, TermCount: tc, DocumentCount: dc}))
}

// TestSelectScenario6 mirrors spec.md §8 scenario 6: N=1000,
// positive text "quick brown fox jumped over", fmtc=2, fmtp=50,
// fmtct=10, default weights. quick/brown/fox are used; jump is
// dropped (its coverage is far over threshold, and the max-terms cap
// independently stops selection at 3); over is dropped as a stop term.
func TestSelectScenario6(t *testing.T) {
	idx := openTestIndex(t)
	terms := idx.Terms()
	mustAdd(t, terms, "quick", index.TermTypeRegular, 500, 10)
	mustAdd(t, terms, "brown", index.TermTypeRegular, 200, 8)
	mustAdd(t, terms, "fox", index.TermTypeRegular, 80, 2)
	mustAdd(t, terms, "jump", index.TermTypeRegular, 1200, 300)
	mustAdd(t, terms, "over", index.TermTypeStop, 5000, 900)

	vec := newFakeVector()
	req := Request{
		PositiveText:          "quick brown fox jumped over",
		ParserSearchTermCount: 2,
		Config: Config{
			MinTermCount:          2,
			MaxPercentage:         50,
			MaxCoverageThreshold:  10,
			DefaultTermWeight:     1.0,
			DefaultFeedbackWeight: 0.1,
		},
		Tokenizer: lang.English{},
		Stemmer:   lang.English{},
	}

	report, err := Select(terms, 1000, vec, nil, req)
	require.NoError(t, err)
	require.Equal(t, 5, report.UniqueTerms)
	require.Equal(t, 3, report.UsedTerms)

	require.Contains(t, vec.merged, "quick")
	require.Contains(t, vec.merged, "brown")
	require.Contains(t, vec.merged, "fox")
	require.NotContains(t, vec.merged, "jump")
	require.NotContains(t, vec.merged, "over")

	wantWeight := 2.0 / (math.Log(3) + 1)
	require.InDelta(t, wantWeight, vec.merged["quick"], 1e-9)
	require.InDelta(t, wantWeight, vec.merged["brown"], 1e-9)
	require.InDelta(t, wantWeight, vec.merged["fox"], 1e-9)
}

func TestSelectNegativeFeedbackNegatesWeight(t *testing.T) {
	idx := openTestIndex(t)
	terms := idx.Terms()
	mustAdd(t, terms, "slow", index.TermTypeRegular, 50, 5)

	vec := newFakeVector()
	req := Request{
		NegativeText:          "slow",
		ParserSearchTermCount: 3,
		Config:                DefaultConfig(),
		Tokenizer:             lang.English{},
		Stemmer:               lang.English{},
	}

	report, err := Select(terms, 1000, vec, nil, req)
	require.NoError(t, err)
	require.Equal(t, 1, report.UsedTerms)
	require.Less(t, vec.merged["slow"], 0.0)
}

func TestSelectAllStopWordsUsesZero(t *testing.T) {
	idx := openTestIndex(t)
	terms := idx.Terms()
	mustAdd(t, terms, "the", index.TermTypeStop, 9000, 999)

	vec := newFakeVector()
	req := Request{
		PositiveText: "the the",
		Config:       DefaultConfig(),
		Tokenizer:    lang.English{},
		Stemmer:      lang.English{},
	}

	report, err := Select(terms, 1000, vec, nil, req)
	require.NoError(t, err)
	require.Equal(t, 0, report.UsedTerms)
	require.Empty(t, vec.merged)
}

func TestSelectCacheHitReplaysWithoutDictionary(t *testing.T) {
	cache := newFakeCache()
	key := CacheKey("quick fox", "")
	cache.store[key] = CachedResult{
		Terms:   []WeightedTerm{{Term: "quick", Weight: 0.5}, {Term: "fox", Weight: 0.5}},
		Snippet: "feedback terms: quick=0.5000,fox=0.5000",
	}

	vec := newFakeVector()
	req := Request{
		PositiveText: "quick fox",
		Config:       Config{CacheEnabled: true},
	}

	report, err := Select(nil, 1000, vec, cache, req)
	require.NoError(t, err)
	require.True(t, report.FromCache)
	require.Equal(t, 0.5, vec.merged["quick"])
	require.Equal(t, 0.5, vec.merged["fox"])
}

func TestSelectCacheMissStoresResult(t *testing.T) {
	idx := openTestIndex(t)
	terms := idx.Terms()
	mustAdd(t, terms, "slow", index.TermTypeRegular, 50, 5)

	cache := newFakeCache()
	vec := newFakeVector()
	req := Request{
		PositiveText:          "slow",
		ParserSearchTermCount: 1,
		Config:                func() Config { c := DefaultConfig(); c.CacheEnabled = true; return c }(),
		Tokenizer:             lang.English{},
		Stemmer:               lang.English{},
	}

	report, err := Select(terms, 1000, vec, cache, req)
	require.NoError(t, err)
	require.False(t, report.FromCache)

	_, ok := cache.Get(CacheKey("slow", ""))
	require.True(t, ok)
}

func TestSelectRejectsEmptyFeedbackText(t *testing.T) {
	vec := newFakeVector()
	_, err := Select(nil, 1000, vec, nil, Request{Config: DefaultConfig()})
	require.ErrorIs(t, err, ErrInvalidFeedbackText)
}

func TestSelectRejectsMissingTokenizer(t *testing.T) {
	vec := newFakeVector()
	req := Request{PositiveText: "quick fox", Config: DefaultConfig()}
	_, err := Select(nil, 1000, vec, nil, req)
	require.ErrorIs(t, err, ErrCreateTokenizerFailed)
}

func TestSelectRejectsInvertedDocumentRange(t *testing.T) {
	vec := newFakeVector()
	req := Request{
		PositiveText:  "quick fox",
		DocumentRange: DocumentRange{Min: 10, Max: 2},
		Config:        DefaultConfig(),
		Tokenizer:     lang.English{},
	}
	_, err := Select(nil, 1000, vec, nil, req)
	require.ErrorIs(t, err, ErrInvalidDocumentID)
}

func TestSelectUpperCaseTokenKeepsOriginalForm(t *testing.T) {
	idx := openTestIndex(t)
	terms := idx.Terms()
	mustAdd(t, terms, "NASA", index.TermTypeRegular, 40, 4)
	mustAdd(t, terms, "nasa", index.TermTypeRegular, 10, 2)

	vec := newFakeVector()
	req := Request{
		PositiveText:          "NASA",
		ParserSearchTermCount: 1,
		Config:                DefaultConfig(),
		Tokenizer:             lang.English{},
		Stemmer:               lang.English{},
	}

	report, err := Select(terms, 1000, vec, nil, req)
	require.NoError(t, err)
	require.Equal(t, 2, report.UsedTerms, "both the original-case and stemmed forms are candidates")
	require.Contains(t, vec.merged, "NASA")
	require.Contains(t, vec.merged, "nasa")
}
