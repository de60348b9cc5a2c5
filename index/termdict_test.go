package index

import (
	"path/filepath"
	"testing"

	"github.com/RoaringBitmap/roaring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTermDictionaryAddLookup(t *testing.T) {
	dir := t.TempDir()
	dict, err := openTermDictionary(filepath.Join(dir, "term.dct"), true)
	require.NoError(t, err)
	defer dict.Close()

	fields := roaring.New()
	fields.Add(1)
	fields.Add(3)

	entry := TermEntry{
		Type:           TermTypeRegular,
		TermCount:      12,
		DocumentCount:  4,
		PostingLocator: Locator{Offset: 100, Length: 48},
		Fields:         fields,
	}
	require.NoError(t, dict.Add("quick", entry))

	got, err := dict.Lookup("quick", nil)
	require.NoError(t, err)
	assert.Equal(t, entry.Type, got.Type)
	assert.Equal(t, entry.TermCount, got.TermCount)
	assert.Equal(t, entry.DocumentCount, got.DocumentCount)
	assert.Equal(t, entry.PostingLocator, got.PostingLocator)
	assert.True(t, got.Fields.Equals(fields))
}

func TestTermDictionaryLookupNotFound(t *testing.T) {
	dir := t.TempDir()
	dict, err := openTermDictionary(filepath.Join(dir, "term.dct"), true)
	require.NoError(t, err)
	defer dict.Close()

	_, err = dict.Lookup("missing", nil)
	assert.ErrorIs(t, err, ErrTermNotFound)
}

func TestTermDictionaryLookupFieldRestriction(t *testing.T) {
	dir := t.TempDir()
	dict, err := openTermDictionary(filepath.Join(dir, "term.dct"), true)
	require.NoError(t, err)
	defer dict.Close()

	fields := roaring.New()
	fields.Add(2)
	require.NoError(t, dict.Add("brown", TermEntry{Type: TermTypeRegular, TermCount: 1, DocumentCount: 1, Fields: fields}))

	other := roaring.New()
	other.Add(5)
	_, err = dict.Lookup("brown", other)
	assert.ErrorIs(t, err, ErrTermDoesNotOccur)

	_, err = dict.Lookup("brown", fields)
	assert.NoError(t, err)
}

func TestTermDictionaryListWildcard(t *testing.T) {
	dir := t.TempDir()
	dict, err := openTermDictionary(filepath.Join(dir, "term.dct"), true)
	require.NoError(t, err)
	defer dict.Close()

	for _, term := range []string{"run", "runner", "running", "walk"} {
		require.NoError(t, dict.Add(term, TermEntry{Type: TermTypeRegular, TermCount: 1, DocumentCount: 1}))
	}

	got, err := dict.List("run*", nil, MatchWildcard, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "run", got[0].Term)
	assert.Equal(t, "runner", got[1].Term)
	assert.Equal(t, "running", got[2].Term)
}

func TestTermDictionaryListTermRange(t *testing.T) {
	dir := t.TempDir()
	dict, err := openTermDictionary(filepath.Join(dir, "term.dct"), true)
	require.NoError(t, err)
	defer dict.Close()

	for _, term := range []string{"alpha", "bravo", "charlie", "delta"} {
		require.NoError(t, dict.Add(term, TermEntry{Type: TermTypeRegular, TermCount: 1, DocumentCount: 1}))
	}

	got, err := dict.List("bravo", nil, MatchTermRange, RangeGreaterOrEqual)
	require.NoError(t, err)
	var terms []string
	for _, ti := range got {
		terms = append(terms, ti.Term)
	}
	assert.Equal(t, []string{"bravo", "charlie", "delta"}, terms)
}

func TestTermDictionaryPhoneticKeyerMiss(t *testing.T) {
	dir := t.TempDir()
	dict, err := openTermDictionary(filepath.Join(dir, "term.dct"), true)
	require.NoError(t, err)
	defer dict.Close()

	require.NoError(t, dict.Add("smith", TermEntry{Type: TermTypeRegular, TermCount: 1, DocumentCount: 1}))

	got, err := dict.List("smyth", nil, MatchSoundex, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
