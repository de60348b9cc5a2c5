package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyDictionaryAddLookup(t *testing.T) {
	dir := t.TempDir()
	dict, err := openKeyDictionary(filepath.Join(dir, "key.dct"), true)
	require.NoError(t, err)
	defer dict.Close()

	require.NoError(t, dict.Add("https://example.com/a", DocumentID(1)))
	require.NoError(t, dict.Add("https://example.com/b", DocumentID(2)))

	id, err := dict.Lookup("https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, DocumentID(1), id)

	_, err = dict.Lookup("https://example.com/missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestKeyDictionaryAddSameKeySameIDIsNoop(t *testing.T) {
	dir := t.TempDir()
	dict, err := openKeyDictionary(filepath.Join(dir, "key.dct"), true)
	require.NoError(t, err)
	defer dict.Close()

	require.NoError(t, dict.Add("key", DocumentID(1)))
	require.NoError(t, dict.Add("key", DocumentID(1)))

	id, err := dict.Lookup("key")
	require.NoError(t, err)
	assert.Equal(t, DocumentID(1), id)
}

func TestKeyDictionaryAddDifferentIDRejected(t *testing.T) {
	dir := t.TempDir()
	dict, err := openKeyDictionary(filepath.Join(dir, "key.dct"), true)
	require.NoError(t, err)
	defer dict.Close()

	require.NoError(t, dict.Add("key", DocumentID(1)))
	err = dict.Add("key", DocumentID(2))
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestKeyDictionaryDelete(t *testing.T) {
	dir := t.TempDir()
	dict, err := openKeyDictionary(filepath.Join(dir, "key.dct"), true)
	require.NoError(t, err)
	defer dict.Close()

	require.NoError(t, dict.Add("key", DocumentID(1)))
	require.NoError(t, dict.Delete("key"))

	_, err = dict.Lookup("key")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}
