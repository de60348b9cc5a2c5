package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentEntryRoundTrip(t *testing.T) {
	entry := DocumentEntry{
		DataID:     123456789,
		Rank:       42,
		TermCount:  17,
		ANSIDate:   20260729235959,
		LanguageID: 9,
	}
	got := decodeDocumentEntry(entry.encode())
	assert.Equal(t, entry, got)
}

func TestUint48RoundTrip(t *testing.T) {
	var buf [6]byte
	const want = uint64(20260729235959)
	putUint48(buf[:], want)
	assert.Equal(t, want, getUint48(buf[:]))
}

func TestDocumentTablePutGet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.tab")

	table, err := openDocumentTable(path, true)
	require.NoError(t, err)
	defer table.Close()

	assert.Equal(t, uint32(0), table.Count())

	id1 := table.NewDocumentID()
	require.Equal(t, DocumentID(1), id1)
	entry1 := DocumentEntry{DataID: 10, Rank: 1, TermCount: 5, ANSIDate: 20260101000000, LanguageID: 1}
	require.NoError(t, table.Put(id1, entry1))

	id2 := table.NewDocumentID()
	require.Equal(t, DocumentID(2), id2)
	entry2 := DocumentEntry{DataID: 20, Rank: 2, TermCount: 8, ANSIDate: 20260102000000, LanguageID: 1}
	require.NoError(t, table.Put(id2, entry2))

	assert.Equal(t, uint32(2), table.Count())

	got1, err := table.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, entry1, got1)

	got2, err := table.Get(id2)
	require.NoError(t, err)
	assert.Equal(t, entry2, got2)
}

func TestDocumentTableValidateDocumentID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.tab")
	table, err := openDocumentTable(path, true)
	require.NoError(t, err)
	defer table.Close()

	assert.False(t, table.ValidateDocumentID(0))
	assert.False(t, table.ValidateDocumentID(1))

	id := table.NewDocumentID()
	require.NoError(t, table.Put(id, DocumentEntry{}))
	assert.True(t, table.ValidateDocumentID(id))
	assert.False(t, table.ValidateDocumentID(id+1))
}

func TestDocumentTableReopenReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "document.tab")

	writer, err := openDocumentTable(path, true)
	require.NoError(t, err)
	id := writer.NewDocumentID()
	require.NoError(t, writer.Put(id, DocumentEntry{DataID: 5, Rank: 1, TermCount: 1}))
	require.NoError(t, writer.Close())

	reader, err := openDocumentTable(path, false)
	require.NoError(t, err)
	defer reader.Close()

	assert.Equal(t, uint32(1), reader.Count())
	_, err = reader.Get(id)
	require.NoError(t, err)

	err = reader.Put(id, DocumentEntry{})
	assert.Error(t, err)
}
