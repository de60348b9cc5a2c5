package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchema(idx *Index) error {
	return idx.SetSchema(1, 0, 0, 1, "default", "snowball-en", "default", "builtin", 1, 256, 8)
}

// Closed -> (open/Create) Creating -> (close) Closed, writing schema and
// scalars to configuration so a later Search open can read them back
// (spec.md §4.2).
func TestIndexCreateThenSearchRoundTrip(t *testing.T) {
	dir := t.TempDir()
	paths := FilePaths{IndexDir: dir, Name: "catalog"}

	idx, err := Open(paths, IntentCreate)
	require.NoError(t, err)
	require.NoError(t, newSchema(idx))

	id, err := idx.NewDocumentID()
	require.NoError(t, err)
	assert.Equal(t, DocumentID(1), id)
	idx.UpdateDocumentTermCount(12)
	require.NoError(t, idx.UpdateTermCounts(true, false, 5))
	require.NoError(t, idx.Documents().Put(id, DocumentEntry{Rank: 1, TermCount: 12, LanguageID: 1}))

	require.NoError(t, idx.Close())

	search, err := Open(paths, IntentSearch)
	require.NoError(t, err)
	defer search.Close()

	assert.Equal(t, uint32(1), search.DocumentCount())
	assert.Equal(t, uint32(8), search.FieldIDMaximum())
	assert.Equal(t, uint32(1), search.LanguageID())
	minL, maxL := search.TermLengthBounds()
	assert.Equal(t, uint32(1), minL)
	assert.Equal(t, uint32(256), maxL)
	assert.True(t, search.ValidateDocumentID(1))
	assert.False(t, search.ValidateDocumentID(2))
	assert.False(t, search.ValidateDocumentID(0))
}

// Search-intent open requires the directory and lock file to already
// exist (spec.md §4.2).
func TestIndexSearchOpenFailsWhenIndexMissing(t *testing.T) {
	dir := t.TempDir()
	paths := FilePaths{IndexDir: dir, Name: "missing"}

	_, err := Open(paths, IntentSearch)
	assert.Error(t, err)
}

// While a Create handle is open, every attempt to open any intent on
// the same path fails with LockFailed or times out (spec.md §8, "Lock
// mutual exclusion").
func TestIndexCreateExcludesConcurrentOpens(t *testing.T) {
	dir := t.TempDir()
	paths := FilePaths{IndexDir: dir, Name: "locked"}

	creator, err := Open(paths, IntentCreate)
	require.NoError(t, err)
	defer creator.Abort()

	_, err = Open(paths, IntentSearch)
	assert.ErrorIs(t, err, ErrLockTimeout)
}

// Any number of Search handles may coexist; an additional Create open
// on the same path blocks while they're live and succeeds once they
// close (spec.md §3 invariant i/ii, §8).
func TestIndexMultipleSearchHandlesCoexistAndBlockCreate(t *testing.T) {
	dir := t.TempDir()
	paths := FilePaths{IndexDir: dir, Name: "shared"}

	builder, err := Open(paths, IntentCreate)
	require.NoError(t, err)
	require.NoError(t, newSchema(builder))
	require.NoError(t, builder.Close())

	s1, err := Open(paths, IntentSearch)
	require.NoError(t, err)

	s2, err := Open(paths, IntentSearch)
	require.NoError(t, err)

	type openResult struct {
		idx *Index
		err error
	}
	done := make(chan openResult, 1)
	go func() {
		idx, err := Open(paths, IntentCreate)
		done <- openResult{idx, err}
	}()

	select {
	case r := <-done:
		t.Fatalf("Create open succeeded while Search handles were live (err=%v)", r.err)
	case <-time.After(200 * time.Millisecond):
	}

	require.NoError(t, s1.Close())
	require.NoError(t, s2.Close())

	select {
	case r := <-done:
		require.NoError(t, r.err)
		require.NoError(t, r.idx.Abort())
	case <-time.After(5 * time.Second):
		t.Fatal("Create open did not proceed after Search handles closed")
	}
}

// Abort with deletion enabled removes the partially-built index
// directory after closing (spec.md §4.2).
func TestIndexAbortWithDeleteRemovesDirectory(t *testing.T) {
	dir := t.TempDir()
	paths := FilePaths{IndexDir: dir, Name: "aborted"}

	idx, err := Open(paths, IntentCreate)
	require.NoError(t, err)
	idx.SetDeleteOnAbort(true)
	require.NoError(t, idx.Abort())

	_, err = Open(paths, IntentSearch)
	assert.Error(t, err, "directory should no longer exist")
}

// Abort without deletion enabled leaves the partial index directory on
// disk but still releases the lock and closes containers.
func TestIndexAbortWithoutDeleteKeepsDirectory(t *testing.T) {
	dir := t.TempDir()
	paths := FilePaths{IndexDir: dir, Name: "kept"}

	idx, err := Open(paths, IntentCreate)
	require.NoError(t, err)
	require.NoError(t, idx.Abort())

	reopened, err := Open(paths, IntentCreate)
	require.NoError(t, err, "lock must be released even without deletion")
	require.NoError(t, reopened.Abort())
}

// NewDocumentID and UpdateTermCounts are build-time-only operations;
// calling them against a Search-intent handle is rejected.
func TestIndexBuildOperationsRejectedOutsideCreate(t *testing.T) {
	dir := t.TempDir()
	paths := FilePaths{IndexDir: dir, Name: "readonly"}

	idx, err := Open(paths, IntentCreate)
	require.NoError(t, err)
	require.NoError(t, newSchema(idx))
	require.NoError(t, idx.Close())

	search, err := Open(paths, IntentSearch)
	require.NoError(t, err)
	defer search.Close()

	_, err = search.NewDocumentID()
	assert.ErrorIs(t, err, ErrInvalidIntent)
	assert.ErrorIs(t, search.UpdateTermCounts(true, false, 1), ErrInvalidIntent)
}

// Document ID validity is 1 <= id <= document_count (spec.md §3).
func TestValidateDocumentIDBounds(t *testing.T) {
	dir := t.TempDir()
	paths := FilePaths{IndexDir: dir, Name: "bounds"}

	idx, err := Open(paths, IntentCreate)
	require.NoError(t, err)
	require.NoError(t, newSchema(idx))
	for i := 0; i < 3; i++ {
		id, err := idx.NewDocumentID()
		require.NoError(t, err)
		require.NoError(t, idx.Documents().Put(id, DocumentEntry{Rank: uint32(i)}))
	}
	require.NoError(t, idx.Close())

	search, err := Open(paths, IntentSearch)
	require.NoError(t, err)
	defer search.Close()

	assert.False(t, search.ValidateDocumentID(0))
	assert.True(t, search.ValidateDocumentID(1))
	assert.True(t, search.ValidateDocumentID(3))
	assert.False(t, search.ValidateDocumentID(4))
}
