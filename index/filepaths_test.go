package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePathsPath(t *testing.T) {
	fp := FilePaths{IndexDir: "/var/idx", Name: "catalog"}

	p, err := fp.Path(RoleTermDictionary)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/idx", "catalog", "term.dct"), p)

	p, err = fp.Path(RoleIndexLock)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/idx", "catalog", "index.lck"), p)
}

func TestFilePathsTempPath(t *testing.T) {
	fp := FilePaths{IndexDir: "/var/idx", Name: "catalog"}

	p, err := fp.TempPath(RoleTermDictionary, 7, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/idx", "catalog", "catalog-term.007"), p)

	p, err = fp.TempPath(RoleKeyDictionary, 7, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/var/idx", "catalog", "catalog-key.-007"), p)
}

func TestFilePathsTempPathHonorsTempDir(t *testing.T) {
	fp := FilePaths{IndexDir: "/var/idx", Name: "catalog", TempDir: "/tmp/build"}
	p, err := fp.TempPath(RoleTermDictionary, 1, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/build", "catalog-term.001"), p)
}

func TestFilePathsRejectsPathSeparatorInName(t *testing.T) {
	fp := FilePaths{IndexDir: "/var/idx", Name: "a/b"}
	_, err := fp.Path(RoleTermDictionary)
	assert.ErrorIs(t, err, ErrInvalidIndexName)
}

func TestFilePathsRejectsEmptyIndexDir(t *testing.T) {
	fp := FilePaths{Name: "catalog"}
	_, err := fp.Path(RoleTermDictionary)
	assert.ErrorIs(t, err, ErrInvalidIndexPath)
}

func TestFilePathsRejectsUnknownRoleForTemp(t *testing.T) {
	fp := FilePaths{IndexDir: "/var/idx", Name: "catalog"}
	_, err := fp.TempPath(RoleDocumentTable, 1, false)
	assert.Error(t, err)
}
