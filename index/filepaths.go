package index

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
)

// Role identifies one of the fixed on-disk files that make up an index,
// per spec.md §4.1/§6.
type Role int

const (
	RoleTermDictionary Role = iota
	RoleKeyDictionary
	RoleDocumentTable
	RoleDocumentData
	RoleIndexData
	RoleIndexInformation
	RoleIndexLock
)

func (r Role) filename() string {
	switch r {
	case RoleTermDictionary:
		return "term.dct"
	case RoleKeyDictionary:
		return "key.dct"
	case RoleDocumentTable:
		return "document.tab"
	case RoleDocumentData:
		return "document.dat"
	case RoleIndexData:
		return "index.dat"
	case RoleIndexInformation:
		return "index.inf"
	case RoleIndexLock:
		return "index.lck"
	default:
		return ""
	}
}

// FilePaths is a pure function module: given an index directory and a
// name, it composes canonical absolute file paths. It holds no state
// and performs no I/O beyond string composition (spec.md §4.1).
type FilePaths struct {
	// IndexDir is the parent directory under which <IndexDir>/<Name>
	// holds every container for this index.
	IndexDir string
	// Name is the pure base name of the index (no path separators).
	Name string
	// TempDir overrides where build-time temp files are placed; when
	// empty, temp files are placed alongside the index.
	TempDir string
}

// indexDirectory returns <IndexDir>/<Name>, the root of this index's
// on-disk state.
func (fp FilePaths) indexDirectory() string {
	return filepath.Join(fp.IndexDir, fp.Name)
}

// Path returns the canonical path for the given role.
func (fp FilePaths) Path(role Role) (string, error) {
	if err := fp.validate(); err != nil {
		return "", err
	}
	name := role.filename()
	if name == "" {
		return "", errors.Errorf("filepaths: unknown role %d", role)
	}
	return filepath.Join(fp.indexDirectory(), name), nil
}

// TempPath returns the temp file path for the term or key dictionary
// during a build, e.g. "<indexname>-term.007" or, with shadow set,
// "<indexname>-term.-007". Placed under TempDir when configured, else
// alongside the index (spec.md §4.1, §6).
func (fp FilePaths) TempPath(role Role, version uint32, shadow bool) (string, error) {
	if err := fp.validate(); err != nil {
		return "", err
	}

	var stem string
	switch role {
	case RoleTermDictionary:
		stem = "term"
	case RoleKeyDictionary:
		stem = "key"
	default:
		return "", errors.Errorf("filepaths: role %d has no temp form", role)
	}

	sign := ""
	if shadow {
		sign = "-"
	}
	filename := fmt.Sprintf("%s-%s.%s%03d", fp.Name, stem, sign, version)

	dir := fp.TempDir
	if dir == "" {
		dir = fp.indexDirectory()
	}
	return filepath.Join(dir, filename), nil
}

func (fp FilePaths) validate() error {
	if fp.IndexDir == "" {
		return errors.Wrap(ErrInvalidIndexPath, "filepaths: empty index directory")
	}
	if fp.Name == "" {
		return errors.Wrap(ErrInvalidIndexName, "filepaths: empty index name")
	}
	if filepath.Base(fp.Name) != fp.Name {
		return errors.Wrap(ErrInvalidIndexName, "filepaths: name must not contain path separators")
	}
	return nil
}
