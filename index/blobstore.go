package index

import (
	"os"

	"github.com/pkg/errors"
)

// Locator points at a variable-length blob inside a BlobStore file
// (document.dat or index.dat), per spec.md §3/§6.
type Locator struct {
	Offset int64
	Length int64
}

// BlobStore is an append-only variable-length byte store. It backs
// both document.dat (per-document payload: URL, file path, offsets,
// user data) and index.dat (posting lists referenced by term dictionary
// locators). No container library in the retrieved pack targets an
// opaque append-only blob format with caller-defined contents, so this
// is implemented directly over os.File.
type BlobStore struct {
	file     *os.File
	writable bool
	size     int64
}

func openBlobStore(path string, writable bool) (*BlobStore, error) {
	flags := os.O_RDONLY
	if writable {
		flags = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "blob store: open")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "blob store: stat")
	}
	return &BlobStore{file: f, writable: writable, size: info.Size()}, nil
}

// Append writes data at the end of the store and returns its locator.
func (s *BlobStore) Append(data []byte) (Locator, error) {
	if !s.writable {
		return Locator{}, errors.New("blob store: not writable")
	}
	offset := s.size
	n, err := s.file.WriteAt(data, offset)
	if err != nil {
		return Locator{}, errors.Wrap(err, "blob store: write")
	}
	s.size += int64(n)
	return Locator{Offset: offset, Length: int64(n)}, nil
}

// Read returns the bytes at the given locator.
func (s *BlobStore) Read(loc Locator) ([]byte, error) {
	if loc.Length == 0 {
		return nil, nil
	}
	buf := make([]byte, loc.Length)
	if _, err := s.file.ReadAt(buf, loc.Offset); err != nil {
		return nil, errors.Wrap(err, "blob store: read")
	}
	return buf, nil
}

func (s *BlobStore) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
