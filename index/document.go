package index

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// documentEntryLength is the fixed record width in document.tab: data-ID
// (8B) + rank (4B) + term count (4B) + ANSI date (6B) + language ID (2B),
// per spec.md §3/§6 and original_source/src/search/document.h's
// SRCH_DOCUMENT_ENTRY_LENGTH.
const documentEntryLength = 8 + 4 + 4 + 6 + 2

// DocumentID is a dense, contiguous, 1-based document identifier.
type DocumentID uint32

// DocumentEntry is the fixed-width record stored at offset
// (id-1)*documentEntryLength in document.tab (spec.md §3).
type DocumentEntry struct {
	// DataID points into document.dat, or zero if this document has no
	// stored payload.
	DataID uint64
	Rank   uint32
	// TermCount is the number of terms indexed for this document.
	TermCount uint32
	// ANSIDate is YYYYMMDDHHMMSS packed into 48 bits (6 bytes).
	ANSIDate   uint64
	LanguageID uint16
}

func (e DocumentEntry) encode() [documentEntryLength]byte {
	var buf [documentEntryLength]byte
	binary.BigEndian.PutUint64(buf[0:8], e.DataID)
	binary.BigEndian.PutUint32(buf[8:12], e.Rank)
	binary.BigEndian.PutUint32(buf[12:16], e.TermCount)
	putUint48(buf[16:22], e.ANSIDate)
	binary.BigEndian.PutUint16(buf[22:24], e.LanguageID)
	return buf
}

func decodeDocumentEntry(buf [documentEntryLength]byte) DocumentEntry {
	return DocumentEntry{
		DataID:     binary.BigEndian.Uint64(buf[0:8]),
		Rank:       binary.BigEndian.Uint32(buf[8:12]),
		TermCount:  binary.BigEndian.Uint32(buf[12:16]),
		ANSIDate:   getUint48(buf[16:22]),
		LanguageID: binary.BigEndian.Uint16(buf[22:24]),
	}
}

func putUint48(b []byte, v uint64) {
	b[0] = byte(v >> 40)
	b[1] = byte(v >> 32)
	b[2] = byte(v >> 24)
	b[3] = byte(v >> 16)
	b[4] = byte(v >> 8)
	b[5] = byte(v)
}

func getUint48(b []byte) uint64 {
	return uint64(b[0])<<40 | uint64(b[1])<<32 | uint64(b[2])<<24 |
		uint64(b[3])<<16 | uint64(b[4])<<8 | uint64(b[5])
}

// DocumentTable is the fixed-width record store backing document.tab.
// There is no generic "fixed-width record table" library in the
// retrieved pack to delegate to (spec.md §1 names it only as an
// external container concept); the format is fully frozen by spec.md
// §3/§6, so it is implemented directly over os.File.
type DocumentTable struct {
	file     *os.File
	writable bool
	count    uint32 // current document_count
}

func openDocumentTable(path string, writable bool) (*DocumentTable, error) {
	flags := os.O_RDONLY
	if writable {
		flags = os.O_RDWR | os.O_CREATE
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "document table: open")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "document table: stat")
	}
	count := uint32(info.Size() / documentEntryLength)
	return &DocumentTable{file: f, writable: writable, count: count}, nil
}

// Count returns document_count, the number of records currently stored.
func (t *DocumentTable) Count() uint32 {
	return t.count
}

// ValidateDocumentID reports whether id is in [1, document_count]
// (spec.md §3, §4.2).
func (t *DocumentTable) ValidateDocumentID(id DocumentID) bool {
	return id >= 1 && uint32(id) <= t.count
}

// NewDocumentID assigns the next dense document ID during a build.
func (t *DocumentTable) NewDocumentID() DocumentID {
	t.count++
	return DocumentID(t.count)
}

// Put writes (or overwrites) the record for id. id must already have
// been assigned via NewDocumentID (or be <= Count for an update during
// build).
func (t *DocumentTable) Put(id DocumentID, entry DocumentEntry) error {
	if !t.writable {
		return errors.New("document table: not writable")
	}
	if id < 1 {
		return errors.Wrap(ErrInvalidIndex, "document table: document id must be >= 1")
	}
	buf := entry.encode()
	offset := int64(id-1) * documentEntryLength
	if _, err := t.file.WriteAt(buf[:], offset); err != nil {
		return errors.Wrap(err, "document table: write")
	}
	return nil
}

// Get reads the record for id.
func (t *DocumentTable) Get(id DocumentID) (DocumentEntry, error) {
	if !t.ValidateDocumentID(id) {
		return DocumentEntry{}, errors.Wrap(ErrInvalidIndex, "document table: document id out of range")
	}
	var buf [documentEntryLength]byte
	offset := int64(id-1) * documentEntryLength
	if _, err := t.file.ReadAt(buf[:], offset); err != nil {
		return DocumentEntry{}, errors.Wrap(err, "document table: read")
	}
	return decodeDocumentEntry(buf), nil
}

func (t *DocumentTable) Close() error {
	if t == nil || t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
