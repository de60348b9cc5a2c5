package index

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/pkg/errors"
)

// defaultBuildMemoryLimit bounds the in-memory posting accumulator
// before it spills to a temp segment.
const defaultBuildMemoryLimit = 64 << 20

// postingEntryLength is the fixed width of one posting occurrence in
// index.dat: document ID (4B) + field ID (2B) + position (4B),
// big-endian like every other on-disk integer (spec.md §6).
const postingEntryLength = 4 + 2 + 4

// termAccumulator is the in-memory posting block for one term during a
// build (spec.md §3, "build scratch state").
type termAccumulator struct {
	termType TermType
	count    uint32
	docs     *roaring.Bitmap
	fields   *roaring.Bitmap
	postings []byte
}

// Builder accumulates postings for a Create-intent Index, spilling to
// temp segment files when the memory bound is hit and merging every
// segment with the final in-memory state on Finish (spec.md §2,
// "accumulate postings in memory-bounded trie -> spill to temp
// segments -> merge into final term dictionary + posting store +
// document table").
type Builder struct {
	idx         *Index
	memoryLimit int
	memory      int
	terms       map[string]*termAccumulator
	segments    []string
	nextSegment uint32
	finished    bool
}

// NewBuilder attaches a build accumulator to idx. The index must be
// open in Create intent.
func NewBuilder(idx *Index, memoryLimit int) (*Builder, error) {
	if idx.state != stateCreating {
		return nil, errors.Wrap(ErrInvalidIntent, "index: build requires Create intent")
	}
	if memoryLimit <= 0 {
		memoryLimit = defaultBuildMemoryLimit
	}
	return &Builder{
		idx:         idx,
		memoryLimit: memoryLimit,
		terms:       make(map[string]*termAccumulator),
	}, nil
}

// AddDocument assigns the next dense document ID, maps the caller's
// document key to it, stores the payload in document.dat, and writes
// the fixed-width record. The entry's DataID is filled in here: it is
// the payload's locator offset plus one, so zero can keep meaning
// "no payload" (spec.md §3).
func (b *Builder) AddDocument(key string, entry DocumentEntry, payload []byte) (DocumentID, error) {
	id, err := b.idx.NewDocumentID()
	if err != nil {
		return 0, err
	}
	if key != "" {
		if err := b.idx.keys.Add(key, id); err != nil {
			return 0, err
		}
	}
	if len(payload) > 0 {
		var lenbuf [4]byte
		binary.BigEndian.PutUint32(lenbuf[:], uint32(len(payload)))
		loc, err := b.idx.docData.Append(append(lenbuf[:], payload...))
		if err != nil {
			return 0, err
		}
		entry.DataID = uint64(loc.Offset) + 1
	}
	if err := b.idx.documents.Put(id, entry); err != nil {
		return 0, err
	}
	b.idx.UpdateDocumentTermCount(entry.TermCount)
	return id, nil
}

// AddTerm records one occurrence of term in the given document, field,
// and position. Terms outside the index's term-length bounds are
// ignored; a field ID above the create-time maximum is rejected since
// it would not fit the field-presence bitmap (spec.md §3 invariant v).
// Stop terms are counted but carry no positional detail.
func (b *Builder) AddTerm(term string, doc DocumentID, fieldID uint16, position uint32, stop bool) error {
	if b.finished {
		return errors.Wrap(ErrInvalidIndex, "index: build already finished")
	}
	if !b.idx.ValidateDocumentID(doc) {
		return errors.Wrap(ErrInvalidIndex, "index: unknown document id")
	}
	if uint32(fieldID) > b.idx.fieldIDMaximum {
		return errors.Wrapf(ErrInvalidIndex, "index: field id %d above maximum %d", fieldID, b.idx.fieldIDMaximum)
	}
	n := uint32(len(term))
	if n == 0 || n < b.idx.termLengthMinimum || n > b.idx.termLengthMaximum {
		return nil
	}

	acc, ok := b.terms[term]
	if !ok {
		acc = &termAccumulator{
			termType: TermTypeRegular,
			docs:     roaring.New(),
			fields:   roaring.New(),
		}
		if stop {
			acc.termType = TermTypeStop
		}
		b.terms[term] = acc
		b.memory += len(term) + 64
	}
	acc.count++
	acc.docs.Add(uint32(doc))
	if fieldID > 0 {
		acc.fields.Add(uint32(fieldID) - 1)
	}
	if !stop {
		var p [postingEntryLength]byte
		binary.BigEndian.PutUint32(p[0:4], uint32(doc))
		binary.BigEndian.PutUint16(p[4:6], fieldID)
		binary.BigEndian.PutUint32(p[6:10], position)
		acc.postings = append(acc.postings, p[:]...)
		b.memory += postingEntryLength
	}

	if b.memory >= b.memoryLimit {
		return b.spill()
	}
	return nil
}

// spill writes the in-memory accumulators, sorted by term, to the next
// temp segment. The segment is written under its shadow name and
// renamed into place once complete, so a partial write never looks
// like a finished segment (spec.md §6, "Shadow file").
func (b *Builder) spill() error {
	if len(b.terms) == 0 {
		return nil
	}
	b.nextSegment++
	shadowPath, err := b.idx.paths.TempPath(RoleTermDictionary, b.nextSegment, true)
	if err != nil {
		return err
	}
	finalPath, err := b.idx.paths.TempPath(RoleTermDictionary, b.nextSegment, false)
	if err != nil {
		return err
	}

	f, err := os.Create(shadowPath)
	if err != nil {
		return errors.Wrap(err, "index: create spill segment")
	}
	w := bufio.NewWriter(f)

	keys := make([]string, 0, len(b.terms))
	for term := range b.terms {
		keys = append(keys, term)
	}
	sort.Strings(keys)
	for _, term := range keys {
		if err := writeSegmentRecord(w, term, b.terms[term]); err != nil {
			f.Close()
			os.Remove(shadowPath)
			return err
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(shadowPath)
		return errors.Wrap(err, "index: flush spill segment")
	}
	if err := f.Close(); err != nil {
		os.Remove(shadowPath)
		return errors.Wrap(err, "index: close spill segment")
	}
	if err := os.Rename(shadowPath, finalPath); err != nil {
		os.Remove(shadowPath)
		return errors.Wrap(err, "index: publish spill segment")
	}

	b.segments = append(b.segments, finalPath)
	b.terms = make(map[string]*termAccumulator)
	b.memory = 0
	return nil
}

// Finish merges every spilled segment with the remaining in-memory
// state: for each term, postings are appended to index.dat, the
// dictionary entry is written, and the index's scalar counts are
// updated. Temp segments are removed afterwards.
func (b *Builder) Finish() error {
	if b.finished {
		return nil
	}
	if err := b.spill(); err != nil {
		return err
	}
	b.finished = true

	readers := make([]*segmentReader, 0, len(b.segments))
	for _, path := range b.segments {
		r, err := openSegmentReader(path)
		if err != nil {
			for _, open := range readers {
				open.close()
			}
			return err
		}
		readers = append(readers, r)
	}
	defer func() {
		for _, r := range readers {
			r.close()
		}
		for _, path := range b.segments {
			os.Remove(path)
		}
	}()

	for {
		term := ""
		for _, r := range readers {
			if r.valid && (term == "" || r.term < term) {
				term = r.term
			}
		}
		if term == "" {
			return nil
		}

		merged := &termAccumulator{docs: roaring.New(), fields: roaring.New()}
		for _, r := range readers {
			if !r.valid || r.term != term {
				continue
			}
			merged.termType = r.acc.termType
			merged.count += r.acc.count
			merged.docs.Or(r.acc.docs)
			merged.fields.Or(r.acc.fields)
			merged.postings = append(merged.postings, r.acc.postings...)
			if err := r.advance(); err != nil {
				return err
			}
		}

		if err := b.emit(term, merged); err != nil {
			return err
		}
	}
}

func (b *Builder) emit(term string, acc *termAccumulator) error {
	var locator Locator
	if len(acc.postings) > 0 {
		loc, err := b.idx.idxData.Append(acc.postings)
		if err != nil {
			return err
		}
		locator = loc
	}
	entry := TermEntry{
		Type:           acc.termType,
		TermCount:      acc.count,
		DocumentCount:  uint32(acc.docs.GetCardinality()),
		PostingLocator: locator,
		Fields:         acc.fields,
	}
	if err := b.idx.terms.Add(term, entry); err != nil {
		return err
	}
	return b.idx.UpdateTermCounts(true, acc.termType == TermTypeStop, uint64(acc.count))
}

// segmentReader streams one spilled segment's sorted records.
type segmentReader struct {
	file  *os.File
	r     *bufio.Reader
	term  string
	acc   *termAccumulator
	valid bool
}

func openSegmentReader(path string) (*segmentReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "index: open spill segment")
	}
	sr := &segmentReader{file: f, r: bufio.NewReader(f)}
	if err := sr.advance(); err != nil {
		f.Close()
		return nil, err
	}
	return sr, nil
}

func (sr *segmentReader) advance() error {
	term, acc, err := readSegmentRecord(sr.r)
	if err == io.EOF {
		sr.valid = false
		return nil
	}
	if err != nil {
		sr.valid = false
		return err
	}
	sr.term, sr.acc, sr.valid = term, acc, true
	return nil
}

func (sr *segmentReader) close() {
	if sr.file != nil {
		sr.file.Close()
		sr.file = nil
	}
}

func writeSegmentRecord(w *bufio.Writer, term string, acc *termAccumulator) error {
	docBytes, err := acc.docs.ToBytes()
	if err != nil {
		return errors.Wrap(err, "index: encode segment docs")
	}
	fieldBytes, err := acc.fields.ToBytes()
	if err != nil {
		return errors.Wrap(err, "index: encode segment fields")
	}

	var head [2]byte
	binary.BigEndian.PutUint16(head[:], uint16(len(term)))
	w.Write(head[:])
	w.WriteString(term)
	w.WriteByte(byte(acc.termType))
	var num [4]byte
	binary.BigEndian.PutUint32(num[:], acc.count)
	w.Write(num[:])
	binary.BigEndian.PutUint32(num[:], uint32(len(docBytes)))
	w.Write(num[:])
	w.Write(docBytes)
	binary.BigEndian.PutUint32(num[:], uint32(len(fieldBytes)))
	w.Write(num[:])
	w.Write(fieldBytes)
	binary.BigEndian.PutUint32(num[:], uint32(len(acc.postings)))
	w.Write(num[:])
	_, err = w.Write(acc.postings)
	return err
}

func readSegmentRecord(r *bufio.Reader) (string, *termAccumulator, error) {
	var head [2]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return "", nil, err
	}
	termBytes := make([]byte, binary.BigEndian.Uint16(head[:]))
	if _, err := io.ReadFull(r, termBytes); err != nil {
		return "", nil, errors.Wrap(err, "index: truncated segment record")
	}

	typeByte, err := r.ReadByte()
	if err != nil {
		return "", nil, errors.Wrap(err, "index: truncated segment record")
	}
	acc := &termAccumulator{termType: TermType(typeByte)}

	readU32 := func() (uint32, error) {
		var num [4]byte
		if _, err := io.ReadFull(r, num[:]); err != nil {
			return 0, errors.Wrap(err, "index: truncated segment record")
		}
		return binary.BigEndian.Uint32(num[:]), nil
	}

	if acc.count, err = readU32(); err != nil {
		return "", nil, err
	}

	readBitmap := func() (*roaring.Bitmap, error) {
		n, err := readU32()
		if err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, errors.Wrap(err, "index: truncated segment bitmap")
		}
		bm := roaring.New()
		if _, err := bm.FromBuffer(buf); err != nil {
			return nil, errors.Wrap(err, "index: decode segment bitmap")
		}
		return bm, nil
	}

	if acc.docs, err = readBitmap(); err != nil {
		return "", nil, err
	}
	if acc.fields, err = readBitmap(); err != nil {
		return "", nil, err
	}

	n, err := readU32()
	if err != nil {
		return "", nil, err
	}
	acc.postings = make([]byte, n)
	if _, err := io.ReadFull(r, acc.postings); err != nil {
		return "", nil, errors.Wrap(err, "index: truncated segment postings")
	}
	return string(termBytes), acc, nil
}

// DocumentPayload reads back the payload AddDocument stored for entry,
// or nil when the entry has none.
func (idx *Index) DocumentPayload(entry DocumentEntry) ([]byte, error) {
	if entry.DataID == 0 {
		return nil, nil
	}
	offset := int64(entry.DataID - 1)
	lenBytes, err := idx.docData.Read(Locator{Offset: offset, Length: 4})
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBytes)
	return idx.docData.Read(Locator{Offset: offset + 4, Length: int64(n)})
}
