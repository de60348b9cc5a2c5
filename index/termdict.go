package index

import (
	"bytes"
	"encoding/binary"
	"regexp"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// TermType distinguishes a fully-indexed regular term from a high-
// frequency stop term that the dictionary knows about but does not
// index positionally (spec.md §3).
type TermType uint8

const (
	TermTypeRegular TermType = iota + 1
	TermTypeStop
)

// MatchKind selects how TermDictionary.List matches its pattern
// argument, per spec.md §4.3. Kinds that depend on the external
// linguistic toolkit (soundex, metaphone, phonix, typo) run through an
// injected Keyer; without one they simply find nothing, since phonetic
// keying is explicitly out of this core's scope (spec.md §1).
type MatchKind int

const (
	MatchRegular MatchKind = iota
	MatchStop
	MatchWildcard
	MatchSoundex
	MatchMetaphone
	MatchPhonix
	MatchTypo
	MatchRegex
	MatchRange
	MatchTermRange
)

// RangeID is one of the six range operators recognized by fielded
// searches and term-range dictionary lookups (spec.md §6).
type RangeID int

const (
	RangeEqual RangeID = iota
	RangeNotEqual
	RangeLess
	RangeGreater
	RangeLessOrEqual
	RangeGreaterOrEqual
)

var (
	ErrTermNotFound     = errors.New("term dictionary: term not found")
	ErrTermDoesNotOccur = errors.New("term dictionary: term does not occur in the requested fields")
)

// TermEntry is the value stored under a term key (spec.md §3).
type TermEntry struct {
	Type           TermType
	TermCount      uint32
	DocumentCount  uint32
	PostingLocator Locator
	// Fields is the field-presence bitmap: bit i set means the term
	// occurs in field i+1 at least once. Field ID 0 is reserved for
	// "no field" and is never set here.
	Fields *roaring.Bitmap
}

// TermInfo is a lighter-weight record returned by List (spec.md §4.3).
type TermInfo struct {
	Term          string
	Type          TermType
	TermCount     uint32
	DocumentCount uint32
}

// Keyer derives a phonetic key for a term, standing in for the external
// metaphone/soundex/phonix implementations spec.md places out of scope.
type Keyer func(kind MatchKind, term string) (string, error)

var termsBucket = []byte("terms")

// TermDictionary is the keyed-dictionary facade from spec.md §4.3,
// backed by a bbolt bucket. bbolt gives this a real embedded B+tree
// keyed store (see DESIGN.md); the TermEntry codec and the four
// operations below are this spec's own.
type TermDictionary struct {
	db       *bolt.DB
	writable bool
	keyer    Keyer
}

func openTermDictionary(path string, writable bool) (*TermDictionary, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{ReadOnly: !writable})
	if err != nil {
		return nil, errors.Wrap(err, "term dictionary: open")
	}
	if writable {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(termsBucket)
			return err
		})
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "term dictionary: create bucket")
		}
	}
	return &TermDictionary{db: db, writable: writable}, nil
}

// SetKeyer installs the phonetic-key function used by List for
// soundex/metaphone/phonix/typo match kinds.
func (d *TermDictionary) SetKeyer(k Keyer) { d.keyer = k }

// Add inserts or overwrites a term entry during build. Idempotent on
// repeated identical inserts within a build (spec.md §4.3).
func (d *TermDictionary) Add(term string, entry TermEntry) error {
	if !d.writable {
		return errors.New("term dictionary: not writable")
	}
	if entry.TermCount == 0 {
		return errors.Wrap(ErrInvalidIndex, "term dictionary: term_count must be > 0")
	}
	buf, err := encodeTermEntry(entry)
	if err != nil {
		return err
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(termsBucket).Put([]byte(term), buf)
	})
}

// Lookup returns the entry for term, restricted to fieldBitmap when
// non-nil. ErrTermDoesNotOccur is returned when the term exists but its
// field bitmap doesn't intersect fieldBitmap.
func (d *TermDictionary) Lookup(term string, fieldBitmap *roaring.Bitmap) (TermEntry, error) {
	var entry TermEntry
	var found bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(termsBucket).Get([]byte(term))
		if v == nil {
			return nil
		}
		found = true
		e, err := decodeTermEntry(v)
		if err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		return TermEntry{}, err
	}
	if !found {
		return TermEntry{}, ErrTermNotFound
	}
	if fieldBitmap != nil && !fieldBitmap.IsEmpty() && entry.Fields != nil {
		if !entry.Fields.Intersects(fieldBitmap) {
			return TermEntry{}, ErrTermDoesNotOccur
		}
	}
	return entry, nil
}

// List enumerates dictionary entries matching kind/pattern, restricted
// to fieldBitmap when non-nil. It takes no language argument: the
// dictionary is not partitioned by language, and results are
// restricted by field only.
func (d *TermDictionary) List(pattern string, fieldBitmap *roaring.Bitmap, kind MatchKind, rangeID RangeID) ([]TermInfo, error) {
	var out []TermInfo
	err := d.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(termsBucket).Cursor()
		matcher, err := d.buildMatcher(kind, pattern, rangeID)
		if err != nil {
			return err
		}
		for k, v := c.First(); k != nil; k, v = c.Next() {
			term := string(k)
			if !matcher(term) {
				continue
			}
			entry, err := decodeTermEntry(v)
			if err != nil {
				return err
			}
			if kind == MatchRegular && entry.Type != TermTypeRegular {
				continue
			}
			if kind == MatchStop && entry.Type != TermTypeStop {
				continue
			}
			if fieldBitmap != nil && !fieldBitmap.IsEmpty() && entry.Fields != nil && !entry.Fields.Intersects(fieldBitmap) {
				continue
			}
			out = append(out, TermInfo{
				Term:          term,
				Type:          entry.Type,
				TermCount:     entry.TermCount,
				DocumentCount: entry.DocumentCount,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out, nil
}

// Free releases a List result. Go's garbage collector already reclaims
// the slice; this exists only so callers written against spec.md §4.3's
// four-operation facade have an explicit symmetric call.
func (d *TermDictionary) Free(list []TermInfo) {}

func (d *TermDictionary) buildMatcher(kind MatchKind, pattern string, rangeID RangeID) (func(string) bool, error) {
	switch kind {
	case MatchRegular:
		return func(t string) bool { return true }, nil
	case MatchStop:
		return func(t string) bool { return true }, nil
	case MatchWildcard:
		re, err := compileWildcard(pattern)
		if err != nil {
			return nil, err
		}
		return re.MatchString, nil
	case MatchRegex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrap(err, "term dictionary: regex compile failed")
		}
		return re.MatchString, nil
	case MatchTermRange:
		return func(t string) bool { return compareRange(t, pattern, rangeID) }, nil
	case MatchRange:
		return func(t string) bool {
			return strings.EqualFold(stripDiacritics(t), stripDiacritics(pattern))
		}, nil
	case MatchSoundex, MatchMetaphone, MatchPhonix, MatchTypo:
		if d.keyer == nil {
			return func(string) bool { return false }, nil
		}
		want, err := d.keyer(kind, pattern)
		if err != nil {
			return nil, err
		}
		return func(t string) bool {
			got, err := d.keyer(kind, t)
			return err == nil && got == want
		}, nil
	default:
		return nil, errors.Errorf("term dictionary: unknown match kind %d", kind)
	}
}

func compareRange(term, pattern string, rangeID RangeID) bool {
	switch rangeID {
	case RangeEqual:
		return term == pattern
	case RangeNotEqual:
		return term != pattern
	case RangeLess:
		return term < pattern
	case RangeGreater:
		return term > pattern
	case RangeLessOrEqual:
		return term <= pattern
	case RangeGreaterOrEqual:
		return term >= pattern
	default:
		return false
	}
}

// stripDiacritics lowercases s for the "range" match kind. It removes
// no diacritics, so a range match finds case variants of a term but
// not its diacritic variants.
func stripDiacritics(s string) string {
	return strings.ToLower(s)
}

// compileWildcard translates spec.md's wildcard metacharacters
// (* multi, ? single, @ alpha, % numeric; backslash escapes) into a
// regular expression.
func compileWildcard(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteByte('^')
	escaped := false
	for _, r := range pattern {
		if escaped {
			b.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = true
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '@':
			b.WriteString("[A-Za-z]")
		case '%':
			b.WriteString("[0-9]")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, errors.Wrap(err, "term dictionary: invalid wildcard pattern")
	}
	return re, nil
}

func encodeTermEntry(e TermEntry) ([]byte, error) {
	var bitmapBytes []byte
	var err error
	if e.Fields != nil {
		bitmapBytes, err = e.Fields.ToBytes()
		if err != nil {
			return nil, errors.Wrap(err, "term dictionary: encode field bitmap")
		}
	}
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(e.Type))
	binary.Write(buf, binary.BigEndian, e.TermCount)
	binary.Write(buf, binary.BigEndian, e.DocumentCount)
	binary.Write(buf, binary.BigEndian, uint64(e.PostingLocator.Offset))
	binary.Write(buf, binary.BigEndian, uint64(e.PostingLocator.Length))
	binary.Write(buf, binary.BigEndian, uint32(len(bitmapBytes)))
	buf.Write(bitmapBytes)
	return buf.Bytes(), nil
}

func decodeTermEntry(data []byte) (TermEntry, error) {
	if len(data) < 1+4+4+8+8+4 {
		return TermEntry{}, errors.New("term dictionary: truncated entry")
	}
	r := bytes.NewReader(data)
	var typeByte byte
	var termCount, docCount uint32
	var offset, length uint64
	var bitmapLen uint32
	r.ReadByte()
	typeByte = data[0]
	r2 := bytes.NewReader(data[1:])
	binary.Read(r2, binary.BigEndian, &termCount)
	binary.Read(r2, binary.BigEndian, &docCount)
	binary.Read(r2, binary.BigEndian, &offset)
	binary.Read(r2, binary.BigEndian, &length)
	binary.Read(r2, binary.BigEndian, &bitmapLen)

	entry := TermEntry{
		Type:          TermType(typeByte),
		TermCount:     termCount,
		DocumentCount: docCount,
		PostingLocator: Locator{
			Offset: int64(offset),
			Length: int64(length),
		},
	}
	rest := data[len(data)-r2.Len():]
	if bitmapLen > 0 {
		if uint32(len(rest)) < bitmapLen {
			return TermEntry{}, errors.New("term dictionary: truncated field bitmap")
		}
		bm := roaring.New()
		if _, err := bm.FromBuffer(rest[:bitmapLen]); err != nil {
			return TermEntry{}, errors.Wrap(err, "term dictionary: decode field bitmap")
		}
		entry.Fields = bm
	} else {
		entry.Fields = roaring.New()
	}
	return entry, nil
}

func (d *TermDictionary) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
