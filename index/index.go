package index

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/gostorm/fts/lang"
)

// Intent selects why an Index handle is being opened (spec.md §3/§4.2).
type Intent int

const (
	IntentCreate Intent = iota
	IntentSearch
)

// state tracks the lifecycle state machine: Closed -> Creating -> Closed
// or Closed -> Searching -> Closed. There is no direct transition
// between Creating and Searching on the same handle (spec.md §4.2).
type state int

const (
	stateClosed state = iota
	stateCreating
	stateSearching
)

// Index is the lifecycle object owning every on-disk container for one
// named index: term dictionary, key dictionary, document table, two
// blob stores, configuration, and a lock file (spec.md §3).
type Index struct {
	paths  FilePaths
	intent Intent
	state  state
	lock   *indexLock

	cfg configuration

	documents *DocumentTable
	terms     *TermDictionary
	keys      *KeyDictionary
	docData   *BlobStore
	idxData   *BlobStore

	// Immutable at create time, frozen for the life of the index.
	versionMajor, versionMinor, versionPatch uint32
	languageID                               uint32
	tokenizerName, stemmerName               string
	stopListName, stopListType               string
	termLengthMinimum, termLengthMaximum     uint32
	fieldIDMaximum                           uint32

	// Scalar counts, monotone during build, frozen at close.
	uniqueTermCount     uint32
	totalTermCount      uint64
	uniqueStopTermCount uint32
	totalStopTermCount  uint64
	documentCount       uint32
	minDocTermCount     uint32
	maxDocTermCount     uint32
	lastUpdate          time.Time

	// deleteOnAbort controls whether abort() removes the index
	// directory after closing (spec.md §4.2).
	deleteOnAbort bool
}

// Open implements the open() operation of spec.md §4.2: it validates
// paths, takes the advisory lock appropriate to intent, and opens all
// six containers. A failed open always aborts/cleans up before
// returning, per spec.md's failure semantics.
func Open(paths FilePaths, intent Intent) (*Index, error) {
	if err := paths.validate(); err != nil {
		return nil, err
	}

	idx := &Index{paths: paths, intent: intent}

	dir := paths.indexDirectory()
	switch intent {
	case IntentCreate:
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(ErrCreateFailed, err.Error())
		}
	case IntentSearch:
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return nil, errors.Wrap(ErrInvalidIndexPath, "index: directory does not exist")
		}
		lockPath, _ := paths.Path(RoleIndexLock)
		if _, err := os.Stat(lockPath); err != nil {
			return nil, errors.Wrap(ErrOpenFailed, "index: lock file missing")
		}
	default:
		return nil, ErrInvalidIntent
	}

	if err := idx.openLocked(); err != nil {
		idx.abortCleanup()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) openLocked() error {
	lockPath, err := idx.paths.Path(RoleIndexLock)
	if err != nil {
		return err
	}

	mode := lockShared
	if idx.intent == IntentCreate {
		mode = lockExclusive
	}
	lock, err := acquireLock(lockPath, mode)
	if err != nil {
		return err
	}
	idx.lock = lock

	writable := idx.intent == IntentCreate
	if err := idx.openContainers(writable); err != nil {
		return errors.Wrap(ErrOpenFailed, err.Error())
	}

	if idx.intent == IntentSearch {
		if err := idx.populateFromConfiguration(); err != nil {
			return errors.Wrap(ErrOpenFailed, err.Error())
		}
		idx.state = stateSearching
	} else {
		idx.cfg = configuration{}
		idx.state = stateCreating
	}
	return nil
}

func (idx *Index) openContainers(writable bool) error {
	docPath, err := idx.paths.Path(RoleDocumentTable)
	if err != nil {
		return err
	}
	idx.documents, err = openDocumentTable(docPath, writable)
	if err != nil {
		return err
	}

	termPath, err := idx.paths.Path(RoleTermDictionary)
	if err != nil {
		return err
	}
	idx.terms, err = openTermDictionary(termPath, writable)
	if err != nil {
		return err
	}

	keyPath, err := idx.paths.Path(RoleKeyDictionary)
	if err != nil {
		return err
	}
	idx.keys, err = openKeyDictionary(keyPath, writable)
	if err != nil {
		return err
	}

	docDataPath, err := idx.paths.Path(RoleDocumentData)
	if err != nil {
		return err
	}
	idx.docData, err = openBlobStore(docDataPath, writable)
	if err != nil {
		return err
	}

	idxDataPath, err := idx.paths.Path(RoleIndexData)
	if err != nil {
		return err
	}
	idx.idxData, err = openBlobStore(idxDataPath, writable)
	if err != nil {
		return err
	}

	return nil
}

// populateFromConfiguration reads version, language, tokenizer, stemmer,
// stop-list, term-length bounds, and scalar counts for a Search-intent
// open (spec.md §4.2).
func (idx *Index) populateFromConfiguration() error {
	infPath, err := idx.paths.Path(RoleIndexInformation)
	if err != nil {
		return err
	}
	cfg, err := loadConfiguration(infPath)
	if err != nil {
		return err
	}
	idx.cfg = cfg

	var verr error
	get := func(key string, def uint32) uint32 {
		v, err := cfg.getUint32(key, def)
		if err != nil && verr == nil {
			verr = err
		}
		return v
	}
	idx.versionMajor = get(keyVersionMajor, 0)
	idx.versionMinor = get(keyVersionMinor, 0)
	idx.versionPatch = get(keyVersionPatch, 0)
	idx.languageID = get(keyLanguageID, 0)
	idx.termLengthMinimum = get(keyTermLengthMinimum, 1)
	idx.termLengthMaximum = get(keyTermLengthMaximum, 256)
	idx.fieldIDMaximum = get(keyFieldIDMaximum, 0)
	idx.tokenizerName = cfg.getString(keyTokenizerName, "")
	idx.stemmerName = cfg.getString(keyStemmerName, "")
	idx.stopListName = cfg.getString(keyStopListName, "")
	idx.stopListType = cfg.getString(keyStopListType, "")

	// Names written at create time must still resolve through the
	// linguistic module's name->ID maps; an unknown name is fatal for
	// the open (spec.md §4.2).
	if idx.tokenizerName != "" {
		if _, ok := lang.TokenizerID(idx.tokenizerName); !ok && verr == nil {
			verr = errors.Errorf("index: unknown tokenizer %q", idx.tokenizerName)
		}
	}
	if idx.stemmerName != "" {
		if _, ok := lang.StemmerID(idx.stemmerName); !ok && verr == nil {
			verr = errors.Errorf("index: unknown stemmer %q", idx.stemmerName)
		}
	}

	if idx.termLengthMinimum < 1 || idx.termLengthMaximum < idx.termLengthMinimum {
		if verr == nil {
			verr = errors.Errorf("index: invalid term length bounds [%d, %d]",
				idx.termLengthMinimum, idx.termLengthMaximum)
		}
	}

	idx.uniqueTermCount = get(keyUniqueTermCount, 0)
	total, err := cfg.getUint64(keyTotalTermCount, 0)
	if err != nil {
		verr = err
	}
	idx.totalTermCount = total
	idx.uniqueStopTermCount = get(keyUniqueStopTermCount, 0)
	totalStop, err := cfg.getUint64(keyTotalStopTermCount, 0)
	if err != nil {
		verr = err
	}
	idx.totalStopTermCount = totalStop
	idx.documentCount = get(keyDocumentCount, 0)
	idx.minDocTermCount = get(keyMinDocTermCount, 0)
	idx.maxDocTermCount = get(keyMaxDocTermCount, 0)
	lastUpdate, err := cfg.getTime(keyLastUpdate)
	if err != nil {
		verr = err
	}
	idx.lastUpdate = lastUpdate

	return verr
}

// SetDeleteOnAbort configures whether Abort removes the index directory
// after closing (spec.md §4.2). Only meaningful for Create intent.
func (idx *Index) SetDeleteOnAbort(enabled bool) { idx.deleteOnAbort = enabled }

// SetSchema records the immutable create-time attributes. Must be
// called before any term is added, and only in Create intent.
func (idx *Index) SetSchema(versionMajor, versionMinor, versionPatch, languageID uint32,
	tokenizerName, stemmerName, stopListName, stopListType string,
	termLengthMin, termLengthMax, fieldIDMaximum uint32) error {
	if idx.state != stateCreating {
		return errors.Wrap(ErrInvalidIntent, "index: SetSchema requires Create intent")
	}
	idx.versionMajor, idx.versionMinor, idx.versionPatch = versionMajor, versionMinor, versionPatch
	idx.languageID = languageID
	idx.tokenizerName, idx.stemmerName = tokenizerName, stemmerName
	idx.stopListName, idx.stopListType = stopListName, stopListType
	idx.termLengthMinimum, idx.termLengthMaximum = termLengthMin, termLengthMax
	idx.fieldIDMaximum = fieldIDMaximum
	return nil
}

// ValidateDocumentID reports whether id is in [1, document_count].
func (idx *Index) ValidateDocumentID(id DocumentID) bool {
	return idx.documents.ValidateDocumentID(id)
}

// NewDocumentID assigns the next dense document ID during build and
// bumps document_count.
func (idx *Index) NewDocumentID() (DocumentID, error) {
	if idx.state != stateCreating {
		return 0, errors.Wrap(ErrInvalidIntent, "index: NewDocumentID requires Create intent")
	}
	id := idx.documents.NewDocumentID()
	idx.documentCount = idx.documents.Count()
	return id, nil
}

// Documents, Terms, Keys, DocumentData, IndexData expose the open
// containers to the build/search paths above this package.
func (idx *Index) Documents() *DocumentTable { return idx.documents }
func (idx *Index) Terms() *TermDictionary    { return idx.terms }
func (idx *Index) Keys() *KeyDictionary      { return idx.keys }
func (idx *Index) DocumentData() *BlobStore  { return idx.docData }
func (idx *Index) IndexData() *BlobStore     { return idx.idxData }

// FieldIDMaximum, TermLengthBounds, LanguageID, and the scalar-count
// readers expose the immutable and monotone attributes (spec.md §3).
func (idx *Index) FieldIDMaximum() uint32 { return idx.fieldIDMaximum }
func (idx *Index) TermLengthBounds() (min, max uint32) {
	return idx.termLengthMinimum, idx.termLengthMaximum
}
func (idx *Index) LanguageID() uint32    { return idx.languageID }
func (idx *Index) DocumentCount() uint32 { return idx.documentCount }

// UpdateTermCounts folds one build-time term observation into the
// running scalar counts (spec.md §3, "counts are monotone during
// build").
func (idx *Index) UpdateTermCounts(isNewUniqueTerm, isStop bool, occurrences uint64) error {
	if idx.state != stateCreating {
		return errors.Wrap(ErrInvalidIntent, "index: UpdateTermCounts requires Create intent")
	}
	if isStop {
		if isNewUniqueTerm {
			idx.uniqueStopTermCount++
		}
		idx.totalStopTermCount += occurrences
	} else {
		if isNewUniqueTerm {
			idx.uniqueTermCount++
		}
		idx.totalTermCount += occurrences
	}
	return nil
}

// UpdateDocumentTermCount folds one document's term count into the
// per-document minimum/maximum scalars.
func (idx *Index) UpdateDocumentTermCount(count uint32) {
	if idx.minDocTermCount == 0 || count < idx.minDocTermCount {
		idx.minDocTermCount = count
	}
	if count > idx.maxDocTermCount {
		idx.maxDocTermCount = count
	}
}

// Close implements close(): in Create intent it flushes schema and
// scalars to configuration and stamps last_update, then closes every
// container (continuing through failures so each gets a chance to
// flush) and releases the lock (spec.md §4.2).
func (idx *Index) Close() error {
	if idx.state == stateClosed {
		return nil
	}
	if idx.state == stateCreating {
		idx.lastUpdate = time.Now().UTC()
		if err := idx.flushConfiguration(); err != nil {
			log.Printf("index: flush configuration failed for %s: %v", idx.paths.Name, err)
		}
	}

	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	record(idx.documents.Close())
	record(idx.terms.Close())
	record(idx.keys.Close())
	record(idx.docData.Close())
	record(idx.idxData.Close())
	record(idx.lock.release())

	idx.state = stateClosed
	if firstErr != nil {
		return errors.Wrap(ErrCloseFailed, firstErr.Error())
	}
	return nil
}

func (idx *Index) flushConfiguration() error {
	if idx.cfg == nil {
		idx.cfg = configuration{}
	}
	cfg := idx.cfg
	cfg.setUint32(keyVersionMajor, idx.versionMajor)
	cfg.setUint32(keyVersionMinor, idx.versionMinor)
	cfg.setUint32(keyVersionPatch, idx.versionPatch)
	cfg.setUint32(keyLanguageID, idx.languageID)
	cfg[keyTokenizerName] = idx.tokenizerName
	cfg[keyStemmerName] = idx.stemmerName
	cfg[keyStopListName] = idx.stopListName
	cfg[keyStopListType] = idx.stopListType
	cfg.setUint32(keyTermLengthMinimum, idx.termLengthMinimum)
	cfg.setUint32(keyTermLengthMaximum, idx.termLengthMaximum)
	cfg.setUint32(keyFieldIDMaximum, idx.fieldIDMaximum)

	cfg.setUint32(keyUniqueTermCount, idx.uniqueTermCount)
	cfg.setUint64(keyTotalTermCount, idx.totalTermCount)
	cfg.setUint32(keyUniqueStopTermCount, idx.uniqueStopTermCount)
	cfg.setUint64(keyTotalStopTermCount, idx.totalStopTermCount)
	cfg.setUint32(keyDocumentCount, idx.documentCount)
	cfg.setUint32(keyMinDocTermCount, idx.minDocTermCount)
	cfg.setUint32(keyMaxDocTermCount, idx.maxDocTermCount)
	cfg.setTime(keyLastUpdate, idx.lastUpdate)

	infPath, err := idx.paths.Path(RoleIndexInformation)
	if err != nil {
		return err
	}
	return saveConfiguration(infPath, cfg)
}

// Abort is the alternate terminal operation for Create intent
// (spec.md §4.2). It closes the index and, if index-deletion-on-abort
// is enabled, deletes the index directory; otherwise it logs and
// closes only.
func (idx *Index) Abort() error {
	if idx.intent != IntentCreate {
		return errors.Wrap(ErrInvalidIntent, "index: Abort requires Create intent")
	}
	dir := idx.paths.indexDirectory()
	if idx.deleteOnAbort {
		if err := idx.Close(); err != nil {
			log.Printf("index: abort close failed for %s: %v", dir, err)
		}
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrap(ErrCloseFailed, err.Error())
		}
		return nil
	}
	log.Printf("index: aborting build of %s without deleting partial state", dir)
	return idx.Close()
}

// abortCleanup runs when Open fails partway through: it releases
// whatever was acquired so no lock or file handle leaks, mirroring
// spec.md's "any open failure triggers abort" failure semantics.
func (idx *Index) abortCleanup() {
	if idx.documents != nil {
		idx.documents.Close()
	}
	if idx.terms != nil {
		idx.terms.Close()
	}
	if idx.keys != nil {
		idx.keys.Close()
	}
	if idx.docData != nil {
		idx.docData.Close()
	}
	if idx.idxData != nil {
		idx.idxData.Close()
	}
	if idx.lock != nil {
		idx.lock.release()
	}
	idx.state = stateClosed

	if idx.intent == IntentCreate && idx.deleteOnAbort {
		dir := idx.paths.indexDirectory()
		if _, err := os.Stat(filepath.Dir(dir)); err == nil {
			os.RemoveAll(dir)
		}
	}
}
