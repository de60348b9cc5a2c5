package index

import (
	"encoding/binary"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

var (
	ErrKeyNotFound = errors.New("key dictionary: key not found")
	ErrDuplicateKey = errors.New("key dictionary: key already mapped to a different document id")
)

var keysBucket = []byte("keys")

// KeyDictionary maps a caller-supplied document key (spec.md §3's
// "data-ID" key, e.g. a URL or external primary key) to the dense
// DocumentID assigned by the DocumentTable. It's a second keyed
// dictionary in the same shape as TermDictionary, so it shares the
// same bbolt-backed approach (see DESIGN.md).
type KeyDictionary struct {
	db       *bolt.DB
	writable bool
}

func openKeyDictionary(path string, writable bool) (*KeyDictionary, error) {
	db, err := bolt.Open(path, 0644, &bolt.Options{ReadOnly: !writable})
	if err != nil {
		return nil, errors.Wrap(err, "key dictionary: open")
	}
	if writable {
		err = db.Update(func(tx *bolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(keysBucket)
			return err
		})
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "key dictionary: create bucket")
		}
	}
	return &KeyDictionary{db: db, writable: writable}, nil
}

// Add maps key to id. Re-adding the same key with the same id is a
// no-op; re-adding it with a different id is rejected, since document
// keys are expected to be unique within an index (spec.md §4.2).
func (d *KeyDictionary) Add(key string, id DocumentID) error {
	if !d.writable {
		return errors.New("key dictionary: not writable")
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(keysBucket)
		if existing := b.Get([]byte(key)); existing != nil {
			if binary.BigEndian.Uint32(existing) != uint32(id) {
				return ErrDuplicateKey
			}
			return nil
		}
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(id))
		return b.Put([]byte(key), buf[:])
	})
}

// Lookup returns the document ID mapped to key.
func (d *KeyDictionary) Lookup(key string) (DocumentID, error) {
	var id DocumentID
	var found bool
	err := d.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(keysBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		id = DocumentID(binary.BigEndian.Uint32(v))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, ErrKeyNotFound
	}
	return id, nil
}

// Delete removes a key's mapping.
func (d *KeyDictionary) Delete(key string) error {
	if !d.writable {
		return errors.New("key dictionary: not writable")
	}
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(keysBucket).Delete([]byte(key))
	})
}

func (d *KeyDictionary) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
