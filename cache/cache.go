// Package cache provides an incremental-analysis cache keyed by a source
// file's content fingerprint, so unchanged files are not re-parsed and
// re-walked on every run.
package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/highwayhash"
	bolt "go.etcd.io/bbolt"

	"github.com/capsentry/capsentry/extract"
)

var hashKey = [32]byte{
	'c', 'a', 'p', 's', 'e', 'n', 't', 'r', 'y',
	'-', 'n', 'o', 'd', 'e', '-', 'p', 'o', 'l', 'i', 'c', 'y',
	'-', 'c', 'a', 'c', 'h', 'e', '-', 'v', '1',
}

var bucketName = []byte("files")

// Digest fingerprints file content for use as a cache key.
func Digest(content []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey[:])
	if err != nil {
		return 0, fmt.Errorf("cache: init digest: %w", err)
	}
	if _, err := h.Write(content); err != nil {
		return 0, fmt.Errorf("cache: digest: %w", err)
	}
	return h.Sum64(), nil
}

// record is the serialized form of an extract.Result stored per file.
type record struct {
	Modules       []string                `json:"modules"`
	Globals       []string                `json:"globals"`
	ModuleMembers []extract.MemberAccess  `json:"moduleMembers"`
	GlobalMembers []string                `json:"globalMembers"`
}

func toRecord(r *extract.Result) record {
	return record{
		Modules:       r.Modules(),
		Globals:       r.Globals(),
		ModuleMembers: r.ModuleMembers(),
		GlobalMembers: r.GlobalMembers(),
	}
}

func fromRecord(rec record) *extract.Result {
	out := extract.NewResult()
	for _, m := range rec.Modules {
		out.AddModule(m)
	}
	for _, g := range rec.Globals {
		out.AddGlobal(g)
	}
	for _, m := range rec.ModuleMembers {
		out.AddModuleMember(m.Module, m.Member)
	}
	for _, g := range rec.GlobalMembers {
		out.AddGlobalMemberKey(g)
	}
	return out
}

// Store is a bbolt-backed cache mapping (file path, content digest) to a
// previously computed extract.Result.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the bbolt database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: init %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(path string, digest uint64) []byte {
	return []byte(fmt.Sprintf("%s\x00%016x", path, digest))
}

func keyPrefix(path string) []byte {
	return []byte(path + "\x00")
}

// Get returns the cached result for (path, digest), if present.
func (s *Store) Get(path string, digest uint64) (*extract.Result, bool) {
	var rec *record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketName).Get(key(path, digest))
		if data == nil {
			return nil
		}
		var r record
		if err := json.Unmarshal(data, &r); err != nil {
			return err
		}
		rec = &r
		return nil
	})
	if err != nil || rec == nil {
		return nil, false
	}
	return fromRecord(*rec), true
}

// Put stores the result for (path, digest), evicting any older digest
// recorded for the same path.
func (s *Store) Put(path string, digest uint64, result *extract.Result) error {
	data, err := json.Marshal(toRecord(result))
	if err != nil {
		return fmt.Errorf("cache: marshal %s: %w", path, err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)
		prefix := keyPrefix(path)
		c := bucket.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return bucket.Put(key(path, digest), data)
	})
}
