package smd

import (
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/cuemby/infod/pkg/types"
)

// Store is SMD's durable backing store: one bbolt bucket per module,
// a bucket-per-entity pattern over bbolt. Every record is stored as its
// raw value string; Delete removes the value and records a tombstone
// marker under a parallel "<key>\x00T" key. Get and GetAll skip the
// markers, so they report live records only.
type Store struct {
	db *bolt.DB
}

var allModules = []types.SMDModule{
	types.SMDModuleSindex,
	types.SMDModuleRoster,
	types.SMDModuleTruncate,
	types.SMDModuleEvict,
	types.SMDModuleUDF,
	types.SMDModuleXDR,
}

const tombstoneSuffix = "\x00T"

// OpenStore opens (creating if necessary) the bbolt database at path and
// ensures every module bucket exists.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("smd: open store: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, m := range allModules {
			if _, err := tx.CreateBucketIfNotExists([]byte(m)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("smd: init buckets: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Set writes key=value into module's bucket, clearing any tombstone.
func (s *Store) Set(module types.SMDModule, key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(module))
		if b == nil {
			return fmt.Errorf("smd: unknown module %q", module)
		}
		if err := b.Put([]byte(key), []byte(value)); err != nil {
			return err
		}
		return b.Delete([]byte(key + tombstoneSuffix))
	})
}

// Delete tombstones key in module's bucket: the value is removed and a
// tombstone marker is recorded, preserving deletion as an explicit fact
// rather than silent absence.
func (s *Store) Delete(module types.SMDModule, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(module))
		if b == nil {
			return fmt.Errorf("smd: unknown module %q", module)
		}
		if err := b.Delete([]byte(key)); err != nil {
			return err
		}
		return b.Put([]byte(key+tombstoneSuffix), []byte{1})
	})
}

// Get returns the value for key in module, and whether it is present
// (false for both missing and tombstoned keys).
func (s *Store) Get(module types.SMDModule, key string) (value string, ok bool) {
	_ = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(module))
		if b == nil {
			return nil
		}
		v := b.Get([]byte(key))
		if v != nil {
			value, ok = string(v), true
		}
		return nil
	})
	return value, ok
}

// GetAll calls visitor once per live (non-tombstoned) record in module, in
// bbolt's key-sorted order. visitor returning false stops iteration early.
func (s *Store) GetAll(module types.SMDModule, visitor func(key, value string) bool) error {
	return s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(module))
		if b == nil {
			return fmt.Errorf("smd: unknown module %q", module)
		}
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			key := string(k)
			if len(key) >= len(tombstoneSuffix) && key[len(key)-len(tombstoneSuffix):] == tombstoneSuffix {
				continue
			}
			if !visitor(key, string(v)) {
				break
			}
		}
		return nil
	})
}

// Snapshot returns every live record in module as a slice, for the
// snapshot-classify-apply pattern used by SMD-mediated commands.
func (s *Store) Snapshot(module types.SMDModule) ([]types.SMDRecord, error) {
	var out []types.SMDRecord
	err := s.GetAll(module, func(key, value string) bool {
		out = append(out, types.SMDRecord{Module: module, Key: key, Value: value})
		return true
	})
	return out, err
}
