package statedb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var rootBucket = []byte("STATE_DB")

// BoltConnector keeps the state table in a local bbolt file. Each key is a
// nested bucket whose entries are the hash fields. The file is opened for
// each operation, so processes sharing the path only exclude each other
// while a transaction runs.
type BoltConnector struct {
	path    string
	timeout time.Duration
}

// OpenBolt creates the database at path if it does not exist. Every
// operation waits up to timeout for the file lock: readers share it,
// writers take it exclusively.
func OpenBolt(dbPath string, timeout time.Duration) (*BoltConnector, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	b := &BoltConnector{path: dbPath, timeout: timeout}
	if err := b.update(func(*bolt.Bucket) error { return nil }); err != nil {
		return nil, fmt.Errorf("init state database: %w", err)
	}
	return b, nil
}

func (b *BoltConnector) open(readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(b.path, 0o644, &bolt.Options{Timeout: b.timeout, ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("open state database %s: %w", b.path, err)
	}
	return db, nil
}

func (b *BoltConnector) update(fn func(root *bolt.Bucket) error) error {
	db, err := b.open(false)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Update(func(tx *bolt.Tx) error {
		root, err := tx.CreateBucketIfNotExists(rootBucket)
		if err != nil {
			return err
		}
		return fn(root)
	})
}

func (b *BoltConnector) view(fn func(root *bolt.Bucket) error) error {
	db, err := b.open(true)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(rootBucket)
		if root == nil {
			return nil
		}
		return fn(root)
	})
}

func (b *BoltConnector) HSet(_ context.Context, key, field, value string) error {
	return b.update(func(root *bolt.Bucket) error {
		hash, err := root.CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return fmt.Errorf("hset %s: %w", key, err)
		}
		return hash.Put([]byte(field), []byte(value))
	})
}

func (b *BoltConnector) HGetAll(_ context.Context, key string) (map[string]string, error) {
	fields := make(map[string]string)
	err := b.view(func(root *bolt.Bucket) error {
		hash := root.Bucket([]byte(key))
		if hash == nil {
			return nil
		}
		return hash.ForEach(func(k, v []byte) error {
			fields[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return fields, nil
}

func (b *BoltConnector) Delete(_ context.Context, key string) error {
	return b.update(func(root *bolt.Bucket) error {
		err := root.DeleteBucket([]byte(key))
		if err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return fmt.Errorf("del %s: %w", key, err)
		}
		return nil
	})
}

// Keys matches keys with shell glob patterns, like Redis KEYS
func (b *BoltConnector) Keys(_ context.Context, pattern string) ([]string, error) {
	var keys []string
	err := b.view(func(root *bolt.Bucket) error {
		return root.ForEach(func(k, v []byte) error {
			if v != nil {
				return nil
			}
			ok, err := path.Match(pattern, string(k))
			if err != nil {
				return err
			}
			if ok {
				keys = append(keys, string(k))
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("keys %s: %w", pattern, err)
	}
	return keys, nil
}

// Close is a no-op; no handle outlives an operation
func (b *BoltConnector) Close() error {
	return nil
}
