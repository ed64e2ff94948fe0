package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	ldbopt "github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/hns-tools/auctionwatch/internal/logger"
)

var (
	// ErrKeyNotFound is returned by Get for absent keys. An existing key
	// with an empty value is not an error.
	ErrKeyNotFound = errors.New("store: key not found")

	// ErrClosed is returned for operations against a closed store.
	ErrClosed = errors.New("store: closed")
)

// Store is an ordered key-value store with atomic batch commits.
// Keys sort lexicographically, so records sharing a prefix are contiguous
// and can be range-scanned without touching unrelated records.
type Store struct {
	log *logger.Logger

	// mu serializes Close against in-flight reads and batch commits:
	// operations hold the read lock, Close takes the write lock and so
	// waits for every pending commit to drain before releasing the DB.
	mu     sync.RWMutex
	db     *leveldb.DB
	closed bool
}

// Open opens (creating if necessary) the leveldb database at path.
// Permission and corruption failures are returned to the caller.
func Open(path string, log *logger.Logger) (*Store, error) {
	opt := &ldbopt.Options{
		ErrorIfExist: false,
	}

	db, err := leveldb.OpenFile(path, opt)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	log.Debugf("opened store: path=%s", path)

	return &Store{
		log: log,
		db:  db,
	}, nil
}

// Close releases the underlying database. It blocks until any in-flight
// batch commit has drained. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	return nil
}

// Get returns the value stored under key. An absent key yields
// ErrKeyNotFound; an existing key with an empty value yields an empty,
// non-nil slice.
func (s *Store) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	value, err := s.db.Get(key, nil)
	if errors.Is(err, ldberrors.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get: %w", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Has reports whether key exists.
func (s *Store) Has(key []byte) (bool, error) {
	_, err := s.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Iterate scans keys in [low, high) in lexicographic order, invoking
// decode for every record. Iteration stops early if decode returns an
// error, which is propagated to the caller. Each call issues a fresh
// snapshot scan; it is not a live view.
func (s *Store) Iterate(low, high []byte, decode func(key, value []byte) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	iter := s.db.NewIterator(&util.Range{Start: low, Limit: high}, nil)
	defer iter.Release()

	for iter.Next() {
		// key/value slices are only valid until the next call to Next
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())

		if err := decode(key, value); err != nil {
			return err
		}
	}

	if err := iter.Error(); err != nil {
		return fmt.Errorf("store: iterate: %w", err)
	}
	return nil
}

// Batch buffers puts and deletes until Commit. A batch is all-or-nothing:
// a failed commit leaves the store exactly as it was before.
type Batch struct {
	store *Store
	batch *leveldb.Batch
}

// NewBatch starts an empty batch.
func (s *Store) NewBatch() *Batch {
	return &Batch{
		store: s,
		batch: new(leveldb.Batch),
	}
}

// Put buffers a key/value write.
func (b *Batch) Put(key, value []byte) {
	b.batch.Put(key, value)
}

// Delete buffers a key deletion.
func (b *Batch) Delete(key []byte) {
	b.batch.Delete(key)
}

// Len returns the number of buffered operations.
func (b *Batch) Len() int {
	return b.batch.Len()
}

// Commit writes every buffered operation atomically. On failure the
// store is unchanged and the batch may be retried or abandoned.
func (b *Batch) Commit() error {
	b.store.mu.RLock()
	defer b.store.mu.RUnlock()

	if b.store.closed {
		return ErrClosed
	}

	commitsInc(b.batch.Len())
	if err := b.store.db.Write(b.batch, nil); err != nil {
		commitErrorsInc()
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}
