package auction

import (
	"errors"
	"fmt"
	"sync"

	"github.com/hns-tools/auctionwatch/internal/logger"
	"github.com/hns-tools/auctionwatch/internal/store"
	"github.com/hns-tools/auctionwatch/pkg/chain"
)

// ErrNotFound is returned when removing an outpoint that is not a member
// of the record, or when reading an unset tip. It is an expected
// condition, not a store failure.
var ErrNotFound = errors.New("auction: not found")

// Index maintains the per-name bid and reveal records: a cached counter
// plus one membership marker per outpoint. Membership is the source of
// truth; after every committed mutation count == |members|.
//
// Mutations are compound read-modify-writes over two keys. Concurrent
// mutations against the same name would race, so the index serializes
// all mutation with a single mutex; read queries run concurrently and
// observe the latest committed batch. The block pipeline is a single
// logical writer anyway, so contention is nil in practice.
type Index struct {
	log   *logger.Logger
	store *store.Store

	mu sync.Mutex // serializes mutations
}

// New creates an Index over an open store.
func New(s *store.Store, log *logger.Logger) *Index {
	return &Index{
		log:   log,
		store: s,
	}
}

// EnsureSchema stamps a fresh store with the current schema version and
// rejects stores written by an incompatible key layout.
func (i *Index) EnsureSchema() error {
	value, err := i.store.Get(versionKey())
	if errors.Is(err, store.ErrKeyNotFound) {
		batch := i.store.NewBatch()
		batch.Put(versionKey(), encodeCount(schemaVersion))
		if err := batch.Commit(); err != nil {
			return fmt.Errorf("write schema version: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	if v := decodeCount(value); v != schemaVersion {
		return fmt.Errorf("auction: incompatible schema version %d (want %d)", v, schemaVersion)
	}
	return nil
}

// Count returns the number of recorded outpoints for a name.
// A name with no record has count 0.
func (i *Index) Count(name string, kind Kind) (uint64, error) {
	value, err := i.store.Get(countKey(kind, name))
	if errors.Is(err, store.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeCount(value), nil
}

// AddMember records an outpoint for a name and increments the counter.
// Counter and membership marker are written in one atomic batch; on
// commit failure the prior state is untouched. Re-adding an existing
// member is a no-op.
func (i *Index) AddMember(name string, kind Kind, outpoint chain.Outpoint) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	member, err := i.store.Has(memberKey(kind, name, outpoint))
	if err != nil {
		return err
	}
	if member {
		return nil
	}

	count, err := i.Count(name, kind)
	if err != nil {
		return err
	}

	batch := i.store.NewBatch()
	batch.Put(countKey(kind, name), encodeCount(count+1))
	batch.Put(memberKey(kind, name, outpoint), []byte{})
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("add %s %s for %q: %w", kind, outpoint, name, err)
	}
	return nil
}

// RemoveMember deletes an outpoint record and decrements the counter.
// Removing a non-member, or removing from a record with count 0, is a
// no-op reporting ErrNotFound; the count never goes negative.
func (i *Index) RemoveMember(name string, kind Kind, outpoint chain.Outpoint) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	member, err := i.store.Has(memberKey(kind, name, outpoint))
	if err != nil {
		return err
	}

	count, err := i.Count(name, kind)
	if err != nil {
		return err
	}

	if !member || count == 0 {
		return ErrNotFound
	}

	batch := i.store.NewBatch()
	batch.Put(countKey(kind, name), encodeCount(count-1))
	batch.Delete(memberKey(kind, name, outpoint))
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("remove %s %s for %q: %w", kind, outpoint, name, err)
	}
	return nil
}

// HasMember reports whether an outpoint is recorded for a name.
func (i *Index) HasMember(name string, kind Kind, outpoint chain.Outpoint) (bool, error) {
	return i.store.Has(memberKey(kind, name, outpoint))
}

// ListMembers returns the recorded outpoints of a name in key order.
// Every call issues a fresh range scan; the result is a finite snapshot,
// not a live view.
func (i *Index) ListMembers(name string, kind Kind) ([]chain.Outpoint, error) {
	low, high := memberRange(kind, name)

	var outpoints []chain.Outpoint
	err := i.store.Iterate(low, high, func(key, _ []byte) error {
		if outpoint, ok := decodeMemberKey(key, name); ok {
			outpoints = append(outpoints, outpoint)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s members for %q: %w", kind, name, err)
	}
	return outpoints, nil
}

// Tip returns the hash of the last fully indexed block.
// ErrNotFound means no block has been indexed yet.
func (i *Index) Tip() (chain.Hash, error) {
	value, err := i.store.Get(tipKey())
	if errors.Is(err, store.ErrKeyNotFound) {
		return chain.Hash{}, ErrNotFound
	}
	if err != nil {
		return chain.Hash{}, err
	}
	if len(value) != chain.HashSize {
		return chain.Hash{}, fmt.Errorf("auction: corrupt tip record: %d bytes", len(value))
	}

	var tip chain.Hash
	copy(tip[:], value)
	return tip, nil
}

// SetTip persists the tip pointer. Callers must only advance the tip
// after every mutation of the corresponding block has committed, so a
// restart resumes from the last fully indexed block.
func (i *Index) SetTip(hash chain.Hash) error {
	batch := i.store.NewBatch()
	batch.Put(tipKey(), hash.Bytes())
	return batch.Commit()
}

// Wipe deletes every bid and reveal record (counters and members) and
// returns the number of records deleted. The tip is left in place.
// Used for administrative resync and test teardown; idempotent.
func (i *Index) Wipe() (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	batch := i.store.NewBatch()
	for _, tag := range []byte{tagBidMember, tagBidCount, tagRevealMember, tagRevealCount} {
		low, high := familyRange(tag)
		err := i.store.Iterate(low, high, func(key, _ []byte) error {
			batch.Delete(key)
			return nil
		})
		if err != nil {
			return 0, fmt.Errorf("wipe scan: %w", err)
		}
	}

	deleted := batch.Len()
	if deleted == 0 {
		return 0, nil
	}

	if err := batch.Commit(); err != nil {
		return 0, fmt.Errorf("wipe: %w", err)
	}

	i.log.Infof("wiped auction index: records=%d", deleted)
	return deleted, nil
}
