// Package filter implements persisted tombstone filters: probabilistic sets
// over note ids that answer "did this id ever exist" after the rows themselves
// have been erased. Membership never produces a false negative for an added
// id; false positives are bounded by the filter sizing.
package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/mcndt/noteshare.space/internal/model"
	"github.com/mcndt/noteshare.space/internal/store"
)

// Filter names. One persisted blob per name.
const (
	DeletedName = "deletedNotes"
	ExpiredName = "expiredNotes"
)

// formatVersion prefixes every serialized blob so the encoding can evolve.
const formatVersion byte = 1

// Sizing: comfortably under a 1% false-positive rate for the note volumes an
// instance sees over its retention horizon.
const (
	estimatedIDs = 100_000
	targetFPRate = 0.001
)

// Filter is a named tombstone set. Mutations are serialized internally and
// each Add synchronously persists the whole blob under the filter's name.
type Filter struct {
	name  string
	blobs store.Filters

	mu sync.RWMutex
	bf *bloom.BloomFilter
}

// Load deserializes the persisted state for name. A missing blob is a cold
// start, not an error: a fresh empty filter is returned.
func Load(ctx context.Context, blobs store.Filters, name string) (*Filter, error) {
	raw, err := blobs.Get(ctx, name)
	if errors.Is(err, model.ErrNotFound) {
		return &Filter{
			name:  name,
			blobs: blobs,
			bf:    bloom.NewWithEstimates(estimatedIDs, targetFPRate),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	bf, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", name, err)
	}
	return &Filter{name: name, blobs: blobs, bf: bf}, nil
}

// Name returns the persisted name of the filter.
func (f *Filter) Name() string { return f.name }

// Add inserts the ids into the set and synchronously persists the updated
// blob. Ids are never removed again.
func (f *Filter) Add(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, id := range ids {
		f.bf.Add([]byte(id))
	}
	blob, err := encode(f.bf)
	if err != nil {
		return err
	}
	return f.blobs.Upsert(ctx, f.name, blob)
}

// Has reports whether id is (probably) in the set. False negatives are
// impossible for ids that were added and persisted.
func (f *Filter) Has(id string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bf.Test([]byte(id))
}

func encode(bf *bloom.BloomFilter) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(formatVersion)
	if _, err := bf.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(raw []byte) (*bloom.BloomFilter, error) {
	if len(raw) < 1 {
		return nil, fmt.Errorf("serialized filter is empty")
	}
	if raw[0] != formatVersion {
		return nil, fmt.Errorf("unknown filter format version %d", raw[0])
	}
	bf := &bloom.BloomFilter{}
	if _, err := bf.ReadFrom(bytes.NewReader(raw[1:])); err != nil {
		return nil, err
	}
	return bf, nil
}

// Set bundles the two tombstone filters the server maintains. It is built
// once at startup and passed by handle into every component that needs it.
type Set struct {
	Deleted *Filter
	Expired *Filter
}

// OpenSet loads both filters from the blob store.
func OpenSet(ctx context.Context, blobs store.Filters) (*Set, error) {
	deleted, err := Load(ctx, blobs, DeletedName)
	if err != nil {
		return nil, err
	}
	expired, err := Load(ctx, blobs, ExpiredName)
	if err != nil {
		return nil, err
	}
	return &Set{Deleted: deleted, Expired: expired}, nil
}
