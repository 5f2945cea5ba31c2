package index

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrSnapshotNotFound means no persisted snapshot exists yet.
	ErrSnapshotNotFound = errors.New("index snapshot not found")
	// ErrSnapshotCorrupt means the persisted snapshot could not be decoded
	// or its parts disagree with each other.
	ErrSnapshotCorrupt = errors.New("index snapshot is corrupt")
	// ErrIndexEmpty means a search ran against an index with no vectors.
	ErrIndexEmpty = errors.New("index contains no vectors")
)

// Match is a single nearest-neighbor hit.
type Match struct {
	ID         string
	Similarity float64
}

// Snapshot is the persisted form of the index: a flat row-major vector blob
// plus the item id for each row.
type Snapshot struct {
	Dimensions int
	IDs        []string
	Vectors    []float32
}

// SnapshotStore persists and restores index snapshots.
type SnapshotStore interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// Store is an in-memory flat vector index with exhaustive nearest-neighbor
// search. Searches take a read lock; Swap replaces the whole index at once,
// so readers never observe a half-built state.
type Store struct {
	dims      int
	snapshots SnapshotStore

	mu      sync.RWMutex
	ids     []string
	vectors []float32
}

func NewStore(dimensions int, snapshots SnapshotStore) *Store {
	return &Store{dims: dimensions, snapshots: snapshots}
}

// Load restores the index from its persisted snapshot.
func (s *Store) Load(ctx context.Context) error {
	snap, err := s.snapshots.Load(ctx)
	if err != nil {
		return err
	}
	if snap.Dimensions != s.dims {
		return fmt.Errorf("%w: snapshot has %d dimensions, want %d", ErrSnapshotCorrupt, snap.Dimensions, s.dims)
	}
	if len(snap.Vectors) != len(snap.IDs)*s.dims {
		return fmt.Errorf("%w: %d ids but %d floats", ErrSnapshotCorrupt, len(snap.IDs), len(snap.Vectors))
	}

	s.mu.Lock()
	s.ids = snap.IDs
	s.vectors = snap.Vectors
	s.mu.Unlock()
	return nil
}

// Swap persists a new snapshot and then replaces the in-memory index with
// it. If persistence fails the old index stays live.
func (s *Store) Swap(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("id count %d does not match vector count %d", len(ids), len(vectors))
	}

	flat := make([]float32, 0, len(vectors)*s.dims)
	for i, vec := range vectors {
		if len(vec) != s.dims {
			return fmt.Errorf("vector for %s has %d dimensions, want %d", ids[i], len(vec), s.dims)
		}
		flat = append(flat, vec...)
	}

	snap := &Snapshot{
		Dimensions: s.dims,
		IDs:        ids,
		Vectors:    flat,
	}
	if err := s.snapshots.Save(ctx, snap); err != nil {
		return fmt.Errorf("save index snapshot: %w", err)
	}

	s.mu.Lock()
	s.ids = ids
	s.vectors = flat
	s.mu.Unlock()
	return nil
}

// Search returns the k nearest neighbors of query by squared L2 distance,
// best first. Similarity is 1/(1+distance), so identical vectors score 1.0.
func (s *Store) Search(query []float32, k int) ([]Match, error) {
	if len(query) != s.dims {
		return nil, fmt.Errorf("query has %d dimensions, want %d", len(query), s.dims)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.ids) == 0 {
		return nil, ErrIndexEmpty
	}
	if k > len(s.ids) {
		k = len(s.ids)
	}

	matches := make([]Match, len(s.ids))
	for i := range s.ids {
		row := s.vectors[i*s.dims : (i+1)*s.dims]
		var dist float64
		for j, q := range query {
			d := float64(q) - float64(row[j])
			dist += d * d
		}
		matches[i] = Match{ID: s.ids[i], Similarity: 1 / (1 + dist)}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	return matches[:k], nil
}

// Size reports how many vectors the live index holds.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}
