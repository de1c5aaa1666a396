package repository

import (
	"context"
	"sync"

	"github.com/jaykayes/lottery-script/internal/domain/types"
)

// MemoryStore keeps snapshots for the life of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*types.Snapshot
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*types.Snapshot)}
}

// Save implements Store.Save. The snapshot is copied.
func (s *MemoryStore) Save(_ context.Context, snap *types.Snapshot) error {
	if err := checkIDs(snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[snap.RunID]; ok {
		return ErrExists
	}
	s.runs[snap.RunID] = clone(snap)
	return nil
}

// Get implements Store.Get and returns a copy the caller may modify.
func (s *MemoryStore) Get(_ context.Context, runID string) (*types.Snapshot, error) {
	if err := checkRunID(runID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.runs[runID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(snap), nil
}

// List implements Store.List.
func (s *MemoryStore) List(_ context.Context, lotteryID string) ([]types.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sums := make([]types.Summary, 0, len(s.runs))
	for _, snap := range s.runs {
		if lotteryID == "" || snap.LotteryID == lotteryID {
			sums = append(sums, snap.Summary())
		}
	}
	sortSummaries(sums)
	return sums, nil
}

// Backend implements Store.Backend.
func (s *MemoryStore) Backend() string { return BackendMemory }

// Close implements Store.Close.
func (s *MemoryStore) Close() error { return nil }

func clone(snap *types.Snapshot) *types.Snapshot {
	out := *snap
	if snap.Seed != nil {
		seed := *snap.Seed
		out.Seed = &seed
	}
	out.Pools = make([]types.PoolResult, len(snap.Pools))
	for i, p := range snap.Pools {
		winners := make([]types.Winner, len(p.Winners))
		for j, w := range p.Winners {
			winners[j] = types.Winner{Identity: w.Identity, Items: append([]types.Item(nil), w.Items...)}
		}
		out.Pools[i] = types.PoolResult{Pool: p.Pool, Winners: winners}
	}
	return &out
}
