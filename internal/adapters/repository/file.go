package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/jaykayes/lottery-script/internal/domain/types"
)

const snapshotExt = ".json"

// FileStore writes one JSON file per run under <dir>/<lottery id>/.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save implements Store.Save. The file lands under the lottery directory.
func (s *FileStore) Save(_ context.Context, snap *types.Snapshot) error {
	if err := checkIDs(snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.find(snap.RunID); err == nil {
		return ErrExists
	}

	dir := filepath.Join(s.dir, snap.LotteryID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	// Readers never see a partial file.
	path := filepath.Join(dir, snap.RunID+snapshotExt)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Get implements Store.Get by searching every lottery directory for the run.
func (s *FileStore) Get(_ context.Context, runID string) (*types.Snapshot, error) {
	if err := checkRunID(runID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path, err := s.find(runID)
	if err != nil {
		return nil, err
	}
	return readSnapshot(path)
}

// List implements Store.List. An invalid lottery id matches no directory.
func (s *FileStore) List(_ context.Context, lotteryID string) ([]types.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pattern := filepath.Join(s.dir, "*", "*"+snapshotExt)
	if lotteryID != "" {
		if !validID.MatchString(lotteryID) {
			return []types.Summary{}, nil
		}
		pattern = filepath.Join(s.dir, lotteryID, "*"+snapshotExt)
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}

	sums := make([]types.Summary, 0, len(paths))
	for _, p := range paths {
		snap, err := readSnapshot(p)
		if err != nil {
			return nil, err
		}
		sums = append(sums, snap.Summary())
	}
	sortSummaries(sums)
	return sums, nil
}

// Backend implements Store.Backend.
func (s *FileStore) Backend() string { return BackendFile }

// Close implements Store.Close; there is nothing to release.
func (s *FileStore) Close() error { return nil }

// find must be called with s.mu held.
func (s *FileStore) find(runID string) (string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "*", runID+snapshotExt))
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", ErrNotFound
	}
	return paths[0], nil
}

func readSnapshot(path string) (*types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap types.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &snap, nil
}
