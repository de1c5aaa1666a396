// Package repository persists draw snapshots.
package repository

import (
	"context"
	"regexp"
	"sort"

	"github.com/jaykayes/lottery-script/internal/domain/types"
)

// Store provides read/write access to draw snapshots.
type Store interface {
	// Save stores a new snapshot. Returns ErrExists if the run id is taken.
	Save(ctx context.Context, snap *types.Snapshot) error

	// Get returns the snapshot of a run, or ErrNotFound. A malformed run id
	// is ErrInvalidID.
	Get(ctx context.Context, runID string) (*types.Snapshot, error)

	// List summarizes the runs of a lottery, newest first. An empty lottery
	// id lists every run.
	List(ctx context.Context, lotteryID string) ([]types.Summary, error)

	// Backend names the implementation for logs and metrics.
	Backend() string

	Close() error
}

var validID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,63}$`)

func checkIDs(snap *types.Snapshot) error {
	if snap == nil || !validID.MatchString(snap.RunID) || !validID.MatchString(snap.LotteryID) {
		return ErrInvalidID
	}
	return nil
}

func checkRunID(runID string) error {
	if !validID.MatchString(runID) {
		return ErrInvalidID
	}
	return nil
}

// sortSummaries orders newest first, then by run id.
func sortSummaries(sums []types.Summary) {
	sort.Slice(sums, func(i, j int) bool {
		if !sums[i].CreatedAt.Equal(sums[j].CreatedAt) {
			return sums[i].CreatedAt.After(sums[j].CreatedAt)
		}
		return sums[i].RunID < sums[j].RunID
	})
}
