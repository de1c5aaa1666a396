package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jaykayes/lottery-script/internal/domain/types"
)

// RedisStore keeps each snapshot as a JSON string and indexes runs in sorted
// sets scored by creation time in milliseconds.
//
// Keys:
//
//	<prefix>:draw:<run id>      snapshot JSON
//	<prefix>:runs               every run id
//	<prefix>:lottery:<lottery>  run ids of one lottery
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps a connected client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) drawKey(runID string) string { return s.prefix + ":draw:" + runID }

func (s *RedisStore) runsKey() string { return s.prefix + ":runs" }

func (s *RedisStore) lotteryKey(lotteryID string) string { return s.prefix + ":lottery:" + lotteryID }

// Save implements Store.Save. The body and both index entries are written
// in one transaction watched on the body key.
func (s *RedisStore) Save(ctx context.Context, snap *types.Snapshot) error {
	if err := checkIDs(snap); err != nil {
		return err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	key := s.drawKey(snap.RunID)
	member := redis.Z{Score: float64(snap.CreatedAt.UnixMilli()), Member: snap.RunID}
	execed := false
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrExists
		}
		execed = true
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, body, 0)
			p.ZAdd(ctx, s.runsKey(), member)
			p.ZAdd(ctx, s.lotteryKey(snap.LotteryID), member)
			return nil
		})
		return err
	}, key)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrExists), errors.Is(err, redis.TxFailedErr):
		return ErrExists
	case !execed:
		return err
	}

	// EXEC keeps the commands that succeeded; undo them so a retry can save.
	_, _ = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.ZRem(ctx, s.runsKey(), snap.RunID)
		p.ZRem(ctx, s.lotteryKey(snap.LotteryID), snap.RunID)
		return nil
	})
	return err
}

// Get implements Store.Get.
func (s *RedisStore) Get(ctx context.Context, runID string) (*types.Snapshot, error) {
	if err := checkRunID(runID); err != nil {
		return nil, err
	}
	body, err := s.client.Get(ctx, s.drawKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap types.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("draw %s: %w", runID, err)
	}
	return &snap, nil
}

// List implements Store.List from the sorted-set indexes. Index entries
// whose body is gone are skipped.
func (s *RedisStore) List(ctx context.Context, lotteryID string) ([]types.Summary, error) {
	key := s.runsKey()
	if lotteryID != "" {
		key = s.lotteryKey(lotteryID)
	}
	ids, err := s.client.ZRevRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	sums := make([]types.Summary, 0, len(ids))
	if len(ids) == 0 {
		return sums, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.drawKey(id)
	}
	bodies, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, b := range bodies {
		str, ok := b.(string)
		if !ok {
			continue
		}
		var snap types.Snapshot
		if err := json.Unmarshal([]byte(str), &snap); err != nil {
			return nil, fmt.Errorf("draw %s: %w", ids[i], err)
		}
		sums = append(sums, snap.Summary())
	}
	sortSummaries(sums)
	return sums, nil
}

// Backend implements Store.Backend.
func (s *RedisStore) Backend() string { return BackendRedis }

// Close implements Store.Close and closes the client.
func (s *RedisStore) Close() error { return s.client.Close() }
