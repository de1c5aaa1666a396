package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaykayes/lottery-script/internal/adapters/repository"
	"github.com/jaykayes/lottery-script/internal/domain/types"
)

func snapshot(runID, lotteryID string, minute int) *types.Snapshot {
	seed := uint64(7)
	return &types.Snapshot{
		RunID:     runID,
		LotteryID: lotteryID,
		CreatedAt: time.Date(2020, 2, 11, 16, minute, 0, 0, time.UTC),
		Seed:      &seed,
		Policy:    "exclude",
		Pools: []types.PoolResult{{
			Pool: "Snowscooter",
			Winners: []types.Winner{
				{Identity: "Alice", Items: []types.Item{{ID: 7, Name: "Freeride skis"}, {ID: 11, Name: "Sled"}}},
				{Identity: "Bob", Items: []types.Item{{ID: 11, Name: "Sled"}}},
			},
		}},
	}
}

// exerciseStore runs the behavior every backend shares.
func exerciseStore(t *testing.T, s repository.Store) {
	t.Helper()
	ctx := context.Background()

	first := snapshot("run-a", "2020-W07", 1)
	second := snapshot("run-b", "2020-W07", 2)
	other := snapshot("run-c", "2020-W08", 3)
	for _, snap := range []*types.Snapshot{first, second, other} {
		require.NoError(t, s.Save(ctx, snap))
	}

	got, err := s.Get(ctx, "run-a")
	require.NoError(t, err)
	assert.Equal(t, "2020-W07", got.LotteryID)
	assert.True(t, first.CreatedAt.Equal(got.CreatedAt))
	require.NotNil(t, got.Seed)
	assert.Equal(t, uint64(7), *got.Seed)
	assert.Equal(t, first.Pools, got.Pools)

	assert.ErrorIs(t, s.Save(ctx, snapshot("run-a", "2020-W09", 4)), repository.ErrExists)
	assert.ErrorIs(t, s.Save(ctx, snapshot("../evil", "2020-W07", 4)), repository.ErrInvalidID)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Get(ctx, "../run-a")
	assert.ErrorIs(t, err, repository.ErrInvalidID)

	sums, err := s.List(ctx, "2020-W07")
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, "run-b", sums[0].RunID)
	assert.Equal(t, "run-a", sums[1].RunID)
	assert.Equal(t, 2, sums[0].Winners)
	assert.Equal(t, 3, sums[0].Units)
	assert.True(t, second.CreatedAt.Equal(sums[0].CreatedAt))

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-c", all[0].RunID)

	none, err := s.List(ctx, "2019-W01")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore(t *testing.T) {
	s := repository.NewMemoryStore()
	exerciseStore(t, s)
	assert.Equal(t, repository.BackendMemory, s.Backend())

	got, err := s.Get(context.Background(), "run-a")
	require.NoError(t, err)
	got.Pools[0].Winners[0].Identity = "Mallory"
	again, err := s.Get(context.Background(), "run-a")
	require.NoError(t, err)
	assert.Equal(t, "Alice", again.Pools[0].Winners[0].Identity)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := repository.NewFileStore(dir)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)

	_, err = os.Stat(filepath.Join(dir, "2020-W07", "run-a.json"))
	assert.NoError(t, err)

	_, err = s.Get(context.Background(), "../run-a")
	assert.ErrorIs(t, err, repository.ErrInvalidID)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draws.db")
	s, err := repository.OpenSQL(context.Background(), repository.DialectSQLite, path)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
	assert.Equal(t, repository.BackendSQLite, s.Backend())

	// Reopening keeps the data and re-applies the schema.
	require.NoError(t, s.Close())
	s, err = repository.OpenSQL(context.Background(), repository.DialectSQLite, path)
	require.NoError(t, err)
	sums, err := s.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, sums, 3)
}

func TestMySQLStore(t *testing.T) {
	dsn := os.Getenv("HANDOUT_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("HANDOUT_TEST_MYSQL_DSN not set")
	}
	s, err := repository.OpenSQL(context.Background(), repository.DialectMySQL, dsn)
	require.NoError(t, err)
	defer s.Close()

	exerciseStore(t, s)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s := repository.NewRedisStore(client, "test")
	defer s.Close()

	exerciseStore(t, s)
	assert.True(t, mr.Exists("test:draw:run-a"))
	assert.Equal(t, repository.BackendRedis, s.Backend())
}

func TestRedisStore_FailedIndexLeavesNoBody(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := repository.NewRedisStore(client, "t")
	defer s.Close()
	ctx := context.Background()

	// A plain string where the lottery index lives makes ZADD fail inside EXEC.
	require.NoError(t, mr.Set("t:lottery:2020-W07", "oops"))

	err := s.Save(ctx, snapshot("run-a", "2020-W07", 1))
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrExists)
	assert.False(t, mr.Exists("t:draw:run-a"))
	_, err = s.Get(ctx, "run-a")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)

	mr.Del("t:lottery:2020-W07")
	require.NoError(t, s.Save(ctx, snapshot("run-a", "2020-W07", 1)))
	sums, err := s.List(ctx, "2020-W07")
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "run-a", sums[0].RunID)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := repository.Open(ctx, repository.BackendFile, repository.WithDir(t.TempDir()))
	require.NoError(t, err)
	assert.Equal(t, repository.BackendFile, s.Backend())

	s, err = repository.Open(ctx, repository.BackendSQLite, repository.WithPath(filepath.Join(t.TempDir(), "x.db")))
	require.NoError(t, err)
	assert.Equal(t, repository.BackendSQLite, s.Backend())
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = repository.Open(ctx, repository.BackendRedis, repository.WithRedisAddr(mr.Addr()), repository.WithKeyPrefix("h"))
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, snapshot("run-1", "2020-W07", 0)))
	assert.True(t, mr.Exists("h:draw:run-1"))
	require.NoError(t, s.Close())

	s, err = repository.Open(ctx, repository.BackendMemory)
	require.NoError(t, err)
	assert.Equal(t, repository.BackendMemory, s.Backend())

	_, err = repository.Open(ctx, "s3")
	assert.ErrorIs(t, err, repository.ErrUnknownBackend)
}
