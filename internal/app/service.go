// Package service runs draws end to end: demand, exclusive groups, the
// independent lottery, aggregation, ordering and the snapshot.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaykayes/lottery-script/internal/adapters/repository"
	"github.com/jaykayes/lottery-script/internal/domain/demand"
	"github.com/jaykayes/lottery-script/internal/domain/draw"
	"github.com/jaykayes/lottery-script/internal/domain/lottery"
	"github.com/jaykayes/lottery-script/internal/domain/model"
	"github.com/jaykayes/lottery-script/internal/domain/types"
	"github.com/jaykayes/lottery-script/internal/domain/winners"
	"github.com/jaykayes/lottery-script/pkg/logger"
	"github.com/jaykayes/lottery-script/pkg/metrics"
)

// Metric labels for the allocation passes.
const (
	passExclusive   = "exclusive"
	passDependent   = "dependent"
	passIndependent = "independent"
)

// Request is one draw. Applicants are expected to have passed intake.
type Request struct {
	// LotteryID names the lottery; empty means the ISO week of the clock.
	LotteryID  string
	Catalog    model.Catalog
	Applicants []model.Applicant
	// Pools fixes the output order. Catalog pools not listed follow in
	// ascending order; a repeated or unknown pool rejects the request.
	Pools []model.Pool
	// Seed overrides the service seed for this draw.
	Seed *uint64
	// Policy overrides the service dependent policy by name.
	Policy string
}

// PoolStats describes one pool's run.
type PoolStats struct {
	Pool     model.Pool
	Winners  int
	Units    int
	Excluded int
	Outcomes []lottery.Outcome
}

// Result is a finished draw.
type Result struct {
	Snapshot *types.Snapshot
	Winners  model.PoolWinners
	Demand   demand.Stats
	Pools    []PoolStats
}

// Service draws lotteries. Draws are serialized so the shared sampler is
// never used concurrently.
type Service struct {
	mu sync.Mutex

	logger  logger.Logger
	store   repository.Store
	sampler draw.Sampler
	seed    *uint64
	policy  lottery.DependentPolicy
	now     func() time.Time
	newID   func() string

	draws   int
	lastRun string
}

// New constructs a Service. Without options draws are unseeded, dependents
// are excluded and nothing is persisted.
func New(opts ...Option) *Service {
	s := &Service{
		policy: lottery.ExcludeDependents{},
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Nop()
	}
	if s.sampler == nil {
		s.sampler = draw.New()
	}
	return s
}

// Draw runs a lottery. When the snapshot cannot be saved the result is still
// returned, together with an error wrapping ErrSnapshot.
func (s *Service) Draw(ctx context.Context, req Request) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	began := time.Now()
	res, err := s.draw(ctx, req, s.now())
	took := time.Since(began)
	metrics.RecordDrawDuration(float64(took.Microseconds()) / 1000)
	if err != nil && res == nil {
		metrics.RecordDraw("failed")
		s.logger.Warn(ctx, "draw rejected", logger.Error(err))
		return nil, err
	}
	metrics.RecordDraw("ok")
	s.draws++
	s.lastRun = res.Snapshot.RunID
	s.logger.Info(ctx, "draw finished",
		logger.String("run", res.Snapshot.RunID),
		logger.Duration("took", took),
	)
	return res, err
}

func (s *Service) draw(ctx context.Context, req Request, start time.Time) (*Result, error) {
	if len(req.Catalog) == 0 {
		return nil, fmt.Errorf("%w: empty catalog", ErrInvalidRequest)
	}
	if err := req.Catalog.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	policy := s.policy
	if req.Policy != "" {
		p, err := lottery.PolicyByName(req.Policy)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		policy = p
	}

	seed := s.seed
	if req.Seed != nil {
		seed = req.Seed
	}
	sampler := s.sampler
	if seed != nil {
		sampler = draw.New(draw.WithSeed(*seed))
	}

	lotteryID := req.LotteryID
	if lotteryID == "" {
		year, week := start.ISOWeek()
		lotteryID = fmt.Sprintf("%d-W%02d", year, week)
	}
	pools, err := poolOrder(req.Pools, req.Catalog)
	if err != nil {
		return nil, err
	}

	log := s.logger.Named("draw")
	log.Info(ctx, "draw started",
		logger.String("lottery", lotteryID),
		logger.Int("items", len(req.Catalog)),
		logger.Int("applicants", len(req.Applicants)),
		logger.String("policy", policy.Name()),
		logger.Bool("seeded", seed != nil),
	)

	demandMaps, stats := demand.Build(req.Applicants, req.Catalog)
	metrics.AddRequestsDropped("unknown_item", stats.Unknown)
	metrics.AddRequestsDuplicate(stats.Duplicates)
	if stats.Ineligible > 0 {
		log.Debug(ctx, "ineligible applicants skipped", logger.Int("count", stats.Ineligible))
	}

	res := &Result{Winners: make(model.PoolWinners, len(pools)), Demand: stats}
	snap := &types.Snapshot{
		RunID:     s.newID(),
		LotteryID: lotteryID,
		CreatedAt: start.UTC(),
		Seed:      seed,
		Policy:    policy.Name(),
		Pools:     make([]types.PoolResult, 0, len(pools)),
	}

	groups := req.Catalog.Groups()
	for _, pool := range pools {
		dm := demandMaps[pool]
		if dm == nil {
			dm = model.DemandMap{}
		}
		agg, ps := s.drawPool(pool, dm, groups, req.Catalog, sampler, policy)
		entries := winners.Order(agg)

		res.Winners[pool] = agg
		res.Pools = append(res.Pools, ps)
		snap.Pools = append(snap.Pools, types.NewPoolResult(pool, entries, req.Catalog))

		metrics.AddWinners(string(pool), ps.Winners)
		metrics.AddGroupExclusions(ps.Excluded)
		log.Info(ctx, "pool drawn",
			logger.String("pool", string(pool)),
			logger.Int("winners", ps.Winners),
			logger.Int("units", ps.Units),
			logger.Int("excluded", ps.Excluded),
		)
	}
	res.Snapshot = snap

	if s.store != nil {
		if err := s.store.Save(ctx, snap); err != nil {
			metrics.RecordSnapshotError(s.store.Backend(), "save")
			log.Error(ctx, "snapshot not saved", logger.String("run", snap.RunID), logger.Error(err))
			return res, fmt.Errorf("%w: %w", ErrSnapshot, err)
		}
		metrics.RecordSnapshotSave(s.store.Backend())
	}
	return res, nil
}

// poolOrder returns every catalog pool exactly once, listed ones first. Each
// pool is drawn once against its demand map.
func poolOrder(listed []model.Pool, catalog model.Catalog) ([]model.Pool, error) {
	known := catalog.Pools()
	inCatalog := make(map[model.Pool]bool, len(known))
	for _, p := range known {
		inCatalog[p] = true
	}
	seen := make(map[model.Pool]bool, len(known))
	pools := make([]model.Pool, 0, len(known))
	for _, p := range listed {
		if !inCatalog[p] {
			return nil, fmt.Errorf("%w: unknown pool %q", ErrInvalidRequest, p)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: pool %q listed twice", ErrInvalidRequest, p)
		}
		seen[p] = true
		pools = append(pools, p)
	}
	for _, p := range known {
		if !seen[p] {
			pools = append(pools, p)
		}
	}
	return pools, nil
}

// drawPool runs the exclusive groups of one pool, then the independent
// lottery on what is left, and merges the winner maps.
func (s *Service) drawPool(pool model.Pool, dm model.DemandMap, groups []model.Group, catalog model.Catalog, sampler draw.Sampler, policy lottery.DependentPolicy) (model.AggregatedWinners, PoolStats) {
	ps := PoolStats{Pool: pool}
	var primaries, dependents []model.WinnerMap

	for _, g := range groups {
		if g.Pool != pool {
			continue
		}
		ex := lottery.AllocateExclusive(g, dm, catalog, sampler, policy)
		primaries = append(primaries, ex.Primary)
		dependents = append(dependents, ex.Dependent)
		ps.Excluded += ex.Excluded
		ps.Outcomes = append(ps.Outcomes, ex.Outcomes...)

		for _, out := range ex.Outcomes {
			pass := passExclusive
			if catalog[out.Item].Group.Kind == model.GroupDependent {
				pass = passDependent
			}
			metrics.RecordItemDrawn(pass, out.Oversubscribed)
		}
	}

	independent, outcomes := lottery.AllocateWithOutcomes(dm, catalog, sampler)
	ps.Outcomes = append(ps.Outcomes, outcomes...)
	for _, out := range outcomes {
		metrics.RecordItemDrawn(passIndependent, out.Oversubscribed)
	}

	maps := make([]model.WinnerMap, 0, 1+len(dependents)+len(primaries))
	maps = append(maps, independent)
	maps = append(maps, dependents...)
	maps = append(maps, primaries...)
	agg := winners.Aggregate(maps...)

	ps.Winners, ps.Units = winners.Count(agg)
	return agg, ps
}

// Get returns a stored draw.
func (s *Service) Get(ctx context.Context, runID string) (*types.Snapshot, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	snap, err := s.store.Get(ctx, runID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		metrics.RecordSnapshotError(s.store.Backend(), "get")
	}
	return snap, err
}

// List summarizes the stored draws of a lottery; empty means all.
func (s *Service) List(ctx context.Context, lotteryID string) ([]types.Summary, error) {
	if s.store == nil {
		return nil, ErrNoStore
	}
	sums, err := s.store.List(ctx, lotteryID)
	if err != nil {
		metrics.RecordSnapshotError(s.store.Backend(), "list")
	}
	return sums, err
}

// Stats reports what the service has done since it started.
func (s *Service) Stats() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	backend := "none"
	if s.store != nil {
		backend = s.store.Backend()
	}
	return map[string]any{
		"draws":    s.draws,
		"last_run": s.lastRun,
		"policy":   s.policy.Name(),
		"seeded":   s.seed != nil,
		"store":    backend,
	}
}

// Close releases the store.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
