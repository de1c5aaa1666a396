package service

import (
	"time"

	"github.com/jaykayes/lottery-script/internal/adapters/repository"
	"github.com/jaykayes/lottery-script/internal/domain/draw"
	"github.com/jaykayes/lottery-script/internal/domain/lottery"
	"github.com/jaykayes/lottery-script/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore persists every draw. Without a store draws are not kept.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithSeed makes every draw start from the same seed unless the request
// carries its own.
func WithSeed(seed uint64) Option {
	return func(s *Service) {
		s.seed = &seed
	}
}

// WithSampler replaces the unseeded sampler used when no seed is set.
func WithSampler(sampler draw.Sampler) Option {
	return func(s *Service) {
		if sampler != nil {
			s.sampler = sampler
		}
	}
}

// WithPolicy sets the default dependent-item policy.
func WithPolicy(policy lottery.DependentPolicy) Option {
	return func(s *Service) {
		if policy != nil {
			s.policy = policy
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the run id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}
