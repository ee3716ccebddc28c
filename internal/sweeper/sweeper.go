// Package sweeper expires circulation requests that stayed in the Requested
// state longer than the challenge window.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"library-circulation-backend/config"
	"library-circulation-backend/internal/circulation"
	"library-circulation-backend/internal/model"
)

// Expirer is the part of the engine the sweeper drives.
type Expirer interface {
	StaleRequests(ctx context.Context, window time.Duration) ([]model.CirculationRequest, error)
	ExpireRequest(ctx context.Context, requestID string) (*model.CirculationRequest, error)
}

// Result summarizes one sweep.
type Result struct {
	Expired int
	Skipped int
	Failed  int
}

// Service runs the expiry sweep periodically.
type Service struct {
	cfg    config.SweeperConfig
	window time.Duration
	engine Expirer
}

// NewService creates a sweeper expiring requests older than window.
func NewService(cfg config.SweeperConfig, window time.Duration, e Expirer) *Service {
	return &Service{cfg: cfg, window: window, engine: e}
}

// Run sweeps once immediately and then every configured interval until ctx
// is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled || s.window <= 0 {
		log.Println("Expiry sweeper is disabled. Not starting.")
		return
	}
	log.Printf("Starting expiry sweeper (window %s, interval %s)...", s.window, s.cfg.Interval)

	s.sweepAndLog(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Expiry sweeper shutting down.")
			return
		case <-timer.C:
			s.sweepAndLog(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Service) sweepAndLog(ctx context.Context) {
	res, err := s.SweepOnce(ctx)
	if err != nil {
		log.Printf("Expiry sweep failed: %v", err)
		return
	}
	if res.Expired+res.Skipped+res.Failed > 0 {
		log.Printf("Expiry sweep finished: expired=%d skipped=%d failed=%d", res.Expired, res.Skipped, res.Failed)
	}
}

// SweepOnce expires every request whose challenge window has elapsed.
// Requests that were issued or cancelled since they were listed are skipped.
func (s *Service) SweepOnce(ctx context.Context) (Result, error) {
	var res Result
	if s.window <= 0 {
		return res, nil
	}
	stale, err := s.engine.StaleRequests(ctx, s.window)
	if err != nil {
		return res, fmt.Errorf("failed to list stale requests: %w", err)
	}

	for _, r := range stale {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		_, err := s.engine.ExpireRequest(ctx, r.ID)
		switch {
		case err == nil:
			res.Expired++
		case errors.Is(err, circulation.ErrInvalidStateTransition):
			res.Skipped++
		default:
			res.Failed++
			log.Printf("Error expiring request %s: %v", r.ID, err)
		}
	}
	return res, nil
}
