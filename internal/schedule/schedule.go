// Package schedule runs recurring analysis sweeps on a cron cadence.
package schedule

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/filippefrulli/ranklens-sub000/internal/analysis"
	"github.com/filippefrulli/ranklens-sub000/internal/model"
	"github.com/filippefrulli/ranklens-sub000/internal/store"
)

// Starter launches an analysis run for one business.
type Starter interface {
	Start(ctx context.Context, businessID string) (*analysis.RunHandle, error)
}

// Scheduler triggers an analysis run for every business on each cron tick.
// A business that still has a run in flight is skipped for that tick.
type Scheduler struct {
	store   store.Store
	starter Starter
	spec    string

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// New builds a scheduler for the given cron spec (standard five-field form).
func New(st store.Store, starter Starter, spec string) *Scheduler {
	return &Scheduler{store: st, starter: starter, spec: spec, cron: cron.New()}
}

// Start validates the cron expression and begins ticking. It returns immediately; runs
// fire on the cron's own goroutine.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return eris.New("schedule: already running")
	}

	_, err := s.cron.AddFunc(s.spec, func() { s.Tick(ctx) })
	if err != nil {
		return eris.Wrapf(err, "schedule: invalid cron spec %q", s.spec)
	}

	s.cron.Start()
	s.running = true
	zap.L().Info("scheduler started", zap.String("cron", s.spec))
	return nil
}

// Stop halts the cron. Runs already launched keep going on their own.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	zap.L().Info("scheduler stopped")
}

// Tick sweeps all businesses once, starting a run for each one that is idle.
// It returns the number of runs launched.
func (s *Scheduler) Tick(ctx context.Context) int {
	businesses, err := s.store.ListBusinesses(ctx)
	if err != nil {
		zap.L().Error("scheduler: list businesses", zap.Error(err))
		return 0
	}

	launched := 0
	for _, b := range businesses {
		busy, err := s.hasActiveRun(ctx, b.ID)
		if err != nil {
			zap.L().Error("scheduler: check active runs",
				zap.String("business_id", b.ID), zap.Error(err))
			continue
		}
		if busy {
			zap.L().Info("scheduler: run already in flight, skipping",
				zap.String("business_id", b.ID))
			continue
		}

		handle, err := s.starter.Start(ctx, b.ID)
		if err != nil {
			zap.L().Error("scheduler: start run",
				zap.String("business_id", b.ID), zap.Error(err))
			continue
		}
		zap.L().Info("scheduler: run started",
			zap.String("business_id", b.ID), zap.String("run_id", handle.RunID))
		launched++
	}
	return launched
}

func (s *Scheduler) hasActiveRun(ctx context.Context, businessID string) (bool, error) {
	for _, status := range []model.RunStatus{model.RunStatusPending, model.RunStatusRunning} {
		runs, err := s.store.ListRuns(ctx, store.RunFilter{
			BusinessID: businessID, Status: status, Limit: 1,
		})
		if err != nil {
			return false, err
		}
		if len(runs) > 0 {
			return true, nil
		}
	}
	return false, nil
}
