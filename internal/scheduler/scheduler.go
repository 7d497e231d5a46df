// Package scheduler implements C7: the daily soft-delete job and the
// ad-hoc clear-old operation. Job scheduling uses robfig/cron/v3, a
// named ecosystem dependency (see DESIGN.md — no full pack repo runs a
// cron job).
package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"memoryd/internal/metrics"
	"memoryd/internal/models"
	"memoryd/internal/store"
)

const (
	r1MinDaysSinceAccess = 7
	r1MaxEmotionalWeight = 0.5
	r1MaxImportance      = 5

	r2MinDaysSinceAccess = 30
	r2MaxAccessCount     = 3
	r2MaxImportance      = 5

	rollingCutoffMonths = 3
)

// decayingCategories are the only categories GC ever touches.
var decayingCategories = []models.MemoryCategory{models.CategoryEvent, models.CategoryDesire}

// CutoffDeleter is the persistence boundary GC depends on.
type CutoffDeleter interface {
	CutoffDelete(ctx context.Context, pred store.CutoffPredicate) (int64, error)
}

// GC runs the scheduled and ad-hoc garbage collection rules.
type GC struct {
	store   CutoffDeleter
	log     zerolog.Logger
	metrics metrics.Recorder
}

func NewGC(s CutoffDeleter, log zerolog.Logger) *GC {
	return &GC{store: s, log: log, metrics: metrics.NoopRecorder{}}
}

// WithMetrics attaches a metrics recorder; nil is replaced with a no-op.
func (g *GC) WithMetrics(rec metrics.Recorder) *GC {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	g.metrics = rec
	return g
}

// RunDaily applies R1 and R2 process-wide, each in its own transaction.
// Failure is logged, never propagated — it must not crash the
// scheduler.
func (g *GC) RunDaily(ctx context.Context) {
	weight := r1MaxEmotionalWeight
	importance := r1MaxImportance
	if n, err := g.store.CutoffDelete(ctx, store.CutoffPredicate{
		Categories:         decayingCategories,
		MinDaysSinceAccess: r1MinDaysSinceAccess,
		MaxEmotionalWeight: &weight,
		MaxImportance:      &importance,
	}); err != nil {
		g.log.Error().Err(err).Msg("gc: R1 short-term-trash pass failed")
	} else {
		g.log.Info().Int64("rows", n).Msg("gc: R1 short-term-trash pass complete")
		g.metrics.IncCounter(metrics.MemoriesSoftDeleted, map[string]string{"rule": "r1"})
	}

	accessCount := r2MaxAccessCount
	importance2 := r2MaxImportance
	if n, err := g.store.CutoffDelete(ctx, store.CutoffPredicate{
		Categories:         decayingCategories,
		MinDaysSinceAccess: r2MinDaysSinceAccess,
		MaxAccessCount:     &accessCount,
		MaxImportance:      &importance2,
	}); err != nil {
		g.log.Error().Err(err).Msg("gc: R2 cold-data pass failed")
	} else {
		g.log.Info().Int64("rows", n).Msg("gc: R2 cold-data pass complete")
		g.metrics.IncCounter(metrics.MemoriesGCPurged, map[string]string{"rule": "r2"})
	}
}

// RunRollingCutoff is C6's per-turn rolling 3-month soft-delete for
// (user, sid), using the same decaying-category scope as the daily job.
func (g *GC) RunRollingCutoff(ctx context.Context, userID, sid uuid.UUID) error {
	_, err := g.store.CutoffDelete(ctx, store.CutoffPredicate{
		UserID:              &userID,
		SystemInstructionID: &sid,
		Categories:          decayingCategories,
		MinDaysSinceAccess:  rollingCutoffMonths * 30,
	})
	return err
}

// ClearOld is the ad-hoc API-triggered cleanup with a user-chosen
// horizon (1-12 months) and optional system_instruction_id scoping.
func (g *GC) ClearOld(ctx context.Context, userID uuid.UUID, sid *uuid.UUID, months int) (int64, error) {
	if months < 1 {
		months = 1
	}
	if months > 12 {
		months = 12
	}
	return g.store.CutoffDelete(ctx, store.CutoffPredicate{
		UserID:              &userID,
		SystemInstructionID: sid,
		Categories:          decayingCategories,
		MinDaysSinceAccess:  float64(months) * 30,
	})
}

// Scheduler is the process-wide cron instance running the daily GC job
// at the configured time (default 03:00 local).
type Scheduler struct {
	cron *cron.Cron
	gc   *GC
	log  zerolog.Logger
}

func NewScheduler(gc *GC, log zerolog.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), gc: gc, log: log}
}

// Start registers the daily job per the configured cron expression and
// starts the scheduler's own goroutine.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.gc.RunDaily(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
