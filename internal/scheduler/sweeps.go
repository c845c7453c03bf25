// Package scheduler runs the periodic maintenance jobs: the overdue sweep
// that flags late checkouts and the staff log retention cleanup. Jobs are
// enqueued on the task queue rather than executed inline, so a slow run never
// blocks the cron loop.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/tasks"
)

// TaskEnqueuer is the slice of the task client the scheduler needs.
type TaskEnqueuer interface {
	Add(tasks ...backlite.Task) *backlite.TaskAddOp
}

// SweepScheduler triggers the overdue and cleanup sweeps on cron schedules.
type SweepScheduler struct {
	enqueuer TaskEnqueuer
	lending  config.Lending

	cron      *cron.Cron
	mu        sync.RWMutex
	isRunning bool
}

// NewSweepScheduler creates a scheduler for the configured lending sweeps.
func NewSweepScheduler(enqueuer TaskEnqueuer, lending config.Lending) *SweepScheduler {
	return &SweepScheduler{
		enqueuer: enqueuer,
		lending:  lending,
		cron: cron.New(cron.WithParser(
			cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the sweep jobs and begins the cron loop.
func (s *SweepScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if s.lending.OverdueSweep != "" {
		if _, err := s.cron.AddFunc(s.lending.OverdueSweep, s.enqueueOverdueSweep); err != nil {
			return fmt.Errorf("invalid overdue sweep schedule %q: %w", s.lending.OverdueSweep, err)
		}
	}

	if s.lending.CleanupSweep != "" {
		if _, err := s.cron.AddFunc(s.lending.CleanupSweep, s.enqueueStaffLogCleanup); err != nil {
			return fmt.Errorf("invalid cleanup sweep schedule %q: %w", s.lending.CleanupSweep, err)
		}
	}

	s.cron.Start()
	s.isRunning = true

	log.Printf("Sweep scheduler started (overdue: %q, cleanup: %q)",
		s.lending.OverdueSweep, s.lending.CleanupSweep)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop halts the cron loop and waits for in-flight jobs.
func (s *SweepScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.isRunning = false

	log.Printf("Sweep scheduler stopped")
}

// IsRunning reports whether the cron loop is active.
func (s *SweepScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// RunOverdueSweepNow enqueues an immediate overdue sweep.
func (s *SweepScheduler) RunOverdueSweepNow() error {
	_, err := s.enqueuer.Add(tasks.OverdueSweepTask{RequestedAt: time.Now()}).Save()
	return err
}

func (s *SweepScheduler) enqueueOverdueSweep() {
	if err := s.RunOverdueSweepNow(); err != nil {
		log.Printf("Failed to enqueue overdue sweep: %v", err)
	}
}

func (s *SweepScheduler) enqueueStaffLogCleanup() {
	retentionDays := int(s.lending.LogRetention / (24 * time.Hour))
	_, err := s.enqueuer.Add(tasks.CleanupStaffLogTask{RetentionDays: retentionDays}).Save()
	if err != nil {
		log.Printf("Failed to enqueue staff log cleanup: %v", err)
	}
}
