package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// OverdueFlagger marks open checkouts past their due date as late.
type OverdueFlagger interface {
	FlagOverdue() (int64, error)
}

// OverdueSweepTask flags all overdue checkouts in one pass. The sweep is
// idempotent, so overlapping runs are harmless.
type OverdueSweepTask struct {
	RequestedAt time.Time `json:"requested_at"`
}

// Config returns the queue configuration for overdue sweeps.
func (t OverdueSweepTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_sweep",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueSweepProcessor creates a processor function for OverdueSweepTask.
func OverdueSweepProcessor(flagger OverdueFlagger) backlite.QueueProcessor[OverdueSweepTask] {
	return func(ctx context.Context, task OverdueSweepTask) error {
		if flagger == nil {
			return fmt.Errorf("overdue flagger not configured")
		}

		flagged, err := flagger.FlagOverdue()
		if err != nil {
			return fmt.Errorf("overdue sweep: %w", err)
		}

		if flagged > 0 {
			log.Printf("[TASK] Flagged %d overdue checkouts", flagged)
		}
		return nil
	}
}

// NewOverdueSweepQueue creates a backlite queue for overdue sweeps.
func NewOverdueSweepQueue(flagger OverdueFlagger) backlite.Queue {
	return backlite.NewQueue(OverdueSweepProcessor(flagger))
}
