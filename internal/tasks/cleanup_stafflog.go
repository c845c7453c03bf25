package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// StaffLogCleaner deletes staff log entries older than the retention window.
type StaffLogCleaner interface {
	DeleteOldEntries(retention time.Duration) (int64, error)
}

// CleanupStaffLogTask prunes staff audit entries past their retention period.
type CleanupStaffLogTask struct {
	RetentionDays int `json:"retention_days"`
}

// Config returns the queue configuration for staff log cleanup tasks.
func (t CleanupStaffLogTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "cleanup_staff_log",
		MaxAttempts: 3,
		Backoff:     5 * time.Minute,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// CleanupStaffLogProcessor creates a processor function for CleanupStaffLogTask.
func CleanupStaffLogProcessor(cleaner StaffLogCleaner) backlite.QueueProcessor[CleanupStaffLogTask] {
	return func(ctx context.Context, task CleanupStaffLogTask) error {
		if cleaner == nil {
			return fmt.Errorf("staff log cleaner not configured")
		}

		retentionDays := task.RetentionDays
		if retentionDays <= 0 {
			retentionDays = 90
		}
		retention := time.Duration(retentionDays) * 24 * time.Hour

		deleted, err := cleaner.DeleteOldEntries(retention)
		if err != nil {
			return fmt.Errorf("cleanup staff log: %w", err)
		}

		log.Printf("[TASK] Removed %d staff log entries older than %d days", deleted, retentionDays)
		return nil
	}
}

// NewCleanupStaffLogQueue creates a backlite queue for staff log cleanup.
func NewCleanupStaffLogQueue(cleaner StaffLogCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupStaffLogProcessor(cleaner))
}
