package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/etc1dxt/internal/etc1"
	"github.com/cwbudde/etc1dxt/internal/simd"
	"github.com/cwbudde/etc1dxt/internal/store"
	"github.com/cwbudde/etc1dxt/internal/table"
)

// progressInterval throttles SSE progress events.
const progressInterval = 500 * time.Millisecond

// runJob generates the table for a job. If tableStore is not nil and the job
// asks for it, the finished table is saved as a store record.
func runJob(ctx context.Context, jm *JobManager, tableStore store.Store, jobID string) error {
	defer jm.releaseCancel(jobID)
	// Stream handlers send a snapshot first, so the cached event is not
	// needed once the final event is out
	defer jm.broadcaster.CleanupJob(jobID)

	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := job.Config.Validate(); err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	backend, err := simd.NormalizeBackend(job.Config.Backend)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	layout := job.Config.Layout()

	if err := ctx.Err(); err != nil {
		markJobCancelled(jm, jobID)
		return err
	}

	start := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
		j.Backend = backend.String()
		j.RowsTotal = etc1.NumIntensities * etc1.NumColor5
		j.StartTime = start
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job", "job_id", jobID, "backend", backend, "entries", layout.Len(), "workers", job.Config.Workers)

	progressDone := make(chan struct{})
	go monitorProgress(ctx, jm, jobID, progressDone)

	dst := make([]table.Solution, layout.Len())
	err = table.BuildParallelProgress(ctx, dst, layout, backend, job.Config.Workers, func(done, total int) {
		err := jm.UpdateJob(jobID, func(j *Job) {
			j.RowsDone = max(j.RowsDone, done)
		})
		if err != nil {
			slog.Warn("Failed to record job progress", "job_id", jobID, "error", err)
		}
	})
	close(progressDone)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID)
		} else {
			markJobFailed(jm, jobID, err)
		}
		return err
	}

	totalErr, maxErr := summarize(dst)

	var tableID string
	if job.Config.Save {
		if tableStore == nil {
			slog.Warn("Job requested save but no table store is configured", "job_id", jobID)
		} else {
			record := store.NewTableRecord(job.Config.Name, backend.String(), layout, dst, elapsed)
			if err := tableStore.SaveTable(record); err != nil {
				err = fmt.Errorf("failed to save table: %w", err)
				markJobFailed(jm, jobID, err)
				return err
			}
			tableID = record.ID
		}
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.RowsDone = j.RowsTotal
		j.Entries = len(dst)
		j.TotalErr = totalErr
		j.MaxErr = maxErr
		j.TableID = tableID
		j.EndTime = &endTime
		j.solutions = dst
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"entries", len(dst),
		"total_err", totalErr,
		"table_id", tableID,
	)

	broadcastJob(jm, jobID)
	return nil
}

// monitorProgress periodically broadcasts progress events during a build
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			broadcastJob(jm, jobID)
		}
	}
}

// broadcastJob sends the job's current state to its SSE subscribers.
func broadcastJob(jm *JobManager, jobID string) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}
	jm.broadcaster.Broadcast(progressEvent(job))
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	if updateErr := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	}); updateErr != nil {
		slog.Warn("Failed to record job state", "job_id", jobID, "state", StateFailed, "error", updateErr)
		return
	}
	slog.Error("Job failed", "job_id", jobID, "error", err)
	broadcastJob(jm, jobID)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	if err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	}); err != nil {
		slog.Warn("Failed to record job state", "job_id", jobID, "state", StateCancelled, "error", err)
		return
	}
	slog.Info("Job cancelled", "job_id", jobID)
	broadcastJob(jm, jobID)
}
