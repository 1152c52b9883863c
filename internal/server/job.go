package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/etc1dxt/internal/simd"
	"github.com/cwbudde/etc1dxt/internal/table"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// maxJobCombinations caps ranges x mappings per job, four times the default
// 6 x 10 layout. Each combination costs 256 table entries plus a full search.
const maxJobCombinations = 4 * 6 * 10

// JobConfig describes one table generation request. Empty selector tables
// select the default layout; an empty backend selects the active one.
type JobConfig struct {
	Backend  string                  `json:"backend,omitempty"`
	Workers  int                     `json:"workers,omitempty"`
	Name     string                  `json:"name,omitempty"`
	Save     bool                    `json:"save,omitempty"`
	Ranges   []table.SelectorRange   `json:"ranges,omitempty"`
	Mappings []table.SelectorMapping `json:"mappings,omitempty"`
}

// Layout returns the requested layout, filling empty tables from the default.
func (c JobConfig) Layout() table.Layout {
	layout := table.DefaultLayout()
	if len(c.Ranges) > 0 {
		layout.Ranges = c.Ranges
	}
	if len(c.Mappings) > 0 {
		layout.Mappings = c.Mappings
	}
	return layout
}

// Validate checks the backend name, worker count and layout.
func (c JobConfig) Validate() error {
	if _, err := simd.NormalizeBackend(c.Backend); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	layout := c.Layout()
	if n := len(layout.Ranges) * len(layout.Mappings); n > maxJobCombinations {
		return fmt.Errorf("%d ranges x %d mappings exceeds the limit of %d combinations",
			len(layout.Ranges), len(layout.Mappings), maxJobCombinations)
	}
	return layout.Validate()
}

// Job represents a table generation job
type Job struct {
	ID        string     `json:"id"`
	State     JobState   `json:"state"`
	Config    JobConfig  `json:"config"`
	Backend   string     `json:"backend,omitempty"`
	RowsDone  int        `json:"rowsDone"`
	RowsTotal int        `json:"rowsTotal"`
	Entries   int        `json:"entries"`
	TotalErr  uint64     `json:"totalErr"`
	MaxErr    uint16     `json:"maxErr"`
	TableID   string     `json:"tableId,omitempty"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Error     string     `json:"error,omitempty"`

	// solutions is set once the job completes and is read-only afterwards
	solutions []table.Solution
}

// Elapsed is the run time so far, or the total once the job has ended.
func (j *Job) Elapsed() time.Duration {
	if j.EndTime != nil {
		return j.EndTime.Sub(j.StartTime)
	}
	return time.Since(j.StartTime)
}

// JobManager manages the lifecycle of jobs. Getters return copies, so
// callers never observe a job while a worker updates it.
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	cancels     map[string]context.CancelFunc
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		cancels:     make(map[string]context.CancelFunc),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob creates a new job with the given configuration
func (jm *JobManager) CreateJob(config JobConfig) *Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    config,
		StartTime: time.Now(),
	}

	jm.jobs[job.ID] = job
	cp := *job
	return &cp
}

// GetJob retrieves a snapshot of a job by ID
func (jm *JobManager) GetJob(id string) (*Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return nil, false
	}
	cp := *job
	return &cp, true
}

// ListJobs returns snapshots of all jobs, oldest first
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		cp := *job
		jobs = append(jobs, &cp)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].StartTime.Before(jobs[j].StartTime)
	})
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	runningJobs := make([]*Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			cp := *job
			runningJobs = append(runningJobs, &cp)
		}
	}
	return runningJobs
}

// setCancel registers the function that stops a job's worker.
func (jm *JobManager) setCancel(id string, cancel context.CancelFunc) {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	jm.cancels[id] = cancel
}

// releaseCancel drops and calls a job's cancel function once it has ended.
func (jm *JobManager) releaseCancel(id string) {
	jm.mu.Lock()
	cancel := jm.cancels[id]
	delete(jm.cancels, id)
	jm.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// CancelJob stops a pending or running job. It reports false when the job
// does not exist or has already ended.
func (jm *JobManager) CancelJob(id string) bool {
	jm.mu.RLock()
	cancel, ok := jm.cancels[id]
	jm.mu.RUnlock()

	if !ok {
		return false
	}
	cancel()
	return true
}
