// package jobs tracks the single in-flight generation job.
//
// At most one job exists at a time; starting a new one replaces the old
// unconditionally (last-write-wins). Every mutation is persisted so a
// restart restores the in-flight job instead of losing track of it.
package jobs

import (
	"sync"
	"time"

	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/repositories"
	"github.com/chapgen/cli/internal/shared"
	"github.com/charmbracelet/log"
)

// Tracker holds the active job record and notifies subscribers on change.
type Tracker struct {
	mu  sync.RWMutex
	job *models.Job

	state  *repositories.StateRepository
	logger *log.Logger

	subMu   sync.Mutex
	subs    map[int]func(*models.Job)
	nextSub int
}

// NewTracker creates a tracker and restores any persisted job. state may be
// nil for an in-memory-only tracker (used in tests).
func NewTracker(state *repositories.StateRepository, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	t := &Tracker{
		state:  state,
		logger: logger,
		subs:   map[int]func(*models.Job){},
	}

	if state != nil {
		job, err := state.LoadJob()
		if err != nil {
			logger.Warnf("failed to restore job: %v", err)
		} else if job != nil {
			t.job = job
			logger.Infof("restored in-flight job %s (%s)", job.JobID, job.Status)
		}
	}

	return t
}

// Get returns a copy of the tracked job, or nil when none is active.
func (t *Tracker) Get() *models.Job {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.job == nil {
		return nil
	}
	job := *t.job
	return &job
}

// Start creates and persists a new job record, replacing any prior job
// unconditionally. A zero status defaults to queued, a zero CreatedAt to now.
func (t *Tracker) Start(job models.Job) {
	if job.Status == "" {
		job.Status = models.StatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	t.mu.Lock()
	t.job = &job
	t.mu.Unlock()

	t.persist(&job)
	t.notify()
}

// UpdateStatus mutates the current job's status only when jobID matches the
// tracked job. A mismatch is a silent no-op, which shields the tracker from
// delayed messages belonging to a superseded job. Returns whether the update
// applied.
func (t *Tracker) UpdateStatus(jobID string, status models.Status) bool {
	t.mu.Lock()
	if t.job == nil || t.job.JobID != jobID {
		t.mu.Unlock()
		return false
	}
	t.job.Status = status
	updated := *t.job
	t.mu.Unlock()

	t.persist(&updated)
	t.notify()
	return true
}

// Clear removes the job and its persisted record.
func (t *Tracker) Clear() {
	t.mu.Lock()
	cleared := t.job != nil
	t.job = nil
	t.mu.Unlock()

	if t.state != nil {
		if err := t.state.DeleteJob(); err != nil {
			t.logger.Warnf("failed to delete persisted job: %v", err)
		}
	}

	if cleared {
		t.notify()
	}
}

// Subscribe registers fn to be called with the tracked job (or nil) after
// every mutation. Returns an unsubscribe function.
func (t *Tracker) Subscribe(fn func(*models.Job)) func() {
	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.subMu.Unlock()

	return func() {
		t.subMu.Lock()
		delete(t.subs, id)
		t.subMu.Unlock()
	}
}

func (t *Tracker) persist(job *models.Job) {
	if t.state == nil {
		return
	}
	if err := t.state.SaveJob(*job); err != nil {
		t.logger.Warnf("failed to persist job: %v", err)
	}
}

func (t *Tracker) notify() {
	current := t.Get()

	t.subMu.Lock()
	fns := make([]func(*models.Job), 0, len(t.subs))
	for _, fn := range t.subs {
		fns = append(fns, fn)
	}
	t.subMu.Unlock()

	for _, fn := range fns {
		fn(current)
	}
}
