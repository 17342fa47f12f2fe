package jobs

import (
	"testing"
	"time"

	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/repositories"
	tu "github.com/chapgen/cli/internal/testing"
)

func TestTracker(t *testing.T) {
	t.Run("Get returns nil with no job", func(t *testing.T) {
		tracker := NewTracker(nil, nil)

		if job := tracker.Get(); job != nil {
			t.Errorf("expected nil, got %+v", job)
		}
	})

	t.Run("Start defaults status and creation time", func(t *testing.T) {
		tracker := NewTracker(nil, nil)

		tracker.Start(models.Job{JobID: "job-1", VideoID: "vid-1", Mode: models.ModeLatest})

		job := tracker.Get()
		if job == nil {
			t.Fatal("expected a job")
		}
		if job.Status != models.StatusQueued {
			t.Errorf("expected queued default, got %s", job.Status)
		}
		if job.CreatedAt.IsZero() {
			t.Error("expected CreatedAt to be set")
		}
	})

	t.Run("Start keeps an explicit status", func(t *testing.T) {
		tracker := NewTracker(nil, nil)

		tracker.Start(models.Job{JobID: "job-1", Status: models.StatusProcessing})

		if got := tracker.Get().Status; got != models.StatusProcessing {
			t.Errorf("expected processing, got %s", got)
		}
	})

	t.Run("Start replaces the prior job unconditionally", func(t *testing.T) {
		tracker := NewTracker(nil, nil)

		tracker.Start(models.Job{JobID: "old", Mode: models.ModeLatest})
		tracker.Start(models.Job{JobID: "new", Mode: models.ModeManual})

		job := tracker.Get()
		if job.JobID != "new" || job.Mode != models.ModeManual {
			t.Errorf("expected the new job, got %+v", job)
		}
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.Start(models.Job{JobID: "job-1"})

		first := tracker.Get()
		first.Status = models.StatusFailed

		if tracker.Get().Status == models.StatusFailed {
			t.Error("mutating the returned job leaked into the tracker")
		}
	})
}

func TestUpdateStatus(t *testing.T) {
	t.Run("applies on a matching job id", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.Start(models.Job{JobID: "job-1"})

		if !tracker.UpdateStatus("job-1", models.StatusProcessing) {
			t.Fatal("expected update to apply")
		}
		if got := tracker.Get().Status; got != models.StatusProcessing {
			t.Errorf("expected processing, got %s", got)
		}
	})

	t.Run("mismatched job id is a silent no-op", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.Start(models.Job{JobID: "job-1", Status: models.StatusQueued})

		if tracker.UpdateStatus("other", models.StatusFailed) {
			t.Fatal("expected update to be rejected")
		}
		if got := tracker.Get().Status; got != models.StatusQueued {
			t.Errorf("status changed on mismatch: %s", got)
		}
	})

	t.Run("no-op with no tracked job", func(t *testing.T) {
		tracker := NewTracker(nil, nil)

		if tracker.UpdateStatus("job-1", models.StatusCompleted) {
			t.Error("expected update to be rejected")
		}
	})
}

func TestClear(t *testing.T) {
	t.Run("removes the job", func(t *testing.T) {
		tracker := NewTracker(nil, nil)
		tracker.Start(models.Job{JobID: "job-1"})

		tracker.Clear()

		if tracker.Get() != nil {
			t.Error("expected no job after clear")
		}
	})

	t.Run("notifies only when a job was present", func(t *testing.T) {
		tracker := NewTracker(nil, nil)

		calls := 0
		unsub := tracker.Subscribe(func(job *models.Job) { calls++ })
		defer unsub()

		tracker.Clear()
		if calls != 0 {
			t.Errorf("expected no notification on empty clear, got %d", calls)
		}

		tracker.Start(models.Job{JobID: "job-1"})
		tracker.Clear()
		if calls != 2 {
			t.Errorf("expected start+clear notifications, got %d", calls)
		}
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("receives every mutation", func(t *testing.T) {
		tracker := NewTracker(nil, nil)

		var seen []*models.Job
		unsub := tracker.Subscribe(func(job *models.Job) {
			seen = append(seen, job)
		})
		defer unsub()

		tracker.Start(models.Job{JobID: "job-1"})
		tracker.UpdateStatus("job-1", models.StatusProcessing)
		tracker.Clear()

		if len(seen) != 3 {
			t.Fatalf("expected 3 notifications, got %d", len(seen))
		}
		if seen[0] == nil || seen[0].Status != models.StatusQueued {
			t.Errorf("unexpected first notification: %+v", seen[0])
		}
		if seen[1] == nil || seen[1].Status != models.StatusProcessing {
			t.Errorf("unexpected second notification: %+v", seen[1])
		}
		if seen[2] != nil {
			t.Errorf("expected nil on clear, got %+v", seen[2])
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		tracker := NewTracker(nil, nil)

		calls := 0
		unsub := tracker.Subscribe(func(job *models.Job) { calls++ })
		unsub()

		tracker.Start(models.Job{JobID: "job-1"})
		if calls != 0 {
			t.Errorf("expected no calls after unsubscribe, got %d", calls)
		}
	})
}

func TestPersistence(t *testing.T) {
	t.Run("restores the persisted job on construction", func(t *testing.T) {
		db := tu.NewTestDB(t)
		state := repositories.NewStateRepository(db)

		first := NewTracker(state, nil)
		first.Start(models.Job{
			JobID:     "job-1",
			VideoID:   "vid-1",
			Mode:      models.ModeManual,
			Status:    models.StatusProcessing,
			CreatedAt: time.Now(),
		})

		second := NewTracker(state, nil)
		job := second.Get()
		if job == nil {
			t.Fatal("expected the job to be restored")
		}
		if job.JobID != "job-1" || job.Status != models.StatusProcessing {
			t.Errorf("unexpected restored job: %+v", job)
		}
	})

	t.Run("status updates survive a restart", func(t *testing.T) {
		db := tu.NewTestDB(t)
		state := repositories.NewStateRepository(db)

		first := NewTracker(state, nil)
		first.Start(models.Job{JobID: "job-1"})
		first.UpdateStatus("job-1", models.StatusProcessing)

		second := NewTracker(state, nil)
		if got := second.Get().Status; got != models.StatusProcessing {
			t.Errorf("expected processing after restart, got %s", got)
		}
	})

	t.Run("clear removes the persisted record", func(t *testing.T) {
		db := tu.NewTestDB(t)
		state := repositories.NewStateRepository(db)

		first := NewTracker(state, nil)
		first.Start(models.Job{JobID: "job-1"})
		first.Clear()

		second := NewTracker(state, nil)
		if second.Get() != nil {
			t.Error("expected no job after clear and restart")
		}
	})
}
