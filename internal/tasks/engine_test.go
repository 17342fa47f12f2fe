package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/chapgen/cli/internal/jobs"
	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/services"
	"github.com/chapgen/cli/internal/session"
	"github.com/chapgen/cli/internal/shared"
)

// engineFixture wires an engine against fake YouTube and backend servers.
type engineFixture struct {
	engine  *GenerateEngine
	session *session.Store
	tracker *jobs.Tracker

	mu          sync.Mutex
	submissions []services.GenerationRequest
	reject      bool
	youtubeHits int
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	f := &engineFixture{}

	userinfo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"Creator","email":"creator@example.com"}`)
	}))
	t.Cleanup(userinfo.Close)

	youtube := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.youtubeHits++
		f.mu.Unlock()

		switch r.URL.Path {
		case "/channels":
			fmt.Fprint(w, `{"items":[{"contentDetails":{"relatedPlaylists":{"uploads":"UUabc"}}}]}`)
		case "/playlistItems":
			fmt.Fprint(w, `{"items":[{"contentDetails":{"videoId":"vid-9"}}]}`)
		case "/videos":
			id := r.URL.Query().Get("id")
			fmt.Fprintf(w, `{"items":[{"id":"%s","snippet":{"title":"Video","description":"desc"}}]}`, id)
		default:
			t.Errorf("unexpected YouTube path %s", r.URL.Path)
		}
	}))
	t.Cleanup(youtube.Close)

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var genReq services.GenerationRequest
		json.NewDecoder(r.Body).Decode(&genReq)

		f.mu.Lock()
		f.submissions = append(f.submissions, genReq)
		reject := f.reject
		f.mu.Unlock()

		if reject {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"status":"error","message":"video too long"}`)
			return
		}

		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"status":"accepted","job_id":"job-1"}`)
	}))
	t.Cleanup(backend.Close)

	f.session = session.NewStore(nil, nil, userinfo.URL, nil)
	f.tracker = jobs.NewTracker(nil, nil)
	f.engine = NewGenerateEngine(
		f.session,
		services.NewYouTubeService(youtube.URL, nil, 0),
		services.NewBackendService(backend.URL, nil),
		f.tracker,
		func() models.Preferences { return models.Preferences{Creativity: 1, Threshold: 2} },
	)

	return f
}

func (f *engineFixture) signIn(t *testing.T) {
	t.Helper()
	if err := f.session.SetToken(context.Background(), "tok"); err != nil {
		t.Fatalf("sign-in failed: %v", err)
	}
}

func (f *engineFixture) submitted() []services.GenerationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submissions
}

func drain(progress chan ProgressUpdate) []ProgressUpdate {
	close(progress)
	var updates []ProgressUpdate
	for update := range progress {
		updates = append(updates, update)
	}
	return updates
}

func TestLatest(t *testing.T) {
	t.Run("resolves the chain and starts the job", func(t *testing.T) {
		f := newEngineFixture(t)
		f.signIn(t)

		progress := make(chan ProgressUpdate, 16)
		job, err := f.engine.Latest(context.Background(), progress)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if job.JobID != "job-1" || job.Mode != models.ModeLatest {
			t.Errorf("unexpected job: %+v", job)
		}
		if job.VideoID != "vid-9" {
			t.Errorf("expected the resolved video id, got %q", job.VideoID)
		}

		tracked := f.tracker.Get()
		if tracked == nil || tracked.JobID != "job-1" || tracked.Status != models.StatusQueued {
			t.Errorf("unexpected tracked job: %+v", tracked)
		}

		subs := f.submitted()
		if len(subs) != 1 {
			t.Fatalf("expected one submission, got %d", len(subs))
		}
		req := subs[0]
		if req.YouTubeURL != "https://www.youtube.com/watch?v=vid-9" {
			t.Errorf("unexpected URL: %q", req.YouTubeURL)
		}
		if !req.GenerationConfig.UpdateVideoDescription {
			t.Error("expected the backend to write the description for latest")
		}
		if req.GenerationConfig.Creativity != "Creative" || req.GenerationConfig.SegmentationThreshold != "Abstract" {
			t.Errorf("expected slider labels, got %+v", req.GenerationConfig)
		}
		if req.VideoDetails == nil || req.VideoDetails.ID != "vid-9" {
			t.Errorf("expected video details, got %+v", req.VideoDetails)
		}

		updates := drain(progress)
		if len(updates) != 5 {
			t.Fatalf("expected 5 progress updates, got %d", len(updates))
		}
		wantPhases := []Phase{ResolveChannel, ResolveVideo, FetchVideo, Submit, Queued}
		for i, phase := range wantPhases {
			if updates[i].Phase != phase {
				t.Errorf("update %d: expected %s, got %s", i, phase, updates[i].Phase)
			}
		}
	})

	t.Run("requires a signed-in session", func(t *testing.T) {
		f := newEngineFixture(t)

		_, err := f.engine.Latest(context.Background(), nil)
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if len(f.submitted()) != 0 {
			t.Error("expected no submission while signed out")
		}
	})

	t.Run("rejection surfaces the backend message", func(t *testing.T) {
		f := newEngineFixture(t)
		f.signIn(t)
		f.reject = true

		_, err := f.engine.Latest(context.Background(), nil)
		if !errors.Is(err, shared.ErrJobRejected) {
			t.Fatalf("expected ErrJobRejected, got %v", err)
		}
		if f.tracker.Get() != nil {
			t.Error("expected no tracked job on rejection")
		}
	})
}

func TestManual(t *testing.T) {
	t.Run("submits the supplied URL without a description write", func(t *testing.T) {
		f := newEngineFixture(t)
		f.signIn(t)

		rawURL := "https://youtu.be/vid-7"
		progress := make(chan ProgressUpdate, 16)
		job, err := f.engine.Manual(context.Background(), progress, rawURL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if job.Mode != models.ModeManual || job.VideoID != "vid-7" {
			t.Errorf("unexpected job: %+v", job)
		}

		subs := f.submitted()
		if len(subs) != 1 {
			t.Fatalf("expected one submission, got %d", len(subs))
		}
		if subs[0].YouTubeURL != rawURL {
			t.Errorf("expected the raw URL forwarded, got %q", subs[0].YouTubeURL)
		}
		if subs[0].GenerationConfig.UpdateVideoDescription {
			t.Error("expected no description write for manual")
		}
	})

	t.Run("rejects an unparseable URL before any network call", func(t *testing.T) {
		f := newEngineFixture(t)
		f.signIn(t)

		before := func() int {
			f.mu.Lock()
			defer f.mu.Unlock()
			return f.youtubeHits
		}()

		_, err := f.engine.Manual(context.Background(), nil, "https://vimeo.com/123")
		if !errors.Is(err, shared.ErrInvalidURL) {
			t.Fatalf("expected ErrInvalidURL, got %v", err)
		}

		f.mu.Lock()
		after := f.youtubeHits
		f.mu.Unlock()
		if after != before {
			t.Error("expected no API traffic for a rejected URL")
		}
		if len(f.submitted()) != 0 {
			t.Error("expected no submission for a rejected URL")
		}
	})

	t.Run("requires a signed-in session", func(t *testing.T) {
		f := newEngineFixture(t)

		_, err := f.engine.Manual(context.Background(), nil, "https://youtu.be/vid-7")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

func TestStartReplacesPriorJob(t *testing.T) {
	f := newEngineFixture(t)
	f.signIn(t)

	f.tracker.Start(models.Job{JobID: "old-job", Mode: models.ModeLatest})

	if _, err := f.engine.Manual(context.Background(), nil, "https://youtu.be/vid-7"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	tracked := f.tracker.Get()
	if tracked == nil || tracked.JobID != "job-1" {
		t.Errorf("expected the new job to replace the old one, got %+v", tracked)
	}
}

func TestEmit(t *testing.T) {
	t.Run("nil channel is a no-op", func(t *testing.T) {
		emit(nil, ProgressUpdate{Phase: Submit})
	})

	t.Run("full channel never blocks", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 1)
		emit(progress, ProgressUpdate{Phase: Submit})
		emit(progress, ProgressUpdate{Phase: Queued}) // dropped, not blocked

		if len(progress) != 1 {
			t.Errorf("expected one buffered update, got %d", len(progress))
		}
	})
}
