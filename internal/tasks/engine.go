// package tasks implements the generation request orchestrators.
//
// The core abstraction is GenerateEngine, which resolves video metadata from
// the YouTube Data API, submits a generation request to the backend, and
// starts the tracked job on acceptance. Operations emit progress updates via
// channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"

	"github.com/chapgen/cli/internal/jobs"
	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/services"
	"github.com/chapgen/cli/internal/session"
	"github.com/chapgen/cli/internal/shared"
)

// GenerateEngine orchestrates the latest and manual generation flows.
type GenerateEngine struct {
	session *session.Store
	youtube *services.YouTubeService
	backend *services.BackendService
	tracker *jobs.Tracker

	// prefs reads the current generation preferences at the moment of use.
	prefs func() models.Preferences
}

// NewGenerateEngine creates an engine over the given collaborators. prefs
// may be nil, in which case defaults are used.
func NewGenerateEngine(sess *session.Store, youtube *services.YouTubeService, backend *services.BackendService, tracker *jobs.Tracker, prefs func() models.Preferences) *GenerateEngine {
	if prefs == nil {
		prefs = models.DefaultPreferences
	}

	return &GenerateEngine{
		session: sess,
		youtube: youtube,
		backend: backend,
		tracker: tracker,
		prefs:   prefs,
	}
}

// Latest submits a generation request for the signed-in user's most recent
// upload, with the backend writing the description back. Any missing-data
// condition along the chain (no channel, no uploads, no video) fails the
// request; nothing is retried automatically.
func (e *GenerateEngine) Latest(ctx context.Context, progress chan<- ProgressUpdate) (*models.Job, error) {
	sess := e.session.Current()
	if sess.Token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	const total = 4

	emit(progress, resolveChannelUpdate(1, total))
	playlistID, err := e.youtube.MyUploadsPlaylist(ctx, sess.Token)
	if err != nil {
		return nil, err
	}

	emit(progress, resolveVideoUpdate(2, total))
	videoID, err := e.youtube.LatestUpload(ctx, sess.Token, playlistID)
	if err != nil {
		return nil, err
	}

	emit(progress, fetchVideoUpdate(3, total, videoID))
	video, err := e.youtube.Video(ctx, sess.Token, videoID)
	if err != nil {
		return nil, err
	}

	prefs := e.prefs()
	emit(progress, submitUpdate(4, total))
	resp, err := e.backend.SubmitGeneration(ctx, services.GenerationRequest{
		YouTubeURL: fmt.Sprintf("https://www.youtube.com/watch?v=%s", video.ID),
		GenerationConfig: services.GenerationConfig{
			Creativity:             prefs.CreativityLabel(),
			SegmentationThreshold:  prefs.ThresholdLabel(),
			UpdateVideoDescription: true,
		},
		AccessToken:  sess.Token,
		VideoDetails: video,
	})
	if err != nil {
		return nil, err
	}

	return e.start(progress, resp, video.ID, models.ModeLatest)
}

// Manual submits a generation request for a user-supplied video URL. The
// URL is parsed before any network call; results are displayed locally, so
// the backend is told not to touch the description.
func (e *GenerateEngine) Manual(ctx context.Context, progress chan<- ProgressUpdate, rawURL string) (*models.Job, error) {
	sess := e.session.Current()
	if sess.Token == "" {
		return nil, shared.ErrNotAuthenticated
	}

	videoID := services.ExtractVideoID(rawURL)
	if videoID == "" {
		return nil, fmt.Errorf("%w: %q", shared.ErrInvalidURL, rawURL)
	}

	const total = 2

	emit(progress, fetchVideoUpdate(1, total, videoID))
	video, err := e.youtube.Video(ctx, sess.Token, videoID)
	if err != nil {
		return nil, err
	}

	emit(progress, submitUpdate(2, total))
	resp, err := e.backend.SubmitGeneration(ctx, services.GenerationRequest{
		YouTubeURL: rawURL,
		GenerationConfig: services.GenerationConfig{
			UpdateVideoDescription: false,
		},
		AccessToken:  sess.Token,
		VideoDetails: video,
	})
	if err != nil {
		return nil, err
	}

	return e.start(progress, resp, video.ID, models.ModeManual)
}

// start converts an accepted submission into the tracked job. Starting while
// another job is active is last-write-wins.
func (e *GenerateEngine) start(progress chan<- ProgressUpdate, resp *services.GenerationResponse, fallbackVideoID string, mode models.Mode) (*models.Job, error) {
	if !resp.Accepted() {
		msg := resp.Message
		if msg == "" {
			msg = "backend did not accept the job"
		}
		return nil, fmt.Errorf("%w: %s", shared.ErrJobRejected, msg)
	}

	videoID := resp.VideoID
	if videoID == "" {
		videoID = fallbackVideoID
	}

	job := models.Job{
		JobID:   resp.JobID,
		VideoID: videoID,
		Mode:    mode,
		Status:  models.StatusQueued,
	}
	e.tracker.Start(job)

	emit(progress, queuedUpdate(0, 0, job.JobID))

	started := e.tracker.Get()
	return started, nil
}

// emit sends a progress update without blocking when no one is listening.
func emit(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
