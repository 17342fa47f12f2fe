// package router interprets inbound push messages, correlates them against
// the tracked job, and dispatches the matching completion behavior.
//
// This is the only place a push message is matched to local state. Every
// message is handled in isolation: a bad message is logged and dropped, never
// allowed to wedge the router for the messages behind it.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chapgen/cli/internal/formatter"
	"github.com/chapgen/cli/internal/jobs"
	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/services"
	"github.com/chapgen/cli/internal/session"
	"github.com/chapgen/cli/internal/shared"
	"github.com/charmbracelet/log"
)

// refreshDelay is the fixed wait before refreshing the processed-videos list
// after a terminal outcome, giving the backend's own record time to converge.
const refreshDelay = 1500 * time.Millisecond

// apiTimeout bounds the side-effecting calls made from the push path.
const apiTimeout = 30 * time.Second

// Router routes push messages to the job tracker and completion side effects.
type Router struct {
	tracker *jobs.Tracker
	session *session.Store
	youtube *services.YouTubeService
	backend *services.BackendService
	logger  *log.Logger

	// delay and after are swapped in tests to avoid real waits.
	delay time.Duration
	after func(time.Duration, func()) *time.Timer

	mu        sync.RWMutex
	generated string
	lastError string
	processed []models.ProcessedVideo

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// Event describes a router-visible change for the presentation layer.
type Event struct {
	// Kind is one of "generated", "processed", "error".
	Kind      string
	Generated string
	Processed []models.ProcessedVideo
	Error     string
}

// New creates a router over the given collaborators.
func New(tracker *jobs.Tracker, sess *session.Store, youtube *services.YouTubeService, backend *services.BackendService, logger *log.Logger) *Router {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Router{
		tracker: tracker,
		session: sess,
		youtube: youtube,
		backend: backend,
		logger:  logger,
		delay:   refreshDelay,
		after:   time.AfterFunc,
		subs:    map[int]func(Event){},
	}
}

// Attach subscribes the router to a message source. The source calls Handle
// for every parsed inbound message; the returned function detaches.
func (r *Router) Attach(subscribe func(func(models.Envelope)) func()) func() {
	return subscribe(r.Handle)
}

// Handle classifies one inbound message and dispatches it. Unrecognized
// types are ignored for forward compatibility.
func (r *Router) Handle(env models.Envelope) {
	switch env.Type {
	case models.TypeChaptersReady:
		r.handleChaptersReady(env)
	case models.TypeStatusUpdate:
		r.handleStatusUpdate(env)
	case models.TypePing, models.TypePong:
		// transport noise
	default:
		r.logger.Debugf("ignoring message type %q", env.Type)
	}
}

// Generated returns the most recently published chapter text block.
func (r *Router) Generated() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generated
}

// LastError returns the most recent user-visible error, or "".
func (r *Router) LastError() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastError
}

// Processed returns the most recently fetched processed-videos list.
func (r *Router) Processed() []models.ProcessedVideo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.processed
}

// Subscribe registers fn for router events. Returns an unsubscribe function.
func (r *Router) Subscribe(fn func(Event)) func() {
	r.subMu.Lock()
	id := r.nextSub
	r.nextSub++
	r.subs[id] = fn
	r.subMu.Unlock()

	return func() {
		r.subMu.Lock()
		delete(r.subs, id)
		r.subMu.Unlock()
	}
}

// RefreshProcessed fetches the signed-in user's processed-videos list now.
func (r *Router) RefreshProcessed() {
	sess := r.session.Current()
	if sess.Profile == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()

	videos, err := r.backend.JobsByUser(ctx, sess.Profile.Email)
	if err != nil {
		r.logger.Warnf("failed to refresh processed videos: %v", err)
		return
	}

	r.mu.Lock()
	r.processed = videos
	r.mu.Unlock()

	r.publish(Event{Kind: "processed", Processed: videos})
}

// correlate matches a chapters_ready message against the tracked job,
// in precedence order:
//
//  1. the message's job id equals the tracked job id
//  2. the message carries no job id and its video id equals the tracked one
//  3. the tracked job is manual and the message carries no job id at all
//
// Anything else belongs to a job this client is not tracking.
func correlate(job *models.Job, env models.Envelope) bool {
	if job == nil {
		return false
	}

	msgJob := env.ResolveJobID()
	if msgJob != "" {
		return msgJob == job.JobID
	}

	if v := env.ResolveVideoID(); v != "" && v == job.VideoID {
		return true
	}

	// Loosest fallback: some backend versions omit correlation ids for
	// manual submissions. Safe only while at most one job is tracked.
	return job.Mode == models.ModeManual
}

func (r *Router) handleChaptersReady(env models.Envelope) {
	chapters := env.Chapters()
	if len(chapters) == 0 {
		r.logger.Warn("chapters_ready message without chapters, discarding")
		return
	}

	job := r.tracker.Get()
	if job == nil {
		// Stale push after a reload cleared the job; clear defensively.
		r.tracker.Clear()
		return
	}

	if !correlate(job, env) {
		r.logger.Debugf("discarding chapters for untracked job %q", env.ResolveJobID())
		return
	}

	switch job.Mode {
	case models.ModeLatest:
		r.completeLatest(job, env, chapters)
	case models.ModeManual:
		r.completeManual(job, chapters)
	default:
		r.tracker.Clear()
	}
}

// completeLatest writes the chapters into the video description. Failures
// are surfaced but never block cleanup: the refresh is scheduled and the job
// cleared in all cases.
func (r *Router) completeLatest(job *models.Job, env models.Envelope, chapters []models.Chapter) {
	defer func() {
		r.scheduleRefresh()
		r.tracker.Clear()
	}()

	videoID := env.ResolveVideoID()
	if videoID == "" {
		videoID = job.VideoID
	}

	sess := r.session.Current()
	if sess.Token == "" {
		r.setError("chapters arrived but you are signed out; description not updated")
		return
	}
	if videoID == "" {
		r.setError("chapters arrived without a video id; description not updated")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), apiTimeout)
	defer cancel()

	video, err := r.youtube.Video(ctx, sess.Token, videoID)
	if err != nil {
		r.setError(fmt.Sprintf("failed to load video for description update: %v", err))
		return
	}

	if _, err := r.youtube.UpdateDescription(ctx, sess.Token, video, chapters); err != nil {
		r.setError(fmt.Sprintf("failed to update video description: %v", err))
		return
	}

	r.logger.Infof("description updated for video %s (%d chapters)", videoID, len(chapters))
}

// completeManual publishes the formatted chapter block locally. No write API
// call is made.
func (r *Router) completeManual(job *models.Job, chapters []models.Chapter) {
	block := formatter.ChapterBlock(chapters)

	r.mu.Lock()
	r.generated = block
	r.mu.Unlock()

	r.tracker.UpdateStatus(job.JobID, models.StatusCompleted)
	r.tracker.Clear()

	r.publish(Event{Kind: "generated", Generated: block})
}

func (r *Router) handleStatusUpdate(env models.Envelope) {
	jobID := env.ResolveJobID()
	if jobID == "" {
		return
	}

	status := models.Status(env.ResolveStatus())
	r.tracker.UpdateStatus(jobID, status)

	if status.Terminal() {
		r.scheduleRefresh()
	}
}

// scheduleRefresh arms the fixed-delay processed-list refresh.
func (r *Router) scheduleRefresh() {
	r.after(r.delay, r.RefreshProcessed)
}

func (r *Router) setError(msg string) {
	r.mu.Lock()
	r.lastError = msg
	r.mu.Unlock()

	r.logger.Error(msg)
	r.publish(Event{Kind: "error", Error: msg})
}

func (r *Router) publish(ev Event) {
	r.subMu.Lock()
	fns := make([]func(Event), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
