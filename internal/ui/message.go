package ui

import (
	"time"

	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/router"
	"github.com/chapgen/cli/internal/session"
	"github.com/chapgen/cli/internal/tasks"
)

// jobChangedMsg carries the tracked job (or nil) after a tracker mutation.
type jobChangedMsg struct {
	job *models.Job
}

// routerEventMsg carries a router event: generated chapters, a refreshed
// processed list, or a user-visible error.
type routerEventMsg struct {
	event router.Event
}

// sessionChangedMsg carries the session after sign-in or sign-out.
type sessionChangedMsg struct {
	session session.Session
}

// progressUpdateMsg carries one submission progress step.
type progressUpdateMsg tasks.ProgressUpdate

// submitDoneMsg carries the outcome of a generation submission.
type submitDoneMsg struct {
	job *models.Job
	err error
}

// tickMsg drives the periodic connection-state repaint.
type tickMsg time.Time
