package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/router"
	"github.com/chapgen/cli/internal/shared"
	"github.com/chapgen/cli/internal/tasks"
)

// GenerateLatest submits a generation request for the most recent upload.
// The backend writes the chapters into the video description when done.
func (r *Runner) GenerateLatest(ctx context.Context, cmd *cli.Command) error {
	app, err := r.bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	job, err := r.submit(ctx, func(progress chan tasks.ProgressUpdate) (*models.Job, error) {
		return app.engine.Latest(ctx, progress)
	})
	if err != nil {
		return err
	}

	r.writePlain("✓ Job queued: %s (video %s)\n", job.JobID, job.VideoID)

	if cmd.Bool("watch") {
		return r.watch(ctx, app, time.Duration(cmd.Int("timeout"))*time.Second)
	}

	r.writePlain("Run 'chapgen generate latest --watch' to wait for completion.\n")
	return nil
}

// GenerateManual submits a generation request for a user-supplied video URL
// and prints the chapters when they arrive.
func (r *Runner) GenerateManual(ctx context.Context, cmd *cli.Command) error {
	rawURL := cmd.StringArg("url")
	if rawURL == "" {
		return fmt.Errorf("%w: a video URL is required", shared.ErrMissingArgument)
	}

	app, err := r.bootstrap(ctx, true)
	if err != nil {
		return err
	}
	defer app.Close()

	job, err := r.submit(ctx, func(progress chan tasks.ProgressUpdate) (*models.Job, error) {
		return app.engine.Manual(ctx, progress, rawURL)
	})
	if err != nil {
		return err
	}

	r.writePlain("✓ Job queued: %s (video %s)\n", job.JobID, job.VideoID)

	if cmd.Bool("watch") {
		return r.watch(ctx, app, time.Duration(cmd.Int("timeout"))*time.Second)
	}

	r.writePlain("Run with --watch to wait for the chapters.\n")
	return nil
}

// submit runs one engine flow while draining its progress channel to the log.
func (r *Runner) submit(ctx context.Context, run func(chan tasks.ProgressUpdate) (*models.Job, error)) (*models.Job, error) {
	progress := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range progress {
			if update.Total > 0 {
				r.logger.Infof("[%d/%d] %s", update.Step, update.Total, update.Message)
			} else {
				r.logger.Info(update.Message)
			}
		}
	}()

	job, err := run(progress)
	close(progress)
	<-done

	return job, err
}

// watch blocks until the tracked job reaches a terminal outcome, printing
// status changes and, for manual jobs, the generated chapter block.
func (r *Runner) watch(ctx context.Context, app *app, timeout time.Duration) error {
	jobEvents := make(chan *models.Job, 8)
	routerEvents := make(chan router.Event, 8)

	unsubJob := app.tracker.Subscribe(func(job *models.Job) {
		select {
		case jobEvents <- job:
		default:
		}
	})
	defer unsubJob()

	unsubRouter := app.router.Subscribe(func(ev router.Event) {
		select {
		case routerEvents <- ev:
		default:
		}
	})
	defer unsubRouter()

	printed := false

	// The job may already be gone if the push raced the subscription.
	if app.tracker.Get() == nil {
		return r.reportOutcome(app, printed)
	}

	r.writePlain("Waiting for chapters...\n")

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case job := <-jobEvents:
			if job == nil {
				return r.reportOutcome(app, printed)
			}
			r.logger.Infof("job %s: %s", job.JobID, job.Status)
			if job.Status == models.StatusFailed {
				return fmt.Errorf("generation failed for job %s", job.JobID)
			}

		case ev := <-routerEvents:
			switch ev.Kind {
			case "generated":
				r.writePlainHeader("Chapters")
				r.writePlain("%s\n", ev.Generated)
				printed = true
			case "error":
				r.writePlain("✗ %s\n", ev.Error)
			}

		case <-timer.C:
			return fmt.Errorf("timed out waiting for chapters after %s", timeout)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// reportOutcome prints whatever the router recorded for the finished job.
func (r *Runner) reportOutcome(app *app, printed bool) error {
	if msg := app.router.LastError(); msg != "" {
		return fmt.Errorf("%s", msg)
	}

	if printed {
		return nil
	}

	if block := app.router.Generated(); block != "" {
		r.writePlainHeader("Chapters")
		r.writePlain("%s\n", block)
		return nil
	}

	r.writePlain("✓ Done. The video description has been updated.\n")
	return nil
}
