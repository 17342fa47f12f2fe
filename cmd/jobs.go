package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/chapgen/cli/internal/formatter"
	"github.com/chapgen/cli/internal/shared"
)

// JobsList fetches and prints the signed-in user's processed videos.
func (r *Runner) JobsList(ctx context.Context, cmd *cli.Command) error {
	app, err := r.bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	sess := app.session.Current()
	if !sess.SignedIn() {
		return fmt.Errorf("%w: sign in with 'chapgen auth login' first", shared.ErrNotAuthenticated)
	}

	videos, err := app.backend.JobsByUser(ctx, sess.Profile.Email)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(videos, cmd.Bool("pretty"))
	case cmd.Bool("csv"):
		data, err := formatter.ProcessedToCSV(videos)
		if err != nil {
			return err
		}
		return r.writePlain("%s", data)
	case cmd.Bool("markdown"):
		return r.writePlain("%s", formatter.ProcessedToMarkdown(videos))
	}

	if len(videos) == 0 {
		return r.writePlain("No processed videos yet.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Processed Videos (%d)", len(videos)))
	for _, video := range videos {
		title := video.Title
		if title == "" {
			title = video.VideoID
		}
		r.writePlain("%-12s %s\n", video.Status, title)
	}
	return nil
}

// JobsCurrent shows the tracked in-flight job.
func (r *Runner) JobsCurrent(ctx context.Context, cmd *cli.Command) error {
	app, err := r.bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	job := app.tracker.Get()
	if job == nil {
		return r.writePlain("No job in flight.\n")
	}

	if cmd.Bool("json") {
		return r.writeJSON(job, true)
	}

	r.writePlain("Job:     %s\n", job.JobID)
	r.writePlain("Video:   %s\n", job.VideoID)
	r.writePlain("Mode:    %s\n", job.Mode)
	r.writePlain("Status:  %s\n", job.Status)
	r.writePlain("Started: %s\n", job.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// JobsClear drops the tracked job record. The backend job itself is not
// cancelled; any late push for it will simply no longer correlate.
func (r *Runner) JobsClear(ctx context.Context, cmd *cli.Command) error {
	app, err := r.bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	app.tracker.Clear()
	return r.writePlain("✓ Job record cleared\n")
}
