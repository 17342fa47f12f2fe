package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/shared"
)

// SettingsShow prints the current slider positions and their labels.
func (r *Runner) SettingsShow(ctx context.Context, cmd *cli.Command) error {
	app, err := r.bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	prefs, err := app.state.LoadPreferences()
	if err != nil {
		return err
	}

	r.writePlain("Creativity:   %d (%s)\n", prefs.Creativity, prefs.CreativityLabel())
	r.writePlain("Segmentation: %d (%s)\n", prefs.Threshold, prefs.ThresholdLabel())
	return nil
}

// SettingsSet updates one or both slider positions.
func (r *Runner) SettingsSet(ctx context.Context, cmd *cli.Command) error {
	creativity := int(cmd.Int("creativity"))
	threshold := int(cmd.Int("threshold"))

	if creativity < 0 && threshold < 0 {
		return fmt.Errorf("%w: pass --creativity and/or --threshold", shared.ErrMissingArgument)
	}
	if creativity >= len(models.CreativityLabels()) {
		return fmt.Errorf("%w: creativity must be 0..%d", shared.ErrInvalidArgument, len(models.CreativityLabels())-1)
	}
	if threshold >= len(models.ThresholdLabels()) {
		return fmt.Errorf("%w: threshold must be 0..%d", shared.ErrInvalidArgument, len(models.ThresholdLabels())-1)
	}

	app, err := r.bootstrap(ctx, false)
	if err != nil {
		return err
	}
	defer app.Close()

	prefs, err := app.state.LoadPreferences()
	if err != nil {
		return err
	}

	if creativity >= 0 {
		prefs.Creativity = creativity
	}
	if threshold >= 0 {
		prefs.Threshold = threshold
	}

	if err := app.state.SavePreferences(prefs); err != nil {
		return err
	}

	r.writePlain("✓ Creativity:   %d (%s)\n", prefs.Creativity, prefs.CreativityLabel())
	r.writePlain("✓ Segmentation: %d (%s)\n", prefs.Threshold, prefs.ThresholdLabel())
	return nil
}
