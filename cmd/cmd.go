// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// authCommand handles Google sign-in and sign-out
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Google authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with Google via the browser",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "timeout",
						Usage: "Seconds to wait for the browser callback",
						Value: 300,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show the signed-in identity",
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and clear the stored token",
				Action: r.AuthLogout,
			},
		},
	}
}

// generateCommand handles chapter generation submissions
func generateCommand(r *Runner) *cli.Command {
	watchFlags := []cli.Flag{
		&cli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "Stay connected and wait for the chapters to arrive",
		},
		&cli.IntFlag{
			Name:  "timeout",
			Usage: "Seconds to wait while watching",
			Value: 600,
		},
	}

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Submit a chapter generation request",
		Commands: []*cli.Command{
			{
				Name:   "latest",
				Usage:  "Generate chapters for your most recent upload and update its description",
				Flags:  watchFlags,
				Action: r.GenerateLatest,
			},
			{
				Name:  "manual",
				Usage: "Generate chapters for a video URL and print them",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "url",
					},
				},
				Flags:  watchFlags,
				Action: r.GenerateManual,
			},
		},
	}
}

// jobsCommand handles the tracked job and the processed-videos history
func jobsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "jobs",
		Usage: "Inspect generation jobs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your processed videos",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "csv",
						Usage: "Output CSV",
					},
					&cli.BoolFlag{
						Name:  "markdown",
						Usage: "Output a Markdown table",
					},
				},
				Action: r.JobsList,
			},
			{
				Name:  "current",
				Usage: "Show the in-flight job, if any",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.JobsCurrent,
			},
			{
				Name:   "clear",
				Usage:  "Drop the in-flight job record",
				Action: r.JobsClear,
			},
		},
	}
}

// settingsCommand handles the generation sliders
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Manage generation settings",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the current slider positions",
				Action: r.SettingsShow,
			},
			{
				Name:  "set",
				Usage: "Set slider positions",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "creativity",
						Usage: "Creativity position (0=GenZ .. 4=Corporate)",
						Value: -1,
					},
					&cli.IntFlag{
						Name:  "threshold",
						Usage: "Segmentation position (0=Detailed .. 2=Abstract)",
						Value: -1,
					},
				},
				Action: r.SettingsSet,
			},
		},
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive use.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal interface",
		Action:  r.TUI,
	}
}
