package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/chapgen/cli/internal/jobs"
	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/repositories"
	"github.com/chapgen/cli/internal/router"
	"github.com/chapgen/cli/internal/services"
	"github.com/chapgen/cli/internal/session"
	"github.com/chapgen/cli/internal/shared"
	"github.com/chapgen/cli/internal/socket"
	"github.com/chapgen/cli/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger swaps the runner's logger, for commands that own the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, generateCommand, jobsCommand, settingsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app is the wired application state behind every networked command: the
// state database, the session, the live connection, the tracked job, and the
// services. Built per command invocation, torn down by Close.
type app struct {
	db      *sql.DB
	state   *repositories.StateRepository
	session *session.Store
	tracker *jobs.Tracker
	socket  *socket.Manager
	router  *router.Router
	youtube *services.YouTubeService
	backend *services.BackendService
	engine  *tasks.GenerateEngine

	detach func()
}

// Close releases the app's resources. Safe to call once.
func (a *app) Close() {
	if a.detach != nil {
		a.detach()
	}
	a.socket.Shutdown()
	a.db.Close()
}

// bootstrap opens the state database, restores the persisted session and job,
// and wires the connection manager, router, and generation engine together.
// When connect is true the live connection loop is started.
func (r *Runner) bootstrap(ctx context.Context, connect bool) (*app, error) {
	dbPath := shared.ExpandHome(r.config.Database.Path)
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := shared.NewDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	state := repositories.NewStateRepository(db)
	sess := session.NewStore(state, r.httpClient, r.config.YouTube.UserinfoURL, r.logger)
	tracker := jobs.NewTracker(state, r.logger)

	youtube := services.NewYouTubeService(r.config.YouTube.BaseURL, r.httpClient, r.config.YouTube.RequestsPerSecond)
	backend := services.NewBackendService(r.config.Backend.BaseURL, r.httpClient)

	sockCfg := socket.DefaultConfig(r.config.Backend.WSURL)
	sockCfg.QueryAuth = r.config.Backend.QueryAuth
	if r.config.Socket.HeartbeatSeconds > 0 {
		sockCfg.Heartbeat = time.Duration(r.config.Socket.HeartbeatSeconds) * time.Second
	}
	if r.config.Socket.BaseDelayMillis > 0 {
		sockCfg.BaseDelay = time.Duration(r.config.Socket.BaseDelayMillis) * time.Millisecond
	}
	if r.config.Socket.MaxDelayMillis > 0 {
		sockCfg.MaxDelay = time.Duration(r.config.Socket.MaxDelayMillis) * time.Millisecond
	}

	sock := socket.NewManager(sockCfg, func() string { return sess.Current().Token }, r.logger)

	rt := router.New(tracker, sess, youtube, backend, r.logger)
	detachRouter := rt.Attach(sock.Subscribe)

	// A fresh sign-in re-authenticates the live connection in place; a
	// sign-out abandons the tracked job, since its pushes can no longer
	// be acted on.
	unsubSession := sess.Subscribe(func(s session.Session) {
		if s.Token != "" {
			sock.NotifyTokenChange()
			return
		}
		tracker.Clear()
	})

	prefs := func() models.Preferences {
		p, err := state.LoadPreferences()
		if err != nil {
			return models.DefaultPreferences()
		}
		return p
	}
	engine := tasks.NewGenerateEngine(sess, youtube, backend, tracker, prefs)

	sess.Restore(ctx)

	if connect {
		sock.Start()
	}

	return &app{
		db:      db,
		state:   state,
		session: sess,
		tracker: tracker,
		socket:  sock,
		router:  rt,
		youtube: youtube,
		backend: backend,
		engine:  engine,
		detach: func() {
			detachRouter()
			unsubSession()
		},
	}, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
