package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/chapgen/cli/internal/jobs"
	"github.com/chapgen/cli/internal/models"
	"github.com/chapgen/cli/internal/repositories"
	"github.com/chapgen/cli/internal/router"
	"github.com/chapgen/cli/internal/session"
	"github.com/chapgen/cli/internal/socket"
	"github.com/chapgen/cli/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	HomeView ViewState = iota
	ManualView
	ChaptersView
	ProcessedView
	SettingsView
)

// viewNames maps views to the persisted last-view record and back.
var viewNames = map[ViewState]string{
	HomeView:      "home",
	ManualView:    "manual",
	ChaptersView:  "chapters",
	ProcessedView: "processed",
	SettingsView:  "settings",
}

func viewFromName(name string) ViewState {
	for view, n := range viewNames {
		if n == name {
			return view
		}
	}
	return HomeView
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	session *session.Store
	socket  *socket.Manager
	tracker *jobs.Tracker
	router  *router.Router
	engine  *tasks.GenerateEngine
	state   *repositories.StateRepository

	width  int
	height int

	urlInput      textinput.Model
	processedList list.Model
	prefs         models.Preferences
	settingsRow   int

	job       *models.Job
	generated string
	errMsg    string
	busy      bool

	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	submitJob    *models.Job
	submitErr    error

	// events bridges subscription callbacks onto the bubbletea loop.
	events chan tea.Msg
	unsubs []func()

	help help.Model
	keys keyMap
}

// keyMap defines the key bindings for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	left   key.Binding
	right  key.Binding
	enter  key.Binding
	back   key.Binding
	latest key.Binding
	manual key.Binding
	videos key.Binding
	tweaks key.Binding
	reload key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "lower"),
		),
		right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "raise"),
		),
		enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "submit"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		latest: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate latest"),
		),
		manual: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "manual url"),
		),
		videos: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "processed"),
		),
		tweaks: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "settings"),
		),
		reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter},
		{k.latest, k.manual, k.videos},
		{k.tweaks, k.back, k.quit},
	}
}

func (m *Model) subscribeAll() {
	m.unsubs = append(m.unsubs,
		m.tracker.Subscribe(func(job *models.Job) {
			m.post(jobChangedMsg{job: job})
		}),
		m.router.Subscribe(func(ev router.Event) {
			m.post(routerEventMsg{event: ev})
		}),
		m.session.Subscribe(func(sess session.Session) {
			m.post(sessionChangedMsg{session: sess})
		}),
	)
}

// NewModel creates a new TUI model wired to the shared application state.
// The last active view and the saved sliders are restored; push-driven
// changes are subscribed immediately so nothing is missed before Init.
func NewModel(ctx context.Context, sess *session.Store, sock *socket.Manager, tracker *jobs.Tracker, rt *router.Router, engine *tasks.GenerateEngine, state *repositories.StateRepository) *Model {
	input := textinput.New()
	input.Placeholder = "https://www.youtube.com/watch?v=..."
	input.CharLimit = 200
	input.Width = 60

	processed := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	processed.Title = "Processed Videos"

	m := &Model{
		ctx:           ctx,
		view:          HomeView,
		session:       sess,
		socket:        sock,
		tracker:       tracker,
		router:        rt,
		engine:        engine,
		state:         state,
		urlInput:      input,
		processedList: processed,
		prefs:         models.DefaultPreferences(),
		job:           tracker.Get(),
		events:        make(chan tea.Msg, 32),
		help:          help.New(),
		keys:          newKeyMap(),
	}

	if state != nil {
		if prefs, err := state.LoadPreferences(); err == nil {
			m.prefs = prefs
		}
		if name, err := state.LoadLastView(); err == nil && name != "" {
			m.view = viewFromName(name)
		}
	}
	if m.view == ManualView {
		m.urlInput.Focus()
	}

	m.subscribeAll()
	return m
}

// Close detaches the model's subscriptions.
func (m *Model) Close() {
	for _, unsub := range m.unsubs {
		unsub()
	}
	m.unsubs = nil
}

// post delivers a subscription callback to the bubbletea loop without
// blocking the caller; the periodic tick repaints anything dropped here.
func (m *Model) post(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

// Init starts the event bridge and the connection-state repaint tick.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForEvent(), m.tick()}
	if m.view == ProcessedView {
		cmds = append(cmds, m.refreshProcessed())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.processedList.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case HomeView:
			return m.handleHomeKeys(msg)
		case ManualView:
			return m.handleManualKeys(msg)
		case ChaptersView:
			return m.handleChaptersKeys(msg)
		case ProcessedView:
			return m.handleProcessedKeys(msg)
		case SettingsView:
			return m.handleSettingsKeys(msg)
		}

	case tickMsg:
		return m, m.tick()

	case jobChangedMsg:
		m.job = msg.job
		return m, m.waitForEvent()

	case sessionChangedMsg:
		return m, m.waitForEvent()

	case routerEventMsg:
		return m.handleRouterEvent(msg.event)

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case submitDoneMsg:
		m.busy = false
		m.progressChan = nil
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.errMsg = ""
			m.job = msg.job
		}
		return m, nil
	}

	if m.view == ProcessedView {
		var cmd tea.Cmd
		m.processedList, cmd = m.processedList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case HomeView:
		return m.renderHome()
	case ManualView:
		return m.renderManual()
	case ChaptersView:
		return m.renderChapters()
	case ProcessedView:
		return m.renderProcessed()
	case SettingsView:
		return m.renderSettings()
	default:
		return ""
	}
}

func (m *Model) handleRouterEvent(ev router.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case "generated":
		m.generated = ev.Generated
		m.errMsg = ""
		m.setView(ChaptersView)
	case "processed":
		items := make([]list.Item, len(ev.Processed))
		for i, video := range ev.Processed {
			items[i] = processedItem{video: video}
		}
		m.processedList.SetItems(items)
	case "error":
		m.errMsg = ev.Error
	}
	return m, m.waitForEvent()
}

func (m *Model) handleHomeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "g":
		if !m.busy {
			return m, m.startLatest()
		}
	case "m":
		m.setView(ManualView)
		m.urlInput.Focus()
		return m, textinput.Blink
	case "p":
		m.setView(ProcessedView)
		return m, m.refreshProcessed()
	case "s":
		m.setView(SettingsView)
	}
	return m, nil
}

func (m *Model) handleManualKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.urlInput.Blur()
		m.setView(HomeView)
		return m, nil
	case "enter":
		raw := m.urlInput.Value()
		if raw != "" && !m.busy {
			m.urlInput.Blur()
			m.setView(HomeView)
			return m, m.startManual(raw)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m *Model) handleChaptersKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.setView(HomeView)
	}
	return m, nil
}

func (m *Model) handleProcessedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.setView(HomeView)
		return m, nil
	case "r":
		return m, m.refreshProcessed()
	}

	var cmd tea.Cmd
	m.processedList, cmd = m.processedList.Update(msg)
	return m, cmd
}

func (m *Model) handleSettingsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.setView(HomeView)
	case "up", "k":
		m.settingsRow = 0
	case "down", "j":
		m.settingsRow = 1
	case "left", "h":
		m.adjustSlider(-1)
	case "right", "l":
		m.adjustSlider(1)
	}
	return m, nil
}

// adjustSlider moves the selected slider by delta, clamped to its labels,
// and persists the result.
func (m *Model) adjustSlider(delta int) {
	if m.settingsRow == 0 {
		m.prefs.Creativity = clamp(m.prefs.Creativity+delta, 0, len(models.CreativityLabels())-1)
	} else {
		m.prefs.Threshold = clamp(m.prefs.Threshold+delta, 0, len(models.ThresholdLabels())-1)
	}
	if m.state != nil {
		_ = m.state.SavePreferences(m.prefs)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Preferences returns the current slider positions.
func (m *Model) Preferences() models.Preferences {
	return m.prefs
}

// setView switches the active view and persists it as the last view.
func (m *Model) setView(view ViewState) {
	m.view = view
	if m.state != nil {
		_ = m.state.SaveLastView(viewNames[view])
	}
}

func (m *Model) startLatest() tea.Cmd {
	m.busy = true
	m.errMsg = ""
	m.progressChan = make(chan tasks.ProgressUpdate, 16)

	ch := m.progressChan
	go func() {
		job, err := m.engine.Latest(m.ctx, ch)
		m.submitJob = job
		m.submitErr = err
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) startManual(rawURL string) tea.Cmd {
	m.busy = true
	m.errMsg = ""
	m.progressChan = make(chan tasks.ProgressUpdate, 16)

	ch := m.progressChan
	go func() {
		job, err := m.engine.Manual(m.ctx, ch, rawURL)
		m.submitJob = job
		m.submitErr = err
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return submitDoneMsg{job: m.submitJob, err: m.submitErr}
		}

		update, ok := <-m.progressChan
		if !ok {
			return submitDoneMsg{job: m.submitJob, err: m.submitErr}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-m.events
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) refreshProcessed() tea.Cmd {
	return func() tea.Msg {
		m.router.RefreshProcessed()
		return nil
	}
}

func (m *Model) renderHome() string {
	title := styles.title.Render("chapgen")

	sess := m.session.Current()
	var identity string
	if sess.SignedIn() {
		identity = styles.ok.Render(fmt.Sprintf("Signed in as %s", sess.Profile.Email))
	} else {
		identity = styles.warn.Render("Signed out — run `chapgen auth login`")
	}

	var connection string
	switch m.socket.State() {
	case socket.Open:
		connection = styles.ok.Render("● connected")
	case socket.Connecting:
		connection = styles.warn.Render("◌ connecting")
	default:
		connection = styles.err.Render("○ disconnected")
	}

	var body string
	switch {
	case m.busy:
		body = fmt.Sprintf("%s\n%s", styles.warn.Render("Working..."), m.progress.Message)
	case m.job != nil:
		body = fmt.Sprintf("Job %s (%s): %s", m.job.JobID, m.job.Mode, styles.warn.Render(string(m.job.Status)))
	default:
		body = styles.help.Render("No job in flight.")
	}

	var errLine string
	if m.errMsg != "" {
		errLine = "\n" + styles.err.Render(m.errMsg)
	}

	helpKeys := []key.Binding{m.keys.latest, m.keys.manual, m.keys.videos, m.keys.tweaks, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s  %s\n\n%s%s\n\n%s", title, identity, connection, body, errLine, helpView)
}

func (m *Model) renderManual() string {
	title := styles.title.Render("Generate chapters for a video")

	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, m.urlInput.View(), helpView)
}

func (m *Model) renderChapters() string {
	title := styles.ok.Render("✓ Chapters ready")

	body := m.generated
	if body == "" {
		body = styles.help.Render("Nothing generated yet.")
	}

	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, helpView)
}

func (m *Model) renderProcessed() string {
	helpKeys := []key.Binding{m.keys.reload, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.processedList.View(), helpView)
}

func (m *Model) renderSettings() string {
	title := styles.title.Render("Generation Settings")

	creativity := renderSlider("Creativity", models.CreativityLabels(), m.prefs.Creativity, m.settingsRow == 0)
	threshold := renderSlider("Segmentation", models.ThresholdLabels(), m.prefs.Threshold, m.settingsRow == 1)

	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.left, m.keys.right, m.keys.back}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, creativity, threshold, helpView)
}

// renderSlider draws one labeled position row, highlighting the active label.
func renderSlider(name string, labels []string, pos int, selected bool) string {
	marker := "  "
	if selected {
		marker = styles.ok.Render("> ")
	}

	row := ""
	for i, label := range labels {
		if i == pos {
			row += styles.ok.Render("[" + label + "]")
		} else {
			row += styles.help.Render(" " + label + " ")
		}
		if i < len(labels)-1 {
			row += " "
		}
	}

	return fmt.Sprintf("%s%-14s %s", marker, name, row)
}
