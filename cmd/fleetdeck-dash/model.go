package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"fleetdeck/internal/api"
	"fleetdeck/internal/config"
	"fleetdeck/pkg/stream"
	"fleetdeck/pkg/telemetry"
	"fleetdeck/pkg/view"
)

// tickMsg is sent by Bubble Tea on every tick interval.
// Used to trigger periodic REST refresh of roster and rate-limit state.
type tickMsg time.Time

// envelopesMsg carries a batch of envelopes drained from the stream channel.
type envelopesMsg []telemetry.Envelope

// connMsg carries a connection-state transition from the stream client.
type connMsg stream.State

// rosterMsg carries the fetched agent roster. nil means the API is offline.
type rosterMsg []api.RosterEntry

// rateLimitMsg carries the fetched rate-limit status.
type rateLimitMsg api.RateLimit

// envelopeBatchMax bounds how many envelopes one Update absorbs.
const envelopeBatchMax = 64

// tickCmd returns a command that sends a tickMsg after 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForEnvelopesCmd blocks on the stream channel, then drains whatever else
// is already queued so a burst becomes one Update instead of many.
func waitForEnvelopesCmd(ch <-chan telemetry.Envelope) tea.Cmd {
	return func() tea.Msg {
		env, ok := <-ch
		if !ok {
			return envelopesMsg(nil)
		}
		batch := make([]telemetry.Envelope, 0, envelopeBatchMax)
		batch = append(batch, env)
		for len(batch) < envelopeBatchMax {
			select {
			case next, ok := <-ch:
				if !ok {
					return envelopesMsg(batch)
				}
				batch = append(batch, next)
			default:
				return envelopesMsg(batch)
			}
		}
		return envelopesMsg(batch)
	}
}

// waitForConnCmd blocks on the connection-state channel.
func waitForConnCmd(ch <-chan stream.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return connMsg(stream.StateClosed)
		}
		return connMsg(st)
	}
}

// Model is the Bubble Tea model for the fleetdeck dashboard.
type Model struct {
	cfg    config.Config
	router *telemetry.Router
	client *stream.Client
	api    *api.Client

	envCh  chan telemetry.Envelope
	connCh chan stream.State

	projector *view.Projector
	mode      view.Mode

	conn   stream.State
	roster []api.RosterEntry
	rate   api.RateLimit

	// UI state
	width  int
	height int
	spin   spinner.Model
	feed   viewport.Model
	ready  bool
}

// newModel wires the router, stream client, and REST client from config. The
// stream client is not running yet; main starts it before the program runs.
func newModel(cfg config.Config) (Model, error) {
	offices, err := telemetry.LoadOfficeMap(cfg.OfficeMapPath)
	if err != nil {
		return Model{}, err
	}

	router := telemetry.NewRouter(
		telemetry.NewDecoder(offices),
		telemetry.NewStore(),
		telemetry.NewLogBuffer(cfg.LogCapacity),
	)

	envCh := make(chan telemetry.Envelope, 128)
	connCh := make(chan stream.State, 8)
	client, err := stream.New(stream.Options{
		URL:        cfg.ServerURL,
		OnEnvelope: func(env telemetry.Envelope) { envCh <- env },
		OnState:    func(st stream.State) { connCh <- st },
		Quiet:      true,
	})
	if err != nil {
		return Model{}, err
	}

	base := cfg.APIBaseURL
	if base == "" {
		base = api.BaseFromWS(cfg.ServerURL)
	}

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot

	hidden := make([]telemetry.EventType, 0, len(cfg.HiddenEvents))
	for _, e := range cfg.HiddenEvents {
		hidden = append(hidden, telemetry.EventType(e))
	}

	return Model{
		cfg:       cfg,
		router:    router,
		client:    client,
		api:       api.New(base),
		envCh:     envCh,
		connCh:    connCh,
		projector: view.NewProjector(hidden),
		mode:      view.Mode(cfg.ViewMode),
		conn:      stream.StateConnecting,
		spin:      spin,
	}, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		waitForEnvelopesCmd(m.envCh),
		waitForConnCmd(m.connCh),
		fetchRosterCmd(m.api),
		fetchRateLimitCmd(m.api),
		tickCmd(),
		watchConfigDir(config.Dir()),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeFeed()

	case envelopesMsg:
		if msg == nil {
			// Channel closed: the stream client is gone for good.
			return m, nil
		}
		for _, env := range msg {
			m.router.Handle(env)
		}
		m.refreshFeed()
		return m, waitForEnvelopesCmd(m.envCh)

	case connMsg:
		m.conn = stream.State(msg)
		if m.conn == stream.StateClosed {
			return m, nil
		}
		return m, waitForConnCmd(m.connCh)

	case rosterMsg:
		if msg != nil {
			m.roster = []api.RosterEntry(msg)
		}

	case rateLimitMsg:
		m.rate = api.RateLimit(msg)

	case tickMsg:
		return m, tea.Batch(fetchRosterCmd(m.api), fetchRateLimitCmd(m.api), tickCmd())

	case fsChangeMsg:
		return m, tea.Batch(reloadConfigCmd(), watchConfigDir(config.Dir()))

	case configReloadedMsg:
		m = m.applyConfig(config.Config(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKeyPress processes keyboard input.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.client.Close()
		return m, tea.Quit
	case "d":
		if m.mode == view.ModeUser {
			m.mode = view.ModeDebug
		} else {
			m.mode = view.ModeUser
		}
		m.refreshFeed()
	case "c":
		return m, clearRateLimitCmd(m.api)
	case "g":
		m.feed.GotoTop()
	case "G":
		m.feed.GotoBottom()
	case "up", "k":
		m.feed.LineUp(1)
	case "down", "j":
		m.feed.LineDown(1)
	}
	return m, nil
}

// applyConfig folds a reloaded config into the running model. The stream URL
// is fixed for the process lifetime; view settings take effect immediately.
func (m Model) applyConfig(cfg config.Config) Model {
	hidden := make([]telemetry.EventType, 0, len(cfg.HiddenEvents))
	for _, e := range cfg.HiddenEvents {
		hidden = append(hidden, telemetry.EventType(e))
	}
	m.projector = view.NewProjector(hidden)
	m.mode = view.Mode(cfg.ViewMode)
	m.cfg.ViewMode = cfg.ViewMode
	m.cfg.HiddenEvents = cfg.HiddenEvents
	m.refreshFeed()
	return m
}

// resizeFeed fits the feed viewport under the status bar and agents table.
func (m *Model) resizeFeed() {
	chromeHeight := len(agentOrder) + 5
	h := m.height - chromeHeight
	if h < 3 {
		h = 3
	}
	if !m.ready {
		m.feed = viewport.New(m.width, h)
		m.ready = true
	} else {
		m.feed.Width = m.width
		m.feed.Height = h
	}
	m.refreshFeed()
}

// refreshFeed re-projects the log buffer into the viewport.
func (m *Model) refreshFeed() {
	if !m.ready {
		return
	}
	atBottom := m.feed.AtBottom()
	lines := m.projector.Project(m.router.Log().Snapshot(0), m.mode)
	m.feed.SetContent(renderFeed(lines, m.feed.Width))
	if atBottom {
		m.feed.GotoBottom()
	}
}

// View implements tea.Model.
func (m Model) View() string {
	theme := DefaultTheme()
	styles := DefaultStyles(theme)

	statusBar := m.renderStatusBar(theme, styles)
	agents := renderAgentsTable(m.router.Store().Snapshot(), m.roster, theme, styles)
	batch := renderBatchLine(m.router.Store().Batch(), styles)

	feed := ""
	if m.ready {
		feed = m.feed.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, statusBar, agents, batch, feed)
}

// renderStatusBar renders connection state, stream counters, and rate limits.
func (m Model) renderStatusBar(theme Theme, styles Styles) string {
	var connStatus string
	switch m.conn {
	case stream.StateOpen:
		connStatus = styles.StatusOK.Render("stream: connected")
	case stream.StateConnecting:
		connStatus = styles.StatusWarn.Render(m.spin.View() + " stream: connecting")
	default:
		connStatus = styles.StatusError.Render("stream: closed")
	}

	diag := m.router.Store().Diag()
	parts := []string{
		connStatus,
		fmt.Sprintf("events: %d", m.router.Log().Len()),
		fmt.Sprintf("mode: %s", m.mode),
	}
	if diag.MalformedPayloads > 0 {
		parts = append(parts, styles.StatusWarn.Render(fmt.Sprintf("malformed: %d", diag.MalformedPayloads)))
	}
	if m.rate.Limited {
		parts = append(parts, styles.StatusError.Render("RATE LIMITED ("+m.rate.Reason+")"))
	}

	return lipgloss.NewStyle().Foreground(theme.Primary).Render(strings.Join(parts, " | "))
}

// renderFeed renders projected display lines as viewport content.
func renderFeed(lines []view.DisplayLine, width int) string {
	theme := DefaultTheme()
	styles := DefaultStyles(theme)

	var sb strings.Builder
	for _, l := range lines {
		text := l.Summary
		if text == "" {
			text = l.Detail
		}
		row := fmt.Sprintf("%s %s %s %s",
			styles.FeedTime.Render(l.Time),
			l.Icon,
			styles.FeedTitle.Render(l.Title),
			text,
		)
		sb.WriteString(truncate(row, width))
		sb.WriteString("\n")
	}
	return sb.String()
}
