// Package tui is the interactive session player: audio transport on a
// timeline with latency markers and freeze spans, above the scrolling
// transcript.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/voxtape/voxtape/internal/audio"
	"github.com/voxtape/voxtape/internal/core"
	"github.com/voxtape/voxtape/internal/player"
	"github.com/voxtape/voxtape/internal/timeline"
	"github.com/voxtape/voxtape/internal/tui/components"
	"github.com/voxtape/voxtape/internal/tui/styles"
)

// Options configures the player UI.
type Options struct {
	// TickInterval is the position tick cadence.
	TickInterval time.Duration
	// SeekStep is the arrow-key seek distance.
	SeekStep time.Duration
	// LatencyWarn is the highlight threshold in seconds; zero means 2.
	LatencyWarn float64
}

// Fixed rows of the transport block, used for mouse hit-testing.
const (
	timelineRow     = 2
	clockColumn     = 5 // "%5s"-padded clock label left of the bar
	transcriptTop   = 6
	chromeBelowRows = 1 // status bar
)

// Model is the player UI model.
type Model struct {
	session *core.Session
	ctrl    *player.Controller
	opts    Options

	// start begins audio event delivery; nil when there is no recording.
	start func()

	width  int
	height int

	// position is the playhead in seconds, fed by the controller
	// observer.
	position float64

	timelineView   *components.Timeline
	transcriptView *components.Transcript

	// markerCursor is the index of the last marker jumped to, -1
	// before any jump.
	markerCursor int

	// Transcript search state
	showSearch   bool
	searchInput  textinput.Model
	searchCursor int

	showHelp bool
	quitting bool
}

// NewModel creates the player model.
func NewModel(session *core.Session, ctrl *player.Controller, start func(), opts Options) Model {
	if opts.LatencyWarn == 0 {
		opts.LatencyWarn = 2
	}
	ti := textinput.New()
	ti.Placeholder = "Search transcript..."
	ti.CharLimit = 80
	ti.Width = 40

	return Model{
		session:        session,
		ctrl:           ctrl,
		opts:           opts,
		start:          start,
		timelineView:   components.NewTimeline(),
		transcriptView: components.NewTranscript(),
		markerCursor:   -1,
		searchInput:    ti,
		searchCursor:   -1,
	}
}

// Messages
type positionMsg float64
type playbackChangedMsg struct{}

// Init begins audio event delivery once the program loop is running.
func (m Model) Init() tea.Cmd {
	if m.start == nil {
		return nil
	}
	start := m.start
	return func() tea.Msg {
		start()
		return playbackChangedMsg{}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case positionMsg:
		m.position = float64(msg)
		return m, nil

	case playbackChangedMsg:
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}

	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if m.showSearch {
		return m.handleSearchKeyPress(msg)
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true

	case "/":
		m.showSearch = true
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		m.searchCursor = -1
		return m, textinput.Blink

	case " ":
		m.ctrl.TogglePlayback()
		m.position = m.ctrl.Snapshot().Current.Seconds()

	case "left", "h":
		m.ctrl.SeekBy(-m.opts.SeekStep)
		m.position = m.ctrl.Snapshot().Current.Seconds()

	case "right", "l":
		m.ctrl.SeekBy(m.opts.SeekStep)
		m.position = m.ctrl.Snapshot().Current.Seconds()

	case "n", "tab":
		m.jumpToMarker(1)

	case "p", "shift+tab":
		m.jumpToMarker(-1)

	case "j", "down":
		m.transcriptView.ScrollDown(len(m.session.Transcript), m.transcriptHeight())

	case "k", "up":
		m.transcriptView.ScrollUp()
	}

	return m, nil
}

// handleSearchKeyPress drives the transcript search input. Enter jumps
// to the next matching turn and keeps the search open for cycling.
func (m Model) handleSearchKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showSearch = false
		m.searchInput.Blur()
		return m, nil

	case "enter":
		matches := m.searchMatches()
		if len(matches) == 0 {
			return m, nil
		}
		next := -1
		for _, idx := range matches {
			if idx > m.searchCursor {
				next = idx
				break
			}
		}
		if next == -1 {
			next = matches[0]
		}
		m.searchCursor = next
		m.transcriptView.ScrollTo(next, len(m.session.Transcript), m.transcriptHeight())
		return m, nil
	}

	var inputCmd tea.Cmd
	m.searchInput, inputCmd = m.searchInput.Update(msg)
	return m, inputCmd
}

// searchMatches returns transcript indices containing the query,
// case-insensitive.
func (m Model) searchMatches() []int {
	query := strings.ToLower(strings.TrimSpace(m.searchInput.Value()))
	if query == "" {
		return nil
	}
	var matches []int
	for i, turn := range m.session.Transcript {
		if strings.Contains(strings.ToLower(turn.Content), query) {
			matches = append(matches, i)
		}
	}
	return matches
}

// handleMouse seeks on clicks landing on the timeline bar.
func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	if msg.Y != timelineRow {
		return m, nil
	}

	barLeft := clockColumn + 1
	barWidth := m.barWidth()
	if msg.X < barLeft || msg.X >= barLeft+barWidth || barWidth < 1 {
		return m, nil
	}

	snap := m.ctrl.Snapshot()
	if !snap.HasDuration() {
		return m, nil
	}

	fraction := float64(msg.X-barLeft) / float64(barWidth)
	seconds := timeline.TimeAtFraction(fraction, snap.Duration.Seconds())
	m.ctrl.Seek(time.Duration(seconds * float64(time.Second)))
	m.position = m.ctrl.Snapshot().Current.Seconds()
	return m, nil
}

// jumpToMarker seeks to the next/previous latency marker and scrolls
// the transcript to its turn.
func (m *Model) jumpToMarker(dir int) {
	snap := m.ctrl.Snapshot()
	markers := m.markers(snap)
	if len(markers) == 0 {
		return
	}

	m.markerCursor += dir
	if m.markerCursor >= len(markers) {
		m.markerCursor = 0
	}
	if m.markerCursor < 0 {
		m.markerCursor = len(markers) - 1
	}

	marker := markers[m.markerCursor]
	seconds := timeline.TimeAtFraction(marker.Position, snap.Duration.Seconds())
	m.ctrl.Seek(time.Duration(seconds * float64(time.Second)))
	m.position = m.ctrl.Snapshot().Current.Seconds()
	m.transcriptView.ScrollTo(marker.TurnIndex, len(m.session.Transcript), m.transcriptHeight())
}

func (m Model) barWidth() int {
	w := m.width - 2*clockColumn - 2
	if w < 10 {
		w = 10
	}
	return w
}

func (m Model) transcriptHeight() int {
	h := m.height - transcriptTop - chromeBelowRows
	if h < 1 {
		h = 1
	}
	return h
}

func (m Model) markers(snap core.PlaybackState) []timeline.Marker {
	return timeline.Markers(m.session.Transcript, m.startTime(), snap.Duration.Seconds())
}

func (m Model) startTime() float64 {
	return timeline.StartTime(m.session.Transcript)
}

// View renders the UI. Markers and spans are recomputed every frame
// from the snapshot; nothing is cached between renders.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	snap := m.ctrl.Snapshot()
	startTime := m.startTime()
	markers := m.markers(snap)
	spans := timeline.FreezeSpans(m.session.FreezeEvents, startTime, snap.Duration.Seconds())

	header := m.renderHeader(snap)
	transport := m.renderTransport(snap, markers, spans)
	transcript := m.transcriptView.Render(
		m.session.Transcript, startTime, m.position,
		m.width, m.transcriptHeight(), m.opts.LatencyWarn,
	)
	statusBar := m.renderStatusBar(snap)

	body := lipgloss.JoinVertical(lipgloss.Left, header, "", transport, transcript)

	gap := m.height - lipgloss.Height(body) - 1
	for i := 0; i < gap; i++ {
		body += "\n"
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, statusBar)
}

func (m Model) renderHeader(snap core.PlaybackState) string {
	title := styles.Title.Render("Session " + m.session.ID)

	var state string
	switch snap.State {
	case core.StateNoSource:
		state = styles.Paused.Render("No recording available")
	case core.StateLoading:
		state = styles.Muted.Render("Loading…")
	case core.StateEnded:
		state = styles.Muted.Render("Ended")
	default:
		state = styles.StatusIcon(snap.Playing)
	}

	return " " + title + "  " + state
}

// renderTransport emits exactly three lines (bar, freeze row, marker
// line) so the mouse hit-testing rows stay fixed.
func (m Model) renderTransport(snap core.PlaybackState, markers []timeline.Marker, spans []timeline.Span) string {
	barWidth := m.barWidth()

	current := fmt.Sprintf("%*s", clockColumn, timeline.FormatClock(m.position))
	total := "--:--"
	if snap.HasDuration() {
		total = timeline.FormatClock(snap.Duration.Seconds())
	}

	bar := styles.Muted.Render(current) + " " +
		m.timelineView.RenderBar(snap, markers, barWidth) + " " +
		styles.Muted.Render(total)

	freezeRow := styles.Repeat(" ", clockColumn+1) + m.timelineView.RenderFreezeRow(spans, barWidth)

	markerLine := styles.Dim.Render(fmt.Sprintf(" %d latency markers, %d freezes", len(markers), len(spans)))
	if m.markerCursor >= 0 && m.markerCursor < len(markers) {
		marker := markers[m.markerCursor]
		at := timeline.TimeAtFraction(marker.Position, snap.Duration.Seconds())
		markerLine = " " + styles.MarkerStyle.Render("◆ "+marker.Label()) +
			styles.Muted.Render(fmt.Sprintf(" response latency at %s (turn %d)", timeline.FormatClock(at), marker.TurnIndex+1))
	}

	return bar + "\n" + freezeRow + "\n" + markerLine + "\n"
}

func (m Model) renderStatusBar(snap core.PlaybackState) string {
	status := styles.Dim.Render("q:quit  ?:help  space:play/pause  ←/→:seek  n/p:markers  /:search  j/k:transcript  click:scrub")

	if m.showSearch {
		hits := ""
		if matches := m.searchMatches(); len(matches) > 0 {
			hits = styles.Muted.Render(fmt.Sprintf("  %d matches, enter:next  esc:close", len(matches)))
		}
		status = m.searchInput.View() + hits
	} else if err := m.ctrl.Err(); err != nil {
		status = styles.Paused.Render("Playback error: " + err.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := "Voxtape Player - Keyboard Shortcuts"
	divider := styles.Repeat("═", len(title))

	help := `
  ` + title + `
  ` + divider + `

  Playback
  ────────
  Space        Play/Pause (restarts when ended)
  ←/h          Seek back
  →/l          Seek forward
  Click bar    Scrub to position

  Markers
  ───────
  n, Tab       Next latency marker
  p, Shift+Tab Previous latency marker

  Transcript
  ──────────
  j/↓          Scroll down
  k/↑          Scroll up
  /            Search, Enter cycles matches

  Press ? or Esc to close, q to quit
`

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(styles.BorderStyle.Render(help))
}

// Run opens the player for a session. audioPath may be empty when the
// session has no recording; the transcript is still browsable and the
// transport shows the no-recording state.
func Run(session *core.Session, audioPath string, opts Options) error {
	ctrl := player.New()
	defer ctrl.Close()

	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}

	var start func()
	if audioPath != "" {
		events := ctrl.Events()
		out, err := audio.NewOutput(audioPath, opts.TickInterval, player.Events{
			PositionTick: events.PositionTick,
			MetadataReady: func(d time.Duration) {
				events.MetadataReady(d)
				send(playbackChangedMsg{})
			},
			Ended: func() {
				events.Ended()
				send(playbackChangedMsg{})
			},
			PlaybackError: func(err error) {
				events.PlaybackError(err)
				send(playbackChangedMsg{})
			},
		})
		if err != nil {
			return err
		}
		ctrl.Load(out)
		start = out.Start
	} else {
		ctrl.Load(nil)
	}

	ctrl.SetObserver(func(seconds float64) {
		send(positionMsg(seconds))
	})

	model := NewModel(session, ctrl, start, opts)
	program = tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	_, err := program.Run()
	return err
}
