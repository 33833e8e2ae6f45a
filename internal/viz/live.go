package viz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/neurodash/internal/camera"
	"github.com/san-kum/neurodash/internal/controller"
	"github.com/san-kum/neurodash/internal/dashboard"
	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/playback"
	"github.com/san-kum/neurodash/internal/timeutil"
)

const (
	width      = 80
	height     = 24
	panelWidth = 50
)

// Marker stores labelled event marks for a session.
type Marker interface {
	RecordEvent(ctx context.Context, session string, at time.Time, label string) error
}

type Options struct {
	Poller   dashboard.Poller
	Recorder dashboard.Recorder
	Marker   Marker
	Session  string
	// Events are the labels cycled through by the mark key.
	Events []string
	// Params lists the metrics shown as bars, in order.
	Params       []string
	PollInterval time.Duration
	TickInterval time.Duration
	Clock        timeutil.Clock
	Logger       *slog.Logger
}

type (
	tickMsg     time.Time
	pollMsg     time.Time
	snapshotMsg struct {
		at   time.Time
		snap neuro.Snapshot
		err  error
	}
	markedMsg struct {
		label string
		err   error
	}
)

type drag struct {
	active bool
	x, y   int
}

// Model is the Bubble Tea program around one dashboard engine. All engine
// calls happen in Update, so the engine is only touched by one goroutine.
type Model struct {
	engine *dashboard.Engine
	opts   Options
	logger *slog.Logger
	ctx    context.Context

	canvas        *Canvas
	width, height int

	drag      drag
	nextEvent int
	status    string
	pollErr   error
	showHelp  bool
	showDebug bool
}

func NewModel(engine *dashboard.Engine, opts Options) Model {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	if len(opts.Params) == 0 {
		opts.Params = []string{neuro.MetricSignal, neuro.MetricAttention, neuro.MetricMeditation}
	}
	return Model{
		engine: engine,
		opts:   opts,
		logger: log.Component(opts.Logger, "tui"),
		ctx:    context.Background(),
		canvas: NewCanvas(width-panelWidth, height-2),
		width:  width,
		height: height,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick()}
	if m.opts.Poller != nil {
		cmds = append(cmds, m.poll())
	}
	return tea.Batch(cmds...)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) schedulePoll() tea.Cmd {
	return tea.Tick(m.opts.PollInterval, func(t time.Time) tea.Msg { return pollMsg(t) })
}

func (m Model) poll() tea.Cmd {
	poller, clock, ctx := m.opts.Poller, m.opts.Clock, m.ctx
	return func() tea.Msg {
		snap, err := poller.Poll(ctx)
		return snapshotMsg{at: clock.Now(), snap: snap, err: err}
	}
}

func (m Model) record(at time.Time, snap neuro.Snapshot) tea.Cmd {
	rec, logger, ctx := m.opts.Recorder, m.logger, m.ctx
	if rec == nil {
		return nil
	}
	return func() tea.Msg {
		if err := rec.Record(ctx, at, snap); err != nil {
			logger.Warn("record failed", "error", err)
		}
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg), nil
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.canvas.Resize(max(m.width-panelWidth-4, 10), max(m.height-3, 5))
		return m, nil
	case tickMsg:
		m.engine.OnTick()
		return m, m.tick()
	case pollMsg:
		return m, m.poll()
	case snapshotMsg:
		if msg.err != nil {
			m.pollErr = msg.err
			m.logger.Warn("poll failed", "error", msg.err)
			return m, m.schedulePoll()
		}
		m.pollErr = nil
		m.engine.OnSnapshot(msg.snap)
		return m, tea.Batch(m.record(msg.at, msg.snap), m.schedulePoll())
	case markedMsg:
		if msg.err != nil {
			m.status = "mark failed: " + msg.err.Error()
		} else {
			m.status = "marked " + msg.label
		}
		return m, nil
	}
	return m, nil
}

// currentView is the camera the canvas is drawn with: the stored
// orientation when it resolves, else the scene's camera, else defaults.
func (m Model) currentView() *camera.View {
	if v, err := m.engine.Camera().Resolve(); err == nil && v != nil {
		return v
	}
	if s := m.engine.Scene(); s != nil {
		return s.Camera
	}
	return nil
}

func (m Model) View() string {
	sc := m.engine.Scene()

	var left string
	switch {
	case sc == nil:
		left = m.placeholder(controller.MessageWaiting, "")
	case sc.Placeholder:
		left = m.placeholder(sc.Annotation, sc.Title)
	default:
		m.canvas.Clear()
		RenderScene(m.canvas, sc, m.currentView(), m.engine.ColorDomain())
		left = m.canvas.Render()
	}
	left = canvasStyle.Render(left)

	main := lipgloss.JoinHorizontal(lipgloss.Top, left, panelStyle().Render(m.panel()))
	if m.showHelp {
		return helpOverlay() + "\n" + main
	}
	return main
}

func (m Model) placeholder(message, title string) string {
	box := lipgloss.NewStyle().
		Width(m.canvas.Width).
		Height(m.canvas.Height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(CurrentTheme.Muted)
	text := message
	if title != "" {
		text = title + "\n\n" + message
	}
	return box.Render(text)
}

func (m Model) panel() string {
	var s strings.Builder

	title := "neurodash"
	if sc := m.engine.Scene(); sc != nil {
		title = sc.Title
	}
	s.WriteString(GradientText(title, string(CurrentTheme.Primary), string(CurrentTheme.Accent)) + "\n\n")

	mode := m.engine.Mode()
	label := strings.ToUpper(mode.Kind.String())
	if l := mode.Label(); l != "" {
		label = strings.ToUpper(l)
	}
	status := lipgloss.NewStyle().Foreground(CurrentTheme.ModeColor(mode.Kind)).Bold(true).Render(label)
	if m.engine.Interaction().Interacting {
		status += "  " + lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render("◉ interacting")
	}
	s.WriteString(status + "\n")
	if m.pollErr != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render("poll: "+m.pollErr.Error()) + "\n")
	}
	s.WriteString("\n")

	s.WriteString(labelStyle().Render("Display") + valueStyle().Render(m.engine.Display().String()) + "\n")
	if m.opts.Session != "" {
		s.WriteString(labelStyle().Render("Session") + valueStyle().Render(shortID(m.opts.Session)) + "\n")
	}

	s.WriteString(m.timeline())
	s.WriteString(m.metrics(mode))

	domain := m.engine.ColorDomain()
	s.WriteString("\n" + Legend(domain, 30) + "\n")
	s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Render(fmt.Sprintf("%-15s%15s", fmt.Sprintf("-%.0f", domain), fmt.Sprintf("+%.0f", domain))) + "\n")

	if m.showDebug {
		s.WriteString("\n" + Separator(40) + "\n" + m.debug())
	}
	if m.status != "" {
		s.WriteString("\n" + valueStyle().Render(m.status) + "\n")
	}
	s.WriteString(helpStyle.Render(keyStyle().Render("?") + labelStyle().UnsetWidth().Render(" help  ") +
		keyStyle().Render("q") + labelStyle().UnsetWidth().Render(" quit")))
	return s.String()
}

func (m Model) timeline() string {
	series := m.engine.HistorySeries()
	if len(series.T) < 2 {
		return "\n"
	}
	caption := "attention / meditation"
	if mode := m.engine.Mode(); mode.Kind == playback.Historical {
		caption += fmt.Sprintf("  @ %.1fs", mode.At)
	}
	chart := asciigraph.PlotMany([][]float64{series.Attention, series.Meditation},
		asciigraph.Height(5),
		asciigraph.Width(34),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue),
		asciigraph.Caption(caption),
	)
	return graphStyle.Render(chart) + "\n"
}

func (m Model) metrics(mode playback.Mode) string {
	active := mode.Active(m.engine.Latest())
	var s strings.Builder

	display := m.engine.Display()
	if display.All {
		for _, id := range active.Sensors() {
			r, _ := active.Reading(id)
			s.WriteString(fmt.Sprintf("%-10s A %s M %s\n", id,
				MetricBar(r.Value(neuro.MetricAttention, neuro.Missing), 10),
				MetricBar(r.Value(neuro.MetricMeditation, neuro.Missing), 10)))
		}
		return s.String()
	}

	r, ok := active.Reading(display.Sensor)
	if !ok {
		return labelStyle().UnsetWidth().Render("  (no reading)") + "\n"
	}
	for _, name := range m.opts.Params {
		v := r.Value(name, neuro.Missing)
		val := "  --"
		if !neuro.IsMissing(v) {
			val = fmt.Sprintf("%5.1f", v)
		}
		s.WriteString(fmt.Sprintf("%-16s %s %s\n", name, MetricBar(v, 16), val))
	}
	return s.String()
}

func (m Model) debug() string {
	var s strings.Builder
	eye, center, up := m.currentView().Vectors()
	s.WriteString(fmt.Sprintf("eye     %s\n", vec(eye.X, eye.Y, eye.Z)))
	s.WriteString(fmt.Sprintf("center  %s\n", vec(center.X, center.Y, center.Z)))
	s.WriteString(fmt.Sprintf("up      %s\n", vec(up.X, up.Y, up.Z)))
	s.WriteString(fmt.Sprintf("camera  v%d\n", m.engine.CameraVersion()))

	st := m.engine.Interaction()
	idle := "never"
	if !st.LastInteraction.IsZero() {
		idle = m.opts.Clock.Since(st.LastInteraction).Truncate(100 * time.Millisecond).String()
	}
	s.WriteString(fmt.Sprintf("gate    interacting=%t idle=%s\n", st.Interacting, idle))

	stats := m.engine.Stats()
	s.WriteString(fmt.Sprintf("ticks   noop=%d patch=%d rebuild=%d\n", stats.NoOps, stats.Patches, stats.Rebuilds))
	last := m.engine.LastResult()
	s.WriteString(fmt.Sprintf("last    %s (%s)\n", last.Action, last.Reason))
	return s.String()
}

func vec(x, y, z float64) string {
	return fmt.Sprintf("(%6.2f, %6.2f, %6.2f)", x, y, z)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func helpOverlay() string {
	return `
╔══════════════════════════════════════════╗
║              KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════════╣
║  Space      - Pause/Resume live view     ║
║  [ ]        - Step back/forward history  ║
║  { }        - Step 10 points             ║
║  Tab        - Next sensor (S-Tab prev)   ║
║  A          - Toggle all sensors         ║
║  R          - Reset history              ║
║  E          - Mark next event            ║
║  ←→↑↓/hjkl  - Rotate view                ║
║  + -        - Zoom                       ║
║  0          - Reset camera               ║
║  D          - Debug overlay              ║
║  T          - Cycle themes               ║
║  ?          - Toggle this help           ║
║  Q          - Quit                       ║
╚══════════════════════════════════════════╝`
}

// Run starts the program on the alternate screen with mouse tracking.
func Run(ctx context.Context, engine *dashboard.Engine, opts Options) error {
	m := NewModel(engine, opts)
	m.ctx = ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
