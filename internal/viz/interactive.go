package viz

import (
	"errors"
	"math"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/neurodash/internal/camera"
	"github.com/san-kum/neurodash/internal/controller"
	"github.com/san-kum/neurodash/internal/neuro"
)

const (
	// orbitStep is the rotation per key press, in radians.
	orbitStep = math.Pi / 36
	dragYaw   = 0.05
	dragPitch = 0.08
	zoomIn    = 0.9
	zoomOut   = 1 / zoomIn
)

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		if m.engine.Mode().IsLive() {
			m.engine.Pause()
		} else {
			m.engine.Resume()
		}
	case "[":
		m.step(-1)
	case "]":
		m.step(1)
	case "{":
		m.step(-10)
	case "}":
		m.step(10)
	case "tab":
		m.engine.CycleSensor(1)
	case "shift+tab":
		m.engine.CycleSensor(-1)
	case "a":
		m.toggleAll()
	case "R":
		m.engine.ResetHistory()
		m.status = "history cleared"
	case "e":
		return m.mark()
	case "left", "h":
		m.orbit(-orbitStep, 0, 0)
	case "right", "l":
		m.orbit(orbitStep, 0, 0)
	case "up", "k":
		m.orbit(0, orbitStep, 0)
	case "down", "j":
		m.orbit(0, -orbitStep, 0)
	case "+", "=":
		m.orbit(0, 0, zoomIn)
	case "-", "_":
		m.orbit(0, 0, zoomOut)
	case "0":
		m.engine.OnViewChange(camera.Update{
			Eye:    camera.Vec(camera.DefaultEye),
			Center: camera.Vec(camera.DefaultCenter),
			Up:     camera.Vec(camera.DefaultUp),
		})
	case "d":
		m.showDebug = !m.showDebug
	case "?":
		m.showHelp = !m.showHelp
	case "t":
		NextTheme()
	}
	return m, nil
}

func (m *Model) step(n int) {
	if _, err := m.engine.Step(n); err != nil {
		if errors.Is(err, neuro.ErrEmptyHistory) {
			m.status = "no history yet"
			return
		}
		m.status = err.Error()
	}
}

func (m *Model) toggleAll() {
	if !m.engine.Display().All {
		m.engine.SetDisplay(controller.AllSensors())
		return
	}
	if sensors := m.engine.Sensors(); len(sensors) > 0 {
		m.engine.SelectSensor(sensors[0])
	}
}

func (m Model) mark() (tea.Model, tea.Cmd) {
	if len(m.opts.Events) == 0 {
		m.status = "no event labels configured"
		return m, nil
	}
	label := m.opts.Events[m.nextEvent%len(m.opts.Events)]
	m.nextEvent++
	if m.opts.Marker == nil {
		m.status = "marked " + label + " (not recorded)"
		return m, nil
	}

	marker, ctx, session, at := m.opts.Marker, m.ctx, m.opts.Session, m.opts.Clock.Now()
	return m, func() tea.Msg {
		return markedMsg{label: label, err: marker.RecordEvent(ctx, session, at, label)}
	}
}

// orbit rotates the drawn view and reports it as a camera change.
func (m *Model) orbit(yaw, pitch, zoom float64) {
	m.engine.OnViewChange(camera.Orbit(m.currentView(), yaw, pitch, zoom))
}

// inViewport reports whether a terminal cell lies on the drawn scene.
func (m Model) inViewport(x, y int) bool {
	left, top := canvasStyle.GetPaddingLeft(), canvasStyle.GetPaddingTop()
	if m.showHelp {
		top += lipgloss.Height(helpOverlay()) + 1
	}
	return x >= left && x < left+m.canvas.Width && y >= top && y < top+m.canvas.Height
}

// handleMouse maps a left-button drag to press, view changes and release,
// and the wheel to zoom. Presses and the wheel only count on the viewport;
// a release ends a drag wherever it happens.
func (m Model) handleMouse(msg tea.MouseMsg) Model {
	inside := m.inViewport(msg.X, msg.Y)
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		if inside {
			m.orbit(0, 0, zoomIn)
		}
	case msg.Button == tea.MouseButtonWheelDown:
		if inside {
			m.orbit(0, 0, zoomOut)
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inside:
		m.drag = drag{active: true, x: msg.X, y: msg.Y}
		m.engine.OnPress()
	case msg.Action == tea.MouseActionMotion && m.drag.active:
		dx, dy := msg.X-m.drag.x, msg.Y-m.drag.y
		if dx != 0 || dy != 0 {
			m.orbit(-float64(dx)*dragYaw, float64(dy)*dragPitch, 0)
			m.drag.x, m.drag.y = msg.X, msg.Y
		}
	case msg.Action == tea.MouseActionRelease && m.drag.active:
		m.drag = drag{}
		m.engine.OnRelease()
	}
	return m
}
