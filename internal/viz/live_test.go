package viz

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/activation"
	"github.com/san-kum/neurodash/internal/controller"
	"github.com/san-kum/neurodash/internal/dashboard"
	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/playback"
	"github.com/san-kum/neurodash/internal/surface"
	"github.com/san-kum/neurodash/internal/timeutil"
)

type marks struct {
	labels []string
}

func (m *marks) RecordEvent(ctx context.Context, session string, at time.Time, label string) error {
	m.labels = append(m.labels, label)
	return nil
}

func newTestModel(t *testing.T) (Model, *timeutil.MockClock) {
	t.Helper()
	clock := timeutil.NewMockClock(time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))
	provider := surface.NewProvider(surface.EllipsoidLoader{
		Stacks: 6, Slices: 8, Radii: r3.Vec{X: 3, Y: 8, Z: 5}, Offset: 4, Medial: 0.3,
	}, log.Discard())
	engine := dashboard.New(provider, dashboard.Options{
		Regions: activation.Assignments{
			"sensor_a": {{Half: neuro.Left, Anchor: r3.Vec{X: 0.3, Y: 0.2, Z: 0.7}, Metric: neuro.MetricAttention, BaseFactor: 0.25}},
			"sensor_b": {{Half: neuro.Right, Anchor: r3.Vec{X: 0.7, Y: 0.8, Z: 0.6}, Metric: neuro.MetricMeditation, BaseFactor: 0.25}},
		},
		Window:          2 * time.Second,
		HistoryCapacity: 10,
		Sensors:         []neuro.SensorID{"sensor_a", "sensor_b"},
	}, clock, log.Discard())

	m := NewModel(engine, Options{
		Session: "0f8fad5b-d9cb-469f-a165-70867728950e",
		Events:  []string{"baseline", "stimulus"},
		Clock:   clock,
		Logger:  log.Discard(),
	})
	return m, clock
}

func snapshot(att float64) neuro.Snapshot {
	s := neuro.NewSnapshot("s")
	s.Set("sensor_a", neuro.Reading{neuro.MetricAttention: att, neuro.MetricMeditation: 50, neuro.MetricSignal: 90})
	s.Set("sensor_b", neuro.Reading{neuro.MetricAttention: 50, neuro.MetricMeditation: att, neuro.MetricSignal: 90})
	return s
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestSnapshotBuildsScene(t *testing.T) {
	m, _ := newTestModel(t)
	if !strings.Contains(m.View(), controller.MessageWaiting) {
		t.Error("expected waiting placeholder before data")
	}

	m, cmd := update(t, m, snapshotMsg{at: time.Now(), snap: snapshot(70)})
	if cmd == nil {
		t.Error("expected the next poll to be scheduled")
	}
	sc := m.engine.Scene()
	if !sc.Drawable() {
		t.Fatalf("expected a drawable scene, got %+v", sc)
	}
	if !strings.Contains(m.View(), "SENSOR_A") {
		t.Error("expected the sensor in the title")
	}
}

func TestSpaceTogglesPause(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, snapshotMsg{snap: snapshot(70)})

	m, _ = update(t, m, key(" "))
	if m.engine.Mode().Kind != playback.Paused {
		t.Fatalf("expected paused, got %v", m.engine.Mode().Kind)
	}
	m, _ = update(t, m, key(" "))
	if !m.engine.Mode().IsLive() {
		t.Fatalf("expected live, got %v", m.engine.Mode().Kind)
	}
}

func TestScrubEntersHistorical(t *testing.T) {
	m, clock := newTestModel(t)

	m, _ = update(t, m, key("["))
	if m.status != "no history yet" {
		t.Errorf("expected empty history status, got %q", m.status)
	}

	for i := 0; i < 3; i++ {
		m, _ = update(t, m, snapshotMsg{snap: snapshot(60 + float64(i))})
		clock.Advance(time.Second)
	}
	m, _ = update(t, m, key("["))
	mode := m.engine.Mode()
	if mode.Kind != playback.Historical {
		t.Fatalf("expected historical, got %v", mode.Kind)
	}
	if !strings.Contains(m.View(), "HISTORICAL") {
		t.Error("expected historical label in the panel")
	}
}

func TestTabAndAllToggle(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, key("tab"))
	if got := m.engine.Display(); got != controller.Individual("sensor_b") {
		t.Errorf("expected sensor_b, got %v", got)
	}
	m, _ = update(t, m, key("a"))
	if !m.engine.Display().All {
		t.Error("expected all sensors")
	}
	m, _ = update(t, m, key("a"))
	if got := m.engine.Display(); got != controller.Individual("sensor_a") {
		t.Errorf("expected sensor_a, got %v", got)
	}
}

func TestRotationMarksInteraction(t *testing.T) {
	m, _ := newTestModel(t)
	before := m.engine.CameraVersion()

	m, _ = update(t, m, key("l"))
	if m.engine.CameraVersion() == before {
		t.Error("expected the camera to change")
	}
	if !m.engine.Interaction().Interacting {
		t.Error("rotation should count as interaction")
	}
}

func TestMouseDrag(t *testing.T) {
	m, clock := newTestModel(t)
	m, _ = update(t, m, snapshotMsg{snap: snapshot(70)})

	m, _ = update(t, m, tea.MouseMsg{X: 10, Y: 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !m.engine.Interaction().Interacting || !m.drag.active {
		t.Fatal("press should start an interaction")
	}

	version := m.engine.CameraVersion()
	m, _ = update(t, m, tea.MouseMsg{X: 14, Y: 9, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	if m.engine.CameraVersion() == version {
		t.Error("drag should move the camera")
	}

	clock.Advance(500 * time.Millisecond)
	m, _ = update(t, m, tickMsg(clock.Now()))
	if got := m.engine.LastResult().Action; got != controller.NoOp {
		t.Errorf("tick during a drag should not touch the scene, got %v", got)
	}

	m, _ = update(t, m, tea.MouseMsg{X: 14, Y: 9, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if m.engine.Interaction().Interacting || m.drag.active {
		t.Error("release should end the interaction")
	}
}

func TestMarkCyclesEventLabels(t *testing.T) {
	m, _ := newTestModel(t)
	store := &marks{}
	m.opts.Marker = store

	for i := 0; i < 3; i++ {
		var cmd tea.Cmd
		m, cmd = update(t, m, key("e"))
		if cmd == nil {
			t.Fatal("expected a record command")
		}
		m, _ = update(t, m, cmd())
	}
	want := []string{"baseline", "stimulus", "baseline"}
	if strings.Join(store.labels, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, store.labels)
	}
	if m.status != "marked baseline" {
		t.Errorf("unexpected status %q", m.status)
	}
}

func TestWindowResize(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 50})
	if m.canvas.Width != 160-panelWidth-4 || m.canvas.Height != 47 {
		t.Errorf("unexpected canvas %dx%d", m.canvas.Width, m.canvas.Height)
	}
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestDebugOverlay(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, key("d"))
	view := m.View()
	for _, want := range []string{"eye", "camera  v0", "gate"} {
		if !strings.Contains(view, want) {
			t.Errorf("debug overlay missing %q", want)
		}
	}
}

func TestPressOutsideViewportIsIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, snapshotMsg{snap: snapshot(70)})

	panelX := m.canvas.Width + 10
	m, _ = update(t, m, tea.MouseMsg{X: panelX, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if m.engine.Interaction().Interacting || m.drag.active {
		t.Fatal("a press on the side panel should not start an interaction")
	}

	version := m.engine.CameraVersion()
	m, _ = update(t, m, tea.MouseMsg{X: panelX, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if m.engine.CameraVersion() != version {
		t.Error("the wheel over the side panel should not zoom")
	}

	if got := m.engine.OnSnapshot(snapshot(80)).Action; got == controller.NoOp {
		t.Errorf("expected the next snapshot to refresh the scene, got %v", got)
	}
}

func TestReleaseOutsideViewportEndsDrag(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = update(t, m, tea.MouseMsg{X: 5, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if !m.drag.active {
		t.Fatal("press inside the viewport should start a drag")
	}
	m, _ = update(t, m, tea.MouseMsg{X: m.canvas.Width + 10, Y: 5, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if m.drag.active || m.engine.Interaction().Interacting {
		t.Error("release should end the drag anywhere")
	}
}
