// Package dashboard wires the 3D view components into one engine driven
// by host hooks.
//
// The Engine owns the scene, camera tracker, interaction gate, history,
// playback mode, display selection and latest snapshot. It is not safe for
// concurrent use: a host calls it from a single goroutine (the Bubble Tea
// update loop, or a [Runner]).
package dashboard

import (
	"log/slog"
	"sort"
	"time"

	"github.com/san-kum/neurodash/internal/activation"
	"github.com/san-kum/neurodash/internal/camera"
	"github.com/san-kum/neurodash/internal/controller"
	"github.com/san-kum/neurodash/internal/history"
	"github.com/san-kum/neurodash/internal/interaction"
	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/playback"
	"github.com/san-kum/neurodash/internal/scene"
	"github.com/san-kum/neurodash/internal/surface"
	"github.com/san-kum/neurodash/internal/timeutil"
)

type Options struct {
	Regions         activation.Assignments
	Params          activation.Params
	Scene           scene.Options
	Window          time.Duration
	HistoryCapacity int
	// Sensors is the configured sensor order used when cycling selection.
	Sensors []neuro.SensorID
	// Display is the initial selection; zero means individual(first sensor).
	Display *controller.Display
}

// Stats counts applied decisions.
type Stats struct {
	NoOps    int
	Patches  int
	Rebuilds int
}

type Engine struct {
	logger *slog.Logger

	ctrl    *controller.Controller
	builder *scene.Builder
	tracker *camera.Tracker
	gate    *interaction.Gate
	history *history.Buffer

	mode    playback.Mode
	display controller.Display
	latest  neuro.Snapshot
	scene   *scene.Scene
	sensors []neuro.SensorID

	stats Stats
	last  controller.Result
}

func New(surfaces *surface.Provider, opts Options, clock timeutil.Clock, logger *slog.Logger) *Engine {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if opts.Params == (activation.Params{}) {
		opts.Params = activation.DefaultParams()
	}
	logger = log.Component(logger, "engine")

	synth := activation.New(surfaces, opts.Regions, opts.Params)
	builder := scene.NewBuilder(surfaces, opts.Scene, logger)

	e := &Engine{
		logger:  logger,
		ctrl:    controller.New(synth, builder, logger),
		builder: builder,
		tracker: camera.NewTracker(logger),
		gate:    interaction.NewGate(clock, opts.Window, logger),
		history: history.NewBuffer(opts.HistoryCapacity, clock),
		mode:    playback.LiveMode(),
		sensors: append([]neuro.SensorID(nil), opts.Sensors...),
	}
	switch {
	case opts.Display != nil:
		e.display = *opts.Display
	case len(e.sensors) > 0:
		e.display = controller.Individual(e.sensors[0])
	default:
		e.display = controller.AllSensors()
	}
	return e
}

func (e *Engine) tick(trigger controller.Trigger) controller.Tick {
	return controller.Tick{
		Trigger:     trigger,
		Live:        e.latest,
		Mode:        e.mode,
		Interaction: e.gate.State(),
		Camera:      e.tracker.Current(),
		Display:     e.display,
		Scene:       e.scene,
	}
}

func (e *Engine) evaluate(trigger controller.Trigger) controller.Result {
	t := e.tick(trigger)
	res := e.ctrl.Evaluate(t)
	return e.apply(t, res)
}

func (e *Engine) apply(t controller.Tick, res controller.Result) controller.Result {
	switch res.Action {
	case controller.NoOp:
		e.stats.NoOps++
	case controller.Rebuild:
		e.scene = res.Scene
		e.stats.Rebuilds++
	case controller.Patch:
		if err := e.scene.PatchIntensity(res.Fields); err != nil {
			e.logger.Warn("patch rejected, rebuilding", "error", err)
			res = e.ctrl.Rebuild(t)
			e.scene = res.Scene
			e.stats.Rebuilds++
			break
		}
		e.stats.Patches++
	}
	e.last = res
	e.logger.Debug("tick", "trigger", t.Trigger, "action", res.Action, "reason", res.Reason)
	return res
}

// OnSnapshot stores a new live snapshot, appends it to history while live,
// and evaluates a routine refresh.
func (e *Engine) OnSnapshot(s neuro.Snapshot) controller.Result {
	e.latest = s.Clone()
	if e.mode.IsLive() {
		e.history.Append(e.latest)
	}
	return e.evaluate(controller.NewSnapshot)
}

// OnTick evaluates a periodic refresh.
func (e *Engine) OnTick() controller.Result {
	return e.evaluate(controller.Timer)
}

func (e *Engine) SelectSensor(id neuro.SensorID) controller.Result {
	e.display = controller.Individual(id)
	return e.evaluate(controller.SensorSelection)
}

func (e *Engine) SetDisplay(d controller.Display) controller.Result {
	e.display = d
	return e.evaluate(controller.DisplayMode)
}

// CycleSensor moves the individual selection by step through the
// configured sensors.
func (e *Engine) CycleSensor(step int) controller.Result {
	if len(e.sensors) == 0 {
		return e.SetDisplay(controller.AllSensors())
	}
	n := len(e.sensors)
	// From All or an unlisted sensor, forward lands on the first sensor
	// and backward on the last.
	cur := -1
	if step < 0 {
		cur = n
	}
	if !e.display.All {
		for i, id := range e.sensors {
			if id == e.display.Sensor {
				cur = i
				break
			}
		}
	}
	idx := ((cur+step)%n + n) % n
	return e.SelectSensor(e.sensors[idx])
}

// Pause freezes the view on the latest snapshot.
func (e *Engine) Pause() controller.Result {
	e.mode = playback.PausedMode(e.latest)
	return e.evaluate(controller.Playback)
}

// Resume returns to live mode.
func (e *Engine) Resume() controller.Result {
	e.mode = playback.LiveMode()
	return e.evaluate(controller.Playback)
}

// SelectTime enters historical mode at the point nearest t. With an empty
// history the mode is left unchanged and neuro.ErrEmptyHistory is returned.
func (e *Engine) SelectTime(t float64) (controller.Result, error) {
	m, err := playback.HistoricalAt(e.history, t)
	if err != nil {
		return controller.Result{Action: controller.NoOp, Reason: "empty history"}, err
	}
	e.mode = m
	return e.evaluate(controller.Playback), nil
}

// Step moves a historical selection by n points, entering historical mode
// at the newest point when live or paused.
func (e *Engine) Step(n int) (controller.Result, error) {
	if e.history.Len() == 0 {
		return controller.Result{Action: controller.NoOp, Reason: "empty history"}, neuro.ErrEmptyHistory
	}
	idx := e.history.Len() - 1
	if e.mode.Kind == playback.Historical {
		for i, p := range e.history.Points() {
			if p.T == e.mode.At {
				idx = i + n
				break
			}
		}
	}
	idx = min(max(idx, 0), e.history.Len()-1)
	p, _ := e.history.At(idx)
	return e.SelectTime(p.T)
}

// ResetHistory clears the timeline. A historical selection has nothing
// left to scrub, so it returns to live.
func (e *Engine) ResetHistory() controller.Result {
	e.history.Reset()
	if e.mode.Kind == playback.Historical {
		return e.Resume()
	}
	return controller.Result{Action: controller.NoOp, Reason: "history reset"}
}

// OnViewChange feeds the fallback interaction signal and stores any camera
// change.
func (e *Engine) OnViewChange(upd camera.Update) bool {
	e.gate.ViewChange()
	return e.tracker.Observe(upd)
}

// OnRelayout handles a web-style relayout payload.
func (e *Engine) OnRelayout(payload map[string]any) bool {
	upd, ok := camera.FromRelayout(payload)
	if !ok {
		return false
	}
	return e.OnViewChange(upd)
}

func (e *Engine) OnPress()   { e.gate.Press() }
func (e *Engine) OnRelease() { e.gate.Release() }

// Scene returns a copy of the current scene, or nil before the first build.
func (e *Engine) Scene() *scene.Scene { return e.scene.Clone() }

func (e *Engine) Camera() camera.Orientation     { return e.tracker.Current() }
func (e *Engine) CameraVersion() uint64          { return e.tracker.Version() }
func (e *Engine) Interaction() interaction.State { return e.gate.State() }
func (e *Engine) Mode() playback.Mode            { return e.mode }
func (e *Engine) Display() controller.Display    { return e.display }
func (e *Engine) Latest() neuro.Snapshot         { return e.latest.Clone() }
func (e *Engine) Sensors() []neuro.SensorID      { return append([]neuro.SensorID(nil), e.sensors...) }
func (e *Engine) Stats() Stats                   { return e.stats }
func (e *Engine) LastResult() controller.Result  { return e.last }
func (e *Engine) HistorySeries() history.Series  { return e.history.Series() }
func (e *Engine) HistoryPoints() []history.Point { return e.history.Points() }
func (e *Engine) HistoryOrigin() time.Time       { return e.history.Origin() }
func (e *Engine) ColorDomain() float64           { return e.builder.Options().Domain }

// EventKind identifies a hook in a batched dispatch.
type EventKind int

const (
	EventSnapshot EventKind = iota
	EventTick
	EventSelectSensor
	EventDisplay
	EventPause
	EventResume
	EventSelectTime
	EventResetHistory
	EventViewChange
	EventPress
	EventRelease
)

// Event is one hook invocation.
type Event struct {
	Kind     EventKind
	Snapshot neuro.Snapshot
	Sensor   neuro.SensorID
	Display  controller.Display
	Time     float64
	Camera   camera.Update
}

func (k EventKind) interaction() bool {
	return k == EventViewChange || k == EventPress || k == EventRelease
}

// Dispatch handles a batch of events that arrived together. Interaction
// and camera events run first, in their original order, so a tick in the
// same batch sees the new interaction state.
func (e *Engine) Dispatch(events []Event) []controller.Result {
	ordered := append([]Event(nil), events...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Kind.interaction() && !ordered[j].Kind.interaction()
	})

	var results []controller.Result
	for _, ev := range ordered {
		switch ev.Kind {
		case EventViewChange:
			e.OnViewChange(ev.Camera)
		case EventPress:
			e.OnPress()
		case EventRelease:
			e.OnRelease()
		case EventSnapshot:
			results = append(results, e.OnSnapshot(ev.Snapshot))
		case EventTick:
			results = append(results, e.OnTick())
		case EventSelectSensor:
			results = append(results, e.SelectSensor(ev.Sensor))
		case EventDisplay:
			results = append(results, e.SetDisplay(ev.Display))
		case EventPause:
			results = append(results, e.Pause())
		case EventResume:
			results = append(results, e.Resume())
		case EventSelectTime:
			res, err := e.SelectTime(ev.Time)
			if err != nil {
				e.logger.Info("time selection ignored", "error", err)
			}
			results = append(results, res)
		case EventResetHistory:
			results = append(results, e.ResetHistory())
		}
	}
	return results
}
