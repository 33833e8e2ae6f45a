// Package controller decides, once per trigger, whether the 3D scene is
// left alone, patched in place, or rebuilt.
//
// The policy is evaluated in order:
//
//  1. interacting, routine trigger, live: NoOp
//  2. paused or historical, routine trigger: NoOp
//  3. no data for the active selection: placeholder, delivered as Rebuild
//  4. explicit change, or no drawable scene: Rebuild with the stored camera
//  5. otherwise: Patch the intensity arrays only
//
// The controller reads the stored camera but never writes it.
package controller

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/san-kum/neurodash/internal/activation"
	"github.com/san-kum/neurodash/internal/camera"
	"github.com/san-kum/neurodash/internal/interaction"
	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/playback"
	"github.com/san-kum/neurodash/internal/scene"
)

// Trigger identifies which upstream signal fired.
type Trigger int

const (
	Timer Trigger = iota
	NewSnapshot
	SensorSelection
	DisplayMode
	Playback
)

func (t Trigger) String() string {
	switch t {
	case Timer:
		return "timer"
	case NewSnapshot:
		return "snapshot"
	case SensorSelection:
		return "sensor_selection"
	case DisplayMode:
		return "display_mode"
	case Playback:
		return "playback"
	}
	return "unknown"
}

// Routine reports whether the trigger is a data or timer refresh rather
// than an explicit user request.
func (t Trigger) Routine() bool { return t == Timer || t == NewSnapshot }

// Display selects which sensors drive the scene.
type Display struct {
	All    bool
	Sensor neuro.SensorID
}

func AllSensors() Display                  { return Display{All: true} }
func Individual(id neuro.SensorID) Display { return Display{Sensor: id} }

func (d Display) String() string {
	if d.All {
		return "all"
	}
	return "individual(" + string(d.Sensor) + ")"
}

type Action int

const (
	NoOp Action = iota
	Patch
	Rebuild
)

func (a Action) String() string {
	switch a {
	case NoOp:
		return "noop"
	case Patch:
		return "patch"
	case Rebuild:
		return "rebuild"
	}
	return "unknown"
}

// Tick is everything the policy looks at. Values are copies; the
// controller mutates none of them.
type Tick struct {
	Trigger     Trigger
	Live        neuro.Snapshot
	Mode        playback.Mode
	Interaction interaction.State
	Camera      camera.Orientation
	Display     Display
	Scene       *scene.Scene
}

// Result is the decision for one tick.
type Result struct {
	Action Action
	// Scene is the replacement for Rebuild.
	Scene *scene.Scene
	// Fields are the new intensities for Patch.
	Fields      activation.Fields
	Placeholder bool
	Reason      string
}

// Placeholder messages.
const (
	MessageWaiting  = "Waiting for session data..."
	MessageNoData   = "No sensor data available"
	messageNoSensor = "No data for sensor %s"
)

type Controller struct {
	synth   *activation.Synthesizer
	builder *scene.Builder
	logger  *slog.Logger
}

func New(synth *activation.Synthesizer, builder *scene.Builder, logger *slog.Logger) *Controller {
	return &Controller{synth: synth, builder: builder, logger: log.Component(logger, "controller")}
}

// Evaluate applies the transition policy to t.
func (c *Controller) Evaluate(t Tick) Result {
	routine := t.Trigger.Routine()

	if routine && t.Interaction.Interacting && t.Mode.IsLive() {
		return Result{Action: NoOp, Reason: "user interacting"}
	}
	if routine && t.Mode.Frozen() {
		return Result{Action: NoOp, Reason: "playback " + t.Mode.Kind.String()}
	}

	active := c.activeSnapshot(t)
	suffix := TitleSuffix(t.Display, active, t.Mode)
	if msg, empty := noData(t.Display, active); empty {
		return Result{
			Action:      Rebuild,
			Scene:       c.builder.Placeholder(suffix, msg),
			Placeholder: true,
			Reason:      "no data",
		}
	}

	if !routine || !t.Scene.Drawable() {
		return c.rebuild(t, active, suffix, "trigger "+t.Trigger.String())
	}

	fields, err := c.synth.Compute(active)
	if err != nil {
		return c.rebuild(t, active, suffix, "field error")
	}
	if !fits(t.Scene, fields) {
		return c.rebuild(t, active, suffix, "mesh changed")
	}
	return Result{Action: Patch, Fields: fields, Reason: "refresh"}
}

// Rebuild forces a fresh scene for t regardless of trigger, still honoring
// the no-data placeholder.
func (c *Controller) Rebuild(t Tick) Result {
	active := c.activeSnapshot(t)
	suffix := TitleSuffix(t.Display, active, t.Mode)
	if msg, empty := noData(t.Display, active); empty {
		return Result{Action: Rebuild, Scene: c.builder.Placeholder(suffix, msg), Placeholder: true, Reason: "no data"}
	}
	return c.rebuild(t, active, suffix, "forced")
}

func (c *Controller) rebuild(t Tick, active neuro.Snapshot, suffix, reason string) Result {
	fields, err := c.synth.Compute(active)
	if err != nil {
		return Result{
			Action:      Rebuild,
			Scene:       c.builder.Placeholder(suffix, scene.MessageUnavailable),
			Placeholder: true,
			Reason:      "geometry unavailable",
		}
	}

	s := c.builder.Build(fields, suffix)
	if s.Placeholder {
		return Result{Action: Rebuild, Scene: s, Placeholder: true, Reason: "geometry unavailable"}
	}

	view, err := t.Camera.Resolve()
	if err != nil {
		c.logger.Warn("stored camera not applied", "error", err)
		view = nil
	}
	s.Camera = view
	return Result{Action: Rebuild, Scene: s, Reason: reason}
}

func (c *Controller) activeSnapshot(t Tick) neuro.Snapshot {
	snap := t.Mode.Active(t.Live)
	if !t.Display.All {
		return snap.Only(t.Display.Sensor)
	}
	return snap
}

func noData(d Display, active neuro.Snapshot) (string, bool) {
	switch {
	case active.Session == "" && active.Empty():
		return MessageWaiting, true
	case !d.All && active.Empty():
		return fmt.Sprintf(messageNoSensor, strings.ToUpper(string(d.Sensor))), true
	case active.Empty():
		return MessageNoData, true
	}
	return "", false
}

func fits(s *scene.Scene, f activation.Fields) bool {
	for _, surf := range s.Surfaces {
		if len(f.Half(surf.Half)) != len(surf.Intensity) {
			return false
		}
	}
	return true
}

// TitleSuffix names the selection and any non-live mode.
func TitleSuffix(d Display, active neuro.Snapshot, m playback.Mode) string {
	var suffix string
	if d.All {
		suffix = fmt.Sprintf(" - All sensors (%d)", len(active.Sensors()))
	} else {
		suffix = " - " + strings.ToUpper(string(d.Sensor))
	}
	if label := m.Label(); label != "" {
		suffix += " [" + label + "]"
	}
	return suffix
}
