// Package interaction tracks whether the user is manipulating the 3D view.
//
// Several signal sources feed one [Gate]: an explicit press in the
// viewport, any view change (for front-ends that cannot observe presses),
// and an explicit release. The gate also returns to idle on its own once
// the quiescence window passes without a new signal, because a release is
// not always delivered.
package interaction

import (
	"log/slog"
	"time"

	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/timeutil"
)

// DefaultWindow is the quiescence window used when none is configured.
const DefaultWindow = 2 * time.Second

// Signal identifies an interaction source.
type Signal int

const (
	Press Signal = iota
	ViewChange
	Release
)

func (s Signal) String() string {
	switch s {
	case Press:
		return "press"
	case ViewChange:
		return "view_change"
	case Release:
		return "release"
	}
	return "unknown"
}

// State is a read-only copy of the gate.
type State struct {
	Interacting     bool      `json:"interacting"`
	LastInteraction time.Time `json:"last_interaction"`
}

// Gate is the single writer of interaction state.
type Gate struct {
	clock  timeutil.Clock
	window time.Duration
	logger *slog.Logger

	interacting bool
	last        time.Time
}

func NewGate(clock timeutil.Clock, window time.Duration, logger *slog.Logger) *Gate {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Gate{clock: clock, window: window, logger: log.Component(logger, "interaction")}
}

func (g *Gate) Window() time.Duration { return g.window }

// Signal feeds one interaction event into the gate.
func (g *Gate) Signal(s Signal) {
	switch s {
	case Press, ViewChange:
		if !g.interacting {
			g.logger.Debug("interaction started", "signal", s)
		}
		g.interacting = true
		g.last = g.clock.Now()
	case Release:
		if g.interacting {
			g.logger.Debug("interaction released")
		}
		g.interacting = false
	}
}

func (g *Gate) Press()      { g.Signal(Press) }
func (g *Gate) ViewChange() { g.Signal(ViewChange) }
func (g *Gate) Release()    { g.Signal(Release) }

// State returns the gate state as of now, applying the quiescence timeout.
func (g *Gate) State() State {
	if g.interacting && g.clock.Since(g.last) >= g.window {
		g.interacting = false
		g.logger.Debug("interaction expired", "idle_for", g.clock.Since(g.last))
	}
	return State{Interacting: g.interacting, LastInteraction: g.last}
}

// Interacting is shorthand for State().Interacting.
func (g *Gate) Interacting() bool { return g.State().Interacting }

// Reset returns the gate to idle.
func (g *Gate) Reset() {
	g.interacting = false
}
