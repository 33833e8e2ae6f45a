package camera

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/log"
)

// Tracker persists the latest orientation across ticks and rebuilds.
type Tracker struct {
	stored  Orientation
	version uint64
	logger  *slog.Logger
}

func NewTracker(logger *slog.Logger) *Tracker {
	return &Tracker{logger: log.Component(logger, "camera")}
}

// Observe merges upd into the stored orientation. It stores and returns
// true only when the merge changed something.
func (t *Tracker) Observe(upd Update) bool {
	if upd.Empty() {
		return false
	}
	merged := t.stored.Merge(upd)
	if merged.Equal(t.stored) {
		return false
	}
	t.stored = merged
	t.version++
	t.logger.Debug("camera updated", "version", t.version)
	return true
}

// Current returns a copy of the stored orientation.
func (t *Tracker) Current() Orientation { return t.stored.Clone() }

// Version increments on every stored change.
func (t *Tracker) Version() uint64 { return t.version }

// Orbit returns an update that rotates the eye about the center by yaw
// (around the up axis) and pitch (toward the up axis), in radians, and
// scales its distance by zoom. Pitch stops short of the poles.
func Orbit(view *View, yaw, pitch, zoom float64) Update {
	eye, center, up := view.Vectors()
	rel := r3.Sub(eye, center)

	if yaw != 0 {
		rel = r3.Rotate(rel, yaw, up)
	}
	if pitch != 0 {
		axis := r3.Cross(rel, up)
		if r3.Norm(axis) > 1e-9 {
			next := r3.Rotate(rel, pitch, axis)
			cos := r3.Cos(next, up)
			if math.Abs(cos) < 0.995 {
				rel = next
			}
		}
	}
	if zoom > 0 {
		rel = r3.Scale(zoom, rel)
	}

	return Update{Eye: Vec(r3.Add(center, rel))}
}
