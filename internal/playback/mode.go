// Package playback defines which snapshot drives the 3D view.
package playback

import (
	"fmt"

	"github.com/san-kum/neurodash/internal/history"
	"github.com/san-kum/neurodash/internal/neuro"
)

type Kind int

const (
	Live Kind = iota
	Paused
	Historical
)

func (k Kind) String() string {
	switch k {
	case Live:
		return "live"
	case Paused:
		return "paused"
	case Historical:
		return "historical"
	}
	return "unknown"
}

// Mode is the playback state. Paused and Historical modes carry the
// snapshot captured when they were entered; it is never looked up again.
type Mode struct {
	Kind     Kind
	Selected float64
	// At is the timestamp of the resolved point, which may differ from
	// Selected.
	At       float64
	Snapshot neuro.Snapshot
}

func LiveMode() Mode { return Mode{Kind: Live} }

// PausedMode freezes the view on snap.
func PausedMode(snap neuro.Snapshot) Mode {
	return Mode{Kind: Paused, Snapshot: snap.Clone()}
}

// HistoricalAt resolves t against buf. It fails with neuro.ErrEmptyHistory
// when buf has no points.
func HistoricalAt(buf *history.Buffer, t float64) (Mode, error) {
	p, ok := buf.Nearest(t)
	if !ok {
		return Mode{}, neuro.ErrEmptyHistory
	}
	return Mode{Kind: Historical, Selected: t, At: p.T, Snapshot: p.Snapshot.Clone()}, nil
}

func (m Mode) IsLive() bool { return m.Kind == Live }

// Frozen reports whether routine refreshes are suppressed.
func (m Mode) Frozen() bool { return m.Kind == Paused || m.Kind == Historical }

// Label is the title annotation for non-live modes.
func (m Mode) Label() string {
	switch m.Kind {
	case Paused:
		return "paused"
	case Historical:
		return fmt.Sprintf("historical t=%.1fs", m.At)
	}
	return ""
}

// Active returns the snapshot that drives rendering: live when Live,
// otherwise the one captured on entry.
func (m Mode) Active(live neuro.Snapshot) neuro.Snapshot {
	if m.Kind == Live {
		return live
	}
	return m.Snapshot
}

// Same reports whether two modes would render the same snapshot.
func (m Mode) Same(o Mode) bool {
	if m.Kind != o.Kind {
		return false
	}
	return m.Kind != Historical || m.At == o.At
}
