// Package history keeps a bounded, time-ordered record of recent snapshots
// with their cross-sensor averages, for the timeline and historical scrub.
package history

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/timeutil"
)

// DefaultCapacity is the number of points kept when none is configured.
const DefaultCapacity = 120

// Point is one appended snapshot.
type Point struct {
	// T is seconds since the buffer origin.
	T          float64        `json:"t"`
	Signal     float64        `json:"signal"`
	Attention  float64        `json:"attention"`
	Meditation float64        `json:"meditation"`
	Snapshot   neuro.Snapshot `json:"-"`
}

// Buffer is a FIFO of points with strictly increasing timestamps.
type Buffer struct {
	clock    timeutil.Clock
	capacity int
	origin   time.Time
	points   []Point
}

func NewBuffer(capacity int, clock timeutil.Clock) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Buffer{
		clock:    clock,
		capacity: capacity,
		origin:   clock.Now(),
		points:   make([]Point, 0, capacity),
	}
}

// Average returns the mean of a metric over the sensors that report it,
// or 0 when none do.
func Average(snap neuro.Snapshot, metric string) float64 {
	var vals []float64
	for _, id := range snap.Sensors() {
		r, _ := snap.Reading(id)
		if r.Has(metric) {
			vals = append(vals, r[metric])
		}
	}
	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}

// Append records snap at the current clock time.
func (b *Buffer) Append(snap neuro.Snapshot) Point {
	return b.AppendAt(b.clock.Since(b.origin).Seconds(), snap)
}

// AppendAt records snap at t seconds since the origin. A t that does not
// advance past the newest point is nudged just beyond it.
func (b *Buffer) AppendAt(t float64, snap neuro.Snapshot) Point {
	if n := len(b.points); n > 0 && t <= b.points[n-1].T {
		t = math.Nextafter(b.points[n-1].T, math.Inf(1))
	}

	p := Point{
		T:          t,
		Signal:     Average(snap, neuro.MetricSignal),
		Attention:  Average(snap, neuro.MetricAttention),
		Meditation: Average(snap, neuro.MetricMeditation),
		Snapshot:   snap.Clone(),
	}

	if len(b.points) >= b.capacity {
		drop := len(b.points) - b.capacity + 1
		b.points = append(b.points[:0], b.points[drop:]...)
	}
	b.points = append(b.points, p)
	return p
}

// Nearest returns the point closest to t. Ties go to the earlier point.
func (b *Buffer) Nearest(t float64) (Point, bool) {
	if len(b.points) == 0 {
		return Point{}, false
	}
	best := 0
	bestDist := math.Abs(b.points[0].T - t)
	for i := 1; i < len(b.points); i++ {
		if d := math.Abs(b.points[i].T - t); d < bestDist {
			best, bestDist = i, d
		}
	}
	return b.points[best], true
}

// Reset clears all points and restarts the origin at the current time.
func (b *Buffer) Reset() {
	b.points = b.points[:0]
	b.origin = b.clock.Now()
}

func (b *Buffer) Len() int      { return len(b.points) }
func (b *Buffer) Capacity() int { return b.capacity }

// Origin is the wall-clock time that T=0 refers to.
func (b *Buffer) Origin() time.Time { return b.origin }

// Points returns a copy of the buffered points, oldest first.
func (b *Buffer) Points() []Point {
	out := make([]Point, len(b.points))
	copy(out, b.points)
	return out
}

// At returns the i-th point, oldest first.
func (b *Buffer) At(i int) (Point, bool) {
	if i < 0 || i >= len(b.points) {
		return Point{}, false
	}
	return b.points[i], true
}

// Last returns the newest point.
func (b *Buffer) Last() (Point, bool) {
	return b.At(len(b.points) - 1)
}

// Series holds the averaged columns of the buffer.
type Series struct {
	T          []float64
	Signal     []float64
	Attention  []float64
	Meditation []float64
}

func (b *Buffer) Series() Series {
	s := Series{
		T:          make([]float64, len(b.points)),
		Signal:     make([]float64, len(b.points)),
		Attention:  make([]float64, len(b.points)),
		Meditation: make([]float64, len(b.points)),
	}
	for i, p := range b.points {
		s.T[i] = p.T
		s.Signal[i] = p.Signal
		s.Attention[i] = p.Attention
		s.Meditation[i] = p.Meditation
	}
	return s
}
