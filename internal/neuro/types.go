package neuro

import (
	"math"
	"sort"
)

// Metric names produced by the headset firmware.
const (
	MetricSignal     = "signal_strength"
	MetricAttention  = "attention"
	MetricMeditation = "meditation"
	MetricDelta      = "delta"
	MetricTheta      = "theta"
	MetricLowAlpha   = "low_alpha"
	MetricHighAlpha  = "high_alpha"
	MetricLowBeta    = "low_beta"
	MetricHighBeta   = "high_beta"
	MetricLowGamma   = "low_gamma"
	MetricMidGamma   = "mid_gamma"
)

// Neutral is the midpoint of the 0-100 eSense scale.
const Neutral = 50.0

// Missing marks a metric the sensor failed to report.
var Missing = math.NaN()

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

type SensorID string

// Half identifies one anatomical hemisphere.
type Half int

const (
	Left Half = iota
	Right
)

func (h Half) String() string {
	switch h {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// ParseHalf accepts "left"/"right" (and the single letters l/r).
func ParseHalf(s string) (Half, bool) {
	switch s {
	case "left", "l", "L":
		return Left, true
	case "right", "r", "R":
		return Right, true
	}
	return Left, false
}

// Reading holds the named scalar metrics of one sensor for one tick.
type Reading map[string]float64

// Value returns the metric, or def when it is absent or missing.
func (r Reading) Value(metric string, def float64) float64 {
	if r == nil {
		return def
	}
	v, ok := r[metric]
	if !ok || IsMissing(v) {
		return def
	}
	return v
}

// Has reports whether the metric is present and not missing.
func (r Reading) Has(metric string) bool {
	if r == nil {
		return false
	}
	v, ok := r[metric]
	return ok && !IsMissing(v)
}

func (r Reading) Clone() Reading {
	if r == nil {
		return nil
	}
	c := make(Reading, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Snapshot is one tick's full reading across all sensors.
type Snapshot struct {
	Session  string
	Readings map[SensorID]Reading
}

func NewSnapshot(session string) Snapshot {
	return Snapshot{Session: session, Readings: make(map[SensorID]Reading)}
}

// Set stores a reading, allocating the map on first use.
func (s *Snapshot) Set(id SensorID, r Reading) {
	if s.Readings == nil {
		s.Readings = make(map[SensorID]Reading)
	}
	s.Readings[id] = r
}

// Sensors returns the ids of sensors with a non-nil reading, sorted.
func (s Snapshot) Sensors() []SensorID {
	ids := make([]SensorID, 0, len(s.Readings))
	for id, r := range s.Readings {
		if r != nil {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Empty reports whether the snapshot carries no sensor readings at all.
func (s Snapshot) Empty() bool { return len(s.Sensors()) == 0 }

// Reading returns the reading for id and whether it is present and non-nil.
func (s Snapshot) Reading(id SensorID) (Reading, bool) {
	r, ok := s.Readings[id]
	return r, ok && r != nil
}

// Only returns a snapshot restricted to the given sensor.
func (s Snapshot) Only(id SensorID) Snapshot {
	out := NewSnapshot(s.Session)
	if r, ok := s.Reading(id); ok {
		out.Readings[id] = r
	}
	return out
}

func (s Snapshot) Clone() Snapshot {
	c := Snapshot{Session: s.Session}
	if s.Readings != nil {
		c.Readings = make(map[SensorID]Reading, len(s.Readings))
		for id, r := range s.Readings {
			c.Readings[id] = r.Clone()
		}
	}
	return c
}
