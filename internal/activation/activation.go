// Package activation projects scalar sensor metrics onto the surface mesh.
//
// Each sensor is assigned zero or more regions. A region names a half, an
// anchor given as fractions of that half's envelope, the metric it renders
// and a base radius factor. Every vertex within the decay radius of an
// anchor receives (1 - d/r) times the normalized metric, and contributions
// from different sensors add up.
package activation

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/surface"
)

// Region places one sensor metric on one half.
type Region struct {
	Half neuro.Half
	// Anchor holds fractional offsets into the half's envelope, each in [0, 1].
	Anchor     r3.Vec
	Metric     string
	BaseFactor float64
}

// Assignments maps each sensor to the regions it drives.
type Assignments map[neuro.SensorID][]Region

// Params controls normalization and coverage scaling.
type Params struct {
	Midpoint    float64
	HalfRange   float64
	MinCoverage float64
}

func DefaultParams() Params {
	return Params{Midpoint: neuro.Neutral, HalfRange: 6, MinCoverage: 0.1}
}

// Normalize maps a 0-100 metric onto [-HalfRange, +HalfRange].
func (p Params) Normalize(v float64) float64 {
	if p.Midpoint == 0 {
		return 0
	}
	return (v - p.Midpoint) * p.HalfRange / p.Midpoint
}

// Coverage maps signal strength 0-100 linearly onto [MinCoverage, 1].
func (p Params) Coverage(signal float64) float64 {
	c := p.MinCoverage + (1-p.MinCoverage)*signal/100
	return min(max(c, p.MinCoverage), 1)
}

// Radius is the decay radius of an anchor.
func Radius(span, baseFactor, coverage float64) float64 {
	return span * baseFactor * coverage
}

// AnchorPoint resolves fractional offsets against an envelope.
func AnchorPoint(env r3.Box, frac r3.Vec) r3.Vec {
	ext := r3.Sub(env.Max, env.Min)
	return r3.Add(env.Min, r3.Vec{X: frac.X * ext.X, Y: frac.Y * ext.Y, Z: frac.Z * ext.Z})
}

// Fields holds one per-vertex intensity array per half.
type Fields struct {
	Left  []float64 `json:"left"`
	Right []float64 `json:"right"`
}

func (f Fields) Half(h neuro.Half) []float64 {
	if h == neuro.Right {
		return f.Right
	}
	return f.Left
}

func (f Fields) Clone() Fields {
	return Fields{Left: append([]float64(nil), f.Left...), Right: append([]float64(nil), f.Right...)}
}

// Peak returns the index and value of the largest intensity on a half,
// or -1 when the half has no vertices.
func (f Fields) Peak(h neuro.Half) (int, float64) {
	vals := f.Half(h)
	if len(vals) == 0 {
		return -1, 0
	}
	i := floats.MaxIdx(vals)
	return i, vals[i]
}

// Synthesizer computes intensity fields for snapshots. It holds no state
// between calls.
type Synthesizer struct {
	surfaces *surface.Provider
	regions  Assignments
	params   Params
}

func New(surfaces *surface.Provider, regions Assignments, params Params) *Synthesizer {
	return &Synthesizer{surfaces: surfaces, regions: regions, params: params}
}

func (s *Synthesizer) Params() Params { return s.params }

// Regions returns the configured regions for a sensor.
func (s *Synthesizer) Regions(id neuro.SensorID) []Region { return s.regions[id] }

// Compute builds fresh fields for snap. It returns an error wrapping
// neuro.ErrGeometryUnavailable when the mesh cannot be loaded.
func (s *Synthesizer) Compute(snap neuro.Snapshot) (Fields, error) {
	left, right, err := s.surfaces.Both()
	if err != nil {
		return Fields{}, err
	}
	halves := [2]*surface.Geometry{left, right}
	out := [2][]float64{
		make([]float64, left.NumVertices()),
		make([]float64, right.NumVertices()),
	}

	mid := s.params.Midpoint
	for _, id := range snap.Sensors() {
		regions := s.regions[id]
		if len(regions) == 0 {
			continue
		}
		reading, _ := snap.Reading(id)
		coverage := s.params.Coverage(reading.Value(neuro.MetricSignal, mid))

		for _, reg := range regions {
			if reg.Half != neuro.Left && reg.Half != neuro.Right {
				continue
			}
			g := halves[reg.Half]
			if g.Span == 0 {
				continue
			}
			radius := Radius(g.Span, reg.BaseFactor, coverage)
			if radius <= 0 {
				continue
			}
			value := s.params.Normalize(reading.Value(reg.Metric, mid))
			accumulate(out[reg.Half], g.Vertices, AnchorPoint(g.Envelope, reg.Anchor), radius, value)
		}
	}

	return Fields{Left: out[neuro.Left], Right: out[neuro.Right]}, nil
}

func accumulate(dst []float64, vertices []r3.Vec, anchor r3.Vec, radius, value float64) {
	for i, v := range vertices {
		d := r3.Norm(r3.Sub(v, anchor))
		if d <= radius {
			dst[i] += (1 - d/radius) * value
		}
	}
}
