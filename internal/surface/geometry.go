// Package surface supplies the triangulated mesh for each anatomical half.
//
// Geometry is loaded once through a [Loader] and cached by a [Provider] for
// its lifetime. A load failure is cached too: every later call returns the
// same error wrapping [neuro.ErrGeometryUnavailable] and the loader is never
// retried.
package surface

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/neuro"
)

// Geometry is one half's immutable mesh plus its derived envelope.
type Geometry struct {
	Side     neuro.Half
	Vertices []r3.Vec
	Faces    [][3]int

	// Envelope is the axis-aligned bounding box of Vertices.
	Envelope r3.Box
	// Span is the envelope diagonal length.
	Span float64
}

// NewGeometry validates face indices and computes the envelope and span.
// A mesh with no vertices is accepted and has zero span.
func NewGeometry(side neuro.Half, vertices []r3.Vec, faces [][3]int) (*Geometry, error) {
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(vertices) {
				return nil, fmt.Errorf("%w: face %d references vertex %d of %d", neuro.ErrInvalidMesh, i, idx, len(vertices))
			}
		}
	}

	g := &Geometry{Side: side, Vertices: vertices, Faces: faces}
	if len(vertices) == 0 {
		return g, nil
	}

	lo, hi := vertices[0], vertices[0]
	for _, v := range vertices[1:] {
		lo.X, hi.X = min(lo.X, v.X), max(hi.X, v.X)
		lo.Y, hi.Y = min(lo.Y, v.Y), max(hi.Y, v.Y)
		lo.Z, hi.Z = min(lo.Z, v.Z), max(hi.Z, v.Z)
	}
	g.Envelope = r3.Box{Min: lo, Max: hi}
	g.Span = r3.Norm(r3.Sub(hi, lo))
	return g, nil
}

// Extent returns Max - Min of the envelope.
func (g *Geometry) Extent() r3.Vec {
	return r3.Sub(g.Envelope.Max, g.Envelope.Min)
}

// Center returns the midpoint of the envelope.
func (g *Geometry) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(g.Envelope.Min, g.Envelope.Max))
}

func (g *Geometry) NumVertices() int { return len(g.Vertices) }
