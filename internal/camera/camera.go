// Package camera stores the user's 3D view orientation.
//
// The [Tracker] is the only writer. Updates arrive from view-change events
// and may be partial (only eye.x, say); they are merged into the stored
// orientation component by component.
package camera

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/neuro"
)

// Vector is a 3D vector whose components may each be unset.
type Vector struct {
	X *float64 `json:"x,omitempty" yaml:"x,omitempty"`
	Y *float64 `json:"y,omitempty" yaml:"y,omitempty"`
	Z *float64 `json:"z,omitempty" yaml:"z,omitempty"`
}

// Vec returns a fully specified Vector.
func Vec(v r3.Vec) Vector {
	return Vector{X: ptr(v.X), Y: ptr(v.Y), Z: ptr(v.Z)}
}

func ptr(f float64) *float64 { return &f }

func (v Vector) components() [3]*float64 { return [3]*float64{v.X, v.Y, v.Z} }

// Empty reports whether no component is set.
func (v Vector) Empty() bool { return v.X == nil && v.Y == nil && v.Z == nil }

// Complete reports whether every component is set.
func (v Vector) Complete() bool { return v.X != nil && v.Y != nil && v.Z != nil }

func (v Vector) clone() Vector {
	var out Vector
	if v.X != nil {
		out.X = ptr(*v.X)
	}
	if v.Y != nil {
		out.Y = ptr(*v.Y)
	}
	if v.Z != nil {
		out.Z = ptr(*v.Z)
	}
	return out
}

func mergeComponent(base, upd *float64) *float64 {
	if upd != nil {
		return ptr(*upd)
	}
	if base != nil {
		return ptr(*base)
	}
	return nil
}

func (v Vector) merge(upd Vector) Vector {
	return Vector{
		X: mergeComponent(v.X, upd.X),
		Y: mergeComponent(v.Y, upd.Y),
		Z: mergeComponent(v.Z, upd.Z),
	}
}

func sameComponent(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Float64bits(*a) == math.Float64bits(*b)
}

func (v Vector) Equal(o Vector) bool {
	return sameComponent(v.X, o.X) && sameComponent(v.Y, o.Y) && sameComponent(v.Z, o.Z)
}

func (v Vector) resolve(name string) (*r3.Vec, error) {
	if v.Empty() {
		return nil, nil
	}
	if !v.Complete() {
		return nil, fmt.Errorf("%w: %s is partially specified", neuro.ErrMalformedCamera, name)
	}
	for _, c := range v.components() {
		if math.IsNaN(*c) || math.IsInf(*c, 0) {
			return nil, fmt.Errorf("%w: %s has a non-finite component", neuro.ErrMalformedCamera, name)
		}
	}
	return &r3.Vec{X: *v.X, Y: *v.Y, Z: *v.Z}, nil
}

// Orientation is the stored camera: eye, look-at center, up vector and an
// optional projection mode ("perspective" or "orthographic").
type Orientation struct {
	Eye        Vector `json:"eye" yaml:"eye"`
	Center     Vector `json:"center" yaml:"center"`
	Up         Vector `json:"up" yaml:"up"`
	Projection string `json:"projection,omitempty" yaml:"projection,omitempty"`
}

// Update is a possibly partial orientation observed from a view change.
type Update = Orientation

// Empty reports whether nothing is specified.
func (o Orientation) Empty() bool {
	return o.Eye.Empty() && o.Center.Empty() && o.Up.Empty() && o.Projection == ""
}

func (o Orientation) Clone() Orientation {
	return Orientation{Eye: o.Eye.clone(), Center: o.Center.clone(), Up: o.Up.clone(), Projection: o.Projection}
}

// Merge overlays the set fields of upd onto o.
func (o Orientation) Merge(upd Update) Orientation {
	out := Orientation{
		Eye:        o.Eye.merge(upd.Eye),
		Center:     o.Center.merge(upd.Center),
		Up:         o.Up.merge(upd.Up),
		Projection: o.Projection,
	}
	if upd.Projection != "" {
		out.Projection = upd.Projection
	}
	return out
}

// Equal compares numeric fields bit for bit.
func (o Orientation) Equal(other Orientation) bool {
	return o.Eye.Equal(other.Eye) && o.Center.Equal(other.Center) &&
		o.Up.Equal(other.Up) && o.Projection == other.Projection
}

// View is a renderable camera. Nil vectors mean the renderer default.
type View struct {
	Eye        *r3.Vec `json:"eye,omitempty"`
	Center     *r3.Vec `json:"center,omitempty"`
	Up         *r3.Vec `json:"up,omitempty"`
	Projection string  `json:"projection,omitempty"`
}

// Resolve converts o into a View. An empty orientation resolves to nil.
// Partially specified or non-finite vectors fail with
// neuro.ErrMalformedCamera.
func (o Orientation) Resolve() (*View, error) {
	if o.Empty() {
		return nil, nil
	}
	var (
		v   View
		err error
	)
	if v.Eye, err = o.Eye.resolve("eye"); err != nil {
		return nil, err
	}
	if v.Center, err = o.Center.resolve("center"); err != nil {
		return nil, err
	}
	if v.Up, err = o.Up.resolve("up"); err != nil {
		return nil, err
	}
	switch o.Projection {
	case "", "perspective", "orthographic":
		v.Projection = o.Projection
	default:
		return nil, fmt.Errorf("%w: unknown projection %q", neuro.ErrMalformedCamera, o.Projection)
	}
	return &v, nil
}

func (v *View) Clone() *View {
	if v == nil {
		return nil
	}
	c := &View{Projection: v.Projection}
	if v.Eye != nil {
		e := *v.Eye
		c.Eye = &e
	}
	if v.Center != nil {
		ce := *v.Center
		c.Center = &ce
	}
	if v.Up != nil {
		u := *v.Up
		c.Up = &u
	}
	return c
}

// Default vectors used when a View leaves a vector unset.
var (
	DefaultEye    = r3.Vec{X: 1.25, Y: 1.25, Z: 1.25}
	DefaultCenter = r3.Vec{}
	DefaultUp     = r3.Vec{Z: 1}
)

// Vectors returns eye, center and up with defaults filled in. A nil View
// yields the defaults.
func (v *View) Vectors() (eye, center, up r3.Vec) {
	eye, center, up = DefaultEye, DefaultCenter, DefaultUp
	if v == nil {
		return
	}
	if v.Eye != nil {
		eye = *v.Eye
	}
	if v.Center != nil {
		center = *v.Center
	}
	if v.Up != nil {
		up = *v.Up
	}
	return
}
