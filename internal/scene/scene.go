// Package scene assembles the renderable 3D scene from mesh geometry and
// intensity fields.
package scene

import (
	"encoding/json"
	"fmt"

	"github.com/san-kum/neurodash/internal/activation"
	"github.com/san-kum/neurodash/internal/camera"
	"github.com/san-kum/neurodash/internal/neuro"
	"github.com/san-kum/neurodash/internal/surface"
)

// Surface is one colored half.
type Surface struct {
	Name      string
	Half      neuro.Half
	Geometry  *surface.Geometry
	Intensity []float64

	ColorScale string
	CMin, CMax float64
	// ShowScale is set on exactly one surface so a single legend is drawn.
	ShowScale bool
	Opacity   float64
}

// MarshalJSON emits the surface as a mesh3d-style trace.
func (s Surface) MarshalJSON() ([]byte, error) {
	type trace struct {
		Type       string    `json:"type"`
		Name       string    `json:"name"`
		X          []float64 `json:"x"`
		Y          []float64 `json:"y"`
		Z          []float64 `json:"z"`
		I          []int     `json:"i"`
		J          []int     `json:"j"`
		K          []int     `json:"k"`
		Intensity  []float64 `json:"intensity"`
		ColorScale string    `json:"colorscale"`
		CMin       float64   `json:"cmin"`
		CMax       float64   `json:"cmax"`
		ShowScale  bool      `json:"showscale"`
		Opacity    float64   `json:"opacity"`
	}
	t := trace{
		Type: "mesh3d", Name: s.Name, Intensity: s.Intensity,
		ColorScale: s.ColorScale, CMin: s.CMin, CMax: s.CMax,
		ShowScale: s.ShowScale, Opacity: s.Opacity,
	}
	if g := s.Geometry; g != nil {
		t.X, t.Y, t.Z = make([]float64, len(g.Vertices)), make([]float64, len(g.Vertices)), make([]float64, len(g.Vertices))
		for i, v := range g.Vertices {
			t.X[i], t.Y[i], t.Z[i] = v.X, v.Y, v.Z
		}
		t.I, t.J, t.K = make([]int, len(g.Faces)), make([]int, len(g.Faces)), make([]int, len(g.Faces))
		for i, f := range g.Faces {
			t.I[i], t.J[i], t.K[i] = f[0], f[1], f[2]
		}
	}
	return json.Marshal(t)
}

// Scene is the full visualization state handed to a renderer.
type Scene struct {
	Title      string       `json:"title"`
	Annotation string       `json:"annotation,omitempty"`
	Surfaces   []Surface    `json:"surfaces"`
	Camera     *camera.View `json:"camera,omitempty"`
	// Revision tells the renderer to keep the user's view across redraws
	// while it stays unchanged.
	Revision    string `json:"revision"`
	ShowAxes    bool   `json:"show_axes"`
	Placeholder bool   `json:"placeholder"`
}

// Drawable reports whether the scene carries 3D content that can be patched.
func (s *Scene) Drawable() bool {
	return s != nil && !s.Placeholder && len(s.Surfaces) == 2
}

// Surface returns the surface of the given half, or nil.
func (s *Scene) Surface(h neuro.Half) *Surface {
	if s == nil {
		return nil
	}
	for i := range s.Surfaces {
		if s.Surfaces[i].Half == h {
			return &s.Surfaces[i]
		}
	}
	return nil
}

// PatchIntensity replaces the intensity arrays in place, copying f. No other
// field is touched.
func (s *Scene) PatchIntensity(f activation.Fields) error {
	if !s.Drawable() {
		return fmt.Errorf("scene has no surfaces to patch")
	}
	for i := range s.Surfaces {
		src := f.Half(s.Surfaces[i].Half)
		if len(src) != len(s.Surfaces[i].Intensity) {
			return fmt.Errorf("%s intensity has %d values, mesh has %d",
				s.Surfaces[i].Half, len(src), len(s.Surfaces[i].Intensity))
		}
	}
	for i := range s.Surfaces {
		s.Surfaces[i].Intensity = append([]float64(nil), f.Half(s.Surfaces[i].Half)...)
	}
	return nil
}

// Intensities returns the current fields of a drawable scene.
func (s *Scene) Intensities() activation.Fields {
	var f activation.Fields
	if l := s.Surface(neuro.Left); l != nil {
		f.Left = l.Intensity
	}
	if r := s.Surface(neuro.Right); r != nil {
		f.Right = r.Intensity
	}
	return f
}

// Clone deep-copies intensities and camera. Geometry is shared since it is
// never mutated.
func (s *Scene) Clone() *Scene {
	if s == nil {
		return nil
	}
	c := *s
	c.Surfaces = make([]Surface, len(s.Surfaces))
	for i, surf := range s.Surfaces {
		surf.Intensity = append([]float64(nil), surf.Intensity...)
		c.Surfaces[i] = surf
	}
	c.Camera = s.Camera.Clone()
	return &c
}
