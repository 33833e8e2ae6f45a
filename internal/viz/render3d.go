package viz

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/camera"
	"github.com/san-kum/neurodash/internal/scene"
)

// focal is the perspective focal length, about a 53 degree field of view.
const focal = 2.0

// Projector maps normalized scene coordinates to canvas sub-pixels for
// one camera view.
type Projector struct {
	eye            r3.Vec
	right, up, fwd r3.Vec
	dist           float64
	ortho          bool
	width, height  int
	pixelsPerUnit  float64
}

func NewProjector(view *camera.View, width, height int) Projector {
	eye, center, up := view.Vectors()

	fwd := r3.Sub(center, eye)
	dist := r3.Norm(fwd)
	if dist < 1e-9 {
		fwd, dist = r3.Vec{X: -1}, 1
	}
	fwd = r3.Unit(fwd)

	right := r3.Cross(fwd, up)
	if r3.Norm(right) < 1e-9 {
		right = r3.Cross(fwd, r3.Vec{Y: 1})
	}
	right = r3.Unit(right)

	return Projector{
		eye:           eye,
		right:         right,
		up:            r3.Cross(right, fwd),
		fwd:           fwd,
		dist:          dist,
		ortho:         view != nil && view.Projection == "orthographic",
		width:         width,
		height:        height,
		pixelsPerUnit: float64(min(width, height)) / 2,
	}
}

// Project returns the sub-pixel position and depth of p. ok is false when
// p is behind the camera or off the canvas.
func (pr Projector) Project(p r3.Vec) (x, y int, depth float64, ok bool) {
	rel := r3.Sub(p, pr.eye)
	depth = r3.Dot(rel, pr.fwd)
	if depth <= 1e-3 {
		return 0, 0, depth, false
	}
	div := depth
	if pr.ortho {
		div = pr.dist
	}
	sx := r3.Dot(rel, pr.right) / div * focal
	sy := r3.Dot(rel, pr.up) / div * focal

	x = pr.width/2 + int(math.Round(sx*pr.pixelsPerUnit))
	y = pr.height/2 - int(math.Round(sy*pr.pixelsPerUnit))
	return x, y, depth, x >= 0 && x < pr.width && y >= 0 && y < pr.height
}

// Facing reports whether a surface at p with outward normal n faces the eye.
func (pr Projector) Facing(p, n r3.Vec) bool {
	if pr.ortho {
		return r3.Dot(n, pr.fwd) < 0
	}
	return r3.Dot(n, r3.Sub(pr.eye, p)) > 0
}

// Frame normalizes mesh coordinates so the whole scene spans about one
// unit around the origin, the space camera vectors are expressed in.
type Frame struct {
	Center r3.Vec
	Unit   float64
}

func FrameOf(s *scene.Scene) Frame {
	var box r3.Box
	first := true
	for _, surf := range s.Surfaces {
		g := surf.Geometry
		if g == nil || len(g.Vertices) == 0 {
			continue
		}
		if first {
			box, first = g.Envelope, false
			continue
		}
		box.Min = r3.Vec{X: min(box.Min.X, g.Envelope.Min.X), Y: min(box.Min.Y, g.Envelope.Min.Y), Z: min(box.Min.Z, g.Envelope.Min.Z)}
		box.Max = r3.Vec{X: max(box.Max.X, g.Envelope.Max.X), Y: max(box.Max.Y, g.Envelope.Max.Y), Z: max(box.Max.Z, g.Envelope.Max.Z)}
	}
	ext := r3.Sub(box.Max, box.Min)
	unit := max(ext.X, ext.Y, ext.Z)
	if unit <= 0 {
		unit = 1
	}
	return Frame{Center: r3.Scale(0.5, r3.Add(box.Min, box.Max)), Unit: unit}
}

func (f Frame) Apply(v r3.Vec) r3.Vec {
	return r3.Scale(1/f.Unit, r3.Sub(v, f.Center))
}

// RenderScene draws both surfaces as colored wireframes. Faces turned away
// from the eye are skipped and each cell keeps the nearest color.
func RenderScene(c *Canvas, s *scene.Scene, view *camera.View, domain float64) {
	if c == nil || !s.Drawable() {
		return
	}
	frame := FrameOf(s)
	pr := NewProjector(view, c.Width*2, c.Height*4)

	for _, surf := range s.Surfaces {
		g := surf.Geometry
		if g == nil {
			continue
		}
		center := frame.Apply(g.Center())

		type projected struct {
			x, y  int
			depth float64
			ok    bool
			world r3.Vec
		}
		pts := make([]projected, len(g.Vertices))
		for i, v := range g.Vertices {
			w := frame.Apply(v)
			x, y, d, ok := pr.Project(w)
			pts[i] = projected{x, y, d, ok, w}
		}

		for _, f := range g.Faces {
			a, b, cc := pts[f[0]], pts[f[1]], pts[f[2]]
			if !a.ok || !b.ok || !cc.ok {
				continue
			}
			n := r3.Cross(r3.Sub(b.world, a.world), r3.Sub(cc.world, a.world))
			if r3.Dot(n, r3.Sub(a.world, center)) < 0 {
				n = r3.Scale(-1, n)
			}
			if !pr.Facing(a.world, n) {
				continue
			}

			col := scene.Color(faceIntensity(surf.Intensity, f), domain)
			c.DrawLine(a.x, a.y, b.x, b.y, a.depth, b.depth, col)
			c.DrawLine(b.x, b.y, cc.x, cc.y, b.depth, cc.depth, col)
			c.DrawLine(cc.x, cc.y, a.x, a.y, cc.depth, a.depth, col)
		}
	}

	if s.ShowAxes {
		renderAxes(c, pr)
	}
}

func faceIntensity(intensity []float64, f [3]int) float64 {
	var sum float64
	for _, i := range f {
		if i < len(intensity) {
			sum += intensity[i]
		}
	}
	return sum / 3
}

func renderAxes(c *Canvas, pr Projector) {
	ox, oy, od, ok := pr.Project(r3.Vec{})
	if !ok {
		return
	}
	for _, axis := range []r3.Vec{{X: 0.6}, {Y: 0.6}, {Z: 0.6}} {
		x, y, d, ok := pr.Project(axis)
		if !ok {
			continue
		}
		c.DrawLine(ox, oy, x, y, od, d, string(CurrentTheme.Muted))
	}
}
