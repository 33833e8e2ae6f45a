package surface

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/neuro"
)

// EllipsoidLoader generates a procedural hemisphere so the dashboard runs
// without mesh assets. Each half is a latitude/longitude ellipsoid offset
// from the midline and flattened on its medial face.
type EllipsoidLoader struct {
	Stacks int
	Slices int

	// Radii are the semi-axes (x lateral, y anterior, z superior).
	Radii r3.Vec
	// Offset is the distance of each half's center from the midline.
	Offset float64
	// Medial scales x on the side facing the other half.
	Medial float64
}

// DefaultEllipsoid returns a loader sized roughly like an adult cortex in mm.
func DefaultEllipsoid() EllipsoidLoader {
	return EllipsoidLoader{
		Stacks: 24,
		Slices: 32,
		Radii:  r3.Vec{X: 35, Y: 80, Z: 55},
		Offset: 38,
		Medial: 0.25,
	}
}

func (l EllipsoidLoader) Load(side neuro.Half) (*Geometry, error) {
	stacks, slices := max(l.Stacks, 2), max(l.Slices, 3)
	medial := l.Medial
	if medial <= 0 || medial > 1 {
		medial = 1
	}

	// lateral points away from the midline
	lateral, cx := -1.0, -l.Offset
	if side == neuro.Right {
		lateral, cx = 1.0, l.Offset
	}

	vertices := make([]r3.Vec, 0, (stacks+1)*slices)
	for i := 0; i <= stacks; i++ {
		theta := math.Pi * float64(i) / float64(stacks)
		st, ct := math.Sin(theta), math.Cos(theta)
		for j := 0; j < slices; j++ {
			phi := 2 * math.Pi * float64(j) / float64(slices)
			x := l.Radii.X * st * math.Cos(phi)
			if x*lateral < 0 {
				x *= medial
			}
			vertices = append(vertices, r3.Vec{
				X: cx + x,
				Y: l.Radii.Y * st * math.Sin(phi),
				Z: l.Radii.Z * ct,
			})
		}
	}

	faces := make([][3]int, 0, 2*stacks*slices)
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := i*slices + j
			b := i*slices + (j+1)%slices
			c := (i+1)*slices + j
			d := (i+1)*slices + (j+1)%slices
			faces = append(faces, [3]int{a, c, b}, [3]int{b, c, d})
		}
	}

	return NewGeometry(side, vertices, faces)
}
