package surface

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/neurodash/internal/neuro"
)

// OBJLoader reads one Wavefront OBJ file per half.
type OBJLoader struct {
	Left  string
	Right string
}

func (l OBJLoader) Load(side neuro.Half) (*Geometry, error) {
	path := l.Left
	if side == neuro.Right {
		path = l.Right
	}
	if path == "" {
		return nil, fmt.Errorf("no mesh path configured for %s half", side)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	vertices, faces, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return NewGeometry(side, vertices, faces)
}

// ParseOBJ reads v and f records. Face indices may be 1-based or negative
// (relative to the vertices read so far); polygons are fan-triangulated.
// All other record types are ignored.
func ParseOBJ(r io.Reader) ([]r3.Vec, [][3]int, error) {
	var (
		vertices []r3.Vec
		faces    [][3]int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("line %d: vertex needs 3 coordinates", line)
			}
			var xyz [3]float64
			for i := range xyz {
				v, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: %w", line, err)
				}
				xyz[i] = v
			}
			vertices = append(vertices, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})

		case "f":
			if len(fields) < 4 {
				return nil, nil, fmt.Errorf("line %d: face needs at least 3 vertices", line)
			}
			idx := make([]int, 0, len(fields)-1)
			for _, tok := range fields[1:] {
				// v, v/vt, v//vn, v/vt/vn
				if slash := strings.IndexByte(tok, '/'); slash >= 0 {
					tok = tok[:slash]
				}
				n, err := strconv.Atoi(tok)
				if err != nil {
					return nil, nil, fmt.Errorf("line %d: %w", line, err)
				}
				switch {
				case n > 0:
					n--
				case n < 0:
					n += len(vertices)
				default:
					return nil, nil, fmt.Errorf("line %d: %w: zero face index", line, neuro.ErrInvalidMesh)
				}
				idx = append(idx, n)
			}
			for i := 1; i+1 < len(idx); i++ {
				faces = append(faces, [3]int{idx[0], idx[i], idx[i+1]})
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return vertices, faces, nil
}
