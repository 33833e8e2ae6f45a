package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Canvas is a braille pixel grid. Each terminal cell holds 2x4 dots and
// one color, taken from the nearest dot plotted into it.
type Canvas struct {
	Width, Height int
	Grid          [][]rune

	colors [][]string
	depth  [][]float64
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		colors: make([][]string, h),
		depth:  make([][]float64, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.colors[i] = make([]string, w)
		c.depth[i] = make([]float64, w)
	}
	c.Clear()
	return c
}

// ColorAt returns the color of a cell, or "" when nothing colored it.
func (c *Canvas) ColorAt(row, col int) string {
	if row < 0 || row >= c.Height || col < 0 || col >= c.Width {
		return ""
	}
	return c.colors[row][col]
}

// cell maps sub-pixel coordinates to a cell. The canvas size in sub-pixels
// is (Width*2) x (Height*4).
func (c *Canvas) cell(x, y int) (row, col int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = x/2, y/4
	return row, col, col < c.Width && row < c.Height
}

func (c *Canvas) Set(x, y int) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Plot sets a dot and colors its cell when depth is nearer than anything
// already drawn there.
func (c *Canvas) Plot(x, y int, depth float64, color string) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if depth < c.depth[row][col] {
		c.depth[row][col] = depth
		c.colors[row][col] = color
	}
}

func (c *Canvas) Unset(x, y int) {
	row, col, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] &= ^rune(pixelMap[y%4][x%2])
	if c.Grid[row][col] < blank {
		c.Grid[row][col] = blank
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.colors[i][j] = ""
			c.depth[i][j] = math.Inf(1)
		}
	}
}

// Resize reallocates the grid when the size changed.
func (c *Canvas) Resize(w, h int) {
	if w == c.Width && h == c.Height {
		return
	}
	*c = *NewCanvas(max(w, 1), max(h, 1))
}

// DrawLine draws a line using Bresenham's algorithm, interpolating depth
// between the endpoints.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, d0, d1 float64, color string) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	steps := max(dx, dy)
	for i := 0; ; i++ {
		d := d0
		if steps > 0 {
			d += (d1 - d0) * float64(i) / float64(steps)
		}
		c.Plot(x0, y0, d, color)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// String renders the dots without color.
func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render renders the dots with their cell colors, grouping runs of equal
// color into one styled segment.
func (c *Canvas) Render() string {
	styles := make(map[string]lipgloss.Style)
	style := func(hex string) lipgloss.Style {
		s, ok := styles[hex]
		if !ok {
			s = lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
			styles[hex] = s
		}
		return s
	}

	var b strings.Builder
	for i, row := range c.Grid {
		start := 0
		for j := 1; j <= len(row); j++ {
			if j < len(row) && c.colors[i][j] == c.colors[i][start] {
				continue
			}
			seg := string(row[start:j])
			if hex := c.colors[i][start]; hex != "" {
				seg = style(hex).Render(seg)
			}
			b.WriteString(seg)
			start = j
		}
		b.WriteString("\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
