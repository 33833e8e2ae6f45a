// Package export writes rendered scenes to files outside the terminal.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/neurodash/internal/camera"
	"github.com/san-kum/neurodash/internal/scene"
	"github.com/san-kum/neurodash/internal/viz"
)

const (
	Background = "#0a0a0a"
	// fallback colors dots whose cell was never colored, such as axes.
	fallback = "#9e9e9e"
)

// CanvasToSVG converts a Braille canvas to SVG, one circle per dot in the
// color of its cell.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	if scale <= 0 {
		scale = 1
	}

	width := float64(canvas.Width) * scale * 2   // 2 sub-pixels per char
	height := float64(canvas.Height) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, Background)

	pixelMap := [4][2]int{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			r := canvas.Grid[row][col]
			if r <= 0x2800 {
				continue
			}
			pattern := int(r - 0x2800)
			color := canvas.ColorAt(row, col)
			if color == "" {
				color = fallback
			}

			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\" fill=\"%s\"/>\n", cx, cy, dotRadius, color)
				}
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// SceneToSVG draws sc from view onto a w x h cell canvas and converts it.
// A placeholder scene yields an empty drawing with its annotation as text.
func SceneToSVG(sc *scene.Scene, view *camera.View, w, h int, domain, scale float64) string {
	c := viz.NewCanvas(w, h)
	viz.RenderScene(c, sc, view, domain)
	out := CanvasToSVG(c, scale)
	if sc == nil || !sc.Placeholder || sc.Annotation == "" {
		return out
	}
	text := fmt.Sprintf("<text x=\"50%%\" y=\"50%%\" fill=\"%s\" text-anchor=\"middle\" font-family=\"monospace\">%s</text>\n</svg>",
		fallback, escape(sc.Annotation))
	return strings.TrimSuffix(out, "</svg>") + text
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;").Replace(s)
}
