package scene

import (
	"github.com/lucasb-eyer/go-colorful"
)

// ColorScaleName is the diverging scale used for intensity: blue for
// negative, red for positive.
const ColorScaleName = "RdBu_r"

var rdbuR = mustStops(
	"#053061", "#2166ac", "#4393c3", "#92c5de", "#d1e5f0",
	"#f7f7f7",
	"#fddbc7", "#f4a582", "#d6604d", "#b2182b", "#67001f",
)

func mustStops(hexes ...string) []colorful.Color {
	out := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}

// Color maps v on [-domain, +domain] to a hex color. Values outside the
// domain are clamped.
func Color(v, domain float64) string {
	if domain <= 0 {
		domain = DefaultDomain
	}
	t := (v + domain) / (2 * domain)
	t = min(max(t, 0), 1)

	pos := t * float64(len(rdbuR)-1)
	i := int(pos)
	if i >= len(rdbuR)-1 {
		return rdbuR[len(rdbuR)-1].Hex()
	}
	frac := pos - float64(i)
	if frac == 0 {
		return rdbuR[i].Hex()
	}
	return rdbuR[i].BlendLab(rdbuR[i+1], frac).Clamped().Hex()
}

// Palette returns the diverging scale stops, low to high, as hex strings.
func Palette() []string {
	out := make([]string, len(rdbuR))
	for i, c := range rdbuR {
		out[i] = c.Hex()
	}
	return out
}
