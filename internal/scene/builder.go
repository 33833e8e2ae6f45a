package scene

import (
	"log/slog"

	"github.com/san-kum/neurodash/internal/activation"
	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/surface"
)

const (
	DefaultTitle    = "Brain activity 3D"
	DefaultRevision = "neurodash-camera"
	DefaultDomain   = 6.0

	MessageUnavailable = "3D brain surface unavailable"
)

type Options struct {
	Title    string
	Revision string
	// Domain fixes the color scale to [-Domain, +Domain].
	Domain  float64
	Opacity float64
}

func DefaultOptions() Options {
	return Options{Title: DefaultTitle, Revision: DefaultRevision, Domain: DefaultDomain, Opacity: 1}
}

// Builder turns fields into scenes using the cached geometry.
type Builder struct {
	surfaces *surface.Provider
	opts     Options
	logger   *slog.Logger
}

func NewBuilder(surfaces *surface.Provider, opts Options, logger *slog.Logger) *Builder {
	def := DefaultOptions()
	if opts.Title == "" {
		opts.Title = def.Title
	}
	if opts.Revision == "" {
		opts.Revision = def.Revision
	}
	if opts.Domain <= 0 {
		opts.Domain = def.Domain
	}
	if opts.Opacity <= 0 {
		opts.Opacity = def.Opacity
	}
	return &Builder{surfaces: surfaces, opts: opts, logger: log.Component(logger, "scene")}
}

func (b *Builder) Options() Options { return b.opts }

// Build assembles a fresh scene. When geometry is unavailable it returns the
// unavailable placeholder.
func (b *Builder) Build(fields activation.Fields, titleSuffix string) *Scene {
	left, right, err := b.surfaces.Both()
	if err != nil {
		b.logger.Debug("building placeholder scene", "error", err)
		return b.Placeholder(titleSuffix, MessageUnavailable)
	}

	return &Scene{
		Title: b.opts.Title + titleSuffix,
		Surfaces: []Surface{
			b.surface("left hemisphere", left, fields.Left, false),
			b.surface("right hemisphere", right, fields.Right, true),
		},
		Revision: b.opts.Revision,
	}
}

func (b *Builder) surface(name string, g *surface.Geometry, intensity []float64, legend bool) Surface {
	// intensity is sized to the mesh so a short or long field cannot break
	// the renderer
	vals := make([]float64, g.NumVertices())
	copy(vals, intensity)
	return Surface{
		Name:       name,
		Half:       g.Side,
		Geometry:   g,
		Intensity:  vals,
		ColorScale: ColorScaleName,
		CMin:       -b.opts.Domain,
		CMax:       b.opts.Domain,
		ShowScale:  legend,
		Opacity:    b.opts.Opacity,
	}
}

// Placeholder returns a message-only scene.
func (b *Builder) Placeholder(titleSuffix, message string) *Scene {
	return &Scene{
		Title:       b.opts.Title + titleSuffix,
		Annotation:  message,
		Revision:    b.opts.Revision,
		Placeholder: true,
	}
}

// ZeroFields returns all-zero fields sized to the mesh, or empty fields when
// geometry is unavailable.
func (b *Builder) ZeroFields() activation.Fields {
	left, right, err := b.surfaces.Both()
	if err != nil {
		return activation.Fields{}
	}
	return activation.Fields{
		Left:  make([]float64, left.NumVertices()),
		Right: make([]float64, right.NumVertices()),
	}
}
