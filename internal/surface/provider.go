package surface

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/san-kum/neurodash/internal/log"
	"github.com/san-kum/neurodash/internal/neuro"
)

// Loader produces the geometry of one half.
type Loader interface {
	Load(side neuro.Half) (*Geometry, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(side neuro.Half) (*Geometry, error)

func (f LoaderFunc) Load(side neuro.Half) (*Geometry, error) { return f(side) }

// Provider lazily loads both halves on first use and caches the result,
// including a failure, for its lifetime.
type Provider struct {
	loader Loader
	logger *slog.Logger

	once   sync.Once
	halves [2]*Geometry
	err    error
}

func NewProvider(loader Loader, logger *slog.Logger) *Provider {
	return &Provider{loader: loader, logger: log.Component(logger, "surface")}
}

// Static returns a provider serving pre-built geometry.
func Static(left, right *Geometry) *Provider {
	return NewProvider(LoaderFunc(func(side neuro.Half) (*Geometry, error) {
		if side == neuro.Left {
			return left, nil
		}
		return right, nil
	}), log.Discard())
}

// Unavailable returns a provider whose geometry always fails with cause.
func Unavailable(cause error) *Provider {
	return NewProvider(LoaderFunc(func(neuro.Half) (*Geometry, error) {
		return nil, cause
	}), log.Discard())
}

func (p *Provider) load() {
	for _, side := range []neuro.Half{neuro.Left, neuro.Right} {
		g, err := p.loader.Load(side)
		if err == nil && g == nil {
			err = fmt.Errorf("%s half: loader returned no geometry", side)
		}
		if err != nil {
			p.err = fmt.Errorf("%w: %w", neuro.ErrGeometryUnavailable, err)
			p.halves = [2]*Geometry{}
			p.logger.Warn("surface geometry unavailable, falling back to placeholder scenes", "error", err)
			return
		}
		p.halves[side] = g
	}
	p.logger.Debug("surface geometry loaded",
		"left_vertices", p.halves[neuro.Left].NumVertices(),
		"right_vertices", p.halves[neuro.Right].NumVertices())
}

// Half returns the geometry for side. The first call loads both halves.
func (p *Provider) Half(side neuro.Half) (*Geometry, error) {
	p.once.Do(p.load)
	if p.err != nil {
		return nil, p.err
	}
	if side != neuro.Left && side != neuro.Right {
		return nil, fmt.Errorf("%w: unknown half %d", neuro.ErrGeometryUnavailable, side)
	}
	return p.halves[side], nil
}

// Both returns the left and right geometry together.
func (p *Provider) Both() (left, right *Geometry, err error) {
	if left, err = p.Half(neuro.Left); err != nil {
		return nil, nil, err
	}
	right, err = p.Half(neuro.Right)
	return left, right, err
}

// Available reports whether geometry loaded successfully.
func (p *Provider) Available() bool {
	_, err := p.Half(neuro.Left)
	return err == nil
}
