package graph

import (
	"fmt"

	"github.com/born-ml/born/tensor"
)

// Placeholder is a declared graph input of fixed shape.
type Placeholder[B Backend] struct {
	name  string
	shape tensor.Shape
	graph *Graph[B]
}

// Placeholder declares an input named name with the given shape.
//
// For image inputs the shape is [batch, channels, height, width].
func (g *Graph[B]) Placeholder(name string, shape tensor.Shape) (*Placeholder[B], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty placeholder name", ErrInvalidScope)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: placeholder %s has no dimensions", ErrShapeMismatch, name)
	}
	for i, d := range shape {
		if d <= 0 {
			return nil, fmt.Errorf("%w: placeholder %s dimension %d is %d", ErrShapeMismatch, name, i, d)
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.placeholders[name]; ok {
		return nil, fmt.Errorf("%w: placeholder %s", ErrScopeExists, name)
	}
	if _, ok := g.scopes[name]; ok {
		return nil, fmt.Errorf("%w: %s is a layer scope", ErrScopeExists, name)
	}
	p := &Placeholder[B]{name: name, shape: shape.Clone(), graph: g}
	g.placeholders[name] = p
	return p, nil
}

// Name returns the placeholder name.
func (p *Placeholder[B]) Name() string {
	return p.name
}

// Shape returns a copy of the declared shape.
func (p *Placeholder[B]) Shape() tensor.Shape {
	return p.shape.Clone()
}

// Feed binds data to the placeholder and returns the input tensor.
//
// data is laid out row-major in the declared shape.
func (p *Placeholder[B]) Feed(data []float32) (*Tensor[B], error) {
	if want := p.shape.NumElements(); len(data) != want {
		return nil, fmt.Errorf("%w: placeholder %s %v needs %d values, got %d",
			ErrShapeMismatch, p.name, p.shape, want, len(data))
	}
	t, err := tensor.FromSlice(data, p.shape.Clone(), p.graph.backend)
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", p.name, err)
	}
	return t, nil
}
