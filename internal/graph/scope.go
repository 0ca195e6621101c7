package graph

import (
	"fmt"
	"strings"
)

// Kind identifies the family of layer a scope belongs to.
type Kind int

// Layer kinds.
const (
	Conv   Kind = iota // Convolutional layer: "{network}_conv{counter}"
	Pool               // Max pooling layer: "{network}_pool{counter}"
	FC                 // Fully connected layer: "{network}_fc{counter}"
	Output             // Output layer: "{network}_output_layer"
)

// String returns the name fragment used when rendering a ScopeID.
func (k Kind) String() string {
	switch k {
	case Conv:
		return "conv"
	case Pool:
		return "pool"
	case FC:
		return "fc"
	case Output:
		return "output_layer"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ScopeID is the structured identifier of one layer inside a graph.
//
// Two layers collide when their rendered names are equal, which happens
// exactly when (Network, Kind, Counter) are equal. The Counter of an
// Output scope is ignored: a network has a single output layer.
//
// Example:
//
//	graph.ScopeID{Network: "plates", Kind: graph.Conv, Counter: 3}.String() // "plates_conv3"
type ScopeID struct {
	Network string
	Kind    Kind
	Counter int
}

// String renders the scope name.
func (id ScopeID) String() string {
	if id.Kind == Output {
		return id.Network + "_" + id.Kind.String()
	}
	return fmt.Sprintf("%s_%s%d", id.Network, id.Kind, id.Counter)
}

// Validate reports whether the identifier can be rendered unambiguously.
func (id ScopeID) Validate() error {
	if strings.TrimSpace(id.Network) == "" {
		return fmt.Errorf("%w: empty network name", ErrInvalidScope)
	}
	if strings.ContainsRune(id.Network, '/') {
		return fmt.Errorf("%w: network name %q contains '/'", ErrInvalidScope, id.Network)
	}
	if id.Kind < Conv || id.Kind > Output {
		return fmt.Errorf("%w: unknown layer kind %d", ErrInvalidScope, int(id.Kind))
	}
	if id.Kind != Output && id.Counter < 0 {
		return fmt.Errorf("%w: negative counter %d", ErrInvalidScope, id.Counter)
	}
	return nil
}

// Scope is a claimed namespace inside a Graph.
//
// Variables created through a Scope are registered in the owning graph as
// "{scope}/{name}".
type Scope[B Backend] struct {
	id    ScopeID
	name  string
	graph *Graph[B]
}

// ID returns the structured identifier of the scope.
func (s *Scope[B]) ID() ScopeID {
	return s.id
}

// Name returns the rendered scope name.
func (s *Scope[B]) Name() string {
	return s.name
}

// Graph returns the graph that owns this scope.
func (s *Scope[B]) Graph() *Graph[B] {
	return s.graph
}

// VariableName returns the fully qualified name of a variable in this scope.
func (s *Scope[B]) VariableName(name string) string {
	return s.name + "/" + name
}

// NewVariable registers t as a trainable parameter named "{scope}/{name}".
//
// Returns ErrVariableExists if the name is already registered.
func (s *Scope[B]) NewVariable(name string, t *Tensor[B]) (*Parameter[B], error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty variable name in scope %s", ErrInvalidScope, s.name)
	}
	if t == nil {
		return nil, fmt.Errorf("graph: nil tensor for variable %s", s.VariableName(name))
	}
	return s.graph.register(s.VariableName(name), t)
}
