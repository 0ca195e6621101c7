// Package graph implements the computation-graph namespace that layer
// builders create parameters in.
//
// The Born runtime executes eagerly, so a Graph does not record operations.
// It owns everything that must be shared by the layers of one or more
// networks:
//   - the compute backend
//   - the parameter namespace, keyed by structured ScopeIDs
//   - declared input placeholders
//   - a seeded random source for parameter initialisation
//   - the training/inference mode flag
//
// All methods are safe for concurrent use.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/born-ml/born/nn"
	"github.com/born-ml/born/tensor"
	"golang.org/x/exp/rand"
)

// Errors returned by graph operations.
var (
	ErrScopeExists    = errors.New("graph: scope already exists")
	ErrVariableExists = errors.New("graph: variable already exists")
	ErrInvalidScope   = errors.New("graph: invalid scope")
	ErrShapeMismatch  = errors.New("graph: shape mismatch")
)

// Backend is the compute backend constraint of a Graph.
type Backend = tensor.Backend

// Tensor is the float32 tensor type used for activations and parameters.
type Tensor[B Backend] = tensor.Tensor[float32, B]

// Parameter is a named trainable tensor registered in a Graph.
type Parameter[B Backend] = nn.Parameter[B]

// Option configures a Graph.
type Option func(*options)

type options struct {
	seed     int64
	training bool
}

// WithSeed seeds the random source used for parameter initialisation.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithTraining sets the initial training mode. Graphs start in inference mode.
func WithTraining(training bool) Option {
	return func(o *options) {
		o.training = training
	}
}

// Graph is the enclosing namespace of one or more assembled networks.
type Graph[B Backend] struct {
	backend B
	source  *lockedSource

	mu           sync.Mutex
	training     bool
	scopes       map[string]ScopeID
	placeholders map[string]*Placeholder[B]
	params       []*Parameter[B]
	byName       map[string]*Parameter[B]
}

// New creates an empty graph on the given backend.
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	g := graph.New(backend, graph.WithSeed(42))
func New[B Backend](backend B, opts ...Option) *Graph[B] {
	o := options{seed: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return &Graph[B]{
		backend:      backend,
		source:       newLockedSource(uint64(o.seed)),
		training:     o.training,
		scopes:       make(map[string]ScopeID),
		placeholders: make(map[string]*Placeholder[B]),
		byName:       make(map[string]*Parameter[B]),
	}
}

// Backend returns the compute backend.
func (g *Graph[B]) Backend() B {
	return g.backend
}

// Source returns the graph's random source. It is safe for concurrent use.
func (g *Graph[B]) Source() rand.Source {
	return g.source
}

// Training reports whether the graph is in training mode.
func (g *Graph[B]) Training() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.training
}

// SetTraining switches between training and inference mode.
func (g *Graph[B]) SetTraining(training bool) {
	g.mu.Lock()
	g.training = training
	g.mu.Unlock()
}

// Claim reserves the scope identified by id.
//
// Returns ErrScopeExists when a scope with the same rendered name has
// already been claimed since the last Reset.
func (g *Graph[B]) Claim(id ScopeID) (*Scope[B], error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	name := id.String()

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.scopes[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrScopeExists, name)
	}
	if _, ok := g.placeholders[name]; ok {
		return nil, fmt.Errorf("%w: %s is a placeholder", ErrScopeExists, name)
	}
	g.scopes[name] = id
	return &Scope[B]{id: id, name: name, graph: g}, nil
}

func (g *Graph[B]) register(name string, t *Tensor[B]) (*Parameter[B], error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.byName[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrVariableExists, name)
	}
	p := nn.NewParameter(name, t)
	g.params = append(g.params, p)
	g.byName[name] = p
	return p, nil
}

// Release forgets the given scopes and every variable registered in them,
// so the names can be claimed again. Unknown scopes are ignored.
func (g *Graph[B]) Release(ids ...ScopeID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	prefixes := make([]string, 0, len(ids))
	for _, id := range ids {
		name := id.String()
		if _, ok := g.scopes[name]; !ok {
			continue
		}
		delete(g.scopes, name)
		prefixes = append(prefixes, name+"/")
	}
	if len(prefixes) == 0 {
		return
	}

	kept := g.params[:0]
	for _, p := range g.params {
		if hasAnyPrefix(p.Name(), prefixes) {
			delete(g.byName, p.Name())
			continue
		}
		kept = append(kept, p)
	}
	clear(g.params[len(kept):])
	g.params = kept
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Parameters returns all registered parameters in creation order.
func (g *Graph[B]) Parameters() []*Parameter[B] {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]*Parameter[B], len(g.params))
	copy(out, g.params)
	return out
}

// Lookup returns the parameter with the fully qualified name.
func (g *Graph[B]) Lookup(name string) (*Parameter[B], bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	p, ok := g.byName[name]
	return p, ok
}

// Scopes returns the claimed scope names, sorted.
func (g *Graph[B]) Scopes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	names := make([]string, 0, len(g.scopes))
	for name := range g.scopes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NumParameters returns the total number of scalar parameters.
func (g *Graph[B]) NumParameters() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	total := 0
	for _, p := range g.params {
		total += p.Tensor().Shape().NumElements()
	}
	return total
}

// Reset forgets every scope, placeholder and parameter.
//
// Tensors already handed out stay valid; they are simply no longer
// reachable through the graph. The random source is not reseeded.
func (g *Graph[B]) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.scopes = make(map[string]ScopeID)
	g.placeholders = make(map[string]*Placeholder[B])
	g.params = nil
	g.byName = make(map[string]*Parameter[B])
}
