// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package graph

import (
	"github.com/born-ml/convnet/internal/graph"
)

// Errors returned by the graph.
var (
	ErrScopeExists    = graph.ErrScopeExists
	ErrVariableExists = graph.ErrVariableExists
	ErrInvalidScope   = graph.ErrInvalidScope
	ErrShapeMismatch  = graph.ErrShapeMismatch
)

// Backend is a Born compute backend.
type Backend = graph.Backend

// Tensor is the float32 tensor every layer consumes and produces.
type Tensor[B Backend] = graph.Tensor[B]

// Parameter is a named trainable tensor.
type Parameter[B Backend] = graph.Parameter[B]

// Graph is the scope and parameter registry.
type Graph[B Backend] = graph.Graph[B]

// Scope is a claimed layer namespace.
type Scope[B Backend] = graph.Scope[B]

// ScopeID identifies a scope.
type ScopeID = graph.ScopeID

// Kind is the layer kind part of a scope name.
type Kind = graph.Kind

// Layer kinds.
const (
	Conv   = graph.Conv
	Pool   = graph.Pool
	FC     = graph.FC
	Output = graph.Output
)

// Placeholder is a named input slot with a fixed shape.
type Placeholder[B Backend] = graph.Placeholder[B]

// Option configures a Graph.
type Option = graph.Option

// New creates an empty graph on backend.
func New[B Backend](backend B, opts ...Option) *Graph[B] {
	return graph.New(backend, opts...)
}

// WithSeed seeds the random source used by initialisers and dropout.
func WithSeed(seed int64) Option {
	return graph.WithSeed(seed)
}

// WithTraining sets the initial training mode.
func WithTraining(training bool) Option {
	return graph.WithTraining(training)
}
