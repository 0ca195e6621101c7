// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph provides the parameter namespace networks are built in.
//
// A Graph owns a compute backend, a seeded random source and a registry of
// scopes and parameters. Every layer claims one scope named
// "{network}_{kind}{counter}"; its parameters are named "{scope}/weights"
// and "{scope}/biases".
//
// Example:
//
//	backend := autodiff.New(cpu.New())
//	g := graph.New(backend, graph.WithSeed(7))
//	x, _ := g.Placeholder("x", tensor.Shape{128, 1, 64, 64})
//	...
//	for _, p := range g.Parameters() {
//	    fmt.Println(p.Name(), p.Tensor().Shape())
//	}
package graph
