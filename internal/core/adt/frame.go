// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import "github.com/johngmyers/kcl/ast"

// ProxyKind distinguishes what a Frame's Proxy field actually is (spec.md
// §3 "Frame").
type ProxyKind int

const (
	SchemaProxy ProxyKind = iota
	RuleProxy
	LambdaProxy
	GlobalProxy
)

// Frame is one entry of the append-only Frame Table (spec.md §3, §9
// "Cyclic schema references"). A Value of kind Function holds only a
// Frame index, never a pointer into this slice, so recursive schema
// graphs never require shared ownership.
type Frame struct {
	Pkgpath string
	Proxy   ProxyKind

	// Exactly one of the following is populated, selected by Proxy.
	Schema *SchemaEvalContext
	Rule   *SchemaEvalContext // rules reuse the schema context shape (GLOSSARY: "a schema-like declaration")
	Lambda *LambdaEvalContext
	Global *GlobalEvalContext
}

// LambdaEvalContext captures what a lambda closes over (spec.md §4.3,
// §4.5).
type LambdaEvalContext struct {
	Node    ast.Node // *ast.LambdaExpr
	Closure map[string]Value
	Level   int
	// This points at the nearest enclosing schema context, if any
	// (spec.md §4.5 "Lambda").
	This *SchemaEvalContext
}

// GlobalEvalContext addresses one package-global module index (spec.md
// §3 Frame "Global(module-index)").
type GlobalEvalContext struct {
	ModuleIndex int
}

// FrameTable is the append-only table of Frame.Index never invalidates.
type FrameTable struct {
	frames []*Frame
}

// NewFrameTable returns an empty table.
func NewFrameTable() *FrameTable { return &FrameTable{} }

// Add appends f and returns its stable index.
func (t *FrameTable) Add(f *Frame) int {
	t.frames = append(t.frames, f)
	return len(t.frames) - 1
}

// At returns the Frame at index, panicking on an out-of-range index since
// Function values are only ever constructed by this package's own
// allocation sites (an out-of-range index is always an evaluator bug,
// spec.md §7 Internal).
func (t *FrameTable) At(index int) *Frame {
	return t.frames[index]
}

// Len returns the number of frames allocated so far.
func (t *FrameTable) Len() int { return len(t.frames) }
