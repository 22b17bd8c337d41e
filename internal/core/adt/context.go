// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import (
	"fmt"
	"io"

	"github.com/johngmyers/kcl/ast"
	kclerrors "github.com/johngmyers/kcl/errors"
	"github.com/johngmyers/kcl/token"
)

// FunctionRegistry looks up and invokes builtins and plugin functions by
// name (spec.md §6 "A runtime registry"). The core never implements a
// builtin body itself.
type FunctionRegistry interface {
	InvokeFunction(c *OpContext, fn Function, args []Value, kwargs map[string]Value) (Value, error)
	SchemaAssert(c *OpContext, cond bool, msg string, meta *ConfigMeta, attr string) error
	SchemaRuntimeType(name, pkgpath string) string
	CalNum(raw int64, unit string) float64
}

// TypeChecker runs type-pack-and-check against a declared type grammar
// parsed externally (spec.md §1, §6).
type TypeChecker interface {
	PackAndCheck(c *OpContext, v Value, types []string, strict bool) (Value, error)
}

// DecoratorRegistry runs a named decorator against an attribute or schema
// target (spec.md §4.5 "Decorator call").
type DecoratorRegistry interface {
	Run(c *OpContext, name string, args []Value, kwargs map[string]Value, attrName string, isSchemaTarget bool, configValue *Dict, meta *ConfigMeta) error
}

// Config bundles the external collaborators an OpContext is built from,
// mirroring adt.Config in the teacher (internal/core/adt/context.go).
type Config struct {
	Functions  FunctionRegistry
	Types      TypeChecker
	Decorators DecoratorRegistry
}

// backtrackMeta is pushed when the lazy engine re-enters a schema body to
// resolve one attribute (spec.md §3 "Backtrack Meta", §4.8).
type backtrackMeta struct {
	FrameIndex int
	StmtIndex  int
	Stop       bool
	Kind       BacktrackKind
}

// BacktrackKind restricts which branch of an `if` a re-entered statement
// walk is allowed to execute (spec.md §4.8).
type BacktrackKind int

const (
	Normal BacktrackKind = iota
	OnlyIf
	OnlyOrElse
)

// OpContext is the single mutable evaluation context threaded through the
// walker by explicit parameter, never through thread-local state (spec.md
// §9 "Mutable runtime context").
type OpContext struct {
	Config

	Frames *FrameTable

	// Globals holds package-global bindings, keyed by pkgpath then name
	// (spec.md §4.2 read rule 4 / write rule 1).
	Globals map[string]map[string]Value

	// importedPkgs tracks which package paths have already been
	// initialized, for Import idempotency (spec.md §4.4, §5).
	importedPkgs map[string]bool

	backtrack []backtrackMeta

	Errs kclerrors.List

	// Debug and Logw mirror the teacher's debug-trace hook
	// (internal/core/adt/debug.go's Debug bool + OpContext.Logf): a plain
	// fmt/io writer rather than a structured logging library, because the
	// teacher itself does not reach for one in this part of the tree.
	Debug bool
	Logw  io.Writer
}

// NewContext constructs an OpContext ready to evaluate a program.
func NewContext(frames *FrameTable, cfg Config) *OpContext {
	return &OpContext{
		Config:       cfg,
		Frames:       frames,
		Globals:      map[string]map[string]Value{},
		importedPkgs: map[string]bool{},
	}
}

// Logf writes a trace line when Debug is set and a writer is configured;
// it is a no-op otherwise, so call sites never need to guard it themselves.
func (c *OpContext) Logf(format string, args ...interface{}) {
	if !c.Debug || c.Logw == nil {
		return
	}
	fmt.Fprintf(c.Logw, format+"\n", args...)
}

// Newf builds a diagnostic with the given code at the given source node.
func (c *OpContext) Newf(src ast.Node, code kclerrors.Code, format string, args ...interface{}) kclerrors.Error {
	pos := token.NoPos
	if src != nil {
		pos = src.Pos()
	}
	return kclerrors.Newf(code, pos, format, args...)
}

// AddErr records err on the context's error list (spec.md §7 propagation
// to the module boundary).
func (c *OpContext) AddErr(err kclerrors.Error) {
	c.Errs.Add(err)
}

// MarkImported records pkgpath as initialized and reports whether it was
// already recorded (spec.md §4.4 Import idempotency).
func (c *OpContext) MarkImported(pkgpath string) (alreadyImported bool) {
	if c.importedPkgs[pkgpath] {
		return true
	}
	c.importedPkgs[pkgpath] = true
	return false
}

// Global returns the package-global binding for name in pkgpath.
func (c *OpContext) Global(pkgpath, name string) (Value, bool) {
	pkg, ok := c.Globals[pkgpath]
	if !ok {
		return nil, false
	}
	v, ok := pkg[name]
	return v, ok
}

// SetGlobal creates or updates a package-global binding (spec.md §4.2
// write rule 1).
func (c *OpContext) SetGlobal(pkgpath, name string, v Value) {
	pkg, ok := c.Globals[pkgpath]
	if !ok {
		pkg = map[string]Value{}
		c.Globals[pkgpath] = pkg
	}
	pkg[name] = v
}

// PushBacktrack pushes a backtrack directive for re-entering one statement
// of one frame (spec.md §4.8 step 2).
func (c *OpContext) PushBacktrack(frameIndex, stmtIndex int, kind BacktrackKind) {
	c.backtrack = append(c.backtrack, backtrackMeta{FrameIndex: frameIndex, StmtIndex: stmtIndex, Kind: kind})
}

// PopBacktrack pops the most recently pushed backtrack directive (spec.md
// §4.8 step 4).
func (c *OpContext) PopBacktrack() {
	if len(c.backtrack) > 0 {
		c.backtrack = c.backtrack[:len(c.backtrack)-1]
	}
}

// TopBacktrack returns the current backtrack restriction, but only when it
// was pushed for exactly this (frameIndex, stmtIndex) — the statement
// findAndRun targeted for re-entry (spec.md §4.8). A nested `if` reached
// while walking the chosen branch queries its own (frameIndex, stmtIndex)
// (or the sentinel -1, -1 when it isn't part of a targeted walk at all) and
// so never matches the outer restriction, consulted by the If statement
// walker (spec.md §4.4 "If").
func (c *OpContext) TopBacktrack(frameIndex, stmtIndex int) (BacktrackKind, bool) {
	if len(c.backtrack) == 0 {
		return Normal, false
	}
	top := c.backtrack[len(c.backtrack)-1]
	if top.FrameIndex != frameIndex || top.StmtIndex != stmtIndex {
		return Normal, false
	}
	return top.Kind, true
}
