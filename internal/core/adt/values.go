// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import (
	"github.com/cockroachdb/apd/v3"

	"github.com/johngmyers/kcl/ast"
)

// baseValue carries the originating AST node shared by every concrete
// Value; Source always returns it and DeepCopy of an immutable scalar is
// itself.
type baseValue struct {
	src ast.Node
}

func (b baseValue) Source() ast.Node { return b.src }

// Undefined is spec.md §3's first-class Undefined variant: it propagates
// through arithmetic/logical operations rather than erroring (spec.md
// §4.4).
type Undefined struct{ baseValue }

func (Undefined) Kind() Kind              { return UndefinedKind }
func (Undefined) Concreteness() Concreteness { return Concrete }
func (u Undefined) DeepCopy() Value        { return u }

// None is distinct from Undefined (spec.md §3).
type None struct{ baseValue }

func (None) Kind() Kind              { return NoneKind }
func (None) Concreteness() Concreteness { return Concrete }
func (n None) DeepCopy() Value        { return n }

// Bool wraps a boolean.
type Bool bool

func (Bool) Kind() Kind                 { return BoolKind }
func (Bool) Concreteness() Concreteness { return Concrete }
func (b Bool) Source() ast.Node         { return nil }
func (b Bool) DeepCopy() Value          { return b }

// Int is an arbitrary-precision integer backed by apd.Decimal (see
// DESIGN.md for why apd rather than int64: large literals and repeated
// arithmetic must not silently overflow).
type Int struct {
	baseValue
	D apd.Decimal
}

func (Int) Kind() Kind                 { return IntKind }
func (Int) Concreteness() Concreteness { return Concrete }
func (x Int) DeepCopy() Value {
	cp := x
	cp.D.Set(&x.D)
	return cp
}

// Int64 returns the value truncated to an int64, used for list indexing,
// loop bounds and similar Go-native integration points.
func (x Int) Int64() int64 {
	i, _ := x.D.Int64()
	return i
}

// NewInt constructs an Int from a Go int64.
func NewInt(n int64) Int {
	var i Int
	i.D.SetInt64(n)
	return i
}

// Float is an arbitrary-precision decimal float backed by apd.Decimal.
type Float struct {
	baseValue
	D apd.Decimal
}

func (Float) Kind() Kind                 { return FloatKind }
func (Float) Concreteness() Concreteness { return Concrete }
func (x Float) DeepCopy() Value {
	cp := x
	cp.D.Set(&x.D)
	return cp
}

// Float64 returns the value as a float64.
func (x Float) Float64() float64 {
	f, _ := x.D.Float64()
	return f
}

// NewFloat constructs a Float from a Go float64.
func NewFloat(f float64) Float {
	var v Float
	v.D.SetFloat64(f)
	return v
}

// Unit is a numeric literal carrying a unit suffix, e.g. `2Ki`, `10ms`
// (spec.md §3). Normalized is produced by the registry's cal_num hook
// (spec.md §6); the core never computes it itself.
type Unit struct {
	baseValue
	Raw        int64
	Normalized float64
	Suffix     string
}

func (Unit) Kind() Kind                 { return UnitKind }
func (Unit) Concreteness() Concreteness { return Concrete }
func (u Unit) DeepCopy() Value          { return u }

// String is a Language string value.
type String string

func (String) Kind() Kind                 { return StringKind }
func (String) Concreteness() Concreteness { return Concrete }
func (s String) Source() ast.Node         { return nil }
func (s String) DeepCopy() Value          { return s }

// Function is a callable value: either a Frame-indexed proxy (schema,
// rule, lambda, package-global) or a builtin identified by name, per
// spec.md §3/§4.3.
type Function struct {
	baseValue
	// FrameIndex addresses the Frame Table when IsBuiltin is false.
	FrameIndex int
	IsBuiltin  bool
	BuiltinID  string
}

func (Function) Kind() Kind                 { return FuncKind }
func (Function) Concreteness() Concreteness { return Concrete }
func (f Function) DeepCopy() Value          { return f }
