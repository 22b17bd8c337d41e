// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import (
	"github.com/cockroachdb/apd/v3"

	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/errors"
)

// apdCtx is the shared decimal context for arbitrary-precision arithmetic,
// ported from the teacher's internal/core/adt/binop.go (same Precision).
var apdCtx apd.Context

func init() {
	apdCtx = apd.BaseContext
	apdCtx.Precision = 34
}

func asDecimal(v Value) (*apd.Decimal, Kind, bool) {
	switch x := v.(type) {
	case Int:
		return &x.D, IntKind, true
	case Float:
		return &x.D, FloatKind, true
	case Unit:
		var d apd.Decimal
		d.SetFloat64(x.Normalized)
		return &d, UnitKind, true
	}
	return nil, 0, false
}

func numFromDecimal(src ast.Node, d *apd.Decimal, k Kind) Value {
	if k == IntKind {
		return Int{baseValue{src}, *d}
	}
	return Float{baseValue{src}, *d}
}

type decFunc func(z, x, y *apd.Decimal) (apd.Condition, error)

// numOp applies fn to the decimal representation of a and b, producing Int
// if both operands are Int, else Float (spec.md §4.1 arithmetic).
func numOp(c *OpContext, src ast.Node, fn decFunc, a, b Value) (Value, errors.Error) {
	x, xk, ok1 := asDecimal(a)
	y, yk, ok2 := asDecimal(b)
	if !ok1 || !ok2 {
		return nil, errors.Newf(errors.InvalidOperator, src.Pos(), "invalid operands %v and %v", a, b)
	}
	var z apd.Decimal
	cond, err := fn(&z, x, y)
	if err != nil {
		return nil, errors.Newf(errors.DivideByZero, src.Pos(), "failed arithmetic: %v", err)
	}
	if cond.DivisionByZero() {
		return nil, errors.Newf(errors.DivideByZero, src.Pos(), "division by zero")
	}
	k := xk
	if xk != IntKind || yk != IntKind {
		k = FloatKind
	}
	return numFromDecimal(src, &z, k), nil
}

// Add implements `+` for numeric kinds and string/list concatenation
// (spec.md §4.1).
func Add(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	if as, ok := a.(String); ok {
		if bs, ok := b.(String); ok {
			return as + bs, nil
		}
	}
	if al, ok := a.(*List); ok {
		if bl, ok := b.(*List); ok {
			out := append(append([]Value(nil), al.Elts...), bl.Elts...)
			return NewList(src, out...), nil
		}
	}
	return numOp(c, src, apdCtx.Add, a, b)
}

func Sub(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	return numOp(c, src, apdCtx.Sub, a, b)
}

func Mul(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	return numOp(c, src, apdCtx.Mul, a, b)
}

func Div(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	return numOp(c, src, apdCtx.Quo, a, b)
}

func Mod(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	return numOp(c, src, apdCtx.Rem, a, b)
}

func Pow(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	return numOp(c, src, apdCtx.Pow, a, b)
}

func FloorDiv(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	v, err := numOp(c, src, apdCtx.QuoInteger, a, b)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// bitwise helpers operate on Int only (spec.md §4.1 bitwise).
func bitwiseOp(c *OpContext, src ast.Node, op string, a, b Value) (Value, errors.Error) {
	ai, ok1 := a.(Int)
	bi, ok2 := b.(Int)
	if !ok1 || !ok2 {
		return nil, errors.Newf(errors.InvalidOperator, src.Pos(), "bitwise %s requires int operands", op)
	}
	x, y := ai.Int64(), bi.Int64()
	var r int64
	switch op {
	case "and":
		r = x & y
	case "or":
		r = x | y
	case "xor":
		r = x ^ y
	case "lshift":
		r = x << uint(y)
	case "rshift":
		r = x >> uint(y)
	}
	v := NewInt(r)
	v.src = src
	return v, nil
}

func BitAnd(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	return bitwiseOp(c, src, "and", a, b)
}
func BitXor(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	return bitwiseOp(c, src, "xor", a, b)
}
func LShift(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	return bitwiseOp(c, src, "lshift", a, b)
}
func RShift(c *OpContext, src ast.Node, a, b Value) (Value, errors.Error) {
	return bitwiseOp(c, src, "rshift", a, b)
}

// Unary implements unary +, -, ~, ! (spec.md §4.5).
func Unary(c *OpContext, src ast.Node, op ast.UnaryOp, x Value) (Value, errors.Error) {
	switch op {
	case ast.UnaryPlus:
		return x, nil
	case ast.UnaryMinus:
		d, k, ok := asDecimal(x)
		if !ok {
			return nil, errors.Newf(errors.InvalidOperator, src.Pos(), "cannot negate %v", x)
		}
		var z apd.Decimal
		z.Neg(d)
		return numFromDecimal(src, &z, k), nil
	case ast.UnaryBitNot:
		xi, ok := x.(Int)
		if !ok {
			return nil, errors.Newf(errors.InvalidOperator, src.Pos(), "cannot apply ~ to %v", x)
		}
		v := NewInt(^xi.Int64())
		v.src = src
		return v, nil
	case ast.UnaryNot:
		return Bool(!Truthy(x)), nil
	}
	return nil, errors.Newf(errors.Internal, src.Pos(), "unknown unary operator")
}
