// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package eval

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/errors"
	"github.com/johngmyers/kcl/internal/core/adt"
)

// evalExpr is the expression walker of spec.md §4.5.
func (e *Evaluator) evalExpr(expr ast.Expr, scope *adt.Scope) adt.Value {
	switch x := expr.(type) {
	case *ast.BasicLit:
		return e.evalBasicLit(x)
	case *ast.Ident:
		return e.readIdent(x, scope)
	case *ast.BinaryExpr:
		return e.evalBinary(x, scope)
	case *ast.UnaryExpr:
		v := e.evalExpr(x.X, scope)
		if v == nil {
			return nil
		}
		r, err := adt.Unary(e.Ctx, x, x.Op, v)
		if err != nil {
			e.Ctx.AddErr(err)
			return nil
		}
		return r
	case *ast.CompareExpr:
		return e.evalCompare(x, scope)
	case *ast.IfExpr:
		cond := e.evalExpr(x.Cond, scope)
		if cond == nil {
			return nil
		}
		if adt.Truthy(cond) {
			return e.evalExpr(x.Then, scope)
		}
		return e.evalExpr(x.Else, scope)
	case *ast.ParenExpr:
		return e.evalExpr(x.X, scope)
	case *ast.SelectorExpr:
		return e.evalSelector(x, scope)
	case *ast.SubscriptExpr:
		return e.evalSubscript(x, scope)
	case *ast.AsExpr:
		v := e.evalExpr(x.X, scope)
		if v == nil {
			return nil
		}
		if e.Ctx.Types != nil {
			checked, err := e.Ctx.Types.PackAndCheck(e.Ctx, v, []string{x.Type}, true)
			if err == nil {
				return checked
			}
			e.errf(x, errors.TypeMismatch, "%v", err)
		}
		return v
	case *ast.ListExpr:
		return e.evalList(x, scope)
	case *ast.ConfigExpr:
		return e.evalConfigBody(x, scope)
	case *ast.SchemaExpr:
		return e.instantiateSchema(x, scope)
	case *ast.CallExpr:
		return e.evalCall(x, scope)
	case *ast.CheckExpr:
		e.evalCheck(x, scope)
		return adt.Bool(true)
	case *ast.LambdaExpr:
		return e.evalLambda(x, scope)
	case *ast.QuantExpr:
		return e.evalQuant(x, scope)
	case *ast.ListComp:
		return e.evalListComp(x, scope)
	case *ast.DictComp:
		return e.evalDictComp(x, scope)
	case *ast.JoinedString:
		return e.evalJoinedString(x, scope)
	case *ast.FormattedValue:
		v := e.evalExpr(x.X, scope)
		if v == nil {
			return nil
		}
		return adt.String(e.formatValue(v, x.Format, x))
	case *ast.MissingExpr:
		e.errf(x, errors.Internal, "compile error: missing expression")
		return adt.Undefined{}
	}
	e.errInternal(expr, "unhandled expression type %T", expr)
	return adt.Undefined{}
}

func (e *Evaluator) evalBasicLit(lit *ast.BasicLit) adt.Value {
	switch lit.Kind {
	case ast.INT:
		n, _ := strconv.ParseInt(lit.Value, 0, 64)
		return adt.NewInt(n)
	case ast.FLOAT:
		f, _ := strconv.ParseFloat(lit.Value, 64)
		return adt.NewFloat(f)
	case ast.UNIT:
		raw, suffix := parseUnitLit(lit.Value)
		norm := float64(raw)
		if e.Ctx.Functions != nil {
			norm = e.Ctx.Functions.CalNum(raw, suffix)
		}
		return adt.Unit{Raw: raw, Normalized: norm, Suffix: suffix}
	case ast.STRING:
		return adt.String(unquoteString(lit.Value))
	case ast.BOOL:
		return adt.Bool(lit.Value == "true")
	case ast.NONE:
		return adt.None{}
	case ast.UNDEFINED:
		return adt.Undefined{}
	}
	e.errInternal(lit, "unknown literal kind")
	return adt.Undefined{}
}

// parseUnitLit splits a unit literal lexeme like "2Ki" into its raw integer
// and suffix (spec.md §3 "Unit").
func parseUnitLit(value string) (int64, string) {
	i := 0
	for i < len(value) && (value[i] == '-' || value[i] == '+' || (value[i] >= '0' && value[i] <= '9')) {
		i++
	}
	n, _ := strconv.ParseInt(value[:i], 10, 64)
	return n, value[i:]
}

func unquoteString(raw string) string {
	return adt.UnquoteString(raw)
}

// evalBinary implements spec.md §4.5 "Binary": and/or short-circuit, `as`
// treats its right operand as a bare type name, everything else eagerly
// evaluates both sides.
func (e *Evaluator) evalBinary(be *ast.BinaryExpr, scope *adt.Scope) adt.Value {
	switch be.Op {
	case ast.LogicAnd:
		l := e.evalExpr(be.X, scope)
		if l == nil || !adt.Truthy(l) {
			return l
		}
		return e.evalExpr(be.Y, scope)
	case ast.LogicOr:
		l := e.evalExpr(be.X, scope)
		if l == nil || adt.Truthy(l) {
			return l
		}
		return e.evalExpr(be.Y, scope)
	case ast.As:
		x := e.evalExpr(be.X, scope)
		if x == nil {
			return nil
		}
		typeName := ""
		if id, ok := be.Y.(*ast.Ident); ok {
			typeName = id.Name
		}
		if e.Ctx.Types != nil {
			checked, err := e.Ctx.Types.PackAndCheck(e.Ctx, x, []string{typeName}, true)
			if err == nil {
				return checked
			}
			e.errf(be, errors.TypeMismatch, "%v", err)
		}
		return x
	}

	x := e.evalExpr(be.X, scope)
	y := e.evalExpr(be.Y, scope)
	if x == nil || y == nil {
		return nil
	}
	var v adt.Value
	var err errors.Error
	switch be.Op {
	case ast.Add:
		v, err = adt.Add(e.Ctx, be, x, y)
	case ast.Sub:
		v, err = adt.Sub(e.Ctx, be, x, y)
	case ast.Mul:
		v, err = adt.Mul(e.Ctx, be, x, y)
	case ast.Div:
		v, err = adt.Div(e.Ctx, be, x, y)
	case ast.Mod:
		v, err = adt.Mod(e.Ctx, be, x, y)
	case ast.Pow:
		v, err = adt.Pow(e.Ctx, be, x, y)
	case ast.FloorDiv:
		v, err = adt.FloorDiv(e.Ctx, be, x, y)
	case ast.BitAnd:
		v, err = adt.BitAnd(e.Ctx, be, x, y)
	case ast.BitOr:
		v, err = adt.Union(e.Ctx, be, x, y)
	case ast.BitXor:
		v, err = adt.BitXor(e.Ctx, be, x, y)
	case ast.LShift:
		v, err = adt.LShift(e.Ctx, be, x, y)
	case ast.RShift:
		v, err = adt.RShift(e.Ctx, be, x, y)
	default:
		err = errors.Newf(errors.Internal, be.Pos(), "unknown binary operator")
	}
	if err != nil {
		e.Ctx.AddErr(err)
		return nil
	}
	return v
}

// evalCompare implements spec.md §4.5 "Compare (chained, short-circuit
// left-to-right)" per the Open Question decision recorded in DESIGN.md:
// result keeps the last comparison's outcome, and left tracks right after
// every step taken (including the step that breaks the chain).
func (e *Evaluator) evalCompare(ce *ast.CompareExpr, scope *adt.Scope) adt.Value {
	if len(ce.Operands) == 0 {
		return adt.Bool(true)
	}
	left := e.evalExpr(ce.Operands[0], scope)
	if left == nil {
		return nil
	}
	result := true
	for i, op := range ce.Ops {
		right := e.evalExpr(ce.Operands[i+1], scope)
		if right == nil {
			return nil
		}
		ok, err := compareOne(op, left, right, ce)
		if err != nil {
			e.Ctx.AddErr(err)
			return nil
		}
		result = ok
		left = right
		if !ok {
			break
		}
	}
	return adt.Bool(result)
}

func compareOne(op ast.CmpOp, a, b adt.Value, src ast.Node) (bool, errors.Error) {
	switch op {
	case ast.Eq, ast.Is:
		return valueEqual(a, b), nil
	case ast.Ne, ast.IsNot, ast.Not:
		return !valueEqual(a, b), nil
	case ast.Lt, ast.Le, ast.Gt, ast.Ge:
		cmp, ok := valueCompare(a, b)
		if !ok {
			return false, errors.Newf(errors.InvalidOperator, src.Pos(), "cannot order %v and %v", a, b)
		}
		switch op {
		case ast.Lt:
			return cmp < 0, nil
		case ast.Le:
			return cmp <= 0, nil
		case ast.Gt:
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	case ast.In:
		return valueIn(a, b), nil
	case ast.NotIn:
		return !valueIn(a, b), nil
	}
	return false, errors.Newf(errors.Internal, src.Pos(), "unknown comparison operator")
}

func numericValue(v adt.Value) (float64, bool) {
	switch x := v.(type) {
	case adt.Int:
		return float64(x.Int64()), true
	case adt.Float:
		return x.Float64(), true
	case adt.Unit:
		return x.Normalized, true
	}
	return 0, false
}

func valueEqual(a, b adt.Value) bool {
	if av, ok := numericValue(a); ok {
		bv, ok2 := numericValue(b)
		return ok2 && av == bv
	}
	switch x := a.(type) {
	case adt.Undefined:
		_, ok := b.(adt.Undefined)
		return ok
	case adt.None:
		_, ok := b.(adt.None)
		return ok
	case adt.Bool:
		y, ok := b.(adt.Bool)
		return ok && x == y
	case adt.String:
		y, ok := b.(adt.String)
		return ok && x == y
	case *adt.List:
		y, ok := b.(*adt.List)
		if !ok || len(x.Elts) != len(y.Elts) {
			return false
		}
		for i := range x.Elts {
			if !valueEqual(x.Elts[i], y.Elts[i]) {
				return false
			}
		}
		return true
	case *adt.Dict:
		y, ok := b.(*adt.Dict)
		if !ok || len(x.Keys) != len(y.Keys) {
			return false
		}
		for _, k := range x.Keys {
			yv, ok := y.Get(k)
			if !ok || !valueEqual(x.Values[k], yv) {
				return false
			}
		}
		return true
	case *adt.Schema:
		y, ok := b.(*adt.Schema)
		return ok && valueEqual(&x.Dict, &y.Dict)
	case adt.Function:
		y, ok := b.(adt.Function)
		return ok && x.FrameIndex == y.FrameIndex && x.IsBuiltin == y.IsBuiltin && x.BuiltinID == y.BuiltinID
	}
	return false
}

func valueCompare(a, b adt.Value) (int, bool) {
	if av, ok := numericValue(a); ok {
		if bv, ok2 := numericValue(b); ok2 {
			switch {
			case av < bv:
				return -1, true
			case av > bv:
				return 1, true
			default:
				return 0, true
			}
		}
		return 0, false
	}
	if as, ok := a.(adt.String); ok {
		if bs, ok2 := b.(adt.String); ok2 {
			return strings.Compare(string(as), string(bs)), true
		}
	}
	return 0, false
}

func valueIn(a, b adt.Value) bool {
	switch y := b.(type) {
	case *adt.List:
		for _, el := range y.Elts {
			if valueEqual(a, el) {
				return true
			}
		}
		return false
	case *adt.Dict:
		s, ok := a.(adt.String)
		return ok && y.Has(string(s))
	case *adt.Schema:
		s, ok := a.(adt.String)
		return ok && y.Has(string(s))
	case adt.String:
		s, ok := a.(adt.String)
		return ok && strings.Contains(string(y), string(s))
	}
	return false
}

// evalSelector implements spec.md §4.5 Selector, including `?` optional
// chaining.
func (e *Evaluator) evalSelector(sel *ast.SelectorExpr, scope *adt.Scope) adt.Value {
	base := e.evalExpr(sel.X, scope)
	if base == nil {
		return nil
	}
	if sel.Optional && !adt.Truthy(base) {
		return adt.Undefined{}
	}
	d, ok := asDict(base)
	if !ok {
		e.errf(sel, errors.TypeMismatch, "cannot select attribute %q on non-dict value", sel.Sel)
		return adt.Undefined{}
	}
	v, ok := d.Get(sel.Sel)
	if !ok {
		if sel.Optional {
			return adt.Undefined{}
		}
		e.errf(sel, errors.UndefinedAttr, "undefined attribute %q", sel.Sel)
		return adt.Undefined{}
	}
	return v
}

// evalSubscript implements spec.md §4.5 Subscript: index and 3-part slice,
// both with an optional `?` short-circuit.
func (e *Evaluator) evalSubscript(sub *ast.SubscriptExpr, scope *adt.Scope) adt.Value {
	base := e.evalExpr(sub.X, scope)
	if base == nil {
		return nil
	}
	if sub.Optional && !adt.Truthy(base) {
		return adt.Undefined{}
	}
	if sub.Slice {
		low := e.optionalIntArg(sub.Low, scope)
		high := e.optionalIntArg(sub.High, scope)
		step := e.optionalIntArg(sub.Step, scope)
		switch x := base.(type) {
		case *adt.List:
			return sliceList(x, low, high, step)
		case adt.String:
			return sliceString(x, low, high, step)
		}
		e.errf(sub, errors.TypeMismatch, "cannot slice value")
		return adt.Undefined{}
	}

	idx := e.evalExpr(sub.Index, scope)
	if idx == nil {
		return nil
	}
	switch x := base.(type) {
	case *adt.List:
		i, ok := idx.(adt.Int)
		if !ok {
			e.errf(sub, errors.TypeMismatch, "list index must be int")
			return adt.Undefined{}
		}
		n := normalizeIndex(int(i.Int64()), len(x.Elts))
		if n < 0 || n >= len(x.Elts) {
			if sub.Optional {
				return adt.Undefined{}
			}
			e.errf(sub, errors.UndefinedAttr, "list index out of range")
			return adt.Undefined{}
		}
		return x.Elts[n]
	case adt.String:
		i, ok := idx.(adt.Int)
		if !ok {
			e.errf(sub, errors.TypeMismatch, "string index must be int")
			return adt.Undefined{}
		}
		r := []rune(string(x))
		n := normalizeIndex(int(i.Int64()), len(r))
		if n < 0 || n >= len(r) {
			if sub.Optional {
				return adt.Undefined{}
			}
			e.errf(sub, errors.UndefinedAttr, "string index out of range")
			return adt.Undefined{}
		}
		return adt.String(string(r[n]))
	case *adt.Dict:
		return e.subscriptDict(&x.Values, x, idx, sub)
	case *adt.Schema:
		return e.subscriptDict(&x.Values, &x.Dict, idx, sub)
	}
	e.errf(sub, errors.TypeMismatch, "value is not subscriptable")
	return adt.Undefined{}
}

func (e *Evaluator) subscriptDict(_ *map[string]adt.Value, d *adt.Dict, idx adt.Value, sub *ast.SubscriptExpr) adt.Value {
	s, ok := idx.(adt.String)
	if !ok {
		e.errf(sub, errors.TypeMismatch, "dict index must be string")
		return adt.Undefined{}
	}
	v, ok := d.Get(string(s))
	if !ok {
		if sub.Optional {
			return adt.Undefined{}
		}
		e.errf(sub, errors.UndefinedAttr, "undefined key %q", string(s))
		return adt.Undefined{}
	}
	return v
}

func (e *Evaluator) optionalIntArg(expr ast.Expr, scope *adt.Scope) *int {
	if expr == nil {
		return nil
	}
	v := e.evalExpr(expr, scope)
	iv, ok := v.(adt.Int)
	if !ok {
		return nil
	}
	n := int(iv.Int64())
	return &n
}

func normalizeIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	return i
}

func clampIndex(i, n, step int) int {
	if i < 0 {
		i += n
	}
	if step > 0 {
		if i < 0 {
			i = 0
		}
		if i > n {
			i = n
		}
		return i
	}
	if i < -1 {
		i = -1
	}
	if i >= n {
		i = n - 1
	}
	return i
}

func sliceList(l *adt.List, low, high, step *int) *adt.List {
	n := len(l.Elts)
	st := 1
	if step != nil {
		st = *step
	}
	if st == 0 {
		st = 1
	}
	lo, hi := 0, n
	if st < 0 {
		lo, hi = n-1, -1
	}
	if low != nil {
		lo = clampIndex(*low, n, st)
	}
	if high != nil {
		hi = clampIndex(*high, n, st)
	}
	var out []adt.Value
	if st > 0 {
		for i := lo; i < hi && i < n; i += st {
			if i >= 0 {
				out = append(out, l.Elts[i])
			}
		}
	} else {
		for i := lo; i > hi && i >= 0; i += st {
			if i < n {
				out = append(out, l.Elts[i])
			}
		}
	}
	return adt.NewList(l.Source(), out...)
}

func sliceString(s adt.String, low, high, step *int) adt.String {
	r := []rune(string(s))
	n := len(r)
	st := 1
	if step != nil {
		st = *step
	}
	if st == 0 {
		st = 1
	}
	lo, hi := 0, n
	if st < 0 {
		lo, hi = n-1, -1
	}
	if low != nil {
		lo = clampIndex(*low, n, st)
	}
	if high != nil {
		hi = clampIndex(*high, n, st)
	}
	var out []rune
	if st > 0 {
		for i := lo; i < hi && i < n; i += st {
			if i >= 0 {
				out = append(out, r[i])
			}
		}
	} else {
		for i := lo; i > hi && i >= 0; i += st {
			if i < n {
				out = append(out, r[i])
			}
		}
	}
	return adt.String(string(out))
}

// evalList implements spec.md §4.5 "List with *spread / ListIfItem".
func (e *Evaluator) evalList(le *ast.ListExpr, scope *adt.Scope) adt.Value {
	var out []adt.Value
	for _, elt := range le.Elts {
		switch x := elt.(type) {
		case *ast.StarredExpr:
			v := e.evalExpr(x.X, scope)
			if v == nil {
				continue
			}
			l, ok := v.(*adt.List)
			if !ok {
				e.errf(x, errors.TypeMismatch, "cannot spread non-list value")
				continue
			}
			out = append(out, l.Elts...)
		case *ast.ListIfItem:
			cond := e.evalExpr(x.Cond, scope)
			if cond == nil || !adt.Truthy(cond) {
				continue
			}
			v := e.evalExpr(x.X, scope)
			if v != nil {
				out = append(out, v)
			}
		default:
			v := e.evalExpr(elt, scope)
			if v != nil {
				out = append(out, v)
			}
		}
	}
	return adt.NewList(le, out...)
}

// configOp maps the AST's per-entry operator to the adt Dict operator.
func configOp(op ast.ConfigEntryOp) adt.EntryOp {
	switch op {
	case ast.OpUnion:
		return adt.Union
	case ast.OpInsert:
		return adt.Insert
	default:
		return adt.Override
	}
}

func literalKeyName(key ast.Expr) (string, bool) {
	switch k := key.(type) {
	case *ast.Ident:
		return k.Name, true
	case *ast.BasicLit:
		if k.Kind == ast.STRING {
			return unquoteString(k.Value), true
		}
	}
	return "", false
}

// configKey implements spec.md §4.7's key-determination rules: Ident,
// STRING literal, `subscript[identifier[INT]]` insert-index form, or a
// computed expression evaluating to a string.
func (e *Evaluator) configKey(entry *ast.ConfigEntry, scope *adt.Scope) (string, *int, adt.EntryOp, bool) {
	op := configOp(entry.Op)
	switch k := entry.Key.(type) {
	case *ast.Ident:
		return k.Name, nil, op, true
	case *ast.BasicLit:
		if k.Kind == ast.STRING {
			return unquoteString(k.Value), nil, op, true
		}
	case *ast.SubscriptExpr:
		if id, ok := k.X.(*ast.Ident); ok {
			idx := entry.InsertIndex
			if idx == nil {
				if iv := e.evalExpr(k.Index, scope); iv != nil {
					if n, ok := iv.(adt.Int); ok {
						v := int(n.Int64())
						idx = &v
					}
				}
			}
			return id.Name, idx, adt.Insert, true
		}
	}
	v := e.evalExpr(entry.Key, scope)
	if v == nil {
		return "", nil, op, false
	}
	s, ok := v.(adt.String)
	if !ok {
		e.errf(entry, errors.TypeMismatch, "config key must evaluate to string")
		return "", nil, op, false
	}
	return string(s), nil, op, true
}

// evalConfigBody implements spec.md §4.7: a config literal's entries are
// evaluated in source order into a Dict via dict_insert/dict_insert_unpack,
// with literal (Ident/STRING) key names also bound as locals so later
// entries in the same literal can reference earlier ones.
func (e *Evaluator) evalConfigBody(ce *ast.ConfigExpr, scope *adt.Scope) *adt.Dict {
	d := adt.NewDict(ce)
	cfgScope := adt.NewScope(scope)
	for _, entry := range ce.Entries {
		if entry.Spread != nil {
			v := e.evalExpr(entry.Spread, cfgScope)
			if v == nil {
				continue
			}
			if err := adt.DictInsertUnpack(e.Ctx, entry, d, v); err != nil {
				e.Ctx.AddErr(err)
			}
			continue
		}
		key, idx, op, ok := e.configKey(entry, cfgScope)
		if !ok {
			continue
		}
		v := e.evalExpr(entry.Value, cfgScope)
		if v == nil {
			continue
		}
		if entry.Type != "" && e.Ctx.Types != nil {
			checked, err := e.Ctx.Types.PackAndCheck(e.Ctx, v, []string{entry.Type}, true)
			if err == nil {
				v = checked
			} else {
				e.errf(entry, errors.TypeMismatch, "%v", err)
			}
		}
		if err := adt.DictInsert(e.Ctx, entry, d, key, v, op, idx); err != nil {
			e.Ctx.AddErr(err)
		}
		if name, ok := literalKeyName(entry.Key); ok {
			cfgScope.BindLocal(name, v)
		}
	}
	return d
}

type iterPair struct{ K, V adt.Value }

// iterate yields (key, value) pairs over a List (index, element) or Dict
// (key, value), the iteration shape of spec.md §4.5 comprehensions and
// quantifiers.
func (e *Evaluator) iterate(v adt.Value) []iterPair {
	switch x := v.(type) {
	case *adt.List:
		out := make([]iterPair, len(x.Elts))
		for i, el := range x.Elts {
			out[i] = iterPair{adt.NewInt(int64(i)), el}
		}
		return out
	case *adt.Dict:
		out := make([]iterPair, 0, len(x.Keys))
		for _, k := range x.Keys {
			out = append(out, iterPair{adt.String(k), x.Values[k]})
		}
		return out
	case *adt.Schema:
		out := make([]iterPair, 0, len(x.Keys))
		for _, k := range x.Keys {
			out = append(out, iterPair{adt.String(k), x.Values[k]})
		}
		return out
	}
	return nil
}

func bindLoopVars(scope *adt.Scope, vars []string, p iterPair) *adt.Scope {
	s := adt.NewScope(scope)
	if len(vars) == 1 {
		s.BindLocal(vars[0], p.V)
	} else if len(vars) == 2 {
		s.BindLocal(vars[0], p.K)
		s.BindLocal(vars[1], p.V)
	}
	return s
}

// evalQuant implements spec.md §4.5 "Quantifier (all/any/map/filter)".
func (e *Evaluator) evalQuant(q *ast.QuantExpr, scope *adt.Scope) adt.Value {
	if len(q.Vars) != 1 && len(q.Vars) != 2 {
		e.errf(q, errors.InvalidArity, "comprehension must bind 1 or 2 loop variables")
		return nil
	}
	iterVal := e.evalExpr(q.Iter, scope)
	if iterVal == nil {
		return nil
	}
	pairs := e.iterate(iterVal)

	switch q.Op {
	case ast.QuantAll:
		for _, p := range pairs {
			v := e.evalExpr(q.Body, bindLoopVars(scope, q.Vars, p))
			if v == nil || !adt.Truthy(v) {
				return adt.Bool(false)
			}
		}
		return adt.Bool(true)
	case ast.QuantAny:
		for _, p := range pairs {
			v := e.evalExpr(q.Body, bindLoopVars(scope, q.Vars, p))
			if v != nil && adt.Truthy(v) {
				return adt.Bool(true)
			}
		}
		return adt.Bool(false)
	case ast.QuantMap:
		out := make([]adt.Value, 0, len(pairs))
		for _, p := range pairs {
			v := e.evalExpr(q.Body, bindLoopVars(scope, q.Vars, p))
			if v != nil {
				out = append(out, v)
			}
		}
		return adt.NewList(q, out...)
	case ast.QuantFilter:
		targetVal := e.evalExpr(q.Target, scope)
		if targetVal == nil {
			return nil
		}
		l, ok := targetVal.DeepCopy().(*adt.List)
		if !ok {
			e.errf(q, errors.TypeMismatch, "filter target must be a list")
			return nil
		}
		var kept []adt.Value
		for i, p := range pairs {
			if i >= len(l.Elts) {
				break
			}
			v := e.evalExpr(q.Body, bindLoopVars(scope, q.Vars, p))
			if v != nil && adt.Truthy(v) {
				kept = append(kept, l.Elts[i])
			}
		}
		l.Elts = kept
		return l
	}
	return nil
}

// runClauses recursively walks nested comprehension clauses (spec.md §4.5
// "Generators can be nested; the innermost generator produces into the
// collection").
func (e *Evaluator) runClauses(clauses []*ast.CompClause, idx int, scope *adt.Scope, emit func(*adt.Scope)) {
	if idx >= len(clauses) {
		emit(scope)
		return
	}
	cl := clauses[idx]
	if len(cl.Vars) != 1 && len(cl.Vars) != 2 {
		e.errf(cl, errors.InvalidArity, "comprehension must bind 1 or 2 loop variables")
		return
	}
	iterVal := e.evalExpr(cl.Iter, scope)
	if iterVal == nil {
		return
	}
	for _, p := range e.iterate(iterVal) {
		s := bindLoopVars(scope, cl.Vars, p)
		if cl.If != nil {
			cond := e.evalExpr(cl.If, s)
			if cond == nil || !adt.Truthy(cond) {
				continue
			}
		}
		e.runClauses(clauses, idx+1, s, emit)
	}
}

func (e *Evaluator) evalListComp(lc *ast.ListComp, scope *adt.Scope) adt.Value {
	var out []adt.Value
	e.runClauses(lc.Clauses, 0, scope, func(s *adt.Scope) {
		v := e.evalExpr(lc.Elt, s)
		if v != nil {
			out = append(out, v)
		}
	})
	return adt.NewList(lc, out...)
}

func (e *Evaluator) evalDictComp(dc *ast.DictComp, scope *adt.Scope) adt.Value {
	d := adt.NewDict(dc)
	e.runClauses(dc.Clauses, 0, scope, func(s *adt.Scope) {
		kv := e.evalExpr(dc.Key, s)
		if kv == nil {
			return
		}
		ks, ok := kv.(adt.String)
		if !ok {
			e.errf(dc, errors.TypeMismatch, "dict comprehension key must be string")
			return
		}
		vv := e.evalExpr(dc.Value, s)
		if vv == nil {
			return
		}
		d.Set(string(ks), vv)
	})
	return d
}

// evalJoinedString implements spec.md §4.5 "Joined strings".
func (e *Evaluator) evalJoinedString(js *ast.JoinedString, scope *adt.Scope) adt.Value {
	var b strings.Builder
	for _, part := range js.Parts {
		switch p := part.(type) {
		case *ast.BasicLit:
			if p.Kind == ast.STRING {
				b.WriteString(unquoteString(p.Value))
			} else {
				b.WriteString(valueToDisplayString(e.evalBasicLit(p)))
			}
		case *ast.FormattedValue:
			v := e.evalExpr(p.X, scope)
			if v != nil {
				b.WriteString(e.formatValue(v, p.Format, p))
			}
		default:
			v := e.evalExpr(part, scope)
			if v != nil {
				b.WriteString(valueToDisplayString(v))
			}
		}
	}
	return adt.String(b.String())
}

// formatValue implements spec.md §4.5 "Formatted values with #json/#yaml
// format specs" (SPEC_FULL.md §4.5 domain addition).
func (e *Evaluator) formatValue(v adt.Value, format string, src ast.Node) string {
	switch format {
	case "":
		return valueToDisplayString(v)
	case "#json":
		b, err := json.Marshal(valueToGo(v))
		if err != nil {
			e.errf(src, errors.InvalidStringInterpolationSpec, "%v", err)
			return ""
		}
		return string(b)
	case "#yaml":
		b, err := yaml.Marshal(valueToGo(v))
		if err != nil {
			e.errf(src, errors.InvalidStringInterpolationSpec, "%v", err)
			return ""
		}
		return strings.TrimRight(string(b), "\n")
	default:
		e.errf(src, errors.InvalidStringInterpolationSpec, "unknown format spec %q", format)
		return ""
	}
}

// valueToGo converts a Value tree to the generic interface{} shape
// encoding/json and yaml.v3 expect, mirroring how the teacher's own
// encoding/json package bridges cue.Value to Go values for marshaling.
func valueToGo(v adt.Value) interface{} {
	switch x := v.(type) {
	case adt.Undefined:
		return nil
	case adt.None:
		return nil
	case adt.Bool:
		return bool(x)
	case adt.Int:
		return x.Int64()
	case adt.Float:
		return x.Float64()
	case adt.Unit:
		return x.Normalized
	case adt.String:
		return string(x)
	case *adt.List:
		out := make([]interface{}, len(x.Elts))
		for i, el := range x.Elts {
			out[i] = valueToGo(el)
		}
		return out
	case *adt.Dict:
		out := make(map[string]interface{}, len(x.Keys))
		for _, k := range x.Keys {
			out[k] = valueToGo(x.Values[k])
		}
		return out
	case *adt.Schema:
		out := make(map[string]interface{}, len(x.Keys))
		for _, k := range x.Keys {
			out[k] = valueToGo(x.Values[k])
		}
		return out
	}
	return nil
}

func valueToDisplayString(v adt.Value) string {
	switch x := v.(type) {
	case adt.Undefined:
		return "Undefined"
	case adt.None:
		return "None"
	case adt.Bool:
		if x {
			return "True"
		}
		return "False"
	case adt.Int:
		return x.D.String()
	case adt.Float:
		return x.D.String()
	case adt.Unit:
		return fmt.Sprintf("%g%s", x.Normalized, x.Suffix)
	case adt.String:
		return string(x)
	default:
		b, _ := json.Marshal(valueToGo(v))
		return string(b)
	}
}
