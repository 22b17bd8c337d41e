// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package eval

import (
	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/errors"
	"github.com/johngmyers/kcl/internal/core/adt"
)

// readIdent implements the read precedence of spec.md §4.2.
func (e *Evaluator) readIdent(id *ast.Ident, scope *adt.Scope) adt.Value {
	if id.Pkgpath != "" {
		// Rule 5: imported identifier via fully qualified pkgpath.name.
		if v, ok := e.Ctx.Global(id.Pkgpath, id.Name); ok {
			return v
		}
		e.errf(id, errors.UndefinedAttr, "undefined name %q in package %q", id.Name, id.Pkgpath)
		return adt.Undefined{}
	}

	// Rules 1+2: local variable or argument up to the lambda boundary.
	if v, ok := scope.LookupLocal(id.Name); ok {
		return v
	}

	// Rule 3: schema attribute in the enclosing schema context.
	if schemaScope := scope.NearestSchema(); schemaScope != nil {
		if v, ok := e.readSchemaAttr(schemaScope.Schema, id.Name, id); ok {
			return v
		}
	}

	// Rule 4: package-global in the current package.
	if v, ok := e.Ctx.Global(scope.Pkgpath, id.Name); ok {
		return v
	}

	e.errf(id, errors.UndefinedAttr, "undefined name %q", id.Name)
	return adt.Undefined{}
}

// writeName implements the write rules of spec.md §4.2 for a simple
// (non-dotted) target name.
func (e *Evaluator) writeName(name string, v adt.Value, scope *adt.Scope, src ast.Node) {
	schemaScope := scope.NearestSchema()

	if schemaScope != nil && !scope.IsLocal(name) && schemaScope.Schema.SchemaValue.Has(name) {
		// Schema-attribute routing, whether inside a lambda or directly
		// inside the schema body (spec.md §4.2 write rules 2 and 3).
		schemaScope.Schema.SchemaValue.Set(name, v)
		schemaScope.Schema.MarkResolved(name)
		return
	}

	if scope.InLambda {
		scope.BindLocal(name, v)
		return
	}

	if schemaScope != nil {
		// Inside a schema body but name is local or not (yet) an attribute:
		// an ordinary local binding, scoped to the current block.
		scope.BindLocal(name, v)
		return
	}

	if scope.AtGlobal {
		e.Ctx.SetGlobal(scope.Pkgpath, name, v)
		return
	}

	scope.BindLocal(name, v)
}

// writeTarget dispatches on the shape of an assignment target (Ident,
// dotted Selector, or list index Subscript), per spec.md §4.2.
func (e *Evaluator) writeTarget(target ast.Expr, v adt.Value, scope *adt.Scope) {
	switch t := target.(type) {
	case *ast.Ident:
		e.writeName(t.Name, v, scope, t)
	case *ast.SelectorExpr:
		e.writeSelector(t, v, scope)
	case *ast.SubscriptExpr:
		e.writeSubscript(t, v, scope)
	default:
		e.errInternal(target, "invalid assignment target %T", target)
	}
}

// writeSelector implements dotted-target write of spec.md §4.2: load the
// base up to the penultimate selector, then store into the last one. If
// the base names a schema attribute and we are inside that schema (not a
// lambda, and the base is not local), the schema's config cache is
// updated too so subsequent reads observe the mutation.
func (e *Evaluator) writeSelector(sel *ast.SelectorExpr, v adt.Value, scope *adt.Scope) {
	base := e.evalExpr(sel.X, scope)
	if base == nil {
		return
	}
	d, ok := asDict(base)
	if !ok {
		e.errf(sel, errors.TypeMismatch, "cannot assign attribute %q on non-dict value", sel.Sel)
		return
	}
	d.Set(sel.Sel, v)

	if id, ok := sel.X.(*ast.Ident); ok && id.Pkgpath == "" {
		schemaScope := scope.NearestSchema()
		if schemaScope != nil && !scope.InLambda && !scope.IsLocal(id.Name) &&
			schemaScope.Schema.SchemaValue.Has(id.Name) {
			schemaScope.Schema.SchemaValue.Set(id.Name, base)
			schemaScope.Schema.MarkResolved(id.Name)
		}
	}
}

// writeSubscript handles an index assignment `x[i] = value`: it replaces
// the element at the resolved index of an existing list and writes the
// list back to x. The list-insert directive of spec.md §4.7
// (`ident[intLiteral] += list`) is handled by evalAugAssign instead.
func (e *Evaluator) writeSubscript(sub *ast.SubscriptExpr, v adt.Value, scope *adt.Scope) {
	if sub.Slice {
		e.errInternal(sub, "slice is not a valid assignment target")
		return
	}
	base := e.evalExpr(sub.X, scope)
	l, ok := base.(*adt.List)
	if !ok {
		e.errf(sub, errors.TypeMismatch, "subscript assignment requires a list")
		return
	}
	idx := e.evalExpr(sub.Index, scope)
	i, ok := idx.(adt.Int)
	if !ok {
		e.errf(sub, errors.TypeMismatch, "list index must be int")
		return
	}
	n := int(i.Int64())
	norm := adt.ResolveInsertIndex(&n, len(l.Elts))
	if norm < 0 || norm >= len(l.Elts) {
		e.errf(sub, errors.UndefinedAttr, "list index out of range")
		return
	}
	l.Elts[norm] = v
	e.writeTarget(sub.X, l, scope)
}

func asDict(v adt.Value) (*adt.Dict, bool) {
	switch x := v.(type) {
	case *adt.Dict:
		return x, true
	case *adt.Schema:
		return &x.Dict, true
	}
	return nil, false
}

// evalUnify implements spec.md §4.4 "Unification (`t: T{...}`)".
func (e *Evaluator) evalUnify(s *ast.UnifyStmt, scope *adt.Scope) {
	newVal := e.evalExpr(s.Value, scope)
	if newVal == nil {
		return
	}
	old := e.loadOrUndefined(s.Target, scope)
	merged, err := adt.Union(e.Ctx, s, old, newVal)
	if err != nil {
		e.Ctx.AddErr(err)
		return
	}
	e.writeTarget(s.Target, merged, scope)
}

func (e *Evaluator) loadOrUndefined(target ast.Expr, scope *adt.Scope) adt.Value {
	if id, ok := target.(*ast.Ident); ok {
		if id.Pkgpath == "" {
			if v, ok := scope.LookupLocal(id.Name); ok {
				return v
			}
			if ss := scope.NearestSchema(); ss != nil {
				if v, ok := e.readSchemaAttr(ss.Schema, id.Name, id); ok {
					return v
				}
			}
			if v, ok := e.Ctx.Global(scope.Pkgpath, id.Name); ok {
				return v
			}
			return adt.Undefined{}
		}
	}
	v := e.evalExpr(target, scope)
	if v == nil {
		return adt.Undefined{}
	}
	return v
}

// evalAssign implements spec.md §4.4 "Assign": each of multiple targets
// receives an independent deep copy.
func (e *Evaluator) evalAssign(s *ast.AssignStmt, scope *adt.Scope) {
	v := e.evalExpr(s.Value, scope)
	if v == nil {
		return
	}
	if s.Type != "" && e.Ctx.Types != nil {
		checked, err := e.Ctx.Types.PackAndCheck(e.Ctx, v, []string{s.Type}, true)
		if err != nil {
			e.errf(s, errors.TypeMismatch, "%v", err)
			return
		}
		v = checked
	}
	for _, target := range s.Targets {
		e.writeTarget(target, v.DeepCopy(), scope)
	}
}

// evalAugAssign implements spec.md §4.4 "Augmented assign". The list
// `ident[idx] += list` form is the insert directive of spec.md §4.7
// (scenario 6); otherwise it is load-compute-store.
func (e *Evaluator) evalAugAssign(s *ast.AugAssignStmt, scope *adt.Scope) {
	if sub, ok := s.Target.(*ast.SubscriptExpr); ok && !sub.Slice && s.Op == ast.AugAdd {
		if lit, ok := sub.Index.(*ast.BasicLit); ok && lit.Kind == ast.INT {
			base := e.evalExpr(sub.X, scope)
			if l, ok := base.(*adt.List); ok {
				rhs := e.evalExpr(s.Value, scope)
				rl, ok := rhs.(*adt.List)
				if !ok {
					rl = adt.NewList(s, rhs)
				}
				idx := int(parseIntLit(lit.Value))
				merged := l.InsertAt(&idx, rl.Elts)
				e.writeTarget(sub.X, merged, scope)
				return
			}
		}
	}

	old := e.loadOrUndefined(s.Target, scope)
	rhs := e.evalExpr(s.Value, scope)
	if rhs == nil {
		return
	}
	result, err := e.applyAugOp(s, old, rhs)
	if err != nil {
		e.Ctx.AddErr(err)
		return
	}
	e.writeTarget(s.Target, result, scope)
}

func (e *Evaluator) applyAugOp(src ast.Node, a, b adt.Value) (adt.Value, errors.Error) {
	s := src.(*ast.AugAssignStmt)
	switch s.Op {
	case ast.AugAdd:
		return adt.Add(e.Ctx, src, a, b)
	case ast.AugSub:
		return adt.Sub(e.Ctx, src, a, b)
	case ast.AugMul:
		return adt.Mul(e.Ctx, src, a, b)
	case ast.AugDiv:
		return adt.Div(e.Ctx, src, a, b)
	case ast.AugMod:
		return adt.Mod(e.Ctx, src, a, b)
	case ast.AugPow:
		return adt.Pow(e.Ctx, src, a, b)
	case ast.AugFloorDiv:
		return adt.FloorDiv(e.Ctx, src, a, b)
	case ast.AugBitAnd:
		return adt.BitAnd(e.Ctx, src, a, b)
	case ast.AugBitOr:
		return adt.Union(e.Ctx, src, a, b)
	case ast.AugBitXor:
		return adt.BitXor(e.Ctx, src, a, b)
	case ast.AugLShift:
		return adt.LShift(e.Ctx, src, a, b)
	case ast.AugRShift:
		return adt.RShift(e.Ctx, src, a, b)
	}
	return nil, errors.Newf(errors.Internal, src.Pos(), "unknown augmented-assign operator")
}

// parseIntLit parses a BasicLit(INT) lexeme, tolerating a leading '-'
// (already-resolved AST, so the lexeme is known-well-formed).
func parseIntLit(s string) int64 {
	neg := false
	var n int64
	for _, r := range s {
		switch {
		case r == '-':
			neg = true
		case r >= '0' && r <= '9':
			n = n*10 + int64(r-'0')
		}
	}
	if neg {
		n = -n
	}
	return n
}
