// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package eval

import (
	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/errors"
	"github.com/johngmyers/kcl/internal/core/adt"
)

// bindFormalArgs implements spec.md §4.3 "Formals are added as arguments...
// and locals": defaults are evaluated in scope itself (the callee's own
// top-level scope, mirroring how the teacher evaluates default expressions
// against the declaring environment), then overridden first by position,
// then by keyword.
func (e *Evaluator) bindFormalArgs(params []*ast.Param, args []adt.Value, kwargs map[string]adt.Value, scope *adt.Scope) {
	for i, p := range params {
		var v adt.Value
		kv, hasKw := kwargs[p.Name]
		switch {
		case hasKw:
			v = kv
		case i < len(args):
			v = args[i]
		case p.Default != nil:
			v = e.evalExpr(p.Default, scope)
		default:
			v = adt.Undefined{}
		}
		if v == nil {
			v = adt.Undefined{}
		}
		if p.Type != "" && e.Ctx.Types != nil {
			checked, err := e.Ctx.Types.PackAndCheck(e.Ctx, v, []string{p.Type}, true)
			if err == nil {
				v = checked
			} else {
				e.errf(p, errors.TypeMismatch, "%v", err)
			}
		}
		scope.BindArg(p.Name, v)
	}
}

// lambdaClosure captures every binding visible from scope up to (and
// including) its lambda/global boundary, spec.md §4.5 "Lambda": "allocate
// a FunctionCaller frame capturing the current closure map".
func lambdaClosure(scope *adt.Scope) map[string]adt.Value {
	closure := map[string]adt.Value{}
	for cur := scope; cur != nil; cur = cur.Up {
		for name, v := range cur.Bindings {
			if _, taken := closure[name]; !taken {
				closure[name] = v
			}
		}
		if cur.InLambda && !(cur.Up != nil && cur.Up.InLambda) {
			break
		}
		if !cur.InLambda && cur.Up == nil {
			break
		}
	}
	return closure
}

// evalLambda implements spec.md §4.5 "Lambda".
func (e *Evaluator) evalLambda(le *ast.LambdaExpr, scope *adt.Scope) adt.Value {
	lctx := &adt.LambdaEvalContext{
		Node:    le,
		Closure: lambdaClosure(scope),
		Level:   scope.Level + 1,
	}
	if ss := scope.NearestSchema(); ss != nil {
		lctx.This = ss.Schema.Ctx
	}
	frame := &adt.Frame{Pkgpath: scope.Pkgpath, Proxy: adt.LambdaProxy, Lambda: lctx}
	idx := e.Ctx.Frames.Add(frame)
	return adt.Function{FrameIndex: idx}
}

// callLambda runs a lambda body to completion, returning its final bare
// expression-statement result as the call's value (the language has no
// explicit `return`; the last statement's value is the result, mirroring
// how §4.4 records the last scalar output).
func (e *Evaluator) callLambda(lctx *adt.LambdaEvalContext, args []adt.Value, kwargs map[string]adt.Value, pkgpath string, src ast.Node) adt.Value {
	le, ok := lctx.Node.(*ast.LambdaExpr)
	if !ok {
		e.errInternal(src, "lambda frame does not reference a LambdaExpr")
		return adt.Undefined{}
	}
	scope := adt.NewScope(nil)
	scope.Pkgpath = pkgpath
	scope.InLambda = true
	if lctx.This != nil {
		scope.Schema = &adt.Snapshot{Ctx: lctx.This}
	}
	for name, v := range lctx.Closure {
		scope.Bindings[name] = v
	}
	e.bindFormalArgs(le.Params, args, kwargs, scope)

	var result adt.Value = adt.Undefined{}
	for _, stmt := range le.Body {
		if exprStmt, ok := stmt.(*ast.ExprStmt); ok {
			for _, expr := range exprStmt.Exprs {
				if v := e.evalExpr(expr, scope); v != nil {
					result = v
				}
			}
			continue
		}
		e.evalStmt(stmt, scope)
	}
	if le.ReturnType != "" && e.Ctx.Types != nil {
		checked, err := e.Ctx.Types.PackAndCheck(e.Ctx, result, []string{le.ReturnType}, true)
		if err == nil {
			result = checked
		} else {
			e.errf(src, errors.TypeMismatch, "%v", err)
		}
	}
	return result
}

// callFunction implements the Function-variant dispatch of spec.md §4.3:
// "proxy frames invoke (body)(eval, snapshot, args, kwargs); non-proxy
// functions route to the builtin/plugin registry."
func (e *Evaluator) callFunction(fn adt.Function, args []adt.Value, kwargs map[string]adt.Value, scope *adt.Scope, src ast.Node) adt.Value {
	if fn.IsBuiltin {
		if e.Ctx.Functions == nil {
			e.errInternal(src, "no function registry configured for builtin %q", fn.BuiltinID)
			return adt.Undefined{}
		}
		v, err := e.Ctx.Functions.InvokeFunction(e.Ctx, fn, args, kwargs)
		if err != nil {
			e.errf(src, errors.Internal, "%v", err)
			return adt.Undefined{}
		}
		return v
	}
	frame := e.Ctx.Frames.At(fn.FrameIndex)
	switch frame.Proxy {
	case adt.LambdaProxy:
		return e.callLambda(frame.Lambda, args, kwargs, frame.Pkgpath, src)
	case adt.SchemaProxy:
		meta := &adt.ConfigMeta{}
		return e.runSchema(frame.Schema, adt.NewDict(src), meta, args, kwargs, src)
	case adt.RuleProxy:
		meta := &adt.ConfigMeta{}
		return e.runSchema(frame.Rule, adt.NewDict(src), meta, args, kwargs, src)
	default:
		e.errInternal(src, "call to a non-callable frame")
		return adt.Undefined{}
	}
}

// evalCall implements a plain function call expression, spec.md §4.3.
func (e *Evaluator) evalCall(ce *ast.CallExpr, scope *adt.Scope) adt.Value {
	callee := e.evalExpr(ce.Func, scope)
	fn, ok := callee.(adt.Function)
	if !ok {
		e.errf(ce, errors.InvalidOperator, "value is not callable")
		return adt.Undefined{}
	}
	args := make([]adt.Value, len(ce.Args))
	for i, a := range ce.Args {
		args[i] = e.evalExpr(a, scope)
	}
	kwargs := map[string]adt.Value{}
	for _, kw := range ce.Kwargs {
		kwargs[kw.Name] = e.evalExpr(kw.Value, scope)
	}
	return e.callFunction(fn, args, kwargs, scope, ce)
}

// runDecorator implements spec.md §4.5 "Decorator call".
func (e *Evaluator) runDecorator(dec *ast.DecoratorExpr, attrName string, isSchemaTarget bool, configValue *adt.Dict, meta *adt.ConfigMeta, scope *adt.Scope) {
	if e.Ctx.Decorators == nil {
		return
	}
	args := make([]adt.Value, len(dec.Args))
	for i, a := range dec.Args {
		args[i] = e.evalExpr(a, scope)
	}
	kwargs := map[string]adt.Value{}
	for _, kw := range dec.Kwargs {
		kwargs[kw.Name] = e.evalExpr(kw.Value, scope)
	}
	if err := e.Ctx.Decorators.Run(e.Ctx, dec.Name, args, kwargs, attrName, isSchemaTarget, configValue, meta); err != nil {
		e.errf(dec, errors.Internal, "%v", err)
	}
}
