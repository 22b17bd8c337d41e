// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

// Package eval implements the Evaluator Walk, Schema Runtime and
// Lazy/Backtrack Engine components of spec.md §2 (components 4, 5, 6),
// modeled on the walker shape of cuelang.org/go/internal/core/eval
// (internal/core/eval/eval.go) and the comprehension/call dispatch of
// cuelang.org/go/internal/core/adt (comprehension.go, call.go).
package eval

import (
	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/errors"
	"github.com/johngmyers/kcl/internal/core/adt"
	"github.com/johngmyers/kcl/internal/core/runtime"
)

// Evaluator holds everything needed to walk a Program to completion. It
// borrows a single mutable *adt.OpContext across all recursive calls
// rather than threading per-goroutine state (spec.md §5, §9).
type Evaluator struct {
	Ctx  *adt.OpContext
	Prog runtime.Program

	// schemas caches the SchemaEvalContext for every SchemaDecl/RuleDecl
	// node walked so far, keyed by declaration identity.
	schemas map[ast.Stmt]*adt.SchemaEvalContext

	// outputs accumulates scalar outputs from bare expression statements
	// at top level of the entry package only (spec.md §6).
	outputs    []adt.Value
	collecting bool
}

// NewEvaluator constructs an Evaluator over prog using cfg's collaborator
// registries.
func NewEvaluator(prog runtime.Program, cfg adt.Config) *Evaluator {
	return &Evaluator{
		Ctx:     adt.NewContext(adt.NewFrameTable(), cfg),
		Prog:    prog,
		schemas: map[ast.Stmt]*adt.SchemaEvalContext{},
	}
}

// Evaluate is the module's single entry point (spec.md §6).
func Evaluate(prog runtime.Program, entryPkgpath string, cfg adt.Config) ([]adt.Value, errors.List) {
	return NewEvaluator(prog, cfg).Run(entryPkgpath)
}

// Run walks entryPkgpath to completion over an Evaluator the caller has
// already constructed (and may have pre-seeded, e.g. via
// builtins.Bootstrap(e.Ctx, entryPkgpath)), returning the same
// (values, errors) shape as Evaluate.
func (e *Evaluator) Run(entryPkgpath string) ([]adt.Value, errors.List) {
	e.compilePackage(entryPkgpath, true)
	return e.outputs, errors.Sanitize(e.Ctx.Errs)
}

// compilePackage walks every module of pkgpath exactly once (spec.md §4.4
// Import idempotency, §5). collect controls whether bare expression
// statement results are appended to e.outputs (only true for the entry
// package, spec.md §6).
func (e *Evaluator) compilePackage(pkgpath string, collect bool) {
	if runtime.IsReservedPkgpath(pkgpath) {
		// Built-in system / plugin modules are registered but not walked
		// (spec.md §4.4 Import, §6 Reserved identifiers).
		e.Ctx.MarkImported(pkgpath)
		return
	}
	if already := e.Ctx.MarkImported(pkgpath); already {
		return
	}
	e.Ctx.Logf("compiling package %s", pkgpath)
	prevCollecting := e.collecting
	e.collecting = collect
	defer func() { e.collecting = prevCollecting }()

	for _, ref := range e.Prog.Pkgs()[pkgpath] {
		mod := e.Prog.Module(ref)
		scope := adt.NewScope(nil)
		scope.Pkgpath = mod.Pkgpath
		scope.AtGlobal = true
		e.evalStmts(mod.Body, scope)
	}
}

// evalStmts walks a statement list in source order (spec.md §5 "Evaluation
// order... is source order").
func (e *Evaluator) evalStmts(stmts []ast.Stmt, scope *adt.Scope) {
	for _, s := range stmts {
		e.evalStmt(s, scope)
	}
}

// evalStmt dispatches on the statement's concrete type, spec.md §4.4. This
// is a tagged switch rather than a virtual call for exhaustiveness and
// branch-prediction friendliness (spec.md §9 "Dynamic dispatch").
func (e *Evaluator) evalStmt(stmt ast.Stmt, scope *adt.Scope) {
	switch s := stmt.(type) {
	case *ast.TypeAliasStmt:
		// no-op at eval time; resolved earlier (spec.md §4.4).

	case *ast.ExprStmt:
		for _, expr := range s.Exprs {
			v := e.evalExpr(expr, scope)
			if v == nil {
				continue
			}
			if _, isCall := expr.(*ast.CallExpr); isCall {
				// Call results are discarded (spec.md §4.4 "Expression
				// statement"); only non-Call expressions, including bare
				// schema instantiations, become scalar output.
				continue
			}
			if e.collecting {
				e.outputs = append(e.outputs, v)
			}
		}

	case *ast.UnifyStmt:
		e.evalUnify(s, scope)

	case *ast.AssignStmt:
		e.evalAssign(s, scope)

	case *ast.AugAssignStmt:
		e.evalAugAssign(s, scope)

	case *ast.AssertStmt:
		e.evalAssert(s, scope)

	case *ast.IfStmt:
		e.evalIf(s, scope)

	case *ast.ImportStmt:
		e.evalImport(s, scope)

	case *ast.SchemaDecl:
		e.declareSchema(s, scope)

	case *ast.RuleDecl:
		e.declareRule(s, scope)

	case *ast.SchemaAttrStmt:
		e.evalSchemaAttr(s, scope)

	default:
		e.errInternal(stmt, "unhandled statement type %T", stmt)
	}
}

func (e *Evaluator) errInternal(src ast.Node, format string, args ...interface{}) {
	e.Ctx.AddErr(e.Ctx.Newf(src, errors.Internal, format, args...))
}

func (e *Evaluator) errf(src ast.Node, code errors.Code, format string, args ...interface{}) {
	e.Ctx.AddErr(e.Ctx.Newf(src, code, format, args...))
}

// evalImport implements spec.md §4.4 "Import": idempotent by pkgpath,
// built-in/plugin modules registered but not walked, otherwise the
// package's own scope is initialized and all its modules compiled.
func (e *Evaluator) evalImport(s *ast.ImportStmt, scope *adt.Scope) {
	e.compilePackage(s.Pkgpath, false)
}

// evalAssert implements spec.md §4.4 "Assert".
func (e *Evaluator) evalAssert(s *ast.AssertStmt, scope *adt.Scope) {
	if s.IfCond != nil {
		cond := e.evalExpr(s.IfCond, scope)
		if cond == nil || !adt.Truthy(cond) {
			return
		}
	}
	test := e.evalExpr(s.Test, scope)
	if test == nil {
		return
	}
	if adt.Truthy(test) {
		return
	}
	msg := "assertion failed"
	if s.Message != nil {
		if m := e.evalExpr(s.Message, scope); m != nil {
			if str, ok := m.(adt.String); ok {
				msg = string(str)
			}
		}
	}
	e.errf(s, errors.Assertion, "%s", msg)
}

// evalIf implements spec.md §4.4 "If" for an ordinary (non-targeted) walk:
// it is never the statement a backtrack re-entry is restricting, so it
// queries the backtrack stack with the sentinel identity -1, -1, which
// never matches a pushed (frameIndex, stmtIndex) and always evaluates its
// own condition.
func (e *Evaluator) evalIf(s *ast.IfStmt, scope *adt.Scope) {
	e.evalIfTargeted(s, scope, -1, -1)
}

// evalIfTargeted implements spec.md §4.4 "If", optionally restricted to a
// single branch when (frameIndex, stmtIndex) matches the statement
// findAndRun is re-entering (spec.md §4.8). Statements reached while
// walking the chosen branch recurse through evalStmts/evalIf with no
// target, so a nested `if` inside that branch always evaluates its own
// condition rather than inheriting the restriction.
func (e *Evaluator) evalIfTargeted(s *ast.IfStmt, scope *adt.Scope, frameIndex, stmtIndex int) {
	if kind, restricted := e.Ctx.TopBacktrack(frameIndex, stmtIndex); restricted {
		switch kind {
		case adt.OnlyIf:
			e.evalStmts(s.Body, adt.NewScope(scope))
			return
		case adt.OnlyOrElse:
			e.evalStmts(s.OrElse, adt.NewScope(scope))
			return
		}
	}
	cond := e.evalExpr(s.Cond, scope)
	if cond != nil && adt.Truthy(cond) {
		e.evalStmts(s.Body, adt.NewScope(scope))
	} else {
		e.evalStmts(s.OrElse, adt.NewScope(scope))
	}
}
