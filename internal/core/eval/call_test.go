// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package eval

import (
	"testing"

	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/internal/core/adt"
)

func TestLambdaCallReturnsLastExprStmt(t *testing.T) {
	// add = |a, b| { a + b }: the lambda's one bare statement becomes its result.
	prog := newTestProgram()
	prog.add("main",
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("add")},
			Value: &ast.LambdaExpr{
				Params: []*ast.Param{{Name: "a"}, {Name: "b"}},
				Body: []ast.Stmt{
					&ast.ExprStmt{Exprs: []ast.Expr{&ast.BinaryExpr{X: ident("a"), Op: ast.Add, Y: ident("b")}}},
				},
			},
		},
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("r")},
			Value: &ast.CallExpr{
				Func: ident("add"),
				Args: []ast.Expr{intLit("2"), intLit("3")},
			},
		},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("r")}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	if got := values[0].(adt.Int).Int64(); got != 5 {
		t.Errorf("add(2, 3) = %d, want 5", got)
	}
}

func TestLambdaKeywordArgOverridesDefault(t *testing.T) {
	// f = |a, b=10| { a + b }; f(1, b=2) == 3
	prog := newTestProgram()
	prog.add("main",
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("f")},
			Value: &ast.LambdaExpr{
				Params: []*ast.Param{{Name: "a"}, {Name: "b", Default: intLit("10")}},
				Body: []ast.Stmt{
					&ast.ExprStmt{Exprs: []ast.Expr{&ast.BinaryExpr{X: ident("a"), Op: ast.Add, Y: ident("b")}}},
				},
			},
		},
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("r")},
			Value: &ast.CallExpr{
				Func:   ident("f"),
				Args:   []ast.Expr{intLit("1")},
				Kwargs: []*ast.Kwarg{{Name: "b", Value: intLit("2")}},
			},
		},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("r")}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	if got := values[0].(adt.Int).Int64(); got != 3 {
		t.Errorf("f(1, b=2) = %d, want 3", got)
	}
}

func TestLambdaDefaultUsedWhenArgOmitted(t *testing.T) {
	prog := newTestProgram()
	prog.add("main",
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("f")},
			Value: &ast.LambdaExpr{
				Params: []*ast.Param{{Name: "a", Default: intLit("7")}},
				Body: []ast.Stmt{
					&ast.ExprStmt{Exprs: []ast.Expr{ident("a")}},
				},
			},
		},
		&ast.AssignStmt{Targets: []ast.Expr{ident("r")}, Value: &ast.CallExpr{Func: ident("f")}},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("r")}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	if got := values[0].(adt.Int).Int64(); got != 7 {
		t.Errorf("f() = %d, want 7 (default)", got)
	}
}

func TestLambdaClosureCapturesOuterBinding(t *testing.T) {
	// x = 5; f = || { x }; f() == 5, even though x is not an argument.
	prog := newTestProgram()
	prog.add("main",
		&ast.AssignStmt{Targets: []ast.Expr{ident("x")}, Value: intLit("5")},
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("f")},
			Value: &ast.LambdaExpr{
				Body: []ast.Stmt{&ast.ExprStmt{Exprs: []ast.Expr{ident("x")}}},
			},
		},
		&ast.AssignStmt{Targets: []ast.Expr{ident("r")}, Value: &ast.CallExpr{Func: ident("f")}},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("r")}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	if got := values[0].(adt.Int).Int64(); got != 5 {
		t.Errorf("f() = %d, want 5 (closed-over x)", got)
	}
}

func TestCallOnNonFunctionIsAnError(t *testing.T) {
	prog := newTestProgram()
	prog.add("main",
		&ast.AssignStmt{Targets: []ast.Expr{ident("x")}, Value: intLit("1")},
		&ast.ExprStmt{Exprs: []ast.Expr{&ast.CallExpr{Func: ident("x")}}},
	)
	_, _, errs := run(prog, "main")
	if len(errs) == 0 {
		t.Fatal("calling a non-function value: want an error, got none")
	}
}

func TestBuiltinCallDispatchesToRegistry(t *testing.T) {
	// len("abcd") == 4, routed through callFunction's IsBuiltin branch.
	prog := newTestProgram()
	prog.add("main",
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("r")},
			Value: &ast.CallExpr{
				Func: ident("len"),
				Args: []ast.Expr{strLit("abcd")},
			},
		},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("r")}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	if got := values[0].(adt.Int).Int64(); got != 4 {
		t.Errorf("len(\"abcd\") = %d, want 4", got)
	}
}
