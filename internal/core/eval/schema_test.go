// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package eval

import (
	"testing"

	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/internal/core/adt"
)

// personSchema declares Person{name: str, age: int = 0} with a check that
// age must not be negative.
func personSchema() *ast.SchemaDecl {
	return &ast.SchemaDecl{
		Name: "Person",
		Body: []ast.Stmt{
			&ast.SchemaAttrStmt{Name: "name", Type: "str"},
			&ast.SchemaAttrStmt{Name: "age", Type: "int", Op: ast.AttrAssign, Value: intLit("0")},
		},
		Check: []*ast.CheckExpr{
			{
				Test: &ast.CompareExpr{
					Operands: []ast.Expr{ident("age"), intLit("0")},
					Ops:      []ast.CmpOp{ast.Ge},
				},
				Message: strLit("age must not be negative"),
			},
		},
	}
}

func TestSchemaInstantiationAppliesDefaultsAndOverrides(t *testing.T) {
	prog := newTestProgram()
	prog.add("main",
		personSchema(),
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("p")},
			Value: &ast.SchemaExpr{
				Name: ident("Person"),
				Config: &ast.ConfigExpr{Entries: []*ast.ConfigEntry{
					{Key: ident("name"), Value: strLit("Ada")},
				}},
			},
		},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("p")}},
	)

	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	if len(values) != 1 {
		t.Fatalf("got %d output values, want 1", len(values))
	}
	s, ok := values[0].(*adt.Schema)
	if !ok {
		t.Fatalf("output is %T, want *adt.Schema", values[0])
	}
	if got := s.Values["name"].(adt.String); got != "Ada" {
		t.Errorf("name = %q, want Ada", got)
	}
	if got := s.Values["age"].(adt.Int).Int64(); got != 0 {
		t.Errorf("age = %d, want 0 (default)", got)
	}
}

func TestSchemaCheckFailureIsReported(t *testing.T) {
	prog := newTestProgram()
	prog.add("main",
		personSchema(),
		&ast.ExprStmt{Exprs: []ast.Expr{&ast.SchemaExpr{
			Name: ident("Person"),
			Config: &ast.ConfigExpr{Entries: []*ast.ConfigEntry{
				{Key: ident("name"), Value: strLit("Ada")},
				{Key: ident("age"), Value: intLit("-1")},
			}},
		}}},
	)

	_, _, errs := run(prog, "main")
	if len(errs) == 0 {
		t.Fatal("expected a check failure, got no errors")
	}
}

func TestOpenSchemaKeepsUnknownConfigKeys(t *testing.T) {
	prog := newTestProgram()
	prog.add("main",
		personSchema(),
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("p")},
			Value: &ast.SchemaExpr{
				Name: ident("Person"),
				Config: &ast.ConfigExpr{Entries: []*ast.ConfigEntry{
					{Key: ident("name"), Value: strLit("Ada")},
					{Key: ident("extra"), Value: strLit("unplanned")},
				}},
			},
		},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("p")}},
	)

	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	s := values[0].(*adt.Schema)
	if !s.Has("extra") {
		t.Fatal("schema dropped an unmatched config key")
	}
	if got := s.Values["extra"].(adt.String); got != "unplanned" {
		t.Errorf("extra = %q, want unplanned", got)
	}
}

// Admin extends the Person schema from personSchema with an extra attribute,
// exercising the MRO-based inheritance of spec.md §9.
func TestSchemaInheritanceRunsParentBodyFirst(t *testing.T) {
	prog := newTestProgram()
	admin := &ast.SchemaDecl{
		Name:   "Admin",
		Parent: "Person",
		Body: []ast.Stmt{
			&ast.SchemaAttrStmt{Name: "level", Type: "int", Op: ast.AttrAssign, Value: intLit("1")},
		},
	}
	prog.add("main",
		personSchema(),
		admin,
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("a")},
			Value: &ast.SchemaExpr{
				Name: ident("Admin"),
				Config: &ast.ConfigExpr{Entries: []*ast.ConfigEntry{
					{Key: ident("name"), Value: strLit("Root")},
				}},
			},
		},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("a")}},
	)

	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	s := values[0].(*adt.Schema)
	if got := s.Values["name"].(adt.String); got != "Root" {
		t.Errorf("name = %q, want Root", got)
	}
	if got := s.Values["level"].(adt.Int).Int64(); got != 1 {
		t.Errorf("level = %d, want 1 (Admin's own default)", got)
	}
}

func TestLazyAttributeReadTriggersReentry(t *testing.T) {
	// A schema whose `full` attribute reads `name` before `name` has been
	// walked in source order: the Lazy/Backtrack Engine must re-enter just
	// the `name` statement to resolve it (spec.md §4.8).
	prog := newTestProgram()
	lazy := &ast.SchemaDecl{
		Name: "Lazy",
		Body: []ast.Stmt{
			&ast.SchemaAttrStmt{Name: "full", Type: "str", Op: ast.AttrAssign, Value: ident("name")},
			&ast.SchemaAttrStmt{Name: "name", Type: "str", Op: ast.AttrAssign, Value: strLit("Ada")},
		},
	}
	prog.add("main",
		lazy,
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("l")},
			Value:   &ast.SchemaExpr{Name: ident("Lazy"), Config: &ast.ConfigExpr{}},
		},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("l")}},
	)

	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	s := values[0].(*adt.Schema)
	if got := s.Values["full"].(adt.String); got != "Ada" {
		t.Errorf("full = %q, want Ada (resolved via backtrack re-entry)", got)
	}
}

func TestLazyAttributeReentryDoesNotForceNestedIfBranch(t *testing.T) {
	// `name` is declared inside a nested `if`: the outer `if` is the
	// re-entry target, but the inner `if`'s own (false) condition must
	// still be honored rather than inheriting the outer restriction
	// (spec.md §4.8: only the targeted branch is forced).
	prog := newTestProgram()
	lazy := &ast.SchemaDecl{
		Name: "LazyNested",
		Body: []ast.Stmt{
			&ast.SchemaAttrStmt{Name: "full", Type: "str", Op: ast.AttrAssign, Value: ident("name")},
			&ast.IfStmt{
				Cond: boolLit(true),
				Body: []ast.Stmt{
					&ast.IfStmt{
						Cond: boolLit(false),
						Body: []ast.Stmt{
							&ast.SchemaAttrStmt{Name: "name", Type: "str", Op: ast.AttrAssign, Value: strLit("WRONG")},
						},
						OrElse: []ast.Stmt{
							&ast.SchemaAttrStmt{Name: "name", Type: "str", Op: ast.AttrAssign, Value: strLit("Ada")},
						},
					},
				},
			},
		},
	}
	prog.add("main",
		lazy,
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("l")},
			Value:   &ast.SchemaExpr{Name: ident("LazyNested"), Config: &ast.ConfigExpr{}},
		},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("l")}},
	)

	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	s := values[0].(*adt.Schema)
	if got := s.Values["full"].(adt.String); got != "Ada" {
		t.Errorf("full = %q, want Ada (inner if's own false condition must still pick OrElse)", got)
	}
}
