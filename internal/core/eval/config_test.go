// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package eval

import (
	"testing"

	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/internal/core/adt"
)

func TestConfigUnionOperatorRecordsOpAndMerges(t *testing.T) {
	prog := newTestProgram()
	prog.add("main",
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("base")},
			Value: &ast.ConfigExpr{Entries: []*ast.ConfigEntry{
				{Key: ident("tags"), Value: &ast.ConfigExpr{Entries: []*ast.ConfigEntry{
					{Key: ident("a"), Value: intLit("1")},
				}}},
			}},
		},
		&ast.UnifyStmt{
			Target: ident("base"),
			Value: &ast.ConfigExpr{Entries: []*ast.ConfigEntry{
				{Key: ident("tags"), Op: ast.OpUnion, Value: &ast.ConfigExpr{Entries: []*ast.ConfigEntry{
					{Key: ident("b"), Value: intLit("2")},
				}}},
			}},
		},
		&ast.ExprStmt{Exprs: []ast.Expr{ident("base")}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	d := values[0].(*adt.Dict)
	tags := d.Values["tags"].(*adt.Dict)
	if !tags.Has("a") || !tags.Has("b") {
		t.Fatalf("union entry did not merge with the existing tags dict, got %v", tags.Keys)
	}
	if got := d.Op("tags"); got != adt.Union {
		t.Errorf("op recorded for tags = %v, want Union", got)
	}
}

func TestConfigInsertIndexEntry(t *testing.T) {
	idx := 1
	prog := newTestProgram()
	prog.add("main",
		&ast.ExprStmt{Exprs: []ast.Expr{&ast.ConfigExpr{Entries: []*ast.ConfigEntry{
			{
				Key:         &ast.SubscriptExpr{X: ident("xs"), Index: intLit("1")},
				InsertIndex: &idx,
				Value:       &ast.ListExpr{Elts: []ast.Expr{intLit(("9"))}},
			},
		}}}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	d := values[0].(*adt.Dict)
	if d.Op("xs") != adt.Insert {
		t.Fatalf("xs op = %v, want Insert", d.Op("xs"))
	}
	if got := *d.InsertIndex("xs"); got != 1 {
		t.Errorf("xs insert index = %d, want 1", got)
	}
}

func TestConfigComputedStringKey(t *testing.T) {
	prog := newTestProgram()
	prog.add("main",
		&ast.ExprStmt{Exprs: []ast.Expr{&ast.ConfigExpr{Entries: []*ast.ConfigEntry{
			{Key: &ast.JoinedString{Parts: []ast.Expr{strLit("k-"), &ast.FormattedValue{X: intLit("1")}}}, Value: intLit("42")},
		}}}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	d := values[0].(*adt.Dict)
	v, ok := d.Get("k-1")
	if !ok {
		t.Fatalf("computed key \"k-1\" not present, got keys %v", d.Keys)
	}
	if got := v.(adt.Int).Int64(); got != 42 {
		t.Errorf("k-1 = %d, want 42", got)
	}
}

func TestConfigSpreadUnpack(t *testing.T) {
	prog := newTestProgram()
	prog.add("main",
		&ast.AssignStmt{
			Targets: []ast.Expr{ident("base")},
			Value: &ast.ConfigExpr{Entries: []*ast.ConfigEntry{
				{Key: ident("a"), Value: intLit("1")},
			}},
		},
		&ast.ExprStmt{Exprs: []ast.Expr{&ast.ConfigExpr{Entries: []*ast.ConfigEntry{
			{Spread: ident("base")},
			{Key: ident("b"), Value: intLit("2")},
		}}}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	d := values[0].(*adt.Dict)
	if !d.Has("a") || !d.Has("b") {
		t.Fatalf("spread did not bring in all keys, got %v", d.Keys)
	}
}

func TestConfigStringLiteralKeyBindsUnquotedLocalName(t *testing.T) {
	// `{"x" = 1, y = x + 1}`: a STRING-literal key must bind its as-local
	// name the same way it's stored in the dict, by its unquoted form, so a
	// later entry can reference it as a bare identifier (spec.md §4.7).
	prog := newTestProgram()
	prog.add("main",
		&ast.ExprStmt{Exprs: []ast.Expr{&ast.ConfigExpr{Entries: []*ast.ConfigEntry{
			{Key: strLit("x"), Value: intLit("1")},
			{Key: ident("y"), Value: &ast.BinaryExpr{X: ident("x"), Op: ast.Add, Y: intLit("1")}},
		}}}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	d := values[0].(*adt.Dict)
	if !d.Has("x") {
		t.Fatalf("string-literal key stored under an unexpected name, got %v", d.Keys)
	}
	if got := d.Values["y"].(adt.Int).Int64(); got != 2 {
		t.Errorf("y = %d, want 2 (x must resolve unquoted)", got)
	}
}

func TestConfigEarlierEntryVisibleToLater(t *testing.T) {
	// `{x = 1, y = x + 1}`: x is bound as a local in the config's own scope
	// so later entries can reference it (spec.md §4.7).
	prog := newTestProgram()
	prog.add("main",
		&ast.ExprStmt{Exprs: []ast.Expr{&ast.ConfigExpr{Entries: []*ast.ConfigEntry{
			{Key: ident("x"), Value: intLit("1")},
			{Key: ident("y"), Value: &ast.BinaryExpr{X: ident("x"), Op: ast.Add, Y: intLit("1")}},
		}}}},
	)
	_, values, errs := run(prog, "main")
	requireNoErrors(t, errs)
	d := values[0].(*adt.Dict)
	if got := d.Values["y"].(adt.Int).Int64(); got != 2 {
		t.Errorf("y = %d, want 2", got)
	}
}
