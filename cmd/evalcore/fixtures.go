// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/internal/core/runtime"
)

// memProgram is the simplest possible runtime.Program: an in-memory list of
// already-built modules. A real embedder's loader reads source files,
// lexes, parses and statically resolves them (spec.md §1 scope); this demo
// program stands in for that pipeline with a hand-built AST, the way the
// teacher's own script tests build a cue.Runtime directly from literal
// source instead of going through cmd/cue's file-discovery layer.
type memProgram struct {
	pkgs map[string][]runtime.ModuleRef
	mods []*ast.Module
}

func (p *memProgram) Pkgs() map[string][]runtime.ModuleRef { return p.pkgs }

func (p *memProgram) Module(ref runtime.ModuleRef) *ast.Module { return p.mods[ref.Index] }

func (p *memProgram) ModuleRef(pkgpath, filename string) (runtime.ModuleRef, bool) {
	for _, ref := range p.pkgs[pkgpath] {
		if p.mods[ref.Index].Filename == filename {
			return ref, true
		}
	}
	return runtime.ModuleRef{}, false
}

func newMemProgram() *memProgram {
	return &memProgram{pkgs: map[string][]runtime.ModuleRef{}}
}

// add registers mod under pkgpath and returns its ModuleRef.
func (p *memProgram) add(pkgpath string, mod *ast.Module) runtime.ModuleRef {
	mod.Pkgpath = pkgpath
	ref := runtime.ModuleRef{Pkgpath: pkgpath, Index: len(p.mods)}
	p.mods = append(p.mods, mod)
	p.pkgs[pkgpath] = append(p.pkgs[pkgpath], ref)
	return ref
}

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

func strLit(s string) *ast.BasicLit {
	return &ast.BasicLit{Kind: ast.STRING, Value: `"` + s + `"`}
}

func intLit(n string) *ast.BasicLit {
	return &ast.BasicLit{Kind: ast.INT, Value: n}
}

// demoProgram builds a small "main" package exercising the Schema Runtime,
// Config Merge and Evaluator Walk together: a schema with a defaulted
// attribute and a check block, one instantiation overriding part of the
// config, and a couple of bare expression statements whose values become
// the evaluation's scalar output (spec.md §4.4 "Expression statement").
func demoProgram() *memProgram {
	prog := newMemProgram()

	personSchema := &ast.SchemaDecl{
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

	instantiation := &ast.SchemaExpr{
		Name: ident("Person"),
		Config: &ast.ConfigExpr{
			Entries: []*ast.ConfigEntry{
				{Key: ident("name"), Value: strLit("Ada")},
				{Key: ident("age"), Value: intLit("30")},
			},
		},
	}

	greeting := &ast.JoinedString{
		Parts: []ast.Expr{
			&ast.BasicLit{Kind: ast.STRING, Value: `"hello, "`},
			&ast.FormattedValue{X: &ast.SelectorExpr{X: ident("p"), Sel: "name"}},
		},
	}

	mod := &ast.Module{
		Filename: "main.lang",
		Body: []ast.Stmt{
			personSchema,
			&ast.AssignStmt{Targets: []ast.Expr{ident("p")}, Value: instantiation},
			&ast.ExprStmt{Exprs: []ast.Expr{ident("p")}},
			&ast.ExprStmt{Exprs: []ast.Expr{greeting}},
		},
	}
	prog.add("main", mod)
	return prog
}
