// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package eval

import (
	"testing"

	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/builtins"
	"github.com/johngmyers/kcl/internal/core/adt"
	"github.com/johngmyers/kcl/internal/core/runtime"
)

// testProgram is the simplest runtime.Program: a fixed list of modules per
// package, built directly from literal ASTs the way the teacher's own
// script tests build a cue.Runtime from literal source instead of a file
// loader.
type testProgram struct {
	pkgs map[string][]runtime.ModuleRef
	mods []*ast.Module
}

func newTestProgram() *testProgram {
	return &testProgram{pkgs: map[string][]runtime.ModuleRef{}}
}

func (p *testProgram) Pkgs() map[string][]runtime.ModuleRef { return p.pkgs }
func (p *testProgram) Module(ref runtime.ModuleRef) *ast.Module { return p.mods[ref.Index] }
func (p *testProgram) ModuleRef(pkgpath, filename string) (runtime.ModuleRef, bool) {
	for _, ref := range p.pkgs[pkgpath] {
		if p.mods[ref.Index].Filename == filename {
			return ref, true
		}
	}
	return runtime.ModuleRef{}, false
}

func (p *testProgram) add(pkgpath string, body ...ast.Stmt) {
	mod := &ast.Module{Pkgpath: pkgpath, Filename: pkgpath + ".lang", Body: body}
	ref := runtime.ModuleRef{Pkgpath: pkgpath, Index: len(p.mods)}
	p.mods = append(p.mods, mod)
	p.pkgs[pkgpath] = append(p.pkgs[pkgpath], ref)
}

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

func strLit(s string) *ast.BasicLit { return &ast.BasicLit{Kind: ast.STRING, Value: `"` + s + `"`} }
func intLit(n string) *ast.BasicLit  { return &ast.BasicLit{Kind: ast.INT, Value: n} }
func floatLit(n string) *ast.BasicLit { return &ast.BasicLit{Kind: ast.FLOAT, Value: n} }
func boolLit(b bool) *ast.BasicLit {
	if b {
		return &ast.BasicLit{Kind: ast.BOOL, Value: "true"}
	}
	return &ast.BasicLit{Kind: ast.BOOL, Value: "false"}
}

// run evaluates prog's pkgpath package with a fresh builtins.Registry and
// returns the Evaluator alongside the usual (values, errors) pair, so tests
// can additionally inspect package globals via e.Ctx.Global.
func run(prog runtime.Program, pkgpath string) (*Evaluator, []adt.Value, []error) {
	reg := builtins.NewRegistry()
	e := NewEvaluator(prog, adt.Config{Functions: reg, Types: reg, Decorators: reg})
	builtins.Bootstrap(e.Ctx, pkgpath)
	values, errs := e.Run(pkgpath)
	var out []error
	for _, err := range errs {
		out = append(out, err)
	}
	return e, values, out
}

func requireNoErrors(t *testing.T, errs []error) {
	t.Helper()
	if len(errs) > 0 {
		t.Fatalf("unexpected evaluation errors: %v", errs)
	}
}
