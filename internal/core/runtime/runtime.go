// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

// Package runtime declares the Program/Module collaborator boundary
// (spec.md §6): the evaluator core consumes an already-built program graph
// but never constructs one. Modeled on how internal/core/adt/context.go
// declares a Runtime interface the evaluator depends on without importing
// any concrete loader.
package runtime

import "github.com/johngmyers/kcl/ast"

// ModuleRef is an opaque, stable handle to one Module within a Program.
// The core never interprets its value; it only round-trips it through
// Program.Module.
type ModuleRef struct {
	Pkgpath string
	Index   int
}

// Program is the external, already-resolved package graph (spec.md §6).
type Program interface {
	// Pkgs returns, for every package path, the ordered list of module
	// references belonging to it.
	Pkgs() map[string][]ModuleRef

	// Module resolves a ModuleRef to its AST.
	Module(ref ModuleRef) *ast.Module

	// ModuleRef resolves a package path plus file name to its ref. The
	// evaluator core locates a package's modules through Pkgs and does
	// not call ModuleRef.
	ModuleRef(pkgpath, filename string) (ModuleRef, bool)
}

// ReservedPkgpathPrefix identifies built-in system and plugin modules that
// are registered but never walked (spec.md §4.4 Import, §6 "Reserved
// identifiers").
const ReservedPkgpathPrefix = "@"

// IsReservedPkgpath reports whether pkgpath names a built-in system module
// or a plugin module by testing its first byte against the fixed
// ReservedPkgpathPrefix constant. The prefix is not taken from the
// collaborator, and there is no separate check for plugin-module or
// system-module names.
func IsReservedPkgpath(pkgpath string) bool {
	return len(pkgpath) > 0 && pkgpath[0] == ReservedPkgpathPrefix[0]
}
