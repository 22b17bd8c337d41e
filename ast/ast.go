// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

// Package ast declares the AST node vocabulary consumed by the evaluator.
// Nodes are produced by an external lexer/parser/static-resolver (spec.md
// §1); this package only declares their shape. Modeled on
// cuelang.org/go/cue/ast's Node/Expr/Decl interface split, trimmed to the
// statement/expression vocabulary of spec.md §4.4/§4.5 — comment-bearing
// nodes are dropped since output formatting is explicitly out of scope.
package ast

import "github.com/johngmyers/kcl/token"

// A Node is any node of the AST.
type Node interface {
	Pos() token.Pos
	End() token.Pos
	node()
}

// A Stmt is implemented by all statement nodes (spec.md §4.4).
type Stmt interface {
	Node
	stmtNode()
}

// An Expr is implemented by all expression nodes (spec.md §4.5).
type Expr interface {
	Node
	exprNode()
}

// baseNode carries position information shared by every concrete node.
type baseNode struct {
	From, To token.Pos
}

func (b baseNode) Pos() token.Pos { return b.From }
func (b baseNode) End() token.Pos { return b.To }
func (baseNode) node()            {}

// Ident is a bare name reference, resolved by the external static resolver
// to either a local, an argument, a schema attribute, a package-global or
// a fully qualified pkgpath.name import (spec.md §4.2).
type Ident struct {
	baseNode
	Name string
	// Pkgpath is set by the resolver when Name denotes an imported
	// identifier `pkgpath.name` (spec.md §4.2 rule 5).
	Pkgpath string
}

func (*Ident) exprNode() {}

// BasicLit is a literal Int, Float, Unit, String or Bool/None keyword.
type BasicLit struct {
	baseNode
	Kind  BasicLitKind
	Value string // raw lexeme, e.g. "123", "3.14", "2Ki", `"hi"`, "true"
}

func (*BasicLit) exprNode() {}

// BasicLitKind distinguishes BasicLit variants.
type BasicLitKind int

const (
	INT BasicLitKind = iota
	FLOAT
	UNIT
	STRING
	BOOL
	NONE
	UNDEFINED
)
