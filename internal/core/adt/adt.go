// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

// Package adt implements the Value Model, Scope & Binding, Frame Table and
// Config Merge components of spec.md §2 (components 1, 2, 3 and 7).
// Modeled on cuelang.org/go/internal/core/adt, simplified: this language's
// values form a tree, not a unification graph, so there is no Vertex/
// closeContext/scheduler machinery — a Value is either fully evaluated or
// it isn't.
package adt

import "github.com/johngmyers/kcl/ast"

// Kind is a bitmask classifying a Value's shape, mirroring adt.Kind in the
// teacher so registries and the type-checker hook can test membership
// (`k&IntKind != 0`) instead of type-switching at every call site
// (SPEC_FULL.md §3).
type Kind uint16

const (
	UndefinedKind Kind = 1 << iota
	NoneKind
	BoolKind
	IntKind
	FloatKind
	UnitKind
	StringKind
	ListKind
	DictKind
	SchemaKind
	FuncKind

	NumKind = IntKind | FloatKind | UnitKind
	TopKind = UndefinedKind | NoneKind | BoolKind | NumKind | StringKind | ListKind | DictKind | SchemaKind | FuncKind
)

func (k Kind) String() string {
	switch k {
	case UndefinedKind:
		return "undefined"
	case NoneKind:
		return "None"
	case BoolKind:
		return "bool"
	case IntKind:
		return "int"
	case FloatKind:
		return "float"
	case UnitKind:
		return "unit"
	case StringKind:
		return "str"
	case ListKind:
		return "list"
	case DictKind:
		return "dict"
	case SchemaKind:
		return "schema"
	case FuncKind:
		return "func"
	default:
		return "value"
	}
}

// Concreteness orders values by how fully resolved they are. This
// language's evaluator only ever produces Concrete values or an error —
// the ordering exists so code shared in spirit with the teacher (which
// distinguishes partial results under unification) still type-checks the
// same way, per SPEC_FULL.md §3.
type Concreteness int

const (
	Concrete Concreteness = iota
	NotConcrete
)

// Value is the tagged runtime value of spec.md §3.
type Value interface {
	Kind() Kind
	Concreteness() Concreteness
	// Source is the originating AST node, if any, used to attribute
	// diagnostics (spec.md §1: "Source-position tracking... surfaced
	// verbatim").
	Source() ast.Node
	// DeepCopy returns an independent copy so multi-target assignment and
	// comprehension filtering never alias mutable state (spec.md §4.4,
	// §4.5).
	DeepCopy() Value
}

// Truthy implements the language's truthiness rules (spec.md §4.4): None,
// Undefined, zero numbers, empty strings, empty lists and empty dicts are
// falsy; everything else, including a Schema with no attributes, is
// truthy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Undefined:
		return false
	case None:
		return false
	case Bool:
		return bool(x)
	case Int:
		return x.D.Sign() != 0
	case Float:
		return x.D.Sign() != 0
	case Unit:
		return x.Normalized != 0
	case String:
		return len(x) > 0
	case *List:
		return len(x.Elts) > 0
	case *Dict:
		return len(x.Keys) > 0
	case *Schema:
		return true
	case Function:
		return true
	default:
		return true
	}
}
