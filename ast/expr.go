// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package ast

// BinOp enumerates binary operators (spec.md §4.1, §4.5).
type BinOp int

const (
	Add BinOp = iota
	Sub
	Mul
	Div
	Mod
	Pow
	FloorDiv
	BitAnd
	BitOr // the `|` union/merge operator, spec.md §4.1
	BitXor
	LShift
	RShift
	LogicAnd
	LogicOr
	As // `x as TypeName`; Y is always an Ident name, never evaluated (spec.md §4.5)
)

// BinaryExpr is a two-operand expression. For As, Y must be an *Ident and
// is consumed as a bare name string, never evaluated as a value — this
// contract is preserved verbatim from the source language (spec.md §9).
type BinaryExpr struct {
	baseNode
	X  Expr
	Op BinOp
	Y  Expr
}

func (*BinaryExpr) exprNode() {}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryBitNot
	UnaryNot
)

type UnaryExpr struct {
	baseNode
	Op UnaryOp
	X  Expr
}

func (*UnaryExpr) exprNode() {}

// CmpOp enumerates comparison operators for chained Compare expressions.
// Not maps to the same action as IsNot and is preserved for exhaustiveness
// even though the front-end only ever emits IsNot (spec.md §9).
type CmpOp int

const (
	Eq CmpOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
	Is
	IsNot
	Not // aliases IsNot; front-end never emits this (spec.md §9)
	In
	NotIn
)

// CompareExpr is a chained comparison `a OP1 b OP2 c ...`.
type CompareExpr struct {
	baseNode
	Operands []Expr
	Ops      []CmpOp // len(Ops) == len(Operands)-1
}

func (*CompareExpr) exprNode() {}

// IfExpr is `x if cond else y`.
type IfExpr struct {
	baseNode
	Cond Expr
	Then Expr
	Else Expr
}

func (*IfExpr) exprNode() {}

// ParenExpr is a parenthesized expression, kept distinct only so position
// info brackets the inner expression; it evaluates identically to X.
type ParenExpr struct {
	baseNode
	X Expr
}

func (*ParenExpr) exprNode() {}

// SelectorExpr is `x.sel` or, when Optional is set, `x?.sel` which
// short-circuits to Undefined when x is falsy (spec.md §4.5).
type SelectorExpr struct {
	baseNode
	X        Expr
	Sel      string
	Optional bool
}

func (*SelectorExpr) exprNode() {}

// SubscriptExpr is `x[index]` or, when Slice is true, a 3-part slice
// `x[Low:High:Step]`. Optional mirrors SelectorExpr's `?` short-circuit.
type SubscriptExpr struct {
	baseNode
	X        Expr
	Slice    bool
	Index    Expr // non-slice form
	Low      Expr // slice form, may be nil
	High     Expr // slice form, may be nil
	Step     Expr // slice form, may be nil
	Optional bool
}

func (*SubscriptExpr) exprNode() {}

// AsExpr is `x as TypeName`. Type is the bare identifier name as a string,
// never looked up as a value — preserved verbatim per spec.md §9.
type AsExpr struct {
	baseNode
	X    Expr
	Type string
}

func (*AsExpr) exprNode() {}

// ListExpr is a list literal. Elements may be ListIfItem (conditional
// inclusion) or StarredExpr (spread-unpack), spec.md §4.5.
type ListExpr struct {
	baseNode
	Elts []Expr
}

func (*ListExpr) exprNode() {}

// StarredExpr is `*spread` inside a list literal: its items are unpacked
// and appended individually rather than appended as one element.
type StarredExpr struct {
	baseNode
	X Expr
}

func (*StarredExpr) exprNode() {}

// ListIfItem is a conditionally-included list element `x if cond`.
type ListIfItem struct {
	baseNode
	Cond Expr
	X    Expr
}

func (*ListIfItem) exprNode() {}

// ConfigEntryOp is the per-key operator of a config/dict entry (spec.md
// §3, §4.7).
type ConfigEntryOp int

const (
	OpOverride ConfigEntryOp = iota
	OpUnion
	OpInsert
)

// ConfigEntry is one `k = v`, `k2 += v2`, `k3: v3` or `**spread` entry of a
// config expression (spec.md §4.7). Key is nil for a `**spread` entry.
type ConfigEntry struct {
	baseNode
	Key Expr // *Ident, *BasicLit(STRING), or *SubscriptExpr(ident[int]) naming an insert index, or nil for spread
	// InsertIndex is set when Key is a subscript naming a literal integer
	// index; nil otherwise (spec.md §4.7).
	InsertIndex *int
	Op          ConfigEntryOp
	Type        string // optional type annotation on `k3: T3 = v3` style entries; "" if absent
	Value       Expr   // nil for a `**spread` entry, where Spread carries the spread expression
	Spread      Expr   // set only for `**expr` entries
}

func (*ConfigEntry) declNode() {}

// Decl is implemented by nodes valid inside a config/schema body.
type Decl interface {
	Node
	declNode()
}

// ConfigExpr is a config/dict literal `{ k = v, ... }` (spec.md §3, §4.7).
type ConfigExpr struct {
	baseNode
	Entries []*ConfigEntry
}

func (*ConfigExpr) exprNode() {}

// SchemaExpr is a schema instantiation `S(args){config}` (spec.md §4.5).
type SchemaExpr struct {
	baseNode
	Name   Expr // usually *Ident or *SelectorExpr naming the schema/rule
	Args   []Expr
	Kwargs []*Kwarg
	Config *ConfigExpr
}

func (*SchemaExpr) exprNode() {}

// Kwarg is a `name = value` keyword argument to a call or schema
// instantiation.
type Kwarg struct {
	baseNode
	Name  string
	Value Expr
}

// CallExpr is a plain function call `f(args, kwargs)`, distinct from
// SchemaExpr: its callee is a lambda, builtin or plugin function rather
// than a schema/rule, and its result is discarded rather than recorded
// as scalar output when used as a bare expression statement (spec.md
// §4.3, §4.4 "Expression statement").
type CallExpr struct {
	baseNode
	Func   Expr
	Args   []Expr
	Kwargs []*Kwarg
}

func (*CallExpr) exprNode() {}

// CheckExpr is a `check` assertion inside a schema's check block (spec.md
// §4.5).
type CheckExpr struct {
	baseNode
	Test    Expr
	If      Expr // optional guard; nil means always
	Message Expr // optional; nil means no custom message
}

func (*CheckExpr) exprNode() {}
func (*CheckExpr) declNode() {}

// LambdaExpr is a lambda declaration (spec.md §4.3, §4.5).
type LambdaExpr struct {
	baseNode
	Params     []*Param
	ReturnType string // "" if absent
	Body       []Stmt
}

func (*LambdaExpr) exprNode() {}

// Param is one formal parameter of a LambdaExpr.
type Param struct {
	baseNode
	Name    string
	Type    string // "" if absent
	Default Expr   // nil if absent
}

// QuantOp enumerates comprehension/quantifier kinds (spec.md §4.5).
type QuantOp int

const (
	QuantAll QuantOp = iota
	QuantAny
	QuantMap
	QuantFilter
)

// QuantExpr is `all/any/map/filter x [, y] in iter { body }`.
type QuantExpr struct {
	baseNode
	Op     QuantOp
	Vars   []string // 1 or 2 loop variables (spec.md §4.5 InvalidArity)
	Iter   Expr
	Body   Expr
	Target Expr // the collection `filter` removes non-matching elements from
}

func (*QuantExpr) exprNode() {}

// CompClause is one `for v in iter if cond` clause of a list/dict
// comprehension; clauses may nest (spec.md §4.5).
type CompClause struct {
	baseNode
	Vars []string
	Iter Expr
	If   Expr // optional filter; nil means none
}

// ListComp is `[expr for ... ]`.
type ListComp struct {
	baseNode
	Elt     Expr
	Clauses []*CompClause
}

func (*ListComp) exprNode() {}

// DictComp is `{key: value for ...}`.
type DictComp struct {
	baseNode
	Key     Expr
	Value   Expr
	Clauses []*CompClause
}

func (*DictComp) exprNode() {}

// JoinedString is a string built from literal fragments interleaved with
// FormattedValue expressions (spec.md §4.5).
type JoinedString struct {
	baseNode
	Parts []Expr // each is *BasicLit(STRING) or *FormattedValue
}

func (*JoinedString) exprNode() {}

// FormattedValue is `${expr}` or `${expr:#json}` / `${expr:#yaml}` inside a
// JoinedString.
type FormattedValue struct {
	baseNode
	X      Expr
	Format string // "", "#json" or "#yaml"
}

func (*FormattedValue) exprNode() {}

// DecoratorExpr is `@name(args, kwargs)` attached to a schema attribute or
// a schema itself (spec.md §4.5).
type DecoratorExpr struct {
	baseNode
	Name   string
	Args   []Expr
	Kwargs []*Kwarg
}

// MissingExpr marks a syntactically-required but absent expression; it is
// never produced by a correctly parsed program but evaluating one raises
// "compile error: missing expression" (spec.md §4.5).
type MissingExpr struct {
	baseNode
}

func (*MissingExpr) exprNode() {}
