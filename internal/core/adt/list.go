// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import "github.com/johngmyers/kcl/ast"

// List preserves insertion order (spec.md §3).
type List struct {
	baseValue
	Elts []Value
}

func (*List) Kind() Kind                 { return ListKind }
func (*List) Concreteness() Concreteness { return Concrete }

func (l *List) DeepCopy() Value {
	cp := &List{baseValue: l.baseValue, Elts: make([]Value, len(l.Elts))}
	for i, e := range l.Elts {
		cp.Elts[i] = e.DeepCopy()
	}
	return cp
}

// NewList builds a List from already-evaluated elements.
func NewList(src ast.Node, elts ...Value) *List {
	return &List{baseValue: baseValue{src}, Elts: elts}
}

// ResolveInsertIndex normalizes a possibly-negative, possibly-nil insert
// index against a list of length n, per spec.md §4.1/§4.7: negative counts
// from the end, nil or -1 means append after the last element.
func ResolveInsertIndex(index *int, n int) int {
	if index == nil {
		return n
	}
	i := *index
	if i < 0 {
		i = n + i + 1
		if i < 0 {
			i = 0
		}
	}
	if i > n {
		i = n
	}
	return i
}

// InsertAt splices vs into the list at the resolved index, returning a new
// List (spec.md §4.1 "Insert splices the right value... at the recorded
// index").
func (l *List) InsertAt(index *int, vs []Value) *List {
	i := ResolveInsertIndex(index, len(l.Elts))
	out := make([]Value, 0, len(l.Elts)+len(vs))
	out = append(out, l.Elts[:i]...)
	out = append(out, vs...)
	out = append(out, l.Elts[i:]...)
	return &List{baseValue: l.baseValue, Elts: out}
}
