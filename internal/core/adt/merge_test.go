// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeDictOverride(t *testing.T) {
	left := NewDict(noSrc)
	left.Set("a", NewInt(1))
	left.Set("b", NewInt(2))

	right := NewDict(noSrc)
	right.Set("b", NewInt(20))

	out, err := Union(nil, noSrc, left, right)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	d := out.(*Dict)
	if got := d.Values["a"].(Int).Int64(); got != 1 {
		t.Errorf("a = %d, want 1 (left survives untouched key)", got)
	}
	if got := d.Values["b"].(Int).Int64(); got != 20 {
		t.Errorf("b = %d, want 20 (right overrides)", got)
	}
}

func TestMergeDictUnionRecurses(t *testing.T) {
	leftInner := NewDict(noSrc)
	leftInner.Set("x", NewInt(1))
	left := NewDict(noSrc)
	left.Set("inner", leftInner)

	rightInner := NewDict(noSrc)
	rightInner.Set("y", NewInt(2))
	right := NewDict(noSrc)
	right.SetOp("inner", rightInner, Union, nil)

	out, err := Union(nil, noSrc, left, right)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	inner := out.(*Dict).Values["inner"].(*Dict)
	if !inner.Has("x") || !inner.Has("y") {
		t.Errorf("merged inner dict missing keys, got %v", inner.Keys)
	}
}

func TestMergeDictInsertRequiresList(t *testing.T) {
	left := NewDict(noSrc)
	left.Set("xs", NewInt(1))
	right := NewDict(noSrc)
	right.SetOp("xs", NewList(noSrc, NewInt(2)), Insert, nil)

	if _, err := Union(nil, noSrc, left, right); err == nil {
		t.Fatal("Union with Insert on non-list key: want error, got nil")
	}
}

func TestMergeListElementwise(t *testing.T) {
	leftInner := NewDict(noSrc)
	leftInner.Set("a", NewInt(1))
	rightInner := NewDict(noSrc)
	rightInner.Set("b", NewInt(2))

	left := NewList(noSrc, leftInner)
	right := NewList(noSrc, rightInner, String("extra"))

	out, err := Union(nil, noSrc, left, right)
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	l := out.(*List)
	if len(l.Elts) != 2 {
		t.Fatalf("merged list has %d elements, want 2", len(l.Elts))
	}
	merged := l.Elts[0].(*Dict)
	if !merged.Has("a") || !merged.Has("b") {
		t.Errorf("elementwise dict merge missing keys, got %v", merged.Keys)
	}
	if got := l.Elts[1].(String); got != "extra" {
		t.Errorf("tail element = %q, want %q", got, "extra")
	}
}

func TestUndefinedPropagationInUnion(t *testing.T) {
	v, err := Union(nil, noSrc, Undefined{}, NewInt(5))
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	if got := v.(Int).Int64(); got != 5 {
		t.Errorf("Union(Undefined, 5) = %v, want 5", v)
	}

	v, err = Union(nil, noSrc, NewInt(5), Undefined{})
	if err != nil {
		t.Fatalf("Union: %v", err)
	}
	if got := v.(Int).Int64(); got != 5 {
		t.Errorf("Union(5, Undefined) = %v, want 5", v)
	}
}

func TestDictInsertIndex(t *testing.T) {
	d := NewDict(noSrc)
	d.Set("xs", NewList(noSrc, NewInt(1), NewInt(3)))

	idx := 1
	if err := DictInsert(nil, noSrc, d, "xs", NewInt(2), Insert, &idx); err != nil {
		t.Fatalf("DictInsert: %v", err)
	}
	l := d.Values["xs"].(*List)
	got := make([]int64, len(l.Elts))
	for i, e := range l.Elts {
		got[i] = e.(Int).Int64()
	}
	want := []int64{1, 2, 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("xs mismatch (-want +got):\n%s", diff)
	}
}

func TestDictInsertUnpack(t *testing.T) {
	d := NewDict(noSrc)
	d.Set("a", NewInt(1))

	src := NewDict(noSrc)
	src.Set("b", NewInt(2))
	src.SetOp("a", NewInt(10), Union, nil)

	if err := DictInsertUnpack(nil, noSrc, d, src); err != nil {
		t.Fatalf("DictInsertUnpack: %v", err)
	}
	if got := d.Values["a"].(Int).Int64(); got != 10 {
		t.Errorf("a = %d, want 10 (scalar union: right wins)", got)
	}
	if got := d.Values["b"].(Int).Int64(); got != 2 {
		t.Errorf("b = %d, want 2 (new key copied)", got)
	}
}
