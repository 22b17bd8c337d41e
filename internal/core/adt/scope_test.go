// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import "testing"

func TestScopeBindLocalAndLookup(t *testing.T) {
	s := NewScope(nil)
	s.BindLocal("x", NewInt(1))

	v, ok := s.LookupLocal("x")
	if !ok || v.(Int).Int64() != 1 {
		t.Errorf("LookupLocal(x) = %v, %v; want 1, true", v, ok)
	}
	if !s.IsLocalHere("x") {
		t.Error("IsLocalHere(x) = false, want true")
	}
}

func TestScopeLookupWalksAncestors(t *testing.T) {
	outer := NewScope(nil)
	outer.BindLocal("x", NewInt(1))
	inner := NewScope(outer)

	v, ok := inner.LookupLocal("x")
	if !ok || v.(Int).Int64() != 1 {
		t.Errorf("inner.LookupLocal(x) = %v, %v; want 1, true", v, ok)
	}
}

func TestScopeLookupStopsAtLambdaBoundary(t *testing.T) {
	outer := NewScope(nil)
	outer.BindLocal("x", NewInt(1))

	lambdaTop := NewScope(outer)
	lambdaTop.InLambda = true

	nested := NewScope(lambdaTop)

	if _, ok := nested.LookupLocal("x"); ok {
		t.Error("LookupLocal crossed the lambda boundary and found an outer local")
	}
	if nested.IsLocal("x") {
		t.Error("IsLocal crossed the lambda boundary")
	}
}

func TestScopeArgsAreLocals(t *testing.T) {
	s := NewScope(nil)
	s.BindArg("p", String("Ada"))

	if !s.Args["p"] {
		t.Error("BindArg did not mark p as an argument")
	}
	if !s.IsLocalHere("p") {
		t.Error("BindArg did not mark p as a local")
	}
}

func TestScopeNearestSchema(t *testing.T) {
	root := NewScope(nil)
	snap := &Snapshot{}
	root.Schema = snap

	child := NewScope(root)
	if got := child.NearestSchema(); got == nil || got.Schema != snap {
		t.Error("NearestSchema did not find the ancestor schema scope")
	}

	unrelated := NewScope(nil)
	if got := unrelated.NearestSchema(); got != nil {
		t.Error("NearestSchema found a schema scope where none exists")
	}
}
