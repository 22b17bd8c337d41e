// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import "testing"

func TestFrameTableStableIndices(t *testing.T) {
	ft := NewFrameTable()
	i0 := ft.Add(&Frame{Pkgpath: "main", Proxy: SchemaProxy, Schema: &SchemaEvalContext{Name: "A"}})
	i1 := ft.Add(&Frame{Pkgpath: "main", Proxy: LambdaProxy, Lambda: &LambdaEvalContext{}})

	if i0 != 0 || i1 != 1 {
		t.Fatalf("Add indices = %d, %d; want 0, 1", i0, i1)
	}
	if ft.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", ft.Len())
	}
	if got := ft.At(i0).Schema.Name; got != "A" {
		t.Errorf("At(0).Schema.Name = %q, want %q", got, "A")
	}
	if ft.At(i1).Proxy != LambdaProxy {
		t.Errorf("At(1).Proxy = %v, want LambdaProxy", ft.At(i1).Proxy)
	}
}

func TestFunctionStoredByValue(t *testing.T) {
	ft := NewFrameTable()
	idx := ft.Add(&Frame{Proxy: SchemaProxy, Schema: &SchemaEvalContext{Name: "S"}})

	fn := Function{FrameIndex: idx}
	if fn.Kind() != FuncKind {
		t.Errorf("Kind() = %v, want FuncKind", fn.Kind())
	}
	if !Truthy(fn) {
		t.Error("Truthy(Function) = false, want true")
	}
	cp := fn.DeepCopy().(Function)
	if cp.FrameIndex != idx {
		t.Errorf("DeepCopy FrameIndex = %d, want %d", cp.FrameIndex, idx)
	}
}
