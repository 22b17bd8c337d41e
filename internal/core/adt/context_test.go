// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import (
	"bytes"
	"testing"
)

func TestGlobalSetGet(t *testing.T) {
	c := NewContext(NewFrameTable(), Config{})

	if _, ok := c.Global("main", "x"); ok {
		t.Fatal("Global(x) found before SetGlobal")
	}
	c.SetGlobal("main", "x", NewInt(1))
	v, ok := c.Global("main", "x")
	if !ok || v.(Int).Int64() != 1 {
		t.Errorf("Global(x) = %v, %v; want 1, true", v, ok)
	}
	c.SetGlobal("main", "x", NewInt(2))
	v, _ = c.Global("main", "x")
	if v.(Int).Int64() != 2 {
		t.Errorf("Global(x) after second SetGlobal = %v, want 2", v)
	}
}

func TestMarkImportedIdempotent(t *testing.T) {
	c := NewContext(NewFrameTable(), Config{})
	if c.MarkImported("pkg") {
		t.Fatal("MarkImported(pkg) reported already-imported on first call")
	}
	if !c.MarkImported("pkg") {
		t.Fatal("MarkImported(pkg) reported not-yet-imported on second call")
	}
}

func TestBacktrackPushPopTop(t *testing.T) {
	c := NewContext(NewFrameTable(), Config{})
	if _, ok := c.TopBacktrack(0, 3); ok {
		t.Fatal("TopBacktrack reported a frame on an empty stack")
	}
	c.PushBacktrack(0, 3, OnlyIf)
	kind, ok := c.TopBacktrack(0, 3)
	if !ok || kind != OnlyIf {
		t.Errorf("TopBacktrack(0, 3) = %v, %v; want OnlyIf, true", kind, ok)
	}
	c.PopBacktrack()
	if _, ok := c.TopBacktrack(0, 3); ok {
		t.Fatal("TopBacktrack reported a frame after the only push was popped")
	}
}

func TestTopBacktrackIgnoresMismatchedStatement(t *testing.T) {
	// A nested `if` reached while walking the targeted branch queries its
	// own (frameIndex, stmtIndex) and must not see the outer restriction
	// (spec.md §4.8).
	c := NewContext(NewFrameTable(), Config{})
	c.PushBacktrack(0, 3, OnlyIf)
	if _, ok := c.TopBacktrack(0, 4); ok {
		t.Error("TopBacktrack matched a different stmtIndex")
	}
	if _, ok := c.TopBacktrack(1, 3); ok {
		t.Error("TopBacktrack matched a different frameIndex")
	}
	if _, ok := c.TopBacktrack(-1, -1); ok {
		t.Error("TopBacktrack matched the non-targeted sentinel identity")
	}
}

func TestLogfNoopWithoutDebug(t *testing.T) {
	var buf bytes.Buffer
	c := NewContext(NewFrameTable(), Config{})
	c.Logw = &buf
	c.Logf("should not appear")
	if buf.Len() != 0 {
		t.Errorf("Logf wrote output with Debug unset: %q", buf.String())
	}
}

func TestLogfWritesWhenDebugEnabled(t *testing.T) {
	var buf bytes.Buffer
	c := NewContext(NewFrameTable(), Config{})
	c.Debug = true
	c.Logw = &buf
	c.Logf("compiling %s", "main")
	if got := buf.String(); got != "compiling main\n" {
		t.Errorf("Logf output = %q, want %q", got, "compiling main\n")
	}
}
