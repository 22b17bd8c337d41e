// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import (
	"testing"

	"github.com/johngmyers/kcl/ast"
)

func TestUnquoteStringStripsQuotesAndEscapes(t *testing.T) {
	tests := []struct{ raw, want string }{
		{`"x"`, "x"},
		{`"a\nb"`, "a\nb"},
		{`"k-1"`, "k-1"},
	}
	for _, tt := range tests {
		if got := UnquoteString(tt.raw); got != tt.want {
			t.Errorf("UnquoteString(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNewConfigMetaKeysStringLiteralByUnquotedName(t *testing.T) {
	entry := &ast.ConfigEntry{
		Key:   &ast.BasicLit{Kind: ast.STRING, Value: `"x"`},
		Value: &ast.BasicLit{Kind: ast.INT, Value: "1"},
	}
	meta := NewConfigMeta([]*ast.ConfigEntry{entry})
	if meta.Attribute("x") == nil {
		t.Fatal("config_meta did not key a STRING-literal entry by its unquoted name")
	}
	if meta.Attribute(`"x"`) != nil {
		t.Error("config_meta keyed a STRING-literal entry by its quoted lexeme")
	}
}
