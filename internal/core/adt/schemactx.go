// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import (
	"strconv"

	"github.com/johngmyers/kcl/ast"
)

// UnquoteString strips a STRING-literal lexeme's surrounding quotes and
// resolves its escape sequences, the same way a config key's quoted name
// and its evaluated string value must agree (spec.md §4.7): a key referenced
// elsewhere by its unquoted form — as a dict key, a config_meta entry, or an
// as-local binding — has to resolve to the same name everywhere.
func UnquoteString(raw string) string {
	if u, err := strconv.Unquote(raw); err == nil {
		return u
	}
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// ConfigMeta carries source-position metadata per config key, consumed by
// check blocks to attribute blame (spec.md §3, GLOSSARY "Config meta").
type ConfigMeta struct {
	Positions map[string]ast.Node
}

// NewConfigMeta builds a ConfigMeta from a config expression's entries
// (spec.md §4.5 "build config_meta from the config AST"). String-literal
// keys are normalized through UnquoteString so they key on the same name
// configKey stores the dict entry under.
func NewConfigMeta(entries []*ast.ConfigEntry) *ConfigMeta {
	m := &ConfigMeta{Positions: map[string]ast.Node{}}
	for _, e := range entries {
		if id, ok := e.Key.(*ast.Ident); ok {
			m.Positions[id.Name] = e
		} else if lit, ok := e.Key.(*ast.BasicLit); ok && lit.Kind == ast.STRING {
			m.Positions[UnquoteString(lit.Value)] = e
		}
	}
	return m
}

// Attribute returns the node to blame for key, or nil if unknown.
func (m *ConfigMeta) Attribute(key string) ast.Node {
	if m == nil {
		return nil
	}
	return m.Positions[key]
}

// SchemaEvalContext is the per-declaration context of spec.md §3: the AST
// node, the frame index, and resolved parent/mixin contexts. It is shared
// across every instantiation of the declaration; each instantiation
// produces a short-lived Snapshot.
type SchemaEvalContext struct {
	Node       ast.Node // *ast.SchemaDecl or *ast.RuleDecl
	FrameIndex int
	Name       string
	Pkgpath    string

	Parent *SchemaEvalContext
	Mixins []*SchemaEvalContext

	// MRO is the linearized base-then-derived order used to run bodies and
	// check blocks (spec.md §9 "Deep inheritance across schemas").
	MRO []*SchemaEvalContext
}

// Snapshot fixes config_value and config_meta for the duration of one
// `S{...}` instantiation (spec.md §3 "Snapshot").
type Snapshot struct {
	Ctx *SchemaEvalContext

	// SchemaValue is the Schema being built; its attribute-type map is
	// updated as attributes are walked (spec.md §4.6).
	SchemaValue *Schema
	// ConfigValue is the user-supplied config dict for this
	// instantiation.
	ConfigValue *Dict
	// ConfigMeta attributes blame for check failures.
	ConfigMeta *ConfigMeta

	// Resolved tracks which attribute names have already produced a fresh
	// value this instantiation, for cache coherence under backtracking
	// (spec.md §4.6 step 7, §4.8).
	Resolved map[string]bool

	// Args/Kwargs are the schema's own call arguments (distinct from the
	// config dict), bound the same way a lambda's formals are (spec.md
	// §4.3).
	Args   []Value
	Kwargs map[string]Value
}

// MarkResolved records that name now has a fresh value in this snapshot.
func (s *Snapshot) MarkResolved(name string) {
	if s.Resolved == nil {
		s.Resolved = map[string]bool{}
	}
	s.Resolved[name] = true
}

// IsResolved reports whether name has already produced a fresh value this
// instantiation.
func (s *Snapshot) IsResolved(name string) bool {
	return s.Resolved != nil && s.Resolved[name]
}
