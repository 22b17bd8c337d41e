// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

// Scope levels (spec.md §3).
const (
	GlobalLevel = 0
	InnerLevel  = 1
)

// Scope is one entry of the stack of named environments (spec.md §3),
// implemented as an explicit Up-linked chain rather than a slice-indexed
// stack, matching the teacher's Environment.Up idiom
// (internal/core/adt/context.go).
type Scope struct {
	Up    *Scope
	Level int

	Bindings map[string]Value
	// Args marks immutable formal-parameter names (spec.md §4.3).
	Args map[string]bool
	// Locals marks names that shadow an enclosing schema attribute of the
	// same name (spec.md §3, §4.2).
	Locals map[string]bool

	// Pkgpath is the current package, consulted for package-global reads
	// and writes at GlobalLevel (spec.md §4.2 rule 4, write rule 1).
	Pkgpath string
	// InLambda is true for the scope introduced by a lambda body, and
	// inherited by any scope nested inside it without crossing another
	// lambda boundary — used to find "the lambda boundary" of spec.md
	// §4.2 read rule 1.
	InLambda bool
	// Schema points at the active instantiation snapshot when this scope
	// is a schema body (or nested inside one without crossing a lambda),
	// per spec.md §4.2 read rule 3 and write rules.
	Schema *Snapshot
	// AtGlobal marks a scope reachable from the module top level without
	// crossing a lambda or schema boundary, used by the write rule
	// "At global level: update or create the package-global" (spec.md
	// §4.2). It is inherited like InLambda/Schema.
	AtGlobal bool
}

// NewScope creates a fresh child scope of up, inheriting Pkgpath/InLambda/
// Schema unless explicitly overridden by the caller after construction.
func NewScope(up *Scope) *Scope {
	s := &Scope{
		Up:       up,
		Bindings: map[string]Value{},
		Args:     map[string]bool{},
		Locals:   map[string]bool{},
	}
	if up != nil {
		s.Level = up.Level + 1
		s.Pkgpath = up.Pkgpath
		s.InLambda = up.InLambda
		s.Schema = up.Schema
		s.AtGlobal = up.AtGlobal
	}
	return s
}

// BindLocal records name as a local variable in this scope with value v.
// An argument mark already set on name is left in place.
func (s *Scope) BindLocal(name string, v Value) {
	s.Bindings[name] = v
	s.Locals[name] = true
}

// BindArg records name as an immutable argument and a local (spec.md
// §4.3 "Formals are added as arguments... and locals").
func (s *Scope) BindArg(name string, v Value) {
	s.Bindings[name] = v
	s.Args[name] = true
	s.Locals[name] = true
}

// IsLocalHere reports whether name is marked local in this scope only
// (not an ancestor).
func (s *Scope) IsLocalHere(name string) bool { return s.Locals[name] }

// LookupLocal implements spec.md §4.2 read rules 1+2: search the current
// scope and enclosing scopes up to (and including) the lambda boundary.
// Arguments are represented as locals (spec.md §4.3), so this single walk
// covers both rules.
func (s *Scope) LookupLocal(name string) (Value, bool) {
	for cur := s; cur != nil; cur = cur.Up {
		if v, ok := cur.Bindings[name]; ok {
			return v, true
		}
		if cur.InLambda && !(cur.Up != nil && cur.Up.InLambda) {
			// cur is the lambda's own top scope; stop after checking it.
			break
		}
		if !cur.InLambda && cur.Up == nil {
			break
		}
	}
	return nil, false
}

// IsLocal reports whether name is marked local anywhere from the current
// scope up to the lambda boundary, used by the write-routing rules of
// spec.md §4.2 ("if the name is not marked local").
func (s *Scope) IsLocal(name string) bool {
	for cur := s; cur != nil; cur = cur.Up {
		if cur.Locals[name] {
			return true
		}
		if cur.InLambda && !(cur.Up != nil && cur.Up.InLambda) {
			break
		}
		if !cur.InLambda && cur.Up == nil {
			break
		}
	}
	return false
}

// NearestSchema returns the nearest ancestor scope (including s) whose
// Schema is non-nil, or nil (spec.md §4.2 read rule 3).
func (s *Scope) NearestSchema() *Scope {
	for cur := s; cur != nil; cur = cur.Up {
		if cur.Schema != nil {
			return cur
		}
	}
	return nil
}
