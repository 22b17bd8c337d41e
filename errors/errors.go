// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

// Package errors defines the shared error type produced by the evaluator
// core. Every error kind listed in spec.md §7 is a Code carried by a single
// concrete type implementing the Error interface, modeled on
// cuelang.org/go/cue/errors.
package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johngmyers/kcl/token"
)

// Code identifies one of the error kinds of spec.md §7.
type Code int8

const (
	// Assertion is raised by a failing `assert` statement or schema check.
	Assertion Code = iota
	// TypeMismatch is raised by type-pack-and-check failures.
	TypeMismatch
	// UndefinedAttr is raised reading a name that resolves to nothing.
	UndefinedAttr
	// InvalidOperator is raised applying an operator to incompatible kinds.
	InvalidOperator
	// DivideByZero is raised by `/`, `//` and `%` on a zero divisor.
	DivideByZero
	// InvalidArity is raised when a comprehension loop binds other than
	// 1 or 2 variables.
	InvalidArity
	// InvalidStringInterpolationSpec is raised by a format spec other
	// than #json or #yaml.
	InvalidStringInterpolationSpec
	// InvalidJoinedString is raised by a malformed joined string.
	InvalidJoinedString
	// Internal marks a bug in the evaluator itself.
	Internal
)

func (c Code) String() string {
	switch c {
	case Assertion:
		return "assertion"
	case TypeMismatch:
		return "type mismatch"
	case UndefinedAttr:
		return "undefined attribute"
	case InvalidOperator:
		return "invalid operator"
	case DivideByZero:
		return "divide by zero"
	case InvalidArity:
		return "invalid arity"
	case InvalidStringInterpolationSpec:
		return "invalid string interpolation spec"
	case InvalidJoinedString:
		return "invalid joined string"
	default:
		return "internal error"
	}
}

// Error is the interface implemented by all evaluator errors. It mirrors
// cue/errors.Error: diagnostics carry a position and, for check/assert
// failures, the dotted attribute path that was to blame.
type Error interface {
	error
	Position() token.Pos
	Path() []string
	Code() Code
}

type evalError struct {
	code    Code
	pos     token.Pos
	path    []string
	message string
	wrapped error
}

func (e *evalError) Error() string {
	var b strings.Builder
	if e.pos.IsValid() {
		b.WriteString(e.pos.String())
		b.WriteString(": ")
	}
	if len(e.path) > 0 {
		b.WriteString(strings.Join(e.path, "."))
		b.WriteString(": ")
	}
	b.WriteString(e.message)
	if e.wrapped != nil {
		b.WriteString(": ")
		b.WriteString(e.wrapped.Error())
	}
	return b.String()
}

func (e *evalError) Unwrap() error    { return e.wrapped }
func (e *evalError) Position() token.Pos { return e.pos }
func (e *evalError) Path() []string    { return e.path }
func (e *evalError) Code() Code        { return e.code }

// Newf creates a new Error of the given code at pos with a formatted
// message. No attribute path is attached; use WithPath to attribute blame.
func Newf(code Code, pos token.Pos, format string, args ...interface{}) Error {
	return &evalError{code: code, pos: pos, message: fmt.Sprintf(format, args...)}
}

// Wrapf wraps an existing error with additional context, preserving the
// original error's Unwrap chain.
func Wrapf(err error, code Code, pos token.Pos, format string, args ...interface{}) Error {
	return &evalError{code: code, pos: pos, message: fmt.Sprintf(format, args...), wrapped: err}
}

// WithPath returns a copy of err with the dotted attribute path attached,
// as used by check/assert blame attribution via config_meta (spec.md §4.5,
// §4.6, §4.8).
func WithPath(err Error, path ...string) Error {
	if e, ok := err.(*evalError); ok {
		cp := *e
		cp.path = append([]string(nil), path...)
		return &cp
	}
	return err
}

// List is a collection of Errors that itself implements error, modeled on
// cue/errors.List. The evaluate() entry point (spec.md §6) returns a List
// for its (output-values, errors) pair.
type List []Error

func (p List) Error() string {
	switch len(p) {
	case 0:
		return ""
	case 1:
		return p[0].Error()
	default:
		msgs := make([]string, len(p))
		for i, e := range p {
			msgs[i] = e.Error()
		}
		return fmt.Sprintf("%s (and %d more errors)", msgs[0], len(p)-1)
	}
}

// Add appends err to the list unless err is nil.
func (p *List) Add(err Error) {
	if err != nil {
		*p = append(*p, err)
	}
}

// Err returns nil if the list is empty, otherwise the list itself as an
// error.
func (p List) Err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// Sanitize sorts the list by position and removes exact-duplicate
// messages, mirroring cue/errors.Sanitize.
func Sanitize(list List) List {
	if len(list) < 2 {
		return list
	}
	sorted := append(List(nil), list...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position().String() < sorted[j].Position().String()
	})
	out := sorted[:0]
	seen := map[string]bool{}
	for _, e := range sorted {
		msg := e.Error()
		if seen[msg] {
			continue
		}
		out = append(out, e)
		seen[msg] = true
	}
	return out
}
