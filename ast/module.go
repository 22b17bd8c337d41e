// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package ast

// Module is one source file's worth of top-level statements, already
// parsed and resolved (spec.md §6: "Modules expose {pkgpath, body}").
type Module struct {
	baseNode
	Pkgpath  string
	Filename string
	Body     []Stmt
}
