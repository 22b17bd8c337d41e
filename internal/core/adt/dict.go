// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import "github.com/johngmyers/kcl/ast"

// EntryOp is the per-key operator of a Dict entry (spec.md §3): Override
// replaces, Union recursively merges, Insert splices into a list-valued
// key.
type EntryOp int

const (
	Override EntryOp = iota
	Union
	Insert
)

// entryMeta is the per-key metadata kept in sync with Dict.Values, per
// spec.md §3's invariant "no orphan metadata".
type entryMeta struct {
	Op          EntryOp
	InsertIndex *int // only meaningful when Op == Insert
}

// Dict is an ordered key→Value map with per-key operator metadata
// (spec.md §3). Keys preserves insertion order.
type Dict struct {
	baseValue
	Keys   []string
	Values map[string]Value
	meta   map[string]entryMeta
}

func (*Dict) Kind() Kind                 { return DictKind }
func (*Dict) Concreteness() Concreteness { return Concrete }

// NewDict returns an empty Dict.
func NewDict(src ast.Node) *Dict {
	return &Dict{
		baseValue: baseValue{src},
		Values:    map[string]Value{},
		meta:      map[string]entryMeta{},
	}
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.Values[key]
	return ok
}

// Get returns the value for key and whether key is present; the value is
// nil if absent.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.Values[key]
	return v, ok
}

// Op returns the recorded operator for key; Override if the key has never
// been set.
func (d *Dict) Op(key string) EntryOp {
	return d.meta[key].Op
}

// InsertIndex returns the recorded insert index for key, if any.
func (d *Dict) InsertIndex(key string) *int {
	return d.meta[key].InsertIndex
}

// Set assigns key with op Override and no insert index, appending key to
// Keys if it is new.
func (d *Dict) Set(key string, v Value) {
	d.SetOp(key, v, Override, nil)
}

// SetOp assigns key, value and metadata together, keeping Keys/Values/meta
// in sync (spec.md §3 invariant).
func (d *Dict) SetOp(key string, v Value, op EntryOp, insertIndex *int) {
	if _, ok := d.Values[key]; !ok {
		d.Keys = append(d.Keys, key)
	}
	d.Values[key] = v
	d.meta[key] = entryMeta{Op: op, InsertIndex: insertIndex}
}

// Delete removes key, preserving order of the remainder.
func (d *Dict) Delete(key string) {
	if _, ok := d.Values[key]; !ok {
		return
	}
	delete(d.Values, key)
	delete(d.meta, key)
	for i, k := range d.Keys {
		if k == key {
			d.Keys = append(d.Keys[:i], d.Keys[i+1:]...)
			break
		}
	}
}

// DeepCopy returns an independent Dict with independently copied values
// and metadata (spec.md §4.4 multi-target assign, §4.5 filter).
func (d *Dict) DeepCopy() Value {
	cp := &Dict{
		baseValue: d.baseValue,
		Keys:      append([]string(nil), d.Keys...),
		Values:    make(map[string]Value, len(d.Values)),
		meta:      make(map[string]entryMeta, len(d.meta)),
	}
	for k, v := range d.Values {
		cp.Values[k] = v.DeepCopy()
	}
	for k, m := range d.meta {
		idx := m.InsertIndex
		if idx != nil {
			v := *idx
			idx = &v
		}
		cp.meta[k] = entryMeta{Op: m.Op, InsertIndex: idx}
	}
	return cp
}

// Schema is a Dict carrying a runtime-type tag and a declared-type map per
// attribute (spec.md §3).
type Schema struct {
	Dict // embeds the underlying Dict; "schema | dict" treats it as such (spec.md §4.1)

	// RuntimeType is the qualified type name surfaced by the collaborator
	// hook schema_runtime_type (spec.md §6).
	RuntimeType string
	// Pkgpath of the declaring schema.
	Pkgpath string
	// AttrTypes is the attribute-type map; update_attr_map (spec.md §4.1,
	// §4.6) keeps it current as attributes are walked.
	AttrTypes map[string]string
	// FrameIndex is the Frame Table entry of the declaring schema, used to
	// re-enter its body under backtracking (spec.md §4.8).
	FrameIndex int
}

func (*Schema) Kind() Kind { return SchemaKind }

// UpdateAttrMap records the declared type string for name (spec.md §4.1).
func (s *Schema) UpdateAttrMap(name, typeStr string) {
	if s.AttrTypes == nil {
		s.AttrTypes = map[string]string{}
	}
	s.AttrTypes[name] = typeStr
}

// DeepCopy copies the underlying Dict and the attribute-type map
// independently.
func (s *Schema) DeepCopy() Value {
	cp := &Schema{
		Dict:        *s.Dict.DeepCopy().(*Dict),
		RuntimeType: s.RuntimeType,
		Pkgpath:     s.Pkgpath,
		AttrTypes:   make(map[string]string, len(s.AttrTypes)),
		FrameIndex:  s.FrameIndex,
	}
	for k, v := range s.AttrTypes {
		cp.AttrTypes[k] = v
	}
	return cp
}

// NewSchema returns an empty Schema wrapping a fresh Dict.
func NewSchema(src ast.Node, runtimeType, pkgpath string, frameIndex int) *Schema {
	return &Schema{
		Dict:        *NewDict(src),
		RuntimeType: runtimeType,
		Pkgpath:     pkgpath,
		AttrTypes:   map[string]string{},
		FrameIndex:  frameIndex,
	}
}
