// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package adt

import (
	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/errors"
)

// Union implements the `|` structural merge operator of spec.md §4.1. The
// Schema Runtime (internal/core/eval) is responsible for re-running check
// blocks after a `schema | dict` merge; Union itself only produces the
// merged value.
func Union(c *OpContext, src ast.Node, left, right Value) (Value, errors.Error) {
	// Undefined propagates; the other side wins outright (spec.md §3, §4.1
	// "Scalars: right wins unless right is Undefined, in which case left
	// wins" generalizes to every kind here).
	if _, ok := right.(Undefined); ok {
		return left, nil
	}
	if _, ok := left.(Undefined); ok {
		return right, nil
	}

	switch l := left.(type) {
	case *Schema:
		rd, ok := asDictLike(right)
		if !ok {
			return nil, errors.Newf(errors.TypeMismatch, src.Pos(), "cannot merge schema with %v", right)
		}
		merged, err2 := mergeDict(c, src, &l.Dict, rd)
		if err2 != nil {
			return nil, err2
		}
		out := &Schema{
			Dict:        *merged,
			RuntimeType: l.RuntimeType,
			Pkgpath:     l.Pkgpath,
			AttrTypes:   l.AttrTypes,
			FrameIndex:  l.FrameIndex,
		}
		return out, nil
	case *Dict:
		switch r := right.(type) {
		case *Schema:
			merged, err := mergeDict(c, src, l, &r.Dict)
			if err != nil {
				return nil, err
			}
			return &Schema{
				Dict:        *merged,
				RuntimeType: r.RuntimeType,
				Pkgpath:     r.Pkgpath,
				AttrTypes:   r.AttrTypes,
				FrameIndex:  r.FrameIndex,
			}, nil
		case *Dict:
			return mergeDict(c, src, l, r)
		default:
			return nil, errors.Newf(errors.TypeMismatch, src.Pos(), "cannot merge dict with %v", right)
		}
	case *List:
		r, ok := right.(*List)
		if !ok {
			return right, nil
		}
		return mergeList(c, src, l, r)
	default:
		// Scalars: right wins unless right is Undefined (handled above).
		return right, nil
	}
}

func asDictLike(v Value) (*Dict, bool) {
	switch x := v.(type) {
	case *Dict:
		return x, true
	case *Schema:
		return &x.Dict, true
	default:
		return nil, false
	}
}

// mergeDict implements the per-key right-biased merge of spec.md §4.1
// "dict | dict".
func mergeDict(c *OpContext, src ast.Node, left, right *Dict) (*Dict, errors.Error) {
	out := &Dict{baseValue: left.baseValue, Values: map[string]Value{}, meta: map[string]entryMeta{}}
	out.Keys = append(out.Keys, left.Keys...)
	for _, k := range left.Keys {
		out.Values[k] = left.Values[k]
		out.meta[k] = left.meta[k]
	}
	for _, k := range right.Keys {
		rv := right.Values[k]
		op := right.Op(k)
		idx := right.InsertIndex(k)
		if !out.Has(k) {
			out.SetOp(k, rv, op, idx)
			continue
		}
		lv := out.Values[k]
		switch op {
		case Override:
			out.SetOp(k, rv, Override, nil)
		case Union:
			merged, err := Union(c, src, lv, rv)
			if err != nil {
				return nil, err
			}
			out.SetOp(k, merged, Union, nil)
		case Insert:
			ll, ok1 := lv.(*List)
			rl, ok2 := rv.(*List)
			if !ok1 || !ok2 {
				return nil, errors.Newf(errors.TypeMismatch, src.Pos(), "Insert operator requires list-valued key %q", k)
			}
			out.SetOp(k, ll.InsertAt(idx, rl.Elts), Insert, idx)
		}
	}
	return out, nil
}

// mergeList implements spec.md §4.1 "list | list": element-wise `|` when
// both sides are dicts/schemas at the same index, otherwise right
// replaces.
func mergeList(c *OpContext, src ast.Node, left, right *List) (*List, errors.Error) {
	n := len(left.Elts)
	if len(right.Elts) > n {
		n = len(right.Elts)
	}
	out := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		switch {
		case i >= len(left.Elts):
			out = append(out, right.Elts[i])
		case i >= len(right.Elts):
			out = append(out, left.Elts[i])
		default:
			le, re := left.Elts[i], right.Elts[i]
			if isDictLike(le) && isDictLike(re) {
				merged, err := Union(c, src, le, re)
				if err != nil {
					return nil, err
				}
				out = append(out, merged)
			} else {
				out = append(out, re)
			}
		}
	}
	return &List{baseValue: left.baseValue, Elts: out}, nil
}

func isDictLike(v Value) bool {
	switch v.(type) {
	case *Dict, *Schema:
		return true
	default:
		return false
	}
}

// DictInsert implements dict_insert(dict, key, value, op, insert_index)
// of spec.md §4.7.
func DictInsert(c *OpContext, src ast.Node, d *Dict, key string, v Value, op EntryOp, insertIndex *int) errors.Error {
	if op != Insert {
		if d.Has(key) {
			switch op {
			case Union:
				merged, err := Union(c, src, d.Values[key], v)
				if err != nil {
					return err
				}
				v = merged
			}
		}
		d.SetOp(key, v, op, nil)
		return nil
	}
	existing, ok := d.Get(key)
	if !ok {
		d.SetOp(key, v, Insert, insertIndex)
		return nil
	}
	el, ok := existing.(*List)
	if !ok {
		return errors.Newf(errors.TypeMismatch, src.Pos(), "Insert operator requires list-valued key %q", key)
	}
	vl, ok := v.(*List)
	if !ok {
		vl = NewList(src, v)
	}
	d.SetOp(key, el.InsertAt(insertIndex, vl.Elts), Insert, insertIndex)
	return nil
}

// DictInsertUnpack implements dict_insert_unpack(dict, value) of spec.md
// §4.7: `**expr` entries recursively union value into dict, preserving
// per-key operators from the source value.
func DictInsertUnpack(c *OpContext, src ast.Node, d *Dict, value Value) errors.Error {
	src2, ok := asDictLike(value)
	if !ok {
		return errors.Newf(errors.TypeMismatch, src.Pos(), "cannot unpack %v into config", value)
	}
	for _, k := range src2.Keys {
		if err := DictInsert(c, src, d, k, src2.Values[k], src2.Op(k), src2.InsertIndex(k)); err != nil {
			return err
		}
	}
	return nil
}
