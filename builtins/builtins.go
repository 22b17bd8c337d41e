// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

// Package builtins is a small, self-contained FunctionRegistry/TypeChecker/
// DecoratorRegistry implementation used to make this module self-testing
// (SPEC_FULL.md §6 domain addition). It is not part of the evaluated
// language's specification: a production embedder supplies its own
// registries, the way cuelang.org/go's internal/core/adt treats these as
// external collaborators and leaves the concrete builtins to pkg/strings,
// pkg/list and friends.
package builtins

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johngmyers/kcl/internal/core/adt"
)

// Registry implements adt.FunctionRegistry, adt.TypeChecker and
// adt.DecoratorRegistry with a handful of arithmetic/string builtins,
// grounded on the shape (not the content) of the teacher's
// internal/core/adt/call.go dispatch and its pkg/strings, pkg/list
// builtin packages.
type Registry struct {
	// unitScale maps a unit suffix to its multiplier against the raw
	// integer, the registry-owned cal_num hook of spec.md §6.
	unitScale map[string]float64
}

// NewRegistry returns a Registry with the standard binary/decimal unit
// suffixes and the builtin function/decorator set installed.
func NewRegistry() *Registry {
	return &Registry{
		unitScale: map[string]float64{
			"":   1,
			"k":  1e3,
			"m":  1e6,
			"g":  1e9,
			"Ki": 1024,
			"Mi": 1024 * 1024,
			"Gi": 1024 * 1024 * 1024,
			"Ti": 1024 * 1024 * 1024 * 1024,
		},
	}
}

// builtinNames is every function name Bootstrap binds; InvokeFunction
// dispatches on the same set.
var builtinNames = []string{
	"len", "abs", "min", "max", "round",
	"upper", "lower", "contains", "str", "int", "float",
}

// Bootstrap installs every builtin name as a package-global Function value
// in pkgpath, so plain identifier lookups inside that package resolve them
// without any import machinery (spec.md §6 treats the registry as purely
// an invocation backend; this binding step is the domain addition that
// makes the module self-testing).
func Bootstrap(c *adt.OpContext, pkgpath string) {
	for _, name := range builtinNames {
		c.SetGlobal(pkgpath, name, adt.Function{IsBuiltin: true, BuiltinID: name})
	}
}

// InvokeFunction implements adt.FunctionRegistry.
func (r *Registry) InvokeFunction(c *adt.OpContext, fn adt.Function, args []adt.Value, kwargs map[string]adt.Value) (adt.Value, error) {
	switch fn.BuiltinID {
	case "len":
		return builtinLen(args)
	case "abs":
		return builtinAbs(args)
	case "min":
		return builtinMinMax(args, true)
	case "max":
		return builtinMinMax(args, false)
	case "round":
		return builtinRound(args)
	case "upper":
		return builtinCase(args, strings.ToUpper)
	case "lower":
		return builtinCase(args, strings.ToLower)
	case "contains":
		return builtinContains(args)
	case "str":
		return builtinStr(args)
	case "int":
		return builtinInt(args)
	case "float":
		return builtinFloat(args)
	}
	return nil, fmt.Errorf("unknown builtin %q", fn.BuiltinID)
}

func builtinLen(args []adt.Value) (adt.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("len() takes exactly one argument")
	}
	switch x := args[0].(type) {
	case adt.String:
		return adt.NewInt(int64(len([]rune(string(x))))), nil
	case *adt.List:
		return adt.NewInt(int64(len(x.Elts))), nil
	case *adt.Dict:
		return adt.NewInt(int64(len(x.Keys))), nil
	case *adt.Schema:
		return adt.NewInt(int64(len(x.Keys))), nil
	}
	return nil, fmt.Errorf("len() unsupported for %T", args[0])
}

func asFloat(v adt.Value) (float64, bool) {
	switch x := v.(type) {
	case adt.Int:
		return float64(x.Int64()), true
	case adt.Float:
		return x.Float64(), true
	case adt.Unit:
		return x.Normalized, true
	}
	return 0, false
}

func builtinAbs(args []adt.Value) (adt.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("abs() takes exactly one argument")
	}
	switch x := args[0].(type) {
	case adt.Int:
		n := x.Int64()
		if n < 0 {
			n = -n
		}
		return adt.NewInt(n), nil
	case adt.Float:
		f := x.Float64()
		if f < 0 {
			f = -f
		}
		return adt.NewFloat(f), nil
	}
	return nil, fmt.Errorf("abs() requires a numeric argument")
}

func builtinMinMax(args []adt.Value, wantMin bool) (adt.Value, error) {
	vals := args
	if len(args) == 1 {
		if l, ok := args[0].(*adt.List); ok {
			vals = l.Elts
		}
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("min()/max() requires at least one value")
	}
	best := vals[0]
	bestF, ok := asFloat(best)
	if !ok {
		return nil, fmt.Errorf("min()/max() requires numeric values")
	}
	for _, v := range vals[1:] {
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("min()/max() requires numeric values")
		}
		if (wantMin && f < bestF) || (!wantMin && f > bestF) {
			best, bestF = v, f
		}
	}
	return best, nil
}

func builtinRound(args []adt.Value) (adt.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("round() takes exactly one argument")
	}
	f, ok := asFloat(args[0])
	if !ok {
		return nil, fmt.Errorf("round() requires a numeric argument")
	}
	n := int64(f + 0.5)
	if f < 0 {
		n = int64(f - 0.5)
	}
	return adt.NewInt(n), nil
}

func builtinCase(args []adt.Value, fn func(string) string) (adt.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("requires exactly one string argument")
	}
	s, ok := args[0].(adt.String)
	if !ok {
		return nil, fmt.Errorf("requires a string argument")
	}
	return adt.String(fn(string(s))), nil
}

func builtinContains(args []adt.Value) (adt.Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("contains() takes exactly two arguments")
	}
	switch x := args[0].(type) {
	case adt.String:
		s, ok := args[1].(adt.String)
		if !ok {
			return nil, fmt.Errorf("contains() on string requires a string needle")
		}
		return adt.Bool(strings.Contains(string(x), string(s))), nil
	case *adt.List:
		for _, el := range x.Elts {
			if fmt.Sprint(el) == fmt.Sprint(args[1]) {
				return adt.Bool(true), nil
			}
		}
		return adt.Bool(false), nil
	case *adt.Dict:
		s, ok := args[1].(adt.String)
		if !ok {
			return nil, fmt.Errorf("contains() on dict requires a string key")
		}
		return adt.Bool(x.Has(string(s))), nil
	}
	return nil, fmt.Errorf("contains() unsupported for %T", args[0])
}

func builtinStr(args []adt.Value) (adt.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("str() takes exactly one argument")
	}
	switch x := args[0].(type) {
	case adt.String:
		return x, nil
	case adt.Int:
		return adt.String(x.D.String()), nil
	case adt.Float:
		return adt.String(x.D.String()), nil
	case adt.Bool:
		if x {
			return adt.String("True"), nil
		}
		return adt.String("False"), nil
	}
	return adt.String(fmt.Sprint(args[0])), nil
}

func builtinInt(args []adt.Value) (adt.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("int() takes exactly one argument")
	}
	switch x := args[0].(type) {
	case adt.Int:
		return x, nil
	case adt.Float:
		return adt.NewInt(int64(x.Float64())), nil
	case adt.String:
		var n int64
		if _, err := fmt.Sscanf(string(x), "%d", &n); err != nil {
			return nil, fmt.Errorf("int(): cannot parse %q", string(x))
		}
		return adt.NewInt(n), nil
	}
	return nil, fmt.Errorf("int() unsupported for %T", args[0])
}

func builtinFloat(args []adt.Value) (adt.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("float() takes exactly one argument")
	}
	switch x := args[0].(type) {
	case adt.Float:
		return x, nil
	case adt.Int:
		return adt.NewFloat(float64(x.Int64())), nil
	case adt.String:
		var f float64
		if _, err := fmt.Sscanf(string(x), "%g", &f); err != nil {
			return nil, fmt.Errorf("float(): cannot parse %q", string(x))
		}
		return adt.NewFloat(f), nil
	}
	return nil, fmt.Errorf("float() unsupported for %T", args[0])
}

// SchemaAssert implements adt.FunctionRegistry: it only records the
// failure for the caller to decide what to do with (the evaluator itself
// already appends the diagnostic to its error list; this hook exists so
// an embedder can additionally, say, forward it to a UI).
func (r *Registry) SchemaAssert(c *adt.OpContext, cond bool, msg string, meta *adt.ConfigMeta, attr string) error {
	c.Logf("schema assert failed on %q: %s", attr, msg)
	return nil
}

// SchemaRuntimeType implements adt.FunctionRegistry: the qualified name is
// just "pkgpath.Name", or bare Name for the entry package.
func (r *Registry) SchemaRuntimeType(name, pkgpath string) string {
	if pkgpath == "" {
		return name
	}
	return pkgpath + "." + name
}

// CalNum implements adt.FunctionRegistry, normalizing a unit literal's raw
// integer against its suffix (spec.md §3 "Unit").
func (r *Registry) CalNum(raw int64, unit string) float64 {
	scale, ok := r.unitScale[unit]
	if !ok {
		scale = 1
	}
	return float64(raw) * scale
}

// packableTypes is the set of primitive type names PackAndCheck
// recognizes; any other type name is accepted unchecked, since this
// registry stands in for an external type-grammar parser that is out of
// scope here (spec.md §1).
var packableTypes = map[string]adt.Kind{
	"int":   adt.IntKind,
	"float": adt.FloatKind,
	"str":   adt.StringKind,
	"bool":  adt.BoolKind,
	"list":  adt.ListKind,
	"dict":  adt.DictKind,
}

// PackAndCheck implements adt.TypeChecker for the small set of primitive
// type names this self-test registry knows about; anything else passes
// through unchecked.
func (r *Registry) PackAndCheck(c *adt.OpContext, v adt.Value, types []string, strict bool) (adt.Value, error) {
	if len(types) == 0 {
		return v, nil
	}
	var unknown []string
	for _, t := range types {
		want, ok := packableTypes[t]
		if !ok {
			unknown = append(unknown, t)
			continue
		}
		if v.Kind()&want != 0 {
			return v, nil
		}
	}
	if len(unknown) == len(types) {
		// None of the declared types are primitives this registry checks;
		// treat as a pass-through schema/union type name.
		return v, nil
	}
	if !strict {
		return v, nil
	}
	sort.Strings(types)
	return nil, fmt.Errorf("value of kind %v does not match declared type %s", v.Kind(), strings.Join(types, " | "))
}

// Run implements adt.DecoratorRegistry with a single "deprecated"
// decorator, grounded on the teacher's own `@deprecated`-adjacent doc
// tooling shape (cue's internal attribute handling), not its content.
func (r *Registry) Run(c *adt.OpContext, name string, args []adt.Value, kwargs map[string]adt.Value, attrName string, isSchemaTarget bool, configValue *adt.Dict, meta *adt.ConfigMeta) error {
	switch name {
	case "deprecated":
		msg := "deprecated"
		if len(args) > 0 {
			if s, ok := args[0].(adt.String); ok {
				msg = string(s)
			}
		}
		c.Logf("%s is deprecated: %s", attrName, msg)
		return nil
	}
	return fmt.Errorf("unknown decorator %q", name)
}
