// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package eval

import (
	"github.com/johngmyers/kcl/ast"
	"github.com/johngmyers/kcl/errors"
	"github.com/johngmyers/kcl/internal/core/adt"
)

// declareSchema implements spec.md §4.4 "Schema/Rule decl": resolve
// parent/mixin contexts, register a Frame, bind the name to a Function.
func (e *Evaluator) declareSchema(s *ast.SchemaDecl, scope *adt.Scope) {
	sctx := &adt.SchemaEvalContext{
		Node:    s,
		Name:    s.Name,
		Pkgpath: scope.Pkgpath,
	}
	if s.Parent != "" {
		sctx.Parent = e.resolveSchemaRef(s.Parent, scope)
	}
	for _, m := range s.Mixins {
		if mc := e.resolveSchemaRef(m, scope); mc != nil {
			sctx.Mixins = append(sctx.Mixins, mc)
		}
	}
	sctx.MRO = buildMRO(sctx)

	frame := &adt.Frame{Pkgpath: scope.Pkgpath, Proxy: adt.SchemaProxy, Schema: sctx}
	idx := e.Ctx.Frames.Add(frame)
	sctx.FrameIndex = idx
	e.schemas[s] = sctx

	e.writeName(s.Name, adt.Function{FrameIndex: idx}, scope, s)
}

// declareRule mirrors declareSchema for rule declarations (GLOSSARY
// "Rule").
func (e *Evaluator) declareRule(s *ast.RuleDecl, scope *adt.Scope) {
	sctx := &adt.SchemaEvalContext{
		Node:    s,
		Name:    s.Name,
		Pkgpath: scope.Pkgpath,
	}
	if s.Parent != "" {
		sctx.Parent = e.resolveSchemaRef(s.Parent, scope)
	}
	sctx.MRO = buildMRO(sctx)

	frame := &adt.Frame{Pkgpath: scope.Pkgpath, Proxy: adt.RuleProxy, Rule: sctx}
	idx := e.Ctx.Frames.Add(frame)
	sctx.FrameIndex = idx
	e.schemas[s] = sctx

	e.writeName(s.Name, adt.Function{FrameIndex: idx}, scope, s)
}

// resolveSchemaRef looks up a (possibly package-qualified) schema/rule
// name and returns its SchemaEvalContext via the Frame Table, breaking
// cyclic schema references through that indirection (spec.md §9).
func (e *Evaluator) resolveSchemaRef(name string, scope *adt.Scope) *adt.SchemaEvalContext {
	v, ok := scope.LookupLocal(name)
	if !ok {
		v, ok = e.Ctx.Global(scope.Pkgpath, name)
	}
	if !ok {
		return nil
	}
	fn, ok := v.(adt.Function)
	if !ok || fn.IsBuiltin {
		return nil
	}
	frame := e.Ctx.Frames.At(fn.FrameIndex)
	if frame.Schema != nil {
		return frame.Schema
	}
	return frame.Rule
}

// buildMRO linearizes base-then-derived (spec.md §9 "Deep inheritance
// across schemas collapses to context composition").
func buildMRO(sctx *adt.SchemaEvalContext) []*adt.SchemaEvalContext {
	var mro []*adt.SchemaEvalContext
	if sctx.Parent != nil {
		mro = append(mro, sctx.Parent.MRO...)
	}
	for _, m := range sctx.Mixins {
		mro = append(mro, m.MRO...)
	}
	return append(mro, sctx)
}

func schemaBody(node ast.Node) []ast.Stmt {
	switch n := node.(type) {
	case *ast.SchemaDecl:
		return n.Body
	case *ast.RuleDecl:
		return n.Body
	}
	return nil
}

func schemaChecks(node ast.Node) []*ast.CheckExpr {
	switch n := node.(type) {
	case *ast.SchemaDecl:
		return n.Check
	case *ast.RuleDecl:
		return n.Check
	}
	return nil
}

func schemaParams(node ast.Node) []*ast.Param {
	if s, ok := node.(*ast.SchemaDecl); ok {
		return s.Params
	}
	return nil
}

// instantiateSchema implements spec.md §4.5 "Schema expression".
func (e *Evaluator) instantiateSchema(se *ast.SchemaExpr, scope *adt.Scope) adt.Value {
	configDict := e.evalConfigBody(se.Config, scope)

	args := make([]adt.Value, len(se.Args))
	for i, a := range se.Args {
		args[i] = e.evalExpr(a, scope)
	}
	kwargs := map[string]adt.Value{}
	for _, kw := range se.Kwargs {
		kwargs[kw.Name] = e.evalExpr(kw.Value, scope)
	}

	meta := adt.NewConfigMeta(se.Config.Entries)

	nameVal := e.evalExpr(se.Name, scope)
	fn, ok := nameVal.(adt.Function)
	if !ok || fn.IsBuiltin {
		// Fallback: generic union_entry(type, config) (spec.md §4.5).
		return configDict
	}
	frame := e.Ctx.Frames.At(fn.FrameIndex)
	switch {
	case frame.Schema != nil:
		return e.runSchema(frame.Schema, configDict, meta, args, kwargs, se)
	case frame.Rule != nil:
		return e.runSchema(frame.Rule, configDict, meta, args, kwargs, se)
	default:
		return configDict
	}
}

// runSchema walks every level of sctx's MRO, then all check blocks in MRO
// order (spec.md §9), within a snapshot fixing config_value/config_meta
// for this instantiation (spec.md §3 "Snapshot").
func (e *Evaluator) runSchema(sctx *adt.SchemaEvalContext, configDict *adt.Dict, meta *adt.ConfigMeta, args []adt.Value, kwargs map[string]adt.Value, src ast.Node) *adt.Schema {
	runtimeType := sctx.Name
	if e.Ctx.Functions != nil {
		if rt := e.Ctx.Functions.SchemaRuntimeType(sctx.Name, sctx.Pkgpath); rt != "" {
			runtimeType = rt
		}
	}
	schemaValue := adt.NewSchema(src, runtimeType, sctx.Pkgpath, sctx.FrameIndex)
	snapshot := &adt.Snapshot{
		Ctx:         sctx,
		SchemaValue: schemaValue,
		ConfigValue: configDict,
		ConfigMeta:  meta,
		Args:        args,
		Kwargs:      kwargs,
	}

	baseScope := adt.NewScope(nil)
	baseScope.Schema = snapshot

	for _, lvl := range sctx.MRO {
		lvlScope := adt.NewScope(nil)
		lvlScope.Pkgpath = lvl.Pkgpath
		lvlScope.Schema = snapshot
		e.bindFormalArgs(schemaParams(lvl.Node), args, kwargs, lvlScope)
		e.evalStmts(schemaBody(lvl.Node), lvlScope)
	}

	for _, lvl := range sctx.MRO {
		lvlScope := adt.NewScope(nil)
		lvlScope.Pkgpath = lvl.Pkgpath
		lvlScope.Schema = snapshot
		for _, chk := range schemaChecks(lvl.Node) {
			e.evalCheck(chk, lvlScope)
		}
	}

	// Any config key not matched by a declared attribute is still part of
	// the resulting value (open schemas accept extra keys).
	for _, k := range configDict.Keys {
		if !schemaValue.Has(k) {
			schemaValue.SetOp(k, configDict.Values[k], configDict.Op(k), configDict.InsertIndex(k))
		}
	}
	return schemaValue
}

// evalSchemaAttr implements spec.md §4.6, the heart of the schema runtime.
func (e *Evaluator) evalSchemaAttr(s *ast.SchemaAttrStmt, scope *adt.Scope) {
	schemaScope := scope.NearestSchema()
	if schemaScope == nil {
		e.errInternal(s, "schema attribute statement outside a schema context")
		return
	}
	snapshot := schemaScope.Schema
	schemaValue := snapshot.SchemaValue
	configValue := snapshot.ConfigValue
	name := s.Name

	for _, dec := range s.Decorators {
		e.runDecorator(dec, name, true, configValue, snapshot.ConfigMeta, scope)
	}

	schemaValue.UpdateAttrMap(name, s.Type)

	var final adt.Value
	if configValue != nil && configValue.Has(name) {
		userOp := configValue.Op(name)
		userIdx := configValue.InsertIndex(name)
		if userOp == adt.Override && userIdx == nil {
			final = configValue.Values[name]
		} else {
			def := e.evalAttrDefault(s, schemaValue, name, scope)
			e.applyAttrOp(s, schemaValue, name, def)
			if err := adt.DictInsert(e.Ctx, s, &schemaValue.Dict, name, configValue.Values[name], userOp, userIdx); err != nil {
				e.Ctx.AddErr(err)
			}
			v, _ := schemaValue.Get(name)
			final = v
		}
	} else {
		def := e.evalAttrDefault(s, schemaValue, name, scope)
		e.applyAttrOp(s, schemaValue, name, def)
		v, _ := schemaValue.Get(name)
		final = v
	}

	if s.Type != "" && e.Ctx.Types != nil {
		checked, err := e.Ctx.Types.PackAndCheck(e.Ctx, final, []string{s.Type}, true)
		if err == nil {
			final = checked
		} else {
			e.errf(s, errors.TypeMismatch, "%v", err)
		}
	}
	schemaValue.Set(name, final)
	snapshot.MarkResolved(name)
}

// evalAttrDefault evaluates the default/body expression of a schema
// attribute statement, or Undefined if there is none and no prior entry
// (spec.md §4.6 step 6).
func (e *Evaluator) evalAttrDefault(s *ast.SchemaAttrStmt, schemaValue *adt.Schema, name string, scope *adt.Scope) adt.Value {
	if s.Value != nil {
		return e.evalExpr(s.Value, scope)
	}
	if v, ok := schemaValue.Get(name); ok {
		return v
	}
	return adt.Undefined{}
}

// applyAttrOp implements spec.md §4.6's "merge with Override" / `|=` rule
// shared by both the user-supplied and no-user-value branches.
func (e *Evaluator) applyAttrOp(s *ast.SchemaAttrStmt, schemaValue *adt.Schema, name string, def adt.Value) {
	if s.Op == ast.AttrBitOr {
		current, _ := schemaValue.Get(name)
		if current == nil {
			current = adt.Undefined{}
		}
		merged, err := adt.Union(e.Ctx, s, current, def)
		if err != nil {
			e.Ctx.AddErr(err)
			return
		}
		schemaValue.SetOp(name, merged, adt.Override, nil)
		return
	}
	schemaValue.SetOp(name, def, adt.Override, nil)
}

// evalCheck implements spec.md §4.5 "Check expression".
func (e *Evaluator) evalCheck(chk *ast.CheckExpr, scope *adt.Scope) {
	if chk.If != nil {
		cond := e.evalExpr(chk.If, scope)
		if cond == nil || !adt.Truthy(cond) {
			return
		}
	}
	test := e.evalExpr(chk.Test, scope)
	if test == nil || adt.Truthy(test) {
		return
	}
	msg := "check failed"
	if chk.Message != nil {
		if m := e.evalExpr(chk.Message, scope); m != nil {
			if str, ok := m.(adt.String); ok {
				msg = string(str)
			}
		}
	}
	ss := scope.NearestSchema()
	var attr string
	if ss != nil {
		attr = blamedAttr(chk.Test)
	}
	err := errors.Newf(errors.Assertion, chk.Pos(), "%s", msg)
	if attr != "" {
		err = errors.WithPath(err, attr)
	}
	e.Ctx.AddErr(err)
	if ss != nil && e.Ctx.Functions != nil {
		_ = e.Ctx.Functions.SchemaAssert(e.Ctx, false, msg, ss.Schema.ConfigMeta, attr)
	}
}

// blamedAttr finds the left-most identifier in a check's test expression
// to attribute blame via config_meta (spec.md §4.5 "Check expression").
func blamedAttr(expr ast.Expr) string {
	switch x := expr.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.SelectorExpr:
		return blamedAttr(x.X)
	case *ast.BinaryExpr:
		return blamedAttr(x.X)
	case *ast.CompareExpr:
		if len(x.Operands) > 0 {
			return blamedAttr(x.Operands[0])
		}
	case *ast.UnaryExpr:
		return blamedAttr(x.X)
	}
	return ""
}

// findAndRun is the targeted walk of the Lazy/Backtrack Engine (spec.md
// §4.8): it re-enters only the statement that defines name, descending
// into at most one branch of any enclosing `if`.
func (e *Evaluator) findAndRun(stmts []ast.Stmt, name string, scope *adt.Scope, frameIndex int) bool {
	for i, s := range stmts {
		switch st := s.(type) {
		case *ast.SchemaAttrStmt:
			if st.Name == name {
				e.evalSchemaAttr(st, scope)
				return true
			}
		case *ast.IfStmt:
			if containsAttr(st.Body, name) {
				e.Ctx.PushBacktrack(frameIndex, i, adt.OnlyIf)
				e.evalIfTargeted(st, scope, frameIndex, i)
				e.Ctx.PopBacktrack()
				return true
			}
			if containsAttr(st.OrElse, name) {
				e.Ctx.PushBacktrack(frameIndex, i, adt.OnlyOrElse)
				e.evalIfTargeted(st, scope, frameIndex, i)
				e.Ctx.PopBacktrack()
				return true
			}
		}
	}
	return false
}

// containsAttr statically checks whether stmts declare name, without
// executing anything — used to pick the one `if` branch worth re-entering
// (spec.md §4.8 step 2 "requested branch restriction").
func containsAttr(stmts []ast.Stmt, name string) bool {
	for _, s := range stmts {
		switch st := s.(type) {
		case *ast.SchemaAttrStmt:
			if st.Name == name {
				return true
			}
		case *ast.IfStmt:
			if containsAttr(st.Body, name) || containsAttr(st.OrElse, name) {
				return true
			}
		}
	}
	return false
}

// readSchemaAttr implements spec.md §4.2 read rule 3 together with the
// Lazy/Backtrack Engine of §4.8: an already-resolved attribute returns
// directly; an unresolved one triggers a single targeted re-entry, most
// derived level first.
func (e *Evaluator) readSchemaAttr(snapshot *adt.Snapshot, name string, src ast.Node) (adt.Value, bool) {
	if snapshot.IsResolved(name) {
		return snapshot.SchemaValue.Get(name)
	}
	mro := snapshot.Ctx.MRO
	for i := len(mro) - 1; i >= 0; i-- {
		lvl := mro[i]
		scope := adt.NewScope(nil)
		scope.Pkgpath = lvl.Pkgpath
		scope.Schema = snapshot
		if e.findAndRun(schemaBody(lvl.Node), name, scope, lvl.FrameIndex) {
			break
		}
	}
	if snapshot.IsResolved(name) {
		return snapshot.SchemaValue.Get(name)
	}
	return nil, false
}
