// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/johngmyers/kcl/builtins"
	"github.com/johngmyers/kcl/internal/core/adt"
	"github.com/johngmyers/kcl/internal/core/eval"
)

// evalOptions holds the eval subcommand's flags, set up through a
// *pflag.FlagSet the way the teacher's cmd/cue/cmd/flags.go shares common
// flag wiring across subcommands.
type evalOptions struct {
	pkgpath string
	format  string
	debug   bool
}

func addEvalFlags(fs *pflag.FlagSet, o *evalOptions) {
	fs.StringVarP(&o.pkgpath, "pkgpath", "p", "main", "entry package path to evaluate")
	fs.StringVarP(&o.format, "format", "f", "text", "output format: text, json, or yaml")
	fs.BoolVar(&o.debug, "debug", false, "print evaluator trace output to stderr")
}

func newEvalCmd() *cobra.Command {
	o := &evalOptions{}
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate the bundled demo program and print its scalar outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(cmd, o)
		},
	}
	addEvalFlags(cmd.Flags(), o)
	return cmd
}

func runEval(cmd *cobra.Command, o *evalOptions) error {
	reg := builtins.NewRegistry()
	prog := demoProgram()

	e := eval.NewEvaluator(prog, adt.Config{Functions: reg, Types: reg, Decorators: reg})
	if o.debug {
		e.Ctx.Debug = true
		e.Ctx.Logw = cmd.ErrOrStderr()
	}
	builtins.Bootstrap(e.Ctx, o.pkgpath)

	values, errs := e.Run(o.pkgpath)
	for _, v := range values {
		out, err := formatValue(v, o.format)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
	}
	if err := errs.Err(); err != nil {
		return err
	}
	return nil
}

// formatValue renders one evaluated value for the CLI's own human-facing
// output; this is a separate, smaller concern from the language's own
// #json/#yaml formatted-value spec (spec.md §4.5), which runs inside the
// evaluator itself.
func formatValue(v adt.Value, format string) (string, error) {
	switch format {
	case "", "text":
		return fmt.Sprint(toGo(v)), nil
	case "json":
		b, err := json.MarshalIndent(toGo(v), "", "  ")
		if err != nil {
			return "", err
		}
		return string(b), nil
	case "yaml":
		b, err := yaml.Marshal(toGo(v))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

func toGo(v adt.Value) interface{} {
	switch x := v.(type) {
	case adt.Undefined:
		return nil
	case adt.None:
		return nil
	case adt.Bool:
		return bool(x)
	case adt.Int:
		return x.Int64()
	case adt.Float:
		return x.Float64()
	case adt.Unit:
		return x.Normalized
	case adt.String:
		return string(x)
	case *adt.List:
		out := make([]interface{}, len(x.Elts))
		for i, el := range x.Elts {
			out[i] = toGo(el)
		}
		return out
	case *adt.Dict:
		out := make(map[string]interface{}, len(x.Keys))
		for _, k := range x.Keys {
			out[k] = toGo(x.Values[k])
		}
		return out
	case *adt.Schema:
		out := make(map[string]interface{}, len(x.Keys))
		for _, k := range x.Keys {
			out[k] = toGo(x.Values[k])
		}
		return out
	}
	return nil
}
