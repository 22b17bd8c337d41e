// Copyright 2024 The KCL Authors. All rights reserved.
// Use of this source code is governed by an Apache-2.0-style
// license that can be found in the LICENSE file.

// Command evalcore is a thin CLI wrapper around the evaluator core,
// mirroring the root-command-with-subcommands shape of the teacher's
// cmd/cue (github.com/spf13/cobra + github.com/spf13/pflag), but driving
// eval.NewEvaluator and Evaluator.Run over an in-memory demo program
// rather than a file-loading pipeline (spec.md §1 treats parsing/loading
// as out of scope).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "evalcore",
		Short:         "Drive the tree-walking evaluator core",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newEvalCmd())
	return root
}
