// Copyright 2021 The gg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//		 https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Command minigit is a small, read-mostly Git client: it can clone a
// repository over smart-HTTP and inspect and build the objects of a
// working tree.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"tinygit.dev/git/giterr"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "minigit:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a giterr.Kind to a process exit status. Unclassified
// errors (plain Cobra usage errors, for instance) exit 1.
func exitCode(err error) int {
	switch {
	case giterr.Is(err, giterr.NoHead):
		return 2
	case giterr.Is(err, giterr.Unsupported):
		return 3
	case giterr.Is(err, giterr.InvalidPack), giterr.Is(err, giterr.InvalidDelta),
		giterr.Is(err, giterr.InvalidObject), giterr.Is(err, giterr.InvalidHeader),
		giterr.Is(err, giterr.CorruptPack), giterr.Is(err, giterr.MissingBase):
		return 4
	case giterr.Is(err, giterr.Http):
		return 5
	default:
		return 1
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "minigit",
		Short:         "a small Git-compatible client",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newCloneCmd())
	cmd.AddCommand(newCatFileCmd())
	cmd.AddCommand(newHashObjectCmd())
	cmd.AddCommand(newLsTreeCmd())
	cmd.AddCommand(newWriteTreeCmd())
	cmd.AddCommand(newCommitTreeCmd())

	return cmd
}
