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

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"tinygit.dev/git/giterr"
	"tinygit.dev/git/workdir"
)

func newWriteTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "write-tree",
		Short: "create a tree object from the current working directory",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return writeTreeCmd(cmd.OutOrStdout())
	}

	return cmd
}

func writeTreeCmd(out io.Writer) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return giterr.Wrap(giterr.Io, "write-tree", err)
	}
	id, err := workdir.HashTree(store, cwd)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, id)
	return nil
}
