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

	"github.com/spf13/cobra"
	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
	"tinygit.dev/git/object"
)

func newLsTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls-tree TREE",
		Short: "list the contents of a tree object",
		Args:  cobra.ExactArgs(1),
	}

	nameOnly := cmd.Flags().Bool("name-only", false, "show only filenames")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return lsTreeCmd(cmd.OutOrStdout(), args[0], *nameOnly)
	}

	return cmd
}

func lsTreeCmd(out io.Writer, objectName string, nameOnly bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	id, err := githash.ParseSHA1(objectName)
	if err != nil {
		return giterr.Wrap(giterr.InvalidHeader, fmt.Sprintf("ls-tree %s", objectName), err)
	}
	raw, err := store.Read(id)
	if err != nil {
		return err
	}
	typ, body, err := splitPrefix(raw)
	if err != nil || typ != object.TypeTree {
		return giterr.New(giterr.InvalidObject, fmt.Sprintf("ls-tree: %s is not a tree", objectName))
	}
	tree, err := object.ParseTree(body)
	if err != nil {
		return giterr.Wrap(giterr.InvalidObject, fmt.Sprintf("ls-tree %s", objectName), err)
	}
	for _, ent := range tree {
		if nameOnly {
			fmt.Fprintln(out, ent.Name)
			continue
		}
		fmt.Fprintf(out, "%06o %s %v\t%s\n", ent.Mode, treeEntryType(ent.Mode), ent.ObjectID, ent.Name)
	}
	return nil
}
