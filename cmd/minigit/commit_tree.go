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
	"strings"
	"time"

	"github.com/spf13/cobra"
	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
	"tinygit.dev/git/object"
)

func newCommitTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit-tree TREE",
		Short: "create a commit object from a tree",
		Args:  cobra.ExactArgs(1),
	}

	parent := cmd.Flags().StringP("p", "p", "", "parent commit")
	message := cmd.Flags().StringP("m", "m", "", "commit message")
	author := cmd.Flags().String("author", "minigit <minigit@localhost>", "author identity")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if *message == "" {
			return fmt.Errorf("commit-tree: -m is required")
		}
		return commitTreeCmd(cmd.OutOrStdout(), args[0], *parent, *author, *message)
	}

	return cmd
}

func commitTreeCmd(out io.Writer, treeName, parentName, author, message string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	treeID, err := githash.ParseSHA1(treeName)
	if err != nil {
		return giterr.Wrap(giterr.InvalidHeader, fmt.Sprintf("commit-tree %s", treeName), err)
	}
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}

	commit := &object.Commit{
		Tree:       treeID,
		Author:     object.User(author),
		AuthorTime: time.Now(),
		Committer:  object.User(author),
		CommitTime: time.Now(),
		Message:    message,
	}
	if parentName != "" {
		parentID, err := githash.ParseSHA1(parentName)
		if err != nil {
			return giterr.Wrap(giterr.InvalidHeader, fmt.Sprintf("commit-tree %s", parentName), err)
		}
		commit.Parents = append(commit.Parents, parentID)
	}

	raw, err := commit.MarshalBinary()
	if err != nil {
		return giterr.Wrap(giterr.InvalidObject, "commit-tree", err)
	}
	full := object.AppendPrefix(nil, object.TypeCommit, int64(len(raw)))
	full = append(full, raw...)
	id, err := store.Write(full)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, id)
	return nil
}
