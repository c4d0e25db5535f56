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
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
	"tinygit.dev/git/object"
)

func newCatFileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat-file -p OBJECT",
		Short: "print the content of a repository object",
		Args:  cobra.ExactArgs(1),
	}

	prettyPrint := cmd.Flags().BoolP("p", "p", false, "pretty-print the object's content")
	typeOnly := cmd.Flags().BoolP("t", "t", false, "show the object's type")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if !*prettyPrint && !*typeOnly {
			return fmt.Errorf("cat-file: one of -p or -t is required")
		}
		return catFileCmd(cmd.OutOrStdout(), args[0], *typeOnly)
	}

	return cmd
}

func catFileCmd(out io.Writer, objectName string, typeOnly bool) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	id, err := githash.ParseSHA1(objectName)
	if err != nil {
		return giterr.Wrap(giterr.InvalidHeader, fmt.Sprintf("cat-file %s", objectName), err)
	}
	raw, err := store.Read(id)
	if err != nil {
		return err
	}
	typ, body, err := splitPrefix(raw)
	if err != nil {
		return giterr.Wrap(giterr.InvalidObject, fmt.Sprintf("cat-file %s", objectName), err)
	}
	if typeOnly {
		fmt.Fprintln(out, typ)
		return nil
	}
	switch typ {
	case object.TypeTree:
		tree, err := object.ParseTree(body)
		if err != nil {
			return giterr.Wrap(giterr.InvalidObject, fmt.Sprintf("cat-file %s", objectName), err)
		}
		for _, ent := range tree {
			fmt.Fprintf(out, "%06o %s %v\t%s\n", ent.Mode, treeEntryType(ent.Mode), ent.ObjectID, ent.Name)
		}
	case object.TypeCommit:
		commit, err := object.ParseCommit(body)
		if err != nil {
			return giterr.Wrap(giterr.InvalidObject, fmt.Sprintf("cat-file %s", objectName), err)
		}
		fmt.Fprintf(out, "tree %v\n", commit.Tree)
		for _, p := range commit.Parents {
			fmt.Fprintf(out, "parent %v\n", p)
		}
		fmt.Fprintf(out, "author %s %d\n", commit.Author, commit.AuthorTime.Unix())
		fmt.Fprintf(out, "committer %s %d\n", commit.Committer, commit.CommitTime.Unix())
		fmt.Fprintln(out)
		fmt.Fprint(out, commit.Message)
	default:
		out.Write(body)
	}
	return nil
}

func treeEntryType(mode object.Mode) object.Type {
	switch {
	case mode.IsDir():
		return object.TypeTree
	case mode == object.ModeGitlink:
		return object.TypeCommit
	default:
		return object.TypeBlob
	}
}

func splitPrefix(raw []byte) (object.Type, []byte, error) {
	i := bytes.IndexByte(raw, 0)
	if i == -1 {
		return "", nil, fmt.Errorf("missing NUL terminator in object header")
	}
	var p object.Prefix
	if err := p.UnmarshalBinary(raw[:i+1]); err != nil {
		return "", nil, err
	}
	return p.Type, raw[i+1:], nil
}
