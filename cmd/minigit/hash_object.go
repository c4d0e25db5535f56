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
	"tinygit.dev/git/object"
)

func newHashObjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash-object FILE",
		Short: "compute the object id of a file, optionally adding it to the store",
		Args:  cobra.ExactArgs(1),
	}

	write := cmd.Flags().BoolP("w", "w", false, "write the object into the object store")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return hashObjectCmd(cmd.OutOrStdout(), args[0], *write)
	}

	return cmd
}

func hashObjectCmd(out io.Writer, path string, write bool) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return giterr.Wrap(giterr.Io, fmt.Sprintf("hash-object %s", path), err)
	}
	raw := object.AppendPrefix(nil, object.TypeBlob, int64(len(content)))
	raw = append(raw, content...)

	if !write {
		id := object.Blob(content).SHA1()
		fmt.Fprintln(out, id)
		return nil
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	id, err := store.Write(raw)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, id)
	return nil
}
