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
	"path/filepath"

	"github.com/spf13/cobra"
	"tinygit.dev/git/giterr"
	"tinygit.dev/git/objstore"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "create an empty repository",
		Args:  cobra.MaximumNArgs(1),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return initCmd(cmd.OutOrStdout(), dir)
	}

	return cmd
}

func initCmd(out io.Writer, dir string) error {
	gitDir := filepath.Join(dir, ".git")
	store := objstore.New(filepath.Join(gitDir, "objects"))
	if err := store.Init(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Join(gitDir, "refs", "heads"), 0o777); err != nil {
		return giterr.Wrap(giterr.Io, "init", err)
	}
	configPath := filepath.Join(gitDir, "config")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, nil, 0o666); err != nil {
			return giterr.Wrap(giterr.Io, "init", err)
		}
	}
	descriptionPath := filepath.Join(gitDir, "description")
	if _, err := os.Stat(descriptionPath); os.IsNotExist(err) {
		if err := os.WriteFile(descriptionPath, []byte("empty repository"), 0o666); err != nil {
			return giterr.Wrap(giterr.Io, "init", err)
		}
	}
	headPath := filepath.Join(gitDir, "HEAD")
	if _, err := os.Stat(headPath); os.IsNotExist(err) {
		if err := os.WriteFile(headPath, []byte("ref: refs/heads/master\n"), 0o666); err != nil {
			return giterr.Wrap(giterr.Io, "init", err)
		}
	}
	fmt.Fprintf(out, "Initialized empty Git repository in %s\n", gitDir)
	return nil
}
