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
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/cobra"
	"tinygit.dev/git/clone"
)

func newCloneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone URL [DIRECTORY]",
		Short: "clone a repository over smart-HTTP",
		Args:  cobra.RangeArgs(1, 2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		dst := ""
		if len(args) == 2 {
			dst = args[1]
		}
		return cloneCmd(cmd.OutOrStdout(), args[0], dst)
	}

	return cmd
}

func cloneCmd(out io.Writer, remoteURL, dst string) error {
	if dst == "" {
		dst = defaultCloneDir(remoteURL)
	}
	fmt.Fprintf(out, "Cloning into '%s'...\n", dst)
	result, err := clone.Clone(context.Background(), remoteURL, dst, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "HEAD is now at %s\n", result.Head.Short())
	return nil
}

// defaultCloneDir derives the directory Git would use when none is given
// explicitly: the URL's last path component with a trailing ".git" removed.
func defaultCloneDir(remoteURL string) string {
	name := path.Base(remoteURL)
	name = strings.TrimSuffix(name, ".git")
	if name == "" || name == "." || name == "/" {
		return "repository"
	}
	return name
}
