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
	"os"
	"path/filepath"

	"tinygit.dev/git/giterr"
	"tinygit.dev/git/objstore"
)

// findGitDir walks up from the current working directory looking for a
// ".git" directory, the way Git itself resolves a repository root.
func findGitDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", giterr.Wrap(giterr.Io, "find repository", err)
	}
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && info.IsDir() {
			return gitDir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", giterr.New(giterr.Io, "find repository: not a git repository (or any parent up to root)")
		}
		dir = parent
	}
}

// openStore locates the enclosing repository's object store.
func openStore() (*objstore.Store, error) {
	gitDir, err := findGitDir()
	if err != nil {
		return nil, err
	}
	return objstore.New(filepath.Join(gitDir, "objects")), nil
}
