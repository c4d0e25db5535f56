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

// Package workdir hashes a directory on disk into the Git objects that
// would represent it, writing them to a loose object store along the way.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"

	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
	"tinygit.dev/git/object"
	"tinygit.dev/git/objstore"
)

// HashTree walks dir (skipping every entry named ".git", at any depth), writing a blob
// object for every file it finds and a tree object for every directory,
// and returns the id of the tree representing dir itself.
//
// Entries within each directory are hashed in the canonical order Git
// trees require: lexicographic, with directories compared as if their
// name had a trailing slash.
func HashTree(store *objstore.Store, dir string) (githash.SHA1, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return githash.SHA1{}, giterr.Wrap(giterr.Io, fmt.Sprintf("hash tree %s", dir), err)
	}

	var tree object.Tree
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		info, err := e.Info()
		if err != nil {
			return githash.SHA1{}, giterr.Wrap(giterr.Io, fmt.Sprintf("hash tree %s", path), err)
		}
		switch {
		case e.IsDir():
			id, err := HashTree(store, path)
			if err != nil {
				return githash.SHA1{}, err
			}
			tree = append(tree, &object.TreeEntry{Name: e.Name(), Mode: object.ModeDir, ObjectID: id})
		case info.Mode()&os.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return githash.SHA1{}, giterr.Wrap(giterr.Io, fmt.Sprintf("hash tree %s", path), err)
			}
			id, err := HashBlob(store, []byte(target))
			if err != nil {
				return githash.SHA1{}, err
			}
			tree = append(tree, &object.TreeEntry{Name: e.Name(), Mode: object.ModeSymlink, ObjectID: id})
		default:
			data, err := os.ReadFile(path)
			if err != nil {
				return githash.SHA1{}, giterr.Wrap(giterr.Io, fmt.Sprintf("hash tree %s", path), err)
			}
			mode := object.ModePlain
			if info.Mode()&0o111 != 0 {
				mode = object.ModeExecutable
			}
			id, err := HashBlob(store, data)
			if err != nil {
				return githash.SHA1{}, err
			}
			tree = append(tree, &object.TreeEntry{Name: e.Name(), Mode: mode, ObjectID: id})
		}
	}
	if err := tree.Sort(); err != nil {
		return githash.SHA1{}, giterr.Wrap(giterr.InvalidObject, fmt.Sprintf("hash tree %s", dir), err)
	}
	raw, err := tree.MarshalBinary()
	if err != nil {
		return githash.SHA1{}, giterr.Wrap(giterr.InvalidObject, fmt.Sprintf("hash tree %s", dir), err)
	}
	full := object.AppendPrefix(nil, object.TypeTree, int64(len(raw)))
	full = append(full, raw...)
	return store.Write(full)
}

// HashBlob stores content as a blob object and returns its id.
func HashBlob(store *objstore.Store, content []byte) (githash.SHA1, error) {
	raw := object.AppendPrefix(nil, object.TypeBlob, int64(len(content)))
	raw = append(raw, content...)
	return store.Write(raw)
}
