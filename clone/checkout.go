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

package clone

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
	"tinygit.dev/git/object"
	"tinygit.dev/git/objstore"
)

// checkoutEntry is one unit of work on the explicit walk stack: materialize
// the tree identified by id at dir.
type checkoutEntry struct {
	id  githash.SHA1
	dir string
}

// checkout writes the tree rooted at treeID into root, creating
// directories and files as needed. It walks with an explicit stack rather
// than recursion, since a hostile or merely very deep tree should not blow
// the Go call stack.
func checkout(store *objstore.Store, treeID githash.SHA1, root string) error {
	stack := []checkoutEntry{{id: treeID, dir: root}}
	for len(stack) > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		raw, err := store.Read(entry.id)
		if err != nil {
			return giterr.Wrap(giterr.Io, fmt.Sprintf("read tree %v", entry.id), err)
		}
		typ, body, err := stripPrefix(raw)
		if err != nil {
			return giterr.Wrap(giterr.InvalidObject, fmt.Sprintf("read tree %v", entry.id), err)
		}
		if typ != object.TypeTree {
			return giterr.New(giterr.InvalidObject, fmt.Sprintf("checkout: %v is a %s, not a tree", entry.id, typ))
		}
		tree, err := object.ParseTree(body)
		if err != nil {
			return giterr.Wrap(giterr.InvalidObject, fmt.Sprintf("parse tree %v", entry.id), err)
		}
		if err := os.MkdirAll(entry.dir, 0o777); err != nil {
			return giterr.Wrap(giterr.Io, "checkout", err)
		}

		for _, ent := range tree {
			path := filepath.Join(entry.dir, ent.Name)
			switch {
			case ent.Mode.IsDir():
				stack = append(stack, checkoutEntry{id: ent.ObjectID, dir: path})
			case ent.Mode == object.ModeGitlink:
				fmt.Fprintf(os.Stderr, "warning: skipping submodule %s\n", path)
			case ent.Mode == object.ModeSymlink:
				if err := checkoutSymlink(store, ent, path); err != nil {
					return err
				}
			default:
				if err := checkoutBlob(store, ent, path); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkoutBlob(store *objstore.Store, ent *object.TreeEntry, path string) error {
	raw, err := store.Read(ent.ObjectID)
	if err != nil {
		return giterr.Wrap(giterr.Io, fmt.Sprintf("read blob %v", ent.ObjectID), err)
	}
	typ, body, err := stripPrefix(raw)
	if err != nil || typ != object.TypeBlob {
		return giterr.New(giterr.InvalidObject, fmt.Sprintf("checkout %s: %v is not a blob", path, ent.ObjectID))
	}
	mode, ok := ent.Mode.FileMode()
	if !ok {
		return giterr.New(giterr.InvalidObject, fmt.Sprintf("checkout %s: unsupported mode %v", path, ent.Mode))
	}
	if err := os.WriteFile(path, body, mode.Perm()|0o600); err != nil {
		return giterr.Wrap(giterr.Io, fmt.Sprintf("checkout %s", path), err)
	}
	return nil
}

func checkoutSymlink(store *objstore.Store, ent *object.TreeEntry, path string) error {
	raw, err := store.Read(ent.ObjectID)
	if err != nil {
		return giterr.Wrap(giterr.Io, fmt.Sprintf("read symlink %v", ent.ObjectID), err)
	}
	_, body, err := stripPrefix(raw)
	if err != nil {
		return giterr.Wrap(giterr.InvalidObject, fmt.Sprintf("checkout %s", path), err)
	}
	target := string(body)
	if filepath.IsAbs(target) || target == "" {
		fmt.Fprintf(os.Stderr, "warning: skipping symlink %s: unsafe target %q\n", path, target)
		return nil
	}
	if err := os.Symlink(target, path); err != nil {
		return giterr.Wrap(giterr.Io, fmt.Sprintf("checkout %s", path), err)
	}
	return nil
}

// stripPrefix separates a loose object's "<type> <size>\x00" header from
// its payload.
func stripPrefix(raw []byte) (object.Type, []byte, error) {
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
