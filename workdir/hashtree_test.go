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

package workdir

import (
	"os"
	"path/filepath"
	"testing"

	"tinygit.dev/git/object"
	"tinygit.dev/git/objstore"
)

func TestHashTree(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "sub"), 0o777); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "run.sh"), []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, ".git", "objects"), 0o777); err != nil {
		t.Fatal(err)
	}

	store := objstore.New(t.TempDir())
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	treeID, err := HashTree(store, root)
	if err != nil {
		t.Fatal(err)
	}

	raw, err := store.Read(treeID)
	if err != nil {
		t.Fatal(err)
	}
	i := indexNUL(raw)
	tree, err := object.ParseTree(raw[i+1:])
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 2 {
		t.Fatalf("len(tree) = %d; want 2", len(tree))
	}
	if tree[0].Name != "hello.txt" || tree[0].Mode != object.ModePlain {
		t.Errorf("tree[0] = %+v", tree[0])
	}
	if tree[1].Name != "sub" || !tree[1].Mode.IsDir() {
		t.Errorf("tree[1] = %+v", tree[1])
	}

	subRaw, err := store.Read(tree[1].ObjectID)
	if err != nil {
		t.Fatal(err)
	}
	subTree, err := object.ParseTree(subRaw[indexNUL(subRaw)+1:])
	if err != nil {
		t.Fatal(err)
	}
	if len(subTree) != 1 || subTree[0].Name != "run.sh" || subTree[0].Mode != object.ModeExecutable {
		t.Errorf("subTree = %+v", subTree)
	}
}

func indexNUL(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}
