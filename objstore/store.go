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

// Package objstore implements a content-addressed, zlib-compressed loose
// object store rooted at a ".git/objects" directory, using the same
// two-level fan-out layout as Git itself.
package objstore

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
)

// A Store reads and writes loose objects rooted at a directory, typically
// "<repo>/.git/objects".
type Store struct {
	root string
}

// New returns a Store rooted at dir. It does not create dir; callers must
// arrange for it to exist (see Init).
func New(dir string) *Store {
	return &Store{root: dir}
}

// Init creates the object store's directory tree if it does not already
// exist.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.root, 0o777); err != nil {
		return giterr.Wrap(giterr.Io, "init object store", err)
	}
	return nil
}

// path returns the on-disk path for the object with the given id, using the
// canonical two-level fan-out layout: the first byte of the hex id names a
// subdirectory, the remaining 38 hex digits name the file within it.
func (s *Store) path(id githash.SHA1) string {
	hexID := id.String()
	return filepath.Join(s.root, hexID[:2], hexID[2:])
}

// Has reports whether an object with the given id is present in the store.
func (s *Store) Has(id githash.SHA1) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

// Write stores raw (a header followed by its payload, per object.Prefix) under
// its own SHA-1 hash and returns that hash. Write is idempotent: writing the
// same bytes under the same id again succeeds and leaves the store unchanged.
func (s *Store) Write(raw []byte) (githash.SHA1, error) {
	id := sha1.Sum(raw)
	dst := s.path(githash.SHA1(id))
	if _, err := os.Stat(dst); err == nil {
		// Already present; content-addressing guarantees the bytes match.
		return id, nil
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o777); err != nil {
		return githash.SHA1{}, giterr.Wrap(giterr.Io, "write object", err)
	}
	tmp, err := os.CreateTemp(s.root, "obj")
	if err != nil {
		return githash.SHA1{}, giterr.Wrap(giterr.Io, "write object", err)
	}
	tmpName := tmp.Name()
	removeTmp := true
	defer func() {
		if removeTmp {
			os.Remove(tmpName)
		}
	}()

	zw := zlib.NewWriter(tmp)
	if _, err := zw.Write(raw); err != nil {
		tmp.Close()
		return githash.SHA1{}, giterr.Wrap(giterr.Io, "write object", err)
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return githash.SHA1{}, giterr.Wrap(giterr.Io, "write object", err)
	}
	if err := tmp.Close(); err != nil {
		return githash.SHA1{}, giterr.Wrap(giterr.Io, "write object", err)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return githash.SHA1{}, giterr.Wrap(giterr.Io, "write object", err)
	}
	removeTmp = false
	return id, nil
}

// Read reads and decompresses the complete object (header and payload) for
// the given id.
func (s *Store) Read(id githash.SHA1) ([]byte, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		return nil, giterr.Wrap(giterr.Io, fmt.Sprintf("read object %v", id), err)
	}
	defer f.Close()
	zr, err := zlib.NewReader(f)
	if err != nil {
		return nil, giterr.Wrap(giterr.Io, fmt.Sprintf("read object %v", id), err)
	}
	defer zr.Close()
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, zr); err != nil {
		return nil, giterr.Wrap(giterr.Io, fmt.Sprintf("read object %v", id), err)
	}
	return buf.Bytes(), nil
}
