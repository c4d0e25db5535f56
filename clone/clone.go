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

// Package clone drives a full clone against a smart-HTTP upload-pack
// remote: ref discovery, pack retrieval, decoding into a loose object
// store, and checkout of HEAD into a working tree.
package clone

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
	"tinygit.dev/git/internal/giturl"
	"tinygit.dev/git/object"
	"tinygit.dev/git/objstore"
	"tinygit.dev/git/packfile"
	"tinygit.dev/git/uploadpack"
)

// Options holds optional arguments for Clone.
type Options struct {
	HTTPClient *http.Client
	UserAgent  string
}

// Result describes the outcome of a successful clone.
type Result struct {
	// Head is the object ID that the repository's HEAD points to.
	Head githash.SHA1
	// Branch is always "refs/heads/master": Clone names the local branch
	// master regardless of what the remote called it.
	Branch githash.Ref
	// ObjectCount is the number of objects written to the object store.
	ObjectCount int
}

// Clone fetches remoteURL's default branch into dst, which must not already
// exist, creating a ".git/objects" loose object store and a checked-out
// working tree. If Clone returns an error, dst is removed.
func Clone(ctx context.Context, remoteURL, dst string, opts *Options) (_ *Result, err error) {
	if _, statErr := os.Stat(dst); statErr == nil {
		return nil, giterr.New(giterr.Io, fmt.Sprintf("clone %s: destination %s already exists", remoteURL, dst))
	}
	defer func() {
		if err != nil {
			os.RemoveAll(dst)
		}
	}()

	u, err := giturl.Parse(remoteURL)
	if err != nil {
		return nil, giterr.Wrap(giterr.Io, fmt.Sprintf("clone %s", remoteURL), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, giterr.New(giterr.Unsupported, fmt.Sprintf("clone %s: only http(s) remotes are supported", remoteURL))
	}

	c := &uploadpack.Client{Base: u}
	if opts != nil {
		c.HTTPClient = opts.HTTPClient
		c.UserAgent = opts.UserAgent
	}

	refs, err := c.ListRefs(ctx)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", remoteURL, err)
	}
	head, err := resolveHead(refs)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", remoteURL, err)
	}

	gitDir := filepath.Join(dst, ".git")
	if err := initGitDir(gitDir); err != nil {
		return nil, fmt.Errorf("clone %s: %w", remoteURL, err)
	}
	objectsDir := filepath.Join(gitDir, "objects")
	store := objstore.New(objectsDir)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("clone %s: %w", remoteURL, err)
	}

	rc, err := c.Fetch(ctx, head)
	if err != nil {
		return nil, fmt.Errorf("clone %s: %w", remoteURL, err)
	}
	defer rc.Close()
	ids, err := packfile.Decode(bufio.NewReader(rc), store)
	if err != nil {
		return nil, fmt.Errorf("clone %s: decode pack: %w", remoteURL, err)
	}

	if err := writeRefs(gitDir, head); err != nil {
		return nil, fmt.Errorf("clone %s: %w", remoteURL, err)
	}

	commitRaw, err := store.Read(head)
	if err != nil {
		return nil, fmt.Errorf("clone %s: read HEAD commit: %w", remoteURL, err)
	}
	commitType, commitBody, err := stripPrefix(commitRaw)
	if err != nil || commitType != object.TypeCommit {
		return nil, fmt.Errorf("clone %s: HEAD %v is not a commit", remoteURL, head)
	}
	commit, err := object.ParseCommit(commitBody)
	if err != nil {
		return nil, fmt.Errorf("clone %s: parse HEAD commit: %w", remoteURL, err)
	}
	if err := checkout(store, commit.Tree, dst); err != nil {
		return nil, fmt.Errorf("clone %s: checkout: %w", remoteURL, err)
	}

	return &Result{Head: head, Branch: masterRef, ObjectCount: len(ids)}, nil
}

// masterRef is the only local branch Clone ever creates. The remote's
// advertised branch name (main, trunk, whatever) is discarded; only the
// commit it points to is kept.
const masterRef = githash.Ref("refs/heads/master")

// resolveHead picks the commit the clone's sole local branch should point
// to: the ref named "HEAD", or, failing that, the first refs/heads/ branch
// advertised.
func resolveHead(refs []uploadpack.Ref) (githash.SHA1, error) {
	if len(refs) == 0 {
		return githash.SHA1{}, giterr.New(giterr.NoHead, "remote has no refs")
	}
	for _, r := range refs {
		if r.Name == githash.Head {
			return r.ID, nil
		}
	}
	for _, r := range refs {
		if r.Name.IsBranch() {
			return r.ID, nil
		}
	}
	return githash.SHA1{}, giterr.New(giterr.NoHead, "remote advertises no branches")
}

// initGitDir lays out the skeleton a freshly cloned ".git" directory must
// have before refs and objects are written into it.
func initGitDir(gitDir string) error {
	if err := os.MkdirAll(filepath.Join(gitDir, "refs", "heads"), 0o777); err != nil {
		return giterr.Wrap(giterr.Io, "init .git", err)
	}
	if err := os.WriteFile(filepath.Join(gitDir, "config"), nil, 0o666); err != nil {
		return giterr.Wrap(giterr.Io, "init .git", err)
	}
	if err := os.WriteFile(filepath.Join(gitDir, "description"), []byte("empty repository"), 0o666); err != nil {
		return giterr.Wrap(giterr.Io, "init .git", err)
	}
	return nil
}

func writeRefs(gitDir string, head githash.SHA1) error {
	headContent := head.String() + "\n"
	if err := os.WriteFile(filepath.Join(gitDir, string(masterRef)), []byte(headContent), 0o666); err != nil {
		return giterr.Wrap(giterr.Io, "write refs", err)
	}
	if err := os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: "+string(masterRef)+"\n"), 0o666); err != nil {
		return giterr.Wrap(giterr.Io, "write HEAD", err)
	}
	return nil
}
