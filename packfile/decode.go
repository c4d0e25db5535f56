// Copyright 2020 The gg Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package packfile

import (
	"bytes"
	"fmt"
	"io"

	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
	"tinygit.dev/git/object"
)

// Store is the subset of *objstore.Store that Decode needs to resolve
// REF_DELTA bases and persist reconstructed objects.
type Store interface {
	Has(id githash.SHA1) bool
	Read(id githash.SHA1) ([]byte, error)
	Write(raw []byte) (githash.SHA1, error)
}

// Decode reads every object framed in a pack stream, resolves REF_DELTA
// objects against bases present in store or written from the same stream,
// and writes each resulting object to store. It returns the ids of the
// objects it wrote, in stream order, except that a REF_DELTA whose base was
// not yet in store when it was read is resolved after the whole stream has
// been read, and its id comes after the others.
//
// OFS_DELTA and OBJ_TAG entries are outside this module's scope and cause
// Decode to fail with a giterr.Unsupported error. A REF_DELTA whose base is
// neither in store nor anywhere in the stream fails with giterr.MissingBase.
func Decode(r ByteReader, store Store) ([]githash.SHA1, error) {
	pr := NewReader(r)
	var ids []githash.SHA1
	// pending holds deltas that could not be resolved on first pass because
	// their base had not yet been written to the store.
	type pendingDelta struct {
		base githash.SHA1
		data []byte
	}
	var pending []pendingDelta

	for {
		hdr, err := pr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch hdr.Type {
		case Commit, Tree, Blob, Tag:
			typ, err := nonDeltaType(hdr.Type)
			if err != nil {
				return nil, err
			}
			payload, err := io.ReadAll(pr)
			if err != nil {
				return nil, giterr.Wrap(giterr.Io, "packfile: decode", err)
			}
			raw := object.AppendPrefix(nil, typ, int64(len(payload)))
			raw = append(raw, payload...)
			id, err := store.Write(raw)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		case RefDelta:
			delta, err := io.ReadAll(pr)
			if err != nil {
				return nil, giterr.Wrap(giterr.Io, "packfile: decode", err)
			}
			if store.Has(hdr.BaseObject) {
				id, err := resolveDelta(store, hdr.BaseObject, delta)
				if err != nil {
					return nil, err
				}
				ids = append(ids, id)
			} else {
				pending = append(pending, pendingDelta{base: hdr.BaseObject, data: delta})
			}
		case OffsetDelta:
			return nil, giterr.New(giterr.Unsupported, "packfile: decode: OFS_DELTA objects are not supported")
		default:
			return nil, giterr.New(giterr.InvalidPack, fmt.Sprintf("packfile: decode: unknown object type %v", hdr.Type))
		}
	}

	// Deltas may arrive before their base elsewhere in the same stream.
	// Keep making passes over what's left until a pass makes no progress.
	for len(pending) > 0 {
		progressed := false
		var next []pendingDelta
		for _, pd := range pending {
			if !store.Has(pd.base) {
				next = append(next, pd)
				continue
			}
			id, err := resolveDelta(store, pd.base, pd.data)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
			progressed = true
		}
		if !progressed {
			return nil, giterr.New(giterr.MissingBase, "packfile: decode: ref-delta base not found")
		}
		pending = next
	}

	return ids, nil
}

func resolveDelta(store Store, base githash.SHA1, delta []byte) (githash.SHA1, error) {
	baseRaw, err := store.Read(base)
	if err != nil {
		return githash.SHA1{}, giterr.Wrap(giterr.MissingBase, "packfile: resolve ref-delta base", err)
	}
	baseType, baseBody, err := splitPrefix(baseRaw)
	if err != nil {
		return githash.SHA1{}, giterr.Wrap(giterr.InvalidObject, "packfile: resolve ref-delta base", err)
	}
	target, err := ApplyDelta(baseBody, bytes.NewReader(delta))
	if err != nil {
		return githash.SHA1{}, err
	}
	raw := object.AppendPrefix(nil, baseType, int64(len(target)))
	raw = append(raw, target...)
	return store.Write(raw)
}

// splitPrefix separates a loose object's "<type> <size>\x00" header from its
// payload.
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

func nonDeltaType(t ObjectType) (object.Type, error) {
	switch t {
	case Commit:
		return object.TypeCommit, nil
	case Tree:
		return object.TypeTree, nil
	case Blob:
		return object.TypeBlob, nil
	case Tag:
		return "", giterr.New(giterr.Unsupported, "packfile: decode: tag objects are not supported")
	default:
		return "", giterr.New(giterr.InvalidPack, fmt.Sprintf("packfile: decode: unexpected type %v", t))
	}
}
