// Copyright 2020 The gg Authors
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

package object

import (
	"crypto/sha1"

	"tinygit.dev/git/githash"
)

// A Blob is the raw content of a file. Blobs have no internal structure;
// the bytes are the object's payload verbatim.
type Blob []byte

// MarshalBinary returns the blob's content. It never returns an error.
func (b Blob) MarshalBinary() ([]byte, error) {
	return []byte(b), nil
}

// UnmarshalBinary replaces b's content with src. It never returns an error.
func (b *Blob) UnmarshalBinary(src []byte) error {
	*b = append((*b)[:0], src...)
	return nil
}

// SHA1 computes the SHA-1 hash of the blob object.
func (b Blob) SHA1() githash.SHA1 {
	h := sha1.New()
	h.Write(AppendPrefix(nil, TypeBlob, int64(len(b))))
	h.Write(b)
	var arr githash.SHA1
	h.Sum(arr[:0])
	return arr
}
