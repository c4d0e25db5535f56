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
	"encoding/binary"
	"io"

	"tinygit.dev/git/giterr"
)

// maxDeltaObjectSize bounds how large a reconstructed delta target may be,
// guarding against a maliciously declared target size from a hostile peer.
const maxDeltaObjectSize = 1 << 31

// ApplyDelta reconstructs a target object from a base object and a stream of
// delta instructions, per
// https://git-scm.com/docs/pack-format#_deltified_representation.
//
// The delta stream starts with two varints: the size the instructions
// expect of base (checked against len(base)) and the size of the
// reconstructed target. What follows is a sequence of copy and insert
// instructions; ApplyDelta runs them against base and returns the
// accumulated result.
func ApplyDelta(base []byte, delta ByteReader) ([]byte, error) {
	baseSize, targetSize, err := readDeltaHeader(delta)
	if err != nil {
		return nil, giterr.Wrap(giterr.InvalidDelta, "apply delta: read header", err)
	}
	if baseSize != uint64(len(base)) {
		return nil, giterr.New(giterr.InvalidDelta, "apply delta: base size mismatch")
	}
	if targetSize >= maxDeltaObjectSize {
		return nil, giterr.New(giterr.InvalidDelta, "apply delta: target size too large")
	}
	target := make([]byte, 0, int(targetSize))
	for {
		instruction, err := delta.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, giterr.Wrap(giterr.InvalidDelta, "apply delta", err)
		}
		switch {
		case instruction&0x80 != 0:
			offset, size, err := readCopyInstruction(instruction, delta)
			if err != nil {
				return nil, giterr.Wrap(giterr.InvalidDelta, "apply delta: copy instruction", err)
			}
			end := uint64(offset) + uint64(size)
			if end > uint64(len(base)) {
				return nil, giterr.New(giterr.InvalidDelta, "apply delta: copy instruction out of range")
			}
			target = append(target, base[offset:end]...)
		case instruction != 0:
			// Insert instruction: the low 7 bits are the number of literal
			// bytes that follow in the delta stream.
			n := int(instruction)
			start := len(target)
			target = append(target, make([]byte, n)...)
			if _, err := io.ReadFull(delta, target[start:]); err != nil {
				return nil, giterr.Wrap(giterr.InvalidDelta, "apply delta: insert instruction", err)
			}
		default:
			return nil, giterr.New(giterr.InvalidDelta, "apply delta: reserved instruction 0")
		}
	}
	if uint64(len(target)) != targetSize {
		return nil, giterr.New(giterr.InvalidDelta, "apply delta: reconstructed size mismatch")
	}
	return target, nil
}

func readDeltaHeader(r io.ByteReader) (baseSize, targetSize uint64, err error) {
	baseSize, err = binary.ReadUvarint(r)
	if err != nil {
		return
	}
	targetSize, err = binary.ReadUvarint(r)
	if err != nil {
		return
	}
	return
}

// readCopyInstruction parses an instruction to copy from the base object:
// https://git-scm.com/docs/pack-format#_instruction_to_copy_from_base_object.
func readCopyInstruction(instruction byte, r io.ByteReader) (offset, size uint32, _ error) {
	for i, shift := 0, 0; i < 4; i, shift = i+1, shift+8 {
		if instruction&(1<<i) == 0 {
			continue
		}
		b, err := r.ReadByte()
		if err == io.EOF {
			return 0, 0, io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, 0, err
		}
		offset |= uint32(b) << shift
	}
	for i, shift := 4, 0; i < 7; i, shift = i+1, shift+8 {
		if instruction&(1<<i) == 0 {
			continue
		}
		b, err := r.ReadByte()
		if err == io.EOF {
			return 0, 0, io.ErrUnexpectedEOF
		}
		if err != nil {
			return 0, 0, err
		}
		size |= uint32(b) << shift
	}
	if size == 0 {
		size = 0x10000
	}
	return
}
