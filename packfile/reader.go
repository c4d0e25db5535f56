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

// Package packfile decodes the Git pack v2 wire format: the object framing,
// per-object zlib payloads, and REF_DELTA reconstruction against objects
// held in an object store.
package packfile

import (
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/ioutil"

	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
)

// ByteReader is a combination of io.Reader and io.ByteReader.
type ByteReader interface {
	io.Reader
	io.ByteReader
}

// Reader reads the object framing of a pack stream, one object at a time. It
// does not resolve deltas against their base objects; see Decode for that.
type Reader struct {
	r          byteReaderCounter
	nobjs      uint32
	dataReader zlibReader
}

// NewReader returns a Reader that reads from the given stream.
func NewReader(r ByteReader) *Reader {
	return &Reader{r: byteReaderCounter{r: r}}
}

func (r *Reader) init() error {
	if r.r.n > 0 {
		return nil
	}
	var buf [12]byte
	if _, err := io.ReadFull(&r.r, buf[:]); errors.Is(err, io.EOF) {
		return giterr.Wrap(giterr.Io, "packfile: read header", io.ErrUnexpectedEOF)
	} else if err != nil {
		return giterr.Wrap(giterr.Io, "packfile: read header", err)
	}
	if buf[0] != 'P' || buf[1] != 'A' || buf[2] != 'C' || buf[3] != 'K' {
		return giterr.New(giterr.InvalidPack, "packfile: read header: incorrect signature")
	}
	version := uint32(buf[4])<<24 | uint32(buf[5])<<16 | uint32(buf[6])<<8 | uint32(buf[7])
	if version != 2 {
		return giterr.New(giterr.InvalidPack, fmt.Sprintf("packfile: read header: version is %d (only supports 2)", version))
	}
	r.nobjs = uint32(buf[8])<<24 | uint32(buf[9])<<16 | uint32(buf[10])<<8 | uint32(buf[11])
	return nil
}

// Next advances to the next object in the packfile. The Header.Size
// determines how many bytes can be read for the next object. Any remaining
// data in the current object is automatically discarded.
//
// io.EOF is returned at the end of the input.
func (r *Reader) Next() (*Header, error) {
	if err := r.init(); err != nil {
		return nil, err
	}
	if r.dataReader != nil {
		if _, err := io.Copy(ioutil.Discard, r.dataReader); err != nil {
			return nil, giterr.Wrap(giterr.Io, "packfile: advance to next object", err)
		}
		r.dataReader.Close()
	}
	if r.nobjs == 0 {
		// TODO(someday): verify the trailing SHA-1 checksum against the bytes read.
		if _, err := io.CopyN(ioutil.Discard, &r.r, githash.SHA1Size); err != nil {
			return nil, giterr.Wrap(giterr.Io, "packfile: read trailing checksum", err)
		}
		return nil, io.EOF
	}
	hdr := &Header{Offset: r.r.n}
	var err error
	hdr.Type, hdr.Size, err = readLengthType(&r.r)
	if err != nil {
		return nil, err
	}
	switch hdr.Type {
	case OffsetDelta:
		off, err := readOffset(&r.r)
		if err != nil {
			return nil, err
		}
		hdr.BaseOffset = hdr.Offset + off
	case RefDelta:
		if _, err := io.ReadFull(&r.r, hdr.BaseObject[:]); err != nil {
			return nil, giterr.Wrap(giterr.Io, "packfile: read ref-delta base id", err)
		}
	}
	if r.dataReader == nil {
		dr, err := zlib.NewReader(&r.r)
		if err != nil {
			return nil, giterr.Wrap(giterr.Io, "packfile: open object stream", err)
		}
		r.dataReader = dr.(zlibReader)
	} else {
		if err := r.dataReader.Reset(&r.r, nil); err != nil {
			return nil, giterr.Wrap(giterr.Io, "packfile: open object stream", err)
		}
	}
	r.nobjs--
	return hdr, nil
}

// Read reads from the current object in the packfile. It returns (0, io.EOF)
// when it reaches the end of that object, until Next is called to advance to
// the next object.
func (r *Reader) Read(p []byte) (int, error) {
	if r.dataReader == nil {
		return 0, fmt.Errorf("packfile: Read() called before Next()")
	}
	n, err := r.dataReader.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = giterr.Wrap(giterr.Io, "packfile: read object payload", err)
	}
	return n, err
}

func readLengthType(br io.ByteReader) (ObjectType, int64, error) {
	first, err := br.ReadByte()
	if err != nil {
		return 0, 0, giterr.Wrap(giterr.Io, "packfile: read object length+type", err)
	}
	typ := ObjectType(first >> 4 & 7)
	if typ == 0 || typ == 5 {
		return 0, 0, giterr.New(giterr.InvalidPack, fmt.Sprintf("packfile: read object length+type: invalid type %d", int(typ)))
	}
	n := int64(first & 0xf)
	if first&0x80 != 0 {
		nn, err := binary.ReadUvarint(br)
		if err != nil {
			return typ, 0, giterr.Wrap(giterr.Io, "packfile: read object length+type", err)
		}
		if nn >= 1<<(63-4) {
			return typ, 0, giterr.New(giterr.InvalidPack, "packfile: read object length+type: too large")
		}
		n |= int64(nn << 4)
	}
	return typ, n, nil
}

// readOffset parses the negative-offset encoding used by OFS_DELTA entries:
// https://git-scm.com/docs/pack-format.
//
// n bytes with MSB set in all but the last one. The offset is then the
// number constructed by concatenating the lower 7 bits of each byte, and
// for n >= 2 adding 2^7 + 2^14 + ... + 2^(7*(n-1)) to the result.
func readOffset(br io.ByteReader) (int64, error) {
	var bits int64
	var accum int64
	for i := 0; i < 8; i++ {
		b, err := br.ReadByte()
		if err != nil {
			return 0, giterr.Wrap(giterr.Io, "packfile: read offset", err)
		}
		bits <<= 7
		bits |= int64(b & 0x7f)
		if b&0x80 == 0 {
			return -(bits + accum), nil
		}
		accum += 1 << ((i + 1) * 7)
	}
	return 0, giterr.New(giterr.InvalidPack, "packfile: read offset: too large")
}

// A Header holds a single object header in a packfile.
type Header struct {
	// Offset is the location in the packfile this object starts at.
	Offset int64

	Type ObjectType

	// Size is the uncompressed size of the object in bytes.
	Size int64

	// BaseOffset is the Offset of a previous Header for an OffsetDelta type object.
	BaseOffset int64
	// BaseObject is the hash of an object for a RefDelta type object.
	BaseObject githash.SHA1
}

// An ObjectType holds the type of an object inside a packfile.
type ObjectType int8

// Object types.
const (
	Commit ObjectType = 1
	Tree   ObjectType = 2
	Blob   ObjectType = 3
	Tag    ObjectType = 4

	OffsetDelta ObjectType = 6
	RefDelta    ObjectType = 7
)

// String returns the Git object type constant name like "OBJ_COMMIT".
func (t ObjectType) String() string {
	switch t {
	case Commit:
		return "OBJ_COMMIT"
	case Tree:
		return "OBJ_TREE"
	case Blob:
		return "OBJ_BLOB"
	case Tag:
		return "OBJ_TAG"
	case OffsetDelta:
		return "OBJ_OFS_DELTA"
	case RefDelta:
		return "OBJ_REF_DELTA"
	default:
		return fmt.Sprintf("ObjectType(%d)", int8(t))
	}
}

type byteReaderCounter struct {
	r ByteReader
	n int64
}

func (brc *byteReaderCounter) Read(p []byte) (int, error) {
	n, err := brc.r.Read(p)
	brc.n += int64(n)
	return n, err
}

func (brc *byteReaderCounter) ReadByte() (byte, error) {
	b, err := brc.r.ReadByte()
	if err != nil {
		return 0, err
	}
	brc.n++
	return b, err
}

type zlibReader interface {
	io.Reader
	io.Closer
	zlib.Resetter
}
