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
	"bufio"
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"io"
	"io/ioutil"
	"testing"

	"github.com/google/go-cmp/cmp"
	"tinygit.dev/git/githash"
	"tinygit.dev/git/giterr"
)

// helloDelta is the set of instructions to transform "Hello!" into "Hello, delta\n".
var helloDelta = []byte{
	0x06,       // original size
	0x0d,       // output size
	0b10010000, // copy from base, offset 0, one size byte
	0x05,       // size1
	0x08,       // add new data (length 8)
	',', ' ', 'd', 'e', 'l', 't', 'a', '\n',
}

// buildPack assembles a pack v2 stream in memory out of raw object entries.
// The trailing 20-byte checksum is left all-zero; Reader never verifies it.
func buildPack(t *testing.T, entries ...packEntry) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	buf.WriteString("PACK")
	var hdr [8]byte
	hdr[3] = 2
	hdr[7] = byte(len(entries))
	buf.Write(hdr[:])
	for _, e := range entries {
		writeObjectFrame(t, buf, e)
	}
	buf.Write(make([]byte, githash.SHA1Size))
	return buf.Bytes()
}

type packEntry struct {
	typ        ObjectType
	payload    []byte
	baseOffset int64
	baseObject githash.SHA1
}

func writeObjectFrame(t *testing.T, buf *bytes.Buffer, e packEntry) {
	t.Helper()
	n := uint64(len(e.payload))
	first := byte(e.typ)<<4&0x70 | byte(n&0xf)
	rest := n >> 4
	if rest > 0 {
		first |= 0x80
	}
	buf.WriteByte(first)
	if rest > 0 {
		var varint [binary.MaxVarintLen64]byte
		k := binary.PutUvarint(varint[:], rest)
		buf.Write(varint[:k])
	}
	switch e.typ {
	case RefDelta:
		buf.Write(e.baseObject[:])
	case OffsetDelta:
		panic("buildPack: OFS_DELTA entries not supported by this helper")
	}
	zw := zlib.NewWriter(buf)
	zw.Write(e.payload)
	zw.Close()
}

type unpackedObject struct {
	*Header
	Data []byte
}

func readAll(br ByteReader) ([]unpackedObject, error) {
	r := NewReader(br)
	var got []unpackedObject
	for {
		hdr, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return got, err
		}
		data, err := ioutil.ReadAll(r)
		got = append(got, unpackedObject{
			Header: hdr,
			Data:   data,
		})
		if err != nil {
			return got, err
		}
	}
}

func TestReader(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		got, err := readAll(bufio.NewReader(bytes.NewReader(buildPack(t))))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 0 {
			t.Errorf("got %d objects; want 0", len(got))
		}
	})

	t.Run("BlobTreeCommit", func(t *testing.T) {
		data := buildPack(t,
			packEntry{typ: Blob, payload: []byte("Hello, World!\n")},
			packEntry{typ: Tree, payload: []byte("100644 hello.txt\x00" +
				"\x8a\xb6\x86\xea\xfe\xb1\xf4\x47\x02\x73" +
				"\x8c\x8b\x0f\x24\xf2\x56\x7c\x36\xda\x6d")},
			packEntry{typ: Commit, payload: []byte("tree bc225ea23f53f06c0c5bd3ba2be85c2120d68417\n" +
				"author Octocat <octocat@example.com> 1608391559 -0800\n" +
				"committer Octocat <octocat@example.com> 1608391559 -0800\n" +
				"\n" +
				"First commit\n")},
		)
		got, err := readAll(bufio.NewReader(bytes.NewReader(data)))
		if err != nil {
			t.Fatal(err)
		}
		want := []ObjectType{Blob, Tree, Commit}
		if len(got) != len(want) {
			t.Fatalf("got %d objects; want %d", len(got), len(want))
		}
		for i, o := range got {
			if o.Type != want[i] {
				t.Errorf("object %d: Type = %v; want %v", i, o.Type, want[i])
			}
		}
		if string(got[0].Data) != "Hello, World!\n" {
			t.Errorf("object 0 data = %q", got[0].Data)
		}
	})

	t.Run("RefDelta", func(t *testing.T) {
		baseID := githash.SHA1{
			0x05, 0xa6, 0x82, 0xbd, 0x4e, 0x7c, 0x71, 0x17, 0xc5, 0x85,
			0x6b, 0xe7, 0x14, 0x2f, 0xea, 0x67, 0x46, 0x54, 0x15, 0xe3,
		}
		data := buildPack(t,
			packEntry{typ: Blob, payload: []byte("Hello!")},
			packEntry{typ: RefDelta, payload: helloDelta, baseObject: baseID},
		)
		got, err := readAll(bufio.NewReader(bytes.NewReader(data)))
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(baseID, got[1].BaseObject); diff != "" {
			t.Errorf("BaseObject (-want +got):\n%s", diff)
		}
		if got[1].Type != RefDelta {
			t.Errorf("Type = %v; want RefDelta", got[1].Type)
		}
	})

	t.Run("EmptyBlob", func(t *testing.T) {
		data := buildPack(t,
			packEntry{typ: Blob, payload: []byte{}},
			packEntry{typ: Blob, payload: []byte("Hello, World!\n")},
		)
		got, err := readAll(bufio.NewReader(bytes.NewReader(data)))
		if err != nil {
			t.Fatal(err)
		}
		if len(got[0].Data) != 0 {
			t.Errorf("object 0 data = %q; want empty", got[0].Data)
		}
		if string(got[1].Data) != "Hello, World!\n" {
			t.Errorf("object 1 data = %q", got[1].Data)
		}
	})

	t.Run("BadMagic", func(t *testing.T) {
		data := buildPack(t, packEntry{typ: Blob, payload: []byte("x")})
		data = append([]byte(nil), data...)
		data[0] = 'P'
		data[1] = 'U'
		data[2] = 'C'
		data[3] = 'K'
		_, err := readAll(bufio.NewReader(bytes.NewReader(data)))
		if !giterr.Is(err, giterr.InvalidPack) {
			t.Errorf("readAll(...) error = %v; want giterr.InvalidPack", err)
		}
	})

	t.Run("Truncated", func(t *testing.T) {
		data := buildPack(t, packEntry{typ: Blob, payload: []byte("Hello, World!\n")})
		data = data[:len(data)-5]
		if _, err := readAll(bufio.NewReader(bytes.NewReader(data))); err == nil {
			t.Error("readAll(...) = <nil>; want error")
		}
	})
}

var offsetTests = []struct {
	data   []byte
	offset int64
}{
	{[]byte{0x00}, -0},
	{[]byte{0x4a}, -74},
	{[]byte{0x80, 0x00}, -128},
	{[]byte{0x81, 0x00}, -256},
	{[]byte{0x92, 0x29}, -2473},
	{[]byte{0x86, 0x40}, -960},
	{[]byte{0x80, 0xe5, 0x2d}, -29485},
}

func TestReadOffset(t *testing.T) {
	for _, test := range offsetTests {
		got, err := readOffset(bytes.NewReader(test.data))
		if got != test.offset || err != nil {
			t.Errorf("readOffset(bytes.NewReader(%#v)) = %d, %v; want %d, <nil>", test.data, got, err, test.offset)
		}
	}
}
