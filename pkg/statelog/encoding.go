// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statelog

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadUvarint decodes an unsigned base-128 varint from br and reports how
// many bytes were consumed. The codec itself enforces no bound beyond the
// natural 64-bit overflow at ten bytes; callers reject implausible values.
func ReadUvarint(br io.ByteReader) (uint64, int, error) {
	var value uint64
	var shift uint
	for i := 0; i < binary.MaxVarintLen64; i++ {
		b, err := br.ReadByte()
		if err != nil {
			return 0, i, ErrTruncatedVarint
		}
		if b < 0x80 {
			if i == binary.MaxVarintLen64-1 && b > 1 {
				return 0, i + 1, ErrUvarintOverflow
			}
			return value | uint64(b)<<shift, i + 1, nil
		}
		value |= uint64(b&0x7f) << shift
		shift += 7
	}
	return 0, binary.MaxVarintLen64, ErrUvarintOverflow
}

// Uvarint decodes an unsigned varint from the front of buf.
func Uvarint(buf []byte) (uint64, int, error) {
	value, n := binary.Uvarint(buf)
	if n == 0 {
		return 0, 0, ErrTruncatedVarint
	}
	if n < 0 {
		return 0, -n, ErrUvarintOverflow
	}
	return value, n, nil
}

// AppendUvarint appends the varint encoding of v to dst.
func AppendUvarint(dst []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(dst, tmp[:n]...)
}

type payloadReader struct {
	buf []byte
	pos int
}

func newPayloadReader(b []byte) *payloadReader {
	return &payloadReader{buf: b}
}

func (r *payloadReader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *payloadReader) read(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, fmt.Errorf("insufficient bytes: need %d have %d", n, r.remaining())
	}
	start := r.pos
	r.pos += n
	return r.buf[start:r.pos], nil
}

func (r *payloadReader) uvarint() (uint64, error) {
	value, n, err := Uvarint(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return value, nil
}
