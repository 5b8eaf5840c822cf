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

// Index reads the fixed-width offset table addressing records in the data
// log. The file is a bare concatenation of 8-byte little-endian offsets with
// no header, so the reader is position math over an io.ReaderAt and is safe
// for concurrent use.
type Index struct {
	r    io.ReaderAt
	size int64
}

// NewIndex wraps an open index of the given byte size.
func NewIndex(r io.ReaderAt, size int64) *Index {
	return &Index{r: r, size: size}
}

// EntryCount returns the number of complete rows. A trailing partial row is
// tolerated and ignored.
func (ix *Index) EntryCount() uint64 {
	return uint64(ix.size) / IndexEntrySize
}

// Size returns the index size in bytes.
func (ix *Index) Size() int64 {
	return ix.size
}

// TrailingBytes returns how many bytes a trailing partial row occupies, zero
// for a well-formed index.
func (ix *Index) TrailingBytes() int64 {
	return ix.size % IndexEntrySize
}

// ReadOffset returns the data log byte offset recorded for ordinal. Ordinals
// at or past EntryCount fail with ErrShortIndexRead, as does a row truncated
// by a partial write.
func (ix *Index) ReadOffset(ordinal uint64) (uint64, error) {
	var row [IndexEntrySize]byte
	n, err := ix.r.ReadAt(row[:], int64(ordinal)*IndexEntrySize)
	if n < IndexEntrySize {
		return 0, fmt.Errorf("%w: ordinal %d: %v", ErrShortIndexRead, ordinal, err)
	}
	return binary.LittleEndian.Uint64(row[:]), nil
}
