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
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func buildIndex(offsets ...uint64) []byte {
	buf := make([]byte, 0, len(offsets)*IndexEntrySize)
	for _, off := range offsets {
		var row [IndexEntrySize]byte
		binary.LittleEndian.PutUint64(row[:], off)
		buf = append(buf, row[:]...)
	}
	return buf
}

func TestIndexReadOffset(t *testing.T) {
	raw := buildIndex(0, 17, 4096)
	ix := NewIndex(bytes.NewReader(raw), int64(len(raw)))

	if got := ix.EntryCount(); got != 3 {
		t.Fatalf("EntryCount = %d, want 3", got)
	}
	want := []uint64{0, 17, 4096}
	for ordinal, expected := range want {
		got, err := ix.ReadOffset(uint64(ordinal))
		if err != nil {
			t.Fatalf("ReadOffset(%d): %v", ordinal, err)
		}
		if got != expected {
			t.Fatalf("ReadOffset(%d) = %d, want %d", ordinal, got, expected)
		}
	}
}

func TestIndexReadOffsetPastEnd(t *testing.T) {
	raw := buildIndex(0, 17)
	ix := NewIndex(bytes.NewReader(raw), int64(len(raw)))

	if _, err := ix.ReadOffset(2); !errors.Is(err, ErrShortIndexRead) {
		t.Fatalf("ReadOffset past end: %v", err)
	}
}

func TestIndexPartialTrailingRow(t *testing.T) {
	raw := append(buildIndex(0, 17), 0xaa, 0xbb, 0xcc)
	ix := NewIndex(bytes.NewReader(raw), int64(len(raw)))

	if got := ix.EntryCount(); got != 2 {
		t.Fatalf("EntryCount = %d, want 2", got)
	}
	if got := ix.TrailingBytes(); got != 3 {
		t.Fatalf("TrailingBytes = %d, want 3", got)
	}
	if _, err := ix.ReadOffset(2); !errors.Is(err, ErrShortIndexRead) {
		t.Fatalf("ReadOffset on partial row: %v", err)
	}
}
