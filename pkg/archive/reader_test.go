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

package archive

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/novatechflow/statescan/pkg/statelog"
)

// countingClient records the ranges fetched through it.
type countingClient struct {
	*MemoryClient
	ranges []ByteRange
}

func (c *countingClient) DownloadRange(ctx context.Context, key string, rng *ByteRange) ([]byte, error) {
	if rng != nil {
		c.ranges = append(c.ranges, *rng)
	}
	return c.MemoryClient.DownloadRange(ctx, key, rng)
}

func TestObjectReaderAtPaging(t *testing.T) {
	body := make([]byte, 100)
	for i := range body {
		body[i] = byte(i)
	}
	mem := NewMemoryClient()
	mem.PutObject("pair/data", body)
	client := &countingClient{MemoryClient: mem}

	r, err := NewObjectReaderAt(context.Background(), client, "pair/data", 16, nil)
	if err != nil {
		t.Fatalf("NewObjectReaderAt: %v", err)
	}
	if r.Size() != 100 {
		t.Fatalf("Size = %d, want 100", r.Size())
	}

	buf := make([]byte, 30)
	n, err := r.ReadAt(buf, 10)
	if err != nil || n != 30 {
		t.Fatalf("ReadAt = (%d, %v)", n, err)
	}
	if !bytes.Equal(buf, body[10:40]) {
		t.Fatalf("bytes mismatch at page boundary")
	}
	if len(client.ranges) != 3 {
		t.Fatalf("expected 3 page fetches, got %d: %+v", len(client.ranges), client.ranges)
	}
	if client.ranges[0] != (ByteRange{Start: 0, End: 15}) {
		t.Fatalf("first page range: %+v", client.ranges[0])
	}

	// Same region again must be served from cache.
	fetched := len(client.ranges)
	if _, err := r.ReadAt(buf, 10); err != nil {
		t.Fatalf("cached ReadAt: %v", err)
	}
	if len(client.ranges) != fetched {
		t.Fatalf("cache miss on repeat read: %d fetches", len(client.ranges))
	}
}

func TestObjectReaderAtEOF(t *testing.T) {
	mem := NewMemoryClient()
	mem.PutObject("pair/data", []byte("0123456789"))

	r, err := NewObjectReaderAt(context.Background(), mem, "pair/data", 4, nil)
	if err != nil {
		t.Fatalf("NewObjectReaderAt: %v", err)
	}

	buf := make([]byte, 8)
	n, err := r.ReadAt(buf, 6)
	if err != io.EOF || n != 4 {
		t.Fatalf("ReadAt past end = (%d, %v), want (4, EOF)", n, err)
	}
	if string(buf[:n]) != "6789" {
		t.Fatalf("tail bytes = %q", buf[:n])
	}
	if n, err := r.ReadAt(buf, 10); err != io.EOF || n != 0 {
		t.Fatalf("ReadAt at end = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestObjectReaderAtMissingObject(t *testing.T) {
	_, err := NewObjectReaderAt(context.Background(), NewMemoryClient(), "absent", 0, nil)
	if !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestPageCacheEviction(t *testing.T) {
	cache := NewPageCache(32)
	page := bytes.Repeat([]byte{0xaa}, 16)

	cache.Set("obj", 0, page)
	cache.Set("obj", 1, page)
	cache.Set("obj", 2, page)

	if cache.Len() != 2 {
		t.Fatalf("Len = %d, want 2", cache.Len())
	}
	if _, ok := cache.Get("obj", 0); ok {
		t.Fatalf("oldest page not evicted")
	}
	if _, ok := cache.Get("obj", 2); !ok {
		t.Fatalf("newest page missing")
	}
}

func TestOpenLogScansArchivedPair(t *testing.T) {
	payloads := [][]byte{
		[]byte("alpha"),
		bytes.Repeat([]byte{0x42}, 64),
		[]byte("omega"),
	}
	var data, index []byte
	for _, p := range payloads {
		var row [8]byte
		binary.LittleEndian.PutUint64(row[:], uint64(len(data)))
		index = append(index, row[:]...)
		data = statelog.AppendUvarint(data, uint64(len(p)))
		data = append(data, p...)
	}

	mem := NewMemoryClient()
	mem.PutObject("node-0/"+statelog.IndexFileName, index)
	mem.PutObject("node-0/"+statelog.DataFileName, data)

	// A tiny page size forces records to straddle page boundaries.
	log, err := OpenLog(context.Background(), mem, "node-0/"+statelog.IndexFileName, "node-0/"+statelog.DataFileName, LogOptions{PageBytes: 8})
	if err != nil {
		t.Fatalf("OpenLog: %v", err)
	}
	if got := log.Index.EntryCount(); got != uint64(len(payloads)) {
		t.Fatalf("EntryCount = %d, want %d", got, len(payloads))
	}
	for i, want := range payloads {
		offset, err := log.Index.ReadOffset(uint64(i))
		if err != nil {
			t.Fatalf("ReadOffset(%d): %v", i, err)
		}
		payload, err := log.Data.ReadRecord(offset)
		if err != nil {
			t.Fatalf("ReadRecord(%d): %v", i, err)
		}
		if !bytes.Equal(payload, want) {
			t.Fatalf("payload %d mismatch: %q", i, payload)
		}
	}
}
