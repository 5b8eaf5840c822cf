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
	"context"
	"fmt"
	"io"

	"github.com/novatechflow/statescan/pkg/statelog"
)

// DefaultPageBytes is the ranged-GET granularity for archived reads.
const DefaultPageBytes = 4 << 20

// DefaultCacheBytes bounds the shared page cache when none is supplied.
const DefaultCacheBytes = 64 << 20

// ObjectReaderAt adapts ranged object reads to io.ReaderAt so archived file
// pairs can be scanned in place without downloading them first. Pages are
// fetched on demand and kept in an LRU cache; a sequential scan touches each
// page once. The context given at construction governs every read issued
// through the reader, which is how cancellation reaches an interface that
// carries no context of its own.
type ObjectReaderAt struct {
	ctx       context.Context
	client    ObjectClient
	key       string
	size      int64
	pageBytes int64
	cache     *PageCache
}

// NewObjectReaderAt stats the object and returns a paged reader over it.
// Non-positive pageBytes selects DefaultPageBytes; a nil cache gets a
// private one of DefaultCacheBytes.
func NewObjectReaderAt(ctx context.Context, client ObjectClient, key string, pageBytes int64, cache *PageCache) (*ObjectReaderAt, error) {
	if pageBytes <= 0 {
		pageBytes = DefaultPageBytes
	}
	if cache == nil {
		cache = NewPageCache(DefaultCacheBytes)
	}
	size, err := client.StatObject(ctx, key)
	if err != nil {
		return nil, err
	}
	return &ObjectReaderAt{
		ctx:       ctx,
		client:    client,
		key:       key,
		size:      size,
		pageBytes: pageBytes,
		cache:     cache,
	}, nil
}

// Size returns the object size observed at construction.
func (r *ObjectReaderAt) Size() int64 {
	return r.size
}

// ReadAt implements io.ReaderAt over cached pages. Reads crossing the end of
// the object return io.EOF with the bytes that were available, per the
// io.ReaderAt contract.
func (r *ObjectReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("archive: negative read offset %d", off)
	}
	n := 0
	for n < len(p) {
		pos := off + int64(n)
		if pos >= r.size {
			return n, io.EOF
		}
		page := pos / r.pageBytes
		data, err := r.page(page)
		if err != nil {
			return n, err
		}
		start := pos - page*r.pageBytes
		if start >= int64(len(data)) {
			// Object shrank under us; treat like end of file.
			return n, io.EOF
		}
		n += copy(p[n:], data[start:])
	}
	return n, nil
}

func (r *ObjectReaderAt) page(idx int64) ([]byte, error) {
	if data, ok := r.cache.Get(r.key, idx); ok {
		return data, nil
	}
	start := idx * r.pageBytes
	end := start + r.pageBytes - 1
	if end >= r.size {
		end = r.size - 1
	}
	data, err := r.client.DownloadRange(r.ctx, r.key, &ByteRange{Start: start, End: end})
	if err != nil {
		return nil, fmt.Errorf("fetch page %d of %s: %w", idx, r.key, err)
	}
	r.cache.Set(r.key, idx, data)
	return data, nil
}

// LogOptions tunes OpenLog.
type LogOptions struct {
	PageBytes      int64
	CacheBytes     int
	MaxRecordBytes int64
}

// OpenLog binds an archived index/data pair as a scannable log. Both readers
// share one page cache.
func OpenLog(ctx context.Context, client ObjectClient, indexKey, dataKey string, opts LogOptions) (*statelog.Log, error) {
	cacheBytes := opts.CacheBytes
	if cacheBytes <= 0 {
		cacheBytes = DefaultCacheBytes
	}
	cache := NewPageCache(cacheBytes)

	indexReader, err := NewObjectReaderAt(ctx, client, indexKey, opts.PageBytes, cache)
	if err != nil {
		return nil, fmt.Errorf("open archived index: %w", err)
	}
	dataReader, err := NewObjectReaderAt(ctx, client, dataKey, opts.PageBytes, cache)
	if err != nil {
		return nil, fmt.Errorf("open archived data: %w", err)
	}
	return statelog.NewLog(
		statelog.NewIndex(indexReader, indexReader.Size()),
		statelog.NewDataLog(dataReader, dataReader.Size(), opts.MaxRecordBytes),
	), nil
}
