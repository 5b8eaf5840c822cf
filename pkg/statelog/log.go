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
	"os"
	"path/filepath"
)

// DataLog reads length-prefixed records at explicit byte offsets. All reads
// are positioned, so one DataLog may serve any number of goroutines.
type DataLog struct {
	r              io.ReaderAt
	size           int64
	maxRecordBytes int64
}

// NewDataLog wraps an open data log of the given byte size. A non-positive
// maxRecordBytes selects DefaultMaxRecordBytes.
func NewDataLog(r io.ReaderAt, size int64, maxRecordBytes int64) *DataLog {
	if maxRecordBytes <= 0 {
		maxRecordBytes = DefaultMaxRecordBytes
	}
	return &DataLog{r: r, size: size, maxRecordBytes: maxRecordBytes}
}

// Size returns the data log size in bytes.
func (dl *DataLog) Size() int64 {
	return dl.size
}

// ReadRecord returns the payload of the record starting at offset. Failures
// are per-record: ErrTruncatedLength when no length varint can be decoded at
// offset, ErrOversizeRecord when the declared length exceeds the ceiling, and
// ErrShortPayload when the log ends inside the payload.
func (dl *DataLog) ReadRecord(offset uint64) ([]byte, error) {
	if offset >= uint64(dl.size) {
		return nil, fmt.Errorf("%w: offset %d past data size %d", ErrTruncatedLength, offset, dl.size)
	}
	probe := make([]byte, binary.MaxVarintLen64)
	if avail := uint64(dl.size) - offset; avail < uint64(len(probe)) {
		probe = probe[:avail]
	}
	if n, err := dl.r.ReadAt(probe, int64(offset)); n < len(probe) {
		return nil, fmt.Errorf("%w: offset %d: %v", ErrTruncatedLength, offset, err)
	}
	length, prefixLen, err := Uvarint(probe)
	if err != nil {
		return nil, fmt.Errorf("%w: offset %d: %v", ErrTruncatedLength, offset, err)
	}
	if length > uint64(dl.maxRecordBytes) {
		return nil, fmt.Errorf("%w: %d bytes at offset %d, ceiling %d", ErrOversizeRecord, length, offset, dl.maxRecordBytes)
	}
	payload := make([]byte, length)
	if n, err := dl.r.ReadAt(payload, int64(offset)+int64(prefixLen)); uint64(n) < length {
		return nil, fmt.Errorf("%w: offset %d declared %d read %d: %v", ErrShortPayload, offset, length, n, err)
	}
	return payload, nil
}

// Log binds an index/data file pair for scanning.
type Log struct {
	Index *Index
	Data  *DataLog

	closers []io.Closer
}

// Open resolves the canonical state-changes file pair inside dir.
func Open(dir string, maxRecordBytes int64) (*Log, error) {
	return OpenFiles(filepath.Join(dir, IndexFileName), filepath.Join(dir, DataFileName), maxRecordBytes)
}

// OpenFiles opens an explicit index/data pair read-only. Open failures are
// the only fatal errors in this package.
func OpenFiles(indexPath, dataPath string, maxRecordBytes int64) (*Log, error) {
	indexFile, err := os.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	indexInfo, err := indexFile.Stat()
	if err != nil {
		indexFile.Close()
		return nil, fmt.Errorf("stat index: %w", err)
	}
	dataFile, err := os.Open(dataPath)
	if err != nil {
		indexFile.Close()
		return nil, fmt.Errorf("open data: %w", err)
	}
	dataInfo, err := dataFile.Stat()
	if err != nil {
		indexFile.Close()
		dataFile.Close()
		return nil, fmt.Errorf("stat data: %w", err)
	}
	log := NewLog(NewIndex(indexFile, indexInfo.Size()), NewDataLog(dataFile, dataInfo.Size(), maxRecordBytes))
	log.closers = []io.Closer{indexFile, dataFile}
	return log, nil
}

// NewLog binds already-open readers, local files or object storage alike.
// Close is a no-op for logs built this way; the caller owns the readers.
func NewLog(index *Index, data *DataLog) *Log {
	return &Log{Index: index, Data: data}
}

// Close releases file handles held by OpenFiles.
func (l *Log) Close() error {
	var firstErr error
	for _, c := range l.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.closers = nil
	return firstErr
}
