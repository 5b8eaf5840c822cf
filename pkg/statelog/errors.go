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

import "errors"

// Per-record failures. Scanners count these and advance to the next ordinal;
// only failing to open the files aborts a scan.
var (
	// ErrTruncatedVarint is returned when a byte source ends before a
	// terminating varint byte is seen.
	ErrTruncatedVarint = errors.New("truncated uvarint")

	// ErrUvarintOverflow is returned when a varint does not fit in 64 bits.
	ErrUvarintOverflow = errors.New("uvarint overflows uint64")

	// ErrShortIndexRead is returned when an index row cannot be read in full,
	// including reads past the end of the index.
	ErrShortIndexRead = errors.New("short index read")

	// ErrTruncatedLength is returned when no record length can be decoded at
	// a data log offset.
	ErrTruncatedLength = errors.New("truncated record length")

	// ErrOversizeRecord is returned when a decoded record length exceeds the
	// configured ceiling.
	ErrOversizeRecord = errors.New("record length exceeds ceiling")

	// ErrShortPayload is returned when a record's payload is shorter than its
	// declared length.
	ErrShortPayload = errors.New("short record payload")

	// ErrHeaderTooShort is returned when a payload ends inside its header.
	ErrHeaderTooShort = errors.New("record header too short")
)
