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
)

// DecodeHeader parses the leading header fields of a record payload:
// operation kind (uvarint), reverted flag (one byte, nonzero is true),
// encoder kind (uvarint). Kind-specific fields after the header are left
// untouched.
func DecodeHeader(payload []byte) (RecordHeader, error) {
	r := newPayloadReader(payload)
	op, err := r.uvarint()
	if err != nil {
		return RecordHeader{}, fmt.Errorf("%w: operation kind: %v", ErrHeaderTooShort, err)
	}
	flag, err := r.read(1)
	if err != nil {
		return RecordHeader{}, fmt.Errorf("%w: reverted flag: %v", ErrHeaderTooShort, err)
	}
	enc, err := r.uvarint()
	if err != nil {
		return RecordHeader{}, fmt.Errorf("%w: encoder kind: %v", ErrHeaderTooShort, err)
	}
	return RecordHeader{
		OperationKind: op,
		IsReverted:    flag[0] != 0,
		EncoderKind:   enc,
	}, nil
}

// Heuristic controls where ExtractBlockHeight looks for a block height and
// which values it accepts. The values are tunables, not schema: capture nodes
// do not write a height field at a fixed position, but observed block
// payloads carry it in one of a few trailing windows.
type Heuristic struct {
	// Windows lists candidate distances in bytes from the payload end. Each
	// candidate is the 8-byte little-endian word at len(payload)-distance.
	Windows []int
	// MaxHeight is the exclusive upper plausibility bound. Zero candidates
	// are always rejected.
	MaxHeight uint64
	// MinPayload is the smallest payload the search runs against.
	MinPayload int
}

// DefaultHeuristic returns the window set and bound tuned against current
// capture node output.
func DefaultHeuristic() Heuristic {
	return Heuristic{
		Windows:    []int{8, 16, 24, 32, 40, 48},
		MaxHeight:  100_000_000,
		MinPayload: 24,
	}
}

// ExtractBlockHeight probes the trailing windows of a block-kind payload, in
// order, and returns the first candidate inside the plausibility bound. The
// second return is false when no window fits or no candidate passes. This is
// a positional heuristic and the result must be surfaced as unverified.
func ExtractBlockHeight(payload []byte, h Heuristic) (uint64, bool) {
	if len(payload) < h.MinPayload {
		return 0, false
	}
	for _, distance := range h.Windows {
		if distance < 8 || len(payload) < distance {
			continue
		}
		start := len(payload) - distance
		v := binary.LittleEndian.Uint64(payload[start : start+8])
		if v > 0 && v < h.MaxHeight {
			return v, true
		}
	}
	return 0, false
}
