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
	"errors"
	"testing"
)

// buildHeader encodes the common record header followed by tail bytes.
func buildHeader(op uint64, reverted byte, encoder uint64, tail []byte) []byte {
	payload := AppendUvarint(nil, op)
	payload = append(payload, reverted)
	payload = AppendUvarint(payload, encoder)
	return append(payload, tail...)
}

func TestDecodeHeader(t *testing.T) {
	payload := buildHeader(1, 0, EncoderKindBlock, []byte{0xde, 0xad})

	hdr, err := DecodeHeader(payload)
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.OperationKind != 1 || hdr.IsReverted || hdr.EncoderKind != EncoderKindBlock {
		t.Fatalf("unexpected header: %+v", hdr)
	}

	// Any nonzero flag byte means reverted.
	hdr, err = DecodeHeader(buildHeader(300, 7, EncoderKindPost, nil))
	if err != nil {
		t.Fatalf("DecodeHeader: %v", err)
	}
	if hdr.OperationKind != 300 || !hdr.IsReverted || hdr.EncoderKind != EncoderKindPost {
		t.Fatalf("unexpected header: %+v", hdr)
	}
}

func TestDecodeHeaderTooShort(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "empty", payload: nil},
		{name: "operation kind only", payload: AppendUvarint(nil, 1)},
		{name: "missing encoder kind", payload: append(AppendUvarint(nil, 1), 0)},
		{name: "truncated operation kind", payload: []byte{0x80}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeHeader(tc.payload); !errors.Is(err, ErrHeaderTooShort) {
				t.Fatalf("DecodeHeader(%x): %v", tc.payload, err)
			}
		})
	}
}

// putHeight writes v into the window at the given distance from the payload
// end.
func putHeight(payload []byte, distance int, v uint64) {
	start := len(payload) - distance
	binary.LittleEndian.PutUint64(payload[start:start+8], v)
}

func TestExtractBlockHeightWindowOrder(t *testing.T) {
	h := DefaultHeuristic()

	// Zero in the first window, a plausible value in the second: the search
	// must keep probing.
	payload := make([]byte, 48)
	putHeight(payload, 16, 12345)
	height, ok := ExtractBlockHeight(payload, h)
	if !ok || height != 12345 {
		t.Fatalf("ExtractBlockHeight = (%d, %v), want (12345, true)", height, ok)
	}

	// Plausible values in both: the earlier window wins.
	putHeight(payload, 8, 777)
	height, ok = ExtractBlockHeight(payload, h)
	if !ok || height != 777 {
		t.Fatalf("ExtractBlockHeight = (%d, %v), want (777, true)", height, ok)
	}
}

func TestExtractBlockHeightBounds(t *testing.T) {
	h := DefaultHeuristic()
	tests := []struct {
		name   string
		value  uint64
		want   uint64
		wantOK bool
	}{
		{name: "zero rejected", value: 0},
		{name: "bound rejected", value: 100_000_000},
		{name: "above bound rejected", value: 100_000_001},
		{name: "just under bound", value: 99_999_999, want: 99_999_999, wantOK: true},
		{name: "one", value: 1, want: 1, wantOK: true},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			payload := make([]byte, 24)
			putHeight(payload, 8, tc.value)
			height, ok := ExtractBlockHeight(payload, h)
			if ok != tc.wantOK || height != tc.want {
				t.Fatalf("ExtractBlockHeight = (%d, %v), want (%d, %v)", height, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestExtractBlockHeightShortPayload(t *testing.T) {
	h := DefaultHeuristic()
	payload := make([]byte, 23)
	putHeight(payload, 8, 500)

	if _, ok := ExtractBlockHeight(payload, h); ok {
		t.Fatalf("expected no height from payload below the minimum size")
	}
}

func TestEncoderKindName(t *testing.T) {
	if got := EncoderKindName(EncoderKindBlock); got != "block" {
		t.Fatalf("EncoderKindName(block) = %q", got)
	}
	if got := EncoderKindName(EncoderKindNFTBid); got != "nft_bid" {
		t.Fatalf("EncoderKindName(nft_bid) = %q", got)
	}
	if got := EncoderKindName(99); got != "kind_99" {
		t.Fatalf("EncoderKindName(99) = %q", got)
	}
}
