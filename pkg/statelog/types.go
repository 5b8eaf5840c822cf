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

import "fmt"

// Canonical file names written by state-change capture nodes.
const (
	IndexFileName = "state-changes-index.bin"
	DataFileName  = "state-changes.bin"
)

// IndexEntrySize is the width of one index row: an unsigned 64-bit
// little-endian byte offset into the data log.
const IndexEntrySize = 8

// DefaultMaxRecordBytes bounds a single record's declared length. A corrupt
// offset can land the length varint on arbitrary bytes; anything above this
// ceiling is treated as garbage rather than allocated.
const DefaultMaxRecordBytes = 10 << 20

// RecordHeader carries the leading fields shared by every record payload.
// Kind-specific fields after the header are not decoded here.
type RecordHeader struct {
	OperationKind uint64
	IsReverted    bool
	EncoderKind   uint64
}

// Encoder kinds observed in capture node output. Records tagged with any
// other value are counted under a generated kind_N name.
const (
	EncoderKindBlock       uint64 = 2
	EncoderKindTransaction uint64 = 3
	EncoderKindPost        uint64 = 4
	EncoderKindProfile     uint64 = 5
	EncoderKindLike        uint64 = 6
	EncoderKindFollow      uint64 = 7
	EncoderKindNFT         uint64 = 8
	EncoderKindNFTBid      uint64 = 9
	EncoderKindDerivedKey  uint64 = 10
)

var encoderKindNames = map[uint64]string{
	EncoderKindBlock:       "block",
	EncoderKindTransaction: "transaction",
	EncoderKindPost:        "post",
	EncoderKindProfile:     "profile",
	EncoderKindLike:        "like",
	EncoderKindFollow:      "follow",
	EncoderKindNFT:         "nft",
	EncoderKindNFTBid:      "nft_bid",
	EncoderKindDerivedKey:  "derived_key",
}

// EncoderKindName returns the display name for an encoder kind.
func EncoderKindName(kind uint64) string {
	if name, ok := encoderKindNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("kind_%d", kind)
}
