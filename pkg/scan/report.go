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

package scan

import (
	"time"

	"github.com/novatechflow/statescan/pkg/gaps"
)

// Stages a per-record failure can be counted under. Each maps to one of the
// recoverable statelog errors; nothing in this list aborts a scan.
const (
	StageIndexRead    = "index_short_read"
	StageRecordLength = "truncated_length"
	StageOversize     = "oversize_record"
	StagePayload      = "short_payload"
	StageHeader       = "header_too_short"
	StageOther        = "other"
)

// Report is the complete outcome of one scan over an index/data pair. Two
// runs over unmodified files produce identical reports apart from StartedAt
// and Duration, regardless of worker count.
type Report struct {
	Source             string        `json:"source"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration_ns"`
	IndexBytes         int64         `json:"index_bytes"`
	DataBytes          int64         `json:"data_bytes"`
	IndexTrailingBytes int64         `json:"index_trailing_bytes,omitempty"`

	TotalEntries    uint64            `json:"total_entries"`
	ScannedEntries  uint64            `json:"scanned_entries"`
	DecodedRecords  uint64            `json:"decoded_records"`
	BlockRecords    uint64            `json:"block_records"`
	RevertedRecords uint64            `json:"reverted_records"`
	KindCounts      map[string]uint64 `json:"kind_counts,omitempty"`

	ErrorCounts     map[string]uint64 `json:"error_counts,omitempty"`
	TotalErrors     uint64            `json:"total_errors"`
	HeuristicMisses uint64            `json:"heuristic_misses"`

	// AllUnknownKinds flags a scan where every decoded header carried encoder
	// kind zero. That pattern means the header layout drifted upstream and
	// the whole report is suspect, not that the log holds a new entity type.
	AllUnknownKinds bool `json:"all_unknown_kinds,omitempty"`

	// Interrupted marks a report cut short by cancellation. An entry-limited
	// scan completes normally and shows ScannedEntries below TotalEntries.
	// Partial results are internally consistent either way.
	Interrupted bool `json:"interrupted,omitempty"`

	Blocks gaps.Summary `json:"blocks"`
}
