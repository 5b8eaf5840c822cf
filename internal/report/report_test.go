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

package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/novatechflow/statescan/pkg/gaps"
	"github.com/novatechflow/statescan/pkg/scan"
)

func sampleReport() *scan.Report {
	return &scan.Report{
		Source:         "/var/state-changes",
		IndexBytes:     64,
		DataBytes:      512,
		TotalEntries:   8,
		ScannedEntries: 8,
		DecodedRecords: 8,
		BlockRecords:   5,
		KindCounts:     map[string]uint64{"block": 5, "transaction": 2, "post": 1},
		ErrorCounts:    map[string]uint64{scan.StagePayload: 1},
		TotalErrors:    1,
		Blocks: gaps.Summary{
			ObservedCount: 5,
			MinHeight:     10,
			MaxHeight:     17,
			ExpectedCount: 8,
			MissingCount:  3,
			Gaps:          []gaps.Gap{{Start: 12, End: 12}, {Start: 15, End: 16}},
			Recent:        []gaps.BlockRef{{Height: 14, Ordinal: 3}, {Height: 17, Ordinal: 4}},
		},
	}
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), Options{Format: "text", MaxGaps: 50}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Source:          /var/state-changes",
		"Observed blocks: 5",
		"Min height:      10",
		"Max height:      17",
		"Expected range:  8",
		"Missing:         3 (37.50%)",
		"gap 1: heights 12 -> 12 (1 blocks missing)",
		"gap 2: heights 15 -> 16 (2 blocks missing)",
		"height 17 (ordinal 4)",
		"trailing-window heuristic",
		"short_payload: 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in report:\n%s", want, out)
		}
	}
}

func TestRenderTextTruncatesGaps(t *testing.T) {
	r := sampleReport()
	var buf bytes.Buffer
	if err := Render(&buf, r, Options{Format: "text", MaxGaps: 1, GapsFile: "/tmp/gaps.txt"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "gap 1: heights 12 -> 12") {
		t.Fatalf("missing first gap:\n%s", out)
	}
	if strings.Contains(out, "gap 2:") {
		t.Fatalf("second gap should be truncated:\n%s", out)
	}
	if !strings.Contains(out, "... and 1 more gaps (2 blocks missing), full list in /tmp/gaps.txt") {
		t.Fatalf("missing truncation notice:\n%s", out)
	}
}

func TestRenderTextNoBlocks(t *testing.T) {
	r := &scan.Report{Source: "x", TotalEntries: 2, ScannedEntries: 2}
	var buf bytes.Buffer
	if err := Render(&buf, r, Options{Format: "text"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "No block records found.") {
		t.Fatalf("missing no-blocks line:\n%s", buf.String())
	}
}

func TestRenderTextFormatDriftWarning(t *testing.T) {
	r := sampleReport()
	r.AllUnknownKinds = true
	var buf bytes.Buffer
	if err := Render(&buf, r, Options{Format: "text"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "encoder kind 0") {
		t.Fatalf("missing drift warning:\n%s", buf.String())
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleReport(), Options{Format: "json"}); err != nil {
		t.Fatalf("render: %v", err)
	}
	var got scan.Report
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if got.Blocks.MissingCount != 3 || len(got.Blocks.Gaps) != 2 {
		t.Fatalf("unexpected decoded report: %+v", got.Blocks)
	}
}

func TestWriteGapsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gaps.txt")
	summary := sampleReport().Blocks
	if err := WriteGapsFile(path, summary); err != nil {
		t.Fatalf("write gaps file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read gaps file: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"Total gaps: 2",
		"Total missing blocks: 3",
		"Gap 1: heights 12 -> 12 (1 blocks missing)",
		"Gap 2: heights 15 -> 16 (2 blocks missing)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in gaps file:\n%s", want, out)
		}
	}
}
