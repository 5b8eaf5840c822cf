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
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/novatechflow/statescan/pkg/gaps"
	"github.com/novatechflow/statescan/pkg/scan"
)

// Options controls rendering. MaxGaps caps the gaps printed in text form;
// zero or negative prints them all. GapsFile, when set, is named in the
// truncation notice so readers know where the full list went.
type Options struct {
	Format   string
	MaxGaps  int
	GapsFile string
}

// Render writes a finished report to w in the configured format.
func Render(w io.Writer, r *scan.Report, opts Options) error {
	if opts.Format == "json" {
		return renderJSON(w, r)
	}
	return renderText(w, r, opts)
}

func renderJSON(w io.Writer, r *scan.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func renderText(w io.Writer, r *scan.Report, opts Options) error {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "=== State-Changes Scan ===\n")
	fmt.Fprintf(&buf, "Source:          %s\n", r.Source)
	fmt.Fprintf(&buf, "Index:           %d bytes (%d entries)\n", r.IndexBytes, r.TotalEntries)
	fmt.Fprintf(&buf, "Data:            %d bytes\n", r.DataBytes)
	fmt.Fprintf(&buf, "Scanned:         %d of %d entries in %s\n", r.ScannedEntries, r.TotalEntries, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&buf, "Decoded records: %d\n", r.DecodedRecords)
	fmt.Fprintf(&buf, "Reverted:        %d\n", r.RevertedRecords)
	if r.Interrupted {
		fmt.Fprintf(&buf, "NOTE: scan interrupted; results cover the scanned prefix only.\n")
	}
	if r.IndexTrailingBytes > 0 {
		fmt.Fprintf(&buf, "NOTE: index carries %d trailing bytes beyond the last full entry.\n", r.IndexTrailingBytes)
	}
	buf.WriteByte('\n')

	if len(r.KindCounts) > 0 {
		fmt.Fprintf(&buf, "=== Entry kinds ===\n")
		for _, kc := range sortedKinds(r.KindCounts) {
			pct := 0.0
			if r.DecodedRecords > 0 {
				pct = float64(kc.count) / float64(r.DecodedRecords) * 100
			}
			fmt.Fprintf(&buf, "  %-14s %d (%.2f%%)\n", kc.name, kc.count, pct)
		}
		buf.WriteByte('\n')
	}
	if r.AllUnknownKinds {
		fmt.Fprintf(&buf, "WARNING: every decoded record carried encoder kind 0.\n")
		fmt.Fprintf(&buf, "The header layout has likely changed upstream; treat this report as suspect.\n\n")
	}

	fmt.Fprintf(&buf, "=== Block analysis ===\n")
	fmt.Fprintf(&buf, "Heights come from a trailing-window heuristic and are unverified.\n")
	b := r.Blocks
	if b.ObservedCount == 0 {
		fmt.Fprintf(&buf, "No block records found.\n")
	} else {
		fmt.Fprintf(&buf, "Observed blocks: %d\n", b.ObservedCount)
		fmt.Fprintf(&buf, "Min height:      %d\n", b.MinHeight)
		fmt.Fprintf(&buf, "Max height:      %d\n", b.MaxHeight)
		fmt.Fprintf(&buf, "Expected range:  %d\n", b.ExpectedCount)
		missingPct := 0.0
		if b.ExpectedCount > 0 {
			missingPct = float64(b.MissingCount) / float64(b.ExpectedCount) * 100
		}
		fmt.Fprintf(&buf, "Missing:         %d (%.2f%%)\n", b.MissingCount, missingPct)
	}
	if r.HeuristicMisses > 0 {
		fmt.Fprintf(&buf, "Heuristic misses: %d block records yielded no plausible height.\n", r.HeuristicMisses)
	}
	buf.WriteByte('\n')

	if b.ObservedCount > 0 {
		if len(b.Gaps) == 0 {
			fmt.Fprintf(&buf, "No gaps found; the observed range is complete.\n")
		} else {
			fmt.Fprintf(&buf, "=== Gaps (%d) ===\n", len(b.Gaps))
			shown := len(b.Gaps)
			if opts.MaxGaps > 0 && shown > opts.MaxGaps {
				shown = opts.MaxGaps
			}
			for i := 0; i < shown; i++ {
				g := b.Gaps[i]
				fmt.Fprintf(&buf, "  gap %d: heights %d -> %d (%d blocks missing)\n", i+1, g.Start, g.End, g.Span())
			}
			if shown < len(b.Gaps) {
				var rest uint64
				for _, g := range b.Gaps[shown:] {
					rest += g.Span()
				}
				if opts.GapsFile != "" {
					fmt.Fprintf(&buf, "  ... and %d more gaps (%d blocks missing), full list in %s\n", len(b.Gaps)-shown, rest, opts.GapsFile)
				} else {
					fmt.Fprintf(&buf, "  ... and %d more gaps (%d blocks missing)\n", len(b.Gaps)-shown, rest)
				}
			}
		}
		buf.WriteByte('\n')
	}

	if len(b.Recent) > 0 {
		fmt.Fprintf(&buf, "=== Recent blocks ===\n")
		for _, ref := range b.Recent {
			fmt.Fprintf(&buf, "  height %d (ordinal %d)\n", ref.Height, ref.Ordinal)
		}
		buf.WriteByte('\n')
	}

	if r.TotalErrors > 0 {
		fmt.Fprintf(&buf, "=== Record errors (%d) ===\n", r.TotalErrors)
		for _, sc := range sortedStages(r.ErrorCounts) {
			fmt.Fprintf(&buf, "  %s: %d\n", sc.name, sc.count)
		}
		buf.WriteByte('\n')
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// WriteGapsFile writes the complete gap list to path, one line per gap, in
// the layout downstream repair tooling already parses.
func WriteGapsFile(path string, summary gaps.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create gaps file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	var missing uint64
	for _, g := range summary.Gaps {
		missing += g.Span()
	}
	fmt.Fprintf(&buf, "=== State-Changes Gaps Analysis ===\n")
	fmt.Fprintf(&buf, "Total gaps: %d\n", len(summary.Gaps))
	fmt.Fprintf(&buf, "Total missing blocks: %d\n\n", missing)
	for i, g := range summary.Gaps {
		fmt.Fprintf(&buf, "Gap %d: heights %d -> %d (%d blocks missing)\n", i+1, g.Start, g.End, g.Span())
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write gaps file: %w", err)
	}
	return nil
}

type kindCount struct {
	name  string
	count uint64
}

func sortedKinds(m map[string]uint64) []kindCount {
	out := make([]kindCount, 0, len(m))
	for name, count := range m {
		out = append(out, kindCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].name < out[j].name
	})
	return out
}

func sortedStages(m map[string]uint64) []kindCount {
	out := make([]kindCount, 0, len(m))
	for name, count := range m {
		out = append(out, kindCount{name, count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
