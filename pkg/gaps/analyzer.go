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

package gaps

import "sort"

// Gap is a maximal closed range of heights missing from the observed span.
type Gap struct {
	Start uint64 `json:"start"`
	End   uint64 `json:"end"`
}

// Span returns how many heights the gap covers.
func (g Gap) Span() uint64 {
	return g.End - g.Start + 1
}

// BlockRef pairs an observed height with the log ordinal that carried it.
type BlockRef struct {
	Height  uint64 `json:"height"`
	Ordinal uint64 `json:"ordinal"`
}

// Summary is the outcome of gap analysis over one scan. A zero ObservedCount
// means no blocks were found and the span fields are meaningless.
type Summary struct {
	ObservedCount uint64     `json:"observed_count"`
	MinHeight     uint64     `json:"min_height"`
	MaxHeight     uint64     `json:"max_height"`
	ExpectedCount uint64     `json:"expected_count"`
	MissingCount  uint64     `json:"missing_count"`
	Gaps          []Gap      `json:"gaps,omitempty"`
	Recent        []BlockRef `json:"recent,omitempty"`
}

// Analyzer accumulates height to ordinal observations during a scan. It is
// not safe for concurrent use; parallel scans run one Analyzer per worker and
// Merge the shards afterwards.
type Analyzer struct {
	heights map[uint64]uint64
}

// NewAnalyzer returns an empty Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{heights: make(map[uint64]uint64)}
}

// Observe records a block seen at the given entry ordinal. When a height
// recurs, the highest ordinal wins: the log is append-only, so later entries
// are more authoritative.
func (a *Analyzer) Observe(height, ordinal uint64) {
	if existing, ok := a.heights[height]; ok && existing > ordinal {
		return
	}
	a.heights[height] = ordinal
}

// Merge folds another analyzer's observations into a, keeping the highest
// ordinal per height. Merging worker shards in any order yields the same
// result as one sequential scan.
func (a *Analyzer) Merge(other *Analyzer) {
	for height, ordinal := range other.heights {
		a.Observe(height, ordinal)
	}
}

// Len returns the number of distinct heights observed so far.
func (a *Analyzer) Len() int {
	return len(a.heights)
}

// Summarize computes the gap report over everything observed so far. The
// analyzer keeps its state, so an interrupted scan can summarize mid-flight
// and a finished one afterwards with identical semantics. recentN bounds the
// Recent list to the highest observed heights; zero omits it.
func (a *Analyzer) Summarize(recentN int) Summary {
	if len(a.heights) == 0 {
		return Summary{}
	}

	heights := make([]uint64, 0, len(a.heights))
	for h := range a.heights {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	summary := Summary{
		ObservedCount: uint64(len(heights)),
		MinHeight:     heights[0],
		MaxHeight:     heights[len(heights)-1],
	}
	summary.ExpectedCount = summary.MaxHeight - summary.MinHeight + 1
	summary.MissingCount = summary.ExpectedCount - summary.ObservedCount

	for i := 0; i+1 < len(heights); i++ {
		cur, next := heights[i], heights[i+1]
		if next != cur+1 {
			summary.Gaps = append(summary.Gaps, Gap{Start: cur + 1, End: next - 1})
		}
	}

	if recentN > 0 {
		start := len(heights) - recentN
		if start < 0 {
			start = 0
		}
		for _, h := range heights[start:] {
			summary.Recent = append(summary.Recent, BlockRef{Height: h, Ordinal: a.heights[h]})
		}
	}
	return summary
}
