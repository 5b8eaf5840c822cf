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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/novatechflow/statescan/pkg/scan"
)

const namespace = "statescan"

// A scan is a bounded batch run, so the collectors are gauges set from
// snapshots rather than counters incremented per record.
var (
	ScannedEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scanned_entries",
			Help:      "Index entries scanned so far in the current run.",
		},
	)
	TargetEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "target_entries",
			Help:      "Index entries the current run will scan.",
		},
	)
	ScanPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_percent",
			Help:      "Scan completion percentage.",
		},
	)
	EntriesPerSecond = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entries_per_second",
			Help:      "Recent scan throughput.",
		},
	)
	BlockRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "block_records",
			Help:      "Block-kind records seen so far.",
		},
	)
	RecordErrors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "record_errors",
			Help:      "Recoverable per-record errors so far.",
		},
	)
	RecordsByKind = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_by_kind",
			Help:      "Decoded records by encoder kind, from the finished report.",
		},
		[]string{"kind"},
	)
	ErrorsByStage = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "record_errors_by_stage",
			Help:      "Recoverable record errors by pipeline stage, from the finished report.",
		},
		[]string{"stage"},
	)
	HeuristicMisses = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heuristic_misses",
			Help:      "Block records whose payload yielded no plausible height.",
		},
	)
	ObservedBlocks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "observed_blocks",
			Help:      "Distinct block heights observed.",
		},
	)
	MissingBlocks = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "missing_blocks",
			Help:      "Heights missing from the expected contiguous range.",
		},
	)
	GapsFound = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "gaps",
			Help:      "Maximal missing ranges found.",
		},
	)
	MinBlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "min_block_height",
			Help:      "Lowest observed block height.",
		},
	)
	MaxBlockHeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "max_block_height",
			Help:      "Highest observed block height.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		ScannedEntries,
		TargetEntries,
		ScanPercent,
		EntriesPerSecond,
		BlockRecords,
		RecordErrors,
		RecordsByKind,
		ErrorsByStage,
		HeuristicMisses,
		ObservedBlocks,
		MissingBlocks,
		GapsFound,
		MinBlockHeight,
		MaxBlockHeight,
	)
}

// SetProgress publishes a live snapshot.
func SetProgress(p scan.Progress) {
	ScannedEntries.Set(float64(p.ScannedEntries))
	TargetEntries.Set(float64(p.TotalEntries))
	ScanPercent.Set(p.Percent)
	EntriesPerSecond.Set(p.Rate)
	BlockRecords.Set(float64(p.BlockRecords))
	RecordErrors.Set(float64(p.Errors))
}

// SetReport publishes the finished report.
func SetReport(r *scan.Report) {
	ScannedEntries.Set(float64(r.ScannedEntries))
	TargetEntries.Set(float64(r.TotalEntries))
	BlockRecords.Set(float64(r.BlockRecords))
	RecordErrors.Set(float64(r.TotalErrors))
	HeuristicMisses.Set(float64(r.HeuristicMisses))
	for kind, count := range r.KindCounts {
		RecordsByKind.WithLabelValues(kind).Set(float64(count))
	}
	for stage, count := range r.ErrorCounts {
		ErrorsByStage.WithLabelValues(stage).Set(float64(count))
	}
	ObservedBlocks.Set(float64(r.Blocks.ObservedCount))
	MissingBlocks.Set(float64(r.Blocks.MissingCount))
	GapsFound.Set(float64(len(r.Blocks.Gaps)))
	if r.Blocks.ObservedCount > 0 {
		MinBlockHeight.Set(float64(r.Blocks.MinHeight))
		MaxBlockHeight.Set(float64(r.Blocks.MaxHeight))
	}
}
