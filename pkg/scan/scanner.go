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
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/novatechflow/statescan/pkg/gaps"
	"github.com/novatechflow/statescan/pkg/statelog"
)

// DefaultProgressEvery is the ordinal cadence for progress callbacks.
const DefaultProgressEvery = 100_000

// DefaultRecentBlocks is how many of the highest observed blocks a report
// carries for display.
const DefaultRecentBlocks = 10

// Config controls one scan.
type Config struct {
	// Source describes where the files came from; copied into the report.
	Source string
	// Workers splits the ordinal range across goroutines. Zero or one scans
	// sequentially. Workers share the underlying readers through positioned
	// reads only.
	Workers int
	// Heuristic tunes block height extraction. A zero value selects
	// statelog.DefaultHeuristic.
	Heuristic statelog.Heuristic
	// ProgressEvery is the number of scanned entries between OnProgress
	// calls. Zero selects DefaultProgressEvery; negative disables.
	ProgressEvery int64
	// LimitEntries stops the scan after this many ordinals. Zero scans the
	// whole index.
	LimitEntries uint64
	// RecentN bounds the recent block list in the report. Zero selects
	// DefaultRecentBlocks.
	RecentN int
	// OnProgress, when set, is invoked at the configured cadence. With more
	// than one worker it may be called from multiple goroutines at once.
	OnProgress func(Progress)
}

// Scanner runs the ordinal loop over an opened log pair and aggregates the
// report. A Scanner is single-use: construct, Run once, read the report.
// Snapshot may be called from other goroutines while Run is in flight.
type Scanner struct {
	log *statelog.Log
	cfg Config

	targetEntries atomic.Uint64
	scanned       atomic.Uint64
	blocksLive    atomic.Uint64
	errorsLive    atomic.Uint64
	startNanos    atomic.Int64
	running       atomic.Bool
	rates         *rateTracker
}

// New builds a Scanner over an opened log. Zero config fields are filled
// with defaults.
func New(log *statelog.Log, cfg Config) *Scanner {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if len(cfg.Heuristic.Windows) == 0 {
		cfg.Heuristic = statelog.DefaultHeuristic()
	}
	if cfg.ProgressEvery == 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	if cfg.RecentN == 0 {
		cfg.RecentN = DefaultRecentBlocks
	}
	return &Scanner{
		log:   log,
		cfg:   cfg,
		rates: newRateTracker(30 * time.Second),
	}
}

// shard holds one worker's slice of the aggregation state. Shards are merged
// after all workers finish, which keeps the hot loop lock-free.
type shard struct {
	analyzer        *gaps.Analyzer
	kinds           map[uint64]uint64
	errCounts       map[string]uint64
	decoded         uint64
	blockRecords    uint64
	reverted        uint64
	heuristicMisses uint64
	interrupted     bool
}

func newShard() *shard {
	return &shard{
		analyzer:  gaps.NewAnalyzer(),
		kinds:     make(map[uint64]uint64),
		errCounts: make(map[string]uint64),
	}
}

// Run scans ordinals 0..EntryCount (or the configured limit) and returns the
// report. Per-record failures are counted, never returned; cancellation
// yields the interim report with Interrupted set. The only error Run itself
// can return is a nil or half-bound log.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	if s.log == nil || s.log.Index == nil || s.log.Data == nil {
		return nil, errors.New("scan: log pair not bound")
	}

	total := s.log.Index.EntryCount()
	target := total
	if s.cfg.LimitEntries > 0 && s.cfg.LimitEntries < total {
		target = s.cfg.LimitEntries
	}
	workers := s.cfg.Workers
	if target > 0 && uint64(workers) > target {
		workers = int(target)
	}

	s.targetEntries.Store(target)
	s.startNanos.Store(time.Now().UnixNano())
	s.running.Store(true)
	defer s.running.Store(false)
	startedAt := time.Now()

	shards := make([]*shard, workers)
	var wg sync.WaitGroup
	per := target / uint64(workers)
	rem := target % uint64(workers)
	next := uint64(0)
	for w := 0; w < workers; w++ {
		count := per
		if uint64(w) < rem {
			count++
		}
		sh := newShard()
		shards[w] = sh
		wg.Add(1)
		go func(first, last uint64, sh *shard) {
			defer wg.Done()
			s.scanRange(ctx, first, last, sh)
		}(next, next+count, sh)
		next += count
	}
	wg.Wait()

	report := s.buildReport(shards, total, startedAt)
	if s.cfg.OnProgress != nil && s.cfg.ProgressEvery > 0 {
		s.cfg.OnProgress(s.Snapshot())
	}
	return report, nil
}

// scanRange visits [first, last). Progress counters are flushed in batches
// so workers do not contend on every record.
func (s *Scanner) scanRange(ctx context.Context, first, last uint64, sh *shard) {
	const flushEvery = 1024
	var pending uint64
	flush := func() {
		if pending == 0 {
			return
		}
		s.rates.add(int64(pending))
		now := s.scanned.Add(pending)
		s.maybeReportProgress(now-pending, now)
		pending = 0
	}
	defer flush()

	for ordinal := first; ordinal < last; ordinal++ {
		select {
		case <-ctx.Done():
			sh.interrupted = true
			return
		default:
		}
		s.scanOne(ordinal, sh)
		pending++
		if pending >= flushEvery {
			flush()
		}
	}
}

// scanOne resolves one ordinal through index, data log, and header decode.
func (s *Scanner) scanOne(ordinal uint64, sh *shard) {
	offset, err := s.log.Index.ReadOffset(ordinal)
	if err != nil {
		s.countError(sh, err)
		return
	}
	payload, err := s.log.Data.ReadRecord(offset)
	if err != nil {
		s.countError(sh, err)
		return
	}
	hdr, err := statelog.DecodeHeader(payload)
	if err != nil {
		s.countError(sh, err)
		return
	}

	sh.decoded++
	sh.kinds[hdr.EncoderKind]++
	if hdr.IsReverted {
		sh.reverted++
	}
	if hdr.EncoderKind != statelog.EncoderKindBlock {
		return
	}

	sh.blockRecords++
	s.blocksLive.Add(1)
	height, ok := statelog.ExtractBlockHeight(payload, s.cfg.Heuristic)
	if !ok {
		sh.heuristicMisses++
		return
	}
	sh.analyzer.Observe(height, ordinal)
}

func (s *Scanner) countError(sh *shard, err error) {
	sh.errCounts[classifyRecordError(err)]++
	s.errorsLive.Add(1)
}

func classifyRecordError(err error) string {
	switch {
	case errors.Is(err, statelog.ErrShortIndexRead):
		return StageIndexRead
	case errors.Is(err, statelog.ErrOversizeRecord):
		return StageOversize
	case errors.Is(err, statelog.ErrShortPayload):
		return StagePayload
	case errors.Is(err, statelog.ErrTruncatedLength), errors.Is(err, statelog.ErrTruncatedVarint), errors.Is(err, statelog.ErrUvarintOverflow):
		return StageRecordLength
	case errors.Is(err, statelog.ErrHeaderTooShort):
		return StageHeader
	default:
		return StageOther
	}
}

func (s *Scanner) maybeReportProgress(prev, now uint64) {
	every := s.cfg.ProgressEvery
	if s.cfg.OnProgress == nil || every <= 0 {
		return
	}
	if prev/uint64(every) != now/uint64(every) {
		s.cfg.OnProgress(s.Snapshot())
	}
}

// Snapshot returns the live scan state. Valid at any time; before Run it
// reports zeros.
func (s *Scanner) Snapshot() Progress {
	target := s.targetEntries.Load()
	scanned := s.scanned.Load()
	p := Progress{
		TotalEntries:   target,
		ScannedEntries: scanned,
		BlockRecords:   s.blocksLive.Load(),
		Errors:         s.errorsLive.Load(),
		Rate:           s.rates.rate(),
		Running:        s.running.Load(),
	}
	if start := s.startNanos.Load(); start > 0 {
		p.Elapsed = time.Duration(time.Now().UnixNano() - start)
	}
	if target > 0 {
		p.Percent = float64(scanned) / float64(target) * 100
	}
	if p.Rate > 0 && target > scanned {
		p.ETA = time.Duration(float64(target-scanned) / p.Rate * float64(time.Second))
	}
	return p
}

func (s *Scanner) buildReport(shards []*shard, totalEntries uint64, startedAt time.Time) *Report {
	merged := gaps.NewAnalyzer()
	kinds := make(map[uint64]uint64)
	report := &Report{
		Source:             s.cfg.Source,
		StartedAt:          startedAt,
		IndexBytes:         s.log.Index.Size(),
		DataBytes:          s.log.Data.Size(),
		IndexTrailingBytes: s.log.Index.TrailingBytes(),
		TotalEntries:       totalEntries,
		ErrorCounts:        make(map[string]uint64),
	}

	for _, sh := range shards {
		merged.Merge(sh.analyzer)
		for kind, count := range sh.kinds {
			kinds[kind] += count
		}
		for stage, count := range sh.errCounts {
			report.ErrorCounts[stage] += count
			report.TotalErrors += count
		}
		report.DecodedRecords += sh.decoded
		report.BlockRecords += sh.blockRecords
		report.RevertedRecords += sh.reverted
		report.HeuristicMisses += sh.heuristicMisses
		report.Interrupted = report.Interrupted || sh.interrupted
	}

	report.ScannedEntries = s.scanned.Load()
	report.Duration = time.Since(startedAt)
	if len(kinds) > 0 {
		report.KindCounts = make(map[string]uint64, len(kinds))
		for kind, count := range kinds {
			report.KindCounts[statelog.EncoderKindName(kind)] += count
		}
	}
	if len(report.ErrorCounts) == 0 {
		report.ErrorCounts = nil
	}

	_, onlyZero := kinds[0]
	report.AllUnknownKinds = report.DecodedRecords > 0 && len(kinds) == 1 && onlyZero

	report.Blocks = merged.Summarize(s.cfg.RecentN)
	return report
}
