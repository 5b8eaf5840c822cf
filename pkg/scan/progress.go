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
	"sync"
	"time"
)

// Progress is a point-in-time view of a running scan, safe to read from any
// goroutine. TotalEntries counts the ordinals this run will visit, which is
// less than the index row count when a limit is set.
type Progress struct {
	TotalEntries   uint64        `json:"total_entries"`
	ScannedEntries uint64        `json:"scanned_entries"`
	BlockRecords   uint64        `json:"block_records"`
	Errors         uint64        `json:"errors"`
	Percent        float64       `json:"percent"`
	Rate           float64       `json:"rate_per_sec"`
	Elapsed        time.Duration `json:"elapsed_ns"`
	ETA            time.Duration `json:"eta_ns"`
	Running        bool          `json:"running"`
}

// rateTracker reports a moving entries-per-second rate over a short window.
// Workers flush counts in batches, so the per-bucket mutex is uncontended in
// practice.
type rateTracker struct {
	mu         sync.Mutex
	buckets    map[int64]int64
	window     time.Duration
	resolution time.Duration
}

func newRateTracker(window time.Duration) *rateTracker {
	if window <= 0 {
		window = 60 * time.Second
	}
	return &rateTracker{
		buckets:    make(map[int64]int64),
		window:     window,
		resolution: time.Second,
	}
}

func (t *rateTracker) add(count int64) {
	if t == nil || count <= 0 {
		return
	}
	bucket := time.Now().UnixNano() / t.resolution.Nanoseconds()
	t.mu.Lock()
	t.buckets[bucket] += count
	t.pruneLocked(bucket)
	t.mu.Unlock()
}

func (t *rateTracker) rate() float64 {
	if t == nil {
		return 0
	}
	bucket := time.Now().UnixNano() / t.resolution.Nanoseconds()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked(bucket)
	if len(t.buckets) == 0 {
		return 0
	}
	var total int64
	minBucket := bucket
	for b, count := range t.buckets {
		total += count
		if b < minBucket {
			minBucket = b
		}
	}
	windowBuckets := int64(t.window / t.resolution)
	if windowBuckets < 1 {
		windowBuckets = 1
	}
	durationBuckets := bucket - minBucket + 1
	if durationBuckets > windowBuckets {
		durationBuckets = windowBuckets
	}
	if durationBuckets < 1 {
		durationBuckets = 1
	}
	seconds := float64(durationBuckets) * t.resolution.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(total) / seconds
}

func (t *rateTracker) pruneLocked(current int64) {
	windowBuckets := int64(t.window / t.resolution)
	if windowBuckets < 1 {
		windowBuckets = 1
	}
	minBucket := current - windowBuckets
	for bucket := range t.buckets {
		if bucket < minBucket {
			delete(t.buckets, bucket)
		}
	}
}
