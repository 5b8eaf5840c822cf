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

package archive

import (
	"context"
	"sync"
	"time"
)

// HealthState models the analyzer's view of the object store. A long scan
// over ranged GETs surfaces source degradation here instead of failing.
type HealthState string

const (
	StateHealthy     HealthState = "healthy"
	StateDegraded    HealthState = "degraded"
	StateUnavailable HealthState = "unavailable"
)

// HealthConfig defines thresholds for transitioning between states.
type HealthConfig struct {
	Window      time.Duration
	LatencyWarn time.Duration
	LatencyCrit time.Duration
	ErrorWarn   float64
	ErrorCrit   float64
	MaxSamples  int
}

// HealthMonitor aggregates recent object-store requests into a health state.
type HealthMonitor struct {
	cfg HealthConfig

	mu         sync.Mutex
	samples    []healthSample
	state      HealthState
	stateSince time.Time
	avgLatency time.Duration
	errorRate  float64
}

type healthSample struct {
	ts      time.Time
	op      string
	latency time.Duration
	err     bool
}

// HealthSnapshot captures the monitor's public aggregates.
type HealthSnapshot struct {
	State      HealthState   `json:"state"`
	Since      time.Time     `json:"since"`
	AvgLatency time.Duration `json:"avg_latency_ns"`
	ErrorRate  float64       `json:"error_rate"`
}

// NewHealthMonitor builds a monitor with sane defaults.
func NewHealthMonitor(cfg HealthConfig) *HealthMonitor {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.LatencyWarn <= 0 {
		cfg.LatencyWarn = 500 * time.Millisecond
	}
	if cfg.LatencyCrit <= 0 {
		cfg.LatencyCrit = 3 * time.Second
	}
	if cfg.ErrorWarn <= 0 {
		cfg.ErrorWarn = 0.2
	}
	if cfg.ErrorCrit <= 0 {
		cfg.ErrorCrit = 0.6
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = 512
	}
	return &HealthMonitor{
		cfg:        cfg,
		state:      StateHealthy,
		stateSince: time.Now(),
	}
}

// RecordOperation records one object-store request outcome.
func (m *HealthMonitor) RecordOperation(op string, latency time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.samples = append(m.samples, healthSample{
		ts:      now,
		op:      op,
		latency: latency,
		err:     err != nil,
	})
	if len(m.samples) > m.cfg.MaxSamples {
		m.samples = m.samples[len(m.samples)-m.cfg.MaxSamples:]
	}
	m.truncateLocked(now)
	m.recomputeLocked(now)
}

// Snapshot returns the current state and key aggregates.
func (m *HealthMonitor) Snapshot() HealthSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return HealthSnapshot{
		State:      m.state,
		Since:      m.stateSince,
		AvgLatency: m.avgLatency,
		ErrorRate:  m.errorRate,
	}
}

// State returns just the current health state.
func (m *HealthMonitor) State() HealthState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *HealthMonitor) truncateLocked(now time.Time) {
	cutoff := now.Add(-m.cfg.Window)
	idx := 0
	for _, sample := range m.samples {
		if sample.ts.After(cutoff) {
			break
		}
		idx++
	}
	if idx > 0 && idx < len(m.samples) {
		m.samples = append([]healthSample(nil), m.samples[idx:]...)
	} else if idx >= len(m.samples) {
		m.samples = nil
	}
}

func (m *HealthMonitor) recomputeLocked(now time.Time) {
	if len(m.samples) == 0 {
		m.avgLatency = 0
		m.errorRate = 0
		m.setStateLocked(now, StateHealthy)
		return
	}
	var (
		totalLatency time.Duration
		errorCount   int
	)
	for _, sample := range m.samples {
		totalLatency += sample.latency
		if sample.err {
			errorCount++
		}
	}
	m.avgLatency = totalLatency / time.Duration(len(m.samples))
	m.errorRate = float64(errorCount) / float64(len(m.samples))

	nextState := StateHealthy
	if m.avgLatency >= m.cfg.LatencyCrit || m.errorRate >= m.cfg.ErrorCrit {
		nextState = StateUnavailable
	} else if m.avgLatency >= m.cfg.LatencyWarn || m.errorRate >= m.cfg.ErrorWarn {
		nextState = StateDegraded
	}
	m.setStateLocked(now, nextState)
}

func (m *HealthMonitor) setStateLocked(now time.Time, next HealthState) {
	if next == m.state {
		return
	}
	m.state = next
	m.stateSince = now
}

// MonitoredClient wraps an ObjectClient and feeds every request outcome to a
// HealthMonitor.
type MonitoredClient struct {
	inner ObjectClient
	mon   *HealthMonitor
}

// Monitor wraps client so its operations are sampled by mon.
func Monitor(client ObjectClient, mon *HealthMonitor) *MonitoredClient {
	return &MonitoredClient{inner: client, mon: mon}
}

func (c *MonitoredClient) StatObject(ctx context.Context, key string) (int64, error) {
	start := time.Now()
	size, err := c.inner.StatObject(ctx, key)
	c.mon.RecordOperation("stat", time.Since(start), err)
	return size, err
}

func (c *MonitoredClient) DownloadRange(ctx context.Context, key string, rng *ByteRange) ([]byte, error) {
	start := time.Now()
	data, err := c.inner.DownloadRange(ctx, key, rng)
	c.mon.RecordOperation("get", time.Since(start), err)
	return data, err
}

func (c *MonitoredClient) ListObjects(ctx context.Context, prefix string) ([]Object, error) {
	start := time.Now()
	objects, err := c.inner.ListObjects(ctx, prefix)
	c.mon.RecordOperation("list", time.Since(start), err)
	return objects, err
}
