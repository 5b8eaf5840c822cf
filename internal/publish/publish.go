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

package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/novatechflow/statescan/pkg/scan"
)

// producer is the slice of kgo.Client the publisher uses.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Options configures the report publisher.
type Options struct {
	Brokers  []string
	Topic    string
	ClientID string
	Logger   *slog.Logger
}

// Publisher hands finished reports to a Kafka topic so repair tooling can
// consume the gap list without re-reading the files.
type Publisher struct {
	client producer
	topic  string
	logger *slog.Logger
}

// New connects to the configured brokers.
func New(opts Options) (*Publisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(opts.Brokers...),
		kgo.ClientID(opts.ClientID),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("init kafka client: %w", err)
	}
	return newWithProducer(client, opts.Topic, opts.Logger), nil
}

func newWithProducer(client producer, topic string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, topic: topic, logger: logger}
}

// Close releases the underlying client.
func (p *Publisher) Close() {
	p.client.Close()
}

// gapEvent is the per-gap payload consumed by repair tooling.
type gapEvent struct {
	Source  string `json:"source"`
	Start   uint64 `json:"start"`
	End     uint64 `json:"end"`
	Missing uint64 `json:"missing"`
}

// Publish produces the full report under the "report" key plus one record
// per gap, keyed by its height range. All records go out in one sync batch.
func (p *Publisher) Publish(ctx context.Context, r *scan.Report) error {
	reportValue, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	records := []*kgo.Record{{
		Topic: p.topic,
		Key:   []byte("report"),
		Value: reportValue,
	}}
	for _, g := range r.Blocks.Gaps {
		value, err := json.Marshal(gapEvent{
			Source:  r.Source,
			Start:   g.Start,
			End:     g.End,
			Missing: g.Span(),
		})
		if err != nil {
			return fmt.Errorf("encode gap: %w", err)
		}
		records = append(records, &kgo.Record{
			Topic: p.topic,
			Key:   []byte(fmt.Sprintf("gap-%d-%d", g.Start, g.End)),
			Value: value,
		})
	}
	if err := p.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce report: %w", err)
	}
	p.logger.Info("published report", "topic", p.topic, "gaps", len(r.Blocks.Gaps))
	return nil
}
