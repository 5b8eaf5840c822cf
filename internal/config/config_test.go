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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/novatechflow/statescan/pkg/statelog"
)

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "source:\n  dir: /var/state-changes\nreport:\n  format: json\n  max_gaps: 10\nserver:\n  addr: :9090\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Source.Dir != "/var/state-changes" {
		t.Fatalf("unexpected dir: %s", cfg.Source.Dir)
	}
	if cfg.Report.Format != "json" {
		t.Fatalf("unexpected format: %s", cfg.Report.Format)
	}
	if cfg.Report.MaxGaps != 10 {
		t.Fatalf("unexpected max_gaps: %d", cfg.Report.MaxGaps)
	}
	if cfg.Server.Addr != ":9090" {
		t.Fatalf("unexpected server addr: %s", cfg.Server.Addr)
	}
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "source:\n  dir: /var/state-changes\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Scan.Workers != 1 {
		t.Fatalf("expected default workers 1, got %d", cfg.Scan.Workers)
	}
	if cfg.Scan.MaxRecordBytes != statelog.DefaultMaxRecordBytes {
		t.Fatalf("expected default record ceiling, got %d", cfg.Scan.MaxRecordBytes)
	}
	if cfg.Report.Format != "text" {
		t.Fatalf("expected default format text, got %q", cfg.Report.Format)
	}
	if cfg.Report.MaxGaps != DefaultMaxGaps {
		t.Fatalf("expected default max_gaps %d, got %d", DefaultMaxGaps, cfg.Report.MaxGaps)
	}
	def := statelog.DefaultHeuristic()
	if len(cfg.Heuristic.Windows) != len(def.Windows) {
		t.Fatalf("expected default windows, got %v", cfg.Heuristic.Windows)
	}
	if cfg.Heuristic.MaxHeight != def.MaxHeight {
		t.Fatalf("expected default max height, got %d", cfg.Heuristic.MaxHeight)
	}
}

func TestLoadS3DefaultsKeys(t *testing.T) {
	path := writeConfig(t, "source:\n  s3:\n    bucket: archives\n    region: us-east-1\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Source.S3.IndexKey != statelog.IndexFileName {
		t.Fatalf("unexpected index key: %s", cfg.Source.S3.IndexKey)
	}
	if cfg.Source.S3.DataKey != statelog.DataFileName {
		t.Fatalf("unexpected data key: %s", cfg.Source.S3.DataKey)
	}
}

func TestLoadRequiresSource(t *testing.T) {
	path := writeConfig(t, "report:\n  format: text\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected missing-source error")
	}
}

func TestLoadRejectsMultipleSources(t *testing.T) {
	path := writeConfig(t, "source:\n  dir: /var/state-changes\n  s3:\n    bucket: archives\n    region: us-east-1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected mutually-exclusive-source error")
	}
}

func TestLoadRejectsHalfFilePair(t *testing.T) {
	path := writeConfig(t, "source:\n  index_path: /tmp/state-changes-index.bin\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected paired-path error")
	}
}

func TestLoadRequiresS3Bucket(t *testing.T) {
	path := writeConfig(t, "source:\n  s3:\n    region: us-east-1\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected bucket-required error")
	}
}

func TestLoadS3PrefixSkipsKeyDefaults(t *testing.T) {
	path := writeConfig(t, "source:\n  s3:\n    bucket: archives\n    region: us-east-1\n    prefix: node-0\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Source.S3.IndexKey != "" || cfg.Source.S3.DataKey != "" {
		t.Fatalf("prefix source must leave keys to discovery: %+v", cfg.Source.S3)
	}
}

func TestLoadRejectsS3PrefixWithKeys(t *testing.T) {
	path := writeConfig(t, "source:\n  s3:\n    bucket: archives\n    region: us-east-1\n    prefix: node-0\n    data_key: node-0/state-changes.bin\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected prefix/keys exclusivity error")
	}
}

func TestLoadRejectsInvalidFormat(t *testing.T) {
	path := writeConfig(t, "source:\n  dir: /var/state-changes\nreport:\n  format: xml\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected format error")
	}
}

func TestLoadRejectsNarrowWindow(t *testing.T) {
	path := writeConfig(t, "source:\n  dir: /var/state-changes\nheuristic:\n  windows: [4]\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected window-width error")
	}
}

func TestLoadRequiresPublishBrokers(t *testing.T) {
	path := writeConfig(t, "source:\n  dir: /var/state-changes\npublish:\n  enabled: true\n  topic: statescan.gaps\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected brokers-required error")
	}
}

func TestScannerConfig(t *testing.T) {
	path := writeConfig(t, "source:\n  dir: /var/state-changes\nscan:\n  workers: 4\n  limit_entries: 1000\nheuristic:\n  windows: [8, 16]\n  max_height: 500000\nreport:\n  recent_blocks: 3\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	sc := cfg.ScannerConfig()
	if sc.Workers != 4 {
		t.Fatalf("unexpected workers: %d", sc.Workers)
	}
	if sc.LimitEntries != 1000 {
		t.Fatalf("unexpected limit: %d", sc.LimitEntries)
	}
	if len(sc.Heuristic.Windows) != 2 || sc.Heuristic.Windows[1] != 16 {
		t.Fatalf("unexpected windows: %v", sc.Heuristic.Windows)
	}
	if sc.Heuristic.MaxHeight != 500000 {
		t.Fatalf("unexpected max height: %d", sc.Heuristic.MaxHeight)
	}
	if sc.RecentN != 3 {
		t.Fatalf("unexpected recent count: %d", sc.RecentN)
	}
}

func TestDefaultThenFinalize(t *testing.T) {
	cfg := Default()
	if err := cfg.Finalize(); err == nil {
		t.Fatalf("expected source-required error from bare default")
	}
	cfg.Source.Dir = "/var/state-changes"
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize with dir: %v", err)
	}
	if cfg.Report.RecentBlocks == 0 {
		t.Fatalf("expected recent blocks default")
	}
}
