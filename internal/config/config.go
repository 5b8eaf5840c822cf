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
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/novatechflow/statescan/pkg/scan"
	"github.com/novatechflow/statescan/pkg/statelog"
)

// DefaultMaxGaps bounds how many gaps the text report prints before
// truncating; the full list always goes to the gaps file when one is set.
const DefaultMaxGaps = 50

// Config defines the analyzer configuration schema.
type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Scan      ScanConfig      `yaml:"scan"`
	Heuristic HeuristicConfig `yaml:"heuristic"`
	Report    ReportConfig    `yaml:"report"`
	Publish   PublishConfig   `yaml:"publish"`
	Server    ServerConfig    `yaml:"server"`
}

// SourceConfig selects where the state-change file pair comes from. Exactly
// one of Dir, IndexPath+DataPath, or S3 must be set.
type SourceConfig struct {
	Dir       string    `yaml:"dir"`
	IndexPath string    `yaml:"index_path"`
	DataPath  string    `yaml:"data_path"`
	S3        *S3Source `yaml:"s3"`
}

// S3Source points at an archived file pair in object storage. Either name
// the keys directly, or give the prefix of the node directory holding the
// pair and let discovery find the canonical file names under it.
type S3Source struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	Prefix          string `yaml:"prefix"`
	IndexKey        string `yaml:"index_key"`
	DataKey         string `yaml:"data_key"`
	PageBytes       int64  `yaml:"page_bytes"`
	CacheBytes      int    `yaml:"cache_bytes"`
}

type ScanConfig struct {
	Workers        int    `yaml:"workers"`
	MaxRecordBytes int64  `yaml:"max_record_bytes"`
	ProgressEvery  int64  `yaml:"progress_every"`
	LimitEntries   uint64 `yaml:"limit_entries"`
}

// HeuristicConfig overrides the trailing-window height extraction. The
// window distances and the height ceiling are deployment knobs because the
// upstream payload layout shifts between versions.
type HeuristicConfig struct {
	Windows   []int  `yaml:"windows"`
	MaxHeight uint64 `yaml:"max_height"`
}

type ReportConfig struct {
	Format       string `yaml:"format"`
	MaxGaps      int    `yaml:"max_gaps"`
	RecentBlocks int    `yaml:"recent_blocks"`
	GapsFile     string `yaml:"gaps_file"`
}

// PublishConfig hands the finished report to a Kafka topic for downstream
// repair tooling. Disabled unless Enabled is set.
type PublishConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	ClientID string   `yaml:"client_id"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads a YAML config file, fills defaults, and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given. The caller
// still has to supply a source before Finalize will accept it.
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// Finalize fills unset fields with defaults and validates the result. main
// calls it after layering flag and env overrides on top of the file.
func (c *Config) Finalize() error {
	c.applyDefaults()

	sources := 0
	if c.Source.Dir != "" {
		sources++
	}
	if c.Source.IndexPath != "" || c.Source.DataPath != "" {
		if c.Source.IndexPath == "" || c.Source.DataPath == "" {
			return fmt.Errorf("source.index_path and source.data_path must be set together")
		}
		sources++
	}
	if c.Source.S3 != nil {
		sources++
	}
	if sources == 0 {
		return fmt.Errorf("source is required: set source.dir, source.index_path+source.data_path, or source.s3")
	}
	if sources > 1 {
		return fmt.Errorf("source.dir, source.index_path/data_path, and source.s3 are mutually exclusive")
	}

	if s3 := c.Source.S3; s3 != nil {
		if s3.Bucket == "" {
			return fmt.Errorf("source.s3.bucket is required")
		}
		if s3.Region == "" {
			return fmt.Errorf("source.s3.region is required")
		}
		if s3.Prefix != "" && (s3.IndexKey != "" || s3.DataKey != "") {
			return fmt.Errorf("source.s3.prefix and source.s3.index_key/data_key are mutually exclusive")
		}
	}

	for _, w := range c.Heuristic.Windows {
		// A window is one little-endian uint64 read back from the payload
		// end, so distances under 8 would run past it.
		if w < 8 {
			return fmt.Errorf("heuristic.windows entries must be at least 8, got %d", w)
		}
	}

	switch c.Report.Format {
	case "text", "json":
	default:
		return fmt.Errorf("report.format %q is not supported (text or json)", c.Report.Format)
	}

	if c.Publish.Enabled {
		if len(c.Publish.Brokers) == 0 {
			return fmt.Errorf("publish.brokers is required when publish.enabled is set")
		}
		if c.Publish.Topic == "" {
			return fmt.Errorf("publish.topic is required when publish.enabled is set")
		}
	}

	return nil
}

func (c *Config) applyDefaults() {
	if s3 := c.Source.S3; s3 != nil && s3.Prefix == "" {
		if s3.IndexKey == "" {
			s3.IndexKey = statelog.IndexFileName
		}
		if s3.DataKey == "" {
			s3.DataKey = statelog.DataFileName
		}
	}
	if c.Scan.Workers == 0 {
		c.Scan.Workers = 1
	}
	if c.Scan.MaxRecordBytes == 0 {
		c.Scan.MaxRecordBytes = statelog.DefaultMaxRecordBytes
	}
	if c.Scan.ProgressEvery == 0 {
		c.Scan.ProgressEvery = scan.DefaultProgressEvery
	}
	def := statelog.DefaultHeuristic()
	if len(c.Heuristic.Windows) == 0 {
		c.Heuristic.Windows = def.Windows
	}
	if c.Heuristic.MaxHeight == 0 {
		c.Heuristic.MaxHeight = def.MaxHeight
	}
	if c.Report.Format == "" {
		c.Report.Format = "text"
	}
	if c.Report.MaxGaps == 0 {
		c.Report.MaxGaps = DefaultMaxGaps
	}
	if c.Report.RecentBlocks == 0 {
		c.Report.RecentBlocks = scan.DefaultRecentBlocks
	}
	if c.Publish.ClientID == "" {
		c.Publish.ClientID = "statescan"
	}
}

// ScannerConfig translates the file schema into a scan.Config. The source
// label and progress callback are wired by the caller.
func (c Config) ScannerConfig() scan.Config {
	return scan.Config{
		Workers: c.Scan.Workers,
		Heuristic: statelog.Heuristic{
			Windows:    c.Heuristic.Windows,
			MaxHeight:  c.Heuristic.MaxHeight,
			MinPayload: statelog.DefaultHeuristic().MinPayload,
		},
		ProgressEvery: c.Scan.ProgressEvery,
		LimitEntries:  c.Scan.LimitEntries,
		RecentN:       c.Report.RecentBlocks,
	}
}
