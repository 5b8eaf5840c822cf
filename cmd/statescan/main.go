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

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/novatechflow/statescan/internal/config"
	"github.com/novatechflow/statescan/internal/metrics"
	"github.com/novatechflow/statescan/internal/publish"
	"github.com/novatechflow/statescan/internal/report"
	"github.com/novatechflow/statescan/internal/server"
	"github.com/novatechflow/statescan/pkg/archive"
	"github.com/novatechflow/statescan/pkg/scan"
	"github.com/novatechflow/statescan/pkg/statelog"
)

const version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	log, src, err := openSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("open source failed", "error", err)
		os.Exit(1)
	}
	defer log.Close()

	scannerCfg := cfg.ScannerConfig()
	scannerCfg.Source = src.label
	scannerCfg.OnProgress = func(p scan.Progress) {
		metrics.SetProgress(p)
		logger.Info("scan progress",
			"scanned", p.ScannedEntries,
			"total", p.TotalEntries,
			"percent", fmt.Sprintf("%.1f", p.Percent),
			"blocks", p.BlockRecords,
			"errors", p.Errors,
			"rate_per_sec", int64(p.Rate),
			"eta", p.ETA.Round(time.Second).String(),
		)
	}
	scanner := scan.New(log, scannerCfg)

	if cfg.Server.Addr != "" {
		opts := server.Options{Snapshot: scanner.Snapshot, Logger: logger}
		if src.health != nil {
			opts.Health = src.health.Snapshot
		}
		server.Start(ctx, cfg.Server.Addr, opts)
	}

	logger.Info("scan starting", "version", version, "source", src.label, "workers", cfg.Scan.Workers)
	rep, err := scanner.Run(ctx)
	if err != nil {
		logger.Error("scan failed", "error", err)
		os.Exit(1)
	}
	metrics.SetReport(rep)
	logger.Info("scan finished",
		"scanned", rep.ScannedEntries,
		"blocks", rep.BlockRecords,
		"observed", rep.Blocks.ObservedCount,
		"missing", rep.Blocks.MissingCount,
		"gaps", len(rep.Blocks.Gaps),
		"errors", rep.TotalErrors,
		"interrupted", rep.Interrupted,
		"duration", rep.Duration.Round(time.Millisecond).String(),
	)

	if cfg.Report.GapsFile != "" && len(rep.Blocks.Gaps) > 0 {
		if err := report.WriteGapsFile(cfg.Report.GapsFile, rep.Blocks); err != nil {
			logger.Error("write gaps file failed", "error", err)
		} else {
			logger.Info("gaps file written", "path", cfg.Report.GapsFile, "gaps", len(rep.Blocks.Gaps))
		}
	}

	opts := report.Options{Format: cfg.Report.Format, MaxGaps: cfg.Report.MaxGaps, GapsFile: cfg.Report.GapsFile}
	if err := report.Render(os.Stdout, rep, opts); err != nil {
		logger.Error("render report failed", "error", err)
		os.Exit(1)
	}

	if cfg.Publish.Enabled {
		publishReport(ctx, cfg, rep, logger)
	}
}

// loadConfig layers flags over env over the optional YAML file.
func loadConfig() (config.Config, error) {
	configPath := flag.String("config", "", "path to YAML config file")
	dir := flag.String("dir", "", "directory holding the state-change file pair")
	flag.Parse()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = envValue("STATESCAN_CONFIG")
	}

	var cfg config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if d := strings.TrimSpace(*dir); d != "" {
		cfg.Source = config.SourceConfig{Dir: d}
	} else if d := envValue("STATESCAN_DIR"); d != "" {
		cfg.Source = config.SourceConfig{Dir: d}
	}
	if addr := envValue("STATESCAN_SERVER_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}

	if err := cfg.Finalize(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openedSource binds the log to its display label and, for archived
// sources, the health monitor sampling the object store.
type openedSource struct {
	label  string
	health *archive.HealthMonitor
}

func openSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (*statelog.Log, openedSource, error) {
	src := cfg.Source
	switch {
	case src.Dir != "":
		log, err := statelog.Open(src.Dir, cfg.Scan.MaxRecordBytes)
		if err != nil {
			return nil, openedSource{}, err
		}
		logger.Info("reading local file pair", "dir", src.Dir)
		return log, openedSource{label: src.Dir}, nil
	case src.IndexPath != "":
		log, err := statelog.OpenFiles(src.IndexPath, src.DataPath, cfg.Scan.MaxRecordBytes)
		if err != nil {
			return nil, openedSource{}, err
		}
		logger.Info("reading local file pair", "index", src.IndexPath, "data", src.DataPath)
		return log, openedSource{label: src.DataPath}, nil
	case src.S3 != nil:
		s3 := src.S3
		client, err := archive.NewS3Client(ctx, archive.S3Config{
			Bucket:          s3.Bucket,
			Region:          s3.Region,
			Endpoint:        s3.Endpoint,
			ForcePathStyle:  s3.PathStyle,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			SessionToken:    s3.SessionToken,
		})
		if err != nil {
			return nil, openedSource{}, fmt.Errorf("init s3 client: %w", err)
		}
		monitor := archive.NewHealthMonitor(archive.HealthConfig{})
		monitored := archive.Monitor(client, monitor)
		indexKey, dataKey := s3.IndexKey, s3.DataKey
		if s3.Prefix != "" {
			pair, err := archive.ResolvePair(ctx, monitored, s3.Prefix)
			if err != nil {
				return nil, openedSource{}, fmt.Errorf("discover pair: %w", err)
			}
			indexKey, dataKey = pair.IndexKey, pair.DataKey
			logger.Info("discovered archived pair", "dir", pair.Dir, "index_bytes", pair.IndexSize, "data_bytes", pair.DataSize)
		}
		log, err := archive.OpenLog(ctx, monitored, indexKey, dataKey, archive.LogOptions{
			PageBytes:      s3.PageBytes,
			CacheBytes:     s3.CacheBytes,
			MaxRecordBytes: cfg.Scan.MaxRecordBytes,
		})
		if err != nil {
			return nil, openedSource{}, err
		}
		label := fmt.Sprintf("s3://%s/%s", s3.Bucket, dataKey)
		logger.Info("reading archived file pair", "bucket", s3.Bucket, "index_key", indexKey, "data_key", dataKey, "endpoint", s3.Endpoint)
		return log, openedSource{label: label, health: monitor}, nil
	}
	return nil, openedSource{}, fmt.Errorf("no source configured")
}

func publishReport(ctx context.Context, cfg config.Config, rep *scan.Report, logger *slog.Logger) {
	pub, err := publish.New(publish.Options{
		Brokers:  cfg.Publish.Brokers,
		Topic:    cfg.Publish.Topic,
		ClientID: cfg.Publish.ClientID,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("publish setup failed", "error", err)
		return
	}
	defer pub.Close()
	if err := pub.Publish(ctx, rep); err != nil {
		logger.Error("publish failed", "error", err)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("STATESCAN_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	// Logs go to stderr so the rendered report stays pipeable on stdout.
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	logger := slog.New(handler).With("component", "statescan")
	if env := envValue("STATESCAN_ENV"); env != "" {
		logger = logger.With("env", env)
	}
	return logger
}

func envValue(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
