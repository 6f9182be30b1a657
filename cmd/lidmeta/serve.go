package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/davedean/lidmeta/internal/common"
	"github.com/davedean/lidmeta/internal/interfaces"
	"github.com/davedean/lidmeta/internal/pipeline/writer"
	"github.com/davedean/lidmeta/internal/scheduler"
	"github.com/davedean/lidmeta/internal/search"
	"github.com/davedean/lidmeta/internal/server"
)

// runServe hosts C7 over whatever C4/C6 output currently exists on disk. A
// missing FTS database is not fatal: the search service is left nil and the
// HTTP handlers degrade to 503 per spec.md §7, so an operator can start
// serve before the first build finishes.
func runServe(cfg *common.Config, logger arbor.ILogger) error {
	var searchService interfaces.SearchService

	if cfg.Search.Mode != "disabled" {
		if _, err := os.Stat(cfg.Storage.FTSPath); err == nil {
			svc, err := openSearchService(cfg, logger)
			if err != nil {
				logger.Warn().Err(err).Msg("failed to open search service, serving in degraded mode")
			} else {
				searchService = svc
			}
		} else {
			logger.Warn().Str("fts_path", cfg.Storage.FTSPath).Msg("no fts database yet, serving in degraded mode")
		}
	}

	srv := server.New(cfg, searchService, logger)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(cfg.Scheduler, func() error { return runBuild(cfg, logger) }, logger)
		if err := sched.Start(); err != nil {
			logger.Warn().Err(err).Msg("failed to start scheduler, continuing without unattended rebuilds")
			sched = nil
		} else {
			logger.Info().Str("schedule", cfg.Scheduler.Schedule).Msg("scheduler started")
		}
	}

	common.SafeGo(logger, "http-server", func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("server stopped unexpectedly")
		}
	})

	logger.Info().Int("port", cfg.Server.Port).Str("host", cfg.Server.Host).Msg("serve ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.Info().Msg("interrupt received, shutting down")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func openSearchService(cfg *common.Config, logger arbor.ILogger) (interfaces.SearchService, error) {
	reader, err := search.OpenReader(cfg.Storage.FTSPath)
	if err != nil {
		return nil, err
	}
	docs, err := writer.Open(cfg.Storage.DocumentRoot, filepath.Join(cfg.Storage.ManifestDir, "documents"))
	if err != nil {
		reader.Close()
		return nil, err
	}

	debounce, err := time.ParseDuration(cfg.Search.DebounceWindow)
	if err != nil {
		debounce = 0
	}
	cacheTTL, err := time.ParseDuration(cfg.Search.CacheTTL)
	if err != nil {
		cacheTTL = 10 * time.Second
	}

	svc := search.NewService(reader, docs, search.Config{
		MinQueryLen:         cfg.Search.MinQueryLen,
		FuzzyMinQueryLen:    cfg.Search.FuzzyMinQueryLen,
		InnerLimitMult:      cfg.Search.InnerLimitMult,
		InnerLimitMax:       cfg.Search.InnerLimitMax,
		FuzzyMaxCandidates:  cfg.Search.FuzzyMaxCandidates,
		FuzzyPenalty:        cfg.Search.FuzzyPenalty,
		SimilarityThreshold: cfg.Search.SimilarityThreshold,
		Debounce:            debounce,
		CacheSize:           cfg.Search.CacheSize,
		CacheTTL:            cacheTTL,
		ServiceName:         "lidmeta-search",
	})
	logger.Info().Str("fts_path", cfg.Storage.FTSPath).Msg("search service opened")
	return svc, nil
}
