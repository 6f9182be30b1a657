package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/davedean/lidmeta/internal/common"
)

// defaultBenchQueries is the fixed query list this subcommand times against
// a running index, replacing the ad-hoc timing done by the original
// tooling's benchmark_search.py.
var defaultBenchQueries = []string{
	"the beatles",
	"radiohead",
	"miles davis",
	"daft punk",
	"bjork",
	"nirvana",
	"the rolling stones",
	"kraftwerk",
	"david bowie",
	"aphex twin",
}

// runBenchSearch runs defaultBenchQueries (or -queries, if given) against the
// configured search service and reports p50/p95/mean latency and hit rate.
func runBenchSearch(cfg *common.Config, logger arbor.ILogger, args []string) error {
	fs := flag.NewFlagSet("bench-search", flag.ExitOnError)
	queriesFlag := fs.String("queries", "", "comma-separated query list (default: a fixed built-in list)")
	limit := fs.Int("limit", 20, "result limit per query")
	fs.Parse(args)

	queries := defaultBenchQueries
	if *queriesFlag != "" {
		queries = splitQueries(*queriesFlag)
	}

	svc, err := openSearchService(cfg, logger)
	if err != nil {
		return fmt.Errorf("open search service: %w", err)
	}

	ctx := context.Background()
	durations := make([]time.Duration, 0, len(queries))
	hits := 0

	for _, q := range queries {
		start := time.Now()
		results, err := svc.Search(ctx, "bench-search", q, *limit)
		elapsed := time.Since(start)
		if err != nil {
			logger.Warn().Err(err).Str("query", q).Msg("query failed")
			continue
		}
		durations = append(durations, elapsed)
		if len(results) > 0 {
			hits++
		}
		logger.Debug().Str("query", q).Dur("elapsed", elapsed).Int("results", len(results)).Msg("bench query")
	}

	report := summarizeLatencies(durations)
	hitRate := 0.0
	if len(queries) > 0 {
		hitRate = float64(hits) / float64(len(queries))
	}

	fmt.Printf("queries: %d  hits: %d (%.0f%%)\n", len(queries), hits, hitRate*100)
	fmt.Printf("p50: %s  p95: %s  mean: %s\n", report.p50, report.p95, report.mean)
	return nil
}

func splitQueries(raw string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			if i > start {
				out = append(out, raw[start:i])
			}
			start = i + 1
		}
	}
	return out
}

type latencyReport struct {
	p50, p95, mean time.Duration
}

// summarizeLatencies computes p50/p95/mean over durations. Percentiles use
// nearest-rank on the sorted sample; an empty input reports all zeros
// rather than dividing by zero.
func summarizeLatencies(durations []time.Duration) latencyReport {
	if len(durations) == 0 {
		return latencyReport{}
	}
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var sum time.Duration
	for _, d := range sorted {
		sum += d
	}

	return latencyReport{
		p50:  percentile(sorted, 0.50),
		p95:  percentile(sorted, 0.95),
		mean: sum / time.Duration(len(sorted)),
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
