package search

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/davedean/lidmeta/internal/interfaces"
)

// Service implements interfaces.SearchService: C7's ranking algorithm
// (spec.md §4.7) over an FTS reader and a sharded document store, with a
// result cache and request coalescing layered on top.
type Service struct {
	reader          interfaces.FTSReader
	docs            interfaces.DocumentStore
	cache           *ResultCache
	coalesce        *Coalescer
	debounceLimiter *debounceLimiter
	metrics         Metrics

	minQueryLen         int
	fuzzyMinQueryLen    int
	innerLimitMult      int
	innerLimitMax       int
	fuzzyMaxCandidates  int
	fuzzyPenalty        float64
	similarityThreshold float64
	debounce            time.Duration

	serviceName string
}

// Config carries the tunables spec.md §6 lists for the ranking algorithm.
type Config struct {
	MinQueryLen         int
	FuzzyMinQueryLen    int
	InnerLimitMult      int
	InnerLimitMax       int
	FuzzyMaxCandidates  int
	FuzzyPenalty        float64
	SimilarityThreshold float64
	Debounce            time.Duration
	CacheSize           int
	CacheTTL            time.Duration
	ServiceName         string
}

func NewService(reader interfaces.FTSReader, docs interfaces.DocumentStore, cfg Config) *Service {
	name := cfg.ServiceName
	if name == "" {
		name = "lidmeta-search"
	}
	var limiter *debounceLimiter
	if cfg.Debounce > 0 {
		limiter = newDebounceLimiter(cfg.Debounce)
	}
	return &Service{
		reader:              reader,
		docs:                docs,
		cache:               NewResultCache(cfg.CacheSize, cfg.CacheTTL),
		coalesce:            NewCoalescer(),
		debounceLimiter:     limiter,
		minQueryLen:         cfg.MinQueryLen,
		fuzzyMinQueryLen:    cfg.FuzzyMinQueryLen,
		innerLimitMult:      cfg.InnerLimitMult,
		innerLimitMax:       cfg.InnerLimitMax,
		fuzzyMaxCandidates:  cfg.FuzzyMaxCandidates,
		fuzzyPenalty:        cfg.FuzzyPenalty,
		similarityThreshold: cfg.SimilarityThreshold,
		debounce:            cfg.Debounce,
		serviceName:         name,
	}
}

type scoredResult struct {
	id    string
	score float64
}

// Search implements the six-step ranking algorithm from spec.md §4.7.
func (s *Service) Search(ctx context.Context, clientKey, query string, limit int) ([]interfaces.SearchResult, error) {
	s.metrics.beginRequest()
	start := time.Now()
	var returned int
	defer func() {
		s.metrics.endRequest(time.Since(start).Milliseconds(), returned)
	}()

	trimmed := strings.TrimSpace(query)
	if len(trimmed) < s.minQueryLen {
		s.metrics.shortQuery()
		return []interfaces.SearchResult{}, nil
	}

	lowered := strings.ToLower(trimmed)
	if cached, ok := s.cache.Get(lowered, limit); ok {
		s.metrics.cacheHit()
		returned = len(cached)
		return cached, nil
	}
	s.metrics.cacheMiss()

	reqCtx, done := s.coalesce.Begin(ctx, clientKey)
	defer done()

	if s.debounceLimiter != nil {
		reservation := s.debounceLimiter.reserve(clientKey)
		if delay := reservation.Delay(); delay > 0 {
			select {
			case <-time.After(delay):
			case <-reqCtx.Done():
				reservation.Cancel()
				s.metrics.debouncedCancel()
				return []interfaces.SearchResult{}, nil
			}
		}
	}

	if reqCtx.Err() != nil {
		s.metrics.cancelledInProcessing()
		return []interfaces.SearchResult{}, nil
	}

	folded := Fold(lowered)
	innerLimit := min(s.innerLimitMax, max(100, limit*s.innerLimitMult))

	candidates, err := s.reader.Query(reqCtx, lowered, innerLimit)
	if err != nil {
		return nil, err
	}
	if reqCtx.Err() != nil {
		s.metrics.cancelledInProcessing()
		return []interfaces.SearchResult{}, nil
	}

	scored := make(map[string]float64, len(candidates))
	order := make([]string, 0, len(candidates))
	for _, c := range candidates {
		base := math.Max(1, math.Round(100-c.Rank))
		boost := matchBoost(folded, c.FoldedName)
		if _, seen := scored[c.ID]; !seen {
			order = append(order, c.ID)
		}
		scored[c.ID] = base + boost
	}

	if reqCtx.Err() != nil {
		s.metrics.cancelledInProcessing()
		return []interfaces.SearchResult{}, nil
	}

	if len(candidates) < 20 && len(trimmed) >= s.fuzzyMinQueryLen {
		s.metrics.fuzzyInvocation()
		if err := s.fuzzyFallback(reqCtx, folded, scored, &order); err != nil {
			return nil, err
		}
	} else if len(trimmed) < s.fuzzyMinQueryLen {
		s.metrics.fuzzySkippedShort()
	}

	if reqCtx.Err() != nil {
		s.metrics.cancelledInProcessing()
		return []interfaces.SearchResult{}, nil
	}

	results := make([]scoredResult, 0, len(order))
	for _, id := range order {
		results = append(results, scoredResult{id: id, score: scored[id]})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > limit {
		results = results[:limit]
	}

	out := make([]interfaces.SearchResult, 0, len(results))
	for _, r := range results {
		doc, err := s.docs.ReadArtist(r.id)
		if err != nil {
			continue
		}
		out = append(out, interfaces.SearchResult{Artist: doc, Album: nil, Score: r.score})
	}

	s.cache.Put(lowered, limit, out)
	returned = len(out)
	return out, nil
}

// fuzzyFallback appends similarity-scored candidates to scored/order for
// any MBID not already present, per spec.md §4.7 step 5.
func (s *Service) fuzzyFallback(ctx context.Context, folded string, scored map[string]float64, order *[]string) error {
	anchor := ""
	if fields := strings.Fields(folded); len(fields) > 0 {
		anchor = fields[0]
	}
	primary, _ := DoublePhonetic(folded)

	candidates, err := s.reader.AllForFuzzy(ctx, anchor, primary, s.fuzzyMaxCandidates)
	if err != nil {
		return err
	}

	for _, c := range candidates {
		if _, exists := scored[c.ID]; exists {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}
		similarity := SimilarityRatio(folded, c.FoldedName)
		if c.PhoneticPrimary == primary || c.PhoneticSecondary == primary {
			similarity = math.Min(100, similarity+15)
		}
		if similarity < s.similarityThreshold {
			continue
		}
		score := math.Max(1, math.Round(similarity-s.fuzzyPenalty))
		scored[c.ID] = score
		*order = append(*order, c.ID)
	}
	return nil
}

// matchBoost scores a foldedQuery against a candidate's folded name with
// the exact/prefix/word-contains/suffix tiers from spec.md §4.7 step 4.
func matchBoost(foldedQuery, foldedName string) float64 {
	switch {
	case foldedQuery == foldedName:
		return 50
	case strings.HasPrefix(foldedName, foldedQuery+" "):
		return 30
	case containsWord(foldedName, foldedQuery):
		return 20
	case strings.HasSuffix(foldedName, " "+foldedQuery):
		return 10
	default:
		return 0
	}
}

func containsWord(haystack, word string) bool {
	for _, f := range strings.Fields(haystack) {
		if f == word {
			return true
		}
	}
	return strings.Contains(haystack, word)
}

// rowCounter and sizer are satisfied by *Reader; Stats uses them via type
// assertion so interfaces.FTSReader doesn't have to carry diagnostics-only
// methods alongside the ranking path's Query/AllForFuzzy.
type rowCounter interface {
	RowCount(ctx context.Context) (int64, error)
}

type sizer interface {
	SizeBytes() (int64, error)
}

func (s *Service) Stats(ctx context.Context) (interfaces.Stats, error) {
	indexes := map[string]int64{}
	if rc, ok := s.reader.(rowCounter); ok {
		if n, err := rc.RowCount(ctx); err == nil {
			indexes["artists"] = n
		}
	}

	var totalMB float64
	if sz, ok := s.reader.(sizer); ok {
		if n, err := sz.SizeBytes(); err == nil {
			totalMB = float64(n) / (1024 * 1024)
		}
	}

	return interfaces.Stats{
		SearchIndexes: indexes,
		TotalSizeMB:   totalMB,
		Metrics:       s.metrics.Snapshot(),
		Config: map[string]interface{}{
			"min_query_len":        s.minQueryLen,
			"fuzzy_min_query_len":  s.fuzzyMinQueryLen,
			"inner_limit_mult":     s.innerLimitMult,
			"inner_limit_max":      s.innerLimitMax,
			"fuzzy_max_candidates": s.fuzzyMaxCandidates,
			"fuzzy_penalty":        s.fuzzyPenalty,
			"similarity_threshold": s.similarityThreshold,
			"debounce":             s.debounce.String(),
		},
	}, nil
}

func (s *Service) Health(ctx context.Context) interfaces.Health {
	return interfaces.Health{
		Status:    "ok",
		Service:   s.serviceName,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
