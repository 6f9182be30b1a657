package search

import "sync/atomic"

// Metrics mirrors the counter set the original search service exposed
// (see _examples/original_source/search_service/main.py's METRICS dict),
// named identically so operators migrating dashboards keep the same keys.
type Metrics struct {
	requestsTotal             int64
	requestsActive            int64
	requestsCompleted         int64
	shortQueries              int64
	debouncedCanceled         int64
	cacheHits                 int64
	cacheMisses               int64
	cancelledDuringProcessing int64
	fuzzyInvocations          int64
	fuzzySkippedShort         int64
	resultsReturnedTotal      int64
	executionMsTotal          int64
}

func (m *Metrics) beginRequest() {
	atomic.AddInt64(&m.requestsTotal, 1)
	atomic.AddInt64(&m.requestsActive, 1)
}

func (m *Metrics) endRequest(elapsedMs int64, resultCount int) {
	atomic.AddInt64(&m.requestsActive, -1)
	atomic.AddInt64(&m.requestsCompleted, 1)
	atomic.AddInt64(&m.executionMsTotal, elapsedMs)
	atomic.AddInt64(&m.resultsReturnedTotal, int64(resultCount))
}

func (m *Metrics) shortQuery()              { atomic.AddInt64(&m.shortQueries, 1) }
func (m *Metrics) debouncedCancel()         { atomic.AddInt64(&m.debouncedCanceled, 1) }
func (m *Metrics) cacheHit()                { atomic.AddInt64(&m.cacheHits, 1) }
func (m *Metrics) cacheMiss()               { atomic.AddInt64(&m.cacheMisses, 1) }
func (m *Metrics) cancelledInProcessing()   { atomic.AddInt64(&m.cancelledDuringProcessing, 1) }
func (m *Metrics) fuzzyInvocation()         { atomic.AddInt64(&m.fuzzyInvocations, 1) }
func (m *Metrics) fuzzySkippedShort()       { atomic.AddInt64(&m.fuzzySkippedShort, 1) }

// Snapshot returns the current metric values as a plain map, the shape the
// /stats handler and §4.7's "metrics" field serialize.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"requests_total":              atomic.LoadInt64(&m.requestsTotal),
		"requests_active":             atomic.LoadInt64(&m.requestsActive),
		"requests_completed":          atomic.LoadInt64(&m.requestsCompleted),
		"short_queries":               atomic.LoadInt64(&m.shortQueries),
		"debounced_canceled":          atomic.LoadInt64(&m.debouncedCanceled),
		"cache_hits":                  atomic.LoadInt64(&m.cacheHits),
		"cache_misses":                atomic.LoadInt64(&m.cacheMisses),
		"cancelled_during_processing": atomic.LoadInt64(&m.cancelledDuringProcessing),
		"fuzzy_invocations":           atomic.LoadInt64(&m.fuzzyInvocations),
		"fuzzy_skipped_short":         atomic.LoadInt64(&m.fuzzySkippedShort),
		"results_returned_total":      atomic.LoadInt64(&m.resultsReturnedTotal),
		"execution_ms_total":          atomic.LoadInt64(&m.executionMsTotal),
	}
}
