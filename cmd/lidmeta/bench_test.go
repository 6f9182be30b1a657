package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeLatenciesEmpty(t *testing.T) {
	report := summarizeLatencies(nil)
	assert.Equal(t, time.Duration(0), report.p50)
	assert.Equal(t, time.Duration(0), report.p95)
	assert.Equal(t, time.Duration(0), report.mean)
}

func TestSummarizeLatenciesSingle(t *testing.T) {
	report := summarizeLatencies([]time.Duration{50 * time.Millisecond})
	assert.Equal(t, 50*time.Millisecond, report.p50)
	assert.Equal(t, 50*time.Millisecond, report.p95)
	assert.Equal(t, 50*time.Millisecond, report.mean)
}

func TestSummarizeLatenciesMixedOrder(t *testing.T) {
	durations := []time.Duration{
		30 * time.Millisecond,
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
	}
	report := summarizeLatencies(durations)
	assert.Equal(t, 25*time.Millisecond, report.mean)
	assert.Equal(t, 20*time.Millisecond, report.p50)
	assert.Equal(t, 40*time.Millisecond, report.p95)
}

func TestSplitQueriesTrimsEmptyEntries(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitQueries("a,b,c"))
	assert.Equal(t, []string{"a", "b"}, splitQueries("a,,b,"))
	assert.Nil(t, splitQueries(""))
}
