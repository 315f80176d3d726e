package processing

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Calls made by every war status load, and the extra attack log read once
// the ranked war has started.
const (
	baseLoadCalls  = 4
	attackLogCalls = 1
)

// APICallTracker accounts Torn API calls per load cycle. Endpoint counts and
// the grand total carry over between cycles.
type APICallTracker struct {
	mu         sync.RWMutex
	now        func() time.Time
	cycles     int64
	cycleStart time.Time
	cycleCalls int64
	totalCalls int64
	byEndpoint map[string]int64
}

// CycleStats is a snapshot of the tracker
type CycleStats struct {
	Cycles     int64
	CycleCalls int64
	TotalCalls int64
	Elapsed    time.Duration
	ByEndpoint map[string]int64
}

// AveragePerCycle is the mean call count of the cycles started so far
func (s CycleStats) AveragePerCycle() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.TotalCalls) / float64(s.Cycles)
}

// NewAPICallTracker starts tracking before the first cycle
func NewAPICallTracker() *APICallTracker {
	return &APICallTracker{
		now:        time.Now,
		cycleStart: time.Now(),
		byEndpoint: make(map[string]int64),
	}
}

// RecordCall counts one request against endpoint in the current cycle
func (t *APICallTracker) RecordCall(endpoint string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cycleCalls++
	t.totalCalls++
	t.byEndpoint[endpoint]++
}

// StartCycle zeroes the per-cycle counter before a load
func (t *APICallTracker) StartCycle() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cycles++
	t.cycleStart = t.now()
	t.cycleCalls = 0
}

// Stats returns a copy of the counters
func (t *APICallTracker) Stats() CycleStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	byEndpoint := make(map[string]int64, len(t.byEndpoint))
	for endpoint, count := range t.byEndpoint {
		byEndpoint[endpoint] = count
	}

	return CycleStats{
		Cycles:     t.cycles,
		CycleCalls: t.cycleCalls,
		TotalCalls: t.totalCalls,
		Elapsed:    t.now().Sub(t.cycleStart),
		ByEndpoint: byEndpoint,
	}
}

// ExpectedCalls is the number of requests one load makes: the four parallel
// reads, plus the attack log when the war has started.
func (t *APICallTracker) ExpectedCalls(warStarted bool) int64 {
	if warStarted {
		return baseLoadCalls + attackLogCalls
	}
	return baseLoadCalls
}

// LogCycleSummary logs the current cycle's calls against the running totals
func (t *APICallTracker) LogCycleSummary(ctx context.Context) {
	stats := t.Stats()

	event := log.Info().
		Int64("cycle", stats.Cycles).
		Int64("cycle_calls", stats.CycleCalls).
		Int64("total_calls", stats.TotalCalls).
		Float64("avg_calls_per_cycle", stats.AveragePerCycle()).
		Dur("elapsed", stats.Elapsed)
	for endpoint, count := range stats.ByEndpoint {
		event = event.Int64(endpoint+"_calls", count)
	}
	event.Msg("API call cycle summary")
}
