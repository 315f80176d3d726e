package processing

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAPICallTracker_RecordCall(t *testing.T) {
	tracker := NewAPICallTracker()

	tracker.RecordCall(EndpointUserBasic)
	tracker.RecordCall(EndpointFactionWars)
	tracker.RecordCall(EndpointFactionWars)

	stats := tracker.Stats()
	if stats.CycleCalls != 3 {
		t.Errorf("Expected 3 cycle calls, got %d", stats.CycleCalls)
	}
	if stats.ByEndpoint[EndpointFactionWars] != 2 {
		t.Errorf("Expected 2 wars calls, got %d", stats.ByEndpoint[EndpointFactionWars])
	}

	// The returned map is a copy
	stats.ByEndpoint[EndpointUserBasic] = 100
	if tracker.Stats().ByEndpoint[EndpointUserBasic] != 1 {
		t.Error("Expected stats map to be a copy")
	}
}

func TestAPICallTracker_StartCycle(t *testing.T) {
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewAPICallTracker()
	tracker.now = func() time.Time { return clock }

	tracker.StartCycle()
	tracker.RecordCall(EndpointFactionWars)
	tracker.RecordCall(EndpointUserFaction)
	tracker.RecordCall(EndpointFactionWars)

	if stats := tracker.Stats(); stats.TotalCalls != 3 || stats.CycleCalls != 3 {
		t.Errorf("Expected 3 cycle and total calls, got %d and %d", stats.CycleCalls, stats.TotalCalls)
	}

	clock = clock.Add(time.Minute)
	tracker.StartCycle()
	tracker.RecordCall(EndpointTimestamp)
	clock = clock.Add(2 * time.Second)

	stats := tracker.Stats()
	if stats.CycleCalls != 1 {
		t.Errorf("Expected 1 call in the second cycle, got %d", stats.CycleCalls)
	}
	if stats.TotalCalls != 4 {
		t.Errorf("Expected total calls to carry over, got %d", stats.TotalCalls)
	}
	if stats.ByEndpoint[EndpointFactionWars] != 2 {
		t.Errorf("Expected endpoint counts to carry over, got %d", stats.ByEndpoint[EndpointFactionWars])
	}
	if stats.Cycles != 2 {
		t.Errorf("Expected 2 cycles, got %d", stats.Cycles)
	}
	if stats.Elapsed != 2*time.Second {
		t.Errorf("Expected 2s elapsed in the cycle, got %v", stats.Elapsed)
	}
	if avg := stats.AveragePerCycle(); avg != 2 {
		t.Errorf("Expected 2 calls per cycle, got %f", avg)
	}
}

func TestCycleStats_AveragePerCycleNoCycles(t *testing.T) {
	if avg := (CycleStats{TotalCalls: 5}).AveragePerCycle(); avg != 0 {
		t.Errorf("Expected 0 before any cycle, got %f", avg)
	}
}

func TestAPICallTracker_ConcurrentRecording(t *testing.T) {
	tracker := NewAPICallTracker()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.RecordCall(EndpointTimestamp)
		}()
	}
	wg.Wait()

	if got := tracker.Stats().ByEndpoint[EndpointTimestamp]; got != 50 {
		t.Errorf("Expected 50 calls, got %d", got)
	}
}

func TestAPICallTracker_LogCycleSummary(t *testing.T) {
	tracker := NewAPICallTracker()

	tracker.StartCycle()
	tracker.RecordCall(EndpointFactionWars)
	tracker.RecordCall(EndpointUserAttacks)

	// Should not panic
	tracker.LogCycleSummary(context.Background())

	if stats := tracker.Stats(); stats.TotalCalls != 2 {
		t.Errorf("Expected 2 total calls after logging, got %d", stats.TotalCalls)
	}
}

func TestAPICallTracker_ExpectedCalls(t *testing.T) {
	tracker := NewAPICallTracker()

	if got := tracker.ExpectedCalls(false); got != 4 {
		t.Errorf("Expected 4 calls without a started war, got %d", got)
	}
	if got := tracker.ExpectedCalls(true); got != 5 {
		t.Errorf("Expected 5 calls with a started war, got %d", got)
	}
}
