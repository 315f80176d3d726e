package attack

import (
	"testing"

	"torn_tools/internal/app"
)

func intPtr(v int) *int {
	return &v
}

func attackOn(factionID *int, respect float64) app.Attack {
	return app.Attack{
		Defender:    app.AttackParty{ID: 1, FactionID: factionID},
		RespectGain: respect,
	}
}

func TestIsWarHit(t *testing.T) {
	tests := []struct {
		name     string
		attack   app.Attack
		expected bool
	}{
		{"enemy with respect", attackOn(intPtr(200), 2.5), true},
		{"enemy without respect", attackOn(intPtr(200), 0), false},
		{"enemy with negative respect", attackOn(intPtr(200), -1), false},
		{"other faction with respect", attackOn(intPtr(300), 4), false},
		{"defender without faction", attackOn(nil, 4), false},
		{"zero value attack", app.Attack{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWarHit(tt.attack, 200); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestCountWarHits(t *testing.T) {
	attacks := []app.Attack{
		attackOn(intPtr(200), 3.1),
		attackOn(intPtr(200), 0),
		attackOn(intPtr(300), 2),
		attackOn(nil, 5),
		attackOn(intPtr(200), 0.01),
	}

	if got := CountWarHits(attacks, 200); got != 2 {
		t.Errorf("Expected 2 war hits, got %d", got)
	}
	if got := CountWarHits(attacks, 300); got != 1 {
		t.Errorf("Expected 1 war hit on 300, got %d", got)
	}
	if got := CountWarHits(attacks, 999); got != 0 {
		t.Errorf("Expected 0 war hits on unknown faction, got %d", got)
	}
}

func TestCountWarHitsEmpty(t *testing.T) {
	if got := CountWarHits(nil, 200); got != 0 {
		t.Errorf("Expected 0 for nil log, got %d", got)
	}
	if got := CountWarHits([]app.Attack{}, 200); got != 0 {
		t.Errorf("Expected 0 for empty log, got %d", got)
	}
}

func TestFilterAgainstFaction(t *testing.T) {
	attacks := []app.Attack{
		attackOn(intPtr(200), 1),
		attackOn(intPtr(300), 1),
		attackOn(intPtr(200), 0),
	}

	result := FilterAgainstFaction(attacks, 200)

	if len(result) != 2 {
		t.Errorf("Expected 2 attacks against faction 200, got %d", len(result))
	}
}

func TestCalculateHitStatistics(t *testing.T) {
	attacks := []app.Attack{
		attackOn(intPtr(200), 2),
		attackOn(intPtr(200), 0),
		attackOn(intPtr(200), 1.5),
		attackOn(intPtr(300), 9),
	}

	stats := CalculateHitStatistics(attacks, 200)

	if stats.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", stats.Attempts)
	}
	if stats.WarHits != 2 {
		t.Errorf("Expected 2 war hits, got %d", stats.WarHits)
	}
	if stats.RespectGained != 3.5 {
		t.Errorf("Expected 3.5 respect, got %f", stats.RespectGained)
	}
}
