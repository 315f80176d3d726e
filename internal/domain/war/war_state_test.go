package war

import (
	"testing"
	"time"

	"torn_tools/internal/app"
)

func TestAssess(t *testing.T) {
	const now = int64(5000)
	participants := app.WarFactions{{ID: 1}, {ID: 2}}

	tests := []struct {
		name          string
		wars          *app.WarResponse
		expectedState WarState
		atWar         bool
		upcoming      bool
	}{
		{
			name:          "nothing",
			wars:          &app.WarResponse{},
			expectedState: NoWars,
		},
		{
			name:          "upcoming ranked war",
			wars:          &app.WarResponse{Wars: app.Wars{Ranked: &app.War{Start: 6000, Factions: participants}}},
			expectedState: PreWar,
			upcoming:      true,
		},
		{
			name:          "active ranked war",
			wars:          &app.WarResponse{Wars: app.Wars{Ranked: &app.War{Start: 4000, Factions: participants}}},
			expectedState: ActiveWar,
			atWar:         true,
		},
		{
			name:          "ranked war without participant list is ignored",
			wars:          &app.WarResponse{Wars: app.Wars{Ranked: &app.War{Start: 4000}}},
			expectedState: NoWars,
		},
		{
			name:          "raid war makes us at war",
			wars:          &app.WarResponse{Wars: app.Wars{Raids: []*app.War{{Start: 4500}}}},
			expectedState: ActiveWar,
			atWar:         true,
		},
		{
			name: "territory war plus upcoming ranked",
			wars: &app.WarResponse{Wars: app.Wars{
				Ranked:    &app.War{Start: 9000, Factions: participants},
				Territory: []*app.War{{Start: 100}},
			}},
			expectedState: ActiveWar,
			atWar:         true,
			upcoming:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			overview := Assess(tt.wars, now)
			state := StateOf(&app.WarStatus{AtWar: overview.AtWar(), UpcomingWar: overview.Upcoming()})

			if state != tt.expectedState {
				t.Errorf("Expected state %v, got %v", tt.expectedState, state)
			}
			if overview.AtWar() != tt.atWar {
				t.Errorf("Expected AtWar %v, got %v", tt.atWar, overview.AtWar())
			}
			if overview.Upcoming() != tt.upcoming {
				t.Errorf("Expected Upcoming %v, got %v", tt.upcoming, overview.Upcoming())
			}
		})
	}
}

func TestAssessNil(t *testing.T) {
	overview := Assess(nil, 1)
	if overview.AtWar() || overview.Upcoming() {
		t.Error("Expected no wars for nil response")
	}
}

func TestWarStateString(t *testing.T) {
	tests := map[WarState]string{
		NoWars:       "NoWars",
		PreWar:       "PreWar",
		ActiveWar:    "ActiveWar",
		WarState(99): "Unknown",
	}
	for state, expected := range tests {
		if state.String() != expected {
			t.Errorf("Expected %s, got %s", expected, state.String())
		}
	}
}

func TestWarStateManager(t *testing.T) {
	wsm := NewWarStateManager()
	clock := time.Unix(1000, 0)
	wsm.now = func() time.Time { return clock }

	if wsm.GetCurrentState() != NoWars {
		t.Fatalf("Expected initial state NoWars, got %v", wsm.GetCurrentState())
	}

	if got := wsm.NextInterval(0); got != NoWarsUpdateInterval {
		t.Errorf("Expected NoWars interval %v, got %v", NoWarsUpdateInterval, got)
	}

	wsm.UpdateFromStatus(&app.WarStatus{UpcomingWar: true})
	if wsm.GetCurrentState() != PreWar {
		t.Errorf("Expected PreWar, got %v", wsm.GetCurrentState())
	}
	if got := wsm.NextInterval(0); got != PreWarUpdateInterval {
		t.Errorf("Expected PreWar interval %v, got %v", PreWarUpdateInterval, got)
	}

	clock = clock.Add(time.Hour)
	wsm.UpdateFromStatus(&app.WarStatus{AtWar: true})
	if wsm.GetCurrentState() != ActiveWar {
		t.Errorf("Expected ActiveWar, got %v", wsm.GetCurrentState())
	}
	if !wsm.lastStateChange.Equal(clock) {
		t.Errorf("Expected last state change %v, got %v", clock, wsm.lastStateChange)
	}
	if got := wsm.NextInterval(0); got != ActiveWarUpdateInterval {
		t.Errorf("Expected ActiveWar interval %v, got %v", ActiveWarUpdateInterval, got)
	}

	if got := wsm.NextInterval(7 * time.Minute); got != 7*time.Minute {
		t.Errorf("Expected fixed interval to win, got %v", got)
	}
}

func TestStateOf(t *testing.T) {
	testCases := []struct {
		name     string
		status   app.WarStatus
		expected WarState
	}{
		{"Peace", app.WarStatus{}, NoWars},
		{"Upcoming", app.WarStatus{UpcomingWar: true}, PreWar},
		{"AtWar", app.WarStatus{AtWar: true}, ActiveWar},
		{"AtWarWithUpcoming", app.WarStatus{AtWar: true, UpcomingWar: true}, ActiveWar},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StateOf(&tc.status); got != tc.expected {
				t.Errorf("Expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestWarStateManagerUpdateFromStatus(t *testing.T) {
	wsm := NewWarStateManager()

	if got := wsm.UpdateFromStatus(&app.WarStatus{AtWar: true}); got != ActiveWar {
		t.Fatalf("Expected ActiveWar, got %v", got)
	}

	if got := wsm.UpdateFromStatus(&app.WarStatus{Error: "failed to fetch wars data"}); got != ActiveWar {
		t.Errorf("Expected failed load to keep ActiveWar, got %v", got)
	}
	if got := wsm.UpdateFromStatus(nil); got != ActiveWar {
		t.Errorf("Expected nil status to keep ActiveWar, got %v", got)
	}

	if got := wsm.UpdateFromStatus(&app.WarStatus{}); got != NoWars {
		t.Errorf("Expected NoWars, got %v", got)
	}
}
