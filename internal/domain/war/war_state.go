package war

import (
	"time"

	"torn_tools/internal/app"

	"github.com/rs/zerolog/log"
)

// Update intervals used by the watch loop for each state
const (
	NoWarsUpdateInterval    = 30 * time.Minute
	PreWarUpdateInterval    = 5 * time.Minute
	ActiveWarUpdateInterval = 1 * time.Minute
)

// WarState represents the phase a faction is in regarding wars
type WarState int

const (
	// NoWars indicates no active or upcoming wars exist
	NoWars WarState = iota

	// PreWar indicates a ranked war is scheduled but hasn't started yet
	PreWar

	// ActiveWar indicates at least one war is in progress
	ActiveWar
)

// String returns the string representation of a war state
func (ws WarState) String() string {
	switch ws {
	case NoWars:
		return "NoWars"
	case PreWar:
		return "PreWar"
	case ActiveWar:
		return "ActiveWar"
	default:
		return "Unknown"
	}
}

// Overview summarizes which kinds of wars are present at a point in time.
// Raid and territory wars count as active whenever their list is non-empty;
// the API only lists those while they run.
type Overview struct {
	HasRankedWar     bool
	RankedUpcoming   bool
	RankedActive     bool
	HasRaidWars      bool
	HasTerritoryWars bool
}

// AtWar reports whether any war is currently being fought
func (o Overview) AtWar() bool {
	return o.RankedActive || o.HasRaidWars || o.HasTerritoryWars
}

// Upcoming reports whether a ranked war is scheduled
func (o Overview) Upcoming() bool {
	return o.RankedUpcoming
}

// Assess builds the overview of a wars response at server time now.
// A ranked war only counts when it carries a participant list.
//
// Pure function: No I/O operations, fully testable with direct inputs.
func Assess(wars *app.WarResponse, now int64) Overview {
	var o Overview
	if wars == nil {
		return o
	}

	ranked := wars.Wars.Ranked
	o.HasRankedWar = ranked != nil && ranked.Factions != nil
	o.RankedUpcoming = o.HasRankedWar && ranked.Start > now
	o.RankedActive = o.HasRankedWar && ranked.Start <= now
	o.HasRaidWars = len(wars.Wars.Raids) > 0
	o.HasTerritoryWars = len(wars.Wars.Territory) > 0

	return o
}

// WarStateManager remembers the last observed war state across watch cycles
// and picks the polling interval for the next one.
type WarStateManager struct {
	currentState    WarState
	lastStateChange time.Time
	now             func() time.Time
}

// NewWarStateManager creates a new war state manager
func NewWarStateManager() *WarStateManager {
	return &WarStateManager{
		currentState:    NoWars,
		lastStateChange: time.Now(),
		now:             time.Now,
	}
}

// GetCurrentState returns the last observed state
func (wsm *WarStateManager) GetCurrentState() WarState {
	return wsm.currentState
}

// StateOf maps an aggregated war status to a war state. Active wars take
// priority over an upcoming ranked war.
func StateOf(status *app.WarStatus) WarState {
	switch {
	case status.AtWar:
		return ActiveWar
	case status.UpcomingWar:
		return PreWar
	default:
		return NoWars
	}
}

// UpdateFromStatus records the state of a loaded war status. Failed loads
// leave the state unchanged.
func (wsm *WarStateManager) UpdateFromStatus(status *app.WarStatus) WarState {
	if status == nil || status.Failed() {
		return wsm.currentState
	}
	return wsm.transition(StateOf(status))
}

func (wsm *WarStateManager) transition(newState WarState) WarState {
	if newState != wsm.currentState {
		now := wsm.now()
		log.Info().
			Str("previous_state", wsm.currentState.String()).
			Str("new_state", newState.String()).
			Dur("time_in_previous_state", now.Sub(wsm.lastStateChange)).
			Msg("War state transition")

		wsm.currentState = newState
		wsm.lastStateChange = now
	}
	return wsm.currentState
}

// NextInterval returns how long to wait before the next cycle. A positive
// fixed interval always wins; otherwise the interval follows the state.
func (wsm *WarStateManager) NextInterval(fixed time.Duration) time.Duration {
	if fixed > 0 {
		return fixed
	}

	switch wsm.currentState {
	case ActiveWar:
		return ActiveWarUpdateInterval
	case PreWar:
		return PreWarUpdateInterval
	default:
		return NoWarsUpdateInterval
	}
}
