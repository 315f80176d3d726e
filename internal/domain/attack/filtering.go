package attack

import (
	"torn_tools/internal/app"

	"github.com/rs/zerolog/log"
)

// IsAgainstFaction checks whether the defender of an attack belongs to factionID
// Pure function: No I/O, simple boolean logic
func IsAgainstFaction(attack app.Attack, factionID int) bool {
	return attack.Defender.FactionID != nil && *attack.Defender.FactionID == factionID
}

// IsWarHit reports whether an attack counts as a war hit on the enemy faction:
// the defender is in that faction and the attack gained respect.
// Pure function: No I/O, simple boolean logic
func IsWarHit(attack app.Attack, enemyFactionID int) bool {
	return IsAgainstFaction(attack, enemyFactionID) && attack.RespectGain > 0
}

// FilterAgainstFaction returns the attacks whose defender is in factionID
// Pure function: No I/O, returns new slice without modifying input
func FilterAgainstFaction(attacks []app.Attack, factionID int) []app.Attack {
	var filtered []app.Attack
	for _, attack := range attacks {
		if IsAgainstFaction(attack, factionID) {
			filtered = append(filtered, attack)
		}
	}
	return filtered
}

// CountWarHits counts the war hits on enemyFactionID in an attack log.
// A nil or empty log counts zero.
func CountWarHits(attacks []app.Attack, enemyFactionID int) int {
	hitCount := 0

	for _, attack := range attacks {
		event := log.Debug().
			Int64("attack_id", attack.ID).
			Float64("respect_gain", attack.RespectGain).
			Str("result", attack.Result)
		if attack.Defender.FactionID != nil {
			event = event.Int("defender_faction", *attack.Defender.FactionID)
		}

		if !IsAgainstFaction(attack, enemyFactionID) {
			event.Msg("Skipped attack: wrong faction")
			continue
		}

		// attacksfull has no ranked war flag; the log starts at the war start
		// so any respect-earning hit on the enemy counts
		if attack.RespectGain > 0 {
			event.Msg("Counted war hit")
			hitCount++
		} else {
			event.Msg("Skipped attack: no respect gained")
		}
	}

	log.Debug().
		Int("enemy_faction_id", enemyFactionID).
		Int("attacks_checked", len(attacks)).
		Int("war_hits", hitCount).
		Msg("Counted war hits")

	return hitCount
}
