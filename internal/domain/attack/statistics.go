package attack

import "torn_tools/internal/app"

// HitStatistics summarizes our attacks on one enemy faction
type HitStatistics struct {
	Attempts      int
	WarHits       int
	RespectGained float64
}

// CalculateHitStatistics tallies every attack on enemyFactionID, the subset
// that counts as war hits, and the respect those hits earned.
//
// Pure function: No I/O operations, fully testable with direct inputs.
func CalculateHitStatistics(attacks []app.Attack, enemyFactionID int) HitStatistics {
	against := FilterAgainstFaction(attacks, enemyFactionID)
	stats := HitStatistics{Attempts: len(against)}

	for _, attack := range against {
		if attack.RespectGain > 0 {
			stats.WarHits++
			stats.RespectGained += attack.RespectGain
		}
	}

	return stats
}
