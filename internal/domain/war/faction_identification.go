package war

import "torn_tools/internal/app"

// FactionPair represents our faction and the enemy factions in a war
type FactionPair struct {
	OurFaction *app.Faction
	Enemies    []app.Faction
}

// IdentifyWarFactions splits a war's participants into ours and the enemies,
// based on our known faction ID. A player without a faction (ID 0) sees
// every participant as an enemy.
//
// Pure function: No I/O operations, fully testable with direct inputs.
func IdentifyWarFactions(factions app.WarFactions, ourFactionID int) FactionPair {
	var pair FactionPair

	for i := range factions {
		faction := factions[i]
		if ourFactionID != 0 && faction.ID == ourFactionID {
			pair.OurFaction = &faction
		} else {
			pair.Enemies = append(pair.Enemies, faction)
		}
	}

	return pair
}
