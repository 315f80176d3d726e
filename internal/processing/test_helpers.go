package processing

import (
	"time"

	"torn_tools/internal/app"
	"torn_tools/internal/processing/mocks"
)

const (
	testOurFactionID   = 1000
	testEnemyFactionID = 2000
	testServerTime     = int64(1700000000)
)

func floatPtr(f float64) *float64 { return &f }

func intPtr(i int) *int { return &i }

// newTestWarStatusService creates a service with a fixed clock
func newTestWarStatusService(client TornClientInterface, tracker APICallTrackerInterface) *WarStatusService {
	service := NewWarStatusService(client, tracker)
	service.now = func() time.Time { return time.Unix(testServerTime, 0).UTC() }
	return service
}

// newPeacefulMockClient returns a mock whose faction has no wars
func newPeacefulMockClient() *mocks.MockTornClient {
	client := mocks.NewMockTornClient()
	client.UserBasicResponse = &app.UserBasicResponse{
		Profile: &app.Profile{ID: 42, Name: "Tester", Level: 50},
	}
	client.UserFactionResponse = &app.UserFactionResponse{
		Faction: &app.UserFaction{ID: testOurFactionID, Name: "Our Faction", Tag: "OUR"},
	}
	client.FactionWarsResponse = &app.WarResponse{}
	client.TimestampResponse = &app.TimestampResponse{Timestamp: testServerTime}
	return client
}

// rankedWar builds a ranked war between our faction and the test enemy
func rankedWar(start int64, ourScore, enemyScore *float64) *app.War {
	return &app.War{
		ID:    555,
		Start: start,
		Factions: app.WarFactions{
			{ID: testOurFactionID, Name: "Our Faction", Score: ourScore},
			{ID: testEnemyFactionID, Name: "Enemy Faction", Score: enemyScore},
		},
	}
}

// attackOn builds an attack on a defender from factionID
func attackOn(factionID int, respect float64) app.Attack {
	return app.Attack{
		Defender:    app.AttackParty{ID: 9, FactionID: intPtr(factionID)},
		RespectGain: respect,
		Result:      "Attacked",
	}
}
