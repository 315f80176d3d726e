package processing

import (
	"context"
	"fmt"
	"time"

	"torn_tools/internal/app"
	"torn_tools/internal/domain/attack"
	"torn_tools/internal/domain/war"
	"torn_tools/internal/torn"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// WarStatusService aggregates the key owner's profile, faction and wars into
// a single war status
type WarStatusService struct {
	client  TornClientInterface
	tracker APICallTrackerInterface
	now     func() time.Time
}

// NewWarStatusService creates a war status service. tracker may be nil.
func NewWarStatusService(client TornClientInterface, tracker APICallTrackerInterface) *WarStatusService {
	return &WarStatusService{
		client:  client,
		tracker: tracker,
		now:     time.Now,
	}
}

// LoadResult holds the raw API responses of one load
type LoadResult struct {
	Basic     *app.UserBasicResponse
	Faction   *app.UserFactionResponse
	Wars      *app.WarResponse
	Timestamp *app.TimestampResponse

	// Attacks is nil when no war had started
	Attacks *app.AttackResponse
}

// Load runs one aggregation. Any failure is reported through the Error field
// of the returned status; no partial data is returned alongside it.
func (s *WarStatusService) Load(ctx context.Context) *app.WarStatus {
	result, err := s.Fetch(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Msg("Failed to load war status")
		return &app.WarStatus{
			Error:       err.Error(),
			GeneratedAt: s.now(),
		}
	}

	status := BuildWarStatus(result)
	status.GeneratedAt = s.now()

	log.Info().
		Bool("at_war", status.AtWar).
		Bool("upcoming_war", status.UpcomingWar).
		Bool("attacks_fetched", status.AttacksFetched).
		Int("raid_wars", len(status.Raids)).
		Int("territory_wars", len(status.Territory)).
		Msg("Loaded war status")

	return status
}

// Fetch performs the API calls of one load. The four independent reads run
// concurrently and the first failure cancels the rest. The attack log is
// only requested once a war has started.
func (s *WarStatusService) Fetch(ctx context.Context) (*LoadResult, error) {
	var result LoadResult

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		basic, err := s.client.GetUserBasic(gctx)
		if err != nil {
			return err
		}
		s.record(EndpointUserBasic)
		result.Basic = basic
		return nil
	})

	g.Go(func() error {
		faction, err := s.client.GetUserFaction(gctx)
		if err != nil {
			return err
		}
		s.record(EndpointUserFaction)
		result.Faction = faction
		return nil
	})

	g.Go(func() error {
		wars, err := s.client.GetFactionWars(gctx)
		if err != nil {
			return err
		}
		s.record(EndpointFactionWars)
		result.Wars = wars
		return nil
	})

	g.Go(func() error {
		ts, err := s.client.GetTimestamp(gctx)
		if err != nil {
			return err
		}
		s.record(EndpointTimestamp)
		result.Timestamp = ts
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if result.Timestamp == nil {
		return nil, fmt.Errorf("failed to fetch timestamp: empty response")
	}

	start, ok := war.EarliestWarStart(result.Wars, result.Timestamp.Timestamp)
	if !ok {
		log.Debug().
			Int64("server_time", result.Timestamp.Timestamp).
			Msg("No started wars, skipping attack log")
		return &result, nil
	}

	attacks, err := s.client.GetUserAttacks(ctx, start, torn.AttackLogLimit)
	if err != nil {
		return nil, err
	}
	s.record(EndpointUserAttacks)
	if attacks == nil {
		attacks = &app.AttackResponse{}
	}
	result.Attacks = attacks

	return &result, nil
}

func (s *WarStatusService) record(endpoint string) {
	if s.tracker != nil {
		s.tracker.RecordCall(endpoint)
	}
}

// BuildWarStatus turns the raw responses of a load into the view model.
//
// Pure function: No I/O operations, fully testable with direct inputs.
func BuildWarStatus(result *LoadResult) *app.WarStatus {
	status := &app.WarStatus{
		Raids:     []app.WarListEntry{},
		Territory: []app.WarListEntry{},
	}

	if result.Basic != nil {
		status.Profile = result.Basic.Profile
	}
	if result.Faction != nil {
		status.Faction = result.Faction.Faction
	}
	if result.Timestamp != nil {
		status.ServerTime = result.Timestamp.Timestamp
	}

	ourFactionID := 0
	if status.Faction != nil {
		ourFactionID = status.Faction.ID
	}

	if start, ok := war.EarliestWarStart(result.Wars, status.ServerTime); ok {
		status.EarliestWarStart = &start
	}

	var attacks []app.Attack
	if result.Attacks != nil {
		status.AttacksFetched = true
		attacks = result.Attacks.Attacks
	}

	overview := war.Assess(result.Wars, status.ServerTime)
	status.AtWar = overview.AtWar()
	status.UpcomingWar = overview.Upcoming()

	if result.Wars == nil {
		return status
	}
	wars := result.Wars.Wars

	if overview.HasRankedWar {
		status.Ranked = buildRankedView(wars.Ranked, overview.RankedUpcoming, ourFactionID, attacks, status.AttacksFetched)
	}

	if overview.HasRaidWars {
		status.Raids = buildWarList(wars.Raids, "raid", ourFactionID)
	}
	if overview.HasTerritoryWars {
		status.Territory = buildWarList(wars.Territory, "territory", ourFactionID)
	}

	return status
}

func buildRankedView(ranked *app.War, upcoming bool, ourFactionID int, attacks []app.Attack, attacksFetched bool) *app.RankedWarView {
	view := &app.RankedWarView{
		WarID:    ranked.ID,
		Start:    ranked.Start,
		Upcoming: upcoming,
		Enemies:  []app.EnemyView{},
	}

	pair := war.IdentifyWarFactions(ranked.Factions, ourFactionID)
	for _, enemy := range pair.Enemies {
		ev := app.EnemyView{
			FactionID: enemy.ID,
			Name:      enemy.Name,
		}

		if !upcoming {
			if pair.OurFaction != nil && pair.OurFaction.Score != nil && enemy.Score != nil {
				ours, theirs := *pair.OurFaction.Score, *enemy.Score
				ev.OurScore = &ours
				ev.TheirScore = &theirs
			}

			if attacksFetched {
				stats := attack.CalculateHitStatistics(attacks, enemy.ID)
				hits := attack.CountWarHits(attacks, enemy.ID)
				ev.Hits = &hits
				ev.Attempts = &stats.Attempts
				ev.RespectGained = &stats.RespectGained
			}
		}

		view.Enemies = append(view.Enemies, ev)
	}

	return view
}

func buildWarList(wars []*app.War, kind string, ourFactionID int) []app.WarListEntry {
	entries := make([]app.WarListEntry, 0, len(wars))

	for i, w := range wars {
		if w == nil || w.Factions == nil {
			log.Warn().
				Str("war_type", kind).
				Int("index", i).
				Msg("Skipping war with missing factions data")
			continue
		}

		entry := app.WarListEntry{
			WarID:     w.ID,
			Territory: w.Territory,
			Enemies:   []app.EnemyView{},
		}

		pair := war.IdentifyWarFactions(w.Factions, ourFactionID)
		for _, enemy := range pair.Enemies {
			entry.Enemies = append(entry.Enemies, app.EnemyView{
				FactionID: enemy.ID,
				Name:      enemy.Name,
			})
		}

		entries = append(entries, entry)
	}

	return entries
}
