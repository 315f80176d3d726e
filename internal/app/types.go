package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Profile is the profile block of /v2/user/basic
type Profile struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// UserBasicResponse represents the response from /v2/user/basic
type UserBasicResponse struct {
	Profile *Profile `json:"profile"`
}

// UserFaction is the faction block of /v2/user/faction
type UserFaction struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Tag           string `json:"tag"`
	Position      string `json:"position"`
	DaysInFaction int    `json:"days_in_faction"`
}

// UserFactionResponse represents the response from /v2/user/faction.
// Faction is nil for players without a faction.
type UserFactionResponse struct {
	Faction *UserFaction `json:"faction"`
}

// TimestampResponse represents the response from /v2/torn/timestamp
type TimestampResponse struct {
	Timestamp int64 `json:"timestamp"`
}

// Faction represents a faction participating in a war
type Faction struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Score *float64 `json:"score"`
	Chain int      `json:"chain"`
}

// WarFactions is the participant list of a war. The API sends it either as a
// list or as an object keyed by faction ID; null entries are dropped.
type WarFactions []Faction

// UnmarshalJSON accepts a list, an ID-keyed object or null. Null leaves the
// list nil so callers can tell a missing participant list from an empty one.
func (wf *WarFactions) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}

	var entries []*Faction
	if err := decodeListOrMap(data, &entries); err != nil {
		return fmt.Errorf("failed to decode war factions: %w", err)
	}

	factions := make(WarFactions, 0, len(entries))
	for _, f := range entries {
		if f != nil {
			factions = append(factions, *f)
		}
	}
	*wf = factions
	return nil
}

// War represents a ranked, raid or territory war from the API
type War struct {
	ID        int         `json:"war_id"`
	Start     int64       `json:"start"`
	End       *int64      `json:"end"`
	Target    int         `json:"target"`
	Winner    *int        `json:"winner"`
	Territory string      `json:"territory"`
	Factions  WarFactions `json:"factions"`
}

// Wars groups the three war types. Ranked is a single object; raid and
// territory wars are lists that may contain null entries.
type Wars struct {
	Ranked    *War   `json:"ranked"`
	Raids     []*War `json:"raids"`
	Territory []*War `json:"territory"`
}

// WarResponse represents the response from /v2/faction/wars
type WarResponse struct {
	Pacts []json.RawMessage `json:"pacts"`
	Wars  Wars              `json:"wars"`
}

// AttackParty is the attacker or defender of an attacksfull record
type AttackParty struct {
	ID        int  `json:"id"`
	FactionID *int `json:"faction_id"`
}

// Attack represents a record from /v2/user/attacksfull
type Attack struct {
	ID          int64       `json:"id"`
	Code        string      `json:"code"`
	Started     int64       `json:"started"`
	Ended       int64       `json:"ended"`
	Attacker    AttackParty `json:"attacker"`
	Defender    AttackParty `json:"defender"`
	Result      string      `json:"result"`
	RespectGain float64     `json:"respect_gain"`
	RespectLoss float64     `json:"respect_loss"`
}

// AttackList is the attack log. Like WarFactions it may arrive as a list or
// as an object keyed by attack ID.
type AttackList []Attack

// UnmarshalJSON accepts a list, an ID-keyed object or null
func (al *AttackList) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}

	var entries []*Attack
	if err := decodeListOrMap(data, &entries); err != nil {
		return fmt.Errorf("failed to decode attacks: %w", err)
	}

	attacks := make(AttackList, 0, len(entries))
	for _, a := range entries {
		if a != nil {
			attacks = append(attacks, *a)
		}
	}
	*al = attacks
	return nil
}

// AttackResponse represents the response from /v2/user/attacksfull
type AttackResponse struct {
	Attacks AttackList `json:"attacks"`
}

func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodeListOrMap decodes a JSON list, or the values of a JSON object in
// ascending key order, into out (a pointer to a slice).
func decodeListOrMap[T any](data []byte, out *[]T) error {
	if isNull(data) {
		*out = nil
		return nil
	}

	trimmed := bytes.TrimSpace(data)
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}

	var keyed map[string]T
	if err := json.Unmarshal(trimmed, &keyed); err != nil {
		return err
	}

	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, errI := strconv.ParseInt(keys[i], 10, 64)
		nj, errJ := strconv.ParseInt(keys[j], 10, 64)
		if errI == nil && errJ == nil {
			return ni < nj
		}
		if errI == nil || errJ == nil {
			return errI == nil
		}
		return keys[i] < keys[j]
	})

	values := make([]T, 0, len(keys))
	for _, k := range keys {
		values = append(values, keyed[k])
	}
	*out = values
	return nil
}

// EnemyView is one opposing faction as shown on the war status page
type EnemyView struct {
	FactionID  int      `json:"faction_id"`
	Name       string   `json:"name"`
	OurScore   *float64 `json:"our_score,omitempty"`
	TheirScore *float64 `json:"their_score,omitempty"`
	Hits       *int     `json:"hits,omitempty"`

	// Attack log details, set together with Hits
	Attempts      *int     `json:"attempts,omitempty"`
	RespectGained *float64 `json:"respect_gained,omitempty"`
}

// RankedWarView describes the faction's ranked war
type RankedWarView struct {
	WarID    int         `json:"war_id"`
	Start    int64       `json:"start"`
	Upcoming bool        `json:"upcoming"`
	Enemies  []EnemyView `json:"enemies"`
}

// WarListEntry describes one raid or territory war
type WarListEntry struct {
	WarID     int         `json:"war_id"`
	Territory string      `json:"territory,omitempty"`
	Enemies   []EnemyView `json:"enemies"`
}

// WarStatus is the aggregated result of one war status load
type WarStatus struct {
	Profile          *Profile       `json:"profile"`
	Faction          *UserFaction   `json:"faction"`
	ServerTime       int64          `json:"server_time"`
	EarliestWarStart *int64         `json:"earliest_war_start,omitempty"`
	AttacksFetched   bool           `json:"attacks_fetched"`
	AtWar            bool           `json:"at_war"`
	UpcomingWar      bool           `json:"upcoming_war"`
	Ranked           *RankedWarView `json:"ranked,omitempty"`
	Raids            []WarListEntry `json:"raids"`
	Territory        []WarListEntry `json:"territory"`
	Error            string         `json:"error,omitempty"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// Failed reports whether the load was aborted
func (s *WarStatus) Failed() bool {
	return s.Error != ""
}
