package history

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"torn_tools/internal/app"
	"torn_tools/internal/config"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// War kinds stored in the kind column
const (
	KindNone      = "none"
	KindRanked    = "ranked"
	KindRaid      = "raid"
	KindTerritory = "territory"
)

// Row is one war status snapshot row
type Row struct {
	RecordedAt  time.Time              `bigquery:"recorded_at"`
	ServerTime  int64                  `bigquery:"server_time"`
	PlayerID    bigquery.NullInt64     `bigquery:"player_id"`
	FactionID   bigquery.NullInt64     `bigquery:"faction_id"`
	Kind        string                 `bigquery:"kind"`
	WarID       bigquery.NullInt64     `bigquery:"war_id"`
	Upcoming    bool                   `bigquery:"upcoming"`
	Territory   bigquery.NullString    `bigquery:"territory"`
	EnemyID     bigquery.NullInt64     `bigquery:"enemy_faction_id"`
	EnemyName   bigquery.NullString    `bigquery:"enemy_name"`
	OurScore    bigquery.NullFloat64   `bigquery:"our_score"`
	TheirScore  bigquery.NullFloat64   `bigquery:"their_score"`
	Hits        bigquery.NullInt64     `bigquery:"hits"`
	Attempts    bigquery.NullInt64     `bigquery:"attempts"`
	Respect     bigquery.NullFloat64   `bigquery:"respect_gained"`
	AtWar       bool                   `bigquery:"at_war"`
	UpcomingWar bool                   `bigquery:"upcoming_war"`
	Earliest    bigquery.NullTimestamp `bigquery:"earliest_war_start"`
}

// Inserter is the part of *bigquery.Inserter the recorder uses
type Inserter interface {
	Put(ctx context.Context, src interface{}) error
}

// Recorder appends war status snapshots to a BigQuery table
type Recorder struct {
	client   *bigquery.Client
	table    *bigquery.Table
	inserter Inserter
	timeout  time.Duration
}

// NewRecorder connects to BigQuery and creates the table when it is missing
func NewRecorder(ctx context.Context, cfg *app.Config) (*Recorder, error) {
	client, err := bigquery.NewClient(ctx, cfg.BigQueryProject, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}

	table := client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable)
	r := &Recorder{
		client:   client,
		table:    table,
		inserter: table.Inserter(),
		timeout:  config.DefaultTimeouts.History.Request,
	}

	if err := r.ensureTable(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return r, nil
}

// NewRecorderWithInserter builds a recorder around an existing inserter
func NewRecorderWithInserter(inserter Inserter) *Recorder {
	return &Recorder{
		inserter: inserter,
		timeout:  config.DefaultTimeouts.History.Request,
	}
}

func (r *Recorder) ensureTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	_, err := r.table.Metadata(ctx)
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("failed to read table metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(Row{})
	if err != nil {
		return fmt.Errorf("failed to infer schema: %w", err)
	}

	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "recorded_at",
		},
	}
	if err := r.table.Create(ctx, meta); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	log.Info().
		Str("dataset", r.table.DatasetID).
		Str("table", r.table.TableID).
		Msg("Created history table")

	return nil
}

// Close releases the BigQuery client
func (r *Recorder) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// Record inserts the rows of one status. Failed loads are not recorded.
func (r *Recorder) Record(ctx context.Context, status *app.WarStatus) error {
	if status == nil || status.Failed() {
		return nil
	}

	rows := BuildRows(status)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("failed to insert %d history rows: %w", len(rows), err)
	}

	log.Debug().
		Int("rows", len(rows)).
		Msg("Recorded war status history")

	return nil
}

func nullInt(i *int) bigquery.NullInt64 {
	if i == nil {
		return bigquery.NullInt64{}
	}
	return bigquery.NullInt64{Int64: int64(*i), Valid: true}
}

func nullFloat(f *float64) bigquery.NullFloat64 {
	if f == nil {
		return bigquery.NullFloat64{}
	}
	return bigquery.NullFloat64{Float64: *f, Valid: true}
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

// BuildRows flattens a status into one row per enemy faction, or a single
// row of kind "none" when no war has enemies.
//
// Pure function: No I/O operations, fully testable with direct inputs.
func BuildRows(status *app.WarStatus) []*Row {
	base := Row{
		RecordedAt:  status.GeneratedAt.UTC(),
		ServerTime:  status.ServerTime,
		Kind:        KindNone,
		AtWar:       status.AtWar,
		UpcomingWar: status.UpcomingWar,
	}
	if status.Profile != nil {
		base.PlayerID = bigquery.NullInt64{Int64: int64(status.Profile.ID), Valid: true}
	}
	if status.Faction != nil {
		base.FactionID = bigquery.NullInt64{Int64: int64(status.Faction.ID), Valid: true}
	}
	if status.EarliestWarStart != nil {
		base.Earliest = bigquery.NullTimestamp{Timestamp: time.Unix(*status.EarliestWarStart, 0).UTC(), Valid: true}
	}

	var rows []*Row
	add := func(kind string, warID int, upcoming bool, territory string, e app.EnemyView) {
		row := base
		row.Kind = kind
		row.WarID = bigquery.NullInt64{Int64: int64(warID), Valid: true}
		row.Upcoming = upcoming
		row.Territory = nullString(territory)
		row.EnemyID = bigquery.NullInt64{Int64: int64(e.FactionID), Valid: true}
		row.EnemyName = nullString(e.Name)
		row.OurScore = nullFloat(e.OurScore)
		row.TheirScore = nullFloat(e.TheirScore)
		row.Hits = nullInt(e.Hits)
		row.Attempts = nullInt(e.Attempts)
		row.Respect = nullFloat(e.RespectGained)
		rows = append(rows, &row)
	}

	if ranked := status.Ranked; ranked != nil {
		for _, e := range ranked.Enemies {
			add(KindRanked, ranked.WarID, ranked.Upcoming, "", e)
		}
	}
	for _, entry := range status.Raids {
		for _, e := range entry.Enemies {
			add(KindRaid, entry.WarID, false, "", e)
		}
	}
	for _, entry := range status.Territory {
		for _, e := range entry.Enemies {
			add(KindTerritory, entry.WarID, false, entry.Territory, e)
		}
	}

	if len(rows) == 0 {
		row := base
		rows = append(rows, &row)
	}
	return rows
}
