package sheets

import (
	"context"
	"fmt"
	"time"

	"torn_tools/internal/app"

	"github.com/rs/zerolog/log"
)

// Default tab names written by the publisher
const (
	DefaultStatusSheet = "Warhits"
	DefaultLogSheet    = "Warhits Log"
)

// Columns of the enemy table on the status tab
var enemyHeader = []interface{}{
	"War Type", "War ID", "Enemy", "Enemy ID", "Our Score", "Their Score", "Hits", "Attempts", "Respect", "Territory",
}

var logHeader = []interface{}{
	"Generated At", "Player", "Faction", "Status", "Enemies", "Hits", "Respect",
}

const (
	statusClearRange = "A:J"
	headerRows       = 6
)

// WarStatusPublisher writes war statuses to a spreadsheet: a snapshot tab
// that is overwritten on every publish and a log tab with one row per publish
type WarStatusPublisher struct {
	api           SheetsAPI
	spreadsheetID string
	statusSheet   string
	logSheet      string
	loc           *time.Location
}

// NewWarStatusPublisher creates a publisher writing to the default tabs
func NewWarStatusPublisher(api SheetsAPI, spreadsheetID string, loc *time.Location) *WarStatusPublisher {
	if loc == nil {
		loc = time.UTC
	}
	return &WarStatusPublisher{
		api:           api,
		spreadsheetID: spreadsheetID,
		statusSheet:   DefaultStatusSheet,
		logSheet:      DefaultLogSheet,
		loc:           loc,
	}
}

func sheetRange(sheetName, cells string) string {
	return fmt.Sprintf("'%s'!%s", sheetName, cells)
}

func (p *WarStatusPublisher) ensureSheet(ctx context.Context, sheetName string, header []interface{}) error {
	exists, err := p.api.SheetExists(ctx, p.spreadsheetID, sheetName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := p.api.CreateSheet(ctx, p.spreadsheetID, sheetName); err != nil {
		return err
	}
	log.Info().
		Str("sheet_name", sheetName).
		Msg("Created sheet")

	if header == nil {
		return nil
	}
	return p.api.UpdateRange(ctx, p.spreadsheetID, sheetRange(sheetName, "A1"), [][]interface{}{header})
}

// Publish writes the status snapshot and appends a log row
func (p *WarStatusPublisher) Publish(ctx context.Context, status *app.WarStatus) error {
	if err := p.ensureSheet(ctx, p.statusSheet, nil); err != nil {
		return fmt.Errorf("failed to prepare %s sheet: %w", p.statusSheet, err)
	}

	rows := BuildStatusRows(status, p.loc)
	if err := p.api.EnsureSheetCapacity(ctx, p.spreadsheetID, p.statusSheet, len(rows), len(enemyHeader)); err != nil {
		return fmt.Errorf("failed to size %s sheet: %w", p.statusSheet, err)
	}
	if err := p.api.ClearRange(ctx, p.spreadsheetID, sheetRange(p.statusSheet, statusClearRange)); err != nil {
		return fmt.Errorf("failed to clear %s sheet: %w", p.statusSheet, err)
	}
	if err := p.api.UpdateRange(ctx, p.spreadsheetID, sheetRange(p.statusSheet, "A1"), rows); err != nil {
		return fmt.Errorf("failed to write %s sheet: %w", p.statusSheet, err)
	}

	if err := p.ensureSheet(ctx, p.logSheet, logHeader); err != nil {
		return fmt.Errorf("failed to prepare %s sheet: %w", p.logSheet, err)
	}
	logRow := BuildLogRow(status, p.loc)
	if err := p.api.AppendRows(ctx, p.spreadsheetID, sheetRange(p.logSheet, "A:G"), [][]interface{}{logRow}); err != nil {
		return fmt.Errorf("failed to append %s row: %w", p.logSheet, err)
	}

	log.Info().
		Str("spreadsheet_id", p.spreadsheetID).
		Int("rows", len(rows)).
		Msg("Published war status to sheets")

	return nil
}

// LastPublished reads the generation time of the current snapshot
func (p *WarStatusPublisher) LastPublished(ctx context.Context) (time.Time, bool, error) {
	exists, err := p.api.SheetExists(ctx, p.spreadsheetID, p.statusSheet)
	if err != nil || !exists {
		return time.Time{}, false, err
	}

	values, err := p.api.ReadSheet(ctx, p.spreadsheetID, sheetRange(p.statusSheet, "A1:B1"))
	if err != nil {
		return time.Time{}, false, err
	}

	t, ok := CellAt(values, 0, 1).Time()
	return t, ok, nil
}

// PublishIfNewer publishes status unless the snapshot tab already holds one
// generated at or after it. It reports whether anything was written.
func (p *WarStatusPublisher) PublishIfNewer(ctx context.Context, status *app.WarStatus) (bool, error) {
	last, ok, err := p.LastPublished(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read %s snapshot time: %w", p.statusSheet, err)
	}

	// The sheet stores RFC3339, so compare at second precision
	if ok && !last.Before(status.GeneratedAt.Truncate(time.Second)) {
		log.Info().
			Time("published_at", last).
			Time("generated_at", status.GeneratedAt).
			Msg("Skipped publish: sheet holds a newer snapshot")
		return false, nil
	}

	if err := p.Publish(ctx, status); err != nil {
		return false, err
	}
	return true, nil
}

// StatusLine summarizes a status in one phrase
func StatusLine(status *app.WarStatus) string {
	switch {
	case status.Failed():
		return "Error: " + status.Error
	case status.AtWar:
		return "At war"
	case status.UpcomingWar:
		return "Upcoming war"
	default:
		return "Not at war"
	}
}

func playerCells(status *app.WarStatus) (interface{}, interface{}) {
	if status.Profile == nil {
		return "Unknown", ""
	}
	return status.Profile.Name, status.Profile.ID
}

func factionCells(status *app.WarStatus) (interface{}, interface{}) {
	if status.Faction == nil {
		return "None", ""
	}
	return status.Faction.Name, status.Faction.ID
}

func optionalFloat(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}

func optionalInt(i *int) interface{} {
	if i == nil {
		return ""
	}
	return *i
}

func enemyRow(kind string, warID int, territory string, e app.EnemyView) []interface{} {
	return []interface{}{
		kind, warID, e.Name, e.FactionID,
		optionalFloat(e.OurScore), optionalFloat(e.TheirScore),
		optionalInt(e.Hits), optionalInt(e.Attempts), optionalFloat(e.RespectGained),
		territory,
	}
}

// BuildStatusRows lays out the snapshot tab: a summary block followed by one
// row per enemy faction.
//
// Pure function: No I/O operations, fully testable with direct inputs.
func BuildStatusRows(status *app.WarStatus, loc *time.Location) [][]interface{} {
	playerName, playerID := playerCells(status)
	factionName, factionID := factionCells(status)

	rows := [][]interface{}{
		{"Updated", status.GeneratedAt.In(loc).Format(time.RFC3339)},
		{"Player", playerName, playerID},
		{"Faction", factionName, factionID},
		{"Status", StatusLine(status)},
		{},
		enemyHeader,
	}

	if ranked := status.Ranked; ranked != nil {
		kind := "Ranked"
		if ranked.Upcoming {
			kind = "Ranked (upcoming)"
		}
		for _, e := range ranked.Enemies {
			rows = append(rows, enemyRow(kind, ranked.WarID, "", e))
		}
	}
	for _, entry := range status.Raids {
		for _, e := range entry.Enemies {
			rows = append(rows, enemyRow("Raid", entry.WarID, "", e))
		}
	}
	for _, entry := range status.Territory {
		for _, e := range entry.Enemies {
			rows = append(rows, enemyRow("Territory", entry.WarID, entry.Territory, e))
		}
	}

	return rows
}

// BuildLogRow summarizes a status as a single log row
//
// Pure function: No I/O operations, fully testable with direct inputs.
func BuildLogRow(status *app.WarStatus, loc *time.Location) []interface{} {
	playerName, _ := playerCells(status)
	factionName, _ := factionCells(status)

	enemies, hits := 0, 0
	respect := 0.0
	if status.Ranked != nil {
		for _, e := range status.Ranked.Enemies {
			enemies++
			if e.Hits != nil {
				hits += *e.Hits
			}
			if e.RespectGained != nil {
				respect += *e.RespectGained
			}
		}
	}
	for _, entry := range status.Raids {
		enemies += len(entry.Enemies)
	}
	for _, entry := range status.Territory {
		enemies += len(entry.Enemies)
	}

	return []interface{}{
		status.GeneratedAt.In(loc).Format(time.RFC3339),
		playerName,
		factionName,
		StatusLine(status),
		enemies,
		hits,
		respect,
	}
}
