// Package render turns a war status into the HTML fragments of the warhits
// page. Each fragment is keyed by the id of the element it fills.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"torn_tools/internal/app"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// Element ids of the warhits page
const (
	IDUsername     = "username"
	IDUserID       = "userId"
	IDFactionName  = "factionName"
	IDFactionID    = "factionId"
	IDWarContent   = "warContent"
	IDErrorMessage = "errorMessage"
)

// Fallback texts for missing profile and faction data
const (
	UnknownName  = "Unknown"
	MissingID    = "N/A"
	NoFaction    = "None"
	startsLayout = "2006-01-02 15:04:05 MST"
)

// Fragments holds the content of each element of the warhits page
type Fragments struct {
	Username     string
	UserID       string
	FactionName  string
	FactionID    string
	WarContent   template.HTML
	ErrorMessage string
}

// ByID returns the fragments keyed by element id
func (f Fragments) ByID() map[string]string {
	return map[string]string{
		IDUsername:     f.Username,
		IDUserID:       f.UserID,
		IDFactionName:  f.FactionName,
		IDFactionID:    f.FactionID,
		IDWarContent:   string(f.WarContent),
		IDErrorMessage: f.ErrorMessage,
	}
}

// AuthView is the state shown in the page header
type AuthView struct {
	LoggedIn bool
	Username string
	Error    string
}

// Renderer renders war statuses with start times in a fixed location
type Renderer struct {
	loc *time.Location
}

// NewRenderer creates a renderer. A nil location means UTC.
func NewRenderer(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc}
}

type enemyLine struct {
	Name      string
	ID        int
	Score     string
	HasHits   bool
	Hits      int
	Territory string
}

type rankedSection struct {
	Label    string
	Upcoming bool
	Starts   string
	Enemies  []enemyLine
}

type warContentView struct {
	AtWar     bool
	Upcoming  bool
	Ranked    *rankedSection
	Raids     []enemyLine
	Territory []enemyLine
}

// RenderUserInfo fills the profile and faction fragments
func (r *Renderer) RenderUserInfo(status *app.WarStatus) Fragments {
	f := Fragments{
		Username:    UnknownName,
		UserID:      MissingID,
		FactionName: NoFaction,
		FactionID:   MissingID,
	}

	if p := status.Profile; p != nil {
		if p.Name != "" {
			f.Username = p.Name
		}
		if p.ID != 0 {
			f.UserID = strconv.Itoa(p.ID)
		}
	}

	if fac := status.Faction; fac != nil {
		if fac.Name != "" {
			f.FactionName = fac.Name
		}
		if fac.ID != 0 {
			f.FactionID = strconv.Itoa(fac.ID)
		}
	}

	return f
}

// RenderWarContent renders the war section of the page
func (r *Renderer) RenderWarContent(status *app.WarStatus) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "war_content", r.warContentView(status)); err != nil {
		return "", fmt.Errorf("failed to render war content: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderFragments renders every fragment of a status. A failed status only
// carries the error message.
func (r *Renderer) RenderFragments(status *app.WarStatus) (Fragments, error) {
	if status.Failed() {
		return Fragments{ErrorMessage: status.Error}, nil
	}

	f := r.RenderUserInfo(status)
	content, err := r.RenderWarContent(status)
	if err != nil {
		return Fragments{}, err
	}
	f.WarContent = content
	return f, nil
}

// RenderPage writes the complete warhits page. status may be nil when the
// visitor is not logged in.
func (r *Renderer) RenderPage(w io.Writer, auth AuthView, status *app.WarStatus) error {
	data := struct {
		Title     string
		Auth      AuthView
		Fragments Fragments
		Generated string
	}{
		Title: "War Hits",
		Auth:  auth,
	}

	if auth.LoggedIn && status != nil {
		fragments, err := r.RenderFragments(status)
		if err != nil {
			return err
		}
		data.Fragments = fragments
		if !status.GeneratedAt.IsZero() {
			data.Generated = status.GeneratedAt.In(r.loc).Format(startsLayout)
		}
	}

	if err := templates.ExecuteTemplate(w, "page", data); err != nil {
		return fmt.Errorf("failed to render page: %w", err)
	}
	return nil
}

// RenderAuthHeader renders the login form or the logged-in user
func RenderAuthHeader(w io.Writer, auth AuthView) error {
	if err := templates.ExecuteTemplate(w, "auth_header", auth); err != nil {
		return fmt.Errorf("failed to render auth header: %w", err)
	}
	return nil
}

// FormatStart formats a war start in the renderer's location together with
// the time left relative to the server clock
func (r *Renderer) FormatStart(start, serverTime int64) string {
	startTime := time.Unix(start, 0)
	formatted := startTime.In(r.loc).Format(startsLayout)
	if serverTime == 0 {
		return formatted
	}
	relative := humanize.RelTime(startTime, time.Unix(serverTime, 0), "ago", "from now")
	return fmt.Sprintf("%s (%s)", formatted, relative)
}

// FormatScore prints a score without trailing zeros
func FormatScore(score float64) string {
	return humanize.Ftoa(score)
}

func (r *Renderer) warContentView(status *app.WarStatus) warContentView {
	view := warContentView{
		AtWar:    status.AtWar,
		Upcoming: status.UpcomingWar,
	}

	if ranked := status.Ranked; ranked != nil {
		section := &rankedSection{
			Label:    "Ranked War",
			Upcoming: ranked.Upcoming,
		}
		if ranked.Upcoming {
			section.Label = "Upcoming Ranked War"
			section.Starts = r.FormatStart(ranked.Start, status.ServerTime)
		}
		for _, enemy := range ranked.Enemies {
			line := enemyLine{Name: enemy.Name, ID: enemy.FactionID}
			if enemy.OurScore != nil && enemy.TheirScore != nil {
				line.Score = FormatScore(*enemy.OurScore) + " : " + FormatScore(*enemy.TheirScore)
			}
			if enemy.Hits != nil {
				line.HasHits = true
				line.Hits = *enemy.Hits
			}
			section.Enemies = append(section.Enemies, line)
		}
		view.Ranked = section
	}

	view.Raids = listLines(status.Raids)
	view.Territory = listLines(status.Territory)

	return view
}

func listLines(entries []app.WarListEntry) []enemyLine {
	var lines []enemyLine
	for _, entry := range entries {
		for _, enemy := range entry.Enemies {
			lines = append(lines, enemyLine{
				Name:      enemy.Name,
				ID:        enemy.FactionID,
				Territory: entry.Territory,
			})
		}
	}
	return lines
}
