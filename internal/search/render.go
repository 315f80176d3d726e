package search

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// EmptyResultsMessage is shown when every user is filtered out
const EmptyResultsMessage = "No users match the current filters."

type resultRow struct {
	User
	Even      bool
	AttackURL string
}

// RenderTable writes the filtered result table. users is expected to be
// filtered already.
func RenderTable(w io.Writer, users []User, state FilterState) error {
	data := struct {
		Rows              []resultRow
		ShowAttackButtons bool
	}{
		ShowAttackButtons: state.ShowAttackButtons,
	}

	for i, u := range users {
		data.Rows = append(data.Rows, resultRow{
			User:      u,
			Even:      i%2 == 0,
			AttackURL: AttackURL(u.UserID),
		})
	}

	if err := templates.ExecuteTemplate(w, "results", data); err != nil {
		return fmt.Errorf("failed to render search results: %w", err)
	}
	return nil
}
