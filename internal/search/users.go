package search

import (
	"bytes"
	"regexp"
	"strings"

	"torn_tools/internal/dom"

	"golang.org/x/net/html"
)

// NoFactionName is shown for users without a faction link
const NoFactionName = "N/A"

var xidPattern = regexp.MustCompile(`XID=(\d+)`)

// Statuses are the user states the filter can hide
type Statuses struct {
	FederalJail bool `json:"federal_jail"`
	Traveling   bool `json:"traveling"`
	RIP         bool `json:"rip"`
}

// User is one entry of a UserList search result
type User struct {
	UserID      string   `json:"user_id"`
	Username    string   `json:"username"`
	ProfileURL  string   `json:"profile_url"`
	FactionName string   `json:"faction_name"`
	Statuses    Statuses `json:"statuses"`
}

// IsUserListPage reports whether the document is the UserList search page
func IsUserListPage(doc *html.Node) bool {
	body := dom.FindFirst(doc, func(n *html.Node) bool { return dom.IsElement(n, "body") })
	page, _ := dom.Attr(body, "data-page")
	return page == "UserList"
}

func isUserLink(n *html.Node) bool {
	if !dom.IsElement(n, "a") || !dom.HasClass(n, "user", "name") {
		return false
	}
	href, _ := dom.Attr(n, "href")
	return strings.Contains(href, "XID=")
}

func isFactionLink(n *html.Node) bool {
	if !dom.IsElement(n, "a") {
		return false
	}
	href, _ := dom.Attr(n, "href")
	return strings.Contains(href, "factions.php")
}

func hasTitleContaining(root *html.Node, substr string) bool {
	return dom.FindFirst(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return false
		}
		title, ok := dom.Attr(n, "title")
		return ok && strings.Contains(title, substr)
	}) != nil
}

func innerHTML(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// DetectStatuses inspects a result list item for the filterable states
func DetectStatuses(item *html.Node) Statuses {
	text := dom.Text(item)
	inner := innerHTML(item)

	return Statuses{
		FederalJail: containsAny(text, "Federal", "federal") ||
			strings.Contains(inner, "icon16") ||
			hasTitleContaining(item, "Federal"),
		Traveling: containsAny(text, "Traveling", "traveling", "Abroad", "abroad") ||
			hasTitleContaining(item, "Traveling") ||
			hasTitleContaining(item, "abroad"),
		RIP: containsAny(text, "Resting in peace", "resting in peace") ||
			hasTitleContaining(item, "Resting in peace"),
	}
}

// ParseUsers extracts the users of every result list on the page. Items
// without a profile link are skipped.
func ParseUsers(doc *html.Node) []User {
	var users []User

	lists := dom.FindAll(doc, func(n *html.Node) bool { return dom.HasClass(n, "user-info-list-wrap") })
	for _, list := range lists {
		for _, item := range dom.FindAll(list, func(n *html.Node) bool { return dom.IsElement(n, "li") }) {
			link := dom.FindFirst(item, isUserLink)
			if link == nil {
				continue
			}
			href, _ := dom.Attr(link, "href")
			match := xidPattern.FindStringSubmatch(href)
			if match == nil {
				continue
			}

			factionName := NoFactionName
			if faction := dom.FindFirst(item, isFactionLink); faction != nil {
				factionName = strings.TrimSpace(dom.Text(faction))
			}

			users = append(users, User{
				UserID:      match[1],
				Username:    strings.TrimSpace(dom.Text(link)),
				ProfileURL:  href,
				FactionName: factionName,
				Statuses:    DetectStatuses(item),
			})
		}
	}

	return users
}
