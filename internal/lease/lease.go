package lease

import (
	"errors"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"torn_tools/internal/dom"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Defaults of the lease extension calculator
const (
	DefaultRatePerDay = int64(720000)
	DefaultTargetDays = 100
)

var (
	ErrNotExtensionTab   = errors.New("page is not on the lease extension tab")
	ErrFormNotReady      = errors.New("lease extension form is not visible")
	ErrDaysNotFound      = errors.New("could not extract days remaining")
	ErrFormInputsMissing = errors.New("could not find form input fields")
)

var daysPattern = regexp.MustCompile(`(?i)^(\d+)\s+days?$`)

var printer = message.NewPrinter(language.English)

// Plan is the extension needed to bring a lease up to the target length
type Plan struct {
	DaysRemaining  int
	TargetDays     int
	AdditionalDays int
	RatePerDay     int64
	Cost           int64
	NeedsExtension bool
}

// IsExtensionTab reports whether a URL fragment selects the extension tab
func IsExtensionTab(fragment string) bool {
	return strings.Contains(fragment, "tab=offerExtension")
}

// PlanExtension computes the days and cost needed to reach targetDays.
// No extension is needed once the lease already reaches the target.
//
// Pure function: No I/O operations, fully testable with direct inputs.
func PlanExtension(daysRemaining, targetDays int, ratePerDay int64) Plan {
	plan := Plan{
		DaysRemaining: daysRemaining,
		TargetDays:    targetDays,
		RatePerDay:    ratePerDay,
	}

	additional := targetDays - daysRemaining
	if additional <= 0 {
		return plan
	}

	plan.AdditionalDays = additional
	plan.Cost = int64(additional) * ratePerDay
	plan.NeedsExtension = true
	return plan
}

// FormatMoney formats a dollar amount with thousands separators
func FormatMoney(amount int64) string {
	return printer.Sprintf("$%d", amount)
}

func isExtensionContainer(n *html.Node) bool {
	return dom.HasClass(n, "offerExtension-opt")
}

// FormVisible reports whether the extension form container is present and
// not hidden by an inline style
func FormVisible(doc *html.Node) bool {
	container := dom.FindFirst(doc, isExtensionContainer)
	if container == nil {
		return false
	}
	style, _ := dom.Attr(container, "style")
	style = strings.ReplaceAll(strings.ToLower(style), " ", "")
	return !strings.Contains(style, "display:none")
}

// leaseParagraph finds the first paragraph inside a .cont-gray block of the
// extension form
func leaseParagraph(doc *html.Node) *html.Node {
	for _, container := range dom.FindAll(doc, isExtensionContainer) {
		for _, gray := range dom.FindAll(container, func(n *html.Node) bool { return dom.HasClass(n, "cont-gray") }) {
			if p := dom.FindFirst(gray, func(n *html.Node) bool { return dom.IsElement(n, "p") }); p != nil {
				return p
			}
		}
	}
	return nil
}

// ExtractDaysRemaining reads the remaining lease length from the first
// "<n> days" strong tag of the lease paragraph
func ExtractDaysRemaining(doc *html.Node) (int, bool) {
	p := leaseParagraph(doc)
	if p == nil {
		return 0, false
	}

	for _, strong := range dom.FindAll(p, func(n *html.Node) bool { return dom.IsElement(n, "strong") }) {
		match := daysPattern.FindStringSubmatch(strings.TrimSpace(dom.Text(strong)))
		if match == nil {
			continue
		}
		days, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return days, true
	}

	return 0, false
}

func dataNameInputs(doc *html.Node, name string) []*html.Node {
	return dom.FindAll(doc, func(n *html.Node) bool {
		if !dom.IsElement(n, "input") {
			return false
		}
		v, _ := dom.Attr(n, "data-name")
		return v == name
	})
}

// FillForm writes the plan into every days and offer cost input, hidden
// mirrors included
func FillForm(doc *html.Node, plan Plan) error {
	days := dataNameInputs(doc, "days")
	cost := dataNameInputs(doc, "offercost")
	if len(days) == 0 || len(cost) == 0 {
		return ErrFormInputsMissing
	}

	for _, input := range days {
		dom.SetAttr(input, "value", strconv.Itoa(plan.AdditionalDays))
	}
	for _, input := range cost {
		dom.SetAttr(input, "value", strconv.FormatInt(plan.Cost, 10))
	}
	return nil
}

// Result is the outcome of autofilling a saved properties page
type Result struct {
	Plan Plan
	Page *html.Node
}

// Autofill checks that pageURL points at the extension tab, reads the
// remaining days from the page and fills the form when an extension is needed
func Autofill(r io.Reader, pageURL string, targetDays int, ratePerDay int64) (*Result, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	if !IsExtensionTab(u.Fragment) {
		return nil, ErrNotExtensionTab
	}

	doc, err := dom.Parse(r)
	if err != nil {
		return nil, err
	}
	if !FormVisible(doc) {
		return nil, ErrFormNotReady
	}

	days, ok := ExtractDaysRemaining(doc)
	if !ok {
		return nil, ErrDaysNotFound
	}

	plan := PlanExtension(days, targetDays, ratePerDay)
	log.Debug().
		Int("days_remaining", plan.DaysRemaining).
		Int("additional_days", plan.AdditionalDays).
		Str("cost", FormatMoney(plan.Cost)).
		Msg("Planned lease extension")

	if !plan.NeedsExtension {
		log.Info().
			Int("target_days", targetDays).
			Msg("Lease already at or above target, no extension needed")
		return &Result{Plan: plan, Page: doc}, nil
	}

	if err := FillForm(doc, plan); err != nil {
		return nil, err
	}

	return &Result{Plan: plan, Page: doc}, nil
}
