package dom

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

const testPage = `<html><body>
<div class="box wide" id="a"><p>Hello <b>world</b></p></div>
<div class="box" id="b"><input data-name="days" value="1"></div>
</body></html>`

func parse(t *testing.T) *html.Node {
	t.Helper()
	doc, err := Parse(strings.NewReader(testPage))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return doc
}

func TestHasClass(t *testing.T) {
	doc := parse(t)
	boxes := FindAll(doc, func(n *html.Node) bool { return HasClass(n, "box") })
	if len(boxes) != 2 {
		t.Fatalf("Expected 2 boxes, got %d", len(boxes))
	}

	wide := FindAll(doc, func(n *html.Node) bool { return HasClass(n, "box", "wide") })
	if len(wide) != 1 {
		t.Fatalf("Expected 1 wide box, got %d", len(wide))
	}
	if id, _ := Attr(wide[0], "id"); id != "a" {
		t.Errorf("Expected id 'a', got '%s'", id)
	}
}

func TestFindFirstAndText(t *testing.T) {
	doc := parse(t)
	p := FindFirst(doc, func(n *html.Node) bool { return IsElement(n, "p") })
	if p == nil {
		t.Fatal("Expected paragraph")
	}
	if got := Text(p); got != "Hello world" {
		t.Errorf("Expected 'Hello world', got '%s'", got)
	}

	if missing := FindFirst(doc, func(n *html.Node) bool { return IsElement(n, "table") }); missing != nil {
		t.Error("Expected no table")
	}
}

func TestSetAttrAndRender(t *testing.T) {
	doc := parse(t)
	input := FindFirst(doc, func(n *html.Node) bool { return IsElement(n, "input") })

	SetAttr(input, "value", "42")
	SetAttr(input, "data-filled", "true")

	if v, _ := Attr(input, "value"); v != "42" {
		t.Errorf("Expected value '42', got '%s'", v)
	}

	var buf bytes.Buffer
	if err := Render(&buf, doc); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), `value="42" data-filled="true"`) {
		t.Errorf("Expected rendered attributes, got '%s'", buf.String())
	}
}
