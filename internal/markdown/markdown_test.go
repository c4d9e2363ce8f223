package markdown

import (
	"strings"
	"testing"
)

func TestRenderBasicMarkdown(t *testing.T) {
	// WHAT: Headings, emphasis and paragraphs come out as HTML.
	got, err := Render("# Today\n\nA *good* day.")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(got)
	if !strings.Contains(html, "<h1>Today</h1>") {
		t.Errorf("missing heading: %s", html)
	}
	if !strings.Contains(html, "<em>good</em>") {
		t.Errorf("missing emphasis: %s", html)
	}
}

func TestRenderStripsScripts(t *testing.T) {
	// WHAT: Raw HTML that survives rendering is sanitized away.
	// WHY: Entry bodies are user-authored and rendered into our pages.
	got, err := Render("hello <script>alert(1)</script> <img src=x onerror=steal()>")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(got)
	if strings.Contains(html, "<script") || strings.Contains(html, "onerror") {
		t.Errorf("unsafe HTML survived: %s", html)
	}
	if !strings.Contains(html, "hello") {
		t.Errorf("text content lost: %s", html)
	}
}

func TestRenderSmartPunctuation(t *testing.T) {
	// WHAT: The typographer turns straight quotes and dashes into their
	// typographic forms, matching how entries have always been rendered.
	got, err := Render(`she said "hello" -- then left`)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	html := string(got)
	if strings.Contains(html, `"hello"`) {
		t.Errorf("straight quotes survived: %s", html)
	}
	if strings.Contains(html, " -- ") {
		t.Errorf("double hyphen survived: %s", html)
	}
}

func TestRenderKeepsSafeLinks(t *testing.T) {
	// WHAT: Ordinary links survive sanitization.
	got, err := Render("[site](https://example.com)")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(got), `href="https://example.com"`) {
		t.Errorf("link lost: %s", got)
	}
}
