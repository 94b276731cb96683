package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingHierarchy(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1

Subsection A1 content.

## Section B

Section B content.
`
	p := &MarkdownParser{}
	tree, err := p.ParseReader(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := documentTitle(tree); got != "doc" {
		t.Errorf("expected title %q, got %q", "doc", got)
	}

	// Top-level: one h1 ("Title")
	top := sections(tree)
	if len(top) != 1 {
		t.Fatalf("expected 1 top-level section (h1), got %d", len(top))
	}

	h1 := top[0]
	if sectionTitle(h1) != "Title" {
		t.Errorf("expected h1 title %q, got %q", "Title", sectionTitle(h1))
	}
	if h1.LineNumber != 1 {
		t.Errorf("expected h1 on line 1, got %d", h1.LineNumber)
	}
	if !strings.Contains(sectionText(h1), "Intro text.") {
		t.Errorf("expected h1 text to contain %q, got %q", "Intro text.", sectionText(h1))
	}

	// h1 has two h2 children: "Section A" and "Section B"
	h2s := h1.ChildrenNamed("section")
	if len(h2s) != 2 {
		t.Fatalf("expected 2 h2 sections, got %d", len(h2s))
	}

	secA := h2s[0]
	if sectionTitle(secA) != "Section A" {
		t.Errorf("expected %q, got %q", "Section A", sectionTitle(secA))
	}
	if secA.LineNumber != 5 {
		t.Errorf("expected Section A on line 5, got %d", secA.LineNumber)
	}
	if sectionText(secA) != "Section A content." {
		t.Errorf("expected section A text %q, got %q", "Section A content.", sectionText(secA))
	}

	subs := secA.ChildrenNamed("section")
	if len(subs) != 1 {
		t.Fatalf("expected 1 h3 section under Section A, got %d", len(subs))
	}
	if sectionTitle(subs[0]) != "Subsection A1" {
		t.Errorf("expected %q, got %q", "Subsection A1", sectionTitle(subs[0]))
	}
	if lvl, _ := subs[0].ChildValue("level"); lvl != 3 {
		t.Errorf("expected level 3, got %v", lvl)
	}

	if sectionTitle(h2s[1]) != "Section B" {
		t.Errorf("expected %q, got %q", "Section B", sectionTitle(h2s[1]))
	}
}

func TestMarkdownParser_NoHeadings(t *testing.T) {
	input := `Just some plain text.

Another paragraph here.`

	p := &MarkdownParser{}
	tree, err := p.ParseReader(strings.NewReader(input), "plain.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No headings: all text should be collected into a single section.
	top := sections(tree)
	if len(top) != 1 {
		t.Fatalf("expected 1 section for headingless markdown, got %d", len(top))
	}

	text := sectionText(top[0])
	if !strings.Contains(text, "Just some plain text.") {
		t.Errorf("expected text to contain first paragraph, got %q", text)
	}
	if !strings.Contains(text, "Another paragraph here.") {
		t.Errorf("expected text to contain second paragraph, got %q", text)
	}
	if top[0].LineNumber != 1 {
		t.Errorf("expected section on line 1, got %d", top[0].LineNumber)
	}
}

func TestMarkdownParser_TextBeforeFirstHeading(t *testing.T) {
	input := "Preamble.\n\n# First\n\nBody.\n"

	p := &MarkdownParser{}
	tree, err := p.ParseReader(strings.NewReader(input), "pre.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	top := sections(tree)
	if len(top) != 2 {
		t.Fatalf("expected preamble and heading sections, got %d", len(top))
	}
	if sectionText(top[0]) != "Preamble." || sectionTitle(top[0]) != "" {
		t.Errorf("unexpected preamble section: %s", top[0].PrettyPrint())
	}
	if sectionTitle(top[1]) != "First" {
		t.Errorf("expected %q, got %q", "First", sectionTitle(top[1]))
	}
}

func TestMarkdownParser_MixedContentWithCodeBlocks(t *testing.T) {
	input := "# API Reference\n\nSome intro.\n\n## Endpoints\n\nList of endpoints:\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	tree, err := p.ParseReader(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top := sections(tree)
	if len(top) != 1 {
		t.Fatalf("expected 1 top-level section, got %d", len(top))
	}
	h1 := top[0]
	if sectionTitle(h1) != "API Reference" {
		t.Errorf("expected title %q, got %q", "API Reference", sectionTitle(h1))
	}

	h2s := h1.ChildrenNamed("section")
	if len(h2s) != 1 {
		t.Fatalf("expected 1 h2 section, got %d", len(h2s))
	}
	endpoints := h2s[0]
	if sectionTitle(endpoints) != "Endpoints" {
		t.Errorf("expected title %q, got %q", "Endpoints", sectionTitle(endpoints))
	}

	text := sectionText(endpoints)
	if !strings.Contains(text, "GET /api/users") {
		t.Errorf("expected code block content in text, got %q", text)
	}
	if !strings.Contains(text, "More text after code.") {
		t.Errorf("expected post-code text, got %q", text)
	}
	if strings.Count(text, "List of endpoints:") != 1 {
		t.Errorf("expected paragraph text once, got %q", text)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	tree, err := p.ParseReader(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(sections(tree)); n != 0 {
		t.Errorf("expected 0 sections for empty input, got %d", n)
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"docs/plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		tree, err := p.ParseReader(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if got := documentTitle(tree); got != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, got)
		}
	}
}
