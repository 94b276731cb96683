package parser

import (
	"strings"
	"testing"
)

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	tree, err := p.ParseReader(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := documentTitle(tree); got != "notes" {
		t.Errorf("expected title %q, got %q", "notes", got)
	}
	top := sections(tree)
	if len(top) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(top))
	}

	want := []struct {
		text string
		line int
	}{
		{"First paragraph line one.\nFirst paragraph line two.", 1},
		{"Second paragraph.", 4},
		{"Third paragraph.", 6},
	}
	for i, w := range want {
		if got := sectionText(top[i]); got != w.text {
			t.Errorf("section[%d]: expected %q, got %q", i, w.text, got)
		}
		if top[i].LineNumber != w.line {
			t.Errorf("section[%d]: expected line %d, got %d", i, w.line, top[i].LineNumber)
		}
		if top[i].FileName != "notes.txt" {
			t.Errorf("section[%d]: expected file notes.txt, got %q", i, top[i].FileName)
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	tree, err := p.ParseReader(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := documentTitle(tree); got != "empty" {
		t.Errorf("expected title %q, got %q", "empty", got)
	}
	if n := len(sections(tree)); n != 0 {
		t.Errorf("expected 0 sections for empty input, got %d", n)
	}
}

func TestTextParser_SingleLine(t *testing.T) {
	p := &TextParser{}
	tree, err := p.ParseReader(strings.NewReader("Hello world"), "single.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	top := sections(tree)
	if len(top) != 1 {
		t.Fatalf("expected 1 section, got %d", len(top))
	}
	if got := sectionText(top[0]); got != "Hello world" {
		t.Errorf("expected %q, got %q", "Hello world", got)
	}
	if near := p.DescribeOriginal(top[0]); near != "Hello world" {
		t.Errorf("expected near text %q, got %q", "Hello world", near)
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Multiple consecutive blank lines should not produce empty paragraphs.
	input := "Para one.\n\n\n\nPara two."
	p := &TextParser{}
	tree, err := p.ParseReader(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(sections(tree)); n != 2 {
		t.Fatalf("expected 2 sections, got %d", n)
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace should be treated as blank.
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	tree, err := p.ParseReader(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(sections(tree)); n != 2 {
		t.Fatalf("expected 2 sections, got %d", n)
	}
}
