package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
	"github.com/fumiama/go-docx"
)

func TestDOCXParser_Priority(t *testing.T) {
	p := &DOCXParser{}
	if got := p.Priority("memo.docx"); got != 10 {
		t.Errorf("expected priority 10 for .docx, got %d", got)
	}
	if got := p.Priority("memo.doc"); got != 0 {
		t.Errorf("expected priority 0 for .doc, got %d", got)
	}
}

func TestDOCXParser_DescribeOriginal(t *testing.T) {
	p := &DOCXParser{}
	if got := p.DescribeOriginal(nil); got != "" {
		t.Errorf("expected empty text for nil node, got %q", got)
	}
	if got := p.DescribeOriginal(parsednode.New("")); got != "" {
		t.Errorf("expected empty text for empty node, got %q", got)
	}
}

func TestDOCXParser_RejectsNonZipInput(t *testing.T) {
	_, err := (&DOCXParser{}).ParseReader(strings.NewReader("not a zip archive"), "memo.docx")
	if err == nil {
		t.Fatal("expected error for non-docx input")
	}
	var pe *parsednode.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if !strings.HasPrefix(pe.Message, "parse docx: ") {
		t.Errorf("unexpected message %q", pe.Message)
	}
	if pe.ProblemNode == nil || pe.ProblemNode.FileName != "memo.docx" {
		t.Fatalf("expected problem node for memo.docx, got %+v", pe.ProblemNode)
	}
}

func TestDOCXParser_MissingFile(t *testing.T) {
	_, err := (&DOCXParser{}).Parse(context.Background(), resource.NewMemory(nil), "missing.docx")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.HasPrefix(err.Error(), "open missing.docx: ") {
		t.Errorf("unexpected error %q", err)
	}
}

func TestDocxHeadingLevel(t *testing.T) {
	tests := []struct {
		style string
		want  int
	}{
		{"Heading 2", 2},
		{"heading1", 1},
		{"Heading7", 0},
		{"Heading10", 0},
		{"Title", 0},
	}
	for _, tt := range tests {
		para := &docx.Paragraph{Properties: &docx.ParagraphProperties{Style: &docx.Style{Val: tt.style}}}
		if got := docxHeadingLevel(para); got != tt.want {
			t.Errorf("docxHeadingLevel(%q) = %d, want %d", tt.style, got, tt.want)
		}
	}
	if got := docxHeadingLevel(&docx.Paragraph{}); got != 0 {
		t.Errorf("expected level 0 without properties, got %d", got)
	}
}

func TestDocxParagraphText(t *testing.T) {
	para := &docx.Paragraph{Children: []interface{}{
		&docx.Run{Children: []interface{}{&docx.Text{Text: "  Hello, "}}},
		&docx.Run{Children: []interface{}{&docx.Text{Text: "world "}}},
		&docx.Hyperlink{},
	}}
	if got := docxParagraphText(para); got != "Hello, world" {
		t.Errorf("expected joined run text, got %q", got)
	}
}
