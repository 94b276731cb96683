package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
)

func TestDefault_ForPath(t *testing.T) {
	r := Default(Options{})
	tests := []struct {
		path string
		want string
	}{
		{"db/changelog.yaml", "yaml"},
		{"db/changelog.YML", "yaml"},
		{"config.json", "yaml"},
		{"README.md", "markdown"},
		{"notes.markdown", "markdown"},
		{"page.htm", "html"},
		{"data.csv", "csv"},
		{"notes.txt", "text"},
		{"migrate.sql", "sql"},
		{"report.pdf", "pdf"},
		{"letter.docx", "docx"},
	}
	for _, tt := range tests {
		p, ok := r.ForPath(tt.path)
		if !ok {
			t.Errorf("%s: no parser", tt.path)
			continue
		}
		if p.Name() != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.path, tt.want, p.Name())
		}
	}

	if _, ok := r.ForPath("archive.zip"); ok {
		t.Error("expected no parser for .zip")
	}
	if r.Supports("image.png") {
		t.Error("expected .png to be unsupported")
	}
}

type jsonOnly struct{ TextParser }

func (p *jsonOnly) Name() string { return "json-only" }

func (p *jsonOnly) Priority(path string) int {
	return byExtension(path, map[string]int{".json": 8})
}

func TestRegistry_HigherPriorityOverridesDefault(t *testing.T) {
	r := Default(Options{})
	r.Register(&jsonOnly{})

	p, _ := r.ForPath("a.json")
	if p.Name() != "json-only" {
		t.Errorf("expected json-only to outrank yaml for .json, got %s", p.Name())
	}
	p, _ = r.ForPath("a.yaml")
	if p.Name() != "yaml" {
		t.Errorf("expected yaml for .yaml, got %s", p.Name())
	}

	c := r.Candidates("a.json")
	if len(c) != 2 || c[0].Plugin.Name() != "json-only" || c[1].Priority != 5 {
		t.Errorf("unexpected candidates %+v", c)
	}
}

func TestParse_ReadsThroughAccessor(t *testing.T) {
	res := resource.NewMemory(map[string]string{"db/init.sql": "create table t (id int);\nselect * from t;"})
	p := &SQLParser{}

	root, err := p.Parse(context.Background(), res, "db/init.sql")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stmts := root.Child("script").ChildrenNamed("statement")
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(stmts))
	}
	if stmts[1].Value != "select * from t" || stmts[1].LineNumber != 2 {
		t.Errorf("unexpected statement %s", stmts[1])
	}

	_, err = p.Parse(context.Background(), res, "db/missing.sql")
	if !errors.Is(err, resource.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDescribeOriginal(t *testing.T) {
	if got := describeOriginal(nil); got != "" {
		t.Errorf("expected empty for nil node, got %q", got)
	}
	if got := describeOriginal(parsednode.New("x")); got != "" {
		t.Errorf("expected empty without original text, got %q", got)
	}

	n := parsednode.New("x")
	n.Original = strings.Repeat("line\n", 15)
	got := describeOriginal(n)
	lines := strings.Split(got, "\n")
	if len(lines) != maxNearLines+1 || lines[maxNearLines] != "..." {
		t.Errorf("expected %d lines plus ellipsis, got %d:\n%s", maxNearLines, len(lines), got)
	}
}

func TestHTMLParser_Outline(t *testing.T) {
	input := `<html><head><title>Guide</title></head><body>
<nav>skip me</nav>
<h1>Intro</h1><p>Hello.</p>
<h2>Usage</h2><p>Run it.</p><ul><li>one</li></ul>
</body></html>`
	root, err := (&HTMLParser{}).ParseReader(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := documentTitle(root); got != "Guide" {
		t.Errorf("expected title Guide, got %q", got)
	}
	top := sections(root)
	if len(top) != 1 || sectionTitle(top[0]) != "Intro" || sectionText(top[0]) != "Hello." {
		t.Fatalf("unexpected outline:\n%s", root.PrettyPrint())
	}
	usage := top[0].ChildrenNamed("section")
	if len(usage) != 1 || sectionText(usage[0]) != "Run it.\n\none" {
		t.Errorf("unexpected usage section:\n%s", root.PrettyPrint())
	}
	if strings.Contains(root.PrettyPrint(), "skip me") {
		t.Error("nav content should be skipped")
	}
}

func TestHeadingLevel(t *testing.T) {
	for tag, want := range map[string]int{"h1": 1, "h6": 6, "h7": 0, "hr": 0, "p": 0} {
		if got := headingLevel(tag); got != want {
			t.Errorf("%s: expected %d, got %d", tag, want, got)
		}
	}
}
