package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/plugin"
	"github.com/dgallion1/parsegest/internal/resource"
)

// Parser converts the bytes behind a path into a node tree.
type Parser interface {
	Name() string
	// Priority scores how well the parser handles path. Zero or less means
	// it cannot.
	Priority(path string) int
	Parse(ctx context.Context, res resource.Accessor, path string) (*parsednode.Node, error)
	// DescribeOriginal returns the source text near n, or "" when none was
	// kept. It never panics.
	DescribeOriginal(n *parsednode.Node) string
}

// Registry selects the parser for a path.
type Registry struct {
	plugins *plugin.Registry[Parser]
}

func NewRegistry() *Registry {
	return &Registry{plugins: plugin.New(func(p Parser, args ...any) int {
		path, _ := args[0].(string)
		return p.Priority(path)
	})}
}

// Options configures the default readers.
type Options struct {
	PDFFallbackPdftotext bool
}

// Default returns a registry holding every built-in reader.
func Default(opts Options) *Registry {
	r := NewRegistry()
	r.Register(&YAMLParser{})
	r.Register(&MarkdownParser{})
	r.Register(&HTMLParser{})
	r.Register(&CSVParser{})
	r.Register(&TextParser{})
	r.Register(&SQLParser{})
	r.Register(&PDFParser{FallbackPdftotext: opts.PDFFallbackPdftotext})
	r.Register(&DOCXParser{})
	return r
}

func (r *Registry) Register(p Parser) {
	r.plugins.Register(p)
}

// ForPath returns the highest priority parser for path. Equal priorities
// go to the parser registered first.
func (r *Registry) ForPath(path string) (Parser, bool) {
	return r.plugins.Select(path)
}

// Supports reports whether any registered parser accepts path.
func (r *Registry) Supports(path string) bool {
	_, ok := r.ForPath(path)
	return ok
}

// Candidates lists the parsers that accept path, best first.
func (r *Registry) Candidates(path string) []plugin.Scored[Parser] {
	return r.plugins.Ranked(path)
}

// All returns the registered parsers in registration order.
func (r *Registry) All() []Parser {
	return r.plugins.All()
}

// byExtension scores path against an extension table.
func byExtension(path string, table map[string]int) int {
	return table[strings.ToLower(filepath.Ext(path))]
}

// open reads path through res and hands the stream to read.
func open(ctx context.Context, res resource.Accessor, path string, read func(io.Reader, string) (*parsednode.Node, error)) (*parsednode.Node, error) {
	rc, err := res.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer rc.Close()
	return read(rc, path)
}

// stem is the file name without directory and extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

const maxNearLines = 10

// describeOriginal renders the retained source text of n.
func describeOriginal(n *parsednode.Node) (near string) {
	defer func() {
		if recover() != nil {
			near = ""
		}
	}()
	if n == nil {
		return ""
	}
	text := strings.TrimSpace(n.Original)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > maxNearLines {
		lines = append(lines[:maxNearLines], "...")
	}
	return strings.Join(lines, "\n")
}

// sourceLines splits src for position lookups.
type sourceLines []string

func newSourceLines(src []byte) sourceLines {
	return strings.Split(strings.ReplaceAll(string(src), "\r\n", "\n"), "\n")
}

// at returns the 1-based line, or "" when out of range.
func (s sourceLines) at(line int) string {
	if line < 1 || line > len(s) {
		return ""
	}
	return strings.TrimRight(s[line-1], " \t\r")
}

// lineOf converts a byte offset into a 1-based line number.
func lineOf(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return bytes.Count(src[:offset], []byte("\n")) + 1
}
