package parser

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Name() string { return "markdown" }

func (p *MarkdownParser) Priority(path string) int {
	return byExtension(path, map[string]int{".md": 10, ".markdown": 10})
}

func (p *MarkdownParser) Parse(ctx context.Context, res resource.Accessor, path string) (*parsednode.Node, error) {
	return open(ctx, res, path, p.ParseReader)
}

func (p *MarkdownParser) DescribeOriginal(n *parsednode.Node) string {
	return describeOriginal(n)
}

func (p *MarkdownParser) ParseReader(r io.Reader, filename string) (*parsednode.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))
	o := newOutline(filename, stem(filename))

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		line := blockLine(n, src)
		switch node := n.(type) {
		case *ast.Heading:
			o.heading(node.Level, string(node.Text(src)), line)
		default:
			// Collect text content from non-heading blocks.
			o.paragraph(extractText(n, src), line)
		}
	}
	return o.finish(), nil
}

// blockLine is the source line a block starts on, 0 if goldmark kept no
// segment for it.
func blockLine(n ast.Node, src []byte) int {
	for b := n; b != nil; b = b.FirstChild() {
		if b.Type() == ast.TypeBlock && b.Lines().Len() > 0 {
			return lineOf(src, b.Lines().At(0).Start)
		}
	}
	return 0
}

// extractText gets the text content of a goldmark AST node. Leaf blocks
// such as code use their raw lines; everything else is built from children.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
			continue
		}
		if c.Type() == ast.TypeBlock && buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(extractText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
