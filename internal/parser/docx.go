package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
	"github.com/fumiama/go-docx"
)

// DOCXParser handles .docx files. Word documents carry no line positions.
type DOCXParser struct{}

func (p *DOCXParser) Name() string { return "docx" }

func (p *DOCXParser) Priority(path string) int {
	return byExtension(path, map[string]int{".docx": 10})
}

func (p *DOCXParser) Parse(ctx context.Context, res resource.Accessor, path string) (*parsednode.Node, error) {
	return open(ctx, res, path, p.ParseReader)
}

func (p *DOCXParser) DescribeOriginal(n *parsednode.Node) string {
	return describeOriginal(n)
}

func (p *DOCXParser) ParseReader(r io.Reader, filename string) (*parsednode.Node, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "parsegest-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, parsednode.NewParseError(fmt.Sprintf("parse docx: %v", err), err,
			parsednode.New("").At(filename, 0, 0))
	}

	o := newOutline(filename, stem(filename))
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}
		if level := docxHeadingLevel(para); level > 0 {
			o.heading(level, text, 0)
		} else {
			o.paragraph(text, 0)
		}
	}
	return o.finish(), nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") || len(style) != len("heading")+1 {
		return 0
	}
	if d := style[len(style)-1]; d >= '1' && d <= '6' {
		return int(d - '0')
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
