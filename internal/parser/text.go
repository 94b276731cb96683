package parser

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
)

// TextParser handles plain text files. Each paragraph becomes a section.
type TextParser struct{}

func (p *TextParser) Name() string { return "text" }

func (p *TextParser) Priority(path string) int {
	return byExtension(path, map[string]int{".txt": 10})
}

func (p *TextParser) Parse(ctx context.Context, res resource.Accessor, path string) (*parsednode.Node, error) {
	return open(ctx, res, path, p.ParseReader)
}

func (p *TextParser) DescribeOriginal(n *parsednode.Node) string {
	return describeOriginal(n)
}

func (p *TextParser) ParseReader(r io.Reader, filename string) (*parsednode.Node, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	o := newOutline(filename, stem(filename))
	var current strings.Builder
	start, lineNo := 0, 0

	emit := func() {
		if current.Len() == 0 {
			return
		}
		text := current.String()
		section := parsednode.New("section").At(filename, start, 1)
		section.Original = text
		t := section.AddChild(parsednode.NewValue("text", text).At(filename, start, 1))
		t.Original = text
		o.doc.AddChild(section)
		current.Reset()
	}

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			emit()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		} else {
			start = lineNo
		}
		current.WriteString(line)
	}
	emit()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return o.finish(), nil
}
