package parser

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. The tokenizer reports no positions, so its
// nodes carry only the file name.
type HTMLParser struct{}

func (p *HTMLParser) Name() string { return "html" }

func (p *HTMLParser) Priority(path string) int {
	return byExtension(path, map[string]int{".html": 10, ".htm": 10})
}

func (p *HTMLParser) Parse(ctx context.Context, res resource.Accessor, path string) (*parsednode.Node, error) {
	return open(ctx, res, path, p.ParseReader)
}

func (p *HTMLParser) DescribeOriginal(n *parsednode.Node) string {
	return describeOriginal(n)
}

func (p *HTMLParser) ParseReader(r io.Reader, filename string) (*parsednode.Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, parsednode.NewParseError(fmt.Sprintf("parse html: %v", err), err,
			parsednode.New("").At(filename, 0, 0))
	}

	o := newOutline(filename, stem(filename))
	if title := findTitle(doc); title != "" {
		o.setTitle(title)
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				o.heading(level, textContent(n), 0)
				return
			}

			// Skip non-content elements.
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "li", "td", "blockquote", "pre":
				o.paragraph(textContent(n), 0)
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return o.finish(), nil
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func findTitle(n *html.Node) string {
	if t := findElement(n, "title"); t != nil {
		return textContent(t)
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	return findElement(n, "body")
}
