package parser

import (
	"context"
	"io"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
	"github.com/dgallion1/parsegest/internal/sqlscript"
)

// SQLParser reads SQL scripts into one statement node per statement.
type SQLParser struct {
	// Delimiter ends a statement; sqlscript.DefaultDelimiter when empty.
	Delimiter string
	// KeepComments leaves comments in the statement text.
	KeepComments bool
}

func (p *SQLParser) Name() string { return "sql" }

func (p *SQLParser) Priority(path string) int {
	return byExtension(path, map[string]int{".sql": 10})
}

func (p *SQLParser) Parse(ctx context.Context, res resource.Accessor, path string) (*parsednode.Node, error) {
	return open(ctx, res, path, p.ParseReader)
}

func (p *SQLParser) DescribeOriginal(n *parsednode.Node) string {
	return describeOriginal(n)
}

func (p *SQLParser) ParseReader(r io.Reader, filename string) (*parsednode.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	script := parsednode.New("script").At(filename, 1, 1)
	for _, stmt := range sqlscript.Split(string(src), !p.KeepComments, p.Delimiter) {
		n := script.AddChild(parsednode.NewValue("statement", stmt.Text).At(filename, stmt.Line, 0))
		n.Original = stmt.Text
	}

	root := parsednode.New("")
	root.AddChild(script)
	return root, nil
}
