package parser

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
)

// CSVParser handles CSV files. The first record names the columns; every
// other record becomes a row whose cells are named by their column.
//
//	table
//	    column: id
//	    column: name
//	    row
//	        id: 1
//	        name: alice
type CSVParser struct{}

func (p *CSVParser) Name() string { return "csv" }

func (p *CSVParser) Priority(path string) int {
	return byExtension(path, map[string]int{".csv": 10})
}

func (p *CSVParser) Parse(ctx context.Context, res resource.Accessor, path string) (*parsednode.Node, error) {
	return open(ctx, res, path, p.ParseReader)
}

func (p *CSVParser) DescribeOriginal(n *parsednode.Node) string {
	return describeOriginal(n)
}

func (p *CSVParser) ParseReader(r io.Reader, filename string) (*parsednode.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := newSourceLines(src)

	reader := csv.NewReader(bytes.NewReader(src))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	table := parsednode.New("table").At(filename, 1, 1)
	var headers []string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err, filename, lines)
		}

		if headers == nil {
			headers = record
			for i, h := range record {
				line, col := reader.FieldPos(i)
				c := table.AddChild(parsednode.NewValue("column", strings.TrimSpace(h)).At(filename, line, col))
				c.Original = lines.at(line)
			}
			continue
		}

		line, _ := reader.FieldPos(0)
		row := table.AddChild(parsednode.New("row").At(filename, line, 1))
		row.Original = lines.at(line)
		for i, cell := range record {
			name := fmt.Sprintf("column%d", i+1)
			if i < len(headers) && strings.TrimSpace(headers[i]) != "" {
				name = strings.TrimSpace(headers[i])
			}
			cellLine, col := reader.FieldPos(i)
			c := row.AddChild(parsednode.NewValue(name, cell).At(filename, cellLine, col))
			c.Original = lines.at(cellLine)
		}
	}

	root := parsednode.New("")
	root.AddChild(table)
	return root, nil
}

func csvError(err error, filename string, lines sourceLines) error {
	var pe *csv.ParseError
	if !errors.As(err, &pe) {
		return fmt.Errorf("parse csv: %w", err)
	}
	node := parsednode.New("").At(filename, pe.Line, pe.Column)
	node.Original = lines.at(pe.Line)
	return parsednode.NewParseError("parse csv: "+pe.Err.Error(), err, node)
}
