package model

import "strings"

// Document is the outline read from Markdown, HTML, text, PDF and DOCX.
type Document struct {
	Title    string     `json:"title"`
	Sections []*Section `node:"section" json:"sections,omitempty"`
}

func (*Document) NodeName() string { return "document" }

// Section is a heading with its text and subsections. Untitled sections
// hold the text before the first heading.
type Section struct {
	Title    string     `json:"title,omitempty"`
	Level    int        `json:"level,omitempty"`
	Text     string     `json:"text,omitempty"`
	Page     int        `json:"page,omitempty"`
	Sections []*Section `node:"section" json:"sections,omitempty"`
	Line     int        `node:",line" json:"line,omitempty"`
}

// Text joins the text of every section in document order.
func (d *Document) Text() string {
	var b strings.Builder
	var walk func([]*Section)
	walk = func(sections []*Section) {
		for _, s := range sections {
			if s.Text != "" {
				if b.Len() > 0 {
					b.WriteString("\n")
				}
				b.WriteString(s.Text)
			}
			walk(s.Sections)
		}
	}
	walk(d.Sections)
	return b.String()
}

// Table is a CSV file: the header row and one map per data row.
type Table struct {
	Columns []string            `node:"column" json:"columns"`
	Rows    []map[string]string `node:"row" json:"rows"`
}

func (*Table) NodeName() string { return "table" }

// Script is the statements of a SQL file.
type Script struct {
	Statements []string `node:"statement" json:"statements"`
}

func (*Script) NodeName() string { return "script" }
