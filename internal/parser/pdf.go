package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled. Each page becomes a section.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Name() string { return "pdf" }

func (p *PDFParser) Priority(path string) int {
	return byExtension(path, map[string]int{".pdf": 10})
}

func (p *PDFParser) Parse(ctx context.Context, res resource.Accessor, path string) (*parsednode.Node, error) {
	return open(ctx, res, path, func(r io.Reader, filename string) (*parsednode.Node, error) {
		return p.parse(ctx, r, filename)
	})
}

func (p *PDFParser) DescribeOriginal(n *parsednode.Node) string {
	return describeOriginal(n)
}

func (p *PDFParser) ParseReader(r io.Reader, filename string) (*parsednode.Node, error) {
	return p.parse(context.Background(), r, filename)
}

func (p *PDFParser) parse(ctx context.Context, r io.Reader, filename string) (*parsednode.Node, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "parsegest-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(ctx, tmpPath)
	}
	if err != nil {
		return nil, parsednode.NewParseError(fmt.Sprintf("extract pdf text: %v", err), err,
			parsednode.New("").At(filename, 0, 0))
	}

	o := newOutline(filename, stem(filename))
	added := 0
	for i, page := range splitPages(text) {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		section := parsednode.New("section").At(filename, 0, 0)
		section.Original = page
		section.AddChild(parsednode.NewValue("title", fmt.Sprintf("Page %d", i+1)))
		section.AddChild(parsednode.NewValue("page", i+1))
		section.AddChild(parsednode.NewValue("text", page))
		o.doc.AddChild(section)
		added++
	}
	if added == 0 && strings.TrimSpace(text) != "" {
		o.paragraph(text, 0)
	}
	return o.finish(), nil
}

func extractPDFText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f") // Form feed as page separator.
		}
		buf.WriteString(text)
	}
	return buf.String(), nil
}

func extractPdftotext(ctx context.Context, path string) (string, error) {
	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}
