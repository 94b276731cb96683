// Package console renders CLI output: parse errors with their source
// position, status messages, and tables. Styling is applied only when
// stdout is a terminal.
package console

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/dgallion1/parsegest/internal/parsednode"
)

var (
	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5555"))

	warningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFB86C"))

	infoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8BE9FD"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50FA7B"))

	filePathStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#BD93F9"))

	lineNumberStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6272A4"))

	verboseStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("#6272A4"))

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#BD93F9"))

	tableBorderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6272A4"))
)

func isTTY() bool {
	return isatty.IsTerminal(os.Stdout.Fd())
}

func applyStyle(style lipgloss.Style, text string) string {
	if isTTY() {
		return style.Render(text)
	}
	return text
}

// ToRelativePath converts an absolute path to one relative to the working
// directory when possible.
func ToRelativePath(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil {
		return path
	}
	return rel
}

// FormatParseError renders err in an IDE-parseable form,
// file:line:column: error: message, followed by the source line of the
// problem node when the tree kept it.
func FormatParseError(err error) string {
	var out strings.Builder
	n := parsednode.ProblemNodeOf(err)

	if n != nil && n.FileName != "" {
		loc := ToRelativePath(n.FileName)
		if n.LineNumber > 0 {
			loc += fmt.Sprintf(":%d", n.LineNumber)
			if n.ColumnNumber > 0 {
				loc += fmt.Sprintf(":%d", n.ColumnNumber)
			}
		}
		out.WriteString(applyStyle(filePathStyle, loc+":"))
		out.WriteString(" ")
	}
	out.WriteString(applyStyle(errorStyle, "error:"))
	out.WriteString(" ")
	out.WriteString(err.Error())
	out.WriteString("\n")

	if n != nil && n.LineNumber > 0 && n.Original != "" && !strings.Contains(n.Original, "\n") {
		num := fmt.Sprintf("%d", n.LineNumber)
		out.WriteString(applyStyle(lineNumberStyle, num))
		out.WriteString(" | ")
		out.WriteString(n.Original)
		out.WriteString("\n")
		if n.ColumnNumber > 0 {
			out.WriteString(strings.Repeat(" ", len(num)+3+n.ColumnNumber-1))
			out.WriteString(applyStyle(errorStyle, "^"))
			out.WriteString("\n")
		}
	}
	return out.String()
}

func FormatSuccessMessage(message string) string {
	return applyStyle(successStyle, "✓ ") + message
}

func FormatInfoMessage(message string) string {
	return applyStyle(infoStyle, "ℹ ") + message
}

func FormatWarningMessage(message string) string {
	return applyStyle(warningStyle, "⚠ ") + message
}

// FormatErrorMessage formats a simple error message for stderr.
func FormatErrorMessage(message string) string {
	return applyStyle(errorStyle, "✗ ") + message
}

func FormatVerboseMessage(message string) string {
	return applyStyle(verboseStyle, "🔍 ") + message
}

// TableConfig describes a table for RenderTable.
type TableConfig struct {
	Headers []string
	Rows    [][]string
	Title   string
}

// RenderTable renders rows under headers with padded columns.
func RenderTable(config TableConfig) string {
	if len(config.Headers) == 0 {
		return ""
	}

	var out strings.Builder
	if config.Title != "" {
		out.WriteString(applyStyle(successStyle, config.Title))
		out.WriteString("\n")
	}

	widths := make([]int, len(config.Headers))
	for i, h := range config.Headers {
		widths[i] = len(h)
	}
	for _, row := range config.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	out.WriteString(renderTableRow(config.Headers, widths, tableHeaderStyle))
	out.WriteString("\n")
	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	out.WriteString(renderTableRow(sep, widths, tableBorderStyle))
	out.WriteString("\n")
	for _, row := range config.Rows {
		out.WriteString(renderTableRow(row, widths, lipgloss.NewStyle()))
		out.WriteString("\n")
	}
	return out.String()
}

func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var row strings.Builder
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		row.WriteString(applyStyle(style, fmt.Sprintf("%-*s", widths[i], cell)))
		if i < len(cells)-1 && i < len(widths)-1 {
			row.WriteString(applyStyle(tableBorderStyle, " | "))
		}
	}
	return strings.TrimRight(row.String(), " ")
}
