// Package sqlscript splits SQL scripts into individual statements.
package sqlscript

import "strings"

// DefaultDelimiter ends a statement when no other delimiter is configured.
const DefaultDelimiter = ";"

// Statement is one statement of a script. Line is the 1-based line on which
// its text starts.
type Statement struct {
	Text string
	Line int
}

// Split breaks script into statements on delimiter and on lines consisting of
// a lone "go". Delimiters inside quotes and comments are ignored. With
// stripComments set, "--" and "/* */" comments are removed from the output.
// Empty statements are dropped.
func Split(script string, stripComments bool, delimiter string) []Statement {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	s := splitter{
		src:   script,
		strip: stripComments,
		delim: delimiter,
		line:  1,
	}
	s.run()
	return s.out
}

type splitter struct {
	src   string
	strip bool
	delim string

	out       []Statement
	cur       strings.Builder
	startLine int
	line      int
}

func (s *splitter) run() {
	lineStart := true
	for i := 0; i < len(s.src); {
		if lineStart {
			lineStart = false
			if end, ok := s.goLine(i); ok {
				s.flush()
				i = end
				lineStart = true
				continue
			}
		}

		c := s.src[i]
		switch {
		case c == '\n':
			s.write("\n")
			s.line++
			lineStart = true
			i++
		case c == '\'' || c == '"' || c == '`':
			i = s.quoted(i, c)
		case strings.HasPrefix(s.src[i:], "--"):
			end := strings.IndexByte(s.src[i:], '\n')
			if end < 0 {
				end = len(s.src) - i
			}
			if !s.strip {
				s.write(s.src[i : i+end])
			}
			i += end
		case strings.HasPrefix(s.src[i:], "/*"):
			end := strings.Index(s.src[i+2:], "*/")
			if end < 0 {
				end = len(s.src) - i
			} else {
				end += 4
			}
			comment := s.src[i : i+end]
			if !s.strip {
				s.write(comment)
			} else if strings.Contains(comment, "\n") {
				s.write("\n")
			} else {
				s.write(" ")
			}
			s.line += strings.Count(comment, "\n")
			i += end
		case strings.HasPrefix(s.src[i:], s.delim):
			s.flush()
			i += len(s.delim)
		default:
			s.write(s.src[i : i+1])
			i++
		}
	}
	s.flush()
}

// quoted copies a quoted literal starting at i and returns the index after it.
// A doubled quote character is an escaped quote.
func (s *splitter) quoted(i int, q byte) int {
	j := i + 1
	for j < len(s.src) {
		if s.src[j] == q {
			if j+1 < len(s.src) && s.src[j+1] == q {
				j += 2
				continue
			}
			j++
			break
		}
		j++
	}
	lit := s.src[i:j]
	s.write(lit)
	s.line += strings.Count(lit, "\n")
	return j
}

// goLine reports whether the line starting at i holds only "go", and returns
// the index just past it.
func (s *splitter) goLine(i int) (int, bool) {
	end := strings.IndexByte(s.src[i:], '\n')
	next := len(s.src)
	if end >= 0 {
		next = i + end
	}
	if !strings.EqualFold(strings.TrimSpace(s.src[i:next]), "go") {
		return 0, false
	}
	if next < len(s.src) {
		s.line++
		next++
	}
	return next, true
}

func (s *splitter) write(text string) {
	if s.startLine == 0 {
		trimmed := strings.TrimLeft(text, " \t\r\n")
		if trimmed == "" {
			return
		}
		s.startLine = s.line + strings.Count(text[:len(text)-len(trimmed)], "\n")
	}
	s.cur.WriteString(text)
}

func (s *splitter) flush() {
	text := strings.TrimSpace(s.cur.String())
	if text != "" {
		s.out = append(s.out, Statement{Text: text, Line: s.startLine})
	}
	s.cur.Reset()
	s.startLine = 0
}
