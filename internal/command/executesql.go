// Package command implements the operations exposed by the CLI that work
// against a database rather than a parsed object.
package command

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dgallion1/parsegest/internal/executor"
	"github.com/dgallion1/parsegest/internal/preprocess"
	"github.com/dgallion1/parsegest/internal/resource"
	"github.com/dgallion1/parsegest/internal/sqlscript"
)

// Session is the part of *executor.Session the command needs.
type Session interface {
	Execute(ctx context.Context, stmt string) error
	Query(ctx context.Context, stmt string) iter.Seq2[executor.Row, error]
	Commit() error
	Rollback() error
}

var selectStatement = regexp.MustCompile(`(?s)^\s*select\s+.*`)

// ExecuteSQL runs a SQL script statement by statement and reports what
// each statement did. The whole script is committed at the end; any
// failure rolls it back.
type ExecuteSQL struct {
	Session       Session
	Resources     resource.Accessor
	Params        preprocess.Parameters
	Delimiter     string
	StripComments bool
	Log           *slog.Logger
}

// Run executes sql, or the contents of sqlFile read through Resources.
// Exactly one of them must be set. The returned output covers every
// statement that ran, even when err is non-nil.
func (c *ExecuteSQL) Run(ctx context.Context, sql, sqlFile string) (string, error) {
	log := c.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	script, err := c.script(ctx, sql, sqlFile)
	if err != nil {
		return "", err
	}

	var out strings.Builder
	for _, stmt := range sqlscript.Split(script, c.StripComments, c.Delimiter) {
		text := c.Params.Expand(stmt.Text)
		log.Debug("executing statement", "line", stmt.Line)

		if selectStatement.MatchString(strings.ToLower(text)) {
			err = c.query(ctx, text, &out)
		} else {
			err = c.Session.Execute(ctx, text)
			if err == nil {
				out.WriteString("Successfully Executed: \n" + text + "\n")
			}
		}
		if err != nil {
			if rbErr := c.Session.Rollback(); rbErr != nil && !errors.Is(rbErr, executor.ErrNoTransaction) {
				log.Warn("rollback failed", "error", rbErr)
			}
			return out.String(), fmt.Errorf("statement at line %d: %w", stmt.Line, err)
		}
		out.WriteString("\n")
	}

	if err := c.Session.Commit(); err != nil && !errors.Is(err, executor.ErrNoTransaction) {
		return out.String(), fmt.Errorf("commit: %w", err)
	}
	return out.String(), nil
}

// script returns the text to run. sqlFile wins when both are set.
func (c *ExecuteSQL) script(ctx context.Context, sql, sqlFile string) (string, error) {
	if sqlFile == "" {
		if sql == "" {
			return "", errors.New("either sql or sqlFile is required")
		}
		return sql, nil
	}

	if c.Resources == nil {
		return "", fmt.Errorf("no resource accessor to read %s", sqlFile)
	}
	ok, err := c.Resources.Exists(ctx, sqlFile)
	if err != nil {
		return "", fmt.Errorf("check %s: %w", sqlFile, err)
	}
	if !ok {
		return "", fmt.Errorf("the file %s was not found in the configured search path", sqlFile)
	}
	data, err := resource.ReadAll(ctx, c.Resources, sqlFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (c *ExecuteSQL) query(ctx context.Context, stmt string, out *strings.Builder) error {
	var (
		rows []map[string]any
		keys []string
		seen = map[string]bool{}
	)
	for row, err := range c.Session.Query(ctx, stmt) {
		if err != nil {
			return err
		}
		m := make(map[string]any, len(row.Columns))
		for i, col := range row.Columns {
			m[col] = row.Values[i]
			if !seen[col] {
				seen[col] = true
				keys = append(keys, col)
			}
		}
		rows = append(rows, m)
	}

	out.WriteString("Output of " + stmt + ":\n")
	if len(rows) == 0 {
		out.WriteString("-- Empty Resultset --\n")
		return nil
	}
	out.WriteString(strings.Join(keys, " | ") + " |\n")
	for _, row := range rows {
		for _, k := range keys {
			v, ok := row[k]
			if !ok || v == nil {
				out.WriteString("null | ")
				continue
			}
			out.WriteString(fmt.Sprint(v) + " | ")
		}
		out.WriteString("\n")
	}
	return nil
}
