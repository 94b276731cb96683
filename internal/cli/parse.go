// Package cli implements the parsegest commands. cmd/parsegest wires them
// to cobra.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/parsegest/internal/console"
	"github.com/dgallion1/parsegest/internal/model"
	"github.com/dgallion1/parsegest/internal/pipeline"
	"github.com/dgallion1/parsegest/internal/preprocess"
)

// MaxConcurrentParses bounds the files parsed at once.
const MaxConcurrentParses = 8

// FileResult is the outcome of parsing one file.
type FileResult struct {
	Path  string
	Type  string
	Value any
	Err   error

	index int
}

// ParseFiles parses files concurrently. An empty typeName picks the type
// of each file from its extension. Results keep the order of files.
func ParseFiles(ctx context.Context, f *pipeline.Factory, files []string, typeName string) []FileResult {
	p := pool.NewWithResults[FileResult]().WithMaxGoroutines(MaxConcurrentParses)
	for i, path := range files {
		p.Go(func() FileResult {
			r := FileResult{Path: path, Type: typeName, index: i}
			if r.Type == "" {
				r.Type = model.DefaultType(path)
			}
			target, err := model.Lookup(r.Type)
			if err != nil {
				r.Err = err
				return r
			}
			r.Value, r.Err = f.ParsePath(ctx, path, target)
			return r
		})
	}
	results := p.Wait()
	slices.SortFunc(results, func(a, b FileResult) int { return a.index - b.index })
	return results
}

// WriteResults renders successful results to out and failures to errOut.
// It returns an error naming how many files failed.
func WriteResults(out, errOut io.Writer, results []FileResult, format string) error {
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprint(errOut, console.FormatParseError(r.Err))
			continue
		}
		text, err := Render(r.Value, format)
		if err != nil {
			return err
		}
		if len(results) > 1 {
			fmt.Fprintln(out, console.FormatInfoMessage(fmt.Sprintf("%s (%s)", console.ToRelativePath(r.Path), r.Type)))
		}
		fmt.Fprintln(out, strings.TrimRight(text, "\n"))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to parse", failed, len(results))
	}
	return nil
}

// Render encodes v as indented JSON or as YAML. YAML goes through JSON
// first so both formats use the json field names.
func Render(v any, format string) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	switch format {
	case "", "json":
		return string(b), nil
	case "yaml":
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return "", fmt.Errorf("encode result: %w", err)
		}
		y, err := yaml.Marshal(generic)
		if err != nil {
			return "", fmt.Errorf("encode result as yaml: %w", err)
		}
		return string(y), nil
	}
	return "", fmt.Errorf("invalid output format %q, want json or yaml", format)
}

// ParseParams reads key=value pairs as given to --param.
func ParseParams(pairs []string) (preprocess.Parameters, error) {
	params := preprocess.Parameters{}
	for _, kv := range pairs {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", kv)
		}
		params[strings.TrimSpace(k)] = v
	}
	return params, nil
}
