package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/parsegest/internal/model"
	"github.com/dgallion1/parsegest/internal/pipeline"
	"github.com/dgallion1/parsegest/internal/resource"
)

func testFactory() *pipeline.Factory {
	return pipeline.NewFactory(resource.NewMemory(map[string]string{
		"parts.csv": "name,qty\nbolt,4\n",
		"setup.sql": "create table t (id int);\ninsert into t values (1);\n",
	}), nil)
}

func TestParseFiles_KeepsOrder(t *testing.T) {
	results := ParseFiles(context.Background(), testFactory(), []string{"setup.sql", "parts.csv", "missing.csv"}, "")
	require.Len(t, results, 3)

	assert.Equal(t, "setup.sql", results[0].Path)
	assert.Equal(t, "script", results[0].Type)
	require.NoError(t, results[0].Err)
	assert.Len(t, results[0].Value.(*model.Script).Statements, 2)

	assert.Equal(t, "table", results[1].Type)
	require.NoError(t, results[1].Err)

	assert.Error(t, results[2].Err)
}

func TestParseFiles_UnknownType(t *testing.T) {
	results := ParseFiles(context.Background(), testFactory(), []string{"parts.csv"}, "nope")
	require.Len(t, results, 1)
	assert.ErrorContains(t, results[0].Err, `unknown type "nope"`)
}

func TestWriteResults(t *testing.T) {
	results := ParseFiles(context.Background(), testFactory(), []string{"parts.csv", "missing.csv"}, "table")
	var out, errOut bytes.Buffer

	err := WriteResults(&out, &errOut, results, "json")
	assert.EqualError(t, err, "1 of 2 files failed to parse")
	assert.Contains(t, out.String(), `"columns": [`)
	assert.Contains(t, out.String(), "parts.csv (table)")
	assert.Contains(t, errOut.String(), "error:")
}

func TestRender(t *testing.T) {
	table := &model.Table{Columns: []string{"a"}, Rows: []map[string]string{{"a": "1"}}}

	y, err := Render(table, "yaml")
	require.NoError(t, err)
	assert.Contains(t, y, "columns:")
	assert.Contains(t, y, `a: "1"`)

	j, err := Render(table, "json")
	require.NoError(t, err)
	assert.Contains(t, j, `"rows": [`)

	_, err = Render(table, "xml")
	assert.EqualError(t, err, `invalid output format "xml", want json or yaml`)
}

func TestParseParams(t *testing.T) {
	p, err := ParseParams([]string{"schema=public", "empty=", "expr=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "public", p["schema"])
	assert.Equal(t, "", p["empty"])
	assert.Equal(t, "a=b", p["expr"])

	_, err = ParseParams([]string{"novalue"})
	assert.EqualError(t, err, `invalid parameter "novalue", want key=value`)
}

func TestRenderPlugins(t *testing.T) {
	table := RenderPlugins(pipeline.PluginNames{
		Parsers:       []string{"yaml", "csv"},
		Preprocessors: []string{"normalize-names"},
	})
	assert.Contains(t, table, "STAGE")
	assert.Contains(t, table, "parser       | 2     | csv")
	assert.Contains(t, table, "preprocessor | 1     | normalize-names")
}

func TestExecuteSQL(t *testing.T) {
	res := resource.NewMemory(map[string]string{
		"seed.sql": "create table t (id int);\ninsert into t values (${n});\nselect id from t;\n",
	})
	out, err := ExecuteSQL(context.Background(), SQLOptions{
		DSN:     ":memory:",
		SQLFile: "seed.sql",
		Params:  map[string]string{"n": "7"},
	}, res, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully Executed: \ncreate table t (id int)\n")
	assert.Contains(t, out, "7 | ")
}

func TestWatch_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))
	other := filepath.Join(dir, "other.yaml")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		calls [][]string
	)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, []string{path}, 20*time.Millisecond, func(changed []string) {
			mu.Lock()
			calls = append(calls, changed)
			mu.Unlock()
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte("a: 2\n"), 0o644))
	}
	require.NoError(t, os.WriteFile(other, []byte("b: 1\n"), 0o644))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) > 0
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{path}, calls[0])
	mu.Unlock()

	cancel()
	assert.NoError(t, <-done)
}
