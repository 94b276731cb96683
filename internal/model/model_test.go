package model

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/dgallion1/parsegest/internal/pipeline"
	"github.com/dgallion1/parsegest/internal/postprocess"
	"github.com/dgallion1/parsegest/internal/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const changeLogYAML = `changeLog:
  minVersion: 1.0.0
  changeSets:
    - changeSet:
        id: "1"
        author: alice
        labels: [core, init]
        sql: create table person (id int)
    - change-set:
        id: 2
        author: bob
        on-fail: warn
        depends-on: ["1"]
        sql: insert into person values (1)
`

func newFactory(t *testing.T, files map[string]string) *pipeline.Factory {
	t.Helper()
	f := pipeline.NewFactory(resource.NewMemory(files), nil)
	schema := postprocess.NewSchema()
	require.NoError(t, RegisterSchemas(schema))
	f.Postprocessors.Register(schema)
	gate, err := postprocess.NewVersionGate("1.2.0")
	require.NoError(t, err)
	f.Postprocessors.Register(gate)
	return f
}

func TestChangeLog_FromYAML(t *testing.T) {
	f := newFactory(t, map[string]string{"db.yaml": changeLogYAML})
	log, err := pipeline.Parse[*ChangeLog](context.Background(), f, "db.yaml")
	require.NoError(t, err)
	require.Len(t, log.ChangeSets, 2, spew.Sdump(log))

	first, second := log.ChangeSets[0], log.ChangeSets[1]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, []string{"core", "init"}, first.Labels)
	assert.Equal(t, FailHalt, first.OnFail)
	assert.NotEmpty(t, first.Checksum)
	assert.Equal(t, "db.yaml", first.File)
	assert.Equal(t, 4, first.Line)

	assert.Equal(t, "2", second.ID)
	assert.Equal(t, FailWarn, second.OnFail)
	require.Len(t, second.DependsOn, 1)
	assert.Same(t, first, second.DependsOn[0])

	raw, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"dependsOn":["1::alice"]`)
	assert.Contains(t, string(raw), `"onFail":"WARN"`)
}

func TestChangeLog_IdentityIsIDAndAuthor(t *testing.T) {
	base := `changeLog:
  changeSets:
    - changeSet:
        id: "1"
        author: alice
        sql: select 1
    - changeSet:
        id: "1"
        author: bob
        sql: select 2
    - changeSet:
        id: "2"
        author: carol
        sql: select 3
`
	t.Run("same id by different authors", func(t *testing.T) {
		src := base + "        dependsOn: [\"1::bob\"]\n"
		f := newFactory(t, map[string]string{"db.yaml": src})
		log, err := pipeline.Parse[*ChangeLog](context.Background(), f, "db.yaml")
		require.NoError(t, err)
		require.Len(t, log.ChangeSets, 3)
		require.Len(t, log.ChangeSets[2].DependsOn, 1)
		assert.Same(t, log.ChangeSets[1], log.ChangeSets[2].DependsOn[0])
	})

	t.Run("bare id naming two change sets", func(t *testing.T) {
		src := base + "        dependsOn: [\"1\"]\n"
		f := newFactory(t, map[string]string{"db.yaml": src})
		_, err := pipeline.Parse[*ChangeLog](context.Background(), f, "db.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `cannot resolve changeSet "1"`)
		assert.Contains(t, err.Error(), "matches 2 definitions")
	})

	t.Run("repeated id and author", func(t *testing.T) {
		src := base + `    - changeSet:
        id: "1"
        author: bob
        sql: select 4
`
		f := newFactory(t, map[string]string{"db.yaml": src})
		_, err := pipeline.Parse[*ChangeLog](context.Background(), f, "db.yaml")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate changeSet id=1 author=bob")
		assert.Contains(t, err.Error(), "line 15")
	})
}

func TestChangeLog_VersionGate(t *testing.T) {
	src := "changeLog:\n  minVersion: 2.0.0\n  changeSets: []\n"
	f := newFactory(t, map[string]string{"db.yaml": src})
	_, err := pipeline.Parse[*ChangeLog](context.Background(), f, "db.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires version >= 2.0.0")
}

func TestChangeLog_ValidateRejectsMissingSQL(t *testing.T) {
	src := "changeLog:\n  changeSets:\n    - changeSet:\n        id: a\n        author: x\n"
	f := newFactory(t, map[string]string{"db.yaml": src})
	_, err := pipeline.Parse[*ChangeLog](context.Background(), f, "db.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "change set a by x has no sql")
}

func TestChangeLog_SchemaRejectsBadLabel(t *testing.T) {
	src := "changeLog:\n  changeSets:\n    - changeSet:\n        id: a\n        author: x\n        labels: [\"has space\"]\n        sql: select 1\n"
	f := newFactory(t, map[string]string{"db.yaml": src})
	_, err := pipeline.Parse[*ChangeLog](context.Background(), f, "db.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema validation")
}

func TestRequiredVersion(t *testing.T) {
	assert.Equal(t, "", (&ChangeLog{}).RequiredVersion())
	assert.Equal(t, ">= 1.4", (&ChangeLog{MinVersion: "1.4"}).RequiredVersion())
	assert.Equal(t, "~1.4", (&ChangeLog{MinVersion: "~1.4"}).RequiredVersion())
}

func TestDocument_FromMarkdown(t *testing.T) {
	src := "# Guide\n\nIntro text.\n\n## Install\n\nRun it.\n"
	f := newFactory(t, map[string]string{"guide.md": src})
	doc, err := pipeline.Parse[*Document](context.Background(), f, "guide.md")
	require.NoError(t, err)
	assert.Equal(t, "guide", doc.Title)
	require.Len(t, doc.Sections, 1)
	guide := doc.Sections[0]
	assert.Equal(t, "Guide", guide.Title)
	assert.Equal(t, 1, guide.Level)
	assert.Equal(t, "Intro text.", guide.Text)
	require.Len(t, guide.Sections, 1)
	assert.Equal(t, "Install", guide.Sections[0].Title)
	assert.Contains(t, doc.Text(), "Run it.")
}

func TestTable_FromCSV(t *testing.T) {
	src := "name,age\nann,31\nbo,22\n"
	f := newFactory(t, map[string]string{"people.csv": src})
	table, err := pipeline.Parse[*Table](context.Background(), f, "people.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, map[string]string{"name": "bo", "age": "22"}, table.Rows[1])
}

func TestScript_FromSQL(t *testing.T) {
	src := "create table t (id int);\ninsert into t values (1);\n"
	f := newFactory(t, map[string]string{"init.sql": src})
	script, err := pipeline.Parse[*Script](context.Background(), f, "init.sql")
	require.NoError(t, err)
	require.Len(t, script.Statements, 2)
	assert.Equal(t, "insert into t values (1)", script.Statements[1])
}

func TestLookup(t *testing.T) {
	typ, err := Lookup("ChangeLog")
	require.NoError(t, err)
	assert.Equal(t, Types["changelog"], typ)

	_, err = Lookup("nope")
	assert.ErrorContains(t, err, "known: any, changelog, document, script, table")

	assert.Equal(t, "table", DefaultType("x.CSV"))
	assert.Equal(t, "document", DefaultType("x.pdf"))
}
