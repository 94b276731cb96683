package cli

import (
	"strconv"

	"github.com/dgallion1/parsegest/internal/console"
	"github.com/dgallion1/parsegest/internal/pipeline"
)

// RenderPlugins lists the registered plugins of every stage as a table.
func RenderPlugins(names pipeline.PluginNames) string {
	var rows [][]string
	add := func(stage string, list []string) {
		for i, n := range list {
			rows = append(rows, []string{stage, strconv.Itoa(i + 1), n})
		}
	}
	add("parser", names.Parsers)
	add("preprocessor", names.Preprocessors)
	add("mapping", names.Mappings)
	add("postprocessor", names.Postprocessors)

	return console.RenderTable(console.TableConfig{
		Headers: []string{"STAGE", "ORDER", "NAME"},
		Rows:    rows,
	})
}
