package model

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/dgallion1/parsegest/internal/postprocess"
)

// Types maps the names accepted by the CLI, API and MCP tools to target
// types. "any" builds maps and slices.
var Types = map[string]reflect.Type{
	"changelog": reflect.TypeFor[*ChangeLog](),
	"document":  reflect.TypeFor[*Document](),
	"table":     reflect.TypeFor[*Table](),
	"script":    reflect.TypeFor[*Script](),
	"any":       reflect.TypeFor[any](),
}

// Lookup returns the target type registered under name.
func Lookup(name string) (reflect.Type, error) {
	t, ok := Types[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown type %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return t, nil
}

// Names returns the registered type names, sorted.
func Names() []string {
	names := make([]string, 0, len(Types))
	for n := range Types {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// DefaultType picks a target for a path by extension.
func DefaultType(path string) string {
	switch {
	case hasExt(path, ".yaml", ".yml", ".json"):
		return "changelog"
	case hasExt(path, ".csv"):
		return "table"
	case hasExt(path, ".sql"):
		return "script"
	default:
		return "document"
	}
}

func hasExt(path string, exts ...string) bool {
	lower := strings.ToLower(path)
	for _, e := range exts {
		if strings.HasSuffix(lower, e) {
			return true
		}
	}
	return false
}

const changeLogSchema = `{
	"type": "object",
	"required": ["changeSets"],
	"properties": {
		"minVersion": {"type": "string"},
		"changeSets": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "author"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"author": {"type": "string", "minLength": 1},
					"onFail": {"enum": ["HALT", "CONTINUE", "MARK_RAN", "WARN"]},
					"labels": {"type": "array", "items": {"type": "string", "pattern": "^[A-Za-z0-9_.-]+$"}},
					"dependsOn": {"type": "array", "items": {"type": "string"}}
				}
			}
		}
	}
}`

const tableSchema = `{
	"type": "object",
	"properties": {
		"columns": {"type": "array", "items": {"type": "string", "minLength": 1}, "uniqueItems": true}
	}
}`

// RegisterSchemas adds the JSON schemas of the model types to s.
func RegisterSchemas(s *postprocess.Schema) error {
	if err := s.Register(reflect.TypeFor[ChangeLog](), changeLogSchema); err != nil {
		return err
	}
	return s.Register(reflect.TypeFor[Table](), tableSchema)
}
