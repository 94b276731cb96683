// Package mapping converts parsed node trees into typed Go values.
//
// A Factory holds Mapping plugins. For every node it selects the mapping
// with the highest priority for the target type, so callers can override
// how any type is built by registering a mapping with a higher priority.
package mapping

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/plugin"
)

// Mapping builds a value of target from n. Nested values are resolved back
// through mc.Map.
type Mapping interface {
	Name() string
	Priority(n *parsednode.Node, target reflect.Type) int
	ToObject(mc *Context, n *parsednode.Node, target reflect.Type, parent any, path string) (reflect.Value, error)
}

// Named types are looked up under a child of that name when the node
// handed to them has a different name.
type Named interface {
	NodeName() string
}

// Identified values are registered in the dependency graph once mapped, so
// later fields can reference them with ref=<kind>.
type Identified interface {
	NodeID() (kind, id string)
}

// Enum is implemented by string types with a closed set of values. Matching
// is case-insensitive; the stored value uses the listed spelling.
type Enum interface {
	EnumValues() []string
}

// Factory dispatches each node to the best mapping for its target type.
type Factory struct {
	mappings *plugin.Registry[Mapping]
}

func NewFactory(mappings ...Mapping) *Factory {
	f := &Factory{mappings: plugin.New(func(m Mapping, args ...any) int {
		n, _ := args[0].(*parsednode.Node)
		t, _ := args[1].(reflect.Type)
		return m.Priority(n, t)
	})}
	for _, m := range mappings {
		f.Register(m)
	}
	return f
}

// Default returns a factory with the built-in mappings.
func Default() *Factory {
	return NewFactory(Scalars{}, Structs{}, Generic{})
}

func (f *Factory) Register(m Mapping) {
	f.mappings.Register(m)
}

// Mappings returns the registered mappings in order.
func (f *Factory) Mappings() []Mapping {
	return f.mappings.All()
}

// ToObject maps n onto target using a fresh dependency graph.
func (f *Factory) ToObject(n *parsednode.Node, target reflect.Type, parent any, path string) (reflect.Value, error) {
	return f.NewContext().Map(n, target, parent, path)
}

// NewContext starts a mapping run. A Context is not safe for concurrent use.
func (f *Factory) NewContext() *Context {
	return &Context{factory: f, Graph: NewGraph()}
}

// Context carries the state of one mapping run.
type Context struct {
	factory *Factory
	Graph   *Graph
}

// Map builds a value of target from n. Pointer targets are built from their
// element type; an addressable result is returned by address so that values
// registered in the graph and values stored in the object are the same.
func (mc *Context) Map(n *parsednode.Node, target reflect.Type, parent any, path string) (reflect.Value, error) {
	if n == nil {
		return reflect.Value{}, fmt.Errorf("map %s: nil node", target)
	}
	if target.Kind() == reflect.Pointer {
		v, err := mc.Map(n, target.Elem(), parent, path)
		if err != nil {
			return reflect.Value{}, err
		}
		if v.CanAddr() && v.Type() == target.Elem() {
			return v.Addr(), nil
		}
		p := reflect.New(target.Elem())
		p.Elem().Set(v)
		return p, nil
	}

	m, ok := mc.factory.mappings.Select(n, target)
	if !ok {
		return reflect.Value{}, parsednode.Errorf(n, "no mapping for %s at %s", target, displayPath(path))
	}
	v, err := m.ToObject(mc, n, target, parent, path)
	if err != nil {
		return reflect.Value{}, err
	}
	if v.Type() != target {
		if !v.Type().ConvertibleTo(target) {
			return reflect.Value{}, parsednode.Errorf(n, "mapping %s produced %s, want %s", m.Name(), v.Type(), target)
		}
		v = v.Convert(target)
	}
	return v, nil
}

// DependencyError reports a relationship between mapped values that could not
// be resolved: a missing required field, or a reference to an identifier
// that has not been produced yet. It carries no source position.
type DependencyError struct {
	Kind   string
	ID     string
	Path   string
	Reason string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("cannot resolve %s %q at %s: %s", e.Kind, e.ID, displayPath(e.Path), e.Reason)
}

// IDSeparator joins the parts of a composite id, as in "1::alice".
const IDSeparator = "::"

// Graph records identified values in the order they were mapped.
type Graph struct {
	byKind map[string]map[string]any
	order  []GraphEntry
}

// GraphEntry is one registered value.
type GraphEntry struct {
	Kind  string
	ID    string
	Value any
}

func NewGraph() *Graph {
	return &Graph{byKind: map[string]map[string]any{}}
}

// Register adds v. Registering the same kind and id twice fails.
func (g *Graph) Register(kind, id string, v any, path string) error {
	ids := g.byKind[kind]
	if ids == nil {
		ids = map[string]any{}
		g.byKind[kind] = ids
	}
	if _, dup := ids[id]; dup {
		return &DependencyError{Kind: kind, ID: id, Path: path, Reason: "defined more than once"}
	}
	ids[id] = v
	g.order = append(g.order, GraphEntry{Kind: kind, ID: id, Value: v})
	return nil
}

// Lookup returns the value registered under kind and id.
func (g *Graph) Lookup(kind, id string) (any, bool) {
	v, ok := g.byKind[kind][id]
	return v, ok
}

// Resolve finds the value a reference names. ref is either a full id or,
// for ids joined with IDSeparator, their leading part. matches is the number
// of values ref could name; the value is returned only when it is one.
func (g *Graph) Resolve(kind, ref string) (v any, matches int) {
	ids := g.byKind[kind]
	if v, ok := ids[ref]; ok {
		return v, 1
	}
	prefix := ref + IDSeparator
	for id, candidate := range ids {
		if strings.HasPrefix(id, prefix) {
			v = candidate
			matches++
		}
	}
	if matches != 1 {
		return nil, matches
	}
	return v, 1
}

// Entries returns every registered value in registration order.
func (g *Graph) Entries() []GraphEntry {
	return append([]GraphEntry(nil), g.order...)
}

func joinPath(path, seg string) string {
	if path == "" {
		return seg
	}
	return path + "/" + seg
}

func displayPath(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

// fieldName derives the default node name of a Go field: MinVersion becomes
// minVersion and ID becomes id.
func fieldName(goName string) string {
	r := []rune(goName)
	upper := 0
	for upper < len(r) && r[upper] >= 'A' && r[upper] <= 'Z' {
		upper++
	}
	switch {
	case upper == 0:
		return goName
	case upper == 1 || upper == len(r):
		return strings.ToLower(string(r[:upper])) + string(r[upper:])
	default:
		// URLPath -> urlPath: the last capital starts the next word.
		return strings.ToLower(string(r[:upper-1])) + string(r[upper-1:])
	}
}
