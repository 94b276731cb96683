package mapping

import (
	"reflect"

	"github.com/dgallion1/parsegest/internal/parsednode"
)

var (
	anyType      = reflect.TypeFor[any]()
	anyMapType   = reflect.TypeFor[map[string]any]()
	anySliceType = reflect.TypeFor[[]any]()
)

// Generic builds untyped values: scalars stay as parsed, nodes whose
// children are all unnamed become []any, other containers become
// map[string]any. Repeated child names collect into a []any.
type Generic struct{}

func (Generic) Name() string { return "generic" }

func (Generic) Priority(_ *parsednode.Node, t reflect.Type) int {
	switch t {
	case anyType:
		return 10
	case anyMapType, anySliceType:
		return 20
	}
	return 0
}

func (Generic) ToObject(_ *Context, n *parsednode.Node, t reflect.Type, _ any, path string) (reflect.Value, error) {
	v := ToGeneric(n)
	if v == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(t) {
		return reflect.Value{}, parsednode.Errorf(n, "cannot use %s as %s at %s", rv.Type(), t, displayPath(path))
	}
	out := reflect.New(t).Elem()
	out.Set(rv)
	return out, nil
}

// ToGeneric converts a subtree into plain Go values.
func ToGeneric(n *parsednode.Node) any {
	if len(n.Children) == 0 {
		return n.Value
	}
	if items := itemsOf(n); items != nil {
		out := make([]any, len(items))
		for i, c := range items {
			out[i] = ToGeneric(c)
		}
		return out
	}

	out := make(map[string]any, len(n.Children))
	for _, c := range n.Children {
		v := ToGeneric(c)
		switch prev, seen := out[c.Name]; {
		case !seen:
			out[c.Name] = v
		case isRepeated(prev):
			out[c.Name] = append(prev.(repeated), v)
		default:
			out[c.Name] = repeated{prev, v}
		}
	}
	for k, v := range out {
		if r, ok := v.(repeated); ok {
			out[k] = []any(r)
		}
	}
	return out
}

// repeated marks slices built from duplicate child names so they are not
// confused with []any values coming from sequences.
type repeated []any

func isRepeated(v any) bool {
	_, ok := v.(repeated)
	return ok
}
