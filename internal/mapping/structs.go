package mapping

import (
	"fmt"
	"reflect"

	"github.com/dgallion1/parsegest/internal/parsednode"
)

var (
	namedType      = reflect.TypeFor[Named]()
	identifiedType = reflect.TypeFor[Identified]()
)

// Structs maps container nodes onto structs, slices and string-keyed maps.
type Structs struct{}

func (Structs) Name() string { return "structs" }

func (Structs) Priority(_ *parsednode.Node, t reflect.Type) int {
	if isScalarType(t) {
		return 0
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Slice:
		return 10
	case reflect.Map:
		if t.Key().Kind() == reflect.String {
			return 10
		}
	}
	return 0
}

func (s Structs) ToObject(mc *Context, n *parsednode.Node, t reflect.Type, parent any, path string) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.Slice:
		items := itemsOf(n)
		switch {
		case items != nil:
		case n.Value != nil && len(n.Children) == 0:
			items = []*parsednode.Node{n}
		default:
			items = n.Children
		}
		return mapSlice(mc, items, t, parent, path)
	case reflect.Map:
		return mapMap(mc, n.Children, t, parent, path)
	}

	if reflect.PointerTo(t).Implements(namedType) || t.Implements(namedType) {
		want := reflect.New(t).Interface().(Named).NodeName()
		if n.Name != want {
			if c := n.Child(want); c != nil {
				n = c
				path = joinPath(path, want)
			}
		}
	}

	if err := expectMapping(n, t, path); err != nil {
		return reflect.Value{}, err
	}

	ptr := reflect.New(t)
	if err := fillStruct(mc, n, ptr.Elem(), path); err != nil {
		return reflect.Value{}, err
	}

	if id, ok := ptr.Interface().(Identified); ok {
		kind, key := id.NodeID()
		if key != "" {
			if err := mc.Graph.Register(kind, key, ptr.Interface(), path); err != nil {
				return reflect.Value{}, err
			}
		}
	}
	return ptr.Elem(), nil
}

// expectMapping rejects scalar and sequence nodes for struct targets, unless
// the struct takes the node value itself.
func expectMapping(n *parsednode.Node, t reflect.Type, path string) error {
	var shape string
	switch {
	case n.Value != nil && len(n.Children) == 0:
		shape = "a scalar"
	case itemsOf(n) != nil:
		shape = "a list"
	default:
		return nil
	}
	if shape == "a scalar" && takesValue(t) {
		return nil
	}
	return parsednode.Errorf(n, "expected a mapping for %s at %s, found %s", t.Name(), displayPath(path), shape)
}

func takesValue(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("node") == "" {
			if takesValue(f.Type) {
				return true
			}
			continue
		}
		if spec, ok := parseTag(f); ok && spec.source == "value" {
			return true
		}
	}
	return false
}

func fillStruct(mc *Context, n *parsednode.Node, v reflect.Value, path string) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		spec, ok := parseTag(f)
		if !ok {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct && f.Tag.Get("node") == "" {
			if err := fillStruct(mc, n, v.Field(i), path); err != nil {
				return err
			}
			continue
		}
		if err := fillField(mc, n, v, f, v.Field(i), spec, path); err != nil {
			return err
		}
	}
	return nil
}

func fillField(mc *Context, n *parsednode.Node, owner reflect.Value, f reflect.StructField, fv reflect.Value, spec fieldSpec, path string) error {
	parent := owner.Addr().Interface()
	fieldPath := joinPath(path, spec.name)

	switch spec.source {
	case "value":
		if n.Value == nil {
			return nil
		}
		val, err := mc.Map(n, f.Type, parent, path)
		if err != nil {
			return err
		}
		fv.Set(val)
		return nil
	case "line", "column", "file":
		return setPosition(fv, n, spec.source)
	}

	if spec.ref != "" {
		return resolveRef(mc, n, fv, spec, fieldPath)
	}

	if f.Type.Kind() == reflect.Slice && !isScalarType(f.Type) {
		items := sliceItems(n, spec)
		if len(items) == 0 {
			if spec.required {
				return &DependencyError{Kind: "field", ID: spec.name, Path: path, Reason: "required value is missing"}
			}
			return nil
		}
		val, err := mapSlice(mc, items, f.Type, parent, fieldPath)
		if err != nil {
			return err
		}
		fv.Set(val)
		return nil
	}

	child := n.Child(spec.name)
	if child == nil || (child.Value == nil && len(child.Children) == 0 && isScalarType(f.Type)) {
		if spec.required {
			return &DependencyError{Kind: "field", ID: spec.name, Path: path, Reason: "required value is missing"}
		}
		return nil
	}
	val, err := mc.Map(child, f.Type, parent, fieldPath)
	if err != nil {
		return err
	}
	fv.Set(val)
	return nil
}

// sliceItems finds the nodes that make up a slice field: the children named
// after the field, the unnamed items of a single such child, or, with an
// item option, the item children found directly or under the field's node.
func sliceItems(n *parsednode.Node, spec fieldSpec) []*parsednode.Node {
	if spec.item != "" {
		if wrapper := n.Child(spec.name); wrapper != nil {
			return itemsNamed(wrapper, spec.item)
		}
		return n.ChildrenNamed(spec.item)
	}
	items := n.ChildrenNamed(spec.name)
	if len(items) == 1 {
		if inner := itemsOf(items[0]); inner != nil {
			return inner
		}
	}
	return items
}

// itemsNamed returns the children of n called name, accepting unnamed
// children as well.
func itemsNamed(n *parsednode.Node, name string) []*parsednode.Node {
	var out []*parsednode.Node
	for _, c := range n.Children {
		if c.Name == name || c.Name == "" {
			out = append(out, c)
		}
	}
	return out
}

// itemsOf returns the children of n when they are all unnamed sequence
// items, or nil.
func itemsOf(n *parsednode.Node) []*parsednode.Node {
	if n.Value != nil || len(n.Children) == 0 {
		return nil
	}
	for _, c := range n.Children {
		if c.Name != "" {
			return nil
		}
	}
	return n.Children
}

func mapSlice(mc *Context, items []*parsednode.Node, t reflect.Type, parent any, path string) (reflect.Value, error) {
	out := reflect.MakeSlice(t, 0, len(items))
	for i, item := range items {
		v, err := mc.Map(item, t.Elem(), parent, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return reflect.Value{}, err
		}
		out = reflect.Append(out, v)
	}
	return out, nil
}

func mapMap(mc *Context, children []*parsednode.Node, t reflect.Type, parent any, path string) (reflect.Value, error) {
	out := reflect.MakeMapWithSize(t, len(children))
	for _, c := range children {
		if c.Name == "" {
			return reflect.Value{}, parsednode.Errorf(c, "unnamed entry in map at %s", displayPath(path))
		}
		v, err := mc.Map(c, t.Elem(), parent, joinPath(path, c.Name))
		if err != nil {
			return reflect.Value{}, err
		}
		out.SetMapIndex(reflect.ValueOf(c.Name).Convert(t.Key()), v)
	}
	return out, nil
}

func setPosition(fv reflect.Value, n *parsednode.Node, which string) error {
	switch which {
	case "file":
		if fv.Kind() != reflect.String {
			return fmt.Errorf("file position needs a string field, got %s", fv.Type())
		}
		fv.SetString(n.FileName)
	default:
		pos := n.LineNumber
		if which == "column" {
			pos = n.ColumnNumber
		}
		if fv.Kind() < reflect.Int || fv.Kind() > reflect.Int64 {
			return fmt.Errorf("%s position needs an int field, got %s", which, fv.Type())
		}
		fv.SetInt(int64(pos))
	}
	return nil
}

// resolveRef fills a field from identifiers of values already in the graph.
// A string field keeps the identifier; any other field gets the value.
func resolveRef(mc *Context, n *parsednode.Node, fv reflect.Value, spec fieldSpec, path string) error {
	child := n.Child(spec.name)
	var ids []string
	if child != nil {
		if child.Value != nil {
			ids = append(ids, fmt.Sprint(child.Value))
		}
		for _, c := range child.Children {
			if c.Value != nil {
				ids = append(ids, fmt.Sprint(c.Value))
			}
		}
	}
	if len(ids) == 0 {
		if spec.required {
			return &DependencyError{Kind: spec.ref, ID: spec.name, Path: path, Reason: "required reference is missing"}
		}
		return nil
	}

	resolved := make([]any, len(ids))
	for i, id := range ids {
		v, matches := mc.Graph.Resolve(spec.ref, id)
		switch matches {
		case 1:
		case 0:
			return &DependencyError{Kind: spec.ref, ID: id, Path: path, Reason: "not defined before it is referenced"}
		default:
			return &DependencyError{Kind: spec.ref, ID: id, Path: path, Reason: fmt.Sprintf("matches %d definitions", matches)}
		}
		resolved[i] = v
	}

	if fv.Kind() == reflect.Slice {
		out := reflect.MakeSlice(fv.Type(), 0, len(ids))
		for i, id := range ids {
			ev, err := refValue(fv.Type().Elem(), id, resolved[i], path)
			if err != nil {
				return err
			}
			out = reflect.Append(out, ev)
		}
		fv.Set(out)
		return nil
	}
	if len(ids) > 1 {
		return fmt.Errorf("%s: %d references for a single-valued field", path, len(ids))
	}
	ev, err := refValue(fv.Type(), ids[0], resolved[0], path)
	if err != nil {
		return err
	}
	fv.Set(ev)
	return nil
}

func refValue(t reflect.Type, id string, obj any, path string) (reflect.Value, error) {
	if t.Kind() == reflect.String {
		return reflect.ValueOf(id).Convert(t), nil
	}
	ov := reflect.ValueOf(obj)
	if ov.Type().AssignableTo(t) {
		return ov, nil
	}
	if ov.Kind() == reflect.Pointer && ov.Elem().Type().AssignableTo(t) {
		return ov.Elem(), nil
	}
	return reflect.Value{}, fmt.Errorf("%s: reference %q is a %s, not %s", path, id, ov.Type(), t)
}
