package mapping

import (
	"reflect"
	"strings"
)

// fieldSpec is the parsed form of a `node:"..."` struct tag.
//
//	node:"name"                 child node to read (default: lowerCamel field name)
//	node:"name,required"        missing child is a dependency error
//	node:"name,ref=kind"        child holds identifiers of already mapped values
//	node:"name,item=child"      slice items are "child" nodes, directly or under "name"
//	node:",value"               the node's own value
//	node:",line" / ",column" / ",file"  the node's source position
//	node:"-"                    skipped
type fieldSpec struct {
	name     string
	required bool
	ref      string
	item     string
	source   string // value, line, column or file
}

func parseTag(f reflect.StructField) (fieldSpec, bool) {
	tag, hasTag := f.Tag.Lookup("node")
	if tag == "-" {
		return fieldSpec{}, false
	}
	var spec fieldSpec
	name, opts, _ := strings.Cut(tag, ",")
	spec.name = name
	if !hasTag || name == "" {
		spec.name = fieldName(f.Name)
	}
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		switch key, val, _ := strings.Cut(opt, "="); key {
		case "required":
			spec.required = true
		case "ref":
			spec.ref = val
		case "item":
			spec.item = val
		case "value", "line", "column", "file":
			spec.source = key
		}
	}
	return spec, true
}
