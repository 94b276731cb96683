package preprocess

import (
	"strings"
	"unicode"

	"github.com/dgallion1/parsegest/internal/parsednode"
)

// NameNormalizer rewrites dashed and underscored names into lowerCamel, so
// change-set and change_set both become changeSet. OriginalName keeps the
// source spelling.
type NameNormalizer struct{}

func (NameNormalizer) Name() string { return "normalize-names" }

func (NameNormalizer) Process(root *parsednode.Node) error {
	root.Walk(func(n *parsednode.Node) bool {
		if camel := lowerCamel(n.Name); camel != n.Name {
			n.Rename(camel)
		}
		return true
	})
	return nil
}

func lowerCamel(name string) string {
	if !strings.ContainsAny(name, "-_") {
		return name
	}
	parts := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		r := []rune(p)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// Aliases renames nodes whose name appears in the table.
type Aliases map[string]string

func (Aliases) Name() string { return "aliases" }

func (a Aliases) Process(root *parsednode.Node) error {
	root.Walk(func(n *parsednode.Node) bool {
		if to, ok := a[n.Name]; ok {
			n.Rename(to)
		}
		return true
	})
	return nil
}
