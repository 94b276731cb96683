package preprocess

import (
	"fmt"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
)

// UniqueKeys rejects sibling nodes named Node whose Keys children have the
// same values. The second occurrence is reported as the problem node.
type UniqueKeys struct {
	Node string
	Keys []string
}

// ChangeSetKeys rejects change sets that repeat an id and author pair.
var ChangeSetKeys = UniqueKeys{Node: "changeSet", Keys: []string{"id", "author"}}

func (u UniqueKeys) Name() string { return "unique-" + u.Node }

func (u UniqueKeys) Process(root *parsednode.Node) error {
	var err error
	root.Walk(func(n *parsednode.Node) bool {
		if err != nil {
			return false
		}
		seen := map[string]*parsednode.Node{}
		for _, c := range n.ChildrenNamed(u.Node) {
			key, ok := u.key(c)
			if !ok {
				continue
			}
			if first, dup := seen[key]; dup {
				err = parsednode.Errorf(c, "duplicate %s %s (first defined at %s)", u.Node, u.describe(c), where(first))
				return false
			}
			seen[key] = c
		}
		return true
	})
	return err
}

func (u UniqueKeys) key(n *parsednode.Node) (string, bool) {
	parts := make([]string, len(u.Keys))
	for i, k := range u.Keys {
		v, ok := n.ChildValue(k)
		if !ok || v == nil {
			return "", false
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\x00"), true
}

func (u UniqueKeys) describe(n *parsednode.Node) string {
	parts := make([]string, len(u.Keys))
	for i, k := range u.Keys {
		v, _ := n.ChildValue(k)
		parts[i] = fmt.Sprintf("%s=%v", k, v)
	}
	return strings.Join(parts, " ")
}

func where(n *parsednode.Node) string {
	if pos := n.Position(); pos != "" {
		return pos
	}
	return n.Path()
}
