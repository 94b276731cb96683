package preprocess

import (
	"maps"
	"os"
	"regexp"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
)

// Parameters holds values substituted for ${name} placeholders.
type Parameters map[string]string

// ParamsFromEnv collects PREFIX<NAME>=value variables. Names are lowercased.
func ParamsFromEnv(prefix string) Parameters {
	p := Parameters{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, prefix) {
			continue
		}
		if name := strings.ToLower(strings.TrimPrefix(k, prefix)); name != "" {
			p[name] = v
		}
	}
	return p
}

// With returns a copy of p with other layered on top.
func (p Parameters) With(other Parameters) Parameters {
	out := maps.Clone(p)
	if out == nil {
		out = Parameters{}
	}
	maps.Copy(out, other)
	return out
}

var placeholder = regexp.MustCompile(`\$\{([^}\s]+)\}`)

// Expand replaces ${name} with its value. Unknown names are left as they are.
func (p Parameters) Expand(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		name := m[2 : len(m)-1]
		if v, ok := p[name]; ok {
			return v
		}
		if v, ok := p[strings.ToLower(name)]; ok {
			return v
		}
		return m
	})
}

// ParameterExpander expands placeholders in every string value of the tree.
type ParameterExpander struct {
	Params Parameters
}

func (ParameterExpander) Name() string { return "expand-parameters" }

func (e ParameterExpander) Process(root *parsednode.Node) error {
	root.Walk(func(n *parsednode.Node) bool {
		if s, ok := n.Value.(string); ok {
			n.Value = e.Params.Expand(s)
		}
		return true
	})
	return nil
}
