package parser

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/resource"
	"github.com/goccy/go-yaml/ast"
	yamlparser "github.com/goccy/go-yaml/parser"
	"github.com/goccy/go-yaml/token"
)

// YAMLParser reads YAML, and JSON as a YAML subset, with per-key positions.
//
// Mapping keys become named children. A sequence item that is a single-key
// mapping becomes a child named by that key; any other item is an unnamed
// child. So
//
//	changeLog:
//	  - changeSet:
//	      id: 1
//
// yields changeLog > changeSet > id.
type YAMLParser struct{}

func (p *YAMLParser) Name() string { return "yaml" }

func (p *YAMLParser) Priority(path string) int {
	return byExtension(path, map[string]int{".yaml": 10, ".yml": 10, ".json": 5})
}

func (p *YAMLParser) Parse(ctx context.Context, res resource.Accessor, path string) (*parsednode.Node, error) {
	return open(ctx, res, path, p.ParseReader)
}

func (p *YAMLParser) DescribeOriginal(n *parsednode.Node) string {
	return describeOriginal(n)
}

func (p *YAMLParser) ParseReader(r io.Reader, filename string) (*parsednode.Node, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	lines := newSourceLines(src)

	file, err := yamlparser.ParseBytes(src, 0)
	if err != nil {
		line, col, msg := extractYAMLError(err)
		node := parsednode.New("").At(filename, line, col)
		node.Original = lines.at(line)
		return nil, parsednode.NewParseError("invalid yaml: "+msg, err, node)
	}

	b := &yamlBuilder{file: filename, lines: lines}
	root := parsednode.New("").At(filename, 1, 1)
	for _, doc := range file.Docs {
		if doc == nil || doc.Body == nil {
			continue
		}
		b.anchors = map[string]ast.Node{}
		if err := b.fill(root, doc.Body); err != nil {
			return nil, err
		}
	}
	return root, nil
}

type yamlBuilder struct {
	file    string
	lines   sourceLines
	anchors map[string]ast.Node
}

// fill adds the content of v to parent. Mappings add one child per key;
// sequences add one child per item; scalars set the value. Aliases expand
// to the anchored content.
func (b *yamlBuilder) fill(parent *parsednode.Node, v ast.Node) error {
	switch n := v.(type) {
	case *ast.MappingNode:
		return b.fillMapping(parent, n.Values)
	case *ast.MappingValueNode:
		return b.fillMapping(parent, []*ast.MappingValueNode{n})
	case *ast.SequenceNode:
		for _, item := range n.Values {
			child, err := b.item(item)
			if err != nil {
				return err
			}
			parent.AddChild(child)
		}
	case *ast.AnchorNode:
		b.anchors[nameOf(n.Name)] = n.Value
		return b.fill(parent, n.Value)
	case *ast.AliasNode:
		target, err := b.resolve(n)
		if err != nil {
			return err
		}
		return b.fill(parent, target)
	case *ast.TagNode:
		return b.fill(parent, n.Value)
	default:
		parent.Value = scalarValue(v)
	}
	return nil
}

// fillMapping adds one child per pair. Merge keys ("<<") splice the pairs of
// the referenced mappings in, skipping keys the mapping sets itself.
func (b *yamlBuilder) fillMapping(parent *parsednode.Node, pairs []*ast.MappingValueNode) error {
	explicit := map[string]bool{}
	for _, mv := range pairs {
		if !mv.Key.IsMergeKey() {
			explicit[keyString(mv.Key)] = true
		}
	}
	for _, mv := range pairs {
		if !mv.Key.IsMergeKey() {
			child, err := b.pair(mv)
			if err != nil {
				return err
			}
			parent.AddChild(child)
			continue
		}
		merged, err := b.mergeSources(mv)
		if err != nil {
			return err
		}
		for _, src := range merged {
			for _, inner := range src {
				name := keyString(inner.Key)
				if explicit[name] {
					continue
				}
				explicit[name] = true
				child, err := b.pair(inner)
				if err != nil {
					return err
				}
				parent.AddChild(child)
			}
		}
	}
	return nil
}

// mergeSources returns the mappings named by a merge key, which is either a
// single mapping or a sequence of them.
func (b *yamlBuilder) mergeSources(mv *ast.MappingValueNode) ([][]*ast.MappingValueNode, error) {
	v, err := b.deref(mv.Value)
	if err != nil {
		return nil, err
	}
	var items []ast.Node
	if seq, ok := v.(*ast.SequenceNode); ok {
		items = seq.Values
	} else {
		items = []ast.Node{v}
	}
	var out [][]*ast.MappingValueNode
	for _, item := range items {
		m, err := b.deref(item)
		if err != nil {
			return nil, err
		}
		switch m := m.(type) {
		case *ast.MappingNode:
			out = append(out, m.Values)
		case *ast.MappingValueNode:
			out = append(out, []*ast.MappingValueNode{m})
		default:
			return nil, b.errorAt(item.GetToken(), "merge key value must be a mapping")
		}
	}
	return out, nil
}

// deref strips anchors and tags and follows aliases.
func (b *yamlBuilder) deref(v ast.Node) (ast.Node, error) {
	for {
		switch n := v.(type) {
		case *ast.AnchorNode:
			b.anchors[nameOf(n.Name)] = n.Value
			v = n.Value
		case *ast.TagNode:
			v = n.Value
		case *ast.AliasNode:
			target, err := b.resolve(n)
			if err != nil {
				return nil, err
			}
			v = target
		default:
			return v, nil
		}
	}
}

func (b *yamlBuilder) resolve(alias *ast.AliasNode) (ast.Node, error) {
	name := nameOf(alias.Value)
	target, ok := b.anchors[name]
	if !ok {
		return nil, b.errorAt(alias.GetToken(), fmt.Sprintf("unknown alias %q", name))
	}
	return target, nil
}

func (b *yamlBuilder) errorAt(tok *token.Token, msg string) error {
	n := b.node("", tok)
	return parsednode.NewParseError("invalid yaml: "+msg, nil, n)
}

func (b *yamlBuilder) pair(mv *ast.MappingValueNode) (*parsednode.Node, error) {
	n := b.node(keyString(mv.Key), mv.Key.GetToken())
	if err := b.fill(n, mv.Value); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *yamlBuilder) item(v ast.Node) (*parsednode.Node, error) {
	if mv := singlePair(v); mv != nil && !mv.Key.IsMergeKey() {
		return b.pair(mv)
	}
	n := b.node("", v.GetToken())
	if err := b.fill(n, v); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *yamlBuilder) node(name string, tok *token.Token) *parsednode.Node {
	n := parsednode.New(name)
	n.FileName = b.file
	if tok != nil && tok.Position != nil {
		n.LineNumber = tok.Position.Line
		n.ColumnNumber = tok.Position.Column
		n.Original = b.lines.at(tok.Position.Line)
	}
	return n
}

// singlePair returns the only entry of a one-key mapping.
func singlePair(v ast.Node) *ast.MappingValueNode {
	switch n := v.(type) {
	case *ast.MappingValueNode:
		return n
	case *ast.MappingNode:
		if len(n.Values) == 1 {
			return n.Values[0]
		}
	}
	return nil
}

func nameOf(v ast.Node) string {
	if v == nil {
		return ""
	}
	if tok := v.GetToken(); tok != nil {
		return tok.Value
	}
	return v.String()
}

func keyString(key ast.MapKeyNode) string {
	switch k := key.(type) {
	case *ast.StringNode:
		return k.Value
	case *ast.MappingKeyNode:
		return k.Value.GetToken().Value
	}
	if tok := key.GetToken(); tok != nil {
		return tok.Value
	}
	return key.String()
}

func scalarValue(v ast.Node) any {
	switch n := v.(type) {
	case *ast.NullNode:
		return nil
	case *ast.StringNode:
		return n.Value
	case *ast.LiteralNode:
		return n.Value.Value
	case *ast.IntegerNode:
		return n.Value
	case *ast.FloatNode:
		return n.Value
	case *ast.BoolNode:
		return n.Value
	}
	if tok := v.GetToken(); tok != nil {
		return tok.Value
	}
	return v.String()
}

var bracketPos = regexp.MustCompile(`^\[(\d+):(\d+)\]\s*(.*)`)

// extractYAMLError pulls the line, column and first-line message out of a
// parse error. Both the "[line:col] msg" and "yaml: line N: msg" forms are
// recognized; unknown forms return zero positions.
func extractYAMLError(err error) (line, column int, message string) {
	errStr := strings.TrimSpace(err.Error())
	first, _, _ := strings.Cut(errStr, "\n")

	if m := bracketPos.FindStringSubmatch(first); m != nil {
		line, _ = strconv.Atoi(m[1])
		column, _ = strconv.Atoi(m[2])
		return line, column, strings.TrimSpace(m[3])
	}

	if _, rest, ok := strings.Cut(first, "yaml: line "); ok {
		lineStr, msg, ok := strings.Cut(rest, ":")
		if ok {
			if _, scanErr := fmt.Sscanf(lineStr, "%d", &line); scanErr == nil {
				return line, 0, strings.TrimSpace(msg)
			}
		}
	}
	return 0, 0, first
}
