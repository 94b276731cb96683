// Package pipeline drives a source through parser, preprocessors, mapping
// and postprocessors, and runs parse jobs in the background.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/dgallion1/parsegest/internal/mapping"
	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/parser"
	"github.com/dgallion1/parsegest/internal/postprocess"
	"github.com/dgallion1/parsegest/internal/preprocess"
	"github.com/dgallion1/parsegest/internal/resource"
)

// DependencyConverter turns an unresolved relationship into the ParseError
// reported to callers.
type DependencyConverter interface {
	Convert(err *mapping.DependencyError) *parsednode.ParseError
}

// DependencyConverterFunc adapts a function to DependencyConverter.
type DependencyConverterFunc func(err *mapping.DependencyError) *parsednode.ParseError

func (f DependencyConverterFunc) Convert(err *mapping.DependencyError) *parsednode.ParseError {
	return f(err)
}

// DropLocation reports dependency failures without a problem node: they
// concern the relationship between values, not one place in the source.
var DropLocation DependencyConverter = DependencyConverterFunc(func(err *mapping.DependencyError) *parsednode.ParseError {
	return &parsednode.ParseError{Message: err.Error(), Cause: err}
})

// Factory holds the plugin registries used for every parse. The registries
// are shared and safe for concurrent use; each call owns its tree and object.
type Factory struct {
	Parsers        *parser.Registry
	Preprocessors  *preprocess.Chain
	Mappings       *mapping.Factory
	Postprocessors *postprocess.Chain
	Dependencies   DependencyConverter

	// Stats, when set, records the parser, duration and outcome of every
	// ParsePath call that found a parser.
	Stats *ParseStats

	res resource.Accessor
	log *slog.Logger
}

// NewFactory returns a factory with the default parsers and mappings, the
// name normalizer, the change set duplicate check and the defaults and
// validation postprocessors.
func NewFactory(res resource.Accessor, log *slog.Logger) *Factory {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Factory{
		Parsers:        parser.Default(parser.Options{}),
		Preprocessors:  preprocess.NewChain(preprocess.NameNormalizer{}, preprocess.ChangeSetKeys),
		Mappings:       mapping.Default(),
		Postprocessors: postprocess.NewChain(postprocess.Defaults{}, postprocess.Validate{}),
		Dependencies:   DropLocation,
		res:            res,
		log:            log,
	}
}

// WithResources returns a copy of f reading sources from res. The copy
// shares f's registries.
func (f *Factory) WithResources(res resource.Accessor) *Factory {
	c := *f
	c.res = res
	return &c
}

// Resources returns the accessor sources are read from.
func (f *Factory) Resources() resource.Accessor {
	return f.res
}

// ParsePath reads path with the best parser for it and builds a value of
// target. Failures are *parsednode.ParseError with a message naming the
// problem node, its position, and the source text near it when known.
func (f *Factory) ParsePath(ctx context.Context, path string, target reflect.Type) (obj any, err error) {
	p, ok := f.Parsers.ForPath(path)
	if !ok {
		return nil, parsednode.NewParseError("no parser found for "+path, nil, nil)
	}
	log := f.log.With("source", path, "parser", p.Name())

	start := time.Now()
	if f.Stats != nil {
		defer func() { f.Stats.Record(p.Name(), time.Since(start), err) }()
	}

	root, err := p.Parse(ctx, f.res, path)
	if err == nil {
		obj, err = f.parseNode(ctx, root, target, log)
		if err == nil {
			log.Debug("parsed", "target", target.String(), "elapsed", time.Since(start))
			return obj, nil
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		return nil, err
	}
	return nil, f.describe(p, path, err, log)
}

// ParseNode builds a value of target from an existing tree, skipping parser
// selection. Errors are not rewritten with source context.
func (f *Factory) ParseNode(ctx context.Context, root *parsednode.Node, target reflect.Type) (any, error) {
	return f.parseNode(ctx, root, target, f.log)
}

func (f *Factory) parseNode(ctx context.Context, root *parsednode.Node, target reflect.Type, log *slog.Logger) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.Preprocessors.Process(root, log); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ptrType := target
	if ptrType.Kind() != reflect.Pointer {
		ptrType = reflect.PointerTo(target)
	}
	v, err := f.Mappings.ToObject(root, ptrType, nil, "")
	if err != nil {
		var depErr *mapping.DependencyError
		if errors.As(err, &depErr) {
			return nil, f.Dependencies.Convert(depErr)
		}
		return nil, parsednode.AsParseError(err)
	}
	obj := v.Interface()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.Postprocessors.Process(obj, log); err != nil {
		return nil, err
	}

	if target.Kind() != reflect.Pointer {
		return v.Elem().Interface(), nil
	}
	return obj, nil
}

// describe rewrites err with the context of its problem node.
func (f *Factory) describe(p parser.Parser, path string, err error, log *slog.Logger) *parsednode.ParseError {
	pe := parsednode.AsParseError(err)
	node := parsednode.ProblemNodeOf(pe)

	prefix := "Error parsing "
	if node != nil && node.OriginalName != "" {
		prefix += "\"" + node.OriginalName + "\" in "
	}
	if node == nil || node.FileName == "" {
		prefix += path
	} else {
		prefix += node.FileName
	}
	if node != nil && node.LineNumber > 0 {
		prefix += fmt.Sprintf(" line %d", node.LineNumber)
		if node.ColumnNumber > 0 {
			prefix += fmt.Sprintf(", column%d", node.ColumnNumber)
		}
	}

	near := ""
	if node != nil {
		near = p.DescribeOriginal(node)
	}

	msg := prefix + " " + pe.Error()
	if near != "" {
		msg = prefix + "\n" + parsednode.Indent(near+"\n\n"+pe.Error())
	}

	if node != nil {
		log.Debug("Error parsing:\n"+parsednode.Indent(node.PrettyPrint()), "node", node.Path())
	}
	return &parsednode.ParseError{Message: msg, Cause: pe, ProblemNode: node}
}

// Parse reads path into a new T.
func Parse[T any](ctx context.Context, f *Factory, path string) (T, error) {
	var zero T
	v, err := f.ParsePath(ctx, path, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// ParseTree builds a new T from root.
func ParseTree[T any](ctx context.Context, f *Factory, root *parsednode.Node) (T, error) {
	var zero T
	v, err := f.ParseNode(ctx, root, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// PluginNames lists the registered plugins of each stage in the order they
// are consulted.
type PluginNames struct {
	Parsers        []string `json:"parsers"`
	Preprocessors  []string `json:"preprocessors"`
	Mappings       []string `json:"mappings"`
	Postprocessors []string `json:"postprocessors"`
}

func (f *Factory) Plugins() PluginNames {
	var out PluginNames
	for _, p := range f.Parsers.All() {
		out.Parsers = append(out.Parsers, p.Name())
	}
	for _, p := range f.Preprocessors.Stages() {
		out.Preprocessors = append(out.Preprocessors, p.Name())
	}
	for _, m := range f.Mappings.Mappings() {
		out.Mappings = append(out.Mappings, m.Name())
	}
	for _, p := range f.Postprocessors.Stages() {
		out.Postprocessors = append(out.Postprocessors, p.Name())
	}
	return out
}
