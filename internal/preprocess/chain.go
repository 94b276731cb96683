// Package preprocess runs ordered, in-place mutations over a parsed tree
// before it is mapped.
package preprocess

import (
	"log/slog"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/plugin"
)

// Preprocessor mutates the tree in place.
type Preprocessor interface {
	Name() string
	Process(root *parsednode.Node) error
}

// Chain runs preprocessors in registration order. The first failure stops
// the chain; mutations already made stay in place.
type Chain struct {
	stages *plugin.Registry[Preprocessor]
}

func NewChain(stages ...Preprocessor) *Chain {
	c := &Chain{stages: plugin.New(plugin.Ordered[Preprocessor]())}
	for _, s := range stages {
		c.Register(s)
	}
	return c
}

func (c *Chain) Register(p Preprocessor) {
	c.stages.Register(p)
}

// Stages returns the registered preprocessors in order.
func (c *Chain) Stages() []Preprocessor {
	return c.stages.All()
}

// Process runs every stage over root. The returned error is always a
// *parsednode.ParseError; plain stage errors are wrapped without a node.
func (c *Chain) Process(root *parsednode.Node, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, p := range c.stages.All() {
		if err := p.Process(root); err != nil {
			logger.Debug("preprocessor failed", "stage", p.Name(), "error", err)
			return parsednode.AsParseError(err)
		}
		logger.Debug("preprocessed", "stage", p.Name())
	}
	return nil
}
