// Package postprocess runs ordered mutations and checks over a mapped object.
package postprocess

import (
	"log/slog"

	"github.com/dgallion1/parsegest/internal/parsednode"
	"github.com/dgallion1/parsegest/internal/plugin"
)

// Postprocessor may mutate obj, which is always a pointer.
type Postprocessor interface {
	Name() string
	Process(obj any) error
}

// Chain runs postprocessors in registration order, each one seeing the
// changes made by those before it. The first failure stops the chain.
type Chain struct {
	stages *plugin.Registry[Postprocessor]
}

func NewChain(stages ...Postprocessor) *Chain {
	c := &Chain{stages: plugin.New(plugin.Ordered[Postprocessor]())}
	for _, s := range stages {
		c.Register(s)
	}
	return c
}

func (c *Chain) Register(p Postprocessor) {
	c.stages.Register(p)
}

// Stages returns the registered postprocessors in order.
func (c *Chain) Stages() []Postprocessor {
	return c.stages.All()
}

// Process runs every stage over obj. Failures come back as
// *parsednode.ParseError.
func (c *Chain) Process(obj any, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for _, p := range c.stages.All() {
		if err := p.Process(obj); err != nil {
			logger.Debug("postprocessor failed", "stage", p.Name(), "error", err)
			return parsednode.AsParseError(err)
		}
		logger.Debug("postprocessed", "stage", p.Name())
	}
	return nil
}
