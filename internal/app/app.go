// Package app assembles the parse factory from configuration. The server,
// the CLI and the MCP tools all build their factory here.
package app

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/parsegest/internal/config"
	"github.com/dgallion1/parsegest/internal/model"
	"github.com/dgallion1/parsegest/internal/parser"
	"github.com/dgallion1/parsegest/internal/pipeline"
	"github.com/dgallion1/parsegest/internal/postprocess"
	"github.com/dgallion1/parsegest/internal/preprocess"
	"github.com/dgallion1/parsegest/internal/resource"
)

// Version is the running version, checked against changelog minVersion.
var Version = "1.0.0"

// Resources returns the search path for sources: the local root first,
// then the remote resource service when one is configured.
func Resources(cfg config.Config, log *slog.Logger) resource.SearchPath {
	path := resource.SearchPath{resource.Dir(cfg.ResourceRoot)}
	if cfg.RemoteResourceURL != "" {
		path = append(path, resource.NewHTTP(cfg.RemoteResourceURL, cfg.RemoteResourceAPIKey, log))
	}
	return path
}

// NewFactory builds a factory reading from res. Parameters from the
// environment are merged under params, which win.
func NewFactory(cfg config.Config, res resource.Accessor, params preprocess.Parameters, log *slog.Logger) (*pipeline.Factory, error) {
	f := pipeline.NewFactory(res, log)
	f.Parsers = parser.Default(parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})

	// Duplicates are checked after expansion, when ids and authors are final.
	f.Preprocessors = preprocess.NewChain(
		preprocess.NameNormalizer{},
		preprocess.ParameterExpander{Params: preprocess.ParamsFromEnv(config.ParamPrefix).With(params)},
		preprocess.ChangeSetKeys,
	)

	schema := postprocess.NewSchema()
	if err := model.RegisterSchemas(schema); err != nil {
		return nil, fmt.Errorf("register schemas: %w", err)
	}
	gate, err := postprocess.NewVersionGate(Version)
	if err != nil {
		return nil, fmt.Errorf("version gate: %w", err)
	}
	f.Postprocessors.Register(gate)
	f.Postprocessors.Register(schema)
	return f, nil
}
