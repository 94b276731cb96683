package postprocess

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Defaulter fills in derived or default fields.
type Defaulter interface {
	ApplyDefaults() error
}

// Validator checks its own invariants.
type Validator interface {
	Validate() error
}

// Versioned values name the tool versions they can be read by, as a semver
// constraint such as ">= 1.2".
type Versioned interface {
	RequiredVersion() string
}

// Defaults calls ApplyDefaults on every reachable Defaulter.
type Defaults struct{}

func (Defaults) Name() string { return "defaults" }

func (Defaults) Process(obj any) error {
	return Walk(obj, func(v any) error {
		if d, ok := v.(Defaulter); ok {
			return d.ApplyDefaults()
		}
		return nil
	})
}

// Validate calls Validate on every reachable Validator.
type Validate struct{}

func (Validate) Name() string { return "validate" }

func (Validate) Process(obj any) error {
	return Walk(obj, func(v any) error {
		if val, ok := v.(Validator); ok {
			return val.Validate()
		}
		return nil
	})
}

// VersionGate rejects objects whose required version excludes Current.
type VersionGate struct {
	Current *semver.Version
}

// NewVersionGate parses the running version.
func NewVersionGate(current string) (*VersionGate, error) {
	v, err := semver.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", current, err)
	}
	return &VersionGate{Current: v}, nil
}

func (*VersionGate) Name() string { return "version-gate" }

func (g *VersionGate) Process(obj any) error {
	return Walk(obj, func(v any) error {
		req, ok := v.(Versioned)
		if !ok {
			return nil
		}
		expr := req.RequiredVersion()
		if expr == "" {
			return nil
		}
		c, err := semver.NewConstraint(expr)
		if err != nil {
			return fmt.Errorf("invalid version constraint %q: %w", expr, err)
		}
		if !c.Check(g.Current) {
			return fmt.Errorf("requires version %s, running %s", expr, g.Current)
		}
		return nil
	})
}
