// Package resource gives parsers read access to source bytes behind a path.
package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned by Open when nothing exists at the path.
var ErrNotFound = errors.New("resource not found")

// Accessor answers existence checks and opens byte streams.
type Accessor interface {
	Exists(ctx context.Context, path string) (bool, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ReadAll opens path and reads it fully.
func ReadAll(ctx context.Context, a Accessor, path string) ([]byte, error) {
	rc, err := a.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// SearchPath tries each accessor in turn and uses the first that has the path.
type SearchPath []Accessor

func (s SearchPath) Exists(ctx context.Context, path string) (bool, error) {
	for _, a := range s {
		ok, err := a.Exists(ctx, path)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (s SearchPath) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	for _, a := range s {
		ok, err := a.Exists(ctx, path)
		if err != nil {
			return nil, err
		}
		if ok {
			return a.Open(ctx, path)
		}
	}
	return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
}
