package resource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FS reads resources from an fs.FS.
type FS struct {
	fsys fs.FS
}

// NewFS wraps fsys.
func NewFS(fsys fs.FS) *FS {
	return &FS{fsys: fsys}
}

// Dir serves files below root on the local disk.
func Dir(root string) *FS {
	return &FS{fsys: os.DirFS(root)}
}

func (f *FS) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := clean(name)
	if err != nil {
		return false, err
	}
	info, err := fs.Stat(f.fsys, p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

func (f *FS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := clean(name)
	if err != nil {
		return nil, err
	}
	file, err := f.fsys.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return file, nil
}

// clean turns a caller path into an fs.FS path. Leading slashes are dropped
// and escapes above the root are rejected.
func clean(name string) (string, error) {
	p := path.Clean("/" + filepath.ToSlash(name))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		p = "."
	}
	if !fs.ValidPath(p) {
		return "", fmt.Errorf("invalid resource path %q", name)
	}
	return p, nil
}
