package local

import (
	"context"
	"os"
	"path/filepath"
)

// Driver stores blobs on the local filesystem under a root directory.
type Driver struct {
	root string
}

func NewDriver(root string) *Driver {
	return &Driver{root: root}
}

func (d *Driver) Name() string { return "local" }

func (d *Driver) fullPath(p string) string {
	return filepath.Join(d.root, filepath.FromSlash(p))
}

func (d *Driver) GetContent(ctx context.Context, path string) ([]byte, error) {
	return os.ReadFile(d.fullPath(path))
}

func (d *Driver) PutContent(ctx context.Context, path string, content []byte) error {
	fp := d.fullPath(path)
	if err := os.MkdirAll(filepath.Dir(fp), 0o755); err != nil {
		return err
	}
	return os.WriteFile(fp, content, 0o644)
}

func (d *Driver) List(ctx context.Context, path string) ([]string, error) {
	entries, err := os.ReadDir(d.fullPath(path))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out, nil
}

func (d *Driver) Delete(ctx context.Context, path string) error {
	return os.RemoveAll(d.fullPath(path))
}
