package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirDestination writes frames into a local directory.
type DirDestination struct {
	dir string
}

// NewDirDestination creates dir if needed and returns a destination for it.
func NewDirDestination(dir string) (*DirDestination, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &DirDestination{dir: dir}, nil
}

// Write replaces dir/name atomically, so a viewer never sees half a frame.
func (d *DirDestination) Write(_ context.Context, name string, data []byte, _ string) error {
	tmp, err := os.CreateTemp(d.dir, "."+name+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(d.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
