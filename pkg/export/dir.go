package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirSink writes each table to its own file under Dir. Files are written to
// a temporary name and renamed into place, so readers never see a partial
// table.
type DirSink struct {
	Dir      string
	Compress bool
}

// NewDirSink creates dir if needed.
func NewDirSink(dir string, compress bool) (*DirSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is empty")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &DirSink{Dir: dir, Compress: compress}, nil
}

// Name implements Sink.
func (d *DirSink) Name() string {
	return "dir"
}

// Path returns where t is written.
func (d *DirSink) Path(t Table) string {
	return filepath.Join(d.Dir, FileName(t, d.Compress))
}

// Write implements Sink.
func (d *DirSink) Write(ctx context.Context, t Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(d.Dir, "."+t.Name+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, t, d.Compress); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), d.Path(t))
}
