package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/studentgrades/gradebook/atomicfile"
	"github.com/studentgrades/gradebook/u"
)

// Dir keeps snapshots in a local directory, e.g. a mounted network drive
type Dir struct {
	Dir string
}

func NewDir(dir string) (*Dir, error) {
	if dir == "" {
		return nil, fmt.Errorf("backup directory is empty")
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if !u.DirExists(absDir) {
		if u.FileExists(absDir) {
			return nil, fmt.Errorf("backup directory '%s' is a file", absDir)
		}
		if err = os.MkdirAll(absDir, 0755); err != nil {
			return nil, err
		}
	}
	return &Dir{Dir: absDir}, nil
}

func (d *Dir) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid snapshot name '%s'", name)
	}
	return filepath.Join(d.Dir, name), nil
}

func (d *Dir) Put(ctx context.Context, name string, data []byte) error {
	path, err := d.path(name)
	if err != nil {
		return err
	}
	return atomicfile.WriteFile(path, func(w io.Writer) error {
		_, err := io.Copy(w, bytes.NewReader(data))
		return err
	})
}

func (d *Dir) Get(ctx context.Context, name string) ([]byte, error) {
	path, err := d.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (d *Dir) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.Dir)
	if err != nil {
		return nil, err
	}
	var res []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			res = append(res, e.Name())
		}
	}
	return res, nil
}

func (d *Dir) String() string {
	return "dir '" + d.Dir + "'"
}
