// Package backup stores compressed snapshots of the grades file
// in a Destination: an S3-compatible bucket, an SFTP server or a local directory.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/studentgrades/gradebook/log"
	"github.com/studentgrades/gradebook/u"
)

// Destination is where snapshots are kept. Names are flat i.e. no directories.
type Destination interface {
	Put(ctx context.Context, name string, d []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
	String() string
}

const timeFormat = "20060102-150405"

// SnapshotName returns e.g. "student_grades-20261019-150405.xlsx.zst" for
// "student_grades.xlsx"
func SnapshotName(path string, t time.Time, c u.Compression) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + "-" + t.UTC().Format(timeFormat) + ext + c.Ext()
}

// Create uploads a compressed copy of the file at path and returns snapshot name
func Create(ctx context.Context, dst Destination, path string, c u.Compression) (string, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	compressed, err := u.Compress(d, c)
	if err != nil {
		return "", err
	}
	name := SnapshotName(path, time.Now(), c)
	timeStart := time.Now()
	if err = dst.Put(ctx, name, compressed); err != nil {
		return "", fmt.Errorf("upload of '%s' to %s failed: %w", name, dst, err)
	}
	log.Logf("backup: uploaded '%s' (%s, compressed from %s) to %s in %s\n", name, u.FormatSize(int64(len(compressed))), u.FormatSize(int64(len(d))), dst, time.Since(timeStart))
	return name, nil
}

// Fetch downloads a snapshot and returns decompressed content
func Fetch(ctx context.Context, dst Destination, name string) ([]byte, error) {
	d, err := dst.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("download of '%s' from %s failed: %w", name, dst, err)
	}
	return u.Decompress(d, u.CompressionFromName(name))
}

// List returns snapshots of the file at path, oldest first
func List(ctx context.Context, dst Destination, path string) ([]string, error) {
	names, err := dst.List(ctx)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(path)
	prefix := strings.TrimSuffix(base, filepath.Ext(base)) + "-"
	var res []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			res = append(res, name)
		}
	}
	// timestamp in the name sorts chronologically
	slices.Sort(res)
	return res, nil
}

// Latest returns the newest snapshot or "" if there are none
func Latest(ctx context.Context, dst Destination, path string) (string, error) {
	names, err := List(ctx, dst, path)
	if err != nil || len(names) == 0 {
		return "", err
	}
	return names[len(names)-1], nil
}
