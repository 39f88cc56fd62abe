package u

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// Compression names a compression applied to backup snapshots.
// The value doubles as the file name extension (without the dot).
type Compression string

const (
	CompressionNone   Compression = ""
	CompressionZstd   Compression = "zst"
	CompressionBrotli Compression = "br"
)

// ParseCompression maps a config value to Compression
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zstd", "zst":
		return CompressionZstd, nil
	case "brotli", "br":
		return CompressionBrotli, nil
	case "none", "no", "off":
		return CompressionNone, nil
	}
	return CompressionNone, fmt.Errorf("unknown compression '%s'", s)
}

// Ext returns file name extension, including the dot, or "" for no compression
func (c Compression) Ext() string {
	if c == CompressionNone {
		return ""
	}
	return "." + string(c)
}

// CompressionFromName guesses compression from file extension
// TODO: could sniff file content instead of checking file extension
func CompressionFromName(name string) Compression {
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".zst"), strings.HasSuffix(name, ".zstd"):
		return CompressionZstd
	case strings.HasSuffix(name, ".br"):
		return CompressionBrotli
	}
	return CompressionNone
}

// Compress compresses d with best-ish compression for a given method
func Compress(d []byte, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	switch c {
	case CompressionNone:
		return d, nil
	case CompressionZstd:
		w, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, err
		}
		if _, err = w.Write(d); err != nil {
			w.Close()
			return nil, err
		}
		if err = w.Close(); err != nil {
			return nil, err
		}
	case CompressionBrotli:
		w := brotli.NewWriterLevel(&buf, brotli.BestCompression)
		if _, err := w.Write(d); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown compression '%s'", c)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress
func Decompress(d []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return d, nil
	case CompressionZstd:
		r, err := zstd.NewReader(bytes.NewReader(d))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case CompressionBrotli:
		r := brotli.NewReader(bytes.NewReader(d))
		return io.ReadAll(r)
	}
	return nil, fmt.Errorf("unknown compression '%s'", c)
}
