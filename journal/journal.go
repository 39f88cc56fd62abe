// Package journal keeps an append-only history of changes.
//
// Each entry is a header line followed by a body:
//
//	--- ${size} ${timestamp_in_unix_epoch_ms} ${name}\n
//	${body}\n
//
// The body is key / value pairs encoded as TOON (https://toonformat.dev),
// which keeps the file readable with a text editor.
package journal

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/toon-format/toon-go"
)

var hdrPrefix = []byte("--- ")

// MaxBodySize is the largest body we write or read
const MaxBodySize = 4 << 20

// Entry is a single journal entry
type Entry struct {
	Name      string
	Timestamp time.Time
	// TOON-encoded key / value pairs
	Body []byte
}

// Journal appends entries to a file
type Journal struct {
	Path string
	mu   sync.Mutex
}

// Open returns a journal for path. The file is created on first write.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, fmt.Errorf("journal path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Journal{Path: absPath}, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name is empty")
	}
	if strings.ContainsAny(name, " \n") {
		return fmt.Errorf("name '%s' cannot contain spaces or newlines", name)
	}
	return nil
}

// EncodeBody encodes key / value pairs. vals must have even length
// and keys must be strings.
func EncodeBody(vals ...any) ([]byte, error) {
	n := len(vals)
	if n%2 != 0 {
		return nil, fmt.Errorf("invalid number of args: %d. Should be multiple of 2", n)
	}
	if n == 0 {
		return nil, nil
	}
	m := map[string]any{}
	for i := 0; i < n; i += 2 {
		k, ok := vals[i].(string)
		if !ok {
			return nil, fmt.Errorf("key at position %d is %T, not a string", i, vals[i])
		}
		m[k] = vals[i+1]
	}
	return toon.Marshal(m)
}

// MarshalEntry serializes entry. Zero timestamp means now.
func MarshalEntry(e *Entry) []byte {
	t := e.Timestamp
	if t.IsZero() {
		t = time.Now()
	}
	var buf bytes.Buffer
	buf.Write(hdrPrefix)
	buf.WriteString(strconv.Itoa(len(e.Body)))
	buf.WriteByte(' ')
	buf.WriteString(strconv.FormatInt(t.UnixMilli(), 10))
	buf.WriteByte(' ')
	buf.WriteString(e.Name)
	buf.WriteByte('\n')
	buf.Write(e.Body)
	// for readability, always end with a newline
	buf.WriteByte('\n')
	return buf.Bytes()
}

// Record appends an entry named name with key / value pairs vals
func (j *Journal) Record(name string, vals ...any) error {
	if err := validateName(name); err != nil {
		return err
	}
	body, err := EncodeBody(vals...)
	if err != nil {
		return err
	}
	if len(body) > MaxBodySize {
		return fmt.Errorf("body of '%s' is %d bytes, max is %d", name, len(body), MaxBodySize)
	}
	e := &Entry{
		Name:      name,
		Timestamp: time.Now(),
		Body:      body,
	}
	return j.append(MarshalEntry(e))
}

func (j *Journal) append(d []byte) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(j.Path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	if _, err = file.Write(d); err != nil {
		file.Close()
		return err
	}
	if err = file.Sync(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// ReadAll reads all entries. A missing file is an empty journal.
func (j *Journal) ReadAll() ([]*Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return ReadEntries(f)
}

func parseHeader(hdr []byte) (size int, t time.Time, name string, err error) {
	line := string(bytes.TrimSuffix(hdr, []byte{'\n'}))
	rest, ok := strings.CutPrefix(line, string(hdrPrefix))
	if !ok {
		return 0, t, "", fmt.Errorf("unexpected header '%s'", line)
	}
	parts := strings.SplitN(rest, " ", 3)
	if len(parts) != 3 {
		return 0, t, "", fmt.Errorf("unexpected header '%s'", line)
	}
	size, err = strconv.Atoi(parts[0])
	if err != nil || size < 0 {
		return 0, t, "", fmt.Errorf("invalid size in header '%s'", line)
	}
	if size > MaxBodySize {
		return 0, t, "", fmt.Errorf("size %d in header '%s' is bigger than %d", size, line, MaxBodySize)
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, t, "", fmt.Errorf("invalid timestamp in header '%s'", line)
	}
	return size, time.UnixMilli(ms), parts[2], nil
}

// ReadEntries parses entries written by MarshalEntry
func ReadEntries(r io.Reader) ([]*Entry, error) {
	br := bufio.NewReader(r)
	var res []*Entry
	for {
		hdr, err := br.ReadBytes('\n')
		if err == io.EOF && len(hdr) == 0 {
			return res, nil
		}
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", len(res), err)
		}
		size, t, name, err := parseHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", len(res), err)
		}
		// +1 for the trailing newline
		d := make([]byte, size+1)
		if _, err = io.ReadFull(br, d); err != nil {
			return nil, fmt.Errorf("entry %d: truncated body: %w", len(res), err)
		}
		if d[size] != '\n' {
			return nil, fmt.Errorf("entry %d: missing newline after body", len(res))
		}
		res = append(res, &Entry{
			Name:      name,
			Timestamp: t,
			Body:      d[:size],
		})
	}
}
