package journal

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"
)

func TestRecordAndReadAll(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "grades.journal.txt"))
	assert.NoError(t, err)

	entries, err := j.ReadAll()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(entries))

	before := time.Now().Add(-time.Second)
	assert.NoError(t, j.Record("add", "id", "S1", "name", "Alice"))
	assert.NoError(t, j.Record("delete", "id", "S1"))
	assert.NoError(t, j.Record("restore"))

	entries, err = j.ReadAll()
	assert.NoError(t, err)
	assert.Equal(t, 3, len(entries))
	assert.Equal(t, "add", entries[0].Name)
	assert.Equal(t, "delete", entries[1].Name)
	assert.Equal(t, "restore", entries[2].Name)
	assert.True(t, entries[0].Timestamp.After(before))
	body := string(entries[0].Body)
	assert.True(t, strings.Contains(body, "Alice"), "%s", body)
	assert.True(t, strings.Contains(body, "S1"), "%s", body)
	assert.Equal(t, 0, len(entries[2].Body))
}

func TestRecordInvalid(t *testing.T) {
	j, err := Open(filepath.Join(t.TempDir(), "journal.txt"))
	assert.NoError(t, err)
	assert.Error(t, j.Record(""))
	assert.Error(t, j.Record("has space"))
	assert.Error(t, j.Record("add", "id"))
	assert.Error(t, j.Record("add", 5, "S1"))
	assert.Error(t, j.Record("add", "id", strings.Repeat("x", MaxBodySize)))
	entries, err := j.ReadAll()
	assert.NoError(t, err)
	assert.Equal(t, 0, len(entries))

	_, err = Open("")
	assert.Error(t, err)
}

func TestMarshalEntry(t *testing.T) {
	e := &Entry{
		Name:      "update",
		Timestamp: time.UnixMilli(1700000000123),
		Body:      []byte("id: S1"),
	}
	d := MarshalEntry(e)
	assert.Equal(t, "--- 6 1700000000123 update\nid: S1\n", string(d))

	entries, err := ReadEntries(bytes.NewReader(d))
	assert.NoError(t, err)
	assert.Equal(t, 1, len(entries))
	assert.Equal(t, e.Name, entries[0].Name)
	assert.Equal(t, e.Body, entries[0].Body)
	assert.True(t, e.Timestamp.Equal(entries[0].Timestamp))
}

func TestReadEntriesMalformed(t *testing.T) {
	tests := []string{
		"add\n",
		"--- x 1700000000123 add\n",
		"--- 3 abc add\n",
		"--- 10 1700000000123 add\nshort\n",
		"--- 2 1700000000123 add\nabc",
		"--- -1 1700000000123 add\n\n",
		"--- 9223372036854775807 1700000000123 add\nx\n",
		"--- 99999999999999999999 1700000000123 add\nx\n",
		fmt.Sprintf("--- %d 1700000000123 add\nx\n", MaxBodySize+1),
	}
	for _, s := range tests {
		_, err := ReadEntries(strings.NewReader(s))
		assert.Error(t, err, "%q", s)
	}
}
