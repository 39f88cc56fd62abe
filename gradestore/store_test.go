package gradestore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/xuri/excelize/v2"
)

func openTestStore(t *testing.T) *Store {
	path := filepath.Join(t.TempDir(), "student_grades.xlsx")
	s, err := Open(path)
	assert.NoError(t, err)
	return s
}

func rec(id, name, math, os, dbms string) *StudentRecord {
	return &StudentRecord{ID: id, Name: name, Mathematics: math, OS: os, DBMS: dbms}
}

func mustLoad(t *testing.T, s *Store) []*StudentRecord {
	recs, err := s.Load()
	assert.NoError(t, err)
	return recs
}

func assertErrorIs(t *testing.T, err error, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error matching '%v', got '%v'", target, err)
	}
}

type fakeJournal struct {
	names []string
	vals  [][]any
	err   error
}

func (j *fakeJournal) Record(name string, vals ...any) error {
	j.names = append(j.names, name)
	j.vals = append(j.vals, vals)
	return j.err
}

func TestOpenCreatesEmptyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "student_grades.xlsx")
	s, err := Open(path)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(mustLoad(t, s)))

	f, err := excelize.OpenFile(path)
	assert.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(DefaultSheetName)
	assert.NoError(t, err)
	assert.Equal(t, [][]string{Columns}, rows)

	// opening existing file doesn't overwrite it
	assert.NoError(t, s.Add(rec("S1", "Alice", "90", "85", "88")))
	s2, err := Open(path)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(mustLoad(t, s2)))
}

func TestExampleSequence(t *testing.T) {
	s := openTestStore(t)

	alice := rec("S1", "Alice", "90", "85", "88")
	assert.NoError(t, s.Add(alice))
	assert.Equal(t, []*StudentRecord{alice}, mustLoad(t, s))

	err := s.Add(rec("S1", "Bob", "1", "1", "1"))
	assertErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, []*StudentRecord{alice}, mustLoad(t, s))

	assert.NoError(t, s.Update("S1", rec("", "Alice B", "91", "86", "89")))
	assert.Equal(t, []*StudentRecord{rec("S1", "Alice B", "91", "86", "89")}, mustLoad(t, s))

	assert.NoError(t, s.Delete("S1"))
	assert.Equal(t, 0, len(mustLoad(t, s)))
}

func TestAddKeepsOrder(t *testing.T) {
	s := openTestStore(t)
	exp := []*StudentRecord{
		rec("S2", "Bob", "70", "71", "72"),
		rec("S1", "Alice", "90", "85", "88"),
		rec("s1", "Carol", "A", "B+", "n/a"),
	}
	for _, r := range exp {
		assert.NoError(t, s.Add(r))
	}
	assert.Equal(t, exp, mustLoad(t, s))
}

func TestAddDoesNotKeepCallerPointer(t *testing.T) {
	s := openTestStore(t)
	r := rec("S1", "Alice", "90", "85", "88")
	assert.NoError(t, s.Add(r))
	r.Name = "Mallory"
	got, err := s.Get("S1")
	assert.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

func TestBlankFieldsRejected(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Add(rec("S1", "Alice", "90", "85", "88")))
	before := mustLoad(t, s)

	blanks := []*StudentRecord{
		rec("", "Bob", "1", "2", "3"),
		rec("S2", " ", "1", "2", "3"),
		rec("S2", "Bob", "", "2", "3"),
		rec("S2", "Bob", "1", "\t", "3"),
		rec("S2", "Bob", "1", "2", ""),
	}
	for _, r := range blanks {
		assertErrorIs(t, s.Add(r), ErrValidation)
	}
	for _, r := range blanks[1:] {
		assertErrorIs(t, s.Update("S1", r), ErrValidation)
	}
	assertErrorIs(t, s.Update("", rec("", "Bob", "1", "2", "3")), ErrValidation)
	assertErrorIs(t, s.Update("S1", nil), ErrValidation)
	assertErrorIs(t, s.Add(nil), ErrValidation)
	assert.Equal(t, before, mustLoad(t, s))
}

func TestUnstorableValuesRejected(t *testing.T) {
	s := openTestStore(t)
	assertErrorIs(t, s.Add(rec("S\x01", "Alice", "90", "85", "88")), ErrValidation)
	assertErrorIs(t, s.Add(rec("S\x01", "Bob", "90", "85", "88")), ErrValidation)
	assertErrorIs(t, s.Add(rec("S1", "Al\xffice", "90", "85", "88")), ErrValidation)
	assertErrorIs(t, s.Add(rec("S1", "Alice", "9\uFFFE", "85", "88")), ErrValidation)
	assertErrorIs(t, s.Add(rec("S1", "Alice", "90", "85", strings.Repeat("x", 32768))), ErrValidation)
	assert.Equal(t, 0, len(mustLoad(t, s)))

	assert.NoError(t, s.Add(rec("S1", "Alice", "90", "85", "88")))
	assertErrorIs(t, s.Update("S1", rec("", "Alice\x00", "90", "85", "88")), ErrValidation)
	assertErrorIs(t, s.Update("S1\x1f", rec("", "Alice", "90", "85", "88")), ErrValidation)
	assertErrorIs(t, s.Replace([]*StudentRecord{rec("S\x02", "Bob", "1", "2", "3")}), ErrValidation)

	// everything else reads back unchanged
	multi := rec("ID 2024/001", "Zoë\tO'Brien\nÅ", "½", "😀", strings.Repeat("y", 32767))
	assert.NoError(t, s.Add(multi))
	got, err := s.Get(multi.ID)
	assert.NoError(t, err)
	assert.Equal(t, multi, got)
	assertErrorIs(t, s.Add(multi), ErrDuplicateKey)
}

func TestUpdateKeepsID(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Add(rec("S1", "Alice", "90", "85", "88")))
	assert.NoError(t, s.Add(rec("S2", "Bob", "70", "71", "72")))

	// id in the record is ignored
	assert.NoError(t, s.Update("S1", rec("S9", "Alice B", "91", "86", "89")))
	exp := []*StudentRecord{
		rec("S1", "Alice B", "91", "86", "89"),
		rec("S2", "Bob", "70", "71", "72"),
	}
	assert.Equal(t, exp, mustLoad(t, s))
	_, err := s.Get("S9")
	assertErrorIs(t, err, ErrNotFound)
}

func TestNotFound(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Add(rec("S1", "Alice", "90", "85", "88")))
	before := mustLoad(t, s)

	assertErrorIs(t, s.Update("S2", rec("", "Bob", "1", "2", "3")), ErrNotFound)
	assertErrorIs(t, s.Delete("S2"), ErrNotFound)
	// matching is exact
	assertErrorIs(t, s.Delete("s1"), ErrNotFound)
	assertErrorIs(t, s.Delete(" S1"), ErrNotFound)
	_, err := s.Get("S2")
	assertErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, mustLoad(t, s))
}

func TestDeleteRemovesOneRow(t *testing.T) {
	s := openTestStore(t)
	all := []*StudentRecord{
		rec("S1", "Alice", "90", "85", "88"),
		rec("S2", "Bob", "70", "71", "72"),
		rec("S3", "Carol", "60", "61", "62"),
	}
	for _, r := range all {
		assert.NoError(t, s.Add(r))
	}
	assert.NoError(t, s.Delete("S2"))
	recs := mustLoad(t, s)
	assert.Equal(t, 2, len(recs))
	assert.Equal(t, []*StudentRecord{all[0], all[2]}, recs)
}

func TestLoadErrors(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, os.Remove(s.Path))
	_, err := s.Load()
	assertErrorIs(t, err, ErrStorageRead)
	assertErrorIs(t, s.Add(rec("S1", "Alice", "90", "85", "88")), ErrStorageRead)
	assertErrorIs(t, s.Delete("S1"), ErrStorageRead)
	// a failed operation doesn't create the file
	_, err = os.Stat(s.Path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, os.WriteFile(s.Path, []byte("not a spreadsheet"), 0644))
	_, err = s.Load()
	assertErrorIs(t, err, ErrStorageRead)
}

func writeRows(t *testing.T, path string, rows [][]any) {
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		assert.NoError(t, err)
		assert.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	assert.NoError(t, f.SaveAs(path))
}

func TestLoadMissingColumn(t *testing.T) {
	s := openTestStore(t)
	writeRows(t, s.Path, [][]any{
		{"Student ID", "Student Name", "Mathematics", "OS"},
		{"S1", "Alice", "90", "85"},
	})
	_, err := s.Load()
	assertErrorIs(t, err, ErrStorageRead)
	// the file is left as is
	assertErrorIs(t, s.Add(rec("S2", "Bob", "1", "2", "3")), ErrStorageRead)
}

func TestLoadHandEditedFile(t *testing.T) {
	s := openTestStore(t)
	writeRows(t, s.Path, [][]any{
		{"DBMS", "Student Name", "Student ID", "OS", "Mathematics", "Notes"},
		{"88", "Alice", "S1", "85", "90", "good"},
		{},
		{"", "Bob", "S2"},
	})
	exp := []*StudentRecord{
		rec("S1", "Alice", "90", "85", "88"),
		rec("S2", "Bob", "", "", ""),
	}
	assert.Equal(t, exp, mustLoad(t, s))

	// after a change we write the canonical column order
	assert.NoError(t, s.Update("S2", rec("", "Bob", "1", "2", "3")))
	f, err := excelize.OpenFile(s.Path)
	assert.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(DefaultSheetName)
	assert.NoError(t, err)
	assert.Equal(t, Columns, rows[0])
	assert.Equal(t, []string{"S2", "Bob", "1", "2", "3"}, rows[2])
}

func TestDeleteBlankID(t *testing.T) {
	s := openTestStore(t)
	writeRows(t, s.Path, [][]any{
		{"Student ID", "Student Name", "Mathematics", "OS", "DBMS"},
		{"S1", "Alice", "90", "85", "88"},
		{"", "Bob", "70", "71", "72"},
	})
	before := mustLoad(t, s)
	assert.Equal(t, 2, len(before))
	assertErrorIs(t, s.Delete(""), ErrValidation)
	assertErrorIs(t, s.Delete("  "), ErrValidation)
	assert.Equal(t, before, mustLoad(t, s))
}

func TestFailedWriteKeepsFile(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	s := openTestStore(t)
	assert.NoError(t, s.Add(rec("S1", "Alice", "90", "85", "88")))
	dir := filepath.Dir(s.Path)
	assert.NoError(t, os.Chmod(dir, 0555))
	defer os.Chmod(dir, 0755)

	assertErrorIs(t, s.Add(rec("S2", "Bob", "1", "2", "3")), ErrStorageWrite)
	assert.Equal(t, []*StudentRecord{rec("S1", "Alice", "90", "85", "88")}, mustLoad(t, s))
}

func TestJournal(t *testing.T) {
	s := openTestStore(t)
	j := &fakeJournal{}
	s.Journal = j

	assert.NoError(t, s.Add(rec("S1", "Alice", "90", "85", "88")))
	assert.NoError(t, s.Update("S1", rec("", "Alice B", "91", "86", "89")))
	_ = s.Add(rec("S1", "Bob", "1", "1", "1"))
	assert.NoError(t, s.Delete("S1"))
	assert.Equal(t, []string{"add", "update", "delete"}, j.names)
	assert.Equal(t, []any{"id", "S1", "name", "Alice B", "mathematics", "91", "os", "86", "dbms", "89"}, j.vals[1])

	// journal failure doesn't fail the operation
	j.err = errors.New("journal is broken")
	assert.NoError(t, s.Add(rec("S2", "Bob", "1", "1", "1")))
	assert.Equal(t, 1, len(mustLoad(t, s)))
}

func TestReplace(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Add(rec("S1", "Alice", "90", "85", "88")))
	recs := []*StudentRecord{
		rec("S2", "Bob", "70", "71", "72"),
		rec("S3", "Carol", "60", "61", "62"),
	}
	assert.NoError(t, s.Replace(recs))
	assert.Equal(t, recs, mustLoad(t, s))

	dup := []*StudentRecord{recs[0], recs[0]}
	assertErrorIs(t, s.Replace(dup), ErrDuplicateKey)
	assertErrorIs(t, s.Replace([]*StudentRecord{rec("S4", "", "1", "2", "3")}), ErrValidation)
	assert.Equal(t, recs, mustLoad(t, s))
}

func TestReadRecords(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Add(rec("S1", "Alice", "90", "85", "88")))
	f, err := os.Open(s.Path)
	assert.NoError(t, err)
	defer f.Close()
	recs, err := ReadRecords(f)
	assert.NoError(t, err)
	assert.Equal(t, []*StudentRecord{rec("S1", "Alice", "90", "85", "88")}, recs)
}
