package gradestore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/studentgrades/gradebook/log"
)

// Recorder receives committed changes, see journal.Journal
type Recorder interface {
	Record(name string, vals ...any) error
}

type Store struct {
	// absolute path of the .xlsx file
	Path string
	// optional, notified after every successful change
	Journal Recorder

	mu sync.Mutex
}

// Open returns a store backed by path. If the file doesn't exist,
// it's created with just the header row.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("grades file path is empty")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", path, err)
	}
	s := &Store{
		Path: absPath,
	}
	_, err = os.Stat(absPath)
	if err == nil {
		return s, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w '%s': %w", ErrStorageRead, absPath, err)
	}
	if err = os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrStorageWrite, absPath, err)
	}
	if err = writeSheet(absPath, nil); err != nil {
		return nil, err
	}
	log.Verbosef("created '%s'\n", absPath)
	return s, nil
}

// Load returns all records in file order
func (s *Store) Load() ([]*StudentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readSheet(s.Path)
}

// Get returns record with a given id
func (s *Store) Get(id string) (*StudentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, err := readSheet(s.Path)
	if err != nil {
		return nil, err
	}
	if i := findByID(recs, id); i >= 0 {
		return recs[i], nil
	}
	return nil, fmt.Errorf("%w: '%s'", ErrNotFound, id)
}

// Add appends rec. Fails with ErrValidation if any field is blank
// and with ErrDuplicateKey if rec.ID is already in the file.
func (s *Store) Add(rec *StudentRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := readSheet(s.Path)
	if err != nil {
		return err
	}
	if findByID(recs, rec.ID) >= 0 {
		return fmt.Errorf("%w: '%s'", ErrDuplicateKey, rec.ID)
	}
	rec = rec.clone()
	recs = append(recs, rec)
	if err = writeSheet(s.Path, recs); err != nil {
		return err
	}
	s.record("add", rec)
	return nil
}

// Update replaces name and scores of a record with a given id.
// rec.ID is ignored, id of a record can't be changed.
func (s *Store) Update(id string, rec *StudentRecord) error {
	if err := checkField(ColStudentID, id); err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("%w: missing record", ErrValidation)
	}
	if err := rec.validateFields(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := readSheet(s.Path)
	if err != nil {
		return err
	}
	var updated *StudentRecord
	// ids are unique in files we write but a file edited by hand
	// might have duplicates. Like a spreadsheet filter, we update all of them
	for _, r := range recs {
		if r.ID != id {
			continue
		}
		r.Name = rec.Name
		r.Mathematics = rec.Mathematics
		r.OS = rec.OS
		r.DBMS = rec.DBMS
		updated = r
	}
	if updated == nil {
		return fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}
	if err = writeSheet(s.Path, recs); err != nil {
		return err
	}
	s.record("update", updated)
	return nil
}

// Delete removes record with a given id
func (s *Store) Delete(id string) error {
	if isBlank(id) {
		return blankErr(ColStudentID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := readSheet(s.Path)
	if err != nil {
		return err
	}
	var deleted *StudentRecord
	res := recs[:0]
	for _, r := range recs {
		if r.ID == id {
			deleted = r
			continue
		}
		res = append(res, r)
	}
	if deleted == nil {
		return fmt.Errorf("%w: '%s'", ErrNotFound, id)
	}
	if err = writeSheet(s.Path, res); err != nil {
		return err
	}
	s.record("delete", deleted)
	return nil
}

// Replace rewrites the file with recs, e.g. after an import.
// All records must be valid and ids unique.
func (s *Store) Replace(recs []*StudentRecord) error {
	seen := map[string]bool{}
	for _, r := range recs {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.ID] {
			return fmt.Errorf("%w: '%s'", ErrDuplicateKey, r.ID)
		}
		seen[r.ID] = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeSheet(s.Path, recs); err != nil {
		return err
	}
	if s.Journal != nil {
		err := s.Journal.Record("replace", "count", len(recs))
		log.IfErrf(err, "journal: replace failed with '%s'", err)
	}
	return nil
}

func findByID(recs []*StudentRecord, id string) int {
	for i, r := range recs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// the change is already committed so journal errors are only logged
func (s *Store) record(op string, r *StudentRecord) {
	log.Verbosef("%s: %s\n", op, r)
	if s.Journal == nil {
		return
	}
	err := s.Journal.Record(op,
		"id", r.ID,
		"name", r.Name,
		"mathematics", r.Mathematics,
		"os", r.OS,
		"dbms", r.DBMS,
	)
	log.IfErrf(err, "journal: %s of '%s' failed with '%s'", op, r.ID, err)
}
