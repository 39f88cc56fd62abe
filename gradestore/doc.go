// Package gradestore keeps student grade records in a spreadsheet (.xlsx) file.
//
// The file is the only source of truth. Every operation re-reads it, applies
// the change to the freshly loaded table and rewrites the whole file
// atomically, so a failed write leaves the previous content in place.
//
//	s, err := gradestore.Open("student_grades.xlsx")
//	if err != nil {
//	    return err
//	}
//	err = s.Add(&gradestore.StudentRecord{
//	    ID: "S1", Name: "Alice", Mathematics: "90", OS: "85", DBMS: "88",
//	})
//	recs, err := s.Load()
//
// # Errors
//
// Errors wrap one of [ErrValidation], [ErrDuplicateKey], [ErrNotFound],
// [ErrStorageRead] or [ErrStorageWrite]; test with errors.Is.
//
// # Thread Safety
//
// A Store is safe for concurrent use within one process. It doesn't lock
// the file against other processes.
package gradestore
