package gradestore

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// column headers of the backing file, in the order we write them
const (
	ColStudentID   = "Student ID"
	ColStudentName = "Student Name"
	ColMathematics = "Mathematics"
	ColOS          = "OS"
	ColDBMS        = "DBMS"
)

var Columns = []string{ColStudentID, ColStudentName, ColMathematics, ColOS, ColDBMS}

// StudentRecord is a row in the grades file.
// Scores are kept as entered, they're not parsed as numbers.
type StudentRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Mathematics string `json:"mathematics"`
	OS          string `json:"os"`
	DBMS        string `json:"dbms"`
}

// Row returns values in Columns order
func (r *StudentRecord) Row() []string {
	return []string{r.ID, r.Name, r.Mathematics, r.OS, r.DBMS}
}

func (r *StudentRecord) String() string {
	return strings.Join(r.Row(), ", ")
}

func (r *StudentRecord) clone() *StudentRecord {
	c := *r
	return &c
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func blankErr(col string) error {
	return fmt.Errorf("%w: '%s' is required", ErrValidation, col)
}

// maxCellChars is the longest text an .xlsx cell can hold
const maxCellChars = 32767

// isXMLChar reports if c can be stored in an .xlsx cell.
// Other runes are replaced with U+FFFD when the file is written.
func isXMLChar(c rune) bool {
	switch {
	case c == '\t' || c == '\n' || c == '\r':
		return true
	case c < 0x20:
		return false
	case c >= 0xD800 && c <= 0xDFFF:
		return false
	case c == 0xFFFE || c == 0xFFFF:
		return false
	}
	return c <= utf8.MaxRune
}

// checkField returns ErrValidation if v is blank or wouldn't read back
// unchanged from the file
func checkField(col, v string) error {
	if isBlank(v) {
		return blankErr(col)
	}
	if !utf8.ValidString(v) {
		return fmt.Errorf("%w: '%s' is not valid UTF-8", ErrValidation, col)
	}
	if utf8.RuneCountInString(v) > maxCellChars {
		return fmt.Errorf("%w: '%s' is longer than %d characters", ErrValidation, col, maxCellChars)
	}
	for _, c := range v {
		if !isXMLChar(c) {
			return fmt.Errorf("%w: '%s' contains invalid character %U", ErrValidation, col, c)
		}
	}
	return nil
}

// validateFields checks name and scores i.e. everything Update can change
func (r *StudentRecord) validateFields() error {
	vals := r.Row()
	for i := 1; i < len(Columns); i++ {
		if err := checkField(Columns[i], vals[i]); err != nil {
			return err
		}
	}
	return nil
}

// Validate returns ErrValidation if any of the fields is blank
// or can't be stored in the file as is
func (r *StudentRecord) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: missing record", ErrValidation)
	}
	if err := checkField(ColStudentID, r.ID); err != nil {
		return err
	}
	return r.validateFields()
}

// TrimSpace returns a copy with leading and trailing whitespace removed
// from all fields. Shells call it on user input before Add / Update.
func (r *StudentRecord) TrimSpace() *StudentRecord {
	return &StudentRecord{
		ID:          strings.TrimSpace(r.ID),
		Name:        strings.TrimSpace(r.Name),
		Mathematics: strings.TrimSpace(r.Mathematics),
		OS:          strings.TrimSpace(r.OS),
		DBMS:        strings.TrimSpace(r.DBMS),
	}
}
