package gradestore

import (
	"encoding/json"
	"testing"

	"github.com/alecthomas/assert"
)

func TestBuildReport(t *testing.T) {
	recs := []*StudentRecord{
		rec("S1", "Alice", "90", "80", "A"),
		rec("S2", "Bob", "70", " 60 ", "B"),
		rec("S3", "Carol", "80.5", "n/a", "75"),
	}
	r := BuildReport(recs)
	assert.Equal(t, 3, r.Students)
	assert.Equal(t, 3, len(r.Subjects))

	math := r.Subjects[0]
	assert.Equal(t, ColMathematics, math.Subject)
	assert.Equal(t, 3, math.Count)
	assert.Equal(t, 0, math.Skipped)
	assert.Equal(t, 240.5/3, math.Average)
	assert.Equal(t, 70.0, math.Min)
	assert.Equal(t, 90.0, math.Max)

	os := r.Subjects[1]
	assert.Equal(t, 2, os.Count)
	assert.Equal(t, 1, os.Skipped)
	assert.Equal(t, 70.0, os.Average)

	dbms := r.Subjects[2]
	assert.Equal(t, 1, dbms.Count)
	assert.Equal(t, 2, dbms.Skipped)
	assert.Equal(t, 75.0, dbms.Min)
	assert.Equal(t, 75.0, dbms.Max)
}

func TestStoreReportEmpty(t *testing.T) {
	s := openTestStore(t)
	r, err := s.Report()
	assert.NoError(t, err)
	assert.Equal(t, 0, r.Students)
	for _, st := range r.Subjects {
		assert.Equal(t, 0, st.Count)
		assert.Equal(t, 0.0, st.Average)
	}
}

func TestBuildReportSkipsNonFinite(t *testing.T) {
	recs := []*StudentRecord{
		rec("S1", "Alice", "NaN", "Inf", "-infinity"),
		rec("S2", "Bob", "80", "1e400", "70"),
	}
	r := BuildReport(recs)
	math := r.Subjects[0]
	assert.Equal(t, 1, math.Count)
	assert.Equal(t, 1, math.Skipped)
	assert.Equal(t, 80.0, math.Average)

	os := r.Subjects[1]
	assert.Equal(t, 0, os.Count)
	assert.Equal(t, 2, os.Skipped)
	assert.Equal(t, 0.0, os.Average)

	dbms := r.Subjects[2]
	assert.Equal(t, 1, dbms.Count)
	assert.Equal(t, 70.0, dbms.Min)

	_, err := json.Marshal(r)
	assert.NoError(t, err)
}
