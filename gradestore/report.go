package gradestore

import (
	"math"
	"strconv"
	"strings"
)

// SubjectStats summarizes scores of one subject.
// Scores that don't parse as finite numbers are counted in Skipped.
type SubjectStats struct {
	Subject string  `json:"subject"`
	Count   int     `json:"count"`
	Skipped int     `json:"skipped"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

type Report struct {
	Students int             `json:"students"`
	Subjects []*SubjectStats `json:"subjects"`
}

func addScore(st *SubjectStats, score string) {
	v, err := strconv.ParseFloat(strings.TrimSpace(score), 64)
	// "NaN" and "Inf" parse fine but aren't scores
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		st.Skipped++
		return
	}
	if st.Count == 0 || v < st.Min {
		st.Min = v
	}
	if st.Count == 0 || v > st.Max {
		st.Max = v
	}
	// Average holds the sum until the end
	st.Average += v
	st.Count++
}

// BuildReport computes per-subject statistics
func BuildReport(recs []*StudentRecord) *Report {
	subjects := []*SubjectStats{
		{Subject: ColMathematics},
		{Subject: ColOS},
		{Subject: ColDBMS},
	}
	for _, r := range recs {
		addScore(subjects[0], r.Mathematics)
		addScore(subjects[1], r.OS)
		addScore(subjects[2], r.DBMS)
	}
	for _, st := range subjects {
		if st.Count > 0 {
			st.Average /= float64(st.Count)
		}
	}
	return &Report{
		Students: len(recs),
		Subjects: subjects,
	}
}

// Report loads the file and computes statistics
func (s *Store) Report() (*Report, error) {
	recs, err := s.Load()
	if err != nil {
		return nil, err
	}
	return BuildReport(recs), nil
}
