// Package walker computes the ordered set of class levels to query for a
// student question. Answers build from earlier-class foundations up to the
// student's current level, so the walk is always earliest-class first.
package walker

import (
	"github.com/tutorstack/retrieval/config"
	"github.com/tutorstack/retrieval/schema"
)

// basicLookback is how many classes below the student's class the basic and
// annotation walks include.
const basicLookback = 2

// Walker derives class walks from the per-subject class range tables. It
// performs no I/O.
type Walker struct {
	subjects []config.SubjectConfig
}

// New creates a walker over the configured subjects.
func New(subjects []config.SubjectConfig) *Walker {
	return &Walker{subjects: subjects}
}

// Range returns the valid class range for a subject.
func (w *Walker) Range(subject string) (min, max int, ok bool) {
	s, ok := config.FindSubject(w.subjects, subject)
	if !ok {
		return 0, 0, false
	}
	return s.MinClass, s.MaxClass, true
}

// ClassesToSearch returns the ordered class levels to query, earliest first.
// The student's class is clamped into the subject's valid range; an unknown
// subject yields an empty walk.
func (w *Walker) ClassesToSearch(subject string, studentClass int, mode schema.Mode) []int {
	min, max, ok := w.Range(subject)
	if !ok {
		return nil
	}

	top := clamp(studentClass, min, max)

	start := top
	switch mode {
	case schema.ModeDeepdive:
		start = min
	default:
		// basic and annotation look back a fixed number of classes
		start = top - basicLookback
		if start < min {
			start = min
		}
	}

	classes := make([]int, 0, top-start+1)
	for c := start; c <= top; c++ {
		classes = append(classes, c)
	}
	return classes
}

// WidenBelow returns up to n class levels directly below lowest, still within
// the subject's valid range, earliest first. Used by the fallback stage that
// widens an empty search.
func (w *Walker) WidenBelow(subject string, lowest, n int) []int {
	if n <= 0 {
		return nil
	}
	min, _, ok := w.Range(subject)
	if !ok {
		return nil
	}
	start := lowest - n
	if start < min {
		start = min
	}
	classes := make([]int, 0, n)
	for c := start; c < lowest; c++ {
		classes = append(classes, c)
	}
	return classes
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
