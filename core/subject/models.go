package subject

import (
	"time"

	"github.com/trezcool/shule/core"
)

// Patch allow-lists. Anything else in a patch payload is rejected before any
// mutation happens.
var (
	UpdateFields      = []string{"title"}
	GradeUpdateFields = []string{"grade_id", "score"}
)

// Grade is a per-student term score embedded in a Subject. At most one Grade
// may exist per (subject, student, year, term).
type Grade struct {
	ID        string    `json:"id"`
	Year      string    `json:"year"`
	Term      string    `json:"term"` // lower-cased, trimmed
	Score     int       `json:"score"`
	Grade     string    `json:"grade"`     // letter band derived from Score
	OwnerID   string    `json:"owner_id"`  // graded Student
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Subject struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	OwnerID   string    `json:"owner_id"` // owning Teacher
	Grades    []Grade   `json:"grades"`   // insertion order
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// LetterGrade classifies a numeric score into its letter band. Bands are
// half-open with an inclusive lower bound: <50 F, <60 E, <70 D, <80 C, <90 B,
// 90 and above A. Negative scores are rejected by Grade validation before
// this is ever called.
func LetterGrade(score int) string {
	switch {
	case score < 50:
		return "F"
	case score < 60:
		return "E"
	case score < 70:
		return "D"
	case score < 80:
		return "C"
	case score < 90:
		return "B"
	default:
		return "A"
	}
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Title string `json:"title" validate:"required"`
}

func (ns *NewSubject) Validate() error {
	ns.Title = core.CleanString(ns.Title)
	return core.Validate.Struct(ns)
}

// NewGrade contains information needed to record a term score.
type NewGrade struct {
	Year      string `json:"year" validate:"required"`
	Term      string `json:"term" validate:"required"`
	Score     int    `json:"score" validate:"gte=0"`
	StudentID string `json:"student_id" validate:"required"`
}

func (ng *NewGrade) Validate() error {
	ng.Year = core.CleanString(ng.Year)
	ng.Term = core.CleanString(ng.Term, true /* lower */)
	ng.StudentID = core.CleanString(ng.StudentID)
	return core.Validate.Struct(ng)
}

// UpdateGrade overwrites the score of an existing grade; GradeID is a
// selector and is never mutated.
type UpdateGrade struct {
	GradeID string `json:"grade_id" validate:"required"`
	Score   int    `json:"score" validate:"gte=0"`
}

func (ug *UpdateGrade) Validate() error {
	ug.GradeID = core.CleanString(ug.GradeID)
	return core.Validate.Struct(ug)
}

// StudentSubjectGrades is the read-only self-view projection: one subject
// title with only the requesting student's grade entries.
type StudentSubjectGrades struct {
	Subject string  `json:"subject"`
	Grades  []Grade `json:"grades"`
}
