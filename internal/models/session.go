package models

import "time"

// SessionGrade is the qualitative mark a teacher assigns to a
// recitation session.
type SessionGrade string

const (
	SessionGradeExcellent SessionGrade = "MUMTAZ"
	SessionGradeGood      SessionGrade = "JAYYID"
	SessionGradeFair      SessionGrade = "MAQBUL"
	SessionGradeRepeat    SessionGrade = "IADAH"
)

// Valid returns true when the grade is a supported value.
func (g SessionGrade) Valid() bool {
	switch g {
	case SessionGradeExcellent, SessionGradeGood, SessionGradeFair, SessionGradeRepeat:
		return true
	default:
		return false
	}
}

// SessionRecord is one memorization/recitation sitting. Records are
// immutable history; corrections are new records, never in-place edits.
type SessionRecord struct {
	ID          string       `db:"id" json:"id"`
	StudentID   string       `db:"student_id" json:"student_id"`
	ClassID     string       `db:"class_id" json:"class_id"`
	SemesterID  string       `db:"semester_id" json:"semester_id"`
	Track       Track        `db:"track" json:"track"`
	Date        time.Time    `db:"date" json:"date"`
	UnitOrdinal int          `db:"unit_ordinal" json:"unit_ordinal"`
	AyahFrom    int          `db:"ayah_from" json:"ayah_from"`
	AyahTo      int          `db:"ayah_to" json:"ayah_to"`
	Grade       SessionGrade `db:"grade" json:"grade"`
	Passed      bool         `db:"passed" json:"passed"`
	Notes       *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
}

// SessionFilter scopes history queries.
type SessionFilter struct {
	StudentID string
	Track     *Track
	Limit     int
}
