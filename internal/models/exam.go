package models

import "time"

// AbsenceReason is the closed set of explanations for a missed exam.
type AbsenceReason string

const (
	AbsenceSick          AbsenceReason = "SICK"
	AbsenceParentRequest AbsenceReason = "PARENT_REQUEST"
	AbsenceNotNotified   AbsenceReason = "NOT_NOTIFIED"
	AbsenceOther         AbsenceReason = "OTHER"
)

// Valid returns true when the reason is a supported value.
func (r AbsenceReason) Valid() bool {
	switch r {
	case AbsenceSick, AbsenceParentRequest, AbsenceNotNotified, AbsenceOther:
		return true
	default:
		return false
	}
}

// ExamEntry is one student's row in an exam batch. Exactly one of
// Score and the absence pair is populated.
type ExamEntry struct {
	ID            string         `db:"id" json:"id"`
	StudentID     string         `db:"student_id" json:"student_id"`
	ClassID       string         `db:"class_id" json:"class_id"`
	Subject       string         `db:"subject" json:"subject"`
	SemesterID    string         `db:"semester_id" json:"semester_id"`
	ExamDate      time.Time      `db:"exam_date" json:"exam_date"`
	MaxScore      float64        `db:"max_score" json:"max_score"`
	Score         *float64       `db:"score" json:"score,omitempty"`
	IsAbsent      bool           `db:"is_absent" json:"is_absent"`
	AbsenceReason *AbsenceReason `db:"absence_reason" json:"absence_reason,omitempty"`
	Notes         *string        `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// ExamBatchKey identifies the rows created by one bulk exam entry.
type ExamBatchKey struct {
	ClassID    string    `json:"class_id"`
	Subject    string    `json:"subject"`
	ExamDate   time.Time `json:"exam_date"`
	SemesterID string    `json:"semester_id"`
	MaxScore   float64   `json:"max_score"`
}

// ExamBatch groups the entries sharing one batch key.
type ExamBatch struct {
	Key     ExamBatchKey `json:"key"`
	Entries []ExamEntry  `json:"entries"`
}

// ExamFilter scopes performance and ranking queries.
type ExamFilter struct {
	ClassID    string
	SemesterID string
	Subject    string
}

// PerformanceRow is an exam entry projected with its derived
// percentage. Absent rows carry no percentage.
type PerformanceRow struct {
	ExamEntry
	Percentage *float64 `json:"percentage,omitempty"`
}

// RankingRow is one student's aggregate standing in a class ranking.
// Percentage and Rank are nil for absentee-only students, who are
// listed but not ranked.
type RankingRow struct {
	StudentID         string   `json:"student_id"`
	TotalScore        float64  `json:"total_score"`
	TotalMaxScore     float64  `json:"total_max_score"`
	OverallPercentage *float64 `json:"overall_percentage,omitempty"`
	Rank              *int     `json:"rank,omitempty"`
}
