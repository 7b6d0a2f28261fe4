package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahfizku/tahfiz-api/internal/models"
)

func examKey() models.ExamBatchKey {
	return models.ExamBatchKey{
		ClassID:    "c1",
		Subject:    "Tahfiz",
		ExamDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		SemesterID: "sem1",
		MaxScore:   100,
	}
}

func TestInsertBatchCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO exam_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO exam_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	score := 88.0
	entries := []models.ExamEntry{
		{StudentID: "s1", ClassID: "c1", Subject: "Tahfiz", SemesterID: "sem1", MaxScore: 100, Score: &score},
		{StudentID: "s2", ClassID: "c1", Subject: "Tahfiz", SemesterID: "sem1", MaxScore: 100, IsAbsent: true},
	}
	err := repo.InsertBatch(context.Background(), entries)
	require.NoError(t, err)
	assert.NotEmpty(t, entries[0].ID)
	assert.NotEmpty(t, entries[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatchRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO exam_entries").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO exam_entries").WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	score := 88.0
	entries := []models.ExamEntry{
		{StudentID: "s1", ClassID: "c1", Score: &score},
		{StudentID: "s2", ClassID: "c1", Score: &score},
	}
	err := repo.InsertBatch(context.Background(), entries)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEntryNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectExec("UPDATE exam_entries").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateEntry(context.Background(), &models.ExamEntry{ID: "missing"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBatchReturnsAffected(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectExec("UPDATE exam_entries").WillReturnResult(sqlmock.NewResult(0, 25))

	next := examKey()
	next.Subject = "Tajwid"
	affected, err := repo.UpdateBatch(context.Background(), examKey(), next)
	require.NoError(t, err)
	assert.Equal(t, int64(25), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBatchReturnsAffected(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	key := examKey()
	mock.ExpectExec("DELETE FROM exam_entries").
		WithArgs(key.ClassID, key.Subject, key.ExamDate, key.SemesterID, key.MaxScore).
		WillReturnResult(sqlmock.NewResult(0, 25))

	affected, err := repo.DeleteBatch(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(25), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListScopesBySemesterAndSubject(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	now := time.Now()
	score := 90.0
	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "subject", "semester_id", "exam_date", "max_score", "score", "is_absent", "absence_reason", "notes", "created_at", "updated_at"}).
		AddRow("e1", "s1", "c1", "Tahfiz", "sem1", now, 100.0, score, false, nil, nil, now, now)
	mock.ExpectQuery("SELECT id, student_id, class_id, subject, semester_id, exam_date").
		WithArgs("c1", "sem1", "Tahfiz").
		WillReturnRows(rows)

	entries, err := repo.List(context.Background(), models.ExamFilter{ClassID: "c1", SemesterID: "sem1", Subject: "Tahfiz"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "s1", entries[0].StudentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
