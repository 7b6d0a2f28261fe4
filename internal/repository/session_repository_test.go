package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahfizku/tahfiz-api/internal/models"
)

func TestSessionInsertAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO session_records").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := &models.SessionRecord{
		StudentID:   "s1",
		ClassID:     "c1",
		SemesterID:  "sem1",
		Track:       models.TrackHifz,
		Date:        time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		UnitOrdinal: 78,
		AyahFrom:    1,
		AyahTo:      10,
		Grade:       models.SessionGradeGood,
		Passed:      true,
	}
	err := repo.Insert(context.Background(), rec)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionListFiltersByTrack(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "semester_id", "track", "date", "unit_ordinal", "ayah_from", "ayah_to", "grade", "passed", "notes", "created_at"}).
		AddRow("r1", "s1", "c1", "sem1", string(models.TrackHifz), now, 78, 1, 10, string(models.SessionGradeGood), true, nil, now)
	mock.ExpectQuery("SELECT id, student_id, class_id, semester_id, track, date").
		WithArgs("s1", models.TrackHifz).
		WillReturnRows(rows)

	track := models.TrackHifz
	records, err := repo.List(context.Background(), models.SessionFilter{StudentID: "s1", Track: &track, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, models.TrackHifz, records[0].Track)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionListDefaultsLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "class_id", "semester_id", "track", "date", "unit_ordinal", "ayah_from", "ayah_to", "grade", "passed", "notes", "created_at"})
	mock.ExpectQuery("LIMIT 50").
		WithArgs("s1").
		WillReturnRows(rows)

	_, err := repo.List(context.Background(), models.SessionFilter{StudentID: "s1"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
