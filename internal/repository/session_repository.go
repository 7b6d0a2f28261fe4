package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tahfizku/tahfiz-api/internal/models"
)

// SessionRepository persists recitation session history.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Insert appends one session record. History is append-only.
func (r *SessionRepository) Insert(ctx context.Context, rec *models.SessionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO session_records
        (id, student_id, class_id, semester_id, track, date, unit_ordinal, ayah_from, ayah_to, grade, passed, notes, created_at)
        VALUES (:id, :student_id, :class_id, :semester_id, :track, :date, :unit_ordinal, :ayah_from, :ayah_to, :grade, :passed, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("insert session record: %w", err)
	}
	return nil
}

// List returns session history matching the filter, most recent first.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionRecord, error) {
	query := `SELECT id, student_id, class_id, semester_id, track, date, unit_ordinal, ayah_from, ayah_to, grade, passed, notes, created_at
        FROM session_records WHERE student_id = $1`
	args := []interface{}{filter.StudentID}
	if filter.Track != nil {
		query += fmt.Sprintf(" AND track = $%d", len(args)+1)
		args = append(args, *filter.Track)
	}
	query += " ORDER BY date DESC, created_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query += fmt.Sprintf(" LIMIT %d", limit)

	var records []models.SessionRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list session records: %w", err)
	}
	return records, nil
}
