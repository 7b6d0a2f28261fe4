package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tahfizku/tahfiz-api/internal/models"
)

// ErrPositionStale signals that a compare-and-set update lost a race
// and the caller must re-read the stored position before retrying.
var ErrPositionStale = errors.New("track position changed concurrently")

// PositionRepository persists per-student, per-track curriculum positions.
type PositionRepository struct {
	db *sqlx.DB
}

// NewPositionRepository constructs the repository.
func NewPositionRepository(db *sqlx.DB) *PositionRepository {
	return &PositionRepository{db: db}
}

// Get returns the stored position for one track or sql.ErrNoRows.
func (r *PositionRepository) Get(ctx context.Context, studentID string, track models.Track) (*models.TrackPosition, error) {
	const query = `SELECT student_id, track, unit_ordinal, ayah_offset, updated_at
        FROM track_positions WHERE student_id = $1 AND track = $2`
	var pos models.TrackPosition
	if err := r.db.GetContext(ctx, &pos, query, studentID, track); err != nil {
		return nil, err
	}
	return &pos, nil
}

// ListByStudent returns every started track for a student.
func (r *PositionRepository) ListByStudent(ctx context.Context, studentID string) ([]models.TrackPosition, error) {
	const query = `SELECT student_id, track, unit_ordinal, ayah_offset, updated_at
        FROM track_positions WHERE student_id = $1 ORDER BY track`
	var positions []models.TrackPosition
	if err := r.db.SelectContext(ctx, &positions, query, studentID); err != nil {
		return nil, fmt.Errorf("list track positions: %w", err)
	}
	return positions, nil
}

// Create inserts the first position for a (student, track). When a row
// already exists the insert is a no-op and ErrPositionStale is returned
// so the caller re-reads and retries as a compare-and-set.
func (r *PositionRepository) Create(ctx context.Context, pos *models.TrackPosition) error {
	pos.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO track_positions (student_id, track, unit_ordinal, ayah_offset, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (student_id, track) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, pos.StudentID, pos.Track, pos.UnitOrdinal, pos.AyahOffset, pos.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create track position: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create track position: %w", err)
	}
	if affected == 0 {
		return ErrPositionStale
	}
	return nil
}

// CompareAndSwap advances a stored position only if it still equals the
// previously read point. A zero row count means another writer advanced
// the position first; the caller decides whether to retry.
func (r *PositionRepository) CompareAndSwap(ctx context.Context, pos *models.TrackPosition, old models.CurriculumPoint) error {
	pos.UpdatedAt = time.Now().UTC()
	const query = `UPDATE track_positions
        SET unit_ordinal = $1, ayah_offset = $2, updated_at = $3
        WHERE student_id = $4 AND track = $5 AND unit_ordinal = $6 AND ayah_offset = $7`
	res, err := r.db.ExecContext(ctx, query,
		pos.UnitOrdinal, pos.AyahOffset, pos.UpdatedAt,
		pos.StudentID, pos.Track, old.UnitOrdinal, old.AyahOffset)
	if err != nil {
		return fmt.Errorf("advance track position: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance track position: %w", err)
	}
	if affected == 0 {
		return ErrPositionStale
	}
	return nil
}
