package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tahfizku/tahfiz-api/internal/models"
)

// ExamRepository persists exam entries and their batch operations.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// InsertBatch writes all entries of one exam batch in a single
// transaction. Either every entry is persisted or none is.
func (r *ExamRepository) InsertBatch(ctx context.Context, entries []models.ExamEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exam batch: %w", err)
	}
	now := time.Now().UTC()
	const query = `INSERT INTO exam_entries
        (id, student_id, class_id, subject, semester_id, exam_date, max_score, score, is_absent, absence_reason, notes, created_at, updated_at)
        VALUES (:id, :student_id, :class_id, :subject, :semester_id, :exam_date, :max_score, :score, :is_absent, :absence_reason, :notes, :created_at, :updated_at)`
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = uuid.NewString()
		}
		entries[i].CreatedAt = now
		entries[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, entries[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert exam entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit exam batch: %w", err)
	}
	return nil
}

// List returns exam entries matching the filter.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.ExamEntry, error) {
	query := `SELECT id, student_id, class_id, subject, semester_id, exam_date, max_score, score, is_absent, absence_reason, notes, created_at, updated_at
        FROM exam_entries WHERE class_id = $1`
	args := []interface{}{filter.ClassID}
	if filter.SemesterID != "" {
		query += fmt.Sprintf(" AND semester_id = $%d", len(args)+1)
		args = append(args, filter.SemesterID)
	}
	if filter.Subject != "" {
		query += fmt.Sprintf(" AND subject = $%d", len(args)+1)
		args = append(args, filter.Subject)
	}
	query += " ORDER BY exam_date, subject, student_id"

	var entries []models.ExamEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list exam entries: %w", err)
	}
	return entries, nil
}

// ListByKey returns the entries forming one batch.
func (r *ExamRepository) ListByKey(ctx context.Context, key models.ExamBatchKey) ([]models.ExamEntry, error) {
	const query = `SELECT id, student_id, class_id, subject, semester_id, exam_date, max_score, score, is_absent, absence_reason, notes, created_at, updated_at
        FROM exam_entries
        WHERE class_id = $1 AND subject = $2 AND exam_date = $3 AND semester_id = $4 AND max_score = $5
        ORDER BY student_id`
	var entries []models.ExamEntry
	if err := r.db.SelectContext(ctx, &entries, query, key.ClassID, key.Subject, key.ExamDate, key.SemesterID, key.MaxScore); err != nil {
		return nil, fmt.Errorf("list exam batch: %w", err)
	}
	return entries, nil
}

// GetEntry returns one exam entry or sql.ErrNoRows.
func (r *ExamRepository) GetEntry(ctx context.Context, id string) (*models.ExamEntry, error) {
	const query = `SELECT id, student_id, class_id, subject, semester_id, exam_date, max_score, score, is_absent, absence_reason, notes, created_at, updated_at
        FROM exam_entries WHERE id = $1`
	var entry models.ExamEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry rewrites one entry's score, absence and notes fields.
func (r *ExamRepository) UpdateEntry(ctx context.Context, entry *models.ExamEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exam_entries
        SET score = $1, is_absent = $2, absence_reason = $3, notes = $4, updated_at = $5
        WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, entry.Score, entry.IsAbsent, entry.AbsenceReason, entry.Notes, entry.UpdatedAt, entry.ID)
	if err != nil {
		return fmt.Errorf("update exam entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update exam entry: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateBatch moves every entry of a batch to new identity fields.
// Individual scores are untouched. Returns the number of moved rows.
func (r *ExamRepository) UpdateBatch(ctx context.Context, key models.ExamBatchKey, next models.ExamBatchKey) (int64, error) {
	const query = `UPDATE exam_entries
        SET subject = $1, exam_date = $2, semester_id = $3, max_score = $4, updated_at = $5
        WHERE class_id = $6 AND subject = $7 AND exam_date = $8 AND semester_id = $9 AND max_score = $10`
	res, err := r.db.ExecContext(ctx, query,
		next.Subject, next.ExamDate, next.SemesterID, next.MaxScore, time.Now().UTC(),
		key.ClassID, key.Subject, key.ExamDate, key.SemesterID, key.MaxScore)
	if err != nil {
		return 0, fmt.Errorf("update exam batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update exam batch: %w", err)
	}
	return affected, nil
}

// DeleteBatch removes every entry of a batch, returning the row count.
func (r *ExamRepository) DeleteBatch(ctx context.Context, key models.ExamBatchKey) (int64, error) {
	const query = `DELETE FROM exam_entries
        WHERE class_id = $1 AND subject = $2 AND exam_date = $3 AND semester_id = $4 AND max_score = $5`
	res, err := r.db.ExecContext(ctx, query, key.ClassID, key.Subject, key.ExamDate, key.SemesterID, key.MaxScore)
	if err != nil {
		return 0, fmt.Errorf("delete exam batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete exam batch: %w", err)
	}
	return affected, nil
}

// DeleteEntry removes one entry.
func (r *ExamRepository) DeleteEntry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM exam_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exam entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete exam entry: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
