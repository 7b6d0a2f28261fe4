package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/tahfizku/tahfiz-api/internal/models"
)

// CurriculumRepository reads the static surah reference table.
type CurriculumRepository struct {
	db *sqlx.DB
}

// NewCurriculumRepository constructs the repository.
func NewCurriculumRepository(db *sqlx.DB) *CurriculumRepository {
	return &CurriculumRepository{db: db}
}

// ListUnits returns every curriculum unit in ordinal order.
func (r *CurriculumRepository) ListUnits(ctx context.Context) ([]models.CurriculumUnit, error) {
	const query = `SELECT ordinal, name, juz, ayah_count FROM curriculum_units ORDER BY ordinal`
	var units []models.CurriculumUnit
	if err := r.db.SelectContext(ctx, &units, query); err != nil {
		return nil, fmt.Errorf("list curriculum units: %w", err)
	}
	return units, nil
}

// GetByOrdinal returns one unit or sql.ErrNoRows.
func (r *CurriculumRepository) GetByOrdinal(ctx context.Context, ordinal int) (*models.CurriculumUnit, error) {
	const query = `SELECT ordinal, name, juz, ayah_count FROM curriculum_units WHERE ordinal = $1`
	var unit models.CurriculumUnit
	if err := r.db.GetContext(ctx, &unit, query, ordinal); err != nil {
		return nil, err
	}
	return &unit, nil
}
