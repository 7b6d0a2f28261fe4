package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tahfizku/tahfiz-api/internal/models"
)

// ScheduleRepository loads the layered schedule configuration. The
// engine only reads this data; admin planning tools own the writes.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

type sessionDefaultRow struct {
	ID        string        `db:"id"`
	Weekdays  pq.Int64Array `db:"weekdays"`
	UpdatedAt time.Time     `db:"updated_at"`
}

type classOverrideRow struct {
	ID        string        `db:"id"`
	ClassID   string        `db:"class_id"`
	Weekdays  pq.Int64Array `db:"weekdays"`
	UpdatedAt time.Time     `db:"updated_at"`
}

type scheduleOverrideRow struct {
	ID        string        `db:"id"`
	ClassID   *string       `db:"class_id"`
	Title     string        `db:"title"`
	StartDate time.Time     `db:"start_date"`
	EndDate   time.Time     `db:"end_date"`
	Weekdays  pq.Int64Array `db:"weekdays"`
}

func toWeekdaySet(raw pq.Int64Array) models.WeekdaySet {
	set := make(models.WeekdaySet, len(raw))
	for _, d := range raw {
		set[time.Weekday(d)] = struct{}{}
	}
	return set
}

// RulesForClass assembles every schedule layer relevant to one class.
// Missing layers come back nil/empty rather than as errors.
func (r *ScheduleRepository) RulesForClass(ctx context.Context, classID string) (*models.ScheduleRules, error) {
	rules := &models.ScheduleRules{}

	var def sessionDefaultRow
	err := r.db.GetContext(ctx, &def,
		`SELECT id, weekdays, updated_at FROM session_defaults ORDER BY updated_at DESC LIMIT 1`)
	switch {
	case err == nil:
		rules.Default = &models.SessionDefault{ID: def.ID, Weekdays: toWeekdaySet(def.Weekdays), UpdatedAt: def.UpdatedAt}
	case errors.Is(err, sql.ErrNoRows):
		// no institution default configured
	default:
		return nil, fmt.Errorf("load session default: %w", err)
	}

	var cls classOverrideRow
	err = r.db.GetContext(ctx, &cls,
		`SELECT id, class_id, weekdays, updated_at FROM class_schedule_overrides WHERE class_id = $1`, classID)
	switch {
	case err == nil:
		rules.ClassOverride = &models.ClassScheduleOverride{ID: cls.ID, ClassID: cls.ClassID, Weekdays: toWeekdaySet(cls.Weekdays), UpdatedAt: cls.UpdatedAt}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("load class override: %w", err)
	}

	var overrides []scheduleOverrideRow
	err = r.db.SelectContext(ctx, &overrides,
		`SELECT id, class_id, title, start_date, end_date, weekdays FROM schedule_overrides
         WHERE class_id = $1 OR class_id IS NULL ORDER BY start_date`, classID)
	if err != nil {
		return nil, fmt.Errorf("load schedule overrides: %w", err)
	}
	for _, row := range overrides {
		rules.Overrides = append(rules.Overrides, models.ScheduleOverride{
			ID:        row.ID,
			ClassID:   row.ClassID,
			Title:     row.Title,
			StartDate: row.StartDate,
			EndDate:   row.EndDate,
			Weekdays:  toWeekdaySet(row.Weekdays),
		})
	}

	err = r.db.SelectContext(ctx, &rules.Holidays,
		`SELECT id, title, start_date, end_date FROM holidays ORDER BY start_date`)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}

	return rules, nil
}
