package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tahfizku/tahfiz-api/internal/models"
)

type scheduleReader interface {
	RulesForClass(ctx context.Context, classID string) (*models.ScheduleRules, error)
}

// CalendarService resolves whether a date is an instructional day for a
// class. Layers are consulted in strict precedence, first match wins:
// holidays, time-boxed schedule overrides, the class weekly override,
// then the institution default. No configuration means no constraint.
type CalendarService struct {
	schedules scheduleReader
	logger    *zap.Logger
	resolvers []dayResolver
}

// dayResolver inspects one schedule layer. A nil result defers to the
// next layer.
type dayResolver func(rules *models.ScheduleRules, classID string, date time.Time) *models.DayRuling

// NewCalendarService constructs the service with the standard layer order.
func NewCalendarService(schedules scheduleReader, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		schedules: schedules,
		logger:    logger,
		resolvers: []dayResolver{
			resolveHoliday,
			resolveScheduleOverride,
			resolveClassOverride,
			resolveSessionDefault,
		},
	}
}

// IsInstructionalDay resolves a date for a class. It always produces a
// ruling: when the configuration cannot be loaded the day is treated as
// unconstrained rather than failing the caller.
func (s *CalendarService) IsInstructionalDay(ctx context.Context, classID string, date time.Time) models.DayRuling {
	rules, err := s.schedules.RulesForClass(ctx, classID)
	if err != nil {
		s.logger.Warn("schedule rules unavailable, treating day as unconstrained",
			zap.String("class_id", classID), zap.Error(err))
		return models.DayRuling{Valid: true}
	}
	day := dateOnly(date)
	for _, resolve := range s.resolvers {
		if ruling := resolve(rules, classID, day); ruling != nil {
			return *ruling
		}
	}
	return models.DayRuling{Valid: true}
}

func inRange(date, start, end time.Time) bool {
	start = dateOnly(start)
	end = dateOnly(end)
	return !date.Before(start) && !date.After(end)
}

func resolveHoliday(rules *models.ScheduleRules, _ string, date time.Time) *models.DayRuling {
	for _, holiday := range rules.Holidays {
		if inRange(date, holiday.StartDate, holiday.EndDate) {
			return &models.DayRuling{Valid: false, Reason: holiday.Title}
		}
	}
	return nil
}

func resolveScheduleOverride(rules *models.ScheduleRules, classID string, date time.Time) *models.DayRuling {
	// class-scoped overrides take precedence over institution-wide ones
	for _, classScoped := range []bool{true, false} {
		for _, override := range rules.Overrides {
			scoped := override.ClassID != nil && *override.ClassID == classID
			if scoped != classScoped {
				continue
			}
			if !inRange(date, override.StartDate, override.EndDate) {
				continue
			}
			if override.Weekdays.Contains(date.Weekday()) {
				return &models.DayRuling{Valid: true}
			}
			return &models.DayRuling{
				Valid:  false,
				Reason: fmt.Sprintf("%s restricts instruction to %s", override.Title, override.Weekdays),
			}
		}
	}
	return nil
}

func resolveClassOverride(rules *models.ScheduleRules, _ string, date time.Time) *models.DayRuling {
	if rules.ClassOverride == nil {
		return nil
	}
	if rules.ClassOverride.Weekdays.Contains(date.Weekday()) {
		return &models.DayRuling{Valid: true}
	}
	return &models.DayRuling{
		Valid:  false,
		Reason: fmt.Sprintf("class meets on %s only", rules.ClassOverride.Weekdays),
	}
}

func resolveSessionDefault(rules *models.ScheduleRules, _ string, date time.Time) *models.DayRuling {
	if rules.Default == nil {
		return nil
	}
	if rules.Default.Weekdays.Contains(date.Weekday()) {
		return &models.DayRuling{Valid: true}
	}
	return &models.DayRuling{
		Valid:  false,
		Reason: fmt.Sprintf("school days are %s", rules.Default.Weekdays),
	}
}
