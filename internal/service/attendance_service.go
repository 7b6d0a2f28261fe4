package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tahfizku/tahfiz-api/internal/models"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
)

type attendanceRepository interface {
	Upsert(ctx context.Context, rec *models.AttendanceRecord) (*models.AttendanceRecord, error)
	ListByClassAndDate(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecord, error)
}

type dayChecker interface {
	IsInstructionalDay(ctx context.Context, classID string, date time.Time) models.DayRuling
}

// AttendanceService records attendance. The calendar check is advisory:
// a write on a non-instructional day still proceeds but carries the
// ruling back so the caller can warn the teacher.
type AttendanceService struct {
	repo      attendanceRepository
	calendar  dayChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(repo attendanceRepository, calendar dayChecker, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, calendar: calendar, validator: validate, logger: logger}
}

// RecordAttendanceRequest is one attendance write.
type RecordAttendanceRequest struct {
	StudentID string    `json:"student_id" validate:"required"`
	ClassID   string    `json:"class_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Status    string    `json:"status" validate:"required"`
	Notes     *string   `json:"notes"`
}

// Record validates and upserts the attendance row, returning the
// calendar ruling alongside the stored record.
func (s *AttendanceService) Record(ctx context.Context, req RecordAttendanceRequest) (*models.AttendanceRecord, models.DayRuling, error) {
	ruling := models.DayRuling{Valid: true}
	if err := s.validator.Struct(req); err != nil {
		return nil, ruling, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	status := models.AttendanceStatus(req.Status)
	if !status.Valid() {
		return nil, ruling, appErrors.Validationf("status %q is not a known attendance status", req.Status)
	}
	if dateOnly(req.Date).After(dateOnly(time.Now().UTC())) {
		return nil, ruling, appErrors.Validationf("date must not be in the future")
	}

	ruling = s.calendar.IsInstructionalDay(ctx, req.ClassID, req.Date)
	if !ruling.Valid {
		s.logger.Info("attendance recorded on non-instructional day",
			zap.String("class_id", req.ClassID),
			zap.Time("date", req.Date),
			zap.String("reason", ruling.Reason))
	}

	rec := &models.AttendanceRecord{
		StudentID: req.StudentID,
		ClassID:   req.ClassID,
		Date:      dateOnly(req.Date),
		Status:    status,
		Notes:     req.Notes,
	}
	stored, err := s.repo.Upsert(ctx, rec)
	if err != nil {
		return nil, ruling, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}
	return stored, ruling, nil
}

// Sheet returns the attendance rows for one class and date.
func (s *AttendanceService) Sheet(ctx context.Context, classID string, date time.Time) ([]models.AttendanceRecord, error) {
	if classID == "" {
		return nil, appErrors.Validationf("class_id is required")
	}
	records, err := s.repo.ListByClassAndDate(ctx, classID, dateOnly(date))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance sheet")
	}
	return records, nil
}
