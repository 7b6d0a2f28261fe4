package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/tahfizku/tahfiz-api/internal/models"
	"github.com/tahfizku/tahfiz-api/internal/repository"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
)

type sessionRepository interface {
	Insert(ctx context.Context, rec *models.SessionRecord) error
	List(ctx context.Context, filter models.SessionFilter) ([]models.SessionRecord, error)
}

type positionRepository interface {
	Get(ctx context.Context, studentID string, track models.Track) (*models.TrackPosition, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.TrackPosition, error)
	Create(ctx context.Context, pos *models.TrackPosition) error
	CompareAndSwap(ctx context.Context, pos *models.TrackPosition, old models.CurriculumPoint) error
}

type unitReader interface {
	GetUnit(ctx context.Context, ordinal int) (*models.CurriculumUnit, error)
}

// ProgressService tracks each student's furthest verified curriculum
// position per track. Positions advance monotonically and only on
// passed sessions; failed sessions are kept as repeat markers.
type ProgressService struct {
	sessions       sessionRepository
	positions      positionRepository
	curriculum     unitReader
	validator      *validator.Validate
	logger         *zap.Logger
	advanceRetries int
	historyLimit   int
}

// NewProgressService constructs the service.
func NewProgressService(sessions sessionRepository, positions positionRepository, curriculum unitReader, validate *validator.Validate, logger *zap.Logger, advanceRetries, historyLimit int) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if advanceRetries < 0 {
		advanceRetries = 0
	}
	if historyLimit <= 0 {
		historyLimit = 50
	}
	return &ProgressService{
		sessions:       sessions,
		positions:      positions,
		curriculum:     curriculum,
		validator:      validate,
		logger:         logger,
		advanceRetries: advanceRetries,
		historyLimit:   historyLimit,
	}
}

// RecordSessionRequest describes one recitation sitting.
type RecordSessionRequest struct {
	StudentID   string    `json:"student_id" validate:"required"`
	ClassID     string    `json:"class_id" validate:"required"`
	SemesterID  string    `json:"semester_id" validate:"required"`
	Track       string    `json:"track" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	UnitOrdinal int       `json:"unit_ordinal" validate:"required"`
	AyahFrom    int       `json:"ayah_from" validate:"required"`
	AyahTo      int       `json:"ayah_to" validate:"required"`
	Grade       string    `json:"grade" validate:"required"`
	Passed      bool      `json:"passed"`
	Notes       *string   `json:"notes"`
}

// RecordSession validates and persists a session, then advances the
// stored position when the session passed. Validation failures write
// nothing.
func (s *ProgressService) RecordSession(ctx context.Context, req RecordSessionRequest) (*models.SessionRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	track := models.Track(req.Track)
	if !track.Valid() {
		return nil, appErrors.Validationf("track %q is not a known track", req.Track)
	}
	grade := models.SessionGrade(req.Grade)
	if !grade.Valid() {
		return nil, appErrors.Validationf("grade %q is not a known grade", req.Grade)
	}
	if dateOnly(req.Date).After(dateOnly(time.Now().UTC())) {
		return nil, appErrors.Validationf("date must not be in the future")
	}
	unit, err := s.curriculum.GetUnit(ctx, req.UnitOrdinal)
	if err != nil {
		var appErr *appErrors.Error
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrNotFound.Code {
			return nil, appErrors.Validationf("unit_ordinal %d is not in the curriculum", req.UnitOrdinal)
		}
		return nil, err
	}
	if req.AyahFrom < 1 {
		return nil, appErrors.Validationf("ayah_from must be at least 1")
	}
	if req.AyahTo < req.AyahFrom {
		return nil, appErrors.Validationf("ayah_to must not be before ayah_from")
	}
	if req.AyahTo > unit.AyahCount {
		return nil, appErrors.Validationf("ayah_to exceeds %s which has %d ayat", unit.Name, unit.AyahCount)
	}

	rec := &models.SessionRecord{
		StudentID:   req.StudentID,
		ClassID:     req.ClassID,
		SemesterID:  req.SemesterID,
		Track:       track,
		Date:        dateOnly(req.Date),
		UnitOrdinal: req.UnitOrdinal,
		AyahFrom:    req.AyahFrom,
		AyahTo:      req.AyahTo,
		Grade:       grade,
		Passed:      req.Passed,
		Notes:       req.Notes,
	}
	if err := s.sessions.Insert(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record session")
	}

	if req.Passed {
		target := models.CurriculumPoint{UnitOrdinal: req.UnitOrdinal, AyahOffset: req.AyahTo}
		if err := s.advance(ctx, req.StudentID, track, target); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// advance moves the stored position to the monotonic max of its current
// value and target. The compare-and-set is retried with a fresh read
// when another writer got there first.
func (s *ProgressService) advance(ctx context.Context, studentID string, track models.Track, target models.CurriculumPoint) error {
	attempts := 1 + s.advanceRetries
	for i := 0; i < attempts; i++ {
		current, err := s.positions.Get(ctx, studentID, track)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				pos := &models.TrackPosition{StudentID: studentID, Track: track, UnitOrdinal: target.UnitOrdinal, AyahOffset: target.AyahOffset}
				err = s.positions.Create(ctx, pos)
				if errors.Is(err, repository.ErrPositionStale) {
					continue
				}
				if err != nil {
					return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create position")
				}
				return nil
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read position")
		}
		if !current.Point().Less(target) {
			// already at or past the session range
			return nil
		}
		pos := &models.TrackPosition{StudentID: studentID, Track: track, UnitOrdinal: target.UnitOrdinal, AyahOffset: target.AyahOffset}
		err = s.positions.CompareAndSwap(ctx, pos, current.Point())
		if errors.Is(err, repository.ErrPositionStale) {
			continue
		}
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to advance position")
		}
		return nil
	}
	s.logger.Warn("position advance exhausted retries",
		zap.String("student_id", studentID), zap.String("track", string(track)))
	return appErrors.Clone(appErrors.ErrConflict, "position was updated concurrently, please resubmit")
}

// GetPosition returns one standing per track, not-started tracks included.
func (s *ProgressService) GetPosition(ctx context.Context, studentID string) ([]models.TrackStanding, error) {
	positions, err := s.positions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load positions")
	}
	byTrack := make(map[models.Track]models.TrackPosition, len(positions))
	for _, pos := range positions {
		byTrack[pos.Track] = pos
	}
	standings := make([]models.TrackStanding, 0, len(models.AllTracks))
	for _, track := range models.AllTracks {
		standing := models.TrackStanding{Track: track}
		if pos, ok := byTrack[track]; ok {
			p := pos
			standing.Started = true
			standing.Position = &p
			if unit, err := s.curriculum.GetUnit(ctx, pos.UnitOrdinal); err == nil {
				standing.UnitName = unit.Name
			}
		}
		standings = append(standings, standing)
	}
	return standings, nil
}

// GetHistory returns recent sessions, most recent first. Each call
// recomputes from the store; no cursor state is kept.
func (s *ProgressService) GetHistory(ctx context.Context, studentID string, track *models.Track, limit int) ([]models.SessionRecord, error) {
	if studentID == "" {
		return nil, appErrors.Validationf("student_id is required")
	}
	if track != nil && !track.Valid() {
		return nil, appErrors.Validationf("track %q is not a known track", string(*track))
	}
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	records, err := s.sessions.List(ctx, models.SessionFilter{StudentID: studentID, Track: track, Limit: limit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session history")
	}
	return records, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
