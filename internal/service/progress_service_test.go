package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahfizku/tahfiz-api/internal/models"
	"github.com/tahfizku/tahfiz-api/internal/repository"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
)

type mockSessionRepo struct {
	inserted   []*models.SessionRecord
	insertErr  error
	listed     []models.SessionRecord
	listErr    error
	lastFilter models.SessionFilter
}

func (m *mockSessionRepo) Insert(ctx context.Context, rec *models.SessionRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.inserted = append(m.inserted, rec)
	return nil
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.SessionRecord, error) {
	m.lastFilter = filter
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listed, nil
}

type mockPositionRepo struct {
	current   *models.TrackPosition
	getCalls  int
	created   []*models.TrackPosition
	createErr error
	casCalls  int
	casErr    error
	lastOld   models.CurriculumPoint
	positions []models.TrackPosition
	listErr   error
}

func (m *mockPositionRepo) Get(ctx context.Context, studentID string, track models.Track) (*models.TrackPosition, error) {
	m.getCalls++
	if m.current == nil {
		return nil, sql.ErrNoRows
	}
	return m.current, nil
}

func (m *mockPositionRepo) ListByStudent(ctx context.Context, studentID string) ([]models.TrackPosition, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.positions, nil
}

func (m *mockPositionRepo) Create(ctx context.Context, pos *models.TrackPosition) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, pos)
	return nil
}

func (m *mockPositionRepo) CompareAndSwap(ctx context.Context, pos *models.TrackPosition, old models.CurriculumPoint) error {
	m.casCalls++
	m.lastOld = old
	if m.casErr != nil {
		return m.casErr
	}
	m.current = pos
	return nil
}

type mockUnitReader struct {
	units map[int]*models.CurriculumUnit
}

func (m *mockUnitReader) GetUnit(ctx context.Context, ordinal int) (*models.CurriculumUnit, error) {
	unit, ok := m.units[ordinal]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "curriculum unit not found")
	}
	return unit, nil
}

func testUnits() *mockUnitReader {
	return &mockUnitReader{units: map[int]*models.CurriculumUnit{
		78: {Ordinal: 78, Name: "An-Naba", Juz: 30, AyahCount: 40},
		79: {Ordinal: 79, Name: "An-Naziat", Juz: 30, AyahCount: 46},
	}}
}

func validSessionRequest() RecordSessionRequest {
	return RecordSessionRequest{
		StudentID:   "s1",
		ClassID:     "c1",
		SemesterID:  "sem1",
		Track:       string(models.TrackHifz),
		Date:        time.Now().UTC().Add(-24 * time.Hour),
		UnitOrdinal: 78,
		AyahFrom:    1,
		AyahTo:      12,
		Grade:       string(models.SessionGradeGood),
		Passed:      true,
	}
}

func TestRecordSessionPassedCreatesPosition(t *testing.T) {
	sessions := &mockSessionRepo{}
	positions := &mockPositionRepo{}
	svc := NewProgressService(sessions, positions, testUnits(), nil, nil, 1, 50)

	rec, err := svc.RecordSession(context.Background(), validSessionRequest())
	require.NoError(t, err)
	assert.Len(t, sessions.inserted, 1)
	require.Len(t, positions.created, 1)
	assert.Equal(t, 78, positions.created[0].UnitOrdinal)
	assert.Equal(t, 12, positions.created[0].AyahOffset)
	assert.Equal(t, models.TrackHifz, rec.Track)
}

func TestRecordSessionFailedKeepsPosition(t *testing.T) {
	sessions := &mockSessionRepo{}
	positions := &mockPositionRepo{}
	svc := NewProgressService(sessions, positions, testUnits(), nil, nil, 1, 50)

	req := validSessionRequest()
	req.Passed = false
	req.Grade = string(models.SessionGradeRepeat)
	_, err := svc.RecordSession(context.Background(), req)
	require.NoError(t, err)
	assert.Len(t, sessions.inserted, 1)
	assert.Zero(t, positions.getCalls)
	assert.Zero(t, positions.casCalls)
	assert.Empty(t, positions.created)
}

func TestRecordSessionAdvancesForward(t *testing.T) {
	sessions := &mockSessionRepo{}
	positions := &mockPositionRepo{current: &models.TrackPosition{StudentID: "s1", Track: models.TrackHifz, UnitOrdinal: 78, AyahOffset: 5}}
	svc := NewProgressService(sessions, positions, testUnits(), nil, nil, 1, 50)

	_, err := svc.RecordSession(context.Background(), validSessionRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, positions.casCalls)
	assert.Equal(t, models.CurriculumPoint{UnitOrdinal: 78, AyahOffset: 5}, positions.lastOld)
	assert.Equal(t, 12, positions.current.AyahOffset)
}

func TestRecordSessionNeverMovesPositionBackwards(t *testing.T) {
	sessions := &mockSessionRepo{}
	positions := &mockPositionRepo{current: &models.TrackPosition{StudentID: "s1", Track: models.TrackHifz, UnitOrdinal: 79, AyahOffset: 3}}
	svc := NewProgressService(sessions, positions, testUnits(), nil, nil, 1, 50)

	_, err := svc.RecordSession(context.Background(), validSessionRequest())
	require.NoError(t, err)
	assert.Len(t, sessions.inserted, 1)
	assert.Zero(t, positions.casCalls)
	assert.Equal(t, 79, positions.current.UnitOrdinal)
	assert.Equal(t, 3, positions.current.AyahOffset)
}

func TestRecordSessionRejectsRangeBeyondUnit(t *testing.T) {
	sessions := &mockSessionRepo{}
	positions := &mockPositionRepo{}
	svc := NewProgressService(sessions, positions, testUnits(), nil, nil, 1, 50)

	req := validSessionRequest()
	req.AyahTo = 41
	_, err := svc.RecordSession(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "An-Naba")
	assert.Empty(t, sessions.inserted)
}

func TestRecordSessionRejectsInvertedRange(t *testing.T) {
	svc := NewProgressService(&mockSessionRepo{}, &mockPositionRepo{}, testUnits(), nil, nil, 1, 50)

	req := validSessionRequest()
	req.AyahFrom = 10
	req.AyahTo = 5
	_, err := svc.RecordSession(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordSessionRejectsFutureDate(t *testing.T) {
	sessions := &mockSessionRepo{}
	svc := NewProgressService(sessions, &mockPositionRepo{}, testUnits(), nil, nil, 1, 50)

	req := validSessionRequest()
	req.Date = time.Now().UTC().Add(48 * time.Hour)
	_, err := svc.RecordSession(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, sessions.inserted)
}

func TestRecordSessionRejectsUnknownUnit(t *testing.T) {
	sessions := &mockSessionRepo{}
	svc := NewProgressService(sessions, &mockPositionRepo{}, testUnits(), nil, nil, 1, 50)

	req := validSessionRequest()
	req.UnitOrdinal = 200
	_, err := svc.RecordSession(context.Background(), req)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "not in the curriculum")
	assert.Empty(t, sessions.inserted)
}

func TestRecordSessionRejectsUnknownTrack(t *testing.T) {
	svc := NewProgressService(&mockSessionRepo{}, &mockPositionRepo{}, testUnits(), nil, nil, 1, 50)

	req := validSessionRequest()
	req.Track = "SPRINT"
	_, err := svc.RecordSession(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdvanceConflictAfterRetriesExhausted(t *testing.T) {
	sessions := &mockSessionRepo{}
	positions := &mockPositionRepo{
		current: &models.TrackPosition{StudentID: "s1", Track: models.TrackHifz, UnitOrdinal: 78, AyahOffset: 5},
		casErr:  repository.ErrPositionStale,
	}
	svc := NewProgressService(sessions, positions, testUnits(), nil, nil, 1, 50)

	_, err := svc.RecordSession(context.Background(), validSessionRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	// one initial attempt plus one retry
	assert.Equal(t, 2, positions.casCalls)
	// the session itself is history and stays recorded
	assert.Len(t, sessions.inserted, 1)
}

func TestGetPositionCoversAllTracks(t *testing.T) {
	positions := &mockPositionRepo{positions: []models.TrackPosition{
		{StudentID: "s1", Track: models.TrackHifz, UnitOrdinal: 78, AyahOffset: 12},
	}}
	svc := NewProgressService(&mockSessionRepo{}, positions, testUnits(), nil, nil, 1, 50)

	standings, err := svc.GetPosition(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, standings, len(models.AllTracks))
	assert.True(t, standings[0].Started)
	assert.Equal(t, "An-Naba", standings[0].UnitName)
	assert.False(t, standings[1].Started)
	assert.Nil(t, standings[1].Position)
}

func TestGetHistoryCapsLimit(t *testing.T) {
	sessions := &mockSessionRepo{}
	svc := NewProgressService(sessions, &mockPositionRepo{}, testUnits(), nil, nil, 1, 50)

	_, err := svc.GetHistory(context.Background(), "s1", nil, 500)
	require.NoError(t, err)
	assert.Equal(t, 50, sessions.lastFilter.Limit)
}

func TestGetHistoryRejectsUnknownTrack(t *testing.T) {
	svc := NewProgressService(&mockSessionRepo{}, &mockPositionRepo{}, testUnits(), nil, nil, 1, 50)

	track := models.Track("SPRINT")
	_, err := svc.GetHistory(context.Background(), "s1", &track, 10)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
