package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahfizku/tahfiz-api/internal/models"
	"github.com/tahfizku/tahfiz-api/internal/service"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
)

type examServiceMock struct {
	batch      *models.ExamBatch
	batchErr   error
	entry      *models.ExamEntry
	entryErr   error
	deleteErr  error
	perf       []models.PerformanceRow
	perfErr    error
	ranking    []models.RankingRow
	rankingErr error
	lastKey    models.ExamBatchKey
}

func (m *examServiceMock) RecordBatch(ctx context.Context, req service.RecordExamBatchRequest) (*models.ExamBatch, error) {
	return m.batch, m.batchErr
}

func (m *examServiceMock) EditBatch(ctx context.Context, key models.ExamBatchKey, patch service.ExamBatchPatch) (*models.ExamBatch, error) {
	m.lastKey = key
	return m.batch, m.batchErr
}

func (m *examServiceMock) EditEntry(ctx context.Context, entryID string, patch service.ExamEntryPatch) (*models.ExamEntry, error) {
	return m.entry, m.entryErr
}

func (m *examServiceMock) DeleteBatch(ctx context.Context, key models.ExamBatchKey) error {
	m.lastKey = key
	return m.deleteErr
}

func (m *examServiceMock) DeleteEntry(ctx context.Context, entryID string) error {
	return m.deleteErr
}

func (m *examServiceMock) ComputePerformance(ctx context.Context, filter models.ExamFilter) ([]models.PerformanceRow, error) {
	return m.perf, m.perfErr
}

func (m *examServiceMock) ComputeRanking(ctx context.Context, classID, semesterID string) ([]models.RankingRow, error) {
	return m.ranking, m.rankingErr
}

type rankingExporterMock struct {
	doc *service.RankingDocument
	err error
}

func (m *rankingExporterMock) RenderRanking(ctx context.Context, classID, semesterID, format string) (*service.RankingDocument, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.doc, nil
}

func TestExamHandlerRecordBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &examServiceMock{batch: &models.ExamBatch{Key: models.ExamBatchKey{ClassID: "c1"}}}
	handler := NewExamHandler(mockSvc, nil)

	score := 90.0
	payload, _ := json.Marshal(service.RecordExamBatchRequest{
		ClassID:    "c1",
		Subject:    "Tahfiz",
		ExamDate:   time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		SemesterID: "sem1",
		MaxScore:   100,
		Entries:    []service.ExamEntryRequest{{StudentID: "s1", Score: &score}},
	})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/exams/batches", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.RecordBatch(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestExamHandlerRecordBatchValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &examServiceMock{batchErr: appErrors.Validationf("entry 0: score is required for present entries")}
	handler := NewExamHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/exams/batches", bytes.NewBufferString(`{"class_id":"c1"}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.RecordBatch(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "entry 0")
}

func TestExamHandlerDeleteBatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &examServiceMock{}
	handler := NewExamHandler(mockSvc, nil)

	payload, _ := json.Marshal(DeleteExamBatchRequest{Key: models.ExamBatchKey{ClassID: "c1", Subject: "Tahfiz", SemesterID: "sem1", MaxScore: 100}})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/exams/batches", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.DeleteBatch(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "c1", mockSvc.lastKey.ClassID)
}

func TestExamHandlerEditEntryNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &examServiceMock{entryErr: appErrors.Clone(appErrors.ErrNotFound, "exam entry not found")}
	handler := NewExamHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPatch, "/exams/entries/missing", bytes.NewBufferString(`{"score":50}`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.EditEntry(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExamHandlerRanking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rank := 1
	pct := 90.0
	mockSvc := &examServiceMock{ranking: []models.RankingRow{
		{StudentID: "s1", TotalScore: 90, TotalMaxScore: 100, OverallPercentage: &pct, Rank: &rank},
	}}
	handler := NewExamHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classes/c1/ranking?semesterId=sem1", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	handler.Ranking(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rank":1`)
}

func TestExamHandlerExportRankingDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExamHandler(&examServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classes/c1/ranking/export?format=csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	handler.ExportRanking(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestExamHandlerExportRankingCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	exporter := &rankingExporterMock{doc: &service.RankingDocument{
		Content:     []byte("Rank,Student\n1,s1\n"),
		ContentType: "text/csv",
		Filename:    "ranking-c1.csv",
	}}
	handler := NewExamHandler(&examServiceMock{}, exporter)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classes/c1/ranking/export?format=csv", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	handler.ExportRanking(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="ranking-c1.csv"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), "1,s1")
}
