package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahfizku/tahfiz-api/internal/models"
)

type calendarServiceMock struct {
	ruling   models.DayRuling
	lastDate time.Time
}

func (m *calendarServiceMock) IsInstructionalDay(ctx context.Context, classID string, date time.Time) models.DayRuling {
	m.lastDate = date
	return m.ruling
}

func TestCalendarHandlerSchoolDay(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &calendarServiceMock{ruling: models.DayRuling{Valid: false, Reason: "Eid al-Fitr"}}
	handler := NewCalendarHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classes/c1/school-day?date=2026-03-02", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	handler.SchoolDay(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":false`)
	assert.Contains(t, w.Body.String(), "Eid al-Fitr")
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), mockSvc.lastDate)
}

func TestCalendarHandlerSchoolDayBadDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewCalendarHandler(&calendarServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/classes/c1/school-day?date=02-03-2026", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "c1"}}

	handler.SchoolDay(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
