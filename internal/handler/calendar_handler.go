package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tahfizku/tahfiz-api/internal/models"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
	"github.com/tahfizku/tahfiz-api/pkg/response"
)

type calendarService interface {
	IsInstructionalDay(ctx context.Context, classID string, date time.Time) models.DayRuling
}

// CalendarHandler exposes instructional-day resolution.
type CalendarHandler struct {
	calendar calendarService
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(calendar calendarService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar}
}

// SchoolDay godoc
// @Summary Resolve whether a date is an instructional day
// @Tags Calendar
// @Produce json
// @Param id path string true "Class ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/school-day [get]
func (h *CalendarHandler) SchoolDay(c *gin.Context) {
	raw := c.Query("date")
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		response.Error(c, appErrors.Validationf("date must be formatted YYYY-MM-DD"))
		return
	}
	ruling := h.calendar.IsInstructionalDay(c.Request.Context(), c.Param("id"), date)
	response.JSON(c, http.StatusOK, ruling, nil)
}
