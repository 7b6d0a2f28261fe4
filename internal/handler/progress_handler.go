package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tahfizku/tahfiz-api/internal/models"
	"github.com/tahfizku/tahfiz-api/internal/service"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
	"github.com/tahfizku/tahfiz-api/pkg/response"
)

type progressService interface {
	RecordSession(ctx context.Context, req service.RecordSessionRequest) (*models.SessionRecord, error)
	GetPosition(ctx context.Context, studentID string) ([]models.TrackStanding, error)
	GetHistory(ctx context.Context, studentID string, track *models.Track, limit int) ([]models.SessionRecord, error)
}

// ProgressHandler exposes position tracking endpoints.
type ProgressHandler struct {
	progress progressService
}

// NewProgressHandler constructs the handler.
func NewProgressHandler(progress progressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// RecordSession godoc
// @Summary Record a recitation session
// @Tags Progress
// @Accept json
// @Produce json
// @Param payload body service.RecordSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /sessions [post]
func (h *ProgressHandler) RecordSession(c *gin.Context) {
	var req service.RecordSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	rec, err := h.progress.RecordSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rec)
}

// GetPosition godoc
// @Summary Current position per track
// @Tags Progress
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/position [get]
func (h *ProgressHandler) GetPosition(c *gin.Context) {
	standings, err := h.progress.GetPosition(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standings, nil)
}

// GetHistory godoc
// @Summary Session history, most recent first
// @Tags Progress
// @Produce json
// @Param id path string true "Student ID"
// @Param track query string false "Filter by track"
// @Param limit query int false "Max rows"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/history [get]
func (h *ProgressHandler) GetHistory(c *gin.Context) {
	var track *models.Track
	if raw := c.Query("track"); raw != "" {
		t := models.Track(raw)
		track = &t
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	records, err := h.progress.GetHistory(c.Request.Context(), c.Param("id"), track, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
