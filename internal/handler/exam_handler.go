package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tahfizku/tahfiz-api/internal/models"
	"github.com/tahfizku/tahfiz-api/internal/service"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
	"github.com/tahfizku/tahfiz-api/pkg/response"
)

type examService interface {
	RecordBatch(ctx context.Context, req service.RecordExamBatchRequest) (*models.ExamBatch, error)
	EditBatch(ctx context.Context, key models.ExamBatchKey, patch service.ExamBatchPatch) (*models.ExamBatch, error)
	EditEntry(ctx context.Context, entryID string, patch service.ExamEntryPatch) (*models.ExamEntry, error)
	DeleteBatch(ctx context.Context, key models.ExamBatchKey) error
	DeleteEntry(ctx context.Context, entryID string) error
	ComputePerformance(ctx context.Context, filter models.ExamFilter) ([]models.PerformanceRow, error)
	ComputeRanking(ctx context.Context, classID, semesterID string) ([]models.RankingRow, error)
}

type rankingExporter interface {
	RenderRanking(ctx context.Context, classID, semesterID, format string) (*service.RankingDocument, error)
}

// ExamHandler exposes exam batch and ranking endpoints.
type ExamHandler struct {
	exams   examService
	exports rankingExporter
}

// NewExamHandler constructs the handler. exports may be nil when
// ranking exports are disabled.
func NewExamHandler(exams examService, exports rankingExporter) *ExamHandler {
	return &ExamHandler{exams: exams, exports: exports}
}

// EditExamBatchRequest wraps a batch key with its patch.
type EditExamBatchRequest struct {
	Key   models.ExamBatchKey   `json:"key"`
	Patch service.ExamBatchPatch `json:"patch"`
}

// DeleteExamBatchRequest identifies the batch to remove.
type DeleteExamBatchRequest struct {
	Key models.ExamBatchKey `json:"key"`
}

// RecordBatch godoc
// @Summary Record an exam batch
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body service.RecordExamBatchRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Router /exams/batches [post]
func (h *ExamHandler) RecordBatch(c *gin.Context) {
	var req service.RecordExamBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	batch, err := h.exams.RecordBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, batch)
}

// EditBatch godoc
// @Summary Edit an exam batch's identity fields
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body EditExamBatchRequest true "Key and patch"
// @Success 200 {object} response.Envelope
// @Router /exams/batches [put]
func (h *ExamHandler) EditBatch(c *gin.Context) {
	var req EditExamBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	batch, err := h.exams.EditBatch(c.Request.Context(), req.Key, req.Patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, batch, nil)
}

// DeleteBatch godoc
// @Summary Delete an exam batch
// @Tags Exams
// @Accept json
// @Produce json
// @Param payload body DeleteExamBatchRequest true "Batch key"
// @Success 204
// @Router /exams/batches [delete]
func (h *ExamHandler) DeleteBatch(c *gin.Context) {
	var req DeleteExamBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.exams.DeleteBatch(c.Request.Context(), req.Key); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// EditEntry godoc
// @Summary Edit one exam entry
// @Tags Exams
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body service.ExamEntryPatch true "Entry patch"
// @Success 200 {object} response.Envelope
// @Router /exams/entries/{id} [patch]
func (h *ExamHandler) EditEntry(c *gin.Context) {
	var patch service.ExamEntryPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.exams.EditEntry(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeleteEntry godoc
// @Summary Delete one exam entry
// @Tags Exams
// @Param id path string true "Entry ID"
// @Success 204
// @Router /exams/entries/{id} [delete]
func (h *ExamHandler) DeleteEntry(c *gin.Context) {
	if err := h.exams.DeleteEntry(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Performance godoc
// @Summary Per-entry performance projection
// @Tags Exams
// @Produce json
// @Param id path string true "Class ID"
// @Param semesterId query string false "Semester"
// @Param subject query string false "Subject"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/performance [get]
func (h *ExamHandler) Performance(c *gin.Context) {
	filter := models.ExamFilter{
		ClassID:    c.Param("id"),
		SemesterID: c.Query("semesterId"),
		Subject:    c.Query("subject"),
	}
	rows, err := h.exams.ComputePerformance(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Ranking godoc
// @Summary Tie-aware class ranking
// @Tags Exams
// @Produce json
// @Param id path string true "Class ID"
// @Param semesterId query string false "Semester"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/ranking [get]
func (h *ExamHandler) Ranking(c *gin.Context) {
	rows, err := h.exams.ComputeRanking(c.Request.Context(), c.Param("id"), c.Query("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// ExportRanking godoc
// @Summary Download the class ranking as CSV or PDF
// @Tags Exams
// @Produce octet-stream
// @Param id path string true "Class ID"
// @Param semesterId query string false "Semester"
// @Param format query string true "csv or pdf"
// @Success 200
// @Router /classes/{id}/ranking/export [get]
func (h *ExamHandler) ExportRanking(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "ranking exports are disabled"))
		return
	}
	doc, err := h.exports.RenderRanking(c.Request.Context(), c.Param("id"), c.Query("semesterId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
