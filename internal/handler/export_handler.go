package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tahfizku/tahfiz-api/internal/service"
	"github.com/tahfizku/tahfiz-api/pkg/response"
)

type exportDownloader interface {
	SignedDownloadLink(ctx context.Context, classID, semesterID, format string) (*service.DownloadLink, error)
	FetchArchived(ctx context.Context, token string) (*service.RankingDocument, error)
}

// ExportHandler exposes signed download links for archived exports.
type ExportHandler struct {
	exports exportDownloader
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports exportDownloader) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// DownloadLink godoc
// @Summary Create a signed download link for the class ranking
// @Tags Exams
// @Produce json
// @Param id path string true "Class ID"
// @Param semesterId query string false "Semester"
// @Param format query string true "csv or pdf"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/ranking/export-link [get]
func (h *ExportHandler) DownloadLink(c *gin.Context) {
	link, err := h.exports.SignedDownloadLink(c.Request.Context(), c.Param("id"), c.Query("semesterId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}

// Download godoc
// @Summary Download an archived export by signed token
// @Tags Exams
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200
// @Router /exports/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	doc, err := h.exports.FetchArchived(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}
