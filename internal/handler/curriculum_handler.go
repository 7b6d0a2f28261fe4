package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tahfizku/tahfiz-api/internal/service"
	appErrors "github.com/tahfizku/tahfiz-api/pkg/errors"
	"github.com/tahfizku/tahfiz-api/pkg/response"
)

// CurriculumHandler exposes the read-only surah reference table.
type CurriculumHandler struct {
	curriculum *service.CurriculumService
}

// NewCurriculumHandler constructs the handler.
func NewCurriculumHandler(curriculum *service.CurriculumService) *CurriculumHandler {
	return &CurriculumHandler{curriculum: curriculum}
}

// ListUnits godoc
// @Summary List curriculum units in order
// @Tags Curriculum
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /curriculum/units [get]
func (h *CurriculumHandler) ListUnits(c *gin.Context) {
	units, err := h.curriculum.ListUnits(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, units, nil)
}

// GetUnit godoc
// @Summary Get one curriculum unit
// @Tags Curriculum
// @Produce json
// @Param ordinal path int true "Unit ordinal"
// @Success 200 {object} response.Envelope
// @Router /curriculum/units/{ordinal} [get]
func (h *CurriculumHandler) GetUnit(c *gin.Context) {
	ordinal, err := strconv.Atoi(c.Param("ordinal"))
	if err != nil {
		response.Error(c, appErrors.Validationf("ordinal must be a number"))
		return
	}
	unit, err := h.curriculum.GetUnit(c.Request.Context(), ordinal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, unit, nil)
}
