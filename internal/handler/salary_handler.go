package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorpay-api/internal/dto"
	"github.com/noah-isme/tutorpay-api/internal/middleware"
	"github.com/noah-isme/tutorpay-api/internal/models"
	appErrors "github.com/noah-isme/tutorpay-api/pkg/errors"
	"github.com/noah-isme/tutorpay-api/pkg/response"
)

// PayrollService abstracts the compensation operations the salary
// endpoints depend on.
type PayrollService interface {
	ListPeriod(ctx context.Context, period models.Period, bypassCache bool) ([]dto.TeacherCompensation, bool, error)
	GetTeacher(ctx context.Context, teacherID string, period models.Period) (*dto.TeacherCompensation, error)
	Finalize(ctx context.Context, teacherID string, req dto.UpdateSalaryStatusRequest, actorID string) (*dto.UpdateSalaryStatusResponse, error)
}

// SalaryHandler exposes the payroll reconciliation endpoints.
type SalaryHandler struct {
	payroll PayrollService
}

// NewSalaryHandler constructs handler.
func NewSalaryHandler(payroll PayrollService) *SalaryHandler {
	return &SalaryHandler{payroll: payroll}
}

// List godoc
// @Summary Computed compensation for every active teacher in a period
// @Tags Salaries
// @Produce json
// @Param period query string true "Billing period (YYYY-MM)"
// @Param teacherId query string false "Restrict to one teacher"
// @Param refresh query bool false "Bypass the cached result"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /salaries [get]
func (h *SalaryHandler) List(c *gin.Context) {
	period, err := models.ParsePeriod(c.Query("period"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}

	if teacherID := c.Query("teacherId"); teacherID != "" {
		row, err := h.payroll.GetTeacher(c.Request.Context(), teacherID, period)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, []dto.TeacherCompensation{*row}, nil, middleware.ExtractMeta(c))
		return
	}

	refresh := c.Query("refresh") == "true"
	rows, cacheHit, err := h.payroll.ListPeriod(c.Request.Context(), period, refresh)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, rows, nil, middleware.ExtractMeta(c))
}

// Detail godoc
// @Summary Compensation detail with the full per-day breakdown
// @Tags Salaries
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param period query string true "Billing period (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /salaries/{teacherId} [get]
func (h *SalaryHandler) Detail(c *gin.Context) {
	period, err := models.ParsePeriod(c.Query("period"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	detail, err := h.payroll.GetTeacher(c.Request.Context(), c.Param("teacherId"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// UpdateStatus godoc
// @Summary Finalize a teacher salary, optionally disbursing the payout
// @Tags Salaries
// @Accept json
// @Produce json
// @Param teacherId path string true "Teacher ID"
// @Param payload body dto.UpdateSalaryStatusRequest true "Status update"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /salaries/{teacherId}/status [put]
func (h *SalaryHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateSalaryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.payroll.Finalize(c.Request.Context(), c.Param("teacherId"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
