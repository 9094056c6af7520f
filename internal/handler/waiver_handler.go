package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorpay-api/internal/dto"
	"github.com/noah-isme/tutorpay-api/internal/models"
	appErrors "github.com/noah-isme/tutorpay-api/pkg/errors"
	"github.com/noah-isme/tutorpay-api/pkg/response"
)

// WaiverManager abstracts deduction waiver operations.
type WaiverManager interface {
	List(ctx context.Context, teacherID string, period models.Period) ([]models.Waiver, error)
	Create(ctx context.Context, req dto.CreateWaiverRequest, actorID string) (*models.Waiver, error)
	Delete(ctx context.Context, id, actorID string) error
}

// WaiverHandler exposes the deduction waiver endpoints.
type WaiverHandler struct {
	waivers WaiverManager
}

// NewWaiverHandler constructs handler.
func NewWaiverHandler(waivers WaiverManager) *WaiverHandler {
	return &WaiverHandler{waivers: waivers}
}

// List godoc
// @Summary Waivers for a teacher within a period
// @Tags Waivers
// @Produce json
// @Param teacherId query string true "Teacher ID"
// @Param period query string true "Billing period (YYYY-MM)"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /waivers [get]
func (h *WaiverHandler) List(c *gin.Context) {
	period, err := models.ParsePeriod(c.Query("period"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	waivers, err := h.waivers.List(c.Request.Context(), c.Query("teacherId"), period)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, waivers, nil)
}

// Create godoc
// @Summary Register a waiver cancelling one deduction instance
// @Tags Waivers
// @Accept json
// @Produce json
// @Param payload body dto.CreateWaiverRequest true "Waiver"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /waivers [post]
func (h *WaiverHandler) Create(c *gin.Context) {
	var req dto.CreateWaiverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	waiver, err := h.waivers.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, waiver)
}

// Delete godoc
// @Summary Remove a waiver
// @Tags Waivers
// @Param id path string true "Waiver ID"
// @Success 204
// @Security BearerAuth
// @Router /waivers/{id} [delete]
func (h *WaiverHandler) Delete(c *gin.Context) {
	if err := h.waivers.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
