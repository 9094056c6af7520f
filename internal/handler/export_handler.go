package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutorpay-api/internal/dto"
	"github.com/noah-isme/tutorpay-api/internal/models"
	appErrors "github.com/noah-isme/tutorpay-api/pkg/errors"
	"github.com/noah-isme/tutorpay-api/pkg/response"
)

// ExportManager abstracts the payroll export pipeline.
type ExportManager interface {
	Enqueue(ctx context.Context, req dto.CreateExportRequest, actorID string) (*models.ExportJob, error)
	Status(ctx context.Context, id string) (*dto.ExportJobResponse, error)
	OpenDownload(token string) (*os.File, error)
}

// ExportHandler exposes the payroll export endpoints.
type ExportHandler struct {
	exports ExportManager
}

// NewExportHandler constructs handler.
func NewExportHandler(exports ExportManager) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Create godoc
// @Summary Queue a payroll export
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body dto.CreateExportRequest true "Export parameters"
// @Success 202 {object} response.Envelope
// @Security BearerAuth
// @Router /exports [post]
func (h *ExportHandler) Create(c *gin.Context) {
	var req dto.CreateExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	job, err := h.exports.Enqueue(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Status godoc
// @Summary Export job status and download link when finished
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /exports/{id} [get]
func (h *ExportHandler) Status(c *gin.Context) {
	status, err := h.exports.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Download godoc
// @Summary Download an exported payroll file via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} binary
// @Router /downloads/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, err := h.exports.OpenDownload(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck
	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filepath.Base(file.Name())))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentTypeFor(file.Name()), file, nil)
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
