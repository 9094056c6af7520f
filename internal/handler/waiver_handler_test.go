package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/tutorpay-api/internal/dto"
	"github.com/noah-isme/tutorpay-api/internal/middleware"
	"github.com/noah-isme/tutorpay-api/internal/models"
	appErrors "github.com/noah-isme/tutorpay-api/pkg/errors"
)

type fakeWaiverSrv struct {
	listResp   []models.Waiver
	listErr    error
	createResp *models.Waiver
	createErr  error
	deleteErr  error
	lastCreate struct {
		req     dto.CreateWaiverRequest
		actorID string
	}
	lastDelete struct {
		id      string
		actorID string
	}
}

func (f *fakeWaiverSrv) List(context.Context, string, models.Period) ([]models.Waiver, error) {
	return f.listResp, f.listErr
}

func (f *fakeWaiverSrv) Create(_ context.Context, req dto.CreateWaiverRequest, actorID string) (*models.Waiver, error) {
	f.lastCreate.req = req
	f.lastCreate.actorID = actorID
	return f.createResp, f.createErr
}

func (f *fakeWaiverSrv) Delete(_ context.Context, id, actorID string) error {
	f.lastDelete.id = id
	f.lastDelete.actorID = actorID
	return f.deleteErr
}

func TestWaiverHandlerListRequiresPeriod(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWaiverHandler(&fakeWaiverSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/waivers?teacherId=teacher-1", nil)

	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWaiverHandlerCreateSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeWaiverSrv{
		createResp: &models.Waiver{ID: "waiver-1", Kind: models.DeductionLateness},
	}
	handler := NewWaiverHandler(service)

	body, _ := json.Marshal(dto.CreateWaiverRequest{
		TeacherID: "0b6a2f0e-6d41-4fd6-9f35-51b1a5e6f001",
		Kind:      string(models.DeductionLateness),
		Date:      "2026-03-04",
		Reason:    "teacher notified admin in advance",
	})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/waivers", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "admin-1", service.lastCreate.actorID)
	assert.Equal(t, "2026-03-04", service.lastCreate.req.Date)
}

func TestWaiverHandlerCreateServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWaiverHandler(&fakeWaiverSrv{
		createErr: appErrors.Clone(appErrors.ErrValidation, "kind must be LATENESS or ABSENCE"),
	})

	body, _ := json.Marshal(dto.CreateWaiverRequest{
		TeacherID: "0b6a2f0e-6d41-4fd6-9f35-51b1a5e6f001",
		Kind:      "HOLIDAY",
		Date:      "2026-03-04",
		Reason:    "not a real kind",
	})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/waivers", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWaiverHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	service := &fakeWaiverSrv{}
	handler := NewWaiverHandler(service)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/waivers/waiver-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "waiver-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Delete(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "waiver-1", service.lastDelete.id)
	assert.Equal(t, "admin-1", service.lastDelete.actorID)
}

func TestWaiverHandlerDeleteNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewWaiverHandler(&fakeWaiverSrv{
		deleteErr: appErrors.Clone(appErrors.ErrNotFound, "waiver not found"),
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/waivers/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
