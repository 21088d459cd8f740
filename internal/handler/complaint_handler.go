package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/complaint-desk/internal/models"
	"github.com/noah-isme/complaint-desk/internal/service"
	appErrors "github.com/noah-isme/complaint-desk/pkg/errors"
	"github.com/noah-isme/complaint-desk/pkg/response"
)

type complaintService interface {
	Preview(actor models.Account, req models.SubmitComplaintRequest) (models.ClassificationPreview, error)
	Submit(ctx context.Context, submitter models.Account, req models.SubmitComplaintRequest) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, actor models.Account, id string, req models.StatusUpdateRequest) error
	Queue(ctx context.Context, actor models.Account, filter models.QueueFilter) ([]models.Complaint, error)
	Stats(ctx context.Context, actor models.Account) (models.QueueStats, error)
	Mine(ctx context.Context, actor models.Account, status string) ([]models.Complaint, error)
	MineStats(ctx context.Context, actor models.Account) (models.QueueStats, error)
}

type exportService interface {
	Export(ctx context.Context, actor models.Account, filter models.QueueFilter, format string) (*service.ExportFile, error)
}

// ComplaintHandler wires complaint intake and triage endpoints.
type ComplaintHandler struct {
	service complaintService
	exports exportService
}

// NewComplaintHandler constructs the handler.
func NewComplaintHandler(svc complaintService, exports exportService) *ComplaintHandler {
	return &ComplaintHandler{service: svc, exports: exports}
}

// Preview godoc
// @Summary Classify complaint text without submitting it
// @Description Returns the category, department and priority plus the keyword score of every category
// @Tags Complaints
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.SubmitComplaintRequest true "Complaint text"
// @Success 200 {object} response.Envelope
// @Router /complaints/preview [post]
func (h *ComplaintHandler) Preview(c *gin.Context) {
	actor, ok := accountFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.SubmitComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid complaint payload"))
		return
	}
	class, err := h.service.Preview(actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class)
}

// Submit godoc
// @Summary Submit a complaint
// @Description Classifies the text and stores a pending complaint for the caller
// @Tags Complaints
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.SubmitComplaintRequest true "Complaint text"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /complaints [post]
func (h *ComplaintHandler) Submit(c *gin.Context) {
	actor, ok := accountFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req models.SubmitComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid complaint payload"))
		return
	}
	complaint, err := h.service.Submit(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, complaint)
}

// Mine godoc
// @Summary Complaints submitted by the caller
// @Tags Complaints
// @Security BearerAuth
// @Produce json
// @Param status query string false "pending, in_progress, resolved, rejected or all"
// @Success 200 {object} response.Envelope
// @Router /complaints/mine [get]
func (h *ComplaintHandler) Mine(c *gin.Context) {
	actor, ok := accountFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	complaints, err := h.service.Mine(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaints, map[string]interface{}{"count": len(complaints)})
}

// MineStats godoc
// @Summary Counters over the caller's complaints
// @Tags Complaints
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /complaints/mine/stats [get]
func (h *ComplaintHandler) MineStats(c *gin.Context) {
	actor, ok := accountFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.service.MineStats(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Queue godoc
// @Summary Staff triage queue
// @Description Conjunction of the filters, ordered by priority then most recent submission
// @Tags Complaints
// @Security BearerAuth
// @Produce json
// @Param status query string false "Status or all"
// @Param priority query string false "Priority or all"
// @Param department query string false "Department or all"
// @Param search query string false "Substring of title, description, student name or id"
// @Success 200 {object} response.Envelope
// @Router /complaints [get]
func (h *ComplaintHandler) Queue(c *gin.Context) {
	actor, ok := accountFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var filter models.QueueFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid queue filter"))
		return
	}
	complaints, err := h.service.Queue(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, complaints, map[string]interface{}{"count": len(complaints), "filter": filter})
}

// Stats godoc
// @Summary Counters over every complaint
// @Tags Complaints
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /complaints/stats [get]
func (h *ComplaintHandler) Stats(c *gin.Context) {
	actor, ok := accountFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats)
}

// Export godoc
// @Summary Download the filtered queue
// @Tags Complaints
// @Security BearerAuth
// @Produce text/csv,application/pdf,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv, pdf or xlsx"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /complaints/export [get]
func (h *ComplaintHandler) Export(c *gin.Context) {
	actor, ok := accountFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrDisabled, "exports are disabled"))
		return
	}
	var filter models.QueueFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid queue filter"))
		return
	}
	file, err := h.exports.Export(c.Request.Context(), actor, filter, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// UpdateStatus godoc
// @Summary Move a complaint to a new status
// @Description Unknown ids are ignored and still answer 204
// @Tags Complaints
// @Security BearerAuth
// @Accept json
// @Param id path string true "Complaint ID"
// @Param payload body models.StatusUpdateRequest true "Transition"
// @Success 204
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /complaints/{id}/status [patch]
func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	actor, ok := accountFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id is required"))
		return
	}
	var req models.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	if err := h.service.UpdateStatus(c.Request.Context(), actor, id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
