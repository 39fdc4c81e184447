package performancehandler

import (
	"fmt"
	"net/http"

	"perfreview/internal/domain/audit"
	"perfreview/internal/domain/performance"
	"perfreview/internal/platform/metrics"
	"perfreview/internal/transport/http/api"
	"perfreview/internal/transport/http/middleware"
	"perfreview/internal/transport/http/shared"
)

type reviewRequest struct {
	EmployeeID   int64  `json:"employee_id"`
	ReviewPeriod string `json:"review_period"`
	Status       string `json:"status"`
}

type reviewUpdateRequest struct {
	EmployeeID   *int64  `json:"employee_id"`
	ReviewPeriod *string `json:"review_period"`
	Status       *string `json:"status"`
}

// handleListReviews godoc
// @Summary List review cycles
// @Tags reviews
// @Produce json
// @Security BearerAuth
// @Success 200 {object} api.Envelope
// @Router /reviews [get]
func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	out, err := h.Service.ListReviews(r.Context(), user)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleReviewStats(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	out, err := h.Service.ReviewStats(r.Context(), user)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleGetReview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "reviewID", reqID)
	if !ok {
		return
	}
	out, err := h.Service.GetReview(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

// handleCreateReview godoc
// @Summary Create a review cycle
// @Tags reviews
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body reviewRequest true "review"
// @Success 201 {object} api.Envelope
// @Failure 400 {object} api.Envelope
// @Failure 404 {object} api.Envelope
// @Failure 422 {object} api.Envelope
// @Router /reviews [post]
func (h *Handler) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload reviewRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	created, err := h.Service.CreateReview(r.Context(), user, performance.CreateReviewInput{
		EmployeeID:   payload.EmployeeID,
		ReviewPeriod: payload.ReviewPeriod,
		Status:       payload.Status,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	h.Metrics.Count(metrics.EventReviewCreated)
	shared.RecordAudit(r, h.Audit, audit.Entry{ActorID: user.UserID, Action: audit.ActionCreate, EntityType: audit.EntityReview, EntityID: created.ID, After: created})
	api.Created(w, created, reqID)
}

func (h *Handler) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "reviewID", reqID)
	if !ok {
		return
	}
	var payload reviewUpdateRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	before, err := h.Service.GetReview(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	updated, err := h.Service.UpdateReview(r.Context(), user, id, performance.ReviewUpdate{
		EmployeeID:   payload.EmployeeID,
		ReviewPeriod: payload.ReviewPeriod,
		Status:       payload.Status,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{ActorID: user.UserID, Action: audit.ActionUpdate, EntityType: audit.EntityReview, EntityID: id, Before: before.Review, After: updated})
	api.Success(w, updated, reqID)
}

func (h *Handler) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "reviewID", reqID)
	if !ok {
		return
	}
	before, err := h.Service.GetReview(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Service.DeleteReview(r.Context(), user, id); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{ActorID: user.UserID, Action: audit.ActionDelete, EntityType: audit.EntityReview, EntityID: id, Before: before.Review})
	api.Success(w, map[string]any{"id": id, "deleted": true}, reqID)
}

// handleReviewReport godoc
// @Summary PDF summary of a review's feedback
// @Tags reviews
// @Produce application/pdf
// @Security BearerAuth
// @Param reviewID path int true "review id"
// @Success 200 {file} file
// @Failure 404 {object} api.Envelope
// @Router /reviews/{reviewID}/report.pdf [get]
func (h *Handler) handleReviewReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "reviewID", reqID)
	if !ok {
		return
	}
	pdf, err := h.Service.ReviewReport(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=review-%d.pdf", id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
