package performancehandler

import (
	"net/http"

	"perfreview/internal/domain/audit"
	"perfreview/internal/platform/metrics"
	"perfreview/internal/transport/http/api"
	"perfreview/internal/transport/http/middleware"
	"perfreview/internal/transport/http/shared"
)

type assignmentRequest struct {
	ReviewID   int64 `json:"review_id"`
	ReviewerID int64 `json:"reviewer_id"`
}

// handleMyAssignments godoc
// @Summary Assignments of the calling reviewer
// @Tags assignments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} api.Envelope
// @Router /assignments/my-assignments [get]
func (h *Handler) handleMyAssignments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	out, err := h.Service.MyAssignments(r.Context(), user)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleReviewAssignments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "reviewID", reqID)
	if !ok {
		return
	}
	out, err := h.Service.ReviewAssignments(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

// handleCreateAssignment godoc
// @Summary Assign a reviewer to a review cycle
// @Tags assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body assignmentRequest true "assignment"
// @Success 201 {object} api.Envelope
// @Failure 404 {object} api.Envelope
// @Failure 409 {object} api.Envelope
// @Failure 422 {object} api.Envelope
// @Router /assignments [post]
func (h *Handler) handleCreateAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload assignmentRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.PositiveID("review_id", payload.ReviewID)
	v.PositiveID("reviewer_id", payload.ReviewerID)
	if v.Reject(w, reqID) {
		return
	}

	created, err := h.Service.CreateAssignment(r.Context(), user, payload.ReviewID, payload.ReviewerID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	h.Metrics.Count(metrics.EventAssignmentCreated)
	shared.RecordAudit(r, h.Audit, audit.Entry{ActorID: user.UserID, Action: audit.ActionCreate, EntityType: audit.EntityAssignment, EntityID: created.ID, After: created})
	api.Created(w, created, reqID)
}

func (h *Handler) handleDeleteAssignment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "assignmentID", reqID)
	if !ok {
		return
	}
	if err := h.Service.DeleteAssignment(r.Context(), user, id); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{ActorID: user.UserID, Action: audit.ActionDelete, EntityType: audit.EntityAssignment, EntityID: id})
	api.Success(w, map[string]any{"id": id, "deleted": true}, reqID)
}
