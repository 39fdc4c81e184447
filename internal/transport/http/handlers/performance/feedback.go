package performancehandler

import (
	"encoding/json"
	"net/http"

	"perfreview/internal/domain/audit"
	"perfreview/internal/domain/performance"
	"perfreview/internal/platform/metrics"
	"perfreview/internal/transport/http/api"
	"perfreview/internal/transport/http/middleware"
	"perfreview/internal/transport/http/shared"
)

type submitRequest struct {
	AssignmentID int64           `json:"assignment_id"`
	Answers      json.RawMessage `json:"answers" swaggertype:"object"`
}

type answersRequest struct {
	Answers json.RawMessage `json:"answers" swaggertype:"object"`
}

// handleAssignmentDetail godoc
// @Summary One of the caller's assignments with its feedback
// @Tags feedback
// @Produce json
// @Security BearerAuth
// @Param assignmentID path int true "assignment id"
// @Success 200 {object} api.Envelope
// @Failure 403 {object} api.Envelope
// @Failure 404 {object} api.Envelope
// @Router /feedback/assignment/{assignmentID} [get]
func (h *Handler) handleAssignmentDetail(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "assignmentID", reqID)
	if !ok {
		return
	}
	out, err := h.Service.GetAssignment(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

// handleAssignmentFeedback returns the feedback on an assignment to its
// reviewer or an admin.
func (h *Handler) handleAssignmentFeedback(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "assignmentID", reqID)
	if !ok {
		return
	}
	out, err := h.Service.FeedbackForAssignment(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleGetFeedback(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "feedbackID", reqID)
	if !ok {
		return
	}
	out, err := h.Service.GetFeedback(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

// handleSubmitFeedback godoc
// @Summary Submit feedback for an assignment
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body submitRequest true "feedback"
// @Success 201 {object} api.Envelope
// @Failure 400 {object} api.Envelope
// @Failure 403 {object} api.Envelope
// @Failure 404 {object} api.Envelope
// @Failure 409 {object} api.Envelope
// @Failure 422 {object} api.Envelope
// @Router /feedback [post]
func (h *Handler) handleSubmitFeedback(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload submitRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.PositiveID("assignment_id", payload.AssignmentID)
	answers, err := performance.ParseAnswers(payload.Answers)
	if !v.Merge(err) {
		api.FailError(w, err, reqID)
		return
	}
	if v.Reject(w, reqID) {
		return
	}

	created, err := h.Service.SubmitFeedback(r.Context(), user, payload.AssignmentID, answers)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	h.Metrics.Count(metrics.EventFeedbackSubmitted)
	api.Created(w, created, reqID)
}

func (h *Handler) handleUpdateFeedback(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "feedbackID", reqID)
	if !ok {
		return
	}
	var payload answersRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	answers, err := performance.ParseAnswers(payload.Answers)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}

	updated, err := h.Service.UpdateFeedback(r.Context(), user, id, answers)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) handleReviewFeedback(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "reviewID", reqID)
	if !ok {
		return
	}
	out, err := h.Service.ReviewFeedback(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

// handleDeleteFeedback godoc
// @Summary Delete feedback and reopen its assignment
// @Tags feedback
// @Produce json
// @Security BearerAuth
// @Param feedbackID path int true "feedback id"
// @Success 200 {object} api.Envelope
// @Failure 404 {object} api.Envelope
// @Router /feedback/{feedbackID} [delete]
func (h *Handler) handleDeleteFeedback(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "feedbackID", reqID)
	if !ok {
		return
	}
	before, err := h.Service.GetFeedback(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Service.DeleteFeedback(r.Context(), user, id); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	h.Metrics.Count(metrics.EventFeedbackReopened)
	shared.RecordAudit(r, h.Audit, audit.Entry{ActorID: user.UserID, Action: audit.ActionDelete, EntityType: audit.EntityFeedback, EntityID: id, Before: before})
	api.Success(w, map[string]any{"id": id, "deleted": true, "assignment_id": before.AssignmentID}, reqID)
}
