package performancehandler

import (
	"github.com/go-chi/chi/v5"

	"perfreview/internal/domain/audit"
	"perfreview/internal/domain/auth"
	"perfreview/internal/domain/performance"
	"perfreview/internal/platform/metrics"
	"perfreview/internal/transport/http/middleware"
)

type Handler struct {
	Service *performance.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
	Metrics *metrics.Collector
}

func NewHandler(service *performance.Service, perms middleware.PermissionStore, auditor audit.Recorder, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reviews", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReviewsRead, h.Perms)).Get("/stats", h.handleReviewStats)
		r.With(middleware.RequirePermission(auth.PermReviewsRead, h.Perms)).Get("/", h.handleListReviews)
		r.With(middleware.RequirePermission(auth.PermReviewsWrite, h.Perms)).Post("/", h.handleCreateReview)
		r.With(middleware.RequirePermission(auth.PermReviewsRead, h.Perms)).Get("/{reviewID}", h.handleGetReview)
		r.With(middleware.RequirePermission(auth.PermReviewsWrite, h.Perms)).Put("/{reviewID}", h.handleUpdateReview)
		r.With(middleware.RequirePermission(auth.PermReviewsWrite, h.Perms)).Delete("/{reviewID}", h.handleDeleteReview)
		r.With(middleware.RequirePermission(auth.PermReviewsRead, h.Perms)).Get("/{reviewID}/report.pdf", h.handleReviewReport)
	})

	r.Route("/assignments", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAssignmentsOwn, h.Perms)).Get("/my-assignments", h.handleMyAssignments)
		r.With(middleware.RequirePermission(auth.PermAssignmentsRead, h.Perms)).Get("/review/{reviewID}", h.handleReviewAssignments)
		r.With(middleware.RequirePermission(auth.PermAssignmentsEdit, h.Perms)).Post("/", h.handleCreateAssignment)
		r.With(middleware.RequirePermission(auth.PermAssignmentsEdit, h.Perms)).Delete("/{assignmentID}", h.handleDeleteAssignment)
	})

	r.Route("/feedback", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAssignmentsOwn, h.Perms)).Get("/my-assignments", h.handleMyAssignments)
		r.With(middleware.RequirePermission(auth.PermAssignmentsOwn, h.Perms)).Get("/assignment/{assignmentID}", h.handleAssignmentDetail)
		r.With(middleware.RequireRole(auth.Roles...)).Get("/assignment/{assignmentID}/feedback", h.handleAssignmentFeedback)
		r.With(middleware.RequireRole(auth.Roles...)).Get("/{feedbackID}", h.handleGetFeedback)
		r.With(middleware.RequirePermission(auth.PermFeedbackSubmit, h.Perms)).Post("/", h.handleSubmitFeedback)
		r.With(middleware.RequirePermission(auth.PermFeedbackSubmit, h.Perms)).Put("/{feedbackID}", h.handleUpdateFeedback)
		r.With(middleware.RequirePermission(auth.PermFeedbackRead, h.Perms)).Get("/review/{reviewID}", h.handleReviewFeedback)
		r.With(middleware.RequirePermission(auth.PermFeedbackDelete, h.Perms)).Delete("/{feedbackID}", h.handleDeleteFeedback)
	})
}
