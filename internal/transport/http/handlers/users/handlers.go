package usershandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfreview/internal/domain/audit"
	"perfreview/internal/domain/auth"
	"perfreview/internal/domain/users"
	"perfreview/internal/transport/http/api"
	"perfreview/internal/transport/http/middleware"
	"perfreview/internal/transport/http/shared"
)

type Handler struct {
	Service *users.Service
	Perms   middleware.PermissionStore
	Audit   audit.Recorder
}

func NewHandler(service *users.Service, perms middleware.PermissionStore, auditor audit.Recorder) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/users", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermUsersRead, h.Perms)).Get("/{userID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Put("/{userID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Delete("/{userID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Patch("/{userID}/activate", h.handleSetActive)
	})
}

type createRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	IsActive  *bool  `json:"is_active"`
}

type updateRequest struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Role      *string `json:"role"`
	Password  *string `json:"password"`
}

type activeRequest struct {
	IsActive *bool `json:"is_active"`
}

// handleList godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} api.Envelope
// @Router /users [get]
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	out, err := h.Service.List(r.Context(), user)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "userID", reqID)
	if !ok {
		return
	}
	out, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, out, reqID)
}

// handleCreate godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body createRequest true "user"
// @Success 201 {object} api.Envelope
// @Failure 400 {object} api.Envelope
// @Failure 409 {object} api.Envelope
// @Router /users [post]
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	var payload createRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	created, err := h.Service.Create(r.Context(), user, users.CreateInput{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      payload.Role,
		IsActive:  payload.IsActive,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{ActorID: user.UserID, Action: audit.ActionCreate, EntityType: audit.EntityUser, EntityID: created.ID, After: created})
	api.Created(w, created, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "userID", reqID)
	if !ok {
		return
	}
	var payload updateRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	before, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	updated, err := h.Service.Update(r.Context(), user, id, users.UpdateInput{
		Email:     payload.Email,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Role:      payload.Role,
		Password:  payload.Password,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{ActorID: user.UserID, Action: audit.ActionUpdate, EntityType: audit.EntityUser, EntityID: id, Before: before, After: updated})
	api.Success(w, updated, reqID)
}

func (h *Handler) handleSetActive(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "userID", reqID)
	if !ok {
		return
	}
	var payload activeRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	if payload.IsActive == nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "is_active", Reason: "is required"}})
		return
	}

	updated, err := h.Service.SetActive(r.Context(), user, id, *payload.IsActive)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	action := audit.ActionDeactivate
	if updated.IsActive {
		action = audit.ActionActivate
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{ActorID: user.UserID, Action: action, EntityType: audit.EntityUser, EntityID: id, After: updated})
	api.Success(w, updated, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	id, ok := shared.ParseID(w, r, "userID", reqID)
	if !ok {
		return
	}

	before, err := h.Service.Get(r.Context(), user, id)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	if err := h.Service.Delete(r.Context(), user, id); err != nil {
		api.FailError(w, err, reqID)
		return
	}
	shared.RecordAudit(r, h.Audit, audit.Entry{ActorID: user.UserID, Action: audit.ActionDelete, EntityType: audit.EntityUser, EntityID: id, Before: before})
	api.Success(w, map[string]any{"id": id, "deleted": true}, reqID)
}
