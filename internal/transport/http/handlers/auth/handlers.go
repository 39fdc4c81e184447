package authhandler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"perfreview/internal/domain/auth"
	"perfreview/internal/platform/metrics"
	"perfreview/internal/transport/http/api"
	"perfreview/internal/transport/http/middleware"
	"perfreview/internal/transport/http/shared"
)

type Handler struct {
	Service *auth.Service
	Metrics *metrics.Collector
}

func NewHandler(service *auth.Service, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.HandleRegister)
		r.Post("/login", h.HandleLogin)
		r.With(middleware.RequireRole()).Get("/me", h.HandleMe)
	})
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister godoc
// @Summary Register an account awaiting admin approval
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body registerRequest true "account"
// @Success 201 {object} api.Envelope
// @Failure 400 {object} api.Envelope
// @Failure 409 {object} api.Envelope
// @Router /auth/register [post]
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload registerRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}

	profile, err := h.Service.Register(r.Context(), auth.RegisterInput{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	})
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Created(w, profile, reqID)
}

// HandleLogin godoc
// @Summary Exchange credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body loginRequest true "credentials"
// @Success 200 {object} api.Envelope
// @Failure 401 {object} api.Envelope
// @Failure 403 {object} api.Envelope
// @Router /auth/login [post]
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if !shared.DecodeJSON(w, r, &payload, reqID) {
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, reqID) {
		return
	}

	token, profile, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.Metrics.Count(metrics.EventLoginFailed)
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
		return
	case errors.Is(err, auth.ErrAccountInactive):
		api.Fail(w, http.StatusForbidden, "account_inactive", "account is pending admin approval", reqID)
		return
	case err != nil:
		api.FailError(w, err, reqID)
		return
	}

	api.Success(w, map[string]any{
		"token": token,
		"user":  profile,
	}, reqID)
}

// HandleMe godoc
// @Summary Current user profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} api.Envelope
// @Failure 401 {object} api.Envelope
// @Router /auth/me [get]
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	profile, err := h.Service.Me(r.Context(), user.UserID)
	if err != nil {
		api.FailError(w, err, reqID)
		return
	}
	api.Success(w, profile, reqID)
}
