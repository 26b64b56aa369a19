// Package httpapi exposes the authentication service over a thin REST API
// with JWT issuance. It owns JSON parsing, routing, and the mapping from
// outcome kinds to HTTP status codes; all domain decisions live in the
// users service.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ilepins/userauth/internal/logging"
	serverauth "github.com/ilepins/userauth/internal/server/auth"
	"github.com/ilepins/userauth/internal/server/config"
	"github.com/ilepins/userauth/internal/server/users"
)

// Handler owns the REST endpoints backed by the users service.
type Handler struct {
	service       *users.Service
	logger        logging.Logger
	secretKey     []byte
	tokenValidity time.Duration
	started       time.Time
}

func NewHandler(service *users.Service, logger logging.Logger, cfg *config.Config) *Handler {
	return &Handler{
		service:       service,
		logger:        logger.With("component", "httpapi"),
		secretKey:     []byte(cfg.SecretKey),
		tokenValidity: cfg.TokenValidityDuration,
		started:       time.Now(),
	}
}

// Register attaches all routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/user", h.requireAuth(h.handleUser))
	mux.HandleFunc("/user/password", h.requireAuth(h.handleChangePassword))
	mux.HandleFunc("/user/email", h.requireAuth(h.handleUpdateEmail))
	mux.HandleFunc("/users", h.requireAuth(h.handleListUsers))
	mux.HandleFunc("/health", h.handleHealth)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string            `json:"token"`
	User  *users.PublicUser `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type updateEmailRequest struct {
	Email string `json:"email"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Password, req.Email)
	if err != nil {
		writeOutcome(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, "user registered successfully", user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeOutcome(w, err)
		return
	}

	token, err := serverauth.GenerateToken(user.Username, h.secretKey, h.tokenValidity)
	if err != nil {
		h.logger.Error(r.Context(), "token generation failed", "error", err.Error())
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, "login successful", loginResponse{Token: token, User: user})
}

// handleUser serves the authenticated user's own record: GET returns the
// public profile, DELETE removes the account.
func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	username, ok := usernameFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	switch r.Method {
	case http.MethodGet:
		user, err := h.service.GetPublicProfile(r.Context(), username)
		if err != nil {
			writeOutcome(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "user retrieved successfully", user)

	case http.MethodDelete:
		if err := h.service.DeleteUser(r.Context(), username); err != nil {
			writeOutcome(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "user deleted successfully", nil)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	username, ok := usernameFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.service.ChangePassword(r.Context(), username, req.CurrentPassword, req.NewPassword); err != nil {
		writeOutcome(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "password changed successfully", nil)
}

func (h *Handler) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	username, ok := usernameFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req updateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := h.service.UpdateEmail(r.Context(), username, req.Email)
	if err != nil {
		writeOutcome(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "email updated successfully", user)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	list, err := h.service.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeOutcome(w, err)
		return
	}

	total, err := h.service.CountUsers(r.Context())
	if err != nil {
		writeOutcome(w, err)
		return
	}

	writeJSON(w, http.StatusOK, "users retrieved successfully", map[string]any{
		"users":  list,
		"total":  total,
		"offset": offset,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	total, err := h.service.CountUsers(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, "degraded", map[string]any{
			"status": "degraded",
		})
		return
	}

	writeJSON(w, http.StatusOK, "healthy", map[string]any{
		"status": "healthy",
		"uptime": time.Since(h.started).String(),
		"users":  total,
	})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
