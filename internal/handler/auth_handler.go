package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"Mansoor88-6/labor-cost-dashboard/internal/auth"

	"go.uber.org/zap"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string    `json:"token"`
	Username string    `json:"username"`
	Role     auth.Role `json:"role"`
}

type sessionKey struct{}

// SessionFromContext returns the session attached by RequireRole
func SessionFromContext(ctx context.Context) (*auth.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*auth.Session)
	return s, ok
}

type AuthHandler struct {
	authenticator *auth.Authenticator
	sessions      *auth.SessionStore
	logger        *zap.Logger
}

func NewAuthHandler(authenticator *auth.Authenticator, sessions *auth.SessionStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		sessions:      sessions,
		logger:        logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Failed to decode login request", zap.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session := &auth.Session{}
	if err := h.authenticator.Login(session, req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.logger.Error("Login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token := h.sessions.Create(session)
	writeJSON(w, http.StatusOK, LoginResponse{
		Token:    token,
		Username: session.Username,
		Role:     session.Role,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if token := bearerToken(r); token != "" {
		h.sessions.Delete(token)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, ok := SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// RequireRole rejects requests without a valid bearer token (401) or whose
// session ranks below role (403)
func (h *AuthHandler) RequireRole(role auth.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := h.sessions.Get(bearerToken(r))
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		if !session.CheckRoleAccess(role) {
			h.logger.Warn("Access denied",
				zap.String("username", session.Username),
				zap.String("role", string(session.Role)),
				zap.String("required", string(role)),
				zap.String("path", r.URL.Path),
			)
			writeError(w, http.StatusForbidden, "Insufficient permissions")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, session)))
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
