package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wolfman30/herbal-board/internal/http/middleware"
	"github.com/wolfman30/herbal-board/internal/observability/metrics"
	"github.com/wolfman30/herbal-board/pkg/logging"
)

// SessionConfig configures staff login.
type SessionConfig struct {
	// PasswordHash is a bcrypt hash; when empty Password is compared as is.
	PasswordHash string
	Password     string
	Secret       string
	OwnerKey     string
	TTL          time.Duration
}

// SessionHandler exchanges the shared staff password for a session token.
type SessionHandler struct {
	cfg     SessionConfig
	metrics *metrics.BoardMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewSessionHandler creates a login handler.
func NewSessionHandler(cfg SessionConfig, m *metrics.BoardMetrics, logger *logging.Logger) *SessionHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &SessionHandler{cfg: cfg, metrics: m, logger: logger, now: time.Now}
}

type loginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries a new session.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	OwnerKey  string    `json:"owner_key"`
}

// Login handles POST /auth/login.
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !h.checkPassword(req.Password) {
		h.metrics.ObserveLogin(false)
		h.logger.Warn("login rejected", "remote_ip", r.RemoteAddr)
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}
	token, expires, err := middleware.IssueSession(h.cfg.Secret, h.cfg.OwnerKey, h.cfg.TTL, h.now())
	if err != nil {
		h.logger.Error("issue session failed", "error", err)
		http.Error(w, "login unavailable", http.StatusServiceUnavailable)
		return
	}
	h.metrics.ObserveLogin(true)
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires.UTC(), OwnerKey: h.cfg.OwnerKey})
}

// SessionInfo describes the session a request was made with.
type SessionInfo struct {
	OwnerKey  string    `json:"owner_key"`
	Subject   string    `json:"subject"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Current handles GET /api/session so a browser can check its token before
// opening the feed. It must sit behind middleware.SessionJWT.
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "no session", http.StatusUnauthorized)
		return
	}
	info := SessionInfo{OwnerKey: claims.OwnerKey, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.UTC()
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *SessionHandler) checkPassword(password string) bool {
	if password == "" {
		return false
	}
	if h.cfg.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(h.cfg.PasswordHash), []byte(password)) == nil
	}
	if h.cfg.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.cfg.Password), []byte(password)) == 1
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
