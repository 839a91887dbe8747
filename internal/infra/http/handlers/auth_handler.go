package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/xavierca1/buyer-leads/internal/entity"
	"github.com/xavierca1/buyer-leads/internal/infra/http/middleware"
	"github.com/xavierca1/buyer-leads/internal/usecase"
)

type AuthHandler struct {
	AuthUC        *usecase.AuthUseCase
	SessionTTL    time.Duration
	SecureCookies bool
	DemoEnabled   bool
	Logger        *zap.Logger
}

func NewAuthHandler(uc *usecase.AuthUseCase, sessionTTL time.Duration, secureCookies, demoEnabled bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		AuthUC:        uc,
		SessionTTL:    sessionTTL,
		SecureCookies: secureCookies,
		DemoEnabled:   demoEnabled,
		Logger:        loggerOrNop(logger),
	}
}

type userResponse struct {
	OK   bool         `json:"ok"`
	User *entity.User `json:"user"`
}

type MagicLinkRequest struct {
	Email string `json:"email"`
}

// Demo (POST /api/auth/demo) signs in as the shared demo user.
func (h *AuthHandler) Demo(w http.ResponseWriter, r *http.Request) {
	if !h.DemoEnabled {
		writeErrorResponse(w, http.StatusNotFound, usecase.CodeNotFound, "demo login is disabled")
		return
	}
	session, err := h.AuthUC.DemoLogin(r.Context())
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	h.setSessionCookie(w, session.Token)
	writeJSON(w, http.StatusOK, userResponse{OK: true, User: session.User})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}
	user, err := h.AuthUC.CurrentUser(r.Context(), identity.UserID)
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{OK: true, User: user})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// MagicLink (POST /api/auth/magic-link) mails a single-use sign-in link.
func (h *AuthHandler) MagicLink(w http.ResponseWriter, r *http.Request) {
	var req MagicLinkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.AuthUC.RequestMagicLink(r.Context(), req.Email); err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// Verify (GET /api/auth/verify?token=&email=) consumes the link and redirects home.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	session, err := h.AuthUC.VerifyMagicLink(r.Context(), q.Get("token"), q.Get("email"))
	if err != nil {
		writeUseCaseError(w, h.Logger, err)
		return
	}
	h.setSessionCookie(w, session.Token)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
