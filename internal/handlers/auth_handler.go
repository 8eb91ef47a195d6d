package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/services/token"
)

const (
	stateCookieName   = "atlas_auth_state"
	returnCookieName  = "atlas_auth_return"
	sessionCookieName = "atlas_session"

	// stateCookieMaxAge bounds the window between /auth/start and the
	// provider callback.
	stateCookieMaxAge = 600

	sessionCookieMaxAge = 30 * 24 * 60 * 60
)

// AuthHandler drives the three-legged OAuth flow over signed cookies. The
// session id is opaque; the signed cookie is the only place it lives on the
// client side.
type AuthHandler struct {
	tokens       interfaces.TokenService
	sessions     interfaces.SessionStorage
	returnOrigin string
	secureCookie bool
	logger       arbor.ILogger
}

// NewAuthHandler creates the auth handler. returnOrigin is the only origin
// the callback will redirect back to; an empty value disables the redirect
// and the callback answers with JSON instead.
func NewAuthHandler(tokens interfaces.TokenService, sessions interfaces.SessionStorage, returnOrigin string, secureCookie bool, logger arbor.ILogger) *AuthHandler {
	return &AuthHandler{
		tokens:       tokens,
		sessions:     sessions,
		returnOrigin: returnOrigin,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// StartHandler handles GET /auth/start: issues the CSRF state, binds it to a
// signed short-lived cookie, and redirects to the provider. An optional
// ?return= target is bound to a second signed cookie for the callback.
func (h *AuthHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	authURL, state := h.tokens.BeginAuth()

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    h.tokens.SignValue(state),
		Path:     "/",
		MaxAge:   stateCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteNoneMode,
	})

	if returnTo := r.URL.Query().Get("return"); h.allowedReturn(returnTo) {
		http.SetCookie(w, &http.Cookie{
			Name:     returnCookieName,
			Value:    h.tokens.SignValue(returnTo),
			Path:     "/",
			MaxAge:   stateCookieMaxAge,
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteNoneMode,
		})
	}

	h.logger.Debug().Msg("Starting OAuth authorization flow")
	http.Redirect(w, r, authURL, http.StatusFound)
}

// allowedReturn accepts relative paths and absolute URLs on the configured
// return origin; everything else is dropped to keep the callback from
// becoming an open redirect.
func (h *AuthHandler) allowedReturn(target string) bool {
	if target == "" {
		return false
	}
	u, err := url.Parse(target)
	if err != nil {
		return false
	}
	if u.Scheme == "" && u.Host == "" {
		return len(target) > 0 && target[0] == '/'
	}
	if h.returnOrigin == "" {
		return false
	}
	origin, err := url.Parse(h.returnOrigin)
	if err != nil {
		return false
	}
	return u.Scheme == origin.Scheme && u.Host == origin.Host
}

// CallbackHandler handles GET /auth/callback: verifies the state against the
// signed cookie, exchanges the code, establishes the session cookie, and
// sends the browser back to the configured origin.
func (h *AuthHandler) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	if errCode := query.Get("error"); errCode != "" {
		h.logger.Warn().Str("error", errCode).Msg("Provider denied authorization")
		WriteError(w, http.StatusBadRequest, "provider_denied", "authorization was denied by the provider")
		return
	}
	if code == "" || state == "" {
		WriteError(w, http.StatusBadRequest, "invalid_callback", "missing code or state")
		return
	}

	cookieState := ""
	if c, err := r.Cookie(stateCookieName); err == nil {
		if value, ok := h.tokens.VerifyValue(c.Value); ok {
			cookieState = value
		}
	}

	sessionID := h.sessionID(r)
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	if err := h.tokens.CompleteAuth(r.Context(), code, state, cookieState, sessionID); err != nil {
		if errors.Is(err, token.ErrStateMismatch) {
			WriteError(w, http.StatusBadRequest, "state_mismatch", "authorization state did not match")
			return
		}
		h.logger.Error().Err(err).Msg("OAuth code exchange failed")
		WriteError(w, http.StatusBadGateway, "exchange_failed", "could not complete authorization")
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteNoneMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    h.tokens.SignValue(sessionID),
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteNoneMode,
		Expires:  time.Now().Add(sessionCookieMaxAge * time.Second),
	})

	if target := h.returnTarget(r); target != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     returnCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteNoneMode,
		})
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "connected",
		"connected": true,
	})
}

// StatusHandler handles GET /auth/status
func (h *AuthHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(r)
	if sessionID == "" {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"connected": false})
		return
	}

	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"connected": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"connected":    true,
		"scope":        session.Scope,
		"connected_at": session.CreatedAt,
	})
}

// LogoutHandler handles POST /auth/logout: drops the session row and expires
// the cookie. Logging out an unauthenticated client succeeds quietly.
func (h *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if sessionID := h.sessionID(r); sessionID != "" {
		if err := h.tokens.Disconnect(r.Context(), sessionID); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to remove session on logout")
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteNoneMode,
	})

	WriteJSON(w, http.StatusOK, map[string]interface{}{"connected": false})
}

// returnTarget resolves where the callback should send the browser: the
// signed return cookie when present and still allowed, otherwise the
// configured return origin.
func (h *AuthHandler) returnTarget(r *http.Request) string {
	if c, err := r.Cookie(returnCookieName); err == nil {
		if value, ok := h.tokens.VerifyValue(c.Value); ok && h.allowedReturn(value) {
			return value
		}
	}
	return h.returnOrigin
}

// sessionID extracts and verifies the session id from the signed cookie.
// A missing, unsigned, or tampered cookie yields the empty string.
func (h *AuthHandler) sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	value, ok := h.tokens.VerifyValue(c.Value)
	if !ok {
		return ""
	}
	return value
}

// SessionID exposes cookie extraction to the other handlers that need the
// caller's session (sync, websocket).
func (h *AuthHandler) SessionID(r *http.Request) string {
	return h.sessionID(r)
}
