package authapi

import (
	"net/http"
	"strings"
	"time"

	"gatehouse/cmd/internal/auth/session"
)

// setSessionCookie writes the session token cookie. Max-Age matches the session TTL
// so the browser forgets the token when the server would reject it anyway.
func (h *Handler) setSessionCookie(w http.ResponseWriter, tok session.Token, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    string(tok),
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
}

func (h *Handler) expireSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: h.cfg.CookieSameSite,
	})
}

// tokenFromRequest prefers the session cookie and falls back to a bearer header
// when enabled.
func (h *Handler) tokenFromRequest(r *http.Request) (session.Token, bool) {
	if c, err := r.Cookie(h.cfg.CookieName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return session.Token(v), true
		}
	}
	if h.cfg.AllowBearer {
		if v := bearerToken(r); v != "" {
			return session.Token(v), true
		}
	}
	return "", false
}
