package authapi

import (
	"context"
	"net/http"

	"gatehouse/cmd/identity"
	"gatehouse/cmd/internal/auth/session"
)

type sessionCtxKey struct{}

// RequireAuth rejects requests without a fresh session with 401 and otherwise
// stores the session in the request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := h.tokenFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "login required")
			return
		}
		s, ok := h.reg.LookupSession(tok)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "login required")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionCtxKey{}, s)))
	})
}

// RequirePermission is RequireAuth plus a 403 unless the user holds p.
func (h *Handler) RequirePermission(p identity.Permission, next http.Handler) http.Handler {
	return h.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, _ := UserFromContext(r.Context())
		if !u.Permissions.Has(p) {
			writeError(w, http.StatusForbidden, "forbidden", "missing permission: "+p.String())
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// SessionFromContext returns the session stored by RequireAuth.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionCtxKey{}).(session.Session)
	return s, ok
}

// UserFromContext returns the authenticated user stored by RequireAuth.
func UserFromContext(ctx context.Context) (identity.UserRecord, bool) {
	s, ok := SessionFromContext(ctx)
	return s.User, ok
}
