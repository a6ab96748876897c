package authapi

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"gatehouse/cmd/identity"
	"gatehouse/cmd/internal/auth/session"
)

// Handler wires HTTP auth endpoints to the session registry.
type Handler struct {
	log *slog.Logger
	cfg Config
	reg *session.Registry
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, reg *session.Registry, cfg Config) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if reg == nil {
		return nil, errors.New("auth: nil session registry")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if !validCookieName(cfg.CookieName) {
		cfg.CookieName = DefaultConfig().CookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = "/"
	}

	return &Handler{log: log, cfg: cfg, reg: reg}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.Handle("/auth/logout_all", h.RequireAuth(http.HandlerFunc(h.handleLogoutAll)))
	mux.Handle("/me", h.RequireAuth(http.HandlerFunc(h.handleMe)))
	mux.Handle("/admin/sessions", h.RequirePermission(identity.PermAdmin, http.HandlerFunc(h.handleSessions)))
	mux.Handle("/admin/sessions/cleanup", h.RequirePermission(identity.PermAdmin, http.HandlerFunc(h.handleCleanup)))
}

// Registry returns the underlying session registry.
func (h *Handler) Registry() *session.Registry {
	if h == nil {
		return nil
	}
	return h.reg
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	req, err := h.readLoginRequest(w, r)
	if err != nil {
		writeBodyError(w, err)
		return
	}
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username is required")
		return
	}

	ctx := r.Context()
	ip := clientIP(r, h.cfg.TrustProxy)
	ua := strings.TrimSpace(r.UserAgent())

	tok, err := h.reg.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			h.auditLoginFailed(ctx, req.Username, ip, ua)
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
			return
		}
		h.log.Error("auth.login.issue_session.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	s, ok := h.reg.LookupSession(tok)
	if !ok {
		// Only reachable if a sweep or revoke raced the fresh login.
		h.log.Error("auth.login.session_vanished", "username", req.Username)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
		return
	}

	h.auditLoginSuccess(ctx, s, ip, ua)

	ttl := h.reg.Config().TTL
	h.setSessionCookie(w, tok, ttl)
	writeJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(s.User),
		Session: toSessionResponse(s, ttl),
	})
}

// readLoginRequest accepts a JSON body or an urlencoded/multipart form.
func (h *Handler) readLoginRequest(w http.ResponseWriter, r *http.Request) (loginRequest, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mt {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
		var err error
		if mt == "multipart/form-data" {
			err = r.ParseMultipartForm(h.cfg.MaxBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return loginRequest{}, bodyErr(err)
		}
		return loginRequest{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}, nil
	default:
		var req loginRequest
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			return loginRequest{}, err
		}
		return req, nil
	}
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	// Logout is idempotent: the cookie is cleared whether or not the token resolved.
	if tok, ok := h.tokenFromRequest(r); ok {
		s, live := h.reg.LookupSession(tok)
		if h.reg.Revoke(tok) && live {
			h.auditLogout(r.Context(), s, clientIP(r, h.cfg.TrustProxy))
		}
	}

	h.expireSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleLogoutAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	s, _ := SessionFromContext(r.Context())
	n := h.reg.RevokeUser(s.User.Username)
	h.auditLogoutAll(r.Context(), s.User.Username, n, clientIP(r, h.cfg.TrustProxy))

	h.expireSessionCookie(w)
	writeJSON(w, http.StatusOK, logoutAllResponse{Revoked: n})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	s, _ := SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, meResponse{
		User:    toUserResponse(s.User),
		Session: toSessionResponse(s, h.reg.Config().TTL),
	})
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	list := h.reg.Sessions()
	out := sessionsResponse{Active: len(list), Sessions: make([]sessionInfo, 0, len(list))}
	for _, s := range list {
		out.Sessions = append(out.Sessions, h.toSessionInfo(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	removed := h.reg.Cleanup()
	actor, _ := UserFromContext(r.Context())
	h.auditCleanup(r.Context(), actor.Username, removed)

	writeJSON(w, http.StatusOK, cleanupResponse{Removed: removed, Remaining: h.reg.Len()})
}
