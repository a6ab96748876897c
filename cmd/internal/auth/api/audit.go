package authapi

import (
	"context"
	"log/slog"
	"net"

	"gatehouse/cmd/internal/auth/session"
)

// Audit events are structured log lines. They never carry passwords or tokens.

func (h *Handler) auditLoginFailed(ctx context.Context, username string, ip net.IP, ua string) {
	h.audit(ctx, "auth.login.failed",
		slog.String("username", username),
		slog.String("ip", ipString(ip)),
		slog.String("user_agent", ua),
	)
}

func (h *Handler) auditLoginSuccess(ctx context.Context, s session.Session, ip net.IP, ua string) {
	h.audit(ctx, "auth.login.success",
		slog.String("username", s.User.Username),
		slog.String("session_id", s.ID),
		slog.String("ip", ipString(ip)),
		slog.String("user_agent", ua),
	)
}

func (h *Handler) auditLogout(ctx context.Context, s session.Session, ip net.IP) {
	h.audit(ctx, "auth.logout",
		slog.String("username", s.User.Username),
		slog.String("session_id", s.ID),
		slog.String("ip", ipString(ip)),
	)
}

func (h *Handler) auditLogoutAll(ctx context.Context, username string, revoked int, ip net.IP) {
	h.audit(ctx, "auth.logout_all",
		slog.String("username", username),
		slog.Int("revoked", revoked),
		slog.String("ip", ipString(ip)),
	)
}

func (h *Handler) auditCleanup(ctx context.Context, actor string, removed int) {
	h.audit(ctx, "auth.admin.cleanup",
		slog.String("actor", actor),
		slog.Int("removed", removed),
	)
}

func (h *Handler) audit(ctx context.Context, action string, attrs ...slog.Attr) {
	if h == nil || h.log == nil {
		return
	}
	h.log.LogAttrs(ctx, slog.LevelInfo, action, append(attrs, slog.Bool("audit", true))...)
}
