package authapi

import (
	"net"
	"net/http"
	"strings"
	"time"

	"gatehouse/cmd/identity"
	"gatehouse/cmd/internal/auth/session"
)

func toUserResponse(u identity.UserRecord) userResponse {
	return userResponse{
		Username:    u.Username,
		Permissions: u.Permissions,
	}
}

func toSessionResponse(s session.Session, ttl time.Duration) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		ExpiresAt: s.ExpiresAt(ttl),
	}
}

func (h *Handler) toSessionInfo(s session.Session) sessionInfo {
	return sessionInfo{
		ID:        s.ID,
		Username:  s.User.Username,
		IssuedAt:  time.Unix(s.IssuedAt, 0).UTC(),
		ExpiresAt: s.ExpiresAt(h.reg.Config().TTL),
		Expired:   h.reg.Expired(s),
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}

func ipString(ip net.IP) string {
	if ip == nil {
		return ""
	}
	return ip.String()
}
