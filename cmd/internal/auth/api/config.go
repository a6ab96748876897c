package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
)

// Config controls auth HTTP behavior and cookie settings.
type Config struct {
	TrustProxy   bool
	MaxBodyBytes int64

	CookieName     string
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite http.SameSite

	// AllowBearer additionally accepts "Authorization: Bearer <token>".
	AllowBearer bool
}

// DefaultConfig returns the cookie-first defaults.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:   64 << 10, // 64 KiB
		CookieName:     "gatehouse_session",
		CookiePath:     "/",
		CookieSecure:   true,
		CookieSameSite: http.SameSiteLaxMode,
		AllowBearer:    true,
	}
}

// LoadConfigFromEnv loads auth config from environment variables with safe defaults.
func LoadConfigFromEnv() Config {
	def := DefaultConfig()
	cfg := Config{
		TrustProxy:     envBool("GATEHOUSE_AUTH_TRUST_PROXY", false),
		MaxBodyBytes:   envInt64("GATEHOUSE_AUTH_MAX_BODY_BYTES", def.MaxBodyBytes),
		CookieName:     envString("GATEHOUSE_AUTH_COOKIE_NAME", def.CookieName),
		CookiePath:     envString("GATEHOUSE_AUTH_COOKIE_PATH", def.CookiePath),
		CookieDomain:   envString("GATEHOUSE_AUTH_COOKIE_DOMAIN", ""),
		CookieSecure:   envBool("GATEHOUSE_AUTH_COOKIE_SECURE", def.CookieSecure),
		CookieSameSite: parseSameSite(envString("GATEHOUSE_AUTH_COOKIE_SAMESITE", "lax")),
		AllowBearer:    envBool("GATEHOUSE_AUTH_ALLOW_BEARER", def.AllowBearer),
	}

	if !validCookieName(cfg.CookieName) {
		cfg.CookieName = def.CookieName
	}
	if !strings.HasPrefix(cfg.CookiePath, "/") {
		cfg.CookiePath = def.CookiePath
	}
	// Browsers drop SameSite=None cookies that are not Secure.
	if cfg.CookieSameSite == http.SameSiteNoneMode {
		cfg.CookieSecure = true
	}

	return cfg
}

func parseSameSite(s string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	case "default":
		return http.SameSiteDefaultMode
	default:
		return http.SameSiteLaxMode
	}
}

// validCookieName accepts RFC 6265 token characters only.
func validCookieName(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r <= ' ' || r >= 0x7f || strings.ContainsRune(`()<>@,;:\"/[]?={}`, r) {
			return false
		}
	}
	return true
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
