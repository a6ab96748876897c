package app

import (
	"errors"

	authapi "gatehouse/cmd/internal/auth/api"
	"gatehouse/cmd/security/password"
)

// ValidateSecurityConfig enforces the startup security policy.
// Fail-fast: a deployment that asked for hardened settings never runs without them.
func ValidateSecurityConfig(cfg Config, pw password.Config, auth authapi.Config) error {
	if cfg.RequireArgon2id && pw.Scheme != password.SchemeArgon2id {
		return errors.New("security policy: GATEHOUSE_REQUIRE_ARGON2ID=true but GATEHOUSE_PASSWORD_SCHEME is not argon2id")
	}
	if cfg.RequireSecureCookies && !auth.CookieSecure {
		return errors.New("security policy: GATEHOUSE_REQUIRE_SECURE_COOKIES=true but GATEHOUSE_AUTH_COOKIE_SECURE=false")
	}
	return nil
}
