package authapi

import (
	"time"

	"gatehouse/cmd/identity"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	Username    string               `json:"username"`
	Permissions identity.Permissions `json:"permissions"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	ExpiresAt time.Time `json:"expires_at"`
}

type loginResponse struct {
	User    userResponse    `json:"user"`
	Session sessionResponse `json:"session"`
}

type meResponse struct {
	User    userResponse    `json:"user"`
	Session sessionResponse `json:"session"`
}

type sessionInfo struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Expired   bool      `json:"expired"`
}

type sessionsResponse struct {
	Active   int           `json:"active"`
	Sessions []sessionInfo `json:"sessions"`
}

type cleanupResponse struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

type logoutAllResponse struct {
	Revoked int `json:"revoked"`
}
