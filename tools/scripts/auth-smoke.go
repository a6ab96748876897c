// Package main provides a CI-friendly smoke test for a running gatehouse server.
//
// It validates:
//   - wrong password is rejected with invalid_credentials
//   - login sets the session cookie
//   - /me resolves the cookie to the user
//   - logout revokes the session and /me turns 401
//
// Against a plain-http server, run it with GATEHOUSE_AUTH_COOKIE_SECURE=false:
// the cookie jar never sends Secure cookies over http.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"
	"time"
)

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type meBody struct {
	User struct {
		Username    string   `json:"username"`
		Permissions []string `json:"permissions"`
	} `json:"user"`
	Session struct {
		ID        string    `json:"id"`
		ExpiresAt time.Time `json:"expires_at"`
	} `json:"session"`
}

func main() {
	var (
		baseURL  = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		username = flag.String("user", "alice", "Username to log in as")
		pass     = flag.String("password", os.Getenv("GATEHOUSE_SMOKE_PASSWORD"), "Password (default from GATEHOUSE_SMOKE_PASSWORD)")
		timeout  = flag.Duration("timeout", 5*time.Second, "Per-step timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	base, err := validateBaseURL(*baseURL)
	if err != nil {
		fatalf("invalid -url: %v", err)
	}
	if *pass == "" {
		fatalf("password is required (-password or GATEHOUSE_SMOKE_PASSWORD)")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		fatalf("cookie jar: %v", err)
	}
	client := &http.Client{Jar: jar}
	root := context.Background()

	status, body := mustPostJSON(root, client, base+"/auth/login", map[string]string{
		"username": *username,
		"password": *pass + "-wrong",
	}, *timeout)
	if status != http.StatusUnauthorized {
		fatalf("wrong password: status=%d want 401 body=%s", status, body)
	}
	if code := errorCode(body); code != "invalid_credentials" {
		fatalf("wrong password: code=%q want invalid_credentials", code)
	}

	status, body = mustPostJSON(root, client, base+"/auth/login", map[string]string{
		"username": *username,
		"password": *pass,
	}, *timeout)
	if status != http.StatusOK {
		fatalf("login: status=%d want 200 body=%s", status, body)
	}

	status, body = mustGet(root, client, base+"/me", *timeout)
	if status != http.StatusOK {
		fatalf("me: status=%d want 200 body=%s", status, body)
	}
	var me meBody
	if err := json.Unmarshal(body, &me); err != nil {
		fatalf("decode /me: %v", err)
	}
	if me.User.Username != *username {
		fatalf("me: username=%q want %q", me.User.Username, *username)
	}
	if *verbose {
		fmt.Printf("logged in: user=%s perms=%v session=%s expires=%s\n",
			me.User.Username, me.User.Permissions, me.Session.ID, me.Session.ExpiresAt.Format(time.RFC3339))
	}

	status, body = mustPostJSON(root, client, base+"/auth/logout", nil, *timeout)
	if status != http.StatusNoContent {
		fatalf("logout: status=%d want 204 body=%s", status, body)
	}

	status, body = mustGet(root, client, base+"/me", *timeout)
	if status != http.StatusUnauthorized {
		fatalf("me after logout: status=%d want 401 body=%s", status, body)
	}

	fmt.Println("OK: auth smoke passed")
}

func validateBaseURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("scheme must be http or https")
	}
	if u.Host == "" {
		return "", errors.New("missing host")
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func mustPostJSON(parent context.Context, c *http.Client, target string, v any, stepTimeout time.Duration) (int, []byte) {
	var payload io.Reader = http.NoBody
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			fatalf("marshal request: %v", err)
		}
		payload = strings.NewReader(string(b))
	}

	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, payload)
	if err != nil {
		fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return mustDo(c, req)
}

func mustGet(parent context.Context, c *http.Client, target string, stepTimeout time.Duration) (int, []byte) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		fatalf("build request: %v", err)
	}
	return mustDo(c, req)
}

func mustDo(c *http.Client, req *http.Request) (int, []byte) {
	resp, err := c.Do(req)
	if err != nil {
		fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		fatalf("%s %s: read body: %v", req.Method, req.URL.Path, err)
	}
	return resp.StatusCode, body
}

func errorCode(body []byte) string {
	var e apiError
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Error.Code
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
