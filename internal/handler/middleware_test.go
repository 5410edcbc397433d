package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)
	r := env.engine(http.MethodGet, "/me", env.api.Me)

	clientToken := env.token(t, &env.fixture.Client)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + clientToken, want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer " + clientToken, want: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + clientToken, want: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/me")
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := record(r, req)
			if rr.Code != tc.want {
				t.Fatalf("expected status %d, got %d: %s", tc.want, rr.Code, rr.Body.String())
			}
			if tc.want == http.StatusUnauthorized && errorCode(t, rr) != "UNAUTHORIZED" {
				t.Fatalf("unexpected error body: %s", rr.Body.String())
			}
		})
	}
}

func TestAuthRequiredRejectsDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	r := env.engine(http.MethodGet, "/me", env.api.Me)
	token := env.token(t, &env.fixture.Client)

	if err := env.api.users.DeleteClient(env.fixture.Client.ID); err != nil {
		t.Fatalf("delete client: %v", err)
	}

	rr := serve(r, http.MethodGet, "/me", token, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rr.Code)
	}
}

func TestCounsellorOnly(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	r.GET("/admin", env.api.AuthRequired(), env.api.CounsellorOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	if rr := serve(r, http.MethodGet, "/admin", env.token(t, &env.fixture.Client), ""); rr.Code != http.StatusForbidden {
		t.Fatalf("expected client to be forbidden, got %d", rr.Code)
	}
	if rr := serve(r, http.MethodGet, "/admin", env.token(t, &env.fixture.Counsellor), ""); rr.Code != http.StatusNoContent {
		t.Fatalf("expected counsellor to pass, got %d", rr.Code)
	}
}

func TestRequestLoggerSetsRequestID(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	r.Use(env.api.RequestLogger())
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(requestIDKey))
	})

	rr := serve(r, http.MethodGet, "/ping", "", "")
	generated := rr.Header().Get(requestIDHeader)
	if generated == "" || rr.Body.String() != generated {
		t.Fatalf("expected generated request id to be echoed, header %q body %q", generated, rr.Body.String())
	}

	req := newRequest(http.MethodGet, "/ping")
	req.Header.Set(requestIDHeader, "abc-123")
	if rr := record(r, req); rr.Header().Get(requestIDHeader) != "abc-123" {
		t.Fatalf("expected incoming request id to be kept, got %q", rr.Header().Get(requestIDHeader))
	}
}
