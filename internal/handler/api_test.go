package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/resiliencetracker/internal/auth"
	"github.com/resiliencetracker/internal/db"
	"github.com/resiliencetracker/internal/dbtest"
	"gorm.io/gorm"
)

var testWeek = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

type testEnv struct {
	db      *gorm.DB
	api     *API
	fixture dbtest.Fixture
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb := dbtest.Open(t)
	fixture := dbtest.Seed(t, gdb, testWeek)
	api := NewAPI(gdb, auth.NewTokenIssuer("test-secret", time.Hour), nil, nil)
	return testEnv{db: gdb, api: api, fixture: fixture}
}

func (e testEnv) token(t *testing.T, user *db.User) string {
	t.Helper()
	token, err := e.api.tokens.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// engine 把单个 handler 挂在认证中间件之后
func (e testEnv) engine(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, e.api.AuthRequired(), h)
	return r
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func record(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func serve(r *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return record(r, req)
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	return body.Error.Code
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	r.GET("/api/health", env.api.Health)

	rr := serve(r, http.MethodGet, "/api/health", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["database"] != "up" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestHealthReportsUnreachableDatabase(t *testing.T) {
	env := newTestEnv(t)
	r := gin.New()
	r.GET("/api/health", env.api.Health)

	sqlDB, err := env.db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	if err := sqlDB.Close(); err != nil {
		t.Fatalf("close db: %v", err)
	}

	rr := serve(r, http.MethodGet, "/api/health", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status %d, got %d: %s", http.StatusServiceUnavailable, rr.Code, rr.Body.String())
	}
}
