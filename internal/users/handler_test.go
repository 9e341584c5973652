package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"notes-backend/internal/access"
	"notes-backend/internal/shared/auth"
	"notes-backend/internal/shared/server/middleware"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := newTestService()
	signer, err := auth.NewSigner("test-secret", "HS256", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	gate := access.NewGate(signer, svc)
	h := NewHandler(svc, gate)

	r := gin.New()
	h.RegisterPublicRoutes(r.Group(""))
	protected := r.Group("")
	protected.Use(middleware.Auth(gate))
	h.RegisterRoutes(protected)
	return r
}

func doJSON(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestRegisterLoginMe(t *testing.T) {
	r := newTestRouter(t)

	resp := doJSON(r, http.MethodPost, "/auth/register", gin.H{
		"name": "Tess", "email": "tess@example.com", "password": "password1", "role": "teacher",
	}, "")
	if resp.Code != http.StatusCreated {
		t.Fatalf("register expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var reg authResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode register: %v", err)
	}
	if reg.Token == "" || reg.User.Role != access.RoleTeacher {
		t.Fatalf("unexpected register response: %+v", reg)
	}

	resp = doJSON(r, http.MethodPost, "/auth/login", gin.H{"email": "tess@example.com", "password": "password1"}, "")
	if resp.Code != http.StatusOK {
		t.Fatalf("login expected 200, got %d", resp.Code)
	}
	var login authResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode login: %v", err)
	}

	resp = doJSON(r, http.MethodGet, "/auth/me", nil, login.Token)
	if resp.Code != http.StatusOK {
		t.Fatalf("me expected 200, got %d", resp.Code)
	}
	var me map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me["email"] != "tess@example.com" || me["role"] != "teacher" {
		t.Fatalf("unexpected me payload: %v", me)
	}
	if _, leaked := me["PasswordHash"]; leaked {
		t.Fatal("password hash must not be serialized")
	}
}

func TestAccountErrors(t *testing.T) {
	r := newTestRouter(t)
	seed := doJSON(r, http.MethodPost, "/auth/register", gin.H{
		"name": "Sam", "email": "sam@example.com", "password": "password1",
	}, "")
	if seed.Code != http.StatusCreated {
		t.Fatalf("seed register failed: %d", seed.Code)
	}

	tests := []struct {
		name string
		path string
		body any
		want int
	}{
		{name: "duplicate email", path: "/auth/register", body: gin.H{"name": "Sam", "email": "sam@example.com", "password": "password1"}, want: http.StatusBadRequest},
		{name: "missing fields", path: "/auth/register", body: gin.H{"email": "x@example.com"}, want: http.StatusBadRequest},
		{name: "wrong password", path: "/auth/login", body: gin.H{"email": "sam@example.com", "password": "nope-nope"}, want: http.StatusUnauthorized},
		{name: "empty login", path: "/auth/login", body: gin.H{}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(r, http.MethodPost, tt.path, tt.body, "")
			if resp.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, resp.Code, resp.Body.String())
			}
		})
	}

	if resp := doJSON(r, http.MethodGet, "/auth/me", nil, ""); resp.Code != http.StatusUnauthorized {
		t.Fatalf("me without token expected 401, got %d", resp.Code)
	}
}
