package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geotrail/geotrail/models"
	"github.com/geotrail/geotrail/utils"
)

func newAuthRouter(t *testing.T) *gin.Engine {
	t.Setenv("JWT_SECRET", "test-secret")
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/me", AuthRequired(), func(ctx *gin.Context) {
		id, _ := ctx.Get(ContextUserIDKey)
		role, _ := ctx.Get(ContextRoleKey)
		ctx.JSON(http.StatusOK, gin.H{"user_id": id, "role": role})
	})
	r.GET("/admin", AuthRequired(), AdminRequired(), func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	r := newAuthRouter(t)
	if w := doRequest(r, "/me", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthRequiredBadHeaderFormat(t *testing.T) {
	r := newAuthRouter(t)
	for _, header := range []string{"Token abc", "Bearer", "Bearer "} {
		if w := doRequest(r, "/me", header); w.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, w.Code)
		}
	}
}

func TestAuthRequiredInvalidToken(t *testing.T) {
	r := newAuthRouter(t)
	if w := doRequest(r, "/me", "Bearer not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthRequiredExpiredToken(t *testing.T) {
	r := newAuthRouter(t)
	token, err := utils.GenerateToken(1, "asha", models.RoleEmployee, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if w := doRequest(r, "/me", "Bearer "+token); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestAuthRequiredValidToken(t *testing.T) {
	r := newAuthRouter(t)
	token, err := utils.GenerateToken(7, "asha", models.RoleEmployee, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	w := doRequest(r, "/me", "Bearer "+token)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
}

func TestAdminRequiredBlocksEmployee(t *testing.T) {
	r := newAuthRouter(t)
	token, err := utils.GenerateToken(7, "asha", models.RoleEmployee, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if w := doRequest(r, "/admin", "Bearer "+token); w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestAdminRequiredAllowsAdmin(t *testing.T) {
	r := newAuthRouter(t)
	token, err := utils.GenerateToken(1, "root", models.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if w := doRequest(r, "/admin", "Bearer "+token); w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
