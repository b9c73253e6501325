package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"equiprent/internal/pkg/jwt"
	"equiprent/internal/pkg/logger"
	"equiprent/internal/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTAuth_ValidToken(t *testing.T) {
	jwtService := jwt.New("test-secret-123", time.Hour)
	validToken, _ := jwtService.GenerateToken(42, "ada@example.com", "customer")

	router := gin.New()
	router.Use(JWTAuth(jwtService))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetInt64(ContextUserID),
			"role":    c.GetString(ContextRole),
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
	assert.Contains(t, w.Body.String(), "customer")
}

func TestJWTAuth_InvalidToken(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuth(jwt.New("secret", time.Hour)))
	router.GET("/protected", func(c *gin.Context) {
		t.Fatal("This handler should not be reached")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer invalid-jwt-here")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestJWTAuth_NoToken(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuth(jwt.New("secret", time.Hour)))
	router.GET("/protected", func(c *gin.Context) {
		t.Fatal("Should not reach here")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
}

func TestRequireRole(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set(ContextRole, c.GetHeader("X-Role")) })
	router.GET("/admin", RequireRole("admin", "owner"), func(c *gin.Context) { c.Status(http.StatusOK) })

	for role, want := range map[string]int{
		"admin":    http.StatusOK,
		"owner":    http.StatusOK,
		"customer": http.StatusForbidden,
		"":         http.StatusUnauthorized,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("X-Role", role)
		router.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, "role %q", role)
	}
}

func TestErrorLogger(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	router := gin.New()
	router.Use(ErrorLogger(logger.FromCore(core)))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	router.GET("/fail", func(c *gin.Context) { response.Internal(c, errors.New("db down")) })
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	for path, want := range map[string]int{
		"/boom": http.StatusInternalServerError,
		"/fail": http.StatusInternalServerError,
		"/ok":   http.StatusOK,
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, want, w.Code, path)
	}

	entries := logs.FilterMessage("request_error").All()
	assert.Len(t, entries, 2)
	var errorsSeen []string
	for _, e := range entries {
		errorsSeen = append(errorsSeen, e.ContextMap()["error"].(string))
	}
	assert.ElementsMatch(t, []string{"kaboom", "db down"}, errorsSeen)
}
