package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equiprent/internal/middleware"
	"equiprent/internal/pkg/jwt"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code string `json:"code"`
	} `json:"error"`
}

func do(t *testing.T, r *gin.Engine, method, path, bearer string, body any) (int, envelope) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func TestHandler_Flow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newStore(t)
	jwtSvc := jwt.New("test-secret", time.Minute)
	h := NewHandler(NewService(store.Users, store.RefreshTokens, jwtSvc, "pepper", time.Hour), time.Minute)

	r := gin.New()
	v1 := r.Group("/api/v1")
	h.RegisterPublicRoutes(v1)
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(jwtSvc))
	h.RegisterProtectedRoutes(protected)

	code, _ := do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "flow@example.com", "password": "password123", "first_name": "Flo",
	})
	require.Equal(t, http.StatusCreated, code)

	code, env := do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"email": "flow@example.com", "password": "password123", "first_name": "Flo",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "EMAIL_EXISTS", env.Error.Code)

	code, env = do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "flow@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, code)
	var login struct {
		Tokens TokenPair `json:"tokens"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	assert.Equal(t, int64(60), login.Tokens.ExpiresIn)

	code, env = do(t, r, http.MethodPost, "/api/v1/auth/refresh", login.Tokens.AccessToken, gin.H{
		"refresh_token": login.Tokens.RefreshToken,
	})
	require.Equal(t, http.StatusOK, code)
	var next TokenPair
	require.NoError(t, json.Unmarshal(env.Data, &next))

	code, env = do(t, r, http.MethodPost, "/api/v1/auth/refresh", "", gin.H{
		"access_token":  login.Tokens.AccessToken,
		"refresh_token": login.Tokens.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", env.Error.Code)

	code, _ = do(t, r, http.MethodGet, "/api/v1/users/me", next.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, r, http.MethodPost, "/api/v1/auth/logout-all", next.AccessToken, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, r, http.MethodPost, "/api/v1/auth/refresh", next.AccessToken, gin.H{
		"refresh_token": next.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, code)
}
