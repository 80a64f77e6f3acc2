package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JonahHouse/ElPaseoAuto/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminSecret = "admin-pass"
	cronSecret  = "cron-pass"
	jwtSecret   = "jwt-signing-key"
)

func setupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(auth.Middleware(auth.Config{
		AdminSecret: adminSecret,
		CronSecret:  cronSecret,
		JWTSecret:   jwtSecret,
	}, nil))
	router.POST("/api/v1/sync", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(auth.MethodKey))
	})
	return router
}

func signToken(t *testing.T, method jwt.SigningMethod, secret string, expiresAt time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(method, auth.Claims{
		Sub: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestMiddleware(t *testing.T) {
	validToken := signToken(t, jwt.SigningMethodHS256, jwtSecret, time.Now().Add(time.Hour))
	expiredToken := signToken(t, jwt.SigningMethodHS256, jwtSecret, time.Now().Add(-time.Hour))
	foreignToken := signToken(t, jwt.SigningMethodHS256, "someone-else", time.Now().Add(time.Hour))
	hs512Token := signToken(t, jwt.SigningMethodHS512, jwtSecret, time.Now().Add(time.Hour))

	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantMethod string
	}{
		{
			name:       "no credentials",
			setup:      func(*http.Request) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "cron secret",
			setup:      func(r *http.Request) { r.Header.Set(auth.CronSecretHeader, cronSecret) },
			wantStatus: http.StatusOK,
			wantMethod: auth.MethodCron,
		},
		{
			name:       "legacy cron secret header",
			setup:      func(r *http.Request) { r.Header.Set(auth.LegacyCronSecretHeader, cronSecret) },
			wantStatus: http.StatusOK,
			wantMethod: auth.MethodCron,
		},
		{
			name:       "wrong cron secret",
			setup:      func(r *http.Request) { r.Header.Set(auth.CronSecretHeader, "guess") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "api key",
			setup:      func(r *http.Request) { r.Header.Set(auth.APIKeyHeader, adminSecret) },
			wantStatus: http.StatusOK,
			wantMethod: auth.MethodAPIKey,
		},
		{
			name:       "cron secret is not an api key",
			setup:      func(r *http.Request) { r.Header.Set(auth.APIKeyHeader, cronSecret) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "basic auth",
			setup:      func(r *http.Request) { r.SetBasicAuth("anyone", adminSecret) },
			wantStatus: http.StatusOK,
			wantMethod: auth.MethodBasic,
		},
		{
			name:       "basic auth wrong password",
			setup:      func(r *http.Request) { r.SetBasicAuth("admin", "nope") },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "session cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: validToken})
			},
			wantStatus: http.StatusOK,
			wantMethod: auth.MethodSession,
		},
		{
			name:       "bearer token",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+validToken) },
			wantStatus: http.StatusOK,
			wantMethod: auth.MethodSession,
		},
		{
			name:       "expired session",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+expiredToken) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "session signed with another key",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+foreignToken) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "session with unexpected algorithm",
			setup:      func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+hs512Token) },
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "legacy admin cookie is not accepted",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "admin_auth", Value: "authenticated"})
			},
			wantStatus: http.StatusUnauthorized,
		},
	}

	router := setupRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
			tt.setup(req)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantMethod, w.Body.String())
			} else {
				assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			}
		})
	}
}

func TestMiddleware_EmptySecretsDisableMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(auth.Middleware(auth.Config{}, nil))
	router.POST("/api/v1/sync", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	req.Header.Set(auth.CronSecretHeader, "")
	req.Header.Set(auth.APIKeyHeader, "")
	req.SetBasicAuth("admin", "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
