// Package auth guards the sync endpoints. A request is authorized by any
// one of: an admin session JWT, the admin API key, HTTP Basic with the
// admin secret, or the scheduler's cron secret.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/JonahHouse/ElPaseoAuto/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Header and cookie names checked by Middleware.
const (
	SessionCookie          = "admin_session"
	APIKeyHeader           = "X-API-Key"
	CronSecretHeader       = "X-Cron-Secret"
	LegacyCronSecretHeader = "X-Vercel-Cron-Secret"
)

// Auth methods stored under MethodKey.
const (
	MethodSession = "session"
	MethodAPIKey  = "api_key"
	MethodBasic   = "basic"
	MethodCron    = "cron"
)

// MethodKey is the gin context key holding the method that authorized
// the request.
const MethodKey = "auth_method"

var errInvalidSigningMethod = errors.New("invalid signing method")

// Config holds the accepted secrets. An empty secret disables its method.
type Config struct {
	AdminSecret string
	CronSecret  string
	JWTSecret   string
}

// Claims represents the admin session claims.
type Claims struct {
	Sub string `json:"sub"`
	jwt.RegisteredClaims
}

// Middleware rejects requests that match none of the configured methods
// with 401 {"error":"Unauthorized"}.
func Middleware(cfg Config, log logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.NewNop()
	}

	return func(c *gin.Context) {
		method, ok := authorize(c.Request, cfg)
		if !ok {
			log.Warn("Unauthorized request",
				logger.String("path", c.Request.URL.Path),
				logger.String("client_ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(MethodKey, method)
		c.Next()
	}
}

func authorize(r *http.Request, cfg Config) (string, bool) {
	if secretMatches(cfg.CronSecret, r.Header.Get(CronSecretHeader)) ||
		secretMatches(cfg.CronSecret, r.Header.Get(LegacyCronSecretHeader)) {
		return MethodCron, true
	}

	if secretMatches(cfg.AdminSecret, r.Header.Get(APIKeyHeader)) {
		return MethodAPIKey, true
	}

	if _, password, ok := r.BasicAuth(); ok && secretMatches(cfg.AdminSecret, password) {
		return MethodBasic, true
	}

	if token := sessionToken(r); token != "" && validSession(token, cfg.JWTSecret) {
		return MethodSession, true
	}

	return "", false
}

// sessionToken returns the session cookie, or a Bearer token when no cookie is set.
func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

func validSession(tokenString, secret string) bool {
	if secret == "" {
		return false
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidSigningMethod
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return false
	}
	return token.Valid
}

func secretMatches(want, got string) bool {
	if want == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(want), []byte(got)) == 1
}
