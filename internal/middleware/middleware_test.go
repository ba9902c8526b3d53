package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/shuttle-analytics/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func sign(t *testing.T, secret string, method jwt.SigningMethod, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.MapClaims{"sub": "dashboard", "exp": exp.Unix()})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authRouter(secret string) *gin.Engine {
	r := gin.New()
	r.GET("/x", BearerAuth(secret), func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestBearerAuth(t *testing.T) {
	r := authRouter("s3cret")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"valid token", "Bearer " + sign(t, "s3cret", jwt.SigningMethodHS256, time.Now().Add(time.Hour)), http.StatusOK},
		{"wrong secret", "Bearer " + sign(t, "other", jwt.SigningMethodHS256, time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", "Bearer " + sign(t, "s3cret", jwt.SigningMethodHS256, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"wrong algorithm", "Bearer " + sign(t, "s3cret", jwt.SigningMethodHS512, time.Now().Add(time.Hour)), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestBearerAuthDisabled(t *testing.T) {
	rec := httptest.NewRecorder()
	authRouter("").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"))
}

func TestRateLimitMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/reload", RateLimit(1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/reload", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewStructuredLogger(&buf, -4)

	r := gin.New()
	r.Use(Logger(logger))
	r.GET("/x", func(c *gin.Context) {
		assert.Same(t, logger, logging.FromContext(c.Request.Context()))
		c.Status(http.StatusNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x?route=North", nil))

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "http_request", line["msg"])
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "/x?route=North", line["path"])
	assert.Equal(t, float64(http.StatusNotFound), line["status"])
}
