package httpkit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testJWTConfig struct{ secret string }

func (c testJWTConfig) GetJWTAccessSecret() string { return c.secret }

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(testJWTConfig{secret: secret}), func(c *gin.Context) {
		id := MustGetIdentity(c)
		if id == nil {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user":  id.UserID().String(),
			"email": id.Email(),
			"admin": id.HasRole(RoleAdmin),
		})
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	const secret = "test-secret"
	userID := uuid.New()

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": userID.String()}), status: http.StatusUnauthorized},
		{name: "refresh token", header: "Bearer " + signToken(t, secret, jwt.MapClaims{"sub": userID.String(), "type": "refresh"}), status: http.StatusUnauthorized},
		{name: "bad subject", header: "Bearer " + signToken(t, secret, jwt.MapClaims{"sub": "nope"}), status: http.StatusUnauthorized},
		{
			name: "valid provider token",
			header: "Bearer " + signToken(t, secret, jwt.MapClaims{
				"sub":   userID.String(),
				"email": " Rep@Example.com ",
				"role":  RoleAdmin,
				"exp":   time.Now().Add(time.Hour).Unix(),
			}),
			status: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newAuthRouter(secret).ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestAuthRequiredPopulatesIdentity(t *testing.T) {
	const secret = "test-secret"
	userID := uuid.New()
	token := signToken(t, secret, jwt.MapClaims{
		"sub":   userID.String(),
		"email": "Rep@Example.com",
		"roles": []string{"sales_rep", RoleAdmin},
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	newAuthRouter(secret).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"`+userID.String()+`","email":"rep@example.com","admin":true}`, w.Body.String())
}

func TestRequestIDPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}
