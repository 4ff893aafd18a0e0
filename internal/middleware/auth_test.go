package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", RequireAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "username": GetUsername(c)})
	})
	r.GET("/admin", RequireAuth(testSecret), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/optional", OptionalAuth(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	return r
}

func doRequest(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := newAuthRouter()

	w := doRequest(r, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, "/me", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	bad, err := GenerateToken(1, "lan", "user", "other-secret", time.Hour)
	require.NoError(t, err)
	w = doRequest(r, "/me", bad)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := GenerateToken(7, "lan", "user", testSecret, time.Hour)
	require.NoError(t, err)
	w = doRequest(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"username":"lan"}`, w.Body.String())
	assert.Empty(t, w.Header().Get(RefreshHeader))
}

func TestRequireAuth_CookieToken(t *testing.T) {
	r := newAuthRouter()
	token, err := GenerateToken(3, "minh", "user", testSecret, time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuth_RejectsExpired(t *testing.T) {
	r := newAuthRouter()
	token, err := GenerateToken(7, "lan", "user", testSecret, -time.Minute)
	require.NoError(t, err)
	w := doRequest(r, "/me", token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_SlidingRefresh(t *testing.T) {
	r := newAuthRouter()
	claims := &Claims{
		UserID: 9,
		Role:   "user",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-50 * time.Minute)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(10 * time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	w := doRequest(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RefreshHeader))
}

func TestRequireAdmin(t *testing.T) {
	r := newAuthRouter()

	user, _ := GenerateToken(1, "lan", "user", testSecret, time.Hour)
	assert.Equal(t, http.StatusForbidden, doRequest(r, "/admin", user).Code)

	admin, _ := GenerateToken(2, "root", "admin", testSecret, time.Hour)
	assert.Equal(t, http.StatusNoContent, doRequest(r, "/admin", admin).Code)
}

func TestOptionalAuth(t *testing.T) {
	r := newAuthRouter()

	w := doRequest(r, "/optional", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0}`, w.Body.String())

	token, _ := GenerateToken(5, "an", "user", testSecret, time.Hour)
	w = doRequest(r, "/optional", token)
	assert.JSONEq(t, `{"user_id":5}`, w.Body.String())
}
