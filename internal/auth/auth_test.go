package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func echoUserRouter(allowGuest bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Middleware(testSecret, allowGuest), func(c *gin.Context) {
		c.JSON(200, CurrentUser(c))
	})
	return r
}

func TestMiddleware_ValidToken(t *testing.T) {
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:    "ana@example.com",
		Metadata: map[string]any{"name": "Ana", "avatar_url": "https://img.example/a.png"},
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	echoUserRouter(false).ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)
	require.JSONEq(t, `{"id":"user-1","name":"Ana","email":"ana@example.com","avatar":"https://img.example/a.png"}`, w.Body.String())
}

func TestMiddleware_MissingTokenRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	echoUserRouter(false).ServeHTTP(w, req)
	require.Equal(t, 401, w.Code)
}

func TestMiddleware_MissingTokenGuestMode(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	echoUserRouter(true).ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)
	require.Contains(t, w.Body.String(), `"id":"guest"`)
}

func TestMiddleware_BadSignatureRejectedEvenInGuestMode(t *testing.T) {
	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+bad)
	w := httptest.NewRecorder()
	echoUserRouter(true).ServeHTTP(w, req)
	require.Equal(t, 401, w.Code)
}

func TestUserFromClaims_NameFallbacks(t *testing.T) {
	u := UserFromClaims(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
		Email:            "no-name@example.com",
	})
	require.Equal(t, "no-name@example.com", u.Name)

	u = UserFromClaims(&Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u2"}})
	require.Equal(t, "User", u.Name)
}
