package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ridecare-backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSession struct {
	userID string
}

func (f *fakeSession) CurrentUserID() (string, bool) {
	return f.userID, f.userID != ""
}

func setupAuthRouter(t *testing.T, session Session) (*gin.Engine, *jwt.JWTUtil) {
	t.Helper()

	tokens, err := jwt.NewJWTUtil("test-secret", time.Hour)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/me", AuthMiddleware(tokens, session, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "username": c.GetString("username")})
	})
	return router, tokens
}

func TestAuthMiddleware(t *testing.T) {
	session := &fakeSession{userID: "u1"}
	router, tokens := setupAuthRouter(t, session)

	valid, err := tokens.GenerateToken("u1", "amira")
	require.NoError(t, err)
	stale, err := tokens.GenerateToken("u0", "old")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"bearer token", "Bearer " + valid, http.StatusOK},
		{"bare token", valid, http.StatusOK},
		{"token of another user", "Bearer " + stale, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), `"username":"amira"`)
			}
		})
	}
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	router, tokens := setupAuthRouter(t, &fakeSession{userID: "u1"})

	token, err := tokens.GenerateToken("u1", "amira")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/me?token="+token, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_LoggedOutSessionRejectsToken(t *testing.T) {
	session := &fakeSession{userID: "u1"}
	router, tokens := setupAuthRouter(t, session)

	token, err := tokens.GenerateToken("u1", "amira")
	require.NoError(t, err)

	session.userID = ""

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Session ended")
}
