package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	security "baatcheet/tools/security"
)

func authRouter(opts security.Options) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/whoami", Middleware(opts), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})
	return r
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	r := authRouter(security.DefaultOptions([]byte("secret-1")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddlewareAcceptsCookie(t *testing.T) {
	opts := security.DefaultOptions([]byte("secret-1"))
	token, _, _, err := security.Generate(opts, "user-42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})

	w := httptest.NewRecorder()
	authRouter(opts).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-42", w.Body.String())
}

func TestMiddlewareAcceptsBearerHeader(t *testing.T) {
	opts := security.DefaultOptions([]byte("secret-1"))
	token, _, _, err := security.Generate(opts, "user-42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	authRouter(opts).ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-42", w.Body.String())
}

func TestMiddlewareRejectsForgedToken(t *testing.T) {
	token, _, _, err := security.Generate(security.DefaultOptions([]byte("other-secret")), "user-42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: token})

	w := httptest.NewRecorder()
	authRouter(security.DefaultOptions([]byte("secret-1"))).ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
