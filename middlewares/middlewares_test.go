package middlewares

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/dinein-lifecycle/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func serve(r *gin.Engine, method, path string, headers ...string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func ok(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"role": c.GetString(ContextRole), "table": c.GetString(ContextTableCode)})
}

func TestRateLimiter(t *testing.T) {
	_, err := NewRateLimiter("lima")
	assert.Error(t, err)

	limit, err := NewRateLimiter("2-M")
	require.NoError(t, err)

	r := gin.New()
	r.Use(limit)
	r.GET("/ping", ok)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/ping").Code)
}

func TestDeviceAuthAndRoles(t *testing.T) {
	issuer := utils.NewTokenIssuer("secret", time.Hour)
	kitchen, err := issuer.GenerateToken("k-1", utils.RoleKitchen, "")
	require.NoError(t, err)
	table, err := issuer.GenerateToken("t-1", utils.RoleTable, "A1")
	require.NoError(t, err)
	foreign, err := utils.NewTokenIssuer("other", time.Hour).GenerateToken("k-2", utils.RoleKitchen, "")
	require.NoError(t, err)

	r := gin.New()
	r.Use(DeviceAuthMiddleware(issuer))
	r.GET("/kitchen", RequireRole(utils.RoleKitchen), ok)
	r.GET("/any", ok)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/kitchen").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/kitchen?token="+foreign).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/kitchen?token="+kitchen).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/kitchen", "Authorization", "Bearer "+kitchen).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/kitchen?token="+table).Code)

	w := serve(r, http.MethodGet, "/any?token="+table)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"role":"table","table":"A1"}`, w.Body.String())

	// tanpa DeviceAuthMiddleware peran tidak pernah diset
	bare := gin.New()
	bare.GET("/kitchen", RequireRole(utils.RoleKitchen), ok)
	assert.Equal(t, http.StatusUnauthorized, serve(bare, http.MethodGet, "/kitchen").Code)
}

func TestRegistrationKey(t *testing.T) {
	r := gin.New()
	r.POST("/locked", RegistrationKeyMiddleware("kunci"), ok)
	r.POST("/open", RegistrationKeyMiddleware(""), ok)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/locked").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/locked", "X-Registration-Key", "salah").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/locked", "X-Registration-Key", "kunci").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodPost, "/open").Code)
}

func TestSecurityAndCORSHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders(), CORSMiddlewares("https://dapur.example"))
	r.GET("/ping", ok)

	w := serve(r, http.MethodGet, "/ping")
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "https://dapur.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodOptions, "/ping").Code)
}
