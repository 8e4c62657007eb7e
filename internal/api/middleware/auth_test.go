package middleware_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/crm-bridge/internal/api/middleware"
)

func rsaKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pub := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, string(pub)
}

func signJWT(t *testing.T, key *rsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	key, pub := rsaKeyPair(t)
	cfg := middleware.AuthConfig{JWTPublicKey: pub, APIKeys: []string{"", "k1", "k2"}}

	valid := signJWT(t, key, jwt.RegisteredClaims{
		Subject:   "ops@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signJWT(t, key, jwt.RegisteredClaims{
		Subject:   "ops@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	otherKey, _ := rsaKeyPair(t)
	forged := signJWT(t, otherKey, jwt.RegisteredClaims{Subject: "mallory"})

	tests := []struct {
		name     string
		header   string
		success  bool
		authType string
		subject  string
	}{
		{name: "jwt", header: "Bearer " + valid, success: true, authType: "jwt", subject: "ops@example.com"},
		{name: "expired jwt", header: "Bearer " + expired},
		{name: "forged jwt", header: "Bearer " + forged},
		{name: "api key", header: "ApiKey k2", success: true, authType: "apikey"},
		{name: "wrong api key", header: "ApiKey k3"},
		{name: "empty api key", header: "ApiKey "},
		{name: "missing header", header: ""},
		{name: "no scheme", header: "k1"},
		{name: "unsupported scheme", header: "Basic k1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := middleware.Authenticate(tt.header, cfg)
			assert.Equal(t, tt.success, result.Success)
			if !tt.success {
				assert.Error(t, result.Error)
				return
			}
			assert.Equal(t, tt.authType, result.AuthType)
			if tt.subject != "" {
				assert.Equal(t, tt.subject, result.AuthSubject)
			} else {
				assert.Contains(t, result.AuthSubject, "apikey:")
			}
		})
	}
}

func TestAuthenticate_NoKeysConfigured(t *testing.T) {
	result := middleware.Authenticate("ApiKey anything", middleware.AuthConfig{})
	assert.False(t, result.Success)
	assert.EqualError(t, result.Error, "no API keys configured")
}

func TestActorFrom(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/anon", func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		assert.Nil(t, actor.ID)
		assert.Equal(t, "curl/8", actor.UserAgent)
		c.Status(http.StatusNoContent)
	})
	router.GET("/auth", middleware.Auth(middleware.AuthConfig{APIKeys: []string{"k1"}}), func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		require.NotNil(t, actor.ID)
		assert.Contains(t, *actor.ID, "apikey:")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/anon", nil)
	req.Header.Set("User-Agent", "curl/8")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth", nil)
	req.Header.Set("Authorization", "apikey k1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	generated := w.Header().Get(middleware.HeaderRequestID)
	assert.Len(t, generated, 36)

	given := "8a1f0c52-3a5f-4c59-9f4e-8f0f6d7e2b11"
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.HeaderRequestID, given)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, given, w.Header().Get(middleware.HeaderRequestID))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.Recovery())
	router.GET("/", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"error_code":"INTERNAL_SERVER_ERROR"`)
}
