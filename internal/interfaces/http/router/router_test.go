package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bazaar/backend/internal/infrastructure/auth"
	"github.com/bazaar/backend/internal/interfaces/http/handler"
	"github.com/bazaar/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testEngine(t *testing.T) (*gin.Engine, *auth.JWTService) {
	t.Helper()

	jwtService, err := auth.NewJWTService("test-secret", time.Hour, "bazaar")
	require.NoError(t, err)

	engine := Setup(Config{
		Handlers: Handlers{
			System: handler.NewSystemHandler(nil),
		},
		JWTService:  jwtService,
		Logger:      zap.NewNop(),
		CORS:        middleware.DefaultCORSConfig(),
		ServiceName: "bazaar-test",
		Tracing:     false,
	})
	return engine, jwtService
}

func TestRouter_HealthIsPublic(t *testing.T) {
	engine, _ := testEngine(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_OrdersRequireAuth(t *testing.T) {
	engine, _ := testEngine(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_PayoutsRequireAdmin(t *testing.T) {
	engine, jwtService := testEngine(t)

	token, err := jwtService.GenerateToken(uuid.New(), "c@example.com", auth.RoleCustomer)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/payouts/"+uuid.NewString(), nil)
	req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouter_ReconciliationsRejectAgents(t *testing.T) {
	engine, jwtService := testEngine(t)

	token, err := jwtService.GenerateToken(uuid.New(), "agent@example.com", auth.RoleAgent)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reconciliations", nil)
	req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
