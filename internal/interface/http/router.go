package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.ginLogger())
	engine.Use(corsMiddleware())

	engine.GET("/healthz", s.handleHealth)

	api := engine.Group("/api")

	// Login and registration get a tighter bucket than the rest.
	authLimiter := newRateLimiter(rate.Every(time.Second), 5)
	api.POST("/auth/login", rateLimitMiddleware(authLimiter), s.handleLogin)
	api.POST("/auth/register", rateLimitMiddleware(authLimiter), s.handleRegister)

	authed := api.Group("")
	authed.Use(s.requireAuth())
	{
		authed.GET("/auth/me", s.handleMe)

		authed.GET("/dashboard", s.handleDashboard)

		authed.GET("/settings", s.handleGetSettings)
		authed.PUT("/settings", s.handleUpdateSettings)
		authed.POST("/settings/test-webhook", s.handleTestWebhook)

		authed.GET("/stocks", s.handleListStocks)
		authed.POST("/stocks", s.handleUpsertStock)
		authed.DELETE("/stocks/:id", s.handleDeleteStock)

		authed.GET("/logs", s.handleListLogs)

		authed.GET("/scan", s.handleScan)
	}

	// The cron entrypoint is unauthenticated so external schedulers can hit
	// it; the scan gate bounds how often it can do anything.
	api.GET("/cron", s.handleCron)

	admin := api.Group("/admin")
	admin.Use(s.requireAuth(), s.requireAdmin())
	{
		admin.GET("/allowed-users", s.handleListAllowedUsers)
		admin.POST("/allowed-users", s.handleAddAllowedUser)
		admin.DELETE("/allowed-users/:email", s.handleRemoveAllowedUser)
		admin.GET("/global-settings", s.handleGetGlobalSettings)
		admin.POST("/global-settings", s.handleUpdateGlobalSettings)
		admin.POST("/test-push", s.handleTestPush)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "not found", "error_code": errCodeNotFound})
	})

	return engine
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
