package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/scan"
)

// handleDashboard runs the full analysis pass. ?triggerAlert=true arms the
// alert dispatch for this request.
func (s *Server) handleDashboard(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := s.meUC.Execute(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized", "error_code": errCodeUnauthorized})
		return
	}

	trigger := c.Query("triggerAlert") == "true"
	view, err := s.dashboard.Run(c.Request.Context(), userID, user.Name, trigger, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "analysis failed", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, view)
}

// handleScan runs one gated scan cycle over every auto-alert user.
func (s *Server) handleScan(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := s.meUC.Execute(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized", "error_code": errCodeUnauthorized})
		return
	}

	res, err := s.scanUC.Run(c.Request.Context(), scan.RunInput{UserID: userID, UserEmail: user.Email})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "scan failed", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, res)
}

// handleCron is the external scheduler entrypoint. It runs under a fixed
// system identity and relies on the gate to stay idempotent.
func (s *Server) handleCron(c *gin.Context) {
	res, err := s.scanUC.Run(c.Request.Context(), scan.RunInput{
		UserID:    "cron",
		UserEmail: "cron@system",
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "scan failed", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

func (s *Server) handleListLogs(c *gin.Context) {
	logs, err := s.logs.ListRecent(c.Request.Context(), c.GetString("userID"), 20)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list logs", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "logs": logs})
}
