package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	alertDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
	authDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/auth"
)

func (s *Server) handleListAllowedUsers(c *gin.Context) {
	allowed, err := s.allowed.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to list allowed users", "error_code": errCodeInternal})
		return
	}
	if allowed == nil {
		allowed = []authDomain.AllowedUser{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "allowedUsers": allowed})
}

func (s *Server) handleAddAllowedUser(c *gin.Context) {
	var body struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	email := authDomain.NormalizeEmail(body.Email)
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "email required", "error_code": errCodeBadRequest})
		return
	}

	added, err := s.allowed.Add(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to add allowed user", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "allowedUser": added})
}

func (s *Server) handleRemoveAllowedUser(c *gin.Context) {
	email := authDomain.NormalizeEmail(c.Param("email"))
	if err := s.allowed.Remove(c.Request.Context(), email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to remove allowed user", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// handleGetGlobalSettings exposes the webhook URL and scan interval of the
// oldest settings row, which the admin panel treats as the global reference.
func (s *Server) handleGetGlobalSettings(c *gin.Context) {
	first, err := s.settings.FirstSettings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load global settings", "error_code": errCodeInternal})
		return
	}
	webhookURL := ""
	scanInterval := alertDomain.DefaultScanIntervalMinutes
	if first != nil {
		webhookURL = first.WebhookURL
		if first.ScanInterval > 0 {
			scanInterval = first.ScanInterval
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "webhookUrl": webhookURL, "scanInterval": scanInterval})
}

// handleUpdateGlobalSettings pushes the webhook URL and scan interval onto
// every user's settings row.
func (s *Server) handleUpdateGlobalSettings(c *gin.Context) {
	var body struct {
		WebhookURL   string `json:"webhookUrl"`
		ScanInterval int    `json:"scanInterval"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	if body.ScanInterval <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "scanInterval must be positive", "error_code": errCodeBadRequest})
		return
	}

	if err := s.settings.UpdateGlobalSettings(c.Request.Context(), body.WebhookURL, body.ScanInterval); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to save global settings", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "webhookUrl": body.WebhookURL, "scanInterval": body.ScanInterval})
}

// handleTestPush broadcasts a push notification so the admin can verify the
// OneSignal wiring.
func (s *Server) handleTestPush(c *gin.Context) {
	if s.push == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "push notifications not configured", "error_code": errCodeBadRequest})
		return
	}

	var body struct {
		Title   string `json:"title"`
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}
	if body.Title == "" {
		body.Title = "📈 Teste de notificação"
	}
	if body.Message == "" {
		body.Message = "Se você está vendo isso, as notificações estão funcionando."
	}

	if err := s.push.SendToUsers(c.Request.Context(), body.Title, body.Message, nil); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "push delivery failed", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
