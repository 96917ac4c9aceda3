package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appalert "github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/alert"
	alertDomain "github.com/engenhariadahumanidade/RAPERStockDASH/internal/domain/alert"
)

func (s *Server) handleGetSettings(c *gin.Context) {
	settings, err := s.settings.FindByUserID(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load settings", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "settings": settingsJSON(settings)})
}

// handleUpdateSettings is a partial update: only fields present in the body
// change.
func (s *Server) handleUpdateSettings(c *gin.Context) {
	var body struct {
		WebhookURL    *string `json:"webhookUrl"`
		PhoneNumber   *string `json:"phoneNumber"`
		AutoAlerts    *bool   `json:"autoAlerts"`
		MasterSwitch  *bool   `json:"masterSwitch"`
		CustomMessage *string `json:"customMessage"`
		ScanInterval  *int    `json:"scanInterval"`
		WorkStart     *string `json:"workStart"`
		WorkEnd       *string `json:"workEnd"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString("userID")
	settings, err := s.settings.FindByUserID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to load settings", "error_code": errCodeInternal})
		return
	}

	if body.WebhookURL != nil {
		settings.WebhookURL = *body.WebhookURL
	}
	if body.PhoneNumber != nil {
		settings.PhoneNumber = *body.PhoneNumber
	}
	if body.AutoAlerts != nil {
		settings.AutoAlerts = *body.AutoAlerts
	}
	if body.MasterSwitch != nil {
		settings.MasterSwitch = *body.MasterSwitch
	}
	if body.CustomMessage != nil {
		settings.CustomMessage = *body.CustomMessage
	}
	if body.ScanInterval != nil {
		settings.ScanInterval = *body.ScanInterval
	}
	if body.WorkStart != nil {
		settings.WorkStart = *body.WorkStart
	}
	if body.WorkEnd != nil {
		settings.WorkEnd = *body.WorkEnd
	}

	if err := settings.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}

	// The custom template may carry tokens we do not know; report them so
	// the settings page can warn, but never reject.
	unknown := appalert.UnknownTokens(settings.CustomMessage)

	saved, err := s.settings.Save(ctx, settings)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "failed to save settings", "error_code": errCodeInternal})
		return
	}

	resp := gin.H{"success": true, "settings": settingsJSON(saved)}
	if len(unknown) > 0 {
		resp["unknownTokens"] = unknown
	}
	c.JSON(http.StatusOK, resp)
}

// handleTestWebhook runs a full analysis with a forced test dispatch. Test
// sends bypass dedup and working hours and never touch the stored state.
func (s *Server) handleTestWebhook(c *gin.Context) {
	userID := c.GetString("userID")
	user, err := s.meUC.Execute(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized", "error_code": errCodeUnauthorized})
		return
	}

	view, err := s.dashboard.Run(c.Request.Context(), userID, user.Name, true, true)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "analysis failed", "error_code": errCodeInternal})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "alertStatus": view.AlertOutcome})
}

func settingsJSON(s alertDomain.Settings) gin.H {
	return gin.H{
		"id":            s.ID,
		"webhookUrl":    s.WebhookURL,
		"phoneNumber":   s.PhoneNumber,
		"autoAlerts":    s.AutoAlerts,
		"masterSwitch":  s.MasterSwitch,
		"customMessage": s.CustomMessage,
		"scanInterval":  s.ScanInterval,
		"workStart":     s.WorkStart,
		"workEnd":       s.WorkEnd,
		"lastAlertTime": s.LastAlertTime,
	}
}
