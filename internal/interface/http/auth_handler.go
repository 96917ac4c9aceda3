package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appauth "github.com/engenhariadahumanidade/RAPERStockDASH/internal/application/auth"
)

func (s *Server) handleLogin(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}

	res, err := s.loginUC.Execute(c.Request.Context(), appauth.LoginInput{
		Email:    body.Email,
		Password: body.Password,
	})
	if err != nil {
		s.log.Info("login failure", zap.String("email", body.Email), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid email or password", "error_code": errCodeInvalidCredentials})
		return
	}

	s.setAccessCookie(c, res.Token)
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"user":         userJSON(res),
		"access_token": res.Token,
		"token_type":   "Bearer",
	})
}

func (s *Server) handleRegister(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid body", "error_code": errCodeBadRequest})
		return
	}

	res, err := s.registerUC.Execute(c.Request.Context(), appauth.RegisterInput{
		Email:    body.Email,
		Name:     body.Name,
		Password: body.Password,
	})
	switch {
	case errors.Is(err, appauth.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "email not allowed", "error_code": errCodeForbidden})
		return
	case errors.Is(err, appauth.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": "email already registered", "error_code": errCodeBadRequest})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "error_code": errCodeBadRequest})
		return
	}

	s.setAccessCookie(c, res.Token)
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"user":         userJSON(res),
		"access_token": res.Token,
		"token_type":   "Bearer",
	})
}

func (s *Server) handleMe(c *gin.Context) {
	user, err := s.meUC.Execute(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized", "error_code": errCodeUnauthorized})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"role":  user.Role,
		},
	})
}

func (s *Server) setAccessCookie(c *gin.Context, token string) {
	c.SetCookie(accessCookieName, token, int(s.cfg.Auth.TokenTTL.Seconds()), "/", "", false, true)
}

func userJSON(res appauth.LoginResult) gin.H {
	return gin.H{
		"id":    res.User.ID,
		"email": res.User.Email,
		"name":  res.User.Name,
		"role":  res.User.Role,
	}
}
