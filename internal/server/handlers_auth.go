package server

import (
	"net/http"

	"github.com/soyaya/boardling-sub002/internal/auth"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.svc.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type registerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.svc.Store().CreateUser(c.Request.Context(), req.Name, req.Email, "user")
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

type tokenRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// handleToken exchanges a registered email for a signed JWT. There is no
// password step: callers are authenticated upstream and this service only
// needs a verifiable identity to settle against.
func (s *Server) handleToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.svc.Store().GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.GenerateToken(user.Id, user.Email, user.Role, s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":              token,
		"expires_in_seconds": int(s.cfg.TokenTTL.Seconds()),
	})
}
