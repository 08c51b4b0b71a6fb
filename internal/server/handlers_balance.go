package server

import (
	"net/http"

	"github.com/soyaya/boardling-sub002/internal/auth"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleGetBalance(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	balance, err := s.svc.Store().GetUserBalance(c.Request.Context(), userId)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":     userId,
		"balance_zec": balance,
	})
}

func (s *Server) handleGetLedger(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	limit, offset := paginationParams(c)
	entries, err := s.svc.Store().GetLedgerHistory(c.Request.Context(), userId, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
