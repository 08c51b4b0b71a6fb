package server

import (
	"net/http"

	"github.com/soyaya/boardling-sub002/internal/auth"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleResolveAccess(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	decision, err := s.svc.ResolveAccess(c.Request.Context(), c.Param("id"), userId)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

func (s *Server) handleListGrants(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	grants, err := s.svc.Store().ListGrantsByBuyer(c.Request.Context(), userId)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"grants": grants})
}

func (s *Server) handleListEarnings(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	limit, offset := paginationParams(c)
	earnings, err := s.svc.Store().ListEarningsByOwner(c.Request.Context(), userId, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"earnings": earnings})
}
