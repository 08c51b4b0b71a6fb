package server

import (
	"net/http"

	"github.com/soyaya/boardling-sub002/internal/auth"
	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/gin-gonic/gin"
)

type createWalletRequest struct {
	DataPackageId string `json:"data_package_id" binding:"required"`
	Address       string `json:"address" binding:"required"`
	PrivacyMode   string `json:"privacy_mode"`
}

func (s *Server) handleCreateWallet(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req createWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wallet, err := s.svc.Store().CreateWallet(c.Request.Context(), store.CreateWalletParams{
		OwnerId:       userId,
		DataPackageId: req.DataPackageId,
		Address:       req.Address,
		PrivacyMode:   models.PrivacyMode(req.PrivacyMode),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, wallet)
}

type updatePrivacyRequest struct {
	PrivacyMode string `json:"privacy_mode" binding:"required"`
}

func (s *Server) handleUpdatePrivacy(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req updatePrivacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wallet, err := s.svc.Store().UpdatePrivacyMode(c.Request.Context(),
		c.Param("id"), models.PrivacyMode(req.PrivacyMode), userId)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}
