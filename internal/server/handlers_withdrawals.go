package server

import (
	"net/http"

	"github.com/soyaya/boardling-sub002/internal/auth"
	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type withdrawalRequest struct {
	AmountZec string `json:"amount_zec" binding:"required"`
	ToAddress string `json:"to_address" binding:"required"`
	Network   string `json:"network"`
}

func (s *Server) handleCreateWithdrawal(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.AmountZec)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_zec is not a valid decimal"})
		return
	}
	if req.Network == "" {
		req.Network = "mainnet"
	}

	receipt, err := s.svc.RequestWithdrawal(c.Request.Context(), store.WithdrawalParams{
		UserId:    userId,
		AmountZec: amount,
		ToAddress: req.ToAddress,
		Network:   req.Network,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

func (s *Server) handleListWithdrawals(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	limit, offset := paginationParams(c)
	withdrawals, err := s.svc.Store().ListUserWithdrawals(c.Request.Context(), userId, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

func (s *Server) handleGetWithdrawal(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	w, err := s.svc.Store().GetWithdrawalById(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if w.UserId != userId && c.GetString("user_role") != "admin" {
		c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
		return
	}

	c.JSON(http.StatusOK, w)
}
