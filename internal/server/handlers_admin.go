package server

import (
	"net/http"

	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type confirmPaymentRequest struct {
	InvoiceId     string `json:"invoice_id" binding:"required"`
	PaidAmountZec string `json:"paid_amount_zec" binding:"required"`
	Txid          string `json:"txid" binding:"required"`
}

// handleConfirmPayment is the endpoint the payment observer calls once a
// deposit to an invoice address confirms on chain. Replays return 200 with
// success=false.
func (s *Server) handleConfirmPayment(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.PaidAmountZec)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paid_amount_zec is not a valid decimal"})
		return
	}

	result, err := s.svc.ConfirmPayment(c.Request.Context(), store.SettleParams{
		InvoiceId:  req.InvoiceId,
		PaidAmount: amount,
		Txid:       req.Txid,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleProcessWithdrawal(c *gin.Context) {
	w, err := s.svc.ProcessWithdrawal(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

type completeWithdrawalRequest struct {
	Txid string `json:"txid" binding:"required"`
}

func (s *Server) handleCompleteWithdrawal(c *gin.Context) {
	var req completeWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := s.svc.CompleteWithdrawal(c.Request.Context(), c.Param("id"), req.Txid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

type failWithdrawalRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) handleFailWithdrawal(c *gin.Context) {
	var req failWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w, err := s.svc.FailWithdrawal(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (s *Server) handleAuditTrail(c *gin.Context) {
	entries, err := s.svc.Store().ListAuditTrail(c.Request.Context(), c.Param("entityId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
