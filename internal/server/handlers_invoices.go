package server

import (
	"net/http"
	"strconv"

	"github.com/soyaya/boardling-sub002/internal/auth"
	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type subscriptionInvoiceRequest struct {
	PlanType       string `json:"plan_type" binding:"required"`
	DurationMonths int    `json:"duration_months" binding:"required"`
}

func (s *Server) handleCreateSubscriptionInvoice(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req subscriptionInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := s.svc.CreateSubscriptionInvoice(c.Request.Context(), store.SubscriptionInvoiceParams{
		UserId:         userId,
		PlanType:       models.SubscriptionStatus(req.PlanType),
		DurationMonths: req.DurationMonths,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

type dataAccessInvoiceRequest struct {
	OwnerId       string `json:"owner_id" binding:"required"`
	DataPackageId string `json:"data_package_id" binding:"required"`
	DataType      string `json:"data_type" binding:"required"`
	AmountZec     string `json:"amount_zec" binding:"required"`
}

func (s *Server) handleCreateDataAccessInvoice(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	var req dataAccessInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(req.AmountZec)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_zec is not a valid decimal"})
		return
	}

	invoice, err := s.svc.CreateDataAccessInvoice(c.Request.Context(), store.DataAccessInvoiceParams{
		BuyerId:       userId,
		OwnerId:       req.OwnerId,
		DataPackageId: req.DataPackageId,
		DataType:      req.DataType,
		AmountZec:     amount,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invoice)
}

func (s *Server) handleListInvoices(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	limit, offset := paginationParams(c)
	invoices, err := s.svc.Store().ListUserInvoices(c.Request.Context(), userId, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	invoice, err := s.svc.Store().GetInvoiceById(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if invoice.UserId != userId && c.GetString("user_role") != "admin" {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (s *Server) handleCheckInvoicePayment(c *gin.Context) {
	userId, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
		return
	}

	invoice, err := s.svc.Store().GetInvoiceById(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if invoice.UserId != userId && c.GetString("user_role") != "admin" {
		c.JSON(http.StatusNotFound, gin.H{"error": "invoice not found"})
		return
	}

	receipt, err := s.svc.Store().CheckInvoicePayment(c.Request.Context(), invoice.Id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

func paginationParams(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	return limit, offset
}
