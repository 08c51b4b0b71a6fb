/**
 * Copyright 2026-present Soyaya, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"net/http"

	"github.com/soyaya/boardling-sub002/internal/api"
	"github.com/soyaya/boardling-sub002/internal/auth"
	"github.com/soyaya/boardling-sub002/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	engine *gin.Engine
	svc    *api.SettlementService
	cfg    models.ServerConfig
}

func New(svc *api.SettlementService, cfg models.ServerConfig) *Server {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestLoggingMiddleware())
	engine.Use(MetricsMiddleware())

	s := &Server{
		engine: engine,
		svc:    svc,
		cfg:    cfg,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine.POST("/auth/register", s.handleRegister)
	s.engine.POST("/auth/token", s.handleToken)

	v1 := s.engine.Group("/api/v1")
	v1.Use(auth.AuthMiddleware(s.cfg.JWTSecret))
	{
		v1.POST("/invoices/subscription", s.handleCreateSubscriptionInvoice)
		v1.POST("/invoices/data-access", s.handleCreateDataAccessInvoice)
		v1.GET("/invoices", s.handleListInvoices)
		v1.GET("/invoices/:id", s.handleGetInvoice)
		v1.GET("/invoices/:id/payment", s.handleCheckInvoicePayment)

		v1.GET("/balance", s.handleGetBalance)
		v1.GET("/ledger", s.handleGetLedger)

		v1.POST("/withdrawals", s.handleCreateWithdrawal)
		v1.GET("/withdrawals", s.handleListWithdrawals)
		v1.GET("/withdrawals/:id", s.handleGetWithdrawal)

		v1.POST("/wallets", s.handleCreateWallet)
		v1.PUT("/wallets/:id/privacy", s.handleUpdatePrivacy)

		v1.GET("/packages/:id/access", s.handleResolveAccess)
		v1.GET("/grants", s.handleListGrants)
		v1.GET("/earnings", s.handleListEarnings)
	}

	// Operator surface: payment observers and payout workers.
	admin := s.engine.Group("/internal")
	admin.Use(auth.AuthMiddleware(s.cfg.JWTSecret), auth.RequireRole("admin"))
	{
		admin.POST("/payments/confirm", s.handleConfirmPayment)
		admin.POST("/withdrawals/:id/process", s.handleProcessWithdrawal)
		admin.POST("/withdrawals/:id/complete", s.handleCompleteWithdrawal)
		admin.POST("/withdrawals/:id/fail", s.handleFailWithdrawal)
		admin.GET("/audit/:entityId", s.handleAuditTrail)
	}
}
