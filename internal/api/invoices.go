package api

import (
	"context"

	"github.com/soyaya/boardling-sub002/internal/metrics"
	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"go.uber.org/zap"
)

func (s *SettlementService) CreateSubscriptionInvoice(ctx context.Context, params store.SubscriptionInvoiceParams) (*models.Invoice, error) {
	invoice, err := s.db.CreateSubscriptionInvoice(ctx, params)
	if err != nil {
		zap.L().Error("Subscription invoice creation failed",
			zap.String("user_id", params.UserId),
			zap.String("plan_type", string(params.PlanType)),
			zap.Error(err))
		return nil, err
	}

	metrics.RecordInvoiceCreated(string(models.InvoiceSubscription))
	return invoice, nil
}

func (s *SettlementService) CreateDataAccessInvoice(ctx context.Context, params store.DataAccessInvoiceParams) (*models.Invoice, error) {
	invoice, err := s.db.CreateDataAccessInvoice(ctx, params)
	if err != nil {
		zap.L().Error("Data-access invoice creation failed",
			zap.String("buyer_id", params.BuyerId),
			zap.String("data_package_id", params.DataPackageId),
			zap.Error(err))
		return nil, err
	}

	metrics.RecordInvoiceCreated(string(models.InvoiceDataAccess))
	return invoice, nil
}
