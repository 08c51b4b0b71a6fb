package api

import (
	"context"
	"errors"

	"github.com/soyaya/boardling-sub002/internal/metrics"
	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"go.uber.org/zap"
)

// ConfirmPayment applies an observed on-chain payment to its invoice.
// Replayed confirmations come back as unsuccessful results, not errors, so
// the caller can acknowledge the delivery either way.
func (s *SettlementService) ConfirmPayment(ctx context.Context, params store.SettleParams) (*models.SettlementResult, error) {
	zap.L().Info("Processing payment confirmation",
		zap.String("invoice_id", params.InvoiceId),
		zap.String("txid", params.Txid),
		zap.String("paid_amount_zec", params.PaidAmount.String()))

	result, err := s.db.Settle(ctx, params)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTransaction) {
			zap.L().Info("Duplicate settlement detected",
				zap.String("invoice_id", params.InvoiceId),
				zap.String("txid", params.Txid))
		} else {
			zap.L().Error("Settlement failed",
				zap.String("invoice_id", params.InvoiceId),
				zap.String("txid", params.Txid),
				zap.Error(err))
		}
		metrics.RecordSettlement("unknown", "error")
		return nil, err
	}

	outcome := "applied"
	if !result.Success {
		outcome = "replayed"
	}
	metrics.RecordSettlement(string(result.InvoiceType), outcome)
	return result, nil
}
