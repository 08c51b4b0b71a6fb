package api

import (
	"context"

	"github.com/soyaya/boardling-sub002/internal/metrics"
	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"go.uber.org/zap"
)

func (s *SettlementService) RequestWithdrawal(ctx context.Context, params store.WithdrawalParams) (*models.WithdrawalReceipt, error) {
	zap.L().Info("Processing withdrawal request",
		zap.String("user_id", params.UserId),
		zap.String("amount_zec", params.AmountZec.String()),
		zap.String("network", params.Network))

	receipt, err := s.db.CreateWithdrawal(ctx, params)
	if err != nil {
		zap.L().Error("Withdrawal request failed",
			zap.String("user_id", params.UserId),
			zap.String("amount_zec", params.AmountZec.String()),
			zap.Error(err))
		return nil, err
	}

	metrics.RecordWithdrawal(string(models.WithdrawalPending))
	return receipt, nil
}

func (s *SettlementService) ProcessWithdrawal(ctx context.Context, withdrawalId string) (*models.Withdrawal, error) {
	w, err := s.db.ProcessWithdrawal(ctx, withdrawalId)
	if err != nil {
		zap.L().Error("Withdrawal processing failed",
			zap.String("withdrawal_id", withdrawalId),
			zap.Error(err))
		return nil, err
	}

	metrics.RecordWithdrawal(string(models.WithdrawalProcessing))
	return w, nil
}

func (s *SettlementService) CompleteWithdrawal(ctx context.Context, withdrawalId, txid string) (*models.Withdrawal, error) {
	w, err := s.db.CompleteWithdrawal(ctx, withdrawalId, txid)
	if err != nil {
		zap.L().Error("Withdrawal completion failed",
			zap.String("withdrawal_id", withdrawalId),
			zap.String("txid", txid),
			zap.Error(err))
		return nil, err
	}

	metrics.RecordWithdrawal(string(models.WithdrawalSent))
	return w, nil
}

// FailWithdrawal marks the payout failed and refunds the user in the same
// transaction.
func (s *SettlementService) FailWithdrawal(ctx context.Context, withdrawalId, reason string) (*models.Withdrawal, error) {
	w, err := s.db.FailWithdrawal(ctx, withdrawalId, reason)
	if err != nil {
		zap.L().Error("Withdrawal failure handling failed",
			zap.String("withdrawal_id", withdrawalId),
			zap.String("reason", reason),
			zap.Error(err))
		return nil, err
	}

	zap.L().Info("Failed withdrawal refunded",
		zap.String("withdrawal_id", withdrawalId),
		zap.String("user_id", w.UserId),
		zap.String("refunded_zec", w.AmountZec.String()))
	metrics.RecordWithdrawal(string(models.WithdrawalFailed))
	return w, nil
}
