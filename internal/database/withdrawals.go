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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	transparentAddrLen = 35
	shieldedAddrLen    = 78
)

// validateZecAddress accepts mainnet transparent (t1/t3) and sapling
// shielded (zs1) addresses. Length checks only, no checksum verification.
func validateZecAddress(addr string) error {
	switch {
	case strings.HasPrefix(addr, "t1"), strings.HasPrefix(addr, "t3"):
		if len(addr) != transparentAddrLen {
			return fmt.Errorf("%w: transparent address must be %d characters, got %d",
				store.ErrValidation, transparentAddrLen, len(addr))
		}
	case strings.HasPrefix(addr, "zs1"):
		if len(addr) != shieldedAddrLen {
			return fmt.Errorf("%w: shielded address must be %d characters, got %d",
				store.ErrValidation, shieldedAddrLen, len(addr))
		}
	default:
		return fmt.Errorf("%w: unrecognized address prefix", store.ErrValidation)
	}
	return nil
}

// CreateWithdrawal debits the gross amount immediately and records the
// withdrawal as pending. The fee is carved out of the gross amount: the
// user is debited AmountZec and will receive NetZec on chain. If the debit
// fails for insufficient balance, nothing is written.
func (s *Service) CreateWithdrawal(ctx context.Context, params store.WithdrawalParams) (*models.WithdrawalReceipt, error) {
	amount := roundZec(params.AmountZec)
	if amount.LessThan(s.billing.WithdrawalMinZec) {
		return nil, fmt.Errorf("%w: amount %s is below the minimum withdrawal of %s ZEC",
			store.ErrValidation, amount.String(), s.billing.WithdrawalMinZec.String())
	}
	if amount.GreaterThan(s.billing.WithdrawalMaxZec) {
		return nil, fmt.Errorf("%w: amount %s exceeds the maximum withdrawal of %s ZEC",
			store.ErrValidation, amount.String(), s.billing.WithdrawalMaxZec.String())
	}
	if err := validateZecAddress(params.ToAddress); err != nil {
		return nil, err
	}
	if _, err := s.GetUserById(ctx, params.UserId); err != nil {
		return nil, err
	}

	fee := roundZec(amount.Mul(s.billing.WithdrawalFeePercent).Div(oneHundred))
	net := amount.Sub(fee)
	if !net.IsPositive() {
		return nil, fmt.Errorf("%w: net amount after fee is not positive", store.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to begin withdrawal transaction: %w", classifyErr(err))
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to rollback withdrawal transaction", zap.Error(err))
		}
	}()

	withdrawalId := uuid.New().String()
	now := time.Now().UTC()

	newBalance, err := s.applyLedgerEntry(ctx, tx, ledgerEntryParams{
		UserId:    params.UserId,
		EntryType: "withdrawal_debit",
		Amount:    amount.Neg(),
		Reference: "withdrawal:" + withdrawalId,
		Detail:    fmt.Sprintf("withdrawal to %s, fee %s", params.ToAddress, fee.String()),
	})
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, queryInsertWithdrawal,
		withdrawalId, params.UserId, amount.String(), fee.String(), net.String(),
		params.ToAddress, params.Network, now); err != nil {
		return nil, fmt.Errorf("unable to insert withdrawal: %w", classifyErr(err))
	}

	if err := s.appendAuditTx(ctx, tx, "withdrawal", withdrawalId, "requested",
		fmt.Sprintf("user=%s amount=%s fee=%s net=%s", params.UserId, amount.String(), fee.String(), net.String())); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("unable to commit withdrawal: %w", classifyErr(err))
	}

	zap.L().Info("Withdrawal created",
		zap.String("withdrawal_id", withdrawalId),
		zap.String("user_id", params.UserId),
		zap.String("amount_zec", amount.String()),
		zap.String("net_zec", net.String()),
		zap.String("new_balance", newBalance.String()))

	return &models.WithdrawalReceipt{
		WithdrawalId: withdrawalId,
		AmountZec:    amount,
		FeeZec:       fee,
		NetZec:       net,
		NewBalance:   newBalance,
		Status:       models.WithdrawalPending,
	}, nil
}

func (s *Service) GetWithdrawalById(ctx context.Context, withdrawalId string) (*models.Withdrawal, error) {
	w, err := scanWithdrawal(s.db.QueryRowContext(ctx, queryGetWithdrawalById, withdrawalId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: withdrawal %s", store.ErrNotFound, withdrawalId)
		}
		return nil, fmt.Errorf("unable to query withdrawal: %w", classifyErr(err))
	}
	return w, nil
}

func (s *Service) ListUserWithdrawals(ctx context.Context, userId string, limit, offset int) ([]models.Withdrawal, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, queryListUserWithdrawals, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query withdrawals: %w", classifyErr(err))
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var withdrawals []models.Withdrawal
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal rows: %w", err)
	}

	return withdrawals, nil
}

// ProcessWithdrawal moves a pending withdrawal to processing. Only the
// pending state can enter processing.
func (s *Service) ProcessWithdrawal(ctx context.Context, withdrawalId string) (*models.Withdrawal, error) {
	return s.transitionWithdrawal(ctx, withdrawalId, models.WithdrawalProcessing, "", "",
		[]models.WithdrawalStatus{models.WithdrawalPending})
}

// CompleteWithdrawal marks a withdrawal sent and records the on-chain txid.
// Pending is allowed as a source state so single-step processors do not
// have to call ProcessWithdrawal first.
func (s *Service) CompleteWithdrawal(ctx context.Context, withdrawalId, txid string) (*models.Withdrawal, error) {
	if txid == "" {
		return nil, fmt.Errorf("%w: txid is required to complete a withdrawal", store.ErrValidation)
	}
	return s.transitionWithdrawal(ctx, withdrawalId, models.WithdrawalSent, txid, "",
		[]models.WithdrawalStatus{models.WithdrawalPending, models.WithdrawalProcessing})
}

// FailWithdrawal marks the withdrawal failed and refunds the full gross
// amount, fee included, in the same transaction.
func (s *Service) FailWithdrawal(ctx context.Context, withdrawalId, reason string) (*models.Withdrawal, error) {
	if reason == "" {
		reason = "unspecified failure"
	}
	return s.transitionWithdrawal(ctx, withdrawalId, models.WithdrawalFailed, "", reason,
		[]models.WithdrawalStatus{models.WithdrawalPending, models.WithdrawalProcessing})
}

func (s *Service) transitionWithdrawal(ctx context.Context, withdrawalId string, target models.WithdrawalStatus, txid, reason string, allowed []models.WithdrawalStatus) (*models.Withdrawal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to begin withdrawal transition: %w", classifyErr(err))
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to rollback withdrawal transition", zap.Error(err))
		}
	}()

	w, err := scanWithdrawal(tx.QueryRowContext(ctx, queryGetWithdrawalById, withdrawalId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: withdrawal %s", store.ErrNotFound, withdrawalId)
		}
		return nil, fmt.Errorf("unable to load withdrawal: %w", classifyErr(err))
	}

	ok := false
	for _, status := range allowed {
		if w.Status == status {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: withdrawal %s is %s, cannot move to %s",
			store.ErrStateConflict, withdrawalId, w.Status, target)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, queryUpdateWithdrawalStatus,
		string(target), nullableString(txid), nullableString(reason), now, withdrawalId); err != nil {
		return nil, fmt.Errorf("unable to update withdrawal status: %w", classifyErr(err))
	}

	if target == models.WithdrawalFailed {
		if _, err := s.applyLedgerEntry(ctx, tx, ledgerEntryParams{
			UserId:    w.UserId,
			EntryType: "withdrawal_refund",
			Amount:    w.AmountZec,
			Reference: "withdrawal-refund:" + withdrawalId,
			Detail:    fmt.Sprintf("refund for failed withdrawal, reason: %s", reason),
		}); err != nil {
			return nil, err
		}
	}

	if err := s.appendAuditTx(ctx, tx, "withdrawal", withdrawalId, string(target),
		fmt.Sprintf("from=%s txid=%s reason=%s", w.Status, txid, reason)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("unable to commit withdrawal transition: %w", classifyErr(err))
	}

	zap.L().Info("Withdrawal transitioned",
		zap.String("withdrawal_id", withdrawalId),
		zap.String("from", string(w.Status)),
		zap.String("to", string(target)))

	w.Status = target
	w.Txid = txid
	w.FailureReason = reason
	w.ProcessedAt = &now
	return w, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func scanWithdrawal(scanner rowScanner) (*models.Withdrawal, error) {
	var w models.Withdrawal
	var amountStr, feeStr, netStr string
	var txid, reason sql.NullString
	var processedAt sql.NullTime

	if err := scanner.Scan(&w.Id, &w.UserId, &amountStr, &feeStr, &netStr, &w.ToAddress,
		&w.Network, &w.Status, &txid, &reason, &w.RequestedAt, &processedAt); err != nil {
		return nil, err
	}

	var err error
	if w.AmountZec, err = parseDecimal(amountStr, "amount_zec"); err != nil {
		return nil, err
	}
	if w.FeeZec, err = parseDecimal(feeStr, "fee_zec"); err != nil {
		return nil, err
	}
	if w.NetZec, err = parseDecimal(netStr, "net_zec"); err != nil {
		return nil, err
	}
	w.Txid = txid.String
	w.FailureReason = reason.String
	if processedAt.Valid {
		t := processedAt.Time
		w.ProcessedAt = &t
	}
	return &w, nil
}
