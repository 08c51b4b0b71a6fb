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
	"time"

	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ledgerEntryParams describes one balance mutation. Amount is signed:
// positive credits, negative debits.
type ledgerEntryParams struct {
	UserId    string
	EntryType string
	Amount    decimal.Decimal
	Reference string
	Detail    string
}

// applyLedgerEntry applies a balance delta and records the audit row inside
// the caller's transaction. It is the only code path that writes
// users.balance_zec: settlement credits, withdrawal debits and refunds all
// flow through here, so the conservation invariant (balance == sum of
// ledger amounts) holds by construction. The unique Reference makes each
// mutation exactly-once.
func (s *Service) applyLedgerEntry(ctx context.Context, tx *sql.Tx, params ledgerEntryParams) (decimal.Decimal, error) {
	if params.Reference == "" {
		return decimal.Zero, fmt.Errorf("%w: ledger reference is required", store.ErrValidation)
	}

	var existingId string
	err := tx.QueryRowContext(ctx, queryCheckDuplicateLedgerRef, params.Reference).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate ledger reference detected, skipping",
			zap.String("reference", params.Reference),
			zap.String("existing_entry_id", existingId))
		return decimal.Zero, fmt.Errorf("%w: reference %s already applied", store.ErrDuplicateTransaction, params.Reference)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("failed to check for duplicate ledger entry: %w", classifyErr(err))
	}

	var balanceStr string
	err = tx.QueryRowContext(ctx, queryGetUserBalance, params.UserId).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: user %s", store.ErrNotFound, params.UserId)
		}
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", classifyErr(err))
	}
	balance, err := parseDecimal(balanceStr, "balance_zec")
	if err != nil {
		return decimal.Zero, err
	}

	amount := roundZec(params.Amount)
	newBalance := balance.Add(amount)
	if newBalance.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: balance %s, requested %s",
			store.ErrInsufficientBalance, balance.String(), amount.Neg().String())
	}

	if _, err := tx.ExecContext(ctx, queryUpdateUserBalance, newBalance.String(), params.UserId); err != nil {
		return decimal.Zero, fmt.Errorf("failed to update balance: %w", classifyErr(err))
	}

	entryId := uuid.New().String()
	if _, err := tx.ExecContext(ctx, queryInsertLedgerEntry,
		entryId, params.UserId, params.EntryType,
		amount.String(), balance.String(), newBalance.String(),
		params.Reference, params.Detail, time.Now().UTC()); err != nil {
		return decimal.Zero, fmt.Errorf("failed to insert ledger entry: %w", classifyErr(err))
	}

	zap.L().Info("Ledger entry applied",
		zap.String("entry_id", entryId),
		zap.String("user_id", params.UserId),
		zap.String("entry_type", params.EntryType),
		zap.String("amount", amount.String()),
		zap.String("balance_before", balance.String()),
		zap.String("balance_after", newBalance.String()))

	return newBalance, nil
}

// GetUserBalance is a plain post-commit read of the authoritative balance.
func (s *Service) GetUserBalance(ctx context.Context, userId string) (decimal.Decimal, error) {
	var balanceStr string
	err := s.db.QueryRowContext(ctx, queryGetUserBalance, userId).Scan(&balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: user %s", store.ErrNotFound, userId)
		}
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", classifyErr(err))
	}
	return parseDecimal(balanceStr, "balance_zec")
}

// GetLedgerHistory returns paginated ledger entries, newest first.
func (s *Service) GetLedgerHistory(ctx context.Context, userId string, limit, offset int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, queryGetLedgerHistory, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger history: %w", classifyErr(err))
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		var amountStr, beforeStr, afterStr string
		var detail sql.NullString
		if err := rows.Scan(&e.Id, &e.UserId, &e.EntryType, &amountStr, &beforeStr, &afterStr,
			&e.Reference, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if e.Amount, err = parseDecimal(amountStr, "amount"); err != nil {
			return nil, err
		}
		if e.BalanceBefore, err = parseDecimal(beforeStr, "balance_before"); err != nil {
			return nil, err
		}
		if e.BalanceAfter, err = parseDecimal(afterStr, "balance_after"); err != nil {
			return nil, err
		}
		e.Detail = detail.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger rows: %w", err)
	}

	return entries, nil
}

// ReconcileUserBalance recomputes the balance from the ledger and verifies
// it matches the stored value. The sum runs in Go so the 8-decimal amounts
// are added exactly rather than as floats.
func (s *Service) ReconcileUserBalance(ctx context.Context, userId string) error {
	stored, err := s.GetUserBalance(ctx, userId)
	if err != nil {
		return err
	}

	rows, err := s.db.QueryContext(ctx, queryGetLedgerAmounts, userId)
	if err != nil {
		return fmt.Errorf("failed to query ledger amounts: %w", classifyErr(err))
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	sum := decimal.Zero
	for rows.Next() {
		var amountStr string
		if err := rows.Scan(&amountStr); err != nil {
			return fmt.Errorf("failed to scan ledger amount: %w", err)
		}
		amount, err := parseDecimal(amountStr, "amount")
		if err != nil {
			return err
		}
		sum = sum.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating ledger amounts: %w", err)
	}

	if !sum.Equal(stored) {
		zap.L().Error("Balance reconciliation mismatch",
			zap.String("user_id", userId),
			zap.String("stored", stored.String()),
			zap.String("ledger_sum", sum.String()))
		return fmt.Errorf("balance mismatch for user %s: stored %s, ledger sum %s", userId, stored.String(), sum.String())
	}

	zap.L().Debug("Balance reconciled",
		zap.String("user_id", userId),
		zap.String("balance", stored.String()))
	return nil
}
