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

var oneHundred = decimal.NewFromInt(100)

// Settle applies a confirmed on-chain payment to a pending invoice. The
// whole operation runs in a single immediate transaction: the invoice
// status flip, the balance credit, the grant upsert and the earning row
// either all land or none do. Settling the same invoice twice is a no-op
// reported through SettlementResult rather than an error, so payment
// observers can redeliver confirmations safely.
func (s *Service) Settle(ctx context.Context, params store.SettleParams) (*models.SettlementResult, error) {
	if params.InvoiceId == "" {
		return nil, fmt.Errorf("%w: invoice id is required", store.ErrValidation)
	}
	if params.Txid == "" {
		return nil, fmt.Errorf("%w: payment txid is required", store.ErrValidation)
	}
	if !params.PaidAmount.IsPositive() {
		return nil, fmt.Errorf("%w: paid amount must be positive, got %s", store.ErrValidation, params.PaidAmount.String())
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to begin settlement transaction: %w", classifyErr(err))
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to rollback settlement transaction", zap.Error(err))
		}
	}()

	invoice, err := scanInvoiceFrom(tx.QueryRowContext(ctx, queryGetInvoiceById, params.InvoiceId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %s", store.ErrNotFound, params.InvoiceId)
		}
		return nil, fmt.Errorf("unable to load invoice for settlement: %w", classifyErr(err))
	}

	if invoice.Status == models.InvoicePaid {
		zap.L().Info("Settlement skipped, invoice already paid",
			zap.String("invoice_id", invoice.Id),
			zap.String("txid", params.Txid),
			zap.String("original_txid", invoice.PaidTxid))
		return &models.SettlementResult{
			Success:   false,
			Message:   "invoice already paid",
			InvoiceId: invoice.Id,
		}, nil
	}

	paid := roundZec(params.PaidAmount)
	if paid.LessThan(invoice.AmountZec) {
		return nil, fmt.Errorf("%w: paid %s is less than invoice amount %s",
			store.ErrValidation, paid.String(), invoice.AmountZec.String())
	}
	now := time.Now().UTC()
	if invoice.ExpiresAt != nil && now.After(*invoice.ExpiresAt) {
		// Confirmed funds have landed on chain, so a stale quote window
		// is not grounds to refuse them.
		zap.L().Warn("Settling invoice past its quote window",
			zap.String("invoice_id", invoice.Id),
			zap.Time("quote_expired_at", *invoice.ExpiresAt))
	}

	result := &models.SettlementResult{
		Success:       true,
		InvoiceId:     invoice.Id,
		InvoiceType:   invoice.Type,
		PaidAmountZec: paid,
	}

	// The quote window is spent once the invoice is paid. The subscription
	// branch reuses the column for the plan expiry; data access keeps the
	// original value for the audit trail.
	invoiceExpiry := invoice.ExpiresAt

	switch {
	case invoice.Type == models.InvoiceSubscription && invoice.Metadata.Subscription != nil:
		expiresAt, err := s.settleSubscriptionTx(ctx, tx, invoice, now)
		if err != nil {
			return nil, err
		}
		result.Message = "subscription activated"
		result.ExpiresAt = &expiresAt
		invoiceExpiry = &expiresAt

	case invoice.Type == models.InvoiceDataAccess && invoice.Metadata.DataAccess != nil:
		ownerShare, platformShare, grantExpiry, err := s.settleDataAccessTx(ctx, tx, invoice, paid, now)
		if err != nil {
			return nil, err
		}
		result.Message = "data access granted"
		result.OwnerShare = ownerShare
		result.PlatformShare = platformShare
		result.ExpiresAt = &grantExpiry

	default:
		return nil, fmt.Errorf("%w: invoice %s has type %s but no matching metadata",
			store.ErrStateConflict, invoice.Id, invoice.Type)
	}

	res, err := tx.ExecContext(ctx, queryMarkInvoicePaid, paid.String(), params.Txid, now, invoiceExpiry, invoice.Id)
	if err != nil {
		return nil, fmt.Errorf("unable to mark invoice paid: %w", classifyErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to confirm invoice update: %w", err)
	}
	if affected != 1 {
		return nil, fmt.Errorf("%w: invoice %s changed state during settlement", store.ErrStateConflict, invoice.Id)
	}

	if err := s.appendAuditTx(ctx, tx, "invoice", invoice.Id, "settled",
		fmt.Sprintf("txid=%s paid=%s type=%s", params.Txid, paid.String(), invoice.Type)); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("unable to commit settlement: %w", classifyErr(err))
	}

	zap.L().Info("Invoice settled",
		zap.String("invoice_id", invoice.Id),
		zap.String("invoice_type", string(invoice.Type)),
		zap.String("paid_amount_zec", paid.String()),
		zap.String("txid", params.Txid))
	return result, nil
}

// settleSubscriptionTx activates the purchased plan. The new expiry counts
// from the settlement time, not from the invoice creation time.
func (s *Service) settleSubscriptionTx(ctx context.Context, tx *sql.Tx, invoice *models.Invoice, now time.Time) (time.Time, error) {
	meta := invoice.Metadata.Subscription
	expiresAt := now.AddDate(0, meta.DurationMonths, 0)

	if _, err := tx.ExecContext(ctx, queryUpdateUserSubscription, string(meta.PlanType), expiresAt, invoice.UserId); err != nil {
		return time.Time{}, fmt.Errorf("unable to activate subscription: %w", classifyErr(err))
	}
	return expiresAt, nil
}

// settleDataAccessTx credits the data owner, upserts the buyer's access
// grant and records the earning split. The owner share is rounded to the
// zatoshi and the platform share takes the remainder, so the two shares
// always sum to the paid amount exactly.
func (s *Service) settleDataAccessTx(ctx context.Context, tx *sql.Tx, invoice *models.Invoice, paid decimal.Decimal, now time.Time) (ownerShare, platformShare decimal.Decimal, grantExpiry time.Time, err error) {
	meta := invoice.Metadata.DataAccess

	ownerShare = roundZec(paid.Mul(s.billing.OwnerSharePercent).Div(oneHundred))
	platformShare = paid.Sub(ownerShare)

	if _, err = s.applyLedgerEntry(ctx, tx, ledgerEntryParams{
		UserId:    meta.DataOwnerId,
		EntryType: "settlement_credit",
		Amount:    ownerShare,
		Reference: "settle:" + invoice.Id,
		Detail:    fmt.Sprintf("data access sale, package %s, buyer %s", meta.DataPackageId, invoice.UserId),
	}); err != nil {
		return decimal.Zero, decimal.Zero, time.Time{}, err
	}

	grantExpiry, err = s.upsertGrantTx(ctx, tx, invoice.UserId, meta, paid, now)
	if err != nil {
		return decimal.Zero, decimal.Zero, time.Time{}, err
	}

	if _, err = tx.ExecContext(ctx, queryInsertEarning,
		uuid.New().String(), meta.DataOwnerId, meta.DataPackageId,
		ownerShare.String(), platformShare.String(), invoice.UserId, invoice.Id, now); err != nil {
		return decimal.Zero, decimal.Zero, time.Time{}, fmt.Errorf("unable to record earning: %w", classifyErr(err))
	}

	return ownerShare, platformShare, grantExpiry, nil
}
