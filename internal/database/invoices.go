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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	minDurationMonths = 1
	maxDurationMonths = 12
)

// CreateSubscriptionInvoice creates a pending invoice priced at the plan's
// monthly rate times the requested duration.
func (s *Service) CreateSubscriptionInvoice(ctx context.Context, params store.SubscriptionInvoiceParams) (*models.Invoice, error) {
	plan, ok := s.billing.Plans[params.PlanType]
	if !ok || params.PlanType == models.SubscriptionFree {
		return nil, fmt.Errorf("%w: unknown plan type %q", store.ErrValidation, params.PlanType)
	}
	if params.DurationMonths < minDurationMonths || params.DurationMonths > maxDurationMonths {
		return nil, fmt.Errorf("%w: duration must be between %d and %d months, got %d",
			store.ErrValidation, minDurationMonths, maxDurationMonths, params.DurationMonths)
	}
	if _, err := s.GetUserById(ctx, params.UserId); err != nil {
		return nil, err
	}

	amount := roundZec(plan.MonthlyRateZec.Mul(decimal.NewFromInt(int64(params.DurationMonths))))
	metadata := models.InvoiceMetadata{
		Subscription: &models.SubscriptionMetadata{
			PlanType:       params.PlanType,
			DurationMonths: params.DurationMonths,
		},
	}

	invoice, err := s.insertInvoice(ctx, params.UserId, models.InvoiceSubscription, amount, string(params.PlanType), metadata)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Subscription invoice created",
		zap.String("invoice_id", invoice.Id),
		zap.String("user_id", params.UserId),
		zap.String("plan_type", string(params.PlanType)),
		zap.Int("duration_months", params.DurationMonths),
		zap.String("amount_zec", amount.String()))
	return invoice, nil
}

// CreateDataAccessInvoice creates a pending invoice for paid access to a
// data package. The buyer must hold an active paid subscription, must not
// own the package, and the package must expose at least one monetizable
// wallet.
func (s *Service) CreateDataAccessInvoice(ctx context.Context, params store.DataAccessInvoiceParams) (*models.Invoice, error) {
	if !params.AmountZec.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", store.ErrValidation, params.AmountZec.String())
	}
	if params.BuyerId == params.OwnerId {
		return nil, fmt.Errorf("%w: cannot purchase access to your own data package", store.ErrStateConflict)
	}

	buyer, err := s.GetUserById(ctx, params.BuyerId)
	if err != nil {
		return nil, err
	}
	if !hasActiveSubscription(buyer, time.Now()) {
		return nil, fmt.Errorf("%w: an active paid subscription is required to purchase data access", store.ErrAuthorization)
	}
	if _, err := s.GetUserById(ctx, params.OwnerId); err != nil {
		return nil, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, queryCountPackageWallets, params.DataPackageId).Scan(&total); err != nil {
		return nil, fmt.Errorf("unable to count package wallets: %w", classifyErr(err))
	}
	if total == 0 {
		return nil, fmt.Errorf("%w: data package %s", store.ErrNotFound, params.DataPackageId)
	}
	monetizable, err := s.CountMonetizableWallets(ctx, params.DataPackageId)
	if err != nil {
		return nil, err
	}
	if monetizable == 0 {
		return nil, fmt.Errorf("%w: package %s exposes no monetizable wallets", store.ErrValidation, params.DataPackageId)
	}

	metadata := models.InvoiceMetadata{
		DataAccess: &models.DataAccessMetadata{
			DataOwnerId:   params.OwnerId,
			DataPackageId: params.DataPackageId,
			DataType:      params.DataType,
		},
	}

	invoice, err := s.insertInvoice(ctx, params.BuyerId, models.InvoiceDataAccess, roundZec(params.AmountZec), params.DataPackageId, metadata)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Data-access invoice created",
		zap.String("invoice_id", invoice.Id),
		zap.String("buyer_id", params.BuyerId),
		zap.String("data_owner_id", params.OwnerId),
		zap.String("data_package_id", params.DataPackageId),
		zap.String("amount_zec", invoice.AmountZec.String()))
	return invoice, nil
}

// insertInvoice persists the invoice and its metadata as one atomic insert.
func (s *Service) insertInvoice(ctx context.Context, userId string, invType models.InvoiceType, amount decimal.Decimal, itemId string, metadata models.InvoiceMetadata) (*models.Invoice, error) {
	addr, err := s.addrGen.GenerateAddress(ctx, "transparent", "mainnet")
	if err != nil {
		return nil, fmt.Errorf("unable to generate payment address: %w", err)
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("unable to encode invoice metadata: %w", err)
	}

	invoiceId := uuid.New().String()
	expiresAt := time.Now().Add(s.billing.InvoiceTTL).UTC()
	if _, err := s.db.ExecContext(ctx, queryInsertInvoice,
		invoiceId, userId, invType, amount.String(), addr.Address, itemId, string(metaJSON), expiresAt); err != nil {
		return nil, fmt.Errorf("unable to insert invoice: %w", classifyErr(err))
	}

	return s.GetInvoiceById(ctx, invoiceId)
}

// GetInvoiceById is the read behind the payment-status projection.
func (s *Service) GetInvoiceById(ctx context.Context, invoiceId string) (*models.Invoice, error) {
	invoice, err := scanInvoice(s.db.QueryRowContext(ctx, queryGetInvoiceById, invoiceId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: invoice %s", store.ErrNotFound, invoiceId)
		}
		return nil, fmt.Errorf("unable to query invoice: %w", classifyErr(err))
	}
	return invoice, nil
}

// CheckInvoicePayment is a read-only payment status projection of one
// invoice, trimmed to what a payer polling for confirmation needs.
func (s *Service) CheckInvoicePayment(ctx context.Context, invoiceId string) (*models.InvoiceReceipt, error) {
	invoice, err := s.GetInvoiceById(ctx, invoiceId)
	if err != nil {
		return nil, err
	}

	return &models.InvoiceReceipt{
		InvoiceId:      invoice.Id,
		Type:           invoice.Type,
		AmountZec:      invoice.AmountZec,
		PaymentAddress: invoice.PaymentAddress,
		Status:         invoice.Status,
		PaidAmountZec:  invoice.PaidAmountZec,
		PaidTxid:       invoice.PaidTxid,
		ExpiresAt:      invoice.ExpiresAt,
	}, nil
}

func (s *Service) ListUserInvoices(ctx context.Context, userId string, limit, offset int) ([]models.Invoice, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, queryListUserInvoices, userId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query invoices: %w", classifyErr(err))
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var invoices []models.Invoice
	for rows.Next() {
		invoice, err := scanInvoiceRows(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *invoice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invoice rows: %w", err)
	}

	return invoices, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row *sql.Row) (*models.Invoice, error) {
	return scanInvoiceFrom(row)
}

func scanInvoiceRows(rows *sql.Rows) (*models.Invoice, error) {
	return scanInvoiceFrom(rows)
}

func scanInvoiceFrom(scanner rowScanner) (*models.Invoice, error) {
	var inv models.Invoice
	var amountStr, metaStr string
	var itemId, paidAmount, paidTxid sql.NullString
	var paidAt, expiresAt sql.NullTime

	err := scanner.Scan(&inv.Id, &inv.UserId, &inv.Type, &amountStr, &inv.Status,
		&inv.PaymentAddress, &itemId, &metaStr, &paidAmount, &paidTxid, &paidAt, &expiresAt, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}

	if inv.AmountZec, err = parseDecimal(amountStr, "amount_zec"); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metaStr), &inv.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode invoice metadata: %w", err)
	}
	inv.ItemId = itemId.String
	if paidAmount.Valid {
		if inv.PaidAmountZec, err = parseDecimal(paidAmount.String, "paid_amount_zec"); err != nil {
			return nil, err
		}
	}
	inv.PaidTxid = paidTxid.String
	if paidAt.Valid {
		t := paidAt.Time
		inv.PaidAt = &t
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		inv.ExpiresAt = &t
	}
	return &inv, nil
}
