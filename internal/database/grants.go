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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// upsertGrantTx creates or refreshes the single grant row for a
// (buyer, package) pair. A repeat purchase resets the expiry window to one
// month from now and accumulates the total paid, it never creates a second
// row. Returns the new expiry.
func (s *Service) upsertGrantTx(ctx context.Context, tx *sql.Tx, buyerId string, meta *models.DataAccessMetadata, paid decimal.Decimal, now time.Time) (time.Time, error) {
	expiresAt := now.AddDate(0, 1, 0)

	existing, err := scanGrant(tx.QueryRowContext(ctx, queryGetGrant, buyerId, meta.DataPackageId))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("unable to load access grant: %w", classifyErr(err))
	}

	if existing != nil {
		if existing.ExpiresAt.After(now) {
			zap.L().Warn("Repeat purchase resets a still-active grant",
				zap.String("buyer_id", buyerId),
				zap.String("data_package_id", meta.DataPackageId),
				zap.Time("previous_expiry", existing.ExpiresAt),
				zap.Time("new_expiry", expiresAt))
		}
		total := existing.AmountPaidZec.Add(paid)
		if _, err := tx.ExecContext(ctx, queryUpdateGrant, total.String(), expiresAt, now, existing.Id); err != nil {
			return time.Time{}, fmt.Errorf("unable to refresh access grant: %w", classifyErr(err))
		}
		return expiresAt, nil
	}

	if _, err := tx.ExecContext(ctx, queryInsertGrant,
		uuid.New().String(), buyerId, meta.DataOwnerId, meta.DataPackageId, meta.DataType,
		paid.String(), now, expiresAt, now); err != nil {
		return time.Time{}, fmt.Errorf("unable to insert access grant: %w", classifyErr(err))
	}
	return expiresAt, nil
}

// CheckAccess reports whether the buyer holds a live grant on the package.
// An expired grant row reads as no access.
func (s *Service) CheckAccess(ctx context.Context, buyerId, dataPackageId string) (*models.AccessCheck, error) {
	grant, err := scanGrant(s.db.QueryRowContext(ctx, queryGetGrant, buyerId, dataPackageId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.AccessCheck{HasAccess: false}, nil
		}
		return nil, fmt.Errorf("unable to query access grant: %w", classifyErr(err))
	}

	if !grant.ExpiresAt.After(time.Now()) {
		return &models.AccessCheck{HasAccess: false}, nil
	}
	expiresAt := grant.ExpiresAt
	return &models.AccessCheck{
		HasAccess: true,
		DataType:  grant.DataType,
		ExpiresAt: &expiresAt,
	}, nil
}

func (s *Service) ListGrantsByBuyer(ctx context.Context, buyerId string) ([]models.AccessGrant, error) {
	rows, err := s.db.QueryContext(ctx, queryListGrantsByBuyer, buyerId)
	if err != nil {
		return nil, fmt.Errorf("unable to query access grants: %w", classifyErr(err))
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var grants []models.AccessGrant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan access grant: %w", err)
		}
		grants = append(grants, *grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grant rows: %w", err)
	}

	return grants, nil
}

func (s *Service) ListEarningsByOwner(ctx context.Context, ownerId string, limit, offset int) ([]models.Earning, error) {
	if _, err := s.GetUserById(ctx, ownerId); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, queryListEarningsByOwner, ownerId, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("unable to query earnings: %w", classifyErr(err))
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var earnings []models.Earning
	for rows.Next() {
		var e models.Earning
		var amountStr, feeStr string
		if err := rows.Scan(&e.Id, &e.OwnerId, &e.DataPackageId, &amountStr, &feeStr,
			&e.BuyerId, &e.InvoiceId, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("unable to scan earning: %w", err)
		}
		if e.AmountZec, err = parseDecimal(amountStr, "amount_zec"); err != nil {
			return nil, err
		}
		if e.PlatformFeeZec, err = parseDecimal(feeStr, "platform_fee_zec"); err != nil {
			return nil, err
		}
		earnings = append(earnings, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating earning rows: %w", err)
	}

	return earnings, nil
}

func scanGrant(scanner rowScanner) (*models.AccessGrant, error) {
	var g models.AccessGrant
	var amountStr string
	if err := scanner.Scan(&g.Id, &g.BuyerId, &g.DataOwnerId, &g.DataPackageId, &g.DataType,
		&amountStr, &g.GrantedAt, &g.ExpiresAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if g.AmountPaidZec, err = parseDecimal(amountStr, "amount_paid_zec"); err != nil {
		return nil, err
	}
	return &g, nil
}
