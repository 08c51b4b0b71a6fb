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

	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"go.uber.org/zap"
)

// UpdatePrivacyMode changes a wallet's privacy mode. Only the wallet owner
// may change it. The new mode takes effect for all later access decisions:
// once no wallet in the package is monetizable, even buyers holding an
// unexpired grant are denied by ResolveAccess. The grant row itself stays
// in place and is visible through CheckAccess until it expires.
func (s *Service) UpdatePrivacyMode(ctx context.Context, walletId string, mode models.PrivacyMode, requesterId string) (*models.Wallet, error) {
	switch mode {
	case models.PrivacyPrivate, models.PrivacyPublic, models.PrivacyMonetizable:
	default:
		return nil, fmt.Errorf("%w: unknown privacy mode %q", store.ErrValidation, mode)
	}

	wallet, err := s.GetWalletById(ctx, walletId)
	if err != nil {
		return nil, err
	}
	if wallet.OwnerId != requesterId {
		return nil, fmt.Errorf("%w: only the wallet owner can change its privacy mode", store.ErrAuthorization)
	}
	if wallet.PrivacyMode == mode {
		return wallet, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to begin privacy update: %w", classifyErr(err))
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			zap.L().Warn("Failed to rollback privacy update", zap.Error(err))
		}
	}()

	if _, err := tx.ExecContext(ctx, queryUpdateWalletPrivacyMode, string(mode), walletId); err != nil {
		return nil, fmt.Errorf("unable to update privacy mode: %w", classifyErr(err))
	}
	if err := s.appendAuditTx(ctx, tx, "wallet", walletId, "privacy_mode_changed",
		fmt.Sprintf("from=%s to=%s by=%s", wallet.PrivacyMode, mode, requesterId)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("unable to commit privacy update: %w", classifyErr(err))
	}

	zap.L().Info("Wallet privacy mode changed",
		zap.String("wallet_id", walletId),
		zap.String("from", string(wallet.PrivacyMode)),
		zap.String("to", string(mode)))

	wallet.PrivacyMode = mode
	return wallet, nil
}

// ResolveAccess is the privacy gate. The owner always sees their own data.
// For everyone else the strictest monetization setting on the package wins:
// any monetizable wallet gates the package behind a paid grant, otherwise
// any public wallet opens it in anonymized form, otherwise it is private.
func (s *Service) ResolveAccess(ctx context.Context, dataPackageId, requesterId string) (*models.AccessDecision, error) {
	var ownerId string
	err := s.db.QueryRowContext(ctx, queryGetPackageOwner, dataPackageId).Scan(&ownerId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: data package %s", store.ErrNotFound, dataPackageId)
		}
		return nil, fmt.Errorf("unable to resolve data package: %w", classifyErr(err))
	}

	if requesterId == ownerId {
		return &models.AccessDecision{
			Allowed: true,
			Owner:   true,
			Reason:  "requester owns the data package",
		}, nil
	}

	monetizable, err := s.countWalletsByMode(ctx, dataPackageId, models.PrivacyMonetizable)
	if err != nil {
		return nil, err
	}
	if monetizable > 0 {
		check, err := s.CheckAccess(ctx, requesterId, dataPackageId)
		if err != nil {
			return nil, err
		}
		if check.HasAccess {
			return &models.AccessDecision{
				Allowed:     true,
				Anonymized:  true,
				PrivacyMode: models.PrivacyMonetizable,
				DataType:    check.DataType,
				ExpiresAt:   check.ExpiresAt,
				Reason:      "active access grant",
			}, nil
		}
		return &models.AccessDecision{
			Allowed:         false,
			RequiresPayment: true,
			PrivacyMode:     models.PrivacyMonetizable,
			Reason:          "payment required for monetizable data",
		}, nil
	}

	public, err := s.countWalletsByMode(ctx, dataPackageId, models.PrivacyPublic)
	if err != nil {
		return nil, err
	}
	if public > 0 {
		return &models.AccessDecision{
			Allowed:     true,
			Anonymized:  true,
			PrivacyMode: models.PrivacyPublic,
			Reason:      "public data",
		}, nil
	}

	return &models.AccessDecision{
		Allowed:     false,
		PrivacyMode: models.PrivacyPrivate,
		Reason:      "private data",
	}, nil
}

func (s *Service) countWalletsByMode(ctx context.Context, dataPackageId string, mode models.PrivacyMode) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, queryCountPackageWalletsByMode, dataPackageId, string(mode)).Scan(&count); err != nil {
		return 0, fmt.Errorf("unable to count %s wallets: %w", mode, classifyErr(err))
	}
	return count, nil
}
