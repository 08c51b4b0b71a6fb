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
	"go.uber.org/zap"
)

// scanUser reads one user row including the balance and subscription fields.
func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var balanceStr string
	var expiresAt sql.NullTime
	err := row.Scan(&user.Id, &user.Name, &user.Email, &user.Role, &balanceStr,
		&user.SubscriptionStatus, &expiresAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, err
	}
	user.Balance, err = parseDecimal(balanceStr, "balance_zec")
	if err != nil {
		return nil, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		user.SubscriptionExpiresAt = &t
	}
	return &user, nil
}

func (s *Service) CreateUser(ctx context.Context, name, email, role string) (*models.User, error) {
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", store.ErrValidation)
	}
	if role == "" {
		role = "user"
	}

	userId := uuid.New().String()
	user, err := scanUser(s.db.QueryRowContext(ctx, queryInsertUser, userId, name, email, role))
	if err != nil {
		return nil, fmt.Errorf("unable to create user: %w", classifyErr(err))
	}

	zap.L().Info("User created",
		zap.String("user_id", user.Id),
		zap.String("email", user.Email),
		zap.String("role", user.Role))
	return user, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserById, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user %s", store.ErrNotFound, userId)
		}
		return nil, fmt.Errorf("unable to query user by id: %w", classifyErr(err))
	}
	return user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, queryGetUserByEmail, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: user with email %s", store.ErrNotFound, email)
		}
		return nil, fmt.Errorf("unable to query user by email: %w", classifyErr(err))
	}
	return user, nil
}

// hasActiveSubscription reports whether the user currently holds a paid
// plan. An expired subscription_expires_at means no active plan even when
// the status column still carries the old tier.
func hasActiveSubscription(user *models.User, now time.Time) bool {
	if user.SubscriptionStatus == models.SubscriptionFree {
		return false
	}
	if user.SubscriptionExpiresAt == nil {
		return false
	}
	return user.SubscriptionExpiresAt.After(now)
}

func (s *Service) CreateWallet(ctx context.Context, params store.CreateWalletParams) (*models.Wallet, error) {
	if params.OwnerId == "" || params.DataPackageId == "" || params.Address == "" {
		return nil, fmt.Errorf("%w: owner, package and address are required", store.ErrValidation)
	}
	switch params.PrivacyMode {
	case models.PrivacyPrivate, models.PrivacyPublic, models.PrivacyMonetizable:
	case "":
		params.PrivacyMode = models.PrivacyPrivate
	default:
		return nil, fmt.Errorf("%w: unknown privacy mode %q", store.ErrValidation, params.PrivacyMode)
	}

	walletId := uuid.New().String()
	var wallet models.Wallet
	err := s.db.QueryRowContext(ctx, queryInsertWallet,
		walletId, params.OwnerId, params.DataPackageId, params.Address, params.PrivacyMode).
		Scan(&wallet.Id, &wallet.OwnerId, &wallet.DataPackageId, &wallet.Address,
			&wallet.PrivacyMode, &wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("unable to create wallet: %w", classifyErr(err))
	}

	zap.L().Info("Wallet registered",
		zap.String("wallet_id", wallet.Id),
		zap.String("data_package_id", wallet.DataPackageId),
		zap.String("privacy_mode", string(wallet.PrivacyMode)))
	return &wallet, nil
}

func (s *Service) GetWalletById(ctx context.Context, walletId string) (*models.Wallet, error) {
	var wallet models.Wallet
	err := s.db.QueryRowContext(ctx, queryGetWalletById, walletId).
		Scan(&wallet.Id, &wallet.OwnerId, &wallet.DataPackageId, &wallet.Address,
			&wallet.PrivacyMode, &wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: wallet %s", store.ErrNotFound, walletId)
		}
		return nil, fmt.Errorf("unable to query wallet: %w", classifyErr(err))
	}
	return &wallet, nil
}

// CountMonetizableWallets is the package-monetizability reader consumed by
// the invoice ledger before allowing a data-access purchase.
func (s *Service) CountMonetizableWallets(ctx context.Context, dataPackageId string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, queryCountPackageWalletsByMode, dataPackageId, models.PrivacyMonetizable).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("unable to count monetizable wallets: %w", classifyErr(err))
	}
	return count, nil
}
