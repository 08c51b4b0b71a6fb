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
	"github.com/soyaya/boardling-sub002/internal/payaddr"
	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.SettlementStore.
var _ store.SettlementStore = (*Service)(nil)

// zecPlaces is the fixed precision of the settlement currency: all stored
// amounts are rounded to 8 decimal places (1 ZEC = 10^8 zatoshi).
const zecPlaces = 8

type Service struct {
	db      *sql.DB
	billing models.BillingConfig
	addrGen payaddr.Generator
}

func NewService(ctx context.Context, cfg models.DatabaseConfig, billing models.BillingConfig, addrGen payaddr.Generator) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}
	if addrGen == nil {
		addrGen = payaddr.NewStaticGenerator()
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	// _txlock=immediate makes every transaction take the writer lock up
	// front, so mutating operations serialize instead of deadlocking, and
	// _busy_timeout bounds the wait before SQLITE_BUSY surfaces.
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service := &Service{db: db, billing: billing, addrGen: addrGen}
	if err := service.initSchema(); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	if cfg.SeedDemoData {
		if err := service.seedDemoData(ctx); err != nil {
			zap.L().Error("Failed to seed demo data", zap.Error(err))
		}
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'user',
		balance_zec TEXT NOT NULL DEFAULT '0',
		subscription_status TEXT NOT NULL DEFAULT 'free',
		subscription_expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id),
		data_package_id TEXT NOT NULL,
		address TEXT NOT NULL,
		privacy_mode TEXT NOT NULL DEFAULT 'private',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_wallets_package ON wallets(data_package_id);
	CREATE INDEX IF NOT EXISTS idx_wallets_owner ON wallets(owner_id);

	CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		type TEXT NOT NULL,
		amount_zec TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_address TEXT NOT NULL,
		item_id TEXT,
		metadata TEXT NOT NULL,
		paid_amount_zec TEXT,
		paid_txid TEXT,
		paid_at TIMESTAMP,
		expires_at TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_invoices_user ON invoices(user_id);
	CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status);

	CREATE TABLE IF NOT EXISTS access_grants (
		id TEXT PRIMARY KEY,
		buyer_id TEXT NOT NULL REFERENCES users(id),
		data_owner_id TEXT NOT NULL,
		data_package_id TEXT NOT NULL,
		data_type TEXT NOT NULL,
		amount_paid_zec TEXT NOT NULL DEFAULT '0',
		granted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		expires_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(buyer_id, data_package_id)
	);

	CREATE INDEX IF NOT EXISTS idx_grants_buyer ON access_grants(buyer_id);
	CREATE INDEX IF NOT EXISTS idx_grants_package ON access_grants(data_package_id);

	CREATE TABLE IF NOT EXISTS earnings (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		data_package_id TEXT NOT NULL,
		amount_zec TEXT NOT NULL,
		platform_fee_zec TEXT NOT NULL,
		buyer_id TEXT NOT NULL,
		invoice_id TEXT NOT NULL,
		earned_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_earnings_owner ON earnings(owner_id);

	CREATE TABLE IF NOT EXISTS withdrawals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		amount_zec TEXT NOT NULL,
		fee_zec TEXT NOT NULL,
		net_zec TEXT NOT NULL,
		to_address TEXT NOT NULL,
		network TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		txid TEXT,
		failure_reason TEXT,
		requested_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		processed_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_withdrawals_user ON withdrawals(user_id);
	CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawals(status);

	-- Balance ledger (audit trail). reference is the exactly-once guard.
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		amount TEXT NOT NULL,
		balance_before TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		reference TEXT NOT NULL UNIQUE,
		detail TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger_entries(user_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_created_at ON ledger_entries(created_at);

	CREATE TABLE IF NOT EXISTS audit_log (
		id TEXT PRIMARY KEY,
		entity_type TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		action TEXT NOT NULL,
		detail TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_audit_entity ON audit_log(entity_id, created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// seedDemoData inserts a small fixture set for local development: an admin,
// a data owner with a monetizable package, and a funded buyer.
func (s *Service) seedDemoData(ctx context.Context) error {
	admin, err := s.CreateUser(ctx, "Ops Admin", "admin@boardling.dev", "admin")
	if err != nil {
		return err
	}
	owner, err := s.CreateUser(ctx, "Dana Owner", "owner@boardling.dev", "user")
	if err != nil {
		return err
	}
	buyer, err := s.CreateUser(ctx, "Ben Buyer", "buyer@boardling.dev", "user")
	if err != nil {
		return err
	}

	for i, mode := range []models.PrivacyMode{models.PrivacyMonetizable, models.PrivacyPublic, models.PrivacyPrivate} {
		addr, err := s.addrGen.GenerateAddress(ctx, "transparent", "mainnet")
		if err != nil {
			return err
		}
		_, err = s.CreateWallet(ctx, store.CreateWalletParams{
			OwnerId:       owner.Id,
			DataPackageId: "pkg-demo-defi",
			Address:       addr.Address,
			PrivacyMode:   mode,
		})
		if err != nil {
			return err
		}
		zap.L().Debug("Seeded demo wallet", zap.Int("n", i), zap.String("mode", string(mode)))
	}

	// Fund the buyer so withdrawals and purchases work out of the box.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := s.applyLedgerEntry(ctx, tx, ledgerEntryParams{
		UserId:    buyer.Id,
		EntryType: "seed_credit",
		Amount:    decimal.NewFromInt(10),
		Reference: "seed:" + buyer.Id,
		Detail:    "demo fixture balance",
	}); err != nil && !errors.Is(err, store.ErrDuplicateTransaction) {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	zap.L().Info("Seeded demo data",
		zap.String("admin_id", admin.Id),
		zap.String("owner_id", owner.Id),
		zap.String("buyer_id", buyer.Id))
	return nil
}

// roundZec normalizes an amount to the ledger's fixed 8-decimal precision.
func roundZec(d decimal.Decimal) decimal.Decimal {
	return d.Round(zecPlaces)
}

// parseDecimal converts a stored TEXT amount back into a decimal.
func parseDecimal(value, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse %s %q: %w", field, value, err)
	}
	return d, nil
}

// classifyErr translates driver-level failures into the engine's error
// taxonomy. SQLITE_BUSY after the busy timeout means the writer lock could
// not be acquired within the bounded wait; the operation is safe to retry.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked {
			return fmt.Errorf("%w: %v", store.ErrTransientLock, err)
		}
	}
	return err
}
