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

const (
	// User queries
	queryInsertUser = `
		INSERT INTO users (id, name, email, role) VALUES (?, ?, ?, ?)
		RETURNING id, name, email, role, balance_zec, subscription_status, subscription_expires_at, created_at, updated_at`

	queryGetUserById = `
		SELECT id, name, email, role, balance_zec, subscription_status, subscription_expires_at, created_at, updated_at
		FROM users
		WHERE id = ?`

	queryGetUserByEmail = `
		SELECT id, name, email, role, balance_zec, subscription_status, subscription_expires_at, created_at, updated_at
		FROM users
		WHERE email = ?`

	queryGetUserBalance = `
		SELECT balance_zec FROM users WHERE id = ?`

	queryUpdateUserBalance = `
		UPDATE users
		SET balance_zec = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryUpdateUserSubscription = `
		UPDATE users
		SET subscription_status = ?, subscription_expires_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Wallet queries
	queryInsertWallet = `
		INSERT INTO wallets (id, owner_id, data_package_id, address, privacy_mode)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id, owner_id, data_package_id, address, privacy_mode, created_at, updated_at`

	queryGetWalletById = `
		SELECT id, owner_id, data_package_id, address, privacy_mode, created_at, updated_at
		FROM wallets
		WHERE id = ?`

	queryCountPackageWallets = `
		SELECT COUNT(*) FROM wallets WHERE data_package_id = ?`

	queryCountPackageWalletsByMode = `
		SELECT COUNT(*) FROM wallets WHERE data_package_id = ? AND privacy_mode = ?`

	queryGetPackageOwner = `
		SELECT owner_id FROM wallets WHERE data_package_id = ? LIMIT 1`

	queryUpdateWalletPrivacyMode = `
		UPDATE wallets
		SET privacy_mode = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	// Invoice queries
	queryInsertInvoice = `
		INSERT INTO invoices (id, user_id, type, amount_zec, status, payment_address, item_id, metadata, expires_at)
		VALUES (?, ?, ?, ?, 'pending', ?, ?, ?, ?)`

	queryGetInvoiceById = `
		SELECT id, user_id, type, amount_zec, status, payment_address, item_id, metadata,
		       paid_amount_zec, paid_txid, paid_at, expires_at, created_at
		FROM invoices
		WHERE id = ?`

	queryListUserInvoices = `
		SELECT id, user_id, type, amount_zec, status, payment_address, item_id, metadata,
		       paid_amount_zec, paid_txid, paid_at, expires_at, created_at
		FROM invoices
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`

	queryMarkInvoicePaid = `
		UPDATE invoices
		SET status = 'paid', paid_amount_zec = ?, paid_txid = ?, paid_at = ?, expires_at = ?
		WHERE id = ? AND status = 'pending'`

	// Ledger queries
	queryCheckDuplicateLedgerRef = `
		SELECT id FROM ledger_entries WHERE reference = ? LIMIT 1`

	queryInsertLedgerEntry = `
		INSERT INTO ledger_entries (id, user_id, entry_type, amount, balance_before, balance_after, reference, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetLedgerHistory = `
		SELECT id, user_id, entry_type, amount, balance_before, balance_after, reference, detail, created_at
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	queryGetLedgerAmounts = `
		SELECT amount FROM ledger_entries WHERE user_id = ?`

	// Access grant queries
	queryGetGrant = `
		SELECT id, buyer_id, data_owner_id, data_package_id, data_type, amount_paid_zec, granted_at, expires_at, updated_at
		FROM access_grants
		WHERE buyer_id = ? AND data_package_id = ?`

	queryInsertGrant = `
		INSERT INTO access_grants (id, buyer_id, data_owner_id, data_package_id, data_type, amount_paid_zec, granted_at, expires_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryUpdateGrant = `
		UPDATE access_grants
		SET amount_paid_zec = ?, expires_at = ?, updated_at = ?
		WHERE id = ?`

	queryListGrantsByBuyer = `
		SELECT id, buyer_id, data_owner_id, data_package_id, data_type, amount_paid_zec, granted_at, expires_at, updated_at
		FROM access_grants
		WHERE buyer_id = ?
		ORDER BY granted_at DESC`

	// Earning queries
	queryInsertEarning = `
		INSERT INTO earnings (id, owner_id, data_package_id, amount_zec, platform_fee_zec, buyer_id, invoice_id, earned_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryListEarningsByOwner = `
		SELECT id, owner_id, data_package_id, amount_zec, platform_fee_zec, buyer_id, invoice_id, earned_at
		FROM earnings
		WHERE owner_id = ?
		ORDER BY earned_at DESC
		LIMIT ? OFFSET ?`

	// Withdrawal queries
	queryInsertWithdrawal = `
		INSERT INTO withdrawals (id, user_id, amount_zec, fee_zec, net_zec, to_address, network, status, requested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', ?)`

	queryGetWithdrawalById = `
		SELECT id, user_id, amount_zec, fee_zec, net_zec, to_address, network, status, txid, failure_reason, requested_at, processed_at
		FROM withdrawals
		WHERE id = ?`

	queryListUserWithdrawals = `
		SELECT id, user_id, amount_zec, fee_zec, net_zec, to_address, network, status, txid, failure_reason, requested_at, processed_at
		FROM withdrawals
		WHERE user_id = ?
		ORDER BY requested_at DESC
		LIMIT ? OFFSET ?`

	queryUpdateWithdrawalStatus = `
		UPDATE withdrawals
		SET status = ?, txid = ?, failure_reason = ?, processed_at = ?
		WHERE id = ?`

	// Audit queries
	queryInsertAuditEntry = `
		INSERT INTO audit_log (id, entity_type, entity_id, action, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryListAuditTrail = `
		SELECT id, entity_type, entity_id, action, detail, created_at
		FROM audit_log
		WHERE entity_id = ?
		ORDER BY created_at ASC, id ASC`
)
