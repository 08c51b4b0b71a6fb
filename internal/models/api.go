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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceReceipt is returned to the payer after invoice creation and on
// payment-status reads.
type InvoiceReceipt struct {
	InvoiceId      string          `json:"invoice_id"`
	Type           InvoiceType     `json:"type"`
	AmountZec      decimal.Decimal `json:"amount_zec"`
	PaymentAddress string          `json:"payment_address"`
	Status         InvoiceStatus   `json:"status"`
	PaidAmountZec  decimal.Decimal `json:"paid_amount_zec,omitempty"`
	PaidTxid       string          `json:"paid_txid,omitempty"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
}

// SettlementResult is the outcome of applying a confirmed payment.
// Success=false with a Message means the call was a safe no-op
// (already-paid invoice or duplicate txid).
type SettlementResult struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	InvoiceId     string          `json:"invoice_id"`
	InvoiceType   InvoiceType     `json:"invoice_type,omitempty"`
	PaidAmountZec decimal.Decimal `json:"paid_amount_zec,omitempty"`
	OwnerShare    decimal.Decimal `json:"owner_share,omitempty"`
	PlatformShare decimal.Decimal `json:"platform_share,omitempty"`
	ExpiresAt     *time.Time      `json:"expires_at,omitempty"`
}

// WithdrawalReceipt is returned after a withdrawal request is accepted.
type WithdrawalReceipt struct {
	WithdrawalId string           `json:"withdrawal_id"`
	AmountZec    decimal.Decimal  `json:"amount_zec"`
	FeeZec       decimal.Decimal  `json:"fee_zec"`
	NetZec       decimal.Decimal  `json:"net_zec"`
	NewBalance   decimal.Decimal  `json:"new_balance"`
	Status       WithdrawalStatus `json:"status"`
}

// AccessDecision is the privacy gate verdict for one requester/package pair.
type AccessDecision struct {
	Allowed         bool        `json:"allowed"`
	Owner           bool        `json:"owner"`
	Anonymized      bool        `json:"anonymized"`
	RequiresPayment bool        `json:"requires_payment"`
	PrivacyMode     PrivacyMode `json:"privacy_mode,omitempty"`
	DataType        string      `json:"data_type,omitempty"`
	ExpiresAt       *time.Time  `json:"expires_at,omitempty"`
	Reason          string      `json:"reason,omitempty"`
}

// AccessCheck is the raw grant lookup, consumed by the privacy gate and by
// the read path of the analytics collaborators.
type AccessCheck struct {
	HasAccess bool       `json:"has_access"`
	DataType  string     `json:"data_type,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}
