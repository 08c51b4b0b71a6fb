package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriptionStatus is the paid tier a user is on.
type SubscriptionStatus string

const (
	SubscriptionFree       SubscriptionStatus = "free"
	SubscriptionPremium    SubscriptionStatus = "premium"
	SubscriptionEnterprise SubscriptionStatus = "enterprise"
)

// PrivacyMode is the per-wallet visibility policy.
type PrivacyMode string

const (
	PrivacyPrivate     PrivacyMode = "private"
	PrivacyPublic      PrivacyMode = "public"
	PrivacyMonetizable PrivacyMode = "monetizable"
)

// InvoiceType discriminates the invoice metadata union.
type InvoiceType string

const (
	InvoiceSubscription InvoiceType = "subscription"
	InvoiceDataAccess   InvoiceType = "data_access"
)

// InvoiceStatus moves pending -> paid exactly once, never back.
type InvoiceStatus string

const (
	InvoicePending InvoiceStatus = "pending"
	InvoicePaid    InvoiceStatus = "paid"
)

// WithdrawalStatus state machine: pending -> processing -> sent,
// or pending|processing -> failed. sent and failed are terminal.
type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalSent       WithdrawalStatus = "sent"
	WithdrawalFailed     WithdrawalStatus = "failed"
)

// User holds the authoritative ZEC balance. Balance is mutated only by
// settlement credits and withdrawal debits/refunds, never set directly.
type User struct {
	Id                    string             `db:"id"`
	Name                  string             `db:"name"`
	Email                 string             `db:"email"`
	Role                  string             `db:"role"`
	Balance               decimal.Decimal    `db:"balance_zec"`
	SubscriptionStatus    SubscriptionStatus `db:"subscription_status"`
	SubscriptionExpiresAt *time.Time         `db:"subscription_expires_at"`
	CreatedAt             time.Time          `db:"created_at"`
	UpdatedAt             time.Time          `db:"updated_at"`
}

// Wallet is a tracked blockchain wallet inside a data package.
type Wallet struct {
	Id            string      `db:"id"`
	OwnerId       string      `db:"owner_id"`
	DataPackageId string      `db:"data_package_id"`
	Address       string      `db:"address"`
	PrivacyMode   PrivacyMode `db:"privacy_mode"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

// SubscriptionMetadata is the subscription variant of the invoice union.
type SubscriptionMetadata struct {
	PlanType       SubscriptionStatus `json:"plan_type"`
	DurationMonths int                `json:"duration_months"`
}

// DataAccessMetadata is the data_access variant of the invoice union.
type DataAccessMetadata struct {
	DataOwnerId   string `json:"data_owner_id"`
	DataPackageId string `json:"data_package_id"`
	DataType      string `json:"data_type"`
}

// InvoiceMetadata is a tagged union keyed by Invoice.Type: exactly one
// variant is set, and settlement checks the pairing exhaustively.
type InvoiceMetadata struct {
	Subscription *SubscriptionMetadata `json:"subscription,omitempty"`
	DataAccess   *DataAccessMetadata   `json:"data_access,omitempty"`
}

// Invoice is a payment request. Rows are never deleted.
type Invoice struct {
	Id             string          `db:"id"`
	UserId         string          `db:"user_id"`
	Type           InvoiceType     `db:"type"`
	AmountZec      decimal.Decimal `db:"amount_zec"`
	Status         InvoiceStatus   `db:"status"`
	PaymentAddress string          `db:"payment_address"`
	ItemId         string          `db:"item_id"`
	Metadata       InvoiceMetadata `db:"metadata"`
	PaidAmountZec  decimal.Decimal `db:"paid_amount_zec"`
	PaidTxid       string          `db:"paid_txid"`
	PaidAt         *time.Time      `db:"paid_at"`
	ExpiresAt      *time.Time      `db:"expires_at"`
	CreatedAt      time.Time       `db:"created_at"`
}

// AccessGrant is the single row per (buyer, package). Repeat purchases
// reset ExpiresAt and accumulate AmountPaidZec instead of inserting.
type AccessGrant struct {
	Id            string          `db:"id"`
	BuyerId       string          `db:"buyer_id"`
	DataOwnerId   string          `db:"data_owner_id"`
	DataPackageId string          `db:"data_package_id"`
	DataType      string          `db:"data_type"`
	AmountPaidZec decimal.Decimal `db:"amount_paid_zec"`
	GrantedAt     time.Time       `db:"granted_at"`
	ExpiresAt     time.Time       `db:"expires_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// Earning is an append-only record of the owner share of a settled
// data-access payment.
type Earning struct {
	Id             string          `db:"id"`
	OwnerId        string          `db:"owner_id"`
	DataPackageId  string          `db:"data_package_id"`
	AmountZec      decimal.Decimal `db:"amount_zec"`
	PlatformFeeZec decimal.Decimal `db:"platform_fee_zec"`
	BuyerId        string          `db:"buyer_id"`
	InvoiceId      string          `db:"invoice_id"`
	EarnedAt       time.Time       `db:"earned_at"`
}

// Withdrawal holds the gross amount, which is debited from the balance at
// creation time. A failed withdrawal refunds exactly the gross amount.
type Withdrawal struct {
	Id            string           `db:"id"`
	UserId        string           `db:"user_id"`
	AmountZec     decimal.Decimal  `db:"amount_zec"`
	FeeZec        decimal.Decimal  `db:"fee_zec"`
	NetZec        decimal.Decimal  `db:"net_zec"`
	ToAddress     string           `db:"to_address"`
	Network       string           `db:"network"`
	Status        WithdrawalStatus `db:"status"`
	Txid          string           `db:"txid"`
	FailureReason string           `db:"failure_reason"`
	RequestedAt   time.Time        `db:"requested_at"`
	ProcessedAt   *time.Time       `db:"processed_at"`
}

// LedgerEntry records one balance mutation with the surrounding balances.
// The Reference column is unique and is the exactly-once guard: re-applying
// the same credit or debit is rejected as a duplicate.
type LedgerEntry struct {
	Id            string          `db:"id"`
	UserId        string          `db:"user_id"`
	EntryType     string          `db:"entry_type"` // settlement_credit, withdrawal_debit, withdrawal_refund, seed_credit
	Amount        decimal.Decimal `db:"amount"`
	BalanceBefore decimal.Decimal `db:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after"`
	Reference     string          `db:"reference"`
	Detail        string          `db:"detail"`
	CreatedAt     time.Time       `db:"created_at"`
}

// AuditEntry is one immutable row in the audit log.
type AuditEntry struct {
	Id         string    `db:"id"`
	EntityType string    `db:"entity_type"` // wallet, invoice, withdrawal
	EntityId   string    `db:"entity_id"`
	Action     string    `db:"action"`
	Detail     string    `db:"detail"`
	CreatedAt  time.Time `db:"created_at"`
}
