package store

import (
	"context"
	"errors"

	"github.com/soyaya/boardling-sub002/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across the engine. Handlers map these to HTTP
// status codes with errors.Is; storage code wraps them with %w so the
// class survives context added along the way.
var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrStateConflict        = errors.New("state conflict")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrAuthorization        = errors.New("not authorized")
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrTransientLock is the only error class callers should retry:
	// every mutating operation re-checks its precondition, so a retry
	// is safe and idempotent.
	ErrTransientLock = errors.New("storage lock timeout")
)

// SubscriptionInvoiceParams contains the parameters for a subscription invoice.
type SubscriptionInvoiceParams struct {
	UserId         string
	PlanType       models.SubscriptionStatus
	DurationMonths int
}

// DataAccessInvoiceParams contains the parameters for a data-access invoice.
type DataAccessInvoiceParams struct {
	BuyerId       string
	OwnerId       string
	DataPackageId string
	DataType      string
	AmountZec     decimal.Decimal
}

// SettleParams is the payload reported by the external payment observer.
type SettleParams struct {
	InvoiceId  string
	PaidAmount decimal.Decimal
	Txid       string
}

// WithdrawalParams contains a user payout request.
type WithdrawalParams struct {
	UserId    string
	AmountZec decimal.Decimal
	ToAddress string
	Network   string
}

// CreateWalletParams registers a tracked wallet inside a data package.
type CreateWalletParams struct {
	OwnerId       string
	DataPackageId string
	Address       string
	PrivacyMode   models.PrivacyMode
}

// SettlementStore defines the contract the settlement engine requires from
// its storage backend. The SQLite implementation lives in internal/database.
type SettlementStore interface {
	// --- Users ---
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, name, email, role string) (*models.User, error)

	// --- Wallets ---
	CreateWallet(ctx context.Context, params CreateWalletParams) (*models.Wallet, error)
	GetWalletById(ctx context.Context, walletId string) (*models.Wallet, error)
	CountMonetizableWallets(ctx context.Context, dataPackageId string) (int, error)
	UpdatePrivacyMode(ctx context.Context, walletId string, mode models.PrivacyMode, requesterId string) (*models.Wallet, error)

	// --- Invoices ---
	CreateSubscriptionInvoice(ctx context.Context, params SubscriptionInvoiceParams) (*models.Invoice, error)
	CreateDataAccessInvoice(ctx context.Context, params DataAccessInvoiceParams) (*models.Invoice, error)
	GetInvoiceById(ctx context.Context, invoiceId string) (*models.Invoice, error)
	CheckInvoicePayment(ctx context.Context, invoiceId string) (*models.InvoiceReceipt, error)
	ListUserInvoices(ctx context.Context, userId string, limit, offset int) ([]models.Invoice, error)

	// --- Settlement ---
	Settle(ctx context.Context, params SettleParams) (*models.SettlementResult, error)

	// --- Balances ---
	GetUserBalance(ctx context.Context, userId string) (decimal.Decimal, error)
	GetLedgerHistory(ctx context.Context, userId string, limit, offset int) ([]models.LedgerEntry, error)
	ReconcileUserBalance(ctx context.Context, userId string) error

	// --- Access grants ---
	CheckAccess(ctx context.Context, buyerId, dataPackageId string) (*models.AccessCheck, error)
	ListGrantsByBuyer(ctx context.Context, buyerId string) ([]models.AccessGrant, error)
	ListEarningsByOwner(ctx context.Context, ownerId string, limit, offset int) ([]models.Earning, error)

	// --- Privacy gate ---
	ResolveAccess(ctx context.Context, dataPackageId, requesterId string) (*models.AccessDecision, error)

	// --- Withdrawals ---
	CreateWithdrawal(ctx context.Context, params WithdrawalParams) (*models.WithdrawalReceipt, error)
	GetWithdrawalById(ctx context.Context, withdrawalId string) (*models.Withdrawal, error)
	ListUserWithdrawals(ctx context.Context, userId string, limit, offset int) ([]models.Withdrawal, error)
	ProcessWithdrawal(ctx context.Context, withdrawalId string) (*models.Withdrawal, error)
	CompleteWithdrawal(ctx context.Context, withdrawalId, txid string) (*models.Withdrawal, error)
	FailWithdrawal(ctx context.Context, withdrawalId, reason string) (*models.Withdrawal, error)

	// --- Audit ---
	ListAuditTrail(ctx context.Context, entityId string) ([]models.AuditEntry, error)

	// --- Lifecycle ---
	Close()
}
