package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Billing  BillingConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	SeedDemoData    bool
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	JWTSecret       string
	TokenTTL        time.Duration
	ShutdownTimeout time.Duration
}

// PlanConfig holds the monthly rate for one subscription plan.
type PlanConfig struct {
	MonthlyRateZec decimal.Decimal
}

// BillingConfig carries the plan rates and settlement/withdrawal constants,
// loaded from plans.yaml with spec defaults when the file is absent.
type BillingConfig struct {
	Plans                map[SubscriptionStatus]PlanConfig
	OwnerSharePercent    decimal.Decimal // data-access owner share, default 70
	WithdrawalFeePercent decimal.Decimal // default 2
	WithdrawalMinZec     decimal.Decimal // default 0.001
	WithdrawalMaxZec     decimal.Decimal // default 100
	InvoiceTTL           time.Duration   // pending-invoice payment window
}
