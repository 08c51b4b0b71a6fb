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

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/soyaya/boardling-sub002/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := getEnvDuration("TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	billing, err := LoadBilling(getEnvString("PLANS_FILE", "plans.yaml"))
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "boardling.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
			SeedDemoData:    getEnvBool("SEED_DEMO_DATA", false),
		},
		Server: models.ServerConfig{
			Port:            getEnvString("SERVER_PORT", "8080"),
			JWTSecret:       getEnvString("JWT_SECRET", ""),
			TokenTTL:        tokenTTL,
			ShutdownTimeout: shutdownTimeout,
		},
		Billing: *billing,
	}, nil
}

// billingFile is the on-disk shape of plans.yaml. Rates and limits are
// strings so they parse through decimal without float rounding.
type billingFile struct {
	Plans map[string]struct {
		MonthlyRateZec string `yaml:"monthly_rate_zec"`
	} `yaml:"plans"`
	OwnerSharePercent    string `yaml:"owner_share_percent"`
	WithdrawalFeePercent string `yaml:"withdrawal_fee_percent"`
	WithdrawalMinZec     string `yaml:"withdrawal_min_zec"`
	WithdrawalMaxZec     string `yaml:"withdrawal_max_zec"`
	InvoiceTTL           string `yaml:"invoice_ttl"`
}

// LoadBilling reads plan pricing and settlement parameters from a yaml
// file. A missing file is not an error, the built-in defaults apply.
func LoadBilling(path string) (*models.BillingConfig, error) {
	billing := DefaultBilling()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &billing, nil
		}
		return nil, fmt.Errorf("failed to read billing config %s: %w", path, err)
	}

	var file billingFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse billing config %s: %w", path, err)
	}

	for name, plan := range file.Plans {
		rate, err := decimal.NewFromString(plan.MonthlyRateZec)
		if err != nil {
			return nil, fmt.Errorf("invalid monthly rate for plan %s: %q (%w)", name, plan.MonthlyRateZec, err)
		}
		billing.Plans[models.SubscriptionStatus(name)] = models.PlanConfig{MonthlyRateZec: rate}
	}

	if err := overrideDecimal(&billing.OwnerSharePercent, "owner_share_percent", file.OwnerSharePercent); err != nil {
		return nil, err
	}
	if err := overrideDecimal(&billing.WithdrawalFeePercent, "withdrawal_fee_percent", file.WithdrawalFeePercent); err != nil {
		return nil, err
	}
	if err := overrideDecimal(&billing.WithdrawalMinZec, "withdrawal_min_zec", file.WithdrawalMinZec); err != nil {
		return nil, err
	}
	if err := overrideDecimal(&billing.WithdrawalMaxZec, "withdrawal_max_zec", file.WithdrawalMaxZec); err != nil {
		return nil, err
	}
	if file.InvoiceTTL != "" {
		ttl, err := time.ParseDuration(file.InvoiceTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid invoice_ttl: %q (%w)", file.InvoiceTTL, err)
		}
		billing.InvoiceTTL = ttl
	}

	return &billing, nil
}

// DefaultBilling returns the built-in pricing used when plans.yaml is
// absent or silent on a field.
func DefaultBilling() models.BillingConfig {
	return models.BillingConfig{
		Plans: map[models.SubscriptionStatus]models.PlanConfig{
			models.SubscriptionPremium:    {MonthlyRateZec: decimal.RequireFromString("0.01")},
			models.SubscriptionEnterprise: {MonthlyRateZec: decimal.RequireFromString("0.05")},
		},
		OwnerSharePercent:    decimal.NewFromInt(70),
		WithdrawalFeePercent: decimal.NewFromInt(2),
		WithdrawalMinZec:     decimal.RequireFromString("0.001"),
		WithdrawalMaxZec:     decimal.NewFromInt(100),
		InvoiceTTL:           24 * time.Hour,
	}
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func overrideDecimal(target *decimal.Decimal, field, value string) error {
	if value == "" {
		return nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %q (%w)", field, value, err)
	}
	*target = d
	return nil
}
