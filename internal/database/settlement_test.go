package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/shopspring/decimal"
)

func TestSettle_Subscription(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	user := createTestUser(t, service, "alice")

	invoice, err := service.CreateSubscriptionInvoice(ctx, store.SubscriptionInvoiceParams{
		UserId: user.Id, PlanType: models.SubscriptionPremium, DurationMonths: 3,
	})
	if err != nil {
		t.Fatalf("Failed to create invoice: %v", err)
	}

	result, err := service.Settle(ctx, store.SettleParams{
		InvoiceId: invoice.Id, PaidAmount: invoice.AmountZec, Txid: "tx-sub-1",
	})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected successful settlement, got message %q", result.Message)
	}
	if result.ExpiresAt == nil {
		t.Fatal("Expected a subscription expiry in the result")
	}

	updated, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("Failed to reload user: %v", err)
	}
	if updated.SubscriptionStatus != models.SubscriptionPremium {
		t.Errorf("Expected premium status, got %s", updated.SubscriptionStatus)
	}
	if updated.SubscriptionExpiresAt == nil {
		t.Fatal("Expected subscription expiry on the user")
	}
	// Three months out, allow slack for test runtime.
	expected := time.Now().AddDate(0, 3, 0)
	if diff := updated.SubscriptionExpiresAt.Sub(expected); diff < -time.Minute || diff > time.Minute {
		t.Errorf("Expected expiry near %s, got %s", expected, updated.SubscriptionExpiresAt)
	}

	paid, err := service.GetInvoiceById(ctx, invoice.Id)
	if err != nil {
		t.Fatalf("Failed to reload invoice: %v", err)
	}
	if paid.Status != models.InvoicePaid {
		t.Errorf("Expected paid status, got %s", paid.Status)
	}
	if paid.PaidTxid != "tx-sub-1" {
		t.Errorf("Expected txid tx-sub-1, got %s", paid.PaidTxid)
	}
	// Settlement rewrites the invoice expiry from the quote window to the
	// plan expiry.
	if paid.ExpiresAt == nil {
		t.Fatal("Expected an expiry on the paid invoice")
	}
	if diff := paid.ExpiresAt.Sub(expected); diff < -time.Minute || diff > time.Minute {
		t.Errorf("Expected invoice expiry near %s, got %s", expected, paid.ExpiresAt)
	}
	if updated.SubscriptionExpiresAt != nil && !paid.ExpiresAt.Equal(*updated.SubscriptionExpiresAt) {
		t.Errorf("Invoice expiry %s should match user subscription expiry %s",
			paid.ExpiresAt, updated.SubscriptionExpiresAt)
	}
}

func TestSettle_AfterQuoteWindow(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	user := createTestUser(t, service, "alice")

	invoice, err := service.CreateSubscriptionInvoice(ctx, store.SubscriptionInvoiceParams{
		UserId: user.Id, PlanType: models.SubscriptionPremium, DurationMonths: 1,
	})
	if err != nil {
		t.Fatalf("Failed to create invoice: %v", err)
	}

	// Backdate the quote window so the confirmation arrives late.
	stale := time.Now().UTC().Add(-48 * time.Hour)
	if _, err := service.db.ExecContext(ctx,
		"UPDATE invoices SET expires_at = ? WHERE id = ?", stale, invoice.Id); err != nil {
		t.Fatalf("Failed to backdate invoice: %v", err)
	}

	// Funds confirmed on chain still settle.
	result, err := service.Settle(ctx, store.SettleParams{
		InvoiceId: invoice.Id, PaidAmount: invoice.AmountZec, Txid: "tx-late",
	})
	if err != nil {
		t.Fatalf("Settle after the quote window failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected successful settlement, got message %q", result.Message)
	}

	paid, err := service.GetInvoiceById(ctx, invoice.Id)
	if err != nil {
		t.Fatalf("Failed to reload invoice: %v", err)
	}
	if paid.Status != models.InvoicePaid {
		t.Errorf("Expected paid status, got %s", paid.Status)
	}
	updated, err := service.GetUserById(ctx, user.Id)
	if err != nil {
		t.Fatalf("Failed to reload user: %v", err)
	}
	if updated.SubscriptionStatus != models.SubscriptionPremium {
		t.Errorf("Expected premium status, got %s", updated.SubscriptionStatus)
	}
}

func TestSettle_DataAccessSplit(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, service, "owner")
	buyer := createTestUser(t, service, "buyer")
	createTestPackage(t, service, owner.Id, "pkg-1", models.PrivacyMonetizable)
	activateSubscription(t, service, buyer.Id)

	invoice, err := service.CreateDataAccessInvoice(ctx, store.DataAccessInvoiceParams{
		BuyerId:       buyer.Id,
		OwnerId:       owner.Id,
		DataPackageId: "pkg-1",
		DataType:      "defi_activity",
		AmountZec:     decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("Failed to create invoice: %v", err)
	}

	result, err := service.Settle(ctx, store.SettleParams{
		InvoiceId: invoice.Id, PaidAmount: decimal.NewFromInt(1), Txid: "tx-da-1",
	})
	if err != nil {
		t.Fatalf("Settle failed: %v", err)
	}

	// 1.0 splits 0.7 to the owner and 0.3 to the platform.
	if !result.OwnerShare.Equal(decimal.RequireFromString("0.7")) {
		t.Errorf("Expected owner share 0.7, got %s", result.OwnerShare.String())
	}
	if !result.PlatformShare.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("Expected platform share 0.3, got %s", result.PlatformShare.String())
	}
	if !result.OwnerShare.Add(result.PlatformShare).Equal(result.PaidAmountZec) {
		t.Error("Shares must sum to the paid amount exactly")
	}

	balance, err := service.GetUserBalance(ctx, owner.Id)
	if err != nil {
		t.Fatalf("Failed to read owner balance: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("0.7")) {
		t.Errorf("Expected owner balance 0.7, got %s", balance.String())
	}

	check, err := service.CheckAccess(ctx, buyer.Id, "pkg-1")
	if err != nil {
		t.Fatalf("CheckAccess failed: %v", err)
	}
	if !check.HasAccess {
		t.Error("Expected buyer to hold access after settlement")
	}
	if check.DataType != "defi_activity" {
		t.Errorf("Expected data type defi_activity, got %s", check.DataType)
	}

	earnings, err := service.ListEarningsByOwner(ctx, owner.Id, 10, 0)
	if err != nil {
		t.Fatalf("ListEarningsByOwner failed: %v", err)
	}
	if len(earnings) != 1 {
		t.Fatalf("Expected 1 earning, got %d", len(earnings))
	}
	if !earnings[0].AmountZec.Equal(decimal.RequireFromString("0.7")) {
		t.Errorf("Expected earning 0.7, got %s", earnings[0].AmountZec.String())
	}
	if !earnings[0].PlatformFeeZec.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("Expected platform fee 0.3, got %s", earnings[0].PlatformFeeZec.String())
	}
}

func TestSettle_ExactlyOnce(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, service, "owner")
	buyer := createTestUser(t, service, "buyer")
	createTestPackage(t, service, owner.Id, "pkg-1", models.PrivacyMonetizable)
	activateSubscription(t, service, buyer.Id)

	invoice, err := service.CreateDataAccessInvoice(ctx, store.DataAccessInvoiceParams{
		BuyerId:       buyer.Id,
		OwnerId:       owner.Id,
		DataPackageId: "pkg-1",
		DataType:      "defi_activity",
		AmountZec:     decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("Failed to create invoice: %v", err)
	}

	first, err := service.Settle(ctx, store.SettleParams{
		InvoiceId: invoice.Id, PaidAmount: decimal.NewFromInt(1), Txid: "tx-1",
	})
	if err != nil {
		t.Fatalf("First settle failed: %v", err)
	}
	if !first.Success {
		t.Fatalf("Expected first settlement to succeed, got %q", first.Message)
	}

	// Redelivered confirmation, same txid or a different one, must be a
	// no-op.
	second, err := service.Settle(ctx, store.SettleParams{
		InvoiceId: invoice.Id, PaidAmount: decimal.NewFromInt(1), Txid: "tx-2",
	})
	if err != nil {
		t.Fatalf("Second settle returned an error: %v", err)
	}
	if second.Success {
		t.Error("Expected replayed settlement to be reported as a no-op")
	}
	if second.Message != "invoice already paid" {
		t.Errorf("Expected already-paid message, got %q", second.Message)
	}

	balance, err := service.GetUserBalance(ctx, owner.Id)
	if err != nil {
		t.Fatalf("Failed to read owner balance: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("0.7")) {
		t.Errorf("Owner credited more than once: balance %s", balance.String())
	}

	earnings, err := service.ListEarningsByOwner(ctx, owner.Id, 10, 0)
	if err != nil {
		t.Fatalf("ListEarningsByOwner failed: %v", err)
	}
	if len(earnings) != 1 {
		t.Errorf("Expected 1 earning after replay, got %d", len(earnings))
	}

	if err := service.ReconcileUserBalance(ctx, owner.Id); err != nil {
		t.Errorf("Owner ledger does not reconcile: %v", err)
	}
}

func TestSettle_Validation(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	user := createTestUser(t, service, "alice")

	invoice, err := service.CreateSubscriptionInvoice(ctx, store.SubscriptionInvoiceParams{
		UserId: user.Id, PlanType: models.SubscriptionPremium, DurationMonths: 1,
	})
	if err != nil {
		t.Fatalf("Failed to create invoice: %v", err)
	}

	_, err = service.Settle(ctx, store.SettleParams{
		InvoiceId: invoice.Id, PaidAmount: invoice.AmountZec,
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected validation error for missing txid, got %v", err)
	}

	_, err = service.Settle(ctx, store.SettleParams{
		InvoiceId: invoice.Id, PaidAmount: decimal.RequireFromString("0.001"), Txid: "tx-1",
	})
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected validation error for underpayment, got %v", err)
	}

	_, err = service.Settle(ctx, store.SettleParams{
		InvoiceId: "no-such-invoice", PaidAmount: decimal.NewFromInt(1), Txid: "tx-1",
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Expected not found for unknown invoice, got %v", err)
	}

	// The failed attempts must not have touched the invoice.
	reloaded, err := service.GetInvoiceById(ctx, invoice.Id)
	if err != nil {
		t.Fatalf("Failed to reload invoice: %v", err)
	}
	if reloaded.Status != models.InvoicePending {
		t.Errorf("Expected invoice still pending, got %s", reloaded.Status)
	}
}

func TestSettle_RepeatPurchaseResetsGrant(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	owner := createTestUser(t, service, "owner")
	buyer := createTestUser(t, service, "buyer")
	createTestPackage(t, service, owner.Id, "pkg-1", models.PrivacyMonetizable)
	activateSubscription(t, service, buyer.Id)

	buyAccess := func(txid string) {
		t.Helper()
		invoice, err := service.CreateDataAccessInvoice(ctx, store.DataAccessInvoiceParams{
			BuyerId:       buyer.Id,
			OwnerId:       owner.Id,
			DataPackageId: "pkg-1",
			DataType:      "defi_activity",
			AmountZec:     decimal.NewFromInt(1),
		})
		if err != nil {
			t.Fatalf("Failed to create invoice: %v", err)
		}
		if _, err := service.Settle(ctx, store.SettleParams{
			InvoiceId: invoice.Id, PaidAmount: decimal.NewFromInt(1), Txid: txid,
		}); err != nil {
			t.Fatalf("Settle failed: %v", err)
		}
	}

	buyAccess("tx-1")
	buyAccess("tx-2")

	grants, err := service.ListGrantsByBuyer(ctx, buyer.Id)
	if err != nil {
		t.Fatalf("ListGrantsByBuyer failed: %v", err)
	}
	if len(grants) != 1 {
		t.Fatalf("Expected a single grant row after repeat purchase, got %d", len(grants))
	}
	if !grants[0].AmountPaidZec.Equal(decimal.NewFromInt(2)) {
		t.Errorf("Expected accumulated paid amount 2, got %s", grants[0].AmountPaidZec.String())
	}

	// Owner was credited for both purchases.
	balance, err := service.GetUserBalance(ctx, owner.Id)
	if err != nil {
		t.Fatalf("Failed to read owner balance: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("1.4")) {
		t.Errorf("Expected owner balance 1.4, got %s", balance.String())
	}
}
