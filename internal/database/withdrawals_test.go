package database

import (
	"context"
	"errors"
	"testing"

	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"github.com/shopspring/decimal"
)

func TestCreateWithdrawal(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	user := createTestUser(t, service, "alice")
	fundUser(t, service, user.Id, decimal.NewFromInt(10))

	receipt, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{
		UserId:    user.Id,
		AmountZec: decimal.NewFromInt(5),
		ToAddress: testTransparentAddr,
		Network:   "mainnet",
	})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	// 2% fee on 5 ZEC: fee 0.1, net 4.9, gross 5 debited.
	if !receipt.FeeZec.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("Expected fee 0.1, got %s", receipt.FeeZec.String())
	}
	if !receipt.NetZec.Equal(decimal.RequireFromString("4.9")) {
		t.Errorf("Expected net 4.9, got %s", receipt.NetZec.String())
	}
	if !receipt.NewBalance.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected balance 5 after gross debit, got %s", receipt.NewBalance.String())
	}
	if receipt.Status != models.WithdrawalPending {
		t.Errorf("Expected pending status, got %s", receipt.Status)
	}

	balance, err := service.GetUserBalance(ctx, user.Id)
	if err != nil {
		t.Fatalf("Failed to read balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected stored balance 5, got %s", balance.String())
	}
}

func TestCreateWithdrawal_Validation(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	user := createTestUser(t, service, "alice")
	fundUser(t, service, user.Id, decimal.NewFromInt(10))

	cases := []struct {
		name   string
		params store.WithdrawalParams
		want   error
	}{
		{
			name: "below minimum",
			params: store.WithdrawalParams{
				UserId: user.Id, AmountZec: decimal.RequireFromString("0.0001"),
				ToAddress: testTransparentAddr, Network: "mainnet",
			},
			want: store.ErrValidation,
		},
		{
			name: "above maximum",
			params: store.WithdrawalParams{
				UserId: user.Id, AmountZec: decimal.NewFromInt(101),
				ToAddress: testTransparentAddr, Network: "mainnet",
			},
			want: store.ErrValidation,
		},
		{
			name: "bad address prefix",
			params: store.WithdrawalParams{
				UserId: user.Id, AmountZec: decimal.NewFromInt(1),
				ToAddress: "bc1qxyz", Network: "mainnet",
			},
			want: store.ErrValidation,
		},
		{
			name: "truncated transparent address",
			params: store.WithdrawalParams{
				UserId: user.Id, AmountZec: decimal.NewFromInt(1),
				ToAddress: "t1short", Network: "mainnet",
			},
			want: store.ErrValidation,
		},
		{
			name: "insufficient balance",
			params: store.WithdrawalParams{
				UserId: user.Id, AmountZec: decimal.NewFromInt(50),
				ToAddress: testTransparentAddr, Network: "mainnet",
			},
			want: store.ErrInsufficientBalance,
		},
		{
			name: "unknown user",
			params: store.WithdrawalParams{
				UserId: "no-such-user", AmountZec: decimal.NewFromInt(1),
				ToAddress: testTransparentAddr, Network: "mainnet",
			},
			want: store.ErrNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.CreateWithdrawal(ctx, tc.params)
			if !errors.Is(err, tc.want) {
				t.Errorf("Expected %v, got %v", tc.want, err)
			}
		})
	}

	// None of the failures may have touched the balance.
	balance, err := service.GetUserBalance(ctx, user.Id)
	if err != nil {
		t.Fatalf("Failed to read balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected balance 10 untouched, got %s", balance.String())
	}
}

func TestCreateWithdrawal_ShieldedAddress(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	user := createTestUser(t, service, "alice")
	fundUser(t, service, user.Id, decimal.NewFromInt(2))

	receipt, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{
		UserId:    user.Id,
		AmountZec: decimal.NewFromInt(1),
		ToAddress: testShieldedAddr,
		Network:   "mainnet",
	})
	if err != nil {
		t.Fatalf("CreateWithdrawal to shielded address failed: %v", err)
	}
	if receipt.Status != models.WithdrawalPending {
		t.Errorf("Expected pending status, got %s", receipt.Status)
	}
}

func TestWithdrawal_CompleteFlow(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	user := createTestUser(t, service, "alice")
	fundUser(t, service, user.Id, decimal.NewFromInt(10))

	receipt, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{
		UserId: user.Id, AmountZec: decimal.NewFromInt(5),
		ToAddress: testTransparentAddr, Network: "mainnet",
	})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	w, err := service.ProcessWithdrawal(ctx, receipt.WithdrawalId)
	if err != nil {
		t.Fatalf("ProcessWithdrawal failed: %v", err)
	}
	if w.Status != models.WithdrawalProcessing {
		t.Errorf("Expected processing status, got %s", w.Status)
	}

	w, err = service.CompleteWithdrawal(ctx, receipt.WithdrawalId, "zec-tx-abc")
	if err != nil {
		t.Fatalf("CompleteWithdrawal failed: %v", err)
	}
	if w.Status != models.WithdrawalSent {
		t.Errorf("Expected sent status, got %s", w.Status)
	}
	if w.Txid != "zec-tx-abc" {
		t.Errorf("Expected txid recorded, got %q", w.Txid)
	}

	// A sent withdrawal is terminal.
	if _, err := service.ProcessWithdrawal(ctx, receipt.WithdrawalId); !errors.Is(err, store.ErrStateConflict) {
		t.Errorf("Expected state conflict processing a sent withdrawal, got %v", err)
	}
	if _, err := service.FailWithdrawal(ctx, receipt.WithdrawalId, "too late"); !errors.Is(err, store.ErrStateConflict) {
		t.Errorf("Expected state conflict failing a sent withdrawal, got %v", err)
	}

	// Balance stays debited.
	balance, err := service.GetUserBalance(ctx, user.Id)
	if err != nil {
		t.Fatalf("Failed to read balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(5)) {
		t.Errorf("Expected balance 5 after completed withdrawal, got %s", balance.String())
	}
}

func TestWithdrawal_FailRefundsGross(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	user := createTestUser(t, service, "alice")
	fundUser(t, service, user.Id, decimal.NewFromInt(10))

	receipt, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{
		UserId: user.Id, AmountZec: decimal.NewFromInt(5),
		ToAddress: testTransparentAddr, Network: "mainnet",
	})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	if _, err := service.ProcessWithdrawal(ctx, receipt.WithdrawalId); err != nil {
		t.Fatalf("ProcessWithdrawal failed: %v", err)
	}

	w, err := service.FailWithdrawal(ctx, receipt.WithdrawalId, "node rejected transaction")
	if err != nil {
		t.Fatalf("FailWithdrawal failed: %v", err)
	}
	if w.Status != models.WithdrawalFailed {
		t.Errorf("Expected failed status, got %s", w.Status)
	}
	if w.FailureReason != "node rejected transaction" {
		t.Errorf("Expected failure reason recorded, got %q", w.FailureReason)
	}

	// The full gross amount comes back, fee included.
	balance, err := service.GetUserBalance(ctx, user.Id)
	if err != nil {
		t.Fatalf("Failed to read balance: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Expected balance restored to 10, got %s", balance.String())
	}

	if err := service.ReconcileUserBalance(ctx, user.Id); err != nil {
		t.Errorf("Ledger does not reconcile after refund: %v", err)
	}

	// Failed is terminal, no double refund.
	if _, err := service.FailWithdrawal(ctx, receipt.WithdrawalId, "again"); !errors.Is(err, store.ErrStateConflict) {
		t.Errorf("Expected state conflict on second fail, got %v", err)
	}
	balance, _ = service.GetUserBalance(ctx, user.Id)
	if !balance.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Balance refunded twice: %s", balance.String())
	}
}

func TestWithdrawal_CompleteFromPending(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	user := createTestUser(t, service, "alice")
	fundUser(t, service, user.Id, decimal.NewFromInt(2))

	receipt, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{
		UserId: user.Id, AmountZec: decimal.NewFromInt(1),
		ToAddress: testTransparentAddr, Network: "mainnet",
	})
	if err != nil {
		t.Fatalf("CreateWithdrawal failed: %v", err)
	}

	// Single-step processors skip the processing state.
	w, err := service.CompleteWithdrawal(ctx, receipt.WithdrawalId, "zec-tx-1")
	if err != nil {
		t.Fatalf("CompleteWithdrawal from pending failed: %v", err)
	}
	if w.Status != models.WithdrawalSent {
		t.Errorf("Expected sent status, got %s", w.Status)
	}

	if _, err := service.CompleteWithdrawal(ctx, receipt.WithdrawalId, ""); !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected validation error for empty txid, got %v", err)
	}
}

func TestListUserWithdrawals(t *testing.T) {
	service := setupTestService(t)
	ctx := context.Background()
	user := createTestUser(t, service, "alice")
	fundUser(t, service, user.Id, decimal.NewFromInt(10))

	for i := 0; i < 3; i++ {
		if _, err := service.CreateWithdrawal(ctx, store.WithdrawalParams{
			UserId: user.Id, AmountZec: decimal.NewFromInt(1),
			ToAddress: testTransparentAddr, Network: "mainnet",
		}); err != nil {
			t.Fatalf("CreateWithdrawal %d failed: %v", i, err)
		}
	}

	withdrawals, err := service.ListUserWithdrawals(ctx, user.Id, 10, 0)
	if err != nil {
		t.Fatalf("ListUserWithdrawals failed: %v", err)
	}
	if len(withdrawals) != 3 {
		t.Errorf("Expected 3 withdrawals, got %d", len(withdrawals))
	}
}
