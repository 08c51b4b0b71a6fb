package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/soyaya/boardling-sub002/internal/api"
	"github.com/soyaya/boardling-sub002/internal/auth"
	"github.com/soyaya/boardling-sub002/internal/config"
	"github.com/soyaya/boardling-sub002/internal/database"
	"github.com/soyaya/boardling-sub002/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server *Server
	db     *database.Service
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
	}, config.DefaultBilling(), nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	svc := api.NewSettlementService(db)
	srv := New(svc, models.ServerConfig{
		Port:      "0",
		JWTSecret: testJWTSecret,
		TokenTTL:  time.Hour,
	})

	return &testEnv{server: srv, db: db}
}

func (e *testEnv) createUser(t *testing.T, name, role string) (*models.User, string) {
	t.Helper()
	user, err := e.db.CreateUser(context.Background(), name, name+"-"+uuid.New().String()+"@test.dev", role)
	require.NoError(t, err)
	token, err := auth.GenerateToken(user.Id, user.Email, user.Role, testJWTSecret, time.Hour)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.server.engine.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, "GET", "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRegisterAndToken(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, "POST", "/auth/register", "", gin.H{
		"name": "Alice", "email": "alice@test.dev",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, "POST", "/auth/token", "", gin.H{"email": "alice@test.dev"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")

	w = env.do(t, "POST", "/auth/token", "", gin.H{"email": "nobody@test.dev"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEndpointsRequireAuth(t *testing.T) {
	env := setupTestEnv(t)

	for _, path := range []string{"/api/v1/balance", "/api/v1/invoices", "/api/v1/withdrawals"} {
		w := env.do(t, "GET", path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "path %s", path)
	}
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	env := setupTestEnv(t)
	_, userToken := env.createUser(t, "alice", "user")

	w := env.do(t, "POST", "/internal/payments/confirm", userToken, gin.H{
		"invoice_id": "x", "paid_amount_zec": "1", "txid": "tx",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// TestPurchaseFlow drives the full monetization path over HTTP: wallet
// registration, subscription purchase, data-access purchase, privacy gate,
// then a payout that fails and refunds.
func TestPurchaseFlow(t *testing.T) {
	env := setupTestEnv(t)
	owner, ownerToken := env.createUser(t, "owner", "user")
	_, buyerToken := env.createUser(t, "buyer", "user")
	_, adminToken := env.createUser(t, "admin", "admin")

	// Owner registers a monetizable wallet.
	w := env.do(t, "POST", "/api/v1/wallets", ownerToken, gin.H{
		"data_package_id": "pkg-defi",
		"address":         "t1" + strings.Repeat("Z", 33),
		"privacy_mode":    "monetizable",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Buyer subscribes: invoice, then the observer confirms payment.
	w = env.do(t, "POST", "/api/v1/invoices/subscription", buyerToken, gin.H{
		"plan_type": "premium", "duration_months": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var subInvoice models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &subInvoice))

	w = env.do(t, "POST", "/internal/payments/confirm", adminToken, gin.H{
		"invoice_id": subInvoice.Id, "paid_amount_zec": "0.01", "txid": "tx-sub",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Before purchase the privacy gate demands payment.
	w = env.do(t, "GET", "/api/v1/packages/pkg-defi/access", buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var decision models.AccessDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.False(t, decision.Allowed)
	assert.True(t, decision.RequiresPayment)

	// Buyer purchases access for 1 ZEC.
	w = env.do(t, "POST", "/api/v1/invoices/data-access", buyerToken, gin.H{
		"owner_id":        owner.Id,
		"data_package_id": "pkg-defi",
		"data_type":       "defi_activity",
		"amount_zec":      "1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var daInvoice models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &daInvoice))

	w = env.do(t, "POST", "/internal/payments/confirm", adminToken, gin.H{
		"invoice_id": daInvoice.Id, "paid_amount_zec": "1", "txid": "tx-da",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var result models.SettlementResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "0.7", result.OwnerShare.String())

	// Replayed confirmation reports success=false with 200.
	w = env.do(t, "POST", "/internal/payments/confirm", adminToken, gin.H{
		"invoice_id": daInvoice.Id, "paid_amount_zec": "1", "txid": "tx-da-replay",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)

	// Now the gate opens, anonymized.
	w = env.do(t, "GET", "/api/v1/packages/pkg-defi/access", buyerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.True(t, decision.Allowed)
	assert.True(t, decision.Anonymized)

	// Owner sees the earning and the credited balance.
	w = env.do(t, "GET", "/api/v1/balance", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0.7")

	w = env.do(t, "GET", "/api/v1/earnings", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pkg-defi")

	// Owner withdraws 0.5 ZEC, the payout fails, the refund lands.
	w = env.do(t, "POST", "/api/v1/withdrawals", ownerToken, gin.H{
		"amount_zec": "0.5",
		"to_address": "t1" + strings.Repeat("Q", 33),
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var receipt models.WithdrawalReceipt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &receipt))
	assert.Equal(t, "0.01", receipt.FeeZec.String())
	assert.Equal(t, "0.49", receipt.NetZec.String())

	w = env.do(t, "POST", "/internal/withdrawals/"+receipt.WithdrawalId+"/fail", adminToken, gin.H{
		"reason": "node unavailable",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/v1/balance", ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "0.7")
}

func TestWithdrawalValidationOverHTTP(t *testing.T) {
	env := setupTestEnv(t)
	_, token := env.createUser(t, "alice", "user")

	// No funds at all: conflict, not validation.
	w := env.do(t, "POST", "/api/v1/withdrawals", token, gin.H{
		"amount_zec": "1",
		"to_address": "t1" + strings.Repeat("Z", 33),
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, "POST", "/api/v1/withdrawals", token, gin.H{
		"amount_zec": "not-a-number",
		"to_address": "t1" + strings.Repeat("Z", 33),
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "POST", "/api/v1/withdrawals", token, gin.H{
		"amount_zec": "1",
		"to_address": "bogus",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvoiceOwnershipHidden(t *testing.T) {
	env := setupTestEnv(t)
	_, aliceToken := env.createUser(t, "alice", "user")
	_, bobToken := env.createUser(t, "bob", "user")

	w := env.do(t, "POST", "/api/v1/invoices/subscription", aliceToken, gin.H{
		"plan_type": "premium", "duration_months": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var invoice models.Invoice
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &invoice))

	// Bob cannot see Alice's invoice.
	w = env.do(t, "GET", "/api/v1/invoices/"+invoice.Id, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, "GET", "/api/v1/invoices/"+invoice.Id, aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPrivacyModeUpdateOverHTTP(t *testing.T) {
	env := setupTestEnv(t)
	_, ownerToken := env.createUser(t, "owner", "user")
	_, strangerToken := env.createUser(t, "stranger", "user")

	w := env.do(t, "POST", "/api/v1/wallets", ownerToken, gin.H{
		"data_package_id": "pkg-1",
		"address":         "t1" + strings.Repeat("Z", 33),
		"privacy_mode":    "private",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var wallet models.Wallet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &wallet))

	w = env.do(t, "PUT", "/api/v1/wallets/"+wallet.Id+"/privacy", strangerToken, gin.H{
		"privacy_mode": "public",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, "PUT", "/api/v1/wallets/"+wallet.Id+"/privacy", ownerToken, gin.H{
		"privacy_mode": "public",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, "GET", "/api/v1/packages/pkg-1/access", strangerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var decision models.AccessDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.True(t, decision.Allowed)
}
