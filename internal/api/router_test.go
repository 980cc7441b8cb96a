package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"quickpay/internal/domain"
	"quickpay/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps every pooled handle on the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&domain.User{}, &domain.Wallet{}, &domain.Transaction{},
		&domain.Beneficiary{}, &domain.Notification{},
	))
	return db
}

// newTestRouter builds the router without Redis: caching and idempotency
// degrade to pass-through.
func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	return NewRouter(db, nil, testSecret), db
}

// newTestRouterWithRedis backs the router with a miniredis instance so the
// caching and idempotency paths are live.
func newTestRouterWithRedis(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRouter(db, rdb, testSecret), db
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func registerUser(t *testing.T, r *gin.Engine, email string) (token, walletID string) {
	t.Helper()
	w, body := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"first_name": "Test",
		"last_name":  "User",
		"email":      email,
		"password":   "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token = body["access_token"].(string)
	wallet := body["wallet"].(map[string]any)
	return token, wallet["wallet_id"].(string)
}

func seedAdmin(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &domain.User{
		FirstName: "Ops",
		LastName:  "Admin",
		Email:     email,
		Password:  string(hash),
		Role:      domain.RoleAdmin,
		Status:    domain.StatusActive,
	}
	require.NoError(t, db.Create(admin).Error)
	require.NoError(t, db.Create(&domain.Wallet{
		UserID:   admin.ID,
		WalletID: utils.NewPublicID("QP"),
		Balance:  decimal.Zero,
		Currency: "USD",
		Status:   domain.WalletStatusActive,
	}).Error)
	return admin
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t)
	w, body := doJSON(t, r, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestRegisterAddFundsAndSend(t *testing.T) {
	r, _ := newTestRouter(t)
	aliceToken, _ := registerUser(t, r, "alice@example.com")
	_, bobWalletID := registerUser(t, r, "bob@example.com")

	w, body := doJSON(t, r, http.MethodPost, "/api/wallet/add-funds", aliceToken, gin.H{"amount": "100.00"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	wallet := body["wallet"].(map[string]any)
	assert.Equal(t, "100", wallet["balance"])

	w, body = doJSON(t, r, http.MethodPost, "/api/transactions/send", aliceToken, gin.H{
		"wallet_id": bobWalletID,
		"amount":    "50.00",
		"note":      "lunch",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	txn := body["transaction"].(map[string]any)
	assert.Equal(t, "0.25", txn["fee"])
	assert.Equal(t, "50.25", txn["total_amount"])
	assert.Equal(t, "completed", txn["status"])

	w, body = doJSON(t, r, http.MethodGet, "/api/wallet", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	wallet = body["wallet"].(map[string]any)
	assert.Equal(t, "49.75", wallet["balance"])

	// Both parties see the transfer in their history.
	w, body = doJSON(t, r, http.MethodGet, "/api/transactions?type=sent", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	txns := body["transactions"].([]any)
	require.Len(t, txns, 1)
	assert.Equal(t, true, txns[0].(map[string]any)["is_sent"])

	// The transfer left a notification for the sender.
	w, body = doJSON(t, r, http.MethodGet, "/api/notifications", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["unread_count"])
}

func TestSendFailures(t *testing.T) {
	r, _ := newTestRouter(t)
	aliceToken, aliceWalletID := registerUser(t, r, "alice@example.com")
	_, bobWalletID := registerUser(t, r, "bob@example.com")
	_, _ = doJSON(t, r, http.MethodPost, "/api/wallet/add-funds", aliceToken, gin.H{"amount": "20.00"})

	cases := []struct {
		name   string
		body   gin.H
		status int
	}{
		{"insufficient funds", gin.H{"wallet_id": bobWalletID, "amount": "100.00"}, http.StatusUnprocessableEntity},
		{"self transfer", gin.H{"wallet_id": aliceWalletID, "amount": "5.00"}, http.StatusBadRequest},
		{"unknown receiver", gin.H{"wallet_id": "QP-DOESNOTEXIST", "amount": "5.00"}, http.StatusNotFound},
		{"amount below minimum", gin.H{"wallet_id": bobWalletID, "amount": "0.50"}, http.StatusBadRequest},
		{"amount above maximum", gin.H{"wallet_id": bobWalletID, "amount": "10001.00"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := doJSON(t, r, http.MethodPost, "/api/transactions/send", aliceToken, tc.body)
			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestAuthFailures(t *testing.T) {
	r, _ := newTestRouter(t)
	registerUser(t, r, "alice@example.com")

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"first_name": "Other",
		"last_name":  "Person",
		"email":      "alice@example.com",
		"password":   "secret123",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, r, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token := body["access_token"].(string)
	w, body = doJSON(t, r, http.MethodGet, "/api/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	// The password hash never leaves the server.
	_, leaked := user["password"]
	assert.False(t, leaked)
}

func TestSuspendedUserCannotLogin(t *testing.T) {
	r, db := newTestRouter(t)
	registerUser(t, r, "alice@example.com")
	require.NoError(t, db.Model(&domain.User{}).
		Where("email = ?", "alice@example.com").
		Update("status", domain.StatusSuspended).Error)

	w, _ := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBeneficiaryOwnership(t *testing.T) {
	r, _ := newTestRouter(t)
	aliceToken, _ := registerUser(t, r, "alice@example.com")
	bobToken, bobWalletID := registerUser(t, r, "bob@example.com")

	w, body := doJSON(t, r, http.MethodPost, "/api/beneficiaries", aliceToken, gin.H{
		"name":      "Bob",
		"email":     "bob@example.com",
		"wallet_id": bobWalletID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := body["beneficiary"].(map[string]any)["id"].(float64)
	path := "/api/beneficiaries/" + jsonNumber(id)

	// Another user cannot read, change or delete it.
	w, _ = doJSON(t, r, http.MethodGet, path, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = doJSON(t, r, http.MethodDelete, path, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = doJSON(t, r, http.MethodPut, path, aliceToken, gin.H{"relationship": "friend"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "friend", body["beneficiary"].(map[string]any)["relationship"])

	w, _ = doJSON(t, r, http.MethodDelete, path, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, path, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminSurface(t *testing.T) {
	r, db := newTestRouter(t)
	userToken, _ := registerUser(t, r, "alice@example.com")
	seedAdmin(t, db, "admin@example.com")

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "admin@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	adminToken := body["access_token"].(string)

	// Regular users are shut out of the admin surface.
	w, _ = doJSON(t, r, http.MethodGet, "/api/admin/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = doJSON(t, r, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), body["total"])

	// Adjust alice's wallet and verify the balance and audit record.
	var wallet domain.Wallet
	require.NoError(t, db.Joins("JOIN users ON users.id = wallets.user_id").
		Where("users.email = ?", "alice@example.com").First(&wallet).Error)
	w, body = doJSON(t, r, http.MethodPost, "/api/admin/wallets/"+jsonNumber(float64(wallet.ID))+"/adjust", adminToken, gin.H{
		"action": "add",
		"amount": "25.00",
		"note":   "goodwill credit",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "25", body["wallet"].(map[string]any)["balance"])
	assert.Equal(t, "admin_adjustment", body["transaction"].(map[string]any)["type"])

	// Deducting more than the balance is rejected without mutation.
	w, _ = doJSON(t, r, http.MethodPost, "/api/admin/wallets/"+jsonNumber(float64(wallet.ID))+"/adjust", adminToken, gin.H{
		"action": "deduct",
		"amount": "100.00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, body = doJSON(t, r, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	users := body["users"].(map[string]any)
	assert.Equal(t, float64(2), users["total"])
	assert.Equal(t, float64(1), users["admins"])
	revenue := body["revenue"].(map[string]any)
	assert.Equal(t, "0", revenue["total_fees"])

	// Suspend alice via the admin update endpoint.
	var alice domain.User
	require.NoError(t, db.Where("email = ?", "alice@example.com").First(&alice).Error)
	w, _ = doJSON(t, r, http.MethodPut, "/api/admin/users/"+jsonNumber(float64(alice.ID)), adminToken, gin.H{
		"status": "suspended",
	})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, r, http.MethodGet, "/api/wallet", userToken, nil)
	// Suspension does not revoke issued tokens, but login is refused.
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminTransactionsReport(t *testing.T) {
	r, db := newTestRouter(t)
	aliceToken, _ := registerUser(t, r, "alice@example.com")
	_, bobWalletID := registerUser(t, r, "bob@example.com")
	seedAdmin(t, db, "admin@example.com")
	_, _ = doJSON(t, r, http.MethodPost, "/api/wallet/add-funds", aliceToken, gin.H{"amount": "100.00"})
	_, _ = doJSON(t, r, http.MethodPost, "/api/transactions/send", aliceToken, gin.H{
		"wallet_id": bobWalletID, "amount": "10.00",
	})

	w, body := doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "admin@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	adminToken := body["access_token"].(string)

	w, body = doJSON(t, r, http.MethodGet, "/api/admin/transactions?type=transfer", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), body["total"])

	w, body = doJSON(t, r, http.MethodGet, "/api/admin/transactions", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["total"])

	// The user report carries per-user transfer counts.
	w, body = doJSON(t, r, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	byEmail := map[string]map[string]any{}
	for _, entry := range body["users"].([]any) {
		u := entry.(map[string]any)
		byEmail[u["email"].(string)] = u
	}
	assert.Equal(t, float64(1), byEmail["alice@example.com"]["sent_count"])
	assert.Equal(t, float64(0), byEmail["alice@example.com"]["received_count"])
	assert.Equal(t, float64(1), byEmail["bob@example.com"]["received_count"])
	assert.Equal(t, float64(0), byEmail["bob@example.com"]["sent_count"])
}

func TestSendIdempotencyKeyScopedPerUser(t *testing.T) {
	r, _ := newTestRouterWithRedis(t)
	aliceToken, _ := registerUser(t, r, "alice@example.com")
	bobToken, _ := registerUser(t, r, "bob@example.com")
	carolToken, carolWalletID := registerUser(t, r, "carol@example.com")
	_, _ = doJSON(t, r, http.MethodPost, "/api/wallet/add-funds", aliceToken, gin.H{"amount": "100.00"})
	_, _ = doJSON(t, r, http.MethodPost, "/api/wallet/add-funds", bobToken, gin.H{"amount": "100.00"})

	sendWithKey := func(token, key string) (*httptest.ResponseRecorder, map[string]any) {
		var buf bytes.Buffer
		require.NoError(t, json.NewEncoder(&buf).Encode(gin.H{"wallet_id": carolWalletID, "amount": "10.00"}))
		req := httptest.NewRequest(http.MethodPost, "/api/transactions/send", &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", key)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
		return w, decoded
	}

	w, body := sendWithKey(aliceToken, "shared-key")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	aliceTxnID := body["transaction"].(map[string]any)["transaction_id"].(string)

	// The same key from a different user must execute that user's transfer,
	// not replay the first user's stored response.
	w, body = sendWithKey(bobToken, "shared-key")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	bobTxnID := body["transaction"].(map[string]any)["transaction_id"].(string)
	assert.NotEqual(t, aliceTxnID, bobTxnID)

	w, body = doJSON(t, r, http.MethodGet, "/api/wallet", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "89.95", body["wallet"].(map[string]any)["balance"])
	w, body = doJSON(t, r, http.MethodGet, "/api/wallet", carolToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "20", body["wallet"].(map[string]any)["balance"])

	// Resubmission by the same user still replays without a second debit.
	w, body = sendWithKey(aliceToken, "shared-key")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, aliceTxnID, body["transaction"].(map[string]any)["transaction_id"])
	w, body = doJSON(t, r, http.MethodGet, "/api/wallet", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "89.95", body["wallet"].(map[string]any)["balance"])
}

func TestChangePassword(t *testing.T) {
	r, _ := newTestRouter(t)
	token, _ := registerUser(t, r, "alice@example.com")

	w, _ := doJSON(t, r, http.MethodPost, "/api/users/change-password", token, gin.H{
		"current_password": "wrong-password",
		"new_password":     "brand-new-secret",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = doJSON(t, r, http.MethodPost, "/api/users/change-password", token, gin.H{
		"current_password": "secret123",
		"new_password":     "brand-new-secret",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w, _ = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "brand-new-secret",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserDirectory(t *testing.T) {
	r, db := newTestRouter(t)
	aliceToken, _ := registerUser(t, r, "alice@example.com")
	registerUser(t, r, "bob@example.com")
	registerUser(t, r, "carol@example.com")
	require.NoError(t, db.Model(&domain.User{}).
		Where("email = ?", "carol@example.com").
		Update("status", domain.StatusSuspended).Error)

	w, body := doJSON(t, r, http.MethodGet, "/api/users", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	// The caller and suspended users are excluded.
	users := body["users"].([]any)
	require.Len(t, users, 1)
	entry := users[0].(map[string]any)
	assert.Equal(t, "bob@example.com", entry["email"])
	assert.Contains(t, entry["wallet_id"], "QP-")
}

func TestNotificationReadFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	aliceToken, _ := registerUser(t, r, "alice@example.com")
	bobToken, bobWalletID := registerUser(t, r, "bob@example.com")
	_, _ = doJSON(t, r, http.MethodPost, "/api/wallet/add-funds", aliceToken, gin.H{"amount": "100.00"})
	_, _ = doJSON(t, r, http.MethodPost, "/api/transactions/send", aliceToken, gin.H{
		"wallet_id": bobWalletID, "amount": "10.00",
	})

	w, body := doJSON(t, r, http.MethodGet, "/api/notifications", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(1), body["unread_count"])
	id := body["notifications"].([]any)[0].(map[string]any)["id"].(float64)
	path := "/api/notifications/" + jsonNumber(id) + "/read"

	// Only the owner may mark it read.
	w, _ = doJSON(t, r, http.MethodPut, path, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = doJSON(t, r, http.MethodPut, path, bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["notification"].(map[string]any)["is_read"])
	w, body = doJSON(t, r, http.MethodGet, "/api/notifications", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["unread_count"])

	// Read-all clears whatever arrived since.
	_, _ = doJSON(t, r, http.MethodPost, "/api/transactions/send", aliceToken, gin.H{
		"wallet_id": bobWalletID, "amount": "5.00",
	})
	w, body = doJSON(t, r, http.MethodPut, "/api/notifications/read-all", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["updated"])
	w, body = doJSON(t, r, http.MethodGet, "/api/notifications", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), body["unread_count"])
}

// jsonNumber renders a float64 decoded from JSON back as an integer path segment.
func jsonNumber(f float64) string {
	return strconv.Itoa(int(f))
}
