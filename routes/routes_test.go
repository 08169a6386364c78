package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/TimmyIsANerd/chamswap/database/dbtest"
	"github.com/TimmyIsANerd/chamswap/handlers"
	"github.com/TimmyIsANerd/chamswap/models"
	"github.com/TimmyIsANerd/chamswap/services"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testAPI struct {
	app    *fiber.App
	db     *gorm.DB
	tokens *services.TokenService
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db := dbtest.Open(t)
	timeout := 5 * time.Second
	identities := services.NewIdentityService(db, timeout)
	tokens := services.NewTokenService("test-secret", time.Hour)

	app := fiber.New()
	Setup(app, Handlers{
		Auth:     handlers.NewAuthHandler(services.NewAuthService(db, tokens, nil, "http://localhost:3000", timeout)),
		Settings: handlers.NewSettingsHandler(services.NewSettingsService(db, timeout)),
		Revenue:  handlers.NewRevenueHandler(services.NewRevenueService(db, identities, timeout)),
		Referral: handlers.NewReferralHandler(services.NewReferralService(db, identities, timeout)),
		User:     handlers.NewUserHandler(identities),
	}, tokens.Secret())
	return &testAPI{app: app, db: db, tokens: tokens}
}

func (a *testAPI) user(t *testing.T, role string) (*models.User, string) {
	t.Helper()
	email := role + "@example.com"
	u := models.User{Email: &email, Role: role, IsActive: true, EmailVerified: true}
	require.NoError(t, a.db.Create(&u).Error)
	token, err := a.tokens.Issue(&u)
	require.NoError(t, err)
	return &u, token
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func trade(wallet, hash, usd string) map[string]any {
	return map[string]any{
		"walletAddress":   wallet,
		"transactionHash": hash,
		"transactionTime": "2025-03-10T12:00:00Z",
		"tokenAmount":     "1.25",
		"tokenSymbol":     "ETH",
		"usdAmount":       usd,
	}
}

func TestRecordTransactionEndpoint(t *testing.T) {
	api := newTestAPI(t)

	status, raw := api.do(t, http.MethodPost, "/api/v1/revenue/transaction", "", trade("0xA", "0xh1", "3000"))
	require.Equal(t, http.StatusCreated, status, string(raw))
	status, raw = api.do(t, http.MethodPost, "/api/v1/revenue/transaction", "", trade("0xA", "0xh2", "1000"))
	require.Equal(t, http.StatusCreated, status, string(raw))

	created := decode[struct {
		Transaction models.Transaction `json:"transaction"`
	}](t, raw)
	assert.Equal(t, "4000", created.Transaction.TotalUsdTraded.String())

	status, _ = api.do(t, http.MethodPost, "/api/v1/revenue/transaction", "", trade("0xA", "0xh2", "1000"))
	assert.Equal(t, http.StatusConflict, status)

	status, raw = api.do(t, http.MethodPost, "/api/v1/revenue/transaction", "", map[string]any{"walletAddress": "0xA"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "transactionHash is required")
}

func TestRecordTransactionKeepsTokenAmountText(t *testing.T) {
	api := newTestAPI(t)

	body := trade("0xA", "0xh1", "10")
	body["tokenAmount"] = "1.50"
	status, raw := api.do(t, http.MethodPost, "/api/v1/revenue/transaction", "", body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	created := decode[struct {
		Transaction models.Transaction `json:"transaction"`
	}](t, raw)
	assert.Equal(t, "1.50", created.Transaction.TokenAmount)

	body = trade("0xA", "0xh2", "10")
	body["tokenAmount"] = json.Number("2.000")
	status, raw = api.do(t, http.MethodPost, "/api/v1/revenue/transaction", "", body)
	require.Equal(t, http.StatusCreated, status, string(raw))
	created = decode[struct {
		Transaction models.Transaction `json:"transaction"`
	}](t, raw)
	assert.Equal(t, "2.000", created.Transaction.TokenAmount)

	body = trade("0xA", "0xh3", "10")
	body["tokenAmount"] = "lots"
	status, _ = api.do(t, http.MethodPost, "/api/v1/revenue/transaction", "", body)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestWalletTransactionsRequireAuth(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.user(t, models.RoleUser)
	api.do(t, http.MethodPost, "/api/v1/revenue/transaction", "", trade("0xA", "0xh1", "10"))

	status, _ := api.do(t, http.MethodGet, "/api/v1/revenue/wallet/0xA", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw := api.do(t, http.MethodGet, "/api/v1/revenue/wallet/0xA?page=1&limit=5", token, nil)
	require.Equal(t, http.StatusOK, status)
	page := decode[map[string]any](t, raw)
	assert.EqualValues(t, 1, page["total"])
	assert.EqualValues(t, 1, page["pages"])
	assert.Len(t, page["transactions"], 1)
}

func TestAdminOnlyRevenueRoutes(t *testing.T) {
	api := newTestAPI(t)
	_, traderToken := api.user(t, models.RoleUser)
	_, adminToken := api.user(t, models.RoleAdmin)
	api.do(t, http.MethodPost, "/api/v1/revenue/transaction", "", trade("0xA", "0xh1", "10"))

	for _, path := range []string{"/api/v1/revenue/stats", "/api/v1/revenue/top-traders", "/api/v1/revenue/report"} {
		status, _ := api.do(t, http.MethodGet, path, traderToken, nil)
		assert.Equal(t, http.StatusForbidden, status, path)
	}

	status, raw := api.do(t, http.MethodGet, "/api/v1/revenue/stats?startDate=2025-03-10&endDate=2025-03-10", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	stats := decode[map[string]any](t, raw)
	assert.Equal(t, "10", stats["totalUsdVolume"])
	assert.EqualValues(t, 1, stats["totalTransactions"])

	status, _ = api.do(t, http.MethodGet, "/api/v1/revenue/stats?startDate=yesterday", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = api.do(t, http.MethodGet, "/api/v1/revenue/report", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, strings.HasPrefix(string(raw), "Transaction Hash,"))
}

func TestSettingsRoutes(t *testing.T) {
	api := newTestAPI(t)
	_, traderToken := api.user(t, models.RoleUser)
	_, adminToken := api.user(t, models.RoleAdmin)

	status, raw := api.do(t, http.MethodGet, "/api/v1/system/settings", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 0, decode[map[string]any](t, raw)["feeBps"])

	status, _ = api.do(t, http.MethodGet, "/api/v1/settings", traderToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	update := map[string]any{"feeAddress": "0xfee", "feePercentage": "0.25"}
	status, _ = api.do(t, http.MethodPost, "/api/v1/settings", traderToken, update)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = api.do(t, http.MethodPost, "/api/v1/settings", adminToken, update)
	require.Equal(t, http.StatusOK, status, string(raw))

	status, _ = api.do(t, http.MethodPost, "/api/v1/settings", adminToken, map[string]any{"feeAddress": "0xfee", "feePercentage": 101})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = api.do(t, http.MethodGet, "/api/v1/system/settings", "", nil)
	require.Equal(t, http.StatusOK, status)
	public := decode[map[string]any](t, raw)
	assert.Equal(t, "0xfee", public["feeAddress"])
	assert.EqualValues(t, 25, public["feeBps"])

	status, raw = api.do(t, http.MethodGet, "/api/v1/settings/history", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, raw), 1)
}

func TestReferralRoutes(t *testing.T) {
	api := newTestAPI(t)

	status, raw := api.do(t, http.MethodPost, "/api/v1/referral/code/wallet", "", map[string]any{"walletAddress": "0xA"})
	require.Equal(t, http.StatusOK, status, string(raw))
	code := decode[map[string]string](t, raw)["referralCode"]
	require.Len(t, code, 8)

	status, raw = api.do(t, http.MethodGet, "/api/v1/referral/validate/"+code, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, decode[map[string]any](t, raw)["valid"])

	status, _ = api.do(t, http.MethodGet, "/api/v1/referral/validate/NOPE2345", "", nil)
	assert.Equal(t, http.StatusNotFound, status)

	register := map[string]any{"referralCode": code, "walletAddress": "0xB"}
	status, _ = api.do(t, http.MethodPost, "/api/v1/referral/register", "", register)
	assert.Equal(t, http.StatusCreated, status)
	status, _ = api.do(t, http.MethodPost, "/api/v1/referral/register", "", register)
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(t, http.MethodPost, "/api/v1/referral/register", "", map[string]any{"referralCode": code, "walletAddress": "0xA"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = api.do(t, http.MethodGet, "/api/v1/referral/wallet/0xA", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, raw), 1)
}

func TestReferralCodeForAccount(t *testing.T) {
	api := newTestAPI(t)
	user, token := api.user(t, models.RoleUser)

	status, _ := api.do(t, http.MethodPost, "/api/v1/referral/code", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, raw := api.do(t, http.MethodPost, "/api/v1/referral/code", token, nil)
	require.Equal(t, http.StatusOK, status)
	code := decode[map[string]string](t, raw)["referralCode"]

	var stored models.User
	require.NoError(t, api.db.First(&stored, "id = ?", user.ID).Error)
	assert.Equal(t, code, *stored.ReferralCode)

	status, raw = api.do(t, http.MethodGet, "/api/v1/referral/mine", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, decode[[]map[string]any](t, raw))
}

func TestUserRoutes(t *testing.T) {
	api := newTestAPI(t)

	status, _ := api.do(t, http.MethodPost, "/api/v1/user/connect-wallet", "", map[string]any{"walletAddress": "0xA"})
	assert.Equal(t, http.StatusCreated, status)
	status, _ = api.do(t, http.MethodPost, "/api/v1/user/connect-wallet", "", map[string]any{"walletAddress": "0xA"})
	assert.Equal(t, http.StatusOK, status)

	api.do(t, http.MethodPost, "/api/v1/revenue/transaction", "", trade("0xA", "0xh1", "99.9"))

	status, raw := api.do(t, http.MethodGet, "/api/v1/user/trader/0xA", "", nil)
	require.Equal(t, http.StatusOK, status)
	profile := decode[map[string]any](t, raw)
	assert.EqualValues(t, 99, profile["totalPoints"])
	assert.Equal(t, "99.9", profile["totalTradingVolume"])

	status, _ = api.do(t, http.MethodGet, "/api/v1/user/trader/0xnobody", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAuthRoutes(t *testing.T) {
	api := newTestAPI(t)
	_, adminToken := api.user(t, models.RoleAdmin)
	_, rootToken := api.user(t, models.RoleSuperAdmin)

	status, _ := api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "nobody@example.com", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := api.do(t, http.MethodGet, "/api/v1/auth/me", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RoleAdmin, decode[map[string]any](t, raw)["role"])

	invite := map[string]any{"email": "new@example.com", "name": "New"}
	status, _ = api.do(t, http.MethodPost, "/api/v1/auth/admin", adminToken, invite)
	assert.Equal(t, http.StatusForbidden, status)

	status, raw = api.do(t, http.MethodPost, "/api/v1/auth/admin", rootToken, invite)
	require.Equal(t, http.StatusCreated, status, string(raw))
	created := decode[struct {
		User models.User `json:"user"`
	}](t, raw)

	status, raw = api.do(t, http.MethodGet, "/api/v1/auth/users?type=admin", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]map[string]any](t, raw), 3)

	status, _ = api.do(t, http.MethodDelete, "/api/v1/auth/admin/not-a-uuid", rootToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	status, _ = api.do(t, http.MethodDelete, "/api/v1/auth/admin/"+created.User.ID.String(), rootToken, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = api.do(t, http.MethodDelete, "/api/v1/auth/admin/"+created.User.ID.String(), rootToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSetPasswordEndpoint(t *testing.T) {
	api := newTestAPI(t)
	email := "invitee@example.com"
	invitee := models.User{Email: &email, Role: models.RoleAdmin, IsActive: true}
	invitee.IssueSetupToken(models.PasswordSetupToken{Value: strings.Repeat("a", 64), ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, api.db.WithContext(context.Background()).Create(&invitee).Error)

	body := map[string]any{"token": strings.Repeat("a", 64), "password": "s3cure-pass"}
	status, raw := api.do(t, http.MethodPost, "/api/v1/auth/set-password", "", body)
	require.Equal(t, http.StatusOK, status, string(raw))
	status, _ = api.do(t, http.MethodPost, "/api/v1/auth/set-password", "", body)
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw = api.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": email, "password": "s3cure-pass"})
	require.Equal(t, http.StatusOK, status, string(raw))
	assert.NotEmpty(t, decode[map[string]any](t, raw)["token"])
}
