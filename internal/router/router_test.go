package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"pg-manager/config"
	"pg-manager/internal/health"
	"pg-manager/internal/mocks"
	"pg-manager/internal/models"
	"pg-manager/internal/router"
	"pg-manager/internal/storage"
	"pg-manager/internal/stores"
	"pg-manager/internal/testdb"
	"pg-manager/internal/user"
)

const adminPassword = "admin-password"

type harness struct {
	t      *testing.T
	engine *gin.Engine
	events *mocks.Publisher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db := testdb.New(t)
	hasher := user.BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := hasher.Hash([]byte(adminPassword))
	require.NoError(t, err)
	admin := &models.User{Email: "admin@pg.local", PasswordHash: string(hash), Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, (&stores.GormUserStore{DB: db}).CreateUser(context.Background(), admin))

	backend, err := storage.NewLocalBackend(t.TempDir(), logger)
	require.NoError(t, err)

	cfg := &config.Config{
		Server: config.ServerConfig{CORSAllowedOrigins: []string{"http://localhost:3000"}},
		Auth: config.AuthConfig{
			JWTSecret:          "test-secret",
			AccessTokenTTL:     15 * time.Minute,
			RefreshTokenTTL:    24 * time.Hour,
			LoginRatePerMinute: 100,
		},
	}

	publisher := &mocks.Publisher{}
	hc := health.NewHealthChecker(db, "test")
	hc.SetReady(true)

	srv := router.New(router.Options{
		DB:     db,
		Config: cfg,
		Logger: logger,
		Events: publisher,
		Files:  storage.NewFileStore(backend, 1<<20, storage.DefaultAllowedExtensions),
		Health: hc,
		Hasher: hasher,
		Now:    func() time.Time { return time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC) },
	})

	return &harness{t: t, engine: srv.Engine, events: publisher}
}

func (h *harness) do(method, path, accessToken string, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(h.t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(h.t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

type registered struct {
	ID                uint   `json:"id"`
	TemporaryPassword string `json:"temporary_password"`
}

func (h *harness) register(adminToken, email string, roomID *uint) registered {
	h.t.Helper()
	body := map[string]interface{}{"email": email, "full_name": "Tenant " + email}
	if roomID != nil {
		body["room_id"] = *roomID
	}
	w := h.do(http.MethodPost, "/tenants", adminToken, body)
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())

	var reg registered
	decode(h.t, w, &reg)
	return reg
}

func (h *harness) createRoom(adminToken, number string, capacity int) uint {
	h.t.Helper()
	w := h.do(http.MethodPost, "/rooms", adminToken, map[string]interface{}{
		"room_number":  number,
		"floor":        1,
		"room_type":    "Single",
		"capacity":     capacity,
		"monthly_rent": 5000,
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())

	var room models.Room
	decode(h.t, w, &room)
	return room.ID
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		RequestID string `json:"request_id"`
	}
	decode(t, w, &body)
	assert.NotEmpty(t, body.RequestID)
	return body.Error.Code
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/rooms", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, w))
}

func TestRoomCapacityScenario(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@pg.local", adminPassword)

	roomID := h.createRoom(admin, "101", 1)
	h.register(admin, "a@example.com", &roomID)

	w := h.do(http.MethodPost, "/tenants", admin, map[string]interface{}{
		"email":     "b@example.com",
		"full_name": "B",
		"room_id":   roomID,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, w))

	w = h.do(http.MethodGet, "/rooms/available", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var available []models.Room
	decode(t, w, &available)
	assert.Empty(t, available)

	w = h.do(http.MethodGet, fmt.Sprintf("/rooms/%d", roomID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var room models.Room
	decode(t, w, &room)
	assert.Equal(t, 1, room.Occupancy)
	assert.False(t, room.Available)

	w = h.do(http.MethodDelete, fmt.Sprintf("/rooms/%d", roomID), admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPaymentFlowAndIsolation(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@pg.local", adminPassword)

	roomID := h.createRoom(admin, "201", 2)
	alice := h.register(admin, "alice@example.com", &roomID)
	bob := h.register(admin, "bob@example.com", &roomID)

	aliceToken := h.login("alice@example.com", alice.TemporaryPassword)
	bobToken := h.login("bob@example.com", bob.TemporaryPassword)

	payment := map[string]interface{}{
		"amount":         5000,
		"payment_date":   "2024-03-05",
		"payment_method": "UPI",
		"transaction_id": "TXN-1",
		"payment_month":  "2024-03-15",
	}

	w := h.do(http.MethodPost, "/payments", aliceToken, payment)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.RentPayment
	decode(t, w, &created)
	assert.Equal(t, models.PaymentPending, created.Status)
	assert.Equal(t, "2024-03-01", created.PaymentMonth.String())

	w = h.do(http.MethodPost, "/payments", aliceToken, payment)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPost, "/payments", admin, payment)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, "/payments", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bobPayments []models.RentPayment
	decode(t, w, &bobPayments)
	assert.Empty(t, bobPayments)

	w = h.do(http.MethodGet, fmt.Sprintf("/payments/%d", created.ID), bobToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodGet, fmt.Sprintf("/payments/%d", created.ID), aliceToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodPut, fmt.Sprintf("/payments/%d/verify", created.ID), aliceToken,
		map[string]string{"status": "Verified"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = h.do(http.MethodPut, fmt.Sprintf("/payments/%d/verify", created.ID), admin,
		map[string]string{"status": "Verified"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = h.do(http.MethodPut, fmt.Sprintf("/payments/%d/verify", created.ID), admin,
		map[string]string{"status": "Rejected"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATE", errorCode(t, w))

	w = h.do(http.MethodGet, "/reports/revenue?start_date=2024-03-01&end_date=2024-03-31", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var revenue struct {
		TotalRevenue     float64 `json:"total_revenue"`
		MonthlyBreakdown []struct {
			Month   string  `json:"month"`
			Revenue float64 `json:"revenue"`
		} `json:"monthly_breakdown"`
	}
	decode(t, w, &revenue)
	assert.Equal(t, 5000.0, revenue.TotalRevenue)
	require.Len(t, revenue.MonthlyBreakdown, 1)
	assert.Equal(t, "2024-03", revenue.MonthlyBreakdown[0].Month)

	w = h.do(http.MethodGet, "/notifications", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Verified"`)

	w = h.do(http.MethodGet, "/notifications", admin, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Contains(t, h.events.Subjects(), "pg.payment.reviewed")
}

func TestTenantSelfAccess(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@pg.local", adminPassword)

	alice := h.register(admin, "alice@example.com", nil)
	bob := h.register(admin, "bob@example.com", nil)
	aliceToken := h.login("alice@example.com", alice.TemporaryPassword)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, fmt.Sprintf("/tenants/%d", alice.ID), aliceToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, fmt.Sprintf("/tenants/%d", bob.ID), aliceToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/tenants", aliceToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/reports/occupancy", aliceToken, nil).Code)

	w := h.do(http.MethodGet, "/auth/me", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@example.com")

	w = h.do(http.MethodPost, "/maintenance", aliceToken, map[string]string{
		"category":    "Plumbing",
		"description": "leaking tap",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "tenants without a room cannot open requests")

	w = h.do(http.MethodPost, fmt.Sprintf("/tenants/%d/checkout", bob.ID), admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = h.do(http.MethodPost, fmt.Sprintf("/tenants/%d/checkout", bob.ID), admin, nil)
	assert.Equal(t, "INVALID_STATE", errorCode(t, w))
}

func TestMaintenanceLifecycle(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@pg.local", adminPassword)

	roomID := h.createRoom(admin, "301", 1)
	alice := h.register(admin, "alice@example.com", &roomID)
	aliceToken := h.login("alice@example.com", alice.TemporaryPassword)

	w := h.do(http.MethodPost, "/maintenance", aliceToken, map[string]string{
		"category":    "Electrical",
		"description": "fan not working",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var req models.MaintenanceRequest
	decode(t, w, &req)
	assert.Equal(t, models.MaintenanceOpen, req.Status)

	w = h.do(http.MethodPut, fmt.Sprintf("/maintenance/%d", req.ID), admin, map[string]string{"status": "Resolved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &req)
	assert.NotNil(t, req.ResolvedDate)

	w = h.do(http.MethodGet, "/maintenance/stats", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"Resolved":1`)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/maintenance/stats", aliceToken, nil).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/maintenance?status=Bogus", admin, nil).Code)
}

func TestUploadProof(t *testing.T) {
	h := newHarness(t)
	admin := h.login("admin@pg.local", adminPassword)

	upload := func(name, content string) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req, _ := http.NewRequest(http.MethodPost, "/payments/upload-proof", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+admin)
		w := httptest.NewRecorder()
		h.engine.ServeHTTP(w, req)
		return w
	}

	w := upload("receipt.png", "fake image bytes")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var stored storage.StoredFile
	decode(t, w, &stored)
	assert.True(t, strings.HasSuffix(stored.Filename, ".png"))
	assert.Contains(t, stored.Path, "payment_proofs/")

	w = upload("script.sh", "echo hi")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestRefreshAndLogout(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@pg.local", "password": adminPassword})
	require.Equal(t, http.StatusOK, w.Code)
	var tokens struct {
		RefreshToken string `json:"refresh_token"`
	}
	decode(t, w, &tokens)

	w = h.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rotated struct {
		RefreshToken string `json:"refresh_token"`
	}
	decode(t, w, &rotated)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)

	w = h.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": tokens.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "rotated tokens cannot be reused")

	w = h.do(http.MethodPost, "/auth/logout", "", map[string]string{"refresh_token": rotated.RefreshToken})
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": rotated.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProbes(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/readyz", "", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/health", "", nil).Code)
}
