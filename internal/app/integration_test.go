package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/config"
	"github.com/grocerly/grocerly-backend/internal/app/controller"
	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	"github.com/grocerly/grocerly-backend/internal/db"
	"github.com/grocerly/grocerly-backend/internal/intake"
	"github.com/grocerly/grocerly-backend/internal/middleware"
	"github.com/grocerly/grocerly-backend/internal/router"
	"github.com/grocerly/grocerly-backend/internal/storage"
	"github.com/grocerly/grocerly-backend/internal/websocket"
	"github.com/grocerly/grocerly-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const integrationSecret = "integration-secret"

type noStorage struct{}

func (noStorage) PresignDocument(context.Context, model.DocumentKind, string, string, int64) (*storage.PresignedUpload, error) {
	return nil, storage.ErrInvalidKind
}

type TestServer struct {
	Router *gin.Engine
	DB     *gorm.DB
	Users  repository.UserRepository
}

func setupIntegrationTest(t *testing.T) *TestServer {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	cfg := &config.Config{
		Server:      config.ServerConfig{GinMode: gin.TestMode},
		CORS:        config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Marketplace: config.MarketplaceConfig{ServiceCity: "Kampala", DraftTTL: time.Hour},
		RateLimit:   config.RateLimitConfig{SubmitPerMinute: 50, LoginPerMinute: 50},
	}

	appRepo := repository.NewApplicationRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)
	storeRepo := repository.NewStoreRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)

	hub := websocket.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	notifications := service.NewNotificationService(repository.NewNotificationRepository(testDB), userRepo)
	applications := service.NewApplicationService(testDB, appRepo, userRepo, storeRepo, notifications, nil, hub, nil)
	intakeSvc := service.NewIntakeService(intake.NewWizard(cfg.Marketplace.ServiceCity), intake.NewMemoryDraftStore(cfg.Marketplace.DraftTTL), applications)
	admin := service.NewAdminService(appRepo, userRepo, storeRepo, productRepo, notifications, hub)
	auth := service.NewAuthService(userRepo, integrationSecret, 15*time.Minute, time.Hour)
	stores := service.NewStoreService(storeRepo)
	products := service.NewProductService(productRepo, stores, hub)

	r := router.NewRouter(
		router.Controllers{
			Auth:         controller.NewAuthController(auth),
			Intake:       controller.NewIntakeController(intakeSvc),
			Applications: controller.NewApplicationController(applications),
			Admin:        controller.NewAdminController(admin),
			Upload:       controller.NewUploadController(noStorage{}),
			Notification: controller.NewNotificationController(notifications),
			Stores:       controller.NewStoreController(stores, products),
			Products:     controller.NewProductController(products),
			WS:           controller.NewWSController(hub, cfg.CORS.AllowedOrigins),
		},
		middleware.NewAuthMiddleware(integrationSecret),
		nil,
		cfg,
	)

	return &TestServer{Router: r.Setup(), DB: testDB, Users: userRepo}
}

func (s *TestServer) adminToken(t *testing.T) string {
	t.Helper()
	admin := &model.User{
		Email:        "reviewer@grocerly.app",
		PasswordHash: "unused",
		Name:         "Reviewer",
		Role:         model.RoleAdmin,
		Status:       model.UserStatusActive,
	}
	require.NoError(t, s.Users.Create(admin))
	tokens, err := util.GenerateTokenPair(admin.ID, admin.Email, string(admin.Role), integrationSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func (s *TestServer) request(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
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
	s.Router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w.Code, out
}

func applicationForm(owner, email, storeName string) map[string]interface{} {
	return map[string]interface{}{
		"business_info": map[string]interface{}{
			"owner_name":                   owner,
			"email":                        email,
			"phone":                        "0701234567",
			"store_name":                   storeName,
			"store_type":                   "general",
			"location":                     "Owino Market, Kampala",
			"business_registration_number": "BRN-9",
			"tax_id":                       "TIN-9",
		},
		"identity_docs": map[string]interface{}{
			"id_type":            "national_id",
			"id_number":          "CM77",
			"id_front_url":       "https://cdn.example.com/f.jpg",
			"id_back_url":        "https://cdn.example.com/b.jpg",
			"selfie_with_id_url": "https://cdn.example.com/s.jpg",
		},
		"business_docs": map[string]interface{}{
			"business_certificate_url": "https://cdn.example.com/c.pdf",
			"utility_bill_url":         "https://cdn.example.com/u.pdf",
		},
		"terms": map[string]interface{}{"accepted": true},
	}
}

func listItems(t *testing.T, body map[string]interface{}) []map[string]interface{} {
	t.Helper()
	require.Contains(t, body, "applications")
	raw, _ := body["applications"].([]interface{})
	items := make([]map[string]interface{}, 0, len(raw))
	for _, item := range raw {
		items = append(items, item.(map[string]interface{}))
	}
	return items
}

func TestHealth(t *testing.T) {
	s := setupIntegrationTest(t)
	code, body := s.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
}

func TestStoreVerificationLifecycle(t *testing.T) {
	s := setupIntegrationTest(t)
	token := s.adminToken(t)

	// submit, then find it in the pending list
	code, body := s.request(t, http.MethodPost, "/api/store-applications", "", applicationForm("Tess Akello", "t@x.com", "Test Grocers"))
	require.Equal(t, http.StatusCreated, code, body)
	appID := uint(body["application"].(map[string]interface{})["id"].(float64))

	code, body = s.request(t, http.MethodGet, "/api/admin/store-owners?status=pending", token, nil)
	require.Equal(t, http.StatusOK, code)
	pending := listItems(t, body)
	require.Len(t, pending, 1)
	assert.Equal(t, "Test Grocers", pending[0]["store_name"])
	assert.Equal(t, "pending", pending[0]["verification_status"])

	// approve moves it from pending to approved
	code, body = s.request(t, http.MethodPost, "/api/admin/store-owners", token, map[string]interface{}{
		"action":       "approve",
		"storeOwnerId": appID,
	})
	require.Equal(t, http.StatusOK, code, body)

	_, body = s.request(t, http.MethodGet, "/api/admin/store-owners?status=pending", token, nil)
	assert.Empty(t, listItems(t, body))

	_, body = s.request(t, http.MethodGet, "/api/admin/store-owners?status=approved", token, nil)
	approved := listItems(t, body)
	require.Len(t, approved, 1)
	assert.Equal(t, "Test Grocers", approved[0]["store_name"])

	// a decided application stays decided
	code, body = s.request(t, http.MethodPatch, fmt.Sprintf("/api/admin/store-owners/%d", appID), token, map[string]string{
		"status": "rejected",
		"reason": "Too late",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "APPLICATION_ALREADY_DECIDED", body["error"])

	// reject a second application with an exact reason
	code, body = s.request(t, http.MethodPost, "/api/store-applications", "", applicationForm("Benson Okello", "okello@x.com", "Okello Fresh"))
	require.Equal(t, http.StatusCreated, code, body)
	secondID := uint(body["application"].(map[string]interface{})["id"].(float64))

	code, _ = s.request(t, http.MethodPost, "/api/admin/store-owners", token, map[string]interface{}{
		"action":       "reject",
		"storeOwnerId": secondID,
		"reason":       "   ",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.request(t, http.MethodPost, "/api/admin/store-owners", token, map[string]interface{}{
		"action":       "reject",
		"storeOwnerId": secondID,
		"reason":       "Incomplete documents",
	})
	require.Equal(t, http.StatusOK, code, body)
	rejected := body["application"].(map[string]interface{})
	assert.Equal(t, "rejected", rejected["verification_status"])
	assert.Equal(t, "Incomplete documents", rejected["rejection_reason"])

	// search is a case-insensitive substring match
	_, body = s.request(t, http.MethodGet, "/api/admin/store-owners?q=BEN", token, nil)
	found := listItems(t, body)
	require.Len(t, found, 1)
	assert.Equal(t, "Okello Fresh", found[0]["store_name"])

	// the approved store is public, the rejected one never existed
	code, body = s.request(t, http.MethodGet, "/api/stores", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, body["total"])

	// every listed status belongs to the closed set
	_, body = s.request(t, http.MethodGet, "/api/admin/store-owners?status=all", token, nil)
	for _, item := range listItems(t, body) {
		assert.Contains(t, []string{"pending", "approved", "rejected"}, item["verification_status"])
	}
}

func TestAdminRoutesRejectAnonymous(t *testing.T) {
	s := setupIntegrationTest(t)

	for _, path := range []string{"/api/admin/store-owners", "/api/admin/stats", "/api/admin/users", "/api/admin/ws"} {
		code, _ := s.request(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, code, path)
	}
}

func TestDraftCreationIsRateLimited(t *testing.T) {
	s := setupIntegrationTest(t)

	// SubmitPerMinute is 50 in the test config; drafts get twice that.
	for i := 0; i < 100; i++ {
		code, _ := s.request(t, http.MethodPost, "/api/store-applications/drafts", "", nil)
		require.Equal(t, http.StatusCreated, code, "draft %d", i)
	}
	code, _ := s.request(t, http.MethodPost, "/api/store-applications/drafts", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
}
