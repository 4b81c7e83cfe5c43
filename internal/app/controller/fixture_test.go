package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	"github.com/grocerly/grocerly-backend/internal/db"
	"github.com/grocerly/grocerly-backend/internal/intake"
	"github.com/grocerly/grocerly-backend/internal/middleware"
	"github.com/grocerly/grocerly-backend/pkg/util"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "controller-test-secret"

type controllerFixture struct {
	router        *gin.Engine
	db            *gorm.DB
	users         repository.UserRepository
	stores        repository.StoreRepository
	products      repository.ProductRepository
	applications  service.ApplicationService
	notifications service.NotificationService
	auth          service.AuthService
}

func setupControllerTest(t *testing.T) *controllerFixture {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	f := &controllerFixture{
		db:       testDB,
		users:    repository.NewUserRepository(testDB),
		stores:   repository.NewStoreRepository(testDB),
		products: repository.NewProductRepository(testDB),
	}
	appRepo := repository.NewApplicationRepository(testDB)
	f.notifications = service.NewNotificationService(repository.NewNotificationRepository(testDB), f.users)
	f.applications = service.NewApplicationService(testDB, appRepo, f.users, f.stores, f.notifications, nil, nil, nil)
	f.auth = service.NewAuthService(f.users, testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	admin := service.NewAdminService(appRepo, f.users, f.stores, f.products, f.notifications, nil)
	intakeSvc := service.NewIntakeService(intake.NewWizard("Kampala"), intake.NewMemoryDraftStore(time.Hour), f.applications)

	authCtrl := NewAuthController(f.auth)
	intakeCtrl := NewIntakeController(intakeSvc)
	appCtrl := NewApplicationController(f.applications)
	adminCtrl := NewAdminController(admin)
	notifCtrl := NewNotificationController(f.notifications)
	storeSvc := service.NewStoreService(f.stores)
	productSvc := service.NewProductService(f.products, storeSvc, nil)
	storeCtrl := NewStoreController(storeSvc, productSvc)
	productCtrl := NewProductController(productSvc)
	authMW := middleware.NewAuthMiddleware(testJWTSecret)

	router := gin.New()
	router.Use(middleware.LoggingMiddleware())

	router.POST("/auth/register", authCtrl.Register)
	router.POST("/auth/login", authCtrl.Login)
	router.POST("/auth/refresh", authCtrl.Refresh)
	router.GET("/auth/me", authMW.Authenticate(), authCtrl.GetMe)
	router.PUT("/auth/me", authMW.Authenticate(), authCtrl.UpdateMe)

	apps := router.Group("/store-applications", authMW.OptionalAuthenticate())
	apps.POST("", intakeCtrl.Submit)
	apps.POST("/drafts", intakeCtrl.CreateDraft)
	apps.GET("/drafts/:token", intakeCtrl.GetDraft)
	apps.PUT("/drafts/:token/steps/:step", intakeCtrl.SaveStep)
	apps.POST("/drafts/:token/submit", intakeCtrl.SubmitDraft)

	router.GET("/me/application", authMW.Authenticate(), appCtrl.Mine)
	router.GET("/me/store", authMW.Authenticate(), storeCtrl.Mine)
	ownerOnly := router.Group("/me/store/products", authMW.Authenticate(), authMW.RequireRole(model.RoleStoreOwner))
	ownerOnly.POST("", productCtrl.Create)
	ownerOnly.GET("", productCtrl.ListMine)

	router.GET("/stores", storeCtrl.List)
	router.GET("/stores/:slug", storeCtrl.Get)
	router.GET("/stores/:slug/products", storeCtrl.Products)

	notifs := router.Group("/notifications", authMW.Authenticate())
	notifs.GET("", notifCtrl.List)
	notifs.GET("/unread-count", notifCtrl.UnreadCount)
	notifs.PATCH("/read-all", notifCtrl.MarkAllAsRead)
	notifs.PATCH("/:id/read", notifCtrl.MarkAsRead)

	adminGroup := router.Group("/admin", authMW.Authenticate(), authMW.RequireAdmin())
	adminGroup.GET("/stats", adminCtrl.Stats)
	adminGroup.GET("/store-owners", appCtrl.List)
	adminGroup.GET("/store-owners/export", appCtrl.Export)
	adminGroup.GET("/store-owners/:id", appCtrl.Get)
	adminGroup.POST("/store-owners", appCtrl.Decide)
	adminGroup.PATCH("/store-owners/:id", appCtrl.UpdateStatus)
	adminGroup.GET("/users", adminCtrl.ListUsers)
	adminGroup.PATCH("/users/:id", adminCtrl.UpdateUser)
	adminGroup.DELETE("/users/:id", adminCtrl.DeleteUser)
	adminGroup.GET("/products/pending", adminCtrl.PendingProducts)
	adminGroup.PATCH("/products/:id", adminCtrl.ModerateProduct)
	adminGroup.GET("/stores", adminCtrl.ListStores)
	adminGroup.PATCH("/stores/:id", adminCtrl.UpdateStore)

	f.router = router
	return f
}

func (f *controllerFixture) createUser(t *testing.T, email string, role model.UserRole) *model.User {
	t.Helper()
	hash, err := util.HashPassword("password123")
	require.NoError(t, err)
	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Test " + string(role),
		Role:         role,
		Status:       model.UserStatusActive,
	}
	require.NoError(t, f.users.Create(user))
	return user
}

func tokenFor(t *testing.T, user *model.User) string {
	t.Helper()
	tokens, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testJWTSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func (f *controllerFixture) submit(t *testing.T, email, storeName string) *model.StoreApplication {
	t.Helper()
	app, err := f.applications.Submit(t.Context(), pendingApplication(email, storeName), service.RequestMeta{})
	require.NoError(t, err)
	return app
}

func pendingApplication(email, storeName string) *model.StoreApplication {
	return &model.StoreApplication{
		OwnerName:                  "Grace Namutebi",
		Email:                      email,
		Phone:                      "0772000111",
		StoreName:                  storeName,
		StoreType:                  model.StoreTypeGeneral,
		Location:                   "Nakasero Market, Kampala",
		BusinessRegistrationNumber: "BRN-10",
		TaxID:                      "TIN-10",
		IDType:                     model.IDTypeNationalID,
		IDNumber:                   "CM900",
		IDFrontURL:                 "https://cdn.example.com/front.jpg",
		IDBackURL:                  "https://cdn.example.com/back.jpg",
		SelfieWithIDURL:            "https://cdn.example.com/selfie.jpg",
		BusinessCertificateURL:     "https://cdn.example.com/cert.pdf",
		UtilityBillURL:             "https://cdn.example.com/bill.pdf",
		TermsAcceptedAt:            time.Now().UTC(),
	}
}

func doJSON(router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func actorFor(user *model.User) service.Actor {
	return service.Actor{UserID: user.ID, Role: user.Role, IPAddress: "10.0.0.1"}
}
