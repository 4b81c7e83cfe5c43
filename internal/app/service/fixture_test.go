package service

import (
	"sync"
	"testing"
	"time"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *recordingBroadcaster) Publish(eventType string, _ interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, eventType)
}

func (b *recordingBroadcaster) Events() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.events...)
}

type sentMail struct {
	to, subject, body string
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type serviceFixture struct {
	db            *gorm.DB
	apps          repository.ApplicationRepository
	users         repository.UserRepository
	stores        repository.StoreRepository
	products      repository.ProductRepository
	notifRepo     repository.NotificationRepository
	notifications NotificationService
	applications  ApplicationService
	admin         AdminService
	broadcaster   *recordingBroadcaster
	mailer        *recordingMailer
}

func setupServiceTest(t *testing.T) *serviceFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	f := &serviceFixture{
		db:          testDB,
		apps:        repository.NewApplicationRepository(testDB),
		users:       repository.NewUserRepository(testDB),
		stores:      repository.NewStoreRepository(testDB),
		products:    repository.NewProductRepository(testDB),
		notifRepo:   repository.NewNotificationRepository(testDB),
		broadcaster: &recordingBroadcaster{},
		mailer:      &recordingMailer{},
	}
	f.notifications = NewNotificationService(f.notifRepo, f.users)
	f.applications = NewApplicationService(testDB, f.apps, f.users, f.stores, f.notifications, nil, f.broadcaster, f.mailer)
	f.admin = NewAdminService(f.apps, f.users, f.stores, f.products, f.notifications, f.broadcaster)
	return f
}

func (f *serviceFixture) createUser(t *testing.T, email string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		PasswordHash: "not-a-real-hash",
		Name:         "Test " + string(role),
		Role:         role,
		Status:       model.UserStatusActive,
	}
	require.NoError(t, f.users.Create(user))
	return user
}

func newPendingApplication(owner, email, phone, storeName string) *model.StoreApplication {
	now := time.Now().UTC()
	return &model.StoreApplication{
		OwnerName:                  owner,
		Email:                      email,
		Phone:                      phone,
		StoreName:                  storeName,
		StoreType:                  model.StoreTypeGeneral,
		Location:                   "Owino Market, Kampala",
		BusinessRegistrationNumber: "BRN-77",
		TaxID:                      "TIN-77",
		IDType:                     model.IDTypePassport,
		IDNumber:                   "P998877",
		IDFrontURL:                 "https://cdn.example.com/front.jpg",
		IDBackURL:                  "https://cdn.example.com/back.jpg",
		SelfieWithIDURL:            "https://cdn.example.com/selfie.jpg",
		BusinessCertificateURL:     "https://cdn.example.com/cert.pdf",
		UtilityBillURL:             "https://cdn.example.com/bill.pdf",
		TermsAcceptedAt:            now,
	}
}

var testAdmin = Actor{
	UserID:    900,
	Role:      model.RoleAdmin,
	IPAddress: "10.0.0.1",
	UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
}
