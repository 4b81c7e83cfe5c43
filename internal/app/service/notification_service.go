package service

import (
	"errors"
	"fmt"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationService interface {
	List(userID uint, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error)
	UnreadCount(userID uint) (int64, error)
	MarkAsRead(notificationID, userID uint) error
	MarkAllAsRead(userID uint) error

	NotifyApplicationDecision(app *model.StoreApplication) error
	NotifyProductRejected(product *model.Product) error
	NotifyAccountStatus(user *model.User) error
	NotifyAdminsOfStaleApplications(apps []model.StoreApplication) (int, error)
}

type notificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
}

func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository) NotificationService {
	return &notificationService{repo: repo, userRepo: userRepo}
}

// List returns one page of the inbox together with the total and unread counts.
func (s *notificationService) List(userID uint, isRead *bool, page, pageSize int) ([]model.Notification, int64, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > repository.MaxPageSize {
		pageSize = repository.DefaultPageSize
	}

	items, total, err := s.repo.ListByUser(userID, isRead, pageSize, (page-1)*pageSize)
	if err != nil {
		logger.Error("Failed to list notifications", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, 0, 0, err
	}
	unread, err := s.repo.UnreadCount(userID)
	if err != nil {
		return nil, 0, 0, err
	}
	return items, total, unread, nil
}

func (s *notificationService) UnreadCount(userID uint) (int64, error) {
	return s.repo.UnreadCount(userID)
}

func (s *notificationService) MarkAsRead(notificationID, userID uint) error {
	if err := s.repo.MarkAsRead(notificationID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

func (s *notificationService) MarkAllAsRead(userID uint) error {
	return s.repo.MarkAllAsRead(userID)
}

func (s *notificationService) NotifyApplicationDecision(app *model.StoreApplication) error {
	if app.UserID == nil {
		return nil
	}

	appID := app.ID
	n := &model.Notification{
		UserID:               *app.UserID,
		RelatedApplicationID: &appID,
		Link:                 "/me/application",
	}
	switch app.VerificationStatus {
	case model.VerificationStatusApproved:
		n.Type = model.NotificationApplicationApproved
		n.Title = "Store approved"
		n.Content = fmt.Sprintf("%s has been approved and is now visible to shoppers.", app.StoreName)
	case model.VerificationStatusRejected:
		n.Type = model.NotificationApplicationRejected
		n.Title = "Store application rejected"
		n.Content = fmt.Sprintf("%s was not approved: %s", app.StoreName, app.RejectionReason)
	default:
		return nil
	}
	return s.repo.Create(n)
}

func (s *notificationService) NotifyProductRejected(product *model.Product) error {
	if product.Store == nil || product.Store.UserID == nil {
		return nil
	}
	productID := product.ID
	return s.repo.Create(&model.Notification{
		UserID:           *product.Store.UserID,
		Type:             model.NotificationProductRejected,
		Title:            "Product listing rejected",
		Content:          fmt.Sprintf("%s was rejected: %s", product.Name, product.RejectionReason),
		Link:             fmt.Sprintf("/products/%d", product.ID),
		RelatedProductID: &productID,
	})
}

func (s *notificationService) NotifyAccountStatus(user *model.User) error {
	content := fmt.Sprintf("Your account is now %s.", user.Status)
	if user.StatusReason != "" {
		content += " Reason: " + user.StatusReason
	}
	return s.repo.Create(&model.Notification{
		UserID:  user.ID,
		Type:    model.NotificationAccountStatus,
		Title:   "Account status changed",
		Content: content,
	})
}

// NotifyAdminsOfStaleApplications sends one reminder per admin per stale
// application and returns how many notifications were written.
func (s *notificationService) NotifyAdminsOfStaleApplications(apps []model.StoreApplication) (int, error) {
	if len(apps) == 0 {
		return 0, nil
	}
	admins, err := s.userRepo.FindByRoles(model.RoleAdmin, model.RoleMasterAdmin)
	if err != nil {
		return 0, err
	}
	if len(admins) == 0 {
		logger.Warn("No active admins to remind about pending applications", map[string]interface{}{
			"pending": len(apps),
		})
		return 0, nil
	}

	batch := make([]model.Notification, 0, len(apps)*len(admins))
	for i := range apps {
		appID := apps[i].ID
		for _, admin := range admins {
			batch = append(batch, model.Notification{
				UserID:               admin.ID,
				Type:                 model.NotificationApplicationReminder,
				Title:                "Application awaiting review",
				Content:              fmt.Sprintf("%s by %s has been pending since %s.", apps[i].StoreName, apps[i].OwnerName, apps[i].SubmittedAt.Format("2006-01-02")),
				Link:                 fmt.Sprintf("/admin/store-owners/%d", appID),
				RelatedApplicationID: &appID,
			})
		}
	}
	if err := s.repo.CreateBatch(batch); err != nil {
		logger.Error("Failed to create reminder notifications", err)
		return 0, err
	}
	return len(batch), nil
}
