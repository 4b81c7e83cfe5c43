package service

import (
	"context"
	"errors"
	"time"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/websocket"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrCannotModifySelf        = errors.New("admins cannot change or delete their own account")
	ErrInsufficientRole        = errors.New("only a master admin can manage admin accounts")
	ErrInvalidUserStatus       = errors.New("status must be active, suspended or banned")
	ErrProductNotFound         = errors.New("product not found")
	ErrProductAlreadyReviewed  = errors.New("product has already been reviewed")
	ErrInvalidModerationStatus = errors.New("status must be approved or rejected")
	ErrStoreNotFound           = errors.New("store not found")
)

const EventProductModerated = websocket.EventProductModerated

const recentLimit = 5

type AdminStats struct {
	Users              int64                              `json:"users"`
	Stores             int64                              `json:"stores"`
	Applications       map[model.VerificationStatus]int64 `json:"applications"`
	Products           map[model.ModerationStatus]int64   `json:"products"`
	RecentApplications []model.StoreApplication           `json:"recent_applications"`
	RecentUsers        []model.User                       `json:"recent_users"`
}

type AdminService interface {
	Stats() (*AdminStats, error)
	ListUsers(filter repository.UserFilter) ([]model.User, int64, error)
	UpdateUserStatus(actor Actor, userID uint, status model.UserStatus, reason string) (*model.User, error)
	DeleteUser(actor Actor, userID uint) error
	ListPendingProducts(page, pageSize int) ([]model.Product, int64, error)
	ModerateProduct(ctx context.Context, actor Actor, productID uint, status model.ModerationStatus, reason string) (*model.Product, error)
	ListStores(filter repository.StoreFilter) ([]model.Store, int64, error)
	SetStoreActive(storeID uint, active bool) (*model.Store, error)
}

type adminService struct {
	appRepo       repository.ApplicationRepository
	userRepo      repository.UserRepository
	storeRepo     repository.StoreRepository
	productRepo   repository.ProductRepository
	notifications NotificationService
	broadcaster   Broadcaster
}

func NewAdminService(
	appRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	storeRepo repository.StoreRepository,
	productRepo repository.ProductRepository,
	notifications NotificationService,
	broadcaster Broadcaster,
) AdminService {
	return &adminService{
		appRepo:       appRepo,
		userRepo:      userRepo,
		storeRepo:     storeRepo,
		productRepo:   productRepo,
		notifications: notifications,
		broadcaster:   broadcaster,
	}
}

func (s *adminService) Stats() (*AdminStats, error) {
	stats := &AdminStats{}
	var err error

	if stats.Users, err = s.userRepo.Count(); err != nil {
		return nil, err
	}
	if stats.Stores, err = s.storeRepo.Count(); err != nil {
		return nil, err
	}
	if stats.Applications, err = s.appRepo.CountByStatus(); err != nil {
		return nil, err
	}
	if stats.Products, err = s.productRepo.CountByStatus(); err != nil {
		return nil, err
	}
	if stats.RecentApplications, err = s.appRepo.Recent(recentLimit); err != nil {
		return nil, err
	}
	if stats.RecentUsers, err = s.userRepo.Recent(recentLimit); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *adminService) ListUsers(filter repository.UserFilter) ([]model.User, int64, error) {
	return s.userRepo.List(filter)
}

// UpdateUserStatus moves a user between active, suspended and banned in any
// direction. Leaving active needs a reason.
func (s *adminService) UpdateUserStatus(actor Actor, userID uint, status model.UserStatus, reason string) (*model.User, error) {
	if !status.Valid() {
		return nil, ErrInvalidUserStatus
	}
	if actor.UserID == userID {
		return nil, ErrCannotModifySelf
	}
	reason, err := ReasonInput{Raw: reason, Required: status != model.UserStatusActive}.Normalize()
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role.IsAdmin() && actor.Role != model.RoleMasterAdmin {
		return nil, ErrInsufficientRole
	}

	if err := s.userRepo.UpdateStatus(userID, status, reason); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Status = status
	user.StatusReason = reason

	logger.Info("User status changed", map[string]interface{}{
		"user_id":  userID,
		"status":   status,
		"actor_id": actor.UserID,
	})

	if s.notifications != nil {
		if err := s.notifications.NotifyAccountStatus(user); err != nil {
			logger.Warn("Failed to notify user of status change", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}
	return user, nil
}

func (s *adminService) DeleteUser(actor Actor, userID uint) error {
	if actor.Role != model.RoleMasterAdmin {
		return ErrInsufficientRole
	}
	if actor.UserID == userID {
		return ErrCannotModifySelf
	}

	if err := s.userRepo.Delete(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	logger.Info("User deleted", map[string]interface{}{
		"user_id":  userID,
		"actor_id": actor.UserID,
	})
	return nil
}

func (s *adminService) ListPendingProducts(page, pageSize int) ([]model.Product, int64, error) {
	return s.productRepo.ListByStatus(model.ModerationPending, page, pageSize)
}

// ModerateProduct follows the same first-write-wins rule as applications.
func (s *adminService) ModerateProduct(ctx context.Context, actor Actor, productID uint, status model.ModerationStatus, reason string) (*model.Product, error) {
	if status != model.ModerationApproved && status != model.ModerationRejected {
		return nil, ErrInvalidModerationStatus
	}
	reason, err := ReasonInput{Raw: reason, Required: status == model.ModerationRejected}.Normalize()
	if err != nil {
		return nil, err
	}
	if status == model.ModerationApproved {
		reason = ""
	}

	reviewer := actor.UserID
	changed, err := s.productRepo.ModeratePending(productID, status, reason, &reviewer, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if !changed {
		return nil, ErrProductAlreadyReviewed
	}

	logger.Info("Product moderated", map[string]interface{}{
		"product_id": productID,
		"status":     status,
		"actor_id":   actor.UserID,
	})

	if s.broadcaster != nil {
		s.broadcaster.Publish(EventProductModerated, map[string]interface{}{"product": product})
	}
	if status == model.ModerationRejected && s.notifications != nil {
		if err := s.notifications.NotifyProductRejected(product); err != nil {
			logger.Warn("Failed to notify store owner of product rejection", map[string]interface{}{
				"product_id": productID,
				"error":      err.Error(),
			})
		}
	}
	return product, nil
}

func (s *adminService) ListStores(filter repository.StoreFilter) ([]model.Store, int64, error) {
	return s.storeRepo.List(filter)
}

func (s *adminService) SetStoreActive(storeID uint, active bool) (*model.Store, error) {
	if err := s.storeRepo.SetActive(storeID, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	store, err := s.storeRepo.FindByID(storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	logger.Info("Store activity toggled", map[string]interface{}{
		"store_id":  storeID,
		"is_active": active,
	})
	return store, nil
}
