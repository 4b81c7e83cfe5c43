package service

import (
	"errors"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"gorm.io/gorm"
)

var ErrStoreInactive = errors.New("store is not active")

// StoreService is the public side of approved stores. Deactivated stores
// disappear from it without touching the application that created them.
type StoreService interface {
	ListActive(page, pageSize int) ([]model.Store, int64, error)
	GetBySlug(slug string) (*model.Store, error)
	GetMine(userID uint) (*model.Store, error)
}

type storeService struct {
	storeRepo repository.StoreRepository
}

func NewStoreService(storeRepo repository.StoreRepository) StoreService {
	return &storeService{storeRepo: storeRepo}
}

func (s *storeService) ListActive(page, pageSize int) ([]model.Store, int64, error) {
	active := true
	return s.storeRepo.List(repository.StoreFilter{
		Active:   &active,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetBySlug hides inactive stores behind the same not-found error as missing
// ones.
func (s *storeService) GetBySlug(slug string) (*model.Store, error) {
	store, err := s.storeRepo.FindBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	if !store.IsActive {
		return nil, ErrStoreNotFound
	}
	return store, nil
}

// GetMine returns the caller's store whether or not it is active.
func (s *storeService) GetMine(userID uint) (*model.Store, error) {
	store, err := s.storeRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, err
	}
	return store, nil
}
