package repository

import (
	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"gorm.io/gorm"
)

type StoreFilter struct {
	Active   *bool
	Page     int
	PageSize int
}

type StoreRepository interface {
	WithTx(tx *gorm.DB) StoreRepository
	Create(store *model.Store) error
	FindByID(id uint) (*model.Store, error)
	FindByApplicationID(applicationID uint) (*model.Store, error)
	FindBySlug(slug string) (*model.Store, error)
	FindByUserID(userID uint) (*model.Store, error)
	SlugExists(slug string) (bool, error)
	List(filter StoreFilter) ([]model.Store, int64, error)
	SetActive(id uint, active bool) error
	Count() (int64, error)
}

type storeRepository struct {
	db *gorm.DB
}

func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepository{db: db}
}

func (r *storeRepository) WithTx(tx *gorm.DB) StoreRepository {
	return &storeRepository{db: tx}
}

func (r *storeRepository) Create(store *model.Store) error {
	logger.Debug("Creating store in database", map[string]interface{}{
		"application_id": store.ApplicationID,
		"slug":           store.Slug,
	})

	if err := r.db.Create(store).Error; err != nil {
		logger.Error("Failed to create store", err, map[string]interface{}{
			"application_id": store.ApplicationID,
		})
		return err
	}
	return nil
}

func (r *storeRepository) FindByID(id uint) (*model.Store, error) {
	var store model.Store
	if err := r.db.First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindByApplicationID(applicationID uint) (*model.Store, error) {
	var store model.Store
	if err := r.db.Where("application_id = ?", applicationID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) FindBySlug(slug string) (*model.Store, error) {
	var store model.Store
	if err := r.db.Where("slug = ?", slug).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindByUserID returns the owner's store; an owner has at most one.
func (r *storeRepository) FindByUserID(userID uint) (*model.Store, error) {
	var store model.Store
	if err := r.db.Where("user_id = ?", userID).Order("id ASC").First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepository) SlugExists(slug string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&model.Store{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *storeRepository) List(filter StoreFilter) ([]model.Store, int64, error) {
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}

	build := func() *gorm.DB {
		q := r.db.Model(&model.Store{})
		if filter.Active != nil {
			q = q.Where("is_active = ?", *filter.Active)
		}
		return q
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		logger.Error("Failed to count stores", err)
		return nil, 0, err
	}

	var stores []model.Store
	if err := build().Order("id DESC").Offset((page - 1) * size).Limit(size).Find(&stores).Error; err != nil {
		logger.Error("Failed to list stores", err)
		return nil, 0, err
	}
	return stores, total, nil
}

func (r *storeRepository) SetActive(id uint, active bool) error {
	result := r.db.Model(&model.Store{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		logger.Error("Failed to toggle store activity", result.Error, map[string]interface{}{
			"store_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *storeRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.Store{}).Count(&count).Error
	return count, err
}
