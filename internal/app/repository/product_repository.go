package repository

import (
	"time"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindByID(id uint) (*model.Product, error)
	ListByStatus(status model.ModerationStatus, page, pageSize int) ([]model.Product, int64, error)
	ListByStore(storeID uint, status model.ModerationStatus, page, pageSize int) ([]model.Product, int64, error)
	ModeratePending(id uint, status model.ModerationStatus, reason string, reviewer *uint, at time.Time) (bool, error)
	CountByStatus() (map[model.ModerationStatus]int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"store_id": product.StoreID,
		})
		return err
	}
	return nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.Preload("Store").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ListByStatus(status model.ModerationStatus, page, pageSize int) ([]model.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	var total int64
	if err := r.db.Model(&model.Product{}).Where("moderation_status = ?", status).Count(&total).Error; err != nil {
		logger.Error("Failed to count products", err)
		return nil, 0, err
	}

	var products []model.Product
	err := r.db.Preload("Store").
		Where("moderation_status = ?", status).
		Order("created_at ASC, id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&products).Error
	if err != nil {
		logger.Error("Failed to list products", err)
		return nil, 0, err
	}
	return products, total, nil
}

// ListByStore pages a store's products; an empty status means every status.
func (r *productRepository) ListByStore(storeID uint, status model.ModerationStatus, page, pageSize int) ([]model.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	build := func() *gorm.DB {
		q := r.db.Model(&model.Product{}).Where("store_id = ?", storeID)
		if status != "" {
			q = q.Where("moderation_status = ?", status)
		}
		return q
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		logger.Error("Failed to count store products", err, map[string]interface{}{
			"store_id": storeID,
		})
		return nil, 0, err
	}

	var products []model.Product
	err := build().
		Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ModeratePending applies a decision only while the product is still pending.
func (r *productRepository) ModeratePending(id uint, status model.ModerationStatus, reason string, reviewer *uint, at time.Time) (bool, error) {
	result := r.db.Model(&model.Product{}).
		Where("id = ? AND moderation_status = ?", id, model.ModerationPending).
		Updates(map[string]interface{}{
			"moderation_status": status,
			"rejection_reason":  reason,
			"reviewed_by":       reviewer,
			"reviewed_at":       at,
		})
	if result.Error != nil {
		logger.Error("Failed to moderate product", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *productRepository) CountByStatus() (map[model.ModerationStatus]int64, error) {
	var rows []struct {
		ModerationStatus model.ModerationStatus
		Count            int64
	}
	err := r.db.Model(&model.Product{}).
		Select("moderation_status, COUNT(*) AS count").
		Group("moderation_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[model.ModerationStatus]int64{
		model.ModerationPending:  0,
		model.ModerationApproved: 0,
		model.ModerationRejected: 0,
	}
	for _, row := range rows {
		counts[row.ModerationStatus] = row.Count
	}
	return counts, nil
}
