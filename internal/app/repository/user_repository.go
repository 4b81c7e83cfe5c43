package repository

import (
	"strings"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"gorm.io/gorm"
)

type UserFilter struct {
	Status   model.UserStatus
	Role     model.UserRole
	Query    string
	Page     int
	PageSize int
}

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	Update(user *model.User) error
	UpdateRole(id uint, role model.UserRole) error
	UpdateStatus(id uint, status model.UserStatus, reason string) error
	Delete(id uint) error
	List(filter UserFilter) ([]model.User, int64, error)
	FindByRoles(roles ...model.UserRole) ([]model.User, error)
	Count() (int64, error)
	Recent(limit int) ([]model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(user *model.User) error {
	logger.Debug("Creating user in database", map[string]interface{}{
		"email": user.Email,
	})

	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		logger.Debug("User not found by ID", map[string]interface{}{
			"user_id": id,
			"error":   err.Error(),
		})
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *model.User) error {
	logger.Debug("Updating user in database", map[string]interface{}{
		"user_id": user.ID,
	})

	if err := r.db.Save(user).Error; err != nil {
		logger.Error("Failed to update user in database", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return err
	}
	return nil
}

func (r *userRepository) UpdateRole(id uint, role model.UserRole) error {
	return r.db.Model(&model.User{}).Where("id = ?", id).Update("role", role).Error
}

func (r *userRepository) UpdateStatus(id uint, status model.UserStatus, reason string) error {
	logger.Debug("Updating user status", map[string]interface{}{
		"user_id": id,
		"status":  status,
	})

	result := r.db.Model(&model.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        status,
			"status_reason": reason,
		})
	if result.Error != nil {
		logger.Error("Failed to update user status", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) Delete(id uint) error {
	logger.Debug("Deleting user from database", map[string]interface{}{
		"user_id": id,
	})

	result := r.db.Delete(&model.User{}, id)
	if result.Error != nil {
		logger.Error("Failed to delete user from database", result.Error, map[string]interface{}{
			"user_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) List(filter UserFilter) ([]model.User, int64, error) {
	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > MaxPageSize {
		size = DefaultPageSize
	}

	build := func() *gorm.DB {
		q := r.db.Model(&model.User{})
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Role != "" {
			q = q.Where("role = ?", filter.Role)
		}
		if query := strings.TrimSpace(filter.Query); query != "" {
			pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
			q = q.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\'`, pattern, pattern, pattern)
		}
		return q
	}

	var total int64
	if err := build().Count(&total).Error; err != nil {
		logger.Error("Failed to count users", err)
		return nil, 0, err
	}

	var users []model.User
	if err := build().Order("created_at DESC, id DESC").Offset((page - 1) * size).Limit(size).Find(&users).Error; err != nil {
		logger.Error("Failed to list users", err)
		return nil, 0, err
	}
	return users, total, nil
}

func (r *userRepository) FindByRoles(roles ...model.UserRole) ([]model.User, error) {
	var users []model.User
	err := r.db.Where("role IN ? AND status = ?", roles, model.UserStatusActive).Find(&users).Error
	return users, err
}

func (r *userRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.User{}).Count(&count).Error
	return count, err
}

func (r *userRepository) Recent(limit int) ([]model.User, error) {
	var users []model.User
	err := r.db.Order("created_at DESC, id DESC").Limit(limit).Find(&users).Error
	return users, err
}
