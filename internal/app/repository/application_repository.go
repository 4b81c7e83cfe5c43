package repository

import (
	"strings"
	"time"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ApplicationFilter selects applications for review surfaces.
// An empty Status means every status; Query is matched case-insensitively
// as a substring of id, owner name, email, phone or store name.
type ApplicationFilter struct {
	Status   model.VerificationStatus
	Query    string
	Page     int
	PageSize int
}

func (f *ApplicationFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Query = strings.TrimSpace(f.Query)
}

// Decision is the write applied when an application leaves pending.
type Decision struct {
	To         model.VerificationStatus
	Reason     string
	ReviewedBy *uint
	ReviewedAt time.Time
}

type ApplicationRepository interface {
	WithTx(tx *gorm.DB) ApplicationRepository
	Create(app *model.StoreApplication) error
	CreateTransition(entry *model.ApplicationTransition) error
	FindByID(id uint) (*model.StoreApplication, error)
	FindByIDWithHistory(id uint) (*model.StoreApplication, error)
	FindByEmail(email string) (*model.StoreApplication, error)
	FindByUserID(userID uint) (*model.StoreApplication, error)
	List(filter ApplicationFilter) ([]model.StoreApplication, int64, error)
	ListAll(status model.VerificationStatus) ([]model.StoreApplication, error)
	DecidePending(id uint, d Decision) (bool, error)
	LinkUser(id, userID uint) error
	CountByStatus() (map[model.VerificationStatus]int64, error)
	FindPendingBefore(before time.Time) ([]model.StoreApplication, error)
	Recent(limit int) ([]model.StoreApplication, error)
}

type applicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) WithTx(tx *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: tx}
}

func (r *applicationRepository) Create(app *model.StoreApplication) error {
	logger.Debug("Creating store application in database", map[string]interface{}{
		"email":      app.Email,
		"store_name": app.StoreName,
	})

	if err := r.db.Create(app).Error; err != nil {
		logger.Error("Failed to create store application", err, map[string]interface{}{
			"email": app.Email,
		})
		return err
	}

	logger.Debug("Store application created", map[string]interface{}{
		"application_id": app.ID,
	})
	return nil
}

func (r *applicationRepository) CreateTransition(entry *model.ApplicationTransition) error {
	if err := r.db.Create(entry).Error; err != nil {
		logger.Error("Failed to record application transition", err, map[string]interface{}{
			"application_id": entry.ApplicationID,
			"to_status":      entry.ToStatus,
		})
		return err
	}
	return nil
}

func (r *applicationRepository) FindByID(id uint) (*model.StoreApplication, error) {
	var app model.StoreApplication
	if err := r.db.First(&app, id).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("Failed to find store application", err, map[string]interface{}{
				"application_id": id,
			})
		}
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByIDWithHistory(id uint) (*model.StoreApplication, error) {
	var app model.StoreApplication
	err := r.db.
		Preload("Transitions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&app, id).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByEmail(email string) (*model.StoreApplication, error) {
	var app model.StoreApplication
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) FindByUserID(userID uint) (*model.StoreApplication, error) {
	var app model.StoreApplication
	if err := r.db.Where("user_id = ?", userID).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) filtered(status model.VerificationStatus, query string) *gorm.DB {
	q := r.db.Model(&model.StoreApplication{})
	if status != "" {
		q = q.Where("verification_status = ?", status)
	}
	if query != "" {
		pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
		q = q.Where(
			`CAST(id AS TEXT) LIKE ? ESCAPE '\' OR LOWER(owner_name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\' OR LOWER(phone) LIKE ? ESCAPE '\' OR LOWER(store_name) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern, pattern,
		)
	}
	return q
}

func (r *applicationRepository) List(filter ApplicationFilter) ([]model.StoreApplication, int64, error) {
	filter.Normalize()
	logger.Debug("Listing store applications", map[string]interface{}{
		"status":    filter.Status,
		"query":     filter.Query,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})

	var total int64
	if err := r.filtered(filter.Status, filter.Query).Count(&total).Error; err != nil {
		logger.Error("Failed to count store applications", err)
		return nil, 0, err
	}

	var apps []model.StoreApplication
	err := r.filtered(filter.Status, filter.Query).
		Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&apps).Error
	if err != nil {
		logger.Error("Failed to list store applications", err)
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *applicationRepository) ListAll(status model.VerificationStatus) ([]model.StoreApplication, error) {
	var apps []model.StoreApplication
	if err := r.filtered(status, "").Order("id ASC").Find(&apps).Error; err != nil {
		logger.Error("Failed to list store applications for export", err)
		return nil, err
	}
	return apps, nil
}

// DecidePending moves an application out of pending with a single conditional
// UPDATE. It reports false when no pending row matched, so the first decision
// wins and later ones observe no change.
func (r *applicationRepository) DecidePending(id uint, d Decision) (bool, error) {
	logger.Debug("Deciding pending store application", map[string]interface{}{
		"application_id": id,
		"to_status":      d.To,
	})

	result := r.db.Model(&model.StoreApplication{}).
		Where("id = ? AND verification_status = ?", id, model.VerificationStatusPending).
		Updates(map[string]interface{}{
			"verification_status": d.To,
			"rejection_reason":    d.Reason,
			"reviewed_by":         d.ReviewedBy,
			"reviewed_at":         d.ReviewedAt,
			"updated_at":          d.ReviewedAt,
		})
	if result.Error != nil {
		logger.Error("Failed to decide store application", result.Error, map[string]interface{}{
			"application_id": id,
		})
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *applicationRepository) LinkUser(id, userID uint) error {
	return r.db.Model(&model.StoreApplication{}).
		Where("id = ?", id).
		Update("user_id", userID).Error
}

func (r *applicationRepository) CountByStatus() (map[model.VerificationStatus]int64, error) {
	var rows []struct {
		VerificationStatus model.VerificationStatus
		Count              int64
	}
	err := r.db.Model(&model.StoreApplication{}).
		Select("verification_status, COUNT(*) AS count").
		Group("verification_status").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to count store applications by status", err)
		return nil, err
	}

	counts := map[model.VerificationStatus]int64{
		model.VerificationStatusPending:  0,
		model.VerificationStatusApproved: 0,
		model.VerificationStatusRejected: 0,
	}
	for _, row := range rows {
		counts[row.VerificationStatus] = row.Count
	}
	return counts, nil
}

func (r *applicationRepository) FindPendingBefore(before time.Time) ([]model.StoreApplication, error) {
	var apps []model.StoreApplication
	err := r.db.
		Where("verification_status = ? AND submitted_at < ?", model.VerificationStatusPending, before).
		Order("submitted_at ASC").
		Find(&apps).Error
	if err != nil {
		logger.Error("Failed to find stale pending applications", err)
		return nil, err
	}
	return apps, nil
}

func (r *applicationRepository) Recent(limit int) ([]model.StoreApplication, error) {
	var apps []model.StoreApplication
	if err := r.db.Order("created_at DESC, id DESC").Limit(limit).Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// escapeLike neutralizes LIKE wildcards in user input; pair with ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
