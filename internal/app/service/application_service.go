package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/cache"
	"github.com/grocerly/grocerly-backend/internal/websocket"
	"github.com/grocerly/grocerly-backend/pkg/logger"
	"github.com/grocerly/grocerly-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrApplicationNotFound  = errors.New("store application not found")
	ErrInvalidTransition    = errors.New("store application has already been decided")
	ErrDuplicateApplication = errors.New("an application with this email already exists")
	ErrInvalidAction        = errors.New("action must be approve or reject")
)

const (
	EventApplicationCreated = websocket.EventApplicationCreated
	EventApplicationUpdated = websocket.EventApplicationUpdated
)

// Broadcaster pushes committed changes to connected review surfaces.
type Broadcaster interface {
	Publish(eventType string, payload interface{})
}

type ApplicationAction string

const (
	ActionApprove ApplicationAction = "approve"
	ActionReject  ApplicationAction = "reject"
)

func ParseApplicationAction(raw string) (ApplicationAction, error) {
	switch a := ApplicationAction(strings.ToLower(strings.TrimSpace(raw))); a {
	case ActionApprove, ActionReject:
		return a, nil
	}
	return "", ErrInvalidAction
}

// ActionForStatus maps a target status to the action that reaches it.
func ActionForStatus(status model.VerificationStatus) (ApplicationAction, error) {
	switch status {
	case model.VerificationStatusApproved:
		return ActionApprove, nil
	case model.VerificationStatusRejected:
		return ActionReject, nil
	}
	return "", ErrInvalidAction
}

func (a ApplicationAction) target() model.VerificationStatus {
	if a == ActionApprove {
		return model.VerificationStatusApproved
	}
	return model.VerificationStatusRejected
}

// Actor is whoever triggers a transition.
type Actor struct {
	UserID    uint
	Role      model.UserRole
	IPAddress string
	UserAgent string
}

type RequestMeta struct {
	UserID    *uint
	IPAddress string
	UserAgent string
}

type ApplicationPage struct {
	Items      []model.StoreApplication `json:"items"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	TotalPages int                      `json:"total_pages"`
}

type ApplicationService interface {
	Submit(ctx context.Context, app *model.StoreApplication, meta RequestMeta) (*model.StoreApplication, error)
	Get(id uint) (*model.StoreApplication, error)
	GetWithHistory(id uint) (*model.StoreApplication, error)
	GetForUser(user *model.User) (*model.StoreApplication, error)
	History(id uint) ([]model.ApplicationTransition, error)
	List(ctx context.Context, filter repository.ApplicationFilter) (*ApplicationPage, error)
	ListAll(status model.VerificationStatus) ([]model.StoreApplication, error)
	Transition(ctx context.Context, id uint, action ApplicationAction, reason string, actor Actor) (*model.StoreApplication, error)
	Approve(ctx context.Context, id uint, actor Actor) (*model.StoreApplication, error)
	Reject(ctx context.Context, id uint, reason string, actor Actor) (*model.StoreApplication, error)
	Stats() (map[model.VerificationStatus]int64, error)
}

type applicationService struct {
	db            *gorm.DB
	appRepo       repository.ApplicationRepository
	userRepo      repository.UserRepository
	storeRepo     repository.StoreRepository
	notifications NotificationService
	reviewCache   cache.ReviewCache
	broadcaster   Broadcaster
	mailer        util.Mailer
}

func NewApplicationService(
	db *gorm.DB,
	appRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	storeRepo repository.StoreRepository,
	notifications NotificationService,
	reviewCache cache.ReviewCache,
	broadcaster Broadcaster,
	mailer util.Mailer,
) ApplicationService {
	if reviewCache == nil {
		reviewCache = cache.NewNoopReviewCache()
	}
	return &applicationService{
		db:            db,
		appRepo:       appRepo,
		userRepo:      userRepo,
		storeRepo:     storeRepo,
		notifications: notifications,
		reviewCache:   reviewCache,
		broadcaster:   broadcaster,
		mailer:        mailer,
	}
}

func (s *applicationService) Submit(ctx context.Context, app *model.StoreApplication, meta RequestMeta) (result *model.StoreApplication, err error) {
	app.Email = strings.ToLower(strings.TrimSpace(app.Email))
	logger.Info("Submitting store application", map[string]interface{}{
		"email":      app.Email,
		"store_name": app.StoreName,
	})

	existing, err := s.appRepo.FindByEmail(app.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to check existing application", err, map[string]interface{}{
			"email": app.Email,
		})
		return nil, err
	}
	if existing != nil {
		logger.Warn("Application submission rejected: email already used", map[string]interface{}{
			"email":          app.Email,
			"application_id": existing.ID,
		})
		return nil, ErrDuplicateApplication
	}

	now := time.Now().UTC()
	app.ID = 0
	app.VerificationStatus = model.VerificationStatusPending
	app.RejectionReason = ""
	app.ReviewedBy = nil
	app.ReviewedAt = nil
	app.UserID = meta.UserID
	app.IPAddress = meta.IPAddress
	app.UserAgent = meta.UserAgent
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = now
	}
	if app.TermsAcceptedAt.IsZero() {
		app.TermsAcceptedAt = now
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin application submission", tx.Error, map[string]interface{}{
			"email": app.Email,
		})
		return nil, tx.Error
	}
	committed := false
	defer func() {
		if r := recover(); r != nil {
			if !committed {
				tx.Rollback()
			}
			result, err = nil, fmt.Errorf("panic during application submission: %v", r)
			logger.Error("Panic during application submission", err, map[string]interface{}{
				"email": app.Email,
			})
		}
	}()

	if err := s.appRepo.WithTx(tx).Create(app); err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateApplication
		}
		return nil, err
	}

	entry := &model.ApplicationTransition{
		ApplicationID: app.ID,
		ToStatus:      model.VerificationStatusPending,
		ActorID:       meta.UserID,
		ActorRole:     model.RoleCustomer,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Device:        util.ParseUserAgent(meta.UserAgent).Summary(),
	}
	if err := s.appRepo.WithTx(tx).CreateTransition(entry); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit application submission", err, map[string]interface{}{
			"email": app.Email,
		})
		return nil, err
	}
	committed = true

	created, err := s.appRepo.FindByID(app.ID)
	if err != nil {
		return nil, err
	}
	s.afterChange(ctx, EventApplicationCreated, created)

	logger.Info("Store application submitted", map[string]interface{}{
		"application_id": created.ID,
		"email":          created.Email,
	})
	return created, nil
}

func (s *applicationService) Get(id uint) (*model.StoreApplication, error) {
	app, err := s.appRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *applicationService) GetWithHistory(id uint) (*model.StoreApplication, error) {
	app, err := s.appRepo.FindByIDWithHistory(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		logger.Error("Failed to load application history", err, map[string]interface{}{
			"application_id": id,
		})
		return nil, err
	}
	return app, nil
}

func (s *applicationService) History(id uint) ([]model.ApplicationTransition, error) {
	app, err := s.GetWithHistory(id)
	if err != nil {
		return nil, err
	}
	return app.Transitions, nil
}

// GetForUser finds the caller's application, falling back to the account email
// for applications submitted before the user signed in.
func (s *applicationService) GetForUser(user *model.User) (*model.StoreApplication, error) {
	app, err := s.appRepo.FindByUserID(user.ID)
	if err == nil {
		return app, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	app, err = s.appRepo.FindByEmail(user.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return app, nil
}

func (s *applicationService) List(ctx context.Context, filter repository.ApplicationFilter) (*ApplicationPage, error) {
	filter.Normalize()
	key := cache.ListKey(string(filter.Status), filter.Query, filter.Page, filter.PageSize)

	var page ApplicationPage
	gen, hit, cacheErr := s.reviewCache.Get(ctx, key, &page)
	if cacheErr != nil {
		logger.Warn("Review cache read failed, falling back to database", map[string]interface{}{
			"error": cacheErr.Error(),
		})
	}
	if hit {
		return &page, nil
	}

	items, total, err := s.appRepo.List(filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.StoreApplication{}
	}

	page = ApplicationPage{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: int((total + int64(filter.PageSize) - 1) / int64(filter.PageSize)),
	}
	if cacheErr == nil {
		if err := s.reviewCache.Set(ctx, gen, key, page); err != nil {
			logger.Warn("Failed to populate review cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return &page, nil
}

func (s *applicationService) ListAll(status model.VerificationStatus) ([]model.StoreApplication, error) {
	return s.appRepo.ListAll(status)
}

func (s *applicationService) Approve(ctx context.Context, id uint, actor Actor) (*model.StoreApplication, error) {
	return s.Transition(ctx, id, ActionApprove, "", actor)
}

func (s *applicationService) Reject(ctx context.Context, id uint, reason string, actor Actor) (*model.StoreApplication, error) {
	return s.Transition(ctx, id, ActionReject, reason, actor)
}

// Transition is the only way an application leaves pending. Legality is
// decided by the conditional update, so of two concurrent decisions exactly
// one commits and the other gets ErrInvalidTransition.
func (s *applicationService) Transition(ctx context.Context, id uint, action ApplicationAction, reason string, actor Actor) (result *model.StoreApplication, err error) {
	if action != ActionApprove && action != ActionReject {
		return nil, ErrInvalidAction
	}
	reason, err = ReasonInput{Raw: reason, Required: action == ActionReject}.Normalize()
	if err != nil {
		logger.Warn("Transition refused: invalid reason", map[string]interface{}{
			"application_id": id,
			"action":         action,
			"error":          err.Error(),
		})
		return nil, err
	}

	logger.Info("Deciding store application", map[string]interface{}{
		"application_id": id,
		"action":         action,
		"actor_id":       actor.UserID,
	})

	tx := s.db.Begin()
	if tx.Error != nil {
		logger.Error("Failed to begin application transition", tx.Error, map[string]interface{}{
			"application_id": id,
		})
		return nil, tx.Error
	}
	committed := false
	defer func() {
		if r := recover(); r != nil {
			if !committed {
				tx.Rollback()
			}
			result, err = nil, fmt.Errorf("panic during application transition: %v", r)
			logger.Error("Panic during application transition", err, map[string]interface{}{
				"application_id": id,
			})
		}
	}()

	apps := s.appRepo.WithTx(tx)
	app, err := apps.FindByID(id)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	reviewer := actor.UserID
	decision := repository.Decision{
		To:         action.target(),
		ReviewedBy: &reviewer,
		ReviewedAt: now,
	}
	if action == ActionReject {
		decision.Reason = reason
	}

	changed, err := apps.DecidePending(id, decision)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if !changed {
		// another reviewer decided first
		tx.Rollback()
		logger.Warn("Transition refused: application already decided", map[string]interface{}{
			"application_id": id,
			"current_status": app.VerificationStatus,
			"action":         action,
		})
		return nil, ErrInvalidTransition
	}

	if action == ActionApprove {
		if err := s.provisionStore(tx, app); err != nil {
			tx.Rollback()
			logger.Error("Failed to provision store for approved application", err, map[string]interface{}{
				"application_id": id,
			})
			return nil, err
		}
	}

	actorID := actor.UserID
	entry := &model.ApplicationTransition{
		ApplicationID: id,
		FromStatus:    model.VerificationStatusPending,
		ToStatus:      decision.To,
		Reason:        reason,
		ActorID:       &actorID,
		ActorRole:     actor.Role,
		IPAddress:     actor.IPAddress,
		UserAgent:     actor.UserAgent,
		Device:        util.ParseUserAgent(actor.UserAgent).Summary(),
	}
	if err := apps.CreateTransition(entry); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("Failed to commit application transition", err, map[string]interface{}{
			"application_id": id,
		})
		return nil, err
	}
	committed = true

	decided, err := s.appRepo.FindByID(id)
	if err != nil {
		return nil, err
	}
	s.afterChange(ctx, EventApplicationUpdated, decided)
	s.notifyDecision(decided)

	logger.Info("Store application decided", map[string]interface{}{
		"application_id": id,
		"status":         decided.VerificationStatus,
		"actor_id":       actor.UserID,
	})
	return decided, nil
}

// provisionStore creates the store of an approved application and promotes
// the owner's account when one exists.
func (s *applicationService) provisionStore(tx *gorm.DB, app *model.StoreApplication) error {
	stores := s.storeRepo.WithTx(tx)
	users := s.userRepo.WithTx(tx)

	owner, err := s.findOwner(users, app)
	if err != nil {
		return err
	}

	storeSlug, err := uniqueSlug(stores, app.StoreName)
	if err != nil {
		return err
	}

	store := &model.Store{
		ApplicationID: app.ID,
		Name:          app.StoreName,
		Slug:          storeSlug,
		StoreType:     app.StoreType,
		Description:   app.Description,
		Location:      app.Location,
		PhoneNumber:   app.Phone,
		IsActive:      true,
	}
	if owner != nil {
		store.UserID = &owner.ID
	}
	if err := stores.Create(store); err != nil {
		return err
	}

	if owner == nil {
		return nil
	}
	if app.UserID == nil {
		if err := s.appRepo.WithTx(tx).LinkUser(app.ID, owner.ID); err != nil {
			return err
		}
		app.UserID = &owner.ID
	}
	if owner.Role == model.RoleCustomer {
		if err := users.UpdateRole(owner.ID, model.RoleStoreOwner); err != nil {
			return err
		}
	}
	return nil
}

func (s *applicationService) findOwner(users repository.UserRepository, app *model.StoreApplication) (*model.User, error) {
	var (
		owner *model.User
		err   error
	)
	if app.UserID != nil {
		owner, err = users.FindByID(*app.UserID)
	} else {
		owner, err = users.FindByEmail(app.Email)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return owner, err
}

func uniqueSlug(stores repository.StoreRepository, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "store"
	}

	candidate := base
	for i := 2; i <= 50; i++ {
		exists, err := stores.SlugExists(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}

	suffix, err := util.GenerateToken(3)
	if err != nil {
		return "", err
	}
	return base + "-" + suffix, nil
}

func (s *applicationService) afterChange(ctx context.Context, event string, app *model.StoreApplication) {
	if err := s.reviewCache.Invalidate(ctx); err != nil {
		logger.Warn("Failed to invalidate review cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if s.broadcaster != nil {
		s.broadcaster.Publish(event, map[string]interface{}{"application": app})
	}
}

func (s *applicationService) notifyDecision(app *model.StoreApplication) {
	if s.notifications != nil && app.UserID != nil {
		if err := s.notifications.NotifyApplicationDecision(app); err != nil {
			logger.Warn("Failed to create decision notification", map[string]interface{}{
				"application_id": app.ID,
				"error":          err.Error(),
			})
		}
	}

	if s.mailer == nil {
		return
	}
	subject, body := decisionEmail(app)
	if err := s.mailer.Send(app.Email, subject, body); err != nil {
		logger.Warn("Failed to send decision email", map[string]interface{}{
			"application_id": app.ID,
			"error":          err.Error(),
		})
	}
}

func (s *applicationService) Stats() (map[model.VerificationStatus]int64, error) {
	return s.appRepo.CountByStatus()
}

func decisionEmail(app *model.StoreApplication) (string, string) {
	if app.VerificationStatus == model.VerificationStatusApproved {
		return "Your store has been approved",
			fmt.Sprintf("<p>Hello %s,</p><p>%s is now live on Grocerly. Sign in to start listing products.</p>",
				app.OwnerName, app.StoreName)
	}
	return "Your store application was not approved",
		fmt.Sprintf("<p>Hello %s,</p><p>We could not approve %s.</p><p>Reason: %s</p>",
			app.OwnerName, app.StoreName, app.RejectionReason)
}
