package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	apperrors "github.com/grocerly/grocerly-backend/internal/errors"
	"github.com/grocerly/grocerly-backend/internal/middleware"
)

type AdminController struct {
	admin service.AdminService
}

func NewAdminController(admin service.AdminService) *AdminController {
	return &AdminController{admin: admin}
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type ModerateProductRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

type UpdateStoreRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// Stats returns dashboard counters
// GET /api/admin/stats
func (ctrl *AdminController) Stats(c *gin.Context) {
	stats, err := ctrl.admin.Stats()
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to load admin stats", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ListUsers GET /api/admin/users?status=&role=&q=
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	page, size := pageParams(c)
	filter := repository.UserFilter{
		Status:   model.UserStatus(c.Query("status")),
		Role:     model.UserRole(c.Query("role")),
		Query:    c.Query("q"),
		Page:     page,
		PageSize: size,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		apperrors.BadRequest(c, apperrors.UserInvalidStatus, "status must be active, suspended or banned")
		return
	}

	users, total, err := ctrl.admin.ListUsers(filter)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "user")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users":     users,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}

// UpdateUser changes a user's account status
// PATCH /api/admin/users/:id
func (ctrl *AdminController) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "status is required")
		return
	}

	user, err := ctrl.admin.UpdateUserStatus(actorFromContext(c), id, model.UserStatus(req.Status), req.Reason)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User status updated",
		"user":    user,
	})
}

// DeleteUser soft-deletes a user
// DELETE /api/admin/users/:id
func (ctrl *AdminController) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.admin.DeleteUser(actorFromContext(c), id); err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// PendingProducts GET /api/admin/products/pending
func (ctrl *AdminController) PendingProducts(c *gin.Context) {
	page, size := pageParams(c)
	products, total, err := ctrl.admin.ListPendingProducts(page, size)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "product")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":  products,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}

// ModerateProduct approves or rejects a pending product
// PATCH /api/admin/products/:id
func (ctrl *AdminController) ModerateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ModerateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "status is required")
		return
	}

	product, err := ctrl.admin.ModerateProduct(c.Request.Context(), actorFromContext(c), id, model.ModerationStatus(req.Status), req.Reason)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Product " + string(product.ModerationStatus),
		"product": product,
	})
}

// ListStores GET /api/admin/stores?active=
func (ctrl *AdminController) ListStores(c *gin.Context) {
	page, size := pageParams(c)
	filter := repository.StoreFilter{Page: page, PageSize: size}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "active must be true or false")
			return
		}
		filter.Active = &active
	}

	stores, total, err := ctrl.admin.ListStores(filter)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "store")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stores":    stores,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}

// UpdateStore toggles store visibility
// PATCH /api/admin/stores/:id
func (ctrl *AdminController) UpdateStore(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "is_active is required")
		return
	}

	store, err := ctrl.admin.SetStoreActive(id, *req.IsActive)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Store updated",
		"store":   store,
	})
}

func respondAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		apperrors.NotFound(c, apperrors.UserNotFound, "User not found")
	case errors.Is(err, service.ErrProductNotFound):
		apperrors.NotFound(c, apperrors.ProductNotFound, "Product not found")
	case errors.Is(err, service.ErrStoreNotFound):
		apperrors.NotFound(c, apperrors.StoreNotFound, "Store not found")
	case errors.Is(err, service.ErrProductAlreadyReviewed):
		apperrors.Conflict(c, apperrors.ProductAlreadyReviewed, "This product has already been reviewed")
	case errors.Is(err, service.ErrCannotModifySelf):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzSelfAction, "You cannot change your own account")
	case errors.Is(err, service.ErrInsufficientRole):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzAdminOnly, "Only a master admin can do this")
	case errors.Is(err, service.ErrInvalidUserStatus):
		apperrors.BadRequest(c, apperrors.UserInvalidStatus, "status must be active, suspended or banned")
	case errors.Is(err, service.ErrInvalidModerationStatus):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "status must be approved or rejected")
	default:
		respondApplicationError(c, err)
	}
}
