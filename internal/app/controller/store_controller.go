package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	apperrors "github.com/grocerly/grocerly-backend/internal/errors"
	"github.com/grocerly/grocerly-backend/internal/middleware"
)

type StoreController struct {
	stores   service.StoreService
	products service.ProductService
}

func NewStoreController(stores service.StoreService, products service.ProductService) *StoreController {
	return &StoreController{stores: stores, products: products}
}

// List returns active stores
// GET /api/stores
func (ctrl *StoreController) List(c *gin.Context) {
	page, size := pageParams(c)
	stores, total, err := ctrl.stores.ListActive(page, size)
	if err != nil {
		middleware.GetLoggerFromContext(c).Error("Failed to list stores", err)
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

// Get GET /api/stores/:slug
func (ctrl *StoreController) Get(c *gin.Context) {
	store, err := ctrl.stores.GetBySlug(c.Param("slug"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"store": store})
}

// Products lists approved products of an active store
// GET /api/stores/:slug/products
func (ctrl *StoreController) Products(c *gin.Context) {
	page, size := pageParams(c)
	products, total, err := ctrl.products.ListForStore(c.Param("slug"), page, size)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products":  products,
		"total":     total,
		"page":      page,
		"page_size": size,
	})
}

// Mine GET /api/me/store
func (ctrl *StoreController) Mine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}
	store, err := ctrl.stores.GetMine(userID)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"store": store})
}

func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoreNotFound):
		apperrors.NotFound(c, apperrors.StoreNotFound, "Store not found")
	case errors.Is(err, service.ErrStoreInactive):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.StoreInactive, "Your store is currently deactivated")
	case errors.Is(err, service.ErrInvalidProduct):
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Product name and a positive price are required")
	default:
		middleware.GetLoggerFromContext(c).Error("Store request failed", err)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "store")
	}
}
