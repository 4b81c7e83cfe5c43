package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grocerly/grocerly-backend/internal/app/service"
	apperrors "github.com/grocerly/grocerly-backend/internal/errors"
	"github.com/grocerly/grocerly-backend/internal/middleware"
)

type ProductController struct {
	products service.ProductService
}

func NewProductController(products service.ProductService) *ProductController {
	return &ProductController{products: products}
}

type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required,max=200"`
	Description string  `json:"description" binding:"max=2000"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Unit        string  `json:"unit" binding:"max=20"`
	ImageURL    string  `json:"image_url" binding:"omitempty,url"`
}

// Create submits a product for moderation
// POST /api/me/store/products
func (ctrl *ProductController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid product request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Product name and a positive price are required")
		return
	}

	product, err := ctrl.products.Create(userID, service.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Unit:        req.Unit,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product submitted for review",
		"product": product,
	})
}

// ListMine GET /api/me/store/products
func (ctrl *ProductController) ListMine(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Authentication required")
		return
	}
	page, size := pageParams(c)
	products, total, err := ctrl.products.ListMine(userID, page, size)
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
