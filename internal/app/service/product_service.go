package service

import (
	"errors"
	"strings"

	"github.com/grocerly/grocerly-backend/internal/app/model"
	"github.com/grocerly/grocerly-backend/internal/app/repository"
	"github.com/grocerly/grocerly-backend/internal/websocket"
	"github.com/grocerly/grocerly-backend/pkg/logger"
)

var ErrInvalidProduct = errors.New("product name and a positive price are required")

const EventProductSubmitted = websocket.EventProductSubmitted

type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Unit        string
	ImageURL    string
}

// ProductService lets store owners list products. New products wait in the
// admin moderation queue; shoppers only ever see approved ones.
type ProductService interface {
	Create(ownerID uint, input ProductInput) (*model.Product, error)
	ListMine(ownerID uint, page, pageSize int) ([]model.Product, int64, error)
	ListForStore(slug string, page, pageSize int) ([]model.Product, int64, error)
}

type productService struct {
	productRepo repository.ProductRepository
	stores      StoreService
	broadcaster Broadcaster
}

func NewProductService(productRepo repository.ProductRepository, stores StoreService, broadcaster Broadcaster) ProductService {
	return &productService{
		productRepo: productRepo,
		stores:      stores,
		broadcaster: broadcaster,
	}
}

func (s *productService) Create(ownerID uint, input ProductInput) (*model.Product, error) {
	store, err := s.stores.GetMine(ownerID)
	if err != nil {
		return nil, err
	}
	if !store.IsActive {
		return nil, ErrStoreInactive
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || input.Price <= 0 {
		return nil, ErrInvalidProduct
	}

	product := &model.Product{
		StoreID:          store.ID,
		Name:             name,
		Description:      strings.TrimSpace(input.Description),
		Price:            input.Price,
		Unit:             strings.TrimSpace(input.Unit),
		ImageURL:         strings.TrimSpace(input.ImageURL),
		ModerationStatus: model.ModerationPending,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}

	logger.Info("Product submitted for moderation", map[string]interface{}{
		"product_id": product.ID,
		"store_id":   store.ID,
	})

	if s.broadcaster != nil {
		s.broadcaster.Publish(EventProductSubmitted, map[string]interface{}{
			"product_id": product.ID,
			"store_id":   store.ID,
			"store_name": store.Name,
			"name":       product.Name,
		})
	}
	return product, nil
}

// ListMine includes pending and rejected products so owners can see the
// moderation outcome.
func (s *productService) ListMine(ownerID uint, page, pageSize int) ([]model.Product, int64, error) {
	store, err := s.stores.GetMine(ownerID)
	if err != nil {
		return nil, 0, err
	}
	return s.productRepo.ListByStore(store.ID, "", page, pageSize)
}

func (s *productService) ListForStore(slug string, page, pageSize int) ([]model.Product, int64, error) {
	store, err := s.stores.GetBySlug(slug)
	if err != nil {
		return nil, 0, err
	}
	return s.productRepo.ListByStore(store.ID, model.ModerationApproved, page, pageSize)
}
