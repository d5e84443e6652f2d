package service

import (
	"context"
	"math"
	"time"

	"storefront/internal/domain"
	"storefront/internal/money"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

const (
	defaultPageSize   = 8
	newestProductsCap = 4
	relatedProductCap = 4
)

// ProductListing is the catalog browse response: one page of products plus
// the category set, total page count, and the newest arrivals.
type ProductListing struct {
	Products   []*domain.Product `json:"products"`
	Categories []string          `json:"categories"`
	TotalPages int               `json:"totalPages"`
	Newest     []*domain.Product `json:"newProduct"`
}

// ListProductsParams narrows a catalog listing.
type ListProductsParams struct {
	Search      string
	Category    string
	Page        int
	SortByPrice string // "lowToHigh" | "highToLow" | ""
}

// ProductService defines catalog business logic. Price strings are validated
// as normalizable at write time so downstream money arithmetic cannot fail.
type ProductService interface {
	Create(ctx context.Context, title, about, category, price string, stock int) (*domain.Product, error)
	Update(ctx context.Context, id uuid.UUID, title, about, category, price *string, stock *int) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, []*domain.Product, error)
	List(ctx context.Context, params ListProductsParams) (*ProductListing, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// Create adds a product to the catalog.
func (s *productService) Create(ctx context.Context, title, about, category, price string, stock int) (*domain.Product, error) {
	if !money.Valid(price) {
		return nil, money.ErrInvalidPrice
	}
	if stock < 0 {
		stock = 0
	}

	now := time.Now()
	product := &domain.Product{
		ID:        uuid.New(),
		Title:     title,
		About:     about,
		Category:  category,
		Price:     price,
		Stock:     stock,
		Sold:      0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Update applies the provided fields to an existing product. Nil fields are
// left unchanged.
func (s *productService) Update(ctx context.Context, id uuid.UUID, title, about, category, price *string, stock *int) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if title != nil {
		product.Title = *title
	}
	if about != nil {
		product.About = *about
	}
	if category != nil {
		product.Category = *category
	}
	if price != nil {
		if !money.Valid(*price) {
			return nil, money.ErrInvalidPrice
		}
		product.Price = *price
	}
	if stock != nil && *stock >= 0 {
		product.Stock = *stock
	}
	product.UpdatedAt = time.Now()

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete removes a product from the catalog.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.productRepo.Delete(ctx, id)
}

// Get retrieves a product and up to four related products from its category.
func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, []*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	related, err := s.productRepo.ListRelated(ctx, product.Category, product.ID, relatedProductCap)
	if err != nil {
		return nil, nil, err
	}

	return product, related, nil
}

// List retrieves one page of the catalog with categories and newest arrivals.
func (s *productService) List(ctx context.Context, params ListProductsParams) (*ProductListing, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}

	sortBy := "created_at"
	sortOrder := repository.SortOrderDesc
	switch params.SortByPrice {
	case "lowToHigh":
		sortBy, sortOrder = "price", repository.SortOrderAsc
	case "highToLow":
		sortBy, sortOrder = "price", repository.SortOrderDesc
	}

	products, total, err := s.productRepo.List(ctx, params.Category, params.Search, page, defaultPageSize, sortBy, sortOrder)
	if err != nil {
		return nil, err
	}

	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		return nil, err
	}

	newest, _, err := s.productRepo.List(ctx, "", "", 1, newestProductsCap, "created_at", repository.SortOrderDesc)
	if err != nil {
		return nil, err
	}

	return &ProductListing{
		Products:   products,
		Categories: categories,
		TotalPages: int(math.Ceil(float64(total) / float64(defaultPageSize))),
		Newest:     newest,
	}, nil
}
