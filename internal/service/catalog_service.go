package service

import (
	"context"
	"database/sql"
	"errors"

	"shop-backend/internal/models"
	"shop-backend/internal/store"
	"shop-backend/internal/util"

	"go.uber.org/zap"
)

// CatalogStore is the persistence surface catalog management needs.
type CatalogStore interface {
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	GetCategories(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id int64) error
	ReorderCategories(ctx context.Context, positions map[int64]int) error

	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	GetProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	GetProductVariants(ctx context.Context, productID int64) ([]models.ProductVariant, error)
	GetProductVariant(ctx context.Context, id int64) (*models.ProductVariant, error)
	CreateProductVariant(ctx context.Context, v *models.ProductVariant) error
	UpdateProductVariant(ctx context.Context, v *models.ProductVariant) error
	DeleteProductVariant(ctx context.Context, id int64) error
}

// CatalogService manages categories, products, and variants.
type CatalogService struct {
	store  CatalogStore
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(st CatalogStore) *CatalogService {
	return &CatalogService{store: st, logger: util.GetLogger()}
}

// CategoryRequest creates or updates a category.
type CategoryRequest struct {
	NameEN        string `json:"name_en" binding:"required"`
	NameRO        string `json:"name_ro" binding:"required"`
	Slug          string `json:"slug" binding:"required"`
	DescriptionEN string `json:"description_en,omitempty"`
	DescriptionRO string `json:"description_ro,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
	SortOrder     int    `json:"sort_order,omitempty"`
	IsActive      *bool  `json:"is_active,omitempty"`
}

// ProductRequest creates or updates a product.
type ProductRequest struct {
	NameEN        string   `json:"name_en" binding:"required"`
	NameRO        string   `json:"name_ro" binding:"required"`
	Slug          string   `json:"slug" binding:"required"`
	DescriptionEN string   `json:"description_en,omitempty"`
	DescriptionRO string   `json:"description_ro,omitempty"`
	ShortDescEN   string   `json:"short_description_en,omitempty"`
	ShortDescRO   string   `json:"short_description_ro,omitempty"`
	Price         int64    `json:"price" binding:"required,min=1"`
	SalePrice     int64    `json:"sale_price,omitempty"`
	CategoryID    int64    `json:"category_id,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	SKU           string   `json:"sku,omitempty"`
	StockQuantity int      `json:"stock_quantity,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
	Images        []string `json:"images,omitempty"`
	VariantTypeEN string   `json:"variant_type_en,omitempty"`
	VariantTypeRO string   `json:"variant_type_ro,omitempty"`
}

// VariantRequest creates or updates a product variant.
type VariantRequest struct {
	ValueEN       string `json:"value_en" binding:"required"`
	ValueRO       string `json:"value_ro" binding:"required"`
	Price         int64  `json:"price" binding:"required,min=1"`
	StockQuantity int    `json:"stock_quantity,omitempty"`
	SKU           string `json:"sku,omitempty"`
	IsActive      *bool  `json:"is_active,omitempty"`
}

func activeOrDefault(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}

// GetCategory fetches one category by ID.
func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	return c, mapStoreErr(err)
}

// GetCategoryBySlug fetches one category by slug.
func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.store.GetCategoryBySlug(ctx, slug)
	return c, mapStoreErr(err)
}

// ListCategories lists categories in display order.
func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Category, error) {
	return s.store.GetCategories(ctx, activeOnly, offset, limit)
}

// CreateCategory inserts a category.
func (s *CatalogService) CreateCategory(ctx context.Context, req *CategoryRequest) (*models.Category, error) {
	c := &models.Category{
		NameEN:        req.NameEN,
		NameRO:        req.NameRO,
		Slug:          req.Slug,
		DescriptionEN: nullString(req.DescriptionEN),
		DescriptionRO: nullString(req.DescriptionRO),
		ImageURL:      nullString(req.ImageURL),
		SortOrder:     req.SortOrder,
		IsActive:      activeOrDefault(req.IsActive),
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, mapStoreErr(err)
	}
	return c, nil
}

// UpdateCategory overwrites a category.
func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, req *CategoryRequest) (*models.Category, error) {
	c, err := s.store.GetCategory(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	c.NameEN = req.NameEN
	c.NameRO = req.NameRO
	c.Slug = req.Slug
	c.DescriptionEN = nullString(req.DescriptionEN)
	c.DescriptionRO = nullString(req.DescriptionRO)
	c.ImageURL = nullString(req.ImageURL)
	c.SortOrder = req.SortOrder
	c.IsActive = activeOrDefault(req.IsActive)

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, mapStoreErr(err)
	}
	return c, nil
}

// DeleteCategory removes a category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return mapStoreErr(s.store.DeleteCategory(ctx, id))
}

// ReorderCategories applies new sort positions as one unit.
func (s *CatalogService) ReorderCategories(ctx context.Context, positions map[int64]int) error {
	if len(positions) == 0 {
		return ErrValidation
	}
	return s.store.ReorderCategories(ctx, positions)
}

// GetProduct fetches one product by ID.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	return p, mapStoreErr(err)
}

// GetProductBySlug fetches one product by slug.
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.store.GetProductBySlug(ctx, slug)
	return p, mapStoreErr(err)
}

// ListProducts lists products with optional filtering.
func (s *CatalogService) ListProducts(ctx context.Context, f store.ProductFilter) ([]models.Product, error) {
	return s.store.GetProducts(ctx, f)
}

// CreateProduct inserts a product. New products never start with variants;
// the flag follows the variant lifecycle.
func (s *CatalogService) CreateProduct(ctx context.Context, req *ProductRequest) (*models.Product, error) {
	p := &models.Product{
		NameEN:        req.NameEN,
		NameRO:        req.NameRO,
		Slug:          req.Slug,
		DescriptionEN: nullString(req.DescriptionEN),
		DescriptionRO: nullString(req.DescriptionRO),
		ShortDescEN:   nullString(req.ShortDescEN),
		ShortDescRO:   nullString(req.ShortDescRO),
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		IsActive:      activeOrDefault(req.IsActive),
		Images:        req.Images,
		Brand:         nullString(req.Brand),
		SKU:           nullString(req.SKU),
		VariantTypeEN: nullString(req.VariantTypeEN),
		VariantTypeRO: nullString(req.VariantTypeRO),
	}
	if req.SalePrice > 0 {
		p.SalePrice = sql.NullInt64{Int64: req.SalePrice, Valid: true}
	}
	if req.CategoryID > 0 {
		p.CategoryID = sql.NullInt64{Int64: req.CategoryID, Valid: true}
	}

	if err := s.store.CreateProduct(ctx, p); err != nil {
		return nil, mapStoreErr(err)
	}
	return p, nil
}

// UpdateProduct overwrites a product. has_variants is owned by the variant
// lifecycle and is not editable here.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, req *ProductRequest) (*models.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	p.NameEN = req.NameEN
	p.NameRO = req.NameRO
	p.Slug = req.Slug
	p.DescriptionEN = nullString(req.DescriptionEN)
	p.DescriptionRO = nullString(req.DescriptionRO)
	p.ShortDescEN = nullString(req.ShortDescEN)
	p.ShortDescRO = nullString(req.ShortDescRO)
	p.Price = req.Price
	p.SalePrice = sql.NullInt64{Int64: req.SalePrice, Valid: req.SalePrice > 0}
	p.CategoryID = sql.NullInt64{Int64: req.CategoryID, Valid: req.CategoryID > 0}
	p.Brand = nullString(req.Brand)
	p.SKU = nullString(req.SKU)
	p.StockQuantity = req.StockQuantity
	p.IsActive = activeOrDefault(req.IsActive)
	p.Images = req.Images
	p.VariantTypeEN = nullString(req.VariantTypeEN)
	p.VariantTypeRO = nullString(req.VariantTypeRO)

	if err := s.store.UpdateProduct(ctx, p); err != nil {
		return nil, mapStoreErr(err)
	}
	return p, nil
}

// DeleteProduct removes a product.
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	return mapStoreErr(s.store.DeleteProduct(ctx, id))
}

// ListVariants lists a product's active variants.
func (s *CatalogService) ListVariants(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, mapStoreErr(err)
	}
	return s.store.GetProductVariants(ctx, productID)
}

// CreateVariant adds a variant to a product; the store flips has_variants in
// the same transaction.
func (s *CatalogService) CreateVariant(ctx context.Context, productID int64, req *VariantRequest) (*models.ProductVariant, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return nil, mapStoreErr(err)
	}

	v := &models.ProductVariant{
		ProductID:     productID,
		ValueEN:       req.ValueEN,
		ValueRO:       req.ValueRO,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		SKU:           nullString(req.SKU),
		IsActive:      activeOrDefault(req.IsActive),
	}
	if err := s.store.CreateProductVariant(ctx, v); err != nil {
		return nil, mapStoreErr(err)
	}
	return v, nil
}

// UpdateVariant overwrites a variant.
func (s *CatalogService) UpdateVariant(ctx context.Context, variantID int64, req *VariantRequest) (*models.ProductVariant, error) {
	v, err := s.store.GetProductVariant(ctx, variantID)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	v.ValueEN = req.ValueEN
	v.ValueRO = req.ValueRO
	v.Price = req.Price
	v.StockQuantity = req.StockQuantity
	v.SKU = nullString(req.SKU)
	v.IsActive = activeOrDefault(req.IsActive)

	if err := s.store.UpdateProductVariant(ctx, v); err != nil {
		return nil, mapStoreErr(err)
	}
	return v, nil
}

// DeleteVariant removes a variant; deleting the last active one clears the
// parent's has_variants flag.
func (s *CatalogService) DeleteVariant(ctx context.Context, variantID int64) error {
	return mapStoreErr(s.store.DeleteProductVariant(ctx, variantID))
}

// mapStoreErr converts store sentinels to service sentinels.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return ErrConflict
	default:
		return err
	}
}
