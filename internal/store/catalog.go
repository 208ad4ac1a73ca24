package store

import (
	"context"
	"fmt"
	"strings"

	"shop-backend/internal/models"

	"github.com/jmoiron/sqlx"
)

// ProductFilter narrows GetProducts. Zero values mean "no filter".
type ProductFilter struct {
	CategoryID int64
	Search     string
	Language   string
	MinPrice   int64
	MaxPrice   int64
	Brand      string
	ActiveOnly bool
	Offset     int
	Limit      int
}

// GetCategory retrieves a category by ID
func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := s.db.GetContext(ctx, &c, "SELECT * FROM categories WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err)
	}
	return &c, nil
}

// GetCategoryBySlug retrieves a category by slug
func (s *Store) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	err := s.db.GetContext(ctx, &c, "SELECT * FROM categories WHERE slug = $1", slug)
	if err != nil {
		return nil, translateErr(err)
	}
	return &c, nil
}

// GetCategories lists categories ordered by sort_order then id.
func (s *Store) GetCategories(ctx context.Context, activeOnly bool, offset, limit int) ([]models.Category, error) {
	query := "SELECT * FROM categories"
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY sort_order ASC, id ASC OFFSET $1 LIMIT $2"

	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories, query, offset, limit)
	return categories, err
}

// CreateCategory inserts a category
func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name_en, name_ro, slug, description_en, description_ro, image_url, sort_order, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, c, query,
		c.NameEN, c.NameRO, c.Slug, c.DescriptionEN, c.DescriptionRO, c.ImageURL, c.SortOrder, c.IsActive)
	return translateErr(err)
}

// UpdateCategory overwrites mutable category fields
func (s *Store) UpdateCategory(ctx context.Context, c *models.Category) error {
	query := `
		UPDATE categories SET
			name_en = $1, name_ro = $2, slug = $3, description_en = $4, description_ro = $5,
			image_url = $6, sort_order = $7, is_active = $8, updated_at = NOW()
		WHERE id = $9`

	res, err := s.db.ExecContext(ctx, query,
		c.NameEN, c.NameRO, c.Slug, c.DescriptionEN, c.DescriptionRO,
		c.ImageURL, c.SortOrder, c.IsActive, c.ID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category
func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ReorderCategories applies new sort positions to the given categories as one unit.
func (s *Store) ReorderCategories(ctx context.Context, positions map[int64]int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for id, pos := range positions {
		if _, err := tx.ExecContext(ctx,
			"UPDATE categories SET sort_order = $1, updated_at = NOW() WHERE id = $2", pos, id); err != nil {
			return fmt.Errorf("failed to reorder category %d: %w", id, err)
		}
	}

	return tx.Commit()
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p, "SELECT * FROM products WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

// GetProductBySlug retrieves a product by slug
func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p, "SELECT * FROM products WHERE slug = $1", slug)
	if err != nil {
		return nil, translateErr(err)
	}
	return &p, nil
}

// GetProducts lists products with optional filtering
func (s *Store) GetProducts(ctx context.Context, f ProductFilter) ([]models.Product, error) {
	conds := []string{}
	args := []interface{}{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.ActiveOnly {
		conds = append(conds, "is_active = TRUE")
	}
	if f.CategoryID > 0 {
		conds = append(conds, "category_id = "+arg(f.CategoryID))
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		if f.Language == "ro" {
			conds = append(conds, fmt.Sprintf("(name_ro ILIKE %s OR description_ro ILIKE %s)", arg(pattern), arg(pattern)))
		} else {
			conds = append(conds, fmt.Sprintf("(name_en ILIKE %s OR description_en ILIKE %s)", arg(pattern), arg(pattern)))
		}
	}
	if f.MinPrice > 0 {
		conds = append(conds, "price >= "+arg(f.MinPrice))
	}
	if f.MaxPrice > 0 {
		conds = append(conds, "price <= "+arg(f.MaxPrice))
	}
	if f.Brand != "" {
		conds = append(conds, "brand = "+arg(f.Brand))
	}

	query := "SELECT * FROM products"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id OFFSET " + arg(f.Offset)
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}

	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// CreateProduct inserts a product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (
			name_en, name_ro, slug, description_en, description_ro,
			short_description_en, short_description_ro, price, sale_price, category_id,
			brand, sku, stock_quantity, is_active, images, has_variants, variant_type_en, variant_type_ro)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id, created_at`

	err := s.db.GetContext(ctx, p, query,
		p.NameEN, p.NameRO, p.Slug, p.DescriptionEN, p.DescriptionRO,
		p.ShortDescEN, p.ShortDescRO, p.Price, p.SalePrice, p.CategoryID,
		p.Brand, p.SKU, p.StockQuantity, p.IsActive, p.Images, p.HasVariants,
		p.VariantTypeEN, p.VariantTypeRO)
	return translateErr(err)
}

// UpdateProduct overwrites mutable product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products SET
			name_en = $1, name_ro = $2, slug = $3, description_en = $4, description_ro = $5,
			short_description_en = $6, short_description_ro = $7, price = $8, sale_price = $9,
			category_id = $10, brand = $11, sku = $12, stock_quantity = $13, is_active = $14,
			images = $15, variant_type_en = $16, variant_type_ro = $17, updated_at = NOW()
		WHERE id = $18`

	res, err := s.db.ExecContext(ctx, query,
		p.NameEN, p.NameRO, p.Slug, p.DescriptionEN, p.DescriptionRO,
		p.ShortDescEN, p.ShortDescRO, p.Price, p.SalePrice,
		p.CategoryID, p.Brand, p.SKU, p.StockQuantity, p.IsActive,
		p.Images, p.VariantTypeEN, p.VariantTypeRO, p.ID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetProductVariants lists a product's active variants
func (s *Store) GetProductVariants(ctx context.Context, productID int64) ([]models.ProductVariant, error) {
	variants := []models.ProductVariant{}
	err := s.db.SelectContext(ctx, &variants,
		"SELECT * FROM product_variants WHERE product_id = $1 AND is_active = TRUE ORDER BY id", productID)
	return variants, err
}

// GetProductVariant retrieves a variant by ID
func (s *Store) GetProductVariant(ctx context.Context, id int64) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := s.db.GetContext(ctx, &v, "SELECT * FROM product_variants WHERE id = $1", id)
	if err != nil {
		return nil, translateErr(err)
	}
	return &v, nil
}

// FindVariantByValue resolves a variant by product and English label.
// Legacy lookup path: labels are not unique, first match wins.
func (s *Store) FindVariantByValue(ctx context.Context, productID int64, valueEN string) (*models.ProductVariant, error) {
	var v models.ProductVariant
	err := s.db.GetContext(ctx, &v,
		"SELECT * FROM product_variants WHERE product_id = $1 AND value_en = $2 ORDER BY id LIMIT 1",
		productID, valueEN)
	if err != nil {
		return nil, translateErr(err)
	}
	return &v, nil
}

// CreateProductVariant inserts a variant and refreshes the parent's has_variants flag.
func (s *Store) CreateProductVariant(ctx context.Context, v *models.ProductVariant) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO product_variants (product_id, value_en, value_ro, price, stock_quantity, sku, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	if err := tx.GetContext(ctx, v, query,
		v.ProductID, v.ValueEN, v.ValueRO, v.Price, v.StockQuantity, v.SKU, v.IsActive); err != nil {
		return translateErr(err)
	}

	if err := refreshHasVariants(ctx, tx, v.ProductID); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateProductVariant overwrites a variant and refreshes the parent's has_variants flag.
func (s *Store) UpdateProductVariant(ctx context.Context, v *models.ProductVariant) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE product_variants SET
			value_en = $1, value_ro = $2, price = $3, stock_quantity = $4, sku = $5,
			is_active = $6, updated_at = NOW()
		WHERE id = $7`

	res, err := tx.ExecContext(ctx, query,
		v.ValueEN, v.ValueRO, v.Price, v.StockQuantity, v.SKU, v.IsActive, v.ID)
	if err != nil {
		return translateErr(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := refreshHasVariants(ctx, tx, v.ProductID); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteProductVariant removes a variant and refreshes the parent's has_variants flag.
func (s *Store) DeleteProductVariant(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var productID int64
	if err := tx.GetContext(ctx, &productID,
		"SELECT product_id FROM product_variants WHERE id = $1", id); err != nil {
		return translateErr(err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM product_variants WHERE id = $1", id); err != nil {
		return err
	}

	if err := refreshHasVariants(ctx, tx, productID); err != nil {
		return err
	}

	return tx.Commit()
}

// refreshHasVariants recomputes has_variants from the count of active variants.
// Runs inside the same transaction as the variant mutation so the flag and the
// rows it summarizes commit together.
func refreshHasVariants(ctx context.Context, tx *sqlx.Tx, productID int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE products SET
			has_variants = EXISTS (
				SELECT 1 FROM product_variants WHERE product_id = $1 AND is_active = TRUE
			),
			updated_at = NOW()
		WHERE id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to refresh has_variants for product %d: %w", productID, err)
	}
	return nil
}
