package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/errs"
	"storefront/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type gormProductRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewGormProductRepository(db *gorm.DB, logger *logrus.Logger) ProductRepository {
	return &gormProductRepository{db: db, log: logger}
}

func byFilter(filter models.ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		if filter.CategoryID != "" {
			tx = tx.Where("category_id = ?", filter.CategoryID)
		}
		return tx
	}
}

func (r *gormProductRepository) List(ctx context.Context, filter models.ProductFilter, offset, limit int) ([]models.Product, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Scopes(byFilter(filter)).Count(&total).Error; err != nil {
		r.log.Errorf("Failed to count products: %v", err)
		return nil, 0, fmt.Errorf("could not count products: %w", err)
	}

	products := []models.Product{}
	err := r.db.WithContext(ctx).
		Scopes(byFilter(filter)).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		r.log.Errorf("Failed to list products: %v", err)
		return nil, 0, fmt.Errorf("could not list products: %w", err)
	}

	if err := r.expand(ctx, products, false); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *gormProductRepository) Get(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Wrap(errs.ErrNotFound, err, "Product not found")
		}
		r.log.Errorf("Failed to get product %s: %v", id, err)
		return nil, fmt.Errorf("could not get product: %w", err)
	}

	products := []models.Product{product}
	if err := r.expand(ctx, products, true); err != nil {
		return nil, err
	}
	return &products[0], nil
}

func (r *gormProductRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("could not count products for category: %w", err)
	}
	return count, nil
}

func (r *gormProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		r.log.Errorf("Failed to create product '%s': %v", product.Name, err)
		return fmt.Errorf("could not create product: %w", err)
	}
	return nil
}

func (r *gormProductRepository) Update(ctx context.Context, product *models.Product) error {
	updates := map[string]interface{}{
		"name":        product.Name,
		"price":       product.Price,
		"description": product.Description,
		"category_id": product.CategoryID,
		"img_title":   product.ImgTitle,
		"alt":         product.Alt,
	}
	if product.Img != "" {
		updates["img"] = product.Img
	}

	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Updates(updates)
	if res.Error != nil {
		r.log.Errorf("Failed to update product %s: %v", product.ID, res.Error)
		return fmt.Errorf("could not update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("Product not found")
	}

	var updated models.Product
	if err := r.db.WithContext(ctx).First(&updated, "id = ?", product.ID).Error; err != nil {
		return fmt.Errorf("could not reload product: %w", err)
	}
	*product = updated
	return nil
}

func (r *gormProductRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		r.log.Errorf("Failed to delete product %s: %v", id, res.Error)
		return fmt.Errorf("could not delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("Product not found")
	}
	return nil
}

// expand fills each product's category reference with one query.
func (r *gormProductRepository) expand(ctx context.Context, products []models.Product, withDescription bool) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.CategoryID)
	}

	columns := []string{"id", "name"}
	if withDescription {
		columns = append(columns, "description")
	}
	var categories []models.Category
	err := r.db.WithContext(ctx).Model(&models.Category{}).Select(columns).Where("id IN ?", ids).Find(&categories).Error
	if err != nil {
		r.log.Errorf("Failed to expand product categories: %v", err)
		return fmt.Errorf("could not load product categories: %w", err)
	}

	refs := make(map[string]*models.CategoryRef, len(categories))
	for _, c := range categories {
		refs[c.ID] = &models.CategoryRef{ID: c.ID, Name: c.Name, Description: c.Description}
	}
	for i := range products {
		products[i].Category = refs[products[i].CategoryID]
	}
	return nil
}
