// Package repository persists categories and products. Two backends share
// the interfaces below: GORM over SQLite and the MongoDB driver.
package repository

import (
	"context"

	"storefront/models"

	"github.com/google/uuid"
)

// CategoryRepository returns errs.NotFound for unknown ids and errs.Conflict
// when a write would duplicate a category name.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	Get(ctx context.Context, id string) (*models.Category, error)
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}

// ProductRepository lists newest first. List expands the category reference
// to its name; Get expands it to name and description.
type ProductRepository interface {
	List(ctx context.Context, filter models.ProductFilter, offset, limit int) ([]models.Product, int64, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}
