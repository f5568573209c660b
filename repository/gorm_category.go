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

type gormCategoryRepository struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewGormCategoryRepository(db *gorm.DB, logger *logrus.Logger) CategoryRepository {
	return &gormCategoryRepository{db: db, log: logger}
}

func (r *gormCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		r.log.Errorf("Failed to list categories: %v", err)
		return nil, fmt.Errorf("could not list categories: %w", err)
	}
	return categories, nil
}

func (r *gormCategoryRepository) Get(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Wrap(errs.ErrNotFound, err, "Category not found")
		}
		r.log.Errorf("Failed to get category %s: %v", id, err)
		return nil, fmt.Errorf("could not get category: %w", err)
	}
	return &category, nil
}

func (r *gormCategoryRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Category{}).Where("name = ?", name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("could not check category name: %w", err)
	}
	return count > 0, nil
}

func (r *gormCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = newID()
	}
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			r.log.Warnf("Attempted to create category with duplicate name: %s", category.Name)
			return errs.Wrap(errs.ErrConflict, err, "Category name already exists")
		}
		r.log.Errorf("Failed to create category '%s': %v", category.Name, err)
		return fmt.Errorf("could not create category: %w", err)
	}
	return nil
}

func (r *gormCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	res := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", category.ID).Updates(map[string]interface{}{
		"name":        category.Name,
		"description": category.Description,
	})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			r.log.Warnf("Attempted to update category %s with duplicate name: %s", category.ID, category.Name)
			return errs.Wrap(errs.ErrConflict, res.Error, "Category name already exists")
		}
		r.log.Errorf("Failed to update category %s: %v", category.ID, res.Error)
		return fmt.Errorf("could not update category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("Category not found")
	}

	updated, err := r.Get(ctx, category.ID)
	if err != nil {
		return err
	}
	*category = *updated
	return nil
}

func (r *gormCategoryRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id)
	if res.Error != nil {
		r.log.Errorf("Failed to delete category %s: %v", id, res.Error)
		return fmt.Errorf("could not delete category: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.NotFound("Category not found")
	}
	return nil
}
