package catalog

import (
	"context"
	"strings"

	"storefront/errs"
	"storefront/events"
	"storefront/models"

	"github.com/sirupsen/logrus"
)

func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

func (s *Service) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	return s.categories.Get(ctx, id)
}

func normalizeCategory(input models.CategoryInput) models.CategoryInput {
	return models.CategoryInput{
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
	}
}

func (s *Service) CreateCategory(ctx context.Context, input models.CategoryInput) (*models.Category, error) {
	input = normalizeCategory(input)
	if err := s.check(input, "Name and description are required"); err != nil {
		return nil, err
	}

	taken, err := s.categories.NameTaken(ctx, input.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		s.log.Warnf("Category name '%s' already exists", input.Name)
		return nil, errs.Conflict("Category name already exists")
	}

	category := &models.Category{Name: input.Name, Description: input.Description}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"id": category.ID, "name": category.Name}).Info("Category created")
	s.events.Publish(events.CategoryCreated, category.ID, category)
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, input models.CategoryInput) (*models.Category, error) {
	input = normalizeCategory(input)
	if err := s.check(input, "Name and description are required"); err != nil {
		return nil, err
	}
	if _, err := s.categories.Get(ctx, id); err != nil {
		return nil, err
	}

	taken, err := s.categories.NameTaken(ctx, input.Name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errs.Conflict("Category name already exists")
	}

	category := &models.Category{ID: id, Name: input.Name, Description: input.Description}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}
	s.log.WithField("id", id).Info("Category updated")
	s.events.Publish(events.CategoryUpdated, id, category)
	return category, nil
}

// DeleteCategory refuses while any product still references the category.
// The count and the delete are separate operations.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	count, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return errs.Conflict("Cannot delete category. %d products are assigned to this category.", count)
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("id", id).Info("Category deleted")
	s.events.Publish(events.CategoryDeleted, id, nil)
	return nil
}
