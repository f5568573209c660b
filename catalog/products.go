package catalog

import (
	"context"
	"errors"
	"strings"

	"storefront/errs"
	"storefront/events"
	"storefront/images"
	"storefront/models"

	"github.com/sirupsen/logrus"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

func (s *Service) ListProducts(ctx context.Context, filter models.ProductFilter, page, limit int) (*models.ProductPage, error) {
	if page < 1 {
		return nil, errs.Validation("page must be a positive integer")
	}
	if limit < 1 {
		return nil, errs.Validation("limit must be a positive integer")
	}

	products, total, err := s.products.List(ctx, filter, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	return &models.ProductPage{
		Products:   products,
		Pagination: models.NewPagination(page, limit, total),
	}, nil
}

// ListProductsByCategory does not check that the category exists; an
// unknown id yields an empty page.
func (s *Service) ListProductsByCategory(ctx context.Context, categoryID string, page, limit int) (*models.ProductPage, error) {
	return s.ListProducts(ctx, models.ProductFilter{CategoryID: categoryID}, page, limit)
}

func (s *Service) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.products.Get(ctx, id)
}

func normalizeProduct(input models.ProductInput) models.ProductInput {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.CategoryID = strings.TrimSpace(input.CategoryID)
	input.ImgTitle = strings.TrimSpace(input.ImgTitle)
	input.Alt = strings.TrimSpace(input.Alt)
	return input
}

// resolveCategory reports an unknown category as a validation failure.
func (s *Service) resolveCategory(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.Validation("Category not found")
		}
		return nil, err
	}
	return category, nil
}

// CreateProduct validates the form, stores the image and then inserts the
// record. If the insert fails the stored image stays on disk.
func (s *Service) CreateProduct(ctx context.Context, input models.ProductInput, upload *images.Upload) (*models.Product, error) {
	input = normalizeProduct(input)
	if err := s.check(input, "All fields are required"); err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, errs.Validation("Image file is required")
	}
	category, err := s.resolveCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	img, err := s.images.Save(upload)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        input.Name,
		Price:       *input.Price,
		Description: input.Description,
		Img:         img,
		ImgTitle:    input.ImgTitle,
		Alt:         input.Alt,
		CategoryID:  category.ID,
	}
	if err := s.products.Create(ctx, product); err != nil {
		s.log.WithField("img", img).Warnf("Product insert failed after storing image: %v", err)
		return nil, err
	}
	product.Category = &models.CategoryRef{ID: category.ID, Name: category.Name}

	s.log.WithFields(logrus.Fields{"id": product.ID, "category": category.ID}).Info("Product created")
	s.events.Publish(events.ProductCreated, product.ID, product)
	return product, nil
}

// UpdateProduct replaces every text field. A new upload replaces the image
// path; the previous file is left in place.
func (s *Service) UpdateProduct(ctx context.Context, id string, input models.ProductInput, upload *images.Upload) (*models.Product, error) {
	input = normalizeProduct(input)
	if err := s.check(input, "All fields are required"); err != nil {
		return nil, err
	}
	category, err := s.resolveCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.products.Get(ctx, id); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          id,
		Name:        input.Name,
		Price:       *input.Price,
		Description: input.Description,
		ImgTitle:    input.ImgTitle,
		Alt:         input.Alt,
		CategoryID:  category.ID,
	}
	if upload != nil {
		img, err := s.images.Save(upload)
		if err != nil {
			return nil, err
		}
		product.Img = img
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}
	product.Category = &models.CategoryRef{ID: category.ID, Name: category.Name}

	s.log.WithField("id", id).Info("Product updated")
	s.events.Publish(events.ProductUpdated, id, product)
	return product, nil
}

// DeleteProduct removes the record only; its image file is kept.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("id", id).Info("Product deleted")
	s.events.Publish(events.ProductDeleted, id, nil)
	return nil
}
