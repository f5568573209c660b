// Package catalog applies the storefront rules on top of the repositories:
// required fields, unique category names, category references and the
// image that every product carries.
package catalog

import (
	"errors"
	"strings"

	"storefront/errs"
	"storefront/events"
	"storefront/images"
	"storefront/repository"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// ImageSaver stores an upload and returns the public path recorded on the
// product.
type ImageSaver interface {
	Save(upload *images.Upload) (string, error)
}

type Service struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	images     ImageSaver
	events     events.Publisher
	validate   *validator.Validate
	log        *logrus.Logger
}

func NewService(
	categories repository.CategoryRepository,
	products repository.ProductRepository,
	imageSaver ImageSaver,
	publisher events.Publisher,
	logger *logrus.Logger,
) *Service {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &Service{
		categories: categories,
		products:   products,
		images:     imageSaver,
		events:     publisher,
		validate:   validator.New(),
		log:        logger,
	}
}

// check runs struct validation. A missing field yields requiredMsg; any
// other rule failure names the field.
func (s *Service) check(input interface{}, requiredMsg string) error {
	err := s.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return errs.Validation(requiredMsg)
		}
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "gte":
		return errs.Validation("%s must not be negative", strings.ToLower(fe.Field()))
	default:
		return errs.Validation("%s is invalid", strings.ToLower(fe.Field()))
	}
}
