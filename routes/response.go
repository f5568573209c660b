package routes

import (
	"errors"

	"storefront/errs"
	"storefront/models"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Response is the envelope every JSON endpoint returns.
type Response struct {
	Success    bool               `json:"success"`
	Data       interface{}        `json:"data,omitempty"`
	Message    string             `json:"message,omitempty"`
	Error      string             `json:"error,omitempty"`
	Pagination *models.Pagination `json:"pagination,omitempty"`
	Count      *int               `json:"count,omitempty"`
}

func ok(c *fiber.Ctx, status int, resp Response) error {
	resp.Success = true
	return c.Status(status).JSON(resp)
}

func counted(n int) *int {
	return &n
}

// fail maps a catalog or image store error onto the envelope. Unclassified
// errors become a 500 carrying fallback as the message and the cause in
// the error field.
func fail(c *fiber.Ctx, log *logrus.Logger, err error, fallback string) error {
	entry := log.WithFields(logrus.Fields{"method": c.Method(), "path": c.Path()})
	switch {
	case errors.Is(err, errs.ErrNotFound):
		entry.Info(errs.Message(err))
		return c.Status(fiber.StatusNotFound).JSON(Response{Message: errs.Message(err)})
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrConflict):
		entry.Warn(errs.Message(err))
		return c.Status(fiber.StatusBadRequest).JSON(Response{Message: errs.Message(err)})
	default:
		entry.Errorf("%s: %v", fallback, err)
		return c.Status(fiber.StatusInternalServerError).JSON(Response{Message: fallback, Error: err.Error()})
	}
}

// ErrorHandler renders errors that escape a handler, such as unknown routes
// or oversized bodies, in the same envelope.
func ErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.WithFields(logrus.Fields{"method": c.Method(), "path": c.Path()}).Errorf("Unhandled error: %v", err)
		}
		return c.Status(code).JSON(Response{Message: err.Error()})
	}
}
