package routes

import (
	"github.com/gofiber/fiber/v2"
)

func (h *Handler) listImages(c *fiber.Ctx) error {
	list, err := h.images.List(c.BaseURL())
	if err != nil {
		return fail(c, h.log, err, "Error fetching images")
	}
	return ok(c, fiber.StatusOK, Response{Data: list, Count: counted(len(list))})
}

func (h *Handler) viewImage(c *fiber.Ctx) error {
	file, contentType, size, err := h.images.Open(c.Params("filename"))
	if err != nil {
		return fail(c, h.log, err, "Error streaming image")
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.SendStream(file, int(size))
}

func (h *Handler) imageDetails(c *fiber.Ctx) error {
	details, err := h.images.Details(c.Params("filename"), c.BaseURL())
	if err != nil {
		return fail(c, h.log, err, "Error fetching image details")
	}
	return ok(c, fiber.StatusOK, Response{Data: details})
}
