package routes

import (
	"storefront/models"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) listCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return fail(c, h.log, err, "Error fetching categories")
	}
	return ok(c, fiber.StatusOK, Response{Data: categories, Count: counted(len(categories))})
}

func (h *Handler) getCategory(c *fiber.Ctx) error {
	category, err := h.catalog.GetCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err, "Error fetching category")
	}
	return ok(c, fiber.StatusOK, Response{Data: category})
}

// parseCategory reads the body; an empty body is treated as an empty
// input so the required-field check reports it.
func parseCategory(c *fiber.Ctx) (models.CategoryInput, error) {
	var input models.CategoryInput
	if len(c.Body()) == 0 {
		return input, nil
	}
	if err := c.BodyParser(&input); err != nil {
		return input, err
	}
	return input, nil
}

func (h *Handler) createCategory(c *fiber.Ctx) error {
	input, err := parseCategory(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	category, err := h.catalog.CreateCategory(c.UserContext(), input)
	if err != nil {
		return fail(c, h.log, err, "Error creating category")
	}
	return ok(c, fiber.StatusCreated, Response{Data: category, Message: "Category created successfully"})
}

func (h *Handler) updateCategory(c *fiber.Ctx) error {
	input, err := parseCategory(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(Response{
			Message: "Failed to parse request body",
			Error:   err.Error(),
		})
	}

	category, err := h.catalog.UpdateCategory(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return fail(c, h.log, err, "Error updating category")
	}
	return ok(c, fiber.StatusOK, Response{Data: category, Message: "Category updated successfully"})
}

func (h *Handler) deleteCategory(c *fiber.Ctx) error {
	if err := h.catalog.DeleteCategory(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, h.log, err, "Error deleting category")
	}
	return ok(c, fiber.StatusOK, Response{Message: "Category deleted successfully"})
}

func (h *Handler) listProductsByCategory(c *fiber.Ctx) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return fail(c, h.log, err, "Error fetching products by category")
	}
	result, err := h.catalog.ListProductsByCategory(c.UserContext(), c.Params("categoryId"), page, limit)
	if err != nil {
		return fail(c, h.log, err, "Error fetching products by category")
	}
	return ok(c, fiber.StatusOK, Response{Data: result.Products, Pagination: &result.Pagination})
}
