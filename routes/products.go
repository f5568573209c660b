package routes

import (
	"math"
	"mime/multipart"
	"strconv"
	"strings"

	"storefront/catalog"
	"storefront/errs"
	"storefront/images"
	"storefront/models"

	"github.com/gofiber/fiber/v2"
)

const imageField = "image"

func queryInt(c *fiber.Ctx, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, errs.Validation("%s must be a positive integer", key)
	}
	return v, nil
}

func pageParams(c *fiber.Ctx) (int, int, error) {
	page, err := queryInt(c, "page", catalog.DefaultPage)
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt(c, "limit", catalog.DefaultLimit)
	if err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

// productForm reads the text fields of a multipart (or urlencoded) product
// form. An absent price stays nil.
func productForm(c *fiber.Ctx) (models.ProductInput, error) {
	input := models.ProductInput{
		Name:        c.FormValue("name"),
		Description: c.FormValue("description"),
		CategoryID:  c.FormValue("categoryId"),
		ImgTitle:    c.FormValue("imgTitle"),
		Alt:         c.FormValue("alt"),
	}
	if raw := strings.TrimSpace(c.FormValue("price")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return input, errs.Validation("price must be a number")
		}
		input.Price = &v
	}
	return input, nil
}

// formImage opens the uploaded image if the request carries one. The
// returned closer must be called once the upload has been consumed.
func formImage(c *fiber.Ctx) (*images.Upload, func(), error) {
	fh, err := c.FormFile(imageField)
	if err != nil || fh == nil {
		return nil, func() {}, nil
	}
	return openUpload(fh)
}

func openUpload(fh *multipart.FileHeader) (*images.Upload, func(), error) {
	file, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	upload := &images.Upload{
		Field:    imageField,
		Filename: fh.Filename,
		Size:     fh.Size,
		Content:  file,
	}
	return upload, func() { file.Close() }, nil
}

func (h *Handler) listProducts(c *fiber.Ctx) error {
	page, limit, err := pageParams(c)
	if err != nil {
		return fail(c, h.log, err, "Error fetching products")
	}
	filter := models.ProductFilter{CategoryID: strings.TrimSpace(c.Query("categoryId"))}

	result, err := h.catalog.ListProducts(c.UserContext(), filter, page, limit)
	if err != nil {
		return fail(c, h.log, err, "Error fetching products")
	}
	return ok(c, fiber.StatusOK, Response{Data: result.Products, Pagination: &result.Pagination})
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	product, err := h.catalog.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, h.log, err, "Error fetching product")
	}
	return ok(c, fiber.StatusOK, Response{Data: product})
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	input, err := productForm(c)
	if err != nil {
		return fail(c, h.log, err, "Error creating product")
	}
	upload, done, err := formImage(c)
	if err != nil {
		return fail(c, h.log, err, "Error creating product")
	}
	defer done()

	product, err := h.catalog.CreateProduct(c.UserContext(), input, upload)
	if err != nil {
		return fail(c, h.log, err, "Error creating product")
	}
	return ok(c, fiber.StatusCreated, Response{Data: product, Message: "Product created successfully"})
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	input, err := productForm(c)
	if err != nil {
		return fail(c, h.log, err, "Error updating product")
	}
	upload, done, err := formImage(c)
	if err != nil {
		return fail(c, h.log, err, "Error updating product")
	}
	defer done()

	product, err := h.catalog.UpdateProduct(c.UserContext(), c.Params("id"), input, upload)
	if err != nil {
		return fail(c, h.log, err, "Error updating product")
	}
	return ok(c, fiber.StatusOK, Response{Data: product, Message: "Product updated successfully"})
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	if err := h.catalog.DeleteProduct(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, h.log, err, "Error deleting product")
	}
	return ok(c, fiber.StatusOK, Response{Message: "Product deleted successfully"})
}
