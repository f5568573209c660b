package routes

import (
	"storefront/catalog"
	"storefront/events"
	"storefront/images"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	catalog *catalog.Service
	images  *images.Store
	log     *logrus.Logger
}

func NewHandler(svc *catalog.Service, imageStore *images.Store, log *logrus.Logger) *Handler {
	return &Handler{catalog: svc, images: imageStore, log: log}
}

// NewApp builds the fiber app with the shared middleware stack. bodyLimit
// must leave room for the largest accepted image plus form fields.
func NewApp(bodyLimit int, log *logrus.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		BodyLimit:    bodyLimit,
		ErrorHandler: ErrorHandler(log),
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{Output: log.Writer()}))
	app.Use(cors.New())
	return app
}

// SetupRoutes mounts the API, the upload directory and, when hub is not
// nil, the catalog event stream.
func SetupRoutes(app *fiber.App, h *Handler, hub *events.Hub) {
	app.Static("/uploads", h.images.Dir())

	if hub != nil {
		app.Get("/ws", adaptor.HTTPHandler(hub))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return ok(c, fiber.StatusOK, Response{Message: "ok"})
	})

	api := app.Group("/api")

	// Category routes
	categories := api.Group("/categories")
	categories.Get("/", h.listCategories)
	categories.Post("/", h.createCategory)
	categories.Get("/:categoryId/products", h.listProductsByCategory)
	categories.Get("/:id", h.getCategory)
	categories.Put("/:id", h.updateCategory)
	categories.Delete("/:id", h.deleteCategory)

	// Product routes
	products := api.Group("/products")
	products.Get("/", h.listProducts)
	products.Post("/", h.createProduct)
	products.Get("/:id", h.getProduct)
	products.Put("/:id", h.updateProduct)
	products.Delete("/:id", h.deleteProduct)

	// Image routes
	imageRoutes := api.Group("/images")
	imageRoutes.Get("/", h.listImages)
	imageRoutes.Get("/view/:filename", h.viewImage)
	imageRoutes.Get("/details/:filename", h.imageDetails)
}
