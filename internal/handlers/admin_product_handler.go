package handlers

import (
	"loja/internal/models"
	"loja/internal/repositories"
	"loja/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdminProductHandler exposes product and category management. The routes
// are mounted behind the admin middleware.
type AdminProductHandler struct {
	productService  *services.ProductService
	categoryService *services.CategoryService
	validate        *validator.Validate
}

// NewAdminProductHandler creates a new AdminProductHandler.
func NewAdminProductHandler(productService *services.ProductService, categoryService *services.CategoryService) *AdminProductHandler {
	return &AdminProductHandler{
		productService:  productService,
		categoryService: categoryService,
		validate:        validator.New(),
	}
}

// RegisterRoutes registers the admin catalog routes.
func (h *AdminProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)

	categoryRoutes := router.Group("/categories")
	categoryRoutes.Post("/", h.HandleCreateCategory)
	categoryRoutes.Put("/:id", h.HandleUpdateCategory)
	categoryRoutes.Delete("/:id", h.HandleDeleteCategory)
}

// HandleListProducts lists products for the admin panel, inactive ones
// included.
func (h *AdminProductHandler) HandleListProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		CategorySlug:    c.Query("categoria"),
		Search:          c.Query("q"),
		Sort:            c.Query("ordem"),
		Page:            c.QueryInt("page", 1),
		PerPage:         c.QueryInt("per_page", 20),
		IncludeInactive: true,
	}
	products, total, err := h.productService.ListProducts(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"products": products,
		"total":    total,
		"page":     filter.Page,
	})
}

// ProductRequest is the request body for creating or updating a product.
// Prices arrive as plain JSON numbers and are converted to decimals.
type ProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	OldPrice    *float64 `json:"old_price"`
	Stock       int      `json:"stock" validate:"gte=0"`
	Image       string   `json:"image"`
	Active      *bool    `json:"active"`
	CategoryID  string   `json:"category_id" validate:"required"`
}

func (r *ProductRequest) apply(product *models.Product) {
	product.Name = r.Name
	product.Description = r.Description
	product.Price = decimal.NewFromFloat(r.Price)
	product.OldPrice = nil
	if r.OldPrice != nil {
		old := decimal.NewFromFloat(*r.OldPrice)
		product.OldPrice = &old
	}
	product.Stock = r.Stock
	product.Image = r.Image
	product.Active = true
	if r.Active != nil {
		product.Active = *r.Active
	}
	product.CategoryID = r.CategoryID
}

// HandleCreateProduct creates a product.
func (h *AdminProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	product := &models.Product{ID: uuid.New().String()}
	req.apply(product)
	if err := h.productService.CreateProduct(product); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct overwrites a product.
func (h *AdminProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	product, err := h.productService.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	req.apply(product)
	if err := h.productService.UpdateProduct(product); err != nil {
		return respondError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes a product from the catalog.
func (h *AdminProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.productService.DeleteProduct(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// CategoryRequest is the request body for creating or updating a category.
type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// HandleCreateCategory creates a category.
func (h *AdminProductHandler) HandleCreateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	category := &models.Category{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
	}
	if err := h.categoryService.CreateCategory(category); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

// HandleUpdateCategory overwrites a category.
func (h *AdminProductHandler) HandleUpdateCategory(c *fiber.Ctx) error {
	var req CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	category, err := h.categoryService.GetCategoryByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	category.Name = req.Name
	category.Description = req.Description
	if err := h.categoryService.UpdateCategory(category); err != nil {
		return respondError(c, err)
	}
	return c.JSON(category)
}

// HandleDeleteCategory removes an empty category. Categories that still
// hold products are refused.
func (h *AdminProductHandler) HandleDeleteCategory(c *fiber.Ctx) error {
	if err := h.categoryService.DeleteCategory(c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
