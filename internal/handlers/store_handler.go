package handlers

import (
	"loja/internal/repositories"
	"loja/internal/services"

	"github.com/gofiber/fiber/v2"
)

// StoreHandler serves the public catalog: product listings, product
// detail and categories.
type StoreHandler struct {
	productService  *services.ProductService
	categoryService *services.CategoryService
}

// NewStoreHandler creates a new StoreHandler.
func NewStoreHandler(productService *services.ProductService, categoryService *services.CategoryService) *StoreHandler {
	return &StoreHandler{
		productService:  productService,
		categoryService: categoryService,
	}
}

// RegisterRoutes registers the catalog routes.
func (h *StoreHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/products", h.HandleListProducts)
	router.Get("/products/:slug", h.HandleGetProduct)
	router.Get("/categories", h.HandleListCategories)
}

// HandleListProducts lists active products with category, search, sort and
// pagination query parameters.
func (h *StoreHandler) HandleListProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		CategorySlug: c.Query("categoria"),
		Search:       c.Query("q"),
		Sort:         c.Query("ordem"),
		Page:         c.QueryInt("page", 1),
		PerPage:      c.QueryInt("per_page", 12),
	}

	products, total, err := h.productService.ListProducts(filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"products": products,
		"total":    total,
		"page":     filter.Page,
		"per_page": filter.PerPage,
	})
}

// HandleGetProduct returns a product by slug with related products.
func (h *StoreHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, related, err := h.productService.GetProductBySlug(c.Params("slug"))
	if err != nil {
		return respondError(c, err)
	}
	if !product.Active {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Product not found",
		})
	}
	return c.JSON(fiber.Map{
		"product":  product,
		"discount": product.DiscountPercent(),
		"related":  related,
	})
}

// HandleListCategories lists all categories.
func (h *StoreHandler) HandleListCategories(c *fiber.Ctx) error {
	categories, err := h.categoryService.ListCategories()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(categories)
}
