package services

import (
	"strings"

	"loja/internal/models"
	"loja/internal/repositories"
)

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// ListProducts retrieves products matching the filter.
func (s *ProductService) ListProducts(filter repositories.ProductFilter) ([]models.Product, int64, error) {
	return s.repo.List(filter)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// GetProductBySlug retrieves a product by slug along with up to four
// related products from the same category.
func (s *ProductService) GetProductBySlug(slug string) (*models.Product, []models.Product, error) {
	product, err := s.repo.GetBySlug(slug)
	if err != nil {
		return nil, nil, err
	}
	related, err := s.repo.Related(product, 4)
	if err != nil {
		return nil, nil, err
	}
	return product, related, nil
}

// CreateProduct creates a new product, deriving the slug from the name
// when none is set.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Slug == "" {
		product.Slug = Slugify(product.Name)
	}
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product, rebuilding the slug from the
// name.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	product.Slug = Slugify(product.Name)
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}

// Slugify lowercases a name and replaces separators so it can serve as a
// URL slug.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "/", "-")
	return slug
}
