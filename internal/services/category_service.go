package services

import (
	"fmt"

	"loja/internal/apperr"
	"loja/internal/models"
	"loja/internal/repositories"
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	categoryRepo repositories.CategoryRepository
	productRepo  repositories.ProductRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categoryRepo repositories.CategoryRepository, productRepo repositories.ProductRepository) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// ListCategories retrieves all categories.
func (s *CategoryService) ListCategories() ([]models.Category, error) {
	return s.categoryRepo.List()
}

// GetCategoryByID retrieves a category by its ID.
func (s *CategoryService) GetCategoryByID(id string) (*models.Category, error) {
	return s.categoryRepo.GetByID(id)
}

// CreateCategory creates a new category, deriving the slug from the name.
func (s *CategoryService) CreateCategory(category *models.Category) error {
	if category.Slug == "" {
		category.Slug = Slugify(category.Name)
	}
	return s.categoryRepo.Create(category)
}

// UpdateCategory updates an existing category.
func (s *CategoryService) UpdateCategory(category *models.Category) error {
	category.Slug = Slugify(category.Name)
	return s.categoryRepo.Update(category)
}

// DeleteCategory deletes a category. Deletion is blocked while any product
// still references it.
func (s *CategoryService) DeleteCategory(id string) error {
	count, err := s.productRepo.CountByCategory(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("category still owns %d product(s): %w", count, apperr.ErrValidation)
	}
	return s.categoryRepo.Delete(id)
}
