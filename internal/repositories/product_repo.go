package repositories

import (
	"loja/internal/models"
)

// Sort orders accepted by ProductFilter.
const (
	SortNewest    = "novos"
	SortPriceAsc  = "preco-asc"
	SortPriceDesc = "preco-desc"
	SortName      = "nome"
)

// ProductFilter narrows and orders product listings.
type ProductFilter struct {
	CategorySlug    string
	Search          string
	Sort            string
	Page            int
	PerPage         int
	IncludeInactive bool
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(filter ProductFilter) ([]models.Product, int64, error)
	GetByID(id string) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	Related(product *models.Product, limit int) ([]models.Product, error)
	CountByCategory(categoryID string) (int64, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
