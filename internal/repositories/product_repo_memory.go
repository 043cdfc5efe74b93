package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"loja/internal/apperr"
	"loja/internal/models"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of
// ProductRepository, used by tests and local runs without a database.
type MemoryProductRepository struct {
	mu         sync.RWMutex
	products   map[string]models.Product
	categories map[string]models.Category // category ID -> category, for slug filtering
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products:   make(map[string]models.Product),
		categories: make(map[string]models.Category),
	}
}

// SetCategory registers a category so List can resolve slug filters.
func (r *MemoryProductRepository) SetCategory(category models.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories[category.ID] = category
}

// List returns products matching the filter.
func (r *MemoryProductRepository) List(filter ProductFilter) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var categoryID string
	if filter.CategorySlug != "" {
		for _, c := range r.categories {
			if c.Slug == filter.CategorySlug {
				categoryID = c.ID
				break
			}
		}
	}

	list := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if !filter.IncludeInactive && !p.Active {
			continue
		}
		if categoryID != "" && p.CategoryID != categoryID {
			continue
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
			continue
		}
		list = append(list, p)
	}

	switch filter.Sort {
	case SortPriceAsc:
		sort.Slice(list, func(i, j int) bool { return list[i].Price.LessThan(list[j].Price) })
	case SortPriceDesc:
		sort.Slice(list, func(i, j int) bool { return list[j].Price.LessThan(list[i].Price) })
	case SortName:
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	default:
		sort.Slice(list, func(i, j int) bool { return list[j].CreatedAt.Before(list[i].CreatedAt) })
	}

	total := int64(len(list))
	if filter.PerPage > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * filter.PerPage
		if start > len(list) {
			start = len(list)
		}
		end := start + filter.PerPage
		if end > len(list) {
			end = len(list)
		}
		list = list[start:end]
	}
	return list, total, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	return &product, nil
}

// GetBySlug returns a product by its slug.
func (r *MemoryProductRepository) GetBySlug(slug string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Slug == slug {
			product := p
			return &product, nil
		}
	}
	return nil, fmt.Errorf("product %s: %w", slug, apperr.ErrNotFound)
}

// Related returns active products sharing the product's category.
func (r *MemoryProductRepository) Related(product *models.Product, limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var related []models.Product
	for _, p := range r.products {
		if len(related) == limit {
			break
		}
		if p.ID != product.ID && p.CategoryID == product.CategoryID && p.Active {
			related = append(related, p)
		}
	}
	return related, nil
}

// CountByCategory counts products referencing a category.
func (r *MemoryProductRepository) CountByCategory(categoryID string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, p := range r.products {
		if p.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("product %s: %w", product.ID, apperr.ErrNotFound)
	}
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
	}
	delete(r.products, id)
	return nil
}

// decrement atomically takes quantity units of stock.
func (r *MemoryProductRepository) decrement(productID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[productID]
	if !ok || !product.Active || product.Stock < quantity {
		return fmt.Errorf("product %s: %w", productID, apperr.ErrInsufficientStock)
	}
	product.Stock -= quantity
	r.products[productID] = product
	return nil
}

// restock returns quantity units of stock, skipping deleted products.
func (r *MemoryProductRepository) restock(productID string, quantity int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product, ok := r.products[productID]; ok {
		product.Stock += quantity
		r.products[productID] = product
	}
}
