package services

import (
	"errors"
	"fmt"

	"loja/internal/apperr"
	"loja/internal/models"
	"loja/internal/repositories"

	"github.com/shopspring/decimal"
)

// CartService operates on the session-scoped cart. Stock checks here read
// live product state and are soft: checkout re-validates authoritatively,
// since stock may drift between cart mutation and purchase.
type CartService struct {
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(productRepo repositories.ProductRepository) *CartService {
	return &CartService{productRepo: productRepo}
}

// CartLine is a cart entry joined with its live product.
type CartLine struct {
	Product  models.Product  `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Add increments an existing line or inserts a new one, returning the
// updated total item count.
func (s *CartService) Add(cart models.Cart, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return cart.TotalCount(), fmt.Errorf("quantity must be at least 1: %w", apperr.ErrInvalidQuantity)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return cart.TotalCount(), fmt.Errorf("product %s: %w", productID, apperr.ErrProductUnavailable)
		}
		return cart.TotalCount(), err
	}
	if !product.Active {
		return cart.TotalCount(), fmt.Errorf("product %s: %w", product.Name, apperr.ErrProductUnavailable)
	}

	requested := cart[productID] + quantity
	if product.Stock < requested {
		return cart.TotalCount(), fmt.Errorf("product %s (requested %d, available %d): %w",
			product.Name, requested, product.Stock, apperr.ErrInsufficientStock)
	}

	cart[productID] = requested
	return cart.TotalCount(), nil
}

// Update overwrites a line's quantity.
func (s *CartService) Update(cart models.Cart, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return cart.TotalCount(), fmt.Errorf("quantity must be at least 1: %w", apperr.ErrInvalidQuantity)
	}

	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return cart.TotalCount(), fmt.Errorf("product %s: %w", productID, apperr.ErrProductUnavailable)
		}
		return cart.TotalCount(), err
	}
	if product.Stock < quantity {
		return cart.TotalCount(), fmt.Errorf("product %s (requested %d, available %d): %w",
			product.Name, quantity, product.Stock, apperr.ErrInsufficientStock)
	}

	if _, ok := cart[productID]; ok {
		cart[productID] = quantity
	}
	return cart.TotalCount(), nil
}

// Remove drops a line from the cart; removing an absent line is a no-op.
func (s *CartService) Remove(cart models.Cart, productID string) int {
	delete(cart, productID)
	return cart.TotalCount()
}

// Lines joins the cart with live product data and computes the running
// total. Lines whose product has disappeared are skipped.
func (s *CartService) Lines(cart models.Cart) ([]CartLine, decimal.Decimal, error) {
	lines := make([]CartLine, 0, len(cart))
	total := decimal.Zero

	for productID, quantity := range cart {
		product, err := s.productRepo.GetByID(productID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				continue
			}
			return nil, decimal.Zero, err
		}
		subtotal := product.Price.Mul(decimal.NewFromInt(int64(quantity)))
		total = total.Add(subtotal)
		lines = append(lines, CartLine{
			Product:  *product,
			Quantity: quantity,
			Subtotal: subtotal,
		})
	}
	return lines, total, nil
}
