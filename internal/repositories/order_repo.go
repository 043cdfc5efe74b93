package repositories

import (
	"loja/internal/models"
)

// OrderRepository defines the interface for order data access.
//
// Create is the one place where checkout atomicity is enforced: the order,
// its items and the stock decrements commit in a single transaction, and a
// concurrent checkout racing for the same stock must fail with
// apperr.ErrInsufficientStock rather than oversell.
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id string) (*models.Order, error)
	ListByUser(userID string, page, perPage int) ([]models.Order, error)
	List(status string, page, perPage int) ([]models.Order, error)
	UpdateStatus(id, status, gatewayStatus string) error
	SavePaymentReference(order *models.Order) error
	CancelWithRestock(order *models.Order) error
}
