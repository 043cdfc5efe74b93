package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"loja/internal/apperr"
	"loja/internal/models"

	"github.com/google/uuid"
)

// MemoryOrderRepository is an in-memory implementation of OrderRepository.
// It gives the same atomicity guarantee as the GORM implementation: order
// creation serializes on a mutex and a failed stock decrement rolls back
// the decrements already taken for earlier lines.
type MemoryOrderRepository struct {
	mu       sync.RWMutex
	checkout sync.Mutex // serializes Create, standing in for the DB transaction
	orders   map[string]models.Order
	products *MemoryProductRepository
}

// NewMemoryOrderRepository creates a new instance of MemoryOrderRepository
// backed by the given product repository for stock movements.
func NewMemoryOrderRepository(products *MemoryProductRepository) *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:   make(map[string]models.Order),
		products: products,
	}
}

// Create adds a new order after taking stock for every line.
func (r *MemoryOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	r.checkout.Lock()
	defer r.checkout.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	var taken []models.OrderItem
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		item.OrderID = order.ID

		if item.ProductID == nil {
			continue
		}
		if err := r.products.decrement(*item.ProductID, item.Quantity); err != nil {
			for _, t := range taken {
				r.products.restock(*t.ProductID, t.Quantity)
			}
			return err
		}
		taken = append(taken, *item)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	order.Items = items
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MemoryOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	return &order, nil
}

// ListByUser returns a user's orders, newest first.
func (r *MemoryOrderRepository) ListByUser(userID string, page, perPage int) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			orders = append(orders, o)
		}
	}
	sortOrders(orders)
	return paginateOrders(orders, page, perPage), nil
}

// List returns all orders, optionally filtered by status, newest first.
func (r *MemoryOrderRepository) List(status string, page, perPage int) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var orders []models.Order
	for _, o := range r.orders {
		if status == "" || o.Status == status {
			orders = append(orders, o)
		}
	}
	sortOrders(orders)
	return paginateOrders(orders, page, perPage), nil
}

// UpdateStatus overwrites the order's status.
func (r *MemoryOrderRepository) UpdateStatus(id, status, gatewayStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	order.Status = status
	if gatewayStatus != "" {
		order.PgPaymentStatus = gatewayStatus
	}
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// SavePaymentReference persists the gateway reference fields.
func (r *MemoryOrderRepository) SavePaymentReference(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", order.ID, apperr.ErrNotFound)
	}
	stored.PgPaymentCode = order.PgPaymentCode
	stored.PgPaymentLink = order.PgPaymentLink
	stored.QRCodePix = order.QRCodePix
	stored.PixCopyPaste = order.PixCopyPaste
	stored.UpdatedAt = time.Now()
	r.orders[order.ID] = stored
	return nil
}

// CancelWithRestock flips the order to cancelado and restores stock for
// lines whose product still exists.
func (r *MemoryOrderRepository) CancelWithRestock(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order %s: %w", order.ID, apperr.ErrNotFound)
	}
	if stored.Status != order.Status {
		return fmt.Errorf("order %s changed concurrently: %w", order.ID, apperr.ErrInvalidTransition)
	}

	for _, item := range stored.Items {
		if item.ProductID != nil {
			r.products.restock(*item.ProductID, item.Quantity)
		}
	}
	stored.Status = models.StatusCancelado
	stored.UpdatedAt = time.Now()
	r.orders[order.ID] = stored
	order.Status = models.StatusCancelado
	return nil
}

func sortOrders(orders []models.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[j].CreatedAt.Before(orders[i].CreatedAt)
	})
}

func paginateOrders(orders []models.Order, page, perPage int) []models.Order {
	if perPage <= 0 {
		return orders
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start > len(orders) {
		start = len(orders)
	}
	end := start + perPage
	if end > len(orders) {
		end = len(orders)
	}
	return orders[start:end]
}
