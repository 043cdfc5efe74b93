package repositories

import (
	"errors"
	"fmt"

	"loja/internal/apperr"
	"loja/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{db: db}
}

// Create persists the order, its items and the stock decrements in a single
// transaction. The decrement is a guarded update (stock >= quantity in the
// WHERE clause), so two checkouts racing for the last unit serialize on the
// stock column and the loser rolls back with ErrInsufficientStock.
func (r *GORMOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		for i := range items {
			item := &items[i]
			if item.ID == "" {
				item.ID = uuid.New().String()
			}
			item.OrderID = order.ID

			if item.ProductID == nil {
				continue
			}
			res := tx.Model(&models.Product{}).
				Where("id = ? AND active = ? AND stock >= ?", *item.ProductID, true, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to decrement stock for product %s: %w", *item.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %s: %w", *item.ProductID, apperr.ErrInsufficientStock)
			}
		}

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
		order.Items = items
		return nil
	})
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// ListByUser retrieves a user's orders, newest first.
func (r *GORMOrderRepository) ListByUser(userID string, page, perPage int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at desc")
	if perPage > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * perPage).Limit(perPage)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// List retrieves all orders, optionally filtered by status, newest first.
func (r *GORMOrderRepository) List(status string, page, perPage int) ([]models.Order, error) {
	query := r.db.Preload("Items").Order("created_at desc")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if perPage > 0 {
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * perPage).Limit(perPage)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus overwrites the order's status, and the gateway status when
// one is supplied. The overwrite is what keeps webhook redelivery
// idempotent.
func (r *GORMOrderRepository) UpdateStatus(id, status, gatewayStatus string) error {
	updates := map[string]interface{}{"status": status}
	if gatewayStatus != "" {
		updates["pg_payment_status"] = gatewayStatus
	}
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update status for order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// SavePaymentReference persists the gateway reference fields set by the
// payment dispatcher.
func (r *GORMOrderRepository) SavePaymentReference(order *models.Order) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"pg_payment_code": order.PgPaymentCode,
		"pg_payment_link": order.PgPaymentLink,
		"qr_code_pix":     order.QRCodePix,
		"pix_copy_paste":  order.PixCopyPaste,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to save payment reference for order %s: %w", order.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", order.ID, apperr.ErrNotFound)
	}
	return nil
}

// CancelWithRestock flips the order to cancelado and returns each item's
// quantity to its product's stock in the same transaction. Items whose
// product has since been deleted are skipped.
func (r *GORMOrderRepository) CancelWithRestock(order *models.Order) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			if item.ProductID == nil {
				continue
			}
			// Soft-deleted products drop out of the default scope, so
			// this is a no-op for them.
			err := tx.Model(&models.Product{}).
				Where("id = ?", *item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity)).Error
			if err != nil {
				return fmt.Errorf("failed to restock product %s: %w", *item.ProductID, err)
			}
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, order.Status).
			Update("status", models.StatusCancelado)
		if res.Error != nil {
			return fmt.Errorf("failed to cancel order %s: %w", order.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("order %s changed concurrently: %w", order.ID, apperr.ErrInvalidTransition)
		}
		order.Status = models.StatusCancelado
		return nil
	})
}
