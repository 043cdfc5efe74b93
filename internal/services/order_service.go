package services

import (
	"fmt"
	"log"

	"loja/internal/apperr"
	"loja/internal/models"
	"loja/internal/repositories"
	"loja/pkg/rabbitmq"
)

// OrderService handles order retrieval and the admin-side status
// transitions of the state machine.
type OrderService struct {
	orderRepo repositories.OrderRepository
	mqClient  *rabbitmq.Client
}

// NewOrderService creates a new OrderService. mqClient may be nil.
func NewOrderService(orderRepo repositories.OrderRepository, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{orderRepo: orderRepo, mqClient: mqClient}
}

// GetOrder retrieves an order for its owner. Admins may read any order;
// anyone else gets ErrAccessDenied on a mismatch without data exposure.
func (s *OrderService) GetOrder(orderID, userID string, isAdmin bool) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && !isAdmin {
		return nil, fmt.Errorf("order %s: %w", orderID, apperr.ErrAccessDenied)
	}
	return order, nil
}

// ListUserOrders retrieves a user's orders, newest first.
func (s *OrderService) ListUserOrders(userID string, page, perPage int) ([]models.Order, error) {
	return s.orderRepo.ListByUser(userID, page, perPage)
}

// ListOrders retrieves all orders, optionally filtered by status.
func (s *OrderService) ListOrders(status string, page, perPage int) ([]models.Order, error) {
	if status != "" && !models.ValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, apperr.ErrValidation)
	}
	return s.orderRepo.List(status, page, perPage)
}

// SetStatus performs an admin status change, validated against the state
// machine. Cancellation goes through Cancel so stock is restored.
func (s *OrderService) SetStatus(orderID, status string) (*models.Order, error) {
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("unknown status %q: %w", status, apperr.ErrValidation)
	}
	if status == models.StatusCancelado {
		return s.Cancel(orderID)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if !models.CanTransition(order.Status, status) {
		return nil, fmt.Errorf("cannot move order from %s to %s: %w", order.Status, status, apperr.ErrInvalidTransition)
	}
	if order.Status == status {
		return order, nil
	}

	if err := s.orderRepo.UpdateStatus(order.ID, status, ""); err != nil {
		return nil, err
	}
	order.Status = status

	if status == models.StatusPago {
		s.publish(rabbitmq.EventOrderPaid, order)
	}
	return order, nil
}

// MarkShipped moves a paid order to enviando. Only paid orders ship.
func (s *OrderService) MarkShipped(orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusPago {
		return nil, fmt.Errorf("only paid orders can ship, order is %s: %w", order.Status, apperr.ErrInvalidTransition)
	}
	if err := s.orderRepo.UpdateStatus(order.ID, models.StatusEnviando, ""); err != nil {
		return nil, err
	}
	order.Status = models.StatusEnviando
	return order, nil
}

// Cancel cancels an order and returns each line's quantity to stock,
// skipping lines whose product has since been deleted. Shipped, delivered
// and already-cancelled orders cannot be cancelled, which also makes a
// second cancellation fail rather than restock twice.
func (s *OrderService) Cancel(orderID string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case models.StatusEnviando, models.StatusEntregue:
		return nil, fmt.Errorf("cannot cancel a %s order: %w", order.Status, apperr.ErrInvalidTransition)
	case models.StatusCancelado:
		return nil, fmt.Errorf("order already cancelled: %w", apperr.ErrInvalidTransition)
	}

	if err := s.orderRepo.CancelWithRestock(order); err != nil {
		return nil, err
	}

	s.publish(rabbitmq.EventOrderCancelled, order)
	return order, nil
}

func (s *OrderService) publish(eventType string, order *models.Order) {
	if s.mqClient == nil {
		return
	}
	err := s.mqClient.PublishOrderEvent(rabbitmq.OrderEvent{
		Type:    eventType,
		OrderID: order.ID,
		UserID:  order.UserID,
		Status:  order.Status,
		Total:   order.Total.StringFixed(2),
	})
	if err != nil {
		log.Printf("Warning: failed to publish %s event for order %s: %v", eventType, order.ID, err)
	}
}
