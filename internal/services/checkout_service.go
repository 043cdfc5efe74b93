package services

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"loja/internal/apperr"
	"loja/internal/models"
	"loja/internal/repositories"
	"loja/pkg/rabbitmq"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutService converts a session cart into a persisted order. The cart
// is re-validated against live products here regardless of what the cart
// API checked earlier: this is the only consistency guarantee against
// stock drift between add-to-cart and purchase.
type CheckoutService struct {
	orderRepo   repositories.OrderRepository
	productRepo repositories.ProductRepository
	addressRepo repositories.AddressRepository
	mqClient    *rabbitmq.Client
}

// NewCheckoutService creates a new CheckoutService. mqClient may be nil.
func NewCheckoutService(
	orderRepo repositories.OrderRepository,
	productRepo repositories.ProductRepository,
	addressRepo repositories.AddressRepository,
	mqClient *rabbitmq.Client,
) *CheckoutService {
	return &CheckoutService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		addressRepo: addressRepo,
		mqClient:    mqClient,
	}
}

// AddressInput describes a new delivery address submitted at checkout.
type AddressInput struct {
	PostalCode   string `json:"postal_code"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// CheckoutInput carries the checkout form: either an existing address ID
// or a new address, plus the chosen payment method.
type CheckoutInput struct {
	AddressID     string        `json:"address_id"`
	Address       *AddressInput `json:"address"`
	PaymentMethod string        `json:"payment_method"`
}

// Checkout validates the cart against live products, resolves the delivery
// address, and creates the order with its line snapshots and stock
// decrements in one transaction. The caller clears the session cart after
// a successful return.
func (s *CheckoutService) Checkout(userID string, cart models.Cart, input CheckoutInput) (*models.Order, error) {
	if cart.IsEmpty() {
		return nil, fmt.Errorf("cart is empty: %w", apperr.ErrValidation)
	}
	if input.PaymentMethod != models.PaymentPix && input.PaymentMethod != models.PaymentCheckoutPro {
		return nil, fmt.Errorf("unknown payment method %q: %w", input.PaymentMethod, apperr.ErrValidation)
	}

	// Authoritative re-validation of every cart line.
	items := make([]models.OrderItem, 0, len(cart))
	total := decimal.Zero
	for productID, quantity := range cart {
		product, err := s.productRepo.GetByID(productID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", productID, apperr.ErrProductUnavailable)
			}
			return nil, err
		}
		if !product.Active {
			return nil, fmt.Errorf("product %s: %w", product.Name, apperr.ErrProductUnavailable)
		}
		if product.Stock < quantity {
			return nil, fmt.Errorf("product %s (requested %d, available %d): %w",
				product.Name, quantity, product.Stock, apperr.ErrInsufficientStock)
		}

		pid := product.ID
		items = append(items, models.OrderItem{
			ProductID:   &pid,
			ProductName: product.Name,
			Price:       product.Price,
			Quantity:    quantity,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(quantity))))
	}

	address, err := s.resolveAddress(userID, input)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		Status:        models.StatusPendente,
		Total:         total,
		PaymentMethod: input.PaymentMethod,
		AddressID:     address.ID,
	}

	// Order, items and stock decrements commit atomically; a concurrent
	// checkout losing the race on any line surfaces ErrInsufficientStock
	// and nothing is persisted.
	if err := s.orderRepo.Create(order, items); err != nil {
		return nil, err
	}

	if s.mqClient != nil {
		err := s.mqClient.PublishOrderEvent(rabbitmq.OrderEvent{
			Type:    rabbitmq.EventOrderCreated,
			OrderID: order.ID,
			UserID:  order.UserID,
			Status:  order.Status,
			Total:   order.Total.StringFixed(2),
		})
		if err != nil {
			log.Printf("Warning: failed to publish order created event for order %s: %v", order.ID, err)
		}
	}

	return order, nil
}

// resolveAddress returns the referenced address after an ownership check,
// or persists a new one from the submitted fields.
func (s *CheckoutService) resolveAddress(userID string, input CheckoutInput) (*models.Address, error) {
	if input.AddressID != "" {
		address, err := s.addressRepo.GetByID(input.AddressID)
		if err != nil {
			return nil, err
		}
		if address.UserID != userID {
			return nil, fmt.Errorf("address %s: %w", input.AddressID, apperr.ErrAccessDenied)
		}
		return address, nil
	}

	if input.Address == nil {
		return nil, fmt.Errorf("delivery address is required: %w", apperr.ErrValidation)
	}

	in := *input.Address
	required := map[string]string{
		"postal_code":  in.PostalCode,
		"street":       in.Street,
		"number":       in.Number,
		"neighborhood": in.Neighborhood,
		"city":         in.City,
		"state":        in.State,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("address field %s is required: %w", field, apperr.ErrValidation)
		}
	}

	address := &models.Address{
		UserID:       userID,
		PostalCode:   strings.TrimSpace(in.PostalCode),
		Street:       strings.TrimSpace(in.Street),
		Number:       strings.TrimSpace(in.Number),
		Complement:   strings.TrimSpace(in.Complement),
		Neighborhood: strings.TrimSpace(in.Neighborhood),
		City:         strings.TrimSpace(in.City),
		State:        strings.TrimSpace(in.State),
	}
	if err := s.addressRepo.Create(address); err != nil {
		return nil, err
	}
	return address, nil
}
