package services_test

import (
	"testing"

	"loja/internal/apperr"
	"loja/internal/models"
	"loja/internal/repositories"
	"loja/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type orderFixture struct {
	productRepo *repositories.MemoryProductRepository
	orderRepo   *repositories.MemoryOrderRepository
	service     *services.OrderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	productRepo := repositories.NewMemoryProductRepository()
	orderRepo := repositories.NewMemoryOrderRepository(productRepo)
	return &orderFixture{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		service:     services.NewOrderService(orderRepo, nil),
	}
}

// seedOrder creates a product with the given stock and an order holding
// quantity units of it.
func (f *orderFixture) seedOrder(t *testing.T, userID string, stock, quantity int) *models.Order {
	t.Helper()
	productID := "p-" + userID
	err := f.productRepo.Create(&models.Product{
		ID:     productID,
		Name:   "Produto",
		Price:  decimal.RequireFromString("10.00"),
		Stock:  stock,
		Active: true,
	})
	assert.NoError(t, err)

	order := &models.Order{
		UserID: userID,
		Status: models.StatusPendente,
		Total:  decimal.NewFromInt(int64(quantity) * 10),
	}
	err = f.orderRepo.Create(order, []models.OrderItem{
		{ProductID: &productID, ProductName: "Produto", Price: decimal.RequireFromString("10.00"), Quantity: quantity},
	})
	assert.NoError(t, err)
	return order
}

func TestOrderService_GetOrder_Ownership(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(t, "user-1", 5, 1)

	got, err := f.service.GetOrder(order.ID, "user-1", false)
	assert.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.service.GetOrder(order.ID, "user-2", false)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	// Admins read any order.
	_, err = f.service.GetOrder(order.ID, "user-2", true)
	assert.NoError(t, err)
}

func TestOrderService_SetStatus(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(t, "user-1", 5, 1)

	updated, err := f.service.SetStatus(order.ID, models.StatusPago)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPago, updated.Status)

	// pendente -> entregue skips states and is refused.
	other := f.seedOrder(t, "user-2", 5, 1)
	_, err = f.service.SetStatus(other.ID, models.StatusEntregue)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.service.SetStatus(order.ID, "desconhecido")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOrderService_MarkShipped(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(t, "user-1", 5, 1)

	// Pending orders do not ship.
	_, err := f.service.MarkShipped(order.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = f.service.SetStatus(order.ID, models.StatusPago)
	assert.NoError(t, err)

	updated, err := f.service.MarkShipped(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusEnviando, updated.Status)

	updated, err = f.service.SetStatus(order.ID, models.StatusEntregue)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusEntregue, updated.Status)
}

func TestOrderService_Cancel_RestocksOnce(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(t, "user-1", 5, 2)

	product, _ := f.productRepo.GetByID("p-user-1")
	assert.Equal(t, 3, product.Stock)

	cancelled, err := f.service.Cancel(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelado, cancelled.Status)

	product, _ = f.productRepo.GetByID("p-user-1")
	assert.Equal(t, 5, product.Stock)

	// A second cancellation fails and must not restock again.
	_, err = f.service.Cancel(order.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	product, _ = f.productRepo.GetByID("p-user-1")
	assert.Equal(t, 5, product.Stock)
}

func TestOrderService_Cancel_ShippedOrderRefused(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(t, "user-1", 5, 1)

	_, err := f.service.SetStatus(order.ID, models.StatusPago)
	assert.NoError(t, err)
	_, err = f.service.MarkShipped(order.ID)
	assert.NoError(t, err)

	_, err = f.service.Cancel(order.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestOrderService_Cancel_PaidOrderRestocks(t *testing.T) {
	f := newOrderFixture(t)
	order := f.seedOrder(t, "user-1", 5, 2)

	_, err := f.service.SetStatus(order.ID, models.StatusPago)
	assert.NoError(t, err)

	_, err = f.service.Cancel(order.ID)
	assert.NoError(t, err)

	product, _ := f.productRepo.GetByID("p-user-1")
	assert.Equal(t, 5, product.Stock)
}

func TestOrderService_ListOrders_StatusFilter(t *testing.T) {
	f := newOrderFixture(t)
	f.seedOrder(t, "user-1", 5, 1)
	paid := f.seedOrder(t, "user-2", 5, 1)
	_, err := f.service.SetStatus(paid.ID, models.StatusPago)
	assert.NoError(t, err)

	orders, err := f.service.ListOrders(models.StatusPago, 1, 10)
	assert.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, paid.ID, orders[0].ID)

	_, err = f.service.ListOrders("invalido", 1, 10)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
