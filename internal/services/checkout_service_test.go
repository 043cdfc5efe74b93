package services_test

import (
	"fmt"
	"sync"
	"testing"

	"loja/internal/apperr"
	"loja/internal/models"
	"loja/internal/repositories"
	"loja/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// fakeAddressRepo is a map-backed AddressRepository for checkout tests.
type fakeAddressRepo struct {
	mu        sync.Mutex
	addresses map[string]models.Address
}

func newFakeAddressRepo() *fakeAddressRepo {
	return &fakeAddressRepo{addresses: make(map[string]models.Address)}
}

func (r *fakeAddressRepo) Create(address *models.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if address.ID == "" {
		address.ID = uuid.New().String()
	}
	r.addresses[address.ID] = *address
	return nil
}

func (r *fakeAddressRepo) GetByID(id string) (*models.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	address, ok := r.addresses[id]
	if !ok {
		return nil, fmt.Errorf("address %s: %w", id, apperr.ErrNotFound)
	}
	return &address, nil
}

func (r *fakeAddressRepo) ListByUser(userID string) ([]models.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Address
	for _, a := range r.addresses {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAddressRepo) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.addresses, id)
	return nil
}

type checkoutFixture struct {
	productRepo *repositories.MemoryProductRepository
	orderRepo   *repositories.MemoryOrderRepository
	addressRepo *fakeAddressRepo
	service     *services.CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	productRepo := repositories.NewMemoryProductRepository()
	orderRepo := repositories.NewMemoryOrderRepository(productRepo)
	addressRepo := newFakeAddressRepo()
	return &checkoutFixture{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		addressRepo: addressRepo,
		service:     services.NewCheckoutService(orderRepo, productRepo, addressRepo, nil),
	}
}

func (f *checkoutFixture) seedProduct(t *testing.T, id, price string, stock int) {
	t.Helper()
	err := f.productRepo.Create(&models.Product{
		ID:     id,
		Name:   "Produto " + id,
		Slug:   "produto-" + id,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Active: true,
	})
	assert.NoError(t, err)
}

func newAddressInput() *services.AddressInput {
	return &services.AddressInput{
		PostalCode:   "01001-000",
		Street:       "Praça da Sé",
		Number:       "100",
		Neighborhood: "Sé",
		City:         "São Paulo",
		State:        "SP",
	}
}

func TestCheckoutService_Checkout(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedProduct(t, "p1", "10.00", 5)

	cart := models.Cart{"p1": 2}
	order, err := f.service.Checkout("user-1", cart, services.CheckoutInput{
		Address:       newAddressInput(),
		PaymentMethod: models.PaymentPix,
	})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusPendente, order.Status)
	assert.True(t, order.Total.Equal(decimal.RequireFromString("20.00")), "total was %s", order.Total)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, "Produto p1", order.Items[0].ProductName)
	assert.NotEmpty(t, order.AddressID)

	product, err := f.productRepo.GetByID("p1")
	assert.NoError(t, err)
	assert.Equal(t, 3, product.Stock)
}

func TestCheckoutService_Checkout_EmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.service.Checkout("user-1", models.Cart{}, services.CheckoutInput{
		Address:       newAddressInput(),
		PaymentMethod: models.PaymentPix,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCheckoutService_Checkout_UnknownPaymentMethod(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedProduct(t, "p1", "10.00", 5)

	_, err := f.service.Checkout("user-1", models.Cart{"p1": 1}, services.CheckoutInput{
		Address:       newAddressInput(),
		PaymentMethod: "boleto",
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCheckoutService_Checkout_InsufficientStock(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedProduct(t, "p1", "10.00", 1)

	_, err := f.service.Checkout("user-1", models.Cart{"p1": 2}, services.CheckoutInput{
		Address:       newAddressInput(),
		PaymentMethod: models.PaymentPix,
	})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	// Nothing was reserved.
	product, _ := f.productRepo.GetByID("p1")
	assert.Equal(t, 1, product.Stock)
	orders, _ := f.orderRepo.ListByUser("user-1", 1, 10)
	assert.Empty(t, orders)
}

func TestCheckoutService_Checkout_ForeignAddress(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedProduct(t, "p1", "10.00", 5)

	address := &models.Address{UserID: "someone-else", Street: "Rua A", Number: "1"}
	assert.NoError(t, f.addressRepo.Create(address))

	_, err := f.service.Checkout("user-1", models.Cart{"p1": 1}, services.CheckoutInput{
		AddressID:     address.ID,
		PaymentMethod: models.PaymentPix,
	})
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)
}

func TestCheckoutService_Checkout_MissingAddressFields(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedProduct(t, "p1", "10.00", 5)

	input := newAddressInput()
	input.City = "  "
	_, err := f.service.Checkout("user-1", models.Cart{"p1": 1}, services.CheckoutInput{
		Address:       input,
		PaymentMethod: models.PaymentPix,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

// The order total is a snapshot: changing the catalog price afterwards
// must not touch existing orders.
func TestCheckoutService_TotalSurvivesPriceChange(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedProduct(t, "p1", "10.00", 5)

	order, err := f.service.Checkout("user-1", models.Cart{"p1": 2}, services.CheckoutInput{
		Address:       newAddressInput(),
		PaymentMethod: models.PaymentPix,
	})
	assert.NoError(t, err)

	product, _ := f.productRepo.GetByID("p1")
	product.Price = decimal.RequireFromString("99.99")
	assert.NoError(t, f.productRepo.Update(product))

	stored, err := f.orderRepo.GetByID(order.ID)
	assert.NoError(t, err)
	assert.True(t, stored.Total.Equal(decimal.RequireFromString("20.00")))
	assert.True(t, stored.Items[0].Price.Equal(decimal.RequireFromString("10.00")))
}

// Two checkouts racing for the last unit: exactly one succeeds, the loser
// gets ErrInsufficientStock and stock never goes negative.
func TestCheckoutService_ConcurrentCheckoutLastUnit(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedProduct(t, "p1", "10.00", 1)

	const buyers = 8
	var wg sync.WaitGroup
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.Checkout(fmt.Sprintf("user-%d", i), models.Cart{"p1": 1}, services.CheckoutInput{
				Address:       newAddressInput(),
				PaymentMethod: models.PaymentPix,
			})
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, apperr.ErrInsufficientStock)
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, buyers-1, lost)

	product, _ := f.productRepo.GetByID("p1")
	assert.Equal(t, 0, product.Stock)
}

// A multi-line order that fails on the second line must roll back the
// stock already taken for the first.
func TestOrderRepository_MultiLineRollback(t *testing.T) {
	f := newCheckoutFixture(t)
	f.seedProduct(t, "p1", "10.00", 5)
	f.seedProduct(t, "p2", "4.00", 0)

	p1ID, p2ID := "p1", "p2"
	order := &models.Order{UserID: "user-1", Status: models.StatusPendente, Total: decimal.RequireFromString("24.00")}
	err := f.orderRepo.Create(order, []models.OrderItem{
		{ProductID: &p1ID, ProductName: "Produto p1", Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{ProductID: &p2ID, ProductName: "Produto p2", Price: decimal.RequireFromString("4.00"), Quantity: 1},
	})
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	p1, _ := f.productRepo.GetByID("p1")
	assert.Equal(t, 5, p1.Stock)
	_, err = f.orderRepo.GetByID(order.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
