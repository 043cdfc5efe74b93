package services_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"loja/internal/apperr"
	"loja/internal/models"
	"loja/internal/repositories"
	"loja/internal/services"
	"loja/pkg/pagbank"
	"loja/pkg/pix"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type paymentFixture struct {
	productRepo *repositories.MemoryProductRepository
	orderRepo   *repositories.MemoryOrderRepository
	userRepo    *MockUserRepository
	addressRepo *fakeAddressRepo
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()
	productRepo := repositories.NewMemoryProductRepository()
	f := &paymentFixture{
		productRepo: productRepo,
		orderRepo:   repositories.NewMemoryOrderRepository(productRepo),
		userRepo:    new(MockUserRepository),
		addressRepo: newFakeAddressRepo(),
	}
	f.userRepo.On("GetByID", "user-1").Return(&models.User{
		ID:    "user-1",
		Name:  "Maria Silva",
		Email: "maria@example.com",
		TaxID: "123.456.789-09",
	}, nil)
	return f
}

func (f *paymentFixture) service(gateway services.PaymentGateway) *services.PaymentService {
	return services.NewPaymentService(f.orderRepo, f.userRepo, f.addressRepo, gateway)
}

func (f *paymentFixture) seedOrder(t *testing.T, method string) *models.Order {
	t.Helper()
	err := f.productRepo.Create(&models.Product{
		ID:     "p1",
		Name:   "Produto",
		Price:  decimal.RequireFromString("25.90"),
		Stock:  10,
		Active: true,
	})
	assert.NoError(t, err)

	productID := "p1"
	order := &models.Order{
		UserID:        "user-1",
		Status:        models.StatusPendente,
		Total:         decimal.RequireFromString("51.80"),
		PaymentMethod: method,
	}
	err = f.orderRepo.Create(order, []models.OrderItem{
		{ProductID: &productID, ProductName: "Produto", Price: decimal.RequireFromString("25.90"), Quantity: 2},
	})
	assert.NoError(t, err)
	return order
}

func fakePagBank(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.Equal(t, "/checkouts", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req pagbank.CheckoutRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.ReferenceID)
		// 25.90 in cents.
		assert.Equal(t, int64(2590), req.Items[0].UnitAmount)
		assert.Equal(t, "12345678909", req.Customer.TaxID)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(pagbank.Checkout{
			ID:          "CHECK_123",
			ReferenceID: req.ReferenceID,
			Status:      "CREATED",
			Links: []pagbank.Link{
				{Rel: "SELF", Href: "https://pagbank.example/self"},
				{Rel: "PAY", Href: "https://pagbank.example/pay/CHECK_123"},
			},
		})
	}))
}

func TestPaymentService_Dispatch_PagBank(t *testing.T) {
	var hits int32
	server := fakePagBank(t, &hits)
	defer server.Close()

	f := newPaymentFixture(t)
	client := pagbank.NewClient(pagbank.Config{Token: "test-token", BaseURL: server.URL})
	service := f.service(services.NewPagBankGateway(client, "http://localhost:8080"))

	order := f.seedOrder(t, models.PaymentCheckoutPro)
	ref, err := service.Dispatch(order)
	assert.NoError(t, err)
	assert.Equal(t, "CHECK_123", ref.Code)
	assert.Equal(t, "https://pagbank.example/pay/CHECK_123", ref.Link)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	stored, err := f.orderRepo.GetByID(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, "CHECK_123", stored.PgPaymentCode)
	assert.Equal(t, models.StatusPendente, stored.Status)
}

// A second dispatch returns the stored reference without a new gateway
// request, so page reloads never create duplicate transactions.
func TestPaymentService_Dispatch_Idempotent(t *testing.T) {
	var hits int32
	server := fakePagBank(t, &hits)
	defer server.Close()

	f := newPaymentFixture(t)
	client := pagbank.NewClient(pagbank.Config{Token: "test-token", BaseURL: server.URL})
	service := f.service(services.NewPagBankGateway(client, "http://localhost:8080"))

	order := f.seedOrder(t, models.PaymentCheckoutPro)
	first, err := service.Dispatch(order)
	assert.NoError(t, err)

	stored, _ := f.orderRepo.GetByID(order.ID)
	second, err := service.Dispatch(stored)
	assert.NoError(t, err)
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Link, second.Link)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "second dispatch must not call the gateway")
}

// Backend failure leaves the order pendente with no reference: the user
// can retry later.
func TestPaymentService_Dispatch_BackendFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error_messages":[{"description":"internal error"}]}`))
	}))
	defer server.Close()

	f := newPaymentFixture(t)
	client := pagbank.NewClient(pagbank.Config{Token: "test-token", BaseURL: server.URL})
	service := f.service(services.NewPagBankGateway(client, "http://localhost:8080"))

	order := f.seedOrder(t, models.PaymentCheckoutPro)
	_, err := service.Dispatch(order)
	assert.ErrorIs(t, err, apperr.ErrPaymentBackend)
	assert.Contains(t, err.Error(), "internal error")

	stored, _ := f.orderRepo.GetByID(order.ID)
	assert.Equal(t, models.StatusPendente, stored.Status)
	assert.Empty(t, stored.PgPaymentCode)
}

func TestPaymentService_Dispatch_Pix(t *testing.T) {
	f := newPaymentFixture(t)
	generator, err := pix.NewGenerator(pix.Config{Key: "loja@example.com", KeyType: "email", BankName: "Banco Teste"})
	assert.NoError(t, err)
	service := f.service(services.NewPixGateway(generator))

	order := f.seedOrder(t, models.PaymentPix)
	ref, err := service.Dispatch(order)
	assert.NoError(t, err)
	assert.Equal(t, order.ID, ref.Code)
	assert.NotEmpty(t, ref.QRCodePNG)
	assert.Equal(t, "loja@example.com", ref.CopyPaste)

	stored, _ := f.orderRepo.GetByID(order.ID)
	assert.Equal(t, order.ID, stored.PgPaymentCode)
	assert.NotEmpty(t, stored.QRCodePix)
}
