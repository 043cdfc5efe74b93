package pagbank_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"loja/pkg/pagbank"

	"github.com/stretchr/testify/assert"
)

func testRequest() pagbank.CheckoutRequest {
	return pagbank.CheckoutRequest{
		ReferenceID: "order-1",
		Customer:    pagbank.Customer{Name: "Maria", Email: "maria@example.com"},
		Items: []pagbank.Item{
			{Name: "Produto", Quantity: 1, UnitAmount: 1000},
		},
		PaymentMethods: []pagbank.PaymentMethod{{Type: "PIX"}},
	}
}

func TestCreateCheckout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkouts", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		json.NewEncoder(w).Encode(pagbank.Checkout{
			ID:          "CHECK_1",
			ReferenceID: "order-1",
			Status:      "CREATED",
			Links:       []pagbank.Link{{Rel: "PAY", Href: "https://pay.example/1"}},
		})
	}))
	defer server.Close()

	client := pagbank.NewClient(pagbank.Config{Token: "tok", BaseURL: server.URL})
	checkout, err := client.CreateCheckout(testRequest())
	assert.NoError(t, err)
	assert.Equal(t, "CHECK_1", checkout.ID)
	assert.Equal(t, "https://pay.example/1", checkout.PaymentLink())
}

func TestCreateCheckout_InvalidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := pagbank.NewClient(pagbank.Config{Token: "bad", BaseURL: server.URL})
	_, err := client.CreateCheckout(testRequest())
	assert.EqualError(t, err, "invalid PagBank token")
}

func TestCreateCheckout_ErrorBodySurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error_messages":[{"description":"items required"}]}`))
	}))
	defer server.Close()

	client := pagbank.NewClient(pagbank.Config{Token: "tok", BaseURL: server.URL})
	_, err := client.CreateCheckout(testRequest())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "items required")
}

func TestCreateCheckout_NoLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(pagbank.Checkout{ID: "CHECK_1", Status: "CREATED"})
	}))
	defer server.Close()

	client := pagbank.NewClient(pagbank.Config{Token: "tok", BaseURL: server.URL})
	_, err := client.CreateCheckout(testRequest())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no checkout link")
}

func TestGetCheckout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/checkouts/CHECK_1", r.URL.Path)
		json.NewEncoder(w).Encode(pagbank.Checkout{ID: "CHECK_1", ReferenceID: "order-1", Status: "PAID"})
	}))
	defer server.Close()

	client := pagbank.NewClient(pagbank.Config{Token: "tok", BaseURL: server.URL})
	checkout, err := client.GetCheckout("CHECK_1")
	assert.NoError(t, err)
	assert.Equal(t, "order-1", checkout.ReferenceID)
	assert.Equal(t, "PAID", checkout.Status)
}

func TestPaymentLink_Fallbacks(t *testing.T) {
	pay := pagbank.Checkout{Links: []pagbank.Link{
		{Rel: "SELF", Href: "https://x/self"},
		{Rel: "PAY", Href: "https://x/pay"},
	}}
	assert.Equal(t, "https://x/pay", pay.PaymentLink())

	self := pagbank.Checkout{Links: []pagbank.Link{
		{Rel: "SELF", Href: "https://x/self"},
		{Rel: "INVOICE", Href: "https://x/invoice"},
	}}
	assert.Equal(t, "https://x/self", self.PaymentLink())

	first := pagbank.Checkout{Links: []pagbank.Link{
		{Rel: "INVOICE", Href: "https://x/invoice"},
	}}
	assert.Equal(t, "https://x/invoice", first.PaymentLink())

	var none pagbank.Checkout
	assert.Equal(t, "", none.PaymentLink())
}
