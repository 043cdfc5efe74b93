package services

import (
	"fmt"
	"strings"
	"time"

	"loja/internal/apperr"
	"loja/internal/models"
	"loja/internal/repositories"
	"loja/pkg/pagbank"
	"loja/pkg/pix"
)

// PaymentReference is what a backend hands back for an order: a gateway
// code plus either a redirect link or static Pix data.
type PaymentReference struct {
	Code      string `json:"code"`
	Link      string `json:"link,omitempty"`
	QRCodePNG string `json:"qr_code,omitempty"`
	CopyPaste string `json:"copy_paste,omitempty"`
}

// PaymentGateway is the payment backend port. One backend is active at a
// time, selected by configuration.
type PaymentGateway interface {
	CreateCheckout(order *models.Order, user *models.User, address *models.Address) (*PaymentReference, error)
}

// PaymentService dispatches freshly created orders to the active payment
// backend and records the returned reference on the order.
type PaymentService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	addrRepo  repositories.AddressRepository
	gateway   PaymentGateway
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	addrRepo repositories.AddressRepository,
	gateway PaymentGateway,
) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		addrRepo:  addrRepo,
		gateway:   gateway,
	}
}

// Dispatch obtains a payment reference for the order. It is idempotent: an
// order that already carries a stored reference gets it back without a new
// backend request, so page reloads cannot create duplicate transactions.
// On backend failure the order stays pendente and the error wraps
// ErrPaymentBackend with the backend's raw text; there is no rollback, so
// the user can retry payment initiation later.
func (s *PaymentService) Dispatch(order *models.Order) (*PaymentReference, error) {
	if ref := storedReference(order); ref != nil {
		return ref, nil
	}

	user, err := s.userRepo.GetByID(order.UserID)
	if err != nil {
		return nil, err
	}
	var address *models.Address
	if order.AddressID != "" {
		if a, err := s.addrRepo.GetByID(order.AddressID); err == nil {
			address = a
		}
	}

	ref, err := s.gateway.CreateCheckout(order, user, address)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrPaymentBackend, err)
	}

	order.PgPaymentCode = ref.Code
	order.PgPaymentLink = ref.Link
	order.QRCodePix = ref.QRCodePNG
	order.PixCopyPaste = ref.CopyPaste
	if err := s.orderRepo.SavePaymentReference(order); err != nil {
		return nil, err
	}
	return ref, nil
}

func storedReference(order *models.Order) *PaymentReference {
	if order.PgPaymentCode == "" {
		return nil
	}
	if order.PgPaymentLink == "" && order.PixCopyPaste == "" {
		return nil
	}
	return &PaymentReference{
		Code:      order.PgPaymentCode,
		Link:      order.PgPaymentLink,
		QRCodePNG: order.QRCodePix,
		CopyPaste: order.PixCopyPaste,
	}
}

// PagBankGateway adapts the PagBank checkout API to the PaymentGateway
// port.
type PagBankGateway struct {
	client  *pagbank.Client
	baseURL string // public base URL of this store, for redirect/webhook URLs
}

// NewPagBankGateway creates a new PagBankGateway.
func NewPagBankGateway(client *pagbank.Client, baseURL string) *PagBankGateway {
	return &PagBankGateway{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

// CreateCheckout creates a hosted checkout. A pix-method order offers only
// PIX; checkout_pro offers cards and PIX.
func (g *PagBankGateway) CreateCheckout(order *models.Order, user *models.User, address *models.Address) (*PaymentReference, error) {
	items := make([]pagbank.Item, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, pagbank.Item{
			Name:       truncate(item.ProductName, 100),
			Quantity:   item.Quantity,
			UnitAmount: item.Price.Shift(2).IntPart(), // cents
		})
	}

	methods := []pagbank.PaymentMethod{{Type: "PIX"}}
	if order.PaymentMethod == models.PaymentCheckoutPro {
		methods = []pagbank.PaymentMethod{{Type: "CREDIT_CARD"}, {Type: "DEBIT_CARD"}, {Type: "PIX"}}
	}

	req := pagbank.CheckoutRequest{
		ReferenceID: order.ID,
		Customer: pagbank.Customer{
			Name:  truncate(user.Name, 50),
			Email: user.Email,
			TaxID: digitsOnly(user.TaxID),
		},
		Items:          items,
		ExpirationDate: time.Now().Add(2 * time.Hour).Format(time.RFC3339),
		PaymentMethods: methods,
	}

	// PagBank rejects localhost callback URLs, so they are only sent for
	// public deployments and only within the API's length limits.
	if g.baseURL != "" && !strings.Contains(g.baseURL, "localhost") && !strings.Contains(g.baseURL, "127.0.0.1") {
		if redirect := g.baseURL + "/checkout/sucesso/" + order.ID; len(redirect) <= 255 {
			req.RedirectURL = redirect
		}
		if notify := g.baseURL + "/webhook/pagbank"; len(notify) <= 100 {
			req.NotificationURLs = []string{notify}
		}
	}

	checkout, err := g.client.CreateCheckout(req)
	if err != nil {
		return nil, err
	}
	return &PaymentReference{Code: checkout.ID, Link: checkout.PaymentLink()}, nil
}

// PixGateway adapts the static Pix generator to the PaymentGateway port.
// It never leaves the process: the "reference" is the order ID itself.
type PixGateway struct {
	generator *pix.Generator
}

// NewPixGateway creates a new PixGateway.
func NewPixGateway(generator *pix.Generator) *PixGateway {
	return &PixGateway{generator: generator}
}

// CreateCheckout renders the static Pix payload and QR code for the order.
func (g *PixGateway) CreateCheckout(order *models.Order, _ *models.User, _ *models.Address) (*PaymentReference, error) {
	payment, err := g.generator.Generate(order, order.Items)
	if err != nil {
		return nil, err
	}
	return &PaymentReference{
		Code:      order.ID,
		QRCodePNG: payment.QRCodePNG,
		CopyPaste: payment.CopyPaste,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
