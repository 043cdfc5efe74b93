package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order statuses. Entregue and cancelado are terminal.
const (
	StatusPendente  = "pendente"
	StatusPago      = "pago"
	StatusEnviando  = "enviando"
	StatusEntregue  = "entregue"
	StatusCancelado = "cancelado"
)

// Payment methods accepted at checkout.
const (
	PaymentPix         = "pix"
	PaymentCheckoutPro = "checkout_pro"
)

// statusTransitions is the order state machine. Missing source states are
// terminal.
var statusTransitions = map[string][]string{
	StatusPendente: {StatusPago, StatusCancelado},
	StatusPago:     {StatusEnviando, StatusCancelado},
	StatusEnviando: {StatusEntregue},
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPendente, StatusPago, StatusEnviando, StatusEntregue, StatusCancelado:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to
// another. A same-status "transition" is allowed so that replayed webhook
// deliveries stay idempotent.
func CanTransition(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order represents a customer order. Total is computed once at creation
// from the captured line prices and never recalculated.
type Order struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID        string          `json:"user_id" gorm:"index;not null;type:varchar(36)"`
	Status        string          `json:"status" gorm:"type:varchar(20);default:pendente"`
	Total         decimal.Decimal `json:"total" gorm:"type:decimal(10,2)"`
	PaymentMethod string          `json:"payment_method" gorm:"type:varchar(50)"`

	// Gateway reference fields, set by the payment dispatcher.
	PgPaymentCode   string `json:"pg_payment_code,omitempty" gorm:"type:varchar(100)"`
	PgPaymentLink   string `json:"pg_payment_link,omitempty" gorm:"type:varchar(500)"`
	PgPaymentStatus string `json:"pg_payment_status,omitempty" gorm:"type:varchar(50)"`

	// Static Pix fields.
	QRCodePix    string `json:"qr_code_pix,omitempty" gorm:"type:text"`
	PixCopyPaste string `json:"pix_copy_paste,omitempty" gorm:"type:varchar(500)"`

	AddressID string      `json:"address_id" gorm:"type:varchar(36)"`
	Items     []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	gorm.Model
}

// OrderItem captures a product's name and unit price at purchase time.
// ProductID is nullable because the product may later be deleted.
type OrderItem struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OrderID     string          `json:"order_id" gorm:"index;not null;type:varchar(36)"`
	ProductID   *string         `json:"product_id,omitempty" gorm:"type:varchar(36)"`
	ProductName string          `json:"product_name" gorm:"type:varchar(100)"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	Quantity    int             `json:"quantity" gorm:"default:1"`
	gorm.Model
}

// Subtotal is the captured unit price times the quantity.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
