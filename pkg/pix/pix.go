// Package pix renders static Pix payment data for orders: a human-readable
// copy-paste payload and a QR code image, built from a configured Pix key.
// It is the fallback backend when no gateway token is configured.
package pix

import (
	"encoding/base64"
	"fmt"
	"strings"

	"loja/internal/models"

	qrcode "github.com/skip2/go-qrcode"
)

// Config holds the static Pix key data.
type Config struct {
	Key      string // the Pix key itself (email, phone, CPF or random key)
	KeyType  string // email, telefone, cpf, aleatoria
	BankName string
}

// Generator builds Pix payment payloads.
type Generator struct {
	cfg Config
}

// NewGenerator creates a Generator. The key must be configured.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("pix key is not configured")
	}
	if cfg.KeyType == "" {
		cfg.KeyType = "email"
	}
	return &Generator{cfg: cfg}, nil
}

// Payment is the rendered Pix data for one order.
type Payment struct {
	Payload   string // text encoded into the QR code
	QRCodePNG string // base64-encoded PNG
	CopyPaste string // the key to paste into a banking app
}

// Generate renders the payment data for an order and its captured items.
func (g *Generator) Generate(order *models.Order, items []models.OrderItem) (*Payment, error) {
	var lines []string
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("%dx %s", item.Quantity, item.ProductName))
	}

	payload := strings.Join([]string{
		"================================",
		"DADOS PARA PAGAMENTO PIX",
		"================================",
		"Chave: " + g.cfg.Key,
		"Tipo: " + g.cfg.KeyType,
		"Banco: " + g.cfg.BankName,
		"Valor: R$ " + order.Total.StringFixed(2),
		"Referencia: Pedido " + order.ID,
		"Itens: " + strings.Join(lines, ", "),
		"================================",
	}, "\n")

	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to encode pix QR code: %w", err)
	}

	return &Payment{
		Payload:   payload,
		QRCodePNG: base64.StdEncoding.EncodeToString(png),
		CopyPaste: g.cfg.Key,
	}, nil
}
