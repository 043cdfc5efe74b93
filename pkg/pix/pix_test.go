package pix_test

import (
	"encoding/base64"
	"testing"

	"loja/internal/models"
	"loja/pkg/pix"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewGenerator_RequiresKey(t *testing.T) {
	_, err := pix.NewGenerator(pix.Config{})
	assert.Error(t, err)

	generator, err := pix.NewGenerator(pix.Config{Key: "loja@example.com"})
	assert.NoError(t, err)
	assert.NotNil(t, generator)
}

func TestGenerate(t *testing.T) {
	generator, err := pix.NewGenerator(pix.Config{
		Key:      "loja@example.com",
		KeyType:  "email",
		BankName: "Banco Teste",
	})
	assert.NoError(t, err)

	order := &models.Order{ID: "order-1", Total: decimal.RequireFromString("51.80")}
	items := []models.OrderItem{
		{ProductName: "Produto A", Quantity: 2},
		{ProductName: "Produto B", Quantity: 1},
	}

	payment, err := generator.Generate(order, items)
	assert.NoError(t, err)
	assert.Equal(t, "loja@example.com", payment.CopyPaste)
	assert.Contains(t, payment.Payload, "Chave: loja@example.com")
	assert.Contains(t, payment.Payload, "Valor: R$ 51.80")
	assert.Contains(t, payment.Payload, "Pedido order-1")
	assert.Contains(t, payment.Payload, "2x Produto A")

	// QR code is a valid base64 PNG.
	png, err := base64.StdEncoding.DecodeString(payment.QRCodePNG)
	assert.NoError(t, err)
	assert.Greater(t, len(png), 8)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}
