// Package pagbank is a client for the PagBank checkout API.
// Reference: https://developer.pagbank.com.br/reference/criar-checkout
package pagbank

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	productionURL = "https://api.pagseguro.com"
	sandboxURL    = "https://sandbox.api.pagseguro.com"

	// requestTimeout bounds every call to the API so a slow gateway
	// surfaces as an error instead of hanging a checkout.
	requestTimeout = 30 * time.Second
)

// Config holds PagBank credentials and environment selection.
type Config struct {
	Token   string
	Sandbox bool
	// BaseURL overrides the API endpoint; used by tests.
	BaseURL string
}

// Client calls the PagBank checkout API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new PagBank client.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		if cfg.Sandbox {
			base = sandboxURL
		} else {
			base = productionURL
		}
	}
	return &Client{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// Item is a purchasable line in a checkout. UnitAmount is in cents.
type Item struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitAmount int64  `json:"unit_amount"`
}

// Customer identifies the buyer. TaxID is digits only and omitted when
// unknown.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	TaxID string `json:"tax_id,omitempty"`
}

// PaymentMethod selects an accepted payment type (PIX, CREDIT_CARD,
// DEBIT_CARD).
type PaymentMethod struct {
	Type string `json:"type"`
}

// CheckoutRequest is the payload for POST /checkouts.
type CheckoutRequest struct {
	ReferenceID      string          `json:"reference_id"`
	Customer         Customer        `json:"customer"`
	Items            []Item          `json:"items"`
	ExpirationDate   string          `json:"expiration_date"`
	PaymentMethods   []PaymentMethod `json:"payment_methods"`
	RedirectURL      string          `json:"redirect_url,omitempty"`
	NotificationURLs []string        `json:"notification_urls,omitempty"`
}

// Link is a hyperlink in a checkout response.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
}

// Checkout is the API's representation of a created or consulted checkout.
type Checkout struct {
	ID          string `json:"id"`
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	Links       []Link `json:"links"`
}

// PaymentLink returns the link the buyer should be sent to: the PAY link,
// falling back to SELF, falling back to the first link present.
func (c *Checkout) PaymentLink() string {
	for _, l := range c.Links {
		if l.Rel == "PAY" {
			return l.Href
		}
	}
	for _, l := range c.Links {
		if l.Rel == "SELF" {
			return l.Href
		}
	}
	if len(c.Links) > 0 {
		return c.Links[0].Href
	}
	return ""
}

// CreateCheckout creates a checkout and returns the gateway's response.
func (c *Client) CreateCheckout(req CheckoutRequest) (*Checkout, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+"/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach PagBank: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("invalid PagBank token")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("pagbank returned %d: %s", resp.StatusCode, errorText(respBody, resp.StatusCode))
	}

	var checkout Checkout
	if err := json.Unmarshal(respBody, &checkout); err != nil {
		return nil, fmt.Errorf("failed to parse PagBank response: %w", err)
	}
	if checkout.PaymentLink() == "" {
		return nil, fmt.Errorf("pagbank response carries no checkout link")
	}
	return &checkout, nil
}

// GetCheckout consults a checkout by its gateway ID. Used by the legacy
// notification flow to resolve a notification code into a reference and
// status.
func (c *Client) GetCheckout(id string) (*Checkout, error) {
	httpReq, err := http.NewRequest(http.MethodGet, c.baseURL+"/checkouts/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build consult request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach PagBank: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pagbank returned %d: %s", resp.StatusCode, errorText(respBody, resp.StatusCode))
	}

	var checkout Checkout
	if err := json.Unmarshal(respBody, &checkout); err != nil {
		return nil, fmt.Errorf("failed to parse PagBank response: %w", err)
	}
	return &checkout, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

func errorText(body []byte, status int) string {
	if len(body) == 0 {
		return fmt.Sprintf("HTTP %d", status)
	}
	return string(body)
}
