package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"loja/internal/apperr"
	"loja/internal/models"
	"loja/internal/repositories"
	"loja/pkg/pagbank"
	"loja/pkg/rabbitmq"
)

// pagbankStatusMap translates the gateway's status vocabulary onto the
// internal one. Unlisted statuses leave the order unchanged.
var pagbankStatusMap = map[string]string{
	"paid":            models.StatusPago,
	"canceled":        models.StatusCancelado,
	"payment_failed":  models.StatusCancelado,
	"expired":         models.StatusCancelado,
	"created":         models.StatusPendente,
	"waiting_payment": models.StatusPendente,
}

// legacyStatusMap translates the legacy notification API's numeric status
// codes. Dispute (5) and refund (6) codes are not mapped; they leave the
// order unchanged for manual handling.
var legacyStatusMap = map[string]string{
	"1": models.StatusPendente,
	"2": models.StatusPendente,
	"3": models.StatusPago,
	"4": models.StatusPago,
	"7": models.StatusCancelado,
}

// NotificationConsulter resolves a legacy notification code into checkout
// data. Satisfied by *pagbank.Client.
type NotificationConsulter interface {
	GetCheckout(id string) (*pagbank.Checkout, error)
}

// WebhookService reconciles asynchronous gateway callbacks with order
// state. Benign conditions (unknown reference, unrecognized status) are
// swallowed so the gateway's retries are not burned on them; only
// malformed payloads or internal failures return an error.
type WebhookService struct {
	orderRepo repositories.OrderRepository
	consulter NotificationConsulter
	mqClient  *rabbitmq.Client
}

// NewWebhookService creates a new WebhookService. consulter and mqClient
// may be nil.
func NewWebhookService(orderRepo repositories.OrderRepository, consulter NotificationConsulter, mqClient *rabbitmq.Client) *WebhookService {
	return &WebhookService{
		orderRepo: orderRepo,
		consulter: consulter,
		mqClient:  mqClient,
	}
}

// pagbankNotification is the webhook body. The reference appears either at
// the top level or on the first charge.
type pagbankNotification struct {
	ReferenceID string `json:"reference_id"`
	Status      string `json:"status"`
	Charges     []struct {
		ReferenceID string `json:"reference_id"`
		Status      string `json:"status"`
	} `json:"charges"`
}

// ProcessPagBank handles a PagBank webhook delivery. Redelivery is safe:
// the status is overwritten, not incremented, so applying the same
// callback twice leaves the order in the same state.
func (s *WebhookService) ProcessPagBank(body []byte) error {
	var notification pagbankNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		return fmt.Errorf("malformed webhook payload: %w", err)
	}

	referenceID := notification.ReferenceID
	status := notification.Status
	if referenceID == "" && len(notification.Charges) > 0 {
		referenceID = notification.Charges[0].ReferenceID
		if status == "" {
			status = notification.Charges[0].Status
		}
	}
	if referenceID == "" {
		return nil // test ping or unrelated event
	}

	rawStatus := strings.ToLower(status)
	mapped, ok := pagbankStatusMap[rawStatus]
	if !ok {
		log.Printf("pagbank webhook: unrecognized status %q for reference %s, no change", status, referenceID)
		return nil
	}

	return s.apply(referenceID, mapped, rawStatus)
}

// ProcessLegacyNotification handles the legacy form-encoded webhook: the
// notification code is consulted against the gateway and the resulting
// status code mapped onto the internal vocabulary.
func (s *WebhookService) ProcessLegacyNotification(notificationCode string) error {
	if notificationCode == "" || s.consulter == nil {
		return nil
	}

	checkout, err := s.consulter.GetCheckout(notificationCode)
	if err != nil {
		return fmt.Errorf("failed to consult notification %s: %w", notificationCode, err)
	}
	if checkout.ReferenceID == "" {
		return nil
	}

	rawStatus := strings.ToLower(checkout.Status)
	mapped, ok := legacyStatusMap[rawStatus]
	if !ok {
		// Newer notifications reuse the checkout vocabulary.
		if mapped, ok = pagbankStatusMap[rawStatus]; !ok {
			log.Printf("legacy webhook: unrecognized status %q for reference %s, no change", checkout.Status, checkout.ReferenceID)
			return nil
		}
	}

	return s.apply(checkout.ReferenceID, mapped, rawStatus)
}

// apply looks up the order and overwrites its status. Unknown references
// are benign. Transitions outside the state machine are skipped, so a late
// "created" callback cannot regress an order already paid.
func (s *WebhookService) apply(orderID, status, gatewayStatus string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil
		}
		return err
	}

	if !models.CanTransition(order.Status, status) {
		log.Printf("webhook: ignoring %s -> %s for order %s", order.Status, status, order.ID)
		return nil
	}

	changed := order.Status != status
	if err := s.orderRepo.UpdateStatus(order.ID, status, gatewayStatus); err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if s.mqClient != nil {
		eventType := ""
		switch status {
		case models.StatusPago:
			eventType = rabbitmq.EventOrderPaid
		case models.StatusCancelado:
			eventType = rabbitmq.EventOrderCancelled
		}
		if eventType != "" {
			err := s.mqClient.PublishOrderEvent(rabbitmq.OrderEvent{
				Type:    eventType,
				OrderID: order.ID,
				UserID:  order.UserID,
				Status:  status,
				Total:   order.Total.StringFixed(2),
			})
			if err != nil {
				log.Printf("Warning: failed to publish %s event for order %s: %v", eventType, order.ID, err)
			}
		}
	}
	return nil
}

// ValidSignature checks an HMAC-SHA256 hex signature over the raw body.
// The source protocol ships webhooks unauthenticated; when a shared secret
// is configured the handler requires this check to pass.
func ValidSignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}
