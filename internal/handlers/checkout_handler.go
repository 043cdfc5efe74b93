package handlers

import (
	"encoding/json"
	"errors"

	"loja/internal/apperr"
	"loja/internal/middleware"
	"loja/internal/models"
	"loja/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// CheckoutHandler turns the session cart into orders and exposes the
// authenticated user's order history.
type CheckoutHandler struct {
	checkoutService *services.CheckoutService
	paymentService  *services.PaymentService
	orderService    *services.OrderService
	store           *session.Store
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(
	checkoutService *services.CheckoutService,
	paymentService *services.PaymentService,
	orderService *services.OrderService,
	store *session.Store,
) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		paymentService:  paymentService,
		orderService:    orderService,
		store:           store,
	}
}

// RegisterRoutes registers the checkout and order routes. All of them
// require authentication.
func (h *CheckoutHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/checkout", h.HandleCheckout)

	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleListOrders)
	orderRoutes.Get("/:id", h.HandleGetOrder)
	orderRoutes.Get("/:id/status", h.HandleOrderStatus)
	orderRoutes.Post("/:id/pay", h.HandleRetryPayment)
}

// HandleCheckout creates an order from the session cart and dispatches it
// to the payment backend. The order is created even when the backend
// fails, so that case still clears the cart and reports the order ID
// alongside the 502.
func (h *CheckoutHandler) HandleCheckout(c *fiber.Ctx) error {
	var input services.CheckoutInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	sess, err := h.store.Get(c)
	if err != nil {
		return respondError(c, err)
	}
	cart := loadSessionCart(sess)

	order, err := h.checkoutService.Checkout(middleware.UserID(c), cart, input)
	if err != nil {
		return respondError(c, err)
	}

	// The order exists now, so the cart is spent either way.
	if err := saveCart(sess, models.Cart{}); err != nil {
		return respondError(c, err)
	}

	ref, err := h.paymentService.Dispatch(order)
	if err != nil {
		if errors.Is(err, apperr.ErrPaymentBackend) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"message":  "Order created but payment initiation failed, retry via POST /orders/:id/pay",
				"error":    err.Error(),
				"order_id": order.ID,
				"status":   order.Status,
			})
		}
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"order":   order,
		"payment": ref,
	})
}

func loadSessionCart(sess *session.Session) models.Cart {
	cart := models.Cart{}
	if raw, ok := sess.Get(cartSessionKey).(string); ok && raw != "" {
		// An unreadable cart reads as empty and checkout rejects empty
		// carts anyway.
		_ = json.Unmarshal([]byte(raw), &cart)
	}
	return cart
}

// HandleListOrders returns the caller's orders, newest first.
func (h *CheckoutHandler) HandleListOrders(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)

	orders, err := h.orderService.ListUserOrders(middleware.UserID(c), page, perPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders, "page": page})
}

// HandleGetOrder returns one of the caller's orders with its items.
func (h *CheckoutHandler) HandleGetOrder(c *fiber.Ctx) error {
	order, err := h.orderService.GetOrder(c.Params("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleOrderStatus returns just the order status, for polling after a
// Pix payment.
func (h *CheckoutHandler) HandleOrderStatus(c *fiber.Ctx) error {
	order, err := h.orderService.GetOrder(c.Params("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"status":            order.Status,
		"pg_payment_status": order.PgPaymentStatus,
	})
}

// HandleRetryPayment re-dispatches an order to the payment backend. For an
// order that already holds a payment reference this just returns it.
func (h *CheckoutHandler) HandleRetryPayment(c *fiber.Ctx) error {
	order, err := h.orderService.GetOrder(c.Params("id"), middleware.UserID(c), middleware.IsAdmin(c))
	if err != nil {
		return respondError(c, err)
	}
	if order.Status != models.StatusPendente {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"message": "Order is not awaiting payment",
			"status":  order.Status,
		})
	}
	ref, err := h.paymentService.Dispatch(order)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"order": order, "payment": ref})
}
