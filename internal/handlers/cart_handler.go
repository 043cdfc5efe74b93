package handlers

import (
	"encoding/json"
	"log"

	"loja/internal/models"
	"loja/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const cartSessionKey = "cart"

// CartHandler exposes the session cart as a JSON API. Every mutation
// persists the cart back into the session store.
type CartHandler struct {
	cartService *services.CartService
	store       *session.Store
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService, store *session.Store) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		store:       store,
	}
}

// RegisterRoutes registers the cart routes.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/cart")
	cartRoutes.Get("/", h.HandleIndex)
	cartRoutes.Get("/count", h.HandleCount)
	cartRoutes.Post("/items", h.HandleAdd)
	cartRoutes.Put("/items/:productID", h.HandleUpdate)
	cartRoutes.Delete("/items/:productID", h.HandleRemove)
	cartRoutes.Post("/clear", h.HandleClear)
}

// loadCart pulls the cart out of the caller's session.
func (h *CartHandler) loadCart(c *fiber.Ctx) (*session.Session, models.Cart, error) {
	sess, err := h.store.Get(c)
	if err != nil {
		return nil, nil, err
	}
	cart := models.Cart{}
	if raw, ok := sess.Get(cartSessionKey).(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &cart); err != nil {
			log.Printf("Discarding unreadable session cart: %v", err)
			cart = models.Cart{}
		}
	}
	return sess, cart, nil
}

// saveCart writes the cart back into the session.
func saveCart(sess *session.Session, cart models.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	sess.Set(cartSessionKey, string(raw))
	return sess.Save()
}

// HandleIndex returns the cart joined with live product data.
func (h *CartHandler) HandleIndex(c *fiber.Ctx) error {
	sess, cart, err := h.loadCart(c)
	if err != nil {
		return respondError(c, err)
	}
	lines, total, err := h.cartService.Lines(cart)
	if err != nil {
		return respondError(c, err)
	}
	// Keep the cookie alive across reads too.
	if err := sess.Save(); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"items": lines,
		"total": total,
		"count": cart.TotalCount(),
	})
}

// HandleCount returns the total item count for the UI badge.
func (h *CartHandler) HandleCount(c *fiber.Ctx) error {
	_, cart, err := h.loadCart(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"count": cart.TotalCount()})
}

// AddToCartRequest is the request body for adding a cart line.
type AddToCartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// HandleAdd adds a product to the cart. A missing quantity means one.
func (h *CartHandler) HandleAdd(c *fiber.Ctx) error {
	var req AddToCartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "product_id is required",
		})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	sess, cart, err := h.loadCart(c)
	if err != nil {
		return respondError(c, err)
	}
	count, err := h.cartService.Add(cart, req.ProductID, req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	if err := saveCart(sess, cart); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "count": count})
}

// UpdateCartRequest is the request body for overwriting a line quantity.
type UpdateCartRequest struct {
	Quantity int `json:"quantity"`
}

// HandleUpdate overwrites a line's quantity.
func (h *CartHandler) HandleUpdate(c *fiber.Ctx) error {
	var req UpdateCartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	sess, cart, err := h.loadCart(c)
	if err != nil {
		return respondError(c, err)
	}
	count, err := h.cartService.Update(cart, c.Params("productID"), req.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	if err := saveCart(sess, cart); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "count": count})
}

// HandleRemove removes a line from the cart.
func (h *CartHandler) HandleRemove(c *fiber.Ctx) error {
	sess, cart, err := h.loadCart(c)
	if err != nil {
		return respondError(c, err)
	}
	count := h.cartService.Remove(cart, c.Params("productID"))
	if err := saveCart(sess, cart); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "count": count})
}

// HandleClear empties the cart.
func (h *CartHandler) HandleClear(c *fiber.Ctx) error {
	sess, _, err := h.loadCart(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := saveCart(sess, models.Cart{}); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "count": 0})
}
