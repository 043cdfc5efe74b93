package handlers

import (
	"loja/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AdminOrderHandler exposes order management for store operators. The
// routes are mounted behind the admin middleware.
type AdminOrderHandler struct {
	orderService *services.OrderService
}

// NewAdminOrderHandler creates a new AdminOrderHandler.
func NewAdminOrderHandler(orderService *services.OrderService) *AdminOrderHandler {
	return &AdminOrderHandler{orderService: orderService}
}

// RegisterRoutes registers the admin order routes.
func (h *AdminOrderHandler) RegisterRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", h.HandleList)
	orderRoutes.Get("/:id", h.HandleGet)
	orderRoutes.Patch("/:id/status", h.HandleSetStatus)
	orderRoutes.Post("/:id/ship", h.HandleShip)
	orderRoutes.Post("/:id/cancel", h.HandleCancel)
}

// HandleList returns all orders, optionally filtered by status.
func (h *AdminOrderHandler) HandleList(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)

	orders, err := h.orderService.ListOrders(c.Query("status"), page, perPage)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"orders": orders, "page": page})
}

// HandleGet returns any order regardless of ownership.
func (h *AdminOrderHandler) HandleGet(c *fiber.Ctx) error {
	order, err := h.orderService.GetOrder(c.Params("id"), "", true)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// SetStatusRequest is the request body for a manual status change.
type SetStatusRequest struct {
	Status string `json:"status"`
}

// HandleSetStatus moves an order to the requested status, subject to the
// transition rules. Cancelling through here restocks like the dedicated
// cancel route.
func (h *AdminOrderHandler) HandleSetStatus(c *fiber.Ctx) error {
	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.orderService.SetStatus(c.Params("id"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleShip marks a paid order as shipping.
func (h *AdminOrderHandler) HandleShip(c *fiber.Ctx) error {
	order, err := h.orderService.MarkShipped(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}

// HandleCancel cancels an order and returns its reserved stock.
func (h *AdminOrderHandler) HandleCancel(c *fiber.Ctx) error {
	order, err := h.orderService.Cancel(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(order)
}
