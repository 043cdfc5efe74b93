package handlers

import (
	"fmt"

	"loja/internal/apperr"
	"loja/internal/middleware"
	"loja/internal/models"
	"loja/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// AddressHandler manages the authenticated user's address book.
type AddressHandler struct {
	addressRepo repositories.AddressRepository
	validate    *validator.Validate
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(addressRepo repositories.AddressRepository) *AddressHandler {
	return &AddressHandler{
		addressRepo: addressRepo,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the address routes.
func (h *AddressHandler) RegisterRoutes(router fiber.Router) {
	addressRoutes := router.Group("/addresses")
	addressRoutes.Get("/", h.HandleList)
	addressRoutes.Post("/", h.HandleCreate)
	addressRoutes.Delete("/:id", h.HandleDelete)
}

// HandleList returns the caller's saved addresses.
func (h *AddressHandler) HandleList(c *fiber.Ctx) error {
	addresses, err := h.addressRepo.ListByUser(middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"addresses": addresses})
}

// CreateAddressRequest is the request body for saving an address.
type CreateAddressRequest struct {
	PostalCode   string `json:"postal_code" validate:"required"`
	Street       string `json:"street" validate:"required"`
	Number       string `json:"number" validate:"required"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood" validate:"required"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required,len=2"`
}

// HandleCreate saves a new address for the caller.
func (h *AddressHandler) HandleCreate(c *fiber.Ctx) error {
	var req CreateAddressRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return respondValidationErrors(c, err)
	}

	address := &models.Address{
		ID:           uuid.New().String(),
		UserID:       middleware.UserID(c),
		PostalCode:   req.PostalCode,
		Street:       req.Street,
		Number:       req.Number,
		Complement:   req.Complement,
		Neighborhood: req.Neighborhood,
		City:         req.City,
		State:        req.State,
	}
	if err := h.addressRepo.Create(address); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(address)
}

// HandleDelete removes one of the caller's addresses. Past orders keep
// their own address reference.
func (h *AddressHandler) HandleDelete(c *fiber.Ctx) error {
	address, err := h.addressRepo.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	if address.UserID != middleware.UserID(c) {
		return respondError(c, fmt.Errorf("address %s: %w", address.ID, apperr.ErrAccessDenied))
	}
	if err := h.addressRepo.Delete(address.ID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
