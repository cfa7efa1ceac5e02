package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keymarket/backend/internal/http/dto"
	"github.com/keymarket/backend/internal/middleware"
	"github.com/keymarket/backend/internal/services"
)

type ProductHandler struct {
	catalog *services.CatalogService
	log     *zap.Logger
}

func NewProductHandler(catalog *services.CatalogService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, log: log}
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req dto.CreateProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}

	sellerID := middleware.GetUserID(c)
	product, err := h.catalog.CreateProduct(c.Context(), sellerID, services.CreateProductRequest{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Type:        req.Type,
		InputSchema: req.InputSchema,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: product})
}

func (h *ProductHandler) AddInventoryUnit(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid product id"})
	}

	var req dto.AddInventoryUnitRequest
	if err := c.BodyParser(&req); err != nil || req.SecretData == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "secret_data is required"})
	}

	sellerID := middleware.GetUserID(c)
	unit, err := h.catalog.AddInventoryUnit(c.Context(), sellerID, productID, req.SecretData)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.SuccessResponse{OK: true, Data: unit})
}

func (h *ProductHandler) MyProducts(c *fiber.Ctx) error {
	sellerID := middleware.GetUserID(c)
	products, err := h.catalog.ListSellerProducts(c.Context(), sellerID)
	if err != nil {
		h.log.Error("list products failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal error"})
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: products})
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	productID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid product id"})
	}

	product, err := h.catalog.GetProduct(c.Context(), productID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.SuccessResponse{OK: true, Data: product})
}
