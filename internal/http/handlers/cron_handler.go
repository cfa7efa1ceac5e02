package handlers

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/keymarket/backend/internal/config"
	"github.com/keymarket/backend/internal/http/dto"
	"github.com/keymarket/backend/internal/services"
)

// CronHandler exposes the escrow sweep to an external scheduler. The worker
// binary runs the same sweep on a ticker, so this endpoint exists for
// platforms where only HTTP cron is available.
type CronHandler struct {
	orders *services.OrderService
	cfg    *config.Config
	log    *zap.Logger
}

func NewCronHandler(orders *services.OrderService, cfg *config.Config, log *zap.Logger) *CronHandler {
	return &CronHandler{orders: orders, cfg: cfg, log: log}
}

func (h *CronHandler) SweepEscrow(c *fiber.Ctx) error {
	if !h.authorized(c.Get("Authorization")) {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "unauthorized"})
	}

	released, err := h.orders.SweepEscrow(c.Context())
	if err != nil {
		h.log.Error("escrow sweep failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.SweepResponse{Success: false, ReleasedOrders: []string{}})
	}

	ids := make([]string, len(released))
	for i, id := range released {
		ids[i] = id.String()
	}
	return c.JSON(dto.SweepResponse{Success: true, ReleasedOrders: ids})
}

func (h *CronHandler) authorized(header string) bool {
	if h.cfg.CronSecret == "" {
		return false
	}
	token := strings.TrimPrefix(header, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.CronSecret)) == 1
}
