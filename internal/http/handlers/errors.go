package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/keymarket/backend/internal/http/dto"
	"github.com/keymarket/backend/internal/marketerr"
)

// respondError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is treated as a caller mistake, not a server fault.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusBadRequest
	switch {
	case errors.Is(err, marketerr.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, marketerr.ErrForbidden):
		status = fiber.StatusForbidden
	case errors.Is(err, marketerr.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, marketerr.ErrOutOfStock):
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(dto.ErrorResponse{Error: err.Error()})
}
