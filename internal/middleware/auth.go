package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/keymarket/backend/internal/auth"
	"github.com/keymarket/backend/internal/config"
	"github.com/keymarket/backend/internal/models"
	"github.com/keymarket/backend/internal/rbac"
)

const CtxUserID = "user_id"

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxUserID, claims.UserID)

		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxUserID).(uuid.UUID)
	return id
}

// RoleStore yields the current role for a user. Admin checks go through the
// store rather than trusting the token, so a demoted admin is locked out
// without waiting for token expiry.
type RoleStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// RequireAdmin re-reads the caller's role from the user store.
func RequireAdmin(users RoleStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := users.GetByID(c.Context(), GetUserID(c))
		if err != nil || user.Role != rbac.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		return c.Next()
	}
}
