package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/feedback-service/internal/domain"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

// RequireOversight ensures the admin holds the oversight role.
func RequireOversight() fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, ok := AdminFromContext(c)
		if !ok {
			return apperrors.NewDomainError("UNAUTHORIZED", "authentication required", fiber.StatusUnauthorized, signOutDetails)
		}
		if admin.Role != domain.AdminRoleOversight {
			return apperrors.NewForbidden("oversight role required")
		}
		return c.Next()
	}
}

// RequireAdmin ensures any authenticated admin is present.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := AdminFromContext(c); !ok {
			return apperrors.NewDomainError("UNAUTHORIZED", "authentication required", fiber.StatusUnauthorized, signOutDetails)
		}
		return c.Next()
	}
}
