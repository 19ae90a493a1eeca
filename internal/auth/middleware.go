package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/feedback-service/internal/domain"
	"github.com/spec-kit/feedback-service/internal/repository"
	apperrors "github.com/spec-kit/feedback-service/pkg/util/errorutil"
)

const adminKey = "auth_admin"

// signOutDetails marks the 401 so clients know to drop their stored
// token instead of retrying the request.
var signOutDetails = map[string]any{"signed_out": true}

// AuthMiddleware validates bearer tokens and loads the admin account.
type AuthMiddleware struct {
	tokens *TokenManager
	admins repository.AdminRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, admins repository.AdminRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, admins: admins}
}

// Handle enforces authentication for the admin routes. A token whose
// admin has since been deleted or deactivated yields a sign-out 401, not
// a 403: the session is dead, not merely short on privilege.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewDomainError("UNAUTHORIZED", "missing authorization header", fiber.StatusUnauthorized, signOutDetails)
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewDomainError("UNAUTHORIZED", "invalid authorization header", fiber.StatusUnauthorized, signOutDetails)
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewDomainError("UNAUTHORIZED", "invalid token", fiber.StatusUnauthorized, signOutDetails)
	}

	admin, err := m.admins.GetByID(c.Context(), claims.AdminID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewDomainError("UNAUTHORIZED", "admin not found", fiber.StatusUnauthorized, signOutDetails)
		}
		return apperrors.MapError(err)
	}
	if !admin.IsActive {
		return apperrors.NewDomainError("UNAUTHORIZED", "admin deactivated", fiber.StatusUnauthorized, signOutDetails)
	}

	c.Locals(adminKey, admin)
	return c.Next()
}

// AdminFromContext retrieves the authenticated admin.
func AdminFromContext(c *fiber.Ctx) (*domain.Admin, bool) {
	val := c.Locals(adminKey)
	if val == nil {
		return nil, false
	}
	admin, ok := val.(*domain.Admin)
	return admin, ok
}
