package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated technician.
type Principal struct {
	Username string
}

// AuthMiddleware validates bearer tokens against the credential list.
type AuthMiddleware struct {
	tokens      *TokenManager
	technicians map[string]struct{}
}

// NewAuthMiddleware constructs middleware over the loaded credential
// list.
func NewAuthMiddleware(tokens *TokenManager, technicians []domain.Technician) *AuthMiddleware {
	known := make(map[string]struct{}, len(technicians))
	for _, t := range technicians {
		known[t.Username] = struct{}{}
	}
	return &AuthMiddleware{tokens: tokens, technicians: known}
}

// Handle enforces authentication for technician-only routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	principal, err := m.principal(c)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

// Identify resolves a bearer token when present without requiring one;
// routes open to requesters use it to attribute notes when a technician
// happens to be signed in.
func (m *AuthMiddleware) Identify(c *fiber.Ctx) error {
	if c.Get("Authorization") != "" {
		if principal, err := m.principal(c); err == nil {
			c.Locals(principalKey, principal)
		}
	}
	return c.Next()
}

func (m *AuthMiddleware) principal(c *fiber.Ctx) (*Principal, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, util.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, util.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return nil, util.NewUnauthorized("invalid token")
	}
	if _, known := m.technicians[claims.Username]; !known {
		return nil, util.NewUnauthorized("technician not found")
	}
	return &Principal{Username: claims.Username}, nil
}

// PrincipalFromContext retrieves the authenticated technician.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
