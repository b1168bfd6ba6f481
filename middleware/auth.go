package middleware

import (
	"context"
	"errors"
	"log"
	"strings"

	"retroarcade-hub/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Identity is the resolved caller attached to the request context.
type Identity struct {
	PlayerID string
	Username string
}

// IdentityResolver turns a bearer credential into a caller identity.
// Resolution is external to the power-up core: handlers only ever see the
// already-resolved identity from ctx locals.
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

var ErrUnknownIdentity = errors.New("credential does not resolve to a known player")

// PlayerResolver resolves the bearer token as a player ID against the store.
// TODO: swap for gateway-issued JWT validation once the auth service lands.
type PlayerResolver struct {
	DB *gorm.DB
}

func NewPlayerResolver(db *gorm.DB) *PlayerResolver {
	return &PlayerResolver{DB: db}
}

func (r *PlayerResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	var player models.Player
	err := r.DB.WithContext(ctx).Where("id = ? AND is_active = ?", token, true).First(&player).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrUnknownIdentity
	}
	if err != nil {
		return nil, err
	}
	return &Identity{PlayerID: player.ID, Username: player.Username}, nil
}

// PlayerContextMiddleware extracts the bearer credential, resolves it and
// attaches the identity to ctx for handlers. Requests without a resolvable
// credential are rejected before any handler runs.
func PlayerContextMiddleware(resolver IdentityResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "authorization credential missing",
			})
		}

		// Parse "Bearer <token>"
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			// no "Bearer " prefix — accept the raw value
			token = authHeader
		}

		identity, err := resolver.Resolve(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, ErrUnknownIdentity) {
				log.Printf("🚫 [AUTH] Unresolvable credential for %s", c.Path())
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid or expired credential",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "identity resolution failed",
			})
		}

		c.Locals("player_id", identity.PlayerID)
		c.Locals("username", identity.Username)

		return c.Next()
	}
}

// CallerID returns the resolved player ID set by PlayerContextMiddleware, or
// "" when the request carried no identity.
func CallerID(c *fiber.Ctx) string {
	id, _ := c.Locals("player_id").(string)
	return id
}
