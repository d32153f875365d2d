package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/accesssync/internal/domain"
)

// Auth guards the ops endpoints with a static bearer token.
// An empty configured token rejects every request.
func Auth(token string) fiber.Handler {
	expected := hashToken(token)

	return func(c *fiber.Ctx) error {
		if token == "" {
			return domain.ErrUnauthorized
		}

		presented := extractBearerToken(c)
		if presented == "" {
			return domain.ErrUnauthorized
		}

		// compare digests so timing does not leak the token length
		got := hashToken(presented)
		if subtle.ConstantTimeCompare(got[:], expected[:]) != 1 {
			return domain.ErrUnauthorized
		}

		return c.Next()
	}
}

// extractBearerToken extracts token from Authorization header
func extractBearerToken(c *fiber.Ctx) string {
	auth := c.Get("Authorization")
	if auth == "" {
		return ""
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func hashToken(token string) [sha256.Size]byte {
	return sha256.Sum256([]byte(token))
}
