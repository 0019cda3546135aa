package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// OptionalAuth validates a bearer token when one is supplied and stores the
// authenticated user id in request locals. Requests without a valid token
// continue as anonymous; the rating gateway then keys them by client address.
func OptionalAuth(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Next()
		}

		if userID := subjectFromToken(token, secret); userID != "" {
			c.Locals("user_id", userID)
		}

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	authorization := c.Get("Authorization")
	const bearer = "bearer "
	if len(authorization) <= len(bearer) || !strings.EqualFold(authorization[:len(bearer)], bearer) {
		return ""
	}

	return strings.TrimSpace(authorization[len(bearer):])
}

func subjectFromToken(tokenString, secret string) string {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}

	for _, key := range []string{"sub", "user_id", "id"} {
		if value, ok := claims[key]; ok {
			switch v := value.(type) {
			case string:
				if trimmed := strings.TrimSpace(v); trimmed != "" {
					return trimmed
				}
			case float64:
				if v > 0 {
					return fmt.Sprintf("%.0f", v)
				}
			}
		}
	}

	return ""
}

// UserIDFromLocals returns the authenticated user id bound to the request, if any.
func UserIDFromLocals(c *fiber.Ctx) string {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
