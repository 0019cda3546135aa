package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/campusrate/campusrate-api/internal/middleware"
)

const authTestSecret = "auth-test-secret"

func authTestApp() *fiber.App {
	app := fiber.New()
	app.Get("/whoami", middleware.OptionalAuth(authTestSecret), func(c *fiber.Ctx) error {
		return c.SendString(middleware.UserIDFromLocals(c))
	})
	return app
}

func TestOptionalAuthResolvesSubject(t *testing.T) {
	app := authTestApp()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"}).SignedString([]byte(authTestSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "42", bodyString(t, resp))
}

func TestOptionalAuthAllowsAnonymous(t *testing.T) {
	app := authTestApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Empty(t, bodyString(t, resp))
}

func TestOptionalAuthTreatsInvalidTokenAsAnonymous(t *testing.T) {
	app := authTestApp()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42"}).SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Empty(t, bodyString(t, resp))
}

func bodyString(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	buf := make([]byte, 64)
	n, _ := resp.Body.Read(buf)
	return string(buf[:n])
}
