package cookie

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const authCookieName = "auth_token"

// SetAuth writes the signed session token.
func SetAuth(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    token,
		Expires:  time.Now().Add(7 * 24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}

// GetAuth reads the session token, "" when absent.
func GetAuth(c *fiber.Ctx) string {
	return c.Cookies(authCookieName)
}

// ClearAuth logs the browser out.
func ClearAuth(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     authCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
}
