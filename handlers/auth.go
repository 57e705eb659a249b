package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/campaign-os/assistant/b2util"
	"github.com/campaign-os/assistant/chat"
	"github.com/campaign-os/assistant/config"
	"github.com/campaign-os/assistant/cookie"
	"github.com/campaign-os/assistant/jwt"
	"github.com/campaign-os/assistant/password"
	"github.com/campaign-os/assistant/ui"
)

var (
	// appPasswordHash is derived once at startup so login checks run
	// against an argon2id hash, never the raw env value.
	appPasswordHash string

	sessions *chat.Store
)

// Init hashes the shared password and wires the session store. Must run
// before routes are registered.
func Init() error {
	if config.AppPassword == "" {
		return fmt.Errorf("missing APP_PASSWORD")
	}
	hash, err := password.Hash(config.AppPassword)
	if err != nil {
		return fmt.Errorf("hashing app password: %w", err)
	}
	appPasswordHash = hash

	sessions = chat.NewStore()
	if b2util.Configured() {
		sessions.Upload = b2util.UploadFile
		sessions.Download = b2util.DownloadFile
	}
	return nil
}

// LoginPage shows the password gate.
func LoginPage(c *fiber.Ctx) error {
	return render(c, ui.LoginPage(""))
}

// Login checks the shared password and opens a fresh chat session.
func Login(c *fiber.Ctx) error {
	if !password.Verify(c.FormValue("password"), appPasswordHash) {
		log.Printf("[auth] failed login from %s", c.IP())
		c.Status(fiber.StatusUnauthorized)
		return render(c, ui.LoginPage("Wrong password."))
	}

	sess := sessions.Create("")
	if err := sessions.Save(sess); err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	token, err := jwt.Generate(sess.ID)
	if err != nil {
		return fmt.Errorf("issuing token: %w", err)
	}
	cookie.SetAuth(c, token)

	// htmx posts get a client-side redirect, plain posts a 303
	if c.Get("HX-Request") != "" {
		c.Set("HX-Redirect", "/")
		return c.SendStatus(fiber.StatusOK)
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}

// Logout clears the cookie.
func Logout(c *fiber.Ctx) error {
	cookie.ClearAuth(c)
	return c.Redirect("/login", fiber.StatusSeeOther)
}

// AuthRequired guards everything behind the password gate. A valid token
// leaves the chat session id in locals.
func AuthRequired(c *fiber.Ctx) error {
	token := cookie.GetAuth(c)
	if token == "" {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	claims, err := jwt.Parse(token)
	if err != nil {
		cookie.ClearAuth(c)
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	c.Locals("sessionID", claims.SessionID)
	return c.Next()
}

func sessionID(c *fiber.Ctx) string {
	if id, ok := c.Locals("sessionID").(string); ok {
		return id
	}
	return ""
}
