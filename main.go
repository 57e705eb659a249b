package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/campaign-os/assistant/ad"
	"github.com/campaign-os/assistant/b2util"
	"github.com/campaign-os/assistant/config"
	"github.com/campaign-os/assistant/db"
	h "github.com/campaign-os/assistant/handlers"
	"github.com/campaign-os/assistant/vector"
)

func main() {
	if err := config.ValidateServer(); err != nil {
		log.Fatalf("error validating config: %v", err)
	}

	if err := db.Init(config.DatabaseURL); err != nil {
		log.Fatalf("error initializing database: %v", err)
	}
	if err := ad.EnsureSchema(); err != nil {
		log.Fatalf("error preparing schema: %v", err)
	}

	if err := b2util.Init(); err != nil {
		log.Fatalf("error initializing B2: %v", err)
	}
	if err := vector.InitGemini(); err != nil {
		log.Fatalf("error initializing Gemini client: %v", err)
	}
	if err := vector.InitQdrant(); err != nil {
		log.Fatalf("error initializing Qdrant: %v", err)
	}
	if err := h.Init(); err != nil {
		log.Fatalf("error initializing handlers: %v", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    config.ServerUploadLimit,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second, // generation turns are slow
	})

	app.Use(limiter.New(limiter.Config{
		Max:        config.ServerRateLimitMax,
		Expiration: config.ServerRateLimitExp,
	}))
	app.Use(logger.New())

	app.Get("/healthz", h.Health)
	app.Get("/login", h.LoginPage)
	app.Post("/login", h.Login)
	app.Get("/logout", h.Logout)

	app.Get("/", h.AuthRequired, h.HomePage)
	app.Get("/new", h.AuthRequired, h.NewChat)
	app.Post("/chat", h.AuthRequired, h.ChatMessage)
	app.Get("/session/:id", h.AuthRequired, h.OpenSession)
	app.Post("/session/:id/rename", h.AuthRequired, h.RenameSession)
	app.Get("/media/:adID", h.AuthRequired, h.Media)
	app.Get("/admin/caches", h.AuthRequired, h.AdminCaches)

	log.Printf("[server] listening on :%s", config.ServerPort)
	if err := app.Listen(":" + config.ServerPort); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
