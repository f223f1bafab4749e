package app

import (
	"splatview/internal/handlers"
	u "splatview/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"
)

// SetupApp creates and configures a new Fiber app instance
func SetupApp(cfg u.Config, redis *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		BodyLimit:             cfg.Limits.MaxUploadBytes + (1 << 20), // upload plus multipart overhead
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			msg := "Internal Server Error"

			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				msg = e.Message
			}

			u.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

			return c.Status(code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    code,
					"message": msg,
				},
			})
		},
	})

	RegisterMiddleware(app, cfg)
	RegisterRoutes(app, cfg, redis)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

// RegisterRoutes mounts all route handlers to the app
func RegisterRoutes(app *fiber.App, cfg u.Config, redis *redis.Client) {
	// One shared service instance so every route sees the same config and
	// scene cache client.
	svc := handlers.NewViewService(cfg, redis)

	app.Get("/", svc.HandleIndex)

	v1 := app.Group("/v1")

	v1.Get("/view", svc.HandleSampleScene)
	v1.Post("/view", svc.HandleScene)
	v1.Post("/view/info", svc.HandleCloudInfo)
	v1.Get("/view/snapshot", svc.HandleSnapshot)
	v1.Post("/view/snapshot", svc.HandleSnapshot)
	v1.Post("/download", svc.HandleDownload)

	v1.Get("/monitor", monitor.New())
}
