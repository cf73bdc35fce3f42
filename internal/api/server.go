package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/insightdelivered/bank-sms-parser/internal/logger"
)

// requestIDHeader carries the request id back to the client.
const requestIDHeader = "X-Request-ID"

// NewApp builds the fiber application with middleware and routes.
func NewApp(h *Handler, log zerolog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "bank-sms-parser " + Version,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(requestLogger(log))

	h.RegisterRoutes(app)
	return app
}

// requestLogger tags each request with an id, stores a request-scoped logger
// in the user context and logs one line when the handler returns.
func requestLogger(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)

		log := base.With().Str("request_id", id).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext(), log))

		start := time.Now()
		err := c.Next()
		if err != nil {
			// let the error handler write the response before the status is logged
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		log.Info().
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var ferr *fiber.Error
	if errors.As(err, &ferr) {
		code = ferr.Code
	}
	return c.Status(code).JSON(ErrorResponse{Error: err.Error()})
}
