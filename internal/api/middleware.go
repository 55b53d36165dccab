package api

import (
	"crypto/subtle"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/julianstephens/streaklit/internal/constants"
)

// SecretRequired rejects requests without the shared secret header. An empty secret
// disables the check.
func (handler *Handler) SecretRequired(c *fiber.Ctx) error {
	if handler.secret == "" {
		return c.Next()
	}
	got := c.Get(constants.SecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(handler.secret)) != 1 {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.Next()
}

func (handler *Handler) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	handler.log.Debug("Request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}
