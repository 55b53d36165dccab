// Package api serves habits, streaks and reminders over a local HTTP API for the tray app
// and other companions on the same machine.
package api

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/julianstephens/streaklit/internal/app"
	"github.com/julianstephens/streaklit/internal/config"
	"github.com/julianstephens/streaklit/internal/constants"
	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/logger"
)

type Handler struct {
	app    *app.App
	secret string
	log    *log.Logger
}

func NewHandler(a *app.App, secret string, l *log.Logger) *Handler {
	return &Handler{app: a, secret: secret, log: logger.Or(l)}
}

// NewServer builds the fiber app with every route registered.
func NewServer(a *app.App, cfg config.APIConfig, secret string, l *log.Logger) *fiber.App {
	handler := NewHandler(a, secret, l)

	server := fiber.New(fiber.Config{
		AppName:               constants.AppName,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		ErrorHandler:          handler.errorHandler,
	})
	server.Use(recover.New())
	server.Use(handler.requestLogger)

	RegisterRoutes(server, handler)
	return server
}

// statusFor maps an error kind onto an HTTP status.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindInvalidInput:
		return fiber.StatusBadRequest
	case apperr.KindPermissionDenied:
		return fiber.StatusForbidden
	case apperr.KindGloballyDisabled:
		return fiber.StatusConflict
	case apperr.KindServiceUnavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func (handler *Handler) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return apiError(c, fe.Code, fe.Message)
	}

	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		handler.log.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	body := fiber.Map{
		"error": apperr.UserMessage(err),
		"kind":  apperr.KindOf(err).String(),
	}
	if apperr.KindOf(err) == apperr.KindPermissionDenied || apperr.KindOf(err) == apperr.KindGloballyDisabled {
		body["retryable"] = apperr.IsRetryable(err)
		body["needs_settings"] = apperr.NeedsSettings(err)
	}
	return c.Status(status).JSON(body)
}
