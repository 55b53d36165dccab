package api

import (
	"github.com/gofiber/fiber/v2"

	apperr "github.com/julianstephens/streaklit/internal/errors"
	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/notification"
)

type reminderInput struct {
	Time   string             `json:"time"`
	Period *models.PeriodWire `json:"period"`
}

type batchResponse struct {
	Result       string                 `json:"result"`
	SuccessCount int                    `json:"success_count"`
	FailureCount int                    `json:"failure_count"`
	Failures     []notification.Failure `json:"failures,omitempty"`
	NotAttempted []string               `json:"not_attempted,omitempty"`
	Error        string                 `json:"error,omitempty"`
}

func (handler *Handler) PutReminder(c *fiber.Ctx) error {
	var input reminderInput
	if err := c.BodyParser(&input); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid request body")
	}

	var period models.NotificationPeriod = models.EveryDay{}
	if input.Period != nil {
		p, err := models.DecodePeriod(*input.Period)
		if err != nil {
			return err
		}
		period = p
	}

	id := c.Params("id")
	if err := handler.app.Orchestrator.EnableHabitNotification(c.UserContext(), id, input.Time, period); err != nil {
		return err
	}
	state, err := handler.app.Orchestrator.HabitState(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"habit_id": id, "state": notification.FormatState(state)})
}

func (handler *Handler) DeleteReminder(c *fiber.Ctx) error {
	if err := handler.app.Orchestrator.DisableHabitNotification(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (handler *Handler) EnableAll(c *fiber.Ctx) error {
	return handler.sendBatch(c, handler.app.Orchestrator.EnableGlobalNotifications(c.UserContext()))
}

func (handler *Handler) DisableAll(c *fiber.Ctx) error {
	return handler.sendBatch(c, handler.app.Orchestrator.DisableGlobalNotifications(c.UserContext()))
}

func (handler *Handler) sendBatch(c *fiber.Ctx, res notification.BatchResult) error {
	switch r := res.(type) {
	case notification.BatchSuccess:
		return c.JSON(batchResponse{Result: "success", SuccessCount: r.Count})
	case notification.PartialSuccess:
		return c.JSON(batchResponse{
			Result:       "partial",
			SuccessCount: r.SuccessCount,
			FailureCount: r.FailureCount,
			Failures:     r.Failures,
			NotAttempted: r.NotAttempted,
		})
	case notification.BatchError:
		status := fiber.StatusInternalServerError
		switch {
		case r.Cause != nil:
			status = statusFor(r.Cause)
		case len(r.Failures) > 0:
			status = statusFor(r.Failures[0].Err)
		}
		return c.Status(status).JSON(batchResponse{
			Result:       "error",
			FailureCount: len(r.Failures),
			Failures:     r.Failures,
			NotAttempted: r.NotAttempted,
			Error:        apperr.UserMessage(r),
		})
	default:
		return fiber.ErrInternalServerError
	}
}

// GetPermission reports the permission and the global state from a single OS check.
// CheckGlobalState refreshes the cache that Permission then reads.
func (handler *Handler) GetPermission(c *fiber.Ctx) error {
	state, err := handler.app.Orchestrator.CheckGlobalState(c.UserContext())
	if err != nil {
		return err
	}
	r := handler.app.Orchestrator.Permission(c.UserContext())
	return c.JSON(fiber.Map{
		"permission": notification.FormatPermission(r),
		"state":      state.String(),
	})
}

func (handler *Handler) InvalidatePermission(c *fiber.Ctx) error {
	handler.app.Orchestrator.Invalidate()
	return c.SendStatus(fiber.StatusNoContent)
}
