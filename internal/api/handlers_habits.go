package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/julianstephens/streaklit/internal/models"
	"github.com/julianstephens/streaklit/internal/storage"
	"github.com/julianstephens/streaklit/internal/utils"
)

type recordInput struct {
	Count     *int   `json:"count"`
	Increment bool   `json:"increment"`
	Note      string `json:"note"`
}

type recordResponse struct {
	HabitID        string    `json:"habit_id"`
	Date           string    `json:"date"`
	CompletedCount int       `json:"completed_count"`
	Target         int       `json:"target"`
	Completed      bool      `json:"completed"`
	Note           string    `json:"note,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}

type streakResponse struct {
	HabitID string `json:"habit_id"`
	Current int    `json:"current"`
	Longest int    `json:"longest"`
}

func (handler *Handler) ListHabits(c *fiber.Ctx) error {
	habits, err := handler.app.Store.ListHabits(c.UserContext(), storage.ListOptions{
		IncludeArchived: c.QueryBool("archived"),
	})
	if err != nil {
		return err
	}
	if habits == nil {
		habits = []models.Habit{}
	}
	return c.JSON(fiber.Map{"habits": habits})
}

func (handler *Handler) GetStreak(c *fiber.Ctx) error {
	id := c.Params("id")
	res, err := handler.app.Streak(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(streakResponse{HabitID: id, Current: res.Current, Longest: res.Longest})
}

func (handler *Handler) GetStats(c *fiber.Ctx) error {
	sum, err := handler.app.Stats(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(sum)
}

// parseDayParam accepts YYYY-MM-DD or "today".
func (handler *Handler) parseDayParam(raw string) (time.Time, error) {
	if strings.EqualFold(raw, "today") {
		return handler.app.Today(), nil
	}
	return utils.ParseDay(raw)
}

func (handler *Handler) PutRecord(c *fiber.Ctx) error {
	day, err := handler.parseDayParam(c.Params("date"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}

	var input recordInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return apiError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}
	count := 1
	if input.Count != nil {
		count = *input.Count
	}

	id := c.Params("id")
	habit, err := handler.app.Store.GetHabit(c.UserContext(), id)
	if err != nil {
		return err
	}
	rec, err := handler.app.RecordProgress(c.UserContext(), id, day, count, input.Increment, input.Note)
	if err != nil {
		return err
	}

	return c.JSON(recordResponse{
		HabitID:        rec.HabitID,
		Date:           utils.FormatDay(rec.Date),
		CompletedCount: rec.CompletedCount,
		Target:         habit.EffectiveTarget(),
		Completed:      rec.IsFullyCompleted(habit.TargetCount),
		Note:           rec.Note,
		CompletedAt:    rec.CompletedAt.UTC(),
	})
}

func (handler *Handler) DeleteRecord(c *fiber.Ctx) error {
	day, err := handler.parseDayParam(c.Params("date"))
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid date")
	}
	if err := handler.app.ClearProgress(c.UserContext(), c.Params("id"), day); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
