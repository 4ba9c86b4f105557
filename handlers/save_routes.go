// handlers/save_routes.go
package handlers

import (
	"errors"
	"strconv"

	"club-career-system/models"
	"club-career-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupSaveRoutes(app *fiber.App, world *services.WorldService, day *services.DayService,
	training *services.TrainingService, news *services.NewsService, db *gorm.DB) {

	app.Post("/saves", func(c *fiber.Ctx) error {
		var body struct {
			Name     string `json:"name"`
			TeamName string `json:"teamName"`
			Goal     string `json:"goal"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}
		if body.Name == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name is required"})
		}

		save, err := world.CreateSave(body.Name, body.TeamName, body.Goal)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "failed to create save",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(save)
	})

	app.Get("/saves/:id", func(c *fiber.Ctx) error {
		var save models.Save
		if err := db.First(&save, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "save not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		var team models.Team
		if err := db.Preload("Players").Preload("Sponsors").
			First(&team, "id = ?", save.UserTeamID).Error; err != nil {
			return c.JSON(fiber.Map{"save": save})
		}
		return c.JSON(fiber.Map{"save": save, "team": team})
	})

	app.Post("/saves/:id/advance", func(c *fiber.Ctx) error {
		live := c.Query("live") == "true"

		result, err := day.AdvanceDay(c.Params("id"), live)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrGameOver):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "career is over"})
			case errors.Is(err, services.ErrDayInFlight):
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "day tick already running"})
			case errors.Is(err, services.ErrForegroundTimeout):
				return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "match simulation timed out, retry the day"})
			case errors.Is(err, gorm.ErrRecordNotFound):
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "save not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "day tick failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(result)
	})

	app.Post("/saves/:id/matches/:matchId/finalize", func(c *fiber.Ctx) error {
		var result models.MatchResult
		if err := c.BodyParser(&result); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid match result"})
		}

		tick, err := day.FinalizeLiveMatch(c.Params("id"), c.Params("matchId"), result)
		if err != nil {
			if errors.Is(err, services.ErrNoPendingLive) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no live match pending"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to finalize match",
				"cause": err.Error(),
			})
		}
		return c.JSON(tick)
	})

	app.Post("/saves/:id/training", func(c *fiber.Ctx) error {
		var body struct {
			Focus string `json:"focus"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
		}

		var save models.Save
		if err := db.First(&save, "id = ?", c.Params("id")).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "save not found"})
		}

		cycle, err := training.StartCycle(&save, save.UserTeamID, body.Focus)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "failed to start training",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(cycle)
	})

	app.Get("/saves/:id/news", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		items, err := news.Feed(c.Params("id"), limit)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(items)
	})
}
