// handlers/league_routes.go
package handlers

import (
	"errors"

	"club-career-system/models"
	"club-career-system/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupLeagueRoutes(app *fiber.App, db *gorm.DB) {

	app.Get("/leagues/:id/table", func(c *fiber.Ctx) error {
		var league models.League
		if err := db.First(&league, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "league not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		var teams []models.Team
		if err := db.Where("league_id = ?", league.ID).Find(&teams).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}

		return c.JSON(fiber.Map{
			"league": league,
			"table":  services.Standings(teams),
		})
	})

	app.Get("/leagues/:id/fixtures", func(c *fiber.Ctx) error {
		var fixtures []models.Match
		query := db.Where("league_id = ?", c.Params("id")).Order("day ASC")
		if day := c.QueryInt("day", 0); day > 0 {
			query = query.Where("day = ?", day)
		}
		if err := query.Find(&fixtures).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fixtures)
	})

	app.Get("/teams/:id", func(c *fiber.Ctx) error {
		var team models.Team
		if err := db.Preload("Players").Preload("Sponsors").
			First(&team, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "team not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(team)
	})

	app.Get("/teams/:id/history", func(c *fiber.Ctx) error {
		var records []models.History
		if err := db.Where("team_id = ?", c.Params("id")).
			Order("season_year DESC").Find(&records).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(records)
	})
}
